package httpapp

import (
	"errors"
	"net/http"
	"strings"

	"github.com/feedline-io/feedline/internal/feed"
	"github.com/feedline-io/feedline/internal/store"
)

// handleCreatePost godoc
//
//	@Summary		Publish a post
//	@Description	Create a new post authored by the authenticated user
//	@Tags			Posts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			post	body		object{title=string,description=string}	true	"Post data"
//	@Success		200		{object}	map[string]interface{}	"Created post"
//	@Failure		400		{object}	map[string]string		"Validation error"
//	@Failure		401		{object}	map[string]string		"Missing or invalid token"
//	@Failure		429		{object}	map[string]string		"Rate limited"
//	@Router			/api/posts [post]
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	if !s.allowRateLimit(w, r, identity, "post", s.cfg.RateLimits.PostPerMinute) {
		return
	}
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if len(req.Title) < 1 || len(req.Title) > 180 {
		writeError(w, http.StatusBadRequest, errors.New("title must be 1-180 characters"))
		return
	}

	post, err := s.posts.Create(r.Context(), identity.UserID, feed.PostCreateInput{
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		writeFeedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.postView(r.Context(), post))
}

// handleGetPost godoc
//
//	@Summary		Get a post
//	@Tags			Posts
//	@Produce		json
//	@Param			id	path		string	true	"Post ID"
//	@Success		200	{object}	map[string]interface{}	"Post with embedded author"
//	@Failure		404	{object}	map[string]string		"Post not found"
//	@Router			/api/posts/{id} [get]
func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request, id string) {
	post, err := s.posts.GetByID(r.Context(), id)
	if err != nil {
		writeFeedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.postView(r.Context(), post))
}

// handleUpdatePost godoc
//
//	@Summary		Update a post
//	@Description	Partially update your own post. Omitted fields are untouched.
//	@Tags			Posts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string									true	"Post ID"
//	@Param			post	body		object{title=string,description=string}	true	"Fields to update"
//	@Success		200		{object}	map[string]interface{}	"Updated post"
//	@Failure		401		{object}	map[string]string		"Missing or invalid token"
//	@Failure		403		{object}	map[string]string		"Not your post"
//	@Failure		404		{object}	map[string]string		"Post not found"
//	@Router			/api/posts/{id} [patch]
func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request, id string) {
	identity, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if len(trimmed) < 1 || len(trimmed) > 180 {
			writeError(w, http.StatusBadRequest, errors.New("title must be 1-180 characters"))
			return
		}
		req.Title = &trimmed
	}
	post, err := s.posts.Update(r.Context(), id, identity.UserID, store.PostPatch{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeFeedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.postView(r.Context(), post))
}

// handleDeletePost godoc
//
//	@Summary		Delete a post
//	@Description	Delete your own post. Returns {"id": null} when nothing was deleted.
//	@Tags			Posts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Post ID"
//	@Success		200	{object}	feed.DeleteResult
//	@Failure		401	{object}	map[string]string	"Missing or invalid token"
//	@Failure		403	{object}	map[string]string	"Not your post"
//	@Router			/api/posts/{id} [delete]
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request, id string) {
	identity, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	res, err := s.posts.Delete(r.Context(), id, identity.UserID)
	if err != nil {
		writeFeedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleListPosts godoc
//
//	@Summary		List posts
//	@Description	Paginated post listing with scatter-match filters and sorting
//	@Tags			Posts
//	@Produce		json
//	@Param			skip			query		int		true	"Rows to skip"
//	@Param			take			query		int		true	"Rows to return"
//	@Param			title			query		string	false	"Scatter-match on title"
//	@Param			author_id		query		string	false	"Exact author id"
//	@Param			author_username	query		string	false	"Scatter-match on author username"
//	@Success		200				{object}	map[string]interface{}	"nodes and total_count"
//	@Failure		400				{object}	map[string]string		"Invalid pagination arguments"
//	@Router			/api/posts [get]
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	args, filter, sort, err := parsePostQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	page, err := s.posts.Pagination(r.Context(), args, filter, sort)
	if err != nil {
		writeFeedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"nodes":       s.postViews(r.Context(), page.Nodes),
		"total_count": page.TotalCount,
	})
}

// handlePostComments godoc
//
//	@Summary		List a post's comments
//	@Description	Paginated comment listing scoped to one post
//	@Tags			Comments
//	@Produce		json
//	@Param			id		path		string	true	"Post ID"
//	@Param			skip	query		int		true	"Rows to skip"
//	@Param			take	query		int		true	"Rows to return"
//	@Success		200		{object}	map[string]interface{}	"nodes and total_count"
//	@Failure		404		{object}	map[string]string		"Post not found"
//	@Router			/api/posts/{id}/comments [get]
func (s *Server) handlePostComments(w http.ResponseWriter, r *http.Request, id string) {
	args, filter, sort, err := parseCommentQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := s.posts.GetByID(r.Context(), id); err != nil {
		writeFeedError(w, err)
		return
	}
	filter.PostID = &id
	page, err := s.comments.Pagination(r.Context(), args, filter, sort)
	if err != nil {
		writeFeedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"nodes":       s.commentViews(r.Context(), page.Nodes),
		"total_count": page.TotalCount,
	})
}

// handleLikePost godoc
//
//	@Summary		Like a post
//	@Description	Add the authenticated user to the post's likers. Liking twice is a no-op.
//	@Tags			Posts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Post ID"
//	@Success		200	{object}	map[string]interface{}	"Post with refreshed likes"
//	@Failure		401	{object}	map[string]string		"Missing or invalid token"
//	@Failure		404	{object}	map[string]string		"Post or user not found"
//	@Failure		429	{object}	map[string]string		"Rate limited"
//	@Router			/api/posts/{id}/like [post]
func (s *Server) handleLikePost(w http.ResponseWriter, r *http.Request, id string) {
	identity, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	if !s.allowRateLimit(w, r, identity, "like", s.cfg.RateLimits.LikePerMinute) {
		return
	}
	post, err := s.posts.Like(r.Context(), id, identity.UserID)
	if err != nil {
		writeFeedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.postView(r.Context(), post))
}

// handleUnlikePost godoc
//
//	@Summary		Unlike a post
//	@Description	Remove the authenticated user from the post's likers. Idempotent.
//	@Tags			Posts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Post ID"
//	@Success		200	{object}	map[string]interface{}	"Post with refreshed likes"
//	@Failure		401	{object}	map[string]string		"Missing or invalid token"
//	@Failure		404	{object}	map[string]string		"Post not found"
//	@Failure		429	{object}	map[string]string		"Rate limited"
//	@Router			/api/posts/{id}/unlike [post]
func (s *Server) handleUnlikePost(w http.ResponseWriter, r *http.Request, id string) {
	identity, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	if !s.allowRateLimit(w, r, identity, "like", s.cfg.RateLimits.LikePerMinute) {
		return
	}
	post, err := s.posts.Unlike(r.Context(), id, identity.UserID)
	if err != nil {
		writeFeedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.postView(r.Context(), post))
}
