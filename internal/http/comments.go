package httpapp

import (
	"errors"
	"net/http"
	"strings"

	"github.com/feedline-io/feedline/internal/feed"
	"github.com/feedline-io/feedline/internal/store"
)

// handleCreateComment godoc
//
//	@Summary		Post a comment
//	@Description	Add a comment to a post. Requires authentication.
//	@Tags			Comments
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			comment	body		object{post_id=string,text=string}	true	"Comment data"
//	@Success		200		{object}	map[string]interface{}	"Created comment"
//	@Failure		400		{object}	map[string]string		"Validation error"
//	@Failure		401		{object}	map[string]string		"Missing or invalid token"
//	@Failure		404		{object}	map[string]string		"Post not found"
//	@Failure		429		{object}	map[string]string		"Rate limited"
//	@Router			/api/comments [post]
func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	if !s.allowRateLimit(w, r, identity, "comment", s.cfg.RateLimits.CommentPerMinute) {
		return
	}
	var req struct {
		PostID string `json:"post_id"`
		Text   string `json:"text"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.PostID == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, errors.New("post_id and text required"))
		return
	}

	comment, err := s.comments.Create(r.Context(), req.PostID, identity.UserID, feed.CommentCreateInput{Text: req.Text})
	if err != nil {
		writeFeedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.commentView(r.Context(), comment))
}

// handleGetComment godoc
//
//	@Summary		Get a comment
//	@Tags			Comments
//	@Produce		json
//	@Param			id	path		string	true	"Comment ID"
//	@Success		200	{object}	map[string]interface{}	"Comment with embedded author and post"
//	@Failure		404	{object}	map[string]string		"Comment not found"
//	@Router			/api/comments/{id} [get]
func (s *Server) handleGetComment(w http.ResponseWriter, r *http.Request, id string) {
	comment, err := s.comments.GetByID(r.Context(), id)
	if err != nil {
		writeFeedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.commentView(r.Context(), comment))
}

// handleUpdateComment godoc
//
//	@Summary		Update a comment
//	@Description	Edit your own comment's text
//	@Tags			Comments
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string					true	"Comment ID"
//	@Param			comment	body		object{text=string}	true	"Fields to update"
//	@Success		200		{object}	map[string]interface{}	"Updated comment"
//	@Failure		401		{object}	map[string]string		"Missing or invalid token"
//	@Failure		403		{object}	map[string]string		"Not your comment"
//	@Failure		404		{object}	map[string]string		"Comment not found"
//	@Router			/api/comments/{id} [patch]
func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request, id string) {
	identity, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	var req struct {
		Text *string `json:"text"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Text != nil {
		trimmed := strings.TrimSpace(*req.Text)
		if trimmed == "" {
			writeError(w, http.StatusBadRequest, errors.New("text must not be empty"))
			return
		}
		req.Text = &trimmed
	}
	comment, err := s.comments.Update(r.Context(), id, identity.UserID, store.CommentPatch{Text: req.Text})
	if err != nil {
		writeFeedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.commentView(r.Context(), comment))
}

// handleDeleteComment godoc
//
//	@Summary		Delete a comment
//	@Description	Delete your own comment. Returns {"id": null} when nothing was deleted.
//	@Tags			Comments
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Comment ID"
//	@Success		200	{object}	feed.DeleteResult
//	@Failure		401	{object}	map[string]string	"Missing or invalid token"
//	@Failure		403	{object}	map[string]string	"Not your comment"
//	@Router			/api/comments/{id} [delete]
func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request, id string) {
	identity, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	res, err := s.comments.Delete(r.Context(), id, identity.UserID)
	if err != nil {
		writeFeedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleListComments godoc
//
//	@Summary		List comments
//	@Description	Paginated comment listing with scatter-match text filter
//	@Tags			Comments
//	@Produce		json
//	@Param			skip		query		int		true	"Rows to skip"
//	@Param			take		query		int		true	"Rows to return"
//	@Param			text		query		string	false	"Scatter-match on text"
//	@Param			author_id	query		string	false	"Exact author id"
//	@Param			post_id		query		string	false	"Exact post id"
//	@Success		200			{object}	map[string]interface{}	"nodes and total_count"
//	@Failure		400			{object}	map[string]string		"Invalid pagination arguments"
//	@Router			/api/comments [get]
func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	args, filter, sort, err := parseCommentQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
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

// handleLikeComment godoc
//
//	@Summary		Like a comment
//	@Description	Add the authenticated user to the comment's likers. Liking twice is a no-op.
//	@Tags			Comments
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Comment ID"
//	@Success		200	{object}	map[string]interface{}	"Comment with refreshed likes"
//	@Failure		401	{object}	map[string]string		"Missing or invalid token"
//	@Failure		404	{object}	map[string]string		"Comment or user not found"
//	@Failure		429	{object}	map[string]string		"Rate limited"
//	@Router			/api/comments/{id}/like [post]
func (s *Server) handleLikeComment(w http.ResponseWriter, r *http.Request, id string) {
	identity, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	if !s.allowRateLimit(w, r, identity, "like", s.cfg.RateLimits.LikePerMinute) {
		return
	}
	comment, err := s.comments.Like(r.Context(), id, identity.UserID)
	if err != nil {
		writeFeedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.commentView(r.Context(), comment))
}

// handleUnlikeComment godoc
//
//	@Summary		Unlike a comment
//	@Description	Remove the authenticated user from the comment's likers. Idempotent.
//	@Tags			Comments
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Comment ID"
//	@Success		200	{object}	map[string]interface{}	"Comment with refreshed likes"
//	@Failure		401	{object}	map[string]string		"Missing or invalid token"
//	@Failure		404	{object}	map[string]string		"Comment not found"
//	@Failure		429	{object}	map[string]string		"Rate limited"
//	@Router			/api/comments/{id}/unlike [post]
func (s *Server) handleUnlikeComment(w http.ResponseWriter, r *http.Request, id string) {
	identity, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	if !s.allowRateLimit(w, r, identity, "like", s.cfg.RateLimits.LikePerMinute) {
		return
	}
	comment, err := s.comments.Unlike(r.Context(), id, identity.UserID)
	if err != nil {
		writeFeedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.commentView(r.Context(), comment))
}
