package httpapp

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/feedline-io/feedline/internal/auth"
	"github.com/feedline-io/feedline/internal/feed"
)

var (
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]{3,30}$`)
)

// handleLogin godoc
//
//	@Summary		Log in
//	@Description	Exchange email and password for a bearer token
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body		object{email=string,password=string}	true	"Credentials"
//	@Success		200			{object}	map[string]interface{}	"Access token and user"
//	@Failure		401			{object}	map[string]string		"Invalid credentials"
//	@Router			/api/auth/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, errors.New("email and password required"))
		return
	}
	token, user, err := s.auth.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"user":         user,
	})
}

// handleMe godoc
//
//	@Summary		Current session
//	@Description	Get the identity carried by the bearer token
//	@Tags			Authentication
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	model.Identity
//	@Failure		401	{object}	map[string]string	"Missing or invalid token"
//	@Router			/api/me [get]
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

// handleCreateUser godoc
//
//	@Summary		Register a user
//	@Description	Create a new user account and return a session token
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			user	body		object{email=string,username=string,password=string,first_name=string,last_name=string}	true	"User data"
//	@Success		200		{object}	map[string]interface{}	"User and access token"
//	@Failure		400		{object}	map[string]string		"Validation error"
//	@Failure		409		{object}	map[string]string		"Email or username taken"
//	@Router			/api/users [post]
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Username  string `json:"username"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if !emailPattern.MatchString(req.Email) {
		writeError(w, http.StatusBadRequest, errors.New("invalid email"))
		return
	}
	if !usernamePattern.MatchString(req.Username) {
		writeError(w, http.StatusBadRequest, errors.New("username must be 3-30 alphanumeric characters"))
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, errors.New("password must be at least 8 characters"))
		return
	}

	user, err := s.users.Create(r.Context(), feed.UserCreateInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	})
	if err != nil {
		writeFeedError(w, err)
		return
	}

	token, err := s.auth.IssueToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":         user,
		"access_token": token,
	})
}

// handleUpdateUser godoc
//
//	@Summary		Update your account
//	@Description	Partially update the authenticated user. Omitted fields are untouched.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			user	body		object{email=string,username=string,password=string,first_name=string,last_name=string,bio=string}	true	"Fields to update"
//	@Success		200		{object}	model.User
//	@Failure		401		{object}	map[string]string	"Missing or invalid token"
//	@Failure		409		{object}	map[string]string	"Email or username taken"
//	@Router			/api/users [patch]
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	var req struct {
		Email     *string `json:"email"`
		Username  *string `json:"username"`
		Password  *string `json:"password"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Bio       *string `json:"bio"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Email != nil {
		trimmed := strings.TrimSpace(*req.Email)
		req.Email = &trimmed
	}
	if req.Email != nil && !emailPattern.MatchString(*req.Email) {
		writeError(w, http.StatusBadRequest, errors.New("invalid email address"))
		return
	}
	if req.Username != nil && !usernamePattern.MatchString(*req.Username) {
		writeError(w, http.StatusBadRequest, errors.New("username must be 3-30 alphanumeric characters"))
		return
	}
	if req.Password != nil && len(*req.Password) < 8 {
		writeError(w, http.StatusBadRequest, errors.New("password must be at least 8 characters"))
		return
	}
	user, err := s.users.Update(r.Context(), identity.UserID, feed.UserUpdateInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
	})
	if err != nil {
		writeFeedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleDeleteUser godoc
//
//	@Summary		Delete your account
//	@Description	Delete the authenticated user. Returns {"id": null} when nothing was deleted.
//	@Tags			Users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	feed.DeleteResult
//	@Failure		401	{object}	map[string]string	"Missing or invalid token"
//	@Router			/api/users [delete]
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	res, err := s.users.Delete(r.Context(), identity.UserID)
	if err != nil {
		writeFeedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleGetUser godoc
//
//	@Summary		Get a user
//	@Tags			Users
//	@Produce		json
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	model.User
//	@Failure		404	{object}	map[string]string	"User not found"
//	@Router			/api/users/{id} [get]
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request, id string) {
	user, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		writeFeedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleListUsers godoc
//
//	@Summary		List users
//	@Description	Paginated user listing with scatter-match filters and compound sorting
//	@Tags			Users
//	@Produce		json
//	@Param			skip		query		int		true	"Rows to skip"
//	@Param			take		query		int		true	"Rows to return"
//	@Param			username	query		string	false	"Scatter-match on username"
//	@Param			first_name	query		string	false	"Scatter-match on first name"
//	@Param			last_name	query		string	false	"Scatter-match on last name"
//	@Success		200			{object}	map[string]interface{}	"nodes and total_count"
//	@Failure		400			{object}	map[string]string		"Invalid pagination arguments"
//	@Router			/api/users [get]
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	args, filter, sort, err := parseUserQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	page, err := s.users.Pagination(r.Context(), args, filter, sort)
	if err != nil {
		writeFeedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
