package httpapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/feedline-io/feedline/internal/auth"
	"github.com/feedline-io/feedline/internal/config"
	"github.com/feedline-io/feedline/internal/feed"
	"github.com/feedline-io/feedline/internal/model"
	"github.com/feedline-io/feedline/internal/rate"
	"github.com/feedline-io/feedline/internal/store"

	_ "github.com/feedline-io/feedline/docs" // swagger docs

	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

type Server struct {
	users    *feed.UserService
	posts    *feed.PostService
	comments *feed.CommentService
	store    store.Store
	auth     *auth.Service
	limiter  rate.Limiter
	cfg      config.Config
	log      zerolog.Logger
}

func NewServer(st store.Store, authSvc *auth.Service, limiter rate.Limiter, cfg config.Config, log zerolog.Logger) *Server {
	return &Server{
		users:    feed.NewUserService(st),
		posts:    feed.NewPostService(st),
		comments: feed.NewCommentService(st),
		store:    st,
		auth:     authSvc,
		limiter:  limiter,
		cfg:      cfg,
		log:      log,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	switch {
	case strings.HasPrefix(r.URL.Path, "/api/"):
		s.handleAPI(rec, r)
	case strings.HasPrefix(r.URL.Path, "/swagger/"):
		httpSwagger.WrapHandler.ServeHTTP(rec, r)
	default:
		notFound(rec)
	}

	s.log.Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", rec.status).
		Dur("elapsed", time.Since(start)).
		Msg("request")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	segments := splitPath(path)

	switch {
	case len(segments) == 2 && segments[0] == "auth" && segments[1] == "login":
		if r.Method == http.MethodPost {
			s.handleLogin(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "me":
		if r.Method == http.MethodGet {
			s.handleMe(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "users":
		switch r.Method {
		case http.MethodPost:
			s.handleCreateUser(w, r)
			return
		case http.MethodGet:
			s.handleListUsers(w, r)
			return
		case http.MethodPatch:
			s.handleUpdateUser(w, r)
			return
		case http.MethodDelete:
			s.handleDeleteUser(w, r)
			return
		}
	case len(segments) == 2 && segments[0] == "users":
		if r.Method == http.MethodGet {
			s.handleGetUser(w, r, segments[1])
			return
		}
	case len(segments) == 1 && segments[0] == "posts":
		switch r.Method {
		case http.MethodPost:
			s.handleCreatePost(w, r)
			return
		case http.MethodGet:
			s.handleListPosts(w, r)
			return
		}
	case len(segments) == 2 && segments[0] == "posts":
		switch r.Method {
		case http.MethodGet:
			s.handleGetPost(w, r, segments[1])
			return
		case http.MethodPatch:
			s.handleUpdatePost(w, r, segments[1])
			return
		case http.MethodDelete:
			s.handleDeletePost(w, r, segments[1])
			return
		}
	case len(segments) == 3 && segments[0] == "posts" && segments[2] == "comments":
		if r.Method == http.MethodGet {
			s.handlePostComments(w, r, segments[1])
			return
		}
	case len(segments) == 3 && segments[0] == "posts" && segments[2] == "like":
		if r.Method == http.MethodPost {
			s.handleLikePost(w, r, segments[1])
			return
		}
	case len(segments) == 3 && segments[0] == "posts" && segments[2] == "unlike":
		if r.Method == http.MethodPost {
			s.handleUnlikePost(w, r, segments[1])
			return
		}
	case len(segments) == 1 && segments[0] == "comments":
		switch r.Method {
		case http.MethodPost:
			s.handleCreateComment(w, r)
			return
		case http.MethodGet:
			s.handleListComments(w, r)
			return
		}
	case len(segments) == 2 && segments[0] == "comments":
		switch r.Method {
		case http.MethodGet:
			s.handleGetComment(w, r, segments[1])
			return
		case http.MethodPatch:
			s.handleUpdateComment(w, r, segments[1])
			return
		case http.MethodDelete:
			s.handleDeleteComment(w, r, segments[1])
			return
		}
	case len(segments) == 3 && segments[0] == "comments" && segments[2] == "like":
		if r.Method == http.MethodPost {
			s.handleLikeComment(w, r, segments[1])
			return
		}
	case len(segments) == 3 && segments[0] == "comments" && segments[2] == "unlike":
		if r.Method == http.MethodPost {
			s.handleUnlikeComment(w, r, segments[1])
			return
		}
	case len(segments) == 1 && segments[0] == "stats":
		if r.Method == http.MethodGet {
			s.handleGetStats(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "version":
		if r.Method == http.MethodGet {
			s.handleVersion(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "openapi.json":
		if r.Method == http.MethodGet {
			s.serveOpenAPIJSON(w, r)
			return
		}
	}

	notFound(w)
}

// handleGetStats godoc
//
//	@Summary		Get site statistics
//	@Description	Get counts of registered users, posts, and comments
//	@Tags			Stats
//	@Produce		json
//	@Success		200	{object}	model.SiteStats
//	@Router			/api/stats [get]
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetSiteStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version":    s.cfg.Version,
		"commit":     s.cfg.Commit,
		"build_time": s.cfg.BuildTime,
	})
}

func (s *Server) serveOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write([]byte(doc))
}

func (s *Server) requireAuth(w http.ResponseWriter, r *http.Request) (model.Identity, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
		return model.Identity{}, false
	}
	bearer := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	identity, err := s.auth.Resolve(bearer)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return model.Identity{}, false
	}
	return identity, true
}

func (s *Server) allowRateLimit(w http.ResponseWriter, r *http.Request, identity model.Identity, action string, limit int) bool {
	if limit <= 0 {
		return true
	}
	ipKey := fmt.Sprintf("%s:ip:%s", action, s.clientIP(r))
	if ok, retry := s.limiter.Allow(ipKey, limit, time.Minute); !ok {
		writeRateLimit(w, retry)
		return false
	}
	if identity.UserID != "" {
		userKey := fmt.Sprintf("%s:user:%s", action, identity.UserID)
		if ok, retry := s.limiter.Allow(userKey, limit, time.Minute); !ok {
			writeRateLimit(w, retry)
			return false
		}
	}
	return true
}

func (s *Server) clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// writeFeedError maps service errors onto HTTP statuses.
func writeFeedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, feed.ErrForbidden):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, store.ErrDuplicateEmail), errors.Is(err, store.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func readJSON(body io.ReadCloser, dest any) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeRateLimit(w http.ResponseWriter, retry time.Duration) {
	w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
	writeJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":       "rate limit exceeded",
		"retry_after": int(retry.Seconds()),
	})
}

func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, errors.New("not found"))
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
