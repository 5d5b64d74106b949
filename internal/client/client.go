// Package client provides a Go client for the Feedline API.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is a Feedline API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
}

// New creates a new Feedline client.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Errors
var (
	ErrAlreadyRegistered = errors.New("already registered")
)

// User represents a user from the API.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
}

// Post represents a post from the API.
type Post struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	AuthorID    string   `json:"author_id"`
	LikeIDs     []string `json:"like_ids"`
	LikesCount  int      `json:"likes_count"`
	Author      *User    `json:"author"`
}

// Comment represents a comment from the API.
type Comment struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	PostID     string   `json:"post_id"`
	AuthorID   string   `json:"author_id"`
	LikeIDs    []string `json:"like_ids"`
	LikesCount int      `json:"likes_count"`
	Author     *User    `json:"author"`
	Post       *Post    `json:"post"`
}

// Register creates a new user account and stores the returned token.
func (c *Client) Register(email, username, password string) (*User, error) {
	reqBody := map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	}
	body, _ := json.Marshal(reqBody)
	resp, err := c.HTTPClient.Post(c.BaseURL+"/api/users", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusConflict {
		return nil, ErrAlreadyRegistered
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("register failed (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		User        User   `json:"user"`
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, err
	}
	c.Token = result.AccessToken
	return &result.User, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(email, password string) error {
	reqBody := map[string]string{"email": email, "password": password}
	body, _ := json.Marshal(reqBody)
	resp, err := c.HTTPClient.Post(c.BaseURL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("login failed (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	c.Token = result.AccessToken
	return nil
}

// IsAuthenticated returns true if the client holds a token.
func (c *Client) IsAuthenticated() bool {
	return c.Token != ""
}

// doRequest performs an authenticated HTTP request.
func (c *Client) doRequest(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return c.HTTPClient.Do(req)
}

func decodeResponse[T any](resp *http.Response, op string) (*T, error) {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s failed (%d): %s", op, resp.StatusCode, string(body))
	}
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePost publishes a new post.
func (c *Client) CreatePost(title, description string) (*Post, error) {
	reqBody := map[string]string{"title": title}
	if description != "" {
		reqBody["description"] = description
	}
	resp, err := c.doRequest(http.MethodPost, "/api/posts", reqBody)
	if err != nil {
		return nil, err
	}
	return decodeResponse[Post](resp, "create post")
}

// GetPost fetches a single post.
func (c *Client) GetPost(id string) (*Post, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/posts/"+id, nil)
	if err != nil {
		return nil, err
	}
	return decodeResponse[Post](resp, "get post")
}

// ListPosts fetches a page of posts.
func (c *Client) ListPosts(skip, take int) ([]Post, int, error) {
	query := url.Values{}
	query.Set("skip", strconv.Itoa(skip))
	query.Set("take", strconv.Itoa(take))
	resp, err := c.doRequest(http.MethodGet, "/api/posts?"+query.Encode(), nil)
	if err != nil {
		return nil, 0, err
	}
	page, err := decodeResponse[struct {
		Nodes      []Post `json:"nodes"`
		TotalCount int    `json:"total_count"`
	}](resp, "list posts")
	if err != nil {
		return nil, 0, err
	}
	return page.Nodes, page.TotalCount, nil
}

// DeletePost deletes a post you own.
func (c *Client) DeletePost(id string) error {
	resp, err := c.doRequest(http.MethodDelete, "/api/posts/"+id, nil)
	if err != nil {
		return err
	}
	_, err = decodeResponse[map[string]any](resp, "delete post")
	return err
}

// LikePost adds your like to a post.
func (c *Client) LikePost(id string) (*Post, error) {
	resp, err := c.doRequest(http.MethodPost, "/api/posts/"+id+"/like", nil)
	if err != nil {
		return nil, err
	}
	return decodeResponse[Post](resp, "like post")
}

// UnlikePost removes your like from a post.
func (c *Client) UnlikePost(id string) (*Post, error) {
	resp, err := c.doRequest(http.MethodPost, "/api/posts/"+id+"/unlike", nil)
	if err != nil {
		return nil, err
	}
	return decodeResponse[Post](resp, "unlike post")
}

// CreateComment adds a comment to a post.
func (c *Client) CreateComment(postID, text string) (*Comment, error) {
	reqBody := map[string]string{"post_id": postID, "text": text}
	resp, err := c.doRequest(http.MethodPost, "/api/comments", reqBody)
	if err != nil {
		return nil, err
	}
	return decodeResponse[Comment](resp, "create comment")
}

// LikeComment adds your like to a comment.
func (c *Client) LikeComment(id string) (*Comment, error) {
	resp, err := c.doRequest(http.MethodPost, "/api/comments/"+id+"/like", nil)
	if err != nil {
		return nil, err
	}
	return decodeResponse[Comment](resp, "like comment")
}

// UnlikeComment removes your like from a comment.
func (c *Client) UnlikeComment(id string) (*Comment, error) {
	resp, err := c.doRequest(http.MethodPost, "/api/comments/"+id+"/unlike", nil)
	if err != nil {
		return nil, err
	}
	return decodeResponse[Comment](resp, "unlike comment")
}

// GetPostComments fetches a page of a post's comments.
func (c *Client) GetPostComments(postID string, skip, take int) ([]Comment, int, error) {
	query := url.Values{}
	query.Set("skip", strconv.Itoa(skip))
	query.Set("take", strconv.Itoa(take))
	resp, err := c.doRequest(http.MethodGet, "/api/posts/"+postID+"/comments?"+query.Encode(), nil)
	if err != nil {
		return nil, 0, err
	}
	page, err := decodeResponse[struct {
		Nodes      []Comment `json:"nodes"`
		TotalCount int       `json:"total_count"`
	}](resp, "get post comments")
	if err != nil {
		return nil, 0, err
	}
	return page.Nodes, page.TotalCount, nil
}

// TestHelper provides utilities for creating authenticated clients in tests.
type TestHelper struct {
	BaseURL string
}

// NewTestHelper creates a new test helper for the given base URL.
func NewTestHelper(baseURL string) *TestHelper {
	return &TestHelper{BaseURL: baseURL}
}

// CreateAuthenticatedClient registers a user with the given name and returns
// an authenticated client.
func (h *TestHelper) CreateAuthenticatedClient(name string) (*Client, error) {
	c := New(h.BaseURL)
	_, err := c.Register(name+"@example.com", name, "password-"+name)
	if err != nil && !errors.Is(err, ErrAlreadyRegistered) {
		return nil, err
	}
	if errors.Is(err, ErrAlreadyRegistered) {
		if err := c.Login(name+"@example.com", "password-"+name); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// GetToken registers a user (if needed) and returns an access token.
func (h *TestHelper) GetToken(name string) (string, error) {
	c, err := h.CreateAuthenticatedClient(name)
	if err != nil {
		return "", err
	}
	return c.Token, nil
}
