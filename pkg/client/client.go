// Package client is a Go client for the Circle API. It carries the session
// cookie across calls and tracks the authenticated user as explicit state
// that callers can subscribe to, instead of a process-wide mutable global.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// User is the sanitized profile projection returned by the API.
type User struct {
	ID         string    `json:"_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	Bio        string    `json:"bio"`
	ProfilePic string    `json:"profilePic"`
	Followers  []string  `json:"followers"`
	Following  []string  `json:"following"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Reply is a denormalized post reply.
type Reply struct {
	UserID         string `json:"userId"`
	Username       string `json:"username"`
	UserProfilePic string `json:"userProfilePic"`
	Text           string `json:"text"`
}

// Post is a post as returned by the API.
type Post struct {
	ID        string    `json:"_id"`
	PostedBy  string    `json:"postedBy"`
	Text      string    `json:"text"`
	Img       string    `json:"img"`
	Likes     []string  `json:"likes"`
	Replies   []Reply   `json:"replies"`
	CreatedAt time.Time `json:"createdAt"`
}

// APIError is a non-2xx response decoded from the API's error body.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
	Code       string `json:"code"`
	Details    string `json:"details"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s, HTTP %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// Client calls the Circle API. The zero value is not usable; use New.
type Client struct {
	baseURL string
	http    *http.Client
	state   *State
}

// New creates a Client for the API at baseURL (e.g. "http://localhost:5000").
// The client keeps a cookie jar so the session survives across calls.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		state: NewState(),
	}, nil
}

// State returns the client's authentication state. The same State instance
// is updated by Signup, Login, Logout, and UpdateProfile.
func (c *Client) State() *State {
	return c.state
}

// SignupRequest is the body for Signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup registers a new account and establishes a session.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPost, "/api/users/signup", req, &user); err != nil {
		return nil, err
	}
	c.state.publish(EventLogin, &user)
	return &user, nil
}

// Login authenticates with username and password and establishes a session.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	body := map[string]string{"username": username, "password": password}
	var user User
	if err := c.do(ctx, http.MethodPost, "/api/users/login", body, &user); err != nil {
		return nil, err
	}
	c.state.publish(EventLogin, &user)
	return &user, nil
}

// Logout clears the session cookie and the tracked user.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/users/logout", nil, nil); err != nil {
		return err
	}
	c.state.publish(EventLogout, nil)
	return nil
}

// Profile fetches a profile by user id or username.
func (c *Client) Profile(ctx context.Context, query string) (*User, error) {
	var user User
	path := "/api/users/profile/" + url.PathEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FollowToggle follows or unfollows the given user and reports whether the
// relationship now exists.
func (c *Client) FollowToggle(ctx context.Context, userID string) (bool, error) {
	var res struct {
		Message string `json:"message"`
	}
	path := "/api/users/follow/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodPost, path, nil, &res); err != nil {
		return false, err
	}
	return strings.Contains(res.Message, "followed") &&
		!strings.Contains(res.Message, "unfollowed"), nil
}

// UpdateProfileRequest is the body for UpdateProfile. Empty fields keep
// their stored values.
type UpdateProfileRequest struct {
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
	Bio        string `json:"bio,omitempty"`
	ProfilePic string `json:"profilePic,omitempty"`
}

// UpdateProfile updates the authenticated user's own profile.
func (c *Client) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*User, error) {
	var user User
	path := "/api/users/update/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodPatch, path, req, &user); err != nil {
		return nil, err
	}
	c.state.publish(EventUpdate, &user)
	return &user, nil
}

// CreatePost creates a post. img may be empty or a base64 data URI.
func (c *Client) CreatePost(ctx context.Context, text, img string) (*Post, error) {
	body := map[string]string{"text": text, "img": img}
	var post Post
	if err := c.do(ctx, http.MethodPost, "/api/posts/", body, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Feed fetches the authenticated user's feed. limit <= 0 uses the server
// default.
func (c *Client) Feed(ctx context.Context, limit int) ([]Post, error) {
	path := "/api/posts/feed"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var posts []Post
	if err := c.do(ctx, http.MethodGet, path, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost fetches a single post by id.
func (c *Client) GetPost(ctx context.Context, postID string) (*Post, error) {
	var post Post
	path := "/api/posts/" + url.PathEscape(postID)
	if err := c.do(ctx, http.MethodGet, path, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UserPosts fetches a user's posts, newest first.
func (c *Client) UserPosts(ctx context.Context, username string, limit int) ([]Post, error) {
	path := "/api/posts/user/" + url.PathEscape(username)
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var posts []Post
	if err := c.do(ctx, http.MethodGet, path, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// DeletePost deletes the authenticated user's own post.
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	path := "/api/posts/" + url.PathEscape(postID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// LikeToggle likes or unlikes a post and reports whether the like now
// exists.
func (c *Client) LikeToggle(ctx context.Context, postID string) (bool, error) {
	var res struct {
		Message string `json:"message"`
	}
	path := "/api/posts/" + url.PathEscape(postID) + "/like"
	if err := c.do(ctx, http.MethodPut, path, nil, &res); err != nil {
		return false, err
	}
	return strings.Contains(res.Message, "liked") &&
		!strings.Contains(res.Message, "unliked"), nil
}

// Reply adds a reply to a post and returns the stored reply.
func (c *Client) Reply(ctx context.Context, postID, text string) (*Reply, error) {
	body := map[string]string{"text": text}
	var reply Reply
	path := "/api/posts/" + url.PathEscape(postID) + "/reply"
	if err := c.do(ctx, http.MethodPut, path, body, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// do issues one request and decodes the JSON response into out (when out is
// non-nil). Non-2xx responses are returned as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr := json.NewDecoder(resp.Body).Decode(apiErr); decodeErr != nil {
			apiErr.Message = resp.Status
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
