package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultTimeout = 30 * time.Second

	// Canvas caps per_page at 100; asking for the maximum keeps the number
	// of round-trips per list endpoint down.
	defaultPerPage = "100"
)

// RefreshFunc supplies a fresh API token after the current one expires.
// Token refresh itself (OAuth2 round-trip, credential storage) is the
// caller's concern.
type RefreshFunc func(ctx context.Context) (string, error)

// Client talks to the Canvas LMS REST API on behalf of one user token.
// baseURL is the API root including the /api prefix, e.g.
// "https://canvas.example.edu/api".
type Client struct {
	httpClient *http.Client
	baseURL    string
	refresh    RefreshFunc

	mu    sync.Mutex
	token string
}

// NewClient creates a Canvas API client for the given API root and token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

// WithTokenRefresh installs the refresh-once contract: when a request fails
// with ErrTokenExpired, fn is invoked exactly once, the request is retried
// exactly once with the new token, and any further failure is propagated.
func (c *Client) WithTokenRefresh(fn RefreshFunc) *Client {
	c.refresh = fn
	return c
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ValidateSelf checks the token by fetching the calling user's own profile.
func (c *Client) ValidateSelf(ctx context.Context) error {
	var profile struct {
		ID int64 `json:"id"`
	}
	_, err := c.get(ctx, c.baseURL+"/v1/users/self/profile", &profile)
	return err
}

// GetCourse fetches one course including its syllabus body and term.
func (c *Client) GetCourse(ctx context.Context, courseID int64) (*RawCourse, error) {
	q := url.Values{}
	q.Add("include[]", "syllabus_body")
	q.Add("include[]", "term")

	var course RawCourse
	reqURL := fmt.Sprintf("%s/v1/courses/%d?%s", c.baseURL, courseID, q.Encode())
	if _, err := c.get(ctx, reqURL, &course); err != nil {
		return nil, fmt.Errorf("get course %d: %w", courseID, err)
	}
	return &course, nil
}

// ListPages fetches all wiki pages of a course, exhausting pagination.
// The returned records carry list metadata only; use GetPageBody for the
// page body.
func (c *Client) ListPages(ctx context.Context, courseID int64) ([]RawPage, error) {
	first := fmt.Sprintf("%s/v1/courses/%d/pages?per_page=%s", c.baseURL, courseID, defaultPerPage)
	pages, err := fetchAll(ctx, first, func(ctx context.Context, pageURL string) ([]RawPage, string, error) {
		var items []RawPage
		next, err := c.get(ctx, pageURL, &items)
		return items, next, err
	})
	if err != nil {
		return nil, fmt.Errorf("list pages of course %d: %w", courseID, err)
	}
	return pages, nil
}

// GetPageBody fetches the full body of one page by its URL slug.
func (c *Client) GetPageBody(ctx context.Context, courseID int64, pageSlug string) (string, error) {
	var page RawPage
	reqURL := fmt.Sprintf("%s/v1/courses/%d/pages/%s", c.baseURL, courseID, url.PathEscape(pageSlug))
	if _, err := c.get(ctx, reqURL, &page); err != nil {
		return "", fmt.Errorf("get page %q of course %d: %w", pageSlug, courseID, err)
	}
	return page.Body, nil
}

// ListQuizzes fetches all quizzes of a course, exhausting pagination. The
// returned records have no questions; use ListQuizQuestions.
func (c *Client) ListQuizzes(ctx context.Context, courseID int64) ([]RawQuiz, error) {
	first := fmt.Sprintf("%s/v1/courses/%d/quizzes?per_page=%s", c.baseURL, courseID, defaultPerPage)
	quizzes, err := fetchAll(ctx, first, func(ctx context.Context, pageURL string) ([]RawQuiz, string, error) {
		var items []RawQuiz
		next, err := c.get(ctx, pageURL, &items)
		return items, next, err
	})
	if err != nil {
		return nil, fmt.Errorf("list quizzes of course %d: %w", courseID, err)
	}
	return quizzes, nil
}

// ListQuizQuestions fetches all questions of one quiz, exhausting pagination.
func (c *Client) ListQuizQuestions(ctx context.Context, courseID, quizID int64) ([]RawQuestion, error) {
	first := fmt.Sprintf("%s/v1/courses/%d/quizzes/%d/questions?per_page=%s",
		c.baseURL, courseID, quizID, defaultPerPage)
	questions, err := fetchAll(ctx, first, func(ctx context.Context, pageURL string) ([]RawQuestion, string, error) {
		var items []RawQuestion
		next, err := c.get(ctx, pageURL, &items)
		return items, next, err
	})
	if err != nil {
		return nil, fmt.Errorf("list questions of quiz %d in course %d: %w", quizID, courseID, err)
	}
	return questions, nil
}

// get performs an authenticated GET, decodes the JSON body into out and
// returns the rel="next" URL from the Link header, if any. On ErrTokenExpired
// it applies the refresh-once contract before propagating.
func (c *Client) get(ctx context.Context, reqURL string, out any) (string, error) {
	next, err := c.getOnce(ctx, reqURL, out)
	if errors.Is(err, ErrTokenExpired) && c.refresh != nil {
		token, refreshErr := c.refresh(ctx)
		if refreshErr != nil {
			return "", fmt.Errorf("refresh token: %w", refreshErr)
		}
		c.setToken(token)
		return c.getOnce(ctx, reqURL, out)
	}
	return next, err
}

func (c *Client) getOnce(ctx context.Context, reqURL string, out any) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.currentToken())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized && resp.Header.Get("WWW-Authenticate") != "":
		return "", ErrTokenExpired
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(resp.Body)
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return "", fmt.Errorf("failed to decode response from %s: %w", reqURL, err)
	}

	return parseNextLink(resp.Header.Get("Link"))
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}
