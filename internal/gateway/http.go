package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/practest/internal/auth"
	"github.com/abhisek/practest/internal/quiz"
)

// DefaultTimeout bounds each request when no client is supplied.
const DefaultTimeout = 15 * time.Second

// maxErrorBody caps how much of an error response is kept in the message.
const maxErrorBody = 512

// HTTPClient talks to the backend over JSON/HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
	users   auth.CurrentUserer
}

var _ Gateway = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the service at baseURL. A nil
// httpClient gets one with DefaultTimeout.
func NewHTTPClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		logger:  logger,
	}
}

// WithUsers makes topic listings carry the completion counts of the
// signed-in user.
func (c *HTTPClient) WithUsers(u auth.CurrentUserer) *HTTPClient {
	c.users = u
	return c
}

func (c *HTTPClient) Subjects(ctx context.Context) ([]quiz.Subject, error) {
	var out []quiz.Subject
	if status, err := c.do(ctx, http.MethodGet, "/subjects", nil, &out); err != nil {
		return nil, &FetchError{Op: "subjects", StatusCode: status, Err: err}
	}
	return out, nil
}

func (c *HTTPClient) Topics(ctx context.Context, subject string) ([]quiz.Topic, error) {
	var out []quiz.Topic
	path := "/topics/" + url.PathEscape(subject)
	if c.users != nil {
		if u, ok := c.users.CurrentUser(); ok {
			path += "?" + url.Values{"userId": {u.ID}}.Encode()
		}
	}
	if status, err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, &FetchError{Op: "topics", StatusCode: status, Err: err}
	}
	return out, nil
}

func (c *HTTPClient) GenerateTest(ctx context.Context, cfg quiz.TestConfig, userID string) ([]quiz.Question, error) {
	var out []quiz.Question
	path := "/generate-test?" + EncodeTestConfig(cfg, userID).Encode()
	if status, err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, &FetchError{Op: "questions", StatusCode: status, Err: err}
	}
	return out, nil
}

func (c *HTTPClient) SaveResult(ctx context.Context, r Result) (Ack, error) {
	var ack Ack
	if status, err := c.do(ctx, http.MethodPost, "/results", r, &ack); err != nil {
		return Ack{}, &PersistError{Op: "results", StatusCode: status, Err: err}
	}
	return ack, nil
}

func (c *HTTPClient) UpdateProgress(ctx context.Context, userID, topicID string, completed bool) (Ack, error) {
	var ack Ack
	path := "/progress/" + url.PathEscape(userID) + "/" + url.PathEscape(topicID)
	body := map[string]bool{"completed": completed}
	if status, err := c.do(ctx, http.MethodPost, path, body, &ack); err != nil {
		return Ack{}, &PersistError{Op: "progress", StatusCode: status, Err: err}
	}
	return ack, nil
}

// EncodeTestConfig renders cfg as generate-test query parameters. List
// fields repeat their key.
func EncodeTestConfig(cfg quiz.TestConfig, userID string) url.Values {
	v := url.Values{}
	v.Set("subject", cfg.Subject)
	for _, t := range cfg.Topics {
		v.Add("topics", t)
	}
	v.Set("duration", strconv.Itoa(cfg.Duration))
	v.Set("questionCount", strconv.Itoa(cfg.QuestionCount))
	for _, d := range cfg.Difficulty {
		v.Add("difficulty", string(d))
	}
	for _, t := range cfg.QuestionTypes {
		v.Add("questionTypes", string(t))
	}
	if userID != "" {
		v.Set("userId", userID)
	}
	return v
}

// do performs one request and decodes a JSON response into out. It returns
// the HTTP status when a response was received.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("gateway request failed", "method", method, "path", path, "error", err)
		return 0, err
	}
	defer resp.Body.Close()

	c.logger.Debug("gateway request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, fmt.Errorf("%w: %s", ErrUnexpectedStatus, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
