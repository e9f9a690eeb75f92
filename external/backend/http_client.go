package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/foxseedlab/mensetsu/internal/backend"
	"github.com/google/uuid"
)

const (
	csrfCookieName    = "csrftoken"
	sessionCookieName = "sessionid"
	csrfHeader        = "X-CSRFToken"
	requestIDHeader   = "X-Request-ID"
	maxResponseSize   = 1 << 20
)

type Config struct {
	BaseURL       string
	SessionCookie string
	CSRFToken     string
	Timeout       time.Duration
}

type HTTPClient struct {
	baseURL   *url.URL
	client    *http.Client
	csrfToken string
}

func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	var cookies []*http.Cookie
	if cfg.SessionCookie != "" {
		cookies = append(cookies, &http.Cookie{Name: sessionCookieName, Value: cfg.SessionCookie, Path: "/"})
	}
	if cfg.CSRFToken != "" {
		cookies = append(cookies, &http.Cookie{Name: csrfCookieName, Value: cfg.CSRFToken, Path: "/"})
	}
	jar.SetCookies(base, cookies)

	client := &http.Client{Timeout: cfg.Timeout, Jar: jar}
	// Redirects go to the login page once the session has expired.
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &HTTPClient{
		baseURL:   base,
		client:    client,
		csrfToken: cfg.CSRFToken,
	}, nil
}

type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e envelope) ok() bool {
	return e.Success != nil && *e.Success
}

func (e envelope) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

func (c *HTTPClient) Start(ctx context.Context, interviewID string) error {
	env, err := c.call(ctx, "start", http.MethodPost, "/api/ai-interview/start/"+url.PathEscape(interviewID)+"/", nil, nil)
	if err != nil {
		return err
	}
	if !env.ok() {
		return &backend.Error{Kind: backend.KindServerRejected, Op: "start", Message: env.text()}
	}
	return nil
}

func (c *HTTPClient) Questions(ctx context.Context, interviewID string) (backend.QuestionsResult, error) {
	var body struct {
		Questions []backend.Question `json:"questions"`
	}
	env, err := c.call(ctx, "questions", http.MethodGet, "/api/ai-interview/questions/"+url.PathEscape(interviewID)+"/", nil, &body)
	if err != nil {
		return backend.QuestionsResult{}, err
	}
	if !env.ok() || len(body.Questions) == 0 {
		return backend.QuestionsResult{Ready: false, Message: env.text()}, nil
	}
	return backend.QuestionsResult{Ready: true, Questions: body.Questions, Message: env.text()}, nil
}

func (c *HTTPClient) SubmitAnswer(ctx context.Context, interviewID string, questionID int64, answer string) error {
	path := fmt.Sprintf("/api/ai-interview/answer/%s/%d/", url.PathEscape(interviewID), questionID)
	env, err := c.call(ctx, "answer", http.MethodPost, path, map[string]string{"answer": answer}, nil)
	if err != nil {
		return err
	}
	if !env.ok() {
		return &backend.Error{Kind: backend.KindServerRejected, Op: "answer", Message: env.text()}
	}
	return nil
}

func (c *HTTPClient) Complete(ctx context.Context, interviewID string) (backend.CompleteResult, error) {
	var body struct {
		RedirectURL string `json:"redirect_url"`
	}
	env, err := c.call(ctx, "complete", http.MethodPost, "/api/ai-interview/complete/"+url.PathEscape(interviewID)+"/", nil, &body)
	if err != nil {
		return backend.CompleteResult{}, err
	}
	if !env.ok() {
		return backend.CompleteResult{}, &backend.Error{Kind: backend.KindServerRejected, Op: "complete", Message: env.text()}
	}
	return backend.CompleteResult{Message: env.Message, RedirectURL: body.RedirectURL}, nil
}

func (c *HTTPClient) Status(ctx context.Context, interviewID string) (backend.Status, error) {
	var st backend.Status
	env, err := c.call(ctx, "status", http.MethodGet, "/api/ai-interview/status/"+url.PathEscape(interviewID)+"/", nil, &st)
	if err != nil {
		return backend.Status{}, err
	}
	if !env.ok() {
		return backend.Status{}, &backend.Error{Kind: backend.KindServerRejected, Op: "status", Message: env.text()}
	}
	return st, nil
}

type snapshotBody struct {
	Image         string `json:"image"`
	EnableEmotion bool   `json:"enable_emotion"`
	EnablePosture bool   `json:"enable_posture"`
	InterviewID   any    `json:"interview_id"`
}

func (c *HTTPClient) AnalyzeSnapshot(ctx context.Context, req backend.SnapshotRequest) (backend.Analysis, error) {
	var interviewID any = req.InterviewID
	if n, err := strconv.ParseInt(req.InterviewID, 10, 64); err == nil {
		interviewID = n
	}
	var body struct {
		Result backend.Analysis `json:"result"`
	}
	env, err := c.call(ctx, "analyze_snapshot", http.MethodPost, "/api/analyze-snapshot/", snapshotBody{
		Image:         req.ImageDataURL,
		EnableEmotion: req.EnableEmotion,
		EnablePosture: req.EnablePosture,
		InterviewID:   interviewID,
	}, &body)
	if err != nil {
		return backend.Analysis{}, err
	}
	if !env.ok() {
		return backend.Analysis{}, &backend.Error{Kind: backend.KindServerRejected, Op: "analyze_snapshot", Message: env.text()}
	}
	return body.Result, nil
}

// newRequest builds every outgoing request. Mutating requests carry the
// anti-forgery token; all requests carry a correlation id.
func (c *HTTPClient) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}
	target := c.baseURL.JoinPath(path)
	// JoinPath drops the trailing slash Django routes require.
	if strings.HasSuffix(path, "/") && !strings.HasSuffix(target.Path, "/") {
		target.Path += "/"
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet && method != http.MethodHead {
		if token := c.csrfTokenValue(); token != "" {
			req.Header.Set(csrfHeader, token)
		}
		req.Header.Set("Referer", c.baseURL.String()+"/")
	}
	return req, nil
}

func (c *HTTPClient) csrfTokenValue() string {
	for _, ck := range c.client.Jar.Cookies(c.baseURL) {
		if ck.Name == csrfCookieName && ck.Value != "" {
			return ck.Value
		}
	}
	return c.csrfToken
}

func (c *HTTPClient) call(ctx context.Context, op, method, path string, payload, out any) (envelope, error) {
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return envelope{}, &backend.Error{Kind: backend.KindTransportFailure, Op: op, Err: err}
	}
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return envelope{}, &backend.Error{Kind: backend.KindTransportFailure, Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return envelope{}, &backend.Error{Kind: backend.KindTransportFailure, Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	slog.Debug("backend call",
		"op", op,
		"status", resp.StatusCode,
		"request_id", req.Header.Get(requestIDHeader),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return env, &backend.Error{Kind: backend.KindTransportFailure, Op: op, StatusCode: resp.StatusCode, Message: env.text()}
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return env, &backend.Error{Kind: backend.KindValidationFailed, Op: op, StatusCode: resp.StatusCode, Message: env.text()}
	case resp.StatusCode >= http.StatusBadRequest:
		return env, &backend.Error{Kind: backend.KindServerRejected, Op: op, StatusCode: resp.StatusCode, Message: env.text()}
	case resp.StatusCode >= http.StatusMultipleChoices:
		return env, &backend.Error{
			Kind:       backend.KindServerRejected,
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected redirect to %q; the session may have expired", resp.Header.Get("Location")),
		}
	}

	if decodeErr != nil {
		return env, &backend.Error{Kind: backend.KindServerRejected, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if env.Success == nil {
		return env, &backend.Error{Kind: backend.KindServerRejected, Op: op, StatusCode: resp.StatusCode, Message: "response is missing the success flag"}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return env, &backend.Error{Kind: backend.KindTransportFailure, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return env, nil
}

var _ backend.Client = (*HTTPClient)(nil)
