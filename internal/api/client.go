package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"InterviewCoach/internal/auth"
	"InterviewCoach/internal/interview"
)

// Endpoint paths relative to the base URL.
const (
	PathStartInterview = "/api/interview/start"
	PathSubmitAnswer   = "/api/interview/answer"
	PathProfile        = "/api/user/profile"
	PathLogin          = "/api/auth/login"
)

const instrumentationName = "InterviewCoach/internal/api"

// Client talks to the interview backend over JSON/HTTP
type Client struct {
	baseURL    string
	tokens     auth.TokenProvider
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
	duration   metric.Float64Histogram
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTelemetry sets the tracer and meter. Either may be nil.
func WithTelemetry(tracer trace.Tracer, meter metric.Meter) Option {
	return func(c *Client) {
		if tracer != nil {
			c.tracer = tracer
		}
		if meter != nil {
			c.duration = newDurationHistogram(meter)
		}
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, tokens auth.TokenProvider, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     slog.Default(),
		tracer:     otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.duration == nil {
		c.duration = newDurationHistogram(otel.Meter(instrumentationName))
	}
	return c
}

func newDurationHistogram(meter metric.Meter) metric.Float64Histogram {
	histogram, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		slog.Warn("failed to create request duration histogram", "error", err)
		return nil
	}
	return histogram
}

// StartInterview opens a session for cfg.
func (c *Client) StartInterview(ctx context.Context, cfg interview.Config) (*StartResult, error) {
	var resp startResponse
	if err := c.do(ctx, "start_interview", http.MethodPost, PathStartInterview, cfg, &resp, true); err != nil {
		return nil, err
	}

	if resp.Status != StatusSuccess {
		return nil, &StatusError{Op: "start interview", Status: resp.Status, Message: resp.text()}
	}
	if resp.SessionID == "" {
		return nil, &StatusError{Op: "start interview", Status: resp.Status, Message: "response has no session_id"}
	}

	question := resp.Question
	if question == "" {
		question = resp.NextQuestion
	}
	progress, _ := normalizeProgress(resp.Progress, resp.SessionInfo)

	return &StartResult{
		SessionID: resp.SessionID,
		Question:  question,
		Progress:  progress,
	}, nil
}

// SubmitAnswer sends the answer for the current question of sessionID.
func (c *Client) SubmitAnswer(ctx context.Context, sessionID, answer string) (*AnswerResult, error) {
	var resp answerResponse
	req := answerRequest{SessionID: sessionID, Answer: answer}
	if err := c.do(ctx, "submit_answer", http.MethodPost, PathSubmitAnswer, req, &resp, true); err != nil {
		return nil, err
	}

	switch resp.Status {
	case StatusSuccess, StatusContinue, StatusCompleted:
	default:
		return nil, &StatusError{Op: "submit answer", Status: resp.Status, Message: resp.text()}
	}

	progress, hasProgress := normalizeProgress(resp.Progress, resp.SessionInfo)
	next := strings.TrimSpace(resp.NextQuestion)

	return &AnswerResult{
		Status:       resp.Status,
		NextQuestion: next,
		HasNext:      next != "",
		Feedback:     resp.Feedback,
		Progress:     progress,
		HasProgress:  hasProgress,
	}, nil
}

// Profile fetches the signed-in user.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, "fetch_profile", http.MethodGet, PathProfile, nil, &profile, true); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	req := loginRequest{Email: email, Password: password}
	if err := c.do(ctx, "login", http.MethodPost, PathLogin, req, &resp, false); err != nil {
		return "", err
	}

	token := resp.AccessToken
	if token == "" {
		token = resp.Token
	}
	if token == "" {
		return "", &StatusError{Op: "login", Status: resp.Status, Message: "response has no access token"}
	}
	return token, nil
}

// do performs one JSON round trip and decodes the body into out.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any, authed bool) error {
	ctx, span := c.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	))
	defer span.End()

	err := c.roundTrip(ctx, span, op, method, path, body, out, authed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, span trace.Span, op, method, path string, body, out any, authed bool) error {
	start := time.Now()
	requestID := uuid.NewString()
	span.SetAttributes(attribute.String("request.id", requestID))

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("failed to get access token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	elapsed := time.Since(start)
	if c.duration != nil {
		c.duration.Record(ctx, float64(elapsed.Milliseconds()), metric.WithAttributes(
			attribute.String("operation", op),
			attribute.Int("http.response.status_code", resp.StatusCode),
		))
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	c.logger.Debug("api call",
		"op", op,
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration_ms", elapsed.Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env envelope
		if json.Unmarshal(respBody, &env) == nil && env.text() != "" {
			return &StatusError{Op: op, Status: env.Status, Message: env.text(), HTTPStatus: resp.StatusCode}
		}
		return fmt.Errorf("API error: %s - %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// IsBackendError reports whether err was reported by the backend rather than
// raised by the transport.
func IsBackendError(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr)
}
