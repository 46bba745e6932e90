package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"InterviewCoach/internal/api"
	"InterviewCoach/internal/interview"
	"InterviewCoach/internal/setup"
)

var (
	ErrEmptyAnswer    = errors.New("answer is empty")
	ErrSubmitInFlight = errors.New("an answer is already being submitted")
	ErrNotStarted     = errors.New("no interview in progress")
	ErrAlreadyStarted = errors.New("interview already started")
	ErrCompleted      = errors.New("interview already completed")
	// ErrNoNextQuestion is returned when the backend asks to continue but
	// sends nothing to continue with.
	ErrNoNextQuestion = errors.New("backend response has no next question")
)

// Backend is the part of the API the session needs.
type Backend interface {
	StartInterview(ctx context.Context, cfg interview.Config) (*api.StartResult, error)
	SubmitAnswer(ctx context.Context, sessionID, answer string) (*api.AnswerResult, error)
}

// Presenter shows a new question, e.g. a typewriter reveal.
type Presenter interface {
	Reveal(text string) <-chan struct{}
	Stop()
}

// HistoryPanel receives every answered question once, in order.
type HistoryPanel interface {
	Append(qa interview.QA)
}

// Navigator is told when the interview is over.
type Navigator interface {
	Completed(report interview.Report)
}

// Step describes the outcome of a successful NextQuestion.
type Step struct {
	Completed bool
	Question  string
	Progress  interview.Progress
	Feedback  *interview.Feedback
}

// Client owns the client-side view of one interview session. All session
// state changes happen inside its transition methods.
type Client struct {
	backend   Backend
	presenter Presenter
	navigator Navigator
	panel     HistoryPanel
	logger    *slog.Logger
	now       func() time.Time

	started   metric.Int64Counter
	submitted metric.Int64Counter
	completed metric.Int64Counter

	mu     sync.Mutex
	state  State
	cfg    interview.Config
	sess   interview.Session
	answer string
}

// Option configures a Client.
type Option func(*Client)

func WithPresenter(p Presenter) Option {
	return func(c *Client) { c.presenter = p }
}

func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.navigator = n }
}

func WithHistoryPanel(p HistoryPanel) Option {
	return func(c *Client) { c.panel = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMeter records session counters on meter instead of the global one.
func WithMeter(meter metric.Meter) Option {
	return func(c *Client) { c.initCounters(meter) }
}

// New creates a client in the unconfigured state.
func New(backend Backend, opts ...Option) *Client {
	c := &Client{
		backend: backend,
		logger:  slog.Default(),
		now:     time.Now,
		state:   StateUnconfigured,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.started == nil {
		c.initCounters(otel.Meter("InterviewCoach/internal/session"))
	}
	return c
}

func (c *Client) initCounters(meter metric.Meter) {
	var err error
	if c.started, err = meter.Int64Counter("interview.sessions.started"); err != nil {
		c.logger.Warn("failed to create counter", "name", "interview.sessions.started", "error", err)
	}
	if c.submitted, err = meter.Int64Counter("interview.answers.submitted"); err != nil {
		c.logger.Warn("failed to create counter", "name", "interview.answers.submitted", "error", err)
	}
	if c.completed, err = meter.Int64Counter("interview.sessions.completed"); err != nil {
		c.logger.Warn("failed to create counter", "name", "interview.sessions.completed", "error", err)
	}
}

func (c *Client) count(ctx context.Context, counter metric.Int64Counter) {
	if counter != nil {
		counter.Add(ctx, 1)
	}
}

// Start opens a session with the backend. An invalid cfg fails without a
// network call; any failure leaves the client unconfigured.
func (c *Client) Start(ctx context.Context, cfg interview.Config) error {
	c.mu.Lock()
	switch c.state {
	case StateUnconfigured:
	case StateCompleted:
		c.mu.Unlock()
		return ErrCompleted
	default:
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	if err := setup.Validate(cfg); err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = StateStarting
	c.mu.Unlock()

	res, err := c.backend.StartInterview(ctx, cfg)

	c.mu.Lock()
	if err != nil {
		c.state = StateUnconfigured
		c.mu.Unlock()
		c.logger.Error("failed to start interview", "error", err)
		return fmt.Errorf("failed to start interview: %w", err)
	}

	c.cfg = cfg.Clone()
	c.sess = interview.Session{
		ID:        res.SessionID,
		Progress:  res.Progress,
		Question:  res.Question,
		StartedAt: c.now(),
	}
	c.answer = ""
	c.state = StateAwaitingAnswer
	question := c.sess.Question
	c.mu.Unlock()

	c.count(ctx, c.started)
	c.logger.Info("interview started",
		"session_id", res.SessionID,
		"question", res.Progress.Current,
		"total", res.Progress.Total,
	)
	c.reveal(question)
	return nil
}

// SetAnswer replaces the answer draft.
func (c *Client) SetAnswer(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answer = text
}

// Answer returns the answer draft.
func (c *Client) Answer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answer
}

// NextQuestion submits the answer draft for the current question. Only one
// submission may be in flight; a concurrent call gets ErrSubmitInFlight. On
// failure the history is unchanged and the draft is kept for a retry.
func (c *Client) NextQuestion(ctx context.Context) (*Step, error) {
	c.mu.Lock()
	switch c.state {
	case StateAwaitingAnswer:
	case StateSubmitting:
		c.mu.Unlock()
		return nil, ErrSubmitInFlight
	case StateCompleted:
		c.mu.Unlock()
		return nil, ErrCompleted
	default:
		c.mu.Unlock()
		return nil, ErrNotStarted
	}
	answer := c.answer
	if strings.TrimSpace(answer) == "" {
		c.mu.Unlock()
		return nil, ErrEmptyAnswer
	}
	sessionID := c.sess.ID
	question := c.sess.Question
	c.state = StateSubmitting
	c.mu.Unlock()

	res, err := c.backend.SubmitAnswer(ctx, sessionID, answer)

	c.mu.Lock()
	if err != nil {
		c.state = StateAwaitingAnswer
		c.mu.Unlock()
		c.logger.Error("failed to submit answer", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("failed to submit answer: %w", err)
	}

	terminal := res.Status == api.StatusCompleted || (res.Status == api.StatusSuccess && !res.HasNext)
	if !terminal && !res.HasNext {
		c.state = StateAwaitingAnswer
		c.mu.Unlock()
		c.logger.Error("backend continued without a question", "session_id", sessionID, "status", res.Status)
		return nil, ErrNoNextQuestion
	}

	qa := interview.QA{
		Question:   question,
		Answer:     answer,
		Feedback:   res.Feedback,
		AnsweredAt: c.now(),
	}
	c.sess.History = append(c.sess.History, qa)
	if res.Feedback != nil && res.Feedback.Score != nil {
		c.sess.RunningScore = *res.Feedback.Score
	}
	c.answer = ""

	if res.HasProgress {
		c.sess.Progress = res.Progress
	} else if !terminal {
		c.sess.Progress.Current++
	}

	if terminal {
		c.state = StateCompleted
		report := c.reportLocked()
		step := &Step{Completed: true, Progress: c.sess.Progress, Feedback: res.Feedback}
		c.mu.Unlock()

		c.count(ctx, c.submitted)
		c.count(ctx, c.completed)
		c.appendPanel(qa)
		c.logger.Info("interview completed",
			"session_id", sessionID,
			"answers", len(report.History),
			"final_score", report.FinalScore,
		)
		if c.presenter != nil {
			c.presenter.Stop()
		}
		if c.navigator != nil {
			c.navigator.Completed(report)
		}
		return step, nil
	}

	c.sess.Question = res.NextQuestion
	c.state = StateAwaitingAnswer
	step := &Step{Question: res.NextQuestion, Progress: c.sess.Progress, Feedback: res.Feedback}
	c.mu.Unlock()

	c.count(ctx, c.submitted)
	c.appendPanel(qa)
	c.logger.Info("answer accepted",
		"session_id", sessionID,
		"question", step.Progress.Current,
		"total", step.Progress.Total,
	)
	c.reveal(step.Question)
	return step, nil
}

func (c *Client) appendPanel(qa interview.QA) {
	if c.panel != nil {
		c.panel.Append(qa)
	}
}

func (c *Client) reveal(question string) {
	if c.presenter != nil {
		c.presenter.Reveal(question)
	}
}

func (c *Client) reportLocked() interview.Report {
	return interview.Report{
		ID:          uuid.NewString(),
		SessionID:   c.sess.ID,
		Config:      c.cfg.Clone(),
		History:     append([]interview.QA(nil), c.sess.History...),
		FinalScore:  c.sess.RunningScore,
		StartedAt:   c.sess.StartedAt,
		CompletedAt: c.now(),
	}
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the session view.
func (c *Client) Snapshot() interview.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.sess
	out.History = append([]interview.QA(nil), c.sess.History...)
	return out
}

// History returns a copy of the answered questions in order.
func (c *Client) History() []interview.QA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]interview.QA(nil), c.sess.History...)
}

// Config returns the config the session was started with.
func (c *Client) Config() interview.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.Clone()
}

// Close stops presentation. The backend is not notified.
func (c *Client) Close() {
	if c.presenter != nil {
		c.presenter.Stop()
	}
}
