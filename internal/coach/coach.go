package coach

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"InterviewCoach/internal/api"
	"InterviewCoach/internal/archive"
	"InterviewCoach/internal/auth"
	"InterviewCoach/internal/cache"
	"InterviewCoach/internal/config"
	"InterviewCoach/internal/indicators"
	"InterviewCoach/internal/interview"
	"InterviewCoach/internal/media"
	"InterviewCoach/internal/session"
	"InterviewCoach/internal/setup"
	"InterviewCoach/internal/telemetry"
)

// Coach is the interactive interview practice application
type Coach struct {
	config config.Config
	logger *slog.Logger
	tracer trace.Tracer
	meter  metric.Meter
	in     io.Reader
	out    *console

	api       *api.Client
	tokens    auth.TokenProvider
	tokenFile *auth.FileStore
	profiles  *cache.TTL[*api.Profile]
	archive   *archive.Store

	draft    *setup.Draft
	session  *session.Client
	question *revealView
	feedback *revealView
	media    *media.Controller
	elapsed  *indicators.ElapsedTimer
	emotion  *indicators.EmotionCycler

	// runCtx is the context of Run. Session callbacks carry no context of
	// their own and use it to stop long output on interrupt.
	runCtx context.Context

	cleanups []func()
}

// Option overrides a dependency, mostly for tests.
type Option func(*Coach)

// WithCapturer replaces the camera capturer.
func WithCapturer(capturer media.Capturer) Option {
	return func(c *Coach) { c.media = media.NewController(capturer, c.logger) }
}

// WithHTTPClient replaces the HTTP client used for the backend.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Coach) {
		c.api = api.NewClient(c.config.APIBaseURL, c.tokens,
			api.WithHTTPClient(hc),
			api.WithLogger(c.logger),
			api.WithTelemetry(c.tracer, c.meter),
		)
	}
}

// New creates a Coach reading commands from in and writing to out.
func New(cfg config.Config, in io.Reader, out io.Writer, opts ...Option) (*Coach, error) {
	logger, closeLog, err := telemetry.InitLogger(cfg.LogDir, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	c := &Coach{
		config: cfg,
		logger: logger,
		in:     in,
		out:    &console{w: out},
		runCtx: context.Background(),
	}
	c.cleanups = append(c.cleanups, func() { closeLog() })

	if !cfg.NoTelemetry {
		tracer, meter, shutdown, err := telemetry.InitTelemetry(context.Background(), cfg.LogDir)
		if err != nil {
			logger.Warn("failed to initialize telemetry, continuing without it", "error", err)
		} else {
			c.tracer, c.meter = tracer, meter
			c.cleanups = append(c.cleanups, shutdown)
		}
	}

	if cfg.Debug {
		logger.Info("Debug mode enabled")
	}

	c.tokenFile = auth.NewFileStore(cfg.TokenFile)
	c.tokens = c.tokenFile
	if cfg.Token != "" {
		c.tokens = auth.StaticToken(cfg.Token)
	}

	c.api = api.NewClient(cfg.APIBaseURL, c.tokens,
		api.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		api.WithLogger(logger),
		api.WithTelemetry(c.tracer, c.meter),
	)
	c.profiles = cache.NewTTL[*api.Profile](cfg.ProfileTTL)

	if cfg.ArchivePath != "" {
		store, err := archive.Open(cfg.ArchivePath, logger)
		if err != nil {
			logger.Warn("failed to open report archive, reports will not be kept", "error", err)
		} else {
			c.archive = store
			c.cleanups = append(c.cleanups, func() {
				if err := store.Close(); err != nil {
					logger.Error("failed to close archive", "error", err)
				}
			})
		}
	}

	c.draft = setup.NewDraft()
	if cfg.DraftFile != "" {
		draft, err := setup.LoadFile(cfg.DraftFile)
		if err != nil {
			logger.Warn("failed to load draft file, starting empty", "file", cfg.DraftFile, "error", err)
		} else {
			c.draft = draft
		}
	}

	c.media = media.NewController(media.NewDeviceCapturer(), logger)
	c.elapsed = indicators.NewElapsedTimer(time.Second)
	c.emotion = indicators.NewEmotionCycler(cfg.EmotionEvery, nil)
	c.question = newRevealView(c.out, cfg.QuestionReveal, c.questionHeader)
	c.feedback = newRevealView(c.out, cfg.FeedbackReveal, nil)

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Close releases everything New acquired.
func (c *Coach) Close() {
	c.leaveSession()
	for i := len(c.cleanups) - 1; i >= 0; i-- {
		c.cleanups[i]()
	}
	c.cleanups = nil
}

func (c *Coach) questionHeader() string {
	if c.session == nil {
		return "\n"
	}
	p := c.session.Snapshot().Progress
	return fmt.Sprintf("\nQuestion %d/%d: ", p.Current, p.Total)
}

// Run reads lines until /quit, end of input or ctx is cancelled.
func (c *Coach) Run(ctx context.Context) error {
	defer c.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.runCtx = ctx

	c.out.println("=== Interview Coach ===")
	c.out.printf("Backend: %s\n", c.config.APIBaseURL)
	c.out.println("Type /help for commands, /quit to exit")
	c.out.println()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var input string
		select {
		case <-ctx.Done():
			c.out.println("\nInterrupted.")
			return nil
		case line, ok := <-lines:
			if !ok {
				c.out.println("Goodbye!")
				return nil
			}
			input = strings.TrimSpace(line)
		}

		if input == "" {
			continue
		}
		// Typing ends the question animation.
		c.question.Flush()

		if strings.HasPrefix(input, "/") {
			shouldQuit, err := c.handleCommand(ctx, input)
			if err != nil {
				c.out.printf("Error: %s\n", describeError(err))
				c.logger.Error("command error", "command", strings.Fields(input)[0], "error", err)
			}
			if shouldQuit {
				c.out.println("Goodbye!")
				return nil
			}
			continue
		}

		if err := c.answer(ctx, input); err != nil {
			c.out.printf("Error: %s\n", describeError(err))
		}
	}
}

// answer submits text as the answer to the current question.
func (c *Coach) answer(ctx context.Context, text string) error {
	if c.session == nil || c.session.State() != session.StateAwaitingAnswer {
		return errors.New("no question is waiting for an answer; use /start")
	}
	c.session.SetAnswer(text)
	return c.submit(ctx)
}

func (c *Coach) submit(ctx context.Context) error {
	c.out.println("Submitting answer...")
	_, err := c.session.NextQuestion(ctx)
	if err != nil && c.session.Answer() != "" {
		c.out.println("Your answer was kept. Use /retry to submit it again.")
	}
	return err
}

// startSession starts a session from the current draft and mounts the
// session view: camera preview, emotion indicator and question reveal.
func (c *Coach) startSession(ctx context.Context) error {
	if c.session != nil && c.session.State() != session.StateUnconfigured {
		return errors.New("an interview is already open; use /new to leave it first")
	}

	cfg := c.draft.Config()
	if err := setup.Validate(cfg); err != nil {
		return err
	}

	sessOpts := []session.Option{
		session.WithPresenter(c.question),
		session.WithNavigator(c),
		session.WithHistoryPanel(c),
		session.WithLogger(c.logger),
	}
	if c.meter != nil {
		sessOpts = append(sessOpts, session.WithMeter(c.meter))
	}
	c.session = session.New(c.api, sessOpts...)

	c.out.printf("Starting %s interview for %s...\n", cfg.InterviewType, cfg.Position)
	if err := c.session.Start(ctx, cfg); err != nil {
		c.session = nil
		return err
	}

	// The draft becomes read-only context for the rest of the session.
	if _, err := c.draft.Build(); err != nil {
		c.logger.Warn("failed to lock draft", "error", err)
	}

	c.media.Mount(ctx)
	c.emotion.Start()
	return nil
}

// leaveSession is the navigation-away teardown: every timer stops and the
// camera is released. The backend is not told.
func (c *Coach) leaveSession() {
	if c.session != nil {
		c.session.Close()
	}
	c.question.Stop()
	c.feedback.Stop()
	c.elapsed.Stop()
	c.emotion.Stop()
	c.media.Close()
}

// Append implements session.HistoryPanel.
func (c *Coach) Append(qa interview.QA) {
	if qa.Feedback == nil {
		c.out.println("Answer recorded.")
		return
	}
	c.out.println(formatFeedback(qa.Feedback))
}

// Completed implements session.Navigator by archiving the report and
// showing the feedback view.
func (c *Coach) Completed(report interview.Report) {
	c.elapsed.Stop()
	c.emotion.Stop()
	c.media.Close()

	if c.archive != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.archive.Save(ctx, report); err != nil {
			c.logger.Error("failed to archive report", "report_id", report.ID, "error", err)
		}
	}

	c.showReport(c.runCtx, report)
	c.out.println("Use /new to set up another interview.")
}

// showReport prints report, revealing each overall assessment. Once ctx is
// done the remaining text is printed at once.
func (c *Coach) showReport(ctx context.Context, report interview.Report) {
	c.out.println("\n=== Interview complete ===")
	c.out.printf("Report: %s\n", report.ID)
	c.out.printf("Position: %s (%s, %s)\n", report.Config.Position, report.Config.InterviewType, report.Config.Difficulty)
	c.out.printf("Final score: %s\n", formatScore(report.FinalScore))

	for i, qa := range report.History {
		c.out.printf("\n%d. %s\n", i+1, qa.Question)
		c.out.printf("   Your answer: %s\n", qa.Answer)
		if qa.Feedback == nil {
			continue
		}
		if qa.Feedback.OverallAssessment != "" {
			c.out.write("   ")
			select {
			case <-c.feedback.Reveal(qa.Feedback.OverallAssessment):
			case <-ctx.Done():
				c.feedback.Flush()
			}
		}
		c.out.println(indent(formatFeedback(qa.Feedback), "   "))
	}
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64) + "/10"
}

func formatFeedback(fb *interview.Feedback) string {
	var b strings.Builder
	if fb.Score != nil {
		fmt.Fprintf(&b, "Score: %s\n", formatScore(*fb.Score))
	}
	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s:\n", title)
		for _, item := range items {
			fmt.Fprintf(&b, "  - %s\n", item)
		}
	}
	writeList("Strengths", fb.Strengths)
	writeList("Improvements", fb.Improvements)
	writeList("Suggestions", fb.Suggestions)
	return strings.TrimRight(b.String(), "\n")
}

func indent(s, prefix string) string {
	if s == "" {
		return s
	}
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}

// describeError turns an error into the message shown to the user.
func describeError(err error) string {
	var statusErr *api.StatusError
	var fieldErr *setup.FieldError
	switch {
	case errors.As(err, &statusErr):
		return statusErr.Message
	case errors.Is(err, setup.ErrIncomplete):
		return "cannot start yet: " + strings.ReplaceAll(strings.TrimPrefix(err.Error(), setup.ErrIncomplete.Error()+": "), "\n", "; ")
	case errors.As(err, &fieldErr):
		return fieldErr.Error()
	case errors.Is(err, auth.ErrNoToken):
		return "not logged in; use /login <email> <password>"
	default:
		return err.Error()
	}
}
