package coach

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"InterviewCoach/internal/api"
	"InterviewCoach/internal/cache"
	"InterviewCoach/internal/indicators"
	"InterviewCoach/internal/session"
	"InterviewCoach/internal/setup"
)

const helpText = `Interview setup:
  /set <field> <value>   Set type, difficulty, duration, position, experience or industry
  /skill <name>          Add a skill
  /unskill <name>        Remove a skill
  /question <text>       Add a custom question
  /unquestion <n>        Remove custom question number n
  /draft                 Show the interview setup

Interview:
  /start                 Start the interview
  <text>                 Answer the current question
  /retry                 Submit the kept answer again
  /status                Show progress, score and indicators
  /history               Show answered questions
  /new                   Leave the interview and set up another

Devices:
  /video on|off          Toggle the camera preview
  /audio on|off          Toggle the microphone
  /record                Toggle the recording timer

Account:
  /login <email> <password>
  /logout
  /profile

Reports:
  /reports               List completed interviews
  /report <id>           Show a completed interview

  /help                  Show this help
  /quit                  Exit`

const tokenPrecedenceNote = "Note: a token from the environment is in use and takes precedence"

var fieldAliases = map[string]string{
	"type":     setup.FieldType,
	"duration": setup.FieldDuration,
	"level":    setup.FieldDifficulty,
}

func (c *Coach) handleCommand(ctx context.Context, input string) (bool, error) {
	parts := strings.Fields(input)
	command := parts[0]
	args := parts[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(input, command))

	switch command {
	case "/help":
		c.out.println(helpText)
		return false, nil

	case "/quit", "/exit":
		return true, nil

	case "/start":
		return false, c.startSession(ctx)

	case "/retry":
		if c.session == nil {
			return false, session.ErrNotStarted
		}
		return false, c.submit(ctx)

	case "/new":
		return false, c.newDraft()

	case "/status":
		c.showStatus()
		return false, nil

	case "/history":
		c.showHistory()
		return false, nil

	case "/set":
		if len(args) < 2 {
			return false, errors.New("usage: /set <field> <value>")
		}
		field := args[0]
		if long, ok := fieldAliases[field]; ok {
			field = long
		}
		value := strings.TrimSpace(strings.TrimPrefix(rest, args[0]))
		if err := c.draft.SetField(field, value); err != nil {
			return false, err
		}
		c.out.printf("%s set to %s\n", field, value)
		return false, nil

	case "/skill":
		if rest == "" {
			return false, errors.New("usage: /skill <name>")
		}
		if c.draft.Frozen() {
			return false, setup.ErrFrozen
		}
		if c.draft.AddSkill(rest) {
			c.out.printf("Skill added: %s\n", rest)
		} else {
			c.out.printf("Skill already listed: %s\n", rest)
		}
		return false, nil

	case "/unskill":
		if c.draft.Frozen() {
			return false, setup.ErrFrozen
		}
		if !c.draft.RemoveSkill(rest) {
			return false, fmt.Errorf("skill not listed: %s", rest)
		}
		c.out.printf("Skill removed: %s\n", rest)
		return false, nil

	case "/question":
		if rest == "" {
			return false, errors.New("usage: /question <text>")
		}
		if c.draft.Frozen() {
			return false, setup.ErrFrozen
		}
		if c.draft.AddCustomQuestion(rest) {
			c.out.printf("Custom question %d added\n", len(c.draft.Config().CustomQuestions))
		}
		return false, nil

	case "/unquestion":
		if len(args) != 1 {
			return false, errors.New("usage: /unquestion <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("invalid question number: %s", args[0])
		}
		if err := c.draft.RemoveCustomQuestion(n - 1); err != nil {
			return false, err
		}
		c.out.printf("Custom question %d removed\n", n)
		return false, nil

	case "/draft":
		c.showDraft()
		return false, nil

	case "/video", "/audio":
		on, err := parseSwitch(args)
		if err != nil {
			return false, err
		}
		if command == "/video" {
			c.media.SetVideo(ctx, on)
		} else {
			c.media.SetAudio(on)
		}
		c.showMedia()
		return false, nil

	case "/record":
		if c.elapsed.Toggle() {
			c.out.println("Recording started")
		} else {
			c.out.printf("Recording stopped at %s\n", formatElapsed(c.elapsed.Elapsed()))
		}
		return false, nil

	case "/login":
		if len(args) != 2 {
			return false, errors.New("usage: /login <email> <password>")
		}
		return false, c.login(ctx, args[0], args[1])

	case "/logout":
		if err := c.tokenFile.Clear(); err != nil {
			return false, err
		}
		c.profiles = cache.NewTTL[*api.Profile](c.config.ProfileTTL)
		c.out.println("Logged out")
		if c.config.Token != "" {
			c.out.println(tokenPrecedenceNote)
		}
		return false, nil

	case "/profile":
		profile, err := c.profile(ctx)
		if err != nil {
			return false, err
		}
		c.out.printf("Signed in as %s", profile.DisplayName())
		if profile.Email != "" {
			c.out.printf(" <%s>", profile.Email)
		}
		c.out.println()
		return false, nil

	case "/reports":
		return false, c.listReports(ctx)

	case "/report":
		if len(args) != 1 {
			return false, errors.New("usage: /report <id>")
		}
		return false, c.showArchived(ctx, args[0])

	default:
		return false, fmt.Errorf("unknown command: %s (type /help)", command)
	}
}

// newDraft leaves the current interview and starts a new draft seeded with
// its settings.
func (c *Coach) newDraft() error {
	c.leaveSession()

	cfg := c.draft.Config()
	if c.session != nil {
		cfg = c.session.Config()
		c.session = nil
	}
	c.elapsed = indicators.NewElapsedTimer(time.Second)

	draft, err := setup.FromConfig(cfg)
	if err != nil {
		c.logger.Warn("previous settings not reusable, starting empty", "error", err)
		draft = setup.NewDraft()
	}
	c.draft = draft
	c.out.println("New interview draft ready. Use /draft to review it.")
	return nil
}

func (c *Coach) login(ctx context.Context, email, password string) error {
	token, err := c.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := c.tokenFile.Save(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	if c.config.Token != "" {
		c.out.println(tokenPrecedenceNote)
	}
	c.profiles = cache.NewTTL[*api.Profile](c.config.ProfileTTL)
	c.out.printf("Logged in. Token saved to %s\n", c.tokenFile.Path())
	return nil
}

func (c *Coach) profile(ctx context.Context) (*api.Profile, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	key := cache.Key(c.config.APIBaseURL, token)
	if p, ok := c.profiles.Get(key); ok {
		c.logger.Debug("profile cache hit")
		return p, nil
	}
	p, err := c.api.Profile(ctx)
	if err != nil {
		return nil, err
	}
	c.profiles.Put(key, p)
	return p, nil
}

func (c *Coach) showDraft() {
	cfg := c.draft.Config()
	c.out.printf("Type:       %s\n", cfg.InterviewType)
	c.out.printf("Difficulty: %s\n", cfg.Difficulty)
	c.out.printf("Duration:   %d minutes\n", cfg.DurationMinutes)
	c.out.printf("Position:   %s\n", orDash(cfg.Position))
	c.out.printf("Experience: %s\n", orDash(cfg.Experience))
	c.out.printf("Industry:   %s\n", orDash(cfg.Industry))
	c.out.printf("Skills:     %s\n", orDash(strings.Join(cfg.Skills, ", ")))
	for i, q := range cfg.CustomQuestions {
		c.out.printf("  Q%d: %s\n", i+1, q)
	}
	switch {
	case c.draft.Frozen():
		c.out.println("(locked for the current interview)")
	case c.draft.CanStart():
		c.out.println("Ready. Use /start to begin.")
	default:
		c.out.println("Not ready: position, experience, industry and at least one skill are required.")
	}
}

func (c *Coach) showStatus() {
	if c.session == nil {
		c.out.println("No interview in progress")
		return
	}
	snap := c.session.Snapshot()
	c.out.printf("State:    %s\n", c.session.State())
	c.out.printf("Session:  %s\n", snap.ID)
	c.out.printf("Progress: %d/%d\n", snap.Progress.Current, snap.Progress.Total)
	c.out.printf("Score:    %s\n", formatScore(snap.RunningScore))
	c.out.printf("Answered: %d\n", len(snap.History))
	c.out.printf("Mood:     %s\n", c.emotion.Current())
	if c.elapsed.Running() || c.elapsed.Elapsed() > 0 {
		c.out.printf("Recorded: %s\n", formatElapsed(c.elapsed.Elapsed()))
	}
	c.showMedia()
}

func (c *Coach) showMedia() {
	st := c.media.State()
	camera := "off"
	switch {
	case st.CameraActive:
		camera = "on"
	case st.CameraDisabled:
		camera = "unavailable"
	}
	c.out.printf("Camera:   %s (video %s, audio %s)\n", camera, onOff(st.VideoEnabled), onOff(st.AudioEnabled))
}

func (c *Coach) showHistory() {
	if c.session == nil {
		c.out.println("No interview in progress")
		return
	}
	history := c.session.History()
	if len(history) == 0 {
		c.out.println("No answers yet")
		return
	}
	for i, qa := range history {
		c.out.printf("%d. %s\n", i+1, qa.Question)
		c.out.printf("   %s\n", qa.Answer)
		if qa.Feedback != nil && qa.Feedback.Score != nil {
			c.out.printf("   Score: %s\n", formatScore(*qa.Feedback.Score))
		}
	}
}

func (c *Coach) listReports(ctx context.Context) error {
	if c.archive == nil {
		return errors.New("report archive is not available")
	}
	summaries, err := c.archive.List(ctx, 20)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		c.out.println("No completed interviews yet")
		return nil
	}
	for _, s := range summaries {
		c.out.printf("%s  %s  %-14s %2d answers  %s  %s\n",
			s.ID, s.CompletedAt.Local().Format(time.DateTime), s.Type, s.Answers,
			formatScore(s.FinalScore), s.Position)
	}
	return nil
}

func (c *Coach) showArchived(ctx context.Context, id string) error {
	if c.archive == nil {
		return errors.New("report archive is not available")
	}
	report, err := c.archive.Get(ctx, id)
	if err != nil {
		return err
	}
	c.showReport(ctx, *report)
	return nil
}

func parseSwitch(args []string) (bool, error) {
	if len(args) == 1 {
		switch strings.ToLower(args[0]) {
		case "on":
			return true, nil
		case "off":
			return false, nil
		}
	}
	return false, errors.New("expected on or off")
}

func formatElapsed(d time.Duration) string {
	d = d.Truncate(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

var (
	_ session.Navigator    = (*Coach)(nil)
	_ session.HistoryPanel = (*Coach)(nil)
)
