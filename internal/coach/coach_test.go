package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"InterviewCoach/internal/api"
	"InterviewCoach/internal/archive"
	"InterviewCoach/internal/auth"
	"InterviewCoach/internal/config"
	"InterviewCoach/internal/interview"
	"InterviewCoach/internal/media"
	"InterviewCoach/internal/setup"
)

type noCamera struct{}

func (noCamera) Open(context.Context, bool) (media.Stream, error) {
	return nil, media.ErrNoCamera
}

// fakeBackend serves a two-question interview.
type fakeBackend struct {
	mu          sync.Mutex
	auth        []string
	answers     []string
	starts      int
	profileHits int
	failNext    bool
}

func (f *fakeBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(api.PathStartInterview, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.starts++
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.mu.Unlock()
		fmt.Fprint(w, `{"status":"success","session_id":"s1","next_question":"Tell me about yourself","session_info":{"question_number":1,"total_questions":2}}`)
	})
	mux.HandleFunc(api.PathSubmitAnswer, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SessionID string `json:"session_id"`
			Answer    string `json:"answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode answer: %v", err)
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failNext {
			f.failNext = false
			fmt.Fprint(w, `{"status":"error","message":"Session expired"}`)
			return
		}
		f.answers = append(f.answers, req.Answer)
		switch len(f.answers) {
		case 1:
			fmt.Fprint(w, `{"status":"continue","next_question":"Describe a challenge","feedback":{"score":7,"strengths":["clear"]},"progress":{"current_question":2,"total_questions":2}}`)
		default:
			fmt.Fprint(w, `{"status":"success","feedback":{"score":8.5,"improvements":["more detail"],"overall_assessment":"Solid"}}`)
		}
	})
	mux.HandleFunc(api.PathProfile, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.profileHits++
		f.mu.Unlock()
		fmt.Fprint(w, `{"id":42,"name":"Sam Lee","email":"sam@example.com"}`)
	})
	return mux
}

func testConfig(t *testing.T, baseURL string) config.Config {
	dir := t.TempDir()
	return config.Config{
		APIBaseURL:     baseURL,
		Token:          "test-token",
		TokenFile:      filepath.Join(dir, "token.json"),
		ArchivePath:    filepath.Join(dir, "interviews.db"),
		LogDir:         filepath.Join(dir, "logs"),
		HTTPTimeout:    5 * time.Second,
		ProfileTTL:     time.Minute,
		QuestionReveal: time.Millisecond,
		FeedbackReveal: time.Millisecond,
		EmotionEvery:   time.Hour,
		NoTelemetry:    true,
	}
}

func runScript(t *testing.T, cfg config.Config, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	c, err := New(cfg, strings.NewReader(strings.Join(lines, "\n")+"\n"), &out, WithCapturer(noCamera{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return out.String()
}

var setupLines = []string{
	"/set position Backend Developer",
	"/set experience 3 years",
	"/set industry fintech",
	"/set type behavioral",
	"/skill Go",
	"/skill Go",
}

func TestFullInterview(t *testing.T) {
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.handler(t))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	script := append(append([]string{}, setupLines...),
		"/start",
		"I build payment APIs",
		"A tricky data race",
		"/profile",
		"/profile",
		"/quit",
	)
	out := runScript(t, cfg, script...)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.starts != 1 {
		t.Fatalf("expected one start request, got %d", backend.starts)
	}
	if backend.auth[0] != "Bearer test-token" {
		t.Errorf("unexpected Authorization header %q", backend.auth[0])
	}
	if len(backend.answers) != 2 || backend.answers[0] != "I build payment APIs" {
		t.Fatalf("unexpected answers %v", backend.answers)
	}
	if backend.profileHits != 1 {
		t.Errorf("expected cached profile, backend saw %d requests", backend.profileHits)
	}

	for _, want := range []string{
		"Question 1/2: Tell me about yourself",
		"Question 2/2: Describe a challenge",
		"Score: 7/10",
		"=== Interview complete ===",
		"Final score: 8.5/10",
		"Solid",
		"Signed in as Sam Lee <sam@example.com>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	store, err := archive.Open(cfg.ArchivePath, nil)
	if err != nil {
		t.Fatalf("reopen archive: %v", err)
	}
	defer store.Close()
	list, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].Answers != 2 || list[0].FinalScore != 8.5 || list[0].Position != "Backend Developer" {
		t.Fatalf("unexpected archive listing %+v", list)
	}
}

func TestStartRequiresCompleteDraft(t *testing.T) {
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.handler(t))
	defer srv.Close()

	out := runScript(t, testConfig(t, srv.URL),
		"/set position Backend Developer",
		"/start",
		"an answer with no question",
	)

	if backend.starts != 0 {
		t.Fatalf("incomplete draft must not reach the backend")
	}
	if !strings.Contains(out, "Error: cannot start yet") {
		t.Errorf("expected validation message:\n%s", out)
	}
	if !strings.Contains(out, "no question is waiting") {
		t.Errorf("expected answer to be rejected:\n%s", out)
	}
}

func TestFailedSubmitKeepsAnswerForRetry(t *testing.T) {
	backend := &fakeBackend{failNext: true}
	srv := httptest.NewServer(backend.handler(t))
	defer srv.Close()

	script := append(append([]string{}, setupLines...),
		"/start",
		"first try",
		"/retry",
		"/status",
	)
	out := runScript(t, testConfig(t, srv.URL), script...)

	if !strings.Contains(out, "Error: Session expired") {
		t.Errorf("expected backend message verbatim:\n%s", out)
	}
	if !strings.Contains(out, "Use /retry") {
		t.Errorf("expected retry hint:\n%s", out)
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.answers) != 1 || backend.answers[0] != "first try" {
		t.Fatalf("expected retried answer to be accepted, got %v", backend.answers)
	}
	if !strings.Contains(out, "Progress: 2/2") {
		t.Errorf("expected progress after retry:\n%s", out)
	}
	if !strings.Contains(out, "Camera:   unavailable") {
		t.Errorf("expected camera to degrade silently:\n%s", out)
	}
}

func TestDraftLockedDuringInterviewAndReusedByNew(t *testing.T) {
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.handler(t))
	defer srv.Close()

	var out bytes.Buffer
	script := append(append([]string{}, setupLines...), "/start", "/skill Rust")
	c, err := New(testConfig(t, srv.URL), strings.NewReader(strings.Join(script, "\n")+"\n"), &out, WithCapturer(noCamera{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	for _, line := range script {
		if _, err := c.handleCommand(ctx, line); err != nil {
			if !errors.Is(err, setup.ErrFrozen) {
				t.Fatalf("%s: %v", line, err)
			}
		}
	}
	if !c.draft.Frozen() {
		t.Fatalf("expected draft to be locked after start")
	}
	if got := c.draft.Config().Skills; len(got) != 1 {
		t.Fatalf("skills changed while locked: %v", got)
	}

	if err := c.newDraft(); err != nil {
		t.Fatalf("newDraft failed: %v", err)
	}
	if c.session != nil || c.draft.Frozen() {
		t.Fatalf("expected a fresh unlocked draft")
	}
	if cfg := c.draft.Config(); cfg.Position != "Backend Developer" || cfg.InterviewType != "behavioral" {
		t.Fatalf("expected previous settings to carry over, got %+v", cfg)
	}
}

func TestLoginSavesToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(api.PathLogin, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"fresh"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.Token = ""
	out := runScript(t, cfg, "/login sam@example.com secret")

	if !strings.Contains(out, "Logged in") {
		t.Fatalf("expected login confirmation:\n%s", out)
	}
	token, err := auth.NewFileStore(cfg.TokenFile).Token(context.Background())
	if err != nil || token != "fresh" {
		t.Fatalf("expected saved token, got %q, %v", token, err)
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"backend", fmt.Errorf("failed to submit answer: %w", &api.StatusError{Op: "submit answer", Status: "error", Message: "Session expired"}), "Session expired"},
		{"field", &setup.FieldError{Field: "difficulty", Reason: "unknown difficulty \"guru\""}, "difficulty: unknown difficulty \"guru\""},
		{"token", fmt.Errorf("failed to start interview: %w", auth.ErrNoToken), "not logged in; use /login <email> <password>"},
		{"other", errors.New("connection refused"), "connection refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeError(tt.err); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

type countingStream struct{ closes *atomic.Int32 }

func (s countingStream) Close() error {
	s.closes.Add(1)
	return nil
}

type countingCamera struct {
	opens  atomic.Int32
	closes atomic.Int32
}

func (c *countingCamera) Open(context.Context, bool) (media.Stream, error) {
	c.opens.Add(1)
	return countingStream{closes: &c.closes}, nil
}

func TestNewTearsDownSession(t *testing.T) {
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.handler(t))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.QuestionReveal = 20 * time.Millisecond
	cfg.EmotionEvery = time.Millisecond
	camera := &countingCamera{}

	var out bytes.Buffer
	c, err := New(cfg, strings.NewReader(""), &out, WithCapturer(camera))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	for _, line := range append(append([]string{}, setupLines[:5]...), "/start", "/record") {
		if _, err := c.handleCommand(ctx, line); err != nil {
			t.Fatalf("%s: %v", line, err)
		}
	}
	if camera.opens.Load() != 1 || !c.media.State().CameraActive {
		t.Fatalf("expected camera open after start, opens=%d", camera.opens.Load())
	}
	if !c.question.Revealing() {
		t.Fatalf("expected the first question to be revealing")
	}
	recording := c.elapsed
	if !recording.Running() {
		t.Fatalf("expected recording timer running")
	}

	if _, err := c.handleCommand(ctx, "/new"); err != nil {
		t.Fatalf("/new: %v", err)
	}

	if got := camera.closes.Load(); got != 1 {
		t.Fatalf("expected the stream to be released once, got %d", got)
	}
	if c.media.State().CameraActive {
		t.Fatalf("camera still active after leaving")
	}
	if recording.Running() || c.elapsed.Running() {
		t.Fatalf("recording timer still running after leaving")
	}
	if c.question.Revealing() {
		t.Fatalf("question reveal still running after leaving")
	}
	shown := c.question.Text()
	mood := c.emotion.Current()
	time.Sleep(60 * time.Millisecond)
	if c.question.Text() != shown {
		t.Fatalf("question text advanced after leaving")
	}
	if c.emotion.Current() != mood {
		t.Fatalf("emotion indicator changed after leaving")
	}
}

func TestReportStopsRevealingOnInterrupt(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:0")
	cfg.FeedbackReveal = time.Hour

	var out bytes.Buffer
	c, err := New(cfg, strings.NewReader(""), &out, WithCapturer(noCamera{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := interview.Report{
		ID: "r1",
		History: []interview.QA{
			{Question: "Q1", Answer: "A1", Feedback: &interview.Feedback{OverallAssessment: "Clear structure"}},
			{Question: "Q2", Answer: "A2", Feedback: &interview.Feedback{OverallAssessment: "Needs examples"}},
		},
	}

	finished := make(chan struct{})
	go func() {
		c.showReport(ctx, report)
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("report kept revealing after interrupt")
	}

	for _, want := range []string{"Clear structure\n", "Needs examples\n"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestLogoutNotesEnvironmentToken(t *testing.T) {
	out := runScript(t, testConfig(t, "http://127.0.0.1:0"), "/logout")

	if !strings.Contains(out, "Logged out") || !strings.Contains(out, tokenPrecedenceNote) {
		t.Fatalf("expected logout with precedence note:\n%s", out)
	}
}
