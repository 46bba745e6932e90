package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"InterviewCoach/internal/interview"
)

// ErrNotFound is returned when no report matches the requested id.
var ErrNotFound = errors.New("report not found")

// Summary is one line of the report listing.
type Summary struct {
	ID          string
	Position    string
	Type        interview.Type
	Answers     int
	FinalScore  float64
	CompletedAt time.Time
}

// Store keeps completed interview reports in SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (and if needed creates) the archive at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createReportsTable := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		config TEXT NOT NULL,
		final_score REAL,
		started_at DATETIME,
		completed_at DATETIME
	);`

	createAnswersTable := `
	CREATE TABLE IF NOT EXISTS answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		report_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		question TEXT,
		answer TEXT,
		feedback TEXT,
		answered_at DATETIME,
		FOREIGN KEY(report_id) REFERENCES reports(id) ON DELETE CASCADE
	);`

	for _, stmt := range []string{createReportsTable, createAnswersTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return &Store{db: db, logger: logger}, nil
}

// Save writes report and its answers in one transaction.
func (s *Store) Save(ctx context.Context, report interview.Report) error {
	cfgJSON, err := json.Marshal(report.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO reports (id, session_id, config, final_score, started_at, completed_at) VALUES (?, ?, ?, ?, ?, ?)",
		report.ID, report.SessionID, string(cfgJSON), report.FinalScore, report.StartedAt, report.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	for i, qa := range report.History {
		var feedback sql.NullString
		if qa.Feedback != nil {
			data, err := json.Marshal(qa.Feedback)
			if err != nil {
				return fmt.Errorf("failed to marshal feedback: %w", err)
			}
			feedback = sql.NullString{String: string(data), Valid: true}
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO answers (report_id, position, question, answer, feedback, answered_at) VALUES (?, ?, ?, ?, ?, ?)",
			report.ID, i, qa.Question, qa.Answer, feedback, qa.AnsweredAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save answer %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("report archived", "report_id", report.ID, "session_id", report.SessionID, "answers", len(report.History))
	return nil
}

// Get loads a report by id.
func (s *Store) Get(ctx context.Context, id string) (*interview.Report, error) {
	report := interview.Report{ID: id}
	var cfgJSON string

	err := s.db.QueryRowContext(ctx,
		"SELECT session_id, config, final_score, started_at, completed_at FROM reports WHERE id = ?", id,
	).Scan(&report.SessionID, &cfgJSON, &report.FinalScore, &report.StartedAt, &report.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if err := json.Unmarshal([]byte(cfgJSON), &report.Config); err != nil {
		return nil, fmt.Errorf("failed to parse stored config: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT question, answer, feedback, answered_at FROM answers WHERE report_id = ? ORDER BY position", id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var qa interview.QA
		var feedback sql.NullString
		if err := rows.Scan(&qa.Question, &qa.Answer, &feedback, &qa.AnsweredAt); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		if feedback.Valid {
			qa.Feedback = &interview.Feedback{}
			if err := json.Unmarshal([]byte(feedback.String), qa.Feedback); err != nil {
				return nil, fmt.Errorf("failed to parse stored feedback: %w", err)
			}
		}
		report.History = append(report.History, qa)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read answers: %w", err)
	}

	return &report, nil
}

// List returns the most recent reports first.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.config, r.final_score, r.completed_at, COUNT(a.id)
		FROM reports r LEFT JOIN answers a ON a.report_id = r.id
		GROUP BY r.id
		ORDER BY r.completed_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var cfgJSON string
		if err := rows.Scan(&sum.ID, &cfgJSON, &sum.FinalScore, &sum.CompletedAt, &sum.Answers); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		var cfg interview.Config
		if err := json.Unmarshal([]byte(cfgJSON), &cfg); err != nil {
			s.logger.Warn("skipping report with unreadable config", "report_id", sum.ID, "error", err)
			continue
		}
		sum.Position = cfg.Position
		sum.Type = cfg.InterviewType
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
