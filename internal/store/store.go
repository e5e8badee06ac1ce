// Package store is the sqlite journal of issued exams and graded results.
// Conversation state lives in memory; the journal only records what
// happened so results can be exported.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pavelanni/lumira/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		theme TEXT NOT NULL,
		num_questions INTEGER NOT NULL DEFAULT 0,
		issued_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		topic TEXT NOT NULL,
		score INTEGER NOT NULL,
		total INTEGER NOT NULL,
		percent INTEGER NOT NULL,
		raw_answers TEXT NOT NULL DEFAULT '',
		graded_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_session ON results(session_id);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordExam journals a newly issued exam.
func (s *Store) RecordExam(ctx context.Context, sessionID, theme string, numQuestions int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exams (session_id, theme, num_questions, issued_at) VALUES (?, ?, ?, ?)`,
		sessionID, theme, numQuestions, s.now(),
	)
	if err != nil {
		return fmt.Errorf("insert exam: %w", err)
	}
	return nil
}

// RecordResult journals a graded result. A zero GradedAt is set to now.
func (s *Store) RecordResult(ctx context.Context, sessionID string, r model.Result) error {
	at := r.GradedAt
	if at.IsZero() {
		at = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (session_id, topic, score, total, percent, raw_answers, graded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, r.Topic, r.Score, r.Total, r.Percent, r.RawAnswers, at,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// ListExams returns every journaled exam in issue order.
func (s *Store) ListExams(ctx context.Context) ([]model.ExamRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, theme, num_questions, issued_at FROM exams ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exams []model.ExamRecord
	for rows.Next() {
		var e model.ExamRecord
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Theme, &e.NumQuestions, &e.IssuedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// ListResults returns journaled results in grading order. An empty
// sessionID means all sessions.
func (s *Store) ListResults(ctx context.Context, sessionID string) ([]model.ResultRecord, error) {
	query := `SELECT id, session_id, topic, score, total, percent, raw_answers, graded_at FROM results`
	var args []any
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.ResultRecord
	for rows.Next() {
		var r model.ResultRecord
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Topic, &r.Score, &r.Total, &r.Percent, &r.RawAnswers, &r.GradedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ResultCount returns the number of journaled results.
func (s *Store) ResultCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results`).Scan(&count)
	return count, err
}
