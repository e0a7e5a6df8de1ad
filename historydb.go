package fsptrainer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB stores finished attempts for the lifetime of the process
type DB struct {
	db *sql.DB
}

// DBAttempt represents a finished quiz in the database
type DBAttempt struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Total      int       `json:"total"`
	Score      int       `json:"score"`
}

// Result returns score, total and percentage of the attempt
func (a DBAttempt) Result() Result {
	return NewResult(a.Score, a.Total)
}

// MissedTerm counts how often a term was answered wrongly
type MissedTerm struct {
	Term   string `json:"term"`
	Missed int    `json:"missed"`
	Asked  int    `json:"asked"`
}

// OpenDB opens a new database connection
func OpenDB(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// In-memory databases live only as long as a connection holds them.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db: db}, nil
}

// CloseDB closes the database connection
func (db *DB) CloseDB() error {
	return db.db.Close()
}

// CreateTables creates the necessary tables if they don't exist
func (db *DB) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS attempts (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL,
			total INTEGER NOT NULL,
			score INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS answers (
			attempt_id TEXT NOT NULL,
			question_num INTEGER NOT NULL,
			term TEXT NOT NULL,
			direction TEXT NOT NULL,
			prompt TEXT NOT NULL,
			selected TEXT NOT NULL,
			correct TEXT NOT NULL,
			is_correct BOOLEAN NOT NULL,
			PRIMARY KEY (attempt_id, question_num),
			FOREIGN KEY (attempt_id) REFERENCES attempts(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_answers_term ON answers(term)`,
	}

	for _, query := range queries {
		if _, err := db.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// RecordAttempt stores a finished session with all its answers
func (db *DB) RecordAttempt(ctx context.Context, s *Session) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	finished := s.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO attempts (id, started_at, finished_at, total, score) VALUES (?, ?, ?, ?, ?)",
		s.ID, s.StartedAt, finished, len(s.Questions), s.Score,
	)
	if err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}

	for _, a := range s.Answers {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO answers (attempt_id, question_num, term, direction, prompt, selected, correct, is_correct) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			s.ID, a.QuestionNum, a.Term, string(a.Direction), a.Prompt, a.Selected, a.Correct, a.IsCorrect,
		)
		if err != nil {
			return fmt.Errorf("failed to create answer %d: %w", a.QuestionNum, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit attempt: %w", err)
	}
	VerboseLog("Recorded attempt %s with %d answers", s.ID, len(s.Answers))
	return nil
}

// GetAttempts retrieves the most recent attempts, optionally limited by count
func (db *DB) GetAttempts(ctx context.Context, limit int) ([]DBAttempt, error) {
	query := "SELECT id, started_at, finished_at, total, score FROM attempts ORDER BY finished_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempts: %w", err)
	}
	defer rows.Close()

	var attempts []DBAttempt
	for rows.Next() {
		var a DBAttempt
		if err := rows.Scan(&a.ID, &a.StartedAt, &a.FinishedAt, &a.Total, &a.Score); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attempts: %w", err)
	}
	return attempts, nil
}

// GetAnswers retrieves all answers of an attempt in question order
func (db *DB) GetAnswers(ctx context.Context, attemptID string) ([]Answer, error) {
	rows, err := db.db.QueryContext(ctx,
		"SELECT question_num, term, direction, prompt, selected, correct, is_correct FROM answers WHERE attempt_id = ? ORDER BY question_num",
		attemptID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get answers: %w", err)
	}
	defer rows.Close()

	var answers []Answer
	for rows.Next() {
		var a Answer
		var dir string
		if err := rows.Scan(&a.QuestionNum, &a.Term, &dir, &a.Prompt, &a.Selected, &a.Correct, &a.IsCorrect); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		a.Direction = Direction(dir)
		answers = append(answers, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating answers: %w", err)
	}
	return answers, nil
}

// MissedTerms returns the terms answered wrongly most often
func (db *DB) MissedTerms(ctx context.Context, limit int) ([]MissedTerm, error) {
	query := `SELECT term, SUM(CASE WHEN is_correct THEN 0 ELSE 1 END) AS missed, COUNT(*) AS asked
		FROM answers GROUP BY term HAVING missed > 0 ORDER BY missed DESC, term ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get missed terms: %w", err)
	}
	defer rows.Close()

	var missed []MissedTerm
	for rows.Next() {
		var m MissedTerm
		if err := rows.Scan(&m.Term, &m.Missed, &m.Asked); err != nil {
			return nil, fmt.Errorf("failed to scan missed term: %w", err)
		}
		missed = append(missed, m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating missed terms: %w", err)
	}
	return missed, nil
}
