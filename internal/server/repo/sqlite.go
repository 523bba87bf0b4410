package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/abhisek/practest/internal/llm"
	"github.com/abhisek/practest/internal/quiz"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS subjects (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS topics (
	id      TEXT PRIMARY KEY,
	subject TEXT NOT NULL,
	name    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_topics_subject ON topics(subject);

CREATE TABLE IF NOT EXISTS questions (
	id             TEXT PRIMARY KEY,
	subject        TEXT NOT NULL,
	topic          TEXT NOT NULL,
	type           TEXT NOT NULL,
	text           TEXT NOT NULL,
	options        TEXT NOT NULL DEFAULT '[]',
	correct_answer TEXT NOT NULL,
	explanation    TEXT NOT NULL DEFAULT '',
	difficulty     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_questions_topic ON questions(topic, difficulty);

CREATE TABLE IF NOT EXISTS results (
	id                TEXT PRIMARY KEY,
	user_id           TEXT    NOT NULL,
	subject           TEXT    NOT NULL,
	questions         TEXT    NOT NULL,
	score             REAL    NOT NULL,
	time_taken        INTEGER NOT NULL,
	topic_performance TEXT    NOT NULL,
	improvement       REAL    NOT NULL,
	created_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_user_time ON results(user_id, created_at);

CREATE TABLE IF NOT EXISTS progress (
	user_id   TEXT    NOT NULL,
	topic_id  TEXT    NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (user_id, topic_id)
);

CREATE TABLE IF NOT EXISTS llm_requests (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	provider      TEXT    NOT NULL,
	model         TEXT    NOT NULL,
	purpose       TEXT    NOT NULL,
	input_tokens  INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	latency_ms    INTEGER NOT NULL,
	success       INTEGER NOT NULL,
	error_message TEXT    NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL
);
`

// SQLite is a Repository backed by a local SQLite file.
type SQLite struct {
	db *sqlx.DB
}

var (
	_ Repository        = (*SQLite)(nil)
	_ llm.UsageRecorder = (*SQLite)(nil)
)

// OpenSQLite opens (creating if needed) the database at dsn.
func OpenSQLite(dsn string) (*SQLite, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, p := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

type questionRow struct {
	ID            string `db:"id"`
	Subject       string `db:"subject"`
	Topic         string `db:"topic"`
	Type          string `db:"type"`
	Text          string `db:"text"`
	Options       string `db:"options"`
	CorrectAnswer string `db:"correct_answer"`
	Explanation   string `db:"explanation"`
	Difficulty    string `db:"difficulty"`
}

func newQuestionRow(q quiz.Question) (questionRow, error) {
	opts := q.Options
	if opts == nil {
		opts = []quiz.Option{}
	}
	buf, err := json.Marshal(opts)
	if err != nil {
		return questionRow{}, err
	}
	return questionRow{
		ID:            q.ID,
		Subject:       q.Subject,
		Topic:         q.Topic,
		Type:          string(q.Type),
		Text:          q.Text,
		Options:       string(buf),
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
		Difficulty:    string(q.Difficulty),
	}, nil
}

func (r questionRow) question() (quiz.Question, error) {
	q := quiz.Question{
		ID:            r.ID,
		Subject:       r.Subject,
		Topic:         r.Topic,
		Type:          quiz.QuestionType(r.Type),
		Text:          r.Text,
		CorrectAnswer: r.CorrectAnswer,
		Explanation:   r.Explanation,
		Difficulty:    quiz.Difficulty(r.Difficulty),
	}
	if err := json.Unmarshal([]byte(r.Options), &q.Options); err != nil {
		return quiz.Question{}, fmt.Errorf("question %s options: %w", r.ID, err)
	}
	if len(q.Options) == 0 {
		q.Options = nil
	}
	return q, nil
}

type resultRow struct {
	ID               string  `db:"id"`
	UserID           string  `db:"user_id"`
	Subject          string  `db:"subject"`
	Questions        string  `db:"questions"`
	Score            float64 `db:"score"`
	TimeTaken        int     `db:"time_taken"`
	TopicPerformance string  `db:"topic_performance"`
	Improvement      float64 `db:"improvement"`
	CreatedAt        int64   `db:"created_at"`
}

func (r resultRow) result() (Result, error) {
	out := Result{
		ID:          r.ID,
		UserID:      r.UserID,
		Subject:     r.Subject,
		Score:       r.Score,
		TimeTaken:   r.TimeTaken,
		Improvement: r.Improvement,
		CreatedAt:   time.UnixMilli(r.CreatedAt).UTC(),
	}
	if err := json.Unmarshal([]byte(r.Questions), &out.Questions); err != nil {
		return Result{}, fmt.Errorf("result %s questions: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.TopicPerformance), &out.TopicPerformance); err != nil {
		return Result{}, fmt.Errorf("result %s topic performance: %w", r.ID, err)
	}
	return out, nil
}

func (s *SQLite) Subjects(ctx context.Context) ([]quiz.Subject, error) {
	var out []quiz.Subject
	if err := s.db.SelectContext(ctx, &out, `SELECT id, name, description FROM subjects ORDER BY rowid`); err != nil {
		return nil, fmt.Errorf("query subjects: %w", err)
	}
	return out, nil
}

const topicColumns = `
	t.id, t.name, t.subject,
	(SELECT COUNT(*) FROM questions q WHERE q.topic = t.id) AS total_questions`

type topicRow struct {
	ID             string `db:"id"`
	Name           string `db:"name"`
	Subject        string `db:"subject"`
	TotalQuestions int    `db:"total_questions"`
}

func (r topicRow) topic() quiz.Topic {
	return quiz.Topic{ID: r.ID, Name: r.Name, Subject: r.Subject, TotalQuestions: r.TotalQuestions}
}

func (s *SQLite) Topics(ctx context.Context, subject string) ([]quiz.Topic, error) {
	var rows []topicRow
	q := `SELECT` + topicColumns + ` FROM topics t WHERE t.subject = ? ORDER BY t.rowid`
	if err := s.db.SelectContext(ctx, &rows, q, subject); err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	out := make([]quiz.Topic, len(rows))
	for i, r := range rows {
		out[i] = r.topic()
	}
	return out, nil
}

func (s *SQLite) Topic(ctx context.Context, id string) (quiz.Topic, error) {
	var row topicRow
	q := `SELECT` + topicColumns + ` FROM topics t WHERE t.id = ?`
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.Topic{}, ErrNotFound
		}
		return quiz.Topic{}, fmt.Errorf("query topic: %w", err)
	}
	return row.topic(), nil
}

func (s *SQLite) Questions(ctx context.Context, f QuestionFilter) ([]quiz.Question, error) {
	var (
		where []string
		args  []any
	)
	if f.Subject != "" {
		where = append(where, "subject = ?")
		args = append(args, f.Subject)
	}
	if f.Topic != "" {
		where = append(where, "topic = ?")
		args = append(args, f.Topic)
	}
	if f.Difficulty != "" {
		where = append(where, "difficulty = ?")
		args = append(args, string(f.Difficulty))
	}
	if len(f.Types) > 0 {
		where = append(where, "type IN (?)")
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		args = append(args, types)
	}

	query := `SELECT * FROM questions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY rowid`

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("expand query: %w", err)
	}

	var rows []questionRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	out := make([]quiz.Question, 0, len(rows))
	for _, r := range rows {
		q, err := r.question()
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

const upsertQuestion = `
INSERT OR REPLACE INTO questions
	(id, subject, topic, type, text, options, correct_answer, explanation, difficulty)
VALUES
	(:id, :subject, :topic, :type, :text, :options, :correct_answer, :explanation, :difficulty)`

func (s *SQLite) AddQuestions(ctx context.Context, qs []quiz.Question) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := insertQuestions(ctx, tx, qs); err != nil {
		return err
	}
	return tx.Commit()
}

func insertQuestions(ctx context.Context, tx *sqlx.Tx, qs []quiz.Question) error {
	for _, q := range qs {
		row, err := newQuestionRow(q)
		if err != nil {
			return fmt.Errorf("encode question %s: %w", q.ID, err)
		}
		if _, err := tx.NamedExecContext(ctx, upsertQuestion, row); err != nil {
			return fmt.Errorf("insert question %s: %w", q.ID, err)
		}
	}
	return nil
}

func (s *SQLite) Seed(ctx context.Context, b Bank) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, sub := range b.Subjects {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO subjects (id, name, description) VALUES (?, ?, ?)`,
			sub.ID, sub.Name, sub.Description); err != nil {
			return fmt.Errorf("insert subject %s: %w", sub.ID, err)
		}
	}
	for _, t := range b.Topics {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO topics (id, subject, name) VALUES (?, ?, ?)`,
			t.ID, t.Subject, t.Name); err != nil {
			return fmt.Errorf("insert topic %s: %w", t.ID, err)
		}
	}
	if err := insertQuestions(ctx, tx, b.Questions); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) IsEmpty(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM subjects`); err != nil {
		return false, fmt.Errorf("count subjects: %w", err)
	}
	return n == 0, nil
}

func (s *SQLite) SaveResult(ctx context.Context, r Result) error {
	qs, err := json.Marshal(r.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	perf, err := json.Marshal(r.TopicPerformance)
	if err != nil {
		return fmt.Errorf("encode topic performance: %w", err)
	}
	row := resultRow{
		ID:               r.ID,
		UserID:           r.UserID,
		Subject:          r.Subject,
		Questions:        string(qs),
		Score:            r.Score,
		TimeTaken:        r.TimeTaken,
		TopicPerformance: string(perf),
		Improvement:      r.Improvement,
		CreatedAt:        r.CreatedAt.UnixMilli(),
	}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO results
			(id, user_id, subject, questions, score, time_taken, topic_performance, improvement, created_at)
		VALUES
			(:id, :user_id, :subject, :questions, :score, :time_taken, :topic_performance, :improvement, :created_at)`,
		row)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *SQLite) LatestResult(ctx context.Context, userID, subject string) (Result, error) {
	var row resultRow
	err := s.db.GetContext(ctx, &row, `
		SELECT * FROM results
		WHERE user_id = ? AND subject = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, userID, subject)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, ErrNotFound
	}
	if err != nil {
		return Result{}, fmt.Errorf("query latest result: %w", err)
	}
	return row.result()
}

func (s *SQLite) Results(ctx context.Context, userID string, limit int) ([]Result, error) {
	query := `SELECT * FROM results WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var rows []resultRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	out := make([]Result, 0, len(rows))
	for _, row := range rows {
		r, err := row.result()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *SQLite) IncrementProgress(ctx context.Context, userID, topicID string, limit int) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO progress (user_id, topic_id, completed) VALUES (?, ?, 0)
		ON CONFLICT (user_id, topic_id) DO NOTHING`, userID, topicID); err != nil {
		return 0, fmt.Errorf("ensure progress: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE progress SET completed = MIN(completed + 1, ?)
		WHERE user_id = ? AND topic_id = ?`, limit, userID, topicID); err != nil {
		return 0, fmt.Errorf("increment progress: %w", err)
	}
	var n int
	if err := tx.GetContext(ctx, &n,
		`SELECT completed FROM progress WHERE user_id = ? AND topic_id = ?`, userID, topicID); err != nil {
		return 0, fmt.Errorf("read progress: %w", err)
	}
	return n, tx.Commit()
}

func (s *SQLite) Progress(ctx context.Context, userID string) (map[string]int, error) {
	var rows []struct {
		TopicID   string `db:"topic_id"`
		Completed int    `db:"completed"`
	}
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT topic_id, completed FROM progress WHERE user_id = ?`, userID); err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.TopicID] = r.Completed
	}
	return out, nil
}

// RecordLLMRequest stores one LLM call for usage accounting.
func (s *SQLite) RecordLLMRequest(ctx context.Context, ev llm.RequestEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_requests
			(provider, model, purpose, input_tokens, output_tokens, latency_ms, success, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Provider, ev.Model, ev.Purpose, ev.InputTokens, ev.OutputTokens,
		ev.LatencyMs, ev.Success, ev.ErrorMessage, ev.At.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert llm request: %w", err)
	}
	return nil
}

// LLMRequest is one recorded LLM call.
type LLMRequest struct {
	ID           int64     `db:"id"`
	Provider     string    `db:"provider"`
	Model        string    `db:"model"`
	Purpose      string    `db:"purpose"`
	InputTokens  int       `db:"input_tokens"`
	OutputTokens int       `db:"output_tokens"`
	LatencyMs    int64     `db:"latency_ms"`
	Success      bool      `db:"success"`
	ErrorMessage string    `db:"error_message"`
	CreatedAtMs  int64     `db:"created_at"`
	CreatedAt    time.Time `db:"-"`
}

// LLMUsage aggregates recorded calls for one purpose.
type LLMUsage struct {
	Purpose      string `db:"purpose"`
	Calls        int    `db:"calls"`
	Failures     int    `db:"failures"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
	AvgLatencyMs int64  `db:"avg_latency_ms"`
}

// LLMRequests returns up to limit recorded calls, newest first.
func (s *SQLite) LLMRequests(ctx context.Context, limit int) ([]LLMRequest, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []LLMRequest
	if err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM llm_requests ORDER BY created_at DESC, id DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("query llm requests: %w", err)
	}
	for i := range out {
		out[i].CreatedAt = time.UnixMilli(out[i].CreatedAtMs)
	}
	return out, nil
}

// LLMUsageByPurpose sums tokens and latency per purpose.
func (s *SQLite) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	var out []LLMUsage
	err := s.db.SelectContext(ctx, &out, `
		SELECT purpose,
		       COUNT(*)                                   AS calls,
		       SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END) AS failures,
		       SUM(input_tokens)                          AS input_tokens,
		       SUM(output_tokens)                         AS output_tokens,
		       CAST(AVG(latency_ms) AS INTEGER)           AS avg_latency_ms
		FROM llm_requests
		GROUP BY purpose
		ORDER BY purpose`)
	if err != nil {
		return nil, fmt.Errorf("query llm usage: %w", err)
	}
	return out, nil
}

func (s *SQLite) Close(context.Context) error {
	return s.db.Close()
}
