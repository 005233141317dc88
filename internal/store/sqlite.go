package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/assessment-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
// The pool is limited to one connection so session transactions serialize.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id                  TEXT PRIMARY KEY,
	company_id          TEXT NOT NULL,
	user_id             TEXT NOT NULL,
	type                TEXT NOT NULL DEFAULT 'full',
	status              TEXT NOT NULL DEFAULT 'draft',
	current_question_id TEXT NOT NULL DEFAULT '',
	answered_count      INTEGER NOT NULL DEFAULT 0,
	total_count         INTEGER NOT NULL DEFAULT 0,
	progress_percentage REAL NOT NULL DEFAULT 0,
	context             TEXT NOT NULL DEFAULT '{}',
	started_at          DATETIME,
	completed_at        DATETIME,
	created_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS answers (
	id              TEXT PRIMARY KEY,
	session_id      TEXT NOT NULL REFERENCES sessions(id),
	question_id     TEXT NOT NULL,
	value           TEXT,
	normalized      TEXT,
	confidence      REAL NOT NULL DEFAULT 1,
	source          TEXT NOT NULL DEFAULT 'user',
	skipped         INTEGER NOT NULL DEFAULT 0,
	skip_reason     TEXT NOT NULL DEFAULT '',
	time_spent_secs INTEGER NOT NULL DEFAULT 0,
	answered_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (session_id, question_id)
);

CREATE TABLE IF NOT EXISTS analysis_results (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	composite  REAL NOT NULL DEFAULT 0,
	maturity   TEXT NOT NULL DEFAULT '',
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
CREATE INDEX IF NOT EXISTS idx_sessions_company ON sessions(company_id);
CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
CREATE INDEX IF NOT EXISTS idx_answers_session_id ON answers(session_id);
CREATE INDEX IF NOT EXISTS idx_analysis_results_session_id ON analysis_results(session_id, created_at);
`

const sessionColumns = `id, company_id, user_id, type, status, current_question_id, answered_count,
	total_count, progress_percentage, context, started_at, completed_at, created_at, updated_at`

const answerColumns = `id, session_id, question_id, value, normalized, confidence, source, skipped,
	skip_reason, time_spent_secs, answered_at`

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateSession(ctx context.Context, sess model.AssessmentSession) (*model.AssessmentSession, error) {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.UpdatedAt = now
	if sess.Status == "" {
		sess.Status = model.SessionDraft
	}

	contextJSON, err := json.Marshal(sess.Context)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal session context")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.CompanyID, sess.UserID, sess.Type, string(sess.Status), sess.CurrentQuestionID,
		sess.AnsweredCount, sess.TotalCount, sess.ProgressPercentage, string(contextJSON),
		nullTime(sess.StartedAt), nullTime(sess.CompletedAt), sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert session")
	}
	return &sess, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*model.AssessmentSession, error) {
	return getSession(ctx, s.db, id)
}

func (s *SQLiteStore) ListSessions(ctx context.Context, filter SessionFilter) ([]model.AssessmentSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.CompanyID != "" {
		query += ` AND company_id = ?`
		args = append(args, filter.CompanyID)
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.CreatedAfter.UTC())
	}
	if !filter.UpdatedBefore.IsZero() {
		query += ` AND updated_at < ?`
		args = append(args, filter.UpdatedBefore.UTC())
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sessions")
	}
	defer rows.Close()

	var sessions []model.AssessmentSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, eris.Wrap(rows.Err(), "sqlite: list sessions iterate")
}

func (s *SQLiteStore) UpdateSession(ctx context.Context, id string, fn Mutator) (*model.AssessmentSession, error) {
	var out *model.AssessmentSession
	err := s.inSessionTx(ctx, id, func(tx *sql.Tx, sess *model.AssessmentSession, answers []model.Answer) error {
		if err := fn(sess, answers); err != nil {
			return err
		}
		out = sess
		return nil
	})
	return out, err
}

func (s *SQLiteStore) SaveAnswer(ctx context.Context, answer model.Answer, fn Mutator) (*model.AssessmentSession, error) {
	if answer.ID == "" {
		answer.ID = uuid.New().String()
	}
	if answer.AnsweredAt.IsZero() {
		answer.AnsweredAt = time.Now().UTC()
	}

	var out *model.AssessmentSession
	err := s.inSessionTx(ctx, answer.SessionID, func(tx *sql.Tx, sess *model.AssessmentSession, answers []model.Answer) error {
		if err := fn(sess, stageAnswer(answers, answer)); err != nil {
			return err
		}
		if err := upsertAnswer(ctx, tx, answer); err != nil {
			return err
		}
		out = sess
		return nil
	})
	return out, err
}

func (s *SQLiteStore) GetAnswers(ctx context.Context, sessionID string) ([]model.Answer, error) {
	return getAnswers(ctx, s.db, sessionID)
}

func (s *SQLiteStore) CompleteSession(ctx context.Context, id string, fn Finalizer) (*model.AssessmentSession, *model.AnalysisResult, error) {
	var (
		out    *model.AssessmentSession
		result *model.AnalysisResult
	)
	err := s.inSessionTx(ctx, id, func(tx *sql.Tx, sess *model.AssessmentSession, answers []model.Answer) error {
		res, err := fn(sess, answers)
		if err != nil {
			return err
		}
		if res == nil {
			return eris.New("sqlite: finalizer returned no result")
		}
		if err := insertResult(ctx, tx, res, id); err != nil {
			return err
		}
		out, result = sess, res
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, result, nil
}

func (s *SQLiteStore) AppendAnalysisResult(ctx context.Context, result *model.AnalysisResult) error {
	if result == nil || result.SessionID == "" {
		return eris.New("sqlite: analysis result requires a session id")
	}
	return insertResult(ctx, s.db, result, result.SessionID)
}

func (s *SQLiteStore) ListAnalysisResults(ctx context.Context, filter ResultFilter) ([]model.AnalysisResult, error) {
	query := `SELECT payload FROM analysis_results WHERE 1=1`
	var args []any

	if filter.SessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, filter.SessionID)
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.CreatedAfter.UTC())
	}
	query += ` ORDER BY created_at ASC, rowid ASC LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analysis results")
	}
	defer rows.Close()

	var results []model.AnalysisResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan analysis result")
		}
		var r model.AnalysisResult
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal analysis result")
		}
		results = append(results, r)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: list analysis results iterate")
}

func (s *SQLiteStore) LatestAnalysisResult(ctx context.Context, sessionID string) (*model.AnalysisResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM analysis_results WHERE session_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		sessionID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(model.ErrAnalysisNotFound, "sqlite: session %s", sessionID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest analysis result")
	}
	var r model.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal analysis result")
	}
	return &r, nil
}

// inSessionTx loads the session and its answers in a transaction, runs fn,
// then writes the session back conditioned on its loaded status.
func (s *SQLiteStore) inSessionTx(ctx context.Context, id string, fn func(tx *sql.Tx, sess *model.AssessmentSession, answers []model.Answer) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	sess, err := getSession(ctx, tx, id)
	if err != nil {
		return err
	}
	answers, err := getAnswers(ctx, tx, id)
	if err != nil {
		return err
	}

	expected := sess.Status
	if err := fn(tx, sess, answers); err != nil {
		return err
	}
	sess.UpdatedAt = time.Now().UTC()

	contextJSON, err := json.Marshal(sess.Context)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal session context")
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET status = ?, current_question_id = ?, answered_count = ?, total_count = ?,
			progress_percentage = ?, context = ?, started_at = ?, completed_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(sess.Status), sess.CurrentQuestionID, sess.AnsweredCount, sess.TotalCount,
		sess.ProgressPercentage, string(contextJSON), nullTime(sess.StartedAt), nullTime(sess.CompletedAt),
		sess.UpdatedAt, id, string(expected),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update session %s", id)
	}
	if err := checkRowsAffected(res, id, expected); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func getSession(ctx context.Context, q queryer, id string) (*model.AssessmentSession, error) {
	row := q.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(model.ErrSessionNotFound, "sqlite: session %s", id)
	}
	return sess, err
}

func getAnswers(ctx context.Context, q queryer, sessionID string) ([]model.Answer, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+answerColumns+` FROM answers WHERE session_id = ? ORDER BY answered_at ASC, rowid ASC`,
		sessionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get answers")
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		answers = append(answers, *a)
	}
	return answers, eris.Wrap(rows.Err(), "sqlite: get answers iterate")
}

func upsertAnswer(ctx context.Context, q queryer, a model.Answer) error {
	value, err := marshalValue(a.Value)
	if err != nil {
		return err
	}
	normalized, err := marshalValue(a.Normalized)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO answers (`+answerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (session_id, question_id) DO UPDATE SET
			value = excluded.value,
			normalized = excluded.normalized,
			confidence = excluded.confidence,
			source = excluded.source,
			skipped = excluded.skipped,
			skip_reason = excluded.skip_reason,
			time_spent_secs = excluded.time_spent_secs,
			answered_at = excluded.answered_at`,
		a.ID, a.SessionID, a.QuestionID, value, normalized, a.Confidence, string(a.Source),
		a.Skipped, a.SkipReason, a.TimeSpentSecs, a.AnsweredAt,
	)
	return eris.Wrapf(err, "sqlite: upsert answer %s/%s", a.SessionID, a.QuestionID)
}

func insertResult(ctx context.Context, q queryer, result *model.AnalysisResult, sessionID string) error {
	prepareResult(result, sessionID, func() string { return uuid.New().String() }, time.Now().UTC())
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal analysis result")
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO analysis_results (id, session_id, composite, maturity, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		result.ID, result.SessionID, result.Score.Composite, string(result.Score.Maturity), string(payload), result.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert analysis result for session %s", result.SessionID)
}

// helpers

func checkRowsAffected(res sql.Result, id string, expected model.SessionStatus) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(model.ErrInvalidSessionState, "session %s is no longer %s", id, expected)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSession(row scannable) (*model.AssessmentSession, error) {
	var sess model.AssessmentSession
	var status, contextJSON string
	var startedAt, completedAt sql.NullTime

	err := row.Scan(&sess.ID, &sess.CompanyID, &sess.UserID, &sess.Type, &status,
		&sess.CurrentQuestionID, &sess.AnsweredCount, &sess.TotalCount, &sess.ProgressPercentage,
		&contextJSON, &startedAt, &completedAt, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan session")
	}

	sess.Status = model.SessionStatus(status)
	if err := json.Unmarshal([]byte(contextJSON), &sess.Context); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal session context")
	}
	if startedAt.Valid {
		t := startedAt.Time
		sess.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		sess.CompletedAt = &t
	}
	return &sess, nil
}

func scanAnswer(row scannable) (*model.Answer, error) {
	var a model.Answer
	var value, normalized sql.NullString
	var source string

	err := row.Scan(&a.ID, &a.SessionID, &a.QuestionID, &value, &normalized, &a.Confidence,
		&source, &a.Skipped, &a.SkipReason, &a.TimeSpentSecs, &a.AnsweredAt)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan answer")
	}
	a.Source = model.AnswerSource(source)

	if a.Value, err = unmarshalValue(value.String, value.Valid); err != nil {
		return nil, err
	}
	if a.Normalized, err = unmarshalValue(normalized.String, normalized.Valid); err != nil {
		return nil, err
	}
	return &a, nil
}

func marshalValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal answer value")
	}
	return string(b), nil
}

func unmarshalValue(s string, valid bool) (any, error) {
	if !valid || s == "" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal answer value")
	}
	return v, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
