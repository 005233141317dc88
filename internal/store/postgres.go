package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/assessment-cli/internal/db"
	"github.com/sells-group/assessment-cli/internal/model"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	pgGetSession = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	pgLockSession = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 FOR UPDATE`

	pgGetAnswers = `SELECT ` + answerColumns + ` FROM answers WHERE session_id = $1 ORDER BY answered_at ASC, id ASC`

	pgUpdateSession = `UPDATE sessions SET status = $1, current_question_id = $2, answered_count = $3, total_count = $4,
		progress_percentage = $5, context = $6, started_at = $7, completed_at = $8, updated_at = $9
	 WHERE id = $10 AND status = $11`

	pgUpsertAnswer = `INSERT INTO answers (` + answerColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	 ON CONFLICT (session_id, question_id) DO UPDATE SET
		value = EXCLUDED.value,
		normalized = EXCLUDED.normalized,
		confidence = EXCLUDED.confidence,
		source = EXCLUDED.source,
		skipped = EXCLUDED.skipped,
		skip_reason = EXCLUDED.skip_reason,
		time_spent_secs = EXCLUDED.time_spent_secs,
		answered_at = EXCLUDED.answered_at`

	pgInsertResult = `INSERT INTO analysis_results (id, session_id, composite, maturity, payload, created_at) VALUES ($1, $2, $3, $4, $5, $6)`

	pgLatestResult = `SELECT payload FROM analysis_results WHERE session_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
)

// preparedStatements lists queries prepared on each new connection. They are
// prepared under their own SQL text so the cached statement is reused.
var preparedStatements = []string{
	pgGetSession,
	pgLockSession,
	pgGetAnswers,
	pgUpdateSession,
	pgUpsertAnswer,
	pgInsertResult,
	pgLatestResult,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for _, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, sql, sql); err != nil {
				return eris.Wrap(err, "postgres: prepare statement")
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. The caller keeps ownership of
// the pool; Close is a no-op.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	return eris.Wrap(db.Migrate(ctx, s.pool, postgresMigrations, "migrations/postgres"), "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, sess model.AssessmentSession) (*model.AssessmentSession, error) {
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
		return nil, eris.Wrap(err, "postgres: marshal session context")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		sess.ID, sess.CompanyID, sess.UserID, sess.Type, string(sess.Status), sess.CurrentQuestionID,
		sess.AnsweredCount, sess.TotalCount, sess.ProgressPercentage, contextJSON,
		sess.StartedAt, sess.CompletedAt, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert session")
	}
	return &sess, nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (*model.AssessmentSession, error) {
	return pgScanSessionRow(s.pool.QueryRow(ctx, pgGetSession, id), id)
}

func (s *PostgresStore) ListSessions(ctx context.Context, filter SessionFilter) ([]model.AssessmentSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.CompanyID != "" {
		query += fmt.Sprintf(` AND company_id = $%d`, argIdx)
		args = append(args, filter.CompanyID)
		argIdx++
	}
	if !filter.CreatedAfter.IsZero() {
		query += fmt.Sprintf(` AND created_at >= $%d`, argIdx)
		args = append(args, filter.CreatedAfter.UTC())
		argIdx++
	}
	if !filter.UpdatedBefore.IsZero() {
		query += fmt.Sprintf(` AND updated_at < $%d`, argIdx)
		args = append(args, filter.UpdatedBefore.UTC())
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sessions")
	}
	defer rows.Close()

	var sessions []model.AssessmentSession
	for rows.Next() {
		sess, err := pgScanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, eris.Wrap(rows.Err(), "postgres: list sessions iterate")
}

func (s *PostgresStore) UpdateSession(ctx context.Context, id string, fn Mutator) (*model.AssessmentSession, error) {
	var out *model.AssessmentSession
	err := s.inSessionTx(ctx, id, func(_ pgx.Tx, sess *model.AssessmentSession, answers []model.Answer) error {
		if err := fn(sess, answers); err != nil {
			return err
		}
		out = sess
		return nil
	})
	return out, err
}

func (s *PostgresStore) SaveAnswer(ctx context.Context, answer model.Answer, fn Mutator) (*model.AssessmentSession, error) {
	if answer.ID == "" {
		answer.ID = uuid.New().String()
	}
	if answer.AnsweredAt.IsZero() {
		answer.AnsweredAt = time.Now().UTC()
	}

	var out *model.AssessmentSession
	err := s.inSessionTx(ctx, answer.SessionID, func(tx pgx.Tx, sess *model.AssessmentSession, answers []model.Answer) error {
		if err := fn(sess, stageAnswer(answers, answer)); err != nil {
			return err
		}
		if err := pgUpsert(ctx, tx, answer); err != nil {
			return err
		}
		out = sess
		return nil
	})
	return out, err
}

func (s *PostgresStore) GetAnswers(ctx context.Context, sessionID string) ([]model.Answer, error) {
	rows, err := s.pool.Query(ctx, pgGetAnswers, sessionID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get answers")
	}
	return pgCollectAnswers(rows)
}

func (s *PostgresStore) CompleteSession(ctx context.Context, id string, fn Finalizer) (*model.AssessmentSession, *model.AnalysisResult, error) {
	var (
		out    *model.AssessmentSession
		result *model.AnalysisResult
	)
	err := s.inSessionTx(ctx, id, func(tx pgx.Tx, sess *model.AssessmentSession, answers []model.Answer) error {
		res, err := fn(sess, answers)
		if err != nil {
			return err
		}
		if res == nil {
			return eris.New("postgres: finalizer returned no result")
		}
		if err := pgInsert(ctx, tx, res, id); err != nil {
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

func (s *PostgresStore) AppendAnalysisResult(ctx context.Context, result *model.AnalysisResult) error {
	if result == nil || result.SessionID == "" {
		return eris.New("postgres: analysis result requires a session id")
	}
	return pgInsert(ctx, s.pool, result, result.SessionID)
}

func (s *PostgresStore) ListAnalysisResults(ctx context.Context, filter ResultFilter) ([]model.AnalysisResult, error) {
	query := `SELECT payload FROM analysis_results WHERE true`
	args := []any{}
	argIdx := 1

	if filter.SessionID != "" {
		query += fmt.Sprintf(` AND session_id = $%d`, argIdx)
		args = append(args, filter.SessionID)
		argIdx++
	}
	if !filter.CreatedAfter.IsZero() {
		query += fmt.Sprintf(` AND created_at >= $%d`, argIdx)
		args = append(args, filter.CreatedAfter.UTC())
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at ASC, id ASC LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list analysis results")
	}
	defer rows.Close()

	var results []model.AnalysisResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan analysis result")
		}
		var r model.AnalysisResult
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal analysis result")
		}
		results = append(results, r)
	}
	return results, eris.Wrap(rows.Err(), "postgres: list analysis results iterate")
}

func (s *PostgresStore) LatestAnalysisResult(ctx context.Context, sessionID string) (*model.AnalysisResult, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, pgLatestResult, sessionID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(model.ErrAnalysisNotFound, "postgres: session %s", sessionID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest analysis result")
	}
	var r model.AnalysisResult
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal analysis result")
	}
	return &r, nil
}

// inSessionTx locks the session row, loads its answers, runs fn and writes
// the session back conditioned on its loaded status.
func (s *PostgresStore) inSessionTx(ctx context.Context, id string, fn func(tx pgx.Tx, sess *model.AssessmentSession, answers []model.Answer) error) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		sess, err := pgScanSessionRow(tx.QueryRow(ctx, pgLockSession, id), id)
		if err != nil {
			return err
		}
		rows, err := tx.Query(ctx, pgGetAnswers, id)
		if err != nil {
			return eris.Wrap(err, "postgres: get answers")
		}
		answers, err := pgCollectAnswers(rows)
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
			return eris.Wrap(err, "postgres: marshal session context")
		}
		tag, err := tx.Exec(ctx, pgUpdateSession,
			string(sess.Status), sess.CurrentQuestionID, sess.AnsweredCount, sess.TotalCount,
			sess.ProgressPercentage, contextJSON, sess.StartedAt, sess.CompletedAt, sess.UpdatedAt,
			id, string(expected),
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: update session %s", id)
		}
		if tag.RowsAffected() == 0 {
			return eris.Wrapf(model.ErrInvalidSessionState, "session %s is no longer %s", id, expected)
		}
		return nil
	})
}

// execer is satisfied by db.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func pgUpsert(ctx context.Context, tx pgx.Tx, a model.Answer) error {
	value, err := jsonValue(a.Value)
	if err != nil {
		return err
	}
	normalized, err := jsonValue(a.Normalized)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, pgUpsertAnswer,
		a.ID, a.SessionID, a.QuestionID, value, normalized, a.Confidence, string(a.Source),
		a.Skipped, a.SkipReason, a.TimeSpentSecs, a.AnsweredAt,
	)
	return eris.Wrapf(err, "postgres: upsert answer %s/%s", a.SessionID, a.QuestionID)
}

func pgInsert(ctx context.Context, q execer, result *model.AnalysisResult, sessionID string) error {
	prepareResult(result, sessionID, func() string { return uuid.New().String() }, time.Now().UTC())
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal analysis result")
	}
	_, err = q.Exec(ctx, pgInsertResult,
		result.ID, result.SessionID, result.Score.Composite, string(result.Score.Maturity), payload, result.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert analysis result for session %s", result.SessionID)
}

func pgScanSessionRow(row pgx.Row, id string) (*model.AssessmentSession, error) {
	sess, err := pgScanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(model.ErrSessionNotFound, "postgres: session %s", id)
	}
	return sess, err
}

func pgScanSession(row pgx.Row) (*model.AssessmentSession, error) {
	var sess model.AssessmentSession
	var status string
	var contextJSON []byte

	err := row.Scan(&sess.ID, &sess.CompanyID, &sess.UserID, &sess.Type, &status,
		&sess.CurrentQuestionID, &sess.AnsweredCount, &sess.TotalCount, &sess.ProgressPercentage,
		&contextJSON, &sess.StartedAt, &sess.CompletedAt, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan session")
	}

	sess.Status = model.SessionStatus(status)
	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &sess.Context); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal session context")
		}
	}
	return &sess, nil
}

func pgCollectAnswers(rows pgx.Rows) ([]model.Answer, error) {
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		var value, normalized []byte
		var source string

		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &value, &normalized, &a.Confidence,
			&source, &a.Skipped, &a.SkipReason, &a.TimeSpentSecs, &a.AnsweredAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan answer")
		}
		a.Source = model.AnswerSource(source)

		var err error
		if a.Value, err = unmarshalValue(string(value), value != nil); err != nil {
			return nil, err
		}
		if a.Normalized, err = unmarshalValue(string(normalized), normalized != nil); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, eris.Wrap(rows.Err(), "postgres: get answers iterate")
}

// jsonValue encodes an answer value for a JSONB column; nil stays NULL.
func jsonValue(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal answer value")
	}
	return b, nil
}
