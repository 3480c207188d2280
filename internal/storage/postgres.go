package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/interview-prep/judge/internal/logger"
	customErr "github.com/interview-prep/judge/pkg/errors"
	"github.com/interview-prep/judge/pkg/solution"
)

const schema = `
CREATE TABLE IF NOT EXISTS problems (
	id                   TEXT PRIMARY KEY,
	title                TEXT NOT NULL DEFAULT '',
	starter_code         TEXT NOT NULL DEFAULT '',
	visible_test_cases   JSONB NOT NULL DEFAULT '[]',
	hidden_test_cases    JSONB NOT NULL DEFAULT '[]',
	acceptance_criteria  TEXT NOT NULL DEFAULT 'EXACT_MATCH',
	submissions          BIGINT NOT NULL DEFAULT 0,
	accepted_submissions BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS submissions (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	problem_id   TEXT NOT NULL REFERENCES problems(id),
	code         TEXT NOT NULL,
	language     TEXT NOT NULL,
	status       TEXT NOT NULL,
	passed_count INTEGER NOT NULL,
	total_count  INTEGER NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS submissions_user_problem_idx
	ON submissions (user_id, problem_id, created_at DESC);
`

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// problemRow mirrors the problems table. Test cases are stored as JSONB.
type problemRow struct {
	ID                  string `db:"id"`
	Title               string `db:"title"`
	StarterCode         string `db:"starter_code"`
	VisibleTestCases    []byte `db:"visible_test_cases"`
	HiddenTestCases     []byte `db:"hidden_test_cases"`
	AcceptanceCriteria  string `db:"acceptance_criteria"`
	Submissions         int64  `db:"submissions"`
	AcceptedSubmissions int64  `db:"accepted_submissions"`
}

type PostgresStore struct {
	db     *sqlx.DB
	logger *zap.SugaredLogger
}

// NewPostgresStore connects, pings and applies the schema.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	store := NewPostgresStoreFromDB(db)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func NewPostgresStoreFromDB(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger.NewNamedLogger("postgres-store"),
	}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) GetProblem(ctx context.Context, problemID string) (*solution.Problem, error) {
	var row problemRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, title, starter_code, visible_test_cases, hidden_test_cases,
		       acceptance_criteria, submissions, accepted_submissions
		FROM problems WHERE id = $1`, problemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customErr.ErrProblemNotFound
	}
	if err != nil {
		s.logger.Errorf("Failed to load problem %s: %s", problemID, err)
		return nil, fmt.Errorf("failed to load problem: %w", err)
	}
	return row.toProblem()
}

func (s *PostgresStore) SaveProblem(ctx context.Context, problem *solution.Problem) error {
	visible, err := json.Marshal(nonNil(problem.VisibleTestCases))
	if err != nil {
		return fmt.Errorf("failed to marshal visible test cases: %w", err)
	}
	hidden, err := json.Marshal(nonNil(problem.HiddenTestCases))
	if err != nil {
		return fmt.Errorf("failed to marshal hidden test cases: %w", err)
	}

	criteria := problem.AcceptanceCriteria
	if criteria == "" {
		criteria = solution.ExactMatch
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO problems (
			id, title, starter_code, visible_test_cases, hidden_test_cases, acceptance_criteria
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			starter_code = EXCLUDED.starter_code,
			visible_test_cases = EXCLUDED.visible_test_cases,
			hidden_test_cases = EXCLUDED.hidden_test_cases,
			acceptance_criteria = EXCLUDED.acceptance_criteria`,
		problem.ID, problem.Title, problem.StarterCode, visible, hidden, string(criteria))
	if err != nil {
		s.logger.Errorf("Failed to save problem %s: %s", problem.ID, err)
		return fmt.Errorf("failed to save problem: %w", err)
	}
	return nil
}

func (s *PostgresStore) IncrementCounters(ctx context.Context, problemID string, accepted bool) error {
	acceptedDelta := 0
	if accepted {
		acceptedDelta = 1
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE problems
		SET submissions = submissions + 1,
		    accepted_submissions = accepted_submissions + $2
		WHERE id = $1`, problemID, acceptedDelta)
	if err != nil {
		s.logger.Errorf("Failed to increment counters of %s: %s", problemID, err)
		return fmt.Errorf("failed to increment counters: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return customErr.ErrProblemNotFound
	}
	return nil
}

func (s *PostgresStore) CreateSubmission(ctx context.Context, record *solution.SubmissionRecord) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO submissions (
			id, user_id, problem_id, code, language, status, passed_count, total_count, created_at
		) VALUES (
			:id, :user_id, :problem_id, :code, :language, :status, :passed_count, :total_count, :created_at
		)`, record)
	if err != nil {
		s.logger.Errorf("Failed to insert submission %s: %s", record.ID, err)
		return fmt.Errorf("%w: %v", customErr.ErrFailedToStoreSubmission, err)
	}
	return nil
}

func (s *PostgresStore) ListSubmissions(
	ctx context.Context,
	userID, problemID string,
	limit int,
) ([]solution.SubmissionRecord, error) {
	query := `
		SELECT id, user_id, problem_id, code, language, status, passed_count, total_count, created_at
		FROM submissions
		WHERE user_id = $1 AND ($2 = '' OR problem_id = $2)
		ORDER BY created_at DESC`
	args := []any{userID, problemID}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	records := make([]solution.SubmissionRecord, 0)
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		s.logger.Errorf("Failed to list submissions of %s: %s", userID, err)
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return records, nil
}

func (r problemRow) toProblem() (*solution.Problem, error) {
	p := &solution.Problem{
		ID:                  r.ID,
		Title:               r.Title,
		StarterCode:         r.StarterCode,
		Submissions:         r.Submissions,
		AcceptedSubmissions: r.AcceptedSubmissions,
	}

	criteria, err := solution.ParseAcceptanceCriteria(r.AcceptanceCriteria)
	if err != nil {
		return nil, fmt.Errorf("problem %s: %w", r.ID, err)
	}
	p.AcceptanceCriteria = criteria

	if err := json.Unmarshal(r.VisibleTestCases, &p.VisibleTestCases); err != nil {
		return nil, fmt.Errorf("problem %s: invalid visible test cases: %w", r.ID, err)
	}
	if err := json.Unmarshal(r.HiddenTestCases, &p.HiddenTestCases); err != nil {
		return nil, fmt.Errorf("problem %s: invalid hidden test cases: %w", r.ID, err)
	}
	return p, nil
}

func nonNil(testCases []solution.TestCase) []solution.TestCase {
	if testCases == nil {
		return []solution.TestCase{}
	}
	return testCases
}
