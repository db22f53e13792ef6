// Package repository holds the PostgreSQL data access for every entity.
// Repositories run against either the shared pool or a transaction; Store
// bundles them and opens transactions.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Querier is implemented by both *sqlx.DB and *sqlx.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
}

// Store groups the repositories over one Querier.
type Store struct {
	db     *sqlx.DB
	logger infralogger.Logger

	Sites         *SiteRepository
	Traffic       *TrafficRepository
	SearchConsole *SearchConsoleRepository
	BacklinkSites *BacklinkSiteRepository
	Submissions   *SubmissionRepository
	Evaluations   *EvaluationRepository
	Connectors    *ConnectorRepository
	Jobs          *RecomputeJobRepository
}

// NewStore builds a Store on the shared pool.
func NewStore(db *sqlx.DB, log infralogger.Logger) *Store {
	return newStore(db, db, log)
}

func newStore(db *sqlx.DB, q Querier, log infralogger.Logger) *Store {
	return &Store{
		db:            db,
		logger:        log,
		Sites:         &SiteRepository{q: q},
		Traffic:       &TrafficRepository{q: q},
		SearchConsole: &SearchConsoleRepository{q: q},
		BacklinkSites: &BacklinkSiteRepository{q: q},
		Submissions:   &SubmissionRepository{q: q},
		Evaluations:   &EvaluationRepository{q: q},
		Connectors:    &ConnectorRepository{q: q},
		Jobs:          &RecomputeJobRepository{q: q},
	}
}

// InTx runs fn with a Store bound to a new transaction, committing when fn
// returns nil and rolling back otherwise. Calls must not be nested.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if fnErr := fn(newStore(s.db, tx, s.logger)); fnErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to roll back transaction", infralogger.Error(rbErr))
		}
		return fnErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("commit transaction: %w", commitErr)
	}
	return nil
}

// Ping checks the pool.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// buildUpdateQuery renders an UPDATE ... RETURNING for the given columns.
// Columns are written in sorted order so the argument order is stable.
// condition, when set, is ANDed to the id match.
func buildUpdateQuery(table string, id uuid.UUID, updates map[string]any, returningFields, condition string) (string, []any, error) {
	if len(updates) == 0 {
		return "", nil, models.ErrNoFieldsToUpdate
	}

	columns := make([]string, 0, len(updates))
	for column := range updates {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	updateFields := make([]string, 0, len(updates)+1)
	args := make([]any, 0, len(updates)+2)
	argPos := 1

	for _, column := range columns {
		updateFields = append(updateFields, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, updates[column])
		argPos++
	}

	updateFields = append(updateFields, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now())
	argPos++

	args = append(args, id)

	where := fmt.Sprintf("id = $%d", argPos)
	if condition != "" {
		where += " AND " + condition
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s
		WHERE %s
		RETURNING %s
	`, table, strings.Join(updateFields, ", "), where, returningFields)

	return query, args, nil
}

// translateError maps driver errors onto model sentinels.
func translateError(err error, duplicate error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			return duplicate
		case pgForeignKeyViolation:
			return models.ErrNotFound
		}
	}
	return nil
}

// wrap returns the translated sentinel or err annotated with op.
func wrap(err error, op string, duplicate error) error {
	if sentinel := translateError(err, duplicate); sentinel != nil {
		return sentinel
	}
	return fmt.Errorf("%s: %w", op, err)
}

func expectAffected(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// nullJSON stores an empty document as SQL NULL; types.JSONText would
// otherwise write '{}'.
func nullJSON(j types.JSONText) any {
	if len(j) == 0 {
		return nil
	}
	return j
}

func uuidArray(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// orderBy validates a sort column against an allow-list and renders the
// ORDER BY clause with id as the final tie-break.
func orderBy(sortBy, sortOrder string, allowed map[string]string, fallback string) string {
	column, ok := allowed[sortBy]
	if !ok {
		column = fallback
	}
	dir := "ASC"
	if strings.EqualFold(sortOrder, "desc") {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s NULLS LAST, id ASC", column, dir)
}

// clauses accumulates WHERE conditions with positional arguments.
type clauses struct {
	conditions []string
	args       []any
}

func (c *clauses) add(format string, arg any) {
	c.args = append(c.args, arg)
	c.conditions = append(c.conditions, fmt.Sprintf(format, len(c.args)))
}

func (c *clauses) addRaw(condition string) {
	c.conditions = append(c.conditions, condition)
}

func (c *clauses) where() string {
	if len(c.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.conditions, " AND ")
}

// page appends LIMIT/OFFSET when limit is positive.
func (c *clauses) page(limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	args := len(c.args)
	c.args = append(c.args, limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", args+1, args+2)
}
