package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines the interface for load request persistence.
type Repository interface {
	// Read operations
	Get(ctx context.Context, id uuid.UUID) (*LoadRequest, error)
	List(ctx context.Context, filter ListFilter) ([]LoadRequest, int, error)

	// Write operations (transactional)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional write operations.
type TxRepository interface {
	GenerateNumber(ctx context.Context, at time.Time) (string, error)
	Insert(ctx context.Context, req LoadRequest) error
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	ReplaceLines(ctx context.Context, id uuid.UUID, commercial []CommercialLine, posm []PosmLine) error
	// UpdateStatus applies a guarded status transition. It reports false when
	// no row matched the expected source status, which callers interpret as a
	// concurrent decision by another actor.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, updates map[string]interface{}) (bool, error)
}

// repository implements Repository using pgxpool.
type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// txRepository implements TxRepository.
type txRepository struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a repeatable-read transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const requestColumns = `id, request_number, lsr_id, status, route, priority, notes,
       expected_delivery_date, created_at, submitted_at, decided_at,
       decision_reason, approver_id`

func scanRequest(row pgx.Row) (*LoadRequest, error) {
	var req LoadRequest
	var status, priority string
	err := row.Scan(
		&req.ID, &req.RequestNumber, &req.LSRID, &status, &req.Route, &priority,
		&req.Notes, &req.ExpectedDeliveryDate, &req.CreatedAt, &req.SubmittedAt,
		&req.DecidedAt, &req.DecisionReason, &req.ApproverID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	req.Status = Status(status)
	req.Priority = Priority(priority)
	return &req, nil
}

// Get retrieves a load request by id with both line collections attached.
func (r *repository) Get(ctx context.Context, id uuid.UUID) (*LoadRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM load_requests WHERE id = $1`
	req, err := scanRequest(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if req.CommercialProducts, err = r.commercialLines(ctx, id); err != nil {
		return nil, fmt.Errorf("load commercial lines: %w", err)
	}
	if req.PosmItems, err = r.posmLines(ctx, id); err != nil {
		return nil, fmt.Errorf("load posm lines: %w", err)
	}
	return req, nil
}

func (r *repository) commercialLines(ctx context.Context, id uuid.UUID) ([]CommercialLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT sku, name, uom, qty, unit_price, total_value
FROM load_request_commercial_lines WHERE request_id = $1 ORDER BY line_order`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []CommercialLine
	for rows.Next() {
		var l CommercialLine
		if err := rows.Scan(&l.SKU, &l.Name, &l.UOM, &l.Qty, &l.UnitPrice, &l.TotalValue); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) posmLines(ctx context.Context, id uuid.UUID) ([]PosmLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT code, description, qty
FROM load_request_posm_lines WHERE request_id = $1 ORDER BY line_order`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []PosmLine
	for rows.Next() {
		var l PosmLine
		if err := rows.Scan(&l.Code, &l.Description, &l.Qty); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// List returns requests matching the filter plus the unpaginated total.
func (r *repository) List(ctx context.Context, filter ListFilter) ([]LoadRequest, int, error) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.LSRID != nil {
		conds = append(conds, "lsr_id = "+arg(*filter.LSRID))
	}
	if filter.Status != nil {
		conds = append(conds, "status = "+arg(string(*filter.Status)))
	}
	if filter.Priority != nil {
		conds = append(conds, "priority = "+arg(string(*filter.Priority)))
	}
	if filter.Search != nil && *filter.Search != "" {
		pattern := "%" + *filter.Search + "%"
		conds = append(conds, "(request_number ILIKE "+arg(pattern)+" OR route ILIKE "+arg(pattern)+")")
	}
	if filter.DateFrom != nil {
		conds = append(conds, "created_at >= "+arg(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		conds = append(conds, "created_at <= "+arg(*filter.DateTo))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM load_requests"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + requestColumns + " FROM load_requests" + where + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []LoadRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range out {
		if out[i].CommercialProducts, err = r.commercialLines(ctx, out[i].ID); err != nil {
			return nil, 0, err
		}
		if out[i].PosmItems, err = r.posmLines(ctx, out[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

// GenerateNumber allocates the next sequential request number for the month
// of the given timestamp, e.g. LR-202608-0042. Numbers are never reused.
func (t *txRepository) GenerateNumber(ctx context.Context, at time.Time) (string, error) {
	period := at.Format("200601")
	var counter int
	err := t.tx.QueryRow(ctx, `INSERT INTO request_number_counters (period, counter)
VALUES ($1, 1)
ON CONFLICT (period) DO UPDATE SET counter = request_number_counters.counter + 1
RETURNING counter`, period).Scan(&counter)
	if err != nil {
		return "", fmt.Errorf("next request number: %w", err)
	}
	return fmt.Sprintf("LR-%s-%04d", period, counter), nil
}

// Insert persists a new request with its lines.
func (t *txRepository) Insert(ctx context.Context, req LoadRequest) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO load_requests
(id, request_number, lsr_id, status, route, priority, notes, expected_delivery_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		req.ID, req.RequestNumber, req.LSRID, string(req.Status), req.Route,
		string(req.Priority), req.Notes, req.ExpectedDeliveryDate, req.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("request number %s already taken: %w", req.RequestNumber, err)
		}
		return err
	}
	return t.insertLines(ctx, req.ID, req.CommercialProducts, req.PosmItems)
}

// UpdateFields applies a partial update to mutable metadata columns.
func (t *txRepository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	sets := make([]string, 0, len(updates))
	args := make([]interface{}, 0, len(updates)+1)
	for col, val := range updates {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE load_requests SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args))
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceLines swaps out both line collections.
func (t *txRepository) ReplaceLines(ctx context.Context, id uuid.UUID, commercial []CommercialLine, posm []PosmLine) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM load_request_commercial_lines WHERE request_id = $1`, id); err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx, `DELETE FROM load_request_posm_lines WHERE request_id = $1`, id); err != nil {
		return err
	}
	return t.insertLines(ctx, id, commercial, posm)
}

func (t *txRepository) insertLines(ctx context.Context, id uuid.UUID, commercial []CommercialLine, posm []PosmLine) error {
	for i, l := range commercial {
		_, err := t.tx.Exec(ctx, `INSERT INTO load_request_commercial_lines
(request_id, line_order, sku, name, uom, qty, unit_price, total_value)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			id, i+1, l.SKU, l.Name, l.UOM, l.Qty, l.UnitPrice, l.TotalValue)
		if err != nil {
			return fmt.Errorf("insert commercial line %d: %w", i+1, err)
		}
	}
	for i, l := range posm {
		_, err := t.tx.Exec(ctx, `INSERT INTO load_request_posm_lines
(request_id, line_order, code, description, qty)
VALUES ($1, $2, $3, $4, $5)`,
			id, i+1, l.Code, l.Description, l.Qty)
		if err != nil {
			return fmt.Errorf("insert posm line %d: %w", i+1, err)
		}
	}
	return nil
}

// UpdateStatus transitions status only when the row is still in the expected
// source status.
func (t *txRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, updates map[string]interface{}) (bool, error) {
	sets := []string{"status = $1"}
	args := []interface{}{string(to)}
	for col, val := range updates {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	args = append(args, id, string(from))
	query := fmt.Sprintf("UPDATE load_requests SET %s WHERE id = $%d AND status = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args))
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
