package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/ports/dispatchtx"
)

// AssignmentRepo represents assignment ledger repository.
type AssignmentRepo struct {
	db *pgxpool.Pool
}

// NewAssignmentRepo creates a new AssignmentRepo.
func NewAssignmentRepo(db *pgxpool.Pool) *AssignmentRepo {
	return &AssignmentRepo{db: db}
}

// WithTx opens a transaction and executes fn within it.
func (r *AssignmentRepo) WithTx(ctx context.Context, fn func(tx dispatchtx.Repository) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	// roll back on panic before re-raising
	defer func() {
		if p := recover(); p != nil {
			err = tx.Rollback(ctx)
			if err != nil {
				panic(err)
			}
			panic(p)
		}
	}()

	wrapped := &TxRepo{tx: tx}

	if err := fn(wrapped); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

const assignmentColumns = `id, order_id, agent_id, status, priority, notes, assigned_at, completed_at`

func scanAssignment(row interface{ Scan(...any) error }) (*domain.Assignment, error) {
	var a domain.Assignment
	err := row.Scan(&a.ID, &a.OrderID, &a.AgentID, &a.Status, &a.Priority,
		&a.Notes, &a.AssignedAt, &a.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetActive returns the active assignment for an order with its status
// history, or nil when none exists. Read path, no row locks.
func (r *AssignmentRepo) GetActive(ctx context.Context, orderID string) (*domain.Assignment, error) {
	a, err := scanAssignment(r.db.QueryRow(ctx, `
        SELECT `+assignmentColumns+`
        FROM assignments
        WHERE order_id = $1 AND status IN ('assigned','in_progress')
    `, orderID))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active assignment for order %q: %w", orderID, err)
	}

	a.History, err = r.history(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AssignmentRepo) history(ctx context.Context, assignmentID int64) ([]domain.StatusChange, error) {
	return loadHistory(ctx, r.db, assignmentID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadHistory(ctx context.Context, q querier, assignmentID int64) ([]domain.StatusChange, error) {
	rows, err := q.Query(ctx, `
        SELECT status, actor, note, changed_at
        FROM assignment_events
        WHERE assignment_id = $1
        ORDER BY id
    `, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("load assignment %d history: %w", assignmentID, err)
	}
	defer rows.Close()

	var out []domain.StatusChange
	for rows.Next() {
		var ev domain.StatusChange
		if err := rows.Scan(&ev.Status, &ev.Actor, &ev.Note, &ev.ChangedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// List returns assignments matching the filter, newest first.
// History is not loaded on the list path.
func (r *AssignmentRepo) List(ctx context.Context, f domain.AssignmentFilter) ([]domain.Assignment, error) {
	q := `SELECT ` + assignmentColumns + ` FROM assignments`
	args := make([]any, 0, 6)
	where := ""

	and := func(cond string) {
		if where == "" {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
	}

	if f.Status != "" {
		args = append(args, string(f.Status))
		and(fmt.Sprintf("status = $%d", len(args)))
	}
	if f.AgentID != "" {
		args = append(args, f.AgentID)
		and(fmt.Sprintf("agent_id = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		and(fmt.Sprintf("assigned_at >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		and(fmt.Sprintf("assigned_at < $%d", len(args)))
	}

	q += where + ` ORDER BY assigned_at DESC, id DESC`
	if f.Limit != nil {
		args = append(args, *f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset != nil {
		args = append(args, *f.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// TxRepo represents transaction repository.
type TxRepo struct {
	tx pgx.Tx
}

// GetOrderForUpdate locks the order row for the duration of the transaction.
// This lock serializes all dispatch operations on one orderId.
func (r *TxRepo) GetOrderForUpdate(ctx context.Context, orderID string) (*domain.Order, error) {
	o, err := scanOrder(r.tx.QueryRow(ctx, `
        SELECT order_id, customer_name, customer_address, customer_phone,
               total_amount, items, delivery_status, created_at
        FROM orders
        WHERE order_id = $1
        FOR UPDATE
    `, orderID))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock order %q: %w", orderID, err)
	}
	return o, nil
}

// GetAgentForUpdate locks the agent row for the duration of the transaction.
func (r *TxRepo) GetAgentForUpdate(ctx context.Context, agentID string) (*domain.Agent, error) {
	a, err := scanAgent(r.tx.QueryRow(ctx, `
        SELECT `+agentColumns+`
        FROM agents
        WHERE agent_id = $1
        FOR UPDATE
    `, agentID))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock agent %q: %w", agentID, err)
	}
	return a, nil
}

// GetActiveAssignment - active assignment for an order within the transaction.
func (r *TxRepo) GetActiveAssignment(ctx context.Context, orderID string) (*domain.Assignment, error) {
	a, err := scanAssignment(r.tx.QueryRow(ctx, `
        SELECT `+assignmentColumns+`
        FROM assignments
        WHERE order_id = $1 AND status IN ('assigned','in_progress')
        FOR UPDATE
    `, orderID))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active assignment for order %q: %w", orderID, err)
	}
	return a, nil
}

// InsertAssignment - insert a new assignment and its first history entry.
// The partial unique index on active assignments backs the one-active-per-order
// invariant even if two transactions race past the engine checks.
func (r *TxRepo) InsertAssignment(ctx context.Context, a *domain.Assignment) error {
	err := r.tx.QueryRow(ctx, `
        INSERT INTO assignments(order_id, agent_id, status, priority, notes, assigned_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id
    `, a.OrderID, a.AgentID, string(a.Status), string(a.Priority), a.Notes, a.AssignedAt).Scan(&a.ID)
	if err != nil {
		if IsDuplicate(err) {
			return apperr.ErrConflict
		}
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

// UpdateAssignment persists status/priority/notes/completed_at of one record.
func (r *TxRepo) UpdateAssignment(ctx context.Context, a *domain.Assignment) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE assignments
        SET status = $2, priority = $3, notes = $4, completed_at = $5
        WHERE id = $1
    `, a.ID, string(a.Status), string(a.Priority), a.Notes, a.CompletedAt)
	if err != nil {
		return fmt.Errorf("update assignment %d: %w", a.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("assignment %d not found: %w", a.ID, apperr.ErrInvariant)
	}
	return nil
}

// AppendEvent - append an entry to the assignment's status history.
func (r *TxRepo) AppendEvent(ctx context.Context, assignmentID int64, ev domain.StatusChange) error {
	_, err := r.tx.Exec(ctx, `
        INSERT INTO assignment_events(assignment_id, status, actor, note, changed_at)
        VALUES ($1,$2,$3,$4,$5)
    `, assignmentID, string(ev.Status), ev.Actor, ev.Note, ev.ChangedAt)
	if err != nil {
		return fmt.Errorf("append assignment %d event: %w", assignmentID, err)
	}
	return nil
}

// AssignmentHistory - the assignment's status history within the transaction,
// including entries appended earlier in the same transaction.
func (r *TxRepo) AssignmentHistory(ctx context.Context, assignmentID int64) ([]domain.StatusChange, error) {
	return loadHistory(ctx, r.tx, assignmentID)
}

// AdjustAgentLoad moves current_load by delta. The WHERE clause refuses a
// result that would go negative, and for increments one that would exceed
// capacity. Decrements ignore capacity so an agent whose capacity was lowered
// can still drain. Zero affected rows is an invariant violation because the
// engine checks bounds before calling.
func (r *TxRepo) AdjustAgentLoad(ctx context.Context, agentID string, delta int) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE agents
        SET current_load = current_load + $2,
            updated_at   = now()
        WHERE agent_id = $1
          AND current_load + $2 >= 0
          AND ($2 <= 0 OR capacity IS NULL OR current_load + $2 <= capacity)
    `, agentID, delta)
	if err != nil {
		return fmt.Errorf("adjust agent %q load by %d: %w", agentID, delta, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("adjust agent %q load by %d: %w", agentID, delta, apperr.ErrInvariant)
	}
	return nil
}

// IncrementCompletedDeliveries - bump the agent's completed counter.
func (r *TxRepo) IncrementCompletedDeliveries(ctx context.Context, agentID string) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE agents
        SET completed_deliveries = completed_deliveries + 1,
            updated_at           = now()
        WHERE agent_id = $1
    `, agentID)
	if err != nil {
		return fmt.Errorf("increment agent %q completed deliveries: %w", agentID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("increment agent %q completed deliveries: %w", agentID, apperr.ErrInvariant)
	}
	return nil
}

// SetOrderDeliveryStatus - move the order's delivery status within the transaction.
func (r *TxRepo) SetOrderDeliveryStatus(ctx context.Context, orderID string, status domain.DeliveryStatus) error {
	ct, err := r.tx.Exec(ctx,
		`UPDATE orders SET delivery_status = $2 WHERE order_id = $1`,
		orderID, string(status))
	if err != nil {
		return fmt.Errorf("set order %q delivery status: %w", orderID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("set order %q delivery status: %w", orderID, apperr.ErrInvariant)
	}
	return nil
}
