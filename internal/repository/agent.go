package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
)

// AgentRepo represents delivery agent repository.
type AgentRepo struct{ db *pgxpool.Pool }

// NewAgentRepo creates a new AgentRepo.
func NewAgentRepo(db *pgxpool.Pool) *AgentRepo { return &AgentRepo{db: db} }

const agentColumns = `agent_id, name, email, phone, location, status, capacity,
       current_load, rating, completed_deliveries, created_at, updated_at`

func scanAgent(row interface{ Scan(...any) error }) (*domain.Agent, error) {
	var a domain.Agent
	err := row.Scan(&a.AgentID, &a.Name, &a.Email, &a.Phone, &a.Location,
		&a.Status, &a.Capacity, &a.CurrentLoad, &a.Rating,
		&a.CompletedDeliveries, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Get - returns agent by its external agent ID.
func (r *AgentRepo) Get(ctx context.Context, agentID string) (*domain.Agent, error) {
	a, err := scanAgent(r.db.QueryRow(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE agent_id=$1`, agentID))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get agent %q: %w", agentID, err)
	}
	return a, nil
}

// List returns agents matching the filter, ordered by agent_id.
func (r *AgentRepo) List(ctx context.Context, f domain.AgentFilter) ([]domain.Agent, error) {
	q := `SELECT ` + agentColumns + ` FROM agents`
	args := make([]any, 0, 2)
	where := ""
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = fmt.Sprintf(" WHERE status = $%d", len(args))
	}
	if f.Location != "" {
		args = append(args, f.Location)
		if where == "" {
			where = fmt.Sprintf(" WHERE location = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND location = $%d", len(args))
		}
	}
	q += where + ` ORDER BY agent_id`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Agent, 0)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Create - creates a new agent.
func (r *AgentRepo) Create(ctx context.Context, a *domain.Agent) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO agents(agent_id, name, email, phone, location, status, capacity)
        VALUES($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at, updated_at
    `, a.AgentID, a.Name, a.Email, a.Phone, a.Location, string(a.Status), a.Capacity).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if IsDuplicate(err) {
			return apperr.ErrConflict
		}
		return fmt.Errorf("create agent: %w", err)
	}
	return nil
}

// UpdatePartial applies a partial update to an agent and returns true if a row
// was affected. The capacity guard in SQL refuses a new capacity below the
// agent's current load; the disambiguation query below tells that refusal
// apart from a missing agent.
func (r *AgentRepo) UpdatePartial(ctx context.Context, u domain.PartialAgentUpdate) (bool, error) {
	var status *string
	if u.Status != nil {
		s := string(*u.Status)
		status = &s
	}
	ct, err := r.db.Exec(ctx, `
        UPDATE agents
        SET
            name       = COALESCE($2, name),
            email      = COALESCE($3, email),
            phone      = COALESCE($4, phone),
            location   = COALESCE($5, location),
            status     = COALESCE($6, status),
            capacity   = COALESCE($7, capacity),
            rating     = COALESCE($8, rating),
            updated_at = now()
        WHERE agent_id = $1
          AND ($7::int IS NULL OR $7 >= current_load)
    `, u.AgentID, u.Name, u.Email, u.Phone, u.Location, status, u.Capacity, u.Rating)
	if err != nil {
		if IsDuplicate(err) {
			return false, apperr.ErrConflict
		}
		return false, fmt.Errorf("update agent %q: %w", u.AgentID, err)
	}
	if ct.RowsAffected() > 0 {
		return true, nil
	}
	if u.Capacity == nil {
		return false, nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM agents WHERE agent_id = $1)`, u.AgentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("update agent %q: %w", u.AgentID, err)
	}
	if exists {
		return false, fmt.Errorf("agent %q capacity %d below current load: %w",
			u.AgentID, *u.Capacity, apperr.ErrCapacityExceeded)
	}
	return false, nil
}

// Delete removes an agent. The load guard in SQL keeps agents with active
// assignments from being deleted; the caller distinguishes the outcomes.
func (r *AgentRepo) Delete(ctx context.Context, agentID string) error {
	ct, err := r.db.Exec(ctx,
		`DELETE FROM agents WHERE agent_id = $1 AND current_load = 0`, agentID)
	if err != nil {
		return fmt.Errorf("delete agent %q: %w", agentID, err)
	}
	if ct.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM agents WHERE agent_id = $1)`, agentID).Scan(&exists); err != nil {
		return fmt.Errorf("delete agent %q: %w", agentID, err)
	}
	if exists {
		return apperr.ErrConflict
	}
	return apperr.ErrNotFound
}
