package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/ports/dispatchtx"
)

// Engine orchestrates the agent registry, the order pool and the assignment
// ledger. It is the only component allowed to mutate more than one entity,
// and every mutation runs as a single transaction serialized on the order row.
type Engine struct {
	repo             dispatchtx.Runner
	ledger           assignmentReader
	pool             orderPool
	notifier         deliveredNotifier
	assignments      *prometheus.CounterVec
	operationTimeout time.Duration
	poolPage         int
	logger           logx.Logger
	now              func() time.Time
}

// NewEngine creates a new dispatch Engine. notifier and assignments may be
// nil; both are optional side channels.
func NewEngine(
	repo dispatchtx.Runner,
	ledger assignmentReader,
	pool orderPool,
	notifier deliveredNotifier,
	assignments *prometheus.CounterVec,
	timeout time.Duration,
	logger logx.Logger,
) *Engine {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Engine{
		repo:             repo,
		ledger:           ledger,
		pool:             pool,
		notifier:         notifier,
		assignments:      assignments,
		operationTimeout: timeout,
		poolPage:         defaultPoolPage,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

const defaultPoolPage = 100

// WithPoolPageSize overrides the default page size of ListUnassigned.
func (e *Engine) WithPoolPageSize(n int) *Engine {
	if n > 0 {
		e.poolPage = n
	}
	return e
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.operationTimeout)
}

func (e *Engine) count(operation string, err error) {
	if e.assignments == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	e.assignments.WithLabelValues(operation, outcome).Inc()
}

// AssignParams carries the input of a manual assignment.
type AssignParams struct {
	OrderID  string
	AgentID  string
	Priority domain.Priority
	Notes    string
	Actor    string
}

func validateAssign(p *AssignParams) error {
	p.OrderID = strings.TrimSpace(p.OrderID)
	p.AgentID = strings.TrimSpace(p.AgentID)
	if p.OrderID == "" || p.AgentID == "" {
		return apperr.ErrInvalid
	}
	if p.Priority == "" {
		p.Priority = domain.PriorityNormal
	}
	if !p.Priority.Valid() {
		return apperr.ErrInvalid
	}
	return nil
}

// Assign creates an active assignment linking the order to the agent.
// The order must be unassigned, the agent active and under capacity.
func (e *Engine) Assign(ctx context.Context, p AssignParams) (asg *domain.Assignment, err error) {
	defer func() { e.count("assign", err) }()

	if err = validateAssign(&p); err != nil {
		return nil, err
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	err = e.repo.WithTx(ctx, func(tx dispatchtx.Repository) error {
		order, err := tx.GetOrderForUpdate(ctx, p.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("order %q: %w", p.OrderID, apperr.ErrNotFound)
		}
		if !order.Dispatchable() {
			return fmt.Errorf("order %q already assigned: %w", p.OrderID, apperr.ErrConflict)
		}

		agent, err := tx.GetAgentForUpdate(ctx, p.AgentID)
		if err != nil {
			return err
		}
		if agent == nil {
			return fmt.Errorf("agent %q: %w", p.AgentID, apperr.ErrNotFound)
		}
		if err := checkAgentAccepts(agent); err != nil {
			return err
		}

		// the unique index would catch this too; checking here keeps the
		// error deterministic instead of surfacing a duplicate-key failure
		if active, err := tx.GetActiveAssignment(ctx, p.OrderID); err != nil {
			return err
		} else if active != nil {
			return fmt.Errorf("order %q already assigned: %w", p.OrderID, apperr.ErrConflict)
		}

		now := e.now()
		asg = &domain.Assignment{
			OrderID:    p.OrderID,
			AgentID:    p.AgentID,
			Status:     domain.AssignmentAssigned,
			Priority:   p.Priority,
			Notes:      p.Notes,
			AssignedAt: now,
		}
		if err := tx.InsertAssignment(ctx, asg); err != nil {
			return err
		}
		first := domain.StatusChange{
			Status:    domain.AssignmentAssigned,
			Actor:     p.Actor,
			Note:      p.Notes,
			ChangedAt: now,
		}
		if err := tx.AppendEvent(ctx, asg.ID, first); err != nil {
			return err
		}
		asg.History = []domain.StatusChange{first}

		if err := tx.AdjustAgentLoad(ctx, p.AgentID, 1); err != nil {
			return err
		}
		return tx.SetOrderDeliveryStatus(ctx, p.OrderID, domain.DeliveryAssigned)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("assignment created",
		logx.String("event", "assignment_created"),
		logx.String("order_id", asg.OrderID),
		logx.String("agent_id", asg.AgentID),
		logx.String("priority", string(asg.Priority)),
	)
	return asg, nil
}

func checkAgentAccepts(a *domain.Agent) error {
	if a.Status != domain.AgentActive {
		return fmt.Errorf("agent %q is %s: %w", a.AgentID, a.Status, apperr.ErrPrecondition)
	}
	if a.Capacity != nil && a.CurrentLoad >= *a.Capacity {
		return fmt.Errorf("agent %q at capacity %d: %w", a.AgentID, *a.Capacity, apperr.ErrCapacityExceeded)
	}
	return nil
}

func validatePatch(p *domain.AssignmentPatch) error {
	if p.Status == nil && p.Priority == nil && p.Notes == nil && p.AgentID == nil {
		return apperr.ErrInvalid
	}
	if p.Status != nil && !p.Status.Valid() {
		return apperr.ErrInvalid
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return apperr.ErrInvalid
	}
	if p.AgentID != nil && strings.TrimSpace(*p.AgentID) == "" {
		return apperr.ErrInvalid
	}
	return nil
}

// UpdateAssignment mutates the active assignment of an order: status moves
// through the state machine, reassignment swaps the agent atomically, and
// priority/notes are plain field updates.
func (e *Engine) UpdateAssignment(ctx context.Context, orderID string, patch domain.AssignmentPatch) (asg *domain.Assignment, err error) {
	defer func() { e.count("update", err) }()

	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, apperr.ErrInvalid
	}
	if err = validatePatch(&patch); err != nil {
		return nil, err
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	var completed bool

	err = e.repo.WithTx(ctx, func(tx dispatchtx.Repository) error {
		// order row lock is the serialization point for this orderId
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("order %q: %w", orderID, apperr.ErrNotFound)
		}

		active, err := tx.GetActiveAssignment(ctx, orderID)
		if err != nil {
			return err
		}
		if active == nil {
			return fmt.Errorf("order %q has no active assignment: %w", orderID, apperr.ErrNotFound)
		}

		if patch.AgentID != nil && *patch.AgentID != active.AgentID {
			active, err = e.reassign(ctx, tx, active, *patch.AgentID, patch.Actor)
			if err != nil {
				return err
			}
		}

		if patch.Priority != nil {
			active.Priority = *patch.Priority
		}
		if patch.Notes != nil {
			active.Notes = *patch.Notes
		}

		if patch.Status != nil && *patch.Status != active.Status {
			completed, err = e.transition(ctx, tx, active, *patch.Status, patch.Actor)
			if err != nil {
				return err
			}
		}

		if err := tx.UpdateAssignment(ctx, active); err != nil {
			return err
		}
		active.History, err = tx.AssignmentHistory(ctx, active.ID)
		if err != nil {
			return err
		}
		asg = active
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("assignment updated",
		logx.String("event", "assignment_updated"),
		logx.String("order_id", asg.OrderID),
		logx.String("agent_id", asg.AgentID),
		logx.String("status", string(asg.Status)),
	)

	if completed {
		e.notifyDelivered(asg.OrderID)
	}
	return asg, nil
}

// reassign terminates the current active assignment and creates a fresh one
// for the new agent, moving load between the two inside the same transaction.
func (e *Engine) reassign(ctx context.Context, tx dispatchtx.Repository, old *domain.Assignment, newAgentID, actor string) (*domain.Assignment, error) {
	newAgent, err := lockAgentPair(ctx, tx, old.AgentID, newAgentID)
	if err != nil {
		return nil, err
	}
	if newAgent == nil {
		return nil, fmt.Errorf("agent %q: %w", newAgentID, apperr.ErrNotFound)
	}
	if err := checkAgentAccepts(newAgent); err != nil {
		return nil, err
	}

	now := e.now()
	old.Status = domain.AssignmentCancelled
	old.CompletedAt = &now
	if err := tx.UpdateAssignment(ctx, old); err != nil {
		return nil, err
	}
	if err := tx.AppendEvent(ctx, old.ID, domain.StatusChange{
		Status:    domain.AssignmentCancelled,
		Actor:     actor,
		Note:      "reassigned",
		ChangedAt: now,
	}); err != nil {
		return nil, err
	}
	if err := tx.AdjustAgentLoad(ctx, old.AgentID, -1); err != nil {
		return nil, err
	}

	next := &domain.Assignment{
		OrderID:    old.OrderID,
		AgentID:    newAgentID,
		Status:     domain.AssignmentAssigned,
		Priority:   old.Priority,
		Notes:      old.Notes,
		AssignedAt: now,
	}
	if err := tx.InsertAssignment(ctx, next); err != nil {
		return nil, err
	}
	if err := tx.AppendEvent(ctx, next.ID, domain.StatusChange{
		Status:    domain.AssignmentAssigned,
		Actor:     actor,
		Note:      "reassigned from " + old.AgentID,
		ChangedAt: now,
	}); err != nil {
		return nil, err
	}
	if err := tx.AdjustAgentLoad(ctx, newAgentID, 1); err != nil {
		return nil, err
	}
	// the new assignment starts over from assigned, so an in_transit order
	// drops back to assigned as well
	if err := tx.SetOrderDeliveryStatus(ctx, old.OrderID, domain.DeliveryAssigned); err != nil {
		return nil, err
	}

	e.logger.Info("assignment reassigned",
		logx.String("event", "assignment_reassigned"),
		logx.String("order_id", old.OrderID),
		logx.String("from_agent_id", old.AgentID),
		logx.String("to_agent_id", newAgentID),
	)
	return next, nil
}

// lockAgentPair locks both agent rows in agent_id order so two concurrent
// reassigns touching the same pair cannot deadlock. Returns the new agent's
// record, or nil when it does not exist.
func lockAgentPair(ctx context.Context, tx dispatchtx.Repository, oldID, newID string) (*domain.Agent, error) {
	first, second := oldID, newID
	if second < first {
		first, second = second, first
	}
	var newAgent *domain.Agent
	for _, id := range []string{first, second} {
		a, err := tx.GetAgentForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if id == oldID {
			if a == nil {
				return nil, fmt.Errorf("agent %q vanished under active assignment: %w", id, apperr.ErrInvariant)
			}
			continue
		}
		newAgent = a
	}
	return newAgent, nil
}

// transition applies one edge of the assignment state machine and performs
// the side effects of entering a terminal state.
func (e *Engine) transition(ctx context.Context, tx dispatchtx.Repository, a *domain.Assignment, to domain.AssignmentStatus, actor string) (completed bool, err error) {
	if !domain.CanTransition(a.Status, to) {
		return false, fmt.Errorf("%s -> %s: %w", a.Status, to, apperr.ErrInvalidTransition)
	}

	now := e.now()
	a.Status = to
	if err := tx.AppendEvent(ctx, a.ID, domain.StatusChange{
		Status:    to,
		Actor:     actor,
		ChangedAt: now,
	}); err != nil {
		return false, err
	}

	if to == domain.AssignmentInProgress {
		return false, tx.SetOrderDeliveryStatus(ctx, a.OrderID, domain.DeliveryInTransit)
	}
	if !to.Terminal() {
		return false, nil
	}

	a.CompletedAt = &now
	if err := tx.AdjustAgentLoad(ctx, a.AgentID, -1); err != nil {
		return false, err
	}

	switch to {
	case domain.AssignmentCompleted:
		if err := tx.IncrementCompletedDeliveries(ctx, a.AgentID); err != nil {
			return false, err
		}
		// the order leaves the pool for good
		return true, tx.SetOrderDeliveryStatus(ctx, a.OrderID, domain.DeliveryDelivered)
	default: // failed or cancelled: the order returns to the pool
		return false, tx.SetOrderDeliveryStatus(ctx, a.OrderID, domain.DeliveryUnassigned)
	}
}

// notifyDelivered tells the checkout subsystem an order has been delivered.
// Best effort: the local transaction has already committed.
func (e *Engine) notifyDelivered(orderID string) {
	if e.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.operationTimeout)
	defer cancel()
	if err := e.notifier.SetDeliveryStatus(ctx, orderID, string(domain.DeliveryDelivered)); err != nil {
		e.logger.Error("checkout delivered notification failed",
			logx.String("order_id", orderID),
			logx.Err(err),
		)
	}
}

// Unassign cancels the active assignment of an order and returns the order to
// the dispatch pool.
func (e *Engine) Unassign(ctx context.Context, orderID, actor string) (*domain.Assignment, error) {
	st := domain.AssignmentCancelled
	return e.UpdateAssignment(ctx, orderID, domain.AssignmentPatch{Status: &st, Actor: actor})
}

// BulkResult is the per-order outcome of a bulk update.
type BulkResult struct {
	OrderID    string
	Assignment *domain.Assignment
	Err        error
}

// BulkUpdate applies the patch to every order independently. A failing order
// never aborts the batch; callers receive one result per id.
func (e *Engine) BulkUpdate(ctx context.Context, orderIDs []string, patch domain.AssignmentPatch) []BulkResult {
	out := make([]BulkResult, 0, len(orderIDs))
	for _, id := range orderIDs {
		asg, err := e.UpdateAssignment(ctx, id, patch)
		out = append(out, BulkResult{OrderID: id, Assignment: asg, Err: err})
	}
	return out
}

// GetActive returns the active assignment of an order.
func (e *Engine) GetActive(ctx context.Context, orderID string) (*domain.Assignment, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, apperr.ErrInvalid
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	a, err := e.ledger.GetActive(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.ErrNotFound
	}
	return a, nil
}

// ListAssignments returns ledger records matching the filter.
func (e *Engine) ListAssignments(ctx context.Context, f domain.AssignmentFilter) ([]domain.Assignment, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.ErrInvalid
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	return e.ledger.List(ctx, f)
}

// ListUnassigned returns a page of the dispatch pool, oldest order first.
func (e *Engine) ListUnassigned(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = e.poolPage
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	return e.pool.ListUnassigned(ctx, limit, offset)
}
