package agent

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
)

// Service coordinates agent registry business logic and orchestrates repository calls.
type Service struct {
	repo             agentRepository
	operationTimeout time.Duration
	newID            func() string
}

// NewService creates and configures an agent registry Service.
func NewService(r agentRepository, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{
		repo:             r,
		operationTimeout: timeout,
		newID:            uuid.NewString,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// validateCreate validates an agent for creation. Every violated field is
// collected so the caller sees the full list, not just the first failure.
func validateCreate(a *domain.Agent) error {
	if a == nil {
		return apperr.ErrInvalid
	}
	var fields []string
	if strings.TrimSpace(a.Name) == "" {
		fields = append(fields, "name")
	}
	if !domain.ValidateEmail(a.Email) {
		fields = append(fields, "email")
	}
	if !domain.ValidatePhone(a.Phone) {
		fields = append(fields, "phoneNumber")
	}
	if strings.TrimSpace(a.Location) == "" {
		fields = append(fields, "location")
	}
	if a.Status == "" {
		a.Status = domain.AgentActive
	}
	if !a.Status.Valid() {
		fields = append(fields, "status")
	}
	if a.Capacity != nil && *a.Capacity <= 0 {
		fields = append(fields, "capacity")
	}
	return apperr.Validation(fields...)
}

func validateUpdate(u *domain.PartialAgentUpdate) error {
	if strings.TrimSpace(u.AgentID) == "" {
		return apperr.ErrInvalid
	}
	if u.Name == nil && u.Email == nil && u.Phone == nil &&
		u.Location == nil && u.Status == nil && u.Capacity == nil && u.Rating == nil {
		return apperr.ErrInvalid
	}
	var fields []string
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		fields = append(fields, "name")
	}
	if u.Email != nil && !domain.ValidateEmail(*u.Email) {
		fields = append(fields, "email")
	}
	if u.Phone != nil && !domain.ValidatePhone(*u.Phone) {
		fields = append(fields, "phoneNumber")
	}
	if u.Location != nil && strings.TrimSpace(*u.Location) == "" {
		fields = append(fields, "location")
	}
	if u.Status != nil && !u.Status.Valid() {
		fields = append(fields, "status")
	}
	if u.Capacity != nil && *u.Capacity <= 0 {
		fields = append(fields, "capacity")
	}
	if u.Rating != nil && (*u.Rating < 0 || *u.Rating > 5) {
		fields = append(fields, "rating")
	}
	return apperr.Validation(fields...)
}

// Get retrieves an agent by its ID.
func (s *Service) Get(ctx context.Context, agentID string) (*domain.Agent, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	a, err := s.repo.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.ErrNotFound
	}
	return a, nil
}

// List returns agents matching the optional status/location filters.
func (s *Service) List(ctx context.Context, f domain.AgentFilter) ([]domain.Agent, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.ErrInvalid
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.List(ctx, f)
}

// Create persists a new agent and returns its generated agent ID.
func (s *Service) Create(ctx context.Context, a *domain.Agent) (string, error) {
	if err := validateCreate(a); err != nil {
		return "", err
	}
	a.AgentID = s.newID()
	a.CurrentLoad = 0

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.repo.Create(ctx, a); err != nil {
		return "", err
	}
	return a.AgentID, nil
}

// UpdatePartial applies a partial update to an agent.
func (s *Service) UpdatePartial(ctx context.Context, u domain.PartialAgentUpdate) (*domain.Agent, error) {
	if err := validateUpdate(&u); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ok, err := s.repo.UpdatePartial(ctx, u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return s.repo.Get(ctx, u.AgentID)
}

// Delete removes an agent. Agents with active assignments are refused.
func (s *Service) Delete(ctx context.Context, agentID string) error {
	if strings.TrimSpace(agentID) == "" {
		return apperr.ErrInvalid
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.Delete(ctx, agentID)
}
