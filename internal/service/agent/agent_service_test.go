package agent_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/service/agent"
)

type stubAgentRepo struct {
	getFn    func(ctx context.Context, agentID string) (*domain.Agent, error)
	listFn   func(ctx context.Context, f domain.AgentFilter) ([]domain.Agent, error)
	createFn func(ctx context.Context, a *domain.Agent) error
	updateFn func(ctx context.Context, u domain.PartialAgentUpdate) (bool, error)
	deleteFn func(ctx context.Context, agentID string) error
}

func (s *stubAgentRepo) Get(ctx context.Context, agentID string) (*domain.Agent, error) {
	if s.getFn == nil {
		return nil, nil
	}
	return s.getFn(ctx, agentID)
}

func (s *stubAgentRepo) List(ctx context.Context, f domain.AgentFilter) ([]domain.Agent, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, f)
}

func (s *stubAgentRepo) Create(ctx context.Context, a *domain.Agent) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, a)
}

func (s *stubAgentRepo) UpdatePartial(ctx context.Context, u domain.PartialAgentUpdate) (bool, error) {
	if s.updateFn == nil {
		return false, nil
	}
	return s.updateFn(ctx, u)
}

func (s *stubAgentRepo) Delete(ctx context.Context, agentID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, agentID)
}

func validAgent() *domain.Agent {
	return &domain.Agent{
		Name:     "Kasun",
		Email:    "kasun@example.com",
		Phone:    "+94771234567",
		Location: "Colombo",
	}
}

func TestService_Create_Success(t *testing.T) {
	t.Parallel()

	var created *domain.Agent
	repo := &stubAgentRepo{
		createFn: func(_ context.Context, a *domain.Agent) error {
			created = a
			return nil
		},
	}
	svc := agent.NewService(repo, 3*time.Second)

	in := validAgent()
	id, err := svc.Create(context.Background(), in)

	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.NotNil(t, created)
	require.Equal(t, id, created.AgentID)
	require.Equal(t, domain.AgentActive, created.Status, "status defaults to active")
	require.Equal(t, 0, created.CurrentLoad)
}

func TestService_Create_RepoConflict(t *testing.T) {
	t.Parallel()

	repo := &stubAgentRepo{
		createFn: func(context.Context, *domain.Agent) error {
			return apperr.ErrConflict
		},
	}
	svc := agent.NewService(repo, 3*time.Second)

	_, err := svc.Create(context.Background(), validAgent())
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestService_Get_NotFound(t *testing.T) {
	t.Parallel()

	svc := agent.NewService(&stubAgentRepo{}, 3*time.Second)

	_, err := svc.Get(context.Background(), "DA404")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_List_InvalidStatusFilter(t *testing.T) {
	t.Parallel()

	svc := agent.NewService(&stubAgentRepo{
		listFn: func(context.Context, domain.AgentFilter) ([]domain.Agent, error) {
			require.FailNow(t, "repo.List should not be called on invalid filter")
			return nil, nil
		},
	}, 3*time.Second)

	_, err := svc.List(context.Background(), domain.AgentFilter{Status: "sleeping"})
	require.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestService_UpdatePartial_NotFound(t *testing.T) {
	t.Parallel()

	name := "Nimal"
	repo := &stubAgentRepo{
		updateFn: func(context.Context, domain.PartialAgentUpdate) (bool, error) {
			return false, nil
		},
	}
	svc := agent.NewService(repo, 3*time.Second)

	_, err := svc.UpdatePartial(context.Background(), domain.PartialAgentUpdate{
		AgentID: "DA404",
		Name:    &name,
	})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_UpdatePartial_ReturnsFreshRecord(t *testing.T) {
	t.Parallel()

	name := "Nimal"
	want := &domain.Agent{AgentID: "DA01", Name: "Nimal"}
	repo := &stubAgentRepo{
		updateFn: func(_ context.Context, u domain.PartialAgentUpdate) (bool, error) {
			require.Equal(t, "DA01", u.AgentID)
			return true, nil
		},
		getFn: func(_ context.Context, agentID string) (*domain.Agent, error) {
			require.Equal(t, "DA01", agentID)
			return want, nil
		},
	}
	svc := agent.NewService(repo, 3*time.Second)

	got, err := svc.UpdatePartial(context.Background(), domain.PartialAgentUpdate{
		AgentID: "DA01",
		Name:    &name,
	})
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestService_Delete_ConflictPassthrough(t *testing.T) {
	t.Parallel()

	repo := &stubAgentRepo{
		deleteFn: func(_ context.Context, agentID string) error {
			require.Equal(t, "DA01", agentID)
			return apperr.ErrConflict
		},
	}
	svc := agent.NewService(repo, 3*time.Second)

	err := svc.Delete(context.Background(), "DA01")
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestService_Delete_EmptyID(t *testing.T) {
	t.Parallel()

	svc := agent.NewService(&stubAgentRepo{
		deleteFn: func(context.Context, string) error {
			return errors.New("should not be called")
		},
	}, 3*time.Second)

	require.ErrorIs(t, svc.Delete(context.Background(), "  "), apperr.ErrInvalid)
}
