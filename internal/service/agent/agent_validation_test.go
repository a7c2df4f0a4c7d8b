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

func newSvc(t *testing.T) *agent.Service {
	t.Helper()
	return agent.NewService(&stubAgentRepo{
		createFn: func(context.Context, *domain.Agent) error {
			require.FailNow(t, "repo.Create should not be called on invalid input")
			return nil
		},
		updateFn: func(context.Context, domain.PartialAgentUpdate) (bool, error) {
			require.FailNow(t, "repo.UpdatePartial should not be called on invalid input")
			return false, nil
		},
	}, 3*time.Second)
}

func TestCreate_ReportsEveryViolatedField(t *testing.T) {
	t.Parallel()

	svc := newSvc(t)

	_, err := svc.Create(context.Background(), &domain.Agent{
		Name:     "  ",
		Email:    "not-an-email",
		Phone:    "12ab",
		Location: "",
	})
	require.ErrorIs(t, err, apperr.ErrInvalid)

	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	require.ElementsMatch(t, []string{"name", "email", "phoneNumber", "location"}, verr.Fields)
}

func TestCreate_RejectsNonPositiveCapacity(t *testing.T) {
	t.Parallel()

	svc := newSvc(t)

	a := validAgent()
	zero := 0
	a.Capacity = &zero

	_, err := svc.Create(context.Background(), a)
	require.ErrorIs(t, err, apperr.ErrInvalid)

	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, []string{"capacity"}, verr.Fields)
}

func TestCreate_NilAgent(t *testing.T) {
	t.Parallel()

	svc := newSvc(t)

	_, err := svc.Create(context.Background(), nil)
	require.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestUpdate_RequiresAtLeastOneField(t *testing.T) {
	t.Parallel()

	svc := newSvc(t)

	_, err := svc.UpdatePartial(context.Background(), domain.PartialAgentUpdate{AgentID: "DA01"})
	require.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestUpdate_ValidatesPresentFieldsOnly(t *testing.T) {
	t.Parallel()

	svc := newSvc(t)

	bad := "nope"
	status := domain.AgentStatus("sleeping")
	_, err := svc.UpdatePartial(context.Background(), domain.PartialAgentUpdate{
		AgentID: "DA01",
		Email:   &bad,
		Status:  &status,
	})
	require.ErrorIs(t, err, apperr.ErrInvalid)

	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	require.ElementsMatch(t, []string{"email", "status"}, verr.Fields)
}

func TestUpdate_RatingBounds(t *testing.T) {
	t.Parallel()

	svc := newSvc(t)

	rating := 5.5
	_, err := svc.UpdatePartial(context.Background(), domain.PartialAgentUpdate{
		AgentID: "DA01",
		Rating:  &rating,
	})
	require.ErrorIs(t, err, apperr.ErrInvalid)
}
