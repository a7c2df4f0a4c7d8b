package handlers

import "service-dispatch/internal/domain"

func (req createAgentRequest) toModel() *domain.Agent {
	return &domain.Agent{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Location: req.Location,
		Status:   req.Status,
		Capacity: req.Capacity,
	}
}

func (req updateAgentRequest) toModel(agentID string) domain.PartialAgentUpdate {
	return domain.PartialAgentUpdate{
		AgentID:  agentID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Location: req.Location,
		Status:   req.Status,
		Capacity: req.Capacity,
		Rating:   req.Rating,
	}
}

func agentToResponse(a domain.Agent) agentDTO {
	return agentDTO{
		AgentID:             a.AgentID,
		Name:                a.Name,
		Email:               a.Email,
		Phone:               a.Phone,
		Location:            a.Location,
		Status:              a.Status,
		Capacity:            a.Capacity,
		CurrentLoad:         a.CurrentLoad,
		Rating:              a.Rating,
		CompletedDeliveries: a.CompletedDeliveries,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

func agentsToResponse(list []domain.Agent) []agentDTO {
	out := make([]agentDTO, 0, len(list))
	for _, a := range list {
		out = append(out, agentToResponse(a))
	}
	return out
}
