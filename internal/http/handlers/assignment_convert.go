package handlers

import (
	"service-dispatch/internal/domain"
	"service-dispatch/internal/service/dispatch"
)

func (req createAssignmentRequest) toParams(actor string) dispatch.AssignParams {
	return dispatch.AssignParams{
		OrderID:  req.OrderID,
		AgentID:  req.AgentID,
		Priority: req.Priority,
		Notes:    req.Notes,
		Actor:    actor,
	}
}

func (req updateAssignmentRequest) toPatch(actor string) domain.AssignmentPatch {
	return domain.AssignmentPatch{
		Status:   req.Status,
		Priority: req.Priority,
		Notes:    req.Notes,
		AgentID:  req.AgentID,
		Actor:    actor,
	}
}

func (req bulkUpdateRequest) toPatch(actor string) domain.AssignmentPatch {
	return domain.AssignmentPatch{
		Status:   req.Status,
		Priority: req.Priority,
		Notes:    req.Notes,
		AgentID:  req.AgentID,
		Actor:    actor,
	}
}

func assignmentToResponse(a domain.Assignment) assignmentDTO {
	history := make([]statusChangeDTO, 0, len(a.History))
	for _, ch := range a.History {
		history = append(history, statusChangeDTO{
			Status:    ch.Status,
			Actor:     ch.Actor,
			Note:      ch.Note,
			ChangedAt: ch.ChangedAt,
		})
	}
	return assignmentDTO{
		OrderID:     a.OrderID,
		AgentID:     a.AgentID,
		Status:      a.Status,
		Priority:    a.Priority,
		Notes:       a.Notes,
		AssignedAt:  a.AssignedAt,
		CompletedAt: a.CompletedAt,
		History:     history,
	}
}

func assignmentsToResponse(list []domain.Assignment) []assignmentDTO {
	out := make([]assignmentDTO, 0, len(list))
	for _, a := range list {
		out = append(out, assignmentToResponse(a))
	}
	return out
}

func bulkResultsToResponse(results []dispatch.BulkResult) []bulkResultDTO {
	out := make([]bulkResultDTO, 0, len(results))
	for _, res := range results {
		dto := bulkResultDTO{OrderID: res.OrderID}
		if res.Assignment != nil {
			converted := assignmentToResponse(*res.Assignment)
			dto.Assignment = &converted
		}
		if res.Err != nil {
			dto.Error = res.Err.Error()
		}
		out = append(out, dto)
	}
	return out
}

func orderToResponse(o domain.Order) orderDTO {
	items := make([]orderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemDTO{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	return orderDTO{
		OrderID:         o.OrderID,
		CustomerName:    o.CustomerName,
		CustomerAddress: o.CustomerAddress,
		CustomerPhone:   o.CustomerPhone,
		TotalAmount:     o.TotalAmount,
		Items:           items,
		DeliveryStatus:  o.DeliveryStatus,
		CreatedAt:       o.CreatedAt,
	}
}

func ordersToResponse(list []domain.Order) []orderDTO {
	out := make([]orderDTO, 0, len(list))
	for _, o := range list {
		out = append(out, orderToResponse(o))
	}
	return out
}
