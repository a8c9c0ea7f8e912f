package engine

import (
	"context"

	"github.com/sells-group/crm-tasks/internal/model"
)

// The hook methods are thin adapters between CRM-side callbacks and the
// event pipeline. They build the canonical event and hand it to
// ProcessLeadEvent, so callers never assemble events by hand.

// OnLeadAssigned fires when a lead is assigned to an employee.
func (s *Service) OnLeadAssigned(ctx context.Context, lead model.LeadSnapshot, triggeredBy string) model.GenerationResult {
	return s.ProcessLeadEvent(ctx, model.LeadEvent{
		EventType:   model.EventLeadAssigned,
		LeadID:      lead.ID,
		Lead:        lead,
		TriggeredBy: triggeredBy,
	})
}

// OnLeadStatusChanged fires after a lead transitions between pipeline states.
func (s *Service) OnLeadStatusChanged(ctx context.Context, lead model.LeadSnapshot, previous model.LeadStatus, triggeredBy string) model.GenerationResult {
	return s.ProcessLeadEvent(ctx, model.LeadEvent{
		EventType:      model.EventLeadStatusChanged,
		LeadID:         lead.ID,
		Lead:           lead,
		PreviousStatus: previous,
		TriggeredBy:    triggeredBy,
	})
}

// OnQuotationCreated fires when a quotation is first drafted for a lead.
func (s *Service) OnQuotationCreated(ctx context.Context, lead model.LeadSnapshot, quotation model.QuotationSnapshot, triggeredBy string) model.GenerationResult {
	return s.quotationEvent(ctx, model.EventQuotationCreated, lead, quotation, triggeredBy)
}

// OnQuotationSent fires when a quotation goes out to the client.
func (s *Service) OnQuotationSent(ctx context.Context, lead model.LeadSnapshot, quotation model.QuotationSnapshot, triggeredBy string) model.GenerationResult {
	return s.quotationEvent(ctx, model.EventQuotationSent, lead, quotation, triggeredBy)
}

// OnQuotationApproved fires when the client approves a quotation.
func (s *Service) OnQuotationApproved(ctx context.Context, lead model.LeadSnapshot, quotation model.QuotationSnapshot, triggeredBy string) model.GenerationResult {
	return s.quotationEvent(ctx, model.EventQuotationApproved, lead, quotation, triggeredBy)
}

func (s *Service) quotationEvent(ctx context.Context, eventType model.EventType, lead model.LeadSnapshot, quotation model.QuotationSnapshot, triggeredBy string) model.GenerationResult {
	return s.ProcessLeadEvent(ctx, model.LeadEvent{
		EventType:   eventType,
		LeadID:      lead.ID,
		Lead:        lead,
		Quotation:   &quotation,
		TriggeredBy: triggeredBy,
	})
}
