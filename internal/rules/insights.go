package rules

import (
	"fmt"

	"github.com/sells-group/crm-tasks/internal/model"
)

// BusinessInsights derives free-text observations from a processed event and
// its accumulated result, for surfacing on dashboards and hook responses.
func BusinessInsights(result model.GenerationResult, event model.LeadEvent, cfg Config) []string {
	var insights []string
	lead := event.Lead

	if result.TasksGenerated > 0 {
		insights = append(insights, fmt.Sprintf("Generated %d automated tasks for %s", result.TasksGenerated, lead.ClientName))
	}

	if lead.EstimatedValue >= cfg.HighValueThreshold {
		insights = append(insights, fmt.Sprintf("High-value lead (%s) - executive attention assigned", inr(lead.EstimatedValue)))
	}

	switch event.EventType {
	case model.EventLeadAssigned:
		insights = append(insights, "Lead assignment trigger activated - 24-hour SLA for initial contact")
	case model.EventQuotationSent:
		insights = append(insights, "Quotation follow-up automation activated - progressive escalation enabled")
	}

	if result.TasksGenerated == 0 {
		insights = append(insights, "No new tasks generated - existing tasks may already cover this lead")
	}

	return insights
}
