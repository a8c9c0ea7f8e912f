// Package rules defines the business rules that turn lead lifecycle events
// into follow-up tasks, and the employee selection policy used to assign them.
package rules

import (
	"context"
	"time"

	"github.com/sells-group/crm-tasks/internal/model"
)

// Config holds the tunables for the rule set.
type Config struct {
	// HighValueThreshold is the estimated lead value (in rupees) at or above
	// which the escalation rule fires.
	HighValueThreshold float64 `yaml:"high_value_threshold" mapstructure:"high_value_threshold"`
	// DefaultEstimatedValue substitutes for leads with no estimate.
	DefaultEstimatedValue float64 `yaml:"default_estimated_value" mapstructure:"default_estimated_value"`
	// HighValueAssignee names the manager who receives high-value escalations.
	// When the name matches no active employee, selection falls back to the
	// Manager / Sales Head pick.
	HighValueAssignee string `yaml:"high_value_assignee" mapstructure:"high_value_assignee"`
}

// DefaultConfig returns the stock rule tunables.
func DefaultConfig() Config {
	return Config{
		HighValueThreshold:    100000,
		DefaultEstimatedValue: 30000,
		HighValueAssignee:     "Vikas Alagarsamy (SEO)",
	}
}

// AutoAssignPolicy bundles the optional assignment behavior of a rule.
type AutoAssignPolicy struct {
	HighValue         bool
	ExperienceLevel   string // junior, senior, expert
	WorkloadBalancing bool
	SpecificAssignee  string
}

// Env carries the per-event context a task generator needs: the employee
// directory snapshot, the workload counter, the event time, and tunables.
type Env struct {
	Employees []model.Employee
	Workload  WorkloadCounter
	Now       time.Time
	Config    Config
}

// TaskGenerator produces zero or one task for a triggered rule. Returning
// (nil, nil) is a valid no-op, e.g. for quotation rules without a quotation.
type TaskGenerator func(ctx context.Context, event model.LeadEvent, env Env) (*model.GeneratedTask, error)

// BusinessRule is a named, enabled/disabled policy evaluated for every event.
type BusinessRule struct {
	ID          string
	Name        string
	Description string
	Trigger     func(event model.LeadEvent) bool
	Generate    TaskGenerator
	Priority    model.Priority
	SLAHours    int
	Enabled     bool

	DepartmentPreferences  []string
	DesignationPreferences []string
	AutoAssign             *AutoAssignPolicy
}

// DefaultRules returns the static ordered rule list. All rules are evaluated
// for every event with no early exit; overlapping triggers co-fire.
func DefaultRules(cfg Config) []BusinessRule {
	return []BusinessRule{
		{
			ID:          "lead_assignment_initial_contact",
			Name:        "Initial Contact Task on Lead Assignment",
			Description: "Create immediate contact task when lead is assigned to team member",
			Trigger: func(event model.LeadEvent) bool {
				if event.EventType == model.EventLeadAssigned {
					return true
				}
				return event.EventType == model.EventLeadStatusChanged &&
					event.PreviousStatus == model.LeadStatusUnassigned &&
					event.Lead.Status == model.LeadStatusAssigned
			},
			Generate: generateInitialContactTask,
			Priority: model.PriorityMedium,
			SLAHours: 24,
			Enabled:  true,

			DepartmentPreferences:  []string{"SALES", "SEO"},
			DesignationPreferences: []string{"Sales Head", "Sales Resource", "SEO"},
			AutoAssign: &AutoAssignPolicy{
				WorkloadBalancing: true,
				ExperienceLevel:   "senior",
			},
		},
		{
			ID:          "lead_qualification_task",
			Name:        "Lead Qualification Task",
			Description: "Create qualification task when lead is contacted",
			Trigger: func(event model.LeadEvent) bool {
				return event.EventType == model.EventLeadStatusChanged &&
					event.Lead.Status == model.LeadStatusContacted
			},
			Generate: generateQualificationTask,
			Priority: model.PriorityMedium,
			SLAHours: 48,
			Enabled:  true,

			DepartmentPreferences:  []string{"SALES"},
			DesignationPreferences: []string{"Sales Head", "Senior Sales"},
			AutoAssign: &AutoAssignPolicy{
				ExperienceLevel: "senior",
			},
		},
		{
			ID:          "quotation_preparation_task",
			Name:        "Quotation Preparation Task",
			Description: "Create quotation preparation task for qualified leads",
			Trigger: func(event model.LeadEvent) bool {
				return event.EventType == model.EventLeadStatusChanged &&
					event.Lead.Status == model.LeadStatusQualified
			},
			Generate: generateQuotationPreparationTask,
			Priority: model.PriorityHigh,
			SLAHours: 48,
			Enabled:  true,

			DepartmentPreferences:  []string{"SALES"},
			DesignationPreferences: []string{"Sales Head"},
			AutoAssign: &AutoAssignPolicy{
				ExperienceLevel: "expert",
			},
		},
		{
			ID:          "high_value_lead_escalation",
			Name:        "High-Value Lead Escalation",
			Description: "Escalate high-value leads to management immediately",
			Trigger: func(event model.LeadEvent) bool {
				if event.Lead.EstimatedValue < cfg.HighValueThreshold {
					return false
				}
				if event.EventType != model.EventLeadAssigned && event.EventType != model.EventLeadStatusChanged {
					return false
				}
				return event.Lead.Status == model.LeadStatusAssigned
			},
			Generate: generateHighValueEscalationTask,
			Priority: model.PriorityUrgent,
			SLAHours: 12,
			Enabled:  true,

			DepartmentPreferences:  []string{"SALES"},
			DesignationPreferences: []string{"Manager", "Sales Head"},
			AutoAssign: &AutoAssignPolicy{
				HighValue:        true,
				SpecificAssignee: cfg.HighValueAssignee,
				ExperienceLevel:  "expert",
			},
		},
		{
			ID:          "quotation_followup_task",
			Name:        "Quotation Follow-up Task",
			Description: "Create follow-up task when quotation is sent",
			Trigger: func(event model.LeadEvent) bool {
				return event.EventType == model.EventQuotationSent
			},
			Generate: generateQuotationFollowupTask,
			Priority: model.PriorityHigh,
			SLAHours: 24,
			Enabled:  true,

			DepartmentPreferences:  []string{"SALES"},
			DesignationPreferences: []string{"Sales Resource", "Sales Head"},
			AutoAssign: &AutoAssignPolicy{
				WorkloadBalancing: true,
				ExperienceLevel:   "senior",
			},
		},
		{
			ID:          "payment_followup_task",
			Name:        "Payment Follow-up Task",
			Description: "Create payment follow-up task for approved quotations",
			Trigger: func(event model.LeadEvent) bool {
				return event.EventType == model.EventQuotationApproved
			},
			Generate: generatePaymentFollowupTask,
			Priority: model.PriorityHigh,
			SLAHours: 72,
			Enabled:  true,

			DepartmentPreferences:  []string{"SALES", "ACCOUNTS"},
			DesignationPreferences: []string{"Sales Head", "Accounts Manager"},
			AutoAssign: &AutoAssignPolicy{
				WorkloadBalancing: true,
				ExperienceLevel:   "senior",
			},
		},
	}
}
