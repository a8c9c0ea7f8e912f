package model

import "time"

// Priority classifies task urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// TaskStatus represents the lifecycle state of a generated task. The engine
// only ever writes PENDING; later transitions happen elsewhere.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// TaskType identifies what kind of follow-up a generated task represents.
type TaskType string

const (
	TaskTypeLeadFollowUp      TaskType = "lead_follow_up"
	TaskTypeQuotationApproval TaskType = "quotation_approval"
	TaskTypeQuotationFollowUp TaskType = "quotation_follow_up"
	TaskTypePaymentFollowUp   TaskType = "payment_follow_up"
)

// GeneratedTask is the engine's output artifact: one follow-up task built by
// a business rule, persisted once with status PENDING.
type GeneratedTask struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	TaskType             TaskType  `json:"task_type"`
	Priority             Priority  `json:"priority"`
	AssignedToEmployeeID int       `json:"assigned_to_employee_id,omitempty"`
	AssignedToName       string    `json:"assigned_to_name,omitempty"`
	LeadID               int       `json:"lead_id"`
	QuotationID          int       `json:"quotation_id,omitempty"`
	ClientName           string    `json:"client_name"`
	DueDate              time.Time `json:"due_date"`
	EstimatedValue       float64   `json:"estimated_value"`
	SLAHours             int       `json:"sla_hours"`
	AIReasoning          string    `json:"ai_reasoning"`
	BusinessImpact       string    `json:"business_impact"`
	DepartmentAssigned   string    `json:"department_assigned,omitempty"`
	DesignationAssigned  string    `json:"designation_assigned,omitempty"`
}

// TaskMetadata is the structured side-record stored in the task row's JSON
// metadata column. SchemaVersion makes the blob forward compatible.
type TaskMetadata struct {
	SchemaVersion       int       `json:"schema_version"`
	TaskNumber          string    `json:"task_number"`
	RuleID              string    `json:"rule_id"`
	RuleName            string    `json:"rule_name"`
	TaskType            TaskType  `json:"task_type"`
	ClientName          string    `json:"client_name"`
	DepartmentAssigned  string    `json:"department_assigned,omitempty"`
	DesignationAssigned string    `json:"designation_assigned,omitempty"`
	EstimatedValue      float64   `json:"estimated_value"`
	SLAHours            int       `json:"sla_hours"`
	TriggeredBy         string    `json:"triggered_by,omitempty"`
	GeneratedAt         time.Time `json:"generated_at"`
}

// TaskMetadataSchemaVersion is the current TaskMetadata layout version.
const TaskMetadataSchemaVersion = 1

// GenerationResult is the structured outcome of processing one lead event.
// It is always populated; the engine never raises past its own boundary.
type GenerationResult struct {
	Success          bool            `json:"success"`
	TasksGenerated   int             `json:"tasks_generated"`
	Tasks            []GeneratedTask `json:"tasks"`
	BusinessInsights []string        `json:"business_insights"`
	Error            string          `json:"error,omitempty"`
}

// AuditEntry records one task-generation attempt, success or failure.
type AuditEntry struct {
	LeadID          int            `json:"lead_id"`
	QuotationID     int            `json:"quotation_id,omitempty"`
	RuleTriggered   string         `json:"rule_triggered"`
	TaskID          string         `json:"task_id,omitempty"`
	Success         bool           `json:"success"`
	ErrorMessage    string         `json:"error_message,omitempty"`
	TriggeredBy     string         `json:"triggered_by"`
	TriggeredByUUID string         `json:"triggered_by_uuid,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}
