package store

import (
	"context"
	"time"

	"github.com/sells-group/crm-tasks/internal/model"
)

// LogFilter specifies criteria for listing task-generation audit entries.
type LogFilter struct {
	Since  time.Time `json:"since,omitempty"`
	LeadID int       `json:"lead_id,omitempty"`
	Limit  int       `json:"limit,omitempty"`
}

// LeadTaskStats aggregates generated-task state for a single lead.
type LeadTaskStats struct {
	LeadID         int     `json:"lead_id"`
	TotalTasks     int     `json:"total_tasks"`
	PendingTasks   int     `json:"pending_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	OverdueTasks   int     `json:"overdue_tasks"`
	TotalValue     float64 `json:"total_value"`
}

// Store defines the persistence interface for the lead-task engine.
type Store interface {
	// Employee directory
	ListActiveEmployees(ctx context.Context) ([]model.Employee, error)
	CountPendingTasks(ctx context.Context, employeeIDs []int) (map[int]int, error)

	// Generated tasks
	TaskExists(ctx context.Context, ruleID string, leadID, quotationID int) (bool, error)
	SaveTask(ctx context.Context, task *model.GeneratedTask, meta model.TaskMetadata) error
	ListTasksByLead(ctx context.Context, leadID int) ([]model.GeneratedTask, error)

	// Generation audit log
	LogTaskGeneration(ctx context.Context, entry model.AuditEntry) error
	ListGenerationLog(ctx context.Context, filter LogFilter) ([]model.AuditEntry, error)

	// Analytics
	LeadTaskStats(ctx context.Context, leadID int) (*LeadTaskStats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
