package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/crm-tasks/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is intended for
// local development and single-host deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS departments (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS employees (
	id            INTEGER PRIMARY KEY,
	first_name    TEXT,
	last_name     TEXT,
	name          TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'active',
	job_title     TEXT,
	designation   TEXT,
	department_id INTEGER REFERENCES departments(id)
);

CREATE INDEX IF NOT EXISTS idx_employees_status ON employees(status);

CREATE TABLE IF NOT EXISTS ai_tasks (
	id                      TEXT PRIMARY KEY,
	task_title              TEXT NOT NULL,
	task_description        TEXT NOT NULL,
	priority                TEXT NOT NULL,
	status                  TEXT NOT NULL DEFAULT 'PENDING',
	assigned_to             TEXT,
	assigned_to_employee_id INTEGER,
	assigned_by             TEXT NOT NULL DEFAULT 'system',
	lead_id                 INTEGER NOT NULL,
	quotation_id            INTEGER,
	due_date                DATETIME NOT NULL,
	category                TEXT NOT NULL DEFAULT 'AI_GENERATED',
	client_name             TEXT NOT NULL,
	business_impact         TEXT,
	ai_reasoning            TEXT,
	estimated_value         REAL NOT NULL DEFAULT 0,
	task_type               TEXT NOT NULL,
	metadata                TEXT NOT NULL DEFAULT '{}',
	created_at              DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_ai_tasks_lead_id ON ai_tasks(lead_id);
CREATE INDEX IF NOT EXISTS idx_ai_tasks_status ON ai_tasks(status);
CREATE INDEX IF NOT EXISTS idx_ai_tasks_assignee ON ai_tasks(assigned_to_employee_id);

CREATE TABLE IF NOT EXISTS task_generation_log (
	id                TEXT PRIMARY KEY,
	lead_id           INTEGER NOT NULL,
	quotation_id      INTEGER,
	rule_triggered    TEXT NOT NULL,
	task_id           TEXT,
	success           INTEGER NOT NULL,
	error_message     TEXT,
	triggered_by      TEXT NOT NULL DEFAULT 'system',
	triggered_by_uuid TEXT,
	metadata          TEXT NOT NULL DEFAULT '{}',
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_generation_log_lead_id ON task_generation_log(lead_id);
CREATE INDEX IF NOT EXISTS idx_generation_log_created_at ON task_generation_log(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListActiveEmployees(ctx context.Context) ([]model.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, COALESCE(e.first_name, ''), COALESCE(e.last_name, ''), e.name,
		        COALESCE(e.job_title, ''), COALESCE(e.designation, ''), COALESCE(d.name, '')
		 FROM employees e
		 LEFT JOIN departments d ON d.id = e.department_id
		 WHERE e.status = 'active'
		 ORDER BY e.id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list active employees")
	}
	defer rows.Close()

	var employees []model.Employee
	for rows.Next() {
		var e model.Employee
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Name, &e.JobTitle, &e.Designation, &e.Department); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan employee")
		}
		e.Active = true
		employees = append(employees, e)
	}
	return employees, eris.Wrap(rows.Err(), "sqlite: list active employees iterate")
}

func (s *SQLiteStore) CountPendingTasks(ctx context.Context, employeeIDs []int) (map[int]int, error) {
	counts := make(map[int]int, len(employeeIDs))
	if len(employeeIDs) == 0 {
		return counts, nil
	}

	placeholders := make([]string, len(employeeIDs))
	args := make([]any, len(employeeIDs))
	for i, id := range employeeIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(
		`SELECT assigned_to_employee_id, COUNT(*)
		 FROM ai_tasks
		 WHERE status = 'PENDING' AND assigned_to_employee_id IN (%s)
		 GROUP BY assigned_to_employee_id`,
		strings.Join(placeholders, ", "),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count pending tasks")
	}
	defer rows.Close()

	for rows.Next() {
		var id, n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pending count")
		}
		counts[id] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: count pending tasks iterate")
}

func (s *SQLiteStore) TaskExists(ctx context.Context, ruleID string, leadID, quotationID int) (bool, error) {
	var one int
	var err error
	if quotationID > 0 {
		err = s.db.QueryRowContext(ctx,
			`SELECT 1 FROM ai_tasks WHERE lead_id = ? AND json_extract(metadata, '$.rule_id') = ? AND quotation_id = ? LIMIT 1`,
			leadID, ruleID, quotationID,
		).Scan(&one)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT 1 FROM ai_tasks WHERE lead_id = ? AND json_extract(metadata, '$.rule_id') = ? LIMIT 1`,
			leadID, ruleID,
		).Scan(&one)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, eris.Wrapf(err, "sqlite: task exists %s lead %d", ruleID, leadID)
	}
	return true, nil
}

func (s *SQLiteStore) SaveTask(ctx context.Context, task *model.GeneratedTask, meta model.TaskMetadata) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal task metadata")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ai_tasks
		 (id, task_title, task_description, priority, status, assigned_to, assigned_to_employee_id, assigned_by,
		  lead_id, quotation_id, due_date, category, client_name, business_impact, ai_reasoning,
		  estimated_value, task_type, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Title, task.Description, string(task.Priority), string(model.TaskStatusPending),
		nullableStr(task.AssignedToName), nullableInt(task.AssignedToEmployeeID), "system",
		task.LeadID, nullableInt(task.QuotationID), task.DueDate.UTC(), "AI_GENERATED",
		task.ClientName, task.BusinessImpact, task.AIReasoning,
		task.EstimatedValue, string(task.TaskType), string(metaJSON), meta.GeneratedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert task for lead %d", task.LeadID)
}

func (s *SQLiteStore) ListTasksByLead(ctx context.Context, leadID int) ([]model.GeneratedTask, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_title, task_description, priority, COALESCE(assigned_to, ''),
		        COALESCE(assigned_to_employee_id, 0), lead_id, COALESCE(quotation_id, 0), due_date,
		        client_name, COALESCE(business_impact, ''), COALESCE(ai_reasoning, ''),
		        estimated_value, task_type, metadata
		 FROM ai_tasks WHERE lead_id = ? ORDER BY created_at`,
		leadID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list tasks for lead %d", leadID)
	}
	defer rows.Close()

	var tasks []model.GeneratedTask
	for rows.Next() {
		var t model.GeneratedTask
		var metaJSON string
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.AssignedToName,
			&t.AssignedToEmployeeID, &t.LeadID, &t.QuotationID, &t.DueDate,
			&t.ClientName, &t.BusinessImpact, &t.AIReasoning,
			&t.EstimatedValue, &t.TaskType, &metaJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan task")
		}
		var meta model.TaskMetadata
		if metaJSON != "" {
			if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal task metadata")
			}
			t.SLAHours = meta.SLAHours
			t.DepartmentAssigned = meta.DepartmentAssigned
			t.DesignationAssigned = meta.DesignationAssigned
		}
		tasks = append(tasks, t)
	}
	return tasks, eris.Wrap(rows.Err(), "sqlite: list tasks iterate")
}

func (s *SQLiteStore) LogTaskGeneration(ctx context.Context, entry model.AuditEntry) error {
	metaJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal audit metadata")
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO task_generation_log
		 (id, lead_id, quotation_id, rule_triggered, task_id, success, error_message,
		  triggered_by, triggered_by_uuid, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), entry.LeadID, nullableInt(entry.QuotationID), entry.RuleTriggered,
		nullableStr(entry.TaskID), entry.Success, nullableStr(entry.ErrorMessage),
		entry.TriggeredBy, nullableStr(entry.TriggeredByUUID), string(metaJSON), createdAt,
	)
	return eris.Wrapf(err, "sqlite: insert generation log for lead %d", entry.LeadID)
}

func (s *SQLiteStore) ListGenerationLog(ctx context.Context, filter LogFilter) ([]model.AuditEntry, error) {
	query := `SELECT lead_id, COALESCE(quotation_id, 0), rule_triggered, COALESCE(task_id, ''), success,
	                 COALESCE(error_message, ''), triggered_by, COALESCE(triggered_by_uuid, ''), metadata, created_at
	          FROM task_generation_log WHERE 1=1`
	args := []any{}

	if !filter.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	if filter.LeadID > 0 {
		query += ` AND lead_id = ?`
		args = append(args, filter.LeadID)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list generation log")
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		var metaJSON string
		if err := rows.Scan(&e.LeadID, &e.QuotationID, &e.RuleTriggered, &e.TaskID, &e.Success,
			&e.ErrorMessage, &e.TriggeredBy, &e.TriggeredByUUID, &metaJSON, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan generation log entry")
		}
		if metaJSON != "" {
			if err := json.Unmarshal([]byte(metaJSON), &e.Metadata); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal audit metadata")
			}
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: list generation log iterate")
}

func (s *SQLiteStore) LeadTaskStats(ctx context.Context, leadID int) (*LeadTaskStats, error) {
	stats := &LeadTaskStats{LeadID: leadID}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN status = 'PENDING' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN status = 'COMPLETED' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN status = 'PENDING' AND due_date < ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(estimated_value), 0)
		 FROM ai_tasks WHERE lead_id = ?`,
		time.Now().UTC(), leadID,
	).Scan(&stats.TotalTasks, &stats.PendingTasks, &stats.CompletedTasks, &stats.OverdueTasks, &stats.TotalValue)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: lead task stats %d", leadID)
	}
	return stats, nil
}
