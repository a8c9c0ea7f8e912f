package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/crm-tasks/internal/db"
	"github.com/sells-group/crm-tasks/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot path: every processed event runs the existence
// check once per rule and the directory fetch once.
var preparedStatements = map[string]string{
	"list_active_employees": `SELECT e.id, e.first_name, e.last_name, e.name, e.job_title, e.designation, COALESCE(d.name, '') FROM employees e LEFT JOIN departments d ON d.id = e.department_id WHERE e.status = 'active' ORDER BY e.id`,
	"task_exists":           `SELECT 1 FROM ai_tasks WHERE lead_id = $1 AND metadata->>'rule_id' = $2 LIMIT 1`,
	"task_exists_quotation": `SELECT 1 FROM ai_tasks WHERE lead_id = $1 AND metadata->>'rule_id' = $2 AND quotation_id = $3 LIMIT 1`,
	"insert_task":           `INSERT INTO ai_tasks (id, task_title, task_description, priority, status, assigned_to, assigned_to_employee_id, assigned_by, lead_id, quotation_id, due_date, category, client_name, business_impact, ai_reasoning, estimated_value, task_type, metadata, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
	"insert_generation_log": `INSERT INTO task_generation_log (id, lead_id, quotation_id, rule_triggered, task_id, success, error_message, triggered_by, triggered_by_uuid, metadata, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for use by subsystems that need
// direct query access (e.g., the employee bulk importer).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
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
	due_date                TIMESTAMPTZ NOT NULL,
	category                TEXT NOT NULL DEFAULT 'AI_GENERATED',
	client_name             TEXT NOT NULL,
	business_impact         TEXT,
	ai_reasoning            TEXT,
	estimated_value         DOUBLE PRECISION NOT NULL DEFAULT 0,
	task_type               TEXT NOT NULL,
	metadata                JSONB NOT NULL DEFAULT '{}',
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_ai_tasks_lead_id ON ai_tasks(lead_id);
CREATE INDEX IF NOT EXISTS idx_ai_tasks_status ON ai_tasks(status);
CREATE INDEX IF NOT EXISTS idx_ai_tasks_assignee ON ai_tasks(assigned_to_employee_id);
CREATE INDEX IF NOT EXISTS idx_ai_tasks_rule ON ai_tasks(lead_id, (metadata->>'rule_id'));

CREATE TABLE IF NOT EXISTS task_generation_log (
	id                TEXT PRIMARY KEY,
	lead_id           INTEGER NOT NULL,
	quotation_id      INTEGER,
	rule_triggered    TEXT NOT NULL,
	task_id           TEXT,
	success           BOOLEAN NOT NULL,
	error_message     TEXT,
	triggered_by      TEXT NOT NULL DEFAULT 'system',
	triggered_by_uuid TEXT,
	metadata          JSONB NOT NULL DEFAULT '{}',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_generation_log_lead_id ON task_generation_log(lead_id);
CREATE INDEX IF NOT EXISTS idx_generation_log_created_at ON task_generation_log(created_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ListActiveEmployees(ctx context.Context) ([]model.Employee, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT e.id, e.first_name, e.last_name, e.name, e.job_title, e.designation, COALESCE(d.name, '')
		 FROM employees e
		 LEFT JOIN departments d ON d.id = e.department_id
		 WHERE e.status = 'active'
		 ORDER BY e.id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list active employees")
	}
	defer rows.Close()

	var employees []model.Employee
	for rows.Next() {
		var e model.Employee
		var first, last, jobTitle, designation *string
		if err := rows.Scan(&e.ID, &first, &last, &e.Name, &jobTitle, &designation, &e.Department); err != nil {
			return nil, eris.Wrap(err, "postgres: scan employee")
		}
		if first != nil {
			e.FirstName = *first
		}
		if last != nil {
			e.LastName = *last
		}
		if jobTitle != nil {
			e.JobTitle = *jobTitle
		}
		if designation != nil {
			e.Designation = *designation
		}
		e.Active = true
		employees = append(employees, e)
	}
	return employees, eris.Wrap(rows.Err(), "postgres: list active employees iterate")
}

func (s *PostgresStore) CountPendingTasks(ctx context.Context, employeeIDs []int) (map[int]int, error) {
	counts := make(map[int]int, len(employeeIDs))
	if len(employeeIDs) == 0 {
		return counts, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT assigned_to_employee_id, COUNT(*)
		 FROM ai_tasks
		 WHERE status = 'PENDING' AND assigned_to_employee_id = ANY($1)
		 GROUP BY assigned_to_employee_id`,
		employeeIDs,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count pending tasks")
	}
	defer rows.Close()

	for rows.Next() {
		var id, n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan pending count")
		}
		counts[id] = n
	}
	return counts, eris.Wrap(rows.Err(), "postgres: count pending tasks iterate")
}

func (s *PostgresStore) TaskExists(ctx context.Context, ruleID string, leadID, quotationID int) (bool, error) {
	var one int
	var err error
	if quotationID > 0 {
		err = s.pool.QueryRow(ctx,
			`SELECT 1 FROM ai_tasks WHERE lead_id = $1 AND metadata->>'rule_id' = $2 AND quotation_id = $3 LIMIT 1`,
			leadID, ruleID, quotationID,
		).Scan(&one)
	} else {
		err = s.pool.QueryRow(ctx,
			`SELECT 1 FROM ai_tasks WHERE lead_id = $1 AND metadata->>'rule_id' = $2 LIMIT 1`,
			leadID, ruleID,
		).Scan(&one)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, eris.Wrapf(err, "postgres: task exists %s lead %d", ruleID, leadID)
	}
	return true, nil
}

func (s *PostgresStore) SaveTask(ctx context.Context, task *model.GeneratedTask, meta model.TaskMetadata) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal task metadata")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO ai_tasks
		 (id, task_title, task_description, priority, status, assigned_to, assigned_to_employee_id, assigned_by,
		  lead_id, quotation_id, due_date, category, client_name, business_impact, ai_reasoning,
		  estimated_value, task_type, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		task.ID, task.Title, task.Description, string(task.Priority), string(model.TaskStatusPending),
		nullableStr(task.AssignedToName), nullableInt(task.AssignedToEmployeeID), "system",
		task.LeadID, nullableInt(task.QuotationID), task.DueDate, "AI_GENERATED",
		task.ClientName, task.BusinessImpact, task.AIReasoning,
		task.EstimatedValue, string(task.TaskType), metaJSON, meta.GeneratedAt,
	)
	return eris.Wrapf(err, "postgres: insert task for lead %d", task.LeadID)
}

func (s *PostgresStore) ListTasksByLead(ctx context.Context, leadID int) ([]model.GeneratedTask, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, task_title, task_description, priority, assigned_to, assigned_to_employee_id,
		        lead_id, quotation_id, due_date, client_name, business_impact, ai_reasoning,
		        estimated_value, task_type, metadata
		 FROM ai_tasks WHERE lead_id = $1 ORDER BY created_at`,
		leadID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list tasks for lead %d", leadID)
	}
	defer rows.Close()

	var tasks []model.GeneratedTask
	for rows.Next() {
		var t model.GeneratedTask
		var assignedTo, impact, reasoning *string
		var employeeID, quotationID *int
		var metaJSON []byte
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &assignedTo, &employeeID,
			&t.LeadID, &quotationID, &t.DueDate, &t.ClientName, &impact, &reasoning,
			&t.EstimatedValue, &t.TaskType, &metaJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan task")
		}
		if assignedTo != nil {
			t.AssignedToName = *assignedTo
		}
		if employeeID != nil {
			t.AssignedToEmployeeID = *employeeID
		}
		if quotationID != nil {
			t.QuotationID = *quotationID
		}
		if impact != nil {
			t.BusinessImpact = *impact
		}
		if reasoning != nil {
			t.AIReasoning = *reasoning
		}
		var meta model.TaskMetadata
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &meta); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal task metadata")
			}
			t.SLAHours = meta.SLAHours
			t.DepartmentAssigned = meta.DepartmentAssigned
			t.DesignationAssigned = meta.DesignationAssigned
		}
		tasks = append(tasks, t)
	}
	return tasks, eris.Wrap(rows.Err(), "postgres: list tasks iterate")
}

func (s *PostgresStore) LogTaskGeneration(ctx context.Context, entry model.AuditEntry) error {
	metaJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal audit metadata")
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO task_generation_log
		 (id, lead_id, quotation_id, rule_triggered, task_id, success, error_message,
		  triggered_by, triggered_by_uuid, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.New().String(), entry.LeadID, nullableInt(entry.QuotationID), entry.RuleTriggered,
		nullableStr(entry.TaskID), entry.Success, nullableStr(entry.ErrorMessage),
		entry.TriggeredBy, nullableStr(entry.TriggeredByUUID), metaJSON, createdAt,
	)
	return eris.Wrapf(err, "postgres: insert generation log for lead %d", entry.LeadID)
}

func (s *PostgresStore) ListGenerationLog(ctx context.Context, filter LogFilter) ([]model.AuditEntry, error) {
	query := `SELECT lead_id, quotation_id, rule_triggered, task_id, success, error_message,
	                 triggered_by, triggered_by_uuid, metadata, created_at
	          FROM task_generation_log WHERE true`
	args := []any{}
	argIdx := 1

	if !filter.Since.IsZero() {
		query += fmt.Sprintf(` AND created_at >= $%d`, argIdx)
		args = append(args, filter.Since)
		argIdx++
	}
	if filter.LeadID > 0 {
		query += fmt.Sprintf(` AND lead_id = $%d`, argIdx)
		args = append(args, filter.LeadID)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list generation log")
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		var quotationID *int
		var taskID, errMsg, triggeredByUUID *string
		var metaJSON []byte
		if err := rows.Scan(&e.LeadID, &quotationID, &e.RuleTriggered, &taskID, &e.Success,
			&errMsg, &e.TriggeredBy, &triggeredByUUID, &metaJSON, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan generation log entry")
		}
		if quotationID != nil {
			e.QuotationID = *quotationID
		}
		if taskID != nil {
			e.TaskID = *taskID
		}
		if errMsg != nil {
			e.ErrorMessage = *errMsg
		}
		if triggeredByUUID != nil {
			e.TriggeredByUUID = *triggeredByUUID
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &e.Metadata); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal audit metadata")
			}
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list generation log iterate")
}

func (s *PostgresStore) LeadTaskStats(ctx context.Context, leadID int) (*LeadTaskStats, error) {
	stats := &LeadTaskStats{LeadID: leadID}
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'PENDING'),
		        COUNT(*) FILTER (WHERE status = 'COMPLETED'),
		        COUNT(*) FILTER (WHERE status = 'PENDING' AND due_date < now()),
		        COALESCE(SUM(estimated_value), 0)
		 FROM ai_tasks WHERE lead_id = $1`,
		leadID,
	).Scan(&stats.TotalTasks, &stats.PendingTasks, &stats.CompletedTasks, &stats.OverdueTasks, &stats.TotalValue)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: lead task stats %d", leadID)
	}
	return stats, nil
}

func nullableInt(i int) any {
	if i == 0 {
		return nil
	}
	return i
}

func nullableStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
