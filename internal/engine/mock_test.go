package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sells-group/crm-tasks/internal/model"
	"github.com/sells-group/crm-tasks/internal/store"
)

type savedTask struct {
	task model.GeneratedTask
	meta model.TaskMetadata
}

// memStore is an in-memory store.Store for engine tests, with per-call
// failure injection.
type memStore struct {
	mu sync.Mutex

	employees    []model.Employee
	employeesErr error
	pending      map[int]int

	tasks   []savedTask
	entries []model.AuditEntry

	existsErr   error
	saveErr     error
	saveFailFor string // rule id whose save fails
	logErr      error
}

var _ store.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		employees: []model.Employee{
			{ID: 1, Name: "Priya Nair", Active: true, Designation: "Sales Head", Department: "SALES"},
			{ID: 2, Name: "Arun Kumar", Active: true, Designation: "Sales Resource", Department: "SALES"},
			{ID: 3, Name: "Ravi Shankar", Active: true, Designation: "Accounts Manager", Department: "ACCOUNTS"},
		},
		pending: map[int]int{},
	}
}

func (m *memStore) ListActiveEmployees(context.Context) ([]model.Employee, error) {
	if m.employeesErr != nil {
		return nil, m.employeesErr
	}
	return m.employees, nil
}

func (m *memStore) CountPendingTasks(_ context.Context, ids []int) (map[int]int, error) {
	out := make(map[int]int, len(ids))
	for _, id := range ids {
		out[id] = m.pending[id]
	}
	return out, nil
}

func (m *memStore) TaskExists(_ context.Context, ruleID string, leadID, quotationID int) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.tasks {
		if st.meta.RuleID != ruleID || st.task.LeadID != leadID {
			continue
		}
		if quotationID != 0 && st.task.QuotationID != quotationID {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (m *memStore) SaveTask(_ context.Context, task *model.GeneratedTask, meta model.TaskMetadata) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.saveFailFor != "" && meta.RuleID == m.saveFailFor {
		return errSaveInjected
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, savedTask{task: *task, meta: meta})
	return nil
}

func (m *memStore) ListTasksByLead(_ context.Context, leadID int) ([]model.GeneratedTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.GeneratedTask
	for _, st := range m.tasks {
		if st.task.LeadID == leadID {
			out = append(out, st.task)
		}
	}
	return out, nil
}

func (m *memStore) LogTaskGeneration(_ context.Context, entry model.AuditEntry) error {
	if m.logErr != nil {
		return m.logErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memStore) ListGenerationLog(_ context.Context, filter store.LogFilter) ([]model.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AuditEntry
	for _, e := range m.entries {
		if filter.LeadID != 0 && e.LeadID != filter.LeadID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memStore) LeadTaskStats(_ context.Context, leadID int) (*store.LeadTaskStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &store.LeadTaskStats{LeadID: leadID}
	for _, st := range m.tasks {
		if st.task.LeadID != leadID {
			continue
		}
		stats.TotalTasks++
		stats.PendingTasks++
		stats.TotalValue += st.task.EstimatedValue
	}
	return stats, nil
}

func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Close() error                  { return nil }

func (m *memStore) savedRuleIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.tasks))
	for _, st := range m.tasks {
		ids = append(ids, st.meta.RuleID)
	}
	return ids
}

type injectedError string

func (e injectedError) Error() string { return string(e) }

const errSaveInjected = injectedError("injected save failure")

func containsRule(ids []string, rule string) bool {
	for _, id := range ids {
		if id == rule {
			return true
		}
	}
	return false
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func insightsContain(insights []string, substr string) bool {
	for _, s := range insights {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
