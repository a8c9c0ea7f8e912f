package rules

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/crm-tasks/internal/model"
)

// WorkloadCounter reports the number of PENDING tasks per employee. Satisfied
// by the store.
type WorkloadCounter interface {
	CountPendingTasks(ctx context.Context, employeeIDs []int) (map[int]int, error)
}

// SelectEmployee picks the task assignee from the active directory.
//
// Precedence:
//  1. A specific assignee named by the policy wins outright when present.
//  2. Candidates must match department AND designation preferences
//     (case-insensitive exact match on both).
//  3. An empty filtered set falls back to the first active employee, so a
//     task is never left unassigned while anyone is active.
//  4. With workload balancing, the candidate with the fewest pending tasks
//     wins; ties keep the earliest candidate in input order.
//
// Returns nil only when the directory itself is empty.
func SelectEmployee(ctx context.Context, employees []model.Employee, departments, designations []string, policy *AutoAssignPolicy, workload WorkloadCounter) *model.Employee {
	if len(employees) == 0 {
		return nil
	}

	if policy != nil && policy.SpecificAssignee != "" {
		for i := range employees {
			if employees[i].Active && employees[i].Name == policy.SpecificAssignee {
				return &employees[i]
			}
		}
		// Named assignee missing or inactive: fall through to normal filtering.
	}

	var candidates []*model.Employee
	for i := range employees {
		e := &employees[i]
		if !e.Active {
			continue
		}
		if matchesAny(e.Department, departments) && matchesAny(designationOf(e), designations) {
			candidates = append(candidates, e)
		}
	}

	if len(candidates) == 0 {
		for i := range employees {
			if employees[i].Active {
				return &employees[i]
			}
		}
		return nil
	}

	if policy != nil && policy.WorkloadBalancing && len(candidates) > 1 {
		ids := make([]int, len(candidates))
		for i, c := range candidates {
			ids[i] = c.ID
		}
		counts, err := workload.CountPendingTasks(ctx, ids)
		if err != nil {
			// Degrade to first-candidate order rather than failing assignment.
			zap.L().Warn("rules: workload count failed, using first candidate",
				zap.Error(err),
			)
			return candidates[0]
		}
		best := candidates[0]
		for _, c := range candidates[1:] {
			if counts[c.ID] < counts[best.ID] {
				best = c
			}
		}
		return best
	}

	return candidates[0]
}

// designationOf returns the employee's designation, falling back to the job
// title when the designation field is blank.
func designationOf(e *model.Employee) string {
	if e.Designation != "" {
		return e.Designation
	}
	return e.JobTitle
}

func matchesAny(value string, wanted []string) bool {
	for _, w := range wanted {
		if strings.EqualFold(value, w) {
			return true
		}
	}
	return false
}

// findByID returns the active employee with the given id, or nil.
func findByID(employees []model.Employee, id int) *model.Employee {
	for i := range employees {
		if employees[i].ID == id && employees[i].Active {
			return &employees[i]
		}
	}
	return nil
}
