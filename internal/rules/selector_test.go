package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crm-tasks/internal/model"
)

type fakeWorkload struct {
	counts map[int]int
	err    error
	calls  int
}

func (f *fakeWorkload) CountPendingTasks(_ context.Context, ids []int) (map[int]int, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[int]int, len(ids))
	for _, id := range ids {
		out[id] = f.counts[id]
	}
	return out, nil
}

func directory() []model.Employee {
	return []model.Employee{
		{ID: 1, Name: "Priya Nair", Active: true, Designation: "Sales Head", Department: "SALES"},
		{ID: 2, Name: "Arun Kumar", Active: true, Designation: "Sales Resource", Department: "SALES"},
		{ID: 3, Name: "Meera Iyer", Active: true, Designation: "SEO", Department: "SEO"},
		{ID: 4, Name: "Ravi Shankar", Active: true, Designation: "Accounts Manager", Department: "ACCOUNTS"},
	}
}

func TestSelectEmployee_ConjunctionFilter(t *testing.T) {
	// Department matches but designation does not: employee must not be picked
	// while someone satisfies both.
	emps := directory()
	got := SelectEmployee(context.Background(), emps,
		[]string{"SALES"}, []string{"Sales Head"}, nil, nil)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.ID)

	// Designation matches in the wrong department: conjunction still required.
	got = SelectEmployee(context.Background(), emps,
		[]string{"ACCOUNTS"}, []string{"Sales Head"}, nil, nil)
	require.NotNil(t, got)
	// Nobody satisfies both, so the first active employee is the fallback.
	assert.Equal(t, 1, got.ID)
}

func TestSelectEmployee_CaseInsensitive(t *testing.T) {
	got := SelectEmployee(context.Background(), directory(),
		[]string{"sales"}, []string{"sales head"}, nil, nil)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.ID)
}

func TestSelectEmployee_SpecificAssigneeOverride(t *testing.T) {
	got := SelectEmployee(context.Background(), directory(),
		[]string{"SALES"}, []string{"Sales Head"},
		&AutoAssignPolicy{SpecificAssignee: "Ravi Shankar"}, nil)
	require.NotNil(t, got)
	assert.Equal(t, 4, got.ID, "override bypasses department/designation filters")
}

func TestSelectEmployee_SpecificAssigneeMissing_FallsThrough(t *testing.T) {
	got := SelectEmployee(context.Background(), directory(),
		[]string{"SALES"}, []string{"Sales Head"},
		&AutoAssignPolicy{SpecificAssignee: "Nobody Here"}, nil)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.ID)
}

func TestSelectEmployee_SpecificAssigneeInactive_FallsThrough(t *testing.T) {
	emps := directory()
	emps[3].Active = false
	got := SelectEmployee(context.Background(), emps,
		[]string{"SALES"}, []string{"Sales Head"},
		&AutoAssignPolicy{SpecificAssignee: "Ravi Shankar"}, nil)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.ID)
}

func TestSelectEmployee_WorkloadBalancing_PicksLeastLoaded(t *testing.T) {
	wl := &fakeWorkload{counts: map[int]int{1: 5, 2: 1}}
	got := SelectEmployee(context.Background(), directory(),
		[]string{"SALES"}, []string{"Sales Head", "Sales Resource"},
		&AutoAssignPolicy{WorkloadBalancing: true}, wl)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.ID)
	assert.Equal(t, 1, wl.calls)
}

func TestSelectEmployee_WorkloadTieBreak_Stable(t *testing.T) {
	wl := &fakeWorkload{counts: map[int]int{1: 2, 2: 2}}
	got := SelectEmployee(context.Background(), directory(),
		[]string{"SALES"}, []string{"Sales Head", "Sales Resource"},
		&AutoAssignPolicy{WorkloadBalancing: true}, wl)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.ID, "equal counts keep input order")
}

func TestSelectEmployee_WorkloadError_DegradesToFirst(t *testing.T) {
	wl := &fakeWorkload{err: assert.AnError}
	got := SelectEmployee(context.Background(), directory(),
		[]string{"SALES"}, []string{"Sales Head", "Sales Resource"},
		&AutoAssignPolicy{WorkloadBalancing: true}, wl)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.ID)
}

func TestSelectEmployee_NoBalancing_FirstCandidate(t *testing.T) {
	wl := &fakeWorkload{counts: map[int]int{1: 5, 2: 0}}
	got := SelectEmployee(context.Background(), directory(),
		[]string{"SALES"}, []string{"Sales Head", "Sales Resource"},
		&AutoAssignPolicy{}, wl)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.ID)
	assert.Zero(t, wl.calls, "no workload query without balancing")
}

func TestSelectEmployee_EmptyDirectory(t *testing.T) {
	got := SelectEmployee(context.Background(), nil,
		[]string{"SALES"}, []string{"Sales Head"}, nil, nil)
	assert.Nil(t, got)
}

func TestSelectEmployee_JobTitleFallback(t *testing.T) {
	emps := []model.Employee{
		{ID: 9, Name: "Kiran Rao", Active: true, JobTitle: "Sales Head", Department: "SALES"},
	}
	got := SelectEmployee(context.Background(), emps,
		[]string{"SALES"}, []string{"Sales Head"}, nil, nil)
	require.NotNil(t, got)
	assert.Equal(t, 9, got.ID)
}
