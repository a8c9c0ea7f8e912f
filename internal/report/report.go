// Package report aggregates generation activity into operator-facing
// summaries: the rolling generation summary and per-lead analytics.
package report

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/crm-tasks/internal/store"
)

// Summary holds a point-in-time view of rule-engine activity.
type Summary struct {
	TotalAttempts  int            `json:"total_attempts"`
	TasksCreated   int            `json:"tasks_created"`
	Failures       int            `json:"failures"`
	FailRate       float64        `json:"fail_rate"`
	ByRule         map[string]int `json:"by_rule"`
	FailuresByRule map[string]int `json:"failures_by_rule,omitempty"`
	LeadsTouched   int            `json:"leads_touched"`
	// ProtectedValue sums the estimated value of leads whose tasks were
	// created in the window: revenue covered by an active follow-up.
	ProtectedValue float64 `json:"protected_value"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// LeadAnalytics combines the lead's task statistics with its recent
// generation history.
type LeadAnalytics struct {
	Stats          store.LeadTaskStats `json:"stats"`
	RecentAttempts int                 `json:"recent_attempts"`
	LastActivity   time.Time           `json:"last_activity,omitempty"`
}

// Collector derives summaries from the generation audit log.
type Collector struct {
	store store.Store
	now   func() time.Time
}

// NewCollector creates a Collector backed by st.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st, now: time.Now}
}

// WithClock overrides the collector clock for tests.
func (c *Collector) WithClock(now func() time.Time) *Collector {
	c.now = now
	return c
}

// Collect builds the generation summary over the lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Summary, error) {
	now := c.now().UTC()
	summary := &Summary{
		ByRule:        map[string]int{},
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}

	entries, err := c.store.ListGenerationLog(ctx, store.LogFilter{
		Since: now.Add(-time.Duration(lookbackHours) * time.Hour),
	})
	if err != nil {
		return nil, eris.Wrap(err, "report: list generation log")
	}

	leads := map[int]struct{}{}
	for _, e := range entries {
		summary.TotalAttempts++
		leads[e.LeadID] = struct{}{}
		if e.Success {
			summary.TasksCreated++
			summary.ByRule[e.RuleTriggered]++
			if v, ok := e.Metadata["estimated_value"].(float64); ok {
				summary.ProtectedValue += v
			}
			continue
		}
		summary.Failures++
		if summary.FailuresByRule == nil {
			summary.FailuresByRule = map[string]int{}
		}
		summary.FailuresByRule[e.RuleTriggered]++
	}
	summary.LeadsTouched = len(leads)
	if summary.TotalAttempts > 0 {
		summary.FailRate = float64(summary.Failures) / float64(summary.TotalAttempts)
	}

	return summary, nil
}

// LeadAnalytics builds the per-lead view combining stored task stats with
// the lead's audit history.
func (c *Collector) LeadAnalytics(ctx context.Context, leadID int) (*LeadAnalytics, error) {
	stats, err := c.store.LeadTaskStats(ctx, leadID)
	if err != nil {
		return nil, eris.Wrapf(err, "report: stats for lead %d", leadID)
	}
	if stats == nil {
		stats = &store.LeadTaskStats{LeadID: leadID}
	}

	entries, err := c.store.ListGenerationLog(ctx, store.LogFilter{LeadID: leadID})
	if err != nil {
		return nil, eris.Wrapf(err, "report: log for lead %d", leadID)
	}

	out := &LeadAnalytics{
		Stats:          *stats,
		RecentAttempts: len(entries),
	}
	for _, e := range entries {
		if e.CreatedAt.After(out.LastActivity) {
			out.LastActivity = e.CreatedAt
		}
	}
	return out, nil
}
