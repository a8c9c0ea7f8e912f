// Package engine orchestrates rule evaluation for lead lifecycle events.
// Each event fans out across the enabled rule set; every rule decides
// independently whether a follow-up task is due.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crm-tasks/internal/identity"
	"github.com/sells-group/crm-tasks/internal/model"
	"github.com/sells-group/crm-tasks/internal/rules"
	"github.com/sells-group/crm-tasks/internal/store"
)

// Service evaluates business rules against lead events and persists the
// resulting tasks. It holds no per-event state and is safe for concurrent
// use by multiple hook handlers.
type Service struct {
	store store.Store
	rules []rules.BusinessRule
	cfg   rules.Config
	now   func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithNow overrides the engine clock. Tests use this for deterministic
// task ids and due dates.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRules replaces the default rule set.
func WithRules(set []rules.BusinessRule) Option {
	return func(s *Service) { s.rules = set }
}

// WithConfig overrides the rule tunables. Ignored when WithRules is also
// given, since a custom set carries its own thresholds.
func WithConfig(cfg rules.Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// New creates a Service backed by st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		cfg:   rules.DefaultConfig(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rules == nil {
		s.rules = rules.DefaultRules(s.cfg)
	}
	return s
}

// ProcessLeadEvent runs every enabled rule against the event and returns the
// accumulated result. It never returns an error and never panics past its
// boundary: rule failures are isolated per rule, and anything unexpected is
// folded into a failed result.
func (s *Service) ProcessLeadEvent(ctx context.Context, event model.LeadEvent) (result model.GenerationResult) {
	log := zap.L().With(
		zap.String("event_type", string(event.EventType)),
		zap.Int("lead_id", event.LeadID),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("engine: recovered from panic", zap.Any("panic", r))
			result = model.GenerationResult{
				Success: false,
				Error:   fmt.Sprintf("internal error: %v", r),
			}
		}
	}()

	if event.Lead.ID == 0 {
		event.Lead.ID = event.LeadID
	}
	if event.LeadID == 0 {
		event.LeadID = event.Lead.ID
	}

	log.Info("engine: processing lead event", zap.String("client", event.Lead.ClientName))

	env := rules.Env{
		Workload: s.store,
		Now:      s.now(),
		Config:   s.cfg,
	}

	// One directory snapshot per event. A directory failure degrades to an
	// empty pool; tasks still go out addressed to the generic sales team.
	employees, err := s.store.ListActiveEmployees(ctx)
	if err != nil {
		log.Warn("engine: employee directory unavailable", zap.Error(err))
	}
	env.Employees = employees

	result = model.GenerationResult{Success: true}

	for _, rule := range s.rules {
		if !rule.Enabled || !rule.Trigger(event) {
			continue
		}
		task, err := s.applyRule(ctx, rule, event, env)
		if err != nil {
			// One failing rule must not block the others.
			log.Error("engine: rule failed", zap.String("rule", rule.ID), zap.Error(err))
			s.logAttempt(ctx, event, rule, nil, err)
			continue
		}
		if task == nil {
			continue
		}
		result.Tasks = append(result.Tasks, *task)
		result.TasksGenerated++
	}

	result.BusinessInsights = rules.BusinessInsights(result, event, s.cfg)

	log.Info("engine: event processed", zap.Int("tasks_generated", result.TasksGenerated))
	return result
}

// applyRule runs one triggered rule: dedupe check, generation, persistence,
// audit. A nil task with nil error means the rule declined (already covered,
// or missing quotation data).
func (s *Service) applyRule(ctx context.Context, rule rules.BusinessRule, event model.LeadEvent, env rules.Env) (*model.GeneratedTask, error) {
	quotationID := 0
	if event.Quotation != nil {
		quotationID = event.Quotation.ID
	}

	exists, err := s.store.TaskExists(ctx, rule.ID, event.LeadID, quotationID)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: dedupe check for rule %s", rule.ID)
	}
	if exists {
		zap.L().Debug("engine: task already exists, skipping",
			zap.String("rule", rule.ID),
			zap.Int("lead_id", event.LeadID),
		)
		return nil, nil
	}

	task, err := rule.Generate(ctx, event, env)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: generate task for rule %s", rule.ID)
	}
	if task == nil {
		return nil, nil
	}

	meta := model.TaskMetadata{
		SchemaVersion:       model.TaskMetadataSchemaVersion,
		TaskNumber:          fmt.Sprintf("TASK-%d", env.Now.UnixMilli()),
		RuleID:              rule.ID,
		RuleName:            rule.Name,
		TaskType:            task.TaskType,
		ClientName:          task.ClientName,
		DepartmentAssigned:  task.DepartmentAssigned,
		DesignationAssigned: task.DesignationAssigned,
		EstimatedValue:      task.EstimatedValue,
		SLAHours:            task.SLAHours,
		TriggeredBy:         event.TriggeredBy,
		GeneratedAt:         env.Now,
	}

	if err := s.store.SaveTask(ctx, task, meta); err != nil {
		return nil, eris.Wrapf(err, "engine: save task for rule %s", rule.ID)
	}

	s.logAttempt(ctx, event, rule, task, nil)
	return task, nil
}

// logAttempt writes the audit row for one rule application. Audit failures
// are logged and swallowed; they must not undo a saved task.
func (s *Service) logAttempt(ctx context.Context, event model.LeadEvent, rule rules.BusinessRule, task *model.GeneratedTask, ruleErr error) {
	entry := model.AuditEntry{
		LeadID:          event.LeadID,
		RuleTriggered:   rule.ID,
		Success:         ruleErr == nil,
		TriggeredBy:     event.TriggeredBy,
		TriggeredByUUID: identity.ActorUUID(event.TriggeredBy),
		CreatedAt:       s.now(),
	}
	if event.Quotation != nil {
		entry.QuotationID = event.Quotation.ID
	}
	if task != nil {
		entry.TaskID = task.ID
		entry.Metadata = map[string]any{
			"task_title":      task.Title,
			"priority":        string(task.Priority),
			"estimated_value": task.EstimatedValue,
			"sla_hours":       task.SLAHours,
		}
	}
	if ruleErr != nil {
		entry.ErrorMessage = ruleErr.Error()
	}

	if err := s.store.LogTaskGeneration(ctx, entry); err != nil {
		zap.L().Error("engine: audit log write failed",
			zap.String("rule", rule.ID),
			zap.Error(err),
		)
	}
}

// Rules returns the active rule set, for display commands.
func (s *Service) Rules() []rules.BusinessRule {
	return s.rules
}
