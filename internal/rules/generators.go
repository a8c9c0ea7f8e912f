package rules

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/crm-tasks/internal/model"
)

var inrPrinter = message.NewPrinter(language.English)

// inr formats a rupee amount with digit grouping, e.g. ₹1,50,000 style
// grouping is not attempted — standard thousands grouping matches the rest
// of the product's reports.
func inr(v float64) string {
	return inrPrinter.Sprintf("₹%d", int64(v))
}

func taskID(slug string, lead model.LeadSnapshot, now time.Time) string {
	return fmt.Sprintf("%s-%d-%d", slug, lead.ID, now.UnixMilli())
}

func dueDate(now time.Time, slaHours int) time.Time {
	return now.Add(time.Duration(slaHours) * time.Hour)
}

// applyAssignment fills the assignment fields from the selected employee.
// With no employee available the task still goes out, addressed to the
// generic sales pool.
func applyAssignment(task *model.GeneratedTask, emp *model.Employee) {
	if emp == nil {
		task.AssignedToName = "Sales Team"
		return
	}
	task.AssignedToEmployeeID = emp.ID
	task.AssignedToName = emp.Name
	task.DepartmentAssigned = emp.Department
	task.DesignationAssigned = designationOf(emp)
}

func estimatedOrDefault(lead model.LeadSnapshot, cfg Config) float64 {
	if lead.EstimatedValue > 0 {
		return lead.EstimatedValue
	}
	return cfg.DefaultEstimatedValue
}

func generateInitialContactTask(ctx context.Context, event model.LeadEvent, env Env) (*model.GeneratedTask, error) {
	lead := event.Lead
	value := estimatedOrDefault(lead, env.Config)

	// Prefer the owner the lead is already assigned to; otherwise pick from
	// the sales pool with workload balancing.
	emp := findByID(env.Employees, lead.AssignedTo)
	if emp == nil {
		emp = SelectEmployee(ctx, env.Employees,
			[]string{"SALES", "SEO"},
			[]string{"Sales Head", "Sales Resource", "SEO"},
			&AutoAssignPolicy{WorkloadBalancing: true},
			env.Workload)
	}

	task := &model.GeneratedTask{
		ID:             taskID("initial-contact", lead, env.Now),
		Title:          fmt.Sprintf("Initial contact with %s", lead.ClientName),
		Description:    fmt.Sprintf("Make initial contact with %s (Lead #%s). Introduce yourself, understand their requirements, and schedule a detailed discussion. This is a fresh lead that needs immediate attention.", lead.ClientName, lead.LeadNumber),
		TaskType:       model.TaskTypeLeadFollowUp,
		Priority:       model.PriorityMedium,
		LeadID:         lead.ID,
		ClientName:     lead.ClientName,
		DueDate:        dueDate(env.Now, 24),
		EstimatedValue: value,
		SLAHours:       24,
		AIReasoning:    fmt.Sprintf("New lead assigned and requires initial contact within 24 hours. Client: %s. Estimated value: %s. Critical for first impression and relationship building.", lead.ClientName, inr(value)),
		BusinessImpact: fmt.Sprintf("First impression, relationship building, pipeline entry. Revenue opportunity: %s", inr(value)),
	}
	applyAssignment(task, emp)
	return task, nil
}

func generateQualificationTask(ctx context.Context, event model.LeadEvent, env Env) (*model.GeneratedTask, error) {
	lead := event.Lead
	value := estimatedOrDefault(lead, env.Config)

	emp := SelectEmployee(ctx, env.Employees,
		[]string{"SALES"},
		[]string{"Sales Head", "Senior Sales"},
		&AutoAssignPolicy{ExperienceLevel: "senior"},
		env.Workload)

	task := &model.GeneratedTask{
		ID:             taskID("qualification", lead, env.Now),
		Title:          fmt.Sprintf("Qualify lead requirements - %s", lead.ClientName),
		Description:    fmt.Sprintf("Conduct detailed qualification of %s. Understand their specific needs, budget, timeline, and decision-making process. Assess fit for our services and determine next steps for quotation preparation.", lead.ClientName),
		TaskType:       model.TaskTypeLeadFollowUp,
		Priority:       model.PriorityMedium,
		LeadID:         lead.ID,
		ClientName:     lead.ClientName,
		DueDate:        dueDate(env.Now, 48),
		EstimatedValue: value,
		SLAHours:       48,
		AIReasoning:    fmt.Sprintf("Lead has been contacted and is ready for qualification. Need to assess requirements, budget (estimated %s), and timeline to progress to quotation stage.", inr(value)),
		BusinessImpact: "Lead qualification, requirements gathering, pipeline progression",
	}
	applyAssignment(task, emp)
	return task, nil
}

func generateQuotationPreparationTask(ctx context.Context, event model.LeadEvent, env Env) (*model.GeneratedTask, error) {
	lead := event.Lead
	value := estimatedOrDefault(lead, env.Config)

	emp := SelectEmployee(ctx, env.Employees,
		[]string{"SALES"},
		[]string{"Sales Head"},
		&AutoAssignPolicy{ExperienceLevel: "expert"},
		env.Workload)

	task := &model.GeneratedTask{
		ID:             taskID("quotation-prep", lead, env.Now),
		Title:          fmt.Sprintf("Prepare quotation for %s", lead.ClientName),
		Description:    fmt.Sprintf("Prepare comprehensive quotation for %s based on qualified requirements. Include all services, pricing, terms, and deliverables. Ensure quotation is accurate and compelling for client approval.", lead.ClientName),
		TaskType:       model.TaskTypeQuotationApproval,
		Priority:       model.PriorityHigh,
		LeadID:         lead.ID,
		ClientName:     lead.ClientName,
		DueDate:        dueDate(env.Now, 48),
		EstimatedValue: value,
		SLAHours:       48,
		AIReasoning:    fmt.Sprintf("Lead is qualified and ready for quotation. High priority task to prepare accurate quotation within 48 hours to maintain sales momentum. Estimated value: %s.", inr(value)),
		BusinessImpact: fmt.Sprintf("Revenue generation, deal closure, client conversion. Value: %s", inr(value)),
	}
	applyAssignment(task, emp)
	return task, nil
}

func generateHighValueEscalationTask(ctx context.Context, event model.LeadEvent, env Env) (*model.GeneratedTask, error) {
	lead := event.Lead
	value := lead.EstimatedValue
	if value <= 0 {
		value = env.Config.HighValueThreshold
	}

	emp := SelectEmployee(ctx, env.Employees,
		[]string{"SALES"},
		[]string{"Manager", "Sales Head"},
		&AutoAssignPolicy{HighValue: true, SpecificAssignee: env.Config.HighValueAssignee},
		env.Workload)

	task := &model.GeneratedTask{
		ID:             taskID("high-value", lead, env.Now),
		Title:          fmt.Sprintf("HIGH VALUE: Manage lead %s (%s)", lead.ClientName, inr(value)),
		Description:    fmt.Sprintf("High-value lead (%s) requires immediate management attention. Client: %s. This lead has significant revenue potential and needs expert handling to ensure conversion.", inr(value), lead.ClientName),
		TaskType:       model.TaskTypeLeadFollowUp,
		Priority:       model.PriorityUrgent,
		LeadID:         lead.ID,
		ClientName:     lead.ClientName,
		DueDate:        dueDate(env.Now, 12),
		EstimatedValue: value,
		SLAHours:       12,
		AIReasoning:    fmt.Sprintf("Lead worth %s requires immediate management intervention. Risk of losing major client if not handled expertly within 12 hours.", inr(value)),
		BusinessImpact: fmt.Sprintf("Critical revenue: %s. Executive attention required for major client acquisition.", inr(value)),
	}
	applyAssignment(task, emp)
	return task, nil
}

func generateQuotationFollowupTask(ctx context.Context, event model.LeadEvent, env Env) (*model.GeneratedTask, error) {
	lead := event.Lead
	quotation := event.Quotation
	if quotation == nil {
		return nil, nil
	}

	emp := SelectEmployee(ctx, env.Employees,
		[]string{"SALES"},
		[]string{"Sales Resource", "Sales Head"},
		&AutoAssignPolicy{WorkloadBalancing: true},
		env.Workload)

	task := &model.GeneratedTask{
		ID:             fmt.Sprintf("quotation-followup-%d-%d-%d", lead.ID, quotation.ID, env.Now.UnixMilli()),
		Title:          fmt.Sprintf("Follow up with %s about quotation", lead.ClientName),
		Description:    fmt.Sprintf("Follow up with %s regarding quotation %s (%s). Check if they have any questions, address concerns, and request feedback on the proposal.", lead.ClientName, quotation.QuotationNumber, inr(quotation.TotalAmount)),
		TaskType:       model.TaskTypeQuotationFollowUp,
		Priority:       model.PriorityHigh,
		LeadID:         lead.ID,
		QuotationID:    quotation.ID,
		ClientName:     lead.ClientName,
		DueDate:        dueDate(env.Now, 24),
		EstimatedValue: quotation.TotalAmount,
		SLAHours:       24,
		AIReasoning:    fmt.Sprintf("Quotation sent to client and needs follow-up within 24 hours to maintain engagement. Value: %s. Critical for conversion and deal closure.", inr(quotation.TotalAmount)),
		BusinessImpact: fmt.Sprintf("Revenue recovery: %s. Deal closure and client engagement.", inr(quotation.TotalAmount)),
	}
	applyAssignment(task, emp)
	return task, nil
}

func generatePaymentFollowupTask(ctx context.Context, event model.LeadEvent, env Env) (*model.GeneratedTask, error) {
	lead := event.Lead
	quotation := event.Quotation
	if quotation == nil {
		return nil, nil
	}

	emp := SelectEmployee(ctx, env.Employees,
		[]string{"SALES", "ACCOUNTS"},
		[]string{"Sales Head", "Accounts Manager"},
		&AutoAssignPolicy{WorkloadBalancing: true},
		env.Workload)

	task := &model.GeneratedTask{
		ID:             fmt.Sprintf("payment-followup-%d-%d-%d", lead.ID, quotation.ID, env.Now.UnixMilli()),
		Title:          fmt.Sprintf("Payment follow-up for %s", lead.ClientName),
		Description:    fmt.Sprintf("Follow up on payment for approved quotation %s from %s (%s). Send payment reminder, confirm timeline, and assist with payment process.", quotation.QuotationNumber, lead.ClientName, inr(quotation.TotalAmount)),
		TaskType:       model.TaskTypePaymentFollowUp,
		Priority:       model.PriorityHigh,
		LeadID:         lead.ID,
		QuotationID:    quotation.ID,
		ClientName:     lead.ClientName,
		DueDate:        dueDate(env.Now, 72),
		EstimatedValue: quotation.TotalAmount,
		SLAHours:       72,
		AIReasoning:    fmt.Sprintf("Quotation approved and payment follow-up required within 3 days. Value: %s. Critical for cash flow and deal completion.", inr(quotation.TotalAmount)),
		BusinessImpact: fmt.Sprintf("Cash flow: %s. Deal completion and revenue realization.", inr(quotation.TotalAmount)),
	}
	applyAssignment(task, emp)
	return task, nil
}
