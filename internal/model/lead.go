package model

import "time"

// LeadStatus represents where a lead sits in the sales pipeline.
type LeadStatus string

const (
	LeadStatusUnassigned LeadStatus = "UNASSIGNED"
	LeadStatusAssigned   LeadStatus = "ASSIGNED"
	LeadStatusContacted  LeadStatus = "CONTACTED"
	LeadStatusQualified  LeadStatus = "QUALIFIED"
	LeadStatusProposal   LeadStatus = "PROPOSAL"
	LeadStatusWon        LeadStatus = "WON"
	LeadStatusLost       LeadStatus = "LOST"
)

// EventType identifies a lead or quotation lifecycle event.
type EventType string

const (
	EventLeadAssigned      EventType = "lead_assigned"
	EventLeadStatusChanged EventType = "lead_status_changed"
	EventQuotationCreated  EventType = "quotation_created"
	EventQuotationSent     EventType = "quotation_sent"
	EventQuotationApproved EventType = "quotation_approved"
)

// IsQuotationEvent reports whether the event type concerns a quotation and
// therefore requires a quotation snapshot on the event.
func (e EventType) IsQuotationEvent() bool {
	switch e {
	case EventQuotationCreated, EventQuotationSent, EventQuotationApproved:
		return true
	}
	return false
}

// LeadSnapshot captures the lead's fields at event time.
type LeadSnapshot struct {
	ID             int        `json:"id"`
	LeadNumber     string     `json:"lead_number"`
	ClientName     string     `json:"client_name"`
	Status         LeadStatus `json:"status"`
	EstimatedValue float64    `json:"estimated_value,omitempty"`
	AssignedTo     int        `json:"assigned_to,omitempty"`
	CompanyID      int        `json:"company_id"`
	BranchID       int        `json:"branch_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// QuotationSnapshot captures the quotation's fields at event time.
type QuotationSnapshot struct {
	ID              int       `json:"id"`
	QuotationNumber string    `json:"quotation_number"`
	TotalAmount     float64   `json:"total_amount"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// LeadEvent is an immutable record describing something that happened to a
// lead or its quotation. Quotation is non-nil for quotation_* events.
type LeadEvent struct {
	EventType      EventType          `json:"event_type"`
	LeadID         int                `json:"lead_id"`
	Lead           LeadSnapshot       `json:"lead_data"`
	Quotation      *QuotationSnapshot `json:"quotation_data,omitempty"`
	PreviousStatus LeadStatus         `json:"previous_status,omitempty"`
	TriggeredBy    string             `json:"triggered_by,omitempty"`
}
