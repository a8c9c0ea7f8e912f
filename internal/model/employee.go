package model

// Employee is a read-only projection from the employee directory, used for
// eligibility filtering and workload counting. Never mutated by this system.
type Employee struct {
	ID          int    `json:"id"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Name        string `json:"name"`
	Active      bool   `json:"active"`
	JobTitle    string `json:"job_title,omitempty"`
	Designation string `json:"designation"`
	Department  string `json:"department"`
}
