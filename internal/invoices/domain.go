package invoices

import "time"

// Invoice represents a billing document raised against a customer.
type Invoice struct {
	ID           string     `json:"id"`
	Number       string     `json:"number"`
	CustomerName string     `json:"customer_name"`
	LeadID       string     `json:"lead_id,omitempty"`
	Amount       float64    `json:"amount"`
	Status       string     `json:"status"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Invoice statuses.
const (
	StatusDraft   = "draft"
	StatusSent    = "sent"
	StatusPaid    = "paid"
	StatusOverdue = "overdue"
)

// FeatureName is the access-rule feature governing invoice routes.
const FeatureName = "Invoices"
