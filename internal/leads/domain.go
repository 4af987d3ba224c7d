package leads

import "time"

// Lead represents a sales lead. AssignedTo references the owning user;
// records assigned to the caller are exempt from response masking.
type Lead struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Company    string    `json:"company,omitempty"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Value      float64   `json:"value"`
	Status     string    `json:"status"`
	Source     string    `json:"source,omitempty"`
	AssignedTo string    `json:"assignedTo,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Lead statuses.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusWon       = "won"
	StatusLost      = "lost"
)
