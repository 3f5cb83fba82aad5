// internal/models/application.go
package models

import "time"

// ApplicationStatus enumerates the lifecycle states of a loan application.
// Intake answers with "pending"; the decision worker only ever writes
// "approved" or "rejected" into the cache.
type ApplicationStatus string

const (
	StatusPending    ApplicationStatus = "pending"
	StatusProcessing ApplicationStatus = "processing"
	StatusApproved   ApplicationStatus = "approved"
	StatusRejected   ApplicationStatus = "rejected"
)

// Application is the unit of work accepted by intake. Each submission is a
// new, immutable record; the ID is generated server-side and is distinct from
// the caller-supplied applicant identity.
type Application struct {
	ID          string            `json:"id"`
	ApplicantID string            `json:"applicantId"`
	Amount      float64           `json:"amount"`
	TermMonths  int               `json:"termMonths"`
	Status      ApplicationStatus `json:"status"`
	SubmittedAt time.Time         `json:"submittedAt"`
}

// ApplicationMessage is the channel payload published by intake. It carries
// exactly the caller-supplied fields; record ID and timestamp stay behind.
type ApplicationMessage struct {
	ApplicantID string  `json:"applicantId"`
	Amount      float64 `json:"amount"`
	TermMonths  int     `json:"termMonths"`
}

// DecisionRecord is the evaluated outcome, owned and overwritten by the
// decision worker. The cache holds at most one live record per applicant
// identity with last-write-wins semantics.
type DecisionRecord struct {
	ApplicantID string            `json:"applicantId"`
	Amount      float64           `json:"amount"`
	TermMonths  int               `json:"termMonths"`
	Status      ApplicationStatus `json:"status"`
	DecidedAt   time.Time         `json:"decidedAt"`
}
