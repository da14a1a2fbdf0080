package domain

import "time"

// SubjectType differentiates operator vs service tokens.
type SubjectType string

const (
	SubjectTypeOperator SubjectType = "OPERATOR"
	SubjectTypeService  SubjectType = "SERVICE"
)

// Operator is the administrator signed in to the list view.
type Operator struct {
	Email     string
	SignedIn  time.Time
	ExpiresAt time.Time
}
