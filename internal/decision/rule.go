// internal/decision/rule.go
package decision

import "loanflow/internal/models"

// DefaultApprovalLimit is the largest amount the rule approves.
const DefaultApprovalLimit = 50000

// Rule is the deterministic decision function. It depends only on the
// application itself; no external calls.
type Rule struct {
	approvalLimit float64
}

func NewRule(approvalLimit float64) *Rule {
	if approvalLimit <= 0 {
		approvalLimit = DefaultApprovalLimit
	}
	return &Rule{approvalLimit: approvalLimit}
}

// Evaluate maps an application to approved or rejected. The amount <= 0
// branch is unreachable through intake's validation gate, but the topic is a
// producer boundary intake does not guard, so the rule keeps its own check.
func (r *Rule) Evaluate(msg models.ApplicationMessage) models.ApplicationStatus {
	if msg.Amount <= 0 {
		return models.StatusRejected
	}
	if msg.Amount > r.approvalLimit {
		return models.StatusRejected
	}
	return models.StatusApproved
}
