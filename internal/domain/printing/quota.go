package printing

import "context"

// QuotaDecision is the answer of the external quota gate.
// Limit and Remaining are -1 when the gate is unlimited.
type QuotaDecision struct {
	Allowed   bool
	Reason    string
	Remaining int64
	Limit     int64
}

// QuotaGate authorizes printing a number of labels
type QuotaGate interface {
	Validate(ctx context.Context, count int) (*QuotaDecision, error)
}
