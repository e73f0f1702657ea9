// model/quota.go
package model

// QuotaState is the usage of a (subject, resource) pair within the current
// accounting window, derived from the counter store on every check and never
// cached.
type QuotaState struct {
	APICallCount      int64 `json:"apiCallCount"`
	ConsumedByteCount int64 `json:"consumedByteCount"`
}

// QuotaDecision is the outcome of a quota check. Consumed is nil when the
// check was bypassed without consulting the counter store.
type QuotaDecision struct {
	WithinLimit bool
	Limit       int64
	Consumed    *QuotaState
}
