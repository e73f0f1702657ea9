// quota/enforcer.go
package quota

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	dx_errors "github.com/datakaveri/dx-resource-server-sub002/errors"
	logger "github.com/datakaveri/dx-resource-server-sub002/logging"
	"github.com/datakaveri/dx-resource-server-sub002/model"
)

// Enforcer decides whether a caller is within its configured usage limit.
// It only reads counters; recording actual usage after a successful response
// is the Meter's job, so retried or failed downstream calls are never
// double-charged.
type Enforcer struct {
	store   CounterStore
	enabled bool
	clock   clock.Clock
}

func NewEnforcer(store CounterStore, enabled bool, clk clock.Clock) *Enforcer {
	if clk == nil {
		clk = clock.New()
	}
	return &Enforcer{store: store, enabled: enabled, clock: clk}
}

// CheckAndAdmit applies the quota decision for one request. Rate limiting
// applies only to metered, non-open consumption by consumer-role callers;
// every other combination is admitted without consulting the counter store.
// A counter-store failure fails closed: silently bypassing billable limits is
// worse than a rejected request.
func (e *Enforcer) CheckAndAdmit(ctx context.Context, claims *model.Claims, resourceID string, policy model.AccessPolicy, class model.AccessClass) (*model.QuotaDecision, *dx_errors.AdmissionError) {
	if !e.enabled || claims.Role != model.RoleConsumer || policy == model.AccessPolicyOpen {
		return &model.QuotaDecision{WithinLimit: true}, nil
	}

	now := e.clock.Now()
	callKey := CallCountKey(claims.Subject, resourceID, now)
	byteKey := ByteCountKey(claims.Subject, resourceID, now)

	counts, err := e.store.ReadCounters(ctx, callKey, byteKey)
	if err != nil {
		return nil, dx_errors.UpstreamUnavailable("counter store read failed", err)
	}
	consumed := &model.QuotaState{
		APICallCount:      counts[0],
		ConsumedByteCount: counts[1],
	}

	limit, granted := claims.Limit(class)
	if !granted && class != model.AccessClassSub {
		return &model.QuotaDecision{WithinLimit: false, Consumed: consumed}, nil
	}

	decision := &model.QuotaDecision{Limit: limit, Consumed: consumed}
	switch class {
	case model.AccessClassAPI:
		decision.WithinLimit = consumed.APICallCount < limit
	case model.AccessClassAsync:
		decision.WithinLimit = consumed.ConsumedByteCount < limit
	case model.AccessClassSub:
		// Subscription setup calls are not metered.
		decision.WithinLimit = true
	default:
		logger.Warn("Rejecting unknown access class",
			zap.String("class", string(class)),
			zap.String("subject", claims.Subject))
		decision.WithinLimit = false
	}

	if !decision.WithinLimit {
		logger.Info("Usage limit reached",
			zap.String("subject", claims.Subject),
			zap.String("resource", resourceID),
			zap.String("class", string(class)),
			zap.Int64("limit", limit),
			zap.Int64("apiCallCount", consumed.APICallCount),
			zap.Int64("consumedByteCount", consumed.ConsumedByteCount))
	}
	return decision, nil
}
