// metrics/metrics.go
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// AdmissionDecisions counts pipeline outcomes, labelled "admitted" or the
	// rejection kind.
	AdmissionDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rs",
		Subsystem: "admission",
		Name:      "decisions_total",
		Help:      "Admission pipeline outcomes by decision.",
	}, []string{"decision"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rs",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Metadata cache hits by cache name.",
	}, []string{"cache"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rs",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Metadata cache misses by cache name.",
	}, []string{"cache"})

	CacheRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rs",
		Subsystem: "cache",
		Name:      "refreshes_total",
		Help:      "Full cache refreshes by cache name and result.",
	}, []string{"cache", "result"})
)

// Handler exposes the default prometheus registry on a gin route.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
