package postgres

import (
	"net/http"

	"github.com/linnemanlabs/go-core/log"
)

// ReqStatsMiddleware attaches a per-request DB stats accumulator to the
// request context and logs the totals once the handler completes. The
// tracer feeds the accumulator from TraceQueryEnd; requests that issue no
// queries log nothing.
func ReqStatsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := NewReqDBStatsContext(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))

		s, ok := ReqDBStatsFromContext(ctx)
		if !ok {
			return
		}
		queries, total, errCount := s.Snapshot()
		if queries == 0 {
			return
		}
		log.FromContext(ctx).Info(ctx, "request db stats",
			"db.query_count", queries,
			"db.total_duration", total.Seconds(),
			"db.error_count", errCount,
		)
	})
}
