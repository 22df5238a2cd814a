package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glamplanner_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "glamplanner_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	UsersRegistered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glamplanner_users_registered_total",
			Help: "Total users registered",
		},
		[]string{"role"},
	)

	PlansCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "glamplanner_plans_created_total",
			Help: "Total plan threads opened",
		},
	)

	RepliesAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "glamplanner_replies_appended_total",
			Help: "Total replies appended to plan threads",
		},
	)

	PlanHides = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glamplanner_plan_hides_total",
			Help: "Total hide operations",
		},
		[]string{"kind"}, // "thread", "reply_soft" or "reply_removed"
	)

	PlanDeletes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glamplanner_plan_deletes_total",
			Help: "Total hard deletes",
		},
		[]string{"kind"}, // "thread" or "reply"
	)

	MediaUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glamplanner_media_uploads_total",
			Help: "Total media uploads",
		},
		[]string{"source"}, // "file" or "url"
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glamplanner_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
