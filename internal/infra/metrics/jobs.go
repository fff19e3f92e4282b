package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(jobsSubmittedTotal, jobsFinishedTotal, jobChunksTotal, submitRateLimitedTotal)
}

var jobsSubmittedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "relay_jobs_submitted_total",
		Help: "Total number of jobs accepted by submit.",
	},
)

var jobsFinishedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "relay_jobs_finished_total",
		Help: "Total number of jobs that reached a terminal state, labeled by status.",
	},
	[]string{"status"}, // 'done', 'error', 'cancelled'
)

var jobChunksTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "relay_job_chunks_total",
		Help: "Total number of reply deltas appended to jobs.",
	},
)

var submitRateLimitedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "relay_submit_rate_limited_total",
		Help: "Submissions rejected by the per-user rate limiter.",
	},
)

func IncJobSubmitted() { jobsSubmittedTotal.Inc() }

func IncJobFinished(status string) { jobsFinishedTotal.WithLabelValues(status).Inc() }

func IncJobChunk() { jobChunksTotal.Inc() }

func IncSubmitRateLimited() { submitRateLimitedTotal.Inc() }
