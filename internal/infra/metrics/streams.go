package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(streamSubscribers, streamFramesDroppedTotal)
}

var streamSubscribers = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "relay_stream_subscribers",
		Help: "Currently open live-update subscriptions.",
	},
)

var streamFramesDroppedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "relay_stream_frames_dropped_total",
		Help: "Frames dropped because a subscriber's buffer was full.",
	},
)

func IncStreamSubscribers()  { streamSubscribers.Inc() }
func DecStreamSubscribers()  { streamSubscribers.Dec() }
func IncStreamFrameDropped() { streamFramesDroppedTotal.Inc() }
