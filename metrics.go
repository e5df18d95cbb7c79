package p2pstream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the stream collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "p2pstream").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for payload sizes.
	Buckets []float64
}

// MetricsConfigOption configures NewMetrics.
type MetricsConfigOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsConfigOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsConfigOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsConfigOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "p2pstream",
		Buckets:   prometheus.ExponentialBuckets(16, 2, 8), // 16B .. 2KiB
	}
}

// Metrics holds prometheus collectors shared by any number of streams.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	messages      *prometheus.CounterVec
	payloadBytes  prometheus.Counter
	payloadSize   prometheus.Histogram
	streamErrors  *prometheus.CounterVec
	chunksDropped prometheus.Counter
	pending       prometheus.Gauge
}

// NewMetrics registers the stream collectors with reg.
func NewMetrics(reg prometheus.Registerer, opts ...MetricsConfigOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(reg)
	return &Metrics{
		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "messages_total",
			Help:        "Decoded messages by command",
			ConstLabels: config.ConstLabels,
		}, []string{"command"}),

		payloadBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "payload_bytes_total",
			Help:        "Body bytes of decoded messages",
			ConstLabels: config.ConstLabels,
		}),

		payloadSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "payload_size_bytes",
			Help:        "Body size of decoded messages",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		streamErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stream_errors_total",
			Help:        "Streams destroyed, by error kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		chunksDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "chunks_dropped_total",
			Help:        "Chunks pushed after stream destruction",
			ConstLabels: config.ConstLabels,
		}),

		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pending_chunks",
			Help:        "Chunks queued behind an active drain",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) messageDecoded(msg Message) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(commandLabel(msg.Command)).Inc()
	m.payloadBytes.Add(float64(len(msg.Body)))
	m.payloadSize.Observe(float64(len(msg.Body)))
}

func (m *Metrics) streamError(err error) {
	if m == nil {
		return
	}
	kind := "other"
	if k := KindOf(err); k != 0 {
		kind = k.Code()
	}
	m.streamErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) chunkDropped() {
	if m == nil {
		return
	}
	m.chunksDropped.Inc()
}

func (m *Metrics) pendingAdd(delta int) {
	if m == nil || delta == 0 {
		return
	}
	m.pending.Add(float64(delta))
}

// knownCommands are the command names that get their own messages_total
// series. The command field is peer-controlled, so anything else shares the
// "other" series.
var knownCommands = map[string]struct{}{
	"version": {}, "verack": {}, "addr": {}, "addrv2": {}, "sendaddrv2": {},
	"inv": {}, "getdata": {}, "notfound": {}, "getblocks": {}, "getheaders": {},
	"headers": {}, "block": {}, "tx": {}, "getaddr": {}, "mempool": {},
	"ping": {}, "pong": {}, "reject": {}, "sendheaders": {}, "feefilter": {},
	"sendcmpct": {}, "cmpctblock": {}, "getblocktxn": {}, "blocktxn": {},
	"merkleblock": {}, "filterload": {}, "filteradd": {}, "filterclear": {},
	"wtxidrelay": {}, "getcfilters": {}, "cfilter": {}, "getcfheaders": {},
	"cfheaders": {}, "getcfcheckpt": {}, "cfcheckpt": {},
}

func commandLabel(command string) string {
	if _, ok := knownCommands[command]; ok {
		return command
	}
	return "other"
}
