package metric

import (
	"fmt"
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/roach88/microflo/internal/engine"
)

const namespace = "microflo"

// Collector counts packets, deliveries and failures of the networks it
// observes.
type Collector struct {
	PacketsSent      prometheus.Counter
	PacketsDelivered *prometheus.CounterVec
	ProcessingErrors prometheus.Counter
	Nodes            prometheus.Gauge

	mu         sync.RWMutex
	components map[string]string // node id -> component type
}

// NewCollector creates a collector and registers its metrics with reg.
// A nil reg leaves the metrics unregistered.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		PacketsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_sent_total",
			Help:      "Total number of packets enqueued, IIPs included",
		}),
		PacketsDelivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "packets_delivered_total",
				Help:      "Total number of packets delivered, by destination component type",
			},
			[]string{"component"},
		),
		ProcessingErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processing_errors_total",
			Help:      "Total number of processing failures, step quota overruns included",
		}),
		Nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nodes",
			Help:      "Number of nodes added to observed networks",
		}),
		components: make(map[string]string),
	}

	if reg != nil {
		for _, m := range []prometheus.Collector{c.PacketsSent, c.PacketsDelivered, c.ProcessingErrors, c.Nodes} {
			if err := reg.Register(m); err != nil {
				return nil, fmt.Errorf("register metrics: %w", err)
			}
		}
	}
	return c, nil
}

// NodeAdded implements engine.Observer.
func (c *Collector) NodeAdded(n *engine.Node) {
	c.mu.Lock()
	c.components[n.ID()] = n.Component()
	c.mu.Unlock()
	c.Nodes.Inc()
}

// Connected implements engine.Observer.
func (c *Collector) Connected(engine.Connection) {}

// Sent implements engine.Observer.
func (c *Collector) Sent(engine.Message) {
	c.PacketsSent.Inc()
}

// Delivered implements engine.Observer.
func (c *Collector) Delivered(m engine.Message) {
	c.mu.RLock()
	comp, ok := c.components[m.Dst.Node]
	c.mu.RUnlock()
	if !ok {
		comp = "unknown"
	}
	c.PacketsDelivered.WithLabelValues(comp).Inc()
}

// Failed implements engine.Observer.
func (c *Collector) Failed(error) {
	c.ProcessingErrors.Inc()
}

// WriteText writes every metric family gathered from g in the Prometheus
// text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
