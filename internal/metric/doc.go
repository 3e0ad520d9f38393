// Package metric exposes network activity as Prometheus metrics.
//
// A Collector is an engine.Observer; attach it to a network (or simulator)
// and register it with any prometheus.Registerer:
//
//	reg := prometheus.NewRegistry()
//	c, err := metric.NewCollector(reg)
//	sim := simulator.New(registry, simulator.WithObserver(c))
package metric
