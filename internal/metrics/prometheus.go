package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Prom struct {
	reg *prometheus.Registry
	// Gauges/Counters
	ConnectionUp      prometheus.Gauge
	Subscriptions     prometheus.Gauge
	Published         prometheus.Counter
	PublishFailed     prometheus.Counter
	Delivered         prometheus.Counter
	DuplicatesDropped prometheus.Counter
}

func NewProm() *Prom {
	reg := prometheus.NewRegistry()
	p := &Prom{
		reg:               reg,
		ConnectionUp:      prometheus.NewGauge(prometheus.GaugeOpts{Name: "bus_connection_up", Help: "1 while a bus session is established"}),
		Subscriptions:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "bus_subscriptions_active", Help: "Number of active subject subscriptions"}),
		Published:         prometheus.NewCounter(prometheus.CounterOpts{Name: "bus_published_total", Help: "Total messages published"}),
		PublishFailed:     prometheus.NewCounter(prometheus.CounterOpts{Name: "bus_publish_failed_total", Help: "Total publish attempts that failed, including not-connected"}),
		Delivered:         prometheus.NewCounter(prometheus.CounterOpts{Name: "bus_delivered_total", Help: "Total messages handed to subscriber handlers"}),
		DuplicatesDropped: prometheus.NewCounter(prometheus.CounterOpts{Name: "bus_duplicates_dropped_total", Help: "Total inbound messages dropped by dedupe"}),
	}
	reg.MustRegister(p.ConnectionUp, p.Subscriptions, p.Published, p.PublishFailed, p.Delivered, p.DuplicatesDropped)
	return p
}

func (p *Prom) Handler() http.Handler { return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{}) }

// Implement Provider
func (p *Prom) SetGauge(name string, value float64) {
	switch name {
	case "bus_connection_up":
		p.ConnectionUp.Set(value)
	case "bus_subscriptions_active":
		p.Subscriptions.Set(value)
	}
}

func (p *Prom) IncCounter(name string, delta float64) {
	var c prometheus.Counter
	switch name {
	case "bus_published_total":
		c = p.Published
	case "bus_publish_failed_total":
		c = p.PublishFailed
	case "bus_delivered_total":
		c = p.Delivered
	case "bus_duplicates_dropped_total":
		c = p.DuplicatesDropped
	default:
		return
	}
	for i := 0; i < int(delta); i++ {
		c.Inc()
	}
}
