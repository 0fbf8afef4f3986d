package metrics

// Provider is the metrics seam the messaging layer reports through.
// Tests and the disabled-metrics path use the no-op implementation.
type Provider interface {
	SetGauge(name string, value float64)
	IncCounter(name string, delta float64)
}

type Noop struct{}

func (Noop) SetGauge(string, float64)   {}
func (Noop) IncCounter(string, float64) {}
