package metrics

import "github.com/san-kum/qtunnel/internal/quantum"

type Transmission struct {
	name    string
	current float64
}

func NewTransmission() *Transmission {
	return &Transmission{name: "transmission"}
}

func (t *Transmission) Name() string { return t.name }

func (t *Transmission) Observe(s *quantum.State, p quantum.Params) {
	t.current = quantum.Transmitted(s, p)
}

func (t *Transmission) Value() float64 { return t.current }

func (t *Transmission) Reset() { t.current = 0 }

type Reflection struct {
	name    string
	current float64
}

func NewReflection() *Reflection {
	return &Reflection{name: "reflection"}
}

func (r *Reflection) Name() string { return r.name }

func (r *Reflection) Observe(s *quantum.State, p quantum.Params) {
	r.current = quantum.Reflected(s, p)
}

func (r *Reflection) Value() float64 { return r.current }

func (r *Reflection) Reset() { r.current = 0 }
