package metrics

import "github.com/san-kum/qtunnel/internal/quantum"

// Norm reports the total probability of the last observed state.
type Norm struct {
	name    string
	current float64
}

func NewNorm() *Norm {
	return &Norm{name: "norm"}
}

func (n *Norm) Name() string { return n.name }

func (n *Norm) Observe(s *quantum.State, p quantum.Params) {
	n.current = quantum.TotalProbability(s, p.DX)
}

func (n *Norm) Value() float64 { return n.current }

func (n *Norm) Reset() { n.current = 0 }

// NormLoss reports 1 - final/initial total probability, the fraction taken
// out by the absorber.
type NormLoss struct {
	name    string
	initial float64
	current float64
	samples int
}

func NewNormLoss() *NormLoss {
	return &NormLoss{name: "norm_loss"}
}

func (n *NormLoss) Name() string { return n.name }

func (n *NormLoss) Observe(s *quantum.State, p quantum.Params) {
	norm := quantum.TotalProbability(s, p.DX)
	if n.samples == 0 {
		n.initial = norm
	}
	n.current = norm
	n.samples++
}

func (n *NormLoss) Value() float64 {
	if n.samples == 0 || n.initial == 0 {
		return 0
	}
	return 1 - n.current/n.initial
}

func (n *NormLoss) Reset() {
	n.initial = 0
	n.current = 0
	n.samples = 0
}
