package viz

import "github.com/charmbracelet/harmonica"

// springField eases each canvas column towards its target height so the
// density does not flicker between frames.
type springField struct {
	spring harmonica.Spring
	pos    []float64
	vel    []float64
}

func newSpringField(fps int, frequency, damping float64) springField {
	return springField{spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping)}
}

func (s *springField) resize(n int) {
	if len(s.pos) == n {
		return
	}
	s.pos = make([]float64, n)
	s.vel = make([]float64, n)
}

// snap jumps every column to its target, used after a reset.
func (s *springField) snap(targets []float64) {
	s.resize(len(targets))
	copy(s.pos, targets)
	for i := range s.vel {
		s.vel[i] = 0
	}
}

func (s *springField) step(i int, target float64) float64 {
	p, v := s.spring.Update(s.pos[i], s.vel[i], target)
	s.pos[i] = p
	s.vel[i] = v
	return p
}
