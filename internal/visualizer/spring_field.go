package visualizer

import "github.com/charmbracelet/harmonica"

// springValue eases a displayed value toward its target.
type springValue struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
}

func newSpringValue(fps int, frequency, damping float64) springValue {
	return springValue{spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping)}
}

func (s *springValue) step(target float64) float64 {
	s.pos, s.vel = s.spring.Update(s.pos, s.vel, target)
	return s.pos
}
