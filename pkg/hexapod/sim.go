package hexapod

import "sync"

// Simulator is an in-memory ServoController for running the stack
// without a servo board attached. Targets are reached instantly.
type Simulator struct {
	mu        sync.Mutex
	positions map[uint8]uint16
}

var _ ServoController = (*Simulator)(nil)

// NewSimulator returns a simulator with all channels at zero.
func NewSimulator() *Simulator {
	return &Simulator{positions: make(map[uint8]uint16)}
}

func (s *Simulator) SetSpeed(channel uint8, speed uint16) error        { return nil }
func (s *Simulator) SetAcceleration(channel uint8, accel uint16) error { return nil }

func (s *Simulator) SetTarget(channel uint8, target uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[channel] = target
	return nil
}

func (s *Simulator) SetMultipleTargets(first uint8, targets []uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range targets {
		s.positions[first+uint8(i)] = t
	}
	return nil
}

func (s *Simulator) GetPosition(channel uint8) (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positions[channel], nil
}

// GetMovingState always reports settled.
func (s *Simulator) GetMovingState() (bool, error) { return false, nil }

func (s *Simulator) GoHome() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.positions {
		s.positions[ch] = 0
	}
	return nil
}
