package codec

import "sync"

// Sequence tracks the monotonic, per-direction, per-connection sequence
// byte stamped into every frame. The wire value wraps modulo 256; Real
// keeps counting unbounded so packet-dump filenames stay globally ordered
// even across a wrap.
type Sequence struct {
	mu   sync.Mutex
	next byte
	real uint64
}

// Next returns the sequence byte for the next frame and advances the
// counter, wrapping from 255 back to 0.
func (s *Sequence) Next() byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.next
	s.next++
	s.real++
	return v
}

// Real returns the unbounded count of frames sequenced so far, for use in
// packet-dump filenames where a monotonic, non-wrapping value is wanted.
func (s *Sequence) Real() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.real
}
