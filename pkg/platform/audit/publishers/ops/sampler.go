package ops

import (
	"hash/fnv"
	"math"
	"math/rand/v2"

	audit "taxfile/pkg/platform/audit"
)

// Sampler keeps a fraction of ops events. The decision is derived from the
// filing id when one is set, so a filing's trail is either kept whole or
// dropped whole. Actions passed as keep are never sampled out.
type Sampler struct {
	rate float64
	keep map[string]struct{}
}

// NewSampler keeps rate (clamped to [0,1]) of events.
func NewSampler(rate float64, keep ...audit.AuditEvent) *Sampler {
	s := &Sampler{rate: min(max(rate, 0), 1), keep: make(map[string]struct{}, len(keep))}
	for _, action := range keep {
		s.keep[string(action)] = struct{}{}
	}
	return s
}

// ShouldSample reports whether event is kept.
func (s *Sampler) ShouldSample(event audit.OpsEvent) bool {
	if _, ok := s.keep[event.Action]; ok {
		return true
	}
	switch {
	case s.rate >= 1:
		return true
	case s.rate <= 0:
		return false
	case event.Subject == "":
		return rand.Float64() < s.rate //nolint:gosec // sampling doesn't need crypto rand
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(event.Subject))
	return float64(h.Sum32())/math.MaxUint32 < s.rate
}
