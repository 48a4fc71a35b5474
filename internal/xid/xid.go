package xid

import (
	"sync"

	"github.com/google/uuid"

	"kasirlite/internal/clock"
)

// New returns a prefixed random identifier, e.g. "draft-6f1c...".
func New(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// Sequence issues numeric ids derived from the millisecond clock. Ids are
// strictly increasing even when the clock stalls or goes backwards.
type Sequence struct {
	mu    sync.Mutex
	clock clock.Clock
	last  int64
}

func NewSequence(c clock.Clock) *Sequence {
	if c == nil {
		c = clock.NewReal()
	}
	return &Sequence{clock: c}
}

// Observe records an id issued elsewhere (e.g. loaded from disk) so that
// Next never hands it out again.
func (s *Sequence) Observe(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id > s.last {
		s.last = id
	}
}

func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.clock.Now().UnixMilli()
	if next <= s.last {
		next = s.last + 1
	}
	s.last = next
	return next
}
