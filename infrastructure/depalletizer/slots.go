package depalletizer

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"

	"depalletconsole/models"
)

// DefaultSlots are used when no other candidates are available.
var DefaultSlots = []string{"A-1", "A-3", "B-2", "C-4"}

// SlotProvider returns the empty shelf slots a task may target.
type SlotProvider interface {
	Candidates(ctx context.Context) []string
}

// StaticSlots is a fixed candidate set.
type StaticSlots []string

func (s StaticSlots) Candidates(context.Context) []string {
	if len(s) == 0 {
		return DefaultSlots
	}
	return s
}

// SlotFetcher lists the backend's registered slots.
type SlotFetcher interface {
	FetchSlots(ctx context.Context) ([]models.Slot, error)
}

// RemoteSlots uses the backend's active slots and falls back to a static set
// when the call fails or no slot is active.
type RemoteSlots struct {
	Fetcher  SlotFetcher
	Fallback StaticSlots
}

func (r RemoteSlots) Candidates(ctx context.Context) []string {
	slots, err := r.Fetcher.FetchSlots(ctx)
	if err != nil {
		slog.Warn("fetch slots failed; using configured slots", slog.Any("err", err))
		return r.Fallback.Candidates(ctx)
	}
	var active []string
	for _, s := range slots {
		if s.Active && s.ID != "" {
			active = append(active, s.ID)
		}
	}
	if len(active) == 0 {
		return r.Fallback.Candidates(ctx)
	}
	return active
}

// SlotSelector picks one slot out of a non-empty candidate list.
type SlotSelector interface {
	Select(candidates []string) string
}

// RandomSelector picks uniformly at random.
type RandomSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSelector uses rng, or a randomly seeded source when rng is nil.
func NewRandomSelector(rng *rand.Rand) *RandomSelector {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &RandomSelector{rng: rng}
}

func (s *RandomSelector) Select(candidates []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return candidates[s.rng.IntN(len(candidates))]
}

// FixedSelector always picks the named slot.
type FixedSelector string

func (f FixedSelector) Select([]string) string {
	return string(f)
}
