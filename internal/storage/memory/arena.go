package memory

import (
	"fmt"

	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

// arena is the cached balance chain of one category: a dense slice indexed by
// month offset from origin. Every entry in months is fresh; invalidation
// truncates the slice.
type arena struct {
	origin month.Month
	months []storage.CategoryMonth
	epoch  int64
}

func (a *arena) clone() *arena {
	c := &arena{origin: a.origin, epoch: a.epoch}
	c.months = append([]storage.CategoryMonth(nil), a.months...)
	return c
}

func (a *arena) state() storage.CacheState {
	st := storage.CacheState{Epoch: a.epoch}
	if len(a.months) > 0 {
		through := a.origin.AddMonths(len(a.months) - 1)
		st.FreshThrough = &through
	}
	return st
}

func (a *arena) get(m month.Month) (storage.CategoryMonth, bool) {
	idx := m.Sub(a.origin)
	if len(a.months) == 0 || idx < 0 || idx >= len(a.months) {
		return storage.CategoryMonth{}, false
	}
	return a.months[idx], true
}

// set writes month m. An empty chain must start at the category's first
// month; anything else came from a sweep that read an older category.
func (a *arena) set(epoch int64, first, m month.Month, cm storage.CategoryMonth) error {
	if epoch != a.epoch {
		return storage.ErrStaleRead
	}
	if len(a.months) == 0 {
		if m != first {
			return fmt.Errorf("cache origin %s is not first month %s: %w", m, first, storage.ErrStaleRead)
		}
		a.origin = m
		a.months = append(a.months, cm)
		return nil
	}
	idx := m.Sub(a.origin)
	switch {
	case idx < 0:
		return fmt.Errorf("cache write for %s precedes fresh origin %s", m, a.origin)
	case idx < len(a.months):
		a.months[idx] = cm
	case idx == len(a.months):
		a.months = append(a.months, cm)
	default:
		return fmt.Errorf("cache write for %s leaves a gap after %s", m, a.origin.AddMonths(len(a.months)-1))
	}
	return nil
}

func (a *arena) invalidateFrom(m month.Month) {
	a.epoch++
	idx := m.Sub(a.origin)
	if idx <= 0 {
		a.months = a.months[:0]
		return
	}
	if idx < len(a.months) {
		a.months = a.months[:idx]
	}
}
