package boot

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// The coordinator slot holds at most one live coordinator per process.
// The first successful Acquire owns the slot until Release; later
// coordinators must do no further work.
var (
	slotMu sync.Mutex
	slot   *Coordinator
)

// Acquire claims the process-wide coordinator slot. It returns true for
// the first coordinator (and again for the current owner), false for
// any other instance while the slot is occupied. Losers are expected to
// discard themselves without side effects.
func Acquire(c *Coordinator) bool {
	if c == nil {
		return false
	}
	slotMu.Lock()
	defer slotMu.Unlock()
	if slot == nil {
		slot = c
		log.Debug().Str("node", c.node).Msg("coordinator_slot_acquired")
		return true
	}
	if slot == c {
		return true
	}
	log.Warn().Str("node", c.node).Msg("coordinator_slot_occupied")
	return false
}

// Release clears the slot only when c is the current owner, permitting
// a later coordinator to take ownership.
func Release(c *Coordinator) {
	slotMu.Lock()
	defer slotMu.Unlock()
	if slot != c {
		return
	}
	slot = nil
	if c != nil {
		log.Debug().Str("node", c.node).Msg("coordinator_slot_released")
	}
}

// Current returns the slot occupant, if any.
func Current() *Coordinator {
	slotMu.Lock()
	defer slotMu.Unlock()
	return slot
}
