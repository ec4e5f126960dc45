// Package scene owns the scene-transition sink boundary.
//
// Transitions are fire-and-forget: the requester never observes
// success or failure of the destination load.
package scene

import (
	"sync"

	"github.com/rs/zerolog"
)

// Symbolic destinations used by the boot runtime.
const (
	DestIntro = "scene.intro"
	DestMenu  = "scene.menu"
)

// Router accepts symbolic destination identifiers.
type Router interface {
	Transition(dest string)
}

// LogRouter records transitions to the diagnostic log only. It stands
// in for a real frontend scene loader in the standalone runtime.
type LogRouter struct {
	Logger zerolog.Logger
}

func (r LogRouter) Transition(dest string) {
	r.Logger.Info().Str("dest", dest).Msg("scene_transition")
}

// Recorder captures transitions in order for assertions.
type Recorder struct {
	mu    sync.Mutex
	dests []string
}

func (r *Recorder) Transition(dest string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dests = append(r.dests, dest)
}

// Destinations returns a snapshot of recorded transitions in order.
func (r *Recorder) Destinations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.dests...)
}
