package playback

import (
	"time"

	"github.com/llehouerou/tunedeck/internal/observer"
)

// TimeUpdate is emitted on every playback progress tick.
type TimeUpdate struct {
	Position time.Duration
	Duration time.Duration
}

// Loaded is emitted once per successful load, when the source can play
// through without stalling.
type Loaded struct {
	URL      string
	Duration time.Duration
}

// bus holds the four event streams. Emission happens outside the
// controller lock.
type bus struct {
	timeUpdate observer.List[TimeUpdate]
	loaded     observer.List[Loaded]
	errs       observer.List[*Error]
	playState  observer.List[bool]
}

func (b *bus) clear() {
	b.timeUpdate.Clear()
	b.loaded.Clear()
	b.errs.Clear()
	b.playState.Clear()
}
