package runtime

import (
	"strings"
	"sync"

	"github.com/horacv/audioengine/engine"
)

// masterBusPath is the root of the bus hierarchy; every bank bus hangs off
// it and every event without an explicit bus routes into it.
const masterBusPath = "bus:/"

// busImpl is a mixer bus. Volume/mute/pause feed the mixer's per-instance
// gain; the final volume folds in the master bus.
type busImpl struct {
	sys  *system
	path string

	mu     sync.Mutex
	volume float32
	muted  bool
	paused bool
}

func newBus(sys *system, path string) *busImpl {
	return &busImpl{sys: sys, path: path, volume: 1}
}

func (b *busImpl) SetVolume(volume float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.volume = volume
	return nil
}

func (b *busImpl) Volume() (float32, float32, error) {
	b.mu.Lock()
	volume := b.volume
	muted := b.muted
	b.mu.Unlock()

	final := volume
	if b.path != masterBusPath {
		if master := b.sys.lookupBus(masterBusPath); master != nil {
			final *= master.effectiveGain()
		}
	}
	if muted {
		final = 0
	}
	return volume, final, nil
}

func (b *busImpl) SetMute(mute bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.muted = mute
	return nil
}

func (b *busImpl) Muted() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.muted, nil
}

func (b *busImpl) SetPaused(paused bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paused = paused
	return nil
}

func (b *busImpl) Paused() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paused, nil
}

// StopAllEvents stops every instance routed into this bus or any bus below
// it in the path hierarchy.
func (b *busImpl) StopAllEvents(mode engine.StopMode) error {
	for _, inst := range b.sys.instancesSnapshot() {
		busPath := inst.desc.busPath
		if busPath == "" {
			busPath = masterBusPath
		}
		if b.path == masterBusPath || strings.HasPrefix(busPath, b.path) {
			_ = inst.Stop(mode)
		}
	}
	return nil
}

// effectiveGain is the gain this bus contributes to instances routed into
// it: zero when muted. A paused bus keeps its gain; pause halts playback
// instead of silencing it and is queried separately via isPaused.
func (b *busImpl) effectiveGain() float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.muted {
		return 0
	}
	return b.volume
}

func (b *busImpl) isPaused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paused
}

// vcaImpl is a volume-control group. The reference runtime models no
// modulation, so the final volume is the nominal volume scaled by the
// master bus.
type vcaImpl struct {
	sys  *system
	path string

	mu     sync.Mutex
	volume float32
}

func newVCA(sys *system, path string, volume float32) *vcaImpl {
	return &vcaImpl{sys: sys, path: path, volume: volume}
}

func (v *vcaImpl) Volume() (float32, float32, error) {
	v.mu.Lock()
	volume := v.volume
	v.mu.Unlock()

	final := volume
	if master := v.sys.lookupBus(masterBusPath); master != nil {
		final *= master.effectiveGain()
	}
	return volume, final, nil
}
