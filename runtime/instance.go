package runtime

import (
	"fmt"
	"sync"

	"github.com/horacv/audioengine/engine"
)

// eventDescription is a playable definition resolved from a loaded bank.
// Sample data is decoded to interleaved PCM at load time, so instances only
// read from it.
type eventDescription struct {
	sys      *system
	path     string
	busPath  string
	rate     int
	channels int
	pcm      []int16
}

func (d *eventDescription) CreateInstance() (engine.EventInstance, error) {
	if d.sys == nil {
		return nil, fmt.Errorf("runtime: event %q has no system", d.path)
	}

	inst := &eventInstance{
		desc: d,
		gain: 1,
		fade: 1,
	}
	inst.valid = true

	d.sys.addInstance(inst)
	return inst, nil
}

// fadeStep is the per-frame gain decrement applied during a fade-out stop,
// roughly 50ms at 48kHz.
const fadeStep = 1.0 / 2400

// eventInstance is one playback of an event. The mixer thread reads it
// while the owner goroutine controls it, so all state is mutex-guarded.
type eventInstance struct {
	desc *eventDescription

	mu       sync.Mutex
	valid    bool
	started  bool
	paused   bool
	stopped  bool
	released bool
	fading   bool
	fade     float32
	gain     float32
	pos      int // frame position into desc.pcm

	attrs    engine.Attributes3D
	userData any

	callback     engine.EventCallback
	callbackMask engine.EventCallbackType

	params map[string]float32
}

func (i *eventInstance) Set3DAttributes(attrs engine.Attributes3D) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.valid {
		return engine.ErrInstanceReleased
	}
	i.attrs = attrs
	return nil
}

func (i *eventInstance) SetCallback(cb engine.EventCallback, mask engine.EventCallbackType) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.valid {
		return engine.ErrInstanceReleased
	}
	i.callback = cb
	i.callbackMask = mask
	return nil
}

func (i *eventInstance) SetUserData(userData any) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.valid {
		return engine.ErrInstanceReleased
	}
	i.userData = userData
	return nil
}

func (i *eventInstance) Start() error {
	i.mu.Lock()
	if !i.valid {
		i.mu.Unlock()
		return engine.ErrInstanceReleased
	}
	i.started = true
	i.stopped = false
	i.fading = false
	i.fade = 1
	i.pos = 0
	cb, mask := i.callback, i.callbackMask
	i.mu.Unlock()

	if cb != nil && mask&engine.EventCallbackStarted != 0 {
		_ = cb(engine.EventCallbackStarted, i, nil)
	}
	return nil
}

func (i *eventInstance) Stop(mode engine.StopMode) error {
	i.mu.Lock()
	if !i.valid {
		i.mu.Unlock()
		return engine.ErrInstanceReleased
	}
	if mode == engine.StopAllowFadeOut && i.started && !i.stopped {
		i.fading = true
	} else {
		i.stopped = true
	}
	cb, mask := i.callback, i.callbackMask
	i.mu.Unlock()

	if cb != nil && mask&engine.EventCallbackStopped != 0 {
		_ = cb(engine.EventCallbackStopped, i, nil)
	}
	return nil
}

func (i *eventInstance) Release() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.valid {
		return engine.ErrInstanceReleased
	}
	i.released = true
	return nil
}

func (i *eventInstance) SetPaused(paused bool) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.valid {
		return engine.ErrInstanceReleased
	}
	i.paused = paused
	return nil
}

func (i *eventInstance) Paused() (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.valid {
		return false, engine.ErrInstanceReleased
	}
	return i.paused, nil
}

func (i *eventInstance) SetParameterByName(name string, value float32, _ bool) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.valid {
		return engine.ErrInstanceReleased
	}
	if i.params == nil {
		i.params = make(map[string]float32)
	}
	i.params[name] = value
	return nil
}

func (i *eventInstance) SetParameterByNameWithLabel(name, label string, ignoreSeekSpeed bool) error {
	// Labeled parameters index into the event's label table; the reference
	// runtime keeps only the label hash as the value.
	return i.SetParameterByName(name, labelValue(label), ignoreSeekSpeed)
}

func (i *eventInstance) IsValid() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.valid
}

// finished reports whether playback is over and the instance can be reaped
// once released. Caller holds i.mu.
func (i *eventInstance) finishedLocked() bool {
	if i.stopped {
		return true
	}
	if !i.started {
		return false
	}
	frames := len(i.desc.pcm) / i.desc.channels
	return i.pos >= frames
}

// mix renders the instance into out (interleaved, outChannels wide) at the
// given bus gain, advancing the playhead. Gains at or below vol0 keep the
// instance virtual: the playhead advances but nothing is mixed.
func (i *eventInstance) mix(out []int16, outChannels int, busGain, vol0 float32) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.valid || !i.started || i.paused || i.stopped {
		return
	}

	evChannels := i.desc.channels
	totalFrames := len(i.desc.pcm) / evChannels
	outFrames := len(out) / outChannels

	for frame := 0; frame < outFrames && i.pos < totalFrames; frame++ {
		gain := i.gain * i.fade * busGain

		if i.fading {
			i.fade -= fadeStep
			if i.fade <= 0 {
				i.stopped = true
				return
			}
		}

		if gain > vol0 {
			src := i.pos * evChannels
			for ch := 0; ch < outChannels; ch++ {
				sample := float32(i.desc.pcm[src+ch%evChannels]) * gain
				idx := frame*outChannels + ch
				out[idx] = clampAdd(out[idx], sample)
			}
		}
		i.pos++
	}

	if i.pos >= totalFrames {
		i.stopped = true
	}
}

// clampAdd mixes a sample into an accumulator with saturation.
func clampAdd(acc int16, sample float32) int16 {
	mixed := float32(acc) + sample
	if mixed > 32767 {
		return 32767
	}
	if mixed < -32768 {
		return -32768
	}
	return int16(mixed)
}

// labelValue derives a stable numeric value for a parameter label.
func labelValue(label string) float32 {
	var sum uint32
	for i := 0; i < len(label); i++ {
		sum = sum*31 + uint32(label[i])
	}
	return float32(sum % 1024)
}
