package engine

import "sync/atomic"

// Instance wraps a runtime event-instance handle with an ownership tag.
// Auto-released instances become runtime-owned: the runtime recycles them
// when playback completes, so the wrapper rejects every operation after the
// release instead of touching a recycled handle.
type Instance struct {
	handle EventInstance

	// engineOwned marks instances handed over to the runtime via
	// auto-release; their remaining lifetime is the runtime's.
	engineOwned bool

	released atomic.Bool
}

// Released reports whether the handle has been given back to the runtime.
func (i *Instance) Released() bool {
	return i.released.Load()
}

// EngineOwned reports whether the runtime owns this instance's lifetime.
func (i *Instance) EngineOwned() bool {
	return i.engineOwned
}

// usable reports whether the wrapper still fronts a live handle.
func (i *Instance) usable() bool {
	return i != nil && i.handle != nil && !i.released.Load() && i.handle.IsValid()
}

// PlayOptions configure one PlayEvent call.
type PlayOptions struct {
	Attributes   Attributes3D
	UserData     any
	Callback     EventCallback
	CallbackType EventCallbackType

	// AutoStart starts playback immediately. AutoRelease hands the started
	// instance to the runtime, which recycles it when playback finishes.
	// AutoRelease only applies to an auto-started instance; without
	// AutoStart the handle stays caller-owned regardless.
	AutoStart   bool
	AutoRelease bool
}

// DefaultPlayOptions is the fire-and-forget configuration: default spatial
// attributes, no callback, start immediately and let the runtime reclaim
// the instance.
func DefaultPlayOptions() PlayOptions {
	return PlayOptions{
		Attributes:   DefaultAttributes3D(),
		CallbackType: EventCallbackAll,
		AutoStart:    true,
		AutoRelease:  true,
	}
}

// PlayEvent resolves a logical event path, creates an instance, binds the
// supplied attributes (always), callback and user data (only when given),
// and applies the auto-start/auto-release policy. Returns nil when the
// engine is not ready, the path does not resolve, or instance creation
// fails. An auto-released instance must not be controlled through the
// returned wrapper once playback may have finished; the wrapper enforces
// this by tagging itself released.
func (e *Engine) PlayEvent(studioPath string, opts PlayOptions) *Instance {
	if !e.IsInitialized() {
		return nil
	}

	description, err := e.sys.Event(studioPath)
	if err != nil {
		e.log.Error("failed to resolve audio event", "path", studioPath, "error", err)
		return nil
	}

	handle, err := description.CreateInstance()
	if err != nil {
		e.log.Error("failed to create event instance", "path", studioPath, "error", err)
		return nil
	}

	instance := &Instance{handle: handle}

	if err := handle.Set3DAttributes(opts.Attributes); err != nil {
		e.warn("failed to bind 3d attributes", "path", studioPath, "error", err)
	}

	if opts.Callback != nil {
		mask := opts.CallbackType
		if mask == 0 {
			mask = EventCallbackAll
		}
		if err := handle.SetCallback(opts.Callback, mask); err != nil {
			e.warn("failed to bind event callback", "path", studioPath, "error", err)
		}
	}

	if opts.UserData != nil {
		if err := handle.SetUserData(opts.UserData); err != nil {
			e.warn("failed to bind event user data", "path", studioPath, "error", err)
		}
	}

	if opts.AutoStart {
		if err := handle.Start(); err != nil {
			e.log.Error("failed to start event instance", "path", studioPath, "error", err)
		}
		if opts.AutoRelease {
			instance.engineOwned = true
			instance.released.Store(true)
			if err := handle.Release(); err != nil {
				e.log.Error("failed to release event instance", "path", studioPath, "error", err)
			}
		}
	}

	return instance
}

// InstanceStart begins playback of a caller-owned instance.
func (e *Engine) InstanceStart(instance *Instance) bool {
	if !e.IsInitialized() || !instance.usable() {
		return false
	}
	return instance.handle.Start() == nil
}

// InstanceStop stops playback, fading out when allowFadeOut is set.
func (e *Engine) InstanceStop(instance *Instance, allowFadeOut bool) bool {
	if !e.IsInitialized() || !instance.usable() {
		return false
	}
	return instance.handle.Stop(stopMode(allowFadeOut)) == nil
}

// InstanceRelease hands the instance back to the runtime. The wrapper is
// unusable afterwards.
func (e *Engine) InstanceRelease(instance *Instance) bool {
	if !e.IsInitialized() || !instance.usable() {
		return false
	}
	instance.released.Store(true)
	return instance.handle.Release() == nil
}

// InstanceSetPaused pauses or resumes playback.
func (e *Engine) InstanceSetPaused(instance *Instance, paused bool) bool {
	if !e.IsInitialized() || !instance.usable() {
		return false
	}
	return instance.handle.SetPaused(paused) == nil
}

// InstancePaused reports the pause state. The second return is false when
// preconditions fail or the runtime rejects the query.
func (e *Engine) InstancePaused(instance *Instance) (bool, bool) {
	if !e.IsInitialized() || !instance.usable() {
		return false, false
	}
	paused, err := instance.handle.Paused()
	if err != nil {
		return false, false
	}
	return paused, true
}
