package engine

// Bus and VCA forwarding. Every operation checks readiness and a non-nil
// handle, then forwards and reports the runtime's result as a boolean. Bus
// and VCA lifetimes are managed entirely by the runtime; the façade never
// releases them.

// GetBus resolves a logical bus path.
func (e *Engine) GetBus(studioPath string) (Bus, bool) {
	if !e.IsInitialized() {
		return nil, false
	}
	bus, err := e.sys.Bus(studioPath)
	if err != nil {
		return nil, false
	}
	return bus, true
}

// BusSetVolume sets the bus's nominal volume.
func (e *Engine) BusSetVolume(bus Bus, volume float32) bool {
	if !e.IsInitialized() || bus == nil {
		return false
	}
	return bus.SetVolume(volume) == nil
}

// BusVolume returns the nominal volume; the final value is discarded.
func (e *Engine) BusVolume(bus Bus) (float32, bool) {
	volume, _, ok := e.BusVolumeFinal(bus)
	return volume, ok
}

// BusVolumeFinal returns the nominal volume and the final post-mix,
// post-hierarchy volume.
func (e *Engine) BusVolumeFinal(bus Bus) (volume, finalVolume float32, ok bool) {
	if !e.IsInitialized() || bus == nil {
		return 0, 0, false
	}
	volume, finalVolume, err := bus.Volume()
	if err != nil {
		return 0, 0, false
	}
	return volume, finalVolume, true
}

// BusSetMute mutes or unmutes the bus.
func (e *Engine) BusSetMute(bus Bus, mute bool) bool {
	if !e.IsInitialized() || bus == nil {
		return false
	}
	return bus.SetMute(mute) == nil
}

// BusMuted reports the bus's mute state.
func (e *Engine) BusMuted(bus Bus) (bool, bool) {
	if !e.IsInitialized() || bus == nil {
		return false, false
	}
	muted, err := bus.Muted()
	if err != nil {
		return false, false
	}
	return muted, true
}

// BusSetPaused pauses or resumes the bus.
func (e *Engine) BusSetPaused(bus Bus, paused bool) bool {
	if !e.IsInitialized() || bus == nil {
		return false
	}
	return bus.SetPaused(paused) == nil
}

// BusPaused reports the bus's pause state.
func (e *Engine) BusPaused(bus Bus) (bool, bool) {
	if !e.IsInitialized() || bus == nil {
		return false, false
	}
	paused, err := bus.Paused()
	if err != nil {
		return false, false
	}
	return paused, true
}

// BusStopAllEvents stops every event instance routed into the bus, fading
// out when allowFadeOut is set.
func (e *Engine) BusStopAllEvents(bus Bus, allowFadeOut bool) bool {
	if !e.IsInitialized() || bus == nil {
		return false
	}
	return bus.StopAllEvents(stopMode(allowFadeOut)) == nil
}

// GetVCA resolves a logical VCA path.
func (e *Engine) GetVCA(studioPath string) (VCA, bool) {
	if !e.IsInitialized() {
		return nil, false
	}
	vca, err := e.sys.VCA(studioPath)
	if err != nil {
		return nil, false
	}
	return vca, true
}

// VCAVolume returns the nominal volume; the final value is discarded.
func (e *Engine) VCAVolume(vca VCA) (float32, bool) {
	volume, _, ok := e.VCAVolumeFinal(vca)
	return volume, ok
}

// VCAVolumeFinal returns the nominal and final volumes.
func (e *Engine) VCAVolumeFinal(vca VCA) (volume, finalVolume float32, ok bool) {
	if !e.IsInitialized() || vca == nil {
		return 0, 0, false
	}
	volume, finalVolume, err := vca.Volume()
	if err != nil {
		return 0, 0, false
	}
	return volume, finalVolume, true
}
