package runtime

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"plugin"

	"github.com/gen2brain/malgo"

	"github.com/horacv/audioengine/engine"
)

// coreSystem is the low-level handle. Setters stage state that takes effect
// when the owning system initializes; device enumeration is live through a
// malgo context created on first use.
type coreSystem struct {
	log *slog.Logger
	ctx *malgo.AllocatedContext

	sampleRate      int
	speakerMode     engine.SpeakerMode
	realChannels    int
	dspBufferLength int
	dspBufferCount  int
	output          engine.OutputType
	driverIndex     int
	adv             engine.CoreAdvancedSettings

	errorCallback engine.ErrorCallback
	errorMask     engine.SystemCallbackType

	debugLevel    engine.DebugFlags
	debugCallback engine.DebugLogCallback

	pluginPath string
	nextHandle uint32
	plugins    map[uint32]*plugin.Plugin
}

func newCoreSystem(log *slog.Logger) *coreSystem {
	return &coreSystem{
		log:             log,
		sampleRate:      48000,
		speakerMode:     engine.SpeakerModeStereo,
		realChannels:    64,
		dspBufferLength: 1024,
		dspBufferCount:  4,
		plugins:         make(map[uint32]*plugin.Plugin),
	}
}

// backendsFor maps an output type to a malgo backend priority list. A nil
// list lets miniaudio pick the platform default.
func backendsFor(output engine.OutputType) []malgo.Backend {
	switch output {
	case engine.OutputWASAPI:
		return []malgo.Backend{malgo.BackendWasapi}
	case engine.OutputPulseAudio:
		return []malgo.Backend{malgo.BackendPulseaudio}
	case engine.OutputALSA:
		return []malgo.Backend{malgo.BackendAlsa}
	case engine.OutputCoreAudio:
		return []malgo.Backend{malgo.BackendCoreaudio}
	case engine.OutputOpenSL:
		return []malgo.Backend{malgo.BackendOpensl}
	case engine.OutputAAudio:
		return []malgo.Backend{malgo.BackendAaudio}
	case engine.OutputWebAudio:
		return []malgo.Backend{malgo.BackendWebaudio}
	case engine.OutputNoSound, engine.OutputNoSoundNRT:
		return []malgo.Backend{malgo.BackendNull}
	default:
		return nil
	}
}

func (c *coreSystem) ensureContext() error {
	if c.ctx != nil {
		return nil
	}

	ctx, err := malgo.InitContext(backendsFor(c.output), malgo.ContextConfig{}, func(message string) {
		c.debugLog(engine.DebugLevelLog, message)
	})
	if err != nil {
		return fmt.Errorf("runtime: init audio context: %w", err)
	}
	c.ctx = ctx
	return nil
}

func (c *coreSystem) dropContext() {
	if c.ctx == nil {
		return
	}
	_ = c.ctx.Uninit()
	c.ctx.Free()
	c.ctx = nil
}

func (c *coreSystem) playbackDevices() ([]malgo.DeviceInfo, error) {
	if err := c.ensureContext(); err != nil {
		return nil, err
	}
	return c.ctx.Devices(malgo.Playback)
}

func (c *coreSystem) DriverCount() (int, error) {
	devices, err := c.playbackDevices()
	if err != nil {
		return 0, err
	}
	return len(devices), nil
}

func (c *coreSystem) DriverInfo(index int) (engine.DriverInfo, error) {
	devices, err := c.playbackDevices()
	if err != nil {
		return engine.DriverInfo{}, err
	}
	if index < 0 || index >= len(devices) {
		return engine.DriverInfo{}, fmt.Errorf("runtime: driver index %d out of range", index)
	}

	return engine.DriverInfo{
		Name:        devices[index].Name(),
		SystemRate:  c.sampleRate,
		SpeakerMode: c.speakerMode,
		Channels:    channelsFor(c.speakerMode),
	}, nil
}

func (c *coreSystem) SetSoftwareChannels(realChannels int) error {
	if realChannels <= 0 {
		return fmt.Errorf("runtime: invalid software channel count %d", realChannels)
	}
	c.realChannels = realChannels
	return nil
}

func (c *coreSystem) SetSoftwareFormat(sampleRate int, mode engine.SpeakerMode) error {
	if sampleRate > 0 {
		c.sampleRate = sampleRate
	}
	c.speakerMode = mode
	return nil
}

func (c *coreSystem) SetDSPBufferSize(length, count int) error {
	if length > 0 {
		c.dspBufferLength = length
	}
	if count > 0 {
		c.dspBufferCount = count
	}
	return nil
}

func (c *coreSystem) SetOutput(output engine.OutputType) error {
	if output == c.output {
		return nil
	}
	c.output = output
	// The backend list is fixed at context creation, so an output change
	// invalidates the current context.
	c.dropContext()
	return nil
}

func (c *coreSystem) SetDriver(index int) error {
	if index < 0 {
		return fmt.Errorf("runtime: invalid driver index %d", index)
	}
	c.driverIndex = index
	return nil
}

func (c *coreSystem) SetAdvancedSettings(adv engine.CoreAdvancedSettings) error {
	if adv.Vol0VirtualLevel < 0 || adv.Vol0VirtualLevel > 1 {
		return fmt.Errorf("runtime: vol0 virtual level %v out of range", adv.Vol0VirtualLevel)
	}
	c.adv = adv
	return nil
}

func (c *coreSystem) SetCallback(cb engine.ErrorCallback, mask engine.SystemCallbackType) error {
	c.errorCallback = cb
	c.errorMask = mask
	return nil
}

func (c *coreSystem) SetDebugLogging(level engine.DebugFlags, cb engine.DebugLogCallback) error {
	c.debugLevel = level
	c.debugCallback = cb
	return nil
}

// debugLog forwards a runtime-internal log line to the registered debug
// callback. Called from miniaudio's threads.
func (c *coreSystem) debugLog(level engine.DebugFlags, message string) {
	cb := c.debugCallback
	if cb == nil || c.debugLevel == engine.DebugLevelNone || level > c.debugLevel {
		return
	}
	_ = cb(level, "", 0, "", message)
}

// reportError surfaces an asynchronous API error through the error callback
// when one is registered for the error mask.
func (c *coreSystem) reportError(function, params string, result int, instance any) {
	cb := c.errorCallback
	if cb == nil || c.errorMask&engine.SystemCallbackError == 0 {
		return
	}
	_ = cb(engine.SystemCallbackError, engine.ErrorCallbackInfo{
		FunctionName:   function,
		FunctionParams: params,
		Result:         result,
		Instance:       instance,
	}, nil)
}

func (c *coreSystem) SetPluginPath(path string) error {
	c.pluginPath = path
	return nil
}

// LoadPlugin opens a dynamic library under the plugin path. Handles start
// at 1; they stay valid until the owning system releases.
func (c *coreSystem) LoadPlugin(name string) (uint32, error) {
	p, err := plugin.Open(filepath.Join(c.pluginPath, name))
	if err != nil {
		return 0, fmt.Errorf("runtime: load plugin %q: %w", name, err)
	}

	c.nextHandle++
	c.plugins[c.nextHandle] = p
	return c.nextHandle, nil
}

// channelsFor maps a speaker mode to its interleaved channel count.
func channelsFor(mode engine.SpeakerMode) int {
	switch mode {
	case engine.SpeakerMode5Point1:
		return 6
	case engine.SpeakerMode7Point1:
		return 8
	case engine.SpeakerMode7Point1Point4:
		return 12
	default:
		return 2
	}
}
