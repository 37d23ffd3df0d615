// Package engine is a façade over a studio-style audio runtime: lifecycle
// management, configuration-driven initialization, sound-bank loading, and
// control of event instances, buses and VCAs.
//
// An Engine is driven by a single owner goroutine: Initialize, Update,
// Terminate and every control operation belong to that goroutine, and none
// of the mutable fields are locked. The runtime may still invoke registered
// callbacks from its own worker threads; callback code is read-only with
// respect to façade state.
package engine

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/horacv/audioengine/config"
)

// DefaultConfigPath is where Initialize looks for the engine configuration
// unless Options overrides it.
const DefaultConfigPath = "config/audio_engine.ini"

type Options struct {
	// ConfigPath locates the INI configuration read during Initialize.
	ConfigPath string

	// Platform is the tag appended to the configured bank output directory
	// (banks are built per platform). Defaults to runtime.GOOS.
	Platform string

	Logger *slog.Logger
}

// Engine owns the high-level and low-level runtime handles and tracks the
// façade state layered on top of them.
type Engine struct {
	factory SystemFactory
	opts    Options
	log     *slog.Logger

	sys             System
	mainBanksLoaded bool
	bankRoot        string
	pluginHandles   map[string]uint32
	warnings        []string
}

// New constructs an engine around the given system factory. Nothing touches
// the runtime until Initialize.
func New(factory SystemFactory, opts Options) *Engine {
	if opts.ConfigPath == "" {
		opts.ConfigPath = DefaultConfigPath
	}
	if opts.Platform == "" {
		opts.Platform = runtime.GOOS
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Engine{
		factory:       factory,
		opts:          opts,
		log:           log,
		pluginHandles: make(map[string]uint32),
	}
}

var defaultEngine *Engine

// Default returns the process-wide engine installed by SetDefault, or nil.
func Default() *Engine {
	return defaultEngine
}

// SetDefault installs the process-wide engine for callers that want
// singleton-style access.
func SetDefault(e *Engine) {
	defaultEngine = e
}

// Initialize brings the engine to a ready state: system creation,
// configuration, output and buffer setup, advanced tuning, plugin
// registration and master bank loading. It is idempotent: once ready,
// further calls return true without side effects. A false return leaves the
// engine not ready; the caller may retry.
func (e *Engine) Initialize() bool {
	if e.IsInitialized() {
		return true
	}

	sys := e.sys
	if sys == nil {
		created, err := e.factory()
		if err != nil || created == nil {
			e.log.Error("failed to create audio system", "error", err)
			return false
		}
		sys = created
		e.sys = sys
	}

	cfg, err := config.Load(e.opts.ConfigPath)
	if err != nil {
		e.log.Error("failed to load audio configuration", "error", err)
		return false
	}

	core, err := sys.CoreSystem()
	if err != nil {
		e.log.Error("failed to obtain core system", "error", err)
		return false
	}

	outputFormat := ParseSpeakerMode(cfg.String("System", "OutputFormat"))
	outputType := ParseOutputType(cfg.String("System", "OutputType", "AutoDetect"))

	driverIndex := 0
	if name := cfg.String("System", "InitialOutputDriverName", ""); name != "" {
		idx, err := driverIndexByName(core, name)
		if err != nil {
			e.warn("configured output driver not found, using default device", "driver", name)
		} else {
			driverIndex = idx
		}
	}

	maxChannels := cfg.Int("System", "MaxChannelCount", 128)
	realChannels := cfg.Int("Advanced", "RealChannelCount", 64)
	sampleRate := cfg.Int("System", "SampleRate")
	dspBufferLength := cfg.Int("System", "DSPBufferLength")
	dspBufferCount := cfg.Int("System", "DSPBufferCount")

	// Core setter results do not gate initialization; failures are kept on
	// the warning list instead of silently discarded.
	e.applySetter("software channels", core.SetSoftwareChannels(realChannels))
	e.applySetter("dsp buffer size", core.SetDSPBufferSize(dspBufferLength, dspBufferCount))
	e.applySetter("software format", core.SetSoftwareFormat(sampleRate, outputFormat))
	e.applySetter("output type", core.SetOutput(outputType))
	e.applySetter("output driver", core.SetDriver(driverIndex))

	studioFlags := StudioInitNormal
	initFlags := InitNormal

	if debugBuild {
		if cfg.Bool("System", "EnableLiveUpdate") {
			studioFlags |= StudioInitLiveUpdate
		}
		if cfg.Bool("System", "EnableMemoryTracking") {
			studioFlags |= StudioInitMemoryTracking
		}

		level := ParseDebugFlags(cfg.String("System", "DebugFlags"))
		e.applySetter("debug logging", core.SetDebugLogging(level, debugLogLine))
	}

	if cfg.Bool("System", "EnableAPIErrorLogging") {
		e.applySetter("error callback", core.SetCallback(apiErrorLine, SystemCallbackError))
	}

	studioAdv := StudioAdvancedSettings{
		UpdatePeriodMs: cfg.Int("Advanced", "StudioUpdatePeriodMs"),
		EncryptionKey:  cfg.String("Advanced", "StudioBankKey"),
	}
	coreAdv := CoreAdvancedSettings{
		Vol0VirtualLevel: float32(cfg.Float("Advanced", "Vol0VirtualLevel")),
		ProfilePort:      cfg.Int("Advanced", "LiveUpdatePort"),
	}

	if err := sys.SetAdvancedSettings(studioAdv); err != nil {
		e.log.Error("failed to apply studio advanced settings", "error", err)
		return false
	}
	if err := core.SetAdvancedSettings(coreAdv); err != nil {
		e.log.Error("failed to apply core advanced settings", "error", err)
		return false
	}

	// File-writer outputs receive the destination path as the
	// backend-specific driver payload.
	var driverData any
	if outputType.IsFileWriter() {
		if path := cfg.String("System", "WavWriterPath", ""); path != "" {
			driverData = path
		}
	}

	if err := sys.Initialize(maxChannels, studioFlags, initFlags, driverData); err != nil {
		e.log.Error("audio system initialization failed", "error", err)
		return false
	}

	e.applySetter("user data", sys.SetUserData(e))
	e.applySetter("system callback", sys.SetCallback(systemEvent, SystemCallbackAll))

	e.RegisterAdditionalPlugins(
		cfg.StringList("Plugins", "AdditionalPlugins"),
		cfg.String("Plugins", "AdditionalPluginsRootPath"),
	)

	e.SetSoundBankRootDirectory(cfg.String("Banks", "BankOutputDirectory") + "/" + e.opts.Platform + "/")

	mainLoaded := e.LoadSoundBankFile(cfg.String("Banks", "MasterBank"))
	stringsLoaded := e.LoadSoundBankFile(cfg.String("Banks", "MasterStringsBank"))
	e.mainBanksLoaded = mainLoaded && stringsLoaded

	return sys.IsValid() && e.mainBanksLoaded
}

// Terminate releases the runtime and resets façade state. The engine can be
// initialized again afterwards.
func (e *Engine) Terminate() {
	if e.sys != nil && e.sys.IsValid() {
		if err := e.sys.Release(); err != nil {
			e.log.Error("failed to release audio system", "error", err)
		}
	}
	e.sys = nil
	e.mainBanksLoaded = false
	e.pluginHandles = make(map[string]uint32)
	e.warnings = nil
}

// Update advances the runtime's internal scheduling. Call once per frame
// from the owner goroutine. No-op while the engine is not ready.
func (e *Engine) Update() {
	if !e.IsInitialized() {
		return
	}
	if err := e.sys.Update(); err != nil {
		e.log.Error("audio system update failed", "error", err)
	}
}

// IsInitialized reports readiness: a valid system handle with both master
// banks loaded.
func (e *Engine) IsInitialized() bool {
	return e.sys != nil && e.sys.IsValid() && e.mainBanksLoaded
}

// Warnings returns the non-fatal failures collected so far (driver-name
// misses, plugin load failures, rejected core setters).
func (e *Engine) Warnings() []string {
	out := make([]string, len(e.warnings))
	copy(out, e.warnings)
	return out
}

// Status is a read-only snapshot of façade state for inspection surfaces.
type Status struct {
	Ready             bool              `json:"ready"`
	BankRootDirectory string            `json:"bankRootDirectory"`
	PluginHandles     map[string]uint32 `json:"pluginHandles"`
	Warnings          []string          `json:"warnings"`
}

// Status captures the current façade state.
func (e *Engine) Status() Status {
	plugins := make(map[string]uint32, len(e.pluginHandles))
	for name, handle := range e.pluginHandles {
		plugins[name] = handle
	}
	return Status{
		Ready:             e.IsInitialized(),
		BankRootDirectory: e.bankRoot,
		PluginHandles:     plugins,
		Warnings:          e.Warnings(),
	}
}

// LiveUpdateSupported reports whether this build carries the live-update
// inspection surface. Release builds leave it out regardless of
// configuration.
func LiveUpdateSupported() bool {
	return debugBuild
}

// warn records a non-fatal failure on the warning list and logs it.
func (e *Engine) warn(msg string, args ...any) {
	e.log.Warn(msg, args...)

	line := msg
	for i := 0; i+1 < len(args); i += 2 {
		line += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	e.warnings = append(e.warnings, line)
}

// applySetter folds a fire-and-forget setter result into the warning list.
func (e *Engine) applySetter(name string, err error) {
	if err != nil {
		e.warn("core setter rejected", "setter", name, "error", err)
	}
}
