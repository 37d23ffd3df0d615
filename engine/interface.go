package engine

// The façade drives the underlying audio runtime through the interfaces in
// this file. The runtime package provides the real implementation; tests
// substitute recording mocks. All handles are owned by the runtime; the
// façade never assumes it can outlive a Release on the system that issued
// them.

// SystemFactory creates the high-level system handle. Initialize calls it
// exactly once per engine lifetime; Terminate discards the result.
type SystemFactory func() (System, error)

// System is the high-level (studio) runtime handle.
type System interface {
	// CoreSystem returns the low-level handle used for device and output
	// configuration before Initialize.
	CoreSystem() (CoreSystem, error)

	// SetAdvancedSettings applies high-level tuning. Must be called before
	// Initialize.
	SetAdvancedSettings(StudioAdvancedSettings) error

	// Initialize finalizes bring-up. driverData is a backend-specific
	// payload; file-writer outputs receive the destination path.
	Initialize(maxChannels int, studioFlags StudioInitFlags, coreFlags InitFlags, driverData any) error

	// SetCallback registers the system-event callback for the given mask.
	SetCallback(cb SystemCallback, mask SystemCallbackType) error

	// SetUserData attaches an opaque back-reference retrievable inside
	// callbacks.
	SetUserData(userData any) error

	Update() error
	Release() error
	IsValid() bool

	LoadBankFile(path string, flags LoadBankFlags) (Bank, error)

	// Bank looks up a loaded bank by its internal logical path.
	Bank(studioPath string) (Bank, error)

	// Event resolves a logical event path to its description.
	Event(studioPath string) (EventDescription, error)

	Bus(studioPath string) (Bus, error)
	VCA(studioPath string) (VCA, error)

	SetParameterByName(name string, value float32, ignoreSeekSpeed bool) error
	SetParameterByNameWithLabel(name, label string, ignoreSeekSpeed bool) error
}

// CoreSystem is the low-level runtime handle. The setters stage state that
// takes effect at System.Initialize.
type CoreSystem interface {
	DriverCount() (int, error)
	DriverInfo(index int) (DriverInfo, error)

	SetSoftwareChannels(realChannels int) error
	SetSoftwareFormat(sampleRate int, mode SpeakerMode) error
	SetDSPBufferSize(length, count int) error
	SetOutput(output OutputType) error
	SetDriver(index int) error
	SetAdvancedSettings(CoreAdvancedSettings) error

	// SetCallback registers the API-error callback for the given mask.
	SetCallback(cb ErrorCallback, mask SystemCallbackType) error

	// SetDebugLogging routes the runtime's debug log stream at the given
	// verbosity to cb. Only honored by debug runtime libraries.
	SetDebugLogging(level DebugFlags, cb DebugLogCallback) error

	SetPluginPath(path string) error

	// LoadPlugin loads a dynamic library by file name from the plugin path
	// and returns its handle.
	LoadPlugin(name string) (uint32, error)
}

// Bank is a loaded sound-bank archive.
type Bank interface {
	// Path reports the bank's internal logical path.
	Path() (string, error)
	Unload() error
	IsValid() bool
}

// EventDescription is a playable event definition resolved from a bank.
type EventDescription interface {
	CreateInstance() (EventInstance, error)
}

// EventInstance is one playback of an event. After Release the handle may be
// recycled by the runtime at any point; the façade's Instance wrapper guards
// against use past that point.
type EventInstance interface {
	Set3DAttributes(attrs Attributes3D) error
	SetCallback(cb EventCallback, mask EventCallbackType) error
	SetUserData(userData any) error

	Start() error
	Stop(mode StopMode) error
	Release() error

	SetPaused(paused bool) error
	Paused() (bool, error)

	SetParameterByName(name string, value float32, ignoreSeekSpeed bool) error
	SetParameterByNameWithLabel(name, label string, ignoreSeekSpeed bool) error

	IsValid() bool
}

// Bus is a mixer bus handle. Volume getters report the nominal value set by
// the API and the final value after hierarchy and modulation.
type Bus interface {
	SetVolume(volume float32) error
	Volume() (volume, finalVolume float32, err error)
	SetMute(mute bool) error
	Muted() (bool, error)
	SetPaused(paused bool) error
	Paused() (bool, error)
	StopAllEvents(mode StopMode) error
}

// VCA is a volume-control-group handle.
type VCA interface {
	Volume() (volume, finalVolume float32, err error)
}
