package engine

// Vector3 is a point or direction in the engine's right-handed 3D space.
type Vector3 struct {
	X, Y, Z float32
}

// Attributes3D carries the spatial state bound to an event instance:
// position, velocity and an orientation pair (forward/up must be orthonormal).
type Attributes3D struct {
	Position Vector3
	Velocity Vector3
	Forward  Vector3
	Up       Vector3
}

// DefaultAttributes3D returns attributes at the origin facing -Z, the value
// PlayEvent binds when the caller has no spatial context.
func DefaultAttributes3D() Attributes3D {
	return Attributes3D{
		Forward: Vector3{Z: -1},
		Up:      Vector3{Y: 1},
	}
}

// SpeakerMode selects the output channel layout.
type SpeakerMode int

const (
	SpeakerModeDefault SpeakerMode = iota
	SpeakerModeStereo
	SpeakerMode5Point1
	SpeakerMode7Point1
	SpeakerMode7Point1Point4
)

// speakerModeNames maps the OutputFormat config values.
var speakerModeNames = map[string]SpeakerMode{
	"Stereo": SpeakerModeStereo,
	"5.1":    SpeakerMode5Point1,
	"7.1":    SpeakerMode7Point1,
	"7.1.4":  SpeakerMode7Point1Point4,
}

// ParseSpeakerMode resolves an OutputFormat config value, falling back to
// stereo on unknown names.
func ParseSpeakerMode(name string) SpeakerMode {
	if mode, ok := speakerModeNames[name]; ok {
		return mode
	}
	return SpeakerModeStereo
}

// OutputType selects the output backend the low-level system renders through.
type OutputType int

const (
	OutputAutoDetect OutputType = iota
	OutputUnknown
	OutputNoSound
	OutputWavWriter
	OutputNoSoundNRT
	OutputWavWriterNRT
	OutputWASAPI
	OutputASIO
	OutputPulseAudio
	OutputALSA
	OutputCoreAudio
	OutputAudioTrack
	OutputOpenSL
	OutputAudioOut
	OutputAudio3D
	OutputWebAudio
	OutputNNAudio
	OutputWinSonic
	OutputAAudio
	OutputAudioWorklet
	OutputPhase
	OutputOhAudio
	OutputPortAudio
)

var outputTypeNames = map[string]OutputType{
	"AutoDetect":   OutputAutoDetect,
	"Unknown":      OutputUnknown,
	"NoSound":      OutputNoSound,
	"WavWriter":    OutputWavWriter,
	"NoSoundNRT":   OutputNoSoundNRT,
	"WavWriterNRT": OutputWavWriterNRT,
	"WASAPI":       OutputWASAPI,
	"ASIO":         OutputASIO,
	"PulseAudio":   OutputPulseAudio,
	"ALSA":         OutputALSA,
	"CoreAudio":    OutputCoreAudio,
	"AudioTrack":   OutputAudioTrack,
	"OpenSL":       OutputOpenSL,
	"AudioOut":     OutputAudioOut,
	"Audio3D":      OutputAudio3D,
	"WebAudio":     OutputWebAudio,
	"NNAudio":      OutputNNAudio,
	"WinSonic":     OutputWinSonic,
	"AAudio":       OutputAAudio,
	"AudioWorklet": OutputAudioWorklet,
	"Phase":        OutputPhase,
	"OhAudio":      OutputOhAudio,
	"PortAudio":    OutputPortAudio,
}

// ParseOutputType resolves an OutputType config value, falling back to
// auto-detection on unknown names.
func ParseOutputType(name string) OutputType {
	if out, ok := outputTypeNames[name]; ok {
		return out
	}
	return OutputAutoDetect
}

// IsFileWriter reports whether this output renders into a file instead of a
// device, which makes the configured writer path relevant at initialization.
func (o OutputType) IsFileWriter() bool {
	return o == OutputWavWriter || o == OutputWavWriterNRT
}

// StopMode selects between an immediate hard stop and an engine-driven fade.
type StopMode int

const (
	StopAllowFadeOut StopMode = iota
	StopImmediate
)

func stopMode(allowFadeOut bool) StopMode {
	if allowFadeOut {
		return StopAllowFadeOut
	}
	return StopImmediate
}

// LoadBankFlags modify how a bank file is brought into memory.
type LoadBankFlags uint32

const (
	LoadBankNormal            LoadBankFlags = 0
	LoadBankNonblocking       LoadBankFlags = 1 << 0
	LoadBankDecompressSamples LoadBankFlags = 1 << 1
)

// StudioInitFlags tune the high-level system at initialization.
type StudioInitFlags uint32

const (
	StudioInitNormal         StudioInitFlags = 0
	StudioInitLiveUpdate     StudioInitFlags = 1 << 0
	StudioInitMemoryTracking StudioInitFlags = 1 << 1
)

// InitFlags tune the low-level system at initialization.
type InitFlags uint32

const (
	InitNormal InitFlags = 0
)

// DebugFlags select the verbosity of the backend's debug log stream.
type DebugFlags uint32

const (
	DebugLevelNone DebugFlags = iota
	DebugLevelLog
	DebugLevelWarning
	DebugLevelError
)

var debugFlagNames = map[string]DebugFlags{
	"None":    DebugLevelNone,
	"Log":     DebugLevelLog,
	"Warning": DebugLevelWarning,
	"Error":   DebugLevelError,
}

func (f DebugFlags) String() string {
	switch f {
	case DebugLevelLog:
		return "Log"
	case DebugLevelWarning:
		return "Warning"
	case DebugLevelError:
		return "Error"
	default:
		return "None"
	}
}

// ParseDebugFlags resolves a DebugFlags config value, falling back to none.
func ParseDebugFlags(name string) DebugFlags {
	if f, ok := debugFlagNames[name]; ok {
		return f
	}
	return DebugLevelNone
}

// DriverInfo describes one output device as reported by the low-level system.
type DriverInfo struct {
	Name        string
	SystemRate  int
	SpeakerMode SpeakerMode
	Channels    int
}

// StudioAdvancedSettings is the high-level tuning block applied before the
// final initialization call.
type StudioAdvancedSettings struct {
	UpdatePeriodMs int
	EncryptionKey  string
}

// CoreAdvancedSettings is the low-level tuning block.
type CoreAdvancedSettings struct {
	Vol0VirtualLevel float32
	ProfilePort      int
}
