package engine

import (
	"fmt"
	"time"
)

// SystemCallbackType is a bitmask of system-event categories.
type SystemCallbackType uint32

const (
	SystemCallbackPreUpdate  SystemCallbackType = 1 << 0
	SystemCallbackPostUpdate SystemCallbackType = 1 << 1
	SystemCallbackBankUnload SystemCallbackType = 1 << 2
	SystemCallbackError      SystemCallbackType = 1 << 3

	SystemCallbackAll SystemCallbackType = 0xFFFFFFFF
)

func (t SystemCallbackType) String() string {
	switch t {
	case SystemCallbackPreUpdate:
		return "PreUpdate"
	case SystemCallbackPostUpdate:
		return "PostUpdate"
	case SystemCallbackBankUnload:
		return "BankUnload"
	case SystemCallbackError:
		return "Error"
	default:
		return "Unknown"
	}
}

// SystemCallback receives system events. The runtime may invoke it from its
// own worker threads, so any code inside must be thread-safe regardless of
// the caller's threading model.
type SystemCallback func(sys System, callbackType SystemCallbackType, commandData, userData any) error

// EventCallbackType is a bitmask of per-instance playback events.
type EventCallbackType uint32

const (
	EventCallbackStarted        EventCallbackType = 1 << 0
	EventCallbackStopped        EventCallbackType = 1 << 1
	EventCallbackTimelineMarker EventCallbackType = 1 << 2

	EventCallbackAll EventCallbackType = 0xFFFFFFFF
)

// EventCallback receives playback events for one instance. Same threading
// contract as SystemCallback.
type EventCallback func(callbackType EventCallbackType, instance EventInstance, commandData any) error

// ErrorCallbackInfo describes an asynchronous API error reported by the
// runtime when API error logging is enabled.
type ErrorCallbackInfo struct {
	FunctionName   string
	FunctionParams string
	Result         int
	Instance       any
}

// ErrorCallback receives asynchronous API errors.
type ErrorCallback func(callbackType SystemCallbackType, info ErrorCallbackInfo, userData any) error

// DebugLogCallback receives one backend debug log line.
type DebugLogCallback func(flags DebugFlags, file string, line int, function, message string) error

// logTimestamp formats the moment a callback line is emitted, matching the
// dd-MMM-yyyy HH:MM:SS console convention.
func logTimestamp() string {
	return time.Now().Format("02-Jan-2006 15:04:05")
}

// debugLogLine is the engine's DebugLogCallback: one unstructured console
// line per backend log message.
func debugLogLine(flags DebugFlags, file string, line int, function, message string) error {
	fmt.Printf("Audio %s [%s] %s\n", flags, logTimestamp(), message)
	return nil
}

// apiErrorLine is the engine's ErrorCallback: one console line per
// asynchronous API error.
func apiErrorLine(callbackType SystemCallbackType, info ErrorCallbackInfo, userData any) error {
	fmt.Printf("Audio Error [%s] %s(%s) returned error %d for instance %v\n",
		logTimestamp(), info.FunctionName, info.FunctionParams, info.Result, info.Instance)
	return nil
}

// systemEvent is the engine's SystemCallback: a read-only, type-tagged
// dispatch logged at debug level. It must not mutate façade state.
func systemEvent(sys System, callbackType SystemCallbackType, commandData, userData any) error {
	e, ok := userData.(*Engine)
	if !ok || e == nil {
		return nil
	}
	e.log.Debug("audio system event", "type", callbackType.String())
	return nil
}
