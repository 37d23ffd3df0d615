package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlayEventNilWhenUnready(t *testing.T) {
	sys := newMockSystem()
	sys.events["event:/Test"] = &mockDescription{}
	e, _ := newTestEngine(t, sys)

	require.Nil(t, e.PlayEvent("event:/Test", DefaultPlayOptions()))
	require.Zero(t, sys.eventLookups, "an unready engine must not touch the runtime")
}

func TestPlayEventNilOnUnknownPath(t *testing.T) {
	e, _ := readyTestEngine(t)

	require.Nil(t, e.PlayEvent("event:/Missing", DefaultPlayOptions()))
}

func TestPlayEventFireAndForget(t *testing.T) {
	e, sys := readyTestEngine(t)

	instance := e.PlayEvent("event:/Test", DefaultPlayOptions())
	require.NotNil(t, instance)
	require.True(t, instance.EngineOwned())
	require.True(t, instance.Released())

	handle := sys.events["event:/Test"].instances[0]
	require.Equal(t, 1, handle.startCalls)
	require.Equal(t, 1, handle.releaseCalls)
}

func TestPlayEventAutoStartWithoutRelease(t *testing.T) {
	e, sys := readyTestEngine(t)

	opts := DefaultPlayOptions()
	opts.AutoRelease = false
	instance := e.PlayEvent("event:/Test", opts)
	require.NotNil(t, instance)
	require.False(t, instance.Released())
	require.False(t, instance.EngineOwned())

	handle := sys.events["event:/Test"].instances[0]
	require.Equal(t, 1, handle.startCalls)
	require.Zero(t, handle.releaseCalls)
}

func TestPlayEventNoStartIgnoresAutoRelease(t *testing.T) {
	e, sys := readyTestEngine(t)

	opts := DefaultPlayOptions()
	opts.AutoStart = false
	instance := e.PlayEvent("event:/Test", opts)
	require.NotNil(t, instance)
	require.False(t, instance.Released(), "release only applies to an auto-started instance")

	handle := sys.events["event:/Test"].instances[0]
	require.Zero(t, handle.startCalls)
	require.Zero(t, handle.releaseCalls)
}

func TestPlayEventAlwaysBindsAttributes(t *testing.T) {
	e, sys := readyTestEngine(t)

	opts := DefaultPlayOptions()
	opts.Attributes.Position = Vector3{X: 1, Y: 2, Z: 3}
	require.NotNil(t, e.PlayEvent("event:/Test", opts))

	handle := sys.events["event:/Test"].instances[0]
	require.NotNil(t, handle.attrs)
	require.Equal(t, Vector3{X: 1, Y: 2, Z: 3}, handle.attrs.Position)
}

func TestPlayEventConditionalBindings(t *testing.T) {
	e, sys := readyTestEngine(t)

	// No callback and no user data configured: neither is bound.
	require.NotNil(t, e.PlayEvent("event:/Test", DefaultPlayOptions()))
	bare := sys.events["event:/Test"].instances[0]
	require.Nil(t, bare.callback)
	require.Nil(t, bare.userData)

	opts := DefaultPlayOptions()
	opts.Callback = func(EventCallbackType, EventInstance, any) error { return nil }
	opts.UserData = "payload"
	require.NotNil(t, e.PlayEvent("event:/Test", opts))
	bound := sys.events["event:/Test"].instances[1]
	require.NotNil(t, bound.callback)
	require.Equal(t, "payload", bound.userData)
}

func TestCallerOwnedInstanceLifecycle(t *testing.T) {
	e, sys := readyTestEngine(t)

	opts := DefaultPlayOptions()
	opts.AutoStart = false
	instance := e.PlayEvent("event:/Test", opts)
	require.NotNil(t, instance)
	handle := sys.events["event:/Test"].instances[0]

	require.True(t, e.InstanceStart(instance))
	require.Equal(t, 1, handle.startCalls)

	require.True(t, e.InstanceSetPaused(instance, true))
	paused, ok := e.InstancePaused(instance)
	require.True(t, ok)
	require.True(t, paused)

	require.True(t, e.InstanceStop(instance, true))
	require.Equal(t, []StopMode{StopAllowFadeOut}, handle.stopModes)
	require.True(t, e.InstanceStop(instance, false))
	require.Equal(t, []StopMode{StopAllowFadeOut, StopImmediate}, handle.stopModes)

	require.True(t, e.InstanceRelease(instance))
	require.Equal(t, 1, handle.releaseCalls)
	require.True(t, instance.Released())
}

func TestReleasedInstanceRejectsOperations(t *testing.T) {
	e, sys := readyTestEngine(t)

	instance := e.PlayEvent("event:/Test", DefaultPlayOptions())
	require.NotNil(t, instance)
	handle := sys.events["event:/Test"].instances[0]

	require.False(t, e.InstanceStart(instance))
	require.False(t, e.InstanceStop(instance, true))
	require.False(t, e.InstanceSetPaused(instance, true))
	require.False(t, e.InstanceRelease(instance))
	_, ok := e.InstancePaused(instance)
	require.False(t, ok)

	require.Equal(t, 1, handle.startCalls, "no call reaches a released handle")
	require.Equal(t, 1, handle.releaseCalls)
	require.Zero(t, handle.stopCalls)
}

func TestInstanceParameters(t *testing.T) {
	e, sys := readyTestEngine(t)

	opts := DefaultPlayOptions()
	opts.AutoRelease = false
	instance := e.PlayEvent("event:/Test", opts)
	require.NotNil(t, instance)
	handle := sys.events["event:/Test"].instances[0]

	require.True(t, e.SetParameter(instance, "Intensity", 0.7, false))
	require.InDelta(t, 0.7, handle.params["Intensity"], 1e-6)

	require.True(t, e.SetParameterWithLabel(instance, "Surface", "Gravel", true))
	require.Contains(t, handle.params, "Surface:Gravel")
}

func TestGlobalParameters(t *testing.T) {
	e, sys := readyTestEngine(t)

	require.True(t, e.SetGlobalParameter("TimeOfDay", 0.25, false))
	require.InDelta(t, 0.25, sys.globals["TimeOfDay"], 1e-6)

	require.True(t, e.SetGlobalParameterWithLabel("Weather", "Rain", true))
	require.Contains(t, sys.globals, "Weather:Rain")

	e.Terminate()
	require.False(t, e.SetGlobalParameter("TimeOfDay", 0.5, false))
}
