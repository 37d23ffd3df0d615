package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSoundBankPrependsRoot(t *testing.T) {
	e, sys := readyTestEngine(t)

	require.True(t, e.LoadSoundBankFile("SFX.bank"))
	require.Contains(t, sys.loadedPaths, "banks/test/SFX.bank")
}

func TestLoadSoundBankCustomRoot(t *testing.T) {
	e, sys := readyTestEngine(t)

	e.SetSoundBankRootDirectory("custom/")
	require.Equal(t, "custom/", e.SoundBankRootDirectory())

	require.True(t, e.LoadSoundBankFile("x.bank"))
	require.Contains(t, sys.loadedPaths, "custom/x.bank")
}

func TestLoadSoundBankWorksBeforeReadiness(t *testing.T) {
	// A valid system handle is enough; full readiness is not required.
	// Initialize itself loads the master banks through this same path.
	sys := newMockSystem()
	e, _ := newTestEngine(t, sys)
	e.sys = sys

	require.False(t, e.IsInitialized())
	require.True(t, e.LoadSoundBankFile("Early.bank"))
	require.Contains(t, sys.loadedPaths, "Early.bank")
}

func TestLoadSoundBankFailure(t *testing.T) {
	e, sys := readyTestEngine(t)
	sys.loadErr["banks/test/Broken.bank"] = errors.New("corrupt container")

	bank, ok := e.LoadSoundBankFileHandle("Broken.bank")
	require.False(t, ok)
	require.Nil(t, bank)
}

func TestLoadSoundBankWithoutSystem(t *testing.T) {
	sys := newMockSystem()
	e, _ := newTestEngine(t, sys)

	require.False(t, e.LoadSoundBankFile("SFX.bank"))
	require.Empty(t, sys.loadedPaths)
}

func TestUnloadSoundBankByPath(t *testing.T) {
	e, sys := readyTestEngine(t)
	require.True(t, e.LoadSoundBankFile("SFX.bank"))

	require.True(t, e.UnloadSoundBankPath("bank:/SFX.bank"))
	require.True(t, sys.banks["bank:/SFX.bank"].unloaded)
}

func TestUnloadMissingBankFails(t *testing.T) {
	e, _ := readyTestEngine(t)

	require.False(t, e.UnloadSoundBankPath("bank:/NotLoaded.bank"))
}

func TestUnloadSoundBankHandle(t *testing.T) {
	e, _ := readyTestEngine(t)

	bank, ok := e.LoadSoundBankFileHandle("Music.bank")
	require.True(t, ok)
	require.True(t, e.UnloadSoundBank(bank))

	require.False(t, e.UnloadSoundBank(nil))
}
