package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// mockSystem and friends record every façade call so tests can assert on
// the exact interaction with the runtime.

type mockSystem struct {
	core    *mockCore
	coreErr error

	valid     bool
	initErr   error
	initCalls int
	advErr    error
	adv       StudioAdvancedSettings

	driverData any

	loadedPaths []string
	loadErr     map[string]error // by full file path
	banks       map[string]*mockBank

	events       map[string]*mockDescription
	eventLookups int

	buses map[string]*mockBus
	vcas  map[string]*mockVCA

	updateCalls int
	released    bool
	userData    any
	callback    SystemCallback
	globals     map[string]float32
}

func newMockSystem() *mockSystem {
	return &mockSystem{
		core:    newMockCore(),
		valid:   true,
		loadErr: make(map[string]error),
		banks:   make(map[string]*mockBank),
		events:  make(map[string]*mockDescription),
		buses:   make(map[string]*mockBus),
		vcas:    make(map[string]*mockVCA),
		globals: make(map[string]float32),
	}
}

func (m *mockSystem) CoreSystem() (CoreSystem, error) {
	if m.coreErr != nil {
		return nil, m.coreErr
	}
	return m.core, nil
}

func (m *mockSystem) SetAdvancedSettings(adv StudioAdvancedSettings) error {
	if m.advErr != nil {
		return m.advErr
	}
	m.adv = adv
	return nil
}

func (m *mockSystem) Initialize(_ int, _ StudioInitFlags, _ InitFlags, driverData any) error {
	m.initCalls++
	m.driverData = driverData
	return m.initErr
}

func (m *mockSystem) SetCallback(cb SystemCallback, _ SystemCallbackType) error {
	m.callback = cb
	return nil
}

func (m *mockSystem) SetUserData(userData any) error {
	m.userData = userData
	return nil
}

func (m *mockSystem) Update() error {
	m.updateCalls++
	return nil
}

func (m *mockSystem) Release() error {
	m.released = true
	m.valid = false
	return nil
}

func (m *mockSystem) IsValid() bool { return m.valid }

func (m *mockSystem) LoadBankFile(path string, _ LoadBankFlags) (Bank, error) {
	m.loadedPaths = append(m.loadedPaths, path)
	if err := m.loadErr[path]; err != nil {
		return nil, err
	}
	b := &mockBank{path: path, valid: true}
	m.banks["bank:/"+filepath.Base(path)] = b
	return b, nil
}

func (m *mockSystem) Bank(studioPath string) (Bank, error) {
	b, ok := m.banks[studioPath]
	if !ok {
		return nil, ErrBankNotFound
	}
	return b, nil
}

func (m *mockSystem) Event(studioPath string) (EventDescription, error) {
	m.eventLookups++
	d, ok := m.events[studioPath]
	if !ok {
		return nil, errors.New("event not found")
	}
	return d, nil
}

func (m *mockSystem) Bus(studioPath string) (Bus, error) {
	b, ok := m.buses[studioPath]
	if !ok {
		return nil, errors.New("bus not found")
	}
	return b, nil
}

func (m *mockSystem) VCA(studioPath string) (VCA, error) {
	v, ok := m.vcas[studioPath]
	if !ok {
		return nil, errors.New("vca not found")
	}
	return v, nil
}

func (m *mockSystem) SetParameterByName(name string, value float32, _ bool) error {
	m.globals[name] = value
	return nil
}

func (m *mockSystem) SetParameterByNameWithLabel(name, label string, _ bool) error {
	m.globals[name+":"+label] = 1
	return nil
}

type mockCore struct {
	drivers []DriverInfo

	softwareChannels int
	sampleRate       int
	speakerMode      SpeakerMode
	dspLength        int
	dspCount         int
	output           OutputType
	driverIndex      int
	adv              CoreAdvancedSettings

	setterErr map[string]error // keyed by setter name

	pluginPath string
	pluginErr  map[string]error
	loaded     []string
	nextHandle uint32

	errorCallback ErrorCallback
	debugLevel    DebugFlags
}

func newMockCore() *mockCore {
	return &mockCore{
		setterErr: make(map[string]error),
		pluginErr: make(map[string]error),
	}
}

func (c *mockCore) DriverCount() (int, error) { return len(c.drivers), nil }

func (c *mockCore) DriverInfo(index int) (DriverInfo, error) {
	if index < 0 || index >= len(c.drivers) {
		return DriverInfo{}, errors.New("driver index out of range")
	}
	return c.drivers[index], nil
}

func (c *mockCore) SetSoftwareChannels(n int) error {
	if err := c.setterErr["channels"]; err != nil {
		return err
	}
	c.softwareChannels = n
	return nil
}

func (c *mockCore) SetSoftwareFormat(rate int, mode SpeakerMode) error {
	if err := c.setterErr["format"]; err != nil {
		return err
	}
	c.sampleRate, c.speakerMode = rate, mode
	return nil
}

func (c *mockCore) SetDSPBufferSize(length, count int) error {
	if err := c.setterErr["dsp"]; err != nil {
		return err
	}
	c.dspLength, c.dspCount = length, count
	return nil
}

func (c *mockCore) SetOutput(output OutputType) error {
	if err := c.setterErr["output"]; err != nil {
		return err
	}
	c.output = output
	return nil
}

func (c *mockCore) SetDriver(index int) error {
	if err := c.setterErr["driver"]; err != nil {
		return err
	}
	c.driverIndex = index
	return nil
}

func (c *mockCore) SetAdvancedSettings(adv CoreAdvancedSettings) error {
	if err := c.setterErr["advanced"]; err != nil {
		return err
	}
	c.adv = adv
	return nil
}

func (c *mockCore) SetCallback(cb ErrorCallback, _ SystemCallbackType) error {
	c.errorCallback = cb
	return nil
}

func (c *mockCore) SetDebugLogging(level DebugFlags, _ DebugLogCallback) error {
	c.debugLevel = level
	return nil
}

func (c *mockCore) SetPluginPath(path string) error {
	c.pluginPath = path
	return nil
}

func (c *mockCore) LoadPlugin(name string) (uint32, error) {
	if err := c.pluginErr[name]; err != nil {
		return 0, err
	}
	c.nextHandle++
	c.loaded = append(c.loaded, name)
	return c.nextHandle, nil
}

type mockBank struct {
	path     string
	valid    bool
	unloaded bool
}

func (b *mockBank) Path() (string, error) { return b.path, nil }

func (b *mockBank) Unload() error {
	b.unloaded = true
	b.valid = false
	return nil
}

func (b *mockBank) IsValid() bool { return b.valid }

type mockDescription struct {
	createErr error
	instances []*mockInstance
}

func (d *mockDescription) CreateInstance() (EventInstance, error) {
	if d.createErr != nil {
		return nil, d.createErr
	}
	inst := &mockInstance{valid: true}
	d.instances = append(d.instances, inst)
	return inst, nil
}

type mockInstance struct {
	valid bool

	attrs    *Attributes3D
	callback EventCallback
	userData any

	startCalls   int
	stopCalls    int
	stopModes    []StopMode
	releaseCalls int
	paused       bool
	params       map[string]float32
}

func (i *mockInstance) Set3DAttributes(attrs Attributes3D) error {
	i.attrs = &attrs
	return nil
}

func (i *mockInstance) SetCallback(cb EventCallback, _ EventCallbackType) error {
	i.callback = cb
	return nil
}

func (i *mockInstance) SetUserData(userData any) error {
	i.userData = userData
	return nil
}

func (i *mockInstance) Start() error {
	i.startCalls++
	return nil
}

func (i *mockInstance) Stop(mode StopMode) error {
	i.stopCalls++
	i.stopModes = append(i.stopModes, mode)
	return nil
}

func (i *mockInstance) Release() error {
	i.releaseCalls++
	return nil
}

func (i *mockInstance) SetPaused(paused bool) error {
	i.paused = paused
	return nil
}

func (i *mockInstance) Paused() (bool, error) { return i.paused, nil }

func (i *mockInstance) SetParameterByName(name string, value float32, _ bool) error {
	if i.params == nil {
		i.params = make(map[string]float32)
	}
	i.params[name] = value
	return nil
}

func (i *mockInstance) SetParameterByNameWithLabel(name, label string, _ bool) error {
	return i.SetParameterByName(name+":"+label, 1, false)
}

func (i *mockInstance) IsValid() bool { return i.valid }

type mockBus struct {
	volume      float32
	finalVolume float32
	muted       bool
	paused      bool
	stopModes   []StopMode
	volumeErr   error
}

func (b *mockBus) SetVolume(v float32) error { b.volume = v; return nil }

func (b *mockBus) Volume() (float32, float32, error) {
	if b.volumeErr != nil {
		return 0, 0, b.volumeErr
	}
	return b.volume, b.finalVolume, nil
}

func (b *mockBus) SetMute(m bool) error { b.muted = m; return nil }

func (b *mockBus) Muted() (bool, error) { return b.muted, nil }

func (b *mockBus) SetPaused(p bool) error { b.paused = p; return nil }

func (b *mockBus) Paused() (bool, error) { return b.paused, nil }

func (b *mockBus) StopAllEvents(mode StopMode) error {
	b.stopModes = append(b.stopModes, mode)
	return nil
}

type mockVCA struct {
	volume      float32
	finalVolume float32
}

func (v *mockVCA) Volume() (float32, float32, error) {
	return v.volume, v.finalVolume, nil
}

// countingFactory wraps a mock system and counts creations.
type countingFactory struct {
	sys   *mockSystem
	calls int
}

func (f *countingFactory) factory() (System, error) {
	f.calls++
	return f.sys, nil
}

const testConfig = `[System]
OutputFormat = Stereo
OutputType = NoSound
SampleRate = 48000
DSPBufferLength = 512
DSPBufferCount = 4
MaxChannelCount = 64

[Advanced]
RealChannelCount = 32
StudioUpdatePeriodMs = 20
Vol0VirtualLevel = 0.001

[Banks]
BankOutputDirectory = banks
MasterBank = Master.bank
MasterStringsBank = Master.strings.bank
`

// writeTestConfig drops an INI config into a temp dir and returns its path.
func writeTestConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio_engine.ini")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// newTestEngine builds an engine on a counting mock factory with the
// standard test config.
func newTestEngine(t *testing.T, sys *mockSystem) (*Engine, *countingFactory) {
	t.Helper()
	f := &countingFactory{sys: sys}
	e := New(f.factory, Options{
		ConfigPath: writeTestConfig(t, testConfig),
		Platform:   "test",
	})
	return e, f
}

// readyTestEngine initializes an engine to readiness with one registered
// event and bus.
func readyTestEngine(t *testing.T) (*Engine, *mockSystem) {
	t.Helper()
	sys := newMockSystem()
	sys.events["event:/Test"] = &mockDescription{}
	sys.buses["bus:/SFX"] = &mockBus{volume: 0.8, finalVolume: 0.64}
	sys.vcas["vca:/Music"] = &mockVCA{volume: 0.5, finalVolume: 0.4}

	e, _ := newTestEngine(t, sys)
	if !e.Initialize() {
		t.Fatal("engine failed to initialize")
	}
	return e, sys
}
