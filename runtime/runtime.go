// Package runtime is the reference implementation of the engine's backend
// interfaces: a miniaudio-based output path, an in-memory bank registry
// with opus-encoded sample payloads, and a minimal mixer driving event
// instances, buses and VCAs. It provides enough behavior to exercise the
// façade end to end; spatialization and DSP graphs are out of scope.
package runtime

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/hraban/opus"

	"github.com/horacv/audioengine/bank"
	"github.com/horacv/audioengine/engine"
)

// New creates a high-level system handle. Matches engine.SystemFactory.
func New() (engine.System, error) {
	return NewWithLogger(slog.Default())
}

// NewWithLogger is New with an injected logger.
func NewWithLogger(log *slog.Logger) (engine.System, error) {
	s := &system{
		log:     log,
		core:    newCoreSystem(log),
		valid:   true,
		banks:   make(map[string]*loadedBank),
		events:  make(map[string]*eventDescription),
		buses:   make(map[string]*busImpl),
		vcas:    make(map[string]*vcaImpl),
		strings: make(map[string]string),
		globals: make(map[string]float32),
	}
	s.buses[masterBusPath] = newBus(s, masterBusPath)
	return s, nil
}

type system struct {
	log  *slog.Logger
	core *coreSystem

	mu          sync.Mutex
	valid       bool
	initialized bool
	maxChannels int
	studioFlags engine.StudioInitFlags
	adv         engine.StudioAdvancedSettings

	banks   map[string]*loadedBank
	events  map[string]*eventDescription
	buses   map[string]*busImpl
	vcas    map[string]*vcaImpl
	strings map[string]string
	globals map[string]float32

	instances []*eventInstance

	outChannels int
	sink        sink

	callback     engine.SystemCallback
	callbackMask engine.SystemCallbackType
	userData     any
}

func (s *system) CoreSystem() (engine.CoreSystem, error) {
	if !s.valid {
		return nil, engine.ErrSystemInvalid
	}
	return s.core, nil
}

func (s *system) SetAdvancedSettings(adv engine.StudioAdvancedSettings) error {
	if !s.valid {
		return engine.ErrSystemInvalid
	}
	if adv.UpdatePeriodMs < 0 {
		return fmt.Errorf("runtime: invalid update period %dms", adv.UpdatePeriodMs)
	}
	s.adv = adv
	return nil
}

// Initialize opens the output path selected by the staged core
// configuration and starts the mixer.
func (s *system) Initialize(maxChannels int, studioFlags engine.StudioInitFlags, _ engine.InitFlags, driverData any) error {
	if !s.valid {
		return engine.ErrSystemInvalid
	}
	if s.initialized {
		return nil
	}

	c := s.core
	s.outChannels = channelsFor(c.speakerMode)
	period := c.dspBufferLength

	var snk sink
	switch c.output {
	case engine.OutputNoSound, engine.OutputNoSoundNRT:
		snk = &nullSink{sampleRate: c.sampleRate, channels: s.outChannels, periodFrames: period}
	case engine.OutputWavWriter, engine.OutputWavWriterNRT:
		path, _ := driverData.(string)
		if path == "" {
			path = "output.wav"
		}
		snk = &wavSink{
			path:         path,
			sampleRate:   c.sampleRate,
			channels:     s.outChannels,
			periodFrames: period,
			realtime:     c.output == engine.OutputWavWriter,
		}
	case engine.OutputPortAudio:
		snk = &portaudioSink{sampleRate: c.sampleRate, channels: s.outChannels, periodFrames: period}
	default:
		snk = &malgoSink{
			core:         c,
			sampleRate:   c.sampleRate,
			channels:     s.outChannels,
			periodFrames: period,
			deviceIndex:  c.driverIndex,
		}
	}

	if err := snk.start(s.render); err != nil {
		return err
	}

	s.sink = snk
	s.maxChannels = maxChannels
	s.studioFlags = studioFlags
	s.initialized = true

	s.log.Info("audio runtime initialized",
		"output", c.output,
		"sample_rate", c.sampleRate,
		"channels", s.outChannels,
		"buffer_frames", period)
	return nil
}

func (s *system) SetCallback(cb engine.SystemCallback, mask engine.SystemCallbackType) error {
	if !s.valid {
		return engine.ErrSystemInvalid
	}
	s.callback = cb
	s.callbackMask = mask
	return nil
}

func (s *system) SetUserData(userData any) error {
	if !s.valid {
		return engine.ErrSystemInvalid
	}
	s.userData = userData
	return nil
}

// Update reaps released instances whose playback is over and fires the
// pre/post update system events.
func (s *system) Update() error {
	if !s.valid {
		return engine.ErrSystemInvalid
	}

	s.fireSystemCallback(engine.SystemCallbackPreUpdate, nil)

	s.mu.Lock()
	kept := s.instances[:0]
	for _, inst := range s.instances {
		inst.mu.Lock()
		reap := inst.released && (inst.finishedLocked() || !inst.started)
		if reap {
			inst.valid = false
		}
		inst.mu.Unlock()
		if !reap {
			kept = append(kept, inst)
		}
	}
	s.instances = kept
	s.mu.Unlock()

	s.fireSystemCallback(engine.SystemCallbackPostUpdate, nil)
	return nil
}

func (s *system) Release() error {
	if !s.valid {
		return engine.ErrSystemInvalid
	}

	if s.sink != nil {
		if err := s.sink.stop(); err != nil {
			s.log.Error("failed to stop output sink", "error", err)
		}
		s.sink = nil
	}
	s.core.dropContext()

	s.mu.Lock()
	for _, inst := range s.instances {
		inst.mu.Lock()
		inst.valid = false
		inst.mu.Unlock()
	}
	s.instances = nil
	for _, b := range s.banks {
		b.invalidate()
	}
	s.banks = make(map[string]*loadedBank)
	s.events = make(map[string]*eventDescription)
	s.buses = map[string]*busImpl{masterBusPath: newBus(s, masterBusPath)}
	s.vcas = make(map[string]*vcaImpl)
	s.strings = make(map[string]string)
	s.valid = false
	s.initialized = false
	s.mu.Unlock()

	return nil
}

func (s *system) IsValid() bool {
	return s.valid
}

// LoadBankFile parses a bank container, decodes its event payloads and
// registers its events, buses and VCAs. Encrypted banks are unmasked with
// the key from the advanced settings.
func (s *system) LoadBankFile(path string, flags engine.LoadBankFlags) (engine.Bank, error) {
	if !s.valid {
		return nil, engine.ErrSystemInvalid
	}
	if flags != engine.LoadBankNormal {
		return nil, fmt.Errorf("runtime: unsupported bank load flags %#x", flags)
	}

	f, err := bank.Read(path)
	if err != nil {
		s.core.reportError("System::loadBankFile", path, 1, s)
		return nil, err
	}
	if f.Index.Encrypted {
		if err := f.Decrypt(s.adv.EncryptionKey); err != nil {
			s.core.reportError("System::loadBankFile", path, 2, s)
			return nil, err
		}
	}

	logical := f.Index.Path
	if logical == "" {
		logical = "bank:/" + path
	}

	s.mu.Lock()
	if _, loaded := s.banks[logical]; loaded {
		s.mu.Unlock()
		return nil, fmt.Errorf("runtime: bank %q already loaded", logical)
	}
	s.mu.Unlock()

	lb := &loadedBank{sys: s, path: logical, filePath: path, valid: true}

	descs := make([]*eventDescription, 0, len(f.Index.Events))
	for _, ev := range f.Index.Events {
		packets, err := f.EventPackets(ev)
		if err != nil {
			return nil, fmt.Errorf("runtime: bank %q event %q: %w", logical, ev.Path, err)
		}
		pcm, err := decodeEventPCM(ev, packets)
		if err != nil {
			return nil, fmt.Errorf("runtime: bank %q event %q: %w", logical, ev.Path, err)
		}
		descs = append(descs, &eventDescription{
			sys:      s,
			path:     ev.Path,
			busPath:  ev.Bus,
			rate:     ev.SampleRate,
			channels: ev.Channels,
			pcm:      pcm,
		})
	}

	s.mu.Lock()
	for _, d := range descs {
		s.events[d.path] = d
		lb.events = append(lb.events, d.path)
	}
	for _, b := range f.Index.Buses {
		if _, ok := s.buses[b.Path]; !ok {
			s.buses[b.Path] = newBus(s, b.Path)
		}
	}
	for _, v := range f.Index.VCAs {
		if _, ok := s.vcas[v.Path]; !ok {
			s.vcas[v.Path] = newVCA(s, v.Path, v.Volume)
		}
	}
	for guid, p := range f.Index.Strings {
		s.strings[guid] = p
	}
	s.banks[logical] = lb
	s.mu.Unlock()

	return lb, nil
}

func (s *system) Bank(studioPath string) (engine.Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lb, ok := s.banks[studioPath]
	if !ok {
		return nil, fmt.Errorf("%w: %q", engine.ErrBankNotFound, studioPath)
	}
	return lb, nil
}

func (s *system) Event(studioPath string) (engine.EventDescription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.events[studioPath]
	if !ok {
		return nil, fmt.Errorf("runtime: event %q not found", studioPath)
	}
	return d, nil
}

func (s *system) Bus(studioPath string) (engine.Bus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buses[studioPath]
	if !ok {
		return nil, fmt.Errorf("runtime: bus %q not found", studioPath)
	}
	return b, nil
}

func (s *system) VCA(studioPath string) (engine.VCA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vcas[studioPath]
	if !ok {
		return nil, fmt.Errorf("runtime: vca %q not found", studioPath)
	}
	return v, nil
}

func (s *system) SetParameterByName(name string, value float32, _ bool) error {
	if !s.valid {
		return engine.ErrSystemInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globals[name] = value
	return nil
}

func (s *system) SetParameterByNameWithLabel(name, label string, ignoreSeekSpeed bool) error {
	return s.SetParameterByName(name, labelValue(label), ignoreSeekSpeed)
}

// unloadBank removes the bank's events from the registry and stops any
// instances still playing them.
func (s *system) unloadBank(lb *loadedBank) error {
	s.mu.Lock()
	if _, ok := s.banks[lb.path]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", engine.ErrBankNotFound, lb.path)
	}
	delete(s.banks, lb.path)

	removed := make(map[string]bool, len(lb.events))
	for _, evPath := range lb.events {
		delete(s.events, evPath)
		removed[evPath] = true
	}

	var stale []*eventInstance
	for _, inst := range s.instances {
		if removed[inst.desc.path] {
			stale = append(stale, inst)
		}
	}
	s.mu.Unlock()

	for _, inst := range stale {
		_ = inst.Stop(engine.StopImmediate)
		_ = inst.Release()
	}

	lb.invalidate()
	s.fireSystemCallback(engine.SystemCallbackBankUnload, lb.path)
	return nil
}

// render fills one output buffer from all live instances. Runs on the
// sink's playback thread.
func (s *system) render(out []int16) {
	for i := range out {
		out[i] = 0
	}

	s.mu.Lock()
	instances := append([]*eventInstance(nil), s.instances...)
	vol0 := s.core.adv.Vol0VirtualLevel
	outCh := s.outChannels
	s.mu.Unlock()

	if outCh == 0 {
		return
	}

	for _, inst := range instances {
		// A paused bus halts its instances entirely; the playhead must not
		// advance while the operator has the bus held.
		if s.busPausedFor(inst.desc.busPath) {
			continue
		}
		inst.mix(out, outCh, s.busGainFor(inst.desc.busPath), vol0)
	}
}

// busPausedFor reports whether an instance routed into the bus is halted by
// a bus pause, folding in the master bus.
func (s *system) busPausedFor(path string) bool {
	if path == "" {
		path = masterBusPath
	}
	if b := s.lookupBus(path); b != nil && b.isPaused() {
		return true
	}
	if path != masterBusPath {
		if master := s.lookupBus(masterBusPath); master != nil && master.isPaused() {
			return true
		}
	}
	return false
}

// busGainFor resolves the gain contributed by an instance's routing bus,
// folding in the master bus.
func (s *system) busGainFor(path string) float32 {
	if path == "" {
		path = masterBusPath
	}

	gain := float32(1)
	if b := s.lookupBus(path); b != nil {
		gain = b.effectiveGain()
	}
	if path != masterBusPath {
		if master := s.lookupBus(masterBusPath); master != nil {
			gain *= master.effectiveGain()
		}
	}
	return gain
}

func (s *system) lookupBus(path string) *busImpl {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buses[path]
}

func (s *system) addInstance(inst *eventInstance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances = append(s.instances, inst)
}

func (s *system) instancesSnapshot() []*eventInstance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*eventInstance(nil), s.instances...)
}

func (s *system) fireSystemCallback(typ engine.SystemCallbackType, commandData any) {
	cb := s.callback
	if cb == nil || s.callbackMask&typ == 0 {
		return
	}
	_ = cb(s, typ, commandData, s.userData)
}

// loadedBank implements engine.Bank for one registered container.
type loadedBank struct {
	sys      *system
	path     string
	filePath string
	events   []string

	mu    sync.Mutex
	valid bool
}

func (b *loadedBank) Path() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.valid {
		return "", engine.ErrBankNotFound
	}
	return b.path, nil
}

func (b *loadedBank) Unload() error {
	if !b.IsValid() {
		return engine.ErrBankNotFound
	}
	return b.sys.unloadBank(b)
}

func (b *loadedBank) IsValid() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.valid
}

func (b *loadedBank) invalidate() {
	b.mu.Lock()
	b.valid = false
	b.mu.Unlock()
}

// decodeEventPCM expands an event's opus packets into interleaved PCM.
func decodeEventPCM(ev bank.Event, packets [][]byte) ([]int16, error) {
	if len(packets) == 0 {
		return nil, nil
	}

	dec, err := opus.NewDecoder(ev.SampleRate, ev.Channels)
	if err != nil {
		return nil, fmt.Errorf("create opus decoder: %w", err)
	}

	// 5760 samples per channel is the opus maximum frame size.
	frame := make([]int16, 5760*ev.Channels)
	var pcm []int16
	for _, pkt := range packets {
		n, err := dec.Decode(pkt, frame)
		if err != nil {
			return nil, fmt.Errorf("opus decode: %w", err)
		}
		pcm = append(pcm, frame[:n*ev.Channels]...)
	}
	return pcm, nil
}
