package runtime

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/gordonklaus/portaudio"
)

// renderFunc fills one interleaved S16 buffer. Sinks call it from their own
// playback threads.
type renderFunc func(out []int16)

// sink is one output path: a hardware device, a host API stream, a file
// writer or the null device.
type sink interface {
	start(render renderFunc) error
	stop() error
}

// malgoSink renders through a miniaudio playback device.
type malgoSink struct {
	core         *coreSystem
	sampleRate   int
	channels     int
	periodFrames int
	deviceIndex  int

	device *malgo.Device
}

func (s *malgoSink) start(render renderFunc) error {
	if err := s.core.ensureContext(); err != nil {
		return err
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = uint32(s.channels)
	cfg.SampleRate = uint32(s.sampleRate)
	cfg.PeriodSizeInFrames = uint32(s.periodFrames)

	if s.deviceIndex > 0 {
		devices, err := s.core.playbackDevices()
		if err != nil {
			return err
		}
		if s.deviceIndex < len(devices) {
			cfg.Playback.DeviceID = devices[s.deviceIndex].ID.Pointer()
		}
	}

	scratch := make([]int16, s.periodFrames*s.channels)

	onData := func(out, _ []byte, frameCount uint32) {
		n := int(frameCount) * s.channels
		if n > len(scratch) {
			scratch = make([]int16, n)
		}
		buf := scratch[:n]
		render(buf)
		for i, sample := range buf {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
		}
	}

	device, err := malgo.InitDevice(s.core.ctx.Context, cfg, malgo.DeviceCallbacks{Data: onData})
	if err != nil {
		return fmt.Errorf("runtime: init playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("runtime: start playback device: %w", err)
	}

	s.device = device
	return nil
}

func (s *malgoSink) stop() error {
	if s.device == nil {
		return nil
	}
	err := s.device.Stop()
	s.device.Uninit()
	s.device = nil
	return err
}

// portaudioSink renders through a PortAudio default output stream.
type portaudioSink struct {
	sampleRate   int
	channels     int
	periodFrames int

	stream *portaudio.Stream
}

func (s *portaudioSink) start(render renderFunc) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("runtime: initialize portaudio: %w", err)
	}

	scratch := make([]int16, s.periodFrames*s.channels)

	callback := func(out [][]float32) {
		frames := len(out[0])
		n := frames * s.channels
		if n > len(scratch) {
			scratch = make([]int16, n)
		}
		buf := scratch[:n]
		render(buf)

		for frame := 0; frame < frames; frame++ {
			for ch := range out {
				out[ch][frame] = float32(buf[frame*s.channels+ch%s.channels]) / 32768.0
			}
		}
	}

	stream, err := portaudio.OpenDefaultStream(0, s.channels, float64(s.sampleRate), s.periodFrames, callback)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("runtime: open portaudio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("runtime: start portaudio stream: %w", err)
	}

	s.stream = stream
	return nil
}

func (s *portaudioSink) stop() error {
	if s.stream == nil {
		return nil
	}
	err := s.stream.Stop()
	s.stream.Close()
	s.stream = nil
	portaudio.Terminate()
	return err
}

// wavHeader is the canonical 44-byte PCM WAV header. Sizes are patched when
// the sink stops.
type wavHeader struct {
	RiffMark      [4]byte
	FileSize      uint32
	WaveMark      [4]byte
	FmtMark       [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataMark      [4]byte
	DataSize      uint32
}

func newWavHeader(sampleRate, channels int) wavHeader {
	h := wavHeader{
		RiffMark:      [4]byte{'R', 'I', 'F', 'F'},
		WaveMark:      [4]byte{'W', 'A', 'V', 'E'},
		FmtMark:       [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   1, // PCM
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		BitsPerSample: 16,
		DataMark:      [4]byte{'d', 'a', 't', 'a'},
	}
	h.ByteRate = h.SampleRate * uint32(h.NumChannels) * uint32(h.BitsPerSample) / 8
	h.BlockAlign = h.NumChannels * h.BitsPerSample / 8
	return h
}

// wavSink renders into a WAV file. In realtime mode it paces itself at the
// period cadence; in non-realtime mode it renders as fast as the mixer
// produces until stopped.
type wavSink struct {
	path         string
	sampleRate   int
	channels     int
	periodFrames int
	realtime     bool

	file      *os.File
	done      chan struct{}
	wg        sync.WaitGroup
	dataBytes uint32
}

func (s *wavSink) start(render renderFunc) error {
	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("runtime: create wav output %q: %w", s.path, err)
	}

	header := newWavHeader(s.sampleRate, s.channels)
	if err := binary.Write(file, binary.LittleEndian, &header); err != nil {
		file.Close()
		return fmt.Errorf("runtime: write wav header: %w", err)
	}

	s.file = file
	s.done = make(chan struct{})

	period := time.Duration(s.periodFrames) * time.Second / time.Duration(s.sampleRate)
	buf := make([]int16, s.periodFrames*s.channels)
	raw := make([]byte, len(buf)*2)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		var ticker *time.Ticker
		if s.realtime {
			ticker = time.NewTicker(period)
			defer ticker.Stop()
		}

		for {
			select {
			case <-s.done:
				return
			default:
			}

			if ticker != nil {
				select {
				case <-s.done:
					return
				case <-ticker.C:
				}
			}

			render(buf)
			for i, sample := range buf {
				binary.LittleEndian.PutUint16(raw[i*2:], uint16(sample))
			}
			if _, err := s.file.Write(raw); err != nil {
				return
			}
			s.dataBytes += uint32(len(raw))
		}
	}()

	return nil
}

func (s *wavSink) stop() error {
	if s.file == nil {
		return nil
	}
	close(s.done)
	s.wg.Wait()

	// Patch the RIFF and data chunk sizes now that the stream length is
	// known.
	var sizes [4]byte
	binary.LittleEndian.PutUint32(sizes[:], 36+s.dataBytes)
	if _, err := s.file.WriteAt(sizes[:], 4); err != nil {
		s.file.Close()
		return err
	}
	binary.LittleEndian.PutUint32(sizes[:], s.dataBytes)
	if _, err := s.file.WriteAt(sizes[:], 40); err != nil {
		s.file.Close()
		return err
	}

	err := s.file.Close()
	s.file = nil
	return err
}

// nullSink discards rendered audio but keeps the timeline advancing, so
// NoSound outputs still progress instance lifecycles.
type nullSink struct {
	sampleRate   int
	channels     int
	periodFrames int

	done chan struct{}
	wg   sync.WaitGroup
}

func (s *nullSink) start(render renderFunc) error {
	s.done = make(chan struct{})
	period := time.Duration(s.periodFrames) * time.Second / time.Duration(s.sampleRate)
	buf := make([]int16, s.periodFrames*s.channels)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				render(buf)
			}
		}
	}()

	return nil
}

func (s *nullSink) stop() error {
	if s.done == nil {
		return nil
	}
	close(s.done)
	s.wg.Wait()
	s.done = nil
	return nil
}
