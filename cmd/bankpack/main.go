// bankpack builds sound-bank containers from WAV sources.
//
// Usage:
//
//	bankpack -o Master.bank -bank bank:/Master \
//	    "event:/UI/Click=click.wav@bus:/UI" "event:/Music/Theme=theme.wav"
//
// Each argument maps a logical event path to a 16-bit PCM WAV file and an
// optional routing bus. Payloads are opus-encoded in 20ms frames. With
// -strings-out, a companion strings bank indexing the packed event paths is
// written as well.
package main

import (
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/hraban/opus"

	"github.com/horacv/audioengine/bank"
)

func main() {
	out := flag.String("o", "", "Output bank file")
	bankPath := flag.String("bank", "bank:/Master", "Logical bank path")
	key := flag.String("key", "", "Optional bank encryption key")
	bitrate := flag.Int("bitrate", 128000, "Opus bitrate in bits/s")
	stringsOut := flag.String("strings-out", "", "Also write a strings bank here")
	flag.Parse()

	if *out == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: bankpack -o <file.bank> [-bank <bank:/Path>] <event:/Path=file.wav[@bus:/Path]>...")
		os.Exit(2)
	}

	builder := bank.NewBuilder(*bankPath)
	if *key != "" {
		builder.Encrypt(*key)
	}

	stringsTable := make(map[string]string)
	buses := make(map[string]bool)

	for _, arg := range flag.Args() {
		eventPath, wavFile, busPath, err := parseSpec(arg)
		if err != nil {
			fatal(err)
		}

		clip, err := readWav(wavFile)
		if err != nil {
			fatal(fmt.Errorf("%s: %w", wavFile, err))
		}

		packets, err := encodeClip(clip, *bitrate)
		if err != nil {
			fatal(fmt.Errorf("%s: %w", wavFile, err))
		}

		if err := builder.AddEvent(eventPath, busPath, clip.sampleRate, clip.channels, packets); err != nil {
			fatal(err)
		}

		stringsTable[eventPath] = eventPath
		if busPath != "" {
			buses[busPath] = true
		}
	}

	for busPath := range buses {
		builder.AddBus(busPath)
	}

	if err := builder.WriteFile(*out); err != nil {
		fatal(err)
	}
	fmt.Printf("wrote %s (%d events)\n", *out, flag.NArg())

	if *stringsOut != "" {
		sb := bank.NewBuilder(*bankPath + ".strings")
		sb.SetStrings(stringsTable)
		if err := sb.WriteFile(*stringsOut); err != nil {
			fatal(err)
		}
		fmt.Printf("wrote %s (%d strings)\n", *stringsOut, len(stringsTable))
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "bankpack:", err)
	os.Exit(1)
}

// parseSpec splits "event:/Path=file.wav@bus:/Path" into its parts.
func parseSpec(arg string) (eventPath, wavFile, busPath string, err error) {
	eventPath, rest, ok := strings.Cut(arg, "=")
	if !ok || eventPath == "" {
		return "", "", "", fmt.Errorf("bad event spec %q", arg)
	}
	wavFile, busPath, _ = strings.Cut(rest, "@")
	if wavFile == "" {
		return "", "", "", fmt.Errorf("bad event spec %q", arg)
	}
	return eventPath, wavFile, busPath, nil
}

type clip struct {
	sampleRate int
	channels   int
	pcm        []int16
}

// readWav parses a 16-bit PCM RIFF/WAVE file.
func readWav(path string) (*clip, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, errors.New("not a RIFF/WAVE file")
	}

	var c clip
	var haveFmt, haveData bool

	// Walk the chunk list; only fmt and data matter.
	for pos := 12; pos+8 <= len(raw); {
		id := string(raw[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(raw[pos+4 : pos+8]))
		body := raw[pos+8:]
		if size > len(body) {
			return nil, errors.New("truncated chunk")
		}
		body = body[:size]

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, errors.New("short fmt chunk")
			}
			if format := binary.LittleEndian.Uint16(body[0:2]); format != 1 {
				return nil, fmt.Errorf("unsupported wav format %d (need PCM)", format)
			}
			if bits := binary.LittleEndian.Uint16(body[14:16]); bits != 16 {
				return nil, fmt.Errorf("unsupported bit depth %d (need 16)", bits)
			}
			c.channels = int(binary.LittleEndian.Uint16(body[2:4]))
			c.sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			haveFmt = true

		case "data":
			c.pcm = make([]int16, size/2)
			for i := range c.pcm {
				c.pcm[i] = int16(binary.LittleEndian.Uint16(body[i*2:]))
			}
			haveData = true
		}

		// Chunks are word-aligned.
		pos += 8 + size + size%2
	}

	if !haveFmt || !haveData {
		return nil, errors.New("missing fmt or data chunk")
	}
	if c.channels < 1 || c.channels > 2 {
		return nil, fmt.Errorf("unsupported channel count %d", c.channels)
	}

	switch c.sampleRate {
	case 8000, 12000, 16000, 24000, 48000:
	default:
		return nil, fmt.Errorf("sample rate %d not encodable as opus", c.sampleRate)
	}
	return &c, nil
}

// encodeClip opus-encodes a clip in 20ms frames, zero-padding the tail.
func encodeClip(c *clip, bitrate int) ([][]byte, error) {
	enc, err := opus.NewEncoder(c.sampleRate, c.channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("create opus encoder: %w", err)
	}
	if err := enc.SetBitrate(bitrate); err != nil {
		return nil, fmt.Errorf("set bitrate: %w", err)
	}

	frameSamples := c.sampleRate / 50 * c.channels
	buf := make([]byte, 4000) // opus maximum packet size

	var packets [][]byte
	for off := 0; off < len(c.pcm); off += frameSamples {
		frame := c.pcm[off:min(off+frameSamples, len(c.pcm))]
		if len(frame) < frameSamples {
			padded := make([]int16, frameSamples)
			copy(padded, frame)
			frame = padded
		}

		n, err := enc.Encode(frame, buf)
		if err != nil {
			return nil, fmt.Errorf("opus encode: %w", err)
		}
		packets = append(packets, append([]byte(nil), buf[:n]...))
	}
	return packets, nil
}
