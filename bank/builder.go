package bank

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Builder assembles a bank container in memory.
type Builder struct {
	index   Index
	payload bytes.Buffer
	key     string
}

// NewBuilder starts a bank with the given logical path.
func NewBuilder(logicalPath string) *Builder {
	return &Builder{index: Index{Path: logicalPath}}
}

// AddEvent appends an event whose sample data is the given sequence of opus
// packets.
func (b *Builder) AddEvent(path, busPath string, sampleRate, channels int, packets [][]byte) error {
	offset := int64(b.payload.Len())

	for _, p := range packets {
		if len(p) > 0xFFFF {
			return fmt.Errorf("bank: packet too large: %d bytes", len(p))
		}
		var frame [2]byte
		binary.LittleEndian.PutUint16(frame[:], uint16(len(p)))
		b.payload.Write(frame[:])
		b.payload.Write(p)
	}

	b.index.Events = append(b.index.Events, Event{
		Path:       path,
		Bus:        busPath,
		SampleRate: sampleRate,
		Channels:   channels,
		Offset:     offset,
		Length:     int64(b.payload.Len()) - offset,
	})
	return nil
}

// AddBus declares a mixer bus.
func (b *Builder) AddBus(path string) {
	b.index.Buses = append(b.index.Buses, Bus{Path: path})
}

// AddVCA declares a volume-control group with its nominal volume.
func (b *Builder) AddVCA(path string, volume float32) {
	b.index.VCAs = append(b.index.VCAs, VCA{Path: path, Volume: volume})
}

// SetStrings installs the GUID-to-path table of a strings bank.
func (b *Builder) SetStrings(strings map[string]string) {
	b.index.Strings = strings
}

// Encrypt masks the payload with key at encode time.
func (b *Builder) Encrypt(key string) {
	b.key = key
}

// WriteTo encodes the container to w.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	index := b.index
	payload := append([]byte(nil), b.payload.Bytes()...)

	if b.key != "" {
		index.Encrypted = true
		index.KeyCheck = keyCheck(b.key)
		maskPayload(payload, b.key)
	}

	indexRaw, err := json.Marshal(index)
	if err != nil {
		return 0, fmt.Errorf("bank: index json: %w", err)
	}

	var out bytes.Buffer
	out.Write(magic[:])
	binary.Write(&out, binary.LittleEndian, Version)
	binary.Write(&out, binary.LittleEndian, uint32(len(indexRaw)))
	out.Write(indexRaw)
	out.Write(payload)

	return out.WriteTo(w)
}

// WriteFile encodes the container to path.
func (b *Builder) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("bank: create %q: %w", path, err)
	}
	defer f.Close()

	if _, err := b.WriteTo(f); err != nil {
		return err
	}
	return f.Close()
}
