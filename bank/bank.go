// Package bank reads and writes sound-bank containers.
//
// A bank file is a small binary envelope around a JSON index and a payload
// region:
//
//	magic "SBNK" | version uint16 | index length uint32 | index JSON | payload
//
// All integers are little-endian. The index lists the bank's logical path,
// its events (with opus payload ranges), buses and VCAs; a strings bank
// carries only the GUID-to-path table. Payloads may be obfuscated with a
// bank key, in which case the index marks the bank encrypted and readers
// must supply the key before touching event payloads.
package bank

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

var magic = [4]byte{'S', 'B', 'N', 'K'}

// Version is the container format version written by this package.
const Version uint16 = 1

var (
	ErrBadMagic    = errors.New("bank: bad magic")
	ErrBadVersion  = errors.New("bank: unsupported version")
	ErrEncrypted   = errors.New("bank: payload encrypted, key required")
	ErrBadKey      = errors.New("bank: wrong decryption key")
	ErrRangeBounds = errors.New("bank: payload range out of bounds")
)

// Event is one playable event definition.
type Event struct {
	Path       string `json:"path"` // logical path, e.g. event:/Weapons/Shot
	Bus        string `json:"bus,omitempty"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
	Offset     int64  `json:"offset"` // into the payload region
	Length     int64  `json:"length"`
}

// Bus declares a mixer bus contributed by this bank.
type Bus struct {
	Path string `json:"path"` // e.g. bus:/SFX
}

// VCA declares a volume-control group contributed by this bank.
type VCA struct {
	Path   string  `json:"path"` // e.g. vca:/Music
	Volume float32 `json:"volume"`
}

// Index is the JSON header of a bank container.
type Index struct {
	Path      string            `json:"path"` // logical bank path, e.g. bank:/Master
	Events    []Event           `json:"events,omitempty"`
	Buses     []Bus             `json:"buses,omitempty"`
	VCAs      []VCA             `json:"vcas,omitempty"`
	Strings   map[string]string `json:"strings,omitempty"`
	Encrypted bool              `json:"encrypted,omitempty"`
	KeyCheck  uint32            `json:"keyCheck,omitempty"`
}

// File is a parsed bank container.
type File struct {
	Index Index

	payload   []byte
	decrypted bool
}

// Read parses the bank container at path.
func Read(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bank: read %q: %w", path, err)
	}
	return Decode(bytes.NewReader(raw))
}

// Decode parses a bank container from r.
func Decode(r io.Reader) (*File, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("bank: header: %w", err)
	}
	if header != magic {
		return nil, ErrBadMagic
	}

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("bank: version: %w", err)
	}
	if version != Version {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, version)
	}

	var indexLen uint32
	if err := binary.Read(r, binary.LittleEndian, &indexLen); err != nil {
		return nil, fmt.Errorf("bank: index length: %w", err)
	}

	indexRaw := make([]byte, indexLen)
	if _, err := io.ReadFull(r, indexRaw); err != nil {
		return nil, fmt.Errorf("bank: index: %w", err)
	}

	f := &File{}
	if err := json.Unmarshal(indexRaw, &f.Index); err != nil {
		return nil, fmt.Errorf("bank: index json: %w", err)
	}

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("bank: payload: %w", err)
	}
	f.payload = payload
	f.decrypted = !f.Index.Encrypted

	return f, nil
}

// Decrypt unmasks the payload region with key. Safe to call on an
// unencrypted bank (no-op). Fails when the key does not match the checksum
// recorded at build time.
func (f *File) Decrypt(key string) error {
	if f.decrypted {
		return nil
	}
	if keyCheck(key) != f.Index.KeyCheck {
		return ErrBadKey
	}
	maskPayload(f.payload, key)
	f.decrypted = true
	return nil
}

// EventPackets returns the framed opus packets of one event. The bank must
// be decrypted first when the index marks it encrypted.
func (f *File) EventPackets(ev Event) ([][]byte, error) {
	if !f.decrypted {
		return nil, ErrEncrypted
	}
	// Checked term by term so a huge Offset+Length cannot wrap around.
	if ev.Offset < 0 || ev.Length < 0 ||
		ev.Offset > int64(len(f.payload)) ||
		ev.Length > int64(len(f.payload))-ev.Offset {
		return nil, ErrRangeBounds
	}
	return decodePackets(f.payload[ev.Offset : ev.Offset+ev.Length])
}

// decodePackets splits a [uint16 length | packet]* framing into packets.
func decodePackets(b []byte) ([][]byte, error) {
	var packets [][]byte
	for len(b) > 0 {
		if len(b) < 2 {
			return nil, ErrRangeBounds
		}
		n := int(binary.LittleEndian.Uint16(b))
		b = b[2:]
		if n > len(b) {
			return nil, ErrRangeBounds
		}
		packets = append(packets, b[:n])
		b = b[n:]
	}
	return packets, nil
}

// maskPayload applies the symmetric key mask in place.
func maskPayload(b []byte, key string) {
	if key == "" {
		return
	}
	k := []byte(key)
	for i := range b {
		b[i] ^= k[i%len(k)]
	}
}

// keyCheck is a cheap checksum stored in the index so a wrong key is
// rejected instead of yielding garbage packets.
func keyCheck(key string) uint32 {
	var sum uint32 = 2166136261
	for i := 0; i < len(key); i++ {
		sum ^= uint32(key[i])
		sum *= 16777619
	}
	return sum
}
