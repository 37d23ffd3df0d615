// Package config wraps viper with the typed section/key lookups the audio
// engine reads during initialization. Files are INI-style:
//
//	[System]
//	OutputFormat = Stereo
//	MaxChannelCount = 128
//
// Every getter takes a section and key plus an optional default returned when
// the key is absent. Values are read once at Load; the store is immutable
// afterwards.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Store struct {
	v *viper.Viper
}

// Load parses the INI file at path into a Store.
func Load(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}

	return &Store{v: v}, nil
}

func (s *Store) key(section, key string) string {
	return section + "." + key
}

func (s *Store) String(section, key string, def ...string) string {
	k := s.key(section, key)
	if !s.v.IsSet(k) {
		if len(def) > 0 {
			return def[0]
		}
		return ""
	}
	return s.v.GetString(k)
}

func (s *Store) Int(section, key string, def ...int) int {
	k := s.key(section, key)
	if !s.v.IsSet(k) {
		if len(def) > 0 {
			return def[0]
		}
		return 0
	}
	return s.v.GetInt(k)
}

func (s *Store) Float(section, key string, def ...float64) float64 {
	k := s.key(section, key)
	if !s.v.IsSet(k) {
		if len(def) > 0 {
			return def[0]
		}
		return 0
	}
	return s.v.GetFloat64(k)
}

func (s *Store) Bool(section, key string, def ...bool) bool {
	k := s.key(section, key)
	if !s.v.IsSet(k) {
		if len(def) > 0 {
			return def[0]
		}
		return false
	}
	return s.v.GetBool(k)
}

// StringList reads a comma-separated value into a slice, dropping empty
// entries. INI has no native list syntax, so "a.so, b.so" yields two names.
func (s *Store) StringList(section, key string) []string {
	raw := s.String(section, key)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
