package engine

import "errors"

var (
	ErrNotInitialized   = errors.New("audio engine not initialized")
	ErrSystemInvalid    = errors.New("audio system handle invalid")
	ErrDriverNotFound   = errors.New("audio driver not found")
	ErrBankNotFound     = errors.New("sound bank not found")
	ErrInstanceReleased = errors.New("event instance already released")
)
