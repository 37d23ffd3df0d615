package engine

import "fmt"

// AudioDriverIndexByName resolves a human-readable output device name to its
// device index, scanning devices in the order the runtime reports them and
// matching exactly (case-sensitive). Returns ErrDriverNotFound when no
// device carries the name; the caller decides whether to fall back to the
// default device.
func (e *Engine) AudioDriverIndexByName(name string) (int, error) {
	if e.sys == nil || !e.sys.IsValid() {
		return 0, ErrSystemInvalid
	}

	core, err := e.sys.CoreSystem()
	if err != nil {
		return 0, err
	}
	return driverIndexByName(core, name)
}

func driverIndexByName(core CoreSystem, name string) (int, error) {
	count, err := core.DriverCount()
	if err != nil {
		return 0, err
	}

	for i := 0; i < count; i++ {
		info, err := core.DriverInfo(i)
		if err != nil {
			continue
		}
		if info.Name == name {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrDriverNotFound, name)
}
