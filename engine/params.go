package engine

// SetGlobalParameter sets a global parameter by name. ignoreSeekSpeed makes
// the change instantaneous instead of following the parameter's seek speed.
func (e *Engine) SetGlobalParameter(name string, value float32, ignoreSeekSpeed bool) bool {
	if !e.IsInitialized() {
		return false
	}
	return e.sys.SetParameterByName(name, value, ignoreSeekSpeed) == nil
}

// SetGlobalParameterWithLabel sets a labeled global parameter by name.
func (e *Engine) SetGlobalParameterWithLabel(name, label string, ignoreSeekSpeed bool) bool {
	if !e.IsInitialized() {
		return false
	}
	return e.sys.SetParameterByNameWithLabel(name, label, ignoreSeekSpeed) == nil
}

// SetParameter sets an instance-local parameter by name.
func (e *Engine) SetParameter(instance *Instance, name string, value float32, ignoreSeekSpeed bool) bool {
	if !e.IsInitialized() || !instance.usable() {
		return false
	}
	return instance.handle.SetParameterByName(name, value, ignoreSeekSpeed) == nil
}

// SetParameterWithLabel sets a labeled instance-local parameter by name.
func (e *Engine) SetParameterWithLabel(instance *Instance, name, label string, ignoreSeekSpeed bool) bool {
	if !e.IsInitialized() || !instance.usable() {
		return false
	}
	return instance.handle.SetParameterByNameWithLabel(name, label, ignoreSeekSpeed) == nil
}
