package engine

// RegisterAdditionalPlugins points the low-level system at rootPath and
// loads each named plugin in order, recording successful handles by name.
// Loading is best-effort: a missing optional plugin must not block engine
// startup, so individual failures are kept as warnings and the rest of the
// list still loads.
func (e *Engine) RegisterAdditionalPlugins(pluginNames []string, rootPath string) {
	if e.sys == nil || !e.sys.IsValid() {
		return
	}

	core, err := e.sys.CoreSystem()
	if err != nil {
		return
	}

	e.applySetter("plugin path", core.SetPluginPath(rootPath))

	for _, name := range pluginNames {
		handle, err := core.LoadPlugin(name)
		if err != nil {
			e.warn("failed to load additional plugin", "plugin", name, "error", err)
			continue
		}
		e.pluginHandles[name] = handle
	}
}

// PluginHandle returns the handle recorded for a successfully loaded plugin.
func (e *Engine) PluginHandle(name string) (uint32, bool) {
	handle, ok := e.pluginHandles[name]
	return handle, ok
}
