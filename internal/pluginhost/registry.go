package pluginhost

// PluginInfo is the advisory record returned by Host.List: a name, the
// file it was loaded from, and any metadata the plugin or its manifest
// sidecar declared. The core never gates execution on any of this.
type PluginInfo struct {
	Name         string
	Path         string
	Version      string
	Description  string
	Capabilities string // raw JSON from get_capabilities, if declared

	// Shadowed lists the paths of other libraries that declared the same
	// plugin name and lost the first-wins resolution.
	Shadowed []string
}

type loadedPlugin struct {
	lib  *nativeLibrary
	info PluginInfo
}
