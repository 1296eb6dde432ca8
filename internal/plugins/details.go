package plugins

// InterfaceVersionBasic is the only plugin interface version the host accepts.
const InterfaceVersionBasic = 1

// Field names reported in details validation failures.
const (
	FieldID               = "plugin_id"
	FieldName             = "plugin_name"
	FieldVersion          = "plugin_version"
	FieldInterfaceVersion = "plugin_interface_version"
)

// PluginDetails describes a plugin. It is supplied by the plugin itself and
// never changes once the plugin is registered.
type PluginDetails struct {
	ID               string
	Name             string
	Version          string
	InterfaceVersion int
}

// rawDetails holds details values before their types are checked. Plugins
// living in another process report untyped JSON, so any of these may hold a
// value of the wrong type.
type rawDetails struct {
	ID               any
	Name             any
	Version          any
	InterfaceVersion any
}

func (d PluginDetails) raw() rawDetails {
	return rawDetails{
		ID:               d.ID,
		Name:             d.Name,
		Version:          d.Version,
		InterfaceVersion: d.InterfaceVersion,
	}
}

// rawDetailer is implemented by plugins whose details are not statically typed.
type rawDetailer interface {
	rawDetails() (rawDetails, error)
}
