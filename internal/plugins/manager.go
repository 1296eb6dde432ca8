package plugins

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"projectsummarizer.dev/cli/internal/summary"
)

// AddPluginFlag names an additional plugin executable on the command line.
const AddPluginFlag = "--add-plugin"

// ManagerConfig configures the plugin manager
type ManagerConfig struct {
	// Builtins are the compiled-in units loaded first. Nil means DefaultBuiltins.
	Builtins []string
	// Plugins are plugin paths loaded after the built-ins and before the
	// ones named with AddPluginFlag.
	Plugins []string
	Logger  *logrus.Logger
}

type binding struct {
	plugin *RegisteredPlugin
	dest   string
}

// Manager owns the loaded plugins and mediates every call into them. Any
// failure inside plugin code comes back as a *PluginError, except an
// *AbortError, which is returned as is.
type Manager struct {
	loader     *Loader
	log        *logrus.Logger
	builtins   []string
	configured []string

	plugins  []*RegisteredPlugin
	bindings map[string]binding
	flags    []string
	closed   bool
}

// NewManager creates a plugin manager
func NewManager(config ManagerConfig) *Manager {
	log := config.Logger
	if log == nil {
		log = logrus.New()
	}
	builtins := config.Builtins
	if builtins == nil {
		builtins = DefaultBuiltins
	}
	return &Manager{
		loader:     NewLoader(log),
		log:        log,
		builtins:   append([]string(nil), builtins...),
		configured: append([]string(nil), config.Plugins...),
		bindings:   make(map[string]binding),
	}
}

// InitializePlugins loads the built-ins, the configured plugins and every
// plugin named with AddPluginFlag in argv, in that order. It returns argv
// without the AddPluginFlag occurrences it consumed.
func (m *Manager) InitializePlugins(argv []string) ([]string, error) {
	if len(m.plugins) > 0 {
		m.closeUnits()
		m.plugins, m.flags = nil, nil
		m.bindings = make(map[string]binding)
	}

	sources := make([]string, 0, len(m.builtins)+len(m.configured))
	for _, name := range m.builtins {
		sources = append(sources, BuiltinPrefix+name)
	}
	sources = append(sources, m.configured...)

	remaining := append([]string(nil), argv...)
	for len(remaining) > 0 {
		found, rest := scanAddPlugin(remaining)
		sources = append(sources, found...)
		consumed := len(rest) < len(remaining)
		remaining = rest
		if !consumed {
			break
		}
	}
	m.log.Debugf("Plugin sources: %v", sources)

	for _, source := range sources {
		registered, err := m.loader.Load(source)
		if err != nil {
			return nil, err
		}
		m.plugins = append(m.plugins, registered)
	}
	return remaining, nil
}

// scanAddPlugin takes every AddPluginFlag occurrence and its value out of
// args, leaving everything else in order. A value is taken as is even when
// it looks like a flag. A trailing AddPluginFlag without a value is left for
// the full parser to complain about.
func scanAddPlugin(args []string) (found, rest []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return found, append(rest, args[i:]...)
		case arg == AddPluginFlag && i+1 < len(args):
			found = append(found, args[i+1])
			i++
		case strings.HasPrefix(arg, AddPluginFlag+"="):
			found = append(found, strings.TrimPrefix(arg, AddPluginFlag+"="))
		default:
			rest = append(rest, arg)
		}
	}
	return found, rest
}

// AddCommandLineArgumentsForPlugins lets every plugin register its flag with
// args and binds the flag to the plugin. A flag bound twice is an error of
// the second plugin.
func (m *Manager) AddCommandLineArgumentsForPlugins(args *Arguments) error {
	for _, p := range m.plugins {
		var flag, dest string
		err := m.call(p, CallAddCommandLineArguments, func() error {
			var err error
			flag, dest, err = p.Instance.AddCommandLineArguments(args)
			if err != nil {
				return err
			}
			if _, taken := m.bindings[flag]; taken {
				return fmt.Errorf("flag %s is already bound to another plugin", flag)
			}
			return nil
		})
		if err != nil {
			return err
		}

		m.bindings[flag] = binding{plugin: p, dest: dest}
		m.flags = append(m.flags, flag)
		m.log.Debugf("Bound %s to plugin %s as %s", flag, p.ClassName, dest)
	}
	return nil
}

// SetContext hands ctx to every plugin in registration order.
func (m *Manager) SetContext(ctx *summary.Context) error {
	for _, p := range m.plugins {
		if err := m.call(p, CallSetContext, func() error {
			return p.Instance.SetContext(ctx)
		}); err != nil {
			return err
		}
	}
	return nil
}

// GenerateReport runs the plugin bound to token with the value stored under
// its destination in values. Tokens that are not plugin flags are ignored.
func (m *Manager) GenerateReport(token string, values map[string]string, onlyChanges bool, columnWidth int) (*summary.Table, error) {
	bound, ok := m.bindings[token]
	if !ok {
		return nil, nil
	}

	reportFile := values[bound.dest]
	m.log.Debugf("Generating report with %s for %q", bound.plugin.ClassName, reportFile)

	var table *summary.Table
	err := m.call(bound.plugin, CallGenerateReport, func() error {
		var err error
		table, err = bound.plugin.Instance.GenerateReport(onlyChanges, columnWidth, reportFile)
		return err
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

// GetOutputPaths collects the summary file of every plugin. An existing
// path that is not a regular file is rejected.
func (m *Manager) GetOutputPaths() ([]string, error) {
	paths := make([]string, 0, len(m.plugins))
	for _, p := range m.plugins {
		var path string
		if err := m.call(p, CallGetOutputPath, func() error {
			var err error
			path, err = p.Instance.GetOutputPath()
			return err
		}); err != nil {
			return nil, err
		}

		if info, err := os.Stat(path); err == nil && !info.Mode().IsRegular() {
			return nil, NewNotAFileError(path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// FindAnyPluginsArguments reports whether any bound flag was given a
// non-blank value.
func (m *Manager) FindAnyPluginsArguments(values map[string]string) bool {
	for _, flag := range m.flags {
		if strings.TrimSpace(values[m.bindings[flag].dest]) != "" {
			return true
		}
	}
	return false
}

// Plugins returns the registered plugins in registration order.
func (m *Manager) Plugins() []RegisteredPlugin {
	plugins := make([]RegisteredPlugin, len(m.plugins))
	for i, p := range m.plugins {
		plugins[i] = *p
	}
	return plugins
}

// Flags returns the bound flags in binding order.
func (m *Manager) Flags() []string {
	return append([]string(nil), m.flags...)
}

// Binding returns the plugin and destination bound to flag.
func (m *Manager) Binding(flag string) (RegisteredPlugin, string, bool) {
	bound, ok := m.bindings[flag]
	if !ok {
		return RegisteredPlugin{}, "", false
	}
	return *bound.plugin, bound.dest, true
}

// Close stops every external plugin process. Calling it again does nothing.
func (m *Manager) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	return m.closeUnits()
}

func (m *Manager) closeUnits() error {
	var errs []error
	for _, p := range m.plugins {
		if p.unit == nil {
			continue
		}
		if err := p.unit.close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close plugin %s: %w", p.SourcePath, err))
		}
	}
	return errors.Join(errs...)
}

// call runs fn on behalf of p, turning errors and panics into a CallFailed
// PluginError for the named call.
func (m *Manager) call(p *RegisteredPlugin, call string, fn func() error) error {
	err := guard(fn)
	if err == nil {
		return nil
	}

	var abort *AbortError
	if errors.As(err, &abort) {
		m.log.Debugf("Plugin %s aborted during %s: %s", p.ClassName, call, abort.Message)
		return abort
	}
	m.log.Debugf("Plugin %s failed during %s: %v", p.ClassName, call, err)
	return NewCallError(p.ClassName, call, err)
}
