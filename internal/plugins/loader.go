package plugins

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Loader turns plugin sources into registered, validated plugins.
type Loader struct {
	log *logrus.Logger
}

// NewLoader creates a new plugin loader
func NewLoader(log *logrus.Logger) *Loader {
	if log == nil {
		log = logrus.New()
	}
	return &Loader{log: log}
}

// Load loads a plugin source. Sources starting with BuiltinPrefix name a
// compiled-in unit; everything else is a path to a plugin executable.
func (l *Loader) Load(source string) (*RegisteredPlugin, error) {
	if name, ok := strings.CutPrefix(source, BuiltinPrefix); ok {
		return l.LoadBuiltin(name)
	}
	return l.LoadFile(source)
}

// LoadFile loads the plugin executable at path. The file is started with the
// working directory set to its own directory, which is restored afterwards.
func (l *Loader) LoadFile(path string) (*RegisteredPlugin, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, NewFileNotFoundError(path)
	}
	className := ClassNameFromPath(path)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, NewModuleLoadError(path, err)
	}
	l.log.Debugf("Loading plugin %s, expecting class %s", absPath, className)

	var registered *RegisteredPlugin
	err = withWorkingDirectory(filepath.Dir(absPath), func() error {
		u, err := startExternalUnit(absPath, l.log)
		if err != nil {
			return NewModuleLoadError(absPath, err)
		}
		registered, err = l.instantiate(u, absPath, className)
		return err
	})
	if err != nil {
		var pluginErr *PluginError
		if errors.As(err, &pluginErr) {
			return nil, err
		}
		return nil, NewModuleLoadError(absPath, err)
	}
	return registered, nil
}

// LoadBuiltin loads a unit registered with RegisterBuiltin.
func (l *Loader) LoadBuiltin(name string) (*RegisteredPlugin, error) {
	source := BuiltinPrefix + name
	classes, ok := lookupBuiltin(name)
	if !ok {
		return nil, NewModuleLoadError(source, fmt.Errorf("no built-in plugin is registered as %q, known: %s", name, strings.Join(RegisteredBuiltins(), ", ")))
	}
	l.log.Debugf("Loading built-in plugin %s", name)
	return l.instantiate(classes, source, ClassNameFromPath(name))
}

// instantiate looks up className in u, constructs it and validates its
// details. The unit is closed on failure.
func (l *Loader) instantiate(u unit, source, className string) (*RegisteredPlugin, error) {
	registered, err := l.construct(u, source, className)
	if err != nil {
		if closeErr := u.close(); closeErr != nil {
			l.log.Debugf("Closing plugin unit %s: %v", source, closeErr)
		}
		return nil, err
	}
	return registered, nil
}

func (l *Loader) construct(u unit, source, className string) (*RegisteredPlugin, error) {
	factory, ok := u.lookup(className)
	if !ok {
		return nil, NewClassNotFoundError(source, className)
	}

	var instance Plugin
	err := guard(func() error {
		var err error
		instance, err = factory()
		return err
	})
	if err == nil && instance == nil {
		err = errors.New("constructor returned no plugin")
	}
	if err != nil {
		return nil, NewConstructorError(source, className, err)
	}

	details, err := l.loadDetails(instance, className, source)
	if err != nil {
		return nil, err
	}

	l.log.Debugf("Loaded plugin %s (%s %s) from %s", details.ID, details.Name, details.Version, source)
	return &RegisteredPlugin{
		Instance:   instance,
		SourcePath: source,
		ClassName:  className,
		Details:    details,
		unit:       u,
	}, nil
}

func (l *Loader) loadDetails(instance Plugin, className, source string) (PluginDetails, error) {
	var raw rawDetails
	err := guard(func() error {
		if detailer, ok := instance.(rawDetailer); ok {
			var err error
			raw, err = detailer.rawDetails()
			return err
		}
		details, err := instance.GetDetails()
		raw = details.raw()
		return err
	})
	if err != nil {
		return PluginDetails{}, NewGetDetailsError(className, err)
	}
	return validateDetails(className, source, raw)
}
