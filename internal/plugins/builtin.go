package plugins

import (
	"fmt"
	"sort"
	"sync"
)

// BuiltinPrefix marks the source path of plugins compiled into the binary.
const BuiltinPrefix = "builtin:"

// DefaultBuiltins are loaded before any plugin named on the command line.
var DefaultBuiltins = []string{"cobertura_plugin", "junit_plugin"}

// Classes maps the class names a unit exports to their constructors.
type Classes map[string]Factory

// unit is what a plugin source resolves to once loaded.
type unit interface {
	lookup(className string) (Factory, bool)
	close() error
}

func (c Classes) lookup(className string) (Factory, bool) {
	factory, ok := c[className]
	return factory, ok && factory != nil
}

func (Classes) close() error {
	return nil
}

var (
	builtinsMu sync.RWMutex
	builtins   = make(map[string]Classes)
)

// RegisterBuiltin makes a compiled-in unit loadable under name, normally from
// the init function of the package implementing it. The class the loader
// looks for is derived from name, so a unit "junit_plugin" must export
// "JunitPlugin".
func RegisterBuiltin(name string, classes Classes) {
	builtinsMu.Lock()
	defer builtinsMu.Unlock()

	if name == "" {
		panic("plugins: RegisterBuiltin called with an empty name")
	}
	if _, dup := builtins[name]; dup {
		panic(fmt.Sprintf("plugins: RegisterBuiltin called twice for %q", name))
	}
	copied := make(Classes, len(classes))
	for className, factory := range classes {
		copied[className] = factory
	}
	builtins[name] = copied
}

// RegisteredBuiltins lists the registered unit names in sorted order.
func RegisteredBuiltins() []string {
	builtinsMu.RLock()
	defer builtinsMu.RUnlock()

	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupBuiltin(name string) (Classes, bool) {
	builtinsMu.RLock()
	defer builtinsMu.RUnlock()

	classes, ok := builtins[name]
	return classes, ok
}
