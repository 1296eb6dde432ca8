package plugins

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/pflag"
)

// Arguments is the command line surface plugins register their flag with.
// Values are stored by destination name, the way plugins refer to them.
type Arguments struct {
	flags    *pflag.FlagSet
	values   map[string]*string
	usage    map[string]string
	reserved map[string]bool
}

// NewArguments wraps flags. A nil flag set gets a private, error-returning one.
func NewArguments(flags *pflag.FlagSet) *Arguments {
	if flags == nil {
		flags = pflag.NewFlagSet("plugin", pflag.ContinueOnError)
	}
	return &Arguments{
		flags:    flags,
		values:   make(map[string]*string),
		usage:    make(map[string]string),
		reserved: make(map[string]bool),
	}
}

// Reserve keeps flags the host registers after the plugins away from them.
func (a *Arguments) Reserve(flags ...string) {
	for _, flag := range flags {
		a.reserved[strings.TrimPrefix(flag, "--")] = true
	}
}

// AddString registers a long flag such as "--junit" storing its value under
// dest. A flag or dest that is already taken is rejected.
func (a *Arguments) AddString(flag, dest, usage string) error {
	name, err := longFlagName(flag)
	if err != nil {
		return err
	}
	if dest == "" {
		return fmt.Errorf("flag %s needs a destination name", flag)
	}
	if a.reserved[name] || a.flags.Lookup(name) != nil {
		return fmt.Errorf("flag %s is already registered", flag)
	}
	if _, taken := a.values[dest]; taken {
		return fmt.Errorf("destination %q is already used by another flag", dest)
	}

	value := new(string)
	a.flags.StringVar(value, name, "", usage)
	a.values[dest] = value
	a.usage[flag] = usage
	return nil
}

// Value returns the string stored under dest, or "" when nothing was given.
func (a *Arguments) Value(dest string) string {
	if value, ok := a.values[dest]; ok {
		return *value
	}
	return ""
}

// Values snapshots every destination and its current value.
func (a *Arguments) Values() map[string]string {
	values := make(map[string]string, len(a.values))
	for dest, value := range a.values {
		values[dest] = *value
	}
	return values
}

// Usage returns the help text a flag was registered with.
func (a *Arguments) Usage(flag string) string {
	return a.usage[flag]
}

// Destinations lists the registered destination names in sorted order.
func (a *Arguments) Destinations() []string {
	dests := make([]string, 0, len(a.values))
	for dest := range a.values {
		dests = append(dests, dest)
	}
	sort.Strings(dests)
	return dests
}

// FlagSet exposes the wrapped flag set for parsing.
func (a *Arguments) FlagSet() *pflag.FlagSet {
	return a.flags
}

func longFlagName(flag string) (string, error) {
	name := strings.TrimPrefix(flag, "--")
	if name == flag || name == "" || strings.HasPrefix(name, "-") || strings.ContainsAny(name, "= ") {
		return "", fmt.Errorf("flag %q is not a long option of the form --name", flag)
	}
	return name, nil
}
