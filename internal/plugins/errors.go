package plugins

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/pkg/errors"
)

// ErrorKind classifies where in the plugin lifecycle a failure happened.
type ErrorKind string

const (
	KindFileNotFound                ErrorKind = "file-not-found"
	KindModuleLoadFailed            ErrorKind = "module-load-failed"
	KindClassNotFound               ErrorKind = "class-not-found"
	KindConstructorFailed           ErrorKind = "constructor-failed"
	KindGetDetailsFailed            ErrorKind = "get-details-failed"
	KindFieldTypeInvalid            ErrorKind = "field-type-invalid"
	KindFieldEmpty                  ErrorKind = "field-empty"
	KindUnsupportedInterfaceVersion ErrorKind = "unsupported-interface-version"
	KindCallFailed                  ErrorKind = "call-failed"
	KindNotAFile                    ErrorKind = "not-a-file"
)

// Call site names used when wrapping failures of registered plugins.
const (
	CallAddCommandLineArguments = "add_command_line_arguments"
	CallSetContext              = "set_context"
	CallGenerateReport          = "generate_report"
	CallGetOutputPath           = "get_output_path"
)

// PluginError is the single error surface of the plugin subsystem. The message
// is fixed at construction; the underlying failure stays reachable via Unwrap.
type PluginError struct {
	Kind      ErrorKind
	Path      string
	ClassName string
	Field     string
	Call      string

	message string
	cause   error
}

func (e *PluginError) Error() string {
	return e.message
}

func (e *PluginError) Unwrap() error {
	return e.cause
}

// Format supports %+v, which adds the cause chain and its captured stack.
func (e *PluginError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			io.WriteString(s, e.message)
			if e.cause != nil {
				fmt.Fprintf(s, "\nCaused by: %+v", e.cause)
			}
			return
		}
		fallthrough
	case 's':
		io.WriteString(s, e.message)
	case 'q':
		fmt.Fprintf(s, "%q", e.message)
	}
}

func newPluginError(kind ErrorKind, message string, cause error) *PluginError {
	if cause != nil {
		cause = errors.WithStack(cause)
	}
	return &PluginError{Kind: kind, message: message, cause: cause}
}

func NewFileNotFoundError(path string) *PluginError {
	err := newPluginError(KindFileNotFound,
		fmt.Sprintf("Plugin file '%s' does not exist.", path), nil)
	err.Path = path
	return err
}

func NewModuleLoadError(path string, cause error) *PluginError {
	err := newPluginError(KindModuleLoadFailed,
		fmt.Sprintf("Plugin file named '%s' cannot be loaded.", path), cause)
	err.Path = path
	return err
}

func NewClassNotFoundError(path, className string) *PluginError {
	err := newPluginError(KindClassNotFound,
		fmt.Sprintf("Plugin file named '%s' does not contain a class named '%s'.", path, className), nil)
	err.Path = path
	err.ClassName = className
	return err
}

func NewConstructorError(path, className string, cause error) *PluginError {
	err := newPluginError(KindConstructorFailed,
		fmt.Sprintf("Plugin file named '%s' threw an exception in the constructor for the class '%s'.", path, className), cause)
	err.Path = path
	err.ClassName = className
	return err
}

func NewGetDetailsError(className string, cause error) *PluginError {
	err := newPluginError(KindGetDetailsFailed,
		fmt.Sprintf("Plugin class '%s' had a critical failure loading the plugin details.", className), cause)
	err.ClassName = className
	return err
}

// NewFieldError reports a details field that is empty (isEmpty) or of the wrong type.
func NewFieldError(className, field string, isEmpty bool) *PluginError {
	kind, problem := KindFieldTypeInvalid, "an improperly typed value"
	if isEmpty {
		kind, problem = KindFieldEmpty, "an empty value"
	}
	err := newPluginError(kind,
		fmt.Sprintf("Plugin class '%s' returned %s for field name '%s'.", className, problem, field), nil)
	err.ClassName = className
	err.Field = field
	return err
}

func NewInterfaceVersionError(path string, found int64) *PluginError {
	err := newPluginError(KindUnsupportedInterfaceVersion,
		fmt.Sprintf("Plugin '%s' with an interface version ('%d') that is not '%d'.", path, found, InterfaceVersionBasic), nil)
	err.Path = path
	return err
}

// NewCallError wraps a failure raised by a registered plugin while serving call.
func NewCallError(className, call string, cause error) *PluginError {
	err := newPluginError(KindCallFailed,
		fmt.Sprintf("Plugin class '%s' had a critical failure: Bad Plugin Error calling %s.", className, call), cause)
	err.ClassName = className
	err.Call = call
	return err
}

func NewNotAFileError(path string) *PluginError {
	err := newPluginError(KindNotAFile,
		fmt.Sprintf("Summary path '%s' is not a file.", path), nil)
	err.Path = path
	return err
}

// AbortError is returned by plugin code that has already explained a failure
// to the user. It is passed through the manager untouched.
type AbortError struct {
	Message  string
	ExitCode int
}

func (e *AbortError) Error() string {
	return e.Message
}

// Abort builds an AbortError with exit code 1.
func Abort(format string, args ...any) *AbortError {
	return &AbortError{Message: fmt.Sprintf(format, args...), ExitCode: 1}
}

// PanicError carries a value recovered from a panic in plugin code.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Format prints the goroutine stack captured at recovery for %+v.
func (e *PanicError) Format(s fmt.State, verb rune) {
	io.WriteString(s, e.Error())
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "\n%s", e.Stack)
	}
}

// guard runs fn and turns a panic into a *PanicError.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
