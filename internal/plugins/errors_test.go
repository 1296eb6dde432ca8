package plugins

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPluginError_Messages(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name    string
		err     *PluginError
		kind    ErrorKind
		message string
	}{
		{
			name:    "FileNotFound",
			err:     NewFileNotFoundError("missing.py"),
			kind:    KindFileNotFound,
			message: "Plugin file 'missing.py' does not exist.",
		},
		{
			name:    "ModuleLoad",
			err:     NewModuleLoadError("/abs/bad_plugin", cause),
			kind:    KindModuleLoadFailed,
			message: "Plugin file named '/abs/bad_plugin' cannot be loaded.",
		},
		{
			name:    "ClassNotFound",
			err:     NewClassNotFoundError("/abs/bad_plugin", "BadPlugin"),
			kind:    KindClassNotFound,
			message: "Plugin file named '/abs/bad_plugin' does not contain a class named 'BadPlugin'.",
		},
		{
			name:    "Constructor",
			err:     NewConstructorError("/abs/bad_plugin", "BadPlugin", cause),
			kind:    KindConstructorFailed,
			message: "Plugin file named '/abs/bad_plugin' threw an exception in the constructor for the class 'BadPlugin'.",
		},
		{
			name:    "GetDetails",
			err:     NewGetDetailsError("BadPlugin", cause),
			kind:    KindGetDetailsFailed,
			message: "Plugin class 'BadPlugin' had a critical failure loading the plugin details.",
		},
		{
			name:    "FieldTypeInvalid",
			err:     NewFieldError("BadPlugin", FieldID, false),
			kind:    KindFieldTypeInvalid,
			message: "Plugin class 'BadPlugin' returned an improperly typed value for field name 'plugin_id'.",
		},
		{
			name:    "FieldEmpty",
			err:     NewFieldError("BadPlugin", FieldName, true),
			kind:    KindFieldEmpty,
			message: "Plugin class 'BadPlugin' returned an empty value for field name 'plugin_name'.",
		},
		{
			name:    "InterfaceVersion",
			err:     NewInterfaceVersionError("/abs/bad_plugin", 2),
			kind:    KindUnsupportedInterfaceVersion,
			message: "Plugin '/abs/bad_plugin' with an interface version ('2') that is not '1'.",
		},
		{
			name:    "CallFailed",
			err:     NewCallError("BadPlugin", CallGenerateReport, cause),
			kind:    KindCallFailed,
			message: "Plugin class 'BadPlugin' had a critical failure: Bad Plugin Error calling generate_report.",
		},
		{
			name:    "NotAFile",
			err:     NewNotAFileError("report/coverage.json"),
			kind:    KindNotAFile,
			message: "Summary path 'report/coverage.json' is not a file.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Equal(t, tt.message, tt.err.Error())
			assert.Equal(t, tt.message, fmt.Sprintf("%v", tt.err))
			assert.Equal(t, tt.message, fmt.Sprintf("%s", tt.err))
		})
	}
}

func TestPluginError_CauseChain(t *testing.T) {
	cause := errors.New("plugin raised")
	err := NewCallError("BadPlugin", CallSetContext, cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "BadPlugin", err.ClassName)
	assert.Equal(t, CallSetContext, err.Call)

	verbose := fmt.Sprintf("%+v", err)
	assert.Contains(t, verbose, err.Error())
	assert.Contains(t, verbose, "Caused by: plugin raised")
	assert.Contains(t, verbose, "errors_test.go", "the cause should carry a stack")

	var pluginErr *PluginError
	require.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &pluginErr)
	assert.Equal(t, KindCallFailed, pluginErr.Kind)
}

func TestPluginError_WithoutCause(t *testing.T) {
	err := NewFileNotFoundError("missing.py")

	assert.Nil(t, err.Unwrap())
	assert.Equal(t, err.Error(), fmt.Sprintf("%+v", err))
}

func TestGuard_RecoversPanics(t *testing.T) {
	err := guard(func() error {
		panic("exploded")
	})

	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "exploded", panicErr.Value)
	assert.Equal(t, "panic: exploded", err.Error())
	assert.Contains(t, fmt.Sprintf("%+v", err), "goroutine")
}

func TestGuard_PassesErrorsThrough(t *testing.T) {
	want := errors.New("plain failure")

	assert.NoError(t, guard(func() error { return nil }))
	assert.Same(t, want, guard(func() error { return want }))
}

func TestAbort(t *testing.T) {
	err := Abort("Project %s file '%s' does not exist.", "test coverage", "c.xml")

	assert.Equal(t, "Project test coverage file 'c.xml' does not exist.", err.Error())
	assert.Equal(t, 1, err.ExitCode)
}
