// Package pluginsdk turns a Go program into a project-summarizer plugin
// executable. The host starts the executable, talks to it over its standard
// input and output and expects the class named after the executable file
// (tester_one exports TesterOne) among the classes passed to Serve.
package pluginsdk

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sort"

	"projectsummarizer.dev/cli/internal/jsonrpc"
	"projectsummarizer.dev/cli/internal/plugins"
	"projectsummarizer.dev/cli/internal/summary"
)

// The plugin contract is shared with the plugins compiled into the host.
type (
	Plugin    = plugins.Plugin
	Factory   = plugins.Factory
	Details   = plugins.PluginDetails
	Arguments = plugins.Arguments
	Context   = summary.Context
	Table     = summary.Table
	Justify   = summary.Justify
)

const (
	JustifyLeft  = summary.JustifyLeft
	JustifyRight = summary.JustifyRight
)

// InterfaceVersion is the plugin interface version the host accepts.
const InterfaceVersion = plugins.InterfaceVersionBasic

// Abort stops the host with exit code 1 after it prints the message.
func Abort(format string, args ...any) error {
	return plugins.Abort(format, args...)
}

// Serve answers host requests on the process's standard streams until the
// host shuts the plugin down or closes standard input. Anything the plugin
// writes to os.Stdout is redirected to standard error so it cannot corrupt
// the protocol; text meant for the user goes to Context.Output.
func Serve(classes map[string]Factory) error {
	protocolOut := os.Stdout
	os.Stdout = os.Stderr
	defer func() { os.Stdout = protocolOut }()

	return ServeConn(os.Stdin, protocolOut, classes)
}

// ServeConn is Serve over arbitrary streams.
func ServeConn(r io.Reader, w io.Writer, classes map[string]Factory) error {
	s := &server{
		conn:    jsonrpc.NewConn(r, w),
		classes: classes,
	}
	return s.serve()
}

type server struct {
	conn     *jsonrpc.Conn
	classes  map[string]Factory
	instance Plugin
	output   bytes.Buffer
}

func (s *server) serve() error {
	for {
		req, err := s.conn.ReadRequest()
		if errors.Is(err, io.EOF) {
			return nil
		}

		var resp *jsonrpc.Response
		var rpcErr *jsonrpc.ErrorInfo
		switch {
		case errors.As(err, &rpcErr):
			var id int64
			if req != nil {
				id = req.ID
			}
			resp = &jsonrpc.Response{JSONRPC: jsonrpc.Version, ID: id, Error: rpcErr}
		case err != nil:
			return err
		default:
			resp = s.handle(req)
		}

		if err := s.conn.Write(resp); err != nil {
			return err
		}
		if req != nil && req.Method == jsonrpc.MethodShutdown {
			return nil
		}
	}
}

func (s *server) handle(req *jsonrpc.Request) (resp *jsonrpc.Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = jsonrpc.NewError(req.ID, jsonrpc.CodePluginFailure,
				fmt.Sprintf("panic in %s: %v", req.Method, r), string(debug.Stack()))
		}
	}()

	result, err := s.dispatch(req)
	if err != nil {
		return failure(req, err, s.output.String())
	}
	resp, err = jsonrpc.NewResult(req.ID, result)
	if err != nil {
		return jsonrpc.NewError(req.ID, jsonrpc.CodeInternalError, err.Error(), nil)
	}
	return resp
}

func (s *server) dispatch(req *jsonrpc.Request) (any, error) {
	switch req.Method {
	case jsonrpc.MethodDescribe:
		names := make([]string, 0, len(s.classes))
		for name := range s.classes {
			names = append(names, name)
		}
		sort.Strings(names)
		return jsonrpc.DescribeResult{Protocol: jsonrpc.ProtocolName, Classes: names}, nil

	case jsonrpc.MethodConstruct:
		var params jsonrpc.ConstructParams
		if err := req.DecodeParams(&params); err != nil {
			return nil, invalidParams(err)
		}
		factory, ok := s.classes[params.Class]
		if !ok || factory == nil {
			return nil, invalidParams(fmt.Errorf("no class named %q", params.Class))
		}
		instance, err := factory()
		if err != nil {
			return nil, err
		}
		if instance == nil {
			return nil, errors.New("constructor returned no plugin")
		}
		s.instance = instance
		return nil, nil

	case jsonrpc.MethodShutdown:
		return nil, nil
	}

	if s.instance == nil {
		if !knownMethod(req.Method) {
			return nil, methodNotFound(req.Method)
		}
		return nil, &jsonrpc.ErrorInfo{Code: jsonrpc.CodeInvalidRequest, Message: "no plugin has been constructed"}
	}

	switch req.Method {
	case jsonrpc.MethodGetDetails:
		details, err := s.instance.GetDetails()
		if err != nil {
			return nil, err
		}
		return map[string]any{
			plugins.FieldID:               details.ID,
			plugins.FieldName:             details.Name,
			plugins.FieldVersion:          details.Version,
			plugins.FieldInterfaceVersion: details.InterfaceVersion,
		}, nil

	case jsonrpc.MethodAddCommandLineArguments:
		args := plugins.NewArguments(nil)
		flag, dest, err := s.instance.AddCommandLineArguments(args)
		if err != nil {
			return nil, err
		}
		return jsonrpc.ArgumentResult{Flag: flag, Dest: dest, Help: args.Usage(flag)}, nil

	case jsonrpc.MethodSetContext:
		var params jsonrpc.ContextParams
		if err := req.DecodeParams(&params); err != nil {
			return nil, invalidParams(err)
		}
		if params.WorkingDir != "" {
			if err := os.Chdir(params.WorkingDir); err != nil {
				return nil, fmt.Errorf("failed to enter host working directory: %w", err)
			}
		}
		return nil, s.instance.SetContext(summary.NewContext(params.ReportDir, params.PublishDir, &s.output))

	case jsonrpc.MethodGetOutputPath:
		path, err := s.instance.GetOutputPath()
		if err != nil {
			return nil, err
		}
		return jsonrpc.OutputPathResult{Path: path}, nil

	case jsonrpc.MethodGenerateReport:
		var params jsonrpc.ReportParams
		if err := req.DecodeParams(&params); err != nil {
			return nil, invalidParams(err)
		}
		s.output.Reset()
		table, err := s.instance.GenerateReport(params.OnlyChanges, params.ColumnWidth, params.ReportFile)
		if err != nil {
			return nil, err
		}
		result := jsonrpc.ReportResult{Output: s.output.String(), Table: table}
		s.output.Reset()
		return result, nil
	}

	return nil, methodNotFound(req.Method)
}

// failure turns a plugin error into an error response. An abort carries the
// output printed so far so the host can show it before the message.
func failure(req *jsonrpc.Request, err error, output string) *jsonrpc.Response {
	var rpcErr *jsonrpc.ErrorInfo
	if errors.As(err, &rpcErr) {
		return &jsonrpc.Response{JSONRPC: jsonrpc.Version, ID: req.ID, Error: rpcErr}
	}
	var abort *plugins.AbortError
	if errors.As(err, &abort) {
		return jsonrpc.NewError(req.ID, jsonrpc.CodeAbort, abort.Message,
			jsonrpc.AbortData{Output: output, ExitCode: abort.ExitCode})
	}
	return jsonrpc.NewError(req.ID, jsonrpc.CodePluginFailure, err.Error(), nil)
}

func invalidParams(err error) error {
	return &jsonrpc.ErrorInfo{Code: jsonrpc.CodeInvalidParams, Message: err.Error()}
}

func methodNotFound(method string) error {
	return &jsonrpc.ErrorInfo{Code: jsonrpc.CodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", method)}
}

func knownMethod(method string) bool {
	switch method {
	case jsonrpc.MethodGetDetails, jsonrpc.MethodAddCommandLineArguments, jsonrpc.MethodSetContext,
		jsonrpc.MethodGetOutputPath, jsonrpc.MethodGenerateReport:
		return true
	}
	return false
}
