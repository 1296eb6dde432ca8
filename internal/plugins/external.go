package plugins

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"projectsummarizer.dev/cli/internal/jsonrpc"
	"projectsummarizer.dev/cli/internal/process"
	"projectsummarizer.dev/cli/internal/summary"
)

// externalUnit is a plugin executable speaking JSON-RPC over its stdio.
type externalUnit struct {
	path    string
	proc    *process.Process
	client  *jsonrpc.Client
	classes map[string]bool
	log     *logrus.Logger
	closed  bool
}

// startExternalUnit starts the executable at path in the current working
// directory and performs the describe handshake.
func startExternalUnit(path string, log *logrus.Logger) (*externalUnit, error) {
	cmd, err := process.NewCommand(path, "", map[string]string{
		jsonrpc.PluginEnv: jsonrpc.ProtocolName,
	})
	if err != nil {
		return nil, err
	}

	proc, err := process.Start(cmd)
	if err != nil {
		return nil, err
	}
	log.Debugf("Started plugin process %d for %s", proc.PID(), path)

	u := &externalUnit{
		path:   path,
		proc:   proc,
		client: jsonrpc.NewClient(proc.Stdout(), proc.Stdin()),
		log:    log,
	}

	var described jsonrpc.DescribeResult
	if err := u.client.Call(jsonrpc.MethodDescribe, nil, &described); err != nil {
		return nil, u.fail(fmt.Errorf("plugin handshake failed: %w", err))
	}
	if described.Protocol != jsonrpc.ProtocolName {
		return nil, u.fail(fmt.Errorf("plugin speaks protocol %q, expected %q", described.Protocol, jsonrpc.ProtocolName))
	}

	u.classes = make(map[string]bool, len(described.Classes))
	for _, className := range described.Classes {
		u.classes[className] = true
	}
	return u, nil
}

// fail kills the process without a shutdown request, since it is not
// answering, and attaches whatever it wrote to stderr.
func (u *externalUnit) fail(err error) error {
	u.closed = true
	if stopErr := u.proc.Stop(); stopErr != nil {
		u.log.Debugf("Stopping plugin %s: %v", u.path, stopErr)
	}
	if stderr := strings.TrimSpace(u.proc.Stderr()); stderr != "" {
		return fmt.Errorf("%w; plugin stderr: %s", err, stderr)
	}
	return err
}

func (u *externalUnit) lookup(className string) (Factory, bool) {
	if !u.classes[className] {
		return nil, false
	}
	return func() (Plugin, error) {
		if err := u.client.Call(jsonrpc.MethodConstruct, jsonrpc.ConstructParams{Class: className}, nil); err != nil {
			return nil, err
		}
		return &externalPlugin{unit: u, className: className}, nil
	}, true
}

func (u *externalUnit) close() error {
	if u.closed {
		return nil
	}
	u.closed = true
	if err := u.client.Call(jsonrpc.MethodShutdown, nil, nil); err != nil {
		u.log.Debugf("Plugin %s did not acknowledge shutdown: %v", u.path, err)
	}
	return u.proc.Stop()
}

// externalPlugin forwards the plugin contract to a constructed class inside
// an external unit.
type externalPlugin struct {
	unit      *externalUnit
	className string
	output    io.Writer
}

func (p *externalPlugin) call(method string, params, result any) error {
	return p.unit.client.Call(method, params, result)
}

func (p *externalPlugin) rawDetails() (rawDetails, error) {
	var fields map[string]any
	if err := p.call(jsonrpc.MethodGetDetails, nil, &fields); err != nil {
		return rawDetails{}, err
	}
	if fields == nil {
		return rawDetails{}, errors.New("plugin returned no details")
	}
	return rawDetails{
		ID:               fields[FieldID],
		Name:             fields[FieldName],
		Version:          fields[FieldVersion],
		InterfaceVersion: fields[FieldInterfaceVersion],
	}, nil
}

func (p *externalPlugin) GetDetails() (PluginDetails, error) {
	raw, err := p.rawDetails()
	if err != nil {
		return PluginDetails{}, err
	}
	return validateDetails(p.className, p.unit.path, raw)
}

func (p *externalPlugin) AddCommandLineArguments(args *Arguments) (string, string, error) {
	var result jsonrpc.ArgumentResult
	if err := p.call(jsonrpc.MethodAddCommandLineArguments, nil, &result); err != nil {
		return "", "", err
	}
	if err := args.AddString(result.Flag, result.Dest, result.Help); err != nil {
		return "", "", err
	}
	return result.Flag, result.Dest, nil
}

func (p *externalPlugin) SetContext(ctx *summary.Context) error {
	workingDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to read working directory: %w", err)
	}
	p.output = ctx.Output
	return p.call(jsonrpc.MethodSetContext, jsonrpc.ContextParams{
		ReportDir:  ctx.ReportDir,
		PublishDir: ctx.PublishDir,
		WorkingDir: workingDir,
	}, nil)
}

func (p *externalPlugin) GetOutputPath() (string, error) {
	var result jsonrpc.OutputPathResult
	if err := p.call(jsonrpc.MethodGetOutputPath, nil, &result); err != nil {
		return "", err
	}
	return result.Path, nil
}

func (p *externalPlugin) GenerateReport(onlyChanges bool, columnWidth int, reportFile string) (*summary.Table, error) {
	var result jsonrpc.ReportResult
	err := p.call(jsonrpc.MethodGenerateReport, jsonrpc.ReportParams{
		OnlyChanges: onlyChanges,
		ColumnWidth: columnWidth,
		ReportFile:  reportFile,
	}, &result)

	var rpcErr *jsonrpc.ErrorInfo
	if errors.As(err, &rpcErr) && rpcErr.Code == jsonrpc.CodeAbort {
		data := jsonrpc.AbortData{ExitCode: 1}
		if decodeErr := rpcErr.DecodeData(&data); decodeErr != nil {
			p.unit.log.Debugf("Ignoring malformed abort data from %s: %v", p.unit.path, decodeErr)
		}
		if data.ExitCode == 0 {
			data.ExitCode = 1
		}
		p.print(data.Output)
		return nil, &AbortError{Message: rpcErr.Message, ExitCode: data.ExitCode}
	}
	if err != nil {
		return nil, err
	}

	p.print(result.Output)
	return result.Table, nil
}

func (p *externalPlugin) print(output string) {
	if output == "" || p.output == nil {
		return
	}
	io.WriteString(p.output, output)
}
