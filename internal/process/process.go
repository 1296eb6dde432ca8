// Package process starts plugin executables with their standard streams
// attached to the host.
package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// stderrLimit caps how much plugin stderr is kept for error reports.
const stderrLimit = 8 << 10

// waitDelay bounds how long Stop waits for output pipes held open by
// children of a killed plugin.
const waitDelay = 2 * time.Second

// Process is a running plugin executable.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr *tailBuffer

	stopOnce sync.Once
	stopErr  error
}

// Start launches the command. Standard error is captured, not forwarded.
func Start(c Command) (*Process, error) {
	if err := c.IsValid(); err != nil {
		return nil, err
	}

	execCmd := exec.Command(c.executable)
	execCmd.Dir = c.workingDir
	execCmd.Env = c.environ()
	execCmd.WaitDelay = waitDelay

	stderr := &tailBuffer{limit: stderrLimit}
	execCmd.Stderr = stderr

	stdin, err := execCmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	stdout, err := execCmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := execCmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("failed to start process: %w", err)
	}

	return &Process{
		cmd:    execCmd,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

// PID returns the process ID
func (p *Process) PID() int {
	if p.cmd == nil || p.cmd.Process == nil {
		return -1
	}
	return p.cmd.Process.Pid
}

// Stdin returns the writer connected to the process's standard input.
func (p *Process) Stdin() io.Writer {
	return p.stdin
}

// Stdout returns the reader connected to the process's standard output.
func (p *Process) Stdout() io.Reader {
	return p.stdout
}

// Stderr returns the last bytes the process wrote to standard error.
func (p *Process) Stderr() string {
	return p.stderr.String()
}

// Stop closes standard input, kills the process if it is still running and
// reaps it. It is safe to call more than once.
func (p *Process) Stop() error {
	p.stopOnce.Do(func() {
		p.stdin.Close()
		if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.stopErr = fmt.Errorf("failed to kill process %d: %w", p.PID(), err)
		}
		// The exit status of a killed plugin is expected to be an error.
		_ = p.cmd.Wait()
	})
	return p.stopErr
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	data  []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = append(b.data, p...)
	if over := len(b.data) - b.limit; over > 0 {
		b.data = append(b.data[:0], b.data[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.data)
}
