package process

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Command represents a plugin executable to be started
type Command struct {
	executable string
	workingDir string
	env        map[string]string
}

// NewCommand creates a command for executable with extra environment
// variables. An empty workingDir means the current working directory.
func NewCommand(executable, workingDir string, env map[string]string) (Command, error) {
	if executable == "" {
		return Command{}, fmt.Errorf("executable cannot be empty")
	}

	if workingDir == "" {
		var err error
		workingDir, err = os.Getwd()
		if err != nil {
			workingDir = "."
		}
	}

	// Resolve working directory to absolute path
	if !filepath.IsAbs(workingDir) {
		absDir, err := filepath.Abs(workingDir)
		if err == nil {
			workingDir = absDir
		}
	}

	envCopy := make(map[string]string, len(env))
	for k, v := range env {
		envCopy[k] = v
	}

	return Command{
		executable: executable,
		workingDir: workingDir,
		env:        envCopy,
	}, nil
}

// IsValid checks that the executable is a regular file with an execute bit
// and that the working directory exists.
func (c Command) IsValid() error {
	info, err := os.Stat(c.executable)
	if err != nil {
		return fmt.Errorf("executable %s: %w", c.executable, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("executable %s is not a regular file", c.executable)
	}
	if info.Mode()&0o111 == 0 {
		return fmt.Errorf("executable %s is not executable", c.executable)
	}

	if stat, err := os.Stat(c.workingDir); err != nil || !stat.IsDir() {
		return fmt.Errorf("working directory does not exist: %s", c.workingDir)
	}

	return nil
}

// environ merges the extra variables over the current environment.
func (c Command) environ() []string {
	env := os.Environ()
	keys := make([]string, 0, len(c.env))
	for key := range c.env {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		env = append(env, fmt.Sprintf("%s=%s", key, c.env[key]))
	}
	return env
}
