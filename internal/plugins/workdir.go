package plugins

import (
	"fmt"
	"os"
)

// withWorkingDirectory runs fn with dir as the process working directory and
// puts the previous one back on every exit path, panics included.
func withWorkingDirectory(dir string, fn func() error) (err error) {
	previous, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to read working directory: %w", err)
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("failed to enter plugin directory: %w", err)
	}
	defer func() {
		if restoreErr := os.Chdir(previous); restoreErr != nil && err == nil {
			err = fmt.Errorf("failed to restore working directory %s: %w", previous, restoreErr)
		}
	}()

	return fn()
}
