// Package reports holds what the built-in report plugins share: loading the
// XML build artifacts and reading and writing JSON summary files.
package reports

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/beevik/etree"

	"projectsummarizer.dev/cli/internal/plugins"
)

// LoadXMLDocument reads the XML file at path and checks that its root element
// is rootElement. Problems with the file are explained to the user through a
// *plugins.AbortError; fileType ("test coverage") and formatName
// ("Cobertura") only shape those messages.
func LoadXMLDocument(path, rootElement, fileType, formatName string) (*etree.Element, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, plugins.Abort("Project %s file '%s' does not exist.", fileType, path)
	}
	if !info.Mode().IsRegular() {
		return nil, plugins.Abort("Project %s file '%s' is not a file.", fileType, path)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil || doc.Root() == nil {
		return nil, plugins.Abort("Project %s file '%s' is not a valid %s file.", fileType, path, fileType)
	}

	root := doc.Root()
	if root.Tag != rootElement {
		return nil, plugins.Abort("Project %s file '%s' is not a proper %s-format %s file.",
			fileType, path, formatName, fileType)
	}
	return root, nil
}

// SaveSummaryFile writes summary as JSON indented by four spaces and followed
// by a blank line.
func SaveSummaryFile(path string, summary any, fileType string) error {
	fullPath, err := filepath.Abs(path)
	if err != nil {
		fullPath = path
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode %s summary: %w", fileType, err)
	}
	buf.WriteString("\n")

	if err := os.WriteFile(fullPath, buf.Bytes(), 0o644); err != nil {
		return plugins.Abort("Project %s summary file '%s' was not written (%v).", fileType, fullPath, err)
	}
	return nil
}

// LoadSummaryFile decodes a previously published summary into v. It reports
// false when there is no regular file at path.
func LoadSummaryFile(path string, v any, summaryName string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, plugins.Abort("Previous %s summary file '%s' was not loaded (%v).", summaryName, path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return false, plugins.Abort("Previous %s summary file '%s' is not a valid JSON file (%v).", summaryName, path, err)
		}
		return false, fmt.Errorf("failed to decode %s summary %s: %w", summaryName, path, err)
	}
	return true, nil
}
