package junit

import (
	"encoding/json"
	"sort"
)

// Measurement holds the test counts of one test class.
type Measurement struct {
	Name          string `json:"name"`
	TotalTests    int    `json:"totalTests"`
	FailedTests   int    `json:"failedTests"`
	ErrorTests    int    `json:"errorTests"`
	SkippedTests  int    `json:"skippedTests"`
	ElapsedTimeMs int    `json:"elapsedTimeInMilliseconds"`
}

// Totals is the content of test-results.json.
type Totals struct {
	ProjectName  string
	ReportSource string
	Measurements map[string]*Measurement
}

type totalsFile struct {
	ProjectName  string        `json:"projectName"`
	ReportSource string        `json:"reportSource"`
	Measurements []Measurement `json:"measurements"`
}

func newTotals(projectName, reportSource string) *Totals {
	return &Totals{
		ProjectName:  projectName,
		ReportSource: reportSource,
		Measurements: make(map[string]*Measurement),
	}
}

// measurement returns the measurement for className, adding it if needed.
func (t *Totals) measurement(className string) *Measurement {
	m, ok := t.Measurements[className]
	if !ok {
		m = &Measurement{Name: className}
		t.Measurements[className] = m
	}
	return m
}

// names returns the measured class names in sorted order.
func (t *Totals) names() []string {
	names := make([]string, 0, len(t.Measurements))
	for name := range t.Measurements {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// grandTotals sums the counts of every class.
func (t *Totals) grandTotals() Measurement {
	totals := Measurement{Name: "totals"}
	for _, name := range t.names() {
		m := t.Measurements[name]
		totals.TotalTests += m.TotalTests
		totals.SkippedTests += m.SkippedTests
		totals.FailedTests += m.FailedTests
	}
	return totals
}

// MarshalJSON writes the measurements as an array sorted by name.
func (t *Totals) MarshalJSON() ([]byte, error) {
	file := totalsFile{
		ProjectName:  t.ProjectName,
		ReportSource: t.ReportSource,
		Measurements: make([]Measurement, 0, len(t.Measurements)),
	}
	for _, name := range t.names() {
		file.Measurements = append(file.Measurements, *t.Measurements[name])
	}
	return json.Marshal(file)
}

// UnmarshalJSON reads the array form back, keyed by name. A later entry
// with the same name replaces an earlier one.
func (t *Totals) UnmarshalJSON(data []byte) error {
	var file totalsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}
	*t = *newTotals(file.ProjectName, file.ReportSource)
	for i := range file.Measurements {
		m := file.Measurements[i]
		t.Measurements[m.Name] = &m
	}
	return nil
}
