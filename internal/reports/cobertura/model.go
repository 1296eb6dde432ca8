package cobertura

// Measurement is a covered/measured pair at one level of detail.
type Measurement struct {
	TotalMeasured int `json:"totalMeasured"`
	TotalCovered  int `json:"totalCovered"`
}

// Totals is the content of coverage.json. Levels the report does not
// measure are nil and left out of the file.
type Totals struct {
	ProjectName      string       `json:"projectName"`
	ReportSource     string       `json:"reportSource"`
	InstructionLevel *Measurement `json:"instructionLevel,omitempty"`
	BranchLevel      *Measurement `json:"branchLevel,omitempty"`
	LineLevel        *Measurement `json:"lineLevel,omitempty"`
	ComplexityLevel  *Measurement `json:"complexityLevel,omitempty"`
	MethodLevel      *Measurement `json:"methodLevel,omitempty"`
	ClassLevel       *Measurement `json:"classLevel,omitempty"`
}

// level pairs a row title with the measurement it shows.
type level struct {
	title string
	get   func(*Totals) *Measurement
}

var levels = []level{
	{"Instructions", func(t *Totals) *Measurement { return t.InstructionLevel }},
	{"Lines", func(t *Totals) *Measurement { return t.LineLevel }},
	{"Branches", func(t *Totals) *Measurement { return t.BranchLevel }},
	{"Complexity", func(t *Totals) *Measurement { return t.ComplexityLevel }},
	{"Methods", func(t *Totals) *Measurement { return t.MethodLevel }},
	{"Classes", func(t *Totals) *Measurement { return t.ClassLevel }},
}
