package plugins

import (
	"errors"

	"projectsummarizer.dev/cli/internal/summary"
)

// fakePlugin is a configurable plugin compiled into the test binary.
type fakePlugin struct {
	details    PluginDetails
	detailsErr error
	flag       string
	dest       string

	ctx         *summary.Context
	outputPath  string
	outputErr   error
	reportErr   error
	reportPanic any
	table       *summary.Table
	reports     []string
}

func (p *fakePlugin) GetDetails() (PluginDetails, error) {
	return p.details, p.detailsErr
}

func (p *fakePlugin) SetContext(ctx *summary.Context) error {
	p.ctx = ctx
	return nil
}

func (p *fakePlugin) GetOutputPath() (string, error) {
	return p.outputPath, p.outputErr
}

func (p *fakePlugin) AddCommandLineArguments(args *Arguments) (string, string, error) {
	if err := args.AddString(p.flag, p.dest, "Report file for "+p.details.Name+"."); err != nil {
		return "", "", err
	}
	return p.flag, p.dest, nil
}

func (p *fakePlugin) GenerateReport(onlyChanges bool, columnWidth int, reportFile string) (*summary.Table, error) {
	if p.reportPanic != nil {
		panic(p.reportPanic)
	}
	p.reports = append(p.reports, reportFile)
	return p.table, p.reportErr
}

func validDetails(id string) PluginDetails {
	return PluginDetails{
		ID:               id,
		Name:             "Fake " + id,
		Version:          "1.0.0",
		InterfaceVersion: InterfaceVersionBasic,
	}
}

func fakeFactory(id, flag, dest string, configure ...func(*fakePlugin)) Factory {
	return func() (Plugin, error) {
		p := &fakePlugin{details: validDetails(id), flag: flag, dest: dest}
		for _, c := range configure {
			c(p)
		}
		return p, nil
	}
}

func init() {
	RegisterBuiltin("fake_good", Classes{"FakeGood": fakeFactory("GOOD", "--fake-good", "fake_good_file")})
	RegisterBuiltin("fake_other", Classes{"FakeOther": fakeFactory("OTHER", "--fake-other", "fake_other_file")})
	RegisterBuiltin("fake_twin", Classes{"FakeTwin": fakeFactory("TWIN", "--fake-good", "fake_twin_file")})
	RegisterBuiltin("fake_missing", Classes{"SomethingElse": fakeFactory("ELSE", "--else", "else_file")})
	RegisterBuiltin("fake_ctor_error", Classes{"FakeCtorError": func() (Plugin, error) {
		return nil, errors.New("constructor refused")
	}})
	RegisterBuiltin("fake_ctor_panic", Classes{"FakeCtorPanic": func() (Plugin, error) {
		panic("constructor exploded")
	}})
	RegisterBuiltin("fake_ctor_nil", Classes{"FakeCtorNil": func() (Plugin, error) {
		return nil, nil
	}})
	RegisterBuiltin("fake_details_error", Classes{"FakeDetailsError": fakeFactory("DETAILS", "--details", "details_file",
		func(p *fakePlugin) { p.detailsErr = errors.New("no details today") })})
	RegisterBuiltin("fake_empty_name", Classes{"FakeEmptyName": fakeFactory("EMPTY", "--empty", "empty_file",
		func(p *fakePlugin) { p.details.Name = "" })})
	RegisterBuiltin("fake_version_two", Classes{"FakeVersionTwo": fakeFactory("TWO", "--two", "two_file",
		func(p *fakePlugin) { p.details.InterfaceVersion = 2 })})
	RegisterBuiltin("fake_version_zero", Classes{"FakeVersionZero": fakeFactory("ZERO", "--zero", "zero_file",
		func(p *fakePlugin) { p.details.InterfaceVersion = 0 })})
}
