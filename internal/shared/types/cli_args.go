package types

// CLIArgs represents the parsed command-line arguments for an analysis
// run.
type CLIArgs struct {
	ConfigFile    string
	Profile       string
	Regions       []string
	Mode          string
	Input         string
	Days          int
	HorizonDays   int
	MonthlyBudget float64
	LookbackDays  int
	MinDays       int
	DBPath        string
	ReportName    string
	ReportType    []string
	Dir           string
	Audit         bool
	Narrative     bool
}
