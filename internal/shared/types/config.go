package types

// Config is the application configuration that can be loaded from a
// TOML, YAML, or JSON file. CLI flags override file values.
type Config struct {
	Profile       string   `json:"profile" yaml:"profile" toml:"profile"`
	Regions       []string `json:"regions" yaml:"regions" toml:"regions"`
	Mode          string   `json:"mode" yaml:"mode" toml:"mode"`
	Input         string   `json:"input" yaml:"input" toml:"input"`
	Days          int      `json:"days" yaml:"days" toml:"days"`
	HorizonDays   int      `json:"horizon_days" yaml:"horizon_days" toml:"horizon_days"`
	MonthlyBudget float64  `json:"monthly_budget" yaml:"monthly_budget" toml:"monthly_budget"`
	LookbackDays  int      `json:"lookback_days" yaml:"lookback_days" toml:"lookback_days"`
	MinDays       int      `json:"min_days" yaml:"min_days" toml:"min_days"`
	DBPath        string   `json:"db_path" yaml:"db_path" toml:"db_path"`
	ReportName    string   `json:"report_name" yaml:"report_name" toml:"report_name"`
	ReportType    []string `json:"report_type" yaml:"report_type" toml:"report_type"`
	Dir           string   `json:"dir" yaml:"dir" toml:"dir"`
	Audit         bool     `json:"audit" yaml:"audit" toml:"audit"`

	Narrative NarrativeConfig `json:"narrative" yaml:"narrative" toml:"narrative"`
}

// NarrativeConfig selects and bounds the advisory text provider.
type NarrativeConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	Provider       string `json:"provider" yaml:"provider" toml:"provider"`
	Model          string `json:"model" yaml:"model" toml:"model"`
	MaxTokens      int    `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
}
