package repository

import (
	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
	"github.com/nawuni/aws-cost-copilot-go/internal/shared/types"
)

// ExportRepository writes an analysis report to disk in the requested
// formats, returning the written file path.
type ExportRepository interface {
	ExportToCSV(report entity.AnalysisReport, filename, outputDir string) (string, error)
	ExportToJSON(report entity.AnalysisReport, filename, outputDir string) (string, error)
	ExportToPDF(report entity.AnalysisReport, filename, outputDir string) (string, error)
}

// ConfigRepository loads configuration files.
type ConfigRepository interface {
	LoadConfigFile(filePath string) (*types.Config, error)
}
