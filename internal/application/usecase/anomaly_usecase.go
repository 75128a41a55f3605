package usecase

import (
	"fmt"
	"math"
	"strings"

	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
	"github.com/nawuni/aws-cost-copilot-go/pkg/timeseries"
)

// AnomalyConfig bounds an anomaly detection run. It is passed explicitly
// into Detect so runs are deterministic and test-isolated.
type AnomalyConfig struct {
	// LookbackDays is the trailing baseline window for each candidate
	// day. The window never includes the candidate itself and never
	// looks ahead.
	LookbackDays int
	// MinDays is the minimum series length before detection runs at
	// all; shorter histories yield an empty result, not an error.
	MinDays int
}

// DefaultAnomalyConfig mirrors the defaults of the scheduled analysis
// job: a one-week baseline and a one-week minimum history.
func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{LookbackDays: 7, MinDays: 7}
}

const (
	zMediumThreshold = 2.0
	zHighThreshold   = 3.0
)

// AnomalyDetector flags unusually expensive (or cheap) days in a daily
// cost series. It is stateless and safe for concurrent use.
type AnomalyDetector struct{}

// NewAnomalyDetector creates a new anomaly detector.
func NewAnomalyDetector() *AnomalyDetector {
	return &AnomalyDetector{}
}

// Detect runs two independent rules over every candidate day, a z-score
// against the trailing window and the 1.5*IQR fences over the same
// window, and returns the union, ascending by date. A day flagged by
// both rules appears once, with combined reason text and the higher of
// the two implied severities.
//
// Histories shorter than cfg.MinDays return nil: small histories are an
// unreported condition, not an error. Callers who need to distinguish
// "no anomalies" from "not enough data" can check len(series).
func (d *AnomalyDetector) Detect(series []entity.DailyCostPoint, cfg AnomalyConfig) []entity.Anomaly {
	if cfg.LookbackDays <= 0 || cfg.MinDays <= 0 {
		return nil
	}
	if len(series) < cfg.MinDays {
		return nil
	}

	amounts := make([]float64, len(series))
	for i, p := range series {
		amounts[i] = p.Amount
	}

	var anomalies []entity.Anomaly
	for i, point := range series {
		start := i - cfg.LookbackDays
		if start < 0 {
			start = 0
		}
		window := amounts[start:i]
		if len(window) < 2 {
			// Not enough trailing history to form a baseline.
			continue
		}

		if a, ok := evaluateDay(point, window); ok {
			anomalies = append(anomalies, a)
		}
	}
	return anomalies
}

// evaluateDay applies both rules to a single candidate day against its
// trailing window.
func evaluateDay(point entity.DailyCostPoint, window []float64) (entity.Anomaly, bool) {
	mean := timeseries.Mean(window)
	stddev := timeseries.SampleStdDev(window)
	iqrLower, iqrUpper := timeseries.IQRBounds(window)
	extLower, extUpper := timeseries.ExtremeIQRBounds(window)

	var (
		zScore    float64
		zFired    bool
		zSeverity entity.Severity
	)
	if stddev > 0 {
		zScore = (point.Amount - mean) / stddev
		switch {
		case math.Abs(zScore) >= zHighThreshold:
			zFired, zSeverity = true, entity.SeverityHigh
		case math.Abs(zScore) >= zMediumThreshold:
			zFired, zSeverity = true, entity.SeverityMedium
		}
	}

	iqrFired := point.Amount < iqrLower || point.Amount > iqrUpper
	iqrSeverity := entity.SeverityLow
	if stddev == 0 && (point.Amount < extLower || point.Amount > extUpper) {
		// On a zero-variance baseline the z-score is undefined and the
		// fences collapse onto the constant, so the extreme fences carry
		// the grading: any deviation from a perfectly flat window is
		// extreme. With a noisy baseline an IQR-only firing stays low
		// and the z-score rule owns the higher grades.
		iqrSeverity = entity.SeverityHigh
	}

	if !zFired && !iqrFired {
		return entity.Anomaly{}, false
	}

	var reasons []string
	if zFired {
		reasons = append(reasons, fmt.Sprintf("z-score %.2f beyond +/-%.1f of trailing mean $%.2f", zScore, zMediumThreshold, mean))
	}
	if iqrFired {
		if stddev == 0 {
			reasons = append(reasons, fmt.Sprintf("z-score undefined (zero-variance baseline $%.2f); outside IQR bounds [$%.2f, $%.2f]", mean, iqrLower, iqrUpper))
		} else {
			reasons = append(reasons, fmt.Sprintf("outside IQR bounds [$%.2f, $%.2f]", iqrLower, iqrUpper))
		}
	}

	severity := iqrSeverity
	if zFired && severityRank(zSeverity) > severityRank(severity) {
		severity = zSeverity
	}
	if !iqrFired {
		severity = zSeverity
	}

	return entity.Anomaly{
		Date:           point.Date,
		Amount:         point.Amount,
		BaselineMean:   mean,
		BaselineStdDev: stddev,
		ZScore:         zScore,
		IQRLower:       iqrLower,
		IQRUpper:       iqrUpper,
		Severity:       severity,
		Reason:         strings.Join(reasons, "; "),
	}, true
}

func severityRank(s entity.Severity) int {
	switch s {
	case entity.SeverityHigh:
		return 3
	case entity.SeverityMedium:
		return 2
	default:
		return 1
	}
}
