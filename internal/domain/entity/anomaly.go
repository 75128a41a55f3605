package entity

import "time"

// Severity grades how unusual a flagged day is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Anomaly is one flagged day in a daily cost series. It is produced by
// the detector and never mutated afterwards.
type Anomaly struct {
	Date           time.Time `json:"date"`
	Amount         float64   `json:"amount"`
	BaselineMean   float64   `json:"baseline_mean"`
	BaselineStdDev float64   `json:"baseline_stddev"`
	// ZScore is 0 when BaselineStdDev is 0; the z-score is undefined
	// against a zero-variance baseline and only the IQR rule applies.
	ZScore   float64  `json:"z_score"`
	IQRLower float64  `json:"iqr_lower"`
	IQRUpper float64  `json:"iqr_upper"`
	Severity Severity `json:"severity"`
	Reason   string   `json:"reason"`
}
