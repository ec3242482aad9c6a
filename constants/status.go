package constants

// ReportStatus is the canonical lifecycle status for rows in reports.
type ReportStatus string

// Stable values (store these exact strings in DB).
const (
	StatusPending   ReportStatus = "pending"   // uploaded, not yet analyzed
	StatusProcessed ReportStatus = "processed" // text extracted
	StatusFailed    ReportStatus = "failed"    // terminal extraction failure
	StatusCompleted ReportStatus = "completed" // insights generated
)
