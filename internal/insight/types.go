package insight

// Severity values the model is instructed to use for anomalies and findings.
const (
	SeverityLow    = "Low"
	SeverityMedium = "Medium"
	SeverityHigh   = "High"
)

// Anomaly is one detected deviation in the report values.
type Anomaly struct {
	Anomaly         string   `json:"anomaly"`
	PotentialCauses []string `json:"potential_causes"`
	Severity        string   `json:"severity"`
}

// Suggestion is one piece of actionable health advice.
type Suggestion struct {
	Suggestion string `json:"suggestion"`
}

// CriticalFinding is a result that needs urgent attention.
type CriticalFinding struct {
	Finding        string `json:"finding"`
	Urgency        string `json:"urgency"`
	ActionRequired string `json:"action_required"`
}

// FollowUp recommends an additional test or procedure.
type FollowUp struct {
	TestOrProcedure string `json:"test_or_procedure"`
	Reason          string `json:"reason"`
}

// Summary carries the condensed verdict of the whole report.
type Summary struct {
	KeyFindings string `json:"key_findings"`
}

// Analysis is the structured clinical-insight object produced by the
// generative model. Either the five facets are populated, or Error carries
// the model's own judgment that the input lacks measurable data — never a
// mix of both shapes.
type Analysis struct {
	AnomaliesAnalysis       []Anomaly         `json:"anomalies_analysis,omitempty"`
	PersonalizedSuggestions []Suggestion      `json:"personalized_suggestions,omitempty"`
	CriticalFindings        []CriticalFinding `json:"critical_findings,omitempty"`
	FollowUpRecommendations []FollowUp        `json:"follow_up_recommendations,omitempty"`
	Summary                 *Summary          `json:"summary,omitempty"`
	Error                   string            `json:"error,omitempty"`
}

// Unusable reports whether the model judged the input to have no measurable
// data. This is a normal result value, not a pipeline failure.
func (a *Analysis) Unusable() bool {
	return a != nil && a.Error != ""
}
