package insight

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fence without trailing newline", "```json\n{\"a\":1}```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}  ", `{"a":1}`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, StripCodeFence(tt.in))
		})
	}
}

func TestBuildPromptEmbedsReportVerbatim(t *testing.T) {
	req := require.New(t)
	text := "Hemoglobin 13.5 g/dL, WBC Count 8.1"
	p := BuildPrompt(text)
	req.Contains(p, text)
	req.Contains(p, `"anomalies_analysis"`)
	req.Contains(p, `"personalized_suggestions"`)
	req.Contains(p, `"critical_findings"`)
	req.Contains(p, `"follow_up_recommendations"`)
	req.Contains(p, `"key_findings"`)
	req.Contains(p, `"error"`)
}
