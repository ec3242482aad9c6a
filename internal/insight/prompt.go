package insight

import "strings"

// promptTemplate is the fixed instruction contract sent to the generative
// model. The cleaned report text is embedded verbatim where %REPORT% sits.
// The expected JSON shape is spelled out explicitly so the response can be
// validated against the same schema locally.
const promptTemplate = `Analyze the following blood report data and provide detailed insights in a fixed JSON format for easier parsing. Ensure the analysis is comprehensive, informative, and adaptable to various types of blood tests.

### Key Information to Include:
1. **Detailed Anomalies Analysis**:
   - Highlight any detected anomalies in the test results.
   - Explain potential causes for these anomalies.
   - Provide a severity rating (Low/Medium/High) based on medical significance.
2. **Personalized Health Suggestions**:
   - Offer tailored health improvement suggestions derived from the report data.
   - Focus on practical, actionable advice for better health outcomes.
3. **Critical Findings and Warnings**:
   - Identify any critical findings that require urgent attention.
   - Specify the urgency level (Low/Medium/High).
   - Recommend appropriate actions for the findings.
4. **Follow-Up Recommendations**:
   - Suggest additional tests or medical procedures for further investigation.
   - Clearly justify the reasons for each recommendation.
5. **Summary of Key Findings**:
   - Provide a concise summary of the main insights from the report.

### **Guidelines for the Analysis**:
- Only use data explicitly available in the report.
- Do not infer or assume medical conditions not supported by the provided data.
- Ensure the language is patient-friendly and non-technical wherever possible.

### **Response Format (Fixed JSON)**:
{
  "anomalies_analysis": [
    {
      "anomaly": "Describe the anomaly",
      "potential_causes": ["Cause 1", "Cause 2"],
      "severity": "Low/Medium/High"
    }
  ],
  "personalized_suggestions": [
    {
      "suggestion": "Provide actionable health advice"
    }
  ],
  "critical_findings": [
    {
      "finding": "Describe the critical finding",
      "urgency": "Low/Medium/High",
      "action_required": "Recommended action to address the finding"
    }
  ],
  "follow_up_recommendations": [
    {
      "test_or_procedure": "Name of the test/procedure",
      "reason": "Why this is recommended"
    }
  ],
  "summary": {
    "key_findings": "A brief summary of the main insights"
  }
}

### **Error Handling**:
- If the report data is empty, invalid, or lacks measurable values:
{
  "error": "The provided report data is empty or invalid. Unable to generate insights."
}

**Report Data**:
%REPORT%

### **Additional Notes**:
- Ensure flexibility to analyze any type of blood report data.
- Maintain consistency in formatting and clarity in descriptions.
- Avoid technical jargon unless necessary and provide explanations where applicable.
- Return ONLY the JSON object, with no surrounding prose or code fences.`

// BuildPrompt embeds the cleaned report text into the fixed contract.
func BuildPrompt(cleanedText string) string {
	return strings.Replace(promptTemplate, "%REPORT%", cleanedText, 1)
}
