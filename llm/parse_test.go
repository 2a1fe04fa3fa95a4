package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const completeAnalysis = `{
	"summary": {"overall_assessment": "Solid application"},
	"credit_risk_analysis": {"risk_score": 25},
	"financial_metrics": {"debt_to_income_ratio": 28.5},
	"loan_metrics": {"monthly_payment": 1520.11},
	"property_analysis": {"market_risk": "Low"},
	"economic_factors": {"interest_rate_trend": "Stable"},
	"chart_data": {"debt_breakdown": {}}
}`

func TestExtractJSONObjectDirect(t *testing.T) {
	out, err := ExtractJSONObject(completeAnalysis)
	require.NoError(t, err)
	require.Contains(t, out, "summary")
}

func TestExtractJSONObjectWrappedInProse(t *testing.T) {
	text := "Here is the result: " + completeAnalysis + " Thanks for asking!"

	out, err := ExtractJSONObject(text)
	require.NoError(t, err)
	require.Contains(t, out, "credit_risk_analysis")
}

func TestExtractJSONObjectFencedMarkdown(t *testing.T) {
	text := "```json\n" + completeAnalysis + "\n```"

	out, err := ExtractJSONObject(text)
	require.NoError(t, err)
	require.Contains(t, out, "chart_data")
}

func TestExtractJSONObjectNoObject(t *testing.T) {
	_, err := ExtractJSONObject("I am sorry, I cannot produce an assessment.")
	require.ErrorIs(t, err, ErrNoJSONObject)
}

func TestExtractJSONObjectMalformedSpan(t *testing.T) {
	_, err := ExtractJSONObject(`prefix {"summary": } suffix`)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoJSONObject)
	require.Contains(t, err.Error(), "failed to parse extracted JSON")
}

func TestValidateAnalysisComplete(t *testing.T) {
	out, err := ExtractJSONObject(completeAnalysis)
	require.NoError(t, err)
	require.NoError(t, ValidateAnalysis(out))
}

func TestValidateAnalysisNamesEveryMissingSection(t *testing.T) {
	err := ValidateAnalysis(map[string]any{
		"summary":              map[string]any{},
		"credit_risk_analysis": map[string]any{},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "financial_metrics")
	require.Contains(t, err.Error(), "loan_metrics")
	require.Contains(t, err.Error(), "property_analysis")
	require.Contains(t, err.Error(), "economic_factors")
	require.Contains(t, err.Error(), "chart_data")
}
