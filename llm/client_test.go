package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// completionServer emulates an OpenAI-compatible chat-completions endpoint
// replying with a fixed message content.
func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req["model"])
		require.NotEqual(t, true, req["stream"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(srv *httptest.Server) *Client {
	return NewClient(Options{APIKey: "test-key", BaseURL: srv.URL})
}

var sampleInput = map[string]any{
	"customer_name":     "John Doe",
	"loan_amount":       300000,
	"customer_details":  map[string]any{"age": 35},
	"loan_details":      map[string]any{"term_years": 30},
	"market_conditions": map[string]any{"inflation_rate": 3.1},
}

func TestAnalyzeLoanParsesProseWrappedReply(t *testing.T) {
	srv := completionServer(t, "Sure! Here is the assessment:\n"+completeAnalysis+"\nLet me know if you need more.")

	result, err := testClient(srv).AnalyzeLoan(context.Background(), sampleInput)
	require.NoError(t, err)
	require.Contains(t, result, "summary")
	require.Contains(t, result, "chart_data")
}

func TestAnalyzeLoanMissingSections(t *testing.T) {
	srv := completionServer(t, `{"summary": {"overall_assessment": "ok"}}`)

	_, err := testClient(srv).AnalyzeLoan(context.Background(), sampleInput)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to analyze loan application")
	require.Contains(t, err.Error(), "missing required fields in analysis")
	require.Contains(t, err.Error(), "credit_risk_analysis")
}

func TestAnalyzeLoanNoJSONInReply(t *testing.T) {
	srv := completionServer(t, "I cannot help with that.")

	_, err := testClient(srv).AnalyzeLoan(context.Background(), sampleInput)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrNoJSONObject)
	require.Contains(t, err.Error(), "failed to analyze loan application")
}

func TestAnalyzeLoanMissingAPIKey(t *testing.T) {
	c := NewClient(Options{})

	_, err := c.AnalyzeLoan(context.Background(), sampleInput)
	require.Error(t, err)
	require.Contains(t, err.Error(), "GROQ_API_KEY")
}

func TestAnalyzeLoanUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "boom"}}`, http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := testClient(srv).AnalyzeLoan(context.Background(), sampleInput)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to analyze loan application")
}

func TestExtractApplication(t *testing.T) {
	srv := completionServer(t, `Here you go: {"customer_name": "Jane Roe", "loan_amount": 250000}`)

	out, err := testClient(srv).ExtractApplication(context.Background(), "Jane Roe wants a $250k mortgage")
	require.NoError(t, err)
	require.Equal(t, "Jane Roe", out["customer_name"])
}

func TestExtractApplicationMissingAPIKey(t *testing.T) {
	c := NewClient(Options{})

	_, err := c.ExtractApplication(context.Background(), "some text")
	require.Error(t, err)
	require.Contains(t, err.Error(), "GROQ_API_KEY")
}
