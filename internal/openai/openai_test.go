package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crisisReplay/internal/crisis"
	"crisisReplay/internal/finance"
	"crisisReplay/internal/replay"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// fakeChat answers every chat completion with reply and keeps the last request.
func fakeChat(t *testing.T, reply string) (*httptest.Server, *chatRequest) {
	t.Helper()
	var last chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &last))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

func clientOpts(srv *httptest.Server) []option.RequestOption {
	return []option.RequestOption{option.WithBaseURL(srv.URL + "/"), option.WithMaxRetries(0)}
}

func testOutcome(t *testing.T) *replay.Outcome {
	t.Helper()
	gfc, ok := crisis.Default().Lookup("gfc")
	require.True(t, ok)
	return &replay.Outcome{
		Crisis:  gfc,
		Start:   gfc.Start,
		End:     finance.MustParseDate("2009-09-30"),
		Cadence: finance.Weekly,
		Tickers: []string{"SPY", "TLT"},
		Dropped: []string{"QQQM"},
		Result: &finance.SimulationResult{
			Weights: map[string]float64{"SPY": 0.25, "TLT": 0.75},
			Metrics: finance.Metrics{TotalReturn: -0.05, MaxDrawdown: -0.31, AnnVol: 0.2, Sharpe: -0.1},
		},
	}
}

func TestOutcomePrompt(t *testing.T) {
	p := outcomePrompt(testOutcome(t))
	assert.Contains(t, p, "Crisis: 2008 Global Financial Crisis (2007-10-01 to 2009-03-31)\n")
	assert.Contains(t, p, "Replay window: 2007-10-01 to 2009-09-30, weekly rebalancing\n")
	// heaviest holding first
	assert.Contains(t, p, "Weights: TLT 75.00% SPY 25.00%\n")
	assert.Contains(t, p, "Dropped for missing data: QQQM\n")
	assert.Contains(t, p, "Max drawdown: -31.00%\nRecovery: Not recovered\n")
	assert.Contains(t, p, "Driver: Housing bubble + rising mortgage defaults\n")
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "see", sanitize(" see https://example.com/x ![chart](https://img/x.png)"))
	long := make([]byte, 2500)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, sanitize(string(long)), 2000)
}

func TestSummarize(t *testing.T) {
	srv, last := fakeChat(t, "  - TLT cushioned the fall\n")
	s := NewSummarizer("test-key", clientOpts(srv)...)

	out, err := s.Summarize(context.Background(), testOutcome(t))
	require.NoError(t, err)
	assert.Equal(t, "- TLT cushioned the fall", out)

	assert.Equal(t, "gpt-4", last.Model)
	require.Len(t, last.Messages, 2)
	assert.Equal(t, "system", last.Messages[0].Role)
	assert.Contains(t, last.Messages[1].Content, "2008 Global Financial Crisis")
}

func TestSummarizeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewSummarizer("test-key", clientOpts(srv)...).Summarize(context.Background(), testOutcome(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OpenAI API error")
}

func TestParseTickers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"bold markdown", "**Tickers:** TLT, GLD, SHY\n\n**Why these held up:**\n- TLT ...", []string{"TLT", "GLD", "SHY"}},
		{"plain and lower case", "tickers: tlt gld tlt", []string{"TLT", "GLD"}},
		{"canadian suffix", "Tickers: XBB.TO; CGL.TO.", []string{"XBB.TO", "CGL.TO"}},
		{"bracketed", "**Tickers:** [IEF, BIL]", []string{"IEF", "BIL"}},
		{"no line", "I would hold bonds.", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTickers(tt.text))
		})
	}
}

func TestSuggestBasket(t *testing.T) {
	reply := "**Tickers:** TLT, GLD, SHY\n\n**Why these held up:**\n- Flight to quality"
	srv, last := fakeChat(t, reply)
	r := NewRecommender("test-key", clientOpts(srv)...)

	covid, _ := crisis.Default().Lookup("covid")
	sug, err := r.SuggestBasket(context.Background(), covid)
	require.NoError(t, err)
	assert.Equal(t, reply, sug.Text)
	assert.Equal(t, []string{"TLT", "GLD", "SHY"}, sug.Tickers)
	assert.Equal(t, "/replay covid TLT GLD SHY", sug.ReplayCommand("covid"))
	assert.Empty(t, Suggestion{}.ReplayCommand("covid"))

	require.Len(t, last.Messages, 2)
	assert.Contains(t, last.Messages[1].Content, "Crisis: COVID-19 Market Crash\nWindow: 2020-02-01 to 2020-04-30\n")
	assert.Contains(t, last.Messages[1].Content, "Drivers: Lockdowns and demand collapse; ")
}
