package openai

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"crisisReplay/internal/crisis"
)

type Recommender struct {
	cli oa.Client
}

func NewRecommender(apiKey string, opts ...option.RequestOption) *Recommender {
	client := oa.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &Recommender{cli: client}
}

// Suggestion is a basket idea for one crisis.
type Suggestion struct {
	Text    string
	Tickers []string // parsed from the "Tickers:" line, may be empty
}

// ReplayCommand is the chat command that replays the suggested basket.
func (s Suggestion) ReplayCommand(crisisKey string) string {
	if len(s.Tickers) == 0 {
		return ""
	}
	return "/replay " + crisisKey + " " + strings.Join(s.Tickers, " ")
}

const recommenderPrompt = `You are a financial historian suggesting liquid, US-listed ETFs that held up during a historical market crisis. You will receive the crisis name, its window and a short brief.

Your response must follow this exact structure:

**Tickers:** [4 to 6 ticker symbols, comma separated, e.g. TLT, GLD, SHY]

**Why these held up:**
[One bullet per ticker: what it tracks and why it did well or fell less in this crisis]

**Caveats:**
[Two bullets: what made this crisis unusual and why the same basket may not work next time]

Guidelines:
- Only instruments that existed during the crisis window
- No leverage, no single stocks
- This is historical analysis, not investment advice`

func suggestPrompt(cr crisis.Crisis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Crisis: %s\nWindow: %s to %s\n", cr.Label, cr.Start, cr.End)
	if cr.Brief != nil {
		fmt.Fprintf(&b, "Brief: %s\n", cr.Brief.Summary)
		if len(cr.Brief.Drivers) > 0 {
			fmt.Fprintf(&b, "Drivers: %s\n", strings.Join(cr.Brief.Drivers, "; "))
		}
	}
	b.WriteString("\nSuggest a defensive basket following the structured format.")
	return b.String()
}

// SuggestBasket asks for tickers that historically held up during cr.
func (r *Recommender) SuggestBasket(ctx context.Context, cr crisis.Crisis) (Suggestion, error) {
	resp, err := r.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: "gpt-4",
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(recommenderPrompt),
			oa.UserMessage(suggestPrompt(cr)),
		},
		MaxTokens: oa.Int(800), // Limit response length for telegram
	})
	if err != nil {
		return Suggestion{}, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Suggestion{}, fmt.Errorf("no response from OpenAI")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	return Suggestion{Text: text, Tickers: parseTickers(text)}, nil
}

var (
	reTickersLine = regexp.MustCompile(`(?im)^\W*tickers\W*:\**\s*(.+)$`)
	reSymbol      = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)
)

// parseTickers reads the symbols from the "Tickers:" line of a reply.
func parseTickers(text string) []string {
	m := reTickersLine.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	for _, f := range strings.FieldsFunc(m[1], func(r rune) bool { return r == ',' || r == ' ' || r == ';' }) {
		sym := strings.ToUpper(strings.Trim(f, "*`[]()."))
		if !reSymbol.MatchString(sym) || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out
}
