package openai

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"crisisReplay/internal/finance"
	"crisisReplay/internal/replay"
)

// Summarizer explains a finished replay in a few chat-sized bullets.
type Summarizer struct {
	cli oa.Client
}

func NewSummarizer(apiKey string, opts ...option.RequestOption) *Summarizer {
	client := oa.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &Summarizer{cli: client}
}

const summarizerPrompt = "You are a concise, text-only market historian. You get the result of a portfolio replayed through a historical crisis. " +
	"In at most 6 bullets explain which holdings drove the drawdown and the recovery, referring to the crisis drivers. " +
	"Quote the numbers you are given, do not invent new ones. No links, no investment advice."

func (s *Summarizer) Summarize(ctx context.Context, o *replay.Outcome) (string, error) {
	resp, err := s.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: "gpt-4",
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(summarizerPrompt),
			oa.UserMessage(outcomePrompt(o)),
		},
		MaxTokens: oa.Int(500),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// outcomePrompt lays out the replay as plain facts for the model.
func outcomePrompt(o *replay.Outcome) string {
	m := o.Result.Metrics
	var b strings.Builder
	fmt.Fprintf(&b, "Crisis: %s (%s to %s)\n", o.Crisis.Label, o.Crisis.Start, o.Crisis.End)
	fmt.Fprintf(&b, "Replay window: %s to %s, %s rebalancing\n", o.Start, o.End, o.Cadence)

	tickers := append([]string(nil), o.Tickers...)
	sort.SliceStable(tickers, func(i, j int) bool { return o.Result.Weights[tickers[i]] > o.Result.Weights[tickers[j]] })
	b.WriteString("Weights:")
	for _, t := range tickers {
		fmt.Fprintf(&b, " %s %s", t, finance.FormatPct(o.Result.Weights[t]))
	}
	b.WriteString("\n")
	if len(o.Dropped) > 0 {
		fmt.Fprintf(&b, "Dropped for missing data: %s\n", strings.Join(o.Dropped, ", "))
	}

	fmt.Fprintf(&b, "Total return: %s\nMax drawdown: %s\nRecovery: %s\nAnnualized volatility: %s\nSharpe: %.2f\n",
		finance.FormatPct(m.TotalReturn), finance.FormatPct(m.MaxDrawdown),
		finance.FormatRecovery(m.TimeToRecoveryDays), finance.FormatPct(m.AnnVol), m.Sharpe)

	if br := o.Crisis.Brief; br != nil {
		fmt.Fprintf(&b, "Background: %s\n", sanitize(br.Summary))
		for _, d := range br.Drivers {
			fmt.Fprintf(&b, "Driver: %s\n", sanitize(d))
		}
	}
	return b.String()
}

var (
	reMarkdownImg = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`) // ![alt](url)
	reURL         = regexp.MustCompile(`https?://\S+`)
)

// sanitize strips media and links from configured brief text and caps its length.
func sanitize(text string) string {
	text = reMarkdownImg.ReplaceAllString(text, "")
	text = reURL.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	if len(text) > 2000 {
		text = text[:2000]
	}
	return text
}
