package telegram

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"crisisReplay/internal/crisis"
	"crisisReplay/internal/finance"
	"crisisReplay/internal/openai"
	"crisisReplay/internal/replay"
	"crisisReplay/internal/report"
	"crisisReplay/internal/storage"
)

var (
	reHelp   = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
	reCrises = regexp.MustCompile(`^/crises(?:@[\w_]+)?$`)
	// /brief CRISIS
	reBrief = regexp.MustCompile(`^/brief(?:@[\w_]+)?(?:\s+(.+))?$`)
	// /replay CRISIS [TICKER [weight]]... [daily|weekly|monthly] [recovery=24m] [ca]
	reReplay = regexp.MustCompile(`^/replay(?:@[\w_]+)?(?:\s+.*)?$`)
	// /compare CRISIS [TICKER [weight]]... [recovery=24m] [ca]
	reCompare = regexp.MustCompile(`^/compare(?:@[\w_]+)?(?:\s+.*)?$`)
	// /ideas CRISIS
	reIdeas = regexp.MustCompile(`^/ideas(?:@[\w_]+)?(?:\s+(.+))?$`)
	// /history [days]
	reHistory = regexp.MustCompile(`^/history(?:@[\w_]+)?(?:\s+(\d+))?$`)
)

// Sender delivers messages and photos. *tgbotapi.BotAPI implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// RunHistory reads recorded runs. storage.Store implements it.
type RunHistory interface {
	RecentRuns(ctx context.Context, limit int) ([]storage.Run, error)
	RunCounts(ctx context.Context, since time.Time) (map[string]int, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, o *replay.Outcome) (string, error)
}

type Recommender interface {
	SuggestBasket(ctx context.Context, cr crisis.Crisis) (openai.Suggestion, error)
}

type Handlers struct {
	api       Sender
	svc       *replay.Service
	history   RunHistory
	summarize Summarizer
	recommend Recommender
	logger    *zap.Logger
	timeout   time.Duration
}

type HandlerOption func(*Handlers)

func WithHistory(h RunHistory) HandlerOption { return func(x *Handlers) { x.history = h } }

// WithOpenAI enables replay commentary and /ideas.
func WithOpenAI(s Summarizer, r Recommender) HandlerOption {
	return func(x *Handlers) {
		x.summarize = s
		x.recommend = r
	}
}

func NewHandlers(api Sender, svc *replay.Service, logger *zap.Logger, opts ...HandlerOption) *Handlers {
	h := &Handlers{api: api, svc: svc, logger: logger, timeout: 90 * time.Second}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	if m == nil || m.Chat == nil {
		return
	}
	chatID := m.Chat.ID
	txt := strings.TrimSpace(m.Text)

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	switch {
	case reHelp.MatchString(txt):
		h.handleHelp(chatID)

	case reCrises.MatchString(txt):
		h.handleCrises(chatID)

	case reBrief.MatchString(txt):
		h.handleBrief(chatID, reBrief.FindStringSubmatch(txt)[1])

	case reReplay.MatchString(txt):
		h.handleReplay(ctx, chatID, txt)

	case reCompare.MatchString(txt):
		h.handleCompare(ctx, chatID, txt)

	case reIdeas.MatchString(txt):
		h.handleIdeas(ctx, chatID, reIdeas.FindStringSubmatch(txt)[1])

	case reHistory.MatchString(txt):
		days := 30
		if g := reHistory.FindStringSubmatch(txt); g[1] != "" {
			fmt.Sscanf(g[1], "%d", &days)
			if days < 1 {
				days = 1
			}
			if days > 365 {
				days = 365
			}
		}
		h.handleHistory(ctx, chatID, days)
	}
}

func (h *Handlers) handleHelp(chatID int64) {
	help := "Commands\n\n" +
		"- /crises - List the crisis windows\n" +
		"- /brief CRISIS - Background, key dates and what held up\n" +
		"- /replay CRISIS [TICKER [weight]]... [daily|weekly|monthly] [recovery=24m] [ca] - Replay a basket through a crisis\n" +
		"- /compare CRISIS [TICKER [weight]]... [recovery=24m] [ca] - Same basket at every rebalance cadence\n" +
		"- /ideas CRISIS - Suggest a basket that held up (needs OpenAI)\n" +
		"- /history [days] - Most replayed crises (default: 30 days)\n" +
		"\nCRISIS is a key, alias or number from /crises. Without tickers the default basket is used: " +
		strings.Join(h.svc.DefaultTickers(), " ") + ".\n" +
		"Example: /replay covid SPY 60 TLT 40 weekly recovery=12m"
	h.reply(chatID, help)
}

func (h *Handlers) handleCrises(chatID int64) {
	var b strings.Builder
	b.WriteString("Crises\n\n")
	for i, cr := range h.svc.Catalog().All() {
		keys := append([]string{cr.Key}, cr.Aliases...)
		fmt.Fprintf(&b, "%d. %s [%s]\n", i+1, cr.Name, strings.Join(keys, ", "))
	}
	b.WriteString("\nTry /brief 1 or /replay 1")
	h.reply(chatID, b.String())
}

func (h *Handlers) lookup(chatID int64, q string) (crisis.Crisis, bool) {
	q = strings.TrimSpace(q)
	if q == "" {
		h.reply(chatID, "Which crisis? Pick one from /crises, e.g. covid")
		return crisis.Crisis{}, false
	}
	cr, ok := h.svc.Catalog().Lookup(q)
	if !ok {
		h.reply(chatID, fmt.Sprintf("Unknown crisis %q. Try one of: %s", q, strings.Join(h.svc.Catalog().Keys(), ", ")))
	}
	return cr, ok
}

func (h *Handlers) handleBrief(chatID int64, q string) {
	cr, ok := h.lookup(chatID, q)
	if !ok {
		return
	}
	h.reply(chatID, briefText(cr))
}

func (h *Handlers) handleReplay(ctx context.Context, chatID int64, txt string) {
	cmd, err := finance.ParseReplayCommand(txt)
	if err != nil {
		h.reply(chatID, err.Error())
		return
	}
	out, err := h.svc.Run(ctx, replay.FromCommand(cmd, "telegram"))
	if err != nil {
		h.reply(chatID, "Replay failed: "+err.Error())
		return
	}

	img, err := finance.MakeEquityChart(out.Title(), out.Result)
	if err != nil {
		h.reply(chatID, "Chart failed: "+err.Error())
		return
	}
	h.sendPhoto(chatID, out.Crisis.Key+"_equity.png", img, report.Caption(out))

	if img, err := finance.MakeDrawdownChart(out.Title(), out.Result); err == nil {
		h.sendPhoto(chatID, out.Crisis.Key+"_drawdown.png", img,
			"Drawdown • max "+finance.FormatPct(out.Result.Metrics.MaxDrawdown))
	} else {
		h.logger.Warn("telegram: drawdown chart", zap.Error(err))
	}

	if h.summarize == nil {
		return
	}
	text, err := h.summarize.Summarize(ctx, out)
	if err != nil {
		h.logger.Warn("telegram: summarize replay", zap.String("run", out.RunID), zap.Error(err))
		return
	}
	h.reply(chatID, text)
}

func (h *Handlers) handleCompare(ctx context.Context, chatID int64, txt string) {
	cmd, err := finance.ParseReplayCommand(txt)
	if err != nil {
		h.reply(chatID, strings.Replace(err.Error(), "/replay", "/compare", 1))
		return
	}
	outs, err := h.svc.Compare(ctx, replay.FromCommand(cmd, "telegram"))
	if err != nil {
		h.reply(chatID, "Compare failed: "+err.Error())
		return
	}

	first := outs[0]
	img, err := finance.MakeComparisonChart(first.Crisis.Label+" • Cadences", replay.ComparisonCurves(outs))
	if err != nil {
		h.reply(chatID, "Chart failed: "+err.Error())
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s → %s\n", first.Crisis.Label, first.Start, first.End)
	for _, o := range outs {
		m := o.Result.Metrics
		fmt.Fprintf(&b, "%s: %s • max dd %s • %s\n", strings.ToUpper(string(o.Cadence)),
			finance.FormatPct(m.TotalReturn), finance.FormatPct(m.MaxDrawdown), finance.FormatRecovery(m.TimeToRecoveryDays))
	}
	b.WriteString("Tickers: " + strings.Join(first.Tickers, ", "))
	if warn := first.Warning(); warn != "" {
		b.WriteString("\n⚠️ " + warn)
	}
	h.sendPhoto(chatID, first.Crisis.Key+"_cadences.png", img, b.String())
}

func (h *Handlers) handleIdeas(ctx context.Context, chatID int64, q string) {
	if h.recommend == nil {
		h.reply(chatID, "Ideas are not enabled on this bot (no OpenAI key configured).")
		return
	}
	cr, ok := h.lookup(chatID, q)
	if !ok {
		return
	}
	h.reply(chatID, "Thinking about "+cr.Label+"…")
	sug, err := h.recommend.SuggestBasket(ctx, cr)
	if err != nil {
		h.reply(chatID, "Ideas failed: "+err.Error())
		return
	}
	text := sug.Text
	if cmd := sug.ReplayCommand(cr.Key); cmd != "" {
		text += "\n\nReplay it: " + cmd
	}
	h.reply(chatID, text)
}

func (h *Handlers) handleHistory(ctx context.Context, chatID int64, days int) {
	if h.history == nil {
		h.reply(chatID, "History is not enabled on this bot.")
		return
	}
	counts, err := h.history.RunCounts(ctx, time.Now().AddDate(0, 0, -days))
	if err != nil {
		h.reply(chatID, "History failed: "+err.Error())
		return
	}
	if len(counts) == 0 {
		h.reply(chatID, finance.FormatRunCountsText(counts, days))
		return
	}

	if img, err := finance.MakeRunsChart(counts, days); err == nil {
		h.sendPhoto(chatID, "history.png", img, fmt.Sprintf("Replays by crisis • last %d days", days))
	} else {
		h.logger.Warn("telegram: runs chart", zap.Error(err))
	}

	var b strings.Builder
	b.WriteString(finance.FormatRunCountsText(counts, days))
	if runs, err := h.history.RecentRuns(ctx, 5); err == nil && len(runs) > 0 {
		b.WriteString("\n*Latest*\n")
		for _, r := range runs {
			fmt.Fprintf(&b, "• %s %s %s: %s\n", r.Crisis, strings.Join(r.Tickers(), "/"), r.Cadence, finance.FormatPct(r.TotalReturn))
		}
	}
	msg := tgbotapi.NewMessage(chatID, b.String())
	msg.ParseMode = "Markdown"
	h.send(msg)
}

// briefText renders a crisis brief as plain chat text.
func briefText(cr crisis.Crisis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s to %s\n", cr.Label, cr.Start, cr.End)
	br := cr.Brief
	if br == nil {
		b.WriteString("\nNo brief for this crisis yet.")
		return b.String()
	}
	fmt.Fprintf(&b, "\n%s\n", br.Summary)
	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s\n", title)
		for _, l := range lines {
			fmt.Fprintf(&b, "• %s\n", l)
		}
	}
	section("Drivers", br.Drivers)
	dates := make([]string, 0, len(br.KeyDates))
	for _, d := range br.KeyDates {
		dates = append(dates, d.Date.String()+" "+d.Label)
	}
	section("Key dates", dates)
	section("What worked", br.WhatWorked)
	news := make([]string, 0, len(br.News))
	for _, n := range br.News {
		news = append(news, fmt.Sprintf("%s (%s, %s) %s", n.Title, n.Source, n.Date, n.URL))
	}
	section("News", news)
	return strings.TrimRight(b.String(), "\n")
}

func (h *Handlers) sendPhoto(chatID int64, name string, img []byte, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: img})
	photo.Caption = caption
	h.send(photo)
}

func (h *Handlers) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handlers) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		h.logger.Warn("telegram: send failed", zap.Error(err))
	}
}
