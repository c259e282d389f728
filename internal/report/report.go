// Package report renders replay outcomes as markdown, HTML and plain text.
package report

import (
	"bytes"
	"fmt"
	"strings"

	md "github.com/nao1215/markdown"

	"crisisReplay/internal/crisis"
	"crisisReplay/internal/finance"
	"crisisReplay/internal/replay"
)

// Markdown renders a finished replay: headline metrics, the normalized
// weights, dropped tickers and the crisis brief.
func Markdown(o *replay.Outcome) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(o.Crisis.Label)
	doc.PlainText(fmt.Sprintf("%s to %s (crisis ends %s, %d months of recovery) • %s rebalancing",
		o.Start, o.End, o.Crisis.End, o.RecoveryMonths, o.Cadence))

	m := o.Result.Metrics
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total return", finance.FormatPct(m.TotalReturn)},
			{"Max drawdown", finance.FormatPct(m.MaxDrawdown)},
			{"Time to recovery", finance.FormatRecovery(m.TimeToRecoveryDays)},
			{"Annualized volatility", finance.FormatPct(m.AnnVol)},
			{"Annualized return", finance.FormatPct(m.AnnReturn)},
			{"Sharpe ratio", fmt.Sprintf("%.2f", m.Sharpe)},
		},
	})

	doc.H2("Weights")
	weights := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Ticker", "Weight"},
	}
	for _, t := range o.Tickers {
		if w, ok := o.Result.Weights[t]; ok {
			weights.Rows = append(weights.Rows, []string{t, finance.FormatPct(w)})
		}
	}
	doc.Table(weights)
	if warn := o.Warning(); warn != "" {
		doc.Blockquote(warn)
	}

	if o.Crisis.Brief != nil {
		writeBrief(doc, o.Crisis.Brief, false)
	}
	return doc.String()
}

// Brief renders the narrative of one crisis on its own.
func Brief(cr crisis.Crisis) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(cr.Label)
	doc.PlainText(fmt.Sprintf("%s to %s", cr.Start, cr.End))
	if cr.Brief == nil {
		doc.PlainText("No brief for this crisis yet.")
		return doc.String()
	}
	writeBrief(doc, cr.Brief, true)
	return doc.String()
}

func writeBrief(doc *md.Markdown, b *crisis.Brief, standalone bool) {
	if !standalone {
		doc.H2(b.Title)
	}
	doc.PlainText(b.Summary)
	if len(b.Drivers) > 0 {
		doc.H2("Drivers")
		doc.BulletList(b.Drivers...)
	}
	if len(b.KeyDates) > 0 {
		doc.H2("Key dates")
		items := make([]string, 0, len(b.KeyDates))
		for _, kd := range b.KeyDates {
			items = append(items, md.Bold(kd.Date.String())+" "+kd.Label)
		}
		doc.BulletList(items...)
	}
	if len(b.WhatWorked) > 0 {
		doc.H2("What worked")
		doc.BulletList(b.WhatWorked...)
	}
	if len(b.News) > 0 {
		doc.H2("News")
		items := make([]string, 0, len(b.News))
		for _, n := range b.News {
			items = append(items, fmt.Sprintf("%s (%s, %s)", md.Link(n.Title, n.URL), n.Source, n.Date))
		}
		doc.BulletList(items...)
	}
}

// Sweep renders one row per crisis and cadence.
func Sweep(tickers []string, rows []replay.SweepRow) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Crisis sweep")
	if len(tickers) > 0 {
		doc.PlainText("Basket: " + strings.Join(tickers, ", "))
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Crisis", "Cadence", "Total return", "Max drawdown", "Recovery", "Sharpe"},
	}
	for _, r := range rows {
		if r.Err != nil {
			table.Rows = append(table.Rows, []string{r.Crisis.Label, string(r.Cadence), "n/a", "n/a", errorCell(r.Err), ""})
			continue
		}
		m := r.Outcome.Result.Metrics
		table.Rows = append(table.Rows, []string{
			r.Crisis.Label,
			string(r.Cadence),
			finance.FormatPct(m.TotalReturn),
			finance.FormatPct(m.MaxDrawdown),
			finance.FormatRecovery(m.TimeToRecoveryDays),
			fmt.Sprintf("%.2f", m.Sharpe),
		})
	}
	doc.Table(table)
	return doc.String()
}

func errorCell(err error) string {
	s := strings.ReplaceAll(err.Error(), "|", "/")
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}
