package crisis

import "crisisReplay/internal/finance"

var day = finance.MustParseDate

// Builtin returns the stock crisis windows in chronological order.
func Builtin() []Crisis {
	return []Crisis{
		{
			Key:     "gfc",
			Name:    "2008 GFC (2007-10 to 2009-03)",
			Label:   "2008 Global Financial Crisis",
			Aliases: []string{"2008", "lehman"},
			Start:   day("2007-10-01"),
			End:     day("2009-03-31"),
			Brief: &Brief{
				Title:   "2008 Global Financial Crisis",
				Summary: "A credit-driven housing boom unwound into a banking crisis. Losses in mortgage-related products spread through the system, freezing credit and driving a global recession.",
				Drivers: []string{
					"Housing bubble + rising mortgage defaults",
					"High leverage + complex structured products",
					"Credit markets froze as trust collapsed",
					"Forced deleveraging and broad risk selloff",
				},
				KeyDates: []KeyDate{
					{day("2008-09-15"), "Lehman bankruptcy"},
					{day("2008-10-03"), "TARP passed in the U.S."},
					{day("2009-03-09"), "Major equity market low (widely cited)"},
				},
				WhatWorked: []string{"Long Treasuries", "Gold", "Cash / short duration"},
				News: []NewsItem{
					{"The Day Lehman Brothers Went Under", "BBC", day("2018-09-14"), "https://www.bbc.com/news/business-45515092"},
					{"The Collapse of Lehman Brothers | The $639 Billion Crash", "Moconomy", day("2025-06-25"), "https://youtu.be/9Of4pbnNY5U"},
				},
			},
		},
		{
			Key:     "covid",
			Name:    "COVID Crash (2020-02 to 2020-04)",
			Label:   "COVID-19 Market Crash",
			Aliases: []string{"2020", "pandemic"},
			Start:   day("2020-02-01"),
			End:     day("2020-04-30"),
			Brief: &Brief{
				Title:   "COVID-19 Market Crash",
				Summary: "A sudden global shutdown triggered a fast earnings shock and extreme uncertainty. Liquidity stress hit multiple asset classes until large monetary and fiscal support arrived.",
				Drivers: []string{
					"Lockdowns and demand collapse",
					"Supply chain disruption",
					"Dash-for-cash liquidity stress",
					"Policy response: rate cuts, QE, stimulus",
				},
				KeyDates: []KeyDate{
					{day("2020-03-11"), "WHO declares pandemic"},
					{day("2020-03-23"), "Major market low + policy pivot"},
					{day("2020-04-09"), "Support expanded for credit markets"},
				},
				WhatWorked: []string{"Treasuries", "Gold", "High-quality growth (context-dependent)"},
				News: []NewsItem{
					{"WHO declares COVID-19 a pandemic", "World Health Organization", day("2020-03-11"), "https://www.who.int/director-general/speeches/detail/who-director-general-s-opening-remarks-at-the-media-briefing-on-covid-19---11-march-2020"},
					{"Wall Street tumbles as coronavirus economic damage mounts", "Reuters", day("2020-03-31"), "https://www.reuters.com/article/business/dow-sinks-virus-pushes-it-to-sharpest-quarterly-plunge-in-over-three-decades-idUSKBN21I1C5/"},
				},
			},
		},
		{
			Key:     "rates",
			Name:    "Rate Shock (2022-01 to 2022-10)",
			Label:   "2022 Rate Shock",
			Aliases: []string{"2022", "inflation"},
			Start:   day("2022-01-01"),
			End:     day("2022-10-31"),
			Brief: &Brief{
				Title:   "2022 Rate Shock",
				Summary: "Inflation surged and central banks tightened quickly. Rising yields hit both bonds and long-duration equities, producing a painful stock-bond drawdown.",
				Drivers: []string{
					"High inflation pressures",
					"Aggressive central bank hikes",
					"Rising real yields compress valuations",
					"Bond repricing as yields moved up",
				},
				KeyDates: []KeyDate{
					{day("2022-06-15"), "Fed hikes 75 bps"},
					{day("2022-09-21"), "Higher-for-longer guidance"},
					{day("2022-10-12"), "Rates volatility remains elevated"},
				},
				WhatWorked: []string{"Cash / T-bills", "Short duration", "Energy tilt (depends)"},
				News: []NewsItem{
					{"Fed hikes rates by 0.75 percentage point, flags slowing economy", "Reuters", day("2022-06-15"), "https://www.reuters.com/markets/us/fed-hikes-rates-by-075-percentage-point-flags-slowing-economy-2022-06-15/"},
					{"Fed Raises Rates by 0.75 Percentage Point, Largest Increase Since 1994", "Wall Street Journal", day("2022-06-15"), "https://www.wsj.com/livecoverage/federal-reserve-meeting-interest-rates-june-2022/card/mPXvzgV1I7LCysRUFkUi"},
				},
			},
		},
	}
}

// Default is the catalog of built-in crises.
func Default() *Catalog {
	c, err := NewCatalog(Builtin()...)
	if err != nil {
		panic(err)
	}
	return c
}
