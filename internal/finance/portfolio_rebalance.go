package finance

// bucketKey identifies the calendar period a date belongs to for a cadence.
type bucketKey struct{ a, b int }

func bucketOf(d Date, cadence Cadence) bucketKey {
	switch cadence {
	case Weekly:
		y, w := d.ISOWeek()
		return bucketKey{y, w}
	case Monthly:
		return bucketKey{d.Year(), int(d.Month())}
	}
	return bucketKey{}
}

// rebalanceDates returns the dates on which holdings reset to target weights:
// the first date of each cadence bucket. The first date is always included.
// dates must be sorted ascending.
func rebalanceDates(dates []Date, cadence Cadence) map[Date]bool {
	set := make(map[Date]bool)
	if len(dates) == 0 {
		return set
	}
	if cadence == Daily {
		for _, d := range dates {
			set[d] = true
		}
		return set
	}

	last := bucketOf(dates[0], cadence)
	set[dates[0]] = true
	for _, d := range dates[1:] {
		if b := bucketOf(d, cadence); b != last {
			set[d] = true
			last = b
		}
	}
	return set
}
