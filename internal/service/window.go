package service

import "time"

// Window is a half open [Start, End) range of UTC days still missing from the store
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Empty reports whether there is nothing to fetch
func (w Window) Empty() bool {
	return !w.Start.Before(w.End)
}

// Days returns the number of calendar days in the window
func (w Window) Days() int {
	if w.Empty() {
		return 0
	}
	return int(w.End.Sub(w.Start).Hours() / 24)
}

func (w Window) String() string {
	return w.Start.Format(time.DateOnly) + " -> " + w.End.Format(time.DateOnly)
}

// TruncateDay returns midnight UTC of t's UTC calendar day
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ResolveWindow computes the window to fetch given the timestamps already stored.
// Without existing data it spans lookbackYears*365 days up to today; otherwise it starts the
// day after the latest stored timestamp.
func ResolveWindow(existing []time.Time, now time.Time, lookbackYears int) Window {
	var last time.Time
	for _, t := range existing {
		if t.After(last) {
			last = t
		}
	}
	return ResolveWindowAfter(last, len(existing) > 0, now, lookbackYears)
}

// ResolveWindowAfter is ResolveWindow for callers that only know the latest stored timestamp
func ResolveWindowAfter(last time.Time, hasData bool, now time.Time, lookbackYears int) Window {
	end := TruncateDay(now)
	if !hasData {
		return Window{Start: end.AddDate(0, 0, -lookbackYears*365), End: end}
	}
	return Window{Start: TruncateDay(last).AddDate(0, 0, 1), End: end}
}
