package indicator

import (
	"time"

	"github.com/guregu/null/v6"
)

// MovingAverage returns the simple trailing mean over window points. Leading points average
// whatever is available, so the output has the input's length and no leading nulls.
// Nulls inside the window are ignored; a window with no valid value yields null.
// A window below 1 is treated as 1.
func MovingAverage(s Series, window int) Series {
	if window < 1 {
		window = 1
	}

	out := Series{
		Times:  append([]time.Time(nil), s.Times...),
		Values: make([]null.Float, len(s.Values)),
	}

	for i := range s.Values {
		var sum float64
		var count int
		for _, v := range s.Values[max(0, i-window+1) : i+1] {
			if v.Valid {
				sum += v.Float64
				count++
			}
		}
		if count > 0 {
			out.Values[i] = null.FloatFrom(sum / float64(count))
		}
	}
	return out
}
