package indicator

import "github.com/guregu/null/v6"

// MansfieldWindow is the trailing window of the Mansfield oscillator, 52 weeks of 7 days
const MansfieldWindow = 7 * 52

// DorseyRelativeStrength returns (asset / index) * 100 over the union of both timestamps.
// Points missing from either side, or with a zero index value, are null.
func DorseyRelativeStrength(asset, index Series) Series {
	times, a, b := align(asset, index)
	out := Series{Times: times, Values: make([]null.Float, len(times))}
	for i := range times {
		out.Values[i] = ratio(a.Values[i], b.Values[i], 100)
	}
	return out
}

// MansfieldRelativeStrength returns ((dorsey / mean(dorsey, MansfieldWindow)) - 1) * 100,
// centred on 0
func MansfieldRelativeStrength(asset, index Series) Series {
	dorsey := DorseyRelativeStrength(asset, index)
	mean := MovingAverage(dorsey, MansfieldWindow)

	out := Series{Times: dorsey.Times, Values: make([]null.Float, dorsey.Len())}
	for i := range dorsey.Values {
		r := ratio(dorsey.Values[i], mean.Values[i], 1)
		if r.Valid {
			r = null.FloatFrom((r.Float64 - 1) * 100)
		}
		out.Values[i] = r
	}
	return out
}

func ratio(num, den null.Float, scale float64) null.Float {
	if !num.Valid || !den.Valid || den.Float64 == 0 {
		return null.Float{}
	}
	return null.FloatFrom(num.Float64 / den.Float64 * scale)
}
