package carrier

import (
	"math"
	"strconv"
)

// imperialOrigins lists the countries still shipping in pounds and inches.
var imperialOrigins = map[string]bool{
	"US": true,
	"LR": true,
	"MM": true,
}

// ImperialUnits reports whether shipments originating at origin use the
// imperial system on the wire.
func ImperialUnits(origin Address) bool {
	return imperialOrigins[origin.CountryCode(FormatAlpha2)]
}

// RoundTo rounds v half-up to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

// WireWeight converts a package weight for transmission: pounds for
// imperial shipments, kilograms otherwise, rounded to three decimals with
// a 0.1 floor so near-zero weights never serialize as zero.
func WireWeight(p Package, imperial bool) float64 {
	w := p.Kgs()
	if imperial {
		w = p.Lbs()
	}
	return math.Max(RoundTo(w, 3), 0.1)
}

// WireDimension converts one package dimension for transmission: inches
// for imperial shipments, centimeters otherwise, rounded to three decimals.
func WireDimension(p Package, axis Axis, imperial bool) float64 {
	d := p.Cm(axis)
	if imperial {
		d = p.Inches(axis)
	}
	return RoundTo(d, 3)
}

// FormatFloat renders a float the shortest way that round-trips, matching
// how carriers expect decimal fields ("0.1", not "0.100").
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatAmount renders a monetary amount with exactly two decimals.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
