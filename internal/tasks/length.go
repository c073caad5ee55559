package tasks

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// lengthPattern finds a number followed by a word. Only words in lengthUnits
// count, so "2 months" or "Room 4 meeting" are not lengths.
var lengthPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*([A-Za-z]+)`)

var lengthUnits = map[string]float64{
	"h": 60, "hr": 60, "hrs": 60, "hour": 60, "hours": 60,
	"m": 1, "min": 1, "mins": 1, "minute": 1, "minutes": 1,
}

// ParseLength reads durations like "1h 30m", "1h30m", "45 min", "1.5h" or
// "2 hours" out of free text and returns whole minutes.
func ParseLength(label string) (int, bool) {
	var total float64
	found := false
	prevEnd := -1
	for _, m := range lengthPattern.FindAllStringSubmatchIndex(label, -1) {
		// "v2 mockups", "x3h": the number is part of a word. "1h30m" chains
		// straight on from the previous unit.
		if m[0] > 0 && isLetter(label[m[0]-1]) && m[0] != prevEnd {
			continue
		}
		scale, ok := lengthUnits[strings.ToLower(label[m[4]:m[5]])]
		if !ok {
			continue
		}
		n, err := strconv.ParseFloat(strings.Replace(label[m[2]:m[3]], ",", ".", 1), 64)
		if err != nil {
			continue
		}
		total += n * scale
		found = true
		prevEnd = m[1]
	}
	if !found {
		return 0, false
	}
	minutes := int(math.Round(total))
	if minutes <= 0 {
		return 0, false
	}
	return minutes, true
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// lengthFor applies the length precedence: explicit number, then the parsed
// label, then end minus start for timed entries, then DefaultLengthMin.
func lengthFor(it Item, start when) float64 {
	if it.LengthMin != nil && *it.LengthMin > 0 && !math.IsInf(*it.LengthMin, 0) {
		return *it.LengthMin
	}
	if m, ok := ParseLength(it.Label); ok {
		return float64(m)
	}
	if end, ok := parseWhen(it.End); ok && !start.dateOnly && !end.dateOnly {
		if d := end.t.Sub(start.t); d > 0 {
			return math.Round(d.Minutes())
		}
	}
	return DefaultLengthMin
}
