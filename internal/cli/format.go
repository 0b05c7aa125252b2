package cli

import (
	"fmt"
	"time"
)

var ageUnits = []struct {
	size   int64
	suffix string
}{
	{86400, "d"},
	{3600, "h"},
	{60, "m"},
	{1, "s"},
}

// formatAge renders a duration in its largest unit plus the next one down:
// "45s", "12m", "3h 20m", "2d 4h". Sub-second and negative ages are "now".
func formatAge(d time.Duration) string {
	secs := int64(d.Seconds())
	if secs <= 0 {
		return "now"
	}

	for i, u := range ageUnits {
		n := secs / u.size
		if n == 0 {
			continue
		}
		out := fmt.Sprintf("%d%s", n, u.suffix)
		if i+1 < len(ageUnits) {
			next := ageUnits[i+1]
			if m := (secs % u.size) / next.size; m > 0 {
				out += fmt.Sprintf(" %d%s", m, next.suffix)
			}
		}
		return out
	}
	return "now"
}
