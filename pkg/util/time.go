package util

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ParseDuration parses durations accepting a "d" (day) suffix in addition
// to the units time.ParseDuration understands, e.g. "7d", "30m", "24h".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if strings.HasSuffix(s, "d") {
		days, err := strconv.ParseFloat(strings.TrimSuffix(s, "d"), 64)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid day duration %q", s)
		}
		return time.Duration(days * 24 * float64(time.Hour)), nil
	}
	return time.ParseDuration(s)
}
