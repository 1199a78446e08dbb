package countdown

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// MaxSeconds is the largest countdown a format can yield. Longer values
// from unbounded groups are treated as unrecognized.
const MaxSeconds = math.MaxInt32

// DefaultFormats are the accepted countdown patterns, most specific first.
var DefaultFormats = []string{
	`(\d{1,2}):(\d{2}):(\d{2})`,
	`(\d{1,2}):(\d{2})`,
	`(\d{1,2})分(\d{2})秒`,
	`(\d+)秒`,
	`^(\d+)$`,
}

// Format is a compiled countdown pattern.
//
// Capture groups are interpreted positionally: three groups are hours,
// minutes and seconds; two are minutes and seconds; one is seconds.
// Named groups h, m and s take precedence over position.
type Format struct {
	Pattern string
	re      *regexp.Regexp
	hour    int
	minute  int
	second  int
}

// CompileFormat compiles a single pattern.
func CompileFormat(pattern string) (Format, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Format{}, fmt.Errorf("invalid countdown format %q: %w", pattern, err)
	}

	f := Format{Pattern: pattern, re: re, hour: -1, minute: -1, second: -1}

	named := false
	for i, name := range re.SubexpNames() {
		switch name {
		case "h":
			f.hour, named = i, true
		case "m":
			f.minute, named = i, true
		case "s":
			f.second, named = i, true
		}
	}
	if named {
		return f, nil
	}

	switch re.NumSubexp() {
	case 1:
		f.second = 1
	case 2:
		f.minute, f.second = 1, 2
	case 3:
		f.hour, f.minute, f.second = 1, 2, 3
	default:
		return Format{}, fmt.Errorf("countdown format %q must have 1 to 3 capture groups, has %d", pattern, re.NumSubexp())
	}
	return f, nil
}

// CompileFormats compiles patterns in order.
func CompileFormats(patterns []string) ([]Format, error) {
	formats := make([]Format, 0, len(patterns))
	for _, p := range patterns {
		f, err := CompileFormat(p)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// Match extracts seconds from text. ok is false when the pattern does not
// match, a matched component is out of range, or the total exceeds
// MaxSeconds.
func (f Format) Match(text string) (seconds int, ok bool) {
	m := f.re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	// The leading component is unbounded; the rest must be below 60.
	minuteLimit, secondLimit := -1, -1
	if f.hour >= 0 {
		minuteLimit = 60
	}
	if f.hour >= 0 || f.minute >= 0 {
		secondLimit = 60
	}

	h, ok := group(m, f.hour, -1)
	if !ok {
		return 0, false
	}
	mins, ok := group(m, f.minute, minuteLimit)
	if !ok {
		return 0, false
	}
	secs, ok := group(m, f.second, secondLimit)
	if !ok {
		return 0, false
	}
	if h > MaxSeconds/3600 || mins > MaxSeconds/60 || secs > MaxSeconds {
		return 0, false
	}
	total := int64(h)*3600 + int64(mins)*60 + int64(secs)
	if total > MaxSeconds {
		return 0, false
	}
	return int(total), true
}

// group parses submatch idx. A negative idx yields 0. limit < 0 disables
// the upper bound.
func group(m []string, idx, limit int) (int, bool) {
	if idx < 0 || idx >= len(m) || m[idx] == "" {
		return 0, idx < 0
	}
	v, err := strconv.Atoi(m[idx])
	if err != nil || v < 0 {
		return 0, false
	}
	if limit >= 0 && v >= limit {
		return 0, false
	}
	return v, true
}
