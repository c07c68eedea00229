// Package interval converts between PostgreSQL-style interval text,
// human-readable duration text, and time.Duration.
//
// Two input dialects are accepted: PostgreSQL's own interval rendering
// (e.g. "00:15:00", "2 months 29 days", "1 mon") and the shorthand
// duration text used throughout Minerva's declarative files (e.g. "15m",
// "3 days"). Both are normalized to a small grammar of "<number> <unit>"
// terms (parsed with participle) before being summed to a duration.
package interval

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pseudomuto/minerva/pkg/merrors"
)

// Per-unit second counts. Month and year use the same fractional-day
// averages the source toolchain's duration library uses, so that
// "2 months 29 days" parses to exactly 7765632 seconds (see
// TestSeconds in interval_test.go).
const (
	secondsPerSecond = 1
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
	secondsPerWeek   = 7 * secondsPerDay
	secondsPerMonth  = 2630016
	secondsPerYear   = 31556952

	// canonicalGranularityMonthSeconds is the 30-day stand-in for a
	// month-wide granularity, used so that equality comparisons against
	// a database-computed "1 month" interval (which PostgreSQL treats as
	// a genuine calendar component, not a fixed second count) succeed.
	canonicalGranularityMonthSeconds = 30 * secondsPerDay

	canonicalLowerBound = 2_500_000
	canonicalUpperBound = 3_000_000
)

var unitSeconds = map[string]int64{
	"second": secondsPerSecond, "seconds": secondsPerSecond, "sec": secondsPerSecond, "secs": secondsPerSecond, "s": secondsPerSecond,
	"minute": secondsPerMinute, "minutes": secondsPerMinute, "min": secondsPerMinute, "mins": secondsPerMinute, "m": secondsPerMinute,
	"hour": secondsPerHour, "hours": secondsPerHour, "h": secondsPerHour,
	"day": secondsPerDay, "days": secondsPerDay, "d": secondsPerDay,
	"week": secondsPerWeek, "weeks": secondsPerWeek, "w": secondsPerWeek,
	"month": secondsPerMonth, "months": secondsPerMonth,
	"year": secondsPerYear, "years": secondsPerYear, "y": secondsPerYear,
}

var monthSpelling = regexp.MustCompile(`(?i)\bmon(?:s|ths)?\b`)

var clockPattern = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})$`)

type (
	// term is a single "<number> <unit>" pair, e.g. "15m" or "2 months".
	term struct {
		Number float64 `parser:"@(Number|Float)"`
		Unit   string  `parser:"@Ident"`
	}

	// wordInterval is a sequence of terms, summed to produce a duration.
	wordInterval struct {
		Terms []*term `parser:"@@+"`
	}
)

var (
	intervalLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Float", Pattern: `\d+\.\d+`},
		{Name: "Number", Pattern: `\d+`},
		{Name: "Ident", Pattern: `[a-zA-Z]+`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	wordParser = participle.MustBuild[wordInterval](
		participle.Lexer(intervalLexer),
		participle.Elide("Whitespace"),
	)
)

// Seconds parses PostgreSQL interval text or shorthand duration text into a
// whole number of seconds.
//
// Examples:
//
//	Seconds("00:01:00")          // 60, nil
//	Seconds("2 months 29 days")  // 7765632, nil
//	Seconds("1 mon")             // 2630016, nil
func Seconds(text string) (int64, error) {
	normalized := normalize(text)

	parsed, err := wordParser.ParseString("", normalized)
	if err != nil {
		return 0, merrors.Runtimef("could not parse %q as interval: %s", text, err)
	}

	var total int64
	for _, t := range parsed.Terms {
		seconds, ok := unitSeconds[strings.ToLower(t.Unit)]
		if !ok {
			return 0, merrors.Runtimef("could not parse %q as interval: unknown unit %q", text, t.Unit)
		}
		total += int64(t.Number * float64(seconds))
	}

	return total, nil
}

// normalize rewrites PostgreSQL's "HH:MM:SS" clock form into word form and
// collapses the "mon"/"mons"/"months" spelling family to "month", so a
// single word-interval grammar handles every input dialect.
func normalize(text string) string {
	text = strings.TrimSpace(text)

	if m := clockPattern.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		s, _ := strconv.Atoi(m[3])
		return fmt.Sprintf("%d hours %d minutes %d seconds", h, mi, s)
	}

	return monthSpelling.ReplaceAllString(text, "month")
}

// CanonicalizeGranularitySeconds applies the 30-day rounding rule: any
// value whose total seconds lies in (2500000, 3000000) — the range
// occupied by a "1 month" granularity under the average-month-length
// convention used by Seconds — is rounded to exactly 2592000 seconds (30
// days) so that equality comparisons against a database-computed monthly
// interval succeed. All other values pass through unchanged.
//
// This rule is applied uniformly wherever a granularity is resolved to a
// seconds count before being compared with or written to the database
// (both AddTrendStore and AddTrendStorePart), per the Minerva reconciler's
// documented behavior.
func CanonicalizeGranularitySeconds(seconds int64) int64 {
	if seconds > canonicalLowerBound && seconds < canonicalUpperBound {
		return canonicalGranularityMonthSeconds
	}
	return seconds
}

// FormatSQL renders a seconds count as PostgreSQL interval text suitable
// for a "<text>::interval" cast. Rendering as a plain seconds count avoids
// any ambiguity in how PostgreSQL's own interval parser would otherwise
// split "<n> months <n> days" style text.
func FormatSQL(seconds int64) string {
	return fmt.Sprintf("%d seconds", seconds)
}

// FormatHuman renders a seconds count as compact shorthand duration text
// for display and for round-tripping through Seconds, e.g. 900 -> "15m",
// 86400 -> "1d", 2630016 -> "1month".
func FormatHuman(seconds int64) string {
	switch {
	case seconds == 0:
		return "0s"
	case seconds%secondsPerMonth == 0:
		return fmt.Sprintf("%dmonth", seconds/secondsPerMonth)
	case seconds%secondsPerWeek == 0:
		return fmt.Sprintf("%dw", seconds/secondsPerWeek)
	case seconds%secondsPerDay == 0:
		return fmt.Sprintf("%dd", seconds/secondsPerDay)
	case seconds%secondsPerHour == 0:
		return fmt.Sprintf("%dh", seconds/secondsPerHour)
	case seconds%secondsPerMinute == 0:
		return fmt.Sprintf("%dm", seconds/secondsPerMinute)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
