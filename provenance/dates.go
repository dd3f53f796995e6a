package provenance

import (
	"text2phenotype.com/qde/scan"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	monthPattern = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`
	datePattern  = `(?:\d{4}-\d{1,2}-\d{1,2}` +
		`|\d{1,2}/\d{1,2}/(?:\d{4}|\d{2})` +
		`|\d{1,2}-\d{1,2}-(?:\d{4}|\d{2})` +
		`|` + monthPattern + `[ \t]+\d{1,2}(?:st|nd|rd|th)?,?[ \t]+\d{4}` +
		`|\d{1,2}(?:st|nd|rd|th)?[ \t]+` + monthPattern + `,?[ \t]+\d{4})`
)

var (
	labeledDatePattern = regexp.MustCompile(`(?i)\b(?:date\s+of\s+service|service\s+date|date\s+of\s+visit|visit\s+date|encounter\s+date|appointment|date|dos|visit|seen\s+on)[ \t]*:?[ \t]*(` + datePattern + `)\b`)
	bareDatePattern    = regexp.MustCompile(`(?i)\b` + datePattern + `\b`)

	numericDatePattern = regexp.MustCompile(`^(\d{1,2})[/\-](\d{1,2})[/\-](\d{2}|\d{4})$`)
	isoDatePattern     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	ordinalPattern     = regexp.MustCompile(`(?i)(\d)(?:st|nd|rd|th)\b`)
)

func getMonths() map[string]time.Month {
	return map[string]time.Month{
		"jan": time.January, "january": time.January,
		"feb": time.February, "february": time.February,
		"mar": time.March, "march": time.March,
		"apr": time.April, "april": time.April,
		"may": time.May,
		"jun": time.June, "june": time.June,
		"jul": time.July, "july": time.July,
		"aug": time.August, "august": time.August,
		"sep": time.September, "sept": time.September, "september": time.September,
		"oct": time.October, "october": time.October,
		"nov": time.November, "november": time.November,
		"dec": time.December, "december": time.December,
	}
}

var months = getMonths()

// DateCandidate is one parsed date mention of a section.
type DateCandidate struct {
	Text    string
	Date    time.Time
	Labeled bool
	Begin   int
}

// Dates returns every parseable date in text, deduplicated by literal form,
// labeled mentions first and most recent first within each tier.
func Dates(text string) []DateCandidate {
	seen := make(map[string]bool)
	var candidates []DateCandidate

	add := func(m scan.Match, labeled bool) {
		literal := strings.TrimSpace(m.Text)
		if seen[literal] {
			return
		}
		seen[literal] = true
		date, ok := ParseDate(literal)
		if !ok {
			return
		}
		candidates = append(candidates, DateCandidate{Text: literal, Date: date, Labeled: labeled, Begin: m.Begin})
	}

	for m := range scan.Submatches(text, labeledDatePattern) {
		add(m, true)
	}
	for m := range scan.Matches(text, bareDatePattern) {
		add(m, false)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Labeled != b.Labeled {
			return a.Labeled
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.Begin < b.Begin
	})
	return candidates
}

// BestDate is the top-ranked date of Dates.
func BestDate(text string) (DateCandidate, bool) {
	dates := Dates(text)
	if len(dates) == 0 {
		return DateCandidate{}, false
	}
	return dates[0], true
}

// ParseDate understands MM/DD/YY[YY], MM-DD-YY[YY], YYYY-MM-DD and month-name
// forms. Two-digit years below 50 are read as 20xx. Impossible calendar
// dates are rejected.
func ParseDate(literal string) (time.Time, bool) {
	literal = strings.TrimSpace(literal)

	if parts := isoDatePattern.FindStringSubmatch(literal); parts != nil {
		return calendarDate(atoi(parts[1]), atoi(parts[2]), atoi(parts[3]))
	}
	if parts := numericDatePattern.FindStringSubmatch(literal); parts != nil {
		year := atoi(parts[3])
		if len(parts[3]) == 2 {
			if year < 50 {
				year += 2000
			} else {
				year += 1900
			}
		}
		return calendarDate(year, atoi(parts[1]), atoi(parts[2]))
	}
	return parseTextualDate(literal)
}

func parseTextualDate(literal string) (time.Time, bool) {
	normalized := ordinalPattern.ReplaceAllString(literal, "$1")
	normalized = strings.NewReplacer(",", " ", ".", " ").Replace(strings.ToLower(normalized))
	fields := strings.Fields(normalized)
	if len(fields) != 3 {
		return time.Time{}, false
	}

	month, ok := months[fields[0]]
	day, year := fields[1], fields[2]
	if !ok {
		// day-first form
		month, ok = months[fields[1]]
		day = fields[0]
	}
	if !ok {
		return time.Time{}, false
	}
	return calendarDate(atoi(year), int(month), atoi(day))
}

func calendarDate(year int, month int, day int) (time.Time, bool) {
	if year <= 0 || month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day || int(date.Month()) != month {
		return time.Time{}, false
	}
	return date, true
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
