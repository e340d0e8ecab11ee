// Package day turns relative day keywords into calendar dates.
package day

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Layout is the canonical date format of a task partition.
const Layout = "2006-01-02"

var offsets = map[string]int{
	"":         0,
	"today":    0,
	"bugün":    0,
	"bugun":    0,
	"tomorrow": 1,
	"yarın":    1,
	"yarin":    1,
}

var yesterday = map[string]int{
	"yesterday": -1,
	"dün":       -1,
	"dun":       -1,
}

// Normalizer maps keywords to dates relative to Now in local time.
// Yesterday enables the "yesterday"/"dün" keywords.
type Normalizer struct {
	Yesterday bool
	Now       func() time.Time
}

// Normalize returns the date for a keyword. Any other input, padded
// keywords included, is returned as is; malformed dates are not rejected.
func (n Normalizer) Normalize(in string) string {
	key := fold(in)
	offset, ok := offsets[key]
	if !ok && n.Yesterday {
		offset, ok = yesterday[key]
	}
	if !ok {
		return in
	}
	return n.now().AddDate(0, 0, offset).Format(Layout)
}

// Today returns the current local date.
func (n Normalizer) Today() string {
	return n.now().Format(Layout)
}

func (n Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now().Local()
	}
	return time.Now()
}

// fold lowercases with Turkish rules so YARIN and BUGÜN match. Keywords
// typed without Turkish letters have their own entries.
func fold(s string) string {
	s = norm.NFC.String(s)
	return cases.Lower(language.Turkish).String(s)
}
