// Package extract turns free-form user text and structured tool arguments
// into partial lead-field updates. Everything here is best-effort: ambiguous
// input produces no update for a field, never an error.
package extract

import (
	"regexp"
	"strings"

	leadx "github.com/zensbot/leadflow/agent/lead"
)

var (
	namePattern  = regexp.MustCompile(`(?i)\b(?:my name is|i am|i'm|this is)\s+([A-Za-z]+(?:\s+[A-Za-z]+){0,2})`)
	phonePattern = regexp.MustCompile(`\+?\d(?:[\d\s\-]{5,13})\d`)
	digitsOnly   = regexp.MustCompile(`[^\d]`)
)

// nameStopwords rejects the classic false positives: "I am fine", "I'm good".
var nameStopwords = map[string]bool{
	"a":          true,
	"an":         true,
	"the":        true,
	"fine":       true,
	"good":       true,
	"great":      true,
	"okay":       true,
	"ok":         true,
	"well":       true,
	"here":       true,
	"done":       true,
	"ready":      true,
	"interested": true,
	"sorry":      true,
	"sure":       true,
	"back":       true,
	"busy":       true,
	"not":        true,
	"also":       true,
	"just":       true,
	"still":      true,
	"looking":    true,
	"asking":     true,
}

// educationVocabulary maps keywords to canonical labels; ordered so that the
// first match wins and longer phrases shadow their substrings.
var educationVocabulary = []struct {
	keyword string
	label   string
}{
	{"matric", "Matric/Intermediate"},
	{"intermediate", "Matric/Intermediate"},
	{"inter", "Matric/Intermediate"},
	{"o-level", "OLevel/ALevel"},
	{"o level", "OLevel/ALevel"},
	{"a-level", "OLevel/ALevel"},
	{"a level", "OLevel/ALevel"},
	{"bachelors", "Bachelors"},
	{"bachelor", "Bachelors"},
	{"bs", "Bachelors"},
	{"masters", "Masters"},
	{"master", "Masters"},
	{"mba", "Masters"},
	{"acca", "Professional"},
	{"ca", "Professional"},
	{"cima", "Professional"},
}

// FromText scans a user message for lead fields. courses is the configured
// course vocabulary (names and aliases); matching is case-insensitive, first
// match wins.
func FromText(message string, courses []string) leadx.FieldUpdates {
	var out leadx.FieldUpdates

	if name, ok := extractName(message); ok {
		out.Name = &name
	}
	if phone, ok := extractPhone(message); ok {
		out.Phone = &phone
	}
	if level, ok := extractEducation(message); ok {
		out.EducationLevel = &level
	}
	if course, ok := extractCourse(message, courses); ok {
		out.SelectedCourse = &course
	}
	return out
}

func extractName(message string) (string, bool) {
	m := namePattern.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	candidate := strings.TrimSpace(m[1])
	if candidate == "" {
		return "", false
	}
	tokens := strings.Fields(candidate)
	if len(tokens) == 0 || len(tokens) > 3 {
		return "", false
	}
	if nameStopwords[strings.ToLower(tokens[0])] {
		return "", false
	}
	return strings.Join(tokens, " "), true
}

func extractPhone(message string) (string, bool) {
	m := phonePattern.FindString(message)
	if m == "" {
		return "", false
	}
	plus := strings.HasPrefix(strings.TrimSpace(m), "+")
	digits := digitsOnly.ReplaceAllString(m, "")
	if len(digits) < 7 || len(digits) > 15 {
		return "", false
	}
	if plus {
		return "+" + digits, true
	}
	return digits, true
}

func extractEducation(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, entry := range educationVocabulary {
		if containsWord(lower, entry.keyword) {
			return entry.label, true
		}
	}
	return "", false
}

func extractCourse(message string, courses []string) (string, bool) {
	lower := strings.ToLower(message)
	for _, course := range courses {
		c := strings.TrimSpace(course)
		if c == "" {
			continue
		}
		if containsWord(lower, strings.ToLower(c)) {
			return c, true
		}
	}
	return "", false
}

// containsWord matches needle in haystack on word boundaries so that "ca"
// does not hit "catalog" and "inter" does not hit "interested".
func containsWord(haystack, needle string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], needle)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(needle)
		beforeOK := start == 0 || !isWordChar(haystack[start-1])
		afterOK := end == len(haystack) || !isWordChar(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
		if idx >= len(haystack) {
			return false
		}
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// CaptureToolName is the lead-capture tool whose invocation both supplies
// structured fields and marks the demo as shared: the record must be captured
// before demo material goes out, so the call itself is the gate signal.
const CaptureToolName = "capture_lead"

// FromToolArgs converts structured tool-call arguments into confident field
// updates. No stopword filtering applies here; the caller supplied the values
// deliberately. Unknown keys are dropped.
func FromToolArgs(tool string, args map[string]any) leadx.FieldUpdates {
	var out leadx.FieldUpdates
	if tool != CaptureToolName {
		return out
	}

	if v, ok := stringArg(args, "name"); ok {
		out.Name = &v
	}
	if v, ok := stringArg(args, "phone"); ok {
		out.Phone = &v
	}
	if v, ok := stringArg(args, "course"); ok {
		out.SelectedCourse = &v
	} else if v, ok := stringArg(args, "selected_course"); ok {
		out.SelectedCourse = &v
	}
	if v, ok := stringArg(args, "education"); ok {
		out.EducationLevel = &v
	} else if v, ok := stringArg(args, "education_level"); ok {
		out.EducationLevel = &v
	}
	if v, ok := stringArg(args, "goal"); ok {
		out.Goal = &v
	}

	if notes, ok := stringArg(args, "notes"); ok {
		out = out.Merge(fromNotes(notes))
	}

	shared := true
	out.DemoShared = &shared
	return out
}

// fromNotes pulls labelled fields out of the capture tool's free-text notes
// argument ("Selected_Course: CTA, Education_Level: Bachelors, ...").
func fromNotes(notes string) leadx.FieldUpdates {
	var out leadx.FieldUpdates
	if v, ok := labelledValue(notes, "Selected_Course:"); ok {
		out.SelectedCourse = &v
	}
	if v, ok := labelledValue(notes, "Education_Level:"); ok {
		out.EducationLevel = &v
	}
	if v, ok := labelledValue(notes, "Goal_Motivation:"); ok {
		out.Goal = &v
	}
	return out
}

func labelledValue(notes, label string) (string, bool) {
	_, rest, found := strings.Cut(notes, label)
	if !found {
		return "", false
	}
	value, _, _ := strings.Cut(rest, ",")
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

func stringArg(args map[string]any, key string) (string, bool) {
	raw, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}
