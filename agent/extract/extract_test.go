package extract

import (
	"testing"
)

var testCourses = []string{"CTA", "ACCA", "UK Taxation", "US Taxation"}

func TestExtractNamePhrases(t *testing.T) {
	t.Parallel()

	cases := []struct {
		message string
		want    string
		ok      bool
	}{
		{"My name is Ahmed Khan", "Ahmed Khan", true},
		{"my name is sara", "sara", true},
		{"I am Bilal", "Bilal", true},
		{"I'm Fatima Noor Malik", "Fatima Noor Malik", true},
		{"this is Hassan", "Hassan", true},
		{"I am fine", "", false},
		{"i'm good thanks", "", false},
		{"I am here for the demo", "", false},
		{"I am interested in courses", "", false},
		{"no name mentioned at all", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			t.Parallel()
			got := FromText(tc.message, nil)
			if tc.ok {
				if got.Name == nil || *got.Name != tc.want {
					t.Fatalf("name=%v want %q", got.Name, tc.want)
				}
			} else if got.Name != nil {
				t.Fatalf("false positive name: %q", *got.Name)
			}
		})
	}
}

func TestExtractPhoneNormalization(t *testing.T) {
	t.Parallel()

	cases := []struct {
		message string
		want    string
		ok      bool
	}{
		{"call me at +92 300 1234567", "+923001234567", true},
		{"0300-1234567 is my number", "03001234567", true},
		{"number: 1234567", "1234567", true},
		{"code 12345 only", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			t.Parallel()
			got := FromText(tc.message, nil)
			if tc.ok {
				if got.Phone == nil || *got.Phone != tc.want {
					t.Fatalf("phone=%v want %q", got.Phone, tc.want)
				}
			} else if got.Phone != nil {
				t.Fatalf("false positive phone: %q", *got.Phone)
			}
		})
	}
}

func TestExtractEducationWordBoundary(t *testing.T) {
	t.Parallel()

	cases := []struct {
		message string
		want    string
		ok      bool
	}{
		{"I did my matric last year", "Matric/Intermediate", true},
		{"currently in inter", "Matric/Intermediate", true},
		{"I have a bachelors degree", "Bachelors", true},
		{"completed my Masters", "Masters", true},
		{"doing ACCA right now", "Professional", true},
		{"I am a CA finalist", "Professional", true},
		{"I am interested", "", false},   // "inter" must not hit inside "interested"
		{"my cat is cute", "", false},    // "ca" must not hit inside "cat"
	}

	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			t.Parallel()
			got := FromText(tc.message, nil)
			if tc.ok {
				if got.EducationLevel == nil || *got.EducationLevel != tc.want {
					t.Fatalf("education=%v want %q", got.EducationLevel, tc.want)
				}
			} else if got.EducationLevel != nil {
				t.Fatalf("false positive education: %q", *got.EducationLevel)
			}
		})
	}
}

func TestExtractCourseFromVocabulary(t *testing.T) {
	t.Parallel()

	got := FromText("I want to learn CTA", testCourses)
	if got.SelectedCourse == nil || *got.SelectedCourse != "CTA" {
		t.Fatalf("course=%v want CTA", got.SelectedCourse)
	}

	got = FromText("thinking about uk taxation", testCourses)
	if got.SelectedCourse == nil || *got.SelectedCourse != "UK Taxation" {
		t.Fatalf("course=%v want UK Taxation", got.SelectedCourse)
	}

	if got := FromText("I want to learn CTA", nil); got.SelectedCourse != nil {
		t.Fatalf("course matched with empty vocabulary: %q", *got.SelectedCourse)
	}
}

func TestFromToolArgsStructuredOverride(t *testing.T) {
	t.Parallel()

	updates := FromToolArgs(CaptureToolName, map[string]any{
		"name":  "Sara",
		"phone": "+923001234567",
		"notes": "Selected_Course: CTA, Education_Level: Bachelors, Goal_Motivation: start a practice",
	})

	if updates.Name == nil || *updates.Name != "Sara" {
		t.Fatalf("name=%v", updates.Name)
	}
	if updates.Phone == nil || *updates.Phone != "+923001234567" {
		t.Fatalf("phone=%v", updates.Phone)
	}
	if updates.SelectedCourse == nil || *updates.SelectedCourse != "CTA" {
		t.Fatalf("course=%v", updates.SelectedCourse)
	}
	if updates.EducationLevel == nil || *updates.EducationLevel != "Bachelors" {
		t.Fatalf("education=%v", updates.EducationLevel)
	}
	if updates.Goal == nil || *updates.Goal != "start a practice" {
		t.Fatalf("goal=%v", updates.Goal)
	}
	if updates.DemoShared == nil || !*updates.DemoShared {
		t.Fatal("capture tool must set demo_shared")
	}
}

func TestFromToolArgsNoStopwordFiltering(t *testing.T) {
	t.Parallel()

	// Structured values are trusted even when the text heuristics would
	// reject them.
	updates := FromToolArgs(CaptureToolName, map[string]any{"name": "Good"})
	if updates.Name == nil || *updates.Name != "Good" {
		t.Fatalf("structured name filtered: %v", updates.Name)
	}
}

func TestFromToolArgsIgnoresOtherTools(t *testing.T) {
	t.Parallel()

	updates := FromToolArgs("fetch_course_details", map[string]any{"name": "Sara"})
	if !updates.Empty() {
		t.Fatalf("non-capture tool produced updates: %+v", updates)
	}
}

func TestMergeStructuredWinsOverText(t *testing.T) {
	t.Parallel()

	text := FromText("My name is Ahmed Khan", testCourses)
	structured := FromToolArgs(CaptureToolName, map[string]any{"name": "Ahmed K."})

	merged := text.Merge(structured)
	if merged.Name == nil || *merged.Name != "Ahmed K." {
		t.Fatalf("merge precedence wrong: %v", merged.Name)
	}
}
