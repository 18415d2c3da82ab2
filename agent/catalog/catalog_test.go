package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	leadx "github.com/zensbot/leadflow/agent/lead"
)

type fakeSource struct {
	tables map[string][]map[string]any
	err    error
	calls  map[string]int
}

func (f *fakeSource) GetRows(ctx context.Context, table string) ([]map[string]any, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[table]++
	if f.err != nil {
		return nil, f.err
	}
	return f.tables[table], nil
}

func testTables() map[string][]map[string]any {
	return map[string][]map[string]any{
		TableCourseDetails: {
			{"course_name": "CTA", "fees": "PKR 50,000", "duration": "3 months", "professor": "Dr. Aslam"},
			{"course_name": "ACCA", "fees": "PKR 80,000", "duration": "6 months"},
		},
		TableCourseLinks: {
			{"course_name": "CTA", "demo_link": "https://example.com/cta-demo", "pdf_link": "https://example.com/cta.pdf"},
		},
		TableFAQs: {
			{"course_name": "CTA", "question": "Is it online?", "answer": "Yes, fully online."},
			{"course_name": "ACCA", "question": "Installments?", "answer": "Two installments allowed."},
		},
		TableCompanyInfo: {
			{"field_name": "Contact", "field_value": "+92 300 0000000"},
			{"field_name": "Address", "field_value": "Lahore"},
		},
	}
}

func newTestService(t *testing.T, src *fakeSource) *Service {
	t.Helper()
	s, err := NewService(src)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return s
}

func TestCourseDetailsFilterByName(t *testing.T) {
	t.Parallel()
	s := newTestService(t, &fakeSource{tables: testTables()})

	all, err := s.CourseDetails(context.Background(), "")
	if err != nil {
		t.Fatalf("CourseDetails: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len=%d want 2", len(all))
	}

	cta, err := s.CourseDetails(context.Background(), "cta")
	if err != nil {
		t.Fatalf("CourseDetails: %v", err)
	}
	if len(cta) != 1 || cta[0].Fees != "PKR 50,000" {
		t.Fatalf("filter failed: %+v", cta)
	}
}

func TestRowsCachedWithinTTL(t *testing.T) {
	t.Parallel()
	src := &fakeSource{tables: testTables()}
	s := newTestService(t, src)

	for i := 0; i < 3; i++ {
		if _, err := s.FAQs(context.Background(), 0); err != nil {
			t.Fatalf("FAQs: %v", err)
		}
	}
	if src.calls[TableFAQs] != 1 {
		t.Fatalf("source hit %d times within TTL, want 1", src.calls[TableFAQs])
	}
}

func TestRowsRefetchAfterTTL(t *testing.T) {
	t.Parallel()
	src := &fakeSource{tables: testTables()}
	s := newTestService(t, src)

	base := time.Now()
	s.now = func() time.Time { return base }
	if _, err := s.CourseLinks(context.Background(), ""); err != nil {
		t.Fatalf("CourseLinks: %v", err)
	}

	s.now = func() time.Time { return base.Add(6 * time.Minute) } // links TTL is 5m
	if _, err := s.CourseLinks(context.Background(), ""); err != nil {
		t.Fatalf("CourseLinks: %v", err)
	}
	if src.calls[TableCourseLinks] != 2 {
		t.Fatalf("source hit %d times across TTL, want 2", src.calls[TableCourseLinks])
	}
}

func TestStaleCacheServedOnRefreshFailure(t *testing.T) {
	t.Parallel()
	src := &fakeSource{tables: testTables()}
	s := newTestService(t, src)

	base := time.Now()
	s.now = func() time.Time { return base }
	if _, err := s.CompanyInfo(context.Background()); err != nil {
		t.Fatalf("CompanyInfo: %v", err)
	}

	src.err = errors.New("backend down")
	s.now = func() time.Time { return base.Add(3 * time.Hour) }
	info, err := s.CompanyInfo(context.Background())
	if err != nil {
		t.Fatalf("stale fallback failed: %v", err)
	}
	if info["Contact"] == "" {
		t.Fatalf("stale rows lost: %+v", info)
	}
}

func TestCourseNamesVocabulary(t *testing.T) {
	t.Parallel()
	s := newTestService(t, &fakeSource{tables: testTables()})

	names := s.CourseNames(context.Background())
	if len(names) != 2 || names[0] != "CTA" || names[1] != "ACCA" {
		t.Fatalf("names=%v", names)
	}
}

func TestStageContextSelection(t *testing.T) {
	t.Parallel()
	s := newTestService(t, &fakeSource{tables: testTables()})
	ctx := context.Background()

	if got := s.StageContext(ctx, leadx.StageNew, ""); got != "" {
		t.Fatalf("NEW stage should have no context, got:\n%s", got)
	}

	got := s.StageContext(ctx, leadx.StageCourseSelected, "CTA")
	if !strings.Contains(got, "Course Details") || !strings.Contains(got, "PKR 50,000") {
		t.Fatalf("details missing:\n%s", got)
	}
	if !strings.Contains(got, "cta-demo") {
		t.Fatalf("links missing:\n%s", got)
	}

	got = s.StageContext(ctx, leadx.StageGoalCollected, "CTA")
	if !strings.Contains(got, "FAQ 1:") || !strings.Contains(got, "fully online") {
		t.Fatalf("faqs missing:\n%s", got)
	}
}

func TestStageContextDegradesOnFailure(t *testing.T) {
	t.Parallel()
	s := newTestService(t, &fakeSource{err: errors.New("backend down")})

	if got := s.StageContext(context.Background(), leadx.StageCourseSelected, "CTA"); got != "" {
		t.Fatalf("context should be empty on failure, got:\n%s", got)
	}
}
