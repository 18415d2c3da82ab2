// Package catalog serves course, FAQ and company data out of the tabular
// backend, with a per-table TTL cache in front so prompt-context lookups stay
// in-memory on the hot path.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/zensbot/leadflow/agent/contract"
)

const (
	TableCourseDetails = "course_details"
	TableCourseLinks   = "course_links"
	TableFAQs          = "faqs"
	TableCompanyInfo   = "company_info"
)

// fallbackTTL is the safety-net expiry per table; data volatility differs
// (links change often, company info rarely).
var fallbackTTL = map[string]time.Duration{
	TableCourseLinks:   5 * time.Minute,
	TableCourseDetails: 10 * time.Minute,
	TableFAQs:          30 * time.Minute,
	TableCompanyInfo:   2 * time.Hour,
}

type CourseDetail struct {
	CourseName string `json:"course_name"`
	Fees       string `json:"fees"`
	Duration   string `json:"duration"`
	StartDate  string `json:"start_date"`
	Professor  string `json:"professor"`
	Locations  string `json:"locations"`
}

type CourseLink struct {
	CourseName string `json:"course_name"`
	DemoLink   string `json:"demo_link"`
	PDFLink    string `json:"pdf_link"`
	CourseLink string `json:"course_link"`
}

type FAQ struct {
	CourseName string `json:"course_name"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}

type cacheEntry struct {
	rows      []map[string]any
	fetchedAt time.Time
}

// Service fronts a RowSource with TTL caching and typed accessors.
type Service struct {
	source contractx.RowSource

	mu    sync.Mutex
	cache map[string]cacheEntry

	now func() time.Time
}

func NewService(source contractx.RowSource) (*Service, error) {
	if source == nil {
		return nil, fmt.Errorf("row source is required")
	}
	return &Service{
		source: source,
		cache:  make(map[string]cacheEntry),
		now:    time.Now,
	}, nil
}

// rows returns the cached rows for a table, refreshing past TTL. A refresh
// failure falls back to stale cached rows when present.
func (s *Service) rows(ctx context.Context, table string) ([]map[string]any, error) {
	ttl, ok := fallbackTTL[table]
	if !ok {
		ttl = 10 * time.Minute
	}

	s.mu.Lock()
	cached, hit := s.cache[table]
	s.mu.Unlock()

	if hit && s.now().Sub(cached.fetchedAt) < ttl {
		return cached.rows, nil
	}

	fresh, err := s.source.GetRows(ctx, table)
	if err != nil {
		if hit {
			log.Warn().Err(err).Str("table", table).Msg("catalog refresh failed, serving stale cache")
			return cached.rows, nil
		}
		return nil, fmt.Errorf("fetch table %s: %w", table, err)
	}

	s.mu.Lock()
	s.cache[table] = cacheEntry{rows: fresh, fetchedAt: s.now()}
	s.mu.Unlock()
	return fresh, nil
}

// InvalidateTable drops a table's cache entry; the next read refetches.
func (s *Service) InvalidateTable(table string) {
	s.mu.Lock()
	delete(s.cache, table)
	s.mu.Unlock()
}

// CourseDetails returns details, optionally filtered by course name.
func (s *Service) CourseDetails(ctx context.Context, courseName string) ([]CourseDetail, error) {
	rows, err := s.rows(ctx, TableCourseDetails)
	if err != nil {
		return nil, err
	}
	out := make([]CourseDetail, 0, len(rows))
	for _, row := range rows {
		d := CourseDetail{
			CourseName: str(row, "course_name"),
			Fees:       str(row, "fees"),
			Duration:   str(row, "duration"),
			StartDate:  str(row, "start_date"),
			Professor:  str(row, "professor"),
			Locations:  str(row, "locations"),
		}
		if courseName != "" && !strings.EqualFold(d.CourseName, courseName) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Service) CourseLinks(ctx context.Context, courseName string) ([]CourseLink, error) {
	rows, err := s.rows(ctx, TableCourseLinks)
	if err != nil {
		return nil, err
	}
	out := make([]CourseLink, 0, len(rows))
	for _, row := range rows {
		l := CourseLink{
			CourseName: str(row, "course_name"),
			DemoLink:   str(row, "demo_link"),
			PDFLink:    str(row, "pdf_link"),
			CourseLink: str(row, "course_link"),
		}
		if courseName != "" && !strings.EqualFold(l.CourseName, courseName) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *Service) FAQs(ctx context.Context, limit int) ([]FAQ, error) {
	rows, err := s.rows(ctx, TableFAQs)
	if err != nil {
		return nil, err
	}
	out := make([]FAQ, 0, len(rows))
	for _, row := range rows {
		out = append(out, FAQ{
			CourseName: str(row, "course_name"),
			Question:   str(row, "question"),
			Answer:     str(row, "answer"),
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// CompanyInfo rows are key-value pairs (field_name, field_value).
func (s *Service) CompanyInfo(ctx context.Context) (map[string]string, error) {
	rows, err := s.rows(ctx, TableCompanyInfo)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		name := str(row, "field_name")
		if name == "" {
			continue
		}
		out[name] = str(row, "field_value")
	}
	return out, nil
}

// CourseNames lists the known course names; this feeds the extractor's
// keyword vocabulary.
func (s *Service) CourseNames(ctx context.Context) []string {
	details, err := s.CourseDetails(ctx, "")
	if err != nil {
		log.Warn().Err(err).Msg("course vocabulary unavailable")
		return nil
	}
	seen := make(map[string]bool, len(details))
	names := make([]string, 0, len(details))
	for _, d := range details {
		name := strings.TrimSpace(d.CourseName)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		names = append(names, name)
	}
	return names
}

func str(row map[string]any, key string) string {
	v, ok := row[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
