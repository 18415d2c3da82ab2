package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	leadx "github.com/zensbot/leadflow/agent/lead"
)

// stageContextMap decides which tables are worth pre-loading into the prompt
// for each funnel stage. Early stages get nothing; once a course is selected
// the model should already hold its details and links.
var stageContextMap = map[leadx.Stage][]string{
	leadx.StageCourseSelected:     {TableCourseDetails, TableCourseLinks},
	leadx.StageEducationCollected: {TableCourseDetails},
	leadx.StageGoalCollected:      {TableCourseDetails, TableFAQs},
	leadx.StageDemoShared:         {TableCourseLinks, TableCompanyInfo},
	leadx.StageEnrolled:           {TableCompanyInfo},
}

// StageContext builds the pre-loaded data block for the system prompt.
// Lookup failures degrade to an empty block; context injection must never
// fail a chat turn.
func (s *Service) StageContext(ctx context.Context, stage leadx.Stage, selectedCourse string) string {
	tables := stageContextMap[stage]
	if len(tables) == 0 {
		return ""
	}

	parts := make([]string, 0, len(tables))
	for _, table := range tables {
		block := s.contextBlock(ctx, table, selectedCourse)
		if block != "" {
			parts = append(parts, block)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n")
}

func (s *Service) contextBlock(ctx context.Context, table, selectedCourse string) string {
	switch table {
	case TableCourseDetails:
		details, err := s.CourseDetails(ctx, selectedCourse)
		if err != nil || len(details) == 0 {
			logContextMiss(err, table)
			return ""
		}
		return "### Course Details:\n" + formatCourseDetail(details[0])

	case TableCourseLinks:
		links, err := s.CourseLinks(ctx, selectedCourse)
		if err != nil || len(links) == 0 {
			logContextMiss(err, table)
			return ""
		}
		return "### Course Links:\n" + formatCourseLink(links[0])

	case TableFAQs:
		faqs, err := s.FAQs(ctx, 5)
		if err != nil || len(faqs) == 0 {
			logContextMiss(err, table)
			return ""
		}
		return "### FAQs:\n" + formatFAQs(faqs)

	case TableCompanyInfo:
		info, err := s.CompanyInfo(ctx)
		if err != nil || len(info) == 0 {
			logContextMiss(err, table)
			return ""
		}
		return "### Company Information:\n" + formatKV(info)
	}
	return ""
}

func logContextMiss(err error, table string) {
	if err != nil {
		log.Warn().Err(err).Str("table", table).Msg("stage context lookup failed")
	}
}

func formatCourseDetail(d CourseDetail) string {
	parts := make([]string, 0, 6)
	appendKV(&parts, "Course", d.CourseName)
	appendKV(&parts, "Fees", d.Fees)
	appendKV(&parts, "Duration", d.Duration)
	appendKV(&parts, "Start_Date", d.StartDate)
	appendKV(&parts, "Professor", d.Professor)
	appendKV(&parts, "Locations", d.Locations)
	return strings.Join(parts, "\n")
}

func formatCourseLink(l CourseLink) string {
	parts := make([]string, 0, 4)
	appendKV(&parts, "Course", l.CourseName)
	appendKV(&parts, "Demo_Link", l.DemoLink)
	appendKV(&parts, "Pdf_Link", l.PDFLink)
	appendKV(&parts, "Course_Link", l.CourseLink)
	return strings.Join(parts, " | ")
}

func formatFAQs(faqs []FAQ) string {
	out := make([]string, 0, len(faqs))
	for i, f := range faqs {
		parts := make([]string, 0, 3)
		appendKV(&parts, "Course", f.CourseName)
		appendKV(&parts, "Question", f.Question)
		appendKV(&parts, "Answer", f.Answer)
		if len(parts) == 0 {
			continue
		}
		out = append(out, fmt.Sprintf("FAQ %d:\n%s", i+1, strings.Join(parts, " | ")))
	}
	return strings.Join(out, "\n\n")
}

func formatKV(info map[string]string) string {
	parts := make([]string, 0, len(info))
	for k, v := range info {
		appendKV(&parts, k, v)
	}
	return strings.Join(parts, "\n")
}

func appendKV(parts *[]string, key, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	*parts = append(*parts, key+": "+value)
}
