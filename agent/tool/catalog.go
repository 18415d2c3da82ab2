package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	catalogx "github.com/zensbot/leadflow/agent/catalog"
	contractx "github.com/zensbot/leadflow/agent/contract"
	extractx "github.com/zensbot/leadflow/agent/extract"
)

const (
	ToolCaptureLead        = extractx.CaptureToolName
	ToolFetchCourseDetails = "fetch_course_details"
	ToolFetchCourseLinks   = "fetch_course_links"
	ToolFetchFAQs          = "fetch_faqs"
	ToolFetchCompanyInfo   = "fetch_company_info"
)

// Infos declares the tools offered to the model on every turn.
func Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolCaptureLead,
			Desc: "Save the lead's record before sharing demo material. Calling this marks the demo as shared.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"name":      {Type: schema.String, Desc: "Lead's full name", Required: true},
				"phone":     {Type: schema.String, Desc: "Phone number with country code"},
				"email":     {Type: schema.String, Desc: "Email address"},
				"course":    {Type: schema.String, Desc: "Selected course name"},
				"education": {Type: schema.String, Desc: "Education level"},
				"goal":      {Type: schema.String, Desc: "Lead's goal or motivation"},
				"notes":     {Type: schema.String, Desc: "Additional labelled notes"},
			}),
		},
		{
			Name: ToolFetchCourseDetails,
			Desc: "Get course information: fees, duration, dates, professor, locations.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"course": {Type: schema.String, Desc: "Course name to filter by"},
			}),
		},
		{
			Name: ToolFetchCourseLinks,
			Desc: "Get demo links, PDF links or course page links.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"course": {Type: schema.String, Desc: "Course name to filter by"},
			}),
		},
		{
			Name: ToolFetchFAQs,
			Desc: "Get frequently asked questions and answers.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"limit": {Type: schema.Integer, Desc: "Maximum FAQs to return"},
			}),
		},
		{
			Name: ToolFetchCompanyInfo,
			Desc: "Get company contact details, social media and locations.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
	}
}

// Executor resolves tool calls against the catalog service. capture_lead is
// acknowledged here; its arguments are separately observed by the extractor.
type Executor struct {
	catalog *catalogx.Service
}

func NewExecutor(catalog *catalogx.Service) *Executor {
	return &Executor{catalog: catalog}
}

var _ contractx.ToolExecutor = (*Executor)(nil)

func (e *Executor) Execute(ctx context.Context, call contractx.ToolCall) contractx.ToolResult {
	switch call.Name {
	case ToolCaptureLead:
		return contractx.ToolResult{
			Tool:   call.Name,
			Result: "lead captured",
		}

	case ToolFetchCourseDetails:
		details, err := e.catalog.CourseDetails(ctx, stringArg(call.Args, "course"))
		if err != nil {
			return errResult(call.Name, err)
		}
		return contractx.ToolResult{Tool: call.Name, Result: details}

	case ToolFetchCourseLinks:
		links, err := e.catalog.CourseLinks(ctx, stringArg(call.Args, "course"))
		if err != nil {
			return errResult(call.Name, err)
		}
		return contractx.ToolResult{Tool: call.Name, Result: links}

	case ToolFetchFAQs:
		faqs, err := e.catalog.FAQs(ctx, intArg(call.Args, "limit"))
		if err != nil {
			return errResult(call.Name, err)
		}
		return contractx.ToolResult{Tool: call.Name, Result: faqs}

	case ToolFetchCompanyInfo:
		info, err := e.catalog.CompanyInfo(ctx)
		if err != nil {
			return errResult(call.Name, err)
		}
		return contractx.ToolResult{Tool: call.Name, Result: info}

	default:
		return contractx.ToolResult{
			Tool:  call.Name,
			Error: fmt.Sprintf("tool=%s is not available", call.Name),
		}
	}
}

func errResult(tool string, err error) contractx.ToolResult {
	return contractx.ToolResult{Tool: tool, Error: err.Error()}
}

func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	if s, ok := args[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func intArg(args map[string]any, key string) int {
	if args == nil {
		return 0
	}
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
