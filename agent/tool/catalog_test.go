package tool

import (
	"context"
	"testing"

	catalogx "github.com/zensbot/leadflow/agent/catalog"
	contractx "github.com/zensbot/leadflow/agent/contract"
)

type fakeSource struct {
	tables map[string][]map[string]any
}

func (f *fakeSource) GetRows(ctx context.Context, table string) ([]map[string]any, error) {
	return f.tables[table], nil
}

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	svc, err := catalogx.NewService(&fakeSource{tables: map[string][]map[string]any{
		catalogx.TableCourseDetails: {
			{"course_name": "CTA", "fees": "PKR 50,000"},
		},
		catalogx.TableFAQs: {
			{"question": "Is it online?", "answer": "Yes."},
			{"question": "Installments?", "answer": "Allowed."},
		},
	}})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return NewExecutor(svc)
}

func TestInfosDeclareCaptureLead(t *testing.T) {
	t.Parallel()

	infos := Infos()
	if len(infos) != 5 {
		t.Fatalf("expected 5 tool infos, got %d", len(infos))
	}
	if infos[0].Name != ToolCaptureLead {
		t.Fatalf("unexpected first tool: %s", infos[0].Name)
	}
}

func TestExecuteCaptureLeadAcknowledges(t *testing.T) {
	t.Parallel()

	out := newTestExecutor(t).Execute(context.Background(), contractx.ToolCall{
		Name: ToolCaptureLead,
		Args: map[string]any{"name": "Sara", "phone": "+923001234567"},
	})
	if out.Error != "" {
		t.Fatalf("unexpected error: %s", out.Error)
	}
	if out.Result != "lead captured" {
		t.Fatalf("unexpected result: %v", out.Result)
	}
}

func TestExecuteFetchCourseDetails(t *testing.T) {
	t.Parallel()

	out := newTestExecutor(t).Execute(context.Background(), contractx.ToolCall{
		Name: ToolFetchCourseDetails,
		Args: map[string]any{"course": "CTA"},
	})
	if out.Error != "" {
		t.Fatalf("unexpected error: %s", out.Error)
	}
	details, ok := out.Result.([]catalogx.CourseDetail)
	if !ok {
		t.Fatalf("unexpected result type: %T", out.Result)
	}
	if len(details) != 1 || details[0].Fees != "PKR 50,000" {
		t.Fatalf("unexpected details: %+v", details)
	}
}

func TestExecuteFetchFAQsLimit(t *testing.T) {
	t.Parallel()

	out := newTestExecutor(t).Execute(context.Background(), contractx.ToolCall{
		Name: ToolFetchFAQs,
		Args: map[string]any{"limit": float64(1)},
	})
	faqs, ok := out.Result.([]catalogx.FAQ)
	if !ok {
		t.Fatalf("unexpected result type: %T", out.Result)
	}
	if len(faqs) != 1 {
		t.Fatalf("limit not applied: %d", len(faqs))
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	t.Parallel()

	out := newTestExecutor(t).Execute(context.Background(), contractx.ToolCall{Name: "no_such_tool"})
	if out.Error == "" {
		t.Fatal("expected error result for unknown tool")
	}
}
