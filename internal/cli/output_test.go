package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func newTestOutput(jsonMode bool) (*Output, *bytes.Buffer, *bytes.Buffer) {
	var w, errW bytes.Buffer
	return &Output{jsonMode: jsonMode, w: &w, errW: &errW}, &w, &errW
}

func TestTable_NormalizesCells(t *testing.T) {
	out, w, _ := newTestOutput(false)

	out.Table(
		[]string{"NODE_ID", "STATUS", "STARTED", "FINISHED"},
		[][]string{
			{"fetch", "succeeded", "2026-08-23T10:15:42Z", "2026-08-23T10:15:44Z"},
			{"notify", "pending", "", ""},
		},
	)

	got := w.String()
	if !strings.Contains(got, "2026-08-23 10:15:42") {
		t.Errorf("timestamp not compacted:\n%s", got)
	}
	if strings.Contains(got, "2026-08-23T10:15:42Z") {
		t.Errorf("raw RFC3339 leaked into table:\n%s", got)
	}

	// Пустые timestamp-поля у незапущенного узла печатаются как "-".
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	last := lines[len(lines)-1]
	if !strings.Contains(last, "pending") || strings.Count(last, "-") < 2 {
		t.Errorf("empty cells not dashed: %q", last)
	}
}

func TestFormatCell(t *testing.T) {
	if got := formatCell(""); got != "-" {
		t.Errorf("empty cell: got %q", got)
	}
	if got := formatCell("succeeded"); got != "succeeded" {
		t.Errorf("plain value changed: got %q", got)
	}
	// Часовой пояс приводится к UTC.
	if got := formatCell("2026-08-23T13:15:42+03:00"); got != "2026-08-23 10:15:42" {
		t.Errorf("timestamp: got %q", got)
	}
}

func TestLogs_LineFormat(t *testing.T) {
	out, w, _ := newTestOutput(false)

	out.Logs([]LogEntryResponse{
		{TS: "2026-08-23T10:15:42Z", Level: "info", NodeID: "fetch", Message: "node started"},
		{TS: "2026-08-23T10:15:43Z", Level: "error", NodeID: "", Message: "run failed"},
	})

	lines := strings.Split(strings.TrimRight(w.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), w.String())
	}
	if !strings.Contains(lines[0], "INFO") || !strings.Contains(lines[0], "[fetch]") {
		t.Errorf("unexpected node line: %q", lines[0])
	}
	// Записи уровня run (без node_id) помечаются [run].
	if !strings.Contains(lines[1], "ERROR") || !strings.Contains(lines[1], "[run]") {
		t.Errorf("unexpected run line: %q", lines[1])
	}
}

func TestLogs_JSONMode(t *testing.T) {
	out, w, _ := newTestOutput(true)

	entries := []LogEntryResponse{
		{TS: "2026-08-23T10:15:42Z", Level: "info", NodeID: "fetch", Message: "node started"},
	}
	out.Logs(entries)

	var got []LogEntryResponse
	if err := json.Unmarshal(w.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(got) != 1 || got[0].NodeID != "fetch" {
		t.Errorf("unexpected entries: %+v", got)
	}
}

func TestPrint_ModeSwitch(t *testing.T) {
	out, w, _ := newTestOutput(true)

	rows := []WorkflowResponse{{ID: "wf-1", Name: "deploy"}}
	out.Print([]string{"ID", "NAME"}, [][]string{{"wf-1", "deploy"}}, rows)

	var got []WorkflowResponse
	if err := json.Unmarshal(w.Bytes(), &got); err != nil {
		t.Fatalf("json mode output invalid: %v", err)
	}
	if got[0].Name != "deploy" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestSuccessAndError_GoToStderr(t *testing.T) {
	out, w, errW := newTestOutput(false)

	out.Success("Workflow created: wf-1")
	out.Error("workflow not found")

	if w.Len() != 0 {
		t.Errorf("messages leaked to stdout: %q", w.String())
	}
	if !strings.Contains(errW.String(), "Workflow created: wf-1") {
		t.Errorf("success message missing: %q", errW.String())
	}
	if !strings.Contains(errW.String(), "Error: workflow not found") {
		t.Errorf("error message missing: %q", errW.String())
	}
}
