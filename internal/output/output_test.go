package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestPrinter_JSON_Success(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, true, false)

	err := printer.Success(map[string]any{"status": "enabled", "project": "/work/app"})
	if err != nil {
		t.Fatalf("Success() error = %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse JSON: %v\nOutput: %s", err, buf.String())
	}
	if result["status"] != "enabled" || result["project"] != "/work/app" {
		t.Errorf("result = %v", result)
	}
}

func TestPrinter_JSON_NoHTMLEscape(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, true, false)
	if err := printer.WriteJSON(map[string]string{"content": "<a & b>"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<a & b>") {
		t.Errorf("WriteJSON() escaped HTML: %s", buf.String())
	}
}

func TestPrinter_Error(t *testing.T) {
	tests := []struct {
		name     string
		jsonMode bool
		err      error
		want     []string
	}{
		{"json user error", true, NewUserError("unknown format: xml"), []string{`"error":"unknown format: xml"`, `"code":1`}},
		{"json system error", true, NewSystemError("log unreadable"), []string{`"code":2`}},
		{"human error", false, NewUserError("unknown format: xml"), []string{"Error: unknown format: xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewPrinter(&buf, tt.jsonMode, false).Error(tt.err)
			out := strings.ReplaceAll(buf.String(), " ", "")
			for _, w := range tt.want {
				if !strings.Contains(out, strings.ReplaceAll(w, " ", "")) {
					t.Errorf("output %q missing %q", buf.String(), w)
				}
			}
		})
	}
}

func TestPrinter_ErrorToStderr(t *testing.T) {
	var stdout, stderr bytes.Buffer
	printer := NewPrinter(&stdout, false, false).WithStderr(&stderr)
	printer.Error(NewSystemError("boom"))
	printer.Warn("careful %d", 1)

	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", stdout.String())
	}
	if !strings.Contains(stderr.String(), "boom") || !strings.Contains(stderr.String(), "Warning: careful 1") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestPrinter_Human_Success(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, false, false)

	_ = printer.Success(map[string]any{"message": "capture enabled"})
	if buf.String() != "capture enabled\n" {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	_ = printer.Success(map[string]any{"b": 2, "a": 1})
	if buf.String() != "a: 1\nb: 2\n" {
		t.Errorf("keys not sorted: %q", buf.String())
	}
}

func TestPrinter_Warn_JSON(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, true, false).Warn("3 lines skipped")

	var result map[string]any
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse JSON: %v\nOutput: %s", err, buf.String())
	}
	if result["warning"] != "3 lines skipped" {
		t.Errorf("warning = %v", result["warning"])
	}
}

func TestPrinter_Table(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, false, false)
	printer.Table([]string{"ID", "Severity"}, [][]string{
		{"01HX", "sev-0"},
		{"01HY-long", "sev-2"},
	})

	want := "ID         Severity\n01HX       sev-0\n01HY-long  sev-2\n"
	if buf.String() != want {
		t.Errorf("Table() =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestPrinter_KeyValueAndSection(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, false, false)
	printer.Section("Summary")
	printer.KeyValue("Entries", "10")

	want := "\nSummary\n───────\nEntries: 10\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestPrinter_Severity(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, false, false)
	for _, sev := range []string{"sev-0", "sev-2", "sev-3"} {
		if got := printer.Severity(sev); got != sev {
			t.Errorf("Severity(%q) = %q without colors", sev, got)
		}
	}
}

func TestErrorJSON_Format(t *testing.T) {
	var parsed struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	if err := json.Unmarshal(ErrorJSON("test error", ExitConflict), &parsed); err != nil {
		t.Fatalf("Failed to parse ErrorJSON output: %v", err)
	}
	if parsed.Error != "test error" || parsed.Code != ExitConflict {
		t.Errorf("parsed = %+v", parsed)
	}
}
