package crash

import (
	"os"
	"strings"
	"testing"
)

func TestWriteReportCreatesFileInTemp(t *testing.T) {
	path, err := writeReport(nil, "boom", []byte("stacktrace"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(path) })
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "Gang Sheet Designer Crash Report") {
		t.Fatalf("report header missing")
	}
	if !strings.Contains(s, "Panic: boom") {
		t.Fatalf("panic content missing: %s", s)
	}
}

func TestWriteReportIncludesFields(t *testing.T) {
	dir := t.TempDir()
	info := &Info{Dir: dir, Fields: func() []Field {
		return []Field{{"Sheet", "22x60 in"}, {"Objects", "3"}}
	}}
	path, err := writeReport(info, "kaboom", []byte("stack"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	if !strings.HasPrefix(path, dir) {
		t.Fatalf("expected crash report under %s, got %s", dir, path)
	}
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), "Sheet: 22x60 in") || !strings.Contains(string(b), "Objects: 3") {
		t.Fatalf("context fields missing: %s", b)
	}
}

func TestWriteReportSurvivesPanickingFields(t *testing.T) {
	info := &Info{Dir: t.TempDir(), Fields: func() []Field { panic("locked") }}
	path, err := writeReport(info, "first", nil)
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), "Context: unavailable (locked)") {
		t.Fatalf("fallback context missing: %s", b)
	}
}
