package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"call-trace/internal/calls"
)

func TestBuildTranscriptMarkdown(t *testing.T) {
	msgs := []calls.Message{
		{Role: "customer", Content: "Where is my order?"},
		{Role: "assistant", Content: "It ships today."},
		{Role: "customer", Content: "   "},
	}
	md := BuildTranscriptMarkdown(msgs)
	if !strings.Contains(md, "## Customer\n\nWhere is my order?") {
		t.Fatalf("missing customer turn:\n%s", md)
	}
	if !strings.Contains(md, "## Agent\n\nIt ships today.") {
		t.Fatalf("missing agent turn:\n%s", md)
	}
	if strings.Count(md, "## ") != 2 {
		t.Fatalf("blank turn should be skipped:\n%s", md)
	}
}

func TestBuildCallMarkdown_EmptyTranscript(t *testing.T) {
	call := calls.Call{ID: "c9", Caller: "Unknown", Status: calls.StatusMissed}
	md := BuildCallMarkdown(call, "", time.Unix(1700000000, 0).UTC())
	if !strings.Contains(md, "# Call c9") {
		t.Fatalf("missing header:\n%s", md)
	}
	if !strings.Contains(md, "No transcript recorded") {
		t.Fatalf("missing empty-transcript note:\n%s", md)
	}
}

func TestExport_WritesFileUnderOverrideDir(t *testing.T) {
	dir := t.TempDir()
	e, err := New(dir)
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}

	call := calls.Call{ID: "call/42", Caller: "Ada", Status: calls.StatusCompleted, MessageCount: 1}
	path, err := e.Export(call, []calls.Message{{Role: "customer", Content: "hi"}})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("export landed in %s, want %s", filepath.Dir(path), dir)
	}
	if strings.ContainsAny(filepath.Base(path), "/\\") {
		t.Fatalf("unsafe file name: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "caller: Ada") {
		t.Fatalf("metadata missing:\n%s", data)
	}
}
