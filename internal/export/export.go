package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"call-trace/internal/calls"
)

type Exporter struct {
	overrideDir string
	cwd         string
}

func New(overrideDir string) (*Exporter, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve cwd: %w", err)
	}
	return &Exporter{overrideDir: strings.TrimSpace(overrideDir), cwd: cwd}, nil
}

// Export writes the call's transcript as markdown and returns the file path.
func (e *Exporter) Export(call calls.Call, messages []calls.Message) (string, error) {
	path := e.outputPath(call)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	body := BuildTranscriptMarkdown(messages)
	md := BuildCallMarkdown(call, body, time.Now().UTC())
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}

func BuildTranscriptMarkdown(messages []calls.Message) string {
	var b strings.Builder
	for _, m := range messages {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}

		switch m.Role {
		case "customer":
			b.WriteString("## Customer\n\n")
		case "assistant":
			b.WriteString("## Agent\n\n")
		default:
			b.WriteString("## " + safeValue(m.Role) + "\n\n")
		}
		b.WriteString(content + "\n\n")
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return ""
	}
	return out + "\n"
}

func BuildCallMarkdown(call calls.Call, transcript string, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Call " + call.ID + "\n\n")
	b.WriteString("Exported: " + now.Format(time.RFC3339) + "\n\n")
	b.WriteString("```text\n")
	b.WriteString("caller: " + safeValue(call.Caller) + "\n")
	b.WriteString("number: " + safeValue(call.Number) + "\n")
	b.WriteString("status: " + safeValue(call.Status) + "\n")
	b.WriteString("started: " + calls.FormatUnix(call.StartedTS) + "\n")
	b.WriteString(fmt.Sprintf("messages: %d\n", call.MessageCount))
	b.WriteString("```\n\n")
	if transcript == "" {
		b.WriteString("_No transcript recorded for this call._\n")
		return b.String()
	}
	b.WriteString(transcript)
	if !strings.HasSuffix(transcript, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

func (e *Exporter) outputPath(call calls.Call) string {
	dir := e.overrideDir
	if dir == "" {
		dir = filepath.Join(e.cwd, "docs", "calls")
	} else if !filepath.IsAbs(dir) {
		dir = filepath.Join(e.cwd, dir)
	}
	return filepath.Join(dir, safeFileName(call.ID)+".md")
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func safeFileName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "call"
	}
	return unsafeFileChars.ReplaceAllString(s, "-")
}

func safeValue(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "n/a"
	}
	return s
}
