package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"golang.org/x/text/encoding/unicode"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     SeveritySummary
	}{
		{"empty", "", SeveritySummary{}},
		{"none", "# Report\nNo findings.", SeveritySummary{}},
		{
			"mixed case",
			"- [CRITICAL] token leak\n- [high] replay\n- [High] spoofing\n- [medium] dos [LOW] info",
			SeveritySummary{Critical: 1, High: 2, Medium: 1, Low: 1},
		},
		{"brackets required", "CRITICAL HIGH (LOW) [ LOW ] [LOWER]", SeveritySummary{}},
		{"in table", "| [LOW] | [LOW] |\n|---|---|", SeveritySummary{Low: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSeverity(tt.markdown)
			if got != tt.want {
				t.Fatalf("ParseSeverity() = %v, want %v", got, tt.want)
			}
		})
	}

	s := ParseSeverity("[critical][CRITICAL][low]")
	if s.Total() != 3 || s.Count(SeverityCritical) != 2 || s.Count(SeverityLow) != 1 {
		t.Fatalf("unexpected summary %v", s)
	}
}

func TestSeverityNames(t *testing.T) {
	for _, s := range Severities {
		got, err := ParseSeverityName(s.Label())
		if err != nil || got != s {
			t.Fatalf("round trip of %v: %v, %v", s, got, err)
		}
	}
	if SeverityMedium.Label() != "MEDIUM" {
		t.Fatalf("label = %q", SeverityMedium.Label())
	}
	if _, err := ParseSeverityName("urgent"); err == nil {
		t.Fatal("expected error")
	}
}

func TestFileName(t *testing.T) {
	if got := FileName("Arch Vision", "42"); got != "arch-vision-report-42.pdf" {
		t.Fatalf("FileName = %q", got)
	}
	if got := FileName("", "abc"); got != "arch-vision-report-abc.pdf" {
		t.Fatalf("FileName = %q", got)
	}
	re := regexp.MustCompile(`^acme-report-[0-9a-f-]{36}\.pdf$`)
	if got := FileName("ACME", ""); !re.MatchString(got) {
		t.Fatalf("FileName = %q", got)
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	md := "intro\n# Payments API threat model\n\n## Spoofing\n[HIGH] token replay\n"
	if err := os.WriteFile(filepath.Join(dir, "r-17.md"), []byte(md), 0o644); err != nil {
		t.Fatal(err)
	}

	src := FileSource{Dir: dir}
	r, err := src.Load(context.Background(), "r-17")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.ID != "r-17" || r.Title != "Payments API threat model" || r.Markdown != md || r.CreatedAt.IsZero() {
		t.Fatalf("unexpected report %+v", r)
	}

	for _, id := range []string{"missing", "../r-17", ""} {
		if _, err := src.Load(context.Background(), id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%q: expected ErrNotFound, got %v", id, err)
		}
	}
}

func TestNotifierFunc(t *testing.T) {
	var got []string
	var n Notifier = NotifierFunc(func(l Level, msg string) {
		got = append(got, l.String()+":"+msg)
	})
	n.Notify(LevelSuccess, "done")
	n.Notify(LevelError, "failed")
	if len(got) != 2 || got[0] != "success:done" || got[1] != "error:failed" {
		t.Fatalf("got %v", got)
	}
}

func TestLoadFileEncodings(t *testing.T) {
	md := "# Caf\u0065\u0301 ordering\n\n[LOW] menu cache\n"
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(md))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"plain", []byte(md)},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, md...)},
		{"utf16le bom", utf16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cafe.md")
			if err := os.WriteFile(path, tt.data, 0o644); err != nil {
				t.Fatal(err)
			}
			r, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			// combining accent is composed
			if r.Title != "Caf\u00e9 ordering" {
				t.Errorf("Title = %q", r.Title)
			}
			if got := ParseSeverity(r.Markdown).Low; got != 1 {
				t.Errorf("Low = %d", got)
			}
		})
	}
}
