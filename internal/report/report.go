// Package report holds the threat model report data and the collaborators the
// exporter talks to.
package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// DefaultProduct names the generated files.
const DefaultProduct = "arch-vision"

// Report is a generated STRIDE threat model.
type Report struct {
	ID        string
	Title     string
	Markdown  string
	CreatedAt time.Time
}

// Severity of a finding.
type Severity int

const (
	SeverityCritical Severity = iota
	SeverityHigh
	SeverityMedium
	SeverityLow
)

// Severities lists all levels from the most to the least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

var severityNames = [...]string{"critical", "high", "medium", "low"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// Label is the upper case tag text, as it appears in reports.
func (s Severity) Label() string {
	return strings.ToUpper(s.String())
}

// ParseSeverityName converts a case-insensitive level name.
func ParseSeverityName(name string) (Severity, error) {
	for i, n := range severityNames {
		if strings.EqualFold(name, n) {
			return Severity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", name)
}

// SeveritySummary counts the severity tags of a report.
type SeveritySummary struct {
	Critical int
	High     int
	Medium   int
	Low      int
}

// Count returns the number of findings of one level.
func (s SeveritySummary) Count(sev Severity) int {
	switch sev {
	case SeverityCritical:
		return s.Critical
	case SeverityHigh:
		return s.High
	case SeverityMedium:
		return s.Medium
	case SeverityLow:
		return s.Low
	}
	return 0
}

// Total returns the number of tagged findings.
func (s SeveritySummary) Total() int {
	return s.Critical + s.High + s.Medium + s.Low
}

func (s SeveritySummary) String() string {
	return fmt.Sprintf("critical=%d high=%d medium=%d low=%d", s.Critical, s.High, s.Medium, s.Low)
}

// TagPattern matches a bracketed severity tag such as [HIGH], in any case.
var TagPattern = regexp.MustCompile(`(?i)\[(critical|high|medium|low)\]`)

// ParseSeverity counts every [CRITICAL], [HIGH], [MEDIUM] and [LOW] tag in
// the markdown, case-insensitively, wherever it appears.
func ParseSeverity(markdown string) SeveritySummary {
	var s SeveritySummary
	for _, m := range TagPattern.FindAllStringSubmatch(markdown, -1) {
		switch strings.ToLower(m[1]) {
		case "critical":
			s.Critical++
		case "high":
			s.High++
		case "medium":
			s.Medium++
		case "low":
			s.Low++
		}
	}
	return s
}

// FileName returns the download name of an exported report,
// <product>-report-<id>.pdf. An empty id is replaced with a random one.
func FileName(product, reportID string) string {
	p := slug.Make(product)
	if p == "" {
		p = DefaultProduct
	}
	if reportID == "" {
		reportID = uuid.NewString()
	}
	return fmt.Sprintf("%s-report-%s.pdf", p, reportID)
}
