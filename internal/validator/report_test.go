package validator

import (
	"strconv"
	"strings"
	"testing"

	"github.com/kailas-cloud/moe/internal/domain/record"
)

func TestReport_ContainsEverything(t *testing.T) {
	rec := record.Record{
		FileType:   record.TypeXML,
		Parameters: []string{"WIDTH: -5", "HEIGHT: 34.5"},
		Parts:      []string{},
	}
	res := Validate(&rec)
	report := Report(&rec, res)

	if !strings.Contains(report, "QUALITY ASSESSMENT: "+strconv.Itoa(res.Score)+"/100") {
		t.Errorf("missing score line:\n%s", report)
	}
	if !strings.Contains(report, "✗ File has critical issues") {
		t.Errorf("missing fail banner:\n%s", report)
	}
	for _, s := range append(append([]string{}, res.Issues...), res.Warnings...) {
		if !strings.Contains(report, s) {
			t.Errorf("report missing %q", s)
		}
	}
	for _, s := range []string{"File Type: XML", "Version: Unknown", "Parameters: 2", "Parts: 0", "Constraints: 0"} {
		if !strings.Contains(report, s) {
			t.Errorf("report missing %q", s)
		}
	}
}

func TestReport_ValidLayout(t *testing.T) {
	rec := completeRecord()
	report := Report(&rec, Validate(&rec))

	want := strings.Join([]string{
		"QUALITY ASSESSMENT: 100/100",
		"",
		"✓ File structure is valid",
		"",
		"METADATA SUMMARY:",
		"  • File Type: DAT",
		"  • Version: CAB_2.0",
		"  • Parameters: 3",
		"  • Parts: 2",
		"  • Constraints: 0",
	}, "\n")
	if report != want {
		t.Errorf("report mismatch:\n%s\n---\n%s", report, want)
	}
	if strings.Contains(report, "CRITICAL ISSUES") || strings.Contains(report, "WARNINGS") {
		t.Error("empty sections must be omitted")
	}
}
