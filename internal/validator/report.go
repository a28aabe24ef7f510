package validator

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/moe/internal/domain/record"
)

// Report renders a human-readable quality summary for display.
func Report(rec *record.Record, res Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "QUALITY ASSESSMENT: %d/100\n\n", res.Score)
	if res.Valid {
		b.WriteString("✓ File structure is valid\n")
	} else {
		b.WriteString("✗ File has critical issues\n")
	}

	writeList(&b, "CRITICAL ISSUES:", res.Issues)
	writeList(&b, "WARNINGS:", res.Warnings)

	version := rec.Version
	if version == "" {
		version = "Unknown"
	}
	b.WriteString("\nMETADATA SUMMARY:\n")
	fmt.Fprintf(&b, "  • File Type: %s\n", rec.FileType)
	fmt.Fprintf(&b, "  • Version: %s\n", version)
	fmt.Fprintf(&b, "  • Parameters: %d\n", len(rec.Parameters))
	fmt.Fprintf(&b, "  • Parts: %d\n", len(rec.Parts))
	fmt.Fprintf(&b, "  • Constraints: %d", len(rec.Constraints))

	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n" + title + "\n")
	for _, item := range items {
		b.WriteString("  • " + item + "\n")
	}
}
