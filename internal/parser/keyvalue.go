package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/moe/internal/domain/record"
)

// Section names routing lines in sectioned files.
const (
	sectionGeneral     = "GENERAL"
	sectionDimensions  = "DIMENSIONS"
	sectionParts       = "PARTS"
	sectionConstraints = "CONSTRAINTS"
)

// dialect describes one line-oriented KEY=VALUE format. The variants differ only in
// placeholders, part markers, comment syntax and whether [SECTION] headers exist.
type dialect struct {
	fileType           record.FileType
	defaultVersion     string
	defaultCabinetType string
	partMarkers        []string
	commentPrefixes    []string
	sections           bool
}

var (
	datDialect = dialect{
		fileType:           record.TypeDAT,
		defaultVersion:     "Unknown",
		defaultCabinetType: "Unknown Cabinet",
		partMarkers:        []string{"PART_"},
		commentPrefixes:    []string{"#"},
	}
	desDialect = dialect{
		fileType:           record.TypeDES,
		defaultVersion:     "Unknown",
		defaultCabinetType: "Unknown Design",
		partMarkers:        []string{"PART_", "COMPONENT_"},
		commentPrefixes:    []string{";", "#", "//"},
	}
	mozDialect = dialect{
		fileType:           record.TypeMOZ,
		defaultVersion:     "MZB 1.0",
		defaultCabinetType: "Mozaik Cabinet",
		partMarkers:        []string{"PART_"},
		commentPrefixes:    []string{";"},
		sections:           true,
	}
)

// lineScan accumulates state while walking the lines of one file.
type lineScan struct {
	rec      record.Record
	section  string
	lines    int
	sections int
	ignored  int
}

func (d dialect) parse(fileName, content string) (record.Record, error) {
	s := &lineScan{rec: record.Record{
		FileName:    fileName,
		FileType:    d.fileType,
		Version:     d.defaultVersion,
		CabinetType: d.defaultCabinetType,
		Parameters:  []string{},
		Parts:       []string{},
		Constraints: []string{},
		Issues:      []string{},
	}}

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		s.lines++
		if d.isComment(line) {
			continue
		}
		if d.sections && isSectionHeader(line) {
			s.section = strings.ToUpper(strings.TrimSpace(line[1 : len(line)-1]))
			s.sections++
			continue
		}
		d.scanLine(s, line)
	}

	rec := s.rec
	rec.Issues = append(rec.Issues, missingDimensionIssues(rec.Parameters)...)
	if len(rec.Parts) == 0 {
		rec.Issues = append(rec.Issues, "No parts defined")
	}
	rec.Metadata = record.Metadata{
		LineCount:    s.lines,
		SectionCount: s.sections,
		Extra:        map[string]any{"ignored_lines": s.ignored},
	}
	return rec, nil
}

func (d dialect) scanLine(s *lineScan, line string) {
	key, value, isKV := splitKeyValue(line)

	switch s.section {
	case sectionDimensions:
		if !isKV {
			s.ignored++
			return
		}
		s.rec.Parameters = append(s.rec.Parameters, formatParameter(key, value))
	case sectionParts:
		if !isKV {
			s.rec.Parts = append(s.rec.Parts, line)
			return
		}
		s.rec.Parts = append(s.rec.Parts, formatPart(d.stripMarker(key), value))
	case sectionConstraints:
		if !isKV {
			s.rec.Constraints = append(s.rec.Constraints, line)
			return
		}
		s.rec.Constraints = append(s.rec.Constraints, formatParameter(key, value))
	default:
		if !isKV || !d.classify(&s.rec, key, value) {
			s.ignored++
		}
	}
}

// classify routes a key outside any routing section. Returns false for keys it ignores.
func (d dialect) classify(rec *record.Record, key, value string) bool {
	norm := normalizeKey(key)
	switch {
	case strings.Contains(norm, "VERSION"):
		if value != "" {
			rec.Version = value
		}
	case norm == "CABINETTYPE" || norm == "TYPE" || norm == "DESIGNTYPE":
		if value != "" {
			rec.CabinetType = value
		}
	case d.hasMarker(key):
		rec.Parts = append(rec.Parts, formatPart(d.stripMarker(key), value))
	case isDimensionKey(norm):
		rec.Parameters = append(rec.Parameters, formatParameter(key, value))
	default:
		return false
	}
	return true
}

func (d dialect) isComment(line string) bool {
	for _, p := range d.commentPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func (d dialect) hasMarker(key string) bool {
	upper := strings.ToUpper(key)
	for _, m := range d.partMarkers {
		if strings.HasPrefix(upper, m) && len(upper) > len(m) {
			return true
		}
	}
	return false
}

func (d dialect) stripMarker(key string) string {
	upper := strings.ToUpper(key)
	for _, m := range d.partMarkers {
		if strings.HasPrefix(upper, m) && len(upper) > len(m) {
			return key[len(m):]
		}
	}
	return key
}

func isSectionHeader(line string) bool {
	return len(line) > 2 && line[0] == '[' && line[len(line)-1] == ']'
}

func splitKeyValue(line string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

// normalizeKey upper-cases a key and drops separators so DOOR_HEIGHT, Door-Height and
// DoorHeight compare equal.
func normalizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ':
			return -1
		}
		return r
	}, strings.ToUpper(key))
}

func formatParameter(key, value string) string {
	return strings.ReplaceAll(key, "_", " ") + ": " + value
}

// formatPart renders a part entry. A quantity of 1 is implied; larger counts and
// non-numeric values are appended.
func formatPart(name, value string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	if value == "" || value == "1" {
		return name
	}
	if n, err := strconv.Atoi(value); err == nil {
		return fmt.Sprintf("%s x%d", name, n)
	}
	return fmt.Sprintf("%s (%s)", name, value)
}
