// Package record holds the structured result of parsing one uploaded cabinet file.
package record

// FileType is the format a record was parsed from.
type FileType string

const (
	// TypeXML is a markup cabinet description.
	TypeXML FileType = "XML"
	// TypeMOZ is a sectioned key=value Mozaik export (.moz, .mzb).
	TypeMOZ FileType = "MOZ"
	// TypeDAT is a flat key=value cabinet file (.dat, .cab, .cabx).
	TypeDAT FileType = "DAT"
	// TypeDES is a flat key=value design file (.des).
	TypeDES FileType = "DES"
	// TypeError marks a record produced by a failed parse.
	TypeError FileType = "ERROR"
)

// Metadata carries parser diagnostics. Known counters are typed fields;
// anything format-specific goes into Extra.
type Metadata struct {
	ByteSize          int            `json:"byte_size"`
	LineCount         int            `json:"line_count,omitempty"`
	SectionCount      int            `json:"section_count,omitempty"`
	ElementCount      int            `json:"element_count,omitempty"`
	EmptyElementCount int            `json:"empty_element_count,omitempty"`
	Extra             map[string]any `json:"extra,omitempty"`
}

// Record is built once per upload and never merged across files.
type Record struct {
	FileName    string   `json:"file_name"`
	FileType    FileType `json:"file_type"`
	Version     string   `json:"version,omitempty"`
	CabinetType string   `json:"cabinet_type,omitempty"`
	// Parameters are "NAME: VALUE[UNIT]" tokens in source order.
	Parameters  []string `json:"parameters"`
	Parts       []string `json:"parts"`
	Constraints []string `json:"constraints"`
	// Issues are structural problems found by the parser, not by validation.
	Issues   []string `json:"issues"`
	Metadata Metadata `json:"metadata"`
}

// Failed builds the record returned alongside a parse failure so callers still have
// something to render.
func Failed(fileName, reason string) Record {
	return Record{
		FileName:    fileName,
		FileType:    TypeError,
		Parameters:  []string{},
		Parts:       []string{},
		Constraints: []string{},
		Issues:      []string{reason},
	}
}

// HasIssues reports whether the parser flagged any structural problem.
func (r *Record) HasIssues() bool { return len(r.Issues) > 0 }
