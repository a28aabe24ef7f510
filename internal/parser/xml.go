package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kailas-cloud/moe/internal/domain/record"
)

// Tag alias sets, matched case-insensitively against element local names.
var (
	versionTags    = []string{"version"}
	typeTags       = []string{"type", "cabinetType", "cabinet-type"}
	parameterTags  = []string{"parameter", "param", "dimension", "size"}
	partTags       = []string{"part", "component", "element"}
	constraintTags = []string{"constraint", "rule", "limitation"}
)

type xmlNode struct {
	name     string
	attrs    map[string]string
	text     strings.Builder
	children []*xmlNode
}

func (n *xmlNode) attr(name string) string {
	return strings.TrimSpace(n.attrs[name])
}

// textContent concatenates the character data of n and all descendants.
func (n *xmlNode) textContent() string {
	var b strings.Builder
	n.writeText(&b)
	return strings.TrimSpace(b.String())
}

func (n *xmlNode) writeText(b *strings.Builder) {
	b.WriteString(n.text.String())
	for _, c := range n.children {
		c.writeText(b)
	}
}

func (n *xmlNode) isEmptyLeaf() bool {
	return len(n.children) == 0 && len(n.attrs) == 0 && strings.TrimSpace(n.text.String()) == ""
}

func (n *xmlNode) is(aliases []string) bool {
	for _, a := range aliases {
		if strings.EqualFold(n.name, a) {
			return true
		}
	}
	return false
}

// xmlDocument is the flattened element list in document order.
type xmlDocument struct {
	elements []*xmlNode
}

func buildXMLDocument(content string) (*xmlDocument, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	dec.Strict = true
	// Content is already UTF-8; ignore whatever the declaration claims.
	dec.CharsetReader = func(_ string, in io.Reader) (io.Reader, error) { return in, nil }

	doc := &xmlDocument{}
	var stack []*xmlNode
	var root *xmlNode

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{name: t.Name.Local, attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				n.attrs[a.Name.Local] = a.Value
			}
			switch {
			case len(stack) > 0:
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			case root == nil:
				root = n
			default:
				return nil, fmt.Errorf("line %d: multiple root elements", lineOf(dec))
			}
			stack = append(stack, n)
			doc.elements = append(doc.elements, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if root == nil {
		return nil, errors.New("no root element")
	}
	return doc, nil
}

func lineOf(dec *xml.Decoder) int {
	line, _ := dec.InputPos()
	return line
}

func (d *xmlDocument) first(aliases []string) *xmlNode {
	for _, n := range d.elements {
		if n.is(aliases) {
			return n
		}
	}
	return nil
}

func (d *xmlDocument) all(aliases []string) []*xmlNode {
	var out []*xmlNode
	for _, n := range d.elements {
		if n.is(aliases) {
			out = append(out, n)
		}
	}
	return out
}

func parseXML(fileName, content string) (record.Record, error) {
	doc, err := buildXMLDocument(content)
	if err != nil {
		return record.Record{}, parsingError("Invalid XML format", err)
	}

	rec := record.Record{
		FileName:    fileName,
		FileType:    record.TypeXML,
		Version:     "Unknown",
		CabinetType: "Unknown Cabinet",
		Parameters:  xmlParameters(doc),
		Parts:       xmlParts(doc),
		Constraints: xmlConstraints(doc),
		Metadata: record.Metadata{
			LineCount:    strings.Count(content, "\n") + 1,
			ElementCount: len(doc.elements),
		},
	}
	if n := doc.first(versionTags); n != nil {
		if v := n.textContent(); v != "" {
			rec.Version = v
		}
	}
	if n := doc.first(typeTags); n != nil {
		if v := n.textContent(); v != "" {
			rec.CabinetType = v
		}
	}

	rec.Issues, rec.Metadata.EmptyElementCount = xmlIssues(doc, content)
	return rec, nil
}

func xmlParameters(doc *xmlDocument) []string {
	params := []string{}
	for _, n := range doc.all(parameterTags) {
		name := n.attr("name")
		if name == "" {
			name = n.name
		}
		value := n.textContent()
		if value == "" {
			value = n.attr("value")
		}
		if value == "" {
			continue
		}
		params = append(params, fmt.Sprintf("%s: %s%s", name, value, n.attr("unit")))
	}
	return params
}

func xmlParts(doc *xmlDocument) []string {
	parts := []string{}
	for _, n := range doc.all(partTags) {
		name := n.attr("name")
		if name == "" {
			name = n.textContent()
		}
		if name == "" {
			name = "Unnamed Part"
		}
		if typ := n.attr("type"); typ != "" {
			name = fmt.Sprintf("%s (%s)", name, typ)
		}
		parts = append(parts, name)
	}
	return parts
}

func xmlConstraints(doc *xmlDocument) []string {
	constraints := []string{}
	for _, n := range doc.all(constraintTags) {
		c := n.textContent()
		if c == "" {
			c = n.attr("description")
		}
		if c != "" {
			constraints = append(constraints, c)
		}
	}
	return constraints
}

func xmlIssues(doc *xmlDocument, content string) ([]string, int) {
	issues := []string{}
	if doc.first(parameterTags) == nil {
		issues = append(issues, "No parameters or dimensions found")
	}
	issues = append(issues, missingDimensionIssues(xmlParameters(doc))...)

	empty := 0
	for _, n := range doc.elements {
		if n.isEmptyLeaf() {
			empty++
		}
	}
	if empty > 0 {
		issues = append(issues, fmt.Sprintf("%d empty elements detected", empty))
	}

	if strings.Contains(content, "NaN") || strings.Contains(content, "undefined") {
		issues = append(issues, "Invalid numeric values detected")
	}
	return issues, empty
}
