// Package parser detects cabinet file formats by extension and extracts a record.Record
// from their text content. Strategies never fail on readable-but-malformed text; they
// record issues and substitute placeholders instead.
package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kailas-cloud/moe/internal/domain/record"
)

// DefaultMaxBytes is the default upload size limit.
const DefaultMaxBytes = 5 << 20

type strategy func(fileName, content string) (record.Record, error)

// strategies maps lower-case extensions to their extraction strategy.
var strategies = map[string]strategy{
	".xml":  parseXML,
	".moz":  mozDialect.parse,
	".mzb":  mozDialect.parse,
	".dat":  datDialect.parse,
	".cab":  datDialect.parse,
	".cabx": datDialect.parse,
	".des":  desDialect.parse,
}

// SupportedExtensions returns the recognized extensions in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(strategies))
	for ext := range strategies {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Parser reads uploads and dispatches them to a format strategy.
type Parser struct {
	maxBytes int64
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxBytes sets the upload size limit. Non-positive values keep the default.
func WithMaxBytes(n int64) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxBytes = n
		}
	}
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads r fully and parses it according to the extension of name.
// On a PARSING_ERROR the returned record has FileType ERROR and the reason in Issues.
func (p *Parser) Parse(name string, r io.Reader) (record.Record, error) {
	parse, err := lookup(name)
	if err != nil {
		return record.Record{}, err
	}

	data, err := io.ReadAll(io.LimitReader(r, p.maxBytes+1))
	if err != nil {
		return failed(name, parsingError("Failed to read file", err))
	}
	if int64(len(data)) > p.maxBytes {
		return failed(name, &Error{
			Kind:    KindParsingError,
			Message: "File too large",
			Details: fmt.Sprintf("limit is %d bytes", p.maxBytes),
		})
	}

	return p.parse(name, data, parse)
}

// ParseBytes parses an in-memory upload.
func (p *Parser) ParseBytes(name string, data []byte) (record.Record, error) {
	parse, err := lookup(name)
	if err != nil {
		return record.Record{}, err
	}
	if int64(len(data)) > p.maxBytes {
		return failed(name, &Error{
			Kind:    KindParsingError,
			Message: "File too large",
			Details: fmt.Sprintf("limit is %d bytes", p.maxBytes),
		})
	}
	return p.parse(name, data, parse)
}

func (p *Parser) parse(name string, data []byte, parse strategy) (record.Record, error) {
	content, err := decodeText(data)
	if err != nil {
		return failed(name, parsingError("Failed to read file", err))
	}

	rec, err := parse(name, content)
	if err != nil {
		var perr *Error
		if !errors.As(err, &perr) {
			perr = parsingError("Failed to parse file", err)
		}
		return failed(name, perr)
	}
	rec.Metadata.ByteSize = len(data)
	return rec, nil
}

func lookup(name string) (strategy, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if parse, ok := strategies[ext]; ok {
		return parse, nil
	}
	shown := ext
	if shown == "" {
		shown = "(none)"
	}
	return nil, &Error{
		Kind:    KindUnsupportedFormat,
		Message: "Unsupported file format: " + shown,
		Details: "Supported formats: " + strings.Join(SupportedExtensions(), ", "),
	}
}

func failed(name string, err *Error) (record.Record, error) {
	reason := err.Message
	if err.Details != "" {
		reason += ": " + err.Details
	}
	return record.Failed(name, reason), err
}
