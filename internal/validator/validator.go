// Package validator scores a parsed record for completeness and dimensional plausibility.
// Validation is pure: issues and warnings are values, never errors.
package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/moe/internal/domain/record"
)

// Score deductions.
const (
	maxScore = 100

	penaltyNoParameters  = 30
	penaltyMissingWidth  = 20
	penaltyMissingHeight = 20
	penaltyMissingDepth  = 10
	penaltyNoVersion     = 5
	penaltyNoParts       = 10
	penaltyDimensionErr  = 10
	penaltyDimensionWarn = 5

	// Dimensions are assumed to be inches.
	maxPlausibleDimension = 120
	minPlausibleDimension = 1
	maxAspectRatio        = 5
	minAspectRatio        = 0.2
)

var numberRegex = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// Result is the outcome of validating one record.
type Result struct {
	// Valid is true iff Issues is empty. Parser-level issues are not considered.
	Valid    bool     `json:"is_valid"`
	Issues   []string `json:"issues"`
	Warnings []string `json:"warnings"`
	Score    int      `json:"score"`
}

// Validate checks structural completeness and dimension plausibility of rec.
func Validate(rec *record.Record) Result {
	res := Result{Issues: []string{}, Warnings: []string{}}
	score := maxScore

	if len(rec.Parameters) == 0 {
		res.Issues = append(res.Issues, "No parameters defined")
		score -= penaltyNoParameters
	}

	if !anyParameterContains(rec.Parameters, "width", "w:") {
		res.Issues = append(res.Issues, "Missing width specification")
		score -= penaltyMissingWidth
	}
	if !anyParameterContains(rec.Parameters, "height", "h:") {
		res.Issues = append(res.Issues, "Missing height specification")
		score -= penaltyMissingHeight
	}
	if !anyParameterContains(rec.Parameters, "depth", "d:") {
		res.Warnings = append(res.Warnings, "Missing depth specification")
		score -= penaltyMissingDepth
	}

	if rec.Version == "" || rec.Version == "Unknown" {
		res.Warnings = append(res.Warnings, "No version information available")
		score -= penaltyNoVersion
	}

	if len(rec.Parts) == 0 {
		res.Warnings = append(res.Warnings, "No parts defined - may be an assembly file")
		score -= penaltyNoParts
	}

	errs, warns := checkDimensions(rec.Parameters)
	res.Issues = append(res.Issues, errs...)
	res.Warnings = append(res.Warnings, warns...)
	score -= len(errs) * penaltyDimensionErr
	score -= len(warns) * penaltyDimensionWarn

	res.Score = max(score, 0)
	res.Valid = len(res.Issues) == 0
	return res
}

func anyParameterContains(params []string, needles ...string) bool {
	for _, p := range params {
		lower := strings.ToLower(p)
		for _, n := range needles {
			if strings.Contains(lower, n) {
				return true
			}
		}
	}
	return false
}

type dimension struct {
	name  string
	value float64
	set   bool
}

// checkDimensions extracts the first number of each width/height/depth parameter
// (last occurrence wins) and checks it for plausibility.
func checkDimensions(params []string) (errs, warns []string) {
	width := dimension{name: "width"}
	height := dimension{name: "height"}
	depth := dimension{name: "depth"}

	for _, p := range params {
		match := numberRegex.FindString(p)
		if match == "" {
			continue
		}
		v, err := strconv.ParseFloat(match, 64)
		if err != nil {
			continue
		}
		lower := strings.ToLower(p)
		switch {
		case strings.Contains(lower, "width"):
			width.value, width.set = v, true
		case strings.Contains(lower, "height"):
			height.value, height.set = v, true
		case strings.Contains(lower, "depth"):
			depth.value, depth.set = v, true
		}
	}

	for _, d := range []dimension{width, height, depth} {
		if !d.set {
			continue
		}
		v := formatNumber(d.value)
		switch {
		case d.value <= 0:
			errs = append(errs, fmt.Sprintf("Invalid %s: %s (must be positive)", d.name, v))
		case d.value > maxPlausibleDimension:
			warns = append(warns, fmt.Sprintf("Unusually large %s: %s\" (over 10 feet)", d.name, v))
		case d.value < minPlausibleDimension:
			warns = append(warns, fmt.Sprintf("Very small %s: %s\" (less than 1 inch)", d.name, v))
		}
	}

	// A non-positive side is already an error; its ratio adds nothing.
	if width.value > 0 && height.value > 0 {
		ratio := width.value / height.value
		if ratio > maxAspectRatio || ratio < minAspectRatio {
			warns = append(warns, fmt.Sprintf("Unusual width/height ratio: %.2f", ratio))
		}
	}
	return errs, warns
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
