package parser

import "strings"

// missingDimensionIssues flags absent width or height among parameter strings.
func missingDimensionIssues(params []string) []string {
	var issues []string
	if !anyContains(params, "width") {
		issues = append(issues, "Missing width specification")
	}
	if !anyContains(params, "height") {
		issues = append(issues, "Missing height specification")
	}
	return issues
}

func anyContains(values []string, needle string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

// isDimensionKey reports whether a normalized key names a width, height or depth.
func isDimensionKey(norm string) bool {
	return strings.Contains(norm, "WIDTH") || strings.Contains(norm, "HEIGHT") || strings.Contains(norm, "DEPTH")
}
