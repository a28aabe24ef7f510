package assistant

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/moe/internal/domain/chunk"
)

// Mission selects the assistant's behavioral directive.
type Mission string

// Known missions. Anything else behaves as MissionGeneral.
const (
	MissionGeneral         Mission = "general"
	MissionTroubleshooting Mission = "troubleshooting"
	MissionOptimization    Mission = "optimization"
	MissionTraining        Mission = "training"
)

const excerptRunes = 200

var directives = map[Mission]string{
	MissionGeneral: "You are in general woodworking assistance mode. " +
		"Help with any woodworking or Mozaik-related questions.",
	MissionTroubleshooting: "You are in troubleshooting mode. Focus on diagnosing and solving specific problems " +
		"with Mozaik files, CNC operations, or manufacturing issues.",
	MissionOptimization: "You are in optimization mode. Analyze designs and suggest improvements " +
		"for efficiency, cost reduction, or quality enhancement.",
	MissionTraining: "You are in training mode. Provide educational content and step-by-step guidance " +
		"for learning Mozaik software and woodworking techniques.",
}

const persona = `You are MOE (Master of Everything), a specialized AI assistant for woodworking and Mozaik CAD software.

%s

Key responsibilities:
- Analyze uploaded Mozaik files (.moz, .dat, .des) and provide specific guidance
- Troubleshoot CNC toolpath issues and machining problems
- Suggest optimizations for cabinet designs and manufacturing processes
- Provide context-aware responses based on uploaded file content

Always respond in a helpful, technical manner with specific actionable advice.
`

// Missions lists the known missions in display order.
func Missions() []Mission {
	return []Mission{MissionGeneral, MissionTroubleshooting, MissionOptimization, MissionTraining}
}

// Directive returns the mission directive, falling back to general for unknown tags.
func Directive(m Mission) string {
	if d, ok := directives[m]; ok {
		return d
	}
	return directives[MissionGeneral]
}

// SystemPrompt builds the persona, mission directive and retrieved file excerpts.
func SystemPrompt(m Mission, hits []chunk.SearchResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(persona, Directive(m)))
	if len(hits) == 0 {
		return b.String()
	}
	b.WriteString("\n\nRelevant file information:")
	for _, h := range hits {
		b.WriteString("\n- From ")
		b.WriteString(h.Metadata.FileName)
		b.WriteString(": ")
		b.WriteString(excerpt(h.Content))
		b.WriteString("...")
	}
	return b.String()
}

// excerpt cuts on a rune boundary so multi-byte text is never split.
func excerpt(s string) string {
	n := 0
	for i := range s {
		if n == excerptRunes {
			return s[:i]
		}
		n++
	}
	return s
}
