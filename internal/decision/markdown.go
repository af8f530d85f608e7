package decision

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders the gate result as a Markdown checklist.
func RenderMarkdown(result *DecisionResult) string {
	var sb strings.Builder

	sb.WriteString("## Recommendation Gate\n\n")
	sb.WriteString(fmt.Sprintf("**%s** for `%s`\n\n", result.Decision, result.Strategy))

	sb.WriteString("### GO criteria\n\n")
	for _, c := range result.GOCriteria {
		sb.WriteString(checklistLine(c.Pass, c))
	}
	sb.WriteString(fmt.Sprintf("\n%d/%d GO criteria passed\n\n", countPassed(result.GOCriteria), len(result.GOCriteria)))

	sb.WriteString("### NO-GO triggers\n\n")
	for _, c := range result.NOGOChecks {
		// checked = clear, unchecked = fired
		sb.WriteString(checklistLine(c.Pass, c))
	}
	fired := len(result.NOGOChecks) - countPassed(result.NOGOChecks)
	sb.WriteString(fmt.Sprintf("\n%d/%d NO-GO triggers fired\n", fired, len(result.NOGOChecks)))

	if result.Decision == DecisionNOGO {
		sb.WriteString("\nBlocking items:\n")
		for _, c := range result.GOCriteria {
			if !c.Pass {
				sb.WriteString(fmt.Sprintf("- %s: %s (need %s)\n", c.Name, c.Actual, c.Threshold))
			}
		}
		for _, c := range result.NOGOChecks {
			if !c.Pass {
				sb.WriteString(fmt.Sprintf("- %s: %s\n", c.Name, c.Actual))
			}
		}
	}

	return sb.String()
}

func checklistLine(checked bool, c CriterionResult) string {
	box := "[ ]"
	if checked {
		box = "[x]"
	}
	return fmt.Sprintf("- %s %s: %s (threshold %s)\n", box, c.Name, c.Actual, c.Threshold)
}

func countPassed(results []CriterionResult) int {
	n := 0
	for _, c := range results {
		if c.Pass {
			n++
		}
	}
	return n
}
