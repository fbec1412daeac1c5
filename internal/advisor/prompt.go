package advisor

import (
	"fmt"
	"strings"

	"modbridge/internal/mapping"
)

// BuildSuggestionPrompt asks for a script-side replacement of a Java API
// that has no known mapping.
func BuildSuggestionPrompt(m mapping.APIMapping) string {
	var sb strings.Builder
	sb.WriteString("Role: Minecraft modding expert porting Java Edition mods to Bedrock Edition scripting.\n")
	sb.WriteString("Task: Suggest how to express the Java API below with the Bedrock Script API (@minecraft/server).\n")
	fmt.Fprintf(&sb, "\nJava signature: %s\n", m.JavaSignature)
	if m.BedrockEquivalent != "" {
		fmt.Fprintf(&sb, "Current mapping: %s (%s)\n", m.BedrockEquivalent, m.ConversionType)
	}
	if notes := strings.TrimSpace(m.Notes); notes != "" {
		fmt.Fprintf(&sb, "Notes: %s\n", notes)
	}
	sb.WriteString("\n**INSTRUCTION**:\n")
	sb.WriteString("1. Give the closest Bedrock call or a short JavaScript snippet.\n")
	sb.WriteString("2. State in one sentence what behavior cannot be reproduced, if any.\n")
	sb.WriteString("Answer in at most 10 lines of plain text.\n")
	return sb.String()
}

func cleanMarkdownOutput(text string) string {
	text = strings.TrimSpace(text)
	for _, fence := range []string{"```javascript", "```js", "```"} {
		if strings.HasPrefix(text, fence) {
			text = strings.TrimPrefix(text, fence)
			text = strings.TrimSuffix(text, "```")
			break
		}
	}
	return strings.TrimSpace(text)
}
