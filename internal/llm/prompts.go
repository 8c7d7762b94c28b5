package llm

import (
	_ "embed"
	"strings"
)

var (
	//go:embed prompts/system.txt
	systemPrompt string
	//go:embed prompts/extract_profile.txt
	extractPrompt string
)

// SystemPrompt fixes the parser role for the extraction request.
func SystemPrompt() string {
	return strings.TrimSpace(systemPrompt)
}

// ExtractPrompt returns the user message carrying the field list and resume text.
func ExtractPrompt(resumeText string) string {
	return strings.Replace(strings.TrimRight(extractPrompt, "\n"), "{{RESUME_TEXT}}", resumeText, 1)
}
