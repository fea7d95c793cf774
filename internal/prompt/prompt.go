package prompt

import (
	"path/filepath"
	"strings"

	"acg/internal/errs"
)

var languages = map[string]string{
	".py":   "Python",
	".go":   "Go",
	".sh":   "shell",
	".bash": "Bash",
	".js":   "JavaScript",
	".mjs":  "JavaScript",
	".ts":   "TypeScript",
	".rb":   "Ruby",
	".pl":   "Perl",
	".lua":  "Lua",
	".php":  "PHP",
	".r":    "R",
}

// Language names the programming language of filename, "source" if unknown.
func Language(filename string) string {
	if l, ok := languages[strings.ToLower(filepath.Ext(filename))]; ok {
		return l
	}
	return "source"
}

// Build frames the current source and the requested change as a single
// instruction asking for a complete replacement file. Both inputs appear
// verbatim in the result.
func Build(source, description, filename string) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", errs.Wrapf(errs.ErrInvalidRequest, "empty change description")
	}

	lang := Language(filename)

	var b strings.Builder
	b.WriteString("You are an expert " + lang + " developer. ")
	b.WriteString("A user provided the following code and wants it changed.\n\n")

	b.WriteString("--- ORIGINAL CODE ---\n")
	b.WriteString(source)
	if !strings.HasSuffix(source, "\n") {
		b.WriteString("\n")
	}

	b.WriteString("\n--- USER REQUEST ---\n")
	b.WriteString(description)
	b.WriteString("\n")

	b.WriteString("\n--- INSTRUCTIONS ---\n")
	b.WriteString("Rewrite the full " + lang + " file to reflect the request. ")
	b.WriteString("Preserve all existing behaviour that the request does not ask to change. ")
	b.WriteString("Keep any existing controls for requesting further changes. ")
	b.WriteString("Return the complete file as code only, with no markdown fences and no explanations.\n")

	return b.String(), nil
}
