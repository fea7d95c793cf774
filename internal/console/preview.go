package console

import (
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Highlight writes src to w with terminal colours picked by filename.
func Highlight(w io.Writer, filename, src string) error {
	lang := "plaintext"
	if l := lexers.Match(filename); l != nil {
		lang = l.Config().Name
	}
	return quick.Highlight(w, src, lang, "terminal256", "monokai")
}

// Diff renders a line diff of two versions, prefixing removed lines with
// "- ", added lines with "+ " and unchanged ones with two spaces.
func Diff(before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				out.WriteString("\n")
			}
		}
	}
	return out.String()
}
