package prompt

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"

	"acg/internal/errs"
)

// Check rejects source that does not parse, for languages with a parser in
// reach. Other languages pass unchecked.
func Check(filename, source string) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".go":
		if _, err := parser.ParseFile(token.NewFileSet(), filename, source, parser.AllErrors); err != nil {
			return errs.Wrapf(errs.ErrInvalidRequest, "%s does not parse: %w", filename, err)
		}
	}
	return nil
}
