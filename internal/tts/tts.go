// Package tts reads short status lines aloud. Speech needs libespeak-ng and
// a build with the espeak tag; other builds report ErrUnavailable.
package tts

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var ErrUnavailable = errors.New("speech output not built in (build with -tags espeak)")

const DefaultLanguage = "en"

// Speak says text and blocks until playback ends. Empty text is a no-op.
func Speak(text, lang string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if lang == "" || lang == "auto" {
		lang = DefaultLanguage
	}
	return speak(text, lang)
}

// Outcome phrases the result of a change request for reading aloud.
func Outcome(path string, kind string) string {
	name := filepath.Base(path)
	switch {
	case kind == "" && path != "":
		return fmt.Sprintf("Launched %s", spoken(name))
	case kind == "spawn" && path != "":
		return fmt.Sprintf("Wrote %s but could not start it", spoken(name))
	case kind == "":
		return "Done"
	default:
		return fmt.Sprintf("Change failed: %s", strings.ReplaceAll(kind, "_", " "))
	}
}

// spoken turns prog_v12.py into "prog version 12".
func spoken(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if i := strings.LastIndex(name, "_v"); i > 0 {
		name = name[:i] + " version " + name[i+2:]
	}
	return strings.ReplaceAll(name, "_", " ")
}
