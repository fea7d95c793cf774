//go:build !espeak

package tts

const Available = false

func speak(text, lang string) error {
	return ErrUnavailable
}
