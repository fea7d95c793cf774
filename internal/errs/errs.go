package errs

import (
	"context"
	"errors"
	"fmt"
)

// Each class is terminal for a single change request.
var (
	ErrConfiguration  = errors.New("configuration error")
	ErrInvalidRequest = errors.New("invalid request")
	ErrService        = errors.New("generation service error")
	ErrAudio          = errors.New("audio capture error")
	ErrTranscription  = errors.New("transcription error")
	ErrFileSystem     = errors.New("file system error")
	ErrSpawn          = errors.New("spawn error")
	ErrTimeout        = errors.New("timeout")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrTimeout, "timeout"},
	{ErrConfiguration, "configuration"},
	{ErrInvalidRequest, "invalid_request"},
	{ErrService, "service"},
	{ErrAudio, "audio"},
	{ErrTranscription, "transcription"},
	{ErrFileSystem, "filesystem"},
	{ErrSpawn, "spawn"},
}

// Wrap tags err with class. An exceeded deadline is reported as ErrTimeout
// regardless of the class asked for.
func Wrap(class, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
		class = ErrTimeout
	}
	if errors.Is(err, class) {
		return err
	}
	return fmt.Errorf("%w: %w", class, err)
}

// Wrapf is Wrap with a formatted message in place of an underlying error.
func Wrapf(class error, format string, args ...any) error {
	return Wrap(class, fmt.Errorf(format, args...))
}

// Kind names the class of err, or "" when err carries none.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return ""
}

// Classified reports whether err already carries a class.
func Classified(err error) bool {
	return Kind(err) != ""
}

type remote struct {
	class error
	msg   string
}

func (r *remote) Error() string { return r.msg }
func (r *remote) Unwrap() error { return r.class }

// Remote rebuilds an error reported by another process from its kind name
// and message. An unknown kind yields a plain error.
func Remote(kind, msg string) error {
	for _, k := range kinds {
		if k.name == kind {
			return &remote{class: k.err, msg: msg}
		}
	}
	return errors.New(msg)
}
