package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
)

const question = "Describe the code change"

// Asker reads a typed change description. With In set it reads one line
// from it; otherwise it shows an interactive terminal prompt.
type Asker struct {
	In  io.Reader
	Out io.Writer
}

func (a *Asker) Describe(ctx context.Context) (string, error) {
	if a.In == nil {
		text, err := pterm.DefaultInteractiveTextInput.Show(question)
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return strings.TrimSpace(text), nil
	}

	if a.Out != nil {
		fmt.Fprint(a.Out, pterm.LightBlue(question+": "))
	}

	lines := make(chan string, 1)
	errc := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(a.In).ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			if err == io.EOF {
				lines <- ""
				return
			}
			errc <- err
			return
		}
		lines <- line
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-errc:
		return "", fmt.Errorf("read input: %w", err)
	case line := <-lines:
		return strings.TrimSpace(line), nil
	}
}

// Spinner shows progress for a step of unknown length.
type Spinner struct {
	sp *pterm.SpinnerPrinter
}

func StartSpinner(text string) *Spinner {
	sp, err := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).Start(text)
	if err != nil {
		return &Spinner{}
	}
	return &Spinner{sp: sp}
}

func (s *Spinner) Done(text string) {
	if s.sp != nil {
		s.sp.Success(text)
	}
}

func (s *Spinner) Fail(text string) {
	if s.sp != nil {
		s.sp.Fail(text)
	}
}
