package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskerReadsLine(t *testing.T) {
	var out bytes.Buffer
	a := &Asker{In: strings.NewReader("  add a quit button \nignored\n"), Out: &out}

	text, err := a.Describe(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "add a quit button", text)
	assert.Contains(t, out.String(), "Describe the code change")
}

func TestAskerLastLineWithoutNewline(t *testing.T) {
	a := &Asker{In: strings.NewReader("make it red")}

	text, err := a.Describe(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "make it red", text)
}

func TestAskerEmptyInput(t *testing.T) {
	text, err := (&Asker{In: strings.NewReader("")}).Describe(context.Background())

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestAskerCancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := (&Asker{In: r}).Describe(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDiff(t *testing.T) {
	before := "print('hello')\nprint('a')\n"
	after := "print('hello')\nprint('b')\nprint('c')\n"

	d := Diff(before, after)

	assert.Equal(t, "  print('hello')\n- print('a')\n+ print('b')\n+ print('c')\n", d)
}

func TestDiffIdentical(t *testing.T) {
	assert.Equal(t, "  x = 1\n", Diff("x = 1\n", "x = 1\n"))
}

func TestHighlight(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Highlight(&buf, "prog_v1.py", "print('hi')\n"))
	assert.Contains(t, buf.String(), "print")

	buf.Reset()
	require.NoError(t, Highlight(&buf, "notes.unknown-ext", "plain words\n"))
	assert.Contains(t, buf.String(), "plain words")
}
