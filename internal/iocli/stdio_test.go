package iocli

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Проверяем что NewStdio возвращает валидный объект
func TestNewStdio(t *testing.T) {
	stdio := NewStdio()
	assert.NotNil(t, stdio)
}

// pipeStdio подменяет os.Stdin и os.Stdout на pipe
func pipeStdio(t *testing.T, input string) (*Stdio, *os.File) {
	t.Helper()

	inR, inW, err := os.Pipe()
	require.NoError(t, err)
	outR, outW, err := os.Pipe()
	require.NoError(t, err)

	go func() {
		_, _ = inW.Write([]byte(input))
		_ = inW.Close()
	}()

	oldStdin, oldStdout := os.Stdin, os.Stdout
	os.Stdin, os.Stdout = inR, outW
	t.Cleanup(func() {
		os.Stdin, os.Stdout = oldStdin, oldStdout
		_ = inR.Close()
		_ = outR.Close()
	})

	return NewStdio(), outW
}

func TestReadInput(t *testing.T) {
	stdio, out := pipeStdio(t, "  add 1 2  \nsync")
	defer func() { _ = out.Close() }()

	assert.False(t, stdio.Interactive(), "Pipe is not a terminal")

	line, err := stdio.ReadInput("> ")
	require.NoError(t, err)
	assert.Equal(t, "add 1 2", line)

	line, err = stdio.ReadInput("> ")
	require.NoError(t, err)
	assert.Equal(t, "sync", line, "Last line without newline is still read")

	_, err = stdio.ReadInput("> ")
	assert.ErrorIs(t, err, io.EOF)
}

func TestPrintlnAndPrintf(t *testing.T) {
	inR, inW, err := os.Pipe()
	require.NoError(t, err)
	defer func() { _ = inR.Close(); _ = inW.Close() }()
	outR, outW, err := os.Pipe()
	require.NoError(t, err)

	oldStdin, oldStdout := os.Stdin, os.Stdout
	os.Stdin, os.Stdout = inR, outW
	stdio := NewStdio()
	os.Stdin, os.Stdout = oldStdin, oldStdout

	stdio.Println("hello", "world")
	stdio.Printf("test %d %s\n", 1, "abc")
	_, err = stdio.Write([]byte("raw\n"))
	require.NoError(t, err)
	require.NoError(t, outW.Close())

	got, err := io.ReadAll(outR)
	require.NoError(t, err)
	assert.Equal(t, "hello world\ntest 1 abc\nraw\n", string(got))
}
