package iocli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	gosync "sync"

	"golang.org/x/term"
)

// Stdio reads commands from stdin and prints to stdout.
// Prompts are shown only when stdin is a terminal.
type Stdio struct {
	out         io.Writer
	in          *bufio.Reader
	mu          gosync.Mutex
	interactive bool
}

func NewStdio() *Stdio {
	return &Stdio{
		out:         os.Stdout,
		in:          bufio.NewReader(os.Stdin),
		interactive: IsTerminal(os.Stdin),
	}
}

// IsTerminal сообщает, подключен ли файл к терминалу
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Interactive reports whether prompts are printed
func (s *Stdio) Interactive() bool {
	return s.interactive
}

func (s *Stdio) Println(a ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Write(p)
}

func (s *Stdio) ReadInput(prompt string) (string, error) {
	if s.interactive {
		s.Printf("%s", prompt)
	}
	input, err := s.in.ReadString('\n')
	if err != nil {
		// последняя строка без перевода строки тоже команда
		if err == io.EOF && input != "" {
			return strings.TrimSpace(input), nil
		}
		return "", err
	}
	return strings.TrimSpace(input), nil
}
