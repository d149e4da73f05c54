package iocli

//go:generate moq -out io_mock.go . IO

// IO is the console of an interactive session
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	// ReadInput returns one trimmed line, io.EOF when input is exhausted
	ReadInput(prompt string) (string, error)
	Write(p []byte) (n int, err error)
}
