package iocli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdio is an IO over a reader and a writer, normally the process stdin
// and stdout.
type Stdio struct {
	in     *os.File
	reader *bufio.Reader
	out    io.Writer
}

// NewStdio returns an IO over os.Stdin and os.Stdout.
func NewStdio() *Stdio {
	return New(os.Stdin, os.Stdout)
}

// New returns an IO reading from in and writing to out.
func New(in *os.File, out io.Writer) *Stdio {
	return &Stdio{
		in:     in,
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (s *Stdio) Println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s *Stdio) ReadInput(prompt string) (string, error) {
	s.Printf("%s", prompt)
	input, err := s.reader.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// ReadPassword reads without echo from a terminal and falls back to a
// plain line read when input is piped.
func (s *Stdio) ReadPassword(prompt string) (string, error) {
	fd := int(s.in.Fd())
	if !term.IsTerminal(fd) {
		return s.ReadInput(prompt)
	}

	s.Printf("%s", prompt)
	pw, err := term.ReadPassword(fd)
	s.Println("")
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
