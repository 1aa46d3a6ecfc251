package iocli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdio implements IO over the process terminal.
// ReadPassword disables echo, so secrets never land in shell history
// or scrollback.
type Stdio struct {
	in *bufio.Reader
}

func NewStdio() *Stdio {
	return &Stdio{in: bufio.NewReader(os.Stdin)}
}

func (s *Stdio) Println(a ...any) {
	fmt.Println(a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	fmt.Printf(format, a...)
}

func (s *Stdio) ReadInput(prompt string) (string, error) {
	s.Printf("%s", prompt)
	input, err := s.in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func (s *Stdio) ReadPassword(prompt string) (string, error) {
	s.Printf("%s", prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	s.Println("")
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
