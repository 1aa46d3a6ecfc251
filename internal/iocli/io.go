// Package iocli abstracts terminal interaction for the admin CLI, so that
// commands prompting for passwords can be driven by scripted input in tests.
package iocli

// IO is the terminal surface a CLI command talks to
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
}
