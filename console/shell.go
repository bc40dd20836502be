package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"

	ap "github.com/panyam/authpage"
)

// Actions is the part of *ap.Reconciler the shell drives
type Actions interface {
	SignUp(ctx context.Context, email, password string) error
	SignUpConfirmed(ctx context.Context, email, password, confirm string) error
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	View() ap.View
}

var _ Actions = (*ap.Reconciler)(nil)

// ShellOption configures a Shell
type ShellOption func(*Shell)

// WithTerminal reads passwords without echo from fd when it is a terminal
func WithTerminal(fd int) ShellOption {
	return func(s *Shell) {
		s.fd = fd
		s.isTerminal = term.IsTerminal(fd)
	}
}

// WithPasswordReader replaces term.ReadPassword and marks the input as a
// terminal. Used by tests.
func WithPasswordReader(fn func(fd int) ([]byte, error)) ShellOption {
	return func(s *Shell) {
		s.readPassword = fn
		s.isTerminal = true
	}
}

// Shell is a read-eval-print loop over the auth page actions. Failures are
// reported by the renderer, so the loop ignores action errors.
type Shell struct {
	actions Actions
	in      *bufio.Reader
	out     io.Writer

	fd            int
	isTerminal    bool
	readPassword  func(fd int) ([]byte, error)
	showPasswords bool
}

func NewShell(actions Actions, in io.Reader, out io.Writer, opts ...ShellOption) *Shell {
	s := &Shell{
		actions:      actions,
		in:           bufio.NewReader(in),
		out:          out,
		readPassword: term.ReadPassword,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ShowPasswords reports whether password input is echoed
func (s *Shell) ShowPasswords() bool {
	return s.showPasswords
}

const helpText = `Commands:
  signup [email]     create an account
  register [email]   create an account, confirming the password
  login [email]      sign in with email and password
  logout             sign out
  show | hide        show or hide passwords while typing
  status             print the current page
  help               this list
  quit | exit        leave`

// Run reads commands until quit, end of input or ctx is done
func (s *Shell) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "authpage [%s]> ", s.actions.View().State)

		line, err := s.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				return nil
			}
			return err
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd, args := strings.ToLower(parts[0]), parts[1:]
		switch cmd {
		case "signup":
			s.signUp(ctx, args, false)
		case "register":
			s.signUp(ctx, args, true)
		case "login":
			s.login(ctx, args)
		case "logout":
			_ = s.actions.Logout(ctx)
		case "show":
			s.showPasswords = true
			fmt.Fprintln(s.out, "Passwords will be shown. Type 'hide' to hide them.")
		case "hide":
			s.showPasswords = false
			fmt.Fprintln(s.out, "Passwords will be hidden. Type 'show' to show them.")
		case "status":
			fmt.Fprint(s.out, FormatView(s.actions.View()))
		case "help", "?":
			fmt.Fprintln(s.out, helpText)
		case "quit", "exit":
			fmt.Fprintln(s.out, "Bye!")
			return nil
		default:
			fmt.Fprintf(s.out, "Unknown command: %s (try 'help')\n", cmd)
		}
	}
}

func (s *Shell) signUp(ctx context.Context, args []string, confirm bool) {
	email, err := s.emailArg(args)
	if err != nil {
		return
	}
	password, err := s.password("Password: ")
	if err != nil {
		return
	}
	if !confirm {
		_ = s.actions.SignUp(ctx, email, password)
		return
	}
	confirmation, err := s.password("Confirm password: ")
	if err != nil {
		return
	}
	_ = s.actions.SignUpConfirmed(ctx, email, password, confirmation)
}

func (s *Shell) login(ctx context.Context, args []string) {
	email, err := s.emailArg(args)
	if err != nil {
		return
	}
	password, err := s.password("Password: ")
	if err != nil {
		return
	}
	_ = s.actions.Login(ctx, email, password)
}

func (s *Shell) emailArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	fmt.Fprint(s.out, "Email: ")
	return s.readLine()
}

// password reads without echo on a terminal unless passwords are shown
func (s *Shell) password(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if s.isTerminal && !s.showPasswords {
		pw, err := s.readPassword(s.fd)
		fmt.Fprintln(s.out)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}
	return s.readLine()
}

// readLine returns a trimmed line; a final unterminated line is returned
// without error.
func (s *Shell) readLine() (string, error) {
	line, err := s.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
