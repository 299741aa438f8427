package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"golang.org/x/term"

	"github.com/Dhanuzh/starbott/internal/apierr"
)

// OpenBrowser opens the given URL in the user's default browser.
func OpenBrowser(url string) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("xdg-open", url).Start()
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
}

// IsCI reports whether CI=1 or CI=true is set.
func IsCI() bool {
	v := strings.TrimSpace(os.Getenv("CI"))
	return v == "1" || strings.EqualFold(v, "true")
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ReadHiddenInput prompts on out and reads a line without echo when stdin is
// a terminal. Piped input is read as a plain line.
func ReadHiddenInput(prompt string, in *os.File, out io.Writer) (string, error) {
	fmt.Fprint(out, prompt)
	if IsTerminal(in) {
		b, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", apierr.Wrap(apierr.KindGeneric, err, "Failed reading token: %v", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", apierr.Wrap(apierr.KindGeneric, err, "Failed reading token: %v", err)
	}
	return strings.TrimSpace(line), nil
}

// SetTokens stores credentials on a profile and saves. An empty refresh token
// leaves the stored one untouched.
func (s *Store) SetTokens(name, access, refresh string) error {
	access = strings.TrimSpace(access)
	if access == "" {
		return apierr.Usage("Token cannot be empty.")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.cfg.ensure(normalizeName(name))
	p.Token = access
	if r := strings.TrimSpace(refresh); r != "" {
		p.RefreshToken = r
	}
	return s.saveLocked()
}

// ClearTokens removes both tokens from a profile and saves.
func (s *Store) ClearTokens(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.cfg.ensure(normalizeName(name))
	p.Token = ""
	p.RefreshToken = ""
	return s.saveLocked()
}
