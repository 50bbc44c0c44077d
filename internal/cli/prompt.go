package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var errNoTerminal = errors.New("api key not configured and stdin is not a terminal")

// promptAPIKey reads the API key from the terminal without echo.
func promptAPIKey(fd int, w io.Writer) (string, error) {
	if !isTerminal(fd) {
		return "", errNoTerminal
	}
	if _, err := fmt.Fprint(w, "Dataverse API key: "); err != nil {
		return "", err
	}
	key, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(key)), nil
}
