package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// terminalPasswordReader returns a no-echo password reader when in is a
// terminal, and nil otherwise.
func terminalPasswordReader(in io.Reader) func() ([]byte, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	fd := int(f.Fd())
	return func() ([]byte, error) { return term.ReadPassword(fd) }
}

// getText prints prompt to w and reads one trimmed line from reader. A
// partial line before EOF is returned.
func getText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// getPassword reads a password through readPassword, without echo. With no
// readPassword (piped input) it is read as the next line of reader.
func getPassword(reader *bufio.Reader, readPassword func() ([]byte, error), w io.Writer) (string, error) {
	if readPassword == nil {
		return getText(reader, "Password", w)
	}
	if _, err := fmt.Fprint(w, "Password: "); err != nil {
		return "", err
	}
	pw, err := readPassword()
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
