package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"erpconsole/internal/logger"
)

// screenNav tracks which screen the console is on.
type screenNav struct {
	current string
}

func (n *screenNav) Navigate(path string) {
	log := logger.WithComponent("cli")
	log.Debug().Str("from", n.current).Str("to", path).Msg("navigate")
	n.current = path
}

func (n *screenNav) Current() string { return n.current }

// promptConfirmer asks on the console and accepts y or yes.
type promptConfirmer struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

func (c promptConfirmer) Confirm(prompt string) bool {
	if c.assumeYes {
		return true
	}
	fmt.Fprint(c.out, prompt+" [y/N] ")
	answer, err := readLine(c.in)
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
