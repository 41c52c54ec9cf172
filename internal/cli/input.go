package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/term"
)

// readSecret and isTerminal are test seams for golang.org/x/term.
var (
	readSecret = term.ReadPassword
	isTerminal = term.IsTerminal
)

// Prompter writes prompts to w and reads answers line by line.
type Prompter struct {
	reader *bufio.Reader
	w      io.Writer
	fd     int
}

func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	fd := -1
	if f, ok := r.(*os.File); ok {
		fd = int(f.Fd())
	}
	return &Prompter{reader: bufio.NewReader(r), w: w, fd: fd}
}

// Text prints prompt and reads one trimmed line. If EOF occurs after some
// input was read, the partial line is returned.
func (p *Prompter) Text(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.w, prompt); err != nil {
		return "", err
	}
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *Prompter) Int(prompt string) (int, error) {
	s, err := p.Text(prompt)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", errBadInput, s)
	}
	return n, nil
}

func (p *Prompter) Decimal(prompt string) (decimal.Decimal, error) {
	s, err := p.Text(prompt)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", errBadInput, s)
	}
	return d, nil
}

// Secret reads a line without echo when input is a terminal, and as plain
// text otherwise.
func (p *Prompter) Secret(prompt string) (string, error) {
	if p.fd < 0 || !isTerminal(p.fd) {
		return p.Text(prompt)
	}
	if _, err := fmt.Fprint(p.w, prompt); err != nil {
		return "", err
	}
	b, err := readSecret(p.fd)
	fmt.Fprintln(p.w)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

var errBadInput = errors.New("invalid input")
