package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/vbonduro/stockgate/internal/access"
	"github.com/vbonduro/stockgate/internal/domain"
)

type gateService interface {
	Enter(ctx context.Context, a access.Attempt) (access.Decision, error)
}

type userDirectory interface {
	Categories() []domain.Category
	Usernames(c domain.Category) ([]string, error)
}

// GatePanel is the console front end of the gate.
type GatePanel struct {
	gate  gateService
	users userDirectory
	in    *Prompter
	out   io.Writer
}

func NewGatePanel(gate gateService, users userDirectory, in *Prompter, out io.Writer) *GatePanel {
	return &GatePanel{gate: gate, users: users, in: in, out: out}
}

// Run asks for entry attempts until the user picks 0, input ends or ctx is cancelled.
func (p *GatePanel) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		err := p.attempt(ctx)
		switch {
		case errors.Is(err, errExit), errors.Is(err, io.EOF):
			fmt.Fprintln(p.out, "Exiting...")
			return nil
		case err != nil:
			fmt.Fprintln(p.out, gateDiagnostic(err))
		}
	}
	return ctx.Err()
}

var errExit = errors.New("exit")

func (p *GatePanel) attempt(ctx context.Context) error {
	categories := p.users.Categories()
	fmt.Fprintln(p.out, "======= Gate =======")
	for i, c := range categories {
		fmt.Fprintf(p.out, "%d. %s\n", i+1, c)
	}
	fmt.Fprintln(p.out, "0. Exit")

	category, err := p.choose("Select user type: ", categories)
	if err != nil {
		return err
	}

	username, err := p.in.Text("Enter username: ")
	if err != nil {
		return err
	}

	a := access.Attempt{Category: category, Username: username}
	if category == domain.CategoryVisitor {
		a.VisitingResident, err = p.chooseResident()
	} else {
		a.Identifier, err = p.in.Secret("Enter identifier: ")
	}
	if err != nil {
		return err
	}

	d, err := p.gate.Enter(ctx, a)
	if err != nil {
		return err
	}
	for _, msg := range d.Messages {
		fmt.Fprintln(p.out, msg)
	}
	return nil
}

func (p *GatePanel) choose(prompt string, categories []domain.Category) (domain.Category, error) {
	s, err := p.in.Text(prompt)
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > len(categories) {
		return "", fmt.Errorf("%w: %q", errBadInput, s)
	}
	if n == 0 {
		return "", errExit
	}
	return categories[n-1], nil
}

// chooseResident lists the residents and returns the chosen name. With no
// residents on file the visit is recorded without one.
func (p *GatePanel) chooseResident() (string, error) {
	residents, err := p.users.Usernames(domain.CategoryResidents)
	if err != nil {
		return "", err
	}
	if len(residents) == 0 {
		return "", nil
	}
	fmt.Fprintln(p.out, "Select Resident:")
	for i, r := range residents {
		fmt.Fprintf(p.out, "%d. %s\n", i+1, r)
	}
	s, err := p.in.Text("Visit resident: ")
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > len(residents) {
		return "", fmt.Errorf("%w: %q", errBadInput, s)
	}
	return residents[n-1], nil
}

func gateDiagnostic(err error) string {
	switch {
	case errors.Is(err, errBadInput):
		return "Invalid choice. Please enter a valid option."
	case errors.Is(err, domain.ErrIdentifierRequired):
		return "An identifier is required to register."
	case errors.Is(err, domain.ErrInvalidUser):
		return "Please enter a username."
	default:
		return "Error: " + err.Error()
	}
}
