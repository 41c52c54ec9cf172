package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vbonduro/stockgate/internal/domain"
)

const (
	MsgGateOpen   = "Welcome! The gate is now open."
	MsgGateClosed = "Access denied! The gate is closed."
	MsgHappy      = "Welcome and please enjoy your stay with us. Keep your environment clean and have a friendly neighborhood!"
	MsgRules      = "Welcome! Please follow these friendly environment rules: Keep the area clean, Respect others, and Report any suspicious activity."
	MsgClosedNote = "Gate is closed."
)

const DefaultCloseDelay = 5 * time.Second

// denial reasons
const (
	ReasonUnknownUser   = "unknown user"
	ReasonWrongID       = "identifier mismatch"
	ReasonEntryDisabled = "entry closed for this session"
)

// Attempt is one request to pass the gate.
type Attempt struct {
	Category         domain.Category
	Username         string
	Identifier       string
	VisitingResident string
}

// Decision is the outcome of an Attempt. Messages are shown to the user in order.
type Decision struct {
	Granted    bool
	Registered bool
	Reason     string
	Messages   []string
}

type denialRecorder interface {
	Record(ctx context.Context, d Denial)
}

type GateOption func(*Gate)

// WithCloseDelay sets how long the gate stays open after a grant.
func WithCloseDelay(d time.Duration) GateOption {
	return func(g *Gate) { g.closeDelay = d }
}

// WithNotifier receives the gate-closed notice when the close timer fires.
func WithNotifier(fn func(msg string)) GateOption {
	return func(g *Gate) { g.notify = fn }
}

// Gate runs the entry checks for every category and drives the open/closed state.
type Gate struct {
	registry   *Registry
	denials    denialRecorder
	closeDelay time.Duration
	notify     func(string)
	logger     *slog.Logger

	// serializes the entry-closed check with the registration that sets it
	otherMu sync.Mutex

	mu          sync.Mutex
	open        bool
	timer       *time.Timer
	generation  uint64
	entryClosed bool
}

func NewGate(registry *Registry, denials denialRecorder, logger *slog.Logger, opts ...GateOption) *Gate {
	g := &Gate{
		registry:   registry,
		denials:    denials,
		closeDelay: DefaultCloseDelay,
		logger:     logger,
	}
	for _, o := range opts {
		o(g)
	}
	if g.notify == nil {
		g.notify = func(msg string) { logger.Info(msg) }
	}
	return g
}

// Enter checks an attempt against the registry. Refusals are ordinary
// decisions; an error means the attempt could not be evaluated or stored.
func (g *Gate) Enter(ctx context.Context, a Attempt) (Decision, error) {
	a = normalize(a)
	if !g.registry.Has(a.Category) {
		return Decision{}, fmt.Errorf("%w: %q", domain.ErrUnknownCategory, a.Category)
	}

	switch a.Category {
	case domain.CategoryResidents:
		return g.enterResident(ctx, a)
	case domain.CategoryVisitor:
		return g.enterVisitor(ctx, a)
	default:
		return g.enterOther(ctx, a)
	}
}

func (g *Gate) enterResident(ctx context.Context, a Attempt) (Decision, error) {
	stored, err := g.registry.IdentifierOf(a.Category, a.Username)
	if errors.Is(err, domain.ErrNotFound) {
		return g.deny(ctx, a, ReasonUnknownUser), nil
	}
	if err != nil {
		return Decision{}, err
	}
	if a.Identifier != stored {
		return g.deny(ctx, a, ReasonWrongID), nil
	}
	return g.grant(a, MsgGateOpen, MsgHappy), nil
}

func (g *Gate) enterVisitor(ctx context.Context, a Attempt) (Decision, error) {
	if a.Username == "" {
		return Decision{}, fmt.Errorf("%w: username is empty", domain.ErrInvalidUser)
	}
	exists, err := g.registry.Exists(a.Category, a.Username)
	if err != nil {
		return Decision{}, err
	}
	if !exists {
		rec := domain.UserRecord{Username: a.Username, Identifier: a.VisitingResident}
		if err := g.registry.Register(ctx, a.Category, rec); err != nil {
			return Decision{}, err
		}
	}
	return g.grant(a, MsgGateOpen, MsgRules+" You are visiting "+a.VisitingResident), nil
}

func (g *Gate) enterOther(ctx context.Context, a Attempt) (Decision, error) {
	g.otherMu.Lock()
	defer g.otherMu.Unlock()

	g.mu.Lock()
	closed := g.entryClosed
	g.mu.Unlock()
	if closed {
		return g.deny(ctx, a, ReasonEntryDisabled), nil
	}

	stored, err := g.registry.IdentifierOf(a.Category, a.Username)
	switch {
	case err == nil:
		if a.Identifier != stored {
			return g.deny(ctx, a, ReasonWrongID), nil
		}
		return g.grant(a, MsgGateOpen, MsgHappy), nil
	case !errors.Is(err, domain.ErrNotFound):
		return Decision{}, err
	}

	if a.Identifier == "" {
		return Decision{}, fmt.Errorf("register %q: %w", a.Username, domain.ErrIdentifierRequired)
	}
	if err := g.registry.Register(ctx, a.Category, domain.UserRecord{Username: a.Username, Identifier: a.Identifier}); err != nil {
		return Decision{}, err
	}

	// first registration closes entry for every other category until restart
	g.mu.Lock()
	g.entryClosed = true
	g.mu.Unlock()

	return Decision{
		Registered: true,
		Messages:   []string{fmt.Sprintf("Registered %s as %s.", a.Username, a.Category)},
	}, nil
}

// normalize trims fields the way the registry files store them, so a value
// typed with stray spaces still matches after a reload.
func normalize(a Attempt) Attempt {
	a.Username = strings.TrimSpace(a.Username)
	a.Identifier = strings.TrimSpace(a.Identifier)
	a.VisitingResident = strings.TrimSpace(a.VisitingResident)
	return a
}

func (g *Gate) grant(a Attempt, messages ...string) Decision {
	g.mu.Lock()
	g.open = true
	if g.timer != nil {
		g.timer.Stop()
	}
	g.generation++
	gen := g.generation
	g.timer = time.AfterFunc(g.closeDelay, func() { g.closeAfterDelay(gen) })
	g.mu.Unlock()

	g.logger.Info("access granted", "category", a.Category, "username", a.Username)
	return Decision{Granted: true, Messages: messages}
}

func (g *Gate) deny(ctx context.Context, a Attempt, reason string) Decision {
	g.logger.Info("access denied", "category", a.Category, "username", a.Username, "reason", reason)
	g.denials.Record(ctx, Denial{Category: a.Category, Username: a.Username, Reason: reason})
	return Decision{Reason: reason, Messages: []string{MsgGateClosed}}
}

// closeAfterDelay ignores timers superseded by a later grant or by Close.
func (g *Gate) closeAfterDelay(gen uint64) {
	g.mu.Lock()
	if gen != g.generation {
		g.mu.Unlock()
		return
	}
	g.open = false
	g.timer = nil
	g.mu.Unlock()
	g.notify(MsgClosedNote)
}

// IsOpen reports whether a grant is still within its close delay.
func (g *Gate) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// EntryClosed reports whether registration of a new user has closed entry
// for the other categories.
func (g *Gate) EntryClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.entryClosed
}

// Close shuts the gate and cancels a pending close notice.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.generation++
	g.open = false
}
