package inventory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vbonduro/stockgate/internal/domain"
	"github.com/vbonduro/stockgate/internal/flatfile"
	"github.com/vbonduro/stockgate/internal/photostore"
	"github.com/vbonduro/stockgate/internal/recordstore"
	"github.com/vbonduro/stockgate/internal/vision"
)

// ErrNoVision is returned by RestockFromPhoto when no vision backend is configured.
var ErrNoVision = errors.New("photo restock is not configured")

// quarantiner is implemented by file backends that can move a damaged file aside.
type quarantiner interface {
	Quarantine() (string, error)
}

// Totals summarises the whole inventory.
type Totals struct {
	Units int
	Value decimal.Decimal
}

// IntakeReport describes what a photo restock changed.
type IntakeReport struct {
	PhotoKey string
	Updated  []domain.Item
	Added    []domain.Item
	Skipped  []string
}

type Service struct {
	persist   recordstore.Persistence[domain.Item]
	items     *recordstore.Store[domain.Item]
	visionAPI vision.VisionAnalyzer
	photoStg  photostore.PhotoStore
	logger    *slog.Logger
}

// NewService builds the inventory on top of persist. visionAPI and photoStg may
// be nil, in which case photo restock is unavailable or photos are not archived.
func NewService(
	persist recordstore.Persistence[domain.Item],
	visionAPI vision.VisionAnalyzer,
	photoStg photostore.PhotoStore,
	logger *slog.Logger,
) *Service {
	return &Service{
		persist:   persist,
		items:     recordstore.New(persist, domain.ItemKey, recordstore.WithCaseInsensitiveKeys()),
		visionAPI: visionAPI,
		photoStg:  photoStg,
		logger:    logger,
	}
}

// Load reads the persisted inventory. A malformed file is moved aside and the
// inventory starts empty; any other failure is returned.
func (s *Service) Load(ctx context.Context) error {
	err := s.items.Load(ctx)
	if err == nil {
		s.logger.Info("inventory loaded", "items", s.items.Len())
		return nil
	}
	q, ok := s.persist.(quarantiner)
	if !errors.Is(err, flatfile.ErrMalformed) || !ok {
		return err
	}
	moved, qerr := q.Quarantine()
	if qerr != nil {
		return fmt.Errorf("%w (quarantine failed: %v)", err, qerr)
	}
	s.logger.Warn("inventory file malformed, starting empty", "error", err, "moved_to", moved)
	return nil
}

func (s *Service) Add(ctx context.Context, name string, quantity int, price decimal.Decimal) (domain.Item, error) {
	name = strings.TrimSpace(name)
	if err := validate(name, quantity, price); err != nil {
		return domain.Item{}, err
	}
	item := domain.Item{Name: name, Quantity: quantity, Price: price}
	if err := s.items.Add(ctx, item); err != nil {
		return domain.Item{}, fmt.Errorf("failed to add %q: %w", name, err)
	}
	s.logger.Info("item added", "name", name, "quantity", quantity, "price", price.String())
	return item, nil
}

func (s *Service) Remove(ctx context.Context, name string) error {
	if err := s.items.Remove(ctx, strings.TrimSpace(name)); err != nil {
		return fmt.Errorf("failed to remove %q: %w", name, err)
	}
	s.logger.Info("item removed", "name", name)
	return nil
}

// Update overwrites quantity and price of an existing item.
func (s *Service) Update(ctx context.Context, name string, quantity int, price decimal.Decimal) (domain.Item, error) {
	name = strings.TrimSpace(name)
	if err := validate(name, quantity, price); err != nil {
		return domain.Item{}, err
	}
	var updated domain.Item
	err := s.items.Update(ctx, name, func(i *domain.Item) error {
		i.Quantity = quantity
		i.Price = price
		updated = *i
		return nil
	})
	if err != nil {
		return domain.Item{}, fmt.Errorf("failed to update %q: %w", name, err)
	}
	s.logger.Info("item updated", "name", updated.Name, "quantity", quantity, "price", price.String())
	return updated, nil
}

// Purchase takes amount units out of stock. Asking for more than is in
// stock fails with domain.ErrInsufficientStock and changes nothing.
func (s *Service) Purchase(ctx context.Context, name string, amount int) (domain.Item, error) {
	if amount <= 0 {
		return domain.Item{}, fmt.Errorf("%w: %d", domain.ErrInvalidAmount, amount)
	}
	name = strings.TrimSpace(name)
	var updated domain.Item
	err := s.items.Update(ctx, name, func(i *domain.Item) error {
		if amount > i.Quantity {
			return domain.ErrInsufficientStock
		}
		i.Quantity -= amount
		updated = *i
		return nil
	})
	if err != nil {
		return domain.Item{}, fmt.Errorf("failed to purchase %q: %w", name, err)
	}
	s.logger.Info("item purchased", "name", updated.Name, "amount", amount, "remaining", updated.Quantity)
	return updated, nil
}

func (s *Service) Search(name string) (domain.Item, error) {
	item, ok := s.items.Get(strings.TrimSpace(name))
	if !ok {
		return domain.Item{}, fmt.Errorf("item %q: %w", name, domain.ErrNotFound)
	}
	return item, nil
}

func (s *Service) List() []domain.Item {
	return s.items.List()
}

func (s *Service) Totals() Totals {
	t := Totals{Value: decimal.Zero}
	for _, item := range s.items.List() {
		t.Units += item.Quantity
		t.Value = t.Value.Add(item.Value())
	}
	return t
}

// PhotoRestockEnabled reports whether RestockFromPhoto can run.
func (s *Service) PhotoRestockEnabled() bool {
	return s.visionAPI != nil
}

// RestockFromPhoto counts the items visible in a shelf photo. Known items get
// their quantity set to the count; unknown items are added with a zero price.
func (s *Service) RestockFromPhoto(ctx context.Context, imageData []byte, mimeType string) (*IntakeReport, error) {
	if s.visionAPI == nil {
		return nil, ErrNoVision
	}
	s.logger.Info("photo restock started", "mime_type", mimeType, "bytes", len(imageData))

	result, err := s.visionAPI.Analyze(ctx, bytes.NewReader(imageData), mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze image: %w", err)
	}
	s.logger.Info("vision analysis complete", "items_detected", len(result.Items))

	report := &IntakeReport{}
	if s.photoStg != nil {
		key, err := s.photoStg.Save(ctx, "intake", mimeType, bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("failed to save photo: %w", err)
		}
		report.PhotoKey = key
		s.logger.Debug("photo saved", "storage_key", key)
	}

	for _, detected := range result.Items {
		count := vision.Count(detected.Quantity)
		if _, ok := s.items.Get(detected.Name); ok {
			var updated domain.Item
			err := s.items.Update(ctx, detected.Name, func(i *domain.Item) error {
				i.Quantity = count
				updated = *i
				return nil
			})
			if err != nil {
				s.logger.Error("failed to restock item", "name", detected.Name, "error", err)
				report.Skipped = append(report.Skipped, detected.Name)
				continue
			}
			report.Updated = append(report.Updated, updated)
			continue
		}

		item, err := s.Add(ctx, detected.Name, count, decimal.Zero)
		if err != nil {
			s.logger.Error("failed to add detected item", "name", detected.Name, "error", err)
			report.Skipped = append(report.Skipped, detected.Name)
			continue
		}
		report.Added = append(report.Added, item)
	}

	s.logger.Info("photo restock complete",
		"updated", len(report.Updated), "added", len(report.Added), "skipped", len(report.Skipped))
	return report, nil
}

func validate(name string, quantity int, price decimal.Decimal) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is empty", domain.ErrInvalidItem)
	case strings.ContainsAny(name, "\r\n"):
		return fmt.Errorf("%w: name contains a line break", domain.ErrInvalidItem)
	case quantity < 0:
		return fmt.Errorf("%w: quantity %d is negative", domain.ErrInvalidItem, quantity)
	case price.IsNegative():
		return fmt.Errorf("%w: price %s is negative", domain.ErrInvalidItem, price.String())
	}
	return nil
}
