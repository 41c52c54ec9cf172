package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vbonduro/stockgate/internal/domain"
	"github.com/vbonduro/stockgate/internal/inventory"
)

// inventoryService is the subset of inventory.Service the menu requires.
type inventoryService interface {
	Add(ctx context.Context, name string, quantity int, price decimal.Decimal) (domain.Item, error)
	Remove(ctx context.Context, name string) error
	Update(ctx context.Context, name string, quantity int, price decimal.Decimal) (domain.Item, error)
	Purchase(ctx context.Context, name string, amount int) (domain.Item, error)
	Search(name string) (domain.Item, error)
	List() []domain.Item
	Totals() inventory.Totals
	PhotoRestockEnabled() bool
	RestockFromPhoto(ctx context.Context, imageData []byte, mimeType string) (*inventory.IntakeReport, error)
}

const rule = "=========================================="

// InventoryMenu is the numbered console menu of the stock tracker.
type InventoryMenu struct {
	svc inventoryService
	in  *Prompter
	out io.Writer
}

func NewInventoryMenu(svc inventoryService, in *Prompter, out io.Writer) *InventoryMenu {
	return &InventoryMenu{svc: svc, in: in, out: out}
}

// Run shows the menu until the user picks 0, input ends or ctx is cancelled.
// Failed operations are reported and the menu is shown again.
func (m *InventoryMenu) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		m.printMenu()
		choice, err := m.in.Text("Enter your choice: ")
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(m.out, "Exiting...")
			return nil
		}
		if err != nil {
			return err
		}

		var opErr error
		switch choice {
		case "1":
			opErr = m.add(ctx)
		case "2":
			opErr = m.remove(ctx)
		case "3":
			opErr = m.update(ctx)
		case "4":
			m.display()
		case "5":
			opErr = m.search()
		case "6":
			opErr = m.purchase(ctx)
		case "7":
			opErr = m.restock(ctx)
		case "0":
			fmt.Fprintln(m.out, "Exiting...")
			return nil
		default:
			fmt.Fprintln(m.out, "Invalid choice. Please enter a valid option.")
		}

		if errors.Is(opErr, io.EOF) {
			fmt.Fprintln(m.out, "Exiting...")
			return nil
		}
		if opErr != nil {
			fmt.Fprintln(m.out, diagnostic(opErr))
		}
	}
	return ctx.Err()
}

func (m *InventoryMenu) printMenu() {
	fmt.Fprintln(m.out, "======= Stock Management System =======")
	fmt.Fprintln(m.out, "1. Add Item")
	fmt.Fprintln(m.out, "2. Remove Item")
	fmt.Fprintln(m.out, "3. Update Item Quantity and Price")
	fmt.Fprintln(m.out, "4. Display Inventory")
	fmt.Fprintln(m.out, "5. Search for Item")
	fmt.Fprintln(m.out, "6. Purchase Item")
	if m.svc.PhotoRestockEnabled() {
		fmt.Fprintln(m.out, "7. Restock from Photo")
	}
	fmt.Fprintln(m.out, "0. Exit")
}

func (m *InventoryMenu) add(ctx context.Context) error {
	fmt.Fprintln(m.out, "======= Add Item =======")
	name, err := m.in.Text("Enter item name: ")
	if err != nil {
		return err
	}
	qty, err := m.in.Int("Enter item quantity: ")
	if err != nil {
		return err
	}
	price, err := m.in.Decimal("Enter item price: ")
	if err != nil {
		return err
	}
	if _, err := m.svc.Add(ctx, name, qty, price); err != nil {
		return err
	}
	fmt.Fprintln(m.out, "Item added successfully.")
	return nil
}

func (m *InventoryMenu) remove(ctx context.Context) error {
	fmt.Fprintln(m.out, "======= Remove Item =======")
	name, err := m.in.Text("Enter item name: ")
	if err != nil {
		return err
	}
	if err := m.svc.Remove(ctx, name); err != nil {
		return err
	}
	fmt.Fprintln(m.out, "Item removed successfully.")
	return nil
}

func (m *InventoryMenu) update(ctx context.Context) error {
	fmt.Fprintln(m.out, "======= Update Item Quantity and Price =======")
	name, err := m.in.Text("Enter item name: ")
	if err != nil {
		return err
	}
	qty, err := m.in.Int("Enter new quantity: ")
	if err != nil {
		return err
	}
	price, err := m.in.Decimal("Enter new price: ")
	if err != nil {
		return err
	}
	if _, err := m.svc.Update(ctx, name, qty, price); err != nil {
		return err
	}
	fmt.Fprintln(m.out, "Quantity and price updated successfully.")
	return nil
}

func (m *InventoryMenu) display() {
	fmt.Fprintln(m.out, "======= Inventory =======")
	fmt.Fprintln(m.out, rule)
	fmt.Fprintf(m.out, "%-20s %-10s %s\n", "Item", "Quantity", "Price")
	fmt.Fprintln(m.out, rule)
	for _, item := range m.svc.List() {
		fmt.Fprintf(m.out, "%-20s %-10d %s\n", item.Name, item.Quantity, item.Price.StringFixed(2))
	}
	fmt.Fprintln(m.out, rule)
	totals := m.svc.Totals()
	fmt.Fprintf(m.out, "Total Stocks: %d\n", totals.Units)
	fmt.Fprintf(m.out, "Total Price: %s\n", totals.Value.StringFixed(2))
}

func (m *InventoryMenu) search() error {
	fmt.Fprintln(m.out, "======= Search Item =======")
	name, err := m.in.Text("Enter item name: ")
	if err != nil {
		return err
	}
	item, err := m.svc.Search(name)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Found: %s\n", item)
	return nil
}

func (m *InventoryMenu) purchase(ctx context.Context) error {
	fmt.Fprintln(m.out, "======= Purchase Item =======")
	name, err := m.in.Text("Enter item name: ")
	if err != nil {
		return err
	}
	amount, err := m.in.Int("Enter quantity to purchase: ")
	if err != nil {
		return err
	}
	if _, err := m.svc.Purchase(ctx, name, amount); err != nil {
		return err
	}
	fmt.Fprintln(m.out, "Purchase successful.")
	return nil
}

func (m *InventoryMenu) restock(ctx context.Context) error {
	if !m.svc.PhotoRestockEnabled() {
		fmt.Fprintln(m.out, "Invalid choice. Please enter a valid option.")
		return nil
	}
	fmt.Fprintln(m.out, "======= Restock from Photo =======")
	path, err := m.in.Text("Enter photo path: ")
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read photo: %w", err)
	}
	report, err := m.svc.RestockFromPhoto(ctx, data, http.DetectContentType(data))
	if err != nil {
		return err
	}
	for _, item := range report.Updated {
		fmt.Fprintf(m.out, "Updated: %s\n", item)
	}
	for _, item := range report.Added {
		fmt.Fprintf(m.out, "Added: %s\n", item)
	}
	if len(report.Skipped) > 0 {
		fmt.Fprintf(m.out, "Skipped: %s\n", strings.Join(report.Skipped, ", "))
	}
	fmt.Fprintf(m.out, "Restock complete: %d updated, %d added.\n", len(report.Updated), len(report.Added))
	return nil
}

// diagnostic turns an operation error into the line shown to the user.
func diagnostic(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "Item not found."
	case errors.Is(err, domain.ErrInsufficientStock):
		return "Insufficient quantity in stock."
	case errors.Is(err, domain.ErrDuplicate):
		return "Item already exists."
	case errors.Is(err, domain.ErrInvalidAmount):
		return "Quantity to purchase must be at least 1."
	default:
		return "Error: " + err.Error()
	}
}
