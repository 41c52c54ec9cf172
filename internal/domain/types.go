package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Item is a single inventory line. Name is the key and is matched
// case-insensitively.
type Item struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// Value is the stock value of the item (quantity * unit price).
func (i Item) Value() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i Item) String() string {
	return fmt.Sprintf("Name: %s, Quantity: %d, Price: %s", i.Name, i.Quantity, i.Price.StringFixed(2))
}

// ItemKey is the record key of an Item.
func ItemKey(i Item) string { return i.Name }

// UserRecord is a registered user of one access category. For visitors
// Identifier holds the name of the resident being visited.
type UserRecord struct {
	Username   string
	Identifier string
}

// UserKey is the record key of a UserRecord.
func UserKey(u UserRecord) string { return u.Username }

type Category string

const (
	CategoryResidents Category = "residents"
	CategoryVisitor   Category = "visitor"
)

// DefaultCategories lists every category the gate knows about, in display order.
var DefaultCategories = []Category{
	CategoryResidents,
	"salesman",
	"milkman",
	"newspaperman",
	"fruitseller",
	"junkseller",
	CategoryVisitor,
}
