package flatfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vbonduro/stockgate/internal/domain"
)

type ItemCodec struct{}

func (ItemCodec) Header() []string { return []string{"name", "quantity", "price"} }

// Encode writes the price with at least two decimal places and never rounds.
func (ItemCodec) Encode(i domain.Item) []string {
	places := int32(2)
	if exp := -i.Price.Exponent(); exp > places {
		places = exp
	}
	return []string{i.Name, strconv.Itoa(i.Quantity), i.Price.StringFixed(places)}
}

func (ItemCodec) Decode(fields []string) (domain.Item, error) {
	name := strings.TrimSpace(fields[0])
	if name == "" {
		return domain.Item{}, fmt.Errorf("empty item name")
	}
	qty, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return domain.Item{}, fmt.Errorf("invalid quantity %q", fields[1])
	}
	if qty < 0 {
		return domain.Item{}, fmt.Errorf("negative quantity %d", qty)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(fields[2]))
	if err != nil {
		return domain.Item{}, fmt.Errorf("invalid price %q", fields[2])
	}
	if price.IsNegative() {
		return domain.Item{}, fmt.Errorf("negative price %s", price)
	}
	return domain.Item{Name: name, Quantity: qty, Price: price}, nil
}

type UserCodec struct{}

func (UserCodec) Header() []string { return []string{"username", "identifier"} }

func (UserCodec) Encode(u domain.UserRecord) []string {
	return []string{u.Username, u.Identifier}
}

func (UserCodec) Decode(fields []string) (domain.UserRecord, error) {
	u := domain.UserRecord{
		Username:   strings.TrimSpace(fields[0]),
		Identifier: strings.TrimSpace(fields[1]),
	}
	if u.Username == "" {
		return domain.UserRecord{}, fmt.Errorf("empty username")
	}
	return u, nil
}
