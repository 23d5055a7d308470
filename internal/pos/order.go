package pos

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
)

// DraftKey is the store key of the order being taken.
const DraftKey = "@waiter/order"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Category groups products on the menu.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Product is a menu entry that can be added to an order.
type Product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Item is a product line of an order as the server recorded it.
type Item struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ProductID string `json:"product_id"`
	Amount    int    `json:"amount"`
}

// Draft is the open order of a table.
type Draft struct {
	OrderID string `json:"order_id"`
	Table   int    `json:"table"`
	Items   []Item `json:"items"`
}

// HasItems reports whether any item was added.
func (d *Draft) HasItems() bool {
	return d != nil && len(d.Items) > 0
}

// Total is the sum of item amounts.
func (d *Draft) Total() int {
	n := 0
	if d == nil {
		return n
	}
	for _, it := range d.Items {
		n += it.Amount
	}
	return n
}

func (d *Draft) clone() *Draft {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Items = append([]Item(nil), d.Items...)
	return &cp
}

func (d *Draft) indexOf(itemID string) int {
	for i, it := range d.Items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

func decodeDraft(raw string) (*Draft, error) {
	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, err
	}
	if d.OrderID == "" || d.Table <= 0 {
		return nil, ErrBadResponse.Msg("incomplete draft record")
	}
	return &d, nil
}

func (d *Draft) encode() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// parseEntries reads a JSON array of {id,name} objects.
func parseEntries(resp []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(resp) {
		return nil, ErrBadResponse.Msg("response is not valid JSON")
	}
	r := gjson.ParseBytes(resp)
	if !r.IsArray() {
		return nil, ErrBadResponse.Msg("expected a list")
	}
	entries := r.Array()
	for _, e := range entries {
		if e.Get("id").String() == "" {
			return nil, ErrBadResponse.Msg("list entry without id")
		}
	}
	return entries, nil
}
