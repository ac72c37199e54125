package order

import (
	"math"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// EncodeLineItems renders the checkout snapshot as
// [{"id":<int64>,"quantity":<int>,"price":<number>},...] in input order.
// Sales reporting parses exactly this shape.
func EncodeLineItems(items []LineItem) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(it.FoodItemID)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("price")
		encodePrice(&e, it.Price)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

// encodePrice writes the price as a double, keeping one fractional digit on
// whole amounts: 5 is written as 5.0.
func encodePrice(e *jx.Encoder, p decimal.Decimal) {
	f := p.InexactFloat64()
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		e.Num(jx.Num(strconv.FormatFloat(f, 'f', 1, 64)))
		return
	}
	e.Float64(f)
}

// DecodeLineItems parses a snapshot produced by EncodeLineItems. Unknown
// fields are ignored; missing ones are an error.
func DecodeLineItems(data []byte) ([]LineItem, error) {
	const (
		hasID = 1 << iota
		hasQuantity
		hasPrice
		hasAll = hasID | hasQuantity | hasPrice
	)

	items := make([]LineItem, 0, 4)
	err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		var (
			it   LineItem
			seen int
		)
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "id":
				v, err := d.Int64()
				if err != nil {
					return errors.Wrap(err, "id")
				}
				it.FoodItemID = v
				seen |= hasID
			case "quantity":
				v, err := d.Int()
				if err != nil {
					return errors.Wrap(err, "quantity")
				}
				it.Quantity = v
				seen |= hasQuantity
			case "price":
				v, err := d.Float64()
				if err != nil {
					return errors.Wrap(err, "price")
				}
				it.Price = decimal.NewFromFloat(v)
				seen |= hasPrice
			default:
				return d.Skip()
			}
			return nil
		}); err != nil {
			return err
		}
		if seen != hasAll {
			return errors.Errorf("line item %d: missing fields", len(items))
		}
		items = append(items, it)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode line items")
	}
	return items, nil
}
