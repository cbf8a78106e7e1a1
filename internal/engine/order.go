package engine

import "fmt"

// Order is the identity and mutable residual state of a single live order.
// Price is undefined (zero) for an unconverted Market order.
type Order struct {
	Discipline Discipline
	ID         int64
	Side       Side
	Price      float64
	Initial    int64
	Remaining  int64
}

// NewOrder constructs an order with its remaining quantity seeded from the
// initial quantity, as spec.md requires (0 <= remaining <= initial, here
// remaining == initial at construction).
func NewOrder(discipline Discipline, id int64, side Side, price float64, quantity int64) *Order {
	return &Order{
		Discipline: discipline,
		ID:         id,
		Side:       side,
		Price:      price,
		Initial:    quantity,
		Remaining:  quantity,
	}
}

// NewMarketOrder constructs an unconverted Market order. Its price is
// meaningless until the book rewrites it at admission.
func NewMarketOrder(id int64, side Side, quantity int64) *Order {
	return NewOrder(Market, id, side, 0, quantity)
}

// fill decrements the order's remaining quantity by qty. It is the only
// mutator of Remaining and is the sole source of ErrOrderFillOverflow.
func (o *Order) fill(qty int64) error {
	if qty > o.Remaining {
		return ErrOrderFillOverflow
	}
	o.Remaining -= qty
	return nil
}

// convertToLimit rewrites a Market order into a resting GoodTillCancel at
// price. Any other discipline is a misuse of this method.
func (o *Order) convertToLimit(price float64) error {
	if o.Discipline != Market {
		return ErrPriceConversionMisuse
	}
	o.Price = price
	o.Discipline = GoodTillCancel
	return nil
}

func (o *Order) String() string {
	return fmt.Sprintf("Order{id=%d side=%s discipline=%s price=%g remaining=%d/%d}",
		o.ID, o.Side, o.Discipline, o.Price, o.Remaining, o.Initial)
}

// Modify is semantically cancel-then-insert: the original order's
// discipline is preserved, everything else is replaced.
type Modify struct {
	ID       int64
	Side     Side
	Price    float64
	Quantity int64
}

// Fill is one side's leg of a Trade: the counterparty order identifier, the
// price at which that side is quoted, and the matched quantity.
type Fill struct {
	OrderID  int64
	Price    float64
	Quantity int64
}

// Trade pairs the bid-side and ask-side fills of a single match. Both legs
// always share Quantity; Price may differ when the aggressor crosses the
// book at a better price than the resting side.
type Trade struct {
	Bid Fill
	Ask Fill
}

// LevelInfo is a read-only (price, aggregate remaining quantity) pair
// returned by Snapshot.
type LevelInfo struct {
	Price    float64
	Quantity int64
}
