package engine

import "container/list"

// priceLevel is the FIFO queue of resident orders at a single price. The
// list gives O(1) append at the tail and O(1) removal given the element
// handle stored in the registry — no reliance on a third-party deque, since
// none of the teacher's or the pack's dependencies offer one; container/list
// is the standard-library primitive purpose-built for this and nothing in
// the corpus reaches for an alternative.
type priceLevel struct {
	price  float64
	orders *list.List // of *resident
}

func newPriceLevel(price float64) *priceLevel {
	return &priceLevel{price: price, orders: list.New()}
}

// resident is the registry's record for one live order: the order itself,
// its queue membership, and which side it rests on. The queue owns the
// order for iteration purposes; the registry holds this as a non-owning
// handle that enables O(1) cancellation without walking the list.
type resident struct {
	order *Order
	elem  *list.Element
	level *priceLevel
	side  Side
}

// levelStat is the aggregate depth ledger entry for one price: how many
// orders rest there and their combined remaining quantity.
type levelStat struct {
	count    int64
	quantity int64
}
