package engine

import "errors"

var (
	// ErrOrderFillOverflow signals an attempt to fill an order for more
	// than its remaining quantity. The matching loop's invariants must
	// never allow this; its occurrence is a programming error.
	ErrOrderFillOverflow = errors.New("engine: fill exceeds remaining quantity")

	// ErrPriceConversionMisuse signals an attempt to assign a price to an
	// order whose discipline is not Market. Only a Market order's price is
	// rewritten, at admission, by the book itself.
	ErrPriceConversionMisuse = errors.New("engine: price conversion on non-market order")
)

// must panics on a non-nil error. It marks the handful of call sites where
// the matching loop relies on an invariant that the order's own validation
// already guarantees — a failure here means the invariant itself is broken,
// not that the caller supplied bad input.
func must(err error) {
	if err != nil {
		panic(err)
	}
}
