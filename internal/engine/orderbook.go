package engine

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/btree"
)

// OrderBook is a single-instrument, in-memory continuous limit order book
// with an integrated matching engine. All public methods that read or mutate
// book state acquire bookMu and leave it held for the duration of their mutation — no method returns
// while holding it, and none recurses into another public method while
// holding it.
type OrderBook struct {
	bookMu sync.Mutex

	bids *btree.BTreeG[*priceLevel] // best (highest) first
	asks *btree.BTreeG[*priceLevel] // best (lowest) first

	registry map[int64]*resident
	ledger   map[float64]*levelStat

	pruner *pruner
}

// New constructs an order book and starts its day-scoped pruner against the
// given clock. Pass a production Clock; tests should inject a fake one.
func New(clock Clock) *OrderBook {
	bids := btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.price > b.price // descending: best bid first
	})
	asks := btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.price < b.price // ascending: best ask first
	})

	book := &OrderBook{
		bids:     bids,
		asks:     asks,
		registry: make(map[int64]*resident),
		ledger:   make(map[float64]*levelStat),
	}
	book.pruner = newPruner(book, clock)
	book.pruner.Start()
	return book
}

// NewDefault constructs an order book backed by the real wall clock.
func NewDefault() *OrderBook {
	return New(systemClock{})
}

// Add admits an order into the book, returning the trades its admission
// produced (possibly empty). See spec.md §4.1 for the full admission
// sequence.
func (b *OrderBook) Add(o *Order) []Trade {
	b.bookMu.Lock()
	defer b.bookMu.Unlock()
	return b.addLocked(o)
}

func (b *OrderBook) addLocked(o *Order) []Trade {
	if _, exists := b.registry[o.ID]; exists {
		log.Debug().Int64("id", o.ID).Msg("duplicate order identifier, rejected")
		return nil
	}

	if o.Discipline == Market {
		worst, ok := b.worstOppositePrice(o.Side)
		if !ok {
			log.Debug().Int64("id", o.ID).Msg("market order rejected, opposite side empty")
			return nil
		}
		must(o.convertToLimit(worst))
	}

	if o.Discipline == ImmediateOrCancel && !b.canMatch(o.Side, o.Price) {
		log.Debug().Int64("id", o.ID).Msg("immediate-or-cancel rejected, not marketable")
		return nil
	}

	if o.Discipline == AllOrNone && !b.canFullyFill(o.Side, o.Price, o.Initial) {
		log.Debug().Int64("id", o.ID).Msg("all-or-none rejected, cannot fully fill")
		return nil
	}

	b.insertResident(o)
	log.Debug().Int64("id", o.ID).Str("side", o.Side.String()).Float64("price", o.Price).
		Int64("qty", o.Initial).Msg("order admitted")

	return b.match()
}

// Cancel removes a live order by identifier. Unknown identifiers are a
// silent no-op.
func (b *OrderBook) Cancel(id int64) {
	b.bookMu.Lock()
	defer b.bookMu.Unlock()
	b.cancelLocked(id)
}

func (b *OrderBook) cancelLocked(id int64) {
	res, ok := b.registry[id]
	if !ok {
		return
	}
	b.detach(res)
	log.Debug().Int64("id", id).Msg("order cancelled")
}

// Modify is cancel-then-add with the original discipline preserved and a
// fresh priority stamp. Unknown identifiers return no trades.
func (b *OrderBook) Modify(m *Modify) []Trade {
	b.bookMu.Lock()
	defer b.bookMu.Unlock()

	res, ok := b.registry[m.ID]
	if !ok {
		return nil
	}
	discipline := res.order.Discipline

	b.cancelLocked(m.ID)
	fresh := NewOrder(discipline, m.ID, m.Side, m.Price, m.Quantity)
	return b.addLocked(fresh)
}

// Size returns the number of resident orders across both sides.
func (b *OrderBook) Size() int {
	b.bookMu.Lock()
	defer b.bookMu.Unlock()
	return len(b.registry)
}

// Snapshot returns the current aggregate depth per side: (price, aggregate
// remaining quantity) pairs for bids and asks. Iteration order is not a
// contract; callers needing sorted output should sort by price themselves.
func (b *OrderBook) Snapshot() (bids []LevelInfo, asks []LevelInfo) {
	b.bookMu.Lock()
	defer b.bookMu.Unlock()

	bids = make([]LevelInfo, 0, b.bids.Len())
	b.bids.Scan(func(level *priceLevel) bool {
		bids = append(bids, LevelInfo{Price: level.price, Quantity: b.ledger[level.price].quantity})
		return true
	})

	asks = make([]LevelInfo, 0, b.asks.Len())
	b.asks.Scan(func(level *priceLevel) bool {
		asks = append(asks, LevelInfo{Price: level.price, Quantity: b.ledger[level.price].quantity})
		return true
	})

	return bids, asks
}

// Teardown stops the day-scoped pruner, bounded by a fixed join timeout.
// Idempotent.
func (b *OrderBook) Teardown() {
	b.pruner.Stop()
}

// -- internals; all but goodForDayIDs assume bookMu is already held --

func (b *OrderBook) sideTree(side Side) *btree.BTreeG[*priceLevel] {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

// worstOppositePrice finds the opposite side's worst resident price: for a
// Buy order, the highest ask; for a Sell order, the lowest bid.
func (b *OrderBook) worstOppositePrice(side Side) (float64, bool) {
	if side == Buy {
		level, ok := b.asks.Max()
		if !ok {
			return 0, false
		}
		return level.price, true
	}
	level, ok := b.bids.Max()
	if !ok {
		return 0, false
	}
	return level.price, true
}

// canMatch is true iff the opposing side is non-empty and price is
// marketable against its best.
func (b *OrderBook) canMatch(side Side, price float64) bool {
	if side == Buy {
		level, ok := b.asks.Min()
		return ok && price >= level.price
	}
	level, ok := b.bids.Min()
	return ok && price <= level.price
}

// canFullyFill walks the opposing side's ledger entries, best-first, that
// are marketable against (side, price), accumulating resident quantity
// until it can cover qty.
func (b *OrderBook) canFullyFill(side Side, price float64, qty int64) bool {
	if !b.canMatch(side, price) {
		return false
	}

	opposite := b.asks
	if side == Sell {
		opposite = b.bids
	}

	remaining := qty
	full := false
	opposite.Scan(func(level *priceLevel) bool {
		if side == Buy && level.price > price {
			return false
		}
		if side == Sell && level.price < price {
			return false
		}
		stat := b.ledger[level.price]
		if stat == nil {
			return true
		}
		if remaining <= stat.quantity {
			full = true
			return false
		}
		remaining -= stat.quantity
		return true
	})
	return full
}

// insertResident appends o to the tail of its price's queue on its side,
// creating the level if absent, and updates the registry and ledger.
func (b *OrderBook) insertResident(o *Order) {
	tree := b.sideTree(o.Side)

	level, ok := tree.Get(&priceLevel{price: o.Price})
	if !ok {
		level = newPriceLevel(o.Price)
		tree.Set(level)
	}

	res := &resident{order: o, level: level, side: o.Side}
	res.elem = level.orders.PushBack(res)
	b.registry[o.ID] = res

	stat, ok := b.ledger[o.Price]
	if !ok {
		stat = &levelStat{}
		b.ledger[o.Price] = stat
	}
	stat.count++
	stat.quantity += o.Initial
}

// detach removes a resident order from its queue, the registry, and the
// ledger, dropping the price key from the side map and the ledger entry
// when they become empty. It is correct both for a standalone cancel (where
// order.Remaining is the live residual) and for a fully-filled match-loop
// removal (where Remaining is already zero and the ledger quantity was
// already decremented incrementally as the fill progressed).
func (b *OrderBook) detach(res *resident) {
	res.level.orders.Remove(res.elem)
	delete(b.registry, res.order.ID)

	stat := b.ledger[res.order.Price]
	stat.count--
	stat.quantity -= res.order.Remaining
	if stat.count == 0 {
		delete(b.ledger, res.order.Price)
	}

	if res.level.orders.Len() == 0 {
		b.sideTree(res.side).Delete(res.level)
	}
}

// goodForDayIDs snapshots the identifiers of all resident GoodForDay orders
// under lock, for the pruner to cancel once the lock is released.
func (b *OrderBook) goodForDayIDs() []int64 {
	b.bookMu.Lock()
	defer b.bookMu.Unlock()

	ids := make([]int64, 0)
	for id, res := range b.registry {
		if res.order.Discipline == GoodForDay {
			ids = append(ids, id)
		}
	}
	return ids
}
