package engine

import "github.com/rs/zerolog/log"

// match repeatedly crosses the best bid against the best ask until the book
// uncrosses or one side empties, returning the trades produced in the order
// they occurred. Price-time priority falls out of the tree comparators
// (price priority) and the FIFO queue at each level (time priority).
func (b *OrderBook) match() []Trade {
	var trades []Trade

outer:
	for {
		bidLevel, ok := b.bids.Min()
		if !ok {
			break
		}
		askLevel, ok := b.asks.Min()
		if !ok {
			break
		}
		if bidLevel.price < askLevel.price {
			break
		}

		for bidLevel.orders.Len() > 0 && askLevel.orders.Len() > 0 {
			bidRes := bidLevel.orders.Front().Value.(*resident)
			askRes := askLevel.orders.Front().Value.(*resident)
			bidOrder, askOrder := bidRes.order, askRes.order

			q := bidOrder.Remaining
			if askOrder.Remaining < q {
				q = askOrder.Remaining
			}

			must(bidOrder.fill(q))
			must(askOrder.fill(q))

			trades = append(trades, Trade{
				Bid: Fill{OrderID: bidOrder.ID, Price: bidOrder.Price, Quantity: q},
				Ask: Fill{OrderID: askOrder.ID, Price: askOrder.Price, Quantity: q},
			})

			b.ledger[bidOrder.Price].quantity -= q
			b.ledger[askOrder.Price].quantity -= q

			log.Debug().Int64("bid", bidOrder.ID).Int64("ask", askOrder.ID).
				Int64("qty", q).Msg("matched")

			ioc := bidOrder.Discipline == ImmediateOrCancel || askOrder.Discipline == ImmediateOrCancel

			if bidOrder.Remaining == 0 {
				b.detach(bidRes)
			}
			if askOrder.Remaining == 0 {
				b.detach(askRes)
			}

			if ioc {
				if bidOrder.Discipline == ImmediateOrCancel && bidOrder.Remaining > 0 {
					b.cancelLocked(bidOrder.ID)
				}
				if askOrder.Discipline == ImmediateOrCancel && askOrder.Remaining > 0 {
					b.cancelLocked(askOrder.ID)
				}
				break outer
			}
		}
	}

	return trades
}
