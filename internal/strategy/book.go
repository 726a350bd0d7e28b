package strategy

import (
	"time"

	"github.com/google/uuid"

	"github.com/jackleZac/trading-algorithm/internal/domain"
	"github.com/jackleZac/trading-algorithm/internal/series"
)

// book tracks the position of one strategy instance and builds the intents
// that move it.
type book struct {
	strategy string
	symbol   string
	pos      domain.Position
}

func newBook(strategy, symbol string) book {
	return book{strategy: strategy, symbol: symbol, pos: domain.Position{Side: domain.SideFlat}}
}

// canEnter reports whether a layer in direction side is allowed.
func (b *book) canEnter(side domain.Side, maxLayers int) bool {
	if b.pos.Flat() {
		return maxLayers > 0
	}
	return b.pos.Side == side && b.pos.Layers < maxLayers
}

// enter opens or adds a layer and resets stop and take for the whole position.
func (b *book) enter(side domain.Side, size, price, stop, take float64, at time.Time, reason string) domain.TradeIntent {
	action := domain.ActionAddLayer
	if b.pos.Flat() {
		action = domain.ActionOpenLong
		if side == domain.SideShort {
			action = domain.ActionOpenShort
		}
		b.pos = domain.Position{Side: side}
	}
	b.pos.Size += size
	b.pos.Entries = append(b.pos.Entries, price)
	b.pos.StopLoss = stop
	b.pos.TakeProfit = take
	b.pos.Layers++

	intent := b.intent(action, side, size, price, at, reason)
	intent.StopLoss = &stop
	intent.TakeProfit = &take
	intent.Layer = b.pos.Layers
	return intent
}

// flatten closes the whole position. ok is false when already flat.
func (b *book) flatten(price float64, at time.Time, reason string) (domain.TradeIntent, bool) {
	if b.pos.Flat() {
		return domain.TradeIntent{}, false
	}
	intent := b.intent(domain.ActionClose, b.pos.Side, b.pos.Size, price, at, reason)
	intent.Layer = b.pos.Layers
	b.pos = domain.Position{Side: domain.SideFlat}
	return intent, true
}

// closeOut flattens at the current bar of bars.
func (b *book) closeOut(bars *series.Series, reason string) []domain.TradeIntent {
	cur, ok := bars.Last()
	if !ok {
		return nil
	}
	intent, ok := b.flatten(cur.Close, cur.Time, reason)
	if !ok {
		return nil
	}
	return []domain.TradeIntent{intent}
}

// exit flattens when the close crosses the stop or the take.
func (b *book) exit(cur domain.Bar) (intent domain.TradeIntent, hit, win bool) {
	if b.pos.Flat() {
		return domain.TradeIntent{}, false, false
	}
	if hit, win = b.exitHit(cur.Close); !hit {
		return domain.TradeIntent{}, false, false
	}
	reason := "stop loss"
	if win {
		reason = "take profit"
	}
	intent, _ = b.flatten(cur.Close, cur.Time, reason)
	return intent, true, win
}

// exitHit checks close against the stop and take. win is true for a take.
func (b *book) exitHit(close float64) (hit, win bool) {
	switch b.pos.Side {
	case domain.SideLong:
		if close <= b.pos.StopLoss {
			return true, false
		}
		if close >= b.pos.TakeProfit {
			return true, true
		}
	case domain.SideShort:
		if close >= b.pos.StopLoss {
			return true, false
		}
		if close <= b.pos.TakeProfit {
			return true, true
		}
	}
	return false, false
}

func (b *book) intent(action domain.IntentAction, side domain.Side, size, price float64, at time.Time, reason string) domain.TradeIntent {
	return domain.TradeIntent{
		ID:        uuid.NewString(),
		Strategy:  b.strategy,
		Symbol:    b.symbol,
		Action:    action,
		Side:      side,
		Size:      size,
		Price:     price,
		Reason:    reason,
		BarTime:   at,
		CreatedAt: time.Now().UTC(),
	}
}

func (b *book) position() domain.Position {
	p := b.pos
	p.Entries = append([]float64(nil), b.pos.Entries...)
	return p
}

// fixedStopTake places stop and take at absolute distances from entry.
func fixedStopTake(side domain.Side, entry, slDist, tpDist float64) (stop, take float64) {
	sign := side.Sign()
	return entry - sign*slDist, entry + sign*tpDist
}
