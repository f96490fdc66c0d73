package tp_sl

import (
	"papertrader/src/model"
)

// TrailingParams controls when and how far the protective stop follows price.
// All three values are multiples of the ATR captured at entry.
type TrailingParams struct {
	MoveToBEAtr      float64
	TrailStartAtr    float64
	TrailDistanceAtr float64
}

// DefaultTrailingParams are applied at position open when the caller does not
// override them.
var DefaultTrailingParams = TrailingParams{
	MoveToBEAtr:      1.0,
	TrailStartAtr:    2.0,
	TrailDistanceAtr: 1.25,
}

type ExitTrigger string

const (
	TriggerStopLoss   ExitTrigger = "stop_loss"
	TriggerTakeProfit ExitTrigger = "take_profit"
)

// ExitEvent reports a breached protective level. Level is the level itself,
// not the observed price, so fills are simulated at the order price.
type ExitEvent struct {
	Trigger ExitTrigger
	Level   float64
}

// TickResult carries the effective stop after evaluation. StopMoved tells the
// caller whether the stop must be persisted before acting on Exit.
type TickResult struct {
	StopLoss  *float64
	StopMoved bool
	Exit      *ExitEvent
}

// EvaluateTick runs one price observation through stop management for an open
// position. It is pure: the caller owns persistence and order simulation.
//
// Long:
// - profit = price - entry
// - break-even: profit >= MoveToBEAtr*atr => candidate = entry
// - trail: profit >= TrailStartAtr*atr => candidate = price - TrailDistanceAtr*atr
// - each candidate ratchets: SL = max(SL, candidate), never down
// - exit: price <= SL (checked first), price >= TP
//
// Short mirrors with the comparisons flipped. Both ratchet steps run on the
// same tick, the trail candidate competing against the stop the break-even
// step may have just set. Without a positive entry ATR the stop never moves
// but static levels still trigger.
func EvaluateTick(pos model.PaperPosition, params TrailingParams, price float64) TickResult {
	if pos.IsFlat() {
		return TickResult{}
	}

	long := pos.Side == model.PositionSideLong

	stop := 0.0
	hasStop := false
	if pos.StopLoss != nil {
		stop = *pos.StopLoss
		hasStop = true
	}
	moved := false

	profit := price - pos.EntryPrice
	if !long {
		profit = pos.EntryPrice - price
	}

	if pos.AtrAtEntry != nil && *pos.AtrAtEntry > 0 {
		atr := *pos.AtrAtEntry

		if profit >= params.MoveToBEAtr*atr {
			if next, ok := tighten(stop, hasStop, pos.EntryPrice, long); ok {
				stop, hasStop, moved = next, true, true
			}
		}

		if profit >= params.TrailStartAtr*atr {
			candidate := price - params.TrailDistanceAtr*atr
			if !long {
				candidate = price + params.TrailDistanceAtr*atr
			}
			if next, ok := tighten(stop, hasStop, candidate, long); ok {
				stop, hasStop, moved = next, true, true
			}
		}
	}

	res := TickResult{StopMoved: moved}
	if hasStop {
		s := stop
		res.StopLoss = &s
	}

	if hasStop {
		hit := price <= stop
		if !long {
			hit = price >= stop
		}
		if hit {
			res.Exit = &ExitEvent{Trigger: TriggerStopLoss, Level: stop}
			return res
		}
	}

	if pos.TakeProfit != nil {
		tp := *pos.TakeProfit
		hit := price >= tp
		if !long {
			hit = price <= tp
		}
		if hit {
			res.Exit = &ExitEvent{Trigger: TriggerTakeProfit, Level: tp}
		}
	}

	return res
}

// tighten returns the candidate when it is strictly more protective than the
// current stop. An unset stop accepts any candidate.
func tighten(cur float64, has bool, candidate float64, long bool) (float64, bool) {
	if !has {
		return candidate, true
	}
	if long && candidate > cur {
		return candidate, true
	}
	if !long && candidate < cur {
		return candidate, true
	}
	return cur, false
}
