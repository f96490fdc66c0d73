package tp_sl

import (
	"testing"

	"papertrader/src/model"
)

func f(v float64) *float64 { return &v }

func longPos(entry float64, sl, tp, atr *float64) model.PaperPosition {
	return model.PaperPosition{
		Side:       model.PositionSideLong,
		Size:       0.5,
		EntryPrice: entry,
		StopLoss:   sl,
		TakeProfit: tp,
		AtrAtEntry: atr,
	}
}

func shortPos(entry float64, sl, tp, atr *float64) model.PaperPosition {
	return model.PaperPosition{
		Side:       model.PositionSideShort,
		Size:       1.0,
		EntryPrice: entry,
		StopLoss:   sl,
		TakeProfit: tp,
		AtrAtEntry: atr,
	}
}

func TestEvaluateTick_FlatPosition_NoOp(t *testing.T) {
	res := EvaluateTick(model.PaperPosition{Side: model.PositionSideFlat}, DefaultTrailingParams, 50000)
	if res.StopMoved {
		t.Fatalf("expected no stop movement on flat position")
	}
	if res.StopLoss != nil {
		t.Fatalf("expected nil stop, got=%v", *res.StopLoss)
	}
	if res.Exit != nil {
		t.Fatalf("expected no exit, got=%v", *res.Exit)
	}
}

func TestEvaluateTick_NoAtr_StaticStopStillTriggers(t *testing.T) {
	// without an entry ATR the stop never moves, but a preset level still fires
	pos := longPos(50000, f(49000), nil, nil)

	res := EvaluateTick(pos, DefaultTrailingParams, 52000)
	if res.StopMoved {
		t.Fatalf("expected no stop movement without ATR")
	}
	if res.Exit != nil {
		t.Fatalf("expected no exit at 52000, got=%v", *res.Exit)
	}

	res = EvaluateTick(pos, DefaultTrailingParams, 48900)
	if res.Exit == nil {
		t.Fatalf("expected stop loss exit")
	}
	if res.Exit.Trigger != TriggerStopLoss {
		t.Fatalf("expected trigger=%s got=%s", TriggerStopLoss, res.Exit.Trigger)
	}
	if res.Exit.Level != 49000 {
		t.Fatalf("expected exit at level 49000, got=%v", res.Exit.Level)
	}
}

func TestEvaluateTick_BreakEvenArm(t *testing.T) {
	// entry=50000 atr=500: profit 600 >= 1.0*500 arms break-even at entry
	pos := longPos(50000, nil, nil, f(500))

	res := EvaluateTick(pos, DefaultTrailingParams, 50600)
	if !res.StopMoved {
		t.Fatalf("expected stop to arm at break-even")
	}
	if res.StopLoss == nil || *res.StopLoss != 50000 {
		t.Fatalf("expected stop=50000, got=%v", res.StopLoss)
	}
	if res.Exit != nil {
		t.Fatalf("expected no exit, got=%v", *res.Exit)
	}
}

func TestEvaluateTick_BreakEvenArm_ExactThreshold(t *testing.T) {
	// profit == 1.0*atr is inclusive
	pos := longPos(50000, nil, nil, f(500))

	res := EvaluateTick(pos, DefaultTrailingParams, 50500)
	if !res.StopMoved {
		t.Fatalf("expected stop to arm exactly at threshold")
	}
	if *res.StopLoss != 50000 {
		t.Fatalf("expected stop=50000, got=%v", *res.StopLoss)
	}
}

func TestEvaluateTick_BreakEven_DoesNotLoosenStop(t *testing.T) {
	// stop already above entry, break-even candidate must not pull it back
	pos := longPos(50000, f(50200), nil, f(500))

	res := EvaluateTick(pos, DefaultTrailingParams, 50600)
	if res.StopMoved {
		t.Fatalf("expected no movement, candidate 50000 is below current 50200")
	}
	if *res.StopLoss != 50200 {
		t.Fatalf("expected stop unchanged=50200, got=%v", *res.StopLoss)
	}
}

func TestEvaluateTick_TrailRatchet(t *testing.T) {
	// profit 1200 >= 2.0*500 starts the trail:
	// candidate = 51200 - 1.25*500 = 50575, above current 50000
	pos := longPos(50000, f(50000), nil, f(500))

	res := EvaluateTick(pos, DefaultTrailingParams, 51200)
	if !res.StopMoved {
		t.Fatalf("expected trail to raise stop")
	}
	if *res.StopLoss != 50575 {
		t.Fatalf("expected stop=50575, got=%v", *res.StopLoss)
	}
	if res.Exit != nil {
		t.Fatalf("expected no exit, got=%v", *res.Exit)
	}
}

func TestEvaluateTick_BreakEvenAndTrail_SameTick(t *testing.T) {
	// both thresholds crossed on one observation with no prior stop:
	// break-even sets 50000, trail immediately raises to 50575
	pos := longPos(50000, nil, nil, f(500))

	res := EvaluateTick(pos, DefaultTrailingParams, 51200)
	if !res.StopMoved {
		t.Fatalf("expected stop movement")
	}
	if *res.StopLoss != 50575 {
		t.Fatalf("expected stop=50575, got=%v", *res.StopLoss)
	}
}

func TestEvaluateTick_StopNeverRetreats(t *testing.T) {
	// price pulls back but stays above the stop: profit 700 arms break-even
	// again (candidate 50000 < 50575) and the trail threshold is not met
	pos := longPos(50000, f(50575), nil, f(500))

	res := EvaluateTick(pos, DefaultTrailingParams, 50700)
	if res.StopMoved {
		t.Fatalf("expected no movement on pullback")
	}
	if *res.StopLoss != 50575 {
		t.Fatalf("expected stop unchanged=50575, got=%v", *res.StopLoss)
	}
	if res.Exit != nil {
		t.Fatalf("expected no exit at 50700, got=%v", *res.Exit)
	}
}

func TestEvaluateTick_ExitAtBreachedLevel(t *testing.T) {
	// observed price gaps through the stop, fill is at the stop level
	pos := longPos(50000, f(50575), nil, f(500))

	res := EvaluateTick(pos, DefaultTrailingParams, 49500)
	if res.Exit == nil {
		t.Fatalf("expected stop loss exit")
	}
	if res.Exit.Trigger != TriggerStopLoss {
		t.Fatalf("expected trigger=%s got=%s", TriggerStopLoss, res.Exit.Trigger)
	}
	if res.Exit.Level != 50575 {
		t.Fatalf("expected exit at stop level 50575, got=%v", res.Exit.Level)
	}
}

func TestEvaluateTick_ExitAtExactStop(t *testing.T) {
	// breach comparison is inclusive
	pos := longPos(50000, f(49000), nil, f(500))

	res := EvaluateTick(pos, DefaultTrailingParams, 49000)
	if res.Exit == nil || res.Exit.Trigger != TriggerStopLoss {
		t.Fatalf("expected stop loss exit at exact level, got=%v", res.Exit)
	}
	if res.Exit.Level != 49000 {
		t.Fatalf("expected exit level 49000, got=%v", res.Exit.Level)
	}
}

func TestEvaluateTick_TakeProfit(t *testing.T) {
	pos := longPos(50000, f(49000), f(52000), f(500))

	res := EvaluateTick(pos, DefaultTrailingParams, 52500)
	if res.Exit == nil {
		t.Fatalf("expected take profit exit")
	}
	if res.Exit.Trigger != TriggerTakeProfit {
		t.Fatalf("expected trigger=%s got=%s", TriggerTakeProfit, res.Exit.Trigger)
	}
	if res.Exit.Level != 52000 {
		t.Fatalf("expected exit at target level 52000, got=%v", res.Exit.Level)
	}
}

func TestEvaluateTick_StopLossWinsOverTakeProfit(t *testing.T) {
	// misconfigured levels can breach both on one tick, the stop wins
	pos := longPos(50000, f(50575), f(49000), f(500))

	res := EvaluateTick(pos, DefaultTrailingParams, 49500)
	if res.Exit == nil {
		t.Fatalf("expected exit")
	}
	if res.Exit.Trigger != TriggerStopLoss {
		t.Fatalf("expected stop loss to take precedence, got=%s", res.Exit.Trigger)
	}
	if res.Exit.Level != 50575 {
		t.Fatalf("expected exit at stop level 50575, got=%v", res.Exit.Level)
	}
}

func TestEvaluateTick_Short_BreakEvenArm(t *testing.T) {
	// entry=3000 atr=30: profit 3000-2970=30 >= 1.0*30 arms stop at entry
	pos := shortPos(3000, nil, nil, f(30))

	res := EvaluateTick(pos, DefaultTrailingParams, 2970)
	if !res.StopMoved {
		t.Fatalf("expected stop to arm at break-even")
	}
	if *res.StopLoss != 3000 {
		t.Fatalf("expected stop=3000, got=%v", *res.StopLoss)
	}
}

func TestEvaluateTick_Short_TrailMovesDownOnly(t *testing.T) {
	// profit 60 >= 2.0*30 starts the trail:
	// candidate = 2940 + 1.25*30 = 2977.5, below current 3000
	pos := shortPos(3000, f(3000), nil, f(30))

	res := EvaluateTick(pos, DefaultTrailingParams, 2940)
	if !res.StopMoved {
		t.Fatalf("expected trail to lower stop")
	}
	if *res.StopLoss != 2977.5 {
		t.Fatalf("expected stop=2977.5, got=%v", *res.StopLoss)
	}

	// a bounce must not push the stop back up
	pos.StopLoss = res.StopLoss
	res = EvaluateTick(pos, DefaultTrailingParams, 2960)
	if res.StopMoved {
		t.Fatalf("expected no movement on bounce")
	}
	if *res.StopLoss != 2977.5 {
		t.Fatalf("expected stop unchanged=2977.5, got=%v", *res.StopLoss)
	}
}

func TestEvaluateTick_Short_ExitAtStopLevel(t *testing.T) {
	pos := shortPos(3000, f(2977.5), nil, f(30))

	res := EvaluateTick(pos, DefaultTrailingParams, 2990)
	if res.Exit == nil {
		t.Fatalf("expected stop loss exit")
	}
	if res.Exit.Trigger != TriggerStopLoss {
		t.Fatalf("expected trigger=%s got=%s", TriggerStopLoss, res.Exit.Trigger)
	}
	if res.Exit.Level != 2977.5 {
		t.Fatalf("expected exit at stop level 2977.5, got=%v", res.Exit.Level)
	}
}

func TestEvaluateTick_Short_TakeProfit(t *testing.T) {
	pos := shortPos(3000, f(3100), f(2900), f(30))

	res := EvaluateTick(pos, DefaultTrailingParams, 2880)
	if res.Exit == nil {
		t.Fatalf("expected take profit exit")
	}
	if res.Exit.Trigger != TriggerTakeProfit {
		t.Fatalf("expected trigger=%s got=%s", TriggerTakeProfit, res.Exit.Trigger)
	}
	if res.Exit.Level != 2900 {
		t.Fatalf("expected exit at target level 2900, got=%v", res.Exit.Level)
	}
}

func TestEvaluateTick_LosingPosition_NoArming(t *testing.T) {
	// negative excursion never arms or trails
	pos := longPos(50000, nil, nil, f(500))

	res := EvaluateTick(pos, DefaultTrailingParams, 49600)
	if res.StopMoved {
		t.Fatalf("expected no stop movement on losing position")
	}
	if res.StopLoss != nil {
		t.Fatalf("expected stop still unset, got=%v", *res.StopLoss)
	}
	if res.Exit != nil {
		t.Fatalf("expected no exit without levels, got=%v", *res.Exit)
	}
}
