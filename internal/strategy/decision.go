package strategy

import (
	"fmt"

	"MarketScreener/internal/model"

	"github.com/shopspring/decimal"
)

// Decide weighs buy and sell pressure of a snapshot into BUY, HOLD or SELL.
func Decide(snap *model.Snapshot, profile *model.IssuerProfile) model.InvestmentDecision {
	var buy, sell int
	var reasons []string

	if ma200, ok := snap.MA200.Get(); ok {
		if snap.Price > ma200 {
			buy += 30
			reasons = append(reasons, "price above 200-day MA (long-term uptrend)")
		} else {
			sell += 40
			reasons = append(reasons, "price below 200-day MA (downtrend)")
		}
	} else {
		reasons = append(reasons, "not enough history for 200-day MA")
	}

	if snap.PerfectOrderBullish {
		buy += 25
		reasons = append(reasons, "moving averages in perfect order")
	} else {
		sell += 20
		reasons = append(reasons, "moving averages not in perfect order")
	}

	if rsi, ok := snap.RSI14.Get(); ok {
		switch {
		case rsi >= 30 && rsi <= 50:
			buy += 20
			reasons = append(reasons, fmt.Sprintf("RSI %.1f leaves room to rise", rsi))
		case rsi > 50 && rsi <= 70:
			buy += 10
			reasons = append(reasons, fmt.Sprintf("RSI %.1f is elevated", rsi))
		case rsi > 70:
			sell += 25
			reasons = append(reasons, fmt.Sprintf("RSI %.1f is overbought", rsi))
		default:
			sell += 15
			reasons = append(reasons, fmt.Sprintf("RSI %.1f is oversold", rsi))
		}
	}

	if adr, ok := snap.ADR20.Get(); ok {
		switch {
		case adr >= 5 && adr <= 15:
			buy += 15
			reasons = append(reasons, fmt.Sprintf("ADR %.1f%% is a tradeable range", adr))
		case adr < 5:
			reasons = append(reasons, fmt.Sprintf("ADR %.1f%% is low", adr))
		default:
			reasons = append(reasons, fmt.Sprintf("ADR %.1f%% is highly volatile", adr))
		}
	}

	if ratio, ok := SignalVolumeRatio.Value(snap, profile).Get(); ok {
		if ratio >= 1 {
			buy += 10
			reasons = append(reasons, "volume at or above average")
		} else {
			reasons = append(reasons, "volume below average")
		}
	}

	d := model.InvestmentDecision{BuyScore: buy, SellScore: sell, Reasons: reasons}
	switch {
	case buy >= 70 && sell < 30:
		d.Action, d.Confidence = model.ActionBuy, buy
	case sell >= 40:
		d.Action, d.Confidence = model.ActionSell, sell
	default:
		d.Action = model.ActionHold
		d.Confidence = buy
		if d.Confidence < 50 {
			d.Confidence = 50
		}
	}
	return d
}

// CalculatePriceLevels returns targets and entries for a BUY decision, nil otherwise.
// The daily range in currency is price * ADR / 100, or 3% of price without ADR.
func CalculatePriceLevels(snap *model.Snapshot, action model.Action) *model.PriceLevels {
	if action != model.ActionBuy || snap.Price <= 0 {
		return nil
	}
	price := decimal.NewFromFloat(snap.Price)
	hundred := decimal.NewFromInt(100)

	dailyRange := price.Mul(decimal.NewFromFloat(0.03))
	if adr, ok := snap.ADR20.Get(); ok && adr > 0 {
		dailyRange = price.Mul(decimal.NewFromFloat(adr)).Div(hundred)
	}

	target3 := price.Mul(decimal.NewFromFloat(1.10))
	if high, ok := snap.Week52High.Get(); ok && high > 0 {
		target3 = decimal.NewFromFloat(high)
	}
	optimal := price.Mul(decimal.NewFromFloat(0.98))
	if ma20, ok := snap.MA20.Get(); ok && ma20 > 0 {
		optimal = decimal.NewFromFloat(ma20)
	}
	stop := price.Mul(decimal.NewFromFloat(0.93))
	if ma200, ok := snap.MA200.Get(); ok && ma200 > 0 {
		stop = decimal.NewFromFloat(ma200)
	}

	return &model.PriceLevels{
		ProfitTargets: []float64{
			cents(price.Add(dailyRange.Mul(decimal.NewFromFloat(1.5)))),
			cents(price.Add(dailyRange.Mul(decimal.NewFromInt(3)))),
			cents(target3),
		},
		EntryOptimal: cents(optimal),
		EntryAccept:  cents(price),
		StopLoss:     cents(stop),
	}
}

func cents(d decimal.Decimal) float64 {
	v, _ := d.Round(2).Float64()
	return v
}
