package ledger

import "kesef/internal/core"

// TrendMonths are the fixed chart buckets.
var TrendMonths = [...]string{"ינואר", "פברואר", "מרץ", "אפריל", "מאי", "יוני"}

// Balance is the signed sum of every amount.
func (l Ledger) Balance() core.Amount {
	var sum core.Amount
	for _, tx := range l.txs {
		sum = sum.Add(tx.Amount)
	}
	return sum
}

// TotalIncome sums the positive amounts.
func (l Ledger) TotalIncome() core.Amount {
	var sum core.Amount
	for _, tx := range l.txs {
		if tx.Amount.IsPositive() {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum
}

// TotalExpenses is the magnitude of the sum of negative amounts.
func (l Ledger) TotalExpenses() core.Amount {
	var sum core.Amount
	for _, tx := range l.txs {
		if tx.Amount.IsNegative() {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum.Abs()
}

// TrendSeries spreads the two totals evenly over the six TrendMonths.
// Transaction dates are not consulted.
func (l Ledger) TrendSeries() []core.TrendPoint {
	n := int64(len(TrendMonths))
	expenses := l.TotalExpenses().DivInt(n)
	income := l.TotalIncome().DivInt(n)

	points := make([]core.TrendPoint, 0, len(TrendMonths))
	for _, m := range TrendMonths {
		points = append(points, core.TrendPoint{Label: m, Expenses: expenses, Income: income})
	}
	return points
}

// Summary gathers every derived value for one render.
func (l Ledger) Summary() core.Summary {
	return core.Summary{
		Balance:  l.Balance(),
		Income:   l.TotalIncome(),
		Expenses: l.TotalExpenses(),
		Count:    len(l.txs),
		Trend:    l.TrendSeries(),
	}
}
