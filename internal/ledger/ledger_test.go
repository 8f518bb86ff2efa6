package ledger

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kesef/internal/core"
)

func tx(id, desc, amount string, kind core.Kind) core.Transaction {
	f := core.Form{Description: desc, Amount: amount, Kind: kind, Category: core.General}
	return core.NewTransaction(id, f, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
}

func TestEmptyLedger(t *testing.T) {
	var l Ledger
	assert.Equal(t, 0, l.Len())
	assert.True(t, l.Balance().Equal(core.AmountFromInt(0)))
	assert.True(t, l.TotalIncome().Equal(core.AmountFromInt(0)))
	assert.True(t, l.TotalExpenses().Equal(core.AmountFromInt(0)))
	assert.Len(t, l.TrendSeries(), 6)
}

func TestRentScenario(t *testing.T) {
	l := Ledger{}.Append(tx("1", "Rent", "1000", core.Expense))

	assert.True(t, l.Balance().Equal(core.AmountFromInt(-1000)))
	assert.True(t, l.TotalExpenses().Equal(core.AmountFromInt(1000)))
	assert.True(t, l.TotalIncome().Equal(core.AmountFromInt(0)))
}

func TestSalaryThenRent(t *testing.T) {
	l := Ledger{}.
		Append(tx("1", "Salary", "5000", core.Income)).
		Append(tx("2", "Rent", "1000", core.Expense))

	assert.True(t, l.Balance().Equal(core.AmountFromInt(4000)))
	assert.True(t, l.TotalIncome().Equal(core.AmountFromInt(5000)))
	assert.True(t, l.TotalExpenses().Equal(core.AmountFromInt(1000)))
}

func TestAddThenDelete(t *testing.T) {
	l := Ledger{}.Append(tx("1", "Coffee", "12", core.Expense))
	l = l.Remove("1")

	assert.Equal(t, 0, l.Len())
	assert.True(t, l.Balance().Equal(core.AmountFromInt(0)))
}

func TestAppendKeepsInsertionOrder(t *testing.T) {
	l := New(tx("a", "A", "1", core.Income), tx("b", "B", "2", core.Income)).
		Append(tx("c", "C", "3", core.Expense))

	all := l.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestAppendDoesNotAliasSnapshots(t *testing.T) {
	base := New(tx("a", "A", "1", core.Income))
	left := base.Append(tx("l", "L", "1", core.Income))
	right := base.Append(tx("r", "R", "1", core.Income))

	assert.Equal(t, 1, base.Len())
	_, ok := left.Find("r")
	assert.False(t, ok)
	_, ok = right.Find("l")
	assert.False(t, ok)
}

func TestRemove(t *testing.T) {
	l := New(
		tx("a", "A", "1", core.Income),
		tx("b", "B", "2", core.Expense),
		tx("c", "C", "3", core.Income),
	)

	t.Run("present id", func(t *testing.T) {
		got := l.Remove("b")
		assert.Equal(t, l.Len()-1, got.Len())
		_, ok := got.Find("b")
		assert.False(t, ok)
		assert.Equal(t, 3, l.Len(), "receiver must be unchanged")
	})

	t.Run("absent id", func(t *testing.T) {
		got := l.Remove("zzz")
		assert.Equal(t, l.All(), got.All())
	})
}

func TestAllReturnsCopy(t *testing.T) {
	l := New(tx("a", "A", "1", core.Income))
	all := l.All()
	all[0].Description = "changed"

	got, ok := l.Find("a")
	require.True(t, ok)
	assert.Equal(t, "A", got.Description)
}

func TestTrendSeriesSplitsTotalsEvenly(t *testing.T) {
	l := New(
		tx("1", "Salary", "6000", core.Income),
		tx("2", "Rent", "1200", core.Expense),
		tx("3", "Food", "300", core.Expense),
	)

	series := l.TrendSeries()
	require.Len(t, series, 6)
	for i, p := range series {
		assert.Equal(t, TrendMonths[i], p.Label)
		assert.True(t, p.Income.Equal(core.AmountFromInt(1000)), "income at %d = %s", i, p.Income)
		assert.True(t, p.Expenses.Equal(core.AmountFromInt(250)), "expenses at %d = %s", i, p.Expenses)
	}
}

func TestInvalidAmountPoisonsBalanceOnly(t *testing.T) {
	l := New(
		tx("1", "Salary", "100", core.Income),
		tx("2", "Typo", "abc", core.Expense),
		tx("3", "Rent", "40", core.Expense),
	)

	assert.False(t, l.Balance().Valid())
	assert.True(t, l.TotalIncome().Equal(core.AmountFromInt(100)))
	assert.True(t, l.TotalExpenses().Equal(core.AmountFromInt(40)))
}

func TestBalanceEqualsIncomeMinusExpenses(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 50; run++ {
		var l Ledger
		n := rng.Intn(30)
		for i := 0; i < n; i++ {
			kind := core.Expense
			if rng.Intn(2) == 0 {
				kind = core.Income
			}
			amount := fmt.Sprintf("%d.%02d", rng.Intn(10000), rng.Intn(100))
			l = l.Append(tx(fmt.Sprintf("%d-%d", run, i), "t", amount, kind))
		}
		want := l.TotalIncome().Sub(l.TotalExpenses())
		assert.True(t, l.Balance().Equal(want), "run %d: balance %s, income-expenses %s", run, l.Balance(), want)
	}
}

func TestSummary(t *testing.T) {
	l := New(tx("1", "Salary", "5000", core.Income), tx("2", "Rent", "1000", core.Expense))
	s := l.Summary()

	assert.Equal(t, 2, s.Count)
	assert.True(t, s.Balance.Equal(core.AmountFromInt(4000)))
	assert.Len(t, s.Trend, 6)
}

func TestOutOfRangeAmountsStayBounded(t *testing.T) {
	l := Ledger{}.
		Append(tx("1", "Huge", "1e10000000", core.Income)).
		Append(tx("2", "Tiny", "1e-100000000", core.Income)).
		Append(tx("3", "Rent", "1000", core.Expense))

	sum := l.Summary()
	assert.Equal(t, "Infinity", sum.Balance.String())
	assert.Equal(t, "Infinity", sum.Income.String())
	assert.Equal(t, "1000", sum.Expenses.String())
	for _, p := range sum.Trend {
		assert.Equal(t, "Infinity", p.Income.String())
		assert.Less(t, len(p.Expenses.String()), 32)
	}

	l = l.Append(tx("4", "Huger", "1e400", core.Expense))
	assert.False(t, l.Balance().Valid(), "opposite infinities make the balance NaN")
	assert.Equal(t, "Infinity", l.TotalExpenses().String())
}
