package core

// TrendPoint is one bucket of the analytics chart.
type TrendPoint struct {
	Label    string
	Expenses Amount
	Income   Amount
}

// Summary is the set of derived values shown on the page.
type Summary struct {
	Balance  Amount
	Income   Amount
	Expenses Amount
	Count    int
	Trend    []TrendPoint
}
