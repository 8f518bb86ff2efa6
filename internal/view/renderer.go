// Package view turns application state into the HTML page.
package view

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"kesef/internal/app"
	"kesef/internal/chart"
	"kesef/internal/core"
	"kesef/internal/log"
	appweb "kesef/web"
)

// Series colors and names for the analytics chart.
const (
	IncomeColor   = "#10B981"
	ExpensesColor = "#EF4444"
	IncomeName    = "הכנסות"
	ExpensesName  = "הוצאות"
)

type Option struct {
	Value    string
	Label    string
	Selected bool
}

type FormData struct {
	Description string
	Amount      string
	Kinds       []Option
	Categories  []Option
}

type Row struct {
	ID          string
	Description string
	Category    string
	Date        string
	Amount      string
	Income      bool
}

type DashboardData struct {
	Balance  string
	Income   string
	Expenses string
	Form     FormData
	Rows     []Row
}

type LegendItem struct {
	Name  string
	Color string
}

type AnalyticsData struct {
	Chart  chart.Chart
	Legend []LegendItem
}

// Page is the root template data. Exactly one of Dashboard and
// Analytics is set.
type Page struct {
	Theme       core.Theme
	IsDashboard bool
	Dashboard   *DashboardData
	Analytics   *AnalyticsData
}

// Renderer executes the embedded page templates.
type Renderer struct {
	templates *template.Template
	layout    chart.Layout
	logger    *log.Logger
}

// NewRenderer parses the embedded templates.
func NewRenderer(logger *log.Logger) (*Renderer, error) {
	if logger == nil {
		logger = log.Discard()
	}
	t, err := template.New("").Funcs(template.FuncMap{
		"coord": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{
		templates: t,
		layout:    chart.DefaultLayout(),
		logger:    logger.WithComponent(log.ComponentView),
	}, nil
}

// Render writes the full page for s. Output is buffered so a template
// failure never leaves a half-written page.
func (r *Renderer) Render(ctx context.Context, w io.Writer, s app.State) error {
	page, err := BuildPage(s, r.layout)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, "page", page); err != nil {
		r.logger.ErrorContext(ctx, "Page template execution failed",
			log.FieldError, err,
			log.FieldTemplate, "page",
			log.FieldView, string(s.View))
		return fmt.Errorf("execute page template: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// BuildPage computes the template data for s. Aggregates are recomputed
// from the ledger on every call.
func BuildPage(s app.State, layout chart.Layout) (Page, error) {
	page := Page{Theme: s.Theme, IsDashboard: s.View != core.Analytics}
	if page.IsDashboard {
		d := buildDashboard(s)
		page.Dashboard = &d
		return page, nil
	}
	a, err := buildAnalytics(s, layout)
	if err != nil {
		return Page{}, err
	}
	page.Analytics = &a
	return page, nil
}

func buildDashboard(s app.State) DashboardData {
	sum := s.Ledger.Summary()
	d := DashboardData{
		Balance:  FormatAmount(sum.Balance),
		Income:   FormatAmount(sum.Income),
		Expenses: FormatAmount(sum.Expenses),
		Form: FormData{
			Description: s.Form.Description,
			Amount:      s.Form.Amount,
		},
	}
	for _, k := range core.Kinds() {
		d.Form.Kinds = append(d.Form.Kinds, Option{Value: string(k), Label: k.Label(), Selected: k == s.Form.Kind})
	}
	for _, c := range core.Categories() {
		d.Form.Categories = append(d.Form.Categories, Option{Value: string(c), Label: c.Label(), Selected: c == s.Form.Category})
	}
	for _, tx := range s.Ledger.All() {
		d.Rows = append(d.Rows, Row{
			ID:          tx.ID,
			Description: tx.Description,
			Category:    tx.Category.Label(),
			Date:        tx.Date,
			Amount:      FormatAmount(tx.Amount),
			Income:      tx.IsIncome(),
		})
	}
	return d
}

func buildAnalytics(s app.State, layout chart.Layout) (AnalyticsData, error) {
	trend := s.Ledger.TrendSeries()
	labels := make([]string, 0, len(trend))
	income := make([]float64, 0, len(trend))
	expenses := make([]float64, 0, len(trend))
	for _, p := range trend {
		labels = append(labels, p.Label)
		in, _ := p.Income.Float64()
		ex, _ := p.Expenses.Float64()
		income = append(income, in)
		expenses = append(expenses, ex)
	}
	c, err := chart.Plot(labels, []chart.Series{
		{Name: IncomeName, Color: IncomeColor, Values: income},
		{Name: ExpensesName, Color: ExpensesColor, Values: expenses},
	}, layout, FormatNumber)
	if err != nil {
		return AnalyticsData{}, fmt.Errorf("plot trend: %w", err)
	}
	return AnalyticsData{
		Chart: c,
		Legend: []LegendItem{
			{Name: IncomeName, Color: IncomeColor},
			{Name: ExpensesName, Color: ExpensesColor},
		},
	}, nil
}
