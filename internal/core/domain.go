package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense Kind = "expense"
	Income  Kind = "income"
)

const (
	General        Category = "general"
	Food           Category = "food"
	Transportation Category = "transportation"
	Housing        Category = "housing"
	Utilities      Category = "utilities"
	Entertainment  Category = "entertainment"
	Healthcare     Category = "healthcare"
	Savings        Category = "savings"
)

const (
	Dashboard View = "dashboard"
	Analytics View = "analytics"
)

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// DateLayout is the he-IL short date form, e.g. 5.3.2025.
const DateLayout = "2.1.2006"

type (
	// Kind is the direction chosen on the entry form.
	Kind string

	// Category is one of the fixed spending categories.
	Category string

	// View selects which panel the page renders.
	View string

	// Theme selects one of the two static color schemes.
	Theme string

	Transaction struct {
		ID          string
		Description string
		Amount      Amount // negative for expenses
		Category    Category
		Date        string // formatted with DateLayout at creation
		CreatedAt   time.Time
	}

	// Form holds the raw entry fields as the user typed them.
	Form struct {
		Description string
		Amount      string
		Kind        Kind
		Category    Category
	}
)

var ErrUnknownView = errors.New("unknown view")

// categories lists every category in display order.
var categories = []Category{
	General,
	Food,
	Transportation,
	Housing,
	Utilities,
	Entertainment,
	Healthcare,
	Savings,
}

var categoryLabels = map[Category]string{
	General:        "כללי",
	Food:           "מזון",
	Transportation: "תחבורה",
	Housing:        "דיור",
	Utilities:      "חשבונות",
	Entertainment:  "בידור",
	Healthcare:     "בריאות",
	Savings:        "חסכונות",
}

var kindLabels = map[Kind]string{
	Expense: "הוצאה",
	Income:  "הכנסה",
}

// Categories returns all categories in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// ParseCategory maps a form key to a Category, falling back to General.
func ParseCategory(s string) Category {
	c := Category(strings.TrimSpace(s))
	if _, ok := categoryLabels[c]; ok {
		return c
	}
	return General
}

// Label returns the Hebrew display label.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return categoryLabels[General]
}

// Kinds returns the selectable kinds in form order.
func Kinds() []Kind {
	return []Kind{Expense, Income}
}

// ParseKind maps a form value to a Kind. Anything but "income" is an expense.
func ParseKind(s string) Kind {
	if Kind(strings.TrimSpace(s)) == Income {
		return Income
	}
	return Expense
}

func (k Kind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return kindLabels[Expense]
}

// ParseView accepts only the two known views.
func ParseView(s string) (View, error) {
	switch v := View(strings.TrimSpace(s)); v {
	case Dashboard, Analytics:
		return v, nil
	default:
		return "", ErrUnknownView
	}
}

// ParseTheme falls back to Light for anything unrecognised.
func ParseTheme(s string) Theme {
	if Theme(strings.TrimSpace(s)) == Dark {
		return Dark
	}
	return Light
}

// Toggle flips between the two themes.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// NewForm returns the initial form: empty fields, expense, general.
func NewForm() Form {
	return Form{Kind: Expense, Category: General}
}

// Ready reports whether both required fields are present.
func (f Form) Ready() bool {
	return f.Description != "" && f.Amount != ""
}

// Cleared keeps the kind and category selection and empties the typed fields.
func (f Form) Cleared() Form {
	return Form{Kind: f.Kind, Category: f.Category}
}

// NewTransaction builds a record from a ready form. The caller checks Ready.
func NewTransaction(id string, f Form, at time.Time) Transaction {
	return Transaction{
		ID:          id,
		Description: f.Description,
		Amount:      ParseAmount(f.Amount).Signed(f.Kind),
		Category:    f.Category,
		Date:        at.Format(DateLayout),
		CreatedAt:   at,
	}
}

// IsIncome reports whether the transaction shows as income in the list.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}
