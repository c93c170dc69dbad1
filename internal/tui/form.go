package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"budgetbook/internal/core"
	"budgetbook/internal/services"
)

// addValues is bound to the add-transaction form.
type addValues struct {
	Date        string
	Group       string
	Category    string
	Amount      string
	Description string
}

func newAddValues(date core.Date) *addValues {
	return &addValues{Date: date.String(), Group: string(core.GroupExpense)}
}

// newAddForm builds the add-transaction form. Category names are offered as
// suggestions; a new name creates the category with the chosen group.
func newAddForm(vals *addValues, categories []core.Category) *huh.Form {
	groups := make([]huh.Option[string], 0, len(core.Groups))
	for _, g := range core.Groups {
		groups = append(groups, huh.NewOption(string(g), string(g)))
	}
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Date").
				Placeholder("YYYY-MM-DD").
				Value(&vals.Date).
				Validate(func(s string) error {
					_, err := core.ParseDate(s)
					return err
				}),
			huh.NewSelect[string]().
				Title("Group").
				Options(groups...).
				Value(&vals.Group),
			huh.NewInput().
				Title("Category").
				Suggestions(names).
				Value(&vals.Category).
				Validate(func(s string) error {
					if core.NormalizeName(s) == "" {
						return core.ErrEmptyCategory
					}
					return nil
				}),
			huh.NewInput().
				Title("Amount").
				Placeholder("0.00").
				Value(&vals.Amount).
				Validate(func(s string) error {
					_, err := core.ParseAmount(s)
					return err
				}),
			huh.NewInput().
				Title("Description").
				CharLimit(200).
				Value(&vals.Description),
		),
	).WithShowHelp(true)
}

// transaction converts the submitted values.
func (v *addValues) transaction() (services.NewTransaction, error) {
	date, err := core.ParseDate(v.Date)
	if err != nil {
		return services.NewTransaction{}, err
	}
	group, err := core.ParseGroup(v.Group)
	if err != nil {
		return services.NewTransaction{}, err
	}
	amount, err := core.ParseAmount(v.Amount)
	if err != nil {
		return services.NewTransaction{}, fmt.Errorf("amount %q: %w", v.Amount, err)
	}
	return services.NewTransaction{
		Date:        date,
		Group:       group,
		Category:    v.Category,
		Amount:      amount,
		Description: strings.TrimSpace(v.Description),
	}, nil
}
