package core

import "strings"

// StarterCategories is the seed set written by the first migration.
var StarterCategories = []Category{
	{Name: "Part-time Job", Group: GroupIncome},
	{Name: "Scholarship", Group: GroupIncome},
	{Name: "Other Income", Group: GroupIncome},
	{Name: "Rent", Group: GroupBill},
	{Name: "Phone Plan", Group: GroupBill},
	{Name: "Internet", Group: GroupBill},
	{Name: "Utilities (Water/Elec)", Group: GroupBill},
	{Name: "Health Cover (OSHC)", Group: GroupBill},
	{Name: "Tuition Fees", Group: GroupBill},
	{Name: "Groceries", Group: GroupExpense},
	{Name: "Transport (Myki)", Group: GroupExpense},
	{Name: "Eat Out", Group: GroupExpense},
	{Name: "Shopping", Group: GroupExpense},
	{Name: "Entertainment", Group: GroupExpense},
	{Name: "University Materials", Group: GroupExpense},
	{Name: "International Calls", Group: GroupExpense},
	{Name: "Remittance (Parents)", Group: GroupExpense},
	{Name: "Emergency Fund", Group: GroupSaving},
	{Name: "Travel Fund", Group: GroupSaving},
	{Name: "Return Ticket", Group: GroupSaving},
	{Name: "Student Loan", Group: GroupDebt},
	{Name: "Credit Card", Group: GroupDebt},
}

// CategoryRef is a category name resolved through a Registry.
type CategoryRef struct {
	Category
	Known bool
}

// Registry resolves category names to their group. Names that are not
// registered resolve to the Expense group with Known set to false.
type Registry struct {
	order  []Category
	byName map[string]Category
}

// NewRegistry indexes categories by name, keeping the first occurrence.
func NewRegistry(categories []Category) *Registry {
	r := &Registry{byName: make(map[string]Category, len(categories))}
	for _, c := range categories {
		if _, dup := r.byName[c.Name]; dup {
			continue
		}
		if !c.Group.Valid() {
			c.Group = GroupExpense
		}
		r.byName[c.Name] = c
		r.order = append(r.order, c)
	}
	return r
}

// Resolve returns the category for name, falling back to an unknown Expense entry.
func (r *Registry) Resolve(name string) CategoryRef {
	if c, ok := r.byName[name]; ok {
		return CategoryRef{Category: c, Known: true}
	}
	return CategoryRef{Category: Category{Name: name, Group: GroupExpense}}
}

// GroupOf is shorthand for Resolve(name).Group.
func (r *Registry) GroupOf(name string) Group {
	return r.Resolve(name).Group
}

// Categories returns registered categories in registration order.
func (r *Registry) Categories() []Category {
	out := make([]Category, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered categories.
func (r *Registry) Len() int {
	return len(r.order)
}

// NormalizeName trims a user-entered category name.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
