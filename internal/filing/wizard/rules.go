package wizard

import (
	"slices"

	"taxfile/internal/filing/models"
)

// DependencyRule clears a set of fields whenever its condition stops holding
// after a mutation of Trigger. Rules are declared here and evaluated by the
// FormState, never by the code that handles an individual edit.
type DependencyRule struct {
	Name    string
	Trigger models.Field
	Holds   func(s *FormState) bool
	Clears  []models.Field
}

// WhenSelected keeps clears only while id is selected in list.
func WhenSelected(list models.Field, id string, clears ...models.Field) DependencyRule {
	return DependencyRule{
		Name:    string(list) + ":" + id,
		Trigger: list,
		Holds: func(s *FormState) bool {
			return slices.Contains(s.List(list), id)
		},
		Clears: clears,
	}
}

// WhenEquals keeps clears only while field holds value.
func WhenEquals(field models.Field, value string, clears ...models.Field) DependencyRule {
	return DependencyRule{
		Name:    string(field) + "=" + value,
		Trigger: field,
		Holds: func(s *FormState) bool {
			return s.Text(field) == value
		},
		Clears: clears,
	}
}

// DefaultRules returns the dependency rules of the filing wizard:
//   - an unchecked income source clears its amount (salary also clears the
//     employer withholding),
//   - an unchecked deduction clears its amount,
//   - a nationality other than "Other" clears the two residency questions.
func DefaultRules() []DependencyRule {
	var rules []DependencyRule
	for _, source := range models.IncomeSources {
		amount, _ := models.IncomeAmountField(source)
		clears := []models.Field{amount}
		if source == models.SourceSalary {
			clears = append(clears, models.FieldTaxDeductedBySalaryEmployer)
		}
		rules = append(rules, WhenSelected(models.FieldIncomeSources, source, clears...))
	}
	for _, deduction := range models.Deductions {
		amount, _ := models.DeductionAmountField(deduction)
		rules = append(rules, WhenSelected(models.FieldDeductions, deduction, amount))
	}
	rules = append(rules, WhenEquals(models.FieldNationality, models.NationalityOther,
		models.FieldStayedOver183Days, models.FieldHasPakistanSourceIncome))
	return rules
}

// applyRules evaluates every rule triggered by f and, transitively, by the
// fields those rules clear. Each field triggers at most once per mutation.
func (s *FormState) applyRules(f models.Field) {
	pending := []models.Field{f}
	seen := map[models.Field]bool{}
	for len(pending) > 0 {
		trigger := pending[0]
		pending = pending[1:]
		if seen[trigger] {
			continue
		}
		seen[trigger] = true

		for _, rule := range s.rules {
			if rule.Trigger != trigger || rule.Holds(s) {
				continue
			}
			for _, cleared := range rule.Clears {
				if !s.Has(cleared) {
					continue
				}
				s.values[cleared] = emptyValue(models.KindOf(cleared))
				pending = append(pending, cleared)
			}
		}
	}
}
