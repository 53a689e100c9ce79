package wizard

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"taxfile/internal/filing/models"
)

// Predicate inspects the state through v and records failures in c.
type Predicate func(v *View, c *Checks)

// StepDefinition is one screen of the wizard: its place in the order, the
// fields it owns (Writes), every field its predicate may look at (Reads) and
// the predicate itself.
type StepDefinition struct {
	ID     models.StepID
	Label  string
	Reads  []models.Field
	Writes []models.Field

	predicate Predicate
}

// Result is the outcome of validating one step.
type Result struct {
	Valid  bool
	Errors map[string]string
}

// Err converts an invalid result into a StepValidationError.
func (r Result) Err(step StepDefinition) error {
	if r.Valid {
		return nil
	}
	return &models.StepValidationError{Step: step.ID, Label: step.Label, Fields: maps.Clone(r.Errors)}
}

// Registry holds the canonical, fixed order of steps.
type Registry struct {
	steps    []StepDefinition
	taxYears []string
}

// Option configures a Registry.
type Option func(*Registry)

// WithTaxYears sets the tax years a filing may be made for.
func WithTaxYears(years ...string) Option {
	return func(r *Registry) {
		if len(years) > 0 {
			r.taxYears = slices.Clone(years)
		}
	}
}

// DefaultTaxYears returns the last count tax years ending at latest, newest first.
func DefaultTaxYears(latest, count int) []string {
	years := make([]string, 0, count)
	for y := latest; y > latest-count; y-- {
		years = append(years, strconv.Itoa(y))
	}
	return years
}

// NewRegistry builds the step registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{taxYears: DefaultTaxYears(2025, 6)}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.steps = buildSteps(r.taxYears)
	return r
}

// Len returns the number of steps.
func (r *Registry) Len() int { return len(r.steps) }

// Last returns the index of the terminal step.
func (r *Registry) Last() int { return len(r.steps) - 1 }

// TaxYears returns the supported tax years.
func (r *Registry) TaxYears() []string { return slices.Clone(r.taxYears) }

// Steps returns the step definitions in order.
func (r *Registry) Steps() []StepDefinition {
	out := make([]StepDefinition, len(r.steps))
	for i, s := range r.steps {
		s.Reads = slices.Clone(s.Reads)
		s.Writes = slices.Clone(s.Writes)
		out[i] = s
	}
	return out
}

// Step returns the definition of id.
func (r *Registry) Step(id models.StepID) (StepDefinition, bool) {
	if int(id) < 0 || int(id) >= len(r.steps) {
		return StepDefinition{}, false
	}
	return r.steps[id], true
}

// Validate runs the predicate of step id against state. It has no side effects
// and tolerates a partially filled state: unvisited fields read as empty.
func (r *Registry) Validate(id models.StepID, state *FormState) Result {
	step, ok := r.Step(id)
	if !ok {
		return Result{Valid: false, Errors: map[string]string{"step": fmt.Sprintf("unknown step %d", id)}}
	}
	if state == nil {
		state = NewFormState()
	}
	var c Checks
	step.predicate(newView(state, step.Reads), &c)
	if len(c.errs) == 0 {
		return Result{Valid: true, Errors: map[string]string{}}
	}
	return Result{Valid: false, Errors: c.errs}
}

// DeclarationViolation reports a mismatch between a step's declarations and
// what it actually does.
type DeclarationViolation struct {
	Step   models.StepID
	Field  models.Field
	Reason string
}

func (v DeclarationViolation) String() string {
	return fmt.Sprintf("step %d: %s: %s", v.Step, v.Field, v.Reason)
}

// CheckDeclarations verifies the registry against the schema:
//   - every predicate reads only fields listed in its step's Reads, exercised
//     against an empty state and one that activates every conditional branch;
//   - every schema field is written by exactly one step.
func (r *Registry) CheckDeclarations() []DeclarationViolation {
	var violations []DeclarationViolation

	probes := []*FormState{NewFormState(), exhaustiveState(r.taxYears)}
	for _, step := range r.steps {
		undeclared := map[models.Field]bool{}
		for _, probe := range probes {
			v := newView(probe, step.Reads)
			step.predicate(v, &Checks{})
			for f := range v.undeclared {
				undeclared[f] = true
			}
		}
		for _, f := range slices.Sorted(maps.Keys(undeclared)) {
			violations = append(violations, DeclarationViolation{Step: step.ID, Field: f, Reason: "read but not declared"})
		}
	}

	owners := map[models.Field][]models.StepID{}
	for _, step := range r.steps {
		for _, f := range step.Writes {
			owners[f] = append(owners[f], step.ID)
		}
	}
	for _, f := range models.AllFields() {
		switch n := len(owners[f]); {
		case n == 0:
			violations = append(violations, DeclarationViolation{Step: -1, Field: f, Reason: "not written by any step"})
		case n > 1:
			violations = append(violations, DeclarationViolation{Step: owners[f][1], Field: f, Reason: "written by more than one step"})
		}
	}
	return violations
}

// exhaustiveState selects every option so that every conditional read in a
// predicate is reached.
func exhaustiveState(taxYears []string) *FormState {
	s := NewFormState()
	if len(taxYears) > 0 {
		_ = s.Set(models.FieldTaxYear, taxYears[0])
	}
	_ = s.Set(models.FieldNationality, models.NationalityOther)
	_ = s.Set(models.FieldIncomeSources, models.IncomeSources)
	_ = s.Set(models.FieldDeductions, models.Deductions)
	_ = s.Set(models.FieldAssetTypes, models.AssetTypes)
	for _, source := range models.IncomeSources {
		f, _ := models.IncomeAmountField(source)
		_ = s.Set(f, 1000.0)
	}
	_ = s.Set(models.FieldTaxDeductedBySalaryEmployer, 100.0)
	credits := models.Credits{}
	for _, ct := range models.CreditTypes {
		credits[ct] = models.CreditEntry{Enabled: true}
	}
	_ = s.Set(models.FieldTaxCredits, credits)
	return s
}
