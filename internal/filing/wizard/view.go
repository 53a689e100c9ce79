package wizard

import (
	"taxfile/internal/filing/models"
)

// View is the read-only window a step predicate gets onto the form state. It
// records every field read that the step did not declare, which is how
// CheckDeclarations proves predicates stay inside their declared inputs.
type View struct {
	state      *FormState
	declared   map[models.Field]bool
	undeclared map[models.Field]bool
}

func newView(state *FormState, reads []models.Field) *View {
	declared := make(map[models.Field]bool, len(reads))
	for _, f := range reads {
		declared[f] = true
	}
	return &View{state: state, declared: declared, undeclared: map[models.Field]bool{}}
}

func (v *View) touch(f models.Field) {
	if !v.declared[f] {
		v.undeclared[f] = true
	}
}

func (v *View) Text(f models.Field) string {
	v.touch(f)
	return v.state.Text(f)
}

func (v *View) Amount(f models.Field) models.Amount {
	v.touch(f)
	return v.state.Amount(f)
}

func (v *View) Flag(f models.Field) models.Flag {
	v.touch(f)
	return v.state.Flag(f)
}

func (v *View) List(f models.Field) []string {
	v.touch(f)
	return v.state.List(f)
}

func (v *View) Credits() models.Credits {
	v.touch(models.FieldTaxCredits)
	return v.state.Credits()
}

// Checks collects field messages; the first message per key wins.
type Checks struct {
	errs map[string]string
}

// Fail records msg for key unless key already failed.
func (c *Checks) Fail(key string, msg string) {
	if c.errs == nil {
		c.errs = map[string]string{}
	}
	if _, exists := c.errs[key]; !exists {
		c.errs[key] = msg
	}
}

// FailField is Fail keyed by a schema field.
func (c *Checks) FailField(f models.Field, msg string) {
	c.Fail(string(f), msg)
}
