package wizard

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"taxfile/internal/filing/models"
	pstrings "taxfile/pkg/platform/strings"
)

// FormState is the single source of truth for every wizard field. Each value
// is held in the shape its schema kind declares; Set rejects anything else.
// Dependency rules run inside the store after each mutation of their trigger.
//
// A FormState is not safe for concurrent use.
type FormState struct {
	values map[models.Field]any
	rules  []DependencyRule
}

// NewFormState returns an empty state governed by the default dependency rules.
func NewFormState() *FormState {
	return newFormState(DefaultRules())
}

func newFormState(rules []DependencyRule) *FormState {
	return &FormState{
		values: make(map[models.Field]any),
		rules:  rules,
	}
}

// Has reports whether f has ever been written (cleared fields stay present).
func (s *FormState) Has(f models.Field) bool {
	_, ok := s.values[f]
	return ok
}

// Get returns a copy of the value of f in its schema shape. Unwritten fields
// return the empty value of their kind and ok=false.
func (s *FormState) Get(f models.Field) (any, bool) {
	v, ok := s.values[f]
	if !ok {
		return emptyValue(models.KindOf(f)), false
	}
	return copyValue(v), true
}

// Text returns a text field, "" when unset.
func (s *FormState) Text(f models.Field) string {
	v, _ := s.values[f].(string)
	return v
}

// Amount returns an amount field, empty when unset.
func (s *FormState) Amount(f models.Field) models.Amount {
	v, _ := s.values[f].(models.Amount)
	return v
}

// Flag returns a flag field, unanswered when unset.
func (s *FormState) Flag(f models.Field) models.Flag {
	v, _ := s.values[f].(models.Flag)
	return v
}

// List returns a copy of a list field, never nil.
func (s *FormState) List(f models.Field) []string {
	v, _ := s.values[f].([]string)
	return append([]string{}, v...)
}

// Credits returns a copy of the tax-credit entries with every type present.
func (s *FormState) Credits() models.Credits {
	v, _ := s.values[models.FieldTaxCredits].(models.Credits)
	return v.Clone()
}

// Set validates value against the schema of f and stores it. Set replaces the
// previous value, except for tax credits, which are merged by credit type.
// On error nothing is stored.
func (s *FormState) Set(f models.Field, value any) error {
	kind := models.KindOf(f)
	if kind == 0 {
		return &models.FieldError{Field: f, Code: models.FieldErrUnknown, Message: "unknown field"}
	}

	coerced, err := coerce(f, kind, value)
	if err != nil {
		return err
	}
	if kind == models.KindCredits {
		merged := s.Credits()
		for ct, entry := range coerced.(models.Credits) {
			merged[ct] = entry
		}
		coerced = merged
	}

	s.values[f] = coerced
	s.applyRules(f)
	return nil
}

// ToggleInArray includes or excludes id in list field f. The list never holds
// an identifier twice, whatever order toggles arrive in.
func (s *FormState) ToggleInArray(f models.Field, id string, included bool) error {
	if models.KindOf(f) != models.KindList {
		return &models.FieldError{Field: f, Code: models.FieldErrType, Message: "field is not a multi-select list"}
	}
	id = strings.TrimSpace(id)
	if !models.AllowsOption(f, id) {
		return &models.FieldError{Field: f, Code: models.FieldErrOption, Message: fmt.Sprintf("%q is not a valid option", id)}
	}

	s.values[f] = pstrings.Toggle(s.List(f), id, included)
	s.applyRules(f)
	return nil
}

// Export returns JSON-ready copies of the given fields that have been written.
func (s *FormState) Export(fields []models.Field) map[models.Field]any {
	out := make(map[models.Field]any, len(fields))
	for _, f := range fields {
		if v, ok := s.values[f]; ok {
			out[f] = copyValue(v)
		}
	}
	return out
}

// Import writes a partial state through Set, so every value passes the same
// boundary checks as a user edit. Fields that fail are skipped and reported.
// Fields are imported in name order for determinism.
func (s *FormState) Import(partial map[models.Field]any) []error {
	var errs []error
	for _, f := range slices.Sorted(maps.Keys(partial)) {
		if err := s.Set(f, partial[f]); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Clone returns a deep copy sharing the same rules.
func (s *FormState) Clone() *FormState {
	out := newFormState(s.rules)
	for f, v := range s.values {
		out.values[f] = copyValue(v)
	}
	return out
}

// MarshalJSON renders the state as an object keyed by field name. Map keys are
// sorted by encoding/json, so the output is deterministic.
func (s *FormState) MarshalJSON() ([]byte, error) {
	out := make(map[models.Field]any, len(s.values))
	for f, v := range s.values {
		out[f] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON replaces the state with the decoded object. Values go through
// the schema checks; the first failing field aborts decoding.
func (s *FormState) UnmarshalJSON(b []byte) error {
	var raw map[models.Field]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if s.rules == nil {
		s.rules = DefaultRules()
	}
	s.values = make(map[models.Field]any, len(raw))
	for _, f := range slices.Sorted(maps.Keys(raw)) {
		kind := models.KindOf(f)
		if kind == 0 {
			return &models.FieldError{Field: f, Code: models.FieldErrUnknown, Message: "unknown field"}
		}
		v, err := decodeKind(f, kind, raw[f])
		if err != nil {
			return err
		}
		// Stored values are restored verbatim: rules already ran when they
		// were first written.
		s.values[f] = v
	}
	return nil
}

func decodeKind(f models.Field, kind models.Kind, raw json.RawMessage) (any, error) {
	var generic any
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, &models.FieldError{Field: f, Code: models.FieldErrType, Message: "malformed value"}
	}
	return coerce(f, kind, generic)
}

func emptyValue(kind models.Kind) any {
	switch kind {
	case models.KindText:
		return ""
	case models.KindAmount:
		return models.EmptyAmount()
	case models.KindFlag:
		return models.Flag{}
	case models.KindList:
		return []string{}
	case models.KindCredits:
		return models.Credits{}.Clone()
	default:
		return nil
	}
}

func copyValue(v any) any {
	switch t := v.(type) {
	case []string:
		return append([]string{}, t...)
	case models.Credits:
		return t.Clone()
	default:
		return v
	}
}

func typeError(f models.Field, kind models.Kind, v any) error {
	return &models.FieldError{
		Field:   f,
		Code:    models.FieldErrType,
		Message: fmt.Sprintf("expected %s, got %T", kind, v),
	}
}

// coerce converts an incoming value (typed Go value or generic JSON value) into
// the stored shape of kind, applying per-field normalisation.
func coerce(f models.Field, kind models.Kind, v any) (any, error) {
	switch kind {
	case models.KindText:
		return coerceText(f, v)
	case models.KindAmount:
		return coerceAmount(f, v)
	case models.KindFlag:
		return coerceFlag(f, v)
	case models.KindList:
		return coerceList(f, v)
	case models.KindCredits:
		return coerceCredits(f, v)
	default:
		return nil, typeError(f, kind, v)
	}
}

func coerceText(f models.Field, v any) (any, error) {
	var s string
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		s = strings.TrimSpace(t)
	default:
		return nil, typeError(f, models.KindText, v)
	}
	switch f {
	case models.FieldCNIC:
		s = FormatCNIC(s)
	case models.FieldIBAN:
		s = NormalizeIBAN(s)
	case models.FieldEmail:
		s = strings.ToLower(s)
	}
	return s, nil
}

func coerceAmount(f models.Field, v any) (any, error) {
	var n float64
	switch t := v.(type) {
	case nil:
		return models.EmptyAmount(), nil
	case models.Amount:
		return t, nil
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil, typeError(f, models.KindAmount, v)
		}
		n = parsed
	case string:
		trimmed := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		if trimmed == "" {
			return models.EmptyAmount(), nil
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, &models.FieldError{Field: f, Code: models.FieldErrType, Message: "amount must be a number"}
		}
		n = parsed
	default:
		return nil, typeError(f, models.KindAmount, v)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, &models.FieldError{Field: f, Code: models.FieldErrRange, Message: "amount must be a finite number"}
	}
	return models.AmountOf(n), nil
}

func coerceFlag(f models.Field, v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return models.Flag{}, nil
	case models.Flag:
		return t, nil
	case bool:
		return models.FlagOf(t), nil
	default:
		return nil, typeError(f, models.KindFlag, v)
	}
}

func coerceList(f models.Field, v any) (any, error) {
	var items []string
	switch t := v.(type) {
	case nil:
		return []string{}, nil
	case []string:
		items = t
	case []any:
		items = make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, typeError(f, models.KindList, v)
			}
			items = append(items, s)
		}
	default:
		return nil, typeError(f, models.KindList, v)
	}

	items = pstrings.DedupeAndTrim(items)
	for _, item := range items {
		if !models.AllowsOption(f, item) {
			return nil, &models.FieldError{Field: f, Code: models.FieldErrOption, Message: fmt.Sprintf("%q is not a valid option", item)}
		}
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}

func coerceCredits(f models.Field, v any) (any, error) {
	out := models.Credits{}
	switch t := v.(type) {
	case nil:
		return models.Credits{}.Clone(), nil
	case models.Credits:
		for ct, entry := range t {
			if _, ok := models.ParseCreditType(string(ct)); !ok {
				return nil, creditOptionError(f, string(ct))
			}
			out[ct] = entry
		}
	case map[string]any:
		for key, raw := range t {
			ct, ok := models.ParseCreditType(key)
			if !ok {
				return nil, creditOptionError(f, key)
			}
			entry, err := coerceCreditEntry(f, ct, raw)
			if err != nil {
				return nil, err
			}
			out[ct] = entry
		}
	default:
		return nil, typeError(f, models.KindCredits, v)
	}
	return out, nil
}

func coerceCreditEntry(f models.Field, ct models.CreditType, raw any) (models.CreditEntry, error) {
	switch t := raw.(type) {
	case models.CreditEntry:
		return t, nil
	case map[string]any:
		var entry models.CreditEntry
		if enabled, ok := t["enabled"]; ok && enabled != nil {
			b, ok := enabled.(bool)
			if !ok {
				return models.CreditEntry{}, &models.FieldError{Field: f, Code: models.FieldErrType, Message: string(ct) + ".enabled must be a boolean"}
			}
			entry.Enabled = b
		}
		amount, err := coerceAmount(f, t["amount"])
		if err != nil {
			return models.CreditEntry{}, err
		}
		entry.Amount = amount.(models.Amount)
		return entry, nil
	default:
		return models.CreditEntry{}, &models.FieldError{Field: f, Code: models.FieldErrType, Message: string(ct) + " must be an object with enabled and amount"}
	}
}

func creditOptionError(f models.Field, key string) error {
	return &models.FieldError{Field: f, Code: models.FieldErrOption, Message: fmt.Sprintf("%q is not a credit type", key)}
}
