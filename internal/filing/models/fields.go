package models

import "slices"

// Field names a single value in the wizard's form state. Names are part of the
// HTTP API and the persisted step data.
type Field string

const (
	FieldTaxYear Field = "taxYear"

	FieldFullName                Field = "fullName"
	FieldEmail                   Field = "email"
	FieldCNIC                    Field = "cnic"
	FieldNationality             Field = "nationality"
	FieldResidentialStatus       Field = "residentialStatus"
	FieldStayedOver183Days       Field = "stayedOver183Days"
	FieldHasPakistanSourceIncome Field = "hasPakistanSourceIncome"

	FieldIncomeSources Field = "incomeSources"

	FieldSalaryIncome                Field = "salaryIncome"
	FieldTaxDeductedBySalaryEmployer Field = "taxDeductedBySalaryEmployer"
	FieldBusinessIncome              Field = "businessIncome"
	FieldRentalIncome                Field = "rentalIncome"
	FieldCapitalGainsIncome          Field = "capitalGainsIncome"
	FieldForeignIncomeAmount         Field = "foreignIncomeAmount"
	FieldOtherIncomeAmount           Field = "otherIncomeAmount"

	FieldDeductions               Field = "deductions"
	FieldZakatAmount              Field = "zakatAmount"
	FieldWorkersWelfareFundAmount Field = "workersWelfareFundAmount"
	FieldHealthInsuranceAmount    Field = "healthInsuranceAmount"

	FieldAssetTypes Field = "assetTypes"

	FieldOpeningWealth Field = "openingWealth"
	FieldClosingWealth Field = "closingWealth"

	FieldTaxCredits Field = "taxCredits"

	FieldBankName     Field = "bankName"
	FieldAccountTitle Field = "accountTitle"
	FieldIBAN         Field = "iban"

	FieldDocuments Field = "documents"

	FieldConsentGiven Field = "consentGiven"
)

// Kind is the fixed value shape of a field.
type Kind int

const (
	KindText Kind = iota + 1
	KindAmount
	KindFlag
	KindList
	KindCredits
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindAmount:
		return "amount"
	case KindFlag:
		return "flag"
	case KindList:
		return "list"
	case KindCredits:
		return "credits"
	default:
		return "unknown"
	}
}

// Option values for selection fields.
const (
	NationalityPakistani = "Pakistani"
	NationalityOther     = "Other"

	StatusResident    = "resident"
	StatusNonResident = "non_resident"
)

// Income source identifiers.
const (
	SourceSalary       = "salary"
	SourceBusiness     = "business"
	SourceRental       = "rental"
	SourceCapitalGains = "capitalGains"
	SourceForeign      = "foreignIncome"
	SourceOther        = "otherIncome"
)

// Deduction identifiers.
const (
	DeductionZakat              = "zakat"
	DeductionWorkersWelfareFund = "workersWelfareFund"
	DeductionHealthInsurance    = "healthInsurance"
)

// Asset type identifiers.
const (
	AssetProperty    = "property"
	AssetVehicle     = "vehicle"
	AssetBankAccount = "bankAccount"
	AssetInvestments = "investments"
	AssetCash        = "cash"
	AssetJewellery   = "jewellery"
)

// IncomeSources lists income sources in display order. Each unlocks the amount
// field returned by IncomeAmountField.
var IncomeSources = []string{
	SourceSalary, SourceBusiness, SourceRental, SourceCapitalGains, SourceForeign, SourceOther,
}

// Deductions lists deduction types in display order.
var Deductions = []string{
	DeductionZakat, DeductionWorkersWelfareFund, DeductionHealthInsurance,
}

// AssetTypes lists declarable asset classes in display order.
var AssetTypes = []string{
	AssetProperty, AssetVehicle, AssetBankAccount, AssetInvestments, AssetCash, AssetJewellery,
}

var incomeAmountFields = map[string]Field{
	SourceSalary:       FieldSalaryIncome,
	SourceBusiness:     FieldBusinessIncome,
	SourceRental:       FieldRentalIncome,
	SourceCapitalGains: FieldCapitalGainsIncome,
	SourceForeign:      FieldForeignIncomeAmount,
	SourceOther:        FieldOtherIncomeAmount,
}

var deductionAmountFields = map[string]Field{
	DeductionZakat:              FieldZakatAmount,
	DeductionWorkersWelfareFund: FieldWorkersWelfareFundAmount,
	DeductionHealthInsurance:    FieldHealthInsuranceAmount,
}

// IncomeAmountField returns the amount field unlocked by an income source.
func IncomeAmountField(source string) (Field, bool) {
	f, ok := incomeAmountFields[source]
	return f, ok
}

// DeductionAmountField returns the amount field unlocked by a deduction.
func DeductionAmountField(deduction string) (Field, bool) {
	f, ok := deductionAmountFields[deduction]
	return f, ok
}

// fieldSpec describes a field's kind and, for list fields, the identifiers it
// may hold. A nil options slice means any non-empty identifier.
type fieldSpec struct {
	kind    Kind
	options []string
}

var schema = map[Field]fieldSpec{
	FieldTaxYear: {kind: KindText},

	FieldFullName:                {kind: KindText},
	FieldEmail:                   {kind: KindText},
	FieldCNIC:                    {kind: KindText},
	FieldNationality:             {kind: KindText},
	FieldResidentialStatus:       {kind: KindText},
	FieldStayedOver183Days:       {kind: KindFlag},
	FieldHasPakistanSourceIncome: {kind: KindFlag},

	FieldIncomeSources: {kind: KindList, options: IncomeSources},

	FieldSalaryIncome:                {kind: KindAmount},
	FieldTaxDeductedBySalaryEmployer: {kind: KindAmount},
	FieldBusinessIncome:              {kind: KindAmount},
	FieldRentalIncome:                {kind: KindAmount},
	FieldCapitalGainsIncome:          {kind: KindAmount},
	FieldForeignIncomeAmount:         {kind: KindAmount},
	FieldOtherIncomeAmount:           {kind: KindAmount},

	FieldDeductions:               {kind: KindList, options: Deductions},
	FieldZakatAmount:              {kind: KindAmount},
	FieldWorkersWelfareFundAmount: {kind: KindAmount},
	FieldHealthInsuranceAmount:    {kind: KindAmount},

	FieldAssetTypes: {kind: KindList, options: AssetTypes},

	FieldOpeningWealth: {kind: KindAmount},
	FieldClosingWealth: {kind: KindAmount},

	FieldTaxCredits: {kind: KindCredits},

	FieldBankName:     {kind: KindText},
	FieldAccountTitle: {kind: KindText},
	FieldIBAN:         {kind: KindText},

	FieldDocuments: {kind: KindList},

	FieldConsentGiven: {kind: KindFlag},
}

// ParseField validates a field name coming from outside the process.
func ParseField(s string) (Field, error) {
	f := Field(s)
	if _, ok := schema[f]; !ok {
		return "", &FieldError{Field: f, Code: FieldErrUnknown, Message: "unknown field"}
	}
	return f, nil
}

// KindOf returns the declared kind of f, or 0 when f is not in the schema.
func KindOf(f Field) Kind {
	return schema[f].kind
}

// ListOptions returns the allowed identifiers for a list field; nil means any
// non-empty identifier is accepted.
func ListOptions(f Field) []string {
	return schema[f].options
}

// AllowsOption reports whether id may be stored in list field f.
func AllowsOption(f Field, id string) bool {
	def, ok := schema[f]
	if !ok || def.kind != KindList || id == "" {
		return false
	}
	if def.options == nil {
		return true
	}
	return slices.Contains(def.options, id)
}

// AllFields returns every schema field sorted by name.
func AllFields() []Field {
	out := make([]Field, 0, len(schema))
	for f := range schema {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}
