package services

import "fmt"

// TemplateField describes one column in the bulk order import workbook.
type TemplateField struct {
	Key          string // canonical snake_case name produced by the normalizer
	Label        string // human-readable header written to the template
	Description  string // shown on the Instructions sheet
	FormatRule   string // e.g. "YYYY-MM-DD", "Number"
	ExampleValue string // shown on the Instructions sheet
	Core         bool   // must be filled in every row
}

// CoreKeys is the ordered set of fields every row must fill.
var CoreKeys = []string{
	"partner_name",
	"payment_mode",
	"plan",
	"order_no",
	"client_name",
	"client_cnic",
	"client_dob",
	"client_gender",
	"client_mobile",
	"client_email",
	"client_address",
	"client_city",
	"client_occupation",
	"start_date",
	"expiry_date",
	"premium",
	"beneficiary_name",
	"beneficiary_relation",
}

// NumericFields are coerced to numbers by the normalizer.
var NumericFields = []string{
	"premium",
	"rider1_sum_assured",
	"rider2_sum_assured",
}

// RiderGroup pairs a rider's coverage name with its sum assured; either both
// or neither must be filled.
type RiderGroup struct {
	Slot            string
	CoveredField    string
	SumAssuredField string
}

// RiderGroups lists the two rider pairs in declaration order.
var RiderGroups = []RiderGroup{
	{Slot: "rider1", CoveredField: "rider1_covered", SumAssuredField: "rider1_sum_assured"},
	{Slot: "rider2", CoveredField: "rider2_covered", SumAssuredField: "rider2_sum_assured"},
}

// BeneficiaryGroup is one spouse or kid slot. Fields holds every column of
// the slot in declaration order; Required is the subset that becomes
// mandatory once any field of the slot is filled.
type BeneficiaryGroup struct {
	Slot            string // "spouse", "spouse1", "kid3", ...
	DefaultRelation string
	Fields          []string
	Required        []string
}

// Field returns the slot's column for a beneficiary attribute, e.g.
// Field("dob") on slot "kid2" is "kid2_dob".
func (g BeneficiaryGroup) Field(attr string) string {
	return g.Slot + "_" + attr
}

// SpouseGroups covers the base spouse plus spouse1..spouse3. All six fields
// are required once any of them is filled.
var SpouseGroups = spouseGroups()

// KidGroups covers kid1..kid8. Name, dob, relationship and gender are
// required once any field is filled; cnic and cnic_issue_date stay optional.
var KidGroups = kidGroups()

// DateFields holds every key normalized to YYYY-MM-DD.
var DateFields = dateFields()

func spouseGroups() []BeneficiaryGroup {
	slots := []string{"spouse", "spouse1", "spouse2", "spouse3"}
	groups := make([]BeneficiaryGroup, 0, len(slots))
	for _, slot := range slots {
		fields := []string{
			slot + "_name",
			slot + "_cnic",
			slot + "_dob",
			slot + "_relationship",
			slot + "_gender",
			slot + "_cnic_issue_date",
		}
		groups = append(groups, BeneficiaryGroup{
			Slot:            slot,
			DefaultRelation: "Spouse",
			Fields:          fields,
			Required:        fields,
		})
	}
	return groups
}

func kidGroups() []BeneficiaryGroup {
	groups := make([]BeneficiaryGroup, 0, 8)
	for i := 1; i <= 8; i++ {
		slot := fmt.Sprintf("kid%d", i)
		groups = append(groups, BeneficiaryGroup{
			Slot:            slot,
			DefaultRelation: "Child",
			Fields: []string{
				slot + "_name",
				slot + "_dob",
				slot + "_relationship",
				slot + "_gender",
				slot + "_cnic",
				slot + "_cnic_issue_date",
			},
			Required: []string{
				slot + "_name",
				slot + "_dob",
				slot + "_relationship",
				slot + "_gender",
			},
		})
	}
	return groups
}

func dateFields() []string {
	keys := []string{"client_dob"}
	for _, g := range SpouseGroups {
		keys = append(keys, g.Field("dob"), g.Field("cnic_issue_date"))
	}
	for _, g := range KidGroups {
		keys = append(keys, g.Field("dob"), g.Field("cnic_issue_date"))
	}
	return append(keys, "start_date", "expiry_date")
}

var (
	numericFieldSet = toSet(NumericFields)
	dateFieldSet    = toSet(DateFields)
)

// IsNumericField reports whether key is coerced to a number.
func IsNumericField(key string) bool { return numericFieldSet[key] }

// IsDateField reports whether key is coerced to a YYYY-MM-DD date.
func IsDateField(key string) bool { return dateFieldSet[key] }

func toSet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}

// OrderTemplateFields returns every column of the import template in the
// order it is written: core fields, riders, spouses, kids.
func OrderTemplateFields() []TemplateField {
	fields := []TemplateField{
		{Key: "partner_name", Description: "Distribution partner selling the policy", ExampleValue: "Meezan Bank"},
		{Key: "payment_mode", Description: "How the premium is collected", ExampleValue: "Annual"},
		{Key: "plan", Description: "Plan name as configured in the product catalogue", ExampleValue: "Family Health Gold"},
		{Key: "order_no", Description: "Partner order number, unique per order", ExampleValue: "ORD-000123"},
		{Key: "client_name", Description: "Policy holder full name", ExampleValue: "Ali Raza"},
		{Key: "client_cnic", Description: "Policy holder CNIC", FormatRule: "13 digits", ExampleValue: "4210112345671"},
		{Key: "client_dob", Description: "Policy holder date of birth", FormatRule: "Date", ExampleValue: "1985-04-12"},
		{Key: "client_gender", Description: "Policy holder gender", ExampleValue: "Male"},
		{Key: "client_mobile", Description: "Mobile number", ExampleValue: "03001234567"},
		{Key: "client_email", Description: "Email address", ExampleValue: "ali.raza@example.com"},
		{Key: "client_address", Description: "Postal address", ExampleValue: "House 12, Street 4, DHA Phase 5"},
		{Key: "client_city", Description: "City", ExampleValue: "Karachi"},
		{Key: "client_occupation", Description: "Occupation", ExampleValue: "Engineer"},
		{Key: "start_date", Description: "Policy start date", FormatRule: "Date", ExampleValue: "2024-01-01"},
		{Key: "expiry_date", Description: "Policy expiry date", FormatRule: "Date", ExampleValue: "2024-12-31"},
		{Key: "premium", Description: "Premium amount", FormatRule: "Number", ExampleValue: "15000"},
		{Key: "beneficiary_name", Description: "Primary beneficiary name", ExampleValue: "Sara Ali"},
		{Key: "beneficiary_relation", Description: "Primary beneficiary relation to the client", ExampleValue: "Wife"},
	}
	for i := range fields {
		fields[i].Core = true
	}

	for _, r := range RiderGroups {
		fields = append(fields,
			TemplateField{Key: r.CoveredField, Description: "Rider coverage name; requires the sum assured", ExampleValue: "Accidental Death"},
			TemplateField{Key: r.SumAssuredField, Description: "Rider sum assured; requires the coverage name", FormatRule: "Number", ExampleValue: "500000"},
		)
	}
	for _, g := range SpouseGroups {
		fields = append(fields, beneficiaryTemplateFields(g, "all six spouse columns are required once one is filled")...)
	}
	for _, g := range KidGroups {
		fields = append(fields, beneficiaryTemplateFields(g, "name, dob, relationship and gender are required once one is filled")...)
	}

	for i := range fields {
		if fields[i].Label == "" {
			fields[i].Label = FieldLabel(fields[i].Key)
		}
		if fields[i].FormatRule == "" && IsDateField(fields[i].Key) {
			fields[i].FormatRule = "Date"
		}
	}
	return fields
}

func beneficiaryTemplateFields(g BeneficiaryGroup, rule string) []TemplateField {
	out := make([]TemplateField, 0, len(g.Fields))
	for _, key := range g.Fields {
		out = append(out, TemplateField{Key: key, Description: fmt.Sprintf("%s: %s", FieldLabel(g.Slot), rule)})
	}
	return out
}
