package services

import (
	"time"

	"github.com/shopspring/decimal"
)

// Beneficiary is one spouse or kid attached to a policy. Type names the
// source slot ("spouse", "spouse1", "kid3"). Absent attributes are null.
type Beneficiary struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Relation      string  `json:"relation"`
	CNIC          *string `json:"cnic"`
	CNICIssueDate *string `json:"cnic_issue_date"`
	DOB           *string `json:"dob"`
	Gender        *string `json:"gender"`
}

// Rider is an optional cover attached to a policy.
type Rider struct {
	Name       string `json:"name"`
	SumInsured string `json:"sum_insured"`
}

// CreateBulkOrder is one item of the submission batch.
type CreateBulkOrder struct {
	PartnerName         string        `json:"partner_name"`
	PaymentMode         string        `json:"payment_mode"`
	Plan                string        `json:"plan"`
	OrderCode           string        `json:"order_code"`
	CustomerName        string        `json:"customer_name"`
	CustomerCNIC        string        `json:"customer_cnic"`
	CustomerDOB         string        `json:"customer_dob"`
	CustomerGender      string        `json:"customer_gender"`
	CustomerMobile      string        `json:"customer_mobile"`
	CustomerEmail       string        `json:"customer_email"`
	CustomerAddress     string        `json:"customer_address"`
	CustomerCity        string        `json:"customer_city"`
	CustomerOccupation  string        `json:"customer_occupation"`
	IssueDate           string        `json:"issue_date"`
	StartDate           string        `json:"start_date"`
	ExpiryDate          string        `json:"expiry_date"`
	Premium             string        `json:"premium"`
	BeneficiaryName     string        `json:"beneficiary_name"`
	BeneficiaryRelation string        `json:"beneficiary_relation"`
	PolicyDetail        []Beneficiary `json:"policy_detail"`
	Rider               []Rider       `json:"rider"`
}

// OrderBuilder turns validated rows into submission items.
type OrderBuilder struct {
	Validator RowValidator
	Now       func() time.Time
}

// Build maps one row that already passed validation onto a CreateBulkOrder.
// It never fails; fields missing from an unvalidated row come out empty.
func (b OrderBuilder) Build(row NormalizedRow) CreateBulkOrder {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}

	order := CreateBulkOrder{
		PartnerName:         row.Str("partner_name"),
		PaymentMode:         row.Str("payment_mode"),
		Plan:                row.Str("plan"),
		OrderCode:           row.Str("order_no"),
		CustomerName:        row.Str("client_name"),
		CustomerCNIC:        row.Str("client_cnic"),
		CustomerDOB:         row.Str("client_dob"),
		CustomerGender:      row.Str("client_gender"),
		CustomerMobile:      row.Str("client_mobile"),
		CustomerEmail:       row.Str("client_email"),
		CustomerAddress:     row.Str("client_address"),
		CustomerCity:        row.Str("client_city"),
		CustomerOccupation:  row.Str("client_occupation"),
		IssueDate:           now().Format(time.DateOnly),
		StartDate:           row.Str("start_date"),
		ExpiryDate:          row.Str("expiry_date"),
		Premium:             amountString(row, "premium"),
		BeneficiaryName:     row.Str("beneficiary_name"),
		BeneficiaryRelation: row.Str("beneficiary_relation"),
		PolicyDetail:        []Beneficiary{},
		Rider:               []Rider{},
	}

	for _, g := range SpouseGroups {
		if bn, ok := b.beneficiary(row, g); ok {
			order.PolicyDetail = append(order.PolicyDetail, bn)
		}
	}
	for _, g := range KidGroups {
		if bn, ok := b.beneficiary(row, g); ok {
			order.PolicyDetail = append(order.PolicyDetail, bn)
		}
	}

	for _, r := range RiderGroups {
		if !b.Validator.IsFilled(row, r.CoveredField) {
			continue
		}
		order.Rider = append(order.Rider, Rider{
			Name:       row.Str(r.CoveredField),
			SumInsured: amountString(row, r.SumAssuredField),
		})
	}

	return order
}

func (b OrderBuilder) beneficiary(row NormalizedRow, g BeneficiaryGroup) (Beneficiary, bool) {
	if !b.Validator.IsFilled(row, g.Field("name")) {
		return Beneficiary{}, false
	}
	relation := row.Str(g.Field("relationship"))
	if relation == "" {
		relation = g.DefaultRelation
	}
	return Beneficiary{
		Name:          row.Str(g.Field("name")),
		Type:          g.Slot,
		Relation:      relation,
		CNIC:          optional(row, g.Field("cnic")),
		CNICIssueDate: optional(row, g.Field("cnic_issue_date")),
		DOB:           optional(row, g.Field("dob")),
		Gender:        optional(row, g.Field("gender")),
	}, true
}

func optional(row NormalizedRow, key string) *string {
	v, ok := row[key]
	if !ok {
		return nil
	}
	s := v.String()
	return &s
}

// amountString renders a numeric field as a decimal string; absent amounts
// are "0".
func amountString(row NormalizedRow, key string) string {
	v, ok := row[key]
	if !ok {
		return "0"
	}
	if v.Kind == KindNumber {
		return decimal.NewFromFloat(v.Number).String()
	}
	if d, err := decimal.NewFromString(v.Text); err == nil {
		return d.String()
	}
	return v.Text
}
