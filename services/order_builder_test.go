package services

import (
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

func fixedNow() time.Time {
	return time.Date(2026, 10, 17, 15, 30, 0, 0, time.UTC)
}

func TestBuild_ScalarMapping(t *testing.T) {
	order := OrderBuilder{Now: fixedNow}.Build(validRow())

	checks := []struct {
		name, got, want string
	}{
		{"order_code", order.OrderCode, "ORD-1001"},
		{"customer_name", order.CustomerName, "Ayesha Khan"},
		{"customer_cnic", order.CustomerCNIC, "3520212345671"},
		{"customer_dob", order.CustomerDOB, "1988-04-12"},
		{"issue_date", order.IssueDate, "2026-10-17"},
		{"start_date", order.StartDate, "2026-01-01"},
		{"premium", order.Premium, "12500"},
		{"beneficiary_relation", order.BeneficiaryRelation, "Husband"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
	if len(order.PolicyDetail) != 0 || len(order.Rider) != 0 {
		t.Errorf("expected empty beneficiary and rider lists, got %+v %+v", order.PolicyDetail, order.Rider)
	}
}

func TestBuild_PremiumDecimalString(t *testing.T) {
	row := validRow()
	row["premium"] = Number(1250.5)
	if got := (OrderBuilder{}).Build(row).Premium; got != "1250.5" {
		t.Errorf("premium = %q, want 1250.5", got)
	}
}

func TestBuild_BeneficiarySlotOrder(t *testing.T) {
	row := validRow()
	row["kid2_name"] = Text("Sam")
	row["spouse_name"] = Text("Jane")

	order := OrderBuilder{}.Build(row)
	if len(order.PolicyDetail) != 2 {
		t.Fatalf("expected 2 beneficiaries, got %+v", order.PolicyDetail)
	}
	if order.PolicyDetail[0].Type != "spouse" || order.PolicyDetail[1].Type != "kid2" {
		t.Errorf("types = %q, %q; want spouse, kid2", order.PolicyDetail[0].Type, order.PolicyDetail[1].Type)
	}
	if order.PolicyDetail[0].Relation != "Spouse" {
		t.Errorf("spouse relation = %q, want default Spouse", order.PolicyDetail[0].Relation)
	}
	if order.PolicyDetail[1].Relation != "Child" {
		t.Errorf("kid relation = %q, want default Child", order.PolicyDetail[1].Relation)
	}
}

func TestBuild_BeneficiaryFieldsCopied(t *testing.T) {
	row := validRow()
	row["kid1_name"] = Text("Sam")
	row["kid1_dob"] = Text("2015-05-05")
	row["kid1_relationship"] = Text("Son")
	row["kid1_gender"] = Text("Male")

	b := OrderBuilder{}.Build(row).PolicyDetail[0]
	if b.Relation != "Son" {
		t.Errorf("relation = %q, want Son", b.Relation)
	}
	if b.DOB == nil || *b.DOB != "2015-05-05" {
		t.Errorf("dob = %v", b.DOB)
	}
	if b.CNIC != nil || b.CNICIssueDate != nil {
		t.Errorf("absent cnic fields should be nil, got %v %v", b.CNIC, b.CNICIssueDate)
	}

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"cnic":null`) {
		t.Errorf("expected cnic to serialize as null: %s", data)
	}
}

func TestBuild_SlotWithoutNameSkipped(t *testing.T) {
	row := validRow()
	row["spouse3_gender"] = Text("Male")
	if got := (OrderBuilder{}).Build(row).PolicyDetail; len(got) != 0 {
		t.Errorf("expected no beneficiaries, got %+v", got)
	}
}

func TestBuild_Riders(t *testing.T) {
	row := validRow()
	row["rider1_covered"] = Text("Accidental Death")
	row["rider1_sum_assured"] = Number(500000)
	row["rider2_covered"] = Text("Hospital Cash")

	riders := OrderBuilder{}.Build(row).Rider
	if len(riders) != 2 {
		t.Fatalf("expected 2 riders, got %+v", riders)
	}
	if riders[0] != (Rider{Name: "Accidental Death", SumInsured: "500000"}) {
		t.Errorf("rider1 = %+v", riders[0])
	}
	if riders[1] != (Rider{Name: "Hospital Cash", SumInsured: "0"}) {
		t.Errorf("rider2 = %+v", riders[1])
	}
}

func TestBuild_WireShape(t *testing.T) {
	data, err := json.Marshal(OrderBuilder{Now: fixedNow}.Build(validRow()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, frag := range []string{
		`"order_code":"ORD-1001"`,
		`"premium":"12500"`,
		`"issue_date":"2026-10-17"`,
		`"policy_detail":[]`,
		`"rider":[]`,
	} {
		if !strings.Contains(string(data), frag) {
			t.Errorf("expected %s in %s", frag, data)
		}
	}
}
