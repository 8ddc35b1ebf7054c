package services

import (
	"bytes"
	"context"
	"sync"
)

// bytesReader wraps a byte slice in a bytes.Reader for use with excelize.OpenReader.
func bytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

// validRow returns a normalized row that passes every check.
func validRow() NormalizedRow {
	return NormalizedRow{
		"partner_name":         Text("Acme Bancassurance"),
		"payment_mode":         Text("Annual"),
		"plan":                 Text("Family Health Gold"),
		"order_no":             Text("ORD-1001"),
		"client_name":          Text("Ayesha Khan"),
		"client_cnic":          Text("3520212345671"),
		"client_dob":           Text("1988-04-12"),
		"client_gender":        Text("Female"),
		"client_mobile":        Text("03001234567"),
		"client_email":         Text("ayesha@example.com"),
		"client_address":       Text("12 Canal View"),
		"client_city":          Text("Lahore"),
		"client_occupation":    Text("Engineer"),
		"start_date":           Text("2026-01-01"),
		"expiry_date":          Text("2026-12-31"),
		"premium":              Number(12500),
		"beneficiary_name":     Text("Imran Khan"),
		"beneficiary_relation": Text("Husband"),
	}
}

// validRawRow returns validRow as it would arrive from a spreadsheet.
func validRawRow(orderNo string) RawRow {
	return RawRow{
		"Partner Name":         "Acme Bancassurance",
		"Payment Mode":         "Annual",
		"Plan":                 "Family Health Gold",
		"Order No":             orderNo,
		"Client Name":          "Ayesha Khan",
		"Client CNIC":          "3520212345671",
		"Client DOB":           "1988-04-12",
		"Client Gender":        "Female",
		"Client Mobile":        "03001234567",
		"Client Email":         "ayesha@example.com",
		"Client Address":       "12 Canal View",
		"Client City":          "Lahore",
		"Client Occupation":    "Engineer",
		"Start Date":           "2026-01-01",
		"Expiry Date":          "2026-12-31",
		"Premium":              12500.0,
		"Beneficiary Name":     "Imran Khan",
		"Beneficiary Relation": "Husband",
	}
}

// fakeSubmitter records calls and returns a canned outcome.
type fakeSubmitter struct {
	mu     sync.Mutex
	calls  int
	keys   []string
	result *BatchResult
	err    error
	block  chan struct{}
}

func (f *fakeSubmitter) SubmitBulkOrders(ctx context.Context, batch []CreateBulkOrder, idempotencyKey string) (*BatchResult, error) {
	f.mu.Lock()
	f.calls++
	f.keys = append(f.keys, idempotencyKey)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return f.result, f.err
}
