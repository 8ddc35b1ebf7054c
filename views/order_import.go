// Package views renders the bulk order import screens. Markup lives in the
// .templ files; run `templ generate` after editing them.
package views

import (
	"fmt"
	"net/url"
	"strings"

	"bulkorder/services"
)

// ImportPageData feeds the upload page.
type ImportPageData struct {
	MaxUploadMB   int
	RecentUploads []services.UploadSummary
}

// UploadView is one upload cycle as shown in the review and result panels.
type UploadView struct {
	UploadID string
	Snapshot services.Snapshot
}

func uploadPath(uploadID, action string) string {
	return "/orders/import/" + url.PathEscape(uploadID) + "/" + action
}

func batchResult(s services.Snapshot) services.BatchResult {
	if s.Result == nil {
		return services.BatchResult{}
	}
	return *s.Result
}

func beneficiaryList(bs []services.Beneficiary) string {
	if len(bs) == 0 {
		return "-"
	}
	parts := make([]string, len(bs))
	for i, b := range bs {
		parts[i] = fmt.Sprintf("%s (%s)", b.Name, b.Type)
	}
	return strings.Join(parts, ", ")
}

func stateLabel(s services.IngestState) string {
	switch s {
	case services.StateRejected:
		return "Rejected"
	case services.StateReadyForReview:
		return "Ready for review"
	case services.StateSubmitting:
		return "Submitting"
	case services.StateSubmitted:
		return "Submitted"
	case services.StateSubmitFailed:
		return "Submit failed"
	default:
		return string(s)
	}
}
