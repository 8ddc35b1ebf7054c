package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"bulkorder/config"
	"bulkorder/services"
	"bulkorder/views"
)

const recentUploadsLimit = 10

// HandleOrderImportPage renders the upload form and the recent uploads.
// Route: GET /orders/import
func HandleOrderImportPage(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		recent, err := services.RecentUploads(app, recentUploadsLimit)
		if err != nil {
			log.Printf("order_import_page: %v", err)
		}
		data := views.ImportPageData{
			MaxUploadMB:   cfg.MaxUploadMB,
			RecentUploads: recent,
		}
		return views.ImportPage(data).Render(e.Request.Context(), e.Response)
	}
}

// HandleOrderTemplateDownload serves the blank import workbook.
// Route: GET /orders/import/template
func HandleOrderTemplateDownload() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		xlsxBytes, err := services.GenerateOrderTemplate()
		if err != nil {
			log.Printf("order_template: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		writeAttachment(e, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			"Bulk_Order_Template.xlsx", xlsxBytes)
		return nil
	}
}

// HandleOrderValidate receives a workbook, runs it through the pipeline and
// returns either the error report or the batch for review.
// Route: POST /orders/import
func HandleOrderValidate(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		limit := cfg.MaxUploadBytes()
		e.Request.Body = http.MaxBytesReader(e.Response, e.Request.Body, limit+(1<<20))
		if err := e.Request.ParseMultipartForm(limit); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "File too large or invalid form data")
		}

		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Please select a file to upload")
		}
		defer file.Close()

		if header.Size > limit {
			return ErrorToast(e, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File is larger than %d MB", cfg.MaxUploadMB))
		}

		in := services.NewIngestion(cfg.IngestOptions())
		if err := in.Load(file, header.Filename); err != nil {
			log.Printf("order_validate: %v", err)
		}
		snap := in.Snapshot()

		uploadID, err := services.SaveUpload(app, snap)
		if err != nil {
			log.Printf("order_validate: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		switch snap.State {
		case services.StateRejected:
			SetToast(e, ToastError, "Upload rejected. See the error report.")
		case services.StateReadyForReview:
			if len(snap.Errors) > 0 {
				SetToast(e, ToastWarning, fmt.Sprintf("%d order(s) ready, %d row(s) excluded", len(snap.Batch), snap.TotalRows-snap.ValidRows))
			} else {
				SetToast(e, ToastSuccess, fmt.Sprintf("%d order(s) ready for review", len(snap.Batch)))
			}
		}

		return views.ValidationResults(views.UploadView{UploadID: uploadID, Snapshot: snap}).
			Render(e.Request.Context(), e.Response)
	}
}

// HandleOrderSubmit sends a reviewed batch to the order endpoint once.
// Route: POST /orders/import/{uploadId}/submit
func HandleOrderSubmit(app *pocketbase.PocketBase, opts services.Options, submitter services.OrderSubmitter) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		uploadID := e.Request.PathValue("uploadId")

		snap, err := services.ClaimUploadForSubmit(app, uploadID)
		switch {
		case errors.Is(err, services.ErrSubmissionInFlight):
			return ErrorToast(e, http.StatusConflict, "This batch is already being submitted")
		case errors.Is(err, services.ErrNotReady):
			return ErrorToast(e, http.StatusConflict, "This upload has no batch ready for submission")
		case err != nil:
			log.Printf("order_submit: claim %s: %v", uploadID, err)
			return ErrorToast(e, http.StatusNotFound, "Upload not found")
		}

		in := services.RestoreIngestion(opts, snap)
		result, submitErr := in.Submit(context.WithoutCancel(e.Request.Context()), submitter)
		final := in.Snapshot()

		persistErr := services.UpdateUpload(app, uploadID, final)
		if persistErr != nil {
			log.Printf("order_submit: persist %s (state %s, idempotency key %s): %v",
				uploadID, final.State, final.IdempotencyKey, persistErr)
		}

		switch {
		case submitErr != nil:
			log.Printf("order_submit: %s: %v", uploadID, submitErr)
			SetToast(e, ToastError, "Submission failed. No orders were confirmed.")
		case persistErr != nil:
			SetToast(e, ToastWarning, fmt.Sprintf(
				"%d created, %d failed, but the outcome could not be saved. Keep this page as the record.",
				len(result.SuccessResults), len(result.FailedResults)))
		default:
			if _, err := services.SaveOrderResults(app, uploadID, result); err != nil {
				log.Printf("order_submit: save results %s: %v", uploadID, err)
			}
			SetToast(e, ToastSuccess, fmt.Sprintf("%d created, %d failed",
				len(result.SuccessResults), len(result.FailedResults)))
		}

		return views.SubmitResults(views.UploadView{UploadID: uploadID, Snapshot: final}).
			Render(e.Request.Context(), e.Response)
	}
}

// HandleOrderReset discards an upload cycle. An upload stuck in submission
// can be discarded once its claim is older than staleAfter.
// Route: POST /orders/import/{uploadId}/reset
func HandleOrderReset(app *pocketbase.PocketBase, staleAfter time.Duration) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		uploadID := e.Request.PathValue("uploadId")

		err := services.DeleteUpload(app, uploadID, staleAfter)
		switch {
		case errors.Is(err, services.ErrSubmissionInFlight):
			return ErrorToast(e, http.StatusConflict, "A submission is in progress and cannot be discarded")
		case err != nil:
			log.Printf("order_reset: %v", err)
			return ErrorToast(e, http.StatusNotFound, "Upload not found")
		}

		SetToast(e, ToastSuccess, "Upload discarded")
		return e.HTML(http.StatusOK, "")
	}
}

// HandleOrderErrorReport downloads the validation errors of an upload as .xlsx.
// Route: GET /orders/import/{uploadId}/errors
func HandleOrderErrorReport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		snap, err := services.LoadUpload(app, e.Request.PathValue("uploadId"))
		if err != nil {
			return ErrorToast(e, http.StatusNotFound, "Upload not found")
		}
		if len(snap.Errors) == 0 {
			return ErrorToast(e, http.StatusNotFound, "This upload has no validation errors")
		}

		xlsxBytes, err := services.GenerateErrorReport(snap.Errors)
		if err != nil {
			log.Printf("order_error_report: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		filename := fmt.Sprintf("Order_Errors_%s.xlsx", time.Now().Format("2006-01-02"))
		writeAttachment(e, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", filename, xlsxBytes)
		return nil
	}
}

// HandleOrderResultReport downloads the submission outcome as a PDF.
// Route: GET /orders/import/{uploadId}/report
func HandleOrderResultReport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		snap, err := services.LoadUpload(app, e.Request.PathValue("uploadId"))
		if err != nil {
			return ErrorToast(e, http.StatusNotFound, "Upload not found")
		}
		if snap.State != services.StateSubmitted || snap.Result == nil {
			return ErrorToast(e, http.StatusConflict, "This upload has not been submitted")
		}

		pdfBytes, err := services.GenerateResultPDF(services.ResultReportData{
			FileName:       snap.FileName,
			IdempotencyKey: snap.IdempotencyKey,
			GeneratedAt:    time.Now().Format("02 Jan 2006 15:04"),
			Batch:          snap.Batch,
			Result:         *snap.Result,
		})
		if err != nil {
			log.Printf("order_result_report: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		filename := fmt.Sprintf("Order_Results_%s.pdf", time.Now().Format("2006-01-02"))
		writeAttachment(e, "application/pdf", filename, pdfBytes)
		return nil
	}
}

func writeAttachment(e *core.RequestEvent, contentType, filename string, body []byte) {
	e.Response.Header().Set("Content-Type", contentType)
	e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if _, err := e.Response.Write(body); err != nil {
		log.Printf("download %s: %v", filename, err)
	}
}
