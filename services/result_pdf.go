package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// ResultReportData holds everything printed on the submission result PDF.
type ResultReportData struct {
	FileName       string
	IdempotencyKey string
	GeneratedAt    string
	Batch          []CreateBulkOrder
	Result         BatchResult
}

// GenerateResultPDF renders the per-order outcome of a submitted batch.
func GenerateResultPDF(data ResultReportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addResultHeader(m, data)
	addResultSummary(m, data)

	if len(data.Result.FailedResults) > 0 {
		addResultSection(m, "Failed Orders", data.Result.FailedResults, &props.Color{Red: 220, Green: 38, Blue: 38})
	}
	if len(data.Result.SuccessResults) > 0 {
		addResultSection(m, "Created Orders", data.Result.SuccessResults, &props.Color{Red: 22, Green: 163, Blue: 74})
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

// addResultHeader adds the title, file name and generation date.
func addResultHeader(m core.Maroto, data ResultReportData) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New("Bulk Order Submission Report", props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	grey := &props.Color{Red: 80, Green: 80, Blue: 80}
	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(
				text.New(fmt.Sprintf("File: %s", data.FileName), props.Text{Size: 9, Align: align.Left, Color: grey}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("Generated: %s", data.GeneratedAt), props.Text{Size: 9, Align: align.Right, Color: grey}),
			),
		),
	)
	if data.IdempotencyKey != "" {
		m.AddRows(
			row.New(6).Add(
				col.New(12).Add(
					text.New(fmt.Sprintf("Batch key: %s", data.IdempotencyKey), props.Text{Size: 7, Align: align.Left, Color: grey}),
				),
			),
		)
	}
	m.AddRows(row.New(4))
}

// addResultSummary adds the order counts and total premium block.
func addResultSummary(m core.Maroto, data ResultReportData) {
	summaryCell := &props.Cell{BackgroundColor: &props.Color{Red: 240, Green: 240, Blue: 240}}
	labelStyle := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Left}
	valueStyle := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}

	lines := []struct {
		label string
		value string
	}{
		{"Orders submitted", fmt.Sprintf("%d", len(data.Batch))},
		{"Orders created", fmt.Sprintf("%d", len(data.Result.SuccessResults))},
		{"Orders failed", fmt.Sprintf("%d", len(data.Result.FailedResults))},
		{"Total premium submitted", FormatAmount(TotalPremium(data.Batch))},
	}
	for _, l := range lines {
		m.AddRows(
			row.New(8).Add(
				col.New(8).Add(text.New(l.label, labelStyle)).WithStyle(summaryCell),
				col.New(4).Add(text.New(l.value, valueStyle)).WithStyle(summaryCell),
			),
		)
	}
	m.AddRows(row.New(6))
}

// addResultSection adds a titled table of order outcomes.
func addResultSection(m core.Maroto, title string, results []OrderResult, accent *props.Color) {
	m.AddRows(
		row.New(8).Add(
			col.New(12).Add(
				text.New(title, props.Text{Size: 11, Style: fontstyle.Bold, Color: accent}),
			),
		),
	)

	headerCell := &props.Cell{BackgroundColor: &props.Color{Red: 33, Green: 37, Blue: 41}}
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Left,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	m.AddRows(
		row.New(7).Add(
			col.New(3).Add(text.New("Order Code", headerText)).WithStyle(headerCell),
			col.New(2).Add(text.New("Status", headerText)).WithStyle(headerCell),
			col.New(7).Add(text.New("Message", headerText)).WithStyle(headerCell),
		),
	)

	cellText := props.Text{Size: 8, Align: align.Left}
	for i, r := range results {
		c3 := col.New(3).Add(text.New(r.OrderCode, cellText))
		c2 := col.New(2).Add(text.New(r.Status, cellText))
		c7 := col.New(7).Add(text.New(r.Message, cellText))
		if i%2 == 1 {
			stripe := &props.Cell{BackgroundColor: &props.Color{Red: 245, Green: 245, Blue: 245}}
			c3, c2, c7 = c3.WithStyle(stripe), c2.WithStyle(stripe), c7.WithStyle(stripe)
		}
		m.AddRows(row.New(6).Add(c3, c2, c7))
	}
	m.AddRows(row.New(6))
}
