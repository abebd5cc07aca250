package services

import (
	"bytes"
	"context"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/rmejia/cobranza-api/internal/repository"
	"github.com/rmejia/cobranza-api/pkg/money"
)

// ReportService renders the printable aging report handed to collectors on
// their morning route.
type ReportService struct {
	collectionRepo repository.CollectionRepository
}

func NewReportService(collectionRepo repository.CollectionRepository) *ReportService {
	return &ReportService{collectionRepo: collectionRepo}
}

type agingReportRow struct {
	OrderID  string
	Customer string
	Phone    string
	Kind     string
	Amount   string
	AgeDays  int
	Bucket   string
}

type agingReportData struct {
	GeneratedAt string
	Overdue     []agingReportRow
	DueSoon     []agingReportRow
	TotalOver   string
	TotalSoon   string
}

var agingReportTemplate = template.Must(template.New("aging").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><style>
body { font-family: Helvetica, sans-serif; font-size: 12px; }
h1 { font-size: 18px; } h2 { font-size: 14px; margin-top: 24px; }
table { width: 100%; border-collapse: collapse; }
th, td { border: 1px solid #999; padding: 4px 6px; text-align: left; }
th { background: #e0e0e0; }
</style></head>
<body>
<h1>Reporte de Antigüedad de Cobros</h1>
<p>Generado: {{.GeneratedAt}}</p>
<h2>Vencidos ({{.TotalOver}})</h2>
<table><tr><th>Orden</th><th>Cliente</th><th>Teléfono</th><th>Tipo</th><th>Monto</th><th>Días</th></tr>
{{range .Overdue}}<tr><td>{{.OrderID}}</td><td>{{.Customer}}</td><td>{{.Phone}}</td><td>{{.Kind}}</td><td>{{.Amount}}</td><td>{{.AgeDays}}</td></tr>{{end}}
</table>
<h2>Por vencer ({{.TotalSoon}})</h2>
<table><tr><th>Orden</th><th>Cliente</th><th>Teléfono</th><th>Tipo</th><th>Monto</th><th>Días</th></tr>
{{range .DueSoon}}<tr><td>{{.OrderID}}</td><td>{{.Customer}}</td><td>{{.Phone}}</td><td>{{.Kind}}</td><td>{{.Amount}}</td><td>{{.AgeDays}}</td></tr>{{end}}
</table>
</body>
</html>`))

// GenerateAgingPDF builds the overdue / due-soon report as a PDF.
// Requires the wkhtmltopdf binary on the host.
func (s *ReportService) GenerateAgingPDF(ctx context.Context) ([]byte, error) {
	collections, err := s.collectionRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	data := agingReportData{GeneratedAt: now.Format("2006-01-02 15:04")}
	var totalOver, totalSoon float64

	for i := range collections {
		c := &collections[i]
		if !c.IsPending() {
			continue
		}
		row := agingReportRow{
			OrderID:  c.OrderID,
			Customer: c.Customer.Name,
			Phone:    c.Customer.Phone,
			Kind:     exportKindLabel(c.Kind),
			Amount:   money.Format(c.Amount),
			AgeDays:  AgeDays(c, now),
		}
		switch ClassifyAging(c, now) {
		case AgingOverdue:
			data.Overdue = append(data.Overdue, row)
			totalOver += c.Amount
		case AgingDueSoon:
			data.DueSoon = append(data.DueSoon, row)
			totalSoon += c.Amount
		}
	}
	data.TotalOver = money.Format(totalOver)
	data.TotalSoon = money.Format(totalSoon)

	var html bytes.Buffer
	if err := agingReportTemplate.Execute(&html, data); err != nil {
		return nil, err
	}

	generator, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, err
	}
	page := wkhtmltopdf.NewPageReader(&html)
	page.EnableLocalFileAccess.Set(true)
	generator.AddPage(page)
	generator.Orientation.Set(wkhtmltopdf.OrientationPortrait)

	if err := generator.Create(); err != nil {
		return nil, err
	}
	return generator.Bytes(), nil
}

// AgingSummary is the dashboard-facing aggregation of pending collections.
type AgingSummary struct {
	OnTimeCount  int     `json:"on_time_count"`
	DueSoonCount int     `json:"due_soon_count"`
	OverdueCount int     `json:"overdue_count"`
	OnTimeTotal  float64 `json:"on_time_total"`
	DueSoonTotal float64 `json:"due_soon_total"`
	OverdueTotal float64 `json:"overdue_total"`
}

// GetAgingSummary classifies every pending collection as of now.
func (s *ReportService) GetAgingSummary(ctx context.Context) (*AgingSummary, error) {
	collections, err := s.collectionRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	summary := &AgingSummary{}
	for i := range collections {
		c := &collections[i]
		if !c.IsPending() {
			continue
		}
		switch ClassifyAging(c, now) {
		case AgingOverdue:
			summary.OverdueCount++
			summary.OverdueTotal = money.Round(summary.OverdueTotal + c.Amount)
		case AgingDueSoon:
			summary.DueSoonCount++
			summary.DueSoonTotal = money.Round(summary.DueSoonTotal + c.Amount)
		default:
			summary.OnTimeCount++
			summary.OnTimeTotal = money.Round(summary.OnTimeTotal + c.Amount)
		}
	}
	return summary, nil
}
