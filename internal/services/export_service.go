package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/rmejia/cobranza-api/internal/models"
	"github.com/rmejia/cobranza-api/pkg/money"
	"github.com/xuri/excelize/v2"
)

type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

func statusLabel(status string) string {
	if models.NormalizeCollectionStatus(status) == models.CollectionStatusComplete {
		return "Completado"
	}
	return "Pendiente"
}

func exportKindLabel(kind string) string {
	if kind == models.CollectionKindCheque {
		return "Cheque"
	}
	return "Crédito"
}

func (s *ExportService) ExportCSV(ctx context.Context, collections []models.Collection, totals Totals) ([]byte, string, error) {
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Reporte de Cobros", time.Now().Format("2006-01-02 15:04")})
	_ = writer.Write([]string{""})

	_ = writer.Write([]string{"Resumen"})
	_ = writer.Write([]string{"Pendiente Total", fmt.Sprintf("%.2f", totals.TotalPending)})
	_ = writer.Write([]string{"Completado Total", fmt.Sprintf("%.2f", totals.TotalComplete)})
	_ = writer.Write([]string{"Pendiente Crédito", fmt.Sprintf("%.2f", totals.PendingCredit)})
	_ = writer.Write([]string{"Pendiente Cheque", fmt.Sprintf("%.2f", totals.PendingCheque)})
	_ = writer.Write([]string{"Vencido", fmt.Sprintf("%.2f (%d)", totals.OverdueAmount, totals.OverdueCount)})
	_ = writer.Write([]string{"Por Vencer", fmt.Sprintf("%.2f (%d)", totals.DueSoonAmount, totals.DueSoonCount)})
	_ = writer.Write([]string{""})

	_ = writer.Write([]string{"Orden", "Cliente", "Tipo", "Monto", "Estado", "Fecha", "Notas"})
	for _, c := range collections {
		date := ""
		if eff := c.EffectiveDate(); eff != nil {
			date = eff.Format("2006-01-02")
		}
		_ = writer.Write([]string{
			c.OrderID,
			c.Customer.Name,
			exportKindLabel(c.Kind),
			fmt.Sprintf("%.2f", c.Amount),
			statusLabel(c.Status),
			date,
			c.Notes,
		})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("cobros_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func (s *ExportService) ExportXLSX(ctx context.Context, collections []models.Collection, totals Totals) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Cobros"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", "Reporte de Cobros")
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)
	_ = f.SetCellValue(sheet, "A2", time.Now().Format("2006-01-02 15:04"))

	_ = f.SetCellValue(sheet, "A4", "Pendiente Total")
	_ = f.SetCellValue(sheet, "B4", totals.TotalPending)
	_ = f.SetCellValue(sheet, "A5", "Completado Total")
	_ = f.SetCellValue(sheet, "B5", totals.TotalComplete)
	_ = f.SetCellValue(sheet, "A6", "Pendiente Crédito")
	_ = f.SetCellValue(sheet, "B6", totals.PendingCredit)
	_ = f.SetCellValue(sheet, "A7", "Pendiente Cheque")
	_ = f.SetCellValue(sheet, "B7", totals.PendingCheque)
	_ = f.SetCellValue(sheet, "A8", "Vencido")
	_ = f.SetCellValue(sheet, "B8", totals.OverdueAmount)
	_ = f.SetCellValue(sheet, "A9", "Por Vencer")
	_ = f.SetCellValue(sheet, "B9", totals.DueSoonAmount)

	headers := []string{"Orden", "Cliente", "Tipo", "Monto", "Estado", "Fecha", "Notas"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 11)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for row, c := range collections {
		date := ""
		if eff := c.EffectiveDate(); eff != nil {
			date = eff.Format("2006-01-02")
		}
		values := []interface{}{c.OrderID, c.Customer.Name, exportKindLabel(c.Kind), c.Amount, statusLabel(c.Status), date, c.Notes}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+12)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("cobros_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func (s *ExportService) ExportPDF(ctx context.Context, collections []models.Collection, totals Totals) ([]byte, string, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, "Reporte de Cobros")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 6, time.Now().Format("2006-01-02 15:04"))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 9)
	pdf.Cell(60, 6, fmt.Sprintf("Pendiente: %s", money.Format(totals.TotalPending)))
	pdf.Cell(60, 6, fmt.Sprintf("Completado: %s", money.Format(totals.TotalComplete)))
	pdf.Cell(60, 6, fmt.Sprintf("Vencido: %s (%d)", money.Format(totals.OverdueAmount), totals.OverdueCount))
	pdf.Ln(10)

	headers := []string{"Orden", "Cliente", "Tipo", "Monto", "Estado", "Fecha"}
	widths := []float64{45, 60, 25, 35, 30, 30}
	pdf.SetFillColor(224, 224, 224)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, c := range collections {
		date := ""
		if eff := c.EffectiveDate(); eff != nil {
			date = eff.Format("2006-01-02")
		}
		cells := []string{c.OrderID, c.Customer.Name, exportKindLabel(c.Kind), money.Format(c.Amount), statusLabel(c.Status), date}
		for i, v := range cells {
			pdf.CellFormat(widths[i], 6, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("cobros_%s.pdf", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}
