package logs

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"

	"depalletconsole/models"
)

// RenderOrderTrailPDF renders the log entries of one order on A4 pages, headed
// by the order id as a Code128 barcode.
func RenderOrderTrailPDF(orderID string, entries []models.LogEntry, printedAt time.Time) ([]byte, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("order id is required")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Order Trail "+orderID, true)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(latin1(s)) }

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 12, text("ORDER "+orderID), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, "Printed: "+printedAt.Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")

	if value := barcodeValue(orderID); value != "" {
		barcodePNG, err := renderCode128PNG(value, 900, 200)
		if err != nil {
			return nil, err
		}
		opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader("order-barcode", opt, bytes.NewReader(barcodePNG))
		pageW, _ := pdf.GetPageSize()
		imgW, imgH := 120.0, 28.0
		y := pdf.GetY() + 4
		pdf.ImageOptions("order-barcode", (pageW-imgW)/2, y, imgW, imgH, false, opt, 0, "")
		pdf.SetY(y + imgH + 2)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 7, value, "", 1, "C", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(40, 8, "Time", "B", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, "Event", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if len(entries) == 0 {
		pdf.CellFormat(0, 8, "No events recorded for this order.", "", 1, "L", false, 0, "")
	}
	for _, e := range entries {
		y := pdf.GetY()
		pdf.CellFormat(40, 6, e.Timestamp.Format("02/01/2006 15:04:05"), "", 0, "L", false, 0, "")
		pdf.SetXY(pdf.GetX(), y)
		pdf.MultiCell(0, 6, text(e.Message), "", "L", false)
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// barcodeValue keeps the printable ASCII of an order id, which is all Code128
// set B can carry.
func barcodeValue(orderID string) string {
	var b strings.Builder
	for _, r := range orderID {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// latin1 replaces runes the core PDF fonts cannot draw.
func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xff {
			return '?'
		}
		return r
	}, s)
}

func renderCode128PNG(value string, width, height int) ([]byte, error) {
	code, err := code128.Encode(value)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, toNRGBA(scaled)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}
