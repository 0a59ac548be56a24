package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/Nicksoucy/talentsecure-sub001/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

// Generate renders a catalogue deliverable. Only snapshotted fields are
// printed; sections excluded at generation time are empty and skipped.
func (g *Generator) Generate(catalogue model.Catalogue) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 10, catalogue.Title, "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Genere le %s", formatDate(catalogue.CreatedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	if strings.TrimSpace(catalogue.CustomMessage) != "" {
		pdf.SetFont(g.fontName, "I", 11)
		pdf.MultiCell(0, 6, catalogue.CustomMessage, "", "L", false)
		pdf.Ln(2)
	}

	for i, item := range catalogue.Items {
		if i > 0 {
			pdf.Ln(4)
		}
		g.addCandidateBlock(pdf, item.Snapshot)
	}

	if catalogue.IsContentRestricted {
		pdf.Ln(6)
		pdf.SetFont(g.fontName, "I", 9)
		pdf.SetTextColor(120, 120, 120)
		pdf.MultiCell(0, 5, "Acces restreint : coordonnees et documents disponibles sur demande.", "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) addCandidateBlock(pdf *gofpdf.Fpdf, snapshot model.CandidateSnapshot) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, snapshot.FullName, "B", 1, "L", false, 0, "")

	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("%s, %s", snapshot.City, snapshot.Province), "", 1, "L", false, 0, "")

	rows := []struct {
		label string
		value string
	}{
		{"Courriel", snapshot.ContactEmail},
		{"Telephone", snapshot.ContactPhone},
		{"Profil", snapshot.Summary},
		{"Experience", snapshot.Experience},
		{"Mises en situation", snapshot.SituationalAnswers},
		{"CV", snapshot.CVURL},
		{"Video", snapshot.VideoURL},
	}
	for _, row := range rows {
		if strings.TrimSpace(row.value) == "" {
			continue
		}
		pdf.SetFont(g.fontName, "B", 10)
		pdf.CellFormat(40, 5, row.label, "", 0, "L", false, 0, "")
		pdf.SetFont(g.fontName, "", 10)
		pdf.MultiCell(0, 5, row.value, "", "L", false)
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("02.01.2006")
}
