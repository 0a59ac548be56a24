package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Nicksoucy/talentsecure-sub001/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate writes the order book: one summary sheet plus one line sheet.
func (g *Generator) Generate(orders []model.Order) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Orders"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeOrders(file, summarySheet, orders); err != nil {
		return nil, err
	}

	linesSheet := "Lines"
	file.NewSheet(linesSheet)
	if err := g.writeLines(file, linesSheet, orders); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeOrders(file *excelize.File, sheet string, orders []model.Order) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Order ID", "Client ID", "Status", "Lines", "Total", "Created", "Updated"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, order := range orders {
		row := i + 2
		set(fmt.Sprintf("A%d", row), order.ID.String())
		set(fmt.Sprintf("B%d", row), order.ClientID.String())
		set(fmt.Sprintf("C%d", row), string(order.Status))
		set(fmt.Sprintf("D%d", row), len(order.Lines))
		set(fmt.Sprintf("E%d", row), order.TotalAmount)
		set(fmt.Sprintf("F%d", row), order.CreatedAt.Format("2006-01-02 15:04"))
		set(fmt.Sprintf("G%d", row), order.UpdatedAt.Format("2006-01-02 15:04"))
	}

	_ = file.SetColWidth(sheet, "A", "B", 38)
	_ = file.SetColWidth(sheet, "C", "G", 16)
	return nil
}

func (g *Generator) writeLines(file *excelize.File, sheet string, orders []model.Order) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Order ID", "City", "Province", "Tier", "Quantity", "Unit Price", "Line Total", "Notes"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	row := 2
	for _, order := range orders {
		for _, line := range order.Lines {
			set(fmt.Sprintf("A%d", row), order.ID.String())
			set(fmt.Sprintf("B%d", row), line.City)
			set(fmt.Sprintf("C%d", row), line.Province)
			set(fmt.Sprintf("D%d", row), string(line.Tier))
			set(fmt.Sprintf("E%d", row), line.Quantity)
			set(fmt.Sprintf("F%d", row), line.UnitPrice)
			set(fmt.Sprintf("G%d", row), line.TotalPrice)
			set(fmt.Sprintf("H%d", row), line.Notes)
			row++
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 38)
	_ = file.SetColWidth(sheet, "B", "H", 16)
	return nil
}
