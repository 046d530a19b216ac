package reports

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/camden-git/adminconsole/database"
	"github.com/camden-git/adminconsole/models"
)

// UserReportSheet is the name of the worksheet holding the user report
const UserReportSheet = "Usuarios"

// ContentType of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// tableHeaderRow is the first row of the user table, below the company header
const tableHeaderRow = 7

var userReportHeaders = []string{"ID", "Nombre", "Apellido", "Correo", "Rol", "Estado", "Fecha de creación"}

// UserReportMeta is printed above the table
type UserReportMeta struct {
	Company     *models.Company
	GeneratedAt time.Time
	From, To    *time.Time
}

// BuildUserReport lays out the company header and the user rows in a new workbook
func BuildUserReport(meta UserReportMeta, rows []database.UserReportRow) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", UserReportSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name report sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create title style: %w", err)
	}

	company := meta.Company
	if company == nil {
		company = &models.Company{}
	}
	f.SetCellValue(UserReportSheet, "A1", company.Name)
	f.SetCellStyle(UserReportSheet, "A1", "A1", title)
	f.SetCellValue(UserReportSheet, "A2", fmt.Sprintf("Tel: %s  Correo: %s", company.Phone, company.Email))
	f.SetCellValue(UserReportSheet, "A3", company.Address)
	f.SetCellValue(UserReportSheet, "A4", "Reporte de Usuarios")
	f.SetCellStyle(UserReportSheet, "A4", "A4", bold)
	f.SetCellValue(UserReportSheet, "A5", "Generado: "+meta.GeneratedAt.Format("02/01/2006 15:04"))
	if meta.From != nil || meta.To != nil {
		f.SetCellValue(UserReportSheet, "C5", "Rango: "+formatDay(meta.From)+" - "+formatDay(meta.To))
	}

	for i, header := range userReportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableHeaderRow)
		f.SetCellValue(UserReportSheet, cell, header)
	}
	last, _ := excelize.CoordinatesToCellName(len(userReportHeaders), tableHeaderRow)
	f.SetCellStyle(UserReportSheet, fmt.Sprintf("A%d", tableHeaderRow), last, bold)

	for i, u := range rows {
		row := tableHeaderRow + 1 + i
		f.SetCellValue(UserReportSheet, fmt.Sprintf("A%d", row), u.ID)
		f.SetCellValue(UserReportSheet, fmt.Sprintf("B%d", row), u.Name)
		f.SetCellValue(UserReportSheet, fmt.Sprintf("C%d", row), u.LastName)
		f.SetCellValue(UserReportSheet, fmt.Sprintf("D%d", row), u.Email)
		f.SetCellValue(UserReportSheet, fmt.Sprintf("E%d", row), u.RoleName)
		f.SetCellValue(UserReportSheet, fmt.Sprintf("F%d", row), u.Status)
		if !u.CreatedAt.IsZero() {
			f.SetCellValue(UserReportSheet, fmt.Sprintf("G%d", row), u.CreatedAt.Format("02/01/2006"))
		}
	}
	f.SetColWidth(UserReportSheet, "B", "G", 20)
	return f, nil
}

// WriteUserReport builds the workbook and streams it to w
func WriteUserReport(w io.Writer, meta UserReportMeta, rows []database.UserReportRow) error {
	f, err := BuildUserReport(meta, rows)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

// FileName returns the attachment name for a report generated at t
func FileName(t time.Time) string {
	return fmt.Sprintf("reporte_usuarios_%s.xlsx", t.Format("20060102_150405"))
}

func formatDay(t *time.Time) string {
	if t == nil {
		return "..."
	}
	return t.Format("02/01/2006")
}
