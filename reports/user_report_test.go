package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/camden-git/adminconsole/database"
	"github.com/camden-git/adminconsole/models"
)

func TestWriteUserReport(t *testing.T) {
	generated := time.Date(2024, 5, 20, 9, 30, 0, 0, time.UTC)
	meta := UserReportMeta{
		Company:     &models.Company{Name: "Acme S.A.", Phone: "555-0100", Email: "info@acme.test", Address: "Av. Central 1"},
		GeneratedAt: generated,
	}
	rows := []database.UserReportRow{
		{ID: 1, Name: "Ana", LastName: "Pérez", Email: "ana@example.com", RoleName: "Ventas", Status: "Activo", CreatedAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Name: "Bruno", Email: "bruno@corp.com", Status: "Inactivo"},
	}

	var buf bytes.Buffer
	if err := WriteUserReport(&buf, meta, rows); err != nil {
		t.Fatalf("WriteUserReport() failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() failed: %v", err)
	}
	defer f.Close()

	checks := map[string]string{
		"A1": "Acme S.A.",
		"A3": "Av. Central 1",
		"A4": "Reporte de Usuarios",
		"A5": "Generado: 20/05/2024 09:30",
		"B7": "Nombre",
		"B8": "Ana",
		"D8": "ana@example.com",
		"E8": "Ventas",
		"G8": "10/01/2024",
		"B9": "Bruno",
		"F9": "Inactivo",
		"G9": "",
	}
	for cell, want := range checks {
		got, err := f.GetCellValue(UserReportSheet, cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s) failed: %v", cell, err)
		}
		if got != want {
			t.Errorf("cell %s = %q, want %q", cell, got, want)
		}
	}
}

func TestBuildUserReportWithoutCompany(t *testing.T) {
	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	f, err := BuildUserReport(UserReportMeta{GeneratedAt: time.Now(), From: &from}, nil)
	if err != nil {
		t.Fatalf("BuildUserReport() failed: %v", err)
	}
	defer f.Close()

	got, _ := f.GetCellValue(UserReportSheet, "C5")
	if got != "Rango: 01/02/2024 - ..." {
		t.Errorf("range cell = %q", got)
	}
	if rows, _ := f.GetRows(UserReportSheet); len(rows) != tableHeaderRow {
		t.Errorf("rows = %d, want only the header block", len(rows))
	}
}

func TestFileName(t *testing.T) {
	got := FileName(time.Date(2024, 5, 20, 9, 30, 5, 0, time.UTC))
	if got != "reporte_usuarios_20240520_093005.xlsx" {
		t.Errorf("FileName() = %q", got)
	}
}
