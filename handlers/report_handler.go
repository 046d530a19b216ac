package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/camden-git/adminconsole/database"
	"github.com/camden-git/adminconsole/editor"
	"github.com/camden-git/adminconsole/models"
	"github.com/camden-git/adminconsole/reports"
	"github.com/camden-git/adminconsole/repository"
)

const reportDateLayout = "2006-01-02"

type ReportHandler struct {
	DB          *sql.DB
	CompanyRepo repository.CompanyRepository
	PageSize    int
	now         func() time.Time
}

func NewReportHandler(db *sql.DB, companyRepo repository.CompanyRepository, pageSize int) *ReportHandler {
	return &ReportHandler{DB: db, CompanyRepo: companyRepo, PageSize: pageSize, now: time.Now}
}

// UserReportResponse is the JSON form of the user report
type UserReportResponse struct {
	Company     *models.Company `json:"empresa"`
	GeneratedAt time.Time       `json:"generado"`
	PaginatedResponse
}

// parseReportFilter reads q, desde, hasta, orden and activos from the query string
func parseReportFilter(r *http.Request) (database.UserReportFilter, *editor.ValidationError) {
	q := r.URL.Query()
	filter := database.UserReportFilter{
		Search:     q.Get("q"),
		SortOrder:  q.Get("orden"),
		ActiveOnly: q.Get("activos") == "true",
	}
	verr := &editor.ValidationError{}

	parseDay := func(field string) *time.Time {
		raw := q.Get(field)
		if raw == "" {
			return nil
		}
		d, err := time.Parse(reportDateLayout, raw)
		if err != nil {
			verr.Add(field, "Must be a date formatted as "+reportDateLayout)
			return nil
		}
		return &d
	}
	filter.From = parseDay("desde")
	filter.To = parseDay("hasta")

	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		verr.Add("hasta", "End date cannot be before start date")
	}
	if filter.SortOrder == "" {
		filter.SortOrder = database.DefaultSortOrder
	} else if !database.IsValidSortOrder(filter.SortOrder) {
		verr.Add("orden", "Must be one of: name_asc name_nat date_desc date_asc")
	}

	if len(verr.Fields) > 0 {
		return filter, verr
	}
	return filter, nil
}

func (h *ReportHandler) company() *models.Company {
	company, err := h.CompanyRepo.Get()
	if err != nil {
		if !repository.IsNotFound(err) {
			log.Printf("Warning: failed to load company for report header: %v", err)
		}
		return &models.Company{}
	}
	return company
}

// UserReport serves the user report as JSON, or as an .xlsx attachment when formato=xlsx.
func (h *ReportHandler) UserReport(w http.ResponseWriter, r *http.Request) {
	filter, verr := parseReportFilter(r)
	if verr != nil {
		WriteValidationError(w, verr)
		return
	}

	rows, err := database.QueryUserReport(r.Context(), h.DB, filter)
	if err != nil {
		writeDomainError(w, err, "failed to build user report")
		return
	}
	generatedAt := h.now()
	company := h.company()

	if r.URL.Query().Get("formato") == "xlsx" {
		meta := reports.UserReportMeta{Company: company, GeneratedAt: generatedAt, From: filter.From, To: filter.To}
		w.Header().Set("Content-Type", reports.ContentType)
		w.Header().Set("Content-Disposition", "attachment; filename="+reports.FileName(generatedAt))
		if err := reports.WriteUserReport(w, meta, rows); err != nil {
			log.Printf("Error writing user report: %v", err)
		}
		return
	}

	page := pageFromRequest(r, h.PageSize)
	start := page.Offset()
	if start > len(rows) {
		start = len(rows)
	}
	end := start + page.Size
	if end > len(rows) {
		end = len(rows)
	}
	writeJSON(w, http.StatusOK, UserReportResponse{
		Company:           company,
		GeneratedAt:       generatedAt,
		PaginatedResponse: newPaginatedResponse(rows[start:end], int64(len(rows)), page),
	})
}
