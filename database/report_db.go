package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/facette/natsort"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// UserReportFilter narrows the user report
type UserReportFilter struct {
	Search     string     // matched against name, last name and email, case-insensitive
	From       *time.Time // creation date, inclusive (day precision)
	To         *time.Time // creation date, inclusive (day precision)
	ActiveOnly bool
	SortOrder  string
}

// UserReportRow is one line of the user report
type UserReportRow struct {
	ID        int64     `json:"id"`
	Name      string    `json:"nombre"`
	LastName  string    `json:"apellido"`
	Email     string    `json:"correo"`
	Status    string    `json:"estado"`
	RoleName  string    `json:"rol"`
	CreatedAt time.Time `json:"fechaCreacion"`
}

// FullName joins name and last name
func (r UserReportRow) FullName() string {
	return strings.TrimSpace(r.Name + " " + r.LastName)
}

// startOfDay truncates to midnight UTC; timestamps are stored and compared in UTC
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func buildUserReportQuery(f UserReportFilter) sq.SelectBuilder {
	q := psql.Select("u.id", "u.name", "u.last_name", "u.email", "u.status",
		"COALESCE(r.name, '')", "u.created_at").
		From("users u").
		LeftJoin("roles r ON r.id = u.role_id")

	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		pattern := "%" + search + "%"
		q = q.Where(sq.Or{
			sq.Like{"LOWER(u.name)": pattern},
			sq.Like{"LOWER(u.last_name)": pattern},
			sq.Like{"LOWER(u.email)": pattern},
		})
	}
	if f.From != nil {
		q = q.Where(sq.GtOrEq{"u.created_at": startOfDay(*f.From)})
	}
	if f.To != nil {
		q = q.Where(sq.Lt{"u.created_at": startOfDay(*f.To).AddDate(0, 0, 1)})
	}
	if f.ActiveOnly {
		q = q.Where(sq.Eq{"u.status": "Activo"})
	}

	switch f.SortOrder {
	case SortDateDesc:
		q = q.OrderBy("u.created_at DESC", "u.id DESC")
	case SortDateAsc:
		q = q.OrderBy("u.created_at ASC", "u.id ASC")
	default:
		q = q.OrderBy("u.name ASC", "u.last_name ASC", "u.id ASC")
	}
	return q
}

// QueryUserReport runs the user report against the users/roles tables.
func QueryUserReport(ctx context.Context, db *sql.DB, f UserReportFilter) ([]UserReportRow, error) {
	sqlStr, args, err := buildUserReportQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for QueryUserReport: %w", err)
	}

	rows, err := db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute QueryUserReport query: %w", err)
	}
	defer rows.Close()

	report := []UserReportRow{}
	for rows.Next() {
		var r UserReportRow
		if err := rows.Scan(&r.ID, &r.Name, &r.LastName, &r.Email, &r.Status, &r.RoleName, &r.CreatedAt); err != nil {
			log.Printf("Error scanning user report row: %v", err)
			continue
		}
		report = append(report, r)
	}
	if err = rows.Err(); err != nil {
		return report, fmt.Errorf("error iterating user report rows: %w", err)
	}

	if f.SortOrder == SortNameNat {
		sort.SliceStable(report, func(i, j int) bool {
			return natsort.Compare(report[i].FullName(), report[j].FullName())
		})
	}
	return report, nil
}
