package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.HolidayStore = (*HolidayRepo)(nil)

// HolidayRepo stores holiday calendars keyed by an upper-case calendar code.
type HolidayRepo struct {
	db *DB
}

// NewHolidayRepo creates a new HolidayRepo backed by the given DB.
func NewHolidayRepo(db *DB) *HolidayRepo {
	return &HolidayRepo{db: db}
}

// ListHolidays returns every holiday of the given calendars ordered by code and date.
func (r *HolidayRepo) ListHolidays(ctx context.Context, calendarCodes []string) ([]model.HolidayDate, error) {
	if len(calendarCodes) == 0 {
		return nil, nil
	}

	codes := make([]string, len(calendarCodes))
	for i, c := range calendarCodes {
		codes[i] = calendarCode(c)
	}

	const query = `
		SELECT calendar_code, date, name FROM holidays
		WHERE calendar_code IN (SELECT value FROM json_each(?))
		ORDER BY calendar_code, date
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, stringList(codes))
	if err != nil {
		return nil, fmt.Errorf("query holidays: %w", err)
	}
	defer rows.Close()

	var out []model.HolidayDate
	for rows.Next() {
		var h model.HolidayDate
		if err := rows.Scan(&h.CalendarCode, &h.Date, &h.Name); err != nil {
			return nil, fmt.Errorf("scan holiday: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holidays: %w", err)
	}

	return out, nil
}

// ReplaceCalendar swaps the full contents of one calendar in a transaction.
func (r *HolidayRepo) ReplaceCalendar(ctx context.Context, code string, dates []model.HolidayDate) error {
	code = calendarCode(code)

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM holidays WHERE calendar_code = ?`, code); err != nil {
		return fmt.Errorf("clear calendar %s: %w", code, err)
	}

	const insert = `INSERT OR REPLACE INTO holidays (calendar_code, date, name) VALUES (?, ?, ?)`
	for _, d := range dates {
		if _, err := tx.ExecContext(ctx, insert, code, strings.TrimSpace(d.Date), d.Name); err != nil {
			return fmt.Errorf("insert holiday %s %s: %w", code, d.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit calendar %s: %w", code, err)
	}
	return nil
}

func calendarCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
