package store

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/crm-tasks/internal/db"
)

// employeeImportColumns is the expected CSV header order for employee files
// exported from the CRM.
var employeeImportColumns = []string{
	"id", "first_name", "last_name", "name", "status", "job_title", "designation", "department_id",
}

// ImportEmployeesCSV bulk-upserts the employee directory from a CRM export.
// Existing rows are updated in place keyed on id. Postgres only.
func ImportEmployeesCSV(ctx context.Context, pool db.Pool, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrap(err, "store: open employee csv")
	}
	defer f.Close()

	rows, err := parseEmployeeCSV(f)
	if err != nil {
		return 0, err
	}

	return db.BulkUpsert(ctx, pool, db.UpsertConfig{
		Table:        "employees",
		Columns:      employeeImportColumns,
		ConflictKeys: []string{"id"},
	}, rows)
}

func parseEmployeeCSV(r io.Reader) ([][]any, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "store: read csv header")
	}
	if len(header) != len(employeeImportColumns) {
		return nil, eris.Errorf("store: expected %d columns, got %d", len(employeeImportColumns), len(header))
	}
	for i, col := range employeeImportColumns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), col) {
			return nil, eris.Errorf("store: column %d: expected %q, got %q", i, col, header[i])
		}
	}

	var rows [][]any
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, eris.Wrapf(err, "store: read csv line %d", line)
		}

		id, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, eris.Wrapf(err, "store: invalid employee id at line %d", line)
		}

		status := strings.TrimSpace(rec[4])
		if status == "" {
			status = "active"
		}

		// department_id may be blank for unassigned staff.
		var deptID any
		if v := strings.TrimSpace(rec[7]); v != "" {
			d, err := strconv.Atoi(v)
			if err != nil {
				return nil, eris.Wrapf(err, "store: invalid department id at line %d", line)
			}
			deptID = d
		}

		rows = append(rows, []any{
			id,
			strings.TrimSpace(rec[1]),
			strings.TrimSpace(rec[2]),
			strings.TrimSpace(rec[3]),
			status,
			strings.TrimSpace(rec[5]),
			strings.TrimSpace(rec[6]),
			deptID,
		})
	}

	return rows, nil
}
