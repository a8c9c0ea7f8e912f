package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmployeeCSV(t *testing.T) {
	csv := `id,first_name,last_name,name,status,job_title,designation,department_id
1,Priya,Nair,Priya Nair,active,Head of Sales,Sales Head,1
2,Arun,Kumar,Arun Kumar,,Sales Executive,Sales Resource,1
3,Meera,Iyer,Meera Iyer,inactive,SEO Specialist,SEO,
`
	rows, err := parseEmployeeCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []any{1, "Priya", "Nair", "Priya Nair", "active", "Head of Sales", "Sales Head", 1}, rows[0])
	// Blank status defaults to active.
	assert.Equal(t, "active", rows[1][4])
	// Blank department stays NULL.
	assert.Nil(t, rows[2][7])
	assert.Equal(t, "inactive", rows[2][4])
}

func TestParseEmployeeCSV_HeaderMismatch(t *testing.T) {
	_, err := parseEmployeeCSV(strings.NewReader("id,name\n1,Priya\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 8 columns")
}

func TestParseEmployeeCSV_BadID(t *testing.T) {
	csv := `id,first_name,last_name,name,status,job_title,designation,department_id
x,Priya,Nair,Priya Nair,active,,,1
`
	_, err := parseEmployeeCSV(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid employee id")
}
