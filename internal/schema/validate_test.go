package schema

import (
	"testing"
	"time"

	"github.com/nconklindev/leadbook/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func column(t *testing.T, key string) Column {
	t.Helper()
	for _, c := range Leads {
		if c.Key == key {
			return c
		}
	}
	t.Fatalf("no column %q", key)
	return Column{}
}

func TestValidateColumn(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   types.Cell
		wantErr string
	}{
		{"ID valid", KeyID, types.StringCell("abc"), ""},
		{"ID missing is fine", KeyID, types.NullCell(), ""},
		{"ID numeric is text", KeyID, types.NumberCell(7), ""},

		{"Title valid", KeyTitle, types.StringCell("Site"), ""},
		{"Title missing", KeyTitle, types.NullCell(), "Title: Title is required"},
		{"Title whitespace", KeyTitle, types.StringCell("   "), "Title: Title is required"},

		{"Client valid", KeyClient, types.StringCell("Acme"), ""},
		{"Client missing", KeyClient, types.StringCell(""), "Client: Client is required"},

		{"Value number", KeyValue, types.NumberCell(50000), ""},
		{"Value numeric text", KeyValue, types.StringCell(" 1250.5 "), ""},
		{"Value zero", KeyValue, types.NumberCell(0), ""},
		{"Value missing", KeyValue, types.NullCell(), "Value: Value is required"},
		{"Value text", KeyValue, types.StringCell("lots"), "Value: Must be a valid number"},
		{"Value NaN", KeyValue, types.StringCell("NaN"), "Value: Must be a valid number"},
		{"Value negative", KeyValue, types.NumberCell(-1), "Value: Must be a non-negative number"},

		{"Date ISO", KeyDate, types.StringCell("2024-01-01T00:00:00.000Z"), ""},
		{"Date plain", KeyDate, types.StringCell("2024-03-15"), ""},
		{"Date serial", KeyDate, types.NumberCell(45292), ""},
		{"Date missing", KeyDate, types.NullCell(), "Date: Date is required"},
		{"Date garbage", KeyDate, types.StringCell("not a date"), "Date: Must be a valid date"},
		{"Date impossible", KeyDate, types.StringCell("2024-02-30"), "Date: Must be a valid date"},

		{"Status valid", KeyStatus, types.StringCell("qualified"), ""},
		{"Status missing", KeyStatus, types.NullCell(), "Status: Status is required"},
		{"Status bogus", KeyStatus, types.StringCell("bogus"), "Status: Must be one of: new, contacted, qualified, proposal, won"},
		{"Status case sensitive", KeyStatus, types.StringCell("New"), "Status: Must be one of: new, contacted, qualified, proposal, won"},

		{"Priority valid", KeyPriority, types.StringCell("low"), ""},
		{"Priority number", KeyPriority, types.NumberCell(1), "Priority: Must be one of: high, medium, low"},

		{"Email optional", KeyEmail, types.NullCell(), ""},
		{"Email any text", KeyEmail, types.StringCell("not-an-email"), ""},
		{"Phone number cell", KeyPhone, types.NumberCell(5551234), ""},

		{"Created At missing", KeyCreatedAt, types.NullCell(), ""},
		{"Created At garbage", KeyCreatedAt, types.StringCell("yesterday-ish"), "Created At: Must be a valid date"},
		{"Updated At valid", KeyUpdatedAt, types.StringCell("2024-05-01T10:20:30Z"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColumn(tt.value, column(t, tt.key))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestValidateColumn_UnknownTypeIsAccepted(t *testing.T) {
	col := Column{Key: "Extra", Type: Type("currency")}
	assert.NoError(t, ValidateColumn(types.StringCell("anything"), col))
	assert.Error(t, ValidateColumn(types.NullCell(), col))
}

func TestValidateRow_CollectsAllErrors(t *testing.T) {
	row := map[string]types.Cell{
		KeyTitle:    types.StringCell("Site"),
		KeyClient:   types.StringCell("Acme"),
		KeyValue:    types.StringCell("abc"),
		KeyDate:     types.StringCell("2024-01-01"),
		KeyStatus:   types.StringCell("bogus"),
		KeyPriority: types.StringCell("high"),
	}

	err := ValidateRow(row, 4, Leads)
	require.Error(t, err)

	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 4, rowErr.Row)
	require.Len(t, rowErr.Errors, 2)
	assert.Equal(t, KeyValue, rowErr.Errors[0].Field)
	assert.Equal(t, KeyStatus, rowErr.Errors[1].Field)
	assert.Equal(t,
		"Row 4: Value: Must be a valid number; Status: Must be one of: new, contacted, qualified, proposal, won",
		err.Error())
}

func TestValidateRow_Valid(t *testing.T) {
	row := map[string]types.Cell{
		KeyTitle:    types.StringCell("Site"),
		KeyClient:   types.StringCell("Acme"),
		KeyValue:    types.NumberCell(50000),
		KeyDate:     types.StringCell("2024-01-01T00:00:00.000Z"),
		KeyStatus:   types.StringCell("new"),
		KeyPriority: types.StringCell("high"),
	}
	assert.NoError(t, ValidateRow(row, 2, Leads))
}

func TestMissingRequired(t *testing.T) {
	headers := []string{"ID", "Title", "Client", "Value", "Date", "Priority"}
	assert.Equal(t, []string{KeyStatus}, MissingRequired(headers, Leads))
	assert.Empty(t, MissingRequired(Headers(Leads), Leads))
	assert.Equal(t,
		[]string{KeyTitle, KeyClient, KeyValue, KeyDate, KeyStatus, KeyPriority},
		MissingRequired(nil, Leads))
}

func TestHeadersOrder(t *testing.T) {
	assert.Equal(t, []string{
		"ID", "Title", "Client", "Value", "Date", "Status", "Priority",
		"Description", "Email", "Phone", "Created At", "Updated At",
	}, Headers(Leads))
}

func TestInfo(t *testing.T) {
	rows := Info(Leads)
	require.Len(t, rows, len(Leads))
	assert.Equal(t, []string{"ID", "string", "No", ""}, rows[0])
	assert.Equal(t, []string{"Value", "number", "Yes", ""}, rows[3])
	assert.Equal(t, []string{"Status", "enum", "Yes", "new, contacted, qualified, proposal, won"}, rows[5])
}

func TestParseDate(t *testing.T) {
	got, ok := ParseDate(types.StringCell("2024-01-01T00:00:00.000Z"))
	require.True(t, ok)
	assert.True(t, got.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	got, ok = ParseDate(types.NumberCell(45292))
	require.True(t, ok)
	assert.Equal(t, "2024-01-01", got.Format(time.DateOnly))

	_, ok = ParseDate(types.NumberCell(-3))
	assert.False(t, ok)
}
