package leads

import (
	"fmt"
	"testing"
	"time"

	"github.com/nconklindev/leadbook/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stub(t *testing.T) time.Time {
	t.Helper()
	ts := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	prevNow, prevID := now, newID
	n := 0
	now = func() time.Time { return ts }
	newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	t.Cleanup(func() { now, newID = prevNow, prevID })
	return ts
}

func lead(id, title string, status types.Status, value float64, date time.Time) types.Lead {
	return types.Lead{ID: id, Title: title, Client: "Acme", Status: status, Priority: types.PriorityMedium, Value: value, Date: date}
}

func TestAddPrependsAndStamps(t *testing.T) {
	ts := stub(t)
	all := []types.Lead{lead("a", "Old", types.StatusNew, 1, ts)}

	all, added := Add(all, types.Lead{Title: "Fresh", Client: "Globex", Status: types.StatusNew})
	require.Len(t, all, 2)
	assert.Equal(t, "id-1", added.ID)
	assert.Equal(t, added, all[0])
	assert.Equal(t, ts, added.CreatedAt)
	assert.Equal(t, ts, added.UpdatedAt)
}

func TestUpdateAndSetStatus(t *testing.T) {
	ts := stub(t)
	all := []types.Lead{lead("a", "One", types.StatusNew, 1, ts), lead("b", "Two", types.StatusNew, 2, ts)}

	assert.True(t, SetStatus(all, "b", types.StatusProposal))
	assert.Equal(t, types.StatusProposal, all[1].Status)
	assert.Equal(t, ts, all[1].UpdatedAt)
	assert.True(t, all[0].UpdatedAt.IsZero())

	assert.True(t, Update(all, "a", func(l *types.Lead) {
		l.Title = "Renamed"
		l.ID = "hijacked"
	}))
	assert.Equal(t, "Renamed", all[0].Title)
	assert.Equal(t, "a", all[0].ID)

	assert.False(t, SetStatus(all, "missing", types.StatusWon))
}

func TestDelete(t *testing.T) {
	all := []types.Lead{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	out := Delete(all, "b")
	assert.Equal(t, []types.Lead{{ID: "a"}, {ID: "c"}}, out)
	assert.Len(t, all, 3)
	assert.Len(t, Delete(out, "zzz"), 2)
}

func TestMergeKeepsIDsUnique(t *testing.T) {
	stub(t)
	all := []types.Lead{{ID: "a"}, {ID: "b"}}
	imported := []types.Lead{{ID: "b"}, {ID: "c"}, {ID: "c"}}

	out := Merge(all, imported)
	ids := make([]string, len(out))
	for i, l := range out {
		ids[i] = l.ID
	}
	assert.Equal(t, []string{"a", "b", "id-1", "c", "id-2"}, ids)
}

func TestFilter(t *testing.T) {
	ts := time.Now()
	all := []types.Lead{
		{ID: "1", Title: "Website redesign", Client: "Acme", Status: types.StatusNew, Priority: types.PriorityHigh},
		{ID: "2", Title: "Mobile app", Client: "Globex", Email: "cto@globex.test", Status: types.StatusWon, Priority: types.PriorityLow, Date: ts},
		{ID: "3", Title: "Audit", Client: "Initech", Description: "Website audit", Status: types.StatusProposal, Priority: types.PriorityHigh},
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"Empty matches all", "   ", []string{"1", "2", "3"}},
		{"Case insensitive", "WEBSITE", []string{"1", "3"}},
		{"All terms required", "website high proposal", []string{"3"}},
		{"Email", "globex.test", []string{"2"}},
		{"Status word", "won", []string{"2"}},
		{"No match", "nothing here", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, l := range Filter(all, tt.query) {
				got = append(got, l.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSummarize(t *testing.T) {
	ts := time.Now()
	all := []types.Lead{
		lead("1", "a", types.StatusNew, 100, ts),
		lead("2", "b", types.StatusContacted, 200, ts),
		lead("3", "c", types.StatusQualified, 300, ts),
		lead("4", "d", types.StatusWon, 400, ts),
		lead("5", "e", types.StatusWon, 500, ts),
		lead("6", "f", types.StatusProposal, 0, ts),
	}

	s := Summarize(all)
	assert.Equal(t, Summary{Total: 6, InProgress: 3, Completed: 2, PipelineValue: 1500, ConversionRate: 33}, s)
	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestShares(t *testing.T) {
	ts := time.Now()
	all := []types.Lead{
		lead("1", "a", types.StatusWon, 0, ts),
		lead("2", "b", types.StatusNew, 0, ts),
		lead("3", "c", types.StatusNew, 0, ts),
		lead("4", "d", types.StatusWon, 0, ts),
	}
	assert.Equal(t, []StatusShare{
		{Status: types.StatusNew, Count: 2, Percent: 50},
		{Status: types.StatusWon, Count: 2, Percent: 50},
	}, Shares(all))
}

func TestMonthly(t *testing.T) {
	var all []types.Lead
	for m := 1; m <= 8; m++ {
		d := time.Date(2024, time.Month(m), 10, 0, 0, 0, 0, time.UTC)
		all = append(all, lead(fmt.Sprint(m), "x", types.StatusNew, 1000, d))
	}
	all = append(all, lead("won", "x", types.StatusWon, 3000, time.Date(2024, 8, 20, 0, 0, 0, 0, time.UTC)))

	months := Monthly(all)
	require.Len(t, months, MonthWindow)
	assert.Equal(t, "Mar 2024", months[0].Label)

	last := months[len(months)-1]
	assert.Equal(t, "Aug 2024", last.Label)
	assert.Equal(t, 2, last.Leads)
	assert.Equal(t, 1, last.Won)
	assert.Equal(t, 4000.0, last.Value)
	assert.Equal(t, 50.0, last.ConversionRate)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "₹0"},
		{999, "₹999"},
		{50000, "₹50,000"},
		{99999.5, "₹99,999.5"},
		{100000, "₹1.00 L"},
		{2550000, "₹25.50 L"},
		{10000000, "₹1.00 Cr"},
		{123456789, "₹12.35 Cr"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatValue(tt.input))
		})
	}
}

func TestGroupIndian(t *testing.T) {
	assert.Equal(t, "12,34,567", groupIndian(1234567))
	assert.Equal(t, "-1,000", groupIndian(-1000))
}
