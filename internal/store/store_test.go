package store

import (
	"context"
	"os"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nconklindev/leadbook/internal/converter"
	"github.com/nconklindev/leadbook/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testLeads() []types.Lead {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []types.Lead{{
		ID:        "1",
		Title:     "Site",
		Client:    "Acme",
		Value:     50000,
		Date:      ts,
		Status:    types.StatusNew,
		Priority:  types.PriorityHigh,
		CreatedAt: ts,
		UpdatedAt: ts,
	}}
}

func newTestStore(t *testing.T, day time.Time) *FileStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFileStore(filepath.Join(dir, "WorkPipeline"), filepath.Join(dir, "Downloads"), nil)
	require.NoError(t, err)
	s.now = func() time.Time { return day }
	return s
}

func TestFileStore_LoadMissingIsEmpty(t *testing.T) {
	s := newTestStore(t, time.Now())

	leads, err := s.Load()
	require.NoError(t, err)
	assert.NotNil(t, leads)
	assert.Empty(t, leads)
}

func TestFileStore_SaveLoad(t *testing.T) {
	day := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	s := newTestStore(t, day)

	res, err := s.Save(testLeads())
	require.NoError(t, err)
	assert.Equal(t, s.Path(), res.Path)
	assert.Equal(t, filepath.Join(s.BackupDir(), "leads-2025-06-01.xlsx"), res.BackupPath)
	assert.FileExists(t, res.BackupPath)
	assert.Equal(t, "2025-06-01", s.LastBackup())

	leads, err := s.Load()
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Site", leads[0].Title)
	assert.Equal(t, types.StatusNew, leads[0].Status)
	assert.Equal(t, 50000.0, leads[0].Value)
}

func TestFileStore_BackupOncePerDay(t *testing.T) {
	day := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s := newTestStore(t, day)

	first, err := s.Save(testLeads())
	require.NoError(t, err)
	require.NotEmpty(t, first.BackupPath)

	second, err := s.Save(testLeads())
	require.NoError(t, err)
	assert.Empty(t, second.BackupPath)

	s.now = func() time.Time { return day.AddDate(0, 0, 1) }
	third, err := s.Save(testLeads())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.BackupDir(), "leads-2025-06-02.xlsx"), third.BackupPath)

	entries, err := os.ReadDir(s.BackupDir())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFileStore_NoBackupWithoutData(t *testing.T) {
	s := newTestStore(t, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))

	res, err := s.Save(nil)
	require.NoError(t, err)
	assert.Empty(t, res.BackupPath)
	assert.NoDirExists(t, s.BackupDir())
}

func TestFileStore_LastBackupSeededFromDisk(t *testing.T) {
	dir := t.TempDir()
	backups := filepath.Join(dir, BackupDirName)
	require.NoError(t, os.MkdirAll(backups, 0o755))
	for _, name := range []string{"leads-2025-05-30.xlsx", "leads-2025-06-01.xlsx", "notes.txt", "leads-bad.xlsx"} {
		require.NoError(t, os.WriteFile(filepath.Join(backups, name), []byte("x"), 0o644))
	}

	s, err := NewFileStore(dir, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", s.LastBackup())

	s.now = func() time.Time { return time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC) }
	res, err := s.Save(testLeads())
	require.NoError(t, err)
	assert.Empty(t, res.BackupPath)
}

func TestFileStore_LoadAllRowsInvalid(t *testing.T) {
	s := newTestStore(t, time.Now())

	f := excelize.NewFile()
	row := []any{"Title", "Client", "Value", "Date", "Status", "Priority"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &row))
	bad := []any{"Site", "Acme", 1, "2024-01-01", "bogus", "high"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &bad))
	require.NoError(t, f.SaveAs(s.Path()))
	f.Close()

	_, err := s.Load()
	assert.ErrorIs(t, err, converter.ErrNoValidLeads)
}

func writeDatabase(t *testing.T, s *FileStore, rows ...[]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	header := []any{"ID", "Title", "Client", "Value", "Date", "Status", "Priority"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(s.Path()))
}

func TestFileStore_LoadDuplicateIDs(t *testing.T) {
	s := newTestStore(t, time.Now())
	writeDatabase(t, s,
		[]any{"1", "Site", "Acme", 100, "2024-01-01", "new", "high"},
		[]any{"1", "App", "Globex", 200, "2024-01-02", "won", "low"},
	)

	leads, err := s.Load()
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "1", leads[0].ID)
	assert.NotEmpty(t, leads[1].ID)
	assert.NotEqual(t, leads[0].ID, leads[1].ID)
	assert.Equal(t, "App", leads[1].Title)
}

func TestFileStore_LoadReportsSkippedRows(t *testing.T) {
	s := newTestStore(t, time.Now())
	writeDatabase(t, s,
		[]any{"1", "Site", "Acme", 100, "2024-01-01", "new", "high"},
		[]any{"2", "App", "Globex", 200, "2024-01-02", "bogus", "low"},
	)

	leads, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, leads, 1)
	skipped := s.Skipped()
	require.Len(t, skipped, 1)
	assert.Contains(t, skipped[0], "Row 3: Status")

	_, err = s.Save(leads)
	require.NoError(t, err)
	_, err = s.Load()
	require.NoError(t, err)
	assert.Empty(t, s.Skipped())

	var _ SkipReporter = s
}

func TestFileStore_ConcurrentSaves(t *testing.T) {
	s := newTestStore(t, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))

	snapshot := func(title string) []types.Lead {
		l := testLeads()
		l[0].Title = title
		return l
	}

	for round := 0; round < 50; round++ {
		var wg sync.WaitGroup
		for _, title := range []string{"A", "B", "C"} {
			wg.Add(1)
			go func(title string) {
				defer wg.Done()
				_, err := s.Save(snapshot(fmt.Sprintf("%s-%d", title, round)))
				assert.NoError(t, err)
			}(title)
		}
		wg.Wait()

		changed, err := s.Changed()
		require.NoError(t, err)
		require.False(t, changed, "round %d", round)
	}

	_, err := s.Save(snapshot("final"))
	require.NoError(t, err)
	leads, err := s.Load()
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "final", leads[0].Title)
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	s := newTestStore(t, time.Now())
	require.NoError(t, os.WriteFile(s.Path(), []byte("garbage"), 0o644))

	_, err := s.Load()
	assert.ErrorIs(t, err, converter.ErrUnreadable)
}

func TestFileStore_FailedSaveKeepsPrevious(t *testing.T) {
	s := newTestStore(t, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	_, err := s.Save(testLeads())
	require.NoError(t, err)
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	require.NoError(t, os.Chmod(s.Dir(), 0o555))
	t.Cleanup(func() { os.Chmod(s.Dir(), 0o755) })

	_, err = s.Save(append(testLeads(), testLeads()...))
	require.Error(t, err)

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFileStore_Export(t *testing.T) {
	s := newTestStore(t, time.Now())

	path, err := s.Export(testLeads())
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Regexp(t, `leads-export-\d{4}-\d{2}-\d{2}\.xlsx$`, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	res, err := converter.Import(data)
	require.NoError(t, err)
	assert.Len(t, res.Leads, 1)
}

func TestFileStore_Changed(t *testing.T) {
	s := newTestStore(t, time.Now())

	changed, err := s.Changed()
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = s.Save(testLeads())
	require.NoError(t, err)
	changed, err = s.Changed()
	require.NoError(t, err)
	assert.False(t, changed)

	art, err := converter.Export(nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.Path(), art.Data, 0o644))
	changed, err = s.Changed()
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestWatcher_ReportsExternalChange(t *testing.T) {
	s := newTestStore(t, time.Now())
	_, err := s.Save(testLeads())
	require.NoError(t, err)

	w, err := NewWatcher(s, 50*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	art, err := converter.Export(nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.Path(), art.Data, 0o644))

	select {
	case <-w.Changes():
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	leads, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, leads)

	res, err := s.Save(testLeads())
	require.NoError(t, err)
	assert.Equal(t, "memory:work_pipeline_leads", res.Path)

	leads, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, testLeads(), leads)
}

func TestMemoryStore_CorruptValue(t *testing.T) {
	s := NewMemoryStore()
	s.data[StorageKey] = []byte("{not json")

	_, err := s.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding stored leads")
}

func TestWriteArtifact(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	path, err := WriteArtifact(dir, &types.Artifact{Name: "x.xlsx", Data: []byte("data")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "x.xlsx"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
