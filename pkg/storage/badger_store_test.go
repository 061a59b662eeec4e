package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/fast-sitemap/pkg/models"
	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func makeRun(i int) *models.RunRecord {
	started := baseTime.Add(time.Duration(i) * time.Minute)
	return &models.RunRecord{
		ID:         fmt.Sprintf("run-%02d", i),
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		Status:     models.RunStatusSuccess,
		Sources: []models.SourceResult{
			{Name: "products", Status: models.RunStatusSuccess, Files: 1, URLs: i},
		},
		IndexPath: "/var/www/sitemap.xml",
		Entries:   1,
	}
}

func TestNewBadgerStore_Empty(t *testing.T) {
	store := newTestStore(t)

	count, err := store.RunCount()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	latest, err := store.LatestRun()
	require.NoError(t, err)
	assert.Nil(t, latest)

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSaveRun_RequiresID(t *testing.T) {
	store := newTestStore(t)
	err := store.SaveRun(&models.RunRecord{StartedAt: baseTime})
	assert.ErrorIs(t, err, utils.ErrDatabase)
	assert.ErrorIs(t, store.SaveRun(nil), utils.ErrDatabase)
}

func TestSaveRun_LatestAndList(t *testing.T) {
	store := newTestStore(t)

	// Save out of order; listing follows start time, not insertion order.
	for _, i := range []int{3, 1, 4, 2} {
		require.NoError(t, store.SaveRun(makeRun(i)))
	}

	latest, err := store.LatestRun()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "run-04", latest.ID)
	assert.Equal(t, 4, latest.TotalURLs())
	assert.Equal(t, models.RunStatusSuccess, latest.Status)

	runs, err := store.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-04", runs[0].ID)
	assert.Equal(t, "run-03", runs[1].ID)

	all, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "run-01", all[3].ID)

	count, err := store.RunCount()
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestSaveRun_OverwritesSameRecord(t *testing.T) {
	store := newTestStore(t)
	run := makeRun(1)
	require.NoError(t, store.SaveRun(run))

	run.Status = models.RunStatusPartial
	run.ErrorType = "Source_Other"
	require.NoError(t, store.SaveRun(run))

	count, err := store.RunCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	latest, err := store.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPartial, latest.Status)
	assert.Equal(t, "Source_Other", latest.ErrorType)
}

func TestPruneRuns(t *testing.T) {
	store := newTestStore(t)
	for i := 1; i <= 5; i++ {
		require.NoError(t, store.SaveRun(makeRun(i)))
	}

	deleted, err := store.PruneRuns(2)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-05", runs[0].ID)
	assert.Equal(t, "run-04", runs[1].ID)

	deleted, err = store.PruneRuns(10)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

func TestExportRuns(t *testing.T) {
	store := newTestStore(t)
	for i := 1; i <= 3; i++ {
		require.NoError(t, store.SaveRun(makeRun(i)))
	}

	var buf bytes.Buffer
	n, err := store.ExportRuns(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var ids []string
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var rec models.RunRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []string{"run-01", "run-02", "run-03"}, ids, "export is oldest first")
}

func TestExportRuns_Cancelled(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SaveRun(makeRun(1)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	n, err := store.ExportRuns(ctx, &buf)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, n)
}

func TestReopenPreservesRuns(t *testing.T) {
	dir := t.TempDir()
	store1, err := NewBadgerStore(dir, testLogger())
	require.NoError(t, err)
	require.NoError(t, store1.SaveRun(makeRun(7)))
	require.NoError(t, store1.Close())

	store2, err := NewBadgerStore(dir, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store2.Close() })

	latest, err := store2.LatestRun()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "run-07", latest.ID)
	assert.True(t, latest.StartedAt.Equal(baseTime.Add(7*time.Minute)))
}

func TestClose_Idempotent(t *testing.T) {
	store, err := NewBadgerStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestRunGC_StopsOnCancel(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.RunGC(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunGC did not stop after cancellation")
	}
}

func TestBadgerStore_ImplementsRunStore(t *testing.T) {
	var _ RunStore = (*BadgerStore)(nil)
}
