package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/finlex/pkg/finlex/internalerr"
	"github.com/cognicore/finlex/pkg/finlex/store"
	"github.com/cognicore/finlex/pkg/finlex/vocab"
)

func openTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "finlex.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertEntriesAndLoad(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	n, err := s.UpsertEntries(ctx, []vocab.Entry{
		{Term: "EBITDA", Definition: "Earnings before interest.", Aliases: []string{"Operating Earnings", "ebitda"}},
		{Term: "net present value", Definition: "NPV."},
		{Term: "", Definition: "skipped"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, vocab.Entry{
		Term:       "ebitda",
		Definition: "Earnings before interest.",
		Aliases:    []string{"operating earnings"},
	}, entries[0])
	assert.Equal(t, "net present value", entries[1].Term)

	count, err := s.CountTerms(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestUpsertKeepsOrderAndUpdatesDefinition(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.UpsertEntries(ctx, []vocab.Entry{
		{Term: "ebitda", Definition: "old"},
		{Term: "roe", Definition: "Return on equity."},
	})
	require.NoError(t, err)
	_, err = s.UpsertEntries(ctx, []vocab.Entry{{Term: "EBITDA", Definition: "new"}})
	require.NoError(t, err)

	entries, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ebitda", entries[0].Term)
	assert.Equal(t, "new", entries[0].Definition)
}

func TestLoadIntoVocabulary(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.UpsertEntries(ctx, []vocab.Entry{
		{Term: "ebitda", Definition: "d", Aliases: []string{"operating earnings"}},
	})
	require.NoError(t, err)

	v, err := vocab.Load(ctx, s)
	require.NoError(t, err)
	term, ok := v.Canonical("operating earnings")
	require.True(t, ok)
	assert.Equal(t, "ebitda", term)
}

func TestLookupHistory(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	gen := store.NewIDGenerator()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for _, term := range []string{"ebitda", "roe", "ebitda", ""} {
		outcome := "matched"
		if term == "" {
			outcome = "no_match"
		}
		require.NoError(t, s.RecordLookup(ctx, store.Lookup{
			ID:      gen.New(),
			Input:   "what is " + term,
			Term:    term,
			Outcome: outcome,
			Score:   90,
			At:      at,
		}))
	}

	recent, err := s.RecentLookups(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "no_match", recent[0].Outcome)
	assert.Equal(t, "", recent[0].Term)
	assert.Equal(t, "ebitda", recent[1].Term)
	assert.True(t, at.Equal(recent[1].At))

	top, err := s.TopTerms(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []store.TermCount{{Term: "ebitda", Count: 2}, {Term: "roe", Count: 1}}, top)
}

func TestRecordLookupRequiresID(t *testing.T) {
	s := openTestStore(t)
	err := s.RecordLookup(context.Background(), store.Lookup{Input: "x"})
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
}

func TestReopenPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "finlex.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	_, err = s.UpsertEntries(ctx, []vocab.Entry{{Term: "ebitda", Definition: "d"}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	count, err := s.CountTerms(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestConcurrentRecordLookupKeepsEveryRow(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	ids := store.NewIDGenerator()

	const workers, perWorker = 16, 25
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				errs <- s.RecordLookup(ctx, store.Lookup{
					ID:      ids.New(),
					Input:   fmt.Sprintf("worker %d query %d", w, i),
					Term:    "ebitda",
					Outcome: "matched",
					Score:   90,
					At:      time.Now(),
				})
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	top, err := s.TopTerms(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.EqualValues(t, workers*perWorker, top[0].Count)
}

func TestPragmasApplyToEveryConnection(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t).(*sqliteStore).db

	// Hold several connections at once so the pool has to open new ones.
	conns := make([]*sql.Conn, 3)
	for i := range conns {
		c, err := db.Conn(ctx)
		require.NoError(t, err)
		conns[i] = c
	}
	for _, c := range conns {
		var fk, timeout int
		var mode string
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout))
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
		assert.Equal(t, 1, fk)
		assert.Equal(t, busyTimeoutMillis, timeout)
		assert.Equal(t, "wal", mode)
	}
	for _, c := range conns {
		require.NoError(t, c.Close())
	}
}
