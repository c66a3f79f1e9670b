package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = Open(path)
	require.NoError(t, err)
	assert.NoError(t, st.Close())
}

func TestSaveRunAssignsTokenAndTimestamp(t *testing.T) {
	st := openTestStore(t)

	run, err := st.SaveRun(context.Background(), Run{
		Kind:         KindSchedule,
		Graph:        "fixture:first_order_iir",
		Strategy:     "asap",
		ScheduleTime: 9,
		Hash:         "abc123",
		Snapshot:     `{"schedule_time":9}`,
	})

	require.NoError(t, err)
	assert.Len(t, run.Token, 36)
	assert.False(t, run.CreatedAt.IsZero())
	assert.Equal(t, "asap", run.Strategy)
}

func TestSaveRunRejectsUnknownKind(t *testing.T) {
	st := openTestStore(t)

	_, err := st.SaveRun(context.Background(), Run{Kind: "simulate"})

	assert.ErrorContains(t, err, `unknown run kind "simulate"`)
}

func TestGetRunRoundTrip(t *testing.T) {
	st := openTestStore(t)
	saved, err := st.SaveRun(context.Background(), Run{
		Kind:         KindAllocate,
		Graph:        "inline:adder",
		Strategy:     "left_edge",
		ScheduleTime: 5,
		Hash:         "deadbeef",
		Snapshot:     `{"memories":{}}`,
	})
	require.NoError(t, err)

	got, err := st.GetRun(context.Background(), saved.Token)

	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestGetRunNotFound(t *testing.T) {
	st := openTestStore(t)

	_, err := st.GetRun(context.Background(), "00000000-0000-0000-0000-000000000000")

	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	var tokens []string
	for _, strategy := range []string{"asap", "alap", "exact"} {
		run, err := st.SaveRun(ctx, Run{Kind: KindSchedule, Graph: "inline:g", Strategy: strategy, ScheduleTime: 5})
		require.NoError(t, err)
		tokens = append(tokens, run.Token)
	}

	runs, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	// Same-second inserts fall back to token order; UUIDv7 tokens are
	// time-ordered so the newest run still lists first.
	assert.Equal(t, tokens[2], runs[0].Token)
	assert.Equal(t, tokens[0], runs[2].Token)

	limited, err := st.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, tokens[2], limited[0].Token)
}

func TestListRunsEmpty(t *testing.T) {
	st := openTestStore(t)

	runs, err := st.ListRuns(context.Background(), 10)

	require.NoError(t, err)
	assert.Empty(t, runs)
}
