package event_test

import (
	"testing"
	"time"

	"github.com/rpggio/cadence/internal/chrono"
	"github.com/rpggio/cadence/internal/domain/event"
	"github.com/stretchr/testify/require"
)

func TestBurstEvents_WeeklyBurst(t *testing.T) {
	origin := time.Date(2022, 3, 1, 9, 0, 0, 0, time.UTC)
	burst := event.BurstConfig{
		ID:            "X",
		OriginEventID: "enrollment",
		Delay:         chrono.MustPeriod("P1W"),
		Interval:      chrono.MustPeriod("P1W"),
		Occurrences:   3,
	}

	events := event.BurstEvents("u1", origin, burst)
	require.Len(t, events, 3)

	want := map[string]string{
		"study_burst:X:01": "2022-03-08",
		"study_burst:X:02": "2022-03-15",
		"study_burst:X:03": "2022-03-22",
	}
	for _, ev := range events {
		require.Equal(t, want[ev.EventID], ev.Timestamp.Format("2006-01-02"), ev.EventID)
		require.Equal(t, event.PolicyImmutable, ev.Policy)
		require.Equal(t, "u1", ev.UserID)
	}
}

func TestBurstEvents_NoOccurrences(t *testing.T) {
	origin := time.Date(2022, 3, 1, 9, 0, 0, 0, time.UTC)
	require.Empty(t, event.BurstEvents("u1", origin, event.BurstConfig{ID: "X"}))
	require.Empty(t, event.BurstEvents("u1", time.Time{}, event.BurstConfig{ID: "X", Occurrences: 2}))
}
