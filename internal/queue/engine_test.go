package queue

import (
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rembayung/waitroom/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRand func(n int) int

func (f fixedRand) IntN(n int) int { return f(n) }

var (
	lowRand  = fixedRand(func(int) int { return 0 })
	highRand = fixedRand(func(n int) int { return n - 1 })
)

func atHour(hour int) time.Time {
	return time.Date(2026, 5, 14, hour, 30, 0, 0, time.UTC)
}

func testTicket(start, rate int64, t0 time.Time) models.QueueTicket {
	return models.QueueTicket{
		ID:                  "testticket",
		IssuedAtEpochMillis: t0.UnixMilli(),
		StartPosition:       start,
		TotalTraffic:        start,
		ProcessingRate:      rate,
	}
}

func TestIsPeakHour(t *testing.T) {
	peak := map[int]bool{11: true, 12: true, 13: true, 14: true, 18: true, 19: true, 20: true, 21: true}
	for h := 0; h < 24; h++ {
		assert.Equal(t, peak[h], IsPeakHour(h), "hour %d", h)
	}
}

func TestIssueTicket_RangesPerTrafficWindow(t *testing.T) {
	e := NewEngine(
		WithRandSource(rand.New(rand.NewPCG(7, 11))),
		WithLocation(time.UTC),
	)

	for h := 0; h < 24; h++ {
		lo, hi := int64(2000), int64(6999)
		if IsPeakHour(h) {
			lo, hi = 35000, 49999
		}

		for i := 0; i < 1000; i++ {
			tk := e.IssueTicket(atHour(h))
			require.GreaterOrEqual(t, tk.StartPosition, lo, "hour %d", h)
			require.LessOrEqual(t, tk.StartPosition, hi, "hour %d", h)
			require.Equal(t, tk.StartPosition, tk.TotalTraffic)
			require.GreaterOrEqual(t, tk.ProcessingRate, int64(100))
			require.LessOrEqual(t, tk.ProcessingRate, int64(149))
		}
	}
}

func TestIssueTicket_BucketExtremesReachable(t *testing.T) {
	tests := []struct {
		name      string
		rnd       RandSource
		hour      int
		wantStart int64
		wantRate  int64
	}{
		{"peak low", lowRand, 12, 35000, 100},
		{"peak high", highRand, 19, 49999, 149},
		{"off-peak low", lowRand, 3, 2000, 100},
		{"off-peak high", highRand, 16, 6999, 149},
		{"peak window edge 11", lowRand, 11, 35000, 100},
		{"peak window edge 21", highRand, 21, 49999, 149},
		{"just outside 22", lowRand, 22, 2000, 100},
		{"just outside 10", highRand, 10, 6999, 149},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(WithRandSource(tt.rnd), WithLocation(time.UTC))
			tk := e.IssueTicket(atHour(tt.hour))
			assert.Equal(t, tt.wantStart, tk.StartPosition)
			assert.Equal(t, tt.wantStart, tk.TotalTraffic)
			assert.Equal(t, tt.wantRate, tk.ProcessingRate)
		})
	}
}

func TestIssueTicket_UsesConfiguredLocation(t *testing.T) {
	kl := time.FixedZone("MYT", 8*60*60)
	e := NewEngine(WithRandSource(lowRand), WithLocation(kl))

	// 04:30 UTC is 12:30 in Kuala Lumpur.
	tk := e.IssueTicket(atHour(4))
	assert.Equal(t, int64(35000), tk.StartPosition)
	assert.Equal(t, TrafficWindowPeak, e.TrafficWindow(atHour(4)))
}

func TestIssueTicket_Fields(t *testing.T) {
	e := NewEngine(WithRandSource(rand.New(rand.NewPCG(1, 2))))
	now := atHour(9)

	tk := e.IssueTicket(now)

	assert.Equal(t, now.UnixMilli(), tk.IssuedAtEpochMillis)
	assert.Len(t, tk.ID, ticketIDLength)
	for _, r := range tk.ID {
		assert.True(t, strings.ContainsRune(ticketIDAlphabet, r), "unexpected rune %q", r)
	}
	assert.NoError(t, tk.Validate())

	seen := make(map[string]struct{})
	for i := 0; i < 5000; i++ {
		id := e.IssueTicket(now).ID
		_, dup := seen[id]
		require.False(t, dup, "duplicate ticket id %s", id)
		seen[id] = struct{}{}
	}
}

func TestIssueTicket_ConcurrentUse(t *testing.T) {
	e := NewEngine(WithRandSource(rand.New(rand.NewPCG(3, 4))))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Go(func() {
			for j := 0; j < 200; j++ {
				tk := e.IssueTicket(atHour(13))
				assert.GreaterOrEqual(t, tk.StartPosition, int64(35000))
			}
		})
	}
	wg.Wait()
}

func TestEvaluate_ConcreteScenario(t *testing.T) {
	t0 := atHour(12)
	tk := testTicket(1200, 100, t0)

	ev := Evaluate(tk, t0.Add(5000*time.Millisecond))
	assert.Equal(t, int64(700), ev.CurrentPosition)
	assert.Equal(t, int64(1), ev.EstimatedWaitMinutes)
	assert.False(t, ev.IsAdmitted)
	assert.InDelta(t, 1-700.0/1200.0, ev.ProgressFraction, 1e-9)

	ev = Evaluate(tk, t0.Add(12000*time.Millisecond))
	assert.Equal(t, int64(0), ev.CurrentPosition)
	assert.Equal(t, int64(0), ev.EstimatedWaitMinutes)
	assert.True(t, ev.IsAdmitted)
	assert.Equal(t, 1.0, ev.ProgressFraction)
}

func TestEvaluate_WaitMinutesRoundUp(t *testing.T) {
	t0 := atHour(12)
	tk := testTicket(45000, 120, t0)

	// 45000 / 120 = 375s = 6.25 min
	ev := Evaluate(tk, t0)
	assert.Equal(t, int64(45000), ev.CurrentPosition)
	assert.Equal(t, int64(7), ev.EstimatedWaitMinutes)
	assert.Equal(t, 0.0, ev.ProgressFraction)
}

func TestEvaluate_ClockSkewClampsToIssue(t *testing.T) {
	t0 := atHour(12)
	tk := testTicket(3000, 110, t0)

	before := Evaluate(tk, t0.Add(-90*time.Second))
	assert.Equal(t, Evaluate(tk, t0), before)
	assert.Equal(t, int64(3000), before.CurrentPosition)
	assert.False(t, before.IsAdmitted)
}

func TestEvaluate_SmallQueueProgressFloor(t *testing.T) {
	t0 := atHour(3)
	tk := testTicket(50, 100, t0)

	ev := Evaluate(tk, t0)
	assert.Equal(t, int64(50), ev.CurrentPosition)
	assert.InDelta(t, 0.5, ev.ProgressFraction, 1e-9)

	empty := testTicket(0, 100, t0)
	ev = Evaluate(empty, t0)
	assert.True(t, ev.IsAdmitted)
	assert.Equal(t, 1.0, ev.ProgressFraction)
	assert.Zero(t, ev.EstimatedWaitMinutes)
}

func TestEvaluate_Properties(t *testing.T) {
	e := NewEngine(WithRandSource(rand.New(rand.NewPCG(42, 42))), WithLocation(time.UTC))

	for i := 0; i < 50; i++ {
		t0 := atHour(i % 24)
		tk := e.IssueTicket(t0)

		prev := e.Evaluate(tk, t0)
		admitted := false
		for step := time.Duration(0); step <= 10*time.Minute; step += 733 * time.Millisecond {
			now := t0.Add(step)
			ev := e.Evaluate(tk, now)

			// monotonic decay and zero floor
			require.LessOrEqual(t, ev.CurrentPosition, prev.CurrentPosition)
			require.GreaterOrEqual(t, ev.CurrentPosition, int64(0))
			require.GreaterOrEqual(t, ev.EstimatedWaitMinutes, int64(0))
			require.GreaterOrEqual(t, ev.ProgressFraction, 0.0)
			require.LessOrEqual(t, ev.ProgressFraction, 1.0)
			require.GreaterOrEqual(t, ev.ProgressFraction, prev.ProgressFraction)

			// determinism
			require.Equal(t, ev, e.Evaluate(tk, now))

			// admitted is sticky once reached
			if admitted {
				require.True(t, ev.IsAdmitted)
			}
			admitted = ev.IsAdmitted
			prev = ev
		}

		// eventual admission: 49999 users at 100/s drain in under 9 minutes
		require.True(t, admitted, "ticket %+v never admitted", tk)
	}
}

func TestEstimatedAdmissionAt(t *testing.T) {
	t0 := atHour(12)
	tk := testTicket(1200, 100, t0)

	at := EstimatedAdmissionAt(tk)
	assert.Equal(t, t0.Add(12*time.Second).UnixMilli(), at.UnixMilli())
	assert.True(t, Evaluate(tk, at).IsAdmitted)
	assert.False(t, Evaluate(tk, at.Add(-20*time.Millisecond)).IsAdmitted)

	odd := testTicket(4321, 137, t0)
	assert.True(t, Evaluate(odd, EstimatedAdmissionAt(odd)).IsAdmitted)
}

func TestShouldTransitionToAdmitted(t *testing.T) {
	e := NewEngine()
	assert.True(t, e.ShouldTransitionToAdmitted(models.QueueEvaluation{IsAdmitted: true}))
	assert.False(t, e.ShouldTransitionToAdmitted(models.QueueEvaluation{CurrentPosition: 3}))
}

func TestLatch_FiresOnce(t *testing.T) {
	var l Latch
	var wins atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Go(func() {
			if l.TryFire() {
				wins.Add(1)
			}
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.True(t, l.Fired())
	assert.False(t, l.TryFire())
}
