package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rembayung/waitroom/internal/models"
	"github.com/rembayung/waitroom/internal/queue"
	"github.com/rembayung/waitroom/pkg/util"
)

var (
	visitors = flag.Int("visitors", 300, "Number of tickets to issue")
	at       = flag.String("at", "", "Issue time as HH:MM in --tz (default: now)")
	tz       = flag.String("tz", "Local", "IANA time zone used for peak hours")
	tick     = flag.Duration("tick", time.Second, "Evaluation interval for the replayed ticket")
	grace    = flag.Duration("grace", time.Second, "Delay between reaching zero and admission")
	replay   = flag.Bool("replay", false, "Replay the first ticket tick by tick until admission")
)

func main() {
	flag.Parse()

	if *visitors <= 0 {
		fmt.Println("Error: --visitors must be positive")
		flag.Usage()
		os.Exit(1)
	}

	loc, err := util.LoadLocation(*tz)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	issuedAt := time.Now().In(loc)
	if *at != "" {
		hm, err := time.ParseInLocation("15:04", *at, loc)
		if err != nil {
			fmt.Printf("Error: --at must be HH:MM: %v\n", err)
			os.Exit(1)
		}
		issuedAt = time.Date(issuedAt.Year(), issuedAt.Month(), issuedAt.Day(), hm.Hour(), hm.Minute(), 0, 0, loc)
	}

	engine := queue.NewEngine(queue.WithLocation(loc))

	fmt.Printf("Issuing %d tickets at %s (%s window)\n",
		*visitors, util.TimeToISO8601Str(issuedAt), engine.TrafficWindow(issuedAt))

	waits := make([]time.Duration, 0, *visitors)
	var (
		first              models.QueueTicket
		minStart, maxStart int64
	)
	for i := range *visitors {
		tk := engine.IssueTicket(issuedAt)
		if i == 0 {
			first = tk
		}
		if i == 0 || tk.StartPosition < minStart {
			minStart = tk.StartPosition
		}
		if tk.StartPosition > maxStart {
			maxStart = tk.StartPosition
		}
		waits = append(waits, queue.EstimatedAdmissionAt(tk).Sub(issuedAt))
	}

	sort.Slice(waits, func(i, j int) bool { return waits[i] < waits[j] })
	fmt.Printf("Start positions: %d .. %d\n", minStart, maxStart)
	fmt.Printf("Wait p50: %s, p90: %s, max: %s\n",
		percentile(waits, 0.5), percentile(waits, 0.9), waits[len(waits)-1])

	if *replay {
		replayTicket(engine, first, issuedAt)
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx].Round(time.Second)
}

// replayTicket drives a virtual clock through the same tick and latch steps a
// live position stream takes.
func replayTicket(engine *queue.Engine, tk models.QueueTicket, issuedAt time.Time) {
	fmt.Printf("\nReplaying ticket %s: start %d, rate %d/s\n", tk.ID, tk.StartPosition, tk.ProcessingRate)

	var latch queue.Latch
	var admitAt time.Time
	for now := issuedAt; ; now = now.Add(*tick) {
		ev := engine.Evaluate(tk, now)
		if now.Sub(issuedAt)%time.Minute < *tick || ev.IsAdmitted {
			fmt.Printf("  +%-8s position %-6d wait %2dm progress %5.1f%%\n",
				now.Sub(issuedAt), ev.CurrentPosition, ev.EstimatedWaitMinutes, ev.ProgressFraction*100)
		}

		if engine.ShouldTransitionToAdmitted(ev) && latch.TryFire() {
			admitAt = now.Add(*grace)
		}
		if latch.Fired() && !now.Before(admitAt) {
			fmt.Printf("  admitted at +%s\n", now.Sub(issuedAt))
			return
		}
	}
}
