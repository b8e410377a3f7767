package queue

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rembayung/waitroom/internal/models"
)

const (
	peakTrafficFloor     = 35000
	peakTrafficSpread    = 15000
	offPeakTrafficFloor  = 2000
	offPeakTrafficSpread = 5000

	processingRateFloor  = 100
	processingRateSpread = 50

	// Denominator floor for ProgressFraction so tiny queues do not jump.
	progressDenominatorFloor = 100

	ticketIDLength   = 10
	ticketIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Inclusive hour ranges, local time, that get the peak traffic draw.
var peakWindows = [...][2]int{
	{11, 14},
	{18, 21},
}

func IsPeakHour(hour int) bool {
	for _, w := range peakWindows {
		if hour >= w[0] && hour <= w[1] {
			return true
		}
	}
	return false
}

// Engine issues queue tickets and evaluates them against a point in time.
// Evaluation is a pure function of (ticket, now); the only mutable state the
// engine holds is its random source.
type Engine struct {
	mu  sync.Mutex
	rnd RandSource
	loc *time.Location
}

type Option func(*Engine)

func WithRandSource(rnd RandSource) Option {
	return func(e *Engine) {
		if rnd != nil {
			e.rnd = rnd
		}
	}
}

// WithLocation sets the zone whose wall-clock hour decides peak traffic.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rnd: globalRand{},
		loc: time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) TrafficWindow(now time.Time) TrafficWindow {
	if IsPeakHour(now.In(e.loc).Hour()) {
		return TrafficWindowPeak
	}
	return TrafficWindowOffPeak
}

func (e *Engine) IssueTicket(now time.Time) models.QueueTicket {
	e.mu.Lock()
	defer e.mu.Unlock()

	var start int64
	if e.TrafficWindow(now) == TrafficWindowPeak {
		start = int64(peakTrafficFloor + e.rnd.IntN(peakTrafficSpread))
	} else {
		start = int64(offPeakTrafficFloor + e.rnd.IntN(offPeakTrafficSpread))
	}

	rate := int64(processingRateFloor + e.rnd.IntN(processingRateSpread))

	return models.QueueTicket{
		ID:                  e.newTicketID(),
		IssuedAtEpochMillis: now.UnixMilli(),
		StartPosition:       start,
		TotalTraffic:        start,
		ProcessingRate:      rate,
	}
}

// newTicketID must be called with e.mu held.
func (e *Engine) newTicketID() string {
	var b strings.Builder
	b.Grow(ticketIDLength)
	for range ticketIDLength {
		b.WriteByte(ticketIDAlphabet[e.rnd.IntN(len(ticketIDAlphabet))])
	}
	return b.String()
}

// Evaluate computes the live queue state of t at now. A now earlier than the
// issue time is treated as zero elapsed time.
func (e *Engine) Evaluate(t models.QueueTicket, now time.Time) models.QueueEvaluation {
	return Evaluate(t, now)
}

func Evaluate(t models.QueueTicket, now time.Time) models.QueueEvaluation {
	elapsedSec := math.Max(0, float64(now.UnixMilli()-t.IssuedAtEpochMillis)/1000)
	processed := elapsedSec * float64(t.ProcessingRate)

	pos := int64(math.Max(0, math.Floor(float64(t.StartPosition)-processed)))

	var waitMin int64
	if pos > 0 {
		waitMin = int64(math.Ceil(float64(pos) / float64(t.ProcessingRate) / 60))
	}

	denom := math.Max(float64(t.StartPosition), progressDenominatorFloor)
	progress := clamp(1-float64(pos)/denom, 0, 1)

	return models.QueueEvaluation{
		CurrentPosition:      pos,
		EstimatedWaitMinutes: waitMin,
		ProgressFraction:     progress,
		IsAdmitted:           pos <= 0,
	}
}

// ShouldTransitionToAdmitted is the decision point a caller latches on.
func (e *Engine) ShouldTransitionToAdmitted(ev models.QueueEvaluation) bool {
	return ev.IsAdmitted
}

// EstimatedAdmissionAt is the instant by which Evaluate is guaranteed to
// report the ticket as admitted. The floor in Evaluate may admit slightly
// earlier, by less than one user's worth of processing time.
func EstimatedAdmissionAt(t models.QueueTicket) time.Time {
	issuedAt := time.UnixMilli(t.IssuedAtEpochMillis)
	if t.ProcessingRate <= 0 || t.StartPosition <= 0 {
		return issuedAt
	}
	ms := int64(math.Ceil(float64(t.StartPosition) * 1000 / float64(t.ProcessingRate)))
	return issuedAt.Add(time.Duration(ms) * time.Millisecond)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
