package queue

import (
	"math/rand/v2"
	"time"
)

// RandSource yields uniform integers in [0, n). *rand.Rand from math/rand/v2
// satisfies it, so tests can inject a seeded generator.
type RandSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int {
	return rand.IntN(n)
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

type TrafficWindow string

const (
	TrafficWindowPeak    TrafficWindow = "peak"
	TrafficWindowOffPeak TrafficWindow = "off_peak"
)
