package clock

import "sync/atomic"

// Fake is a Source a test can advance deterministically: construct it at
// nanos 0 and call Advance to simulate the passage of time between
// acquisitions.
type Fake struct {
	nanos atomic.Uint64
}

// NewFake returns a Fake starting at time 0.
func NewFake() *Fake {
	return &Fake{}
}

// Now implements Source.
func (f *Fake) Now() uint64 {
	return f.nanos.Load()
}

// Advance moves the fake clock forward by d nanoseconds.
func (f *Fake) Advance(d uint64) {
	f.nanos.Add(d)
}

// Set pins the fake clock to an absolute nanosecond value.
func (f *Fake) Set(nanos uint64) {
	f.nanos.Store(nanos)
}
