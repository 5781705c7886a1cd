package ledger

import (
	"fmt"
	"time"

	"envelopes/internal/core"
)

// testClock is an adjustable clock for deterministic timestamps.
type testClock struct {
	current time.Time
}

func newTestClock() *testClock {
	return &testClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) now() time.Time {
	c.current = c.current.Add(time.Second)
	return c.current
}

// newTestLedger returns a ledger with a deterministic clock and id
// sequence, core envelopes already in place.
func newTestLedger() (*Ledger, *testClock) {
	l := New(core.NewState())
	clock := newTestClock()
	l.now = clock.now
	seq := 0
	l.newID = func(prefix string) string {
		seq++
		return fmt.Sprintf("%s_%04d", prefix, seq)
	}
	l.EnsureCoreEnvelopes()
	return l, clock
}

func mustCreateEnvelope(l *Ledger, name, target string) core.Envelope {
	env, err := l.CreateEnvelope(name, target, false)
	if err != nil {
		panic(fmt.Sprintf("create envelope %s: %v", name, err))
	}
	return env
}

func mustAddTransaction(l *Ledger, from, to, amount, note string) core.Transaction {
	tx, err := l.AddTransaction(from, to, amount, note)
	if err != nil {
		panic(fmt.Sprintf("add transaction %s: %v", amount, err))
	}
	return tx
}

func balanceOf(l *Ledger, id string) int64 {
	env, err := l.Envelope(id)
	if err != nil {
		panic(fmt.Sprintf("envelope %s: %v", id, err))
	}
	return env.BalanceCents
}
