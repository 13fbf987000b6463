package session

import (
	"errors"
	"testing"
	"time"

	"fx-signal-bot/internal/domain"
)

func newTestMachine() *Machine {
	m := NewMachine(domain.NewPairSet(domain.DefaultPairs))
	m.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return m
}

func TestMachineHappyPath(t *testing.T) {
	m := newTestMachine()
	s := New(10)

	s, action, err := m.Transition(s, SelectPair("eurusd"))
	if err != nil || action != ActionShowTimeframes {
		t.Fatalf("select pair: action=%v err=%v", action, err)
	}
	if s.State != StateAwaitingTimeframe || s.Pair != "EUR/USD" {
		t.Fatalf("unexpected session after pair: %+v", s)
	}

	s, action, err = m.Transition(s, SelectTimeframe("5min"))
	if err != nil || action != ActionRequestSignal {
		t.Fatalf("select timeframe: action=%v err=%v", action, err)
	}
	if s.State != StateReady || s.Timeframe != domain.Timeframe5m {
		t.Fatalf("unexpected session after timeframe: %+v", s)
	}

	s, action, err = m.Transition(s, Refresh())
	if err != nil || action != ActionRequestSignal || s.State != StateReady {
		t.Fatalf("refresh: state=%s action=%v err=%v", s.State, action, err)
	}

	s, action, err = m.Transition(s, SelectPair("GBP/USD"))
	if err != nil || action != ActionShowTimeframes || s.Timeframe != "" || s.Pair != "GBP/USD" {
		t.Fatalf("change pair from ready: %+v action=%v err=%v", s, action, err)
	}
	if s.UpdatedAt.IsZero() {
		t.Fatal("expected UpdatedAt to be set")
	}
}

func TestMachineStartResetsFromAnyState(t *testing.T) {
	m := newTestMachine()
	for _, st := range []State{StateAwaitingPair, StateAwaitingTimeframe, StateReady} {
		s := Session{ChatID: 1, State: st, Pair: "EUR/USD", Timeframe: domain.Timeframe1m}
		next, action, err := m.Transition(s, Start())
		if err != nil || action != ActionShowPairs {
			t.Fatalf("start from %s: action=%v err=%v", st, action, err)
		}
		if next.State != StateAwaitingPair || next.Pair != "" || next.Timeframe != "" {
			t.Fatalf("start from %s did not reset: %+v", st, next)
		}
	}
}

func TestMachineRejectsUnexpectedEvents(t *testing.T) {
	m := newTestMachine()
	cases := []struct {
		state State
		ev    Event
	}{
		{StateAwaitingPair, SelectTimeframe("1min")},
		{StateAwaitingPair, Refresh()},
		{StateAwaitingTimeframe, Refresh()},
		{StateAwaitingTimeframe, SelectPair("EUR/USD")},
		{StateReady, SelectTimeframe("1min")},
		{StateReady, Event{Type: "bogus"}},
	}
	for _, tc := range cases {
		s := Session{ChatID: 1, State: tc.state, Pair: "EUR/USD"}
		next, action, err := m.Transition(s, tc.ev)
		if !errors.Is(err, ErrUnexpectedEvent) {
			t.Fatalf("%s in %s: expected ErrUnexpectedEvent, got %v", tc.ev.Type, tc.state, err)
		}
		if action != ActionNone || next != s {
			t.Fatalf("%s in %s: session must stay unchanged", tc.ev.Type, tc.state)
		}
	}
}

func TestMachineRejectsUnsupportedValues(t *testing.T) {
	m := newTestMachine()
	if _, _, err := m.Transition(New(1), SelectPair("BTC/USD")); !errors.Is(err, domain.ErrUnsupportedPair) {
		t.Fatalf("expected ErrUnsupportedPair, got %v", err)
	}
	s := Session{ChatID: 1, State: StateAwaitingTimeframe, Pair: "EUR/USD"}
	if _, _, err := m.Transition(s, SelectTimeframe("4h")); !errors.Is(err, domain.ErrUnsupportedTimeframe) {
		t.Fatalf("expected ErrUnsupportedTimeframe, got %v", err)
	}
}
