// Package session tracks each chat's pair and timeframe selection.
package session

import (
	"errors"
	"fmt"
	"time"

	"fx-signal-bot/internal/domain"
)

type State string

const (
	StateAwaitingPair      State = "awaiting_pair"
	StateAwaitingTimeframe State = "awaiting_timeframe"
	StateReady             State = "ready"
)

type EventType string

const (
	EventStart           EventType = "start"
	EventSelectPair      EventType = "select_pair"
	EventSelectTimeframe EventType = "select_timeframe"
	EventRefresh         EventType = "refresh"
)

type Event struct {
	Type  EventType
	Value string
}

func Start() Event                    { return Event{Type: EventStart} }
func SelectPair(pair string) Event    { return Event{Type: EventSelectPair, Value: pair} }
func SelectTimeframe(tf string) Event { return Event{Type: EventSelectTimeframe, Value: tf} }
func Refresh() Event                  { return Event{Type: EventRefresh} }

// Action is what the caller must do after a transition.
type Action int

const (
	ActionNone Action = iota
	ActionShowPairs
	ActionShowTimeframes
	ActionRequestSignal
)

var ErrUnexpectedEvent = errors.New("unexpected event")

type Session struct {
	ChatID    int64            `json:"chat_id"`
	State     State            `json:"state"`
	Pair      string           `json:"pair,omitempty"`
	Timeframe domain.Timeframe `json:"timeframe,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func New(chatID int64) Session {
	return Session{ChatID: chatID, State: StateAwaitingPair}
}

// Machine applies events to sessions against the deployment's pair set.
type Machine struct {
	pairs domain.PairSet
	now   func() time.Time
}

func NewMachine(pairs domain.PairSet) *Machine {
	return &Machine{pairs: pairs, now: time.Now}
}

// Transition returns the next session and the action it requires. On error the
// input session is returned unchanged.
func (m *Machine) Transition(s Session, ev Event) (Session, Action, error) {
	next := s
	var action Action

	switch ev.Type {
	case EventStart:
		next = Session{ChatID: s.ChatID, State: StateAwaitingPair}
		action = ActionShowPairs

	case EventSelectPair:
		if s.State != StateAwaitingPair && s.State != StateReady {
			return s, ActionNone, fmt.Errorf("%w: %s in state %s", ErrUnexpectedEvent, ev.Type, s.State)
		}
		pair, err := m.pairs.Resolve(ev.Value)
		if err != nil {
			return s, ActionNone, err
		}
		next.Pair = pair
		next.Timeframe = ""
		next.State = StateAwaitingTimeframe
		action = ActionShowTimeframes

	case EventSelectTimeframe:
		if s.State != StateAwaitingTimeframe {
			return s, ActionNone, fmt.Errorf("%w: %s in state %s", ErrUnexpectedEvent, ev.Type, s.State)
		}
		tf, err := domain.ParseTimeframe(ev.Value)
		if err != nil {
			return s, ActionNone, err
		}
		next.Timeframe = tf
		next.State = StateReady
		action = ActionRequestSignal

	case EventRefresh:
		if s.State != StateReady {
			return s, ActionNone, fmt.Errorf("%w: %s in state %s", ErrUnexpectedEvent, ev.Type, s.State)
		}
		action = ActionRequestSignal

	default:
		return s, ActionNone, fmt.Errorf("%w: %q", ErrUnexpectedEvent, ev.Type)
	}

	next.UpdatedAt = m.now().UTC()
	return next, action, nil
}
