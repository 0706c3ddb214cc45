package scheduler

import (
	"errors"
	"testing"
	"time"
)

func TestScheduleAndRunDue(t *testing.T) {
	s := New(4)
	now := time.Now()
	var ran bool
	id, err := s.Schedule(now, 10*time.Millisecond, func(time.Time, any) { ran = true }, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id < 0 {
		t.Fatalf("expected a valid slot id, got %d", id)
	}
	s.RunDue(now)
	if ran {
		t.Errorf("callback fired before its deadline")
	}
	s.RunDue(now.Add(11 * time.Millisecond))
	if !ran {
		t.Errorf("callback did not fire after its deadline")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	s := New(4)
	now := time.Now()
	var ran bool
	id, _ := s.Schedule(now, time.Millisecond, func(time.Time, any) { ran = true }, nil)
	s.Cancel(&id)
	if id != noSlot {
		t.Errorf("expected cancel to set id to -1, got %d", id)
	}
	s.RunDue(now.Add(time.Second))
	if ran {
		t.Errorf("cancelled callback still fired")
	}
	// Cancelling again must not panic or touch another slot.
	s.Cancel(&id)
	if id != noSlot {
		t.Errorf("second cancel mutated id: %d", id)
	}
}

func TestCancelOfNegativeIDIsNoop(t *testing.T) {
	s := New(4)
	id := ID(-1)
	s.Cancel(&id)
	if id != noSlot {
		t.Errorf("expected id to remain -1")
	}
}

func TestScheduleFullReturnsErrFull(t *testing.T) {
	s := New(2)
	now := time.Now()
	if _, err := s.Schedule(now, time.Second, func(time.Time, any) {}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Schedule(now, time.Second, func(time.Time, any) {}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := s.Schedule(now, time.Second, func(time.Time, any) {}, nil)
	if !errors.Is(err, ErrFull) {
		t.Fatalf("expected ErrFull, got %v", err)
	}
}

func TestCallbackMayRescheduleItself(t *testing.T) {
	s := New(2)
	now := time.Now()
	count := 0
	var id ID
	var fire func(time.Time, any)
	fire = func(time.Time, any) {
		count++
		if count < 3 {
			id, _ = s.Schedule(now, time.Millisecond, fire, nil)
		}
	}
	id, _ = s.Schedule(now, time.Millisecond, fire, nil)
	for i := 0; i < 3; i++ {
		now = now.Add(2 * time.Millisecond)
		s.RunDue(now)
	}
	if count != 3 {
		t.Errorf("expected callback to run 3 times, ran %d", count)
	}
	_ = id
}

func TestNextDeadlinePicksEarliest(t *testing.T) {
	s := New(4)
	now := time.Now()
	s.Schedule(now, 50*time.Millisecond, func(time.Time, any) {}, nil)
	s.Schedule(now, 10*time.Millisecond, func(time.Time, any) {}, nil)
	s.Schedule(now, 30*time.Millisecond, func(time.Time, any) {}, nil)
	when, ok := s.NextDeadline()
	if !ok {
		t.Fatal("expected a deadline")
	}
	want := now.Add(10 * time.Millisecond)
	if !when.Equal(want) {
		t.Errorf("expected earliest deadline %v, got %v", want, when)
	}
}

func TestNextDeadlineEmpty(t *testing.T) {
	s := New(4)
	if _, ok := s.NextDeadline(); ok {
		t.Errorf("expected no deadline on an empty scheduler")
	}
}

func TestRunDueClearsSlotBeforeInvoking(t *testing.T) {
	s := New(1)
	now := time.Now()
	var duringInUse int
	s.Schedule(now, time.Millisecond, func(time.Time, any) {
		duringInUse = s.InUse()
	}, nil)
	s.RunDue(now.Add(time.Millisecond))
	if duringInUse != 0 {
		t.Errorf("expected slot to be cleared before callback runs, InUse=%d", duringInUse)
	}
}
