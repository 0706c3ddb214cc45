package queue

import (
	"bytes"
	"testing"
)

func TestNew(t *testing.T) {
	q := New()
	if q.Length() != 0 {
		t.Errorf("Expected queue to be empty but it has %d items", q.Length())
	}
}

func TestPush(t *testing.T) {
	q := New()
	for i := 0; i < 10; i++ {
		q.Push([]byte{0x01, 0x02, 0x03, 0x04})
	}
	if q.Length() != 10 {
		t.Errorf("Pushed 10 items onto the queue but it only has %d items", q.Length())
	}
}

func TestPop(t *testing.T) {
	q := New()
	items := [][]byte{{0x00}, {0x11}, {0x22}, {0x33}, {0x44}}
	for _, item := range items {
		q.Push(item)
	}
	for i := 0; i < len(items); i++ {
		popped, ok := q.Pop()
		if !ok {
			t.Fatalf("expected an item at index %d", i)
		}
		if !bytes.Equal(popped.([]byte), items[i]) {
			t.Errorf("Popped %v but expected %v", popped, items[i])
		}
	}
	if _, ok := q.Pop(); ok {
		t.Errorf("expected Pop on an empty queue to report ok=false")
	}
}

func TestFront(t *testing.T) {
	q := New()
	if _, ok := q.Front(); ok {
		t.Errorf("expected Front on an empty queue to report ok=false")
	}
	q.Push(1)
	q.Push(2)
	front, ok := q.Front()
	if !ok || front != 1 {
		t.Errorf("expected Front to return 1, got %v ok=%v", front, ok)
	}
	if q.Length() != 2 {
		t.Errorf("Front must not remove the item")
	}
}

func TestClear(t *testing.T) {
	q := New()
	q.Push(1)
	q.Push(2)
	q.Push(3)
	drained := q.Clear()
	if len(drained) != 3 {
		t.Errorf("expected 3 drained items, got %d", len(drained))
	}
	if q.Length() != 0 {
		t.Errorf("expected queue to be empty after Clear")
	}
}

func TestRemoveWhere(t *testing.T) {
	q := New()
	for i := 1; i <= 5; i++ {
		q.Push(i)
	}
	removed := q.RemoveWhere(func(v any) bool { return v.(int) > 2 })
	if len(removed) != 3 {
		t.Errorf("expected 3 removed items, got %d: %v", len(removed), removed)
	}
	if q.Length() != 2 {
		t.Errorf("expected 2 items to remain, got %d", q.Length())
	}
	for _, v := range q.Items() {
		if v.(int) > 2 {
			t.Errorf("item %v should have been removed", v)
		}
	}
}
