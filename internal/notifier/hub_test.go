package notifier

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func recvWithin(t *testing.T, ch <-chan SeatChange, d time.Duration) SeatChange {
    t.Helper()
    select {
    case ev := <-ch:
        return ev
    case <-time.After(d):
        t.Fatal("timed out waiting for seat change")
        return SeatChange{}
    }
}

func TestSubscribeReceivesPublish(t *testing.T) {
    h := NewHub(nil)
    ch, cancel := h.Subscribe(42)
    defer cancel()

    h.Publish(context.Background(), SeatChange{EventID: 42, SeatIDs: []uint64{1, 2}, Status: "BOOKED"})

    ev := recvWithin(t, ch, time.Second)
    assert.Equal(t, uint64(42), ev.EventID)
    assert.Equal(t, []uint64{1, 2}, ev.SeatIDs)
    assert.Equal(t, "BOOKED", ev.Status)
}

func TestNoCrossEventLeakage(t *testing.T) {
    h := NewHub(nil)
    ch, cancel := h.Subscribe(1)
    defer cancel()

    h.Publish(context.Background(), SeatChange{EventID: 2, SeatIDs: []uint64{9}, Status: "BOOKED"})

    select {
    case ev := <-ch:
        t.Fatalf("subscriber for event 1 received change for event %d", ev.EventID)
    case <-time.After(50 * time.Millisecond):
    }
}

func TestCancelStopsDelivery(t *testing.T) {
    h := NewHub(nil)
    ch, cancel := h.Subscribe(7)
    cancel()
    // Cancel twice must not panic.
    cancel()

    h.Publish(context.Background(), SeatChange{EventID: 7, Status: "AVAILABLE"})

    // Channel is closed after cancel; any buffered reads drain to zero values.
    _, open := <-ch
    assert.False(t, open)
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
    h := NewHub(nil)
    ch, cancel := h.Subscribe(5)
    defer cancel()

    // Overfill the buffer; publishes must return without blocking.
    done := make(chan struct{})
    go func() {
        for i := 0; i < 100; i++ {
            h.Publish(context.Background(), SeatChange{EventID: 5, SeatIDs: []uint64{uint64(i)}, Status: "BOOKED"})
        }
        close(done)
    }()

    select {
    case <-done:
    case <-time.After(2 * time.Second):
        t.Fatal("publish blocked on a slow subscriber")
    }

    // The buffer holds at most its capacity; everything else was dropped.
    drained := 0
    for {
        select {
        case <-ch:
            drained++
            continue
        default:
        }
        break
    }
    require.LessOrEqual(t, drained, 16)
    require.Greater(t, drained, 0)
}

func TestMultipleSubscribersAllReceive(t *testing.T) {
    h := NewHub(nil)
    ch1, cancel1 := h.Subscribe(3)
    defer cancel1()
    ch2, cancel2 := h.Subscribe(3)
    defer cancel2()

    h.Publish(context.Background(), SeatChange{EventID: 3, Status: StatusLayout})

    assert.Equal(t, StatusLayout, recvWithin(t, ch1, time.Second).Status)
    assert.Equal(t, StatusLayout, recvWithin(t, ch2, time.Second).Status)
}
