// Package notifier fans seat-change notifications out to interested
// subscribers, keyed by event id. Delivery is best-effort: a slow
// subscriber loses messages instead of blocking publishers, and
// clients are expected to re-fetch the seat map for authoritative
// state. When a Redis client is supplied, notifications are bridged
// over Redis pub/sub so every running instance sees them.
package notifier

import (
    "context"
    "encoding/json"
    "log"
    "strconv"
    "sync"

    "github.com/google/uuid"
    "github.com/redis/go-redis/v9"
)

const channelPrefix = "seats."

// SeatChange describes one seat status transition of an event. SeatIDs
// lists the seats that moved together; Status is the status they moved
// to (BOOKED, AVAILABLE) or "LAYOUT" when the whole grid was replaced.
type SeatChange struct {
    EventID uint64   `json:"event_id"`
    SeatIDs []uint64 `json:"seat_ids,omitempty"`
    Status  string   `json:"status"`
    Origin  string   `json:"origin,omitempty"`
}

// StatusLayout marks a full layout replacement; subscribers should
// discard any cached seat map and reload.
const StatusLayout = "LAYOUT"

// Hub is the per-process subscriber registry. Each subscriber owns a
// buffered channel; sends that would block are dropped.
type Hub struct {
    mu     sync.RWMutex
    subs   map[uint64]map[chan SeatChange]struct{}
    rdb    *redis.Client
    origin string
    buffer int
}

// NewHub creates a hub. rdb may be nil, in which case notifications
// stay within this process.
func NewHub(rdb *redis.Client) *Hub {
    return &Hub{
        subs:   make(map[uint64]map[chan SeatChange]struct{}),
        rdb:    rdb,
        origin: uuid.NewString(),
        buffer: 16,
    }
}

// Subscribe registers interest in one event and returns the channel
// messages arrive on plus a cancel function. Cancel is safe to call
// more than once.
func (h *Hub) Subscribe(eventID uint64) (<-chan SeatChange, func()) {
    ch := make(chan SeatChange, h.buffer)

    h.mu.Lock()
    set, ok := h.subs[eventID]
    if !ok {
        set = make(map[chan SeatChange]struct{})
        h.subs[eventID] = set
    }
    set[ch] = struct{}{}
    h.mu.Unlock()

    var once sync.Once
    cancel := func() {
        once.Do(func() {
            h.mu.Lock()
            if set, ok := h.subs[eventID]; ok {
                delete(set, ch)
                if len(set) == 0 {
                    delete(h.subs, eventID)
                }
            }
            h.mu.Unlock()
            close(ch)
        })
    }
    return ch, cancel
}

// Publish delivers a seat change to local subscribers and, when a
// Redis client is attached, to every other instance. It never blocks
// and never fails the caller; notification is an optimization layer on
// top of the authoritative seat store.
func (h *Hub) Publish(ctx context.Context, ev SeatChange) {
    h.deliverLocal(ev)

    if h.rdb == nil {
        return
    }
    ev.Origin = h.origin
    payload, err := json.Marshal(ev)
    if err != nil {
        log.Printf("notifier: marshal failed: %v", err)
        return
    }
    channel := channelPrefix + strconv.FormatUint(ev.EventID, 10)
    if err := h.rdb.Publish(ctx, channel, payload).Err(); err != nil {
        log.Printf("notifier: redis publish failed: %v", err)
    }
}

func (h *Hub) deliverLocal(ev SeatChange) {
    h.mu.RLock()
    defer h.mu.RUnlock()
    for ch := range h.subs[ev.EventID] {
        select {
        case ch <- ev:
        default:
            // Subscriber is not keeping up; drop rather than block.
        }
    }
}

// Run bridges Redis pub/sub into the local hub until ctx is cancelled.
// Messages published by this instance are skipped (they were already
// delivered locally). Without a Redis client Run is a no-op.
func (h *Hub) Run(ctx context.Context) {
    if h.rdb == nil {
        return
    }
    sub := h.rdb.PSubscribe(ctx, channelPrefix+"*")
    defer func() { _ = sub.Close() }()

    msgs := sub.Channel()
    for {
        select {
        case <-ctx.Done():
            return
        case m, ok := <-msgs:
            if !ok {
                return
            }
            var ev SeatChange
            if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
                log.Printf("notifier: bad payload on %s: %v", m.Channel, err)
                continue
            }
            if ev.Origin == h.origin {
                continue
            }
            h.deliverLocal(ev)
        }
    }
}
