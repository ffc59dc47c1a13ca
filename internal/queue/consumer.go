// The background consumer listens to the booking.confirmed queue and
// acts as the ticket delivery pipeline: each confirmed booking is
// rendered as a ticket and appended to logs/tickets.log. Swapping the
// sink for a real mail sender only touches handleMessage.
package queue

import (
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

const bookingQueueName = "booking.confirmed"

// StartTicketConsumer connects to RabbitMQ, declares the
// booking.confirmed queue (durable), and starts consuming messages.
// The function runs a reconnect loop with exponential backoff, so it
// keeps running across broker restarts; processing errors are logged
// and the offending message is rejected so the server continues
// operating.
func StartTicketConsumer() error {
    url := brokerURL()

    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Printf("ticket-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := consumeLoop(conn); err != nil {
            log.Printf("ticket-consumer: consume loop ended: %v; reconnecting", err)
            // Sleep briefly before reconnect
            time.Sleep(2 * time.Second)
            continue
        }
    }
}

func consumeLoop(conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("ticket-consumer: set QoS failed: %v", err)
    }

    _, err = ch.QueueDeclare(bookingQueueName, true, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(bookingQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := handleMessage(d.Body); err != nil {
            log.Printf("ticket-consumer: handle message failed: %v", err)
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
    var ev BookingConfirmedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    // Ensure logs directory exists
    if err := os.MkdirAll("logs", 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    fpath := filepath.Join("logs", "tickets.log")
    f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(renderTicket(ev)); err != nil {
        return fmt.Errorf("write ticket: %w", err)
    }
    return nil
}

// renderTicket formats one confirmed booking as a single log line, the
// same content a mail template would carry.
func renderTicket(ev BookingConfirmedEvent) string {
    seats := "[]"
    if len(ev.SeatLabels) > 0 {
        seats = fmt.Sprintf("[%s]", strings.Join(ev.SeatLabels, ","))
    }
    return fmt.Sprintf("[%s] Ticket %s | booking_id=%d | user_id=%d | event=%q | venue=%q | starts_at=%s | seats=%s | total=%d cents | to=%q <%s>\n",
        ev.ConfirmedAt, ev.Reference, ev.BookingID, ev.UserID, ev.EventTitle, ev.Venue,
        ev.StartsAt, seats, ev.TotalAmountCents, ev.ContactName, ev.ContactEmail)
}
