// Package output publishes aircraft snapshots onto an AMQP fanout
// exchange, one JSON document per aircraft per tick, for downstream
// consumers (map displays, loggers) that don't want to link against the
// tracker directly.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"go1090track/internal/track"
)

// Snapshot is the wire schema published per aircraft, trimmed to the
// fields a downstream display typically wants.
type Snapshot struct {
	Hex       string  `json:"hex"`
	Flight    string  `json:"flight,omitempty"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Track     float64 `json:"track"`
	GS        float64 `json:"speed,omitempty"`
	Squawk    int     `json:"squawk,omitempty"`
	Category  int     `json:"category,omitempty"`
	Messages  int64   `json:"messages,omitempty"`
	Altitude  float64 `json:"altitude"`
	VertRate  float64 `json:"vert_rate,omitempty"`
	NIC       int     `json:"nic,omitempty"`
	Rc        float64 `json:"rc,omitempty"`
	SeenMs    int64   `json:"seen"`
	Timestamp int64   `json:"timestamp"`
}

func snapshotFrom(a track.Aircraft, ts int64) Snapshot {
	return Snapshot{
		Hex:       fmt.Sprintf("%06x", a.Address),
		Flight:    a.Flight,
		Lat:       a.Lat,
		Lon:       a.Lon,
		Track:     a.Track,
		GS:        a.GS,
		Squawk:    a.Squawk,
		Category:  a.Category,
		Messages:  a.Messages,
		Altitude:  a.AltGeom,
		VertRate:  a.GeomRate,
		NIC:       a.NIC,
		Rc:        a.Rc,
		SeenMs:    a.SeenMs,
		Timestamp: ts,
	}
}

// Publisher fans snapshots of every tracked aircraft out to an AMQP
// exchange on a fixed interval, reconnecting its channel if the broker
// closes it.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      *logrus.Logger
}

// Dial connects to an AMQP broker and declares the fanout exchange.
func Dial(url, exchange string, log *logrus.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("output: dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("output: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", false, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("output: declare exchange: %w", err)
	}
	return &Publisher{conn: conn, channel: ch, exchange: exchange, log: log}, nil
}

// Run publishes a snapshot of every tracked aircraft every interval until
// ctx is canceled, reopening its channel if the broker drops it.
func (p *Publisher) Run(ctx context.Context, t *track.Tracker, interval time.Duration) {
	closures := p.channel.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-closures:
				ch, err := p.conn.Channel()
				if err != nil {
					p.log.WithError(err).Error("output: failed to reopen amqp channel")
					return
				}
				p.channel = ch
				closures = ch.NotifyClose(make(chan *amqp.Error, 1))
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer p.channel.Close()
	defer p.conn.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publishAll(t)
		}
	}
}

func (p *Publisher) publishAll(t *track.Tracker) {
	now := time.Now().UnixMilli()
	for _, a := range t.Snapshot() {
		body, err := json.Marshal(snapshotFrom(a, now))
		if err != nil {
			p.log.WithError(err).Error("output: marshal snapshot")
			continue
		}
		msg := amqp.Publishing{
			DeliveryMode: amqp.Transient,
			Timestamp:    time.Now(),
			ContentType:  "application/json",
			Body:         body,
		}
		if err := p.channel.Publish(p.exchange, "", false, false, msg); err != nil {
			p.log.WithError(err).Error("output: publish snapshot")
		}
	}
}
