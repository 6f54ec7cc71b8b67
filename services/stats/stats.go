// services/stats/stats.go

// Package stats aggregates interrupt dispatch events into per
// controller counters and publishes them retained at a fixed cadence,
// for dashboards that prefer one summary document over the raw
// event stream.
package stats

import (
	"context"
	"strconv"
	"time"

	"irqcore-go/bus"
	"irqcore-go/services/consts"
	"irqcore-go/types"
	"irqcore-go/x/timex"
)

var (
	topicEvents = bus.Topic{consts.TokIRQ, consts.TokController, "+", "+", consts.TokEvent}
	topicStats  = bus.Topic{consts.TokIRQ, consts.TokStats}
	topicConfig = bus.Topic{consts.TokConfig, consts.TokStats}
)

// Snapshot is the retained stats document.
type Snapshot struct {
	Total    uint64            `json:"total"`
	PerCtrl  map[string]uint64 `json:"per_controller"`
	LastID   int               `json:"last_id"`
	LastTsMs int64             `json:"last_ts_ms"`
	TsMs     int64             `json:"ts_ms"`
}

type Service struct {
	interval time.Duration

	total   uint64
	perCtrl map[string]uint64
	lastID  int
	lastTs  int64
	dirty   bool
}

func New(interval time.Duration) *Service {
	if interval <= 0 {
		interval = time.Second
	}
	return &Service{interval: interval, perCtrl: map[string]uint64{}}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	evSub := conn.Subscribe(topicEvents)
	cfgSub := conn.Subscribe(topicConfig)
	defer conn.Unsubscribe(evSub)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			println("Info: stats service stopping")
			return

		case <-tick.C:
			if !s.dirty {
				continue
			}
			s.dirty = false
			conn.Publish(conn.NewMessage(topicStats, s.snapshot(), true))

		case msg := <-evSub.Channel():
			s.record(msg)

		case msg := <-cfgSub.Channel():
			if m, ok := msg.Payload.(map[string]any); ok {
				if iv, ok := m["interval_ms"].(float64); ok && iv > 0 {
					tick.Reset(time.Duration(iv) * time.Millisecond)
				}
			}
		}
	}
}

// record keys the counter on "<kind>/<index>" from the event topic.
func (s *Service) record(msg *bus.Message) {
	ev, ok := msg.Payload.(types.IRQEvent)
	if !ok || len(msg.Topic) < 5 {
		return
	}
	kind, _ := msg.Topic[2].(string)
	key := kind + "/" + itoa(msg.Topic[3])
	s.total++
	s.perCtrl[key]++
	s.lastID = ev.ID
	s.lastTs = ev.TsMs
	s.dirty = true
}

func (s *Service) snapshot() Snapshot {
	per := make(map[string]uint64, len(s.perCtrl))
	for k, v := range s.perCtrl {
		per[k] = v
	}
	return Snapshot{
		Total:    s.total,
		PerCtrl:  per,
		LastID:   s.lastID,
		LastTsMs: s.lastTs,
		TsMs:     timex.NowMs(),
	}
}

func itoa(tok any) string {
	if n, ok := tok.(int); ok {
		return strconv.Itoa(n)
	}
	return "?"
}

// Start the stats service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
