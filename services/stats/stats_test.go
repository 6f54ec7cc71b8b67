// services/stats/stats_test.go
package stats

import (
	"context"
	"testing"
	"time"

	"irqcore-go/bus"
	"irqcore-go/services/consts"
	"irqcore-go/types"
)

func eventTopic(kind string, index int) bus.Topic {
	return bus.Topic{consts.TokIRQ, consts.TokController, kind, index, consts.TokEvent}
}

func TestSnapshotAggregatesEvents(t *testing.T) {
	b := bus.NewBus(16)
	svc := New(20 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Start(ctx, b.NewConnection("stats")); err != nil {
		t.Fatal(err)
	}

	client := b.NewConnection("client")
	statsSub := client.Subscribe(bus.Topic{consts.TokIRQ, consts.TokStats})

	// Give the service loop time to subscribe before the burst.
	time.Sleep(20 * time.Millisecond)

	client.Publish(client.NewMessage(eventTopic("plic", 0), types.IRQEvent{ID: 2, TsMs: 100}, false))
	client.Publish(client.NewMessage(eventTopic("plic", 0), types.IRQEvent{ID: 5, TsMs: 200}, false))
	client.Publish(client.NewMessage(eventTopic("clic", 0), types.IRQEvent{ID: 1, TsMs: 300}, false))

	var snap Snapshot
	deadline := time.After(time.Second)
	for snap.Total != 3 {
		select {
		case m := <-statsSub.Channel():
			snap = m.Payload.(Snapshot)
		case <-deadline:
			t.Fatalf("timed out, last snapshot %+v", snap)
		}
	}

	if snap.PerCtrl["plic/0"] != 2 || snap.PerCtrl["clic/0"] != 1 {
		t.Fatalf("per-controller counts = %v", snap.PerCtrl)
	}
	if snap.LastID != 1 || snap.LastTsMs != 300 {
		t.Fatalf("last event = id %d ts %d", snap.LastID, snap.LastTsMs)
	}
}

func TestNoEventsNoPublish(t *testing.T) {
	b := bus.NewBus(16)
	svc := New(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Start(ctx, b.NewConnection("stats")); err != nil {
		t.Fatal(err)
	}

	client := b.NewConnection("client")
	statsSub := client.Subscribe(bus.Topic{consts.TokIRQ, consts.TokStats})

	select {
	case m := <-statsSub.Channel():
		t.Fatalf("unexpected snapshot %+v", m.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}
