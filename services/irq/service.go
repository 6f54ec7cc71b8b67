// services/irq/service.go

// Package irq is the bus-facing control plane over the interrupt
// dispatch core: it brings controllers up from config, programs their
// lines, attaches interrupt-driven devices, forwards control verbs to
// the dispatch facade, and publishes dispatch events.
package irq

import (
	"context"

	"irqcore-go/bus"
	"irqcore-go/errcode"
	"irqcore-go/intr"
	"irqcore-go/services/consts"
	"irqcore-go/services/irq/internal/irqfeed"
	"irqcore-go/services/irq/internal/registry"
	"irqcore-go/services/irq/internal/util"
	"irqcore-go/types"
	"irqcore-go/x/timex"
)

type ctrlKey struct {
	kind  types.ControllerKind
	index int
}

type lineKey struct {
	ctrl ctrlKey
	line int
}

type devEntry struct {
	id  string
	ctx any
}

type Service struct {
	conn  *bus.Connection
	buses registry.I2CBusFactory
	feed  *irqfeed.Feed

	handles map[ctrlKey]*intr.Handle
	devices map[lineKey]devEntry
}

var (
	topicConfigIRQ = bus.Topic{consts.TokConfig, consts.TokIRQ}
	topicCtrl      = bus.Topic{consts.TokIRQ, consts.TokController, "+", "+", consts.TokControl, "+"}
)

// Operation names per kind, for the retained info document. The
// summary is board knowledge, not probed: probing would mutate the
// controllers it describes.
var kindOps = map[types.ControllerKind][]string{
	types.KindCPU:   {"register", "enable", "disable", "vector_enable", "vector_disable", "command"},
	types.KindCLINT: {"register", "enable", "disable", "mtimecmp_set", "command"},
	types.KindCLIC:  {"register", "enable", "disable", "vector_enable", "vector_disable", "priority", "threshold", "command"},
	types.KindPLIC:  {"register", "enable", "disable", "priority", "threshold", "command"},
}

func New(conn *bus.Connection, buses registry.I2CBusFactory, feed *irqfeed.Feed) *Service {
	return &Service{
		conn:    conn,
		buses:   buses,
		feed:    feed,
		handles: map[ctrlKey]*intr.Handle{},
		devices: map[lineKey]devEntry{},
	}
}

func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfigIRQ)
	ctrlSub := s.conn.Subscribe(topicCtrl)
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(ctrlSub)

	s.publishState("idle", "awaiting_config", nil)

	for {
		select {
		case <-ctx.Done():
			s.publishState("stopped", "context_cancelled", nil)
			return

		case msg := <-cfgSub.Channel():
			var cfg types.IRQConfig
			if err := util.DecodeJSON(msg.Payload, &cfg); err != nil {
				s.publishState("error", "config_decode_failed", err)
				continue
			}
			if err := s.applyConfig(ctx, cfg); err != nil {
				s.publishState("error", "apply_config_failed", err)
				continue
			}
			s.publishState("ready", "configured", nil)

		case msg := <-ctrlSub.Channel():
			s.handleControl(msg)

		case ev := <-s.feed.Events():
			s.handleDispatch(ev)
		}
	}
}

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

func (s *Service) applyConfig(ctx context.Context, cfg types.IRQConfig) error {
	for i := range cfg.Controllers {
		cs := &cfg.Controllers[i]
		key := ctrlKey{kind: cs.Kind, index: cs.Index}

		h, ok := intr.Lookup(cs.Kind, cs.Index)
		if !ok {
			// Normal on boards lacking this controller: report and
			// move on, clients branch on the retained state.
			s.pubCtrlState(key, consts.LinkDown, errcode.UnknownController)
			continue
		}
		s.handles[key] = h

		// Config re-apply hits an already-initialised instance;
		// that is bring-up idempotence, not a fault.
		if err := h.Init(); err != nil && err != errcode.AlreadyInitialized {
			s.pubCtrlState(key, consts.LinkDegraded, err)
			continue
		}

		if err := s.programLines(h, cs); err != nil {
			s.pubCtrlState(key, consts.LinkDegraded, err)
			continue
		}

		s.pubRet(topicCtrlBase(key).Append(consts.TokInfo), types.ControllerInfo{
			Kind:  cs.Kind,
			Index: cs.Index,
			Ops:   kindOps[cs.Kind],
		})
		s.pubCtrlState(key, consts.LinkUp, nil)
	}

	for i := range cfg.Devices {
		if err := s.buildDevice(ctx, &cfg.Devices[i]); err != nil {
			s.pubRet(bus.Topic{consts.TokIRQ, consts.TokDevice, cfg.Devices[i].ID, consts.TokState},
				types.ControllerState{Link: types.LinkDown, TS: timex.NowMs(), Error: string(errcode.Of(err))})
		}
	}
	return nil
}

// programLines applies threshold, priorities, vector modes and enables
// in that order, so nothing unmasks before its arbitration is set.
func (s *Service) programLines(h *intr.Handle, cs *types.ControllerSpec) error {
	if cs.Threshold != nil {
		if err := h.SetThreshold(*cs.Threshold); err != nil {
			return err
		}
	}
	for _, ln := range cs.Lines {
		if ln.Priority != nil {
			if err := h.SetPriority(ln.ID, *ln.Priority); err != nil {
				return err
			}
		}
		if ln.Vector != "" {
			mode, ok := types.ParseVectorMode(ln.Vector)
			if !ok {
				return errcode.InvalidPayload
			}
			if err := h.VectorEnable(ln.ID, mode); err != nil {
				return err
			}
		}
	}
	// Enabling a line with no registered handler is legal: the
	// backend's unhandled fallback applies until a device registers.
	for _, ln := range cs.Lines {
		if !ln.Enable {
			continue
		}
		if err := h.Enable(ln.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) buildDevice(ctx context.Context, d *types.DeviceSpec) error {
	key := ctrlKey{kind: d.Controller.Kind, index: d.Controller.Index}
	h, ok := s.handles[key]
	if !ok {
		if h, ok = intr.Lookup(d.Controller.Kind, d.Controller.Index); !ok {
			return errcode.UnknownController
		}
	}

	b, ok := registry.Lookup(d.Type)
	if !ok {
		return errcode.UnknownDevice
	}
	out, err := b.Build(registry.BuildInput{
		Ctx:      ctx,
		Buses:    s.buses,
		DeviceID: d.ID,
		Type:     d.Type,
		Params:   d.Params,
	})
	if err != nil {
		return err
	}

	if err := h.Register(d.Line, out.Handler, out.Ctx); err != nil {
		return err
	}
	s.devices[lineKey{ctrl: key, line: d.Line}] = devEntry{id: d.ID, ctx: out.Ctx}

	s.pubRet(bus.Topic{consts.TokIRQ, consts.TokDevice, d.ID, consts.TokInfo}, out.Info)
	s.pubRet(bus.Topic{consts.TokIRQ, consts.TokDevice, d.ID, consts.TokState},
		types.ControllerState{Link: types.LinkUp, TS: timex.NowMs()})
	return nil
}

// -----------------------------------------------------------------------------
// Control verbs
// -----------------------------------------------------------------------------

func (s *Service) handleControl(msg *bus.Message) {
	// irq/controller/<kind>/<index:int>/control/<verb>
	if len(msg.Topic) < 6 {
		return
	}
	kindStr, _ := msg.Topic[2].(string)
	index, ok := asInt(msg.Topic[3])
	if !ok || kindStr == "" {
		s.replyErr(msg, errcode.InvalidTopic)
		return
	}
	verb, _ := msg.Topic[5].(string)

	h, ok := intr.Lookup(types.ControllerKind(kindStr), index)
	if !ok {
		s.replyErr(msg, errcode.UnknownController)
		return
	}

	switch verb {
	case consts.CtrlEnable:
		var p types.LineControl
		s.replyResult(msg, decodeThen(msg.Payload, &p, func() error { return h.Enable(p.ID) }))

	case consts.CtrlDisable:
		var p types.LineControl
		s.replyResult(msg, decodeThen(msg.Payload, &p, func() error { return h.Disable(p.ID) }))

	case consts.CtrlSetPriority:
		var p types.PriorityControl
		s.replyResult(msg, decodeThen(msg.Payload, &p, func() error { return h.SetPriority(p.ID, p.Value) }))

	case consts.CtrlGetPriority:
		var p types.LineControl
		if err := util.DecodeJSON(msg.Payload, &p); err != nil {
			s.replyErr(msg, errcode.InvalidPayload)
			return
		}
		v, err := h.Priority(p.ID)
		s.replyValue(msg, v, err)

	case consts.CtrlSetThreshold:
		var p types.ThresholdControl
		s.replyResult(msg, decodeThen(msg.Payload, &p, func() error { return h.SetThreshold(p.Value) }))

	case consts.CtrlGetThreshold:
		v, err := h.Threshold()
		s.replyValue(msg, v, err)

	case consts.CtrlVectorEnable:
		var p types.VectorControl
		if err := util.DecodeJSON(msg.Payload, &p); err != nil {
			s.replyErr(msg, errcode.InvalidPayload)
			return
		}
		mode, ok := types.ParseVectorMode(p.Mode)
		if !ok {
			s.replyErr(msg, errcode.InvalidPayload)
			return
		}
		s.replyResult(msg, h.VectorEnable(p.ID, mode))

	case consts.CtrlVectorDisable:
		var p types.LineControl
		s.replyResult(msg, decodeThen(msg.Payload, &p, func() error { return h.VectorDisable(p.ID) }))

	case consts.CtrlMtimecmpSet:
		var p types.TimerCompareControl
		s.replyResult(msg, decodeThen(msg.Payload, &p, func() error {
			return h.SetTimerCompare(types.HartID(p.Hart), p.Time)
		}))

	case consts.CtrlCommand:
		var p types.CommandControl
		if err := util.DecodeJSON(msg.Payload, &p); err != nil {
			s.replyErr(msg, errcode.InvalidPayload)
			return
		}
		// Command data is integral for every defined command, but the
		// JSON round trip turns numbers into float64.
		if f, ok := p.Data.(float64); ok {
			p.Data = int(f)
		}
		v, err := h.CommandRequest(p.Cmd, p.Data)
		s.replyValue(msg, v, err)

	case consts.CtrlFire:
		var p types.LineControl
		s.replyResult(msg, decodeThen(msg.Payload, &p, func() error {
			_, err := h.CommandRequest(types.CmdFire, p.ID)
			return err
		}))

	default:
		s.replyErr(msg, errcode.Unsupported)
	}
}

// decodeThen decodes payload into p and runs op; a decode failure wins.
func decodeThen[T any](payload any, p *T, op func() error) error {
	if err := util.DecodeJSON(payload, p); err != nil {
		return errcode.InvalidPayload
	}
	return op()
}

// -----------------------------------------------------------------------------
// Dispatch events
// -----------------------------------------------------------------------------

func (s *Service) handleDispatch(ev irqfeed.Event) {
	key := ctrlKey{kind: ev.Kind, index: ev.Index}
	ts := ev.TS.UnixMilli()

	s.conn.Publish(s.conn.NewMessage(
		topicCtrlBase(key).Append(consts.TokEvent),
		types.IRQEvent{ID: ev.ID, TsMs: ts},
		false,
	))

	if dev, ok := s.devices[lineKey{ctrl: key, line: ev.ID}]; ok {
		s.conn.Publish(s.conn.NewMessage(
			bus.Topic{consts.TokIRQ, consts.TokDevice, dev.id, consts.TokEvent},
			types.IRQEvent{ID: ev.ID, TsMs: ts},
			false,
		))
	}
}

// -----------------------------------------------------------------------------
// Publish/reply helpers
// -----------------------------------------------------------------------------

func topicCtrlBase(key ctrlKey) bus.Topic {
	return bus.Topic{consts.TokIRQ, consts.TokController, string(key.kind), key.index}
}

func (s *Service) pubRet(t bus.Topic, p any) {
	s.conn.Publish(s.conn.NewMessage(t, p, true))
}

func (s *Service) pubCtrlState(key ctrlKey, link string, err error) {
	st := types.ControllerState{Link: types.Link(link), TS: timex.NowMs()}
	if err != nil {
		st.Error = string(errcode.Of(err))
	}
	s.pubRet(topicCtrlBase(key).Append(consts.TokState), st)
}

func (s *Service) publishState(level, status string, err error) {
	payload := map[string]any{"level": level, "status": status, "ts_ms": timex.NowMs()}
	if err != nil {
		payload["error"] = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(bus.Topic{consts.TokIRQ, consts.TokState}, payload, true))
}

func (s *Service) replyResult(msg *bus.Message, err error) {
	if err != nil {
		s.replyErr(msg, errcode.Of(err))
		return
	}
	if !msg.CanReply() {
		return
	}
	s.conn.Reply(msg, types.OKReply{OK: true}, false)
}

func (s *Service) replyValue(msg *bus.Message, v any, err error) {
	if err != nil {
		s.replyErr(msg, errcode.Of(err))
		return
	}
	if !msg.CanReply() {
		return
	}
	s.conn.Reply(msg, types.ValueReply{OK: true, Value: v}, false)
}

func (s *Service) replyErr(msg *bus.Message, code errcode.Code) {
	if !msg.CanReply() {
		return
	}
	if code == "" {
		code = errcode.Error
	}
	s.conn.Reply(msg, types.ErrorReply{OK: false, Error: string(code)}, false)
}

func asInt(t any) (int, bool) {
	switch v := t.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
