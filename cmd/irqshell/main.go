// cmd/irqshell/main.go

// irqshell is an interactive console over the interrupt service: it
// starts the full stack in-process and translates typed commands into
// bus control requests, printing the replies. Quoted arguments follow
// shell rules, so device ids with spaces work.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/shlex"

	"irqcore-go/bus"
	"irqcore-go/services/irq"
	"irqcore-go/services/stats"
	"irqcore-go/types"
)

const replyTimeout = 2 * time.Second

const helpText = `commands:
  config <kind> <idx> [threshold]        bring a controller up
  line <kind> <idx> <id> <prio> [mode]   configure and enable one line
  enable|disable <kind> <idx> <id>
  pri <kind> <idx> <id> <value>          set line priority
  getpri <kind> <idx> <id>
  threshold <kind> <idx> <value>
  getthreshold <kind> <idx>
  vec <kind> <idx> <id> <mode>           direct|vectored|selective|hardware
  unvec <kind> <idx> <id>
  fire <kind> <idx> <id>
  mtimecmp <idx> <hart> <time>           program CLINT timer compare
  cmd <kind> <idx> <code> [data]         raw command request
  stats                                  show the retained snapshot
  help
  quit`

type shell struct {
	ui *bus.Connection
}

func (s *shell) request(topic bus.Topic, payload any) {
	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()
	reply, err := s.ui.RequestWait(ctx, s.ui.NewMessage(topic, payload, false))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	switch p := reply.Payload.(type) {
	case types.ErrorReply:
		fmt.Println("error:", p.Error)
	case types.ValueReply:
		fmt.Println("=", p.Value)
	case types.OKReply:
		fmt.Println("ok")
	default:
		fmt.Printf("? %+v\n", reply.Payload)
	}
}

func (s *shell) ctrl(kind string, idx int, verb string, payload any) {
	s.request(bus.T("irq", "controller", kind, idx, "control", verb), payload)
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// need reports whether args has exactly n entries past the verb.
func need(args []string, n int) bool {
	if len(args) != n {
		fmt.Printf("expected %d argument(s), got %d (try help)\n", n, len(args))
		return false
	}
	return true
}

func (s *shell) dispatch(words []string) bool {
	verb, args := words[0], words[1:]
	switch verb {
	case "quit", "exit":
		return false

	case "help":
		fmt.Println(helpText)

	case "config":
		if len(args) != 2 && len(args) != 3 {
			fmt.Println("usage: config <kind> <idx> [threshold]")
			break
		}
		idx, ok := atoi(args[1])
		if !ok {
			fmt.Println("bad index:", args[1])
			break
		}
		spec := types.ControllerSpec{Kind: types.ControllerKind(args[0]), Index: idx}
		if len(args) == 3 {
			t, ok := atoi(args[2])
			if !ok || t < 0 {
				fmt.Println("bad threshold:", args[2])
				break
			}
			thr := uint32(t)
			spec.Threshold = &thr
		}
		s.ui.Publish(s.ui.NewMessage(bus.T("config", "irq"),
			types.IRQConfig{Controllers: []types.ControllerSpec{spec}}, false))
		fmt.Println("config sent; watch irq/controller/.../state")

	case "line":
		if len(args) != 4 && len(args) != 5 {
			fmt.Println("usage: line <kind> <idx> <id> <prio> [mode]")
			break
		}
		idx, ok1 := atoi(args[1])
		id, ok2 := atoi(args[2])
		p, ok3 := atoi(args[3])
		if !ok1 || !ok2 || !ok3 || p < 0 {
			fmt.Println("bad numeric argument")
			break
		}
		pri := uint32(p)
		line := types.LineSpec{ID: id, Priority: &pri, Enable: true}
		if len(args) == 5 {
			line.Vector = args[4]
		}
		s.ui.Publish(s.ui.NewMessage(bus.T("config", "irq"), types.IRQConfig{
			Controllers: []types.ControllerSpec{{
				Kind: types.ControllerKind(args[0]), Index: idx,
				Lines: []types.LineSpec{line},
			}},
		}, false))
		fmt.Println("config sent")

	case "enable", "disable":
		if !need(args, 3) {
			break
		}
		idx, ok1 := atoi(args[1])
		id, ok2 := atoi(args[2])
		if !ok1 || !ok2 {
			fmt.Println("bad numeric argument")
			break
		}
		s.ctrl(args[0], idx, verb, types.LineControl{ID: id})

	case "pri":
		if !need(args, 4) {
			break
		}
		idx, ok1 := atoi(args[1])
		id, ok2 := atoi(args[2])
		v, ok3 := atoi(args[3])
		if !ok1 || !ok2 || !ok3 || v < 0 {
			fmt.Println("bad numeric argument")
			break
		}
		s.ctrl(args[0], idx, "set_priority", types.PriorityControl{ID: id, Value: uint32(v)})

	case "getpri":
		if !need(args, 3) {
			break
		}
		idx, ok1 := atoi(args[1])
		id, ok2 := atoi(args[2])
		if !ok1 || !ok2 {
			fmt.Println("bad numeric argument")
			break
		}
		s.ctrl(args[0], idx, "get_priority", types.LineControl{ID: id})

	case "threshold":
		if !need(args, 3) {
			break
		}
		idx, ok1 := atoi(args[1])
		v, ok2 := atoi(args[2])
		if !ok1 || !ok2 || v < 0 {
			fmt.Println("bad numeric argument")
			break
		}
		s.ctrl(args[0], idx, "set_threshold", types.ThresholdControl{Value: uint32(v)})

	case "getthreshold":
		if !need(args, 2) {
			break
		}
		idx, ok := atoi(args[1])
		if !ok {
			fmt.Println("bad index:", args[1])
			break
		}
		s.ctrl(args[0], idx, "get_threshold", nil)

	case "vec":
		if !need(args, 4) {
			break
		}
		idx, ok1 := atoi(args[1])
		id, ok2 := atoi(args[2])
		if !ok1 || !ok2 {
			fmt.Println("bad numeric argument")
			break
		}
		s.ctrl(args[0], idx, "vector_enable", types.VectorControl{ID: id, Mode: args[3]})

	case "unvec":
		if !need(args, 3) {
			break
		}
		idx, ok1 := atoi(args[1])
		id, ok2 := atoi(args[2])
		if !ok1 || !ok2 {
			fmt.Println("bad numeric argument")
			break
		}
		s.ctrl(args[0], idx, "vector_disable", types.LineControl{ID: id})

	case "fire":
		if !need(args, 3) {
			break
		}
		idx, ok1 := atoi(args[1])
		id, ok2 := atoi(args[2])
		if !ok1 || !ok2 {
			fmt.Println("bad numeric argument")
			break
		}
		s.ctrl(args[0], idx, "fire", types.LineControl{ID: id})

	case "mtimecmp":
		if !need(args, 3) {
			break
		}
		idx, ok1 := atoi(args[0])
		hart, ok2 := atoi(args[1])
		t, err := strconv.ParseUint(args[2], 10, 64)
		if !ok1 || !ok2 || err != nil {
			fmt.Println("bad numeric argument")
			break
		}
		s.ctrl(string(types.KindCLINT), idx, "mtimecmp_set",
			types.TimerCompareControl{Hart: hart, Time: t})

	case "cmd":
		if len(args) != 3 && len(args) != 4 {
			fmt.Println("usage: cmd <kind> <idx> <code> [data]")
			break
		}
		idx, ok1 := atoi(args[1])
		code, ok2 := atoi(args[2])
		if !ok1 || !ok2 {
			fmt.Println("bad numeric argument")
			break
		}
		var data any
		if len(args) == 4 {
			d, ok := atoi(args[3])
			if !ok {
				fmt.Println("bad data:", args[3])
				break
			}
			data = d
		}
		s.ctrl(args[0], idx, "command", types.CommandControl{Cmd: code, Data: data})

	case "stats":
		sub := s.ui.Subscribe(bus.T("irq", "stats"))
		select {
		case m := <-sub.Channel():
			if snap, ok := m.Payload.(stats.Snapshot); ok {
				fmt.Printf("total=%d last_id=%d per_controller=%v\n",
					snap.Total, snap.LastID, snap.PerCtrl)
			}
		case <-time.After(300 * time.Millisecond):
			fmt.Println("no snapshot yet")
		}
		s.ui.Unsubscribe(sub)

	default:
		fmt.Printf("unknown command %q (try help)\n", verb)
	}
	return true
}

func main() {
	ctx := context.Background()

	b := bus.NewBus(16)
	go irq.Run(ctx, b.NewConnection("irq"))

	statSvc := stats.New(time.Second)
	if err := statSvc.Start(ctx, b.NewConnection("stats")); err != nil {
		fmt.Fprintln(os.Stderr, "irqshell: stats:", err)
		os.Exit(1)
	}

	ui := b.NewConnection("shell")
	sh := &shell{ui: ui}

	// Print dispatch events as they happen, interleaved with the prompt.
	evSub := ui.Subscribe(bus.T("irq", "controller", "+", "+", "event"))
	go func() {
		for m := range evSub.Channel() {
			if ev, ok := m.Payload.(types.IRQEvent); ok {
				fmt.Printf("\n[event] %v/%v id=%d\n> ", m.Topic[2], m.Topic[3], ev.ID)
			}
		}
	}()

	fmt.Println("irqshell (help for commands)")
	in := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for in.Scan() {
		words, err := shlex.Split(in.Text())
		if err != nil {
			fmt.Println("parse error:", err)
			fmt.Print("> ")
			continue
		}
		if len(words) == 0 {
			fmt.Print("> ")
			continue
		}
		if !sh.dispatch(words) {
			return
		}
		fmt.Print("> ")
	}
}
