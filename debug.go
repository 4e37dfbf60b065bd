package main

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/nf/ls8/ls8"
)

type stateKind int

const (
	runState stateKind = iota
	pauseState
	breakState
	haltState
)

// debugger is a tview UI for inspecting and stepping a running machine.
// Commands are typed into the input field:
//
//	b [addr]   set (or clear) the breakpoint at hex addr
//	w addr     watch the memory cell at hex addr
//	p          pause execution
//	s          execute one instruction
//	c          continue execution
//	exit       leave the debugger
type debugger struct {
	log   *tview.TextView
	watch *tview.TextView
	state *tview.TextView
	input *tview.InputField
	rows  *tview.Flex
	cols  *tview.Flex
	app   *tview.Application

	cmds chan string

	mu      sync.Mutex
	brk     int // breakpoint address, -1 for none
	watches []int
}

func newDebugger() *debugger {
	d := &debugger{
		log: tview.NewTextView().
			SetMaxLines(1000),
		watch: tview.NewTextView().
			SetWrap(false).
			SetTextAlign(tview.AlignRight),
		state: tview.NewTextView().
			SetWrap(false),
		input: tview.NewInputField(),
		cols:  tview.NewFlex(),
		rows: tview.NewFlex().
			SetDirection(tview.FlexRow),
		app:  tview.NewApplication(),
		cmds: make(chan string, 8),
		brk:  -1,
	}
	d.log.SetChangedFunc(func() { d.app.Draw() })
	d.watch.SetBackgroundColor(tcell.ColorDarkBlue)
	d.state.SetBackgroundColor(tcell.ColorDarkGrey)
	d.cols.
		AddItem(d.watch, 0, 1, false).
		AddItem(d.log, 0, 2, false)
	d.rows.
		AddItem(d.cols, 0, 1, false).
		AddItem(d.state, 4, 0, false).
		AddItem(d.input, 1, 0, true)
	d.app.SetRoot(d.rows, true)

	d.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := d.input.GetText()
		if text == "" {
			return
		}
		d.input.SetText("")
		if text == "exit" {
			d.app.Stop()
			return
		}
		cmd, arg, _ := strings.Cut(text, " ")
		switch cmd {
		case "b", "break":
			if arg == "" {
				d.setBreak(-1)
				log.Print("cleared break")
				return
			}
			addr, ok := parseAddr(arg)
			if !ok {
				log.Printf("invalid addr %q", arg)
				return
			}
			d.setBreak(addr)
			log.Printf("set break %02x", addr)
		case "w", "watch":
			addr, ok := parseAddr(arg)
			if !ok {
				log.Printf("invalid addr %q", arg)
				return
			}
			d.mu.Lock()
			d.watches = append(d.watches, addr)
			d.mu.Unlock()
			log.Printf("watching %02x", addr)
		case "p", "pause", "s", "step", "c", "cont", "continue":
			select {
			case d.cmds <- cmd[:1]:
			default:
				log.Print("no program running")
			}
		default:
			log.Printf("unknown command %q", text)
		}
	})
	return d
}

func parseAddr(s string) (int, bool) {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

func (d *debugger) Run() error { return d.app.Run() }

func (d *debugger) setBreak(addr int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.brk = addr
}

func (d *debugger) breakpoint() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.brk
}

// exec drives m one instruction at a time, honoring the breakpoint and any
// pause/step/continue commands from the UI.
func (d *debugger) exec(m *ls8.Machine, stop <-chan struct{}, tracef func(string, ...any)) error {
	var (
		paused = false
		kind   = runState
	)
	for {
		select {
		case <-stop:
			return ls8.ErrStopped
		default:
		}
		if !paused {
			select {
			case c := <-d.cmds:
				if c == "p" {
					paused, kind = true, pauseState
				}
			default:
			}
		}
		if paused {
			d.update(m, kind)
		wait:
			for {
				select {
				case <-stop:
					return ls8.ErrStopped
				case c := <-d.cmds:
					switch c {
					case "s":
						kind = pauseState
						break wait
					case "c":
						paused = false
						break wait
					}
				}
			}
		}
		tracef("%s", m.Trace())
		if err := m.Exec(); err != nil {
			if err == ls8.ErrHLT {
				return nil
			}
			d.update(m, haltState)
			return err
		}
		if d.breakpoint() == m.PC {
			paused, kind = true, breakState
		}
	}
}

func (d *debugger) update(m *ls8.Machine, k stateKind) {
	var (
		watch = d.watchContent(m)
		state = stateMsg(m, k)
	)
	d.app.QueueUpdateDraw(func() {
		switch k {
		case runState:
			d.state.SetTextColor(tcell.ColorBlack)
			d.state.SetBackgroundColor(tcell.ColorDarkGrey)
		case breakState:
			d.state.SetTextColor(tcell.ColorYellow)
			d.state.SetBackgroundColor(tcell.ColorDarkBlue)
		case pauseState:
			d.state.SetTextColor(tcell.ColorWhite)
			d.state.SetBackgroundColor(tcell.ColorDarkBlue)
		case haltState:
			d.state.SetTextColor(tcell.ColorWhite)
			d.state.SetBackgroundColor(tcell.ColorDarkRed)
		}
		d.watch.SetText(watch)
		d.state.SetText(state)
	})
}

func stateMsg(m *ls8.Machine, k stateKind) string {
	kind := "       "
	switch k {
	case breakState:
		kind = "[break]"
	case pauseState:
		kind = "[pause]"
	case haltState:
		kind = "[HALT!]"
	}
	return fmt.Sprintf("%- 5s %s fl: %08b\ntrace: %s\nstack: %s\n",
		ls8.Op(m.Mem[m.PC&0xff]), kind, m.FL, m.Trace(), m.StackString())
}

func (d *debugger) watchContent(m *ls8.Machine) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	if d.brk >= 0 {
		fmt.Fprintf(&b, "[%02x] brk!\n", d.brk)
	}
	for _, addr := range d.watches {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%02x] %02x", addr, m.Mem[addr])
	}
	return b.String()
}
