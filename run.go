package main

import (
	"log"
	"os"
	"time"

	"github.com/nf/ls8/ls8"
)

// Runner executes LS-8 programs, feeding the machine timer and keyboard
// interrupts, and in dev mode supports live replacement of the running
// program via Swap.
type Runner struct {
	dev   bool
	trace bool
	debug *debugger

	swap     chan []byte
	swapDone chan bool
}

func NewRunner(devMode, trace bool, dbg *debugger) *Runner {
	return &Runner{
		dev:      devMode,
		trace:    trace,
		debug:    dbg,
		swap:     make(chan []byte),
		swapDone: make(chan bool),
	}
}

// Swap stops the running machine and starts a fresh one loaded with prog.
func (r *Runner) Swap(prog []byte) {
	if !r.dev {
		panic("Swap called while not running in dev mode")
	}
	r.swap <- prog
	<-r.swapDone
}

// Run executes prog until it halts or faults. In dev mode Run keeps the
// machine alive after termination so that Swap may start a new program.
func (r *Runner) Run(prog []byte) (exitCode int) {
	var keys <-chan byte
	if r.debug == nil {
		// The debugger UI owns stdin.
		keys = readKeys()
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var (
		m       *ls8.Machine
		stop    chan struct{}
		execErr = make(chan error)
		running bool
	)
	start := func(prog []byte) {
		m = ls8.New(prog)
		stop = make(chan struct{})
		running = true
		go func(m *ls8.Machine, stop chan struct{}) {
			execErr <- r.exec(m, stop)
		}(m, stop)
	}
	start(prog)

	for {
		select {
		case <-ticker.C:
			m.Raise(ls8.TimerInterrupt)
		case k := <-keys:
			m.RaiseKey(k)
		case prog := <-r.swap:
			if running {
				close(stop)
				m.Stop()
				<-execErr
			}
			start(prog)
			r.swapDone <- true
		case err := <-execErr:
			running = false
			code := 0
			switch err {
			case nil:
				if r.dev {
					log.Print("halted")
				}
			case ls8.ErrStopped:
			default:
				log.Print(err)
				if _, unknown := err.(ls8.UnknownOpError); !unknown {
					code = 1
				}
			}
			if !r.dev {
				return code
			}
		}
	}
}

func (r *Runner) exec(m *ls8.Machine, stop <-chan struct{}) error {
	tracef := ls8.Nopf
	if r.trace {
		tracef = func(format string, args ...any) {
			log.Printf("trace: "+format, args...)
		}
	}
	if d := r.debug; d != nil {
		return d.exec(m, stop, tracef)
	}
	return m.Run(tracef)
}

// readKeys emits each byte read from stdin, for delivery to the machine
// as a keyboard interrupt.
func readKeys() <-chan byte {
	keys := make(chan byte, 1)
	go func() {
		var b [1]byte
		for {
			if _, err := os.Stdin.Read(b[:]); err != nil {
				log.Printf("reading stdin: %v", err)
				return
			}
			keys <- b[0]
		}
	}()
	return keys
}
