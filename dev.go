package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/howeyc/fsnotify"

	"github.com/nf/ls8/ls8"
)

// devMode watches an .ls8 program file and re-loads it into a fresh machine
// whenever it changes. With debugUI set it also runs the tview debugger,
// redirecting the standard logger into its log pane.
func devMode(debugUI, trace bool, file string) error {
	file = filepath.Clean(file)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Watch(filepath.Dir(file)); err != nil {
		return err
	}

	var dbg *debugger
	if debugUI {
		dbg = newDebugger()
	}
	runner := NewRunner(true, trace, dbg)
	if dbg != nil {
		log.SetPrefix("")
		log.SetOutput(dbg.log)
		go func() {
			if err := dbg.Run(); err != nil {
				log.Fatalf("debug: %v", err)
			}
			log.SetOutput(os.Stderr)
			log.SetPrefix("ls8: ")
			os.Exit(0)
		}()
	}

	progCh := make(chan []byte)
	go func() {
		started := false
		run := time.After(1 * time.Millisecond)
		for {
			select {
			case <-run:
				log.Printf("dev: load %s", filepath.Base(file))
				prog, err := ls8.LoadFile(file)
				if err != nil {
					log.Printf("dev: %v", err)
					break
				}
				if !started {
					log.Print("dev: start")
					progCh <- prog
					started = true
				} else {
					log.Print("dev: reset")
					runner.Swap(prog)
				}
			case ev := <-watcher.Event:
				if ev.Name == file && !ev.IsAttrib() {
					run = time.After(100 * time.Millisecond)
				}
			case err := <-watcher.Error:
				log.Printf("dev: watcher: %v", err)
			}
		}
	}()
	code := runner.Run(<-progCh)
	return fmt.Errorf("dev: exit code: %d", code)
}
