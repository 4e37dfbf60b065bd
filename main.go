// Command ls8 executes LS-8 machine-code programs.
package main

import (
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"runtime/pprof"

	"github.com/retroenv/retrogolib/log"

	"github.com/nf/ls8/ls8"
)

func main() {
	stdlog.SetPrefix("ls8: ")
	stdlog.SetFlags(0)

	var (
		traceFlag   = flag.Bool("trace", false, "print a machine trace before each instruction")
		devFlag     = flag.Bool("dev", false, "enable developer mode (watch and re-run the program file)")
		debugFlag   = flag.Bool("debug", false, "enable debugger (implies -dev)")
		verboseFlag = flag.Bool("v", false, "enable debug logging")

		cpuProfileFlag = flag.String("cpu_profile", "", "write CPU profile to `file`")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-trace] <program.ls8>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s [-trace] <-dev | -debug> <program.ls8>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
	}

	logger := newLogger(*verboseFlag)

	if *devFlag || *debugFlag {
		if err := devMode(*debugFlag, *traceFlag, flag.Arg(0)); err != nil {
			logger.Fatal(err.Error())
		}
		return
	}

	var cpuProfile io.Closer
	if prof := *cpuProfileFlag; prof != "" {
		f, err := os.Create(prof)
		if err != nil {
			logger.Fatal("Creating CPU profile file", log.Err(err))
		}
		pprof.StartCPUProfile(f)
		cpuProfile = f
	}

	code := run(logger, flag.Arg(0), *traceFlag)

	if f := cpuProfile; f != nil {
		pprof.StopCPUProfile()
		f.Close()
	}

	os.Exit(code)
}

func run(logger *log.Logger, file string, trace bool) int {
	prog, err := ls8.LoadFile(file)
	if err != nil {
		logger.Error("Loading program", log.Err(err))
		return 2
	}
	logger.Debug("Program loaded",
		log.String("file", file),
		log.Int("bytes", len(prog)))

	r := NewRunner(false, trace, nil)
	return r.Run(prog)
}

func newLogger(verbose bool) *log.Logger {
	cfg := log.DefaultConfig()
	if verbose {
		cfg.Level = log.DebugLevel
	}
	return log.NewWithConfig(cfg)
}
