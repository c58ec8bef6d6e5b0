package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chzzkwatch/internal/app"
)

func main() {
	var (
		cfgPath   string
		stateFile string
		loop      bool
	)
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config yaml/json")
	flag.StringVar(&stateFile, "state", "", "override state file path")
	flag.BoolVar(&loop, "loop", false, "run on the configured schedule instead of once")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(app.Options{ConfigPath: cfgPath, StateFile: stateFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
	defer a.Close()

	if loop {
		if err := a.RunLoop(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "fatal:", err)
			os.Exit(1)
		}
		return
	}

	// One-shot mode: processing is best-effort, so fetch/send problems never
	// change the exit code. Only a missing/invalid config exits non-zero.
	if err := a.RunOnce(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "run:", err)
	}
}
