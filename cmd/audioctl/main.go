package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/horacv/audioengine/config"
	"github.com/horacv/audioengine/engine"
	"github.com/horacv/audioengine/logger"
	"github.com/horacv/audioengine/protocols/liveupdate"
	"github.com/horacv/audioengine/runtime"
)

func main() {
	configPath := flag.String("c", engine.DefaultConfigPath, "Path to the engine INI config")
	eventPath := flag.String("play", "", "Event to play once at startup (e.g. event:/UI/Click)")
	interactive := flag.Bool("i", false, "Interactive command mode")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logCfg := logger.Config{Level: "info", Outputs: []string{"stdout"}}
	if *debug {
		logCfg.Level = "debug"
	}
	if err := logger.Init(logCfg); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	e := engine.New(runtime.New, engine.Options{
		ConfigPath: *configPath,
		Logger:     logger.Logger(),
	})
	engine.SetDefault(e)

	if !e.Initialize() {
		logger.Error("Audio engine initialization failed")
		for _, w := range e.Warnings() {
			logger.Warn(w)
		}
		os.Exit(1)
	}
	defer e.Terminate()

	logger.Info("Audio engine ready", "bank_root", e.SoundBankRootDirectory())
	for _, w := range e.Warnings() {
		logger.Warn(w)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Failed to re-read config", "error", err)
		os.Exit(1)
	}

	var live *liveupdate.Service
	if engine.LiveUpdateSupported() && cfg.Bool("System", "EnableLiveUpdate") {
		if port := cfg.Int("Advanced", "LiveUpdatePort"); port > 0 {
			live = liveupdate.New(port, logger.Logger())
			if err := live.Start(); err != nil {
				logger.Warn("Live update unavailable", "error", err)
				live = nil
			} else {
				defer live.Close()
				logger.Info("Live update listening", "port", port)
			}
		}
	}

	updatePeriod := time.Duration(cfg.Int("Advanced", "StudioUpdatePeriodMs", 20)) * time.Millisecond

	if *eventPath != "" {
		if inst := e.PlayEvent(*eventPath, engine.DefaultPlayOptions()); inst == nil {
			logger.Error("Failed to play event", "event", *eventPath)
		} else {
			logger.Info("Playing", "event", *eventPath)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Interactive commands are read on their own goroutine but executed on
	// the owner loop below: the engine has a single-owner threading model.
	cmdChan := make(chan string)
	if *interactive {
		go readCommands(cmdChan)
	}

	ticker := time.NewTicker(updatePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.Update()
			if live != nil {
				live.Publish(e.Status())
			}
		case line := <-cmdChan:
			if !runCommand(e, line) {
				return
			}
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down", "signal", sig)
			return
		}
	}
}

func readCommands(out chan<- string) {
	color.Cyan("Commands: play <event> | stopall [bus] | vol <bus> <0..1> | status | quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			out <- "quit"
			return
		}
		out <- strings.TrimSpace(scanner.Text())
	}
}

// runCommand executes one interactive command on the owner goroutine.
// Returns false when the loop should exit.
func runCommand(e *engine.Engine, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	switch fields[0] {
	case "quit", "exit":
		return false

	case "play":
		if len(fields) < 2 {
			color.Red("usage: play <event>")
			return true
		}
		if inst := e.PlayEvent(fields[1], engine.DefaultPlayOptions()); inst == nil {
			color.Red("failed to play %s", fields[1])
		} else {
			color.Green("playing %s", fields[1])
		}

	case "stopall":
		busPath := "bus:/"
		if len(fields) > 1 {
			busPath = fields[1]
		}
		bus, ok := e.GetBus(busPath)
		if !ok || !e.BusStopAllEvents(bus, true) {
			color.Red("failed to stop %s", busPath)
		} else {
			color.Green("stopped all events on %s", busPath)
		}

	case "vol":
		if len(fields) < 3 {
			color.Red("usage: vol <bus> <0..1>")
			return true
		}
		v, err := strconv.ParseFloat(fields[2], 32)
		if err != nil {
			color.Red("bad volume %q", fields[2])
			return true
		}
		bus, ok := e.GetBus(fields[1])
		if !ok || !e.BusSetVolume(bus, float32(v)) {
			color.Red("failed to set volume on %s", fields[1])
		} else {
			color.Green("%s volume = %.2f", fields[1], v)
		}

	case "status":
		st := e.Status()
		color.Cyan("ready=%v bankRoot=%s plugins=%d warnings=%d",
			st.Ready, st.BankRootDirectory, len(st.PluginHandles), len(st.Warnings))
		for _, w := range st.Warnings {
			color.Yellow("  warn: %s", w)
		}

	default:
		color.Red("unknown command %q", fields[0])
	}
	return true
}
