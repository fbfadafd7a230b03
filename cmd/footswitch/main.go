package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/chase3718/midi-footswitch/internal/board"
	"github.com/chase3718/midi-footswitch/internal/config"
	"github.com/chase3718/midi-footswitch/internal/control"
	"github.com/chase3718/midi-footswitch/internal/dispatch"
	"github.com/chase3718/midi-footswitch/internal/indicator"
	"github.com/chase3718/midi-footswitch/internal/ingress"
	"github.com/chase3718/midi-footswitch/internal/midiparse"
	"github.com/chase3718/midi-footswitch/internal/pin"
	"github.com/chase3718/midi-footswitch/internal/ringbuf"
	"github.com/chase3718/midi-footswitch/internal/switches"
)

// -------------------- Logger --------------------

// logger is the package-wide structured logger. Safe to use before initLogger
// is called; defaults to slog.Default().
var logger = slog.Default()

// initLogger configures the shared slog logger and calls slog.SetDefault so
// the stdlib log package also routes through the same handler. Every line
// carries the boot id.
func initLogger(debug bool, boot string) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h).With("boot", boot)
	slog.SetDefault(logger)
}

// -------------------- Tunables --------------------

const (
	defaultSerial = "/dev/ttyAMA0"
	defaultGPIO   = "periph"
	defaultIdle   = time.Millisecond
	midiRescan    = time.Second
)

type options struct {
	configPath string
	serialDev  string
	gpio       string
	midiIn     string
	idle       time.Duration
	listPorts  bool
	debug      bool
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	fs.StringVar(&o.configPath, "config", "", "JSON board file (empty: built-in reference board)")
	fs.StringVar(&o.serialDev, "serial", defaultSerial, "UART carrying MIDI in")
	fs.StringVar(&o.gpio, "gpio", defaultGPIO, "GPIO backend: "+strings.Join(pin.Backends(), "|"))
	fs.StringVar(&o.midiIn, "midi-in", "", "read MIDI from a host input port matching this name instead of the UART")
	fs.DurationVar(&o.idle, "idle", defaultIdle, "loop pacing while no MIDI is queued (0 spins)")
	fs.BoolVar(&o.listPorts, "list-ports", false, "list serial devices and GPIO backends, then exit")
	fs.BoolVar(&o.debug, "debug", false, "enable debug logging (adds source location)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.idle < 0 {
		return options{}, fmt.Errorf("-idle must not be negative, got %s", o.idle)
	}
	return o, nil
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// -------------------- Wiring --------------------

// app is everything the control loop needs, built from one config.
type app struct {
	rx      *ringbuf.Buffer
	leds    *indicator.Driver
	channel midiparse.Channel
	loop    *control.Loop
}

func build(cfg config.Config, p pin.Provider, idle time.Duration, log *slog.Logger) (*app, error) {
	b, err := board.Open(cfg, p)
	if err != nil {
		return nil, err
	}
	rx, err := ringbuf.New(cfg.RxBufferSize)
	if err != nil {
		return nil, err
	}
	ch := b.ReadChannel()

	leds := indicator.New(cfg.Footswitches, b.Indicators(), log)
	d := dispatch.New(cfg.Footswitches, leds, log)
	eng := switches.New(cfg.Footswitches, b.Switches(), d, switches.Options{
		Debounce:     cfg.Debounce(),
		LatchHoldoff: cfg.LatchHoldoff(),
		Log:          log,
	})
	parser := midiparse.NewParser(ch, d, log)
	loop := control.New(cfg, eng, leds, rx, parser, control.Options{Idle: idle, Log: log})

	return &app{rx: rx, leds: leds, channel: ch, loop: loop}, nil
}

// startIngress launches the single producer for the ring and returns a
// function that releases it.
func startIngress(ctx context.Context, o options, q ingress.Queue) (func(), error) {
	if o.midiIn != "" {
		w, err := ingress.NewWatcher(o.midiIn, q, logger)
		if err != nil {
			return nil, err
		}
		go func() {
			ticker := time.NewTicker(midiRescan)
			defer ticker.Stop()
			w.Tick()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					w.Tick()
				}
			}
		}()
		return w.Close, nil
	}

	sp, err := ingress.OpenSerial(o.serialDev, logger)
	if err != nil {
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := sp.Run(ctx, q); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("serial: reader stopped", "err", err)
		}
	}()
	return func() {
		<-done
		sp.Close()
	}, nil
}

func listPorts() {
	ports, err := ingress.Ports()
	if err != nil {
		logger.Error("serial: list ports failed", "err", err)
	}
	for _, p := range ports {
		fmt.Println("serial:", p)
	}
	for _, b := range pin.Backends() {
		fmt.Println("gpio:", b)
	}
}

func main() {
	o, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	initLogger(o.debug, uuid.New().String())

	if o.listPorts {
		listPorts()
		return
	}

	cfg, err := loadConfig(o.configPath)
	if err != nil {
		logger.Error("config load failed", "path", o.configPath, "err", err)
		os.Exit(1)
	}

	provider, err := pin.Open(o.gpio)
	if err != nil {
		logger.Error("gpio init failed", "backend", o.gpio, "err", err)
		os.Exit(1)
	}
	defer provider.Close()

	a, err := build(cfg, provider, o.idle, logger)
	if err != nil {
		logger.Error("board setup failed", "err", err)
		os.Exit(1)
	}

	logger.Info("midi-footswitch starting",
		"gpio", o.gpio,
		"serial", o.serialDev,
		"midi_in", o.midiIn,
		"channel", a.channel.String(),
		"footswitches", len(cfg.Footswitches),
		"debounce", cfg.Debounce(),
		"latch_holdoff", cfg.LatchHoldoff(),
		"rx_buffer", a.rx.Cap(),
		"debug", o.debug,
	)

	a.loop.Boot()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	release, err := startIngress(ctx, o, a.rx)
	if err != nil {
		logger.Error("midi input setup failed", "err", err)
		os.Exit(1)
	}
	defer release()

	if err := a.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("control loop stopped", "err", err)
	}
	logger.Info("shutting down", "dropped_bytes", a.rx.Dropped())
}
