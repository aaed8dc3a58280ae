package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seagrayinc/spnav/internal/config"
	"github.com/seagrayinc/spnav/internal/driver"
	"github.com/seagrayinc/spnav/internal/logging"
	"github.com/seagrayinc/spnav/pkg/spnav"
)

var (
	configPath = flag.String("config", "", "TOML config file")
	list       = flag.Bool("list", false, "list candidate devices on the USB bus and exit")
	pollMode   = flag.Bool("poll", false, "poll for events instead of blocking waits")
	discard    = flag.Bool("discard", false, "drop queued events before reading")
	sens       = flag.Float64("sens", 0, "set driver sensitivity before reading")
	backend    = flag.String("backend", "", "transport backend: socket or hid")
	socketPath = flag.String("socket", "", "spacenavd socket path")
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Device.Backend = *backend
	}
	if *socketPath != "" {
		cfg.Socket.Path = *socketPath
	}
	if *sens > 0 {
		cfg.Device.Sensitivity = *sens
	}

	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format, nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *list {
		listDevices()
		return
	}

	binding, err := newBinding(ctx, cfg)
	if err != nil {
		slog.Error("driver unavailable", slog.Any("error", err))
		os.Exit(1)
	}

	conn, err := spnav.NewClient(binding).Open()
	if err != nil {
		slog.Error("opening connection failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer conn.Close()
	slog.Info("connection open", slog.Int("fd", conn.Fd()))

	if cfg.Device.Sensitivity != 1.0 {
		if err := conn.SetSensitivity(cfg.Device.Sensitivity); err != nil {
			slog.Warn("setting sensitivity failed", slog.Any("error", err))
		}
	}
	if *discard {
		n := conn.Discard(spnav.EventAny)
		slog.Info("discarded queued events", slog.Int("count", n))
	}

	if *pollMode {
		runPoll(ctx, conn)
		return
	}
	runWait(ctx, conn, stop)
}

func newBinding(ctx context.Context, cfg *config.Config) (driver.Binding, error) {
	switch cfg.Device.Backend {
	case config.BackendHID:
		return driver.NewHID(cfg.Device.VendorID, cfg.Device.ProductID), nil
	default:
		if cfg.Socket.WaitTimeout > 0 {
			wctx, cancel := context.WithTimeout(ctx, cfg.Socket.WaitTimeout)
			defer cancel()
			if err := driver.WaitForSocket(wctx, cfg.Socket.Path); err != nil {
				return nil, err
			}
		}
		return driver.NewSocket(cfg.Socket.Path), nil
	}
}

func listDevices() {
	infos, err := driver.List()
	if err != nil {
		slog.Error("usb enumeration failed", slog.Any("error", err))
		os.Exit(1)
	}
	if len(infos) == 0 {
		fmt.Println("no space navigator devices found")
		return
	}
	for _, d := range infos {
		fmt.Printf("%04x:%04x  %s %s  %s\n",
			d.VendorID, d.ProductID, d.Manufacturer, d.Product, d.Path)
	}
}

func runWait(ctx context.Context, conn *spnav.Connection, stop func()) {
	go func() {
		for {
			ev, err := conn.Wait()
			if err != nil {
				if errors.Is(err, spnav.ErrUnknownEvent) {
					slog.Warn("skipping unrecognized event")
					continue
				}
				if ctx.Err() == nil {
					slog.Error("wait failed", slog.Any("error", err))
				}
				stop()
				return
			}
			printEvent(ev)
		}
	}()
	<-ctx.Done()
}

func runPoll(ctx context.Context, conn *spnav.Connection) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				ev, ok := conn.Poll()
				if !ok {
					break
				}
				printEvent(ev)
			}
		}
	}
}

func printEvent(ev spnav.Event) {
	switch e := ev.(type) {
	case spnav.MotionEvent:
		x, y, z := e.Translation()
		rx, ry, rz := e.Rotation()
		fmt.Printf("motion t=(%d,%d,%d) r=(%d,%d,%d) period=%d\n", x, y, z, rx, ry, rz, e.Period)
	case spnav.ButtonEvent:
		action := "released"
		if e.Press {
			action = "pressed"
		}
		fmt.Printf("button %d %s\n", e.Num, action)
	}
}
