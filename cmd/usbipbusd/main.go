// Command usbipbusd runs a minimal USB/IP device bus exposing a
// single interrupt IN endpoint that counts up once a host has
// attached, to demonstrate wiring a [bus.Bus] end to end.
//
// Usage:
//
//	usbipbusd [options]
//
// Options:
//
//	-addr string   listen address (default 127.0.0.1:3240)
//	-v             enable verbose (debug) logging
//	-json          use JSON log format
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardnew/usbipbus/bus"
	"github.com/ardnew/usbipbus/endpoint"
	"github.com/ardnew/usbipbus/pkg"
)

const component = pkg.ComponentBus

const counterEndpoint = 1

func main() {
	addr := flag.String("addr", "127.0.0.1:3240", "listen address")
	verbose := flag.Bool("v", false, "enable verbose (debug) logging")
	jsonLog := flag.Bool("json", false, "use JSON log format")
	flag.Parse()

	if *verbose {
		pkg.SetLogLevel(slog.LevelDebug)
	}
	if *jsonLog {
		pkg.SetLogFormat(pkg.LogFormatJSON)
	}

	b, err := bus.New(bus.WithListenAddress(*addr))
	if err != nil {
		pkg.LogError(component, "failed to start bus", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	if err := b.AllocEndpoint(counterEndpoint, endpoint.DirectionIn, endpoint.TypeInterrupt, 8, 10); err != nil {
		pkg.LogError(component, "failed to allocate endpoint", "error", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	pkg.LogInfo(component, "listening", "addr", *addr)

	pollTick := time.NewTicker(2 * time.Millisecond)
	defer pollTick.Stop()
	sendTick := time.NewTicker(time.Second)
	defer sendTick.Stop()

	var attached bool
	var counter byte

	for {
		select {
		case <-sigCh:
			pkg.LogInfo(component, "shutting down")
			return

		case <-pollTick.C:
			status, ev := b.Poll()
			switch status {
			case bus.StatusReset:
				if attached {
					pkg.LogInfo(component, "peer detached")
				}
				attached = false
			case bus.StatusData:
				if ev.EpSetup != 0 {
					pkg.LogDebug(component, "setup event", "mask", ev.EpSetup)
				}
				if ev.EpOut != 0 {
					pkg.LogDebug(component, "out data pending", "mask", ev.EpOut)
				}
			}
			if status != bus.StatusReset && !attached {
				attached = true
				pkg.LogInfo(component, "peer attached")
			}

		case <-sendTick.C:
			if !attached {
				continue
			}
			if _, err := b.Write(counterEndpoint, []byte{counter}); err != nil {
				pkg.LogDebug(component, "write deferred", "error", err)
				continue
			}
			counter++
		}
	}
}
