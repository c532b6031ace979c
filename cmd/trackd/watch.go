package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pasearch/trackd/pkg/connectivity"
	"github.com/pasearch/trackd/pkg/events"
	"github.com/pasearch/trackd/pkg/log"
	"github.com/pasearch/trackd/pkg/metrics"
	"github.com/pasearch/trackd/pkg/registry"
	"github.com/pasearch/trackd/pkg/session"
	"github.com/pasearch/trackd/pkg/tracking"
	"github.com/pasearch/trackd/pkg/types"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the live device-tracking channel",
	Long: `Watch subscribes to the backend's tracking push channel and renders
the live device registry as updates arrive. Requires a police or admin
session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		broker := events.NewBroker()
		broker.Start()
		defer broker.Stop()

		guard := session.NewGuard(store, broker, session.GuardConfig{
			Period: cfg.Session.GuardPeriod,
			Grace:  cfg.Session.GraceBuffer,
		})

		sess, _ := store.Load()
		switch guard.Authorize(sess, types.RolePolice, types.RoleAdmin) {
		case session.DenyNoSession:
			return fmt.Errorf("no valid session, run `trackd login` first")
		case session.DenyWrongRole:
			return fmt.Errorf("role %q is not allowed to watch live tracking", sess.User.Role)
		}

		guard.Start()
		defer guard.Stop()

		prober := connectivity.NewHTTPProber(cfg.API.BaseURL + cfg.API.HealthPath)
		monitor := connectivity.NewMonitor(prober, broker, connectivity.Config{
			Period:       cfg.Connectivity.Period,
			BannerWindow: cfg.Connectivity.BannerWindow,
		})
		monitor.Start()
		defer monitor.Stop()

		reg := registry.New(registry.Config{
			PathCap:     cfg.Registry.PathCap,
			RegistryCap: cfg.Registry.RegistryCap,
		})
		snapshots := reg.Subscribe()
		defer reg.Unsubscribe(snapshots)

		signals := broker.Subscribe()
		defer broker.Unsubscribe(signals)

		channel := tracking.NewChannel(tracking.Config{
			URL:          cfg.Socket.URL,
			ReconnectMin: cfg.Socket.ReconnectMin,
			ReconnectMax: cfg.Socket.ReconnectMax,
		}, reg, broker)
		channel.Connect(context.Background())
		defer channel.Close()

		if metricsAddr != "" {
			go serveMetrics(metricsAddr)
		}

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		fmt.Println("Watching live tracking (Ctrl-C to exit)...")
		for {
			select {
			case snap := <-snapshots:
				renderSnapshot(snap)
			case ev := <-signals:
				if done := renderSignal(ev); done {
					return nil
				}
			case <-stop:
				fmt.Println("\nShutting down")
				return nil
			}
		}
	},
}

func init() {
	watchCmd.Flags().String("metrics-addr", "", "expose Prometheus metrics on this address (e.g. :9090)")
}

func renderSnapshot(snap registry.Snapshot) {
	fmt.Printf("--- %d device(s) tracked ---\n", len(snap))
	for _, dev := range snap {
		pos := fmt.Sprintf("%.5f,%.5f", dev.Latitude, dev.Longitude)
		if !dev.HasFix {
			pos = "position unknown"
		}
		fmt.Printf("  %-16s %-20s %-12s trail=%d  %s\n",
			dev.IMEI, pos, dev.Status, len(dev.PathHistory),
			dev.TrackedAt.Format("15:04:05"))
	}
	if box, ok := registry.BoundsOf(snap); ok {
		fmt.Printf("  viewport: [%.5f,%.5f] .. [%.5f,%.5f]\n",
			box.MinLat, box.MinLon, box.MaxLat, box.MaxLon)
	}
}

// renderSignal prints a core signal; returns true when the session has
// ended and the watch must exit
func renderSignal(ev *events.Event) bool {
	switch ev.Type {
	case events.EventSessionExpired:
		fmt.Println("!! Session expired, please log in again")
		return true
	case events.EventSessionLogout:
		return true
	case events.EventDeviceFrozen:
		fmt.Printf("** Device %s has been frozen\n", ev.Metadata["imei"])
	case events.EventTrackingConnected:
		fmt.Println("** Live channel connected")
	case events.EventTrackingDisconnected:
		fmt.Println("** Live channel disconnected, retrying...")
	case events.EventConnectivityOffline:
		fmt.Println("** Backend offline")
	case events.EventReconnected:
		fmt.Println("** Backend connection restored")
	}
	return false
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("metrics listener failed", err)
	}
}
