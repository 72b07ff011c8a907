package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"stellar-swap/pkg/events"
	"stellar-swap/pkg/types"
)

var (
	watchEvents   bool
	metricsAddr   string
	eventsAddress string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent swap contract events",
	Long: `Show the most recent events emitted by the swap contract.

With --watch the list is refreshed every few seconds until interrupted; the
last non-empty list stays on screen when a poll finds nothing new.

Examples:
  stellar-swap events
  stellar-swap events --watch
  stellar-swap events --watch --metrics-addr :9090`,
	Run: runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().BoolVarP(&watchEvents, "watch", "w", false, "Keep polling for new events")
	eventsCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while watching")
	eventsCmd.Flags().StringVar(&eventsAddress, "address", "", "Also track the swap count of this account while watching")
}

func runEvents(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd, watchEvents)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if metricsAddr == "" {
		metricsAddr = a.cfg.MetricsAddr
	}

	poller := events.NewPoller(a.rpc, events.Config{
		ContractID: a.cfg.ContractID,
		Interval:   a.cfg.EventInterval,
		Window:     a.cfg.EventWindow,
		Limit:      a.cfg.EventLimit,
	}, a.logger, a.metrics)

	if !watchEvents {
		poller.Poll(context.Background())
		if jsonOutput {
			printEventsJSON(poller.Events())
		} else {
			displayEvents(poller.Events())
		}
		return
	}

	if jsonOutput {
		poller.OnUpdate(printEventsJSON)
	} else {
		poller.OnUpdate(displayEvents)
		fmt.Printf("\nWatching contract %s\n", color.CyanString(a.cfg.ContractID))
		fmt.Printf("Polling every %s. Press Ctrl+C to stop.\n", a.cfg.EventInterval)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := poller.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		poller.Stop()
		return nil
	})

	if eventsAddress != "" {
		counter := a.counter()
		g.Go(func() error {
			ticker := time.NewTicker(a.cfg.EventInterval)
			defer ticker.Stop()

			for {
				if counter.Refresh(ctx, eventsAddress) {
					count, _ := counter.Value()
					a.logger.Info().Str("address", eventsAddress).Uint64("swap_count", count).Msg("swap count refreshed")
				}
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		})
	}

	if metricsAddr != "" {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           metricsMux(a),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			a.logger.Info().Str("addr", metricsAddr).Msg("serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func metricsMux(a *app) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func printEventsJSON(list []types.ContractEvent) {
	jsonData, _ := json.MarshalIndent(list, "", "  ")
	fmt.Println(string(jsonData))
}

func displayEvents(list []types.ContractEvent) {
	if len(list) == 0 {
		fmt.Println("\nNo recent events.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	color.Green("                              LIVE EVENTS")
	fmt.Println(strings.Repeat("=", 80))

	for _, ev := range list {
		topics := strings.Join(ev.Topics, ", ")
		if len(topics) > 40 {
			topics = topics[:37] + "..."
		}

		when := ""
		if !ev.ClosedAt.IsZero() {
			when = ev.ClosedAt.Local().Format("15:04:05")
		}

		fmt.Printf("  %s  ledger %-9d %-40s %s\n",
			color.HiBlackString(when),
			ev.Ledger,
			color.YellowString(topics),
			color.CyanString(ev.Value))
	}

	fmt.Println(strings.Repeat("=", 80) + "\n")
}
