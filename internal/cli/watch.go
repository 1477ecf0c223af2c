package cli

import (
	gocontext "context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cliadapter "github.com/example/siteops/internal/adapters/cli"
	"github.com/example/siteops/internal/ports/primary"
	"github.com/example/siteops/internal/ports/secondary"
	"github.com/example/siteops/internal/store"
	"github.com/example/siteops/internal/wire"
)

// WatchCmd returns the watch command
func WatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow live changes to the current project",
		Long: `Load the current project and print every change as it arrives.

When an MQTT broker is configured, notification receipts are applied to
shift rosters while watching. Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

			ctx, stop := signal.NotifyContext(NewContext(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			wire.Watch(func(ev store.Event) {
				if ev.Source == store.SourceLoad {
					return
				}
				fmt.Println(cliadapter.DescribeEvent(ev))
			})

			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			conn := d.Connectivity()
			fmt.Printf("Watching %s (%d logs, %d shifts, %d documents)\n",
				conn.ProjectID, len(d.Store().DailyLogs()), len(d.Store().Shifts()), len(d.Store().Documents()))
			fmt.Printf("Feed: %s\n", cliadapter.FeedState(conn.State))

			if receipts := wire.Receipts(); receipts != nil {
				go func() {
					err := receipts.Listen(ctx, conn.ProjectID, d.Shifts.HandleReceipt)
					if err != nil && !errors.Is(err, gocontext.Canceled) {
						wire.Logger().Error("receipt listener stopped", zap.Error(err))
					}
				}()
				fmt.Println("Receipts: listening")
			}

			if metricsAddr != "" {
				srv := &http.Server{
					Addr:              metricsAddr,
					Handler:           promhttp.HandlerFor(wire.Registry(), promhttp.HandlerOpts{}),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						wire.Logger().Error("metrics server stopped", zap.Error(err))
					}
				}()
				defer srv.Close()
				fmt.Printf("Metrics: http://%s/metrics\n", metricsAddr)
			}

			return followConnectivity(ctx, d.Connectivity, conn.State)
		},
	}
	cmd.Flags().String("metrics-addr", "", "serve prometheus metrics on this address")
	return cmd
}

// followConnectivity prints feed state changes until ctx is done.
func followConnectivity(ctx gocontext.Context, current func() primary.Connectivity, last secondary.FeedState) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			fmt.Println("✓ Stopped watching")
			return nil
		case <-ticker.C:
			conn := current()
			if conn.State == last {
				continue
			}
			last = conn.State
			if conn.Err != nil {
				fmt.Printf("Feed: %s (%v)\n", cliadapter.FeedState(conn.State), conn.Err)
				continue
			}
			fmt.Printf("Feed: %s\n", cliadapter.FeedState(conn.State))
		}
	}
}
