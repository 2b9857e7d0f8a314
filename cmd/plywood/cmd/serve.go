package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/client9/reopen"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rickaym/plywood/internal/bridge"
	"github.com/rickaym/plywood/internal/hub"
	"github.com/rickaym/plywood/internal/monitor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve installed galleries to presentation frontends",
	Long: `Serve exposes a websocket bridge at /bridge for presentation
frontends, the recommended-gallery listing at /recommended, and
prometheus metrics at /metrics. A background sweep checks installed
galleries for updates. Configure with environment variables:

export PLYWOOD_LISTEN=127.0.0.1:8198
export PLYWOOD_MONITOR_INTERVAL=30m
plywood serve

Send SIGHUP to reopen the log file after rotation.`,
	Run: func(cmd *cobra.Command, args []string) {

		viper.SetDefault("listen", "127.0.0.1:8198")
		addr := viper.GetString("listen")

		a, opts, err := newApp()
		if err != nil {
			exitOn("", err)
		}

		// rotatable log output; SIGHUP reopens the file
		if logFile != "" && !development {

			lf, err := reopen.NewFileWriter(logFile)
			if err != nil {
				exitOn("", fmt.Errorf("could not open log file %s: %w", logFile, err))
			}

			log.SetOutput(lf)

			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)

			go func() {
				for range hup {
					if err := lf.Reopen(); err != nil {
						log.WithField("error", err.Error()).Error("log reopen failed")
					}
				}
			}()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		go monitor.Run(ctx, monitor.Config{
			Interval: opts.MonitorInterval,
			Checker:  a,
			Notify: func(ids []string) {
				for _, id := range ids {
					log.WithField("id", id).Info("gallery update available")
				}
			},
		})

		h := hub.New(a.Client, a.Resolver, opts.EnlistingURL)

		router := bridge.Router(ctx, bridge.New(a.Loader))
		router.Handle("/metrics", promhttp.Handler())
		router.HandleFunc("/recommended", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(h.Recommended(req.Context())); err != nil {
				log.WithField("error", err.Error()).Error("recommended listing encode failed")
			}
		})

		srv := &http.Server{Addr: addr, Handler: router}

		go func() {
			<-ctx.Done()
			srv.Close()
		}()

		fmt.Printf("Serving galleries on %s\n", addr)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			exitOn("", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
