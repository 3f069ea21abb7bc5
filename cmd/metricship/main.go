package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	httptransport "github.com/tsio-labs/metricship/internal/adapters/http"
	logadapter "github.com/tsio-labs/metricship/internal/adapters/log"
	udptransport "github.com/tsio-labs/metricship/internal/adapters/udp"
	"github.com/tsio-labs/metricship/internal/agent"
	"github.com/tsio-labs/metricship/internal/lineprotocol"
	"github.com/tsio-labs/metricship/internal/ports"
	"github.com/tsio-labs/metricship/internal/writer"
	"github.com/tsio-labs/metricship/pkg/log"
)

const longHelp = `Ship runtime metrics to a time-series database over InfluxDB line protocol.

Samples Go runtime statistics on a poll interval, batches them in memory,
and delivers each batch with a single POST (or UDP datagram). Delivery
failures are logged and dropped; the shipping path never blocks or crashes
the host process.

Configuration is layered: config file, then METRICSHIP_* environment
variables, then flags.`

const exampleUsage = `  metricship --host influx.internal --database prod_metrics
  metricship --config ~/.metricship/config.toml --batch-size 500
  metricship --transport udp --udp-addr telegraf:8094`

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := agent.DefaultConfig()
	var (
		cfgPath     string
		watchConfig bool
	)

	zl := agent.Logger()

	root := &cobra.Command{
		Use:     "metricship",
		Short:   "Ship runtime metrics to a time-series database",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = agent.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && agent.FileExists(cfgFile) {
				fc, err := agent.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := agent.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			if err := agent.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logCfg := cfg
			if logCfg.Password != "" {
				logCfg.Password = "*****"
			}
			zl.Info().Interface("config", logCfg).Msg("configuration")

			logger := log.NewZerologAdapterWithLogger(zl)
			handler := logadapter.NewHandler(logger)

			var transport ports.Transport
			switch cfg.Transport {
			case agent.TransportUDP:
				t, err := udptransport.New(cfg.UDPAddr, logger)
				if err != nil {
					return err
				}
				transport = t
			default:
				t, err := httptransport.New(cfg.WriteURL(),
					&http.Client{Timeout: cfg.HTTPTimeout}, handler, logger)
				if err != nil {
					return err
				}
				transport = t
			}

			precision, err := cfg.PrecisionDuration()
			if err != nil {
				return err
			}

			w, err := writer.New(lineprotocol.New(precision), transport,
				writer.WithBatchSize(cfg.BatchSize),
				writer.WithErrorHandler(handler),
				writer.WithLogger(logger))
			if err != nil {
				return err
			}

			a := agent.NewAgent(cfg, agent.NewRuntimeCollector(), w, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if watchConfig && cfgFile != "" {
				watcher := agent.NewConfigWatcher(cfgFile, logger, a.ApplyReload)
				go func() {
					if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
						logger.Error("config watcher exited", log.Err(err))
					}
				}()
			}

			if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfgPath, "config", "", "path to TOML config file (default ~/.metricship/config.toml)")
	flags.StringVar(&cfg.Scheme, "scheme", cfg.Scheme, "endpoint scheme (http or https)")
	flags.StringVar(&cfg.Host, "host", cfg.Host, "database host")
	flags.IntVar(&cfg.Port, "port", cfg.Port, "database port")
	flags.StringVar(&cfg.Username, "username", cfg.Username, "database username")
	flags.StringVar(&cfg.Password, "password", cfg.Password, "database password")
	flags.StringVar(&cfg.Database, "database", cfg.Database, "target database name")
	flags.StringVar(&cfg.RetentionPolicy, "retention-policy", cfg.RetentionPolicy, "retention policy")
	flags.StringVar(&cfg.Precision, "precision", cfg.Precision, "timestamp precision (ns, us, ms, s)")
	flags.StringVar(&cfg.Transport, "transport", cfg.Transport, "delivery transport (http or udp)")
	flags.StringVar(&cfg.UDPAddr, "udp-addr", cfg.UDPAddr, "udp destination address (host:port)")
	flags.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "records per batch, 0 flushes only on the send interval")
	flags.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "metric sampling interval")
	flags.DurationVar(&cfg.SendInterval, "send-interval", cfg.SendInterval, "explicit flush interval")
	flags.DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "http client timeout")
	flags.BoolVar(&watchConfig, "watch-config", false, "reload tunables when the config file changes")

	if err := root.Execute(); err != nil {
		zl.Error().Err(err).Msg("metricship failed")
		os.Exit(1)
	}
}
