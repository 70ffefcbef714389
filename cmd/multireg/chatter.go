package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"multireg/internal/metrics"
	"multireg/internal/registry"
	"multireg/internal/source"
	"multireg/internal/sysmetrics"
)

// newChatterCmd returns the "chatter" command: a synthetic multi-source
// feed that hammers the register with concurrent, partially stale updates
// and removals, and prints the resulting notification stream.
func newChatterCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chatter",
		Short: "Run a synthetic multi-source feed against the register",
		RunE: func(cmd *cobra.Command, args []string) error {
			entities, _ := cmd.Flags().GetInt("entities")
			replicas, _ := cmd.Flags().GetInt("replicas")
			minInterval, _ := cmd.Flags().GetDuration("min-interval")
			maxInterval, _ := cmd.Flags().GetDuration("max-interval")
			duration, _ := cmd.Flags().GetDuration("duration")
			staleChance, _ := cmd.Flags().GetFloat64("stale-chance")
			removeChance, _ := cmd.Flags().GetFloat64("remove-chance")
			policyName, _ := cmd.Flags().GetString("policy")
			metricsAddr, _ := cmd.Flags().GetString("metrics")

			if entities <= 0 || replicas <= 0 {
				return fmt.Errorf("entities and replicas must be positive")
			}
			if minInterval > maxInterval {
				return fmt.Errorf("min-interval (%v) must not exceed max-interval (%v)", minInterval, maxInterval)
			}

			var policy registry.ViewPolicy[string]
			switch policyName {
			case "highest-version":
				policy = registry.HighestVersion[string]()
			case "origin-rank":
				policy = registry.OriginRank[string]()
			default:
				return fmt.Errorf("unknown policy %q (want highest-version or origin-rank)", policyName)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			if duration > 0 {
				var timeoutCancel context.CancelFunc
				ctx, timeoutCancel = context.WithTimeout(ctx, duration)
				defer timeoutCancel()
			}

			var collector *metrics.Collector
			if metricsAddr != "" {
				promReg := prometheus.NewRegistry()
				collector = metrics.NewCollector(promReg)
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
				go func() {
					logger.Info("metrics server listening", "addr", metricsAddr)
					if err := http.ListenAndServe(metricsAddr, mux); err != nil {
						logger.Error("metrics server error", "error", err)
					}
				}()
			}

			return chatter(ctx, logger, chatterConfig{
				entities:     entities,
				replicas:     replicas,
				policyName:   policyName,
				minInterval:  minInterval,
				maxInterval:  maxInterval,
				staleChance:  staleChance,
				removeChance: removeChance,
				policy:       policy,
				metrics:      collector,
			})
		},
	}

	cmd.Flags().Int("entities", 10, "number of logical entities to churn")
	cmd.Flags().Int("replicas", 3, "number of replica sources feeding copies")
	cmd.Flags().Duration("min-interval", 50*time.Millisecond, "minimum delay between a source's writes")
	cmd.Flags().Duration("max-interval", 500*time.Millisecond, "maximum delay between a source's writes")
	cmd.Flags().Duration("duration", 0, "how long to run (0 = until interrupted)")
	cmd.Flags().Float64("stale-chance", 0.2, "probability a write re-sends an old version")
	cmd.Flags().Float64("remove-chance", 0.05, "probability a source removes its copy instead of writing")
	cmd.Flags().String("policy", "highest-version", "view selection policy: highest-version or origin-rank")
	cmd.Flags().String("metrics", "", "prometheus /metrics listen address (disabled when empty)")

	return cmd
}

type chatterConfig struct {
	entities     int
	replicas     int
	policyName   string
	minInterval  time.Duration
	maxInterval  time.Duration
	staleChance  float64
	removeChance float64
	policy       registry.ViewPolicy[string]
	metrics      *metrics.Collector
}

func chatter(ctx context.Context, logger *slog.Logger, cfg chatterConfig) error {
	logger = logger.With("component", "chatter")

	reg, err := registry.New(registry.Config[string]{
		Policy:  cfg.policy,
		Logger:  logger,
		Metrics: cfg.metrics,
	})
	if err != nil {
		return err
	}
	defer reg.Close()

	ids := make([]string, cfg.entities)
	for i := range ids {
		ids[i] = "entity-" + uuid.Must(uuid.NewV7()).String()[:8]
	}

	sources := make([]source.Source, cfg.replicas)
	for i := range sources {
		sources[i] = source.New(source.OriginReplicated, fmt.Sprintf("replica-%d", i))
	}

	// Print the notification stream until the register shuts down; the
	// subscription must outlive the feed context so the final eviction
	// notifications are still seen.
	printDone := make(chan struct{})
	sub := reg.Subscribe(context.Background())
	go func() {
		defer close(printDone)
		printNotifications(sub)
	}()

	logger.Info("feed starting",
		"entities", cfg.entities,
		"replicas", cfg.replicas,
		"policy", cfg.policyName)

	start := time.Now()
	sampler := sysmetrics.NewSampler()
	g, ctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		src := src
		g.Go(func() error {
			feed(ctx, reg, src, ids, cfg)
			return nil
		})
	}
	_ = g.Wait()

	// Simulate the peers disconnecting: evict everything they wrote.
	evicted := 0
	for _, src := range sources {
		evicted += reg.EvictSource(source.MatchSource(src))
	}

	reg.Close()
	<-printDone

	logger.Info("feed finished",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"entities_left", reg.Len(),
		"evicted_copies", evicted,
		"dropped_notifications", reg.Dropped(),
		"cpu_pct", fmt.Sprintf("%.1f", sampler.CPUPercent()),
		"mem_bytes", sysmetrics.MemoryInuse())
	return nil
}

// feed drives one source: mostly fresh writes with increasing versions,
// sprinkled with stale re-sends and occasional removals.
func feed(ctx context.Context, reg *registry.Registry[string], src source.Source, ids []string, cfg chatterConfig) {
	versions := make(map[string]int64, len(ids))

	for {
		interval := cfg.minInterval
		if cfg.maxInterval > cfg.minInterval {
			interval += time.Duration(rand.Int63n(int64(cfg.maxInterval - cfg.minInterval)))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		id := ids[rand.Intn(len(ids))]

		switch {
		case rand.Float64() < cfg.removeChance:
			reg.Remove(id, src)
		case rand.Float64() < cfg.staleChance && versions[id] > 1:
			// Re-send an old version; the register must absorb it.
			reg.Update(id, src, payload(src, id, versions[id]-1), versions[id]-1)
		default:
			versions[id]++
			reg.Update(id, src, payload(src, id, versions[id]), versions[id])
		}
	}
}

func payload(src source.Source, id string, version int64) string {
	return fmt.Sprintf("%s from %s v%d", id, src.Name, version)
}

var (
	addColor    = color.New(color.FgGreen)
	deleteColor = color.New(color.FgRed)
)

func printNotifications(sub <-chan registry.ChangeNotification[string]) {
	for n := range sub {
		switch n.Kind {
		case registry.KindAdd:
			addColor.Printf("+ %-24s %s (via %s)\n", n.ID, n.Data, n.Source.Name)
		case registry.KindDelete:
			deleteColor.Printf("- %-24s %s (via %s)\n", n.ID, n.Data, n.Source.Name)
		}
	}
}
