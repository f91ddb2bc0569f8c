// Command dpmtfbs runs the nonparametric Bayesian TFBS sampler: it loads
// an aligned FASTA-dialect input, builds the background and foreground
// component models a configuration file selects, runs a population of
// Gibbs sampler chains, and writes the plain-text posterior report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/fidde/dpmtfbs/internal/cache"
	"github.com/fidde/dpmtfbs/internal/cluster"
	"github.com/fidde/dpmtfbs/internal/component"
	"github.com/fidde/dpmtfbs/internal/config"
	"github.com/fidde/dpmtfbs/internal/control"
	"github.com/fidde/dpmtfbs/internal/estimator"
	"github.com/fidde/dpmtfbs/internal/fasta"
	"github.com/fidde/dpmtfbs/internal/history/chstore"
	"github.com/fidde/dpmtfbs/internal/metrics"
	"github.com/fidde/dpmtfbs/internal/report"
	"github.com/fidde/dpmtfbs/internal/sampler"
	"github.com/fidde/dpmtfbs/internal/seqdata"
	"github.com/fidde/dpmtfbs/internal/state"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file (defaults are used if empty)")
	inputPath := flag.String("input", "", "path to the aligned soft-count FASTA input (required)")
	outputPath := flag.String("output", "", "path to write the plain-text report (stdout if empty)")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: dpmtfbs -input <file> [-config <file>] [-output <file>]")
		os.Exit(2)
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("dpmtfbs: loading config: %v", err)
		}
	}

	log.Println("dpmtfbs: starting sampler run")

	store, columns, err := loadStore(*inputPath)
	if err != nil {
		log.Fatalf("dpmtfbs: loading input: %v", err)
	}
	log.Printf("dpmtfbs: loaded %d sequences", store.NumSequences())

	runID := uuid.New()
	mtr := metrics.New()

	var ctrl *control.Server
	if cfg.ControlAddr != "" {
		ctrl = control.NewServer(cfg.ControlAddr, 16, mtr.Registry)
		go func() {
			log.Printf("dpmtfbs: control server listening on %s", cfg.ControlAddr)
			if err := ctrl.Start(); err != nil {
				log.Printf("dpmtfbs: control server stopped: %v", err)
			}
		}()
	}

	var transport *control.Transport
	if cfg.NATSURL != "" {
		commandDst := make(chan control.Command, 16)
		transport, err = control.NewTransport(cfg.NATSURL, "dpmtfbs.progress", "dpmtfbs.commands", commandDst)
		if err != nil {
			log.Printf("dpmtfbs: nats transport disabled: %v", err)
			transport = nil
		} else {
			defer transport.Close()
		}
	}

	var sink *chstore.Sink
	if cfg.ClickHouseAddr != "" {
		logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
		sink, err = chstore.NewSink(context.Background(), chstore.DefaultConnectionConfig(cfg.ClickHouseAddr), logger)
		if err != nil {
			log.Printf("dpmtfbs: clickhouse history sink disabled: %v", err)
			sink = nil
		} else {
			defer sink.Close()
		}
	}

	var cacheStore *cache.Store
	if cfg.CachePath != "" {
		cacheStore, err = cache.New(cache.DefaultConfig(cfg.CachePath))
		if err != nil {
			log.Printf("dpmtfbs: persistent marginal cache disabled: %v", err)
			cacheStore = nil
		} else {
			defer cacheStore.Close()
			startCacheMaintenance(cacheStore)
		}
	}

	backgroundModel := buildBackgroundModel(cfg, store, columns, cacheStore, mtr)

	chains := make([]*sampler.Chain, cfg.PopulationSize)
	for i := range chains {
		manager := cluster.NewManager()
		bg := manager.AddFixedCluster(backgroundModel.Clone())
		foregroundBaseline := manager.RegisterBaseline(component.NewProductDirichlet(cfg.Width, cfg.ForegroundAlpha))

		st := state.New(store, manager, cfg.Width, bg, foregroundBaseline)
		for seq := 0; seq < store.NumSequences(); seq++ {
			for pos := 0; pos < store.Len(seq); pos++ {
				st.AddBackground(seqdata.Index{Seq: seq, Pos: pos})
			}
		}

		rng := sampler.NewRNG(time.Now().UnixNano() * int64(i+1))
		temperature := 1.0
		if i < len(cfg.Temperatures) {
			temperature = cfg.Temperatures[i]
		}
		g := sampler.NewGibbs(st, rng, cfg.Alpha, cfg.Discount, cfg.Lambda, temperature)
		g.MetropolisMoveProbability = cfg.MetropolisMoveProbability
		chains[i] = &sampler.Chain{
			State: st,
			Gibbs: g,
		}
	}

	log.Printf("dpmtfbs: running %d chains, %d burnin + %d samples", len(chains), cfg.Burnin, cfg.Samples)
	merged := sampler.RunPopulation(chains, cfg.Burnin, cfg.Samples)

	var statuses []control.ChainStatus
	for i, c := range chains {
		if len(c.History.Steps) == 0 {
			continue
		}
		last := c.History.Steps[len(c.History.Steps)-1]
		chainLabel := fmt.Sprintf("%d", i)
		mtr.ObserveStep(chainLabel, last.NumComponents, last.LogPosterior, last.Switches, last.Temperature)
		if sink != nil {
			for step, s := range c.History.Steps {
				_ = sink.Record(chstore.StepRow{
					RunID: runID.String(), ChainIndex: i, Step: step,
					Switches: s.Switches, LogLikelihood: s.LogLikelihood,
					LogPosterior: s.LogPosterior, NumComponents: s.NumComponents,
					Temperature: s.Temperature,
				})
			}
		}
		statuses = append(statuses, control.ChainStatus{
			Index: i, Step: len(c.History.Steps), Switches: last.Switches,
			LogLikelihood: last.LogLikelihood, LogPosterior: last.LogPosterior,
			NumComponents: last.NumComponents, Temperature: last.Temperature,
		})
	}
	if ctrl != nil {
		ctrl.UpdateSnapshot(false, statuses)
	}

	meanPartition := estimator.Mean(merged)
	mapPartition := estimator.MAP(merged)

	perChain := make([]*sampler.History, len(chains))
	for i, c := range chains {
		perChain[i] = &c.History
	}

	untempered := &sampler.History{}
	for i, s := range merged.Steps {
		if s.Temperature <= 1 {
			untempered.Append(s, merged.Partitions[i])
		}
	}
	posterior := report.FromHistory(store, untempered)

	out := os.Stdout
	if *outputPath != "" {
		f, err := os.Create(*outputPath)
		if err != nil {
			log.Fatalf("dpmtfbs: creating output %s: %v", *outputPath, err)
		}
		defer f.Close()
		out = f
	}
	if err := report.Write(out, store, posterior, perChain, chains[0].State.Manager); err != nil {
		log.Fatalf("dpmtfbs: writing report: %v", err)
	}

	log.Printf("dpmtfbs: mean partition has %d sites, map partition has %d sites", len(meanPartition), len(mapPartition))

	if ctrl != nil {
		waitForShutdown(ctrl)
	}
}

// loadStore parses the FASTA-dialect input at path and returns both the
// immutable seqdata.Store the sampler reads from and the flattened
// per-column counts, needed to fit/checksum background models before
// any cluster has folded data in.
func loadStore(path string) (*seqdata.Store, [][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	records, err := fasta.Parse(f, logger)
	if err != nil {
		return nil, nil, err
	}
	store, err := fasta.ToStore(records)
	if err != nil {
		return nil, nil, err
	}

	var columns [][]float64
	for _, rec := range records {
		columns = append(columns, rec.Columns...)
	}
	return store, columns, nil
}

// buildBackgroundModel constructs the configured background variant,
// fitting (DefaultBackground) or precomputing (every variant, through
// the persistent cache) as appropriate before any chain starts sampling.
func buildBackgroundModel(cfg config.Config, store *seqdata.Store, columns [][]float64, cacheStore *cache.Store, mtr *metrics.Metrics) component.Model {
	var model component.Model
	switch cfg.Background {
	case config.BackgroundEntropy:
		epsilon := 1e-6
		if len(cfg.BackgroundAlpha) > 0 {
			epsilon = cfg.BackgroundAlpha[0]
		}
		model = component.NewEntropyBackground(epsilon)
	case config.BackgroundDefault:
		db := component.NewDefaultBackground(cfg.BackgroundGammaShape, cfg.BackgroundGammaRate)
		obs := make([]float64, seqdata.AlphabetSize)
		for _, col := range columns {
			for k, c := range col {
				obs[k] += c
			}
		}
		db.Fit(obs, component.DefaultRpropOptions())
		model = db
	case config.BackgroundMixture:
		model = component.NewIndependenceMixture(cfg.BackgroundMixtureWeights, cfg.BackgroundMixtureAlphas)
	default:
		model = component.NewIndependenceBackground(cfg.BackgroundAlpha)
	}

	keyer, ok := model.(component.CacheKeyer)
	if !ok {
		return model
	}
	setter, canInstall := model.(component.MarginalSetter)
	offsets := component.Offsets(store)

	modelID, params := keyer.CacheKey()

	if cacheStore != nil {
		checksum := cache.Checksum(columns)
		key := cache.Key(modelID, params, checksum)

		ctx := context.Background()
		if entry, hit, err := cacheStore.Get(ctx, key); err == nil && hit {
			mtr.CacheHits.Inc()
			log.Printf("dpmtfbs: reusing cached %s marginal table", modelID)
			if canInstall {
				setter.SetMarginal(entry.LogMarginal, offsets)
			}
			return model
		}
		mtr.CacheMisses.Inc()

		log.Printf("dpmtfbs: precomputing %s marginal table over %d positions", modelID, offsets[len(offsets)-1])
		table := component.PrecomputeMarginal(store, model.Clone(), 8, func(done, total int) {
			log.Printf("dpmtfbs: precompute progress %d/%d", done, total)
		})
		if err := cacheStore.Put(key, cache.Entry{ModelID: modelID, Params: params, Checksum: checksum, LogMarginal: table}); err != nil {
			log.Printf("dpmtfbs: caching %s marginal table: %v", modelID, err)
		}
		if canInstall {
			setter.SetMarginal(table, offsets)
		}
		return model
	}

	log.Printf("dpmtfbs: precomputing %s marginal table over %d positions", modelID, offsets[len(offsets)-1])
	table := component.PrecomputeMarginal(store, model.Clone(), 8, func(done, total int) {
		log.Printf("dpmtfbs: precompute progress %d/%d", done, total)
	})
	if canInstall {
		setter.SetMarginal(table, offsets)
	}
	return model
}

// startCacheMaintenance schedules a periodic VACUUM of the marginal
// cache database when running as a long-lived process, following the
// teacher pack's gocron scheduling idiom.
func startCacheMaintenance(cacheStore *cache.Store) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("dpmtfbs: cache maintenance scheduler disabled: %v", err)
		return
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := cacheStore.Compact(ctx); err != nil {
				log.Printf("dpmtfbs: cache compaction failed: %v", err)
			}
		}),
	)
	if err != nil {
		log.Printf("dpmtfbs: scheduling cache maintenance job: %v", err)
		return
	}
	scheduler.Start()
}

func waitForShutdown(ctrl *control.Server) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Println("dpmtfbs: shutting down control server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ctrl.Shutdown(ctx); err != nil {
		log.Printf("dpmtfbs: control server shutdown: %v", err)
	}
}
