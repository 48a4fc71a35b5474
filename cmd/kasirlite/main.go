package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"kasirlite/internal/cache"
	"kasirlite/internal/clock"
	"kasirlite/internal/config"
	"kasirlite/internal/domain"
	"kasirlite/internal/logger"
	"kasirlite/internal/report"
	"kasirlite/internal/service"
	"kasirlite/internal/store"
	"kasirlite/internal/store/file"
	"kasirlite/internal/store/memory"
	pgstore "kasirlite/internal/store/postgres"
)

const usage = `usage:
  kasirlite export <file|->
  kasirlite import <file|->
  kasirlite report [-top N] daily|weekly|general
  kasirlite products [-low N]
  kasirlite drafts`

type command struct {
	name      string
	path      string
	period    report.Period
	top       int
	threshold int
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	cmd, err := parseCommand(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, cmd, os.Stdout, os.Stdin); err != nil {
		log.Error("command failed", zap.String("command", cmd.name), zap.Error(err))
		os.Exit(1)
	}
}

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, errors.New("missing command")
	}

	cmd := command{name: args[0]}
	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	switch cmd.name {
	case "report":
		fs.IntVar(&cmd.top, "top", 5, "number of top products, 0 for all")
	case "products":
		fs.IntVar(&cmd.threshold, "low", -1, "only list products with stock at or below N")
	}
	if err := fs.Parse(args[1:]); err != nil {
		return command{}, errors.Wrapf(err, "%s", cmd.name)
	}
	rest := fs.Args()

	switch cmd.name {
	case "export", "import":
		if len(rest) != 1 {
			return command{}, errors.Newf("%s needs exactly one file argument", cmd.name)
		}
		cmd.path = rest[0]
	case "report":
		if len(rest) != 1 {
			return command{}, errors.New("report needs a period: daily, weekly or general")
		}
		period, err := report.ParsePeriod(rest[0])
		if err != nil {
			return command{}, err
		}
		if cmd.top < 0 {
			return command{}, errors.Newf("invalid -top %d", cmd.top)
		}
		cmd.period = period
	case "products", "drafts":
		if len(rest) != 0 {
			return command{}, errors.Newf("%s takes no arguments", cmd.name)
		}
	default:
		return command{}, errors.Newf("unknown command %q", cmd.name)
	}
	return cmd, nil
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger, cmd command, stdout io.Writer, stdin io.Reader) error {
	loc, err := cfg.Data.Location()
	if err != nil {
		return err
	}

	persistence, closers, err := openPersistence(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				log.Warn("close error", zap.Error(err))
			}
		}
	}()

	svc := service.New(memory.New(), persistence, log, clock.NewReal(), loc)
	svc.Load(ctx)

	switch cmd.name {
	case "export":
		if cmd.path == "-" {
			return svc.ExportStore(ctx, stdout)
		}
		return svc.ExportFile(ctx, cmd.path)
	case "import":
		if cmd.path == "-" {
			return svc.ImportStore(ctx, stdin)
		}
		return svc.ImportFile(ctx, cmd.path)
	case "report":
		r, err := svc.Report(ctx, cmd.period, cmd.top)
		if err != nil {
			return err
		}
		return writeJSON(stdout, r)
	case "products":
		var products []domain.Product
		if cmd.threshold >= 0 {
			products, err = svc.LowStock(ctx, cmd.threshold)
		} else {
			products, err = svc.ListProducts(ctx)
		}
		if err != nil {
			return err
		}
		return writeJSON(stdout, products)
	case "drafts":
		drafts, err := svc.ListDrafts(ctx)
		if err != nil {
			return err
		}
		views := make([]domain.DraftView, 0, len(drafts))
		for _, d := range drafts {
			view, err := svc.DescribeDraft(ctx, d.ID)
			if err != nil {
				return err
			}
			views = append(views, view)
		}
		return writeJSON(stdout, views)
	default:
		return errors.Newf("unknown command %q", cmd.name)
	}
}

// openPersistence picks PostgreSQL when DATABASE_URL is set and local files
// otherwise. Redis, when reachable, mirrors every save.
func openPersistence(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Persistence, []func() error, error) {
	closers := make([]func() error, 0, 2)

	var primary store.Persistence
	if cfg.Postgres.URL != "" {
		pg, err := pgstore.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "postgres unavailable and DATABASE_URL is set")
		}
		primary = pg
		closers = append(closers, pg.Close)
		log.Info("persistence: postgres")
	} else {
		fs, err := file.New(cfg.Data.StorePath(), cfg.Data.DraftPath())
		if err != nil {
			return nil, nil, err
		}
		primary = fs
		log.Info("persistence: files", zap.String("dir", cfg.Data.Dir))
	}

	var secondaries []store.Persistence
	if cfg.Redis.Addr != "" {
		redisStore := cache.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.KeyPrefix)
		if err := redisStore.Ping(ctx); err != nil {
			log.Warn("redis unavailable, continuing without secondary store", zap.Error(err))
			_ = redisStore.Close()
		} else {
			secondaries = append(secondaries, redisStore)
			closers = append(closers, redisStore.Close)
			log.Info("secondary store: redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	return store.NewFallback(log, primary, secondaries...), closers, nil
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
