package main

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/agentuity/go-memoize/logger"
	"github.com/agentuity/go-memoize/memoize"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/xhit/go-str2duration/v2"
	"golang.org/x/sync/errgroup"
)

type options struct {
	maxAge      string
	maxErrorAge string
	resolve     string
	callers     int
	rounds      int
	interval    string
	latency     string
	failEvery   int64
	keys        int
	logLevel    string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "memoize-demo",
		Short: "Exercise a memoized producer under concurrent load",
	}
	root.AddCommand(newRunCommand())
	return root
}

func newRunCommand() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Issue rounds of concurrent calls against a simulated slow lookup",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.maxAge, "max-age", "2s", "success retention window (0 disables)")
	flags.StringVar(&opts.maxErrorAge, "max-error-age", "0s", "failure retention window (0 disables)")
	flags.StringVar(&opts.resolve, "resolve", memoize.Simple, "key strategy: simple, json or hash")
	flags.IntVar(&opts.callers, "callers", 8, "concurrent callers per round")
	flags.IntVar(&opts.rounds, "rounds", 5, "number of rounds")
	flags.StringVar(&opts.interval, "interval", "300ms", "pause between rounds")
	flags.StringVar(&opts.latency, "latency", "50ms", "simulated producer latency")
	flags.Int64Var(&opts.failEvery, "fail-every", 0, "fail every Nth producer invocation (0 never fails)")
	flags.IntVar(&opts.keys, "keys", 2, "number of distinct keys callers spread over")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (defaults to "+logger.EnvLogLevel+")")
	return cmd
}

func parseDurations(values ...string) ([]time.Duration, error) {
	out := make([]time.Duration, len(values))
	for i, v := range values {
		d, err := str2duration.ParseDuration(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid duration %q", v)
		}
		out[i] = d
	}
	return out, nil
}

func run(ctx context.Context, cmd *cobra.Command, opts options) error {
	durations, err := parseDurations(opts.maxAge, opts.maxErrorAge, opts.interval, opts.latency)
	if err != nil {
		return err
	}
	maxAge, maxErrorAge, interval, latency := durations[0], durations[1], durations[2], durations[3]
	if opts.callers < 1 || opts.keys < 1 {
		return errors.Newf("callers and keys must be positive, got %d and %d", opts.callers, opts.keys)
	}

	log := logger.NewConsoleLogger()
	if opts.logLevel != "" {
		log = logger.NewConsoleLogger(logger.ParseLevel(opts.logLevel))
	}

	var invocations atomic.Int64
	lookup := func(ctx context.Context, args ...any) (string, error) {
		n := invocations.Add(1)
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		if opts.failEvery > 0 && n%opts.failEvery == 0 {
			return "", errors.Newf("lookup %v failed (invocation %d)", args, n)
		}
		return uuid.NewString(), nil
	}

	m, err := memoize.New(ctx, lookup,
		memoize.WithResolve(memoize.Named(opts.resolve)),
		memoize.WithMaxAge(maxAge),
		memoize.WithMaxErrorAge(maxErrorAge),
		memoize.WithLogger(log),
		memoize.WithRefreshErrorHandler(func(key string, err error) {
			log.Warn("background refresh of %q failed: %s", key, err)
		}),
	)
	if err != nil {
		return err
	}
	defer m.Clear()

	out := cmd.OutOrStdout()
	for round := 1; round <= opts.rounds; round++ {
		before := invocations.Load()
		var failures atomic.Int64
		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i < opts.callers; i++ {
			key := fmt.Sprintf("user-%d", i%opts.keys)
			g.Go(func() error {
				if _, err := m.Do(gctx, key); err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					failures.Add(1)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		fmt.Fprintf(out, "round %d: %d calls, %d producer invocations, %d failures, %d live entries\n",
			round, opts.callers, invocations.Load()-before, failures.Load(), m.Len())
		if round < opts.rounds {
			select {
			case <-time.After(interval):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}
