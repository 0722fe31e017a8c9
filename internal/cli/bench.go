package cli

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
)

type benchResult struct {
	latency time.Duration
	err     error
}

type benchOptions struct {
	rps      int
	duration time.Duration
	workers  int
	maxP90   time.Duration
}

// maxBenchRPS keeps the ticker interval at one microsecond or more.
const maxBenchRPS = 1_000_000

func newBenchCmd() *cobra.Command {
	opts := benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench <name>",
		Short: "Load a stored policy repeatedly at a fixed rate and report latency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.rps <= 0 || opts.duration <= 0 || opts.workers <= 0 {
				return fmt.Errorf("rps, duration and workers must be > 0")
			}
			if opts.rps > maxBenchRPS {
				return fmt.Errorf("rps must be <= %d", maxBenchRPS)
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			svc, closeFn, err := openService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			name := args[0]
			jobs := make(chan struct{}, opts.workers)
			var wg sync.WaitGroup
			var mu sync.Mutex
			results := make([]benchResult, 0, opts.rps*int(opts.duration.Seconds())+1)

			for i := 0; i < opts.workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range jobs {
						start := time.Now()
						_, err := svc.Load(ctx, name)
						mu.Lock()
						results = append(results, benchResult{latency: time.Since(start), err: err})
						mu.Unlock()
					}
				}()
			}

			ticker := time.NewTicker(time.Second / time.Duration(opts.rps))
			defer ticker.Stop()
			deadline := time.Now().Add(opts.duration)

		loop:
			for {
				select {
				case <-ctx.Done():
					break loop
				case now := <-ticker.C:
					if now.After(deadline) {
						break loop
					}
					jobs <- struct{}{}
				}
			}
			close(jobs)
			wg.Wait()

			latencies := make([]time.Duration, 0, len(results))
			errs := 0
			for _, r := range results {
				latencies = append(latencies, r.latency)
				if r.err != nil {
					errs++
				}
			}
			if len(latencies) == 0 {
				return fmt.Errorf("no loads executed")
			}

			sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
			p90 := percentile(latencies, 90)

			printTitle(out, "bench %s", name)
			printKeyValue(out, "target_rps", fmt.Sprint(opts.rps))
			printKeyValue(out, "achieved", fmt.Sprintf("%.2f", float64(len(latencies))/opts.duration.Seconds()))
			printKeyValue(out, "loads", fmt.Sprint(len(latencies)))
			printKeyValue(out, "errors", fmt.Sprint(errs))
			printKeyValue(out, "avg_ms", fmt.Sprintf("%.3f", ms(average(latencies))))
			printKeyValue(out, "p50_ms", fmt.Sprintf("%.3f", ms(percentile(latencies, 50))))
			printKeyValue(out, "p90_ms", fmt.Sprintf("%.3f", ms(p90)))
			printKeyValue(out, "p99_ms", fmt.Sprintf("%.3f", ms(percentile(latencies, 99))))

			if errs > 0 {
				return fmt.Errorf("%d of %d loads failed", errs, len(latencies))
			}
			if opts.maxP90 > 0 && p90 >= opts.maxP90 {
				return fmt.Errorf("p90 %s exceeds %s", p90, opts.maxP90)
			}
			printSuccess(out, "done")
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.rps, "rps", 50, "target loads per second")
	cmd.Flags().DurationVar(&opts.duration, "duration", 10*time.Second, "test duration")
	cmd.Flags().IntVar(&opts.workers, "workers", 8, "number of concurrent workers")
	cmd.Flags().DurationVar(&opts.maxP90, "max-p90", 0, "fail when p90 latency reaches this value (0 disables)")
	return cmd
}

func percentile(items []time.Duration, p int) time.Duration {
	if len(items) == 0 {
		return 0
	}
	idx := (len(items) - 1) * p / 100
	return items[idx]
}

func average(items []time.Duration) time.Duration {
	if len(items) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range items {
		total += d
	}
	return total / time.Duration(len(items))
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
