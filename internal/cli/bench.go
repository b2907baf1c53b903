package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"autolytiq-desk/internal/apperrors"
	"autolytiq-desk/internal/domain"
	"autolytiq-desk/internal/service"
	"autolytiq-desk/internal/txmanager"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type benchOptions struct {
	*RootOptions
	TenantID    string
	Concurrency int
	Timeout     time.Duration
}

// BenchReport result of one bench run
type BenchReport struct {
	Requested   int                     `json:"requested"`
	Succeeded   int                     `json:"succeeded"`
	FailedKinds map[string]int          `json:"failed_kinds,omitempty"`
	Distinct    int                     `json:"distinct_deal_numbers"`
	First       string                  `json:"first_deal_number,omitempty"`
	Last        string                  `json:"last_deal_number,omitempty"`
	Elapsed     time.Duration           `json:"elapsed_ns"`
	Stats       txmanager.StatsSnapshot `json:"stats"`
}

// NewBenchCommand issues concurrent PENDING deals for one tenant
func NewBenchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &benchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Create deals concurrently and report numbering and retry stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Concurrency < 1 {
				return apperrors.Validation("concurrency", "must be at least 1")
			}
			return withApp(cmd.Context(), rootOpts, func(a *app) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
				defer cancel()

				report := runBench(ctx, a.deals, opts.TenantID, opts.Concurrency)
				report.Stats = a.tm.Stats()
				return writeOutput(cmd.OutOrStdout(), opts.Format, report, func(w io.Writer) {
					writeBenchText(w, report)
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.TenantID, "tenant", "", "tenant UUID (required)")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 50, "number of concurrent createDeal calls")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "overall deadline")
	return cmd
}

type dealCreator interface {
	CreateDeal(ctx context.Context, in service.CreateDealInput) (*service.CreateDealResult, error)
}

func runBench(ctx context.Context, deals dealCreator, tenantID string, n int) BenchReport {
	report := BenchReport{Requested: n, FailedKinds: map[string]int{}}
	salesperson := uuid.NewString()

	var mu sync.Mutex
	var numbers []string

	start := time.Now()
	g := new(errgroup.Group)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			res, err := deals.CreateDeal(ctx, service.CreateDealInput{
				TenantID:      tenantID,
				SalespersonID: salesperson,
				InitialState:  domain.DealPending,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.FailedKinds[string(apperrors.KindOf(err))]++
				return nil
			}
			report.Succeeded++
			if res.Deal.DealNumber != nil {
				numbers = append(numbers, *res.Deal.DealNumber)
			}
			return nil
		})
	}
	_ = g.Wait()
	report.Elapsed = time.Since(start)

	sort.Strings(numbers)
	seen := make(map[string]struct{}, len(numbers))
	for _, num := range numbers {
		seen[num] = struct{}{}
	}
	report.Distinct = len(seen)
	if len(numbers) > 0 {
		report.First = numbers[0]
		report.Last = numbers[len(numbers)-1]
	}
	if len(report.FailedKinds) == 0 {
		report.FailedKinds = nil
	}
	return report
}

func writeBenchText(w io.Writer, r BenchReport) {
	fmt.Fprintf(w, "requested=%d succeeded=%d distinct=%d range=%s..%s elapsed=%s\n",
		r.Requested, r.Succeeded, r.Distinct, r.First, r.Last, r.Elapsed.Round(time.Millisecond))
	if len(r.FailedKinds) > 0 {
		kinds := make([]string, 0, len(r.FailedKinds))
		for k, v := range r.FailedKinds {
			kinds = append(kinds, fmt.Sprintf("%s=%d", k, v))
		}
		sort.Strings(kinds)
		fmt.Fprintf(w, "failures: %s\n", strings.Join(kinds, " "))
	}
	s := r.Stats
	fmt.Fprintf(w, "transactions total=%d committed=%d rolled_back=%d retried=%d failed=%d deadlock_retries=%d avg_commit=%s\n",
		s.TotalTransactions, s.CommittedTransactions, s.RolledBackTransactions, s.RetriedTransactions,
		s.FailedTransactions, s.DeadlockRetries, s.AverageCommitLatency)
}
