package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DeafMist/stock-sentiment/backend/internal/cache"
	"github.com/DeafMist/stock-sentiment/backend/internal/config"
	"github.com/DeafMist/stock-sentiment/backend/internal/elasticsearch"
	"github.com/DeafMist/stock-sentiment/backend/internal/logger"
	"github.com/DeafMist/stock-sentiment/backend/internal/models"
	"github.com/DeafMist/stock-sentiment/backend/internal/pipeline"
	"github.com/DeafMist/stock-sentiment/backend/internal/store"
)

type analyzer interface {
	AnalyzeReport(ctx context.Context, instrument string) pipeline.Report
}

// opener builds the pipeline; memory selects the in-process record store.
type opener func(ctx context.Context, cfg *config.CLI, log *slog.Logger, memory bool) (analyzer, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := newRootCmd(openPipeline).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(open opener) *cobra.Command {
	var (
		memory bool
		pretty bool
		report bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <code> [code...]",
		Short: "Crawl, classify and score the sentiment around stock codes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New("analyze")
			cfg, err := config.LoadCLI()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			p, err := open(cmd.Context(), cfg, log, memory)
			if err != nil {
				return err
			}

			for _, code := range args {
				req := models.AnalysisRequest{InstrumentID: code}
				if err := req.Validate(); err != nil {
					return err
				}

				rep := analyzeWithTimeout(cmd.Context(), p, req.InstrumentID, cfg.RunTimeout)
				var out any = rep.Result
				if report {
					out = reportView(req.InstrumentID, rep)
				}
				if err := printJSON(cmd.OutOrStdout(), out, pretty); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&memory, "memory", false, "keep crawled records in memory instead of Elasticsearch")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent JSON output")
	cmd.Flags().BoolVar(&report, "report", false, "include run id, ingest stats and errors")
	return cmd
}

// analyzeWithTimeout bounds a single code's run so a slow code does not eat
// into the budget of the ones after it.
func analyzeWithTimeout(ctx context.Context, p analyzer, code string, timeout time.Duration) pipeline.Report {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.AnalyzeReport(ctx, code)
}

func openPipeline(ctx context.Context, cfg *config.CLI, log *slog.Logger, memory bool) (analyzer, error) {
	if memory {
		return pipeline.FromConfig(&cfg.Pipeline, store.NewMemory(), nil, nil, log, nil)
	}

	es, err := elasticsearch.Dial(ctx, cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log, elasticsearch.DialOptions{Attempts: 3, FirstDelay: time.Second})
	if err != nil {
		return nil, err
	}
	_, locker := cache.Open(cfg.RedisAddr, cfg.LockTTL)
	return pipeline.FromConfig(&cfg.Pipeline, es, nil, locker, log, nil)
}

type ingestView struct {
	Source    models.Source `json:"source"`
	Pages     int           `json:"pages"`
	Stored    int           `json:"stored"`
	Stale     int           `json:"stale"`
	Invalid   int           `json:"invalid"`
	Duplicate int           `json:"duplicate"`
	Error     string        `json:"error,omitempty"`
}

type runView struct {
	InstrumentID string                 `json:"instrument_id"`
	RunID        string                 `json:"run_id"`
	Result       models.AggregateResult `json:"result"`
	Ingest       []ingestView           `json:"ingest"`
	Errors       []string               `json:"errors,omitempty"`
}

func reportView(instrument string, rep pipeline.Report) runView {
	view := runView{InstrumentID: instrument, RunID: rep.RunID, Result: rep.Result}
	for _, st := range rep.Ingest {
		iv := ingestView{
			Source:    st.Source,
			Pages:     st.Pages,
			Stored:    st.Stored,
			Stale:     st.Stale,
			Invalid:   st.Invalid,
			Duplicate: st.Duplicate,
		}
		if st.Err != nil {
			iv.Error = st.Err.Error()
		}
		view.Ingest = append(view.Ingest, iv)
	}
	for _, err := range rep.Errors {
		view.Errors = append(view.Errors, err.Error())
	}
	return view
}

func printJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
