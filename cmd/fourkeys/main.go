package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"

	"github.com/akawula/fourkeys/fourkeys"
	"github.com/akawula/fourkeys/internal/app"
	"github.com/akawula/fourkeys/internal/config"
	"github.com/akawula/fourkeys/internal/logging"
	"github.com/akawula/fourkeys/params"
	"github.com/akawula/fourkeys/report"
)

const (
	metricSummary             = "summary"
	metricDeploymentFrequency = "deployment-frequency"
	metricLeadTime            = "lead-time"
	metricChangeFailureRate   = "change-failure-rate"
	metricMTTR                = "mttr"
)

const (
	outputSummary  = "summary"
	outputJSON     = "json"
	outputMarkdown = "markdown"
)

var errUsage = errors.New("usage")

type options struct {
	repo   fourkeys.Repository
	metric string
	output string
	query  url.Values
}

func newFlagSet(out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("fourkeys", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.String("repo", "", "repository as owner/name (required)")
	fs.String("metric", metricSummary, "summary, deployment-frequency, lead-time, change-failure-rate or mttr")
	fs.String("output", outputSummary, "summary, json or markdown")

	fs.String(params.Period, "", "day, week, month, quarter or year")
	fs.String(params.DeploymentMethod, "", "release, tag or workflow")
	fs.String(params.WorkflowName, "", "deployment workflow name")
	fs.String(params.WorkflowFile, "", "substring of the deployment workflow file path")
	fs.String(params.TagPrefix, "", "deployment tag prefix")
	fs.String(params.TagPattern, "", "deployment tag regular expression")
	fs.String(params.IssueLabels, "", "comma separated incident issue labels")
	fs.String(params.PRLabels, "", "comma separated hotfix pull request labels")
	fs.String(params.PRBranchPattern, "", "hotfix branch regular expression")
	fs.Bool(params.DetectWorkflowFailures, false, "count failed deployment workflow runs as failures")
	return fs
}

// parseArgs returns the options; only flags given on the command line end up
// in the query so that configured defaults still apply.
func parseArgs(args []string, out io.Writer) (options, error) {
	fs := newFlagSet(out)
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts := options{query: url.Values{}}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "repo", "metric", "output":
		default:
			opts.query.Set(f.Name, f.Value.String())
		}
	})
	opts.metric = fs.Lookup("metric").Value.String()
	opts.output = fs.Lookup("output").Value.String()

	repo, err := fourkeys.ParseRepository(fs.Lookup("repo").Value.String())
	if err != nil {
		fs.Usage()
		return options{}, fmt.Errorf("%w: %v", errUsage, err)
	}
	opts.repo = repo

	switch opts.output {
	case outputSummary, outputJSON, outputMarkdown:
	default:
		return options{}, fmt.Errorf("%w: unknown output %q", errUsage, opts.output)
	}
	return opts, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, logging.Level(cfg.Logging.Level))
	slog.SetDefault(logger)

	gh, err := app.NewGitHub(ctx, cfg.GitHub, logger)
	if err != nil {
		logger.Error("can't create GitHub client", "error", err)
		os.Exit(1)
	}
	svc := app.NewService(gh.Provider, cfg, logger)

	if err := run(ctx, svc, opts, app.Defaults(cfg), os.Stdout); err != nil {
		logger.Error("calculation failed", "repository", opts.repo.String(), "metric", opts.metric, "error", err)
		os.Exit(1)
	}
}

type calculator interface {
	DeploymentFrequency(ctx context.Context, repo fourkeys.Repository, period fourkeys.Period, cfg fourkeys.DeploymentConfig) (*fourkeys.DeploymentFrequencyResult, error)
	LeadTime(ctx context.Context, repo fourkeys.Repository, period fourkeys.Period) (*fourkeys.LeadTimeResult, error)
	ChangeFailureRate(ctx context.Context, repo fourkeys.Repository, period fourkeys.Period, dcfg fourkeys.DeploymentConfig, fcfg fourkeys.FailureConfig) (*fourkeys.ChangeFailureRateResult, error)
	MTTR(ctx context.Context, repo fourkeys.Repository, period fourkeys.Period, fcfg fourkeys.FailureConfig) (*fourkeys.MTTRResult, error)
	Summary(ctx context.Context, repo fourkeys.Repository, period fourkeys.Period, dcfg fourkeys.DeploymentConfig, fcfg fourkeys.FailureConfig) (*fourkeys.Summary, error)
}

func run(ctx context.Context, calc calculator, opts options, defaults params.Defaults, w io.Writer) error {
	req, err := params.Parse(opts.query, defaults)
	if err != nil {
		return err
	}

	switch opts.metric {
	case metricSummary:
		res, err := calc.Summary(ctx, opts.repo, req.Period, req.Deployment, req.Failure)
		if err != nil {
			return err
		}
		return write(w, opts.output, res, report.SummaryMarkdown, report.SummaryLine)
	case metricDeploymentFrequency:
		res, err := calc.DeploymentFrequency(ctx, opts.repo, req.Period, req.Deployment)
		if err != nil {
			return err
		}
		return write(w, opts.output, res, report.DeploymentFrequencyMarkdown, func(r *fourkeys.DeploymentFrequencyResult) string {
			return fmt.Sprintf("%s [%s] deployments=%d per_day=%.4f", r.Repository, r.Period, r.TotalDeployments, r.DeploymentsPerDay)
		})
	case metricLeadTime:
		res, err := calc.LeadTime(ctx, opts.repo, req.Period)
		if err != nil {
			return err
		}
		return write(w, opts.output, res, report.LeadTimeMarkdown, func(r *fourkeys.LeadTimeResult) string {
			return fmt.Sprintf("%s [%s] average=%s median=%s p95=%s samples=%d", r.Repository, r.Period,
				report.Duration(r.AverageLeadTimeHours), report.Duration(r.MedianLeadTimeHours), report.Duration(r.P95LeadTimeHours), r.SampleCount)
		})
	case metricChangeFailureRate:
		res, err := calc.ChangeFailureRate(ctx, opts.repo, req.Period, req.Deployment, req.Failure)
		if err != nil {
			return err
		}
		return write(w, opts.output, res, report.ChangeFailureRateMarkdown, func(r *fourkeys.ChangeFailureRateResult) string {
			return fmt.Sprintf("%s [%s] rate=%.2f%% failures=%d deployments=%d", r.Repository, r.Period, r.FailureRate, r.FailedDeployments, r.TotalDeployments)
		})
	case metricMTTR:
		res, err := calc.MTTR(ctx, opts.repo, req.Period, req.Failure)
		if err != nil {
			return err
		}
		return write(w, opts.output, res, report.MTTRMarkdown, func(r *fourkeys.MTTRResult) string {
			return fmt.Sprintf("%s [%s] average=%s median=%s incidents=%d", r.Repository, r.Period,
				report.Duration(r.AverageMTTRHours), report.Duration(r.MedianMTTRHours), len(r.Incidents))
		})
	}
	return fmt.Errorf("%w: unknown metric %q", errUsage, opts.metric)
}

func write[T any](w io.Writer, output string, res T, markdown, line func(T) string) error {
	switch output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case outputMarkdown:
		_, err := io.WriteString(w, markdown(res))
		return err
	}
	_, err := fmt.Fprintln(w, line(res))
	return err
}
