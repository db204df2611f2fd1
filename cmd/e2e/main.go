// Package main provides the CLI entry point for the shopping-flow
// end-to-end harness.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/shop/tools/e2e/internal/client"
	"github.com/example/shop/tools/e2e/internal/config"
	"github.com/example/shop/tools/e2e/internal/fixture"
	"github.com/example/shop/tools/e2e/internal/logger"
	"github.com/example/shop/tools/e2e/internal/ready"
	"github.com/example/shop/tools/e2e/internal/scenario"
	"github.com/example/shop/tools/e2e/internal/token"
	"github.com/example/shop/tools/e2e/internal/workflow"
)

// Version information (populated at build time)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// CLI flags
var (
	configPath    string
	scenarioNames string
	baseURL       string
	parallel      bool
	wait          time.Duration
	list          bool
	verbose       bool
	showVersion   bool
)

func init() {
	flag.StringVar(&configPath, "config", "", "Path to the YAML configuration file")
	flag.StringVar(&configPath, "c", "", "Path to the YAML configuration file (shorthand)")

	flag.StringVar(&scenarioNames, "scenario", "all", "Comma-separated scenario names, or \"all\"")
	flag.StringVar(&scenarioNames, "s", "all", "Comma-separated scenario names (shorthand)")

	flag.StringVar(&baseURL, "base-url", "", "Override the gateway base URL")
	flag.BoolVar(&parallel, "parallel", false, "Run selected scenarios concurrently")
	flag.DurationVar(&wait, "wait", 0, "Wait up to this long for the gateway before running (e.g., 60s)")

	flag.BoolVar(&list, "list", false, "List available scenarios and exit")
	flag.BoolVar(&list, "l", false, "List available scenarios (shorthand)")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.BoolVar(&verbose, "v", false, "Enable debug logging (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = printUsage
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `E2E - Shopping Flow Verification Harness

USAGE:
    e2e [options]

DESCRIPTION:
    Drives the full shopping workflow (user registration, product catalog,
    cart, order checkout, order history) through the API gateway and verifies
    that every collaborator reports consistent state. Each scenario generates
    its own uniqueness namespace, so runs never collide with existing data.

    Created users, products and orders are left behind in the collaborators;
    there is no teardown phase.

OPTIONS:
    -config, -c <path>    Path to the YAML configuration file
    -scenario, -s <names> Comma-separated scenario names, or "all" (default)
    -base-url <url>       Override the gateway base URL
    -parallel             Run selected scenarios concurrently
    -wait <dur>           Wait up to this long for the gateway before running
    -list, -l             List available scenarios and exit
    -verbose, -v          Enable debug logging
    -version              Show version information
    -help, -h             Show this help message

ENVIRONMENT:
    All settings can be supplied as E2E_-prefixed environment variables,
    e.g. E2E_TARGET_BASE_URL, E2E_AUTH_SECRET, E2E_RUN_PARALLEL.

EXAMPLES:
    # Run every scenario against the default gateway (http://localhost:9090)
    e2e

    # Run only the full journey against a staging gateway
    e2e -scenario full-journey -base-url https://staging.example.com

    # Run the two mutation scenarios concurrently with debug logging
    e2e -s inventory,order-update -parallel -v

    # Wait for a freshly deployed gateway to start routing, then run
    e2e -wait 2m
`)
}

func main() {
	flag.Parse()

	if showVersion {
		printVersion()
		os.Exit(0)
	}

	if list {
		for _, name := range scenario.Names() {
			fmt.Println(name)
		}
		os.Exit(0)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer log.Sync()

	selected, err := selectScenarios(scenarioNames)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log, selected); err != nil {
		log.Error("verification failed", zap.Error(err))
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("e2e version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

func applyOverrides(cfg *config.Config) {
	if baseURL != "" {
		cfg.Target.BaseURL = baseURL
	}
	if parallel {
		cfg.Run.Parallel = true
	}
	if wait > 0 {
		cfg.Run.Wait = wait
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
}

// selectScenarios resolves the -scenario flag into named factories, in a
// stable order.
func selectScenarios(names string) (map[string]scenario.Factory, error) {
	if names == "" || names == "all" {
		return scenario.Registry(), nil
	}

	selected := make(map[string]scenario.Factory)
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		factory, err := scenario.Lookup(name)
		if err != nil {
			return nil, err
		}
		selected[name] = factory
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no scenarios selected from %q", names)
	}
	return selected, nil
}

func run(cfg *config.Config, log *zap.Logger, selected map[string]scenario.Factory) error {
	httpClient, err := client.New(client.Config{
		BaseURL:        cfg.Target.BaseURL,
		ConnectTimeout: cfg.Target.ConnectTimeout,
		ReadTimeout:    cfg.Target.ReadTimeout,
	})
	if err != nil {
		return err
	}

	if cfg.Run.Wait > 0 {
		waiter, err := ready.NewWaiter(ready.Config{
			Client:   httpClient,
			Deadline: cfg.Run.Wait,
			Logger:   log,
		})
		if err != nil {
			return err
		}
		if err := waiter.Wait(context.Background()); err != nil {
			return err
		}
	}

	issuer, err := token.NewIssuer(token.Config{Secret: cfg.Auth.Secret, TTL: cfg.Auth.TTL})
	if err != nil {
		return err
	}
	authorization, err := issuer.AuthorizationHeader(cfg.Auth.Subject)
	if err != nil {
		return err
	}

	exec, err := workflow.NewExecutor(workflow.ExecutorConfig{
		Client:          httpClient,
		Authorization:   authorization,
		Logger:          log,
		ScenarioTimeout: cfg.Run.ScenarioTimeout,
	})
	if err != nil {
		return err
	}

	log.Info("starting verification",
		zap.String("target", cfg.Target.BaseURL),
		zap.Int("scenarios", len(selected)),
		zap.Bool("parallel", cfg.Run.Parallel))

	start := time.Now()
	results := runScenarios(exec, selected, cfg.Run.Parallel)

	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
			log.Error("scenario failed",
				zap.String("scenario", result.Scenario),
				zap.Int("steps_completed", len(result.Steps)),
				zap.Error(result.Err))
		}
	}

	log.Info("verification finished",
		zap.Int("passed", len(results)-failed),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))

	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(results))
	}
	return nil
}

// runScenarios executes each selected scenario with its own run-scoped
// fixture builder. Scenarios never share state, so parallel mode only fans
// out the independent runs.
func runScenarios(exec *workflow.Executor, selected map[string]scenario.Factory, parallel bool) []*workflow.Result {
	ctx := context.Background()

	runOne := func(factory scenario.Factory) *workflow.Result {
		fix := fixture.NewBuilder(fixture.RunID())
		def := factory(fix)
		result, err := exec.Run(ctx, def, nil)
		if result == nil {
			result = &workflow.Result{Scenario: def.Name, Err: err}
		}
		return result
	}

	if !parallel {
		results := make([]*workflow.Result, 0, len(selected))
		for _, name := range scenario.Names() {
			if factory, ok := selected[name]; ok {
				results = append(results, runOne(factory))
			}
		}
		return results
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*workflow.Result
	)
	for _, factory := range selected {
		wg.Add(1)
		go func(factory scenario.Factory) {
			defer wg.Done()
			result := runOne(factory)
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(factory)
	}
	wg.Wait()
	return results
}
