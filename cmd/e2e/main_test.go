// Package main provides tests for the CLI entry point.
package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shop/tools/e2e/internal/client"
	"github.com/example/shop/tools/e2e/internal/config"
	"github.com/example/shop/tools/e2e/internal/scenario"
	"github.com/example/shop/tools/e2e/internal/workflow"
)

// buildE2E builds the CLI binary for testing
func buildE2E(t *testing.T) string {
	t.Helper()

	cmdDir, err := os.Getwd()
	require.NoError(t, err)

	tmpDir := t.TempDir()
	// The binary must not be named "e2e": the CLI runs with the binary's
	// directory as cwd, and the config loader also matches an extensionless
	// "./e2e" file, which would make it parse the binary itself as YAML.
	binPath := filepath.Join(tmpDir, "e2e-cli")

	cmd := exec.Command("go", "build", "-o", binPath, ".")
	cmd.Dir = cmdDir
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "Failed to build e2e: %s", string(output))

	return binPath
}

// runE2E executes the e2e binary with the given args
func runE2E(t *testing.T, binPath string, args ...string) (string, string, int) {
	t.Helper()

	cmd := exec.Command(binPath, args...)
	cmd.Dir = filepath.Dir(binPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			exitCode = exitError.ExitCode()
		}
	}

	return stdout.String(), stderr.String(), exitCode
}

func TestCLI_Help(t *testing.T) {
	binPath := buildE2E(t)

	stdout, stderr, exitCode := runE2E(t, binPath, "--help")

	// Help goes to stderr per Go's flag package
	helpOutput := stderr + stdout
	assert.Contains(t, helpOutput, "E2E - Shopping Flow Verification Harness")
	assert.Contains(t, helpOutput, "-config")
	assert.Contains(t, helpOutput, "-scenario")
	assert.Contains(t, helpOutput, "-base-url")
	assert.Contains(t, helpOutput, "-parallel")
	assert.Contains(t, helpOutput, "-wait")
	assert.Contains(t, helpOutput, "-list")
	assert.Contains(t, helpOutput, "EXAMPLES:")
	assert.Equal(t, 0, exitCode)
}

func TestCLI_Version(t *testing.T) {
	binPath := buildE2E(t)

	stdout, _, exitCode := runE2E(t, binPath, "-version")

	assert.Contains(t, stdout, "e2e version")
	assert.Contains(t, stdout, "Build time:")
	assert.Contains(t, stdout, "Git commit:")
	assert.Equal(t, 0, exitCode)
}

func TestCLI_List(t *testing.T) {
	binPath := buildE2E(t)

	stdout, _, exitCode := runE2E(t, binPath, "-list")

	assert.Equal(t, "full-journey\ninventory\norder-update\n", stdout)
	assert.Equal(t, 0, exitCode)
}

func TestCLI_ShortFlags(t *testing.T) {
	binPath := buildE2E(t)

	stdout, _, exitCode := runE2E(t, binPath, "-l")

	assert.Contains(t, stdout, "full-journey")
	assert.Equal(t, 0, exitCode)
}

func TestCLI_UnknownScenario(t *testing.T) {
	binPath := buildE2E(t)

	_, stderr, exitCode := runE2E(t, binPath, "-scenario", "load-spike")

	assert.Contains(t, stderr, "not found")
	assert.Contains(t, stderr, "load-spike")
	assert.Equal(t, 1, exitCode)
}

func TestCLI_InvalidBaseURLOverride(t *testing.T) {
	binPath := buildE2E(t)

	// A malformed -base-url must fail validation the same way a malformed
	// file or env value does, before any scenario runs.
	_, stderr, exitCode := runE2E(t, binPath, "-base-url", "not a url")

	assert.Contains(t, stderr, "target.base_url")
	assert.Equal(t, 1, exitCode)
}

func TestCLI_ConfigNotFound(t *testing.T) {
	binPath := buildE2E(t)

	_, stderr, exitCode := runE2E(t, binPath, "-config", "/nonexistent/path.yaml")

	assert.Contains(t, stderr, "Error loading configuration")
	assert.Equal(t, 1, exitCode)
}

func withFlagState(t *testing.T) {
	t.Helper()

	savedBaseURL, savedParallel, savedWait, savedVerbose := baseURL, parallel, wait, verbose
	t.Cleanup(func() {
		baseURL, parallel, wait, verbose = savedBaseURL, savedParallel, savedWait, savedVerbose
	})
}

func TestApplyOverrides(t *testing.T) {
	withFlagState(t)

	cfg, err := config.Load("")
	require.NoError(t, err)

	baseURL = "http://gateway.test:8222"
	parallel = true
	wait = 90 * time.Second
	verbose = true
	applyOverrides(cfg)

	assert.Equal(t, "http://gateway.test:8222", cfg.Target.BaseURL)
	assert.True(t, cfg.Run.Parallel)
	assert.Equal(t, 90*time.Second, cfg.Run.Wait)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestApplyOverrides_RevalidationCatchesBadURL(t *testing.T) {
	withFlagState(t)

	cfg, err := config.Load("")
	require.NoError(t, err)

	baseURL = "not a url"
	applyOverrides(cfg)

	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidConfig)
}

func TestSelectScenarios(t *testing.T) {
	all, err := selectScenarios("all")
	require.NoError(t, err)
	assert.Len(t, all, len(scenario.Names()))

	one, err := selectScenarios("full-journey")
	require.NoError(t, err)
	assert.Len(t, one, 1)

	two, err := selectScenarios(" inventory , order-update ")
	require.NoError(t, err)
	assert.Len(t, two, 2)

	_, err = selectScenarios("full-journey,load-spike")
	assert.ErrorIs(t, err, scenario.ErrScenarioNotFound)

	_, err = selectScenarios(" , ")
	assert.Error(t, err)
}

// trackingDoer answers every request with a fixed identifier-bearing body
// and records how many requests were in flight at once.
type trackingDoer struct {
	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	calls       int
}

func (d *trackingDoer) Do(_ context.Context, _ client.Request) (*client.Response, error) {
	d.mu.Lock()
	d.calls++
	d.inFlight++
	if d.inFlight > d.maxInFlight {
		d.maxInFlight = d.inFlight
	}
	d.mu.Unlock()

	time.Sleep(25 * time.Millisecond)

	d.mu.Lock()
	d.inFlight--
	d.mu.Unlock()

	body := `{"userId": "11", "productId": "22", "cartId": "33", "orderId": "44"}`
	return &client.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

func newTrackingExecutor(t *testing.T, doer workflow.Doer) *workflow.Executor {
	t.Helper()
	exec, err := workflow.NewExecutor(workflow.ExecutorConfig{Client: doer, Authorization: "Bearer tok"})
	require.NoError(t, err)
	return exec
}

func TestRunScenarios_Sequential(t *testing.T) {
	doer := &trackingDoer{}
	exec := newTrackingExecutor(t, doer)

	results := runScenarios(exec, scenario.Registry(), false)

	require.Len(t, results, len(scenario.Names()))
	assert.Equal(t, 1, doer.maxInFlight, "sequential mode must run one request at a time")

	names := make([]string, len(results))
	for i, result := range results {
		names[i] = result.Scenario
	}
	assert.Equal(t, scenario.Names(), names, "sequential mode runs in registry order")
}

func TestRunScenarios_ParallelFanOut(t *testing.T) {
	doer := &trackingDoer{}
	exec := newTrackingExecutor(t, doer)

	results := runScenarios(exec, scenario.Registry(), true)

	require.Len(t, results, len(scenario.Names()), "every scenario must report a result")

	seen := make(map[string]bool)
	for _, result := range results {
		require.NotNil(t, result)
		seen[result.Scenario] = true
	}
	for _, name := range scenario.Names() {
		assert.True(t, seen[name], "missing result for %s", name)
	}

	assert.Greater(t, doer.maxInFlight, 1, "parallel mode must overlap independent scenarios")
}
