package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"assetlib/internal/config"
	"assetlib/internal/registry"
	"assetlib/internal/services/ingest"
)

const ingestionCheckTimeout = 10 * time.Second

// CheckIngestion verifies that the asset index answers GET {base}/health.
// It uses a single attempt (no retries).
func CheckIngestion(ctx context.Context, cfg *config.Config) Result {
	const name = "Asset index"

	base := strings.TrimSpace(cfg.Ingestion.BaseURL)
	if base == "" {
		return Result{Name: name, Detail: "missing base_url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, ingestionCheckTimeout)
	defer cancel()

	client := ingest.NewFromConfig(cfg, nil, ingest.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeHTTPError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", base)}
}

// CheckRegistry opens the registry database, which also verifies its schema.
func CheckRegistry(ctx context.Context, cfg *config.Config) Result {
	const name = "Registry"
	path := cfg.RegistryPath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (created on first export)", path)}
	}
	store, err := registry.OpenPath(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()
	records, err := store.List(ctx, registry.Filter{})
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d assets)", path, len(records))}
}

// CheckDirectoryAccess passes when path is a directory this process can
// list, create files in and traverse.
func CheckDirectoryAccess(name, path string) Result {
	fail := func(reason string) Result {
		return Result{Name: name, Detail: path + " (error: " + reason + ")"}
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fail("does not exist")
	case err != nil:
		return fail("stat: " + err.Error())
	case !info.IsDir():
		return fail("is not a directory")
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fail("insufficient permissions: " + err.Error())
	}
	return Result{Name: name, Passed: true, Detail: path + " (read/write ok)"}
}

// summarizeHTTPError produces a human-readable summary for health check failures.
func summarizeHTTPError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (index unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (index unreachable)"
	}
	return err.Error()
}
