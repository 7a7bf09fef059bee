//go:build integration
// +build integration

package integration

import (
	"context"
	"os/exec"
	"testing"
)

// restartInventory sends SIGTERM through compose, which runs the shutdown hook
// that empties the product table, then starts the service again.
func restartInventory(t *testing.T, ctx context.Context) {
	t.Helper()

	cmd := exec.CommandContext(ctx, "docker", "compose", "restart", "inventory")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("docker compose restart inventory failed: %v\n%s", err, string(out))
	}
}
