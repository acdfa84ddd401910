// Package testkit provides fixtures shared by tests, suites, and the CLI's
// local mode: seeded dataset generators, an in-memory run ledger, a
// testdata locator, and a bootstrap that wires a client to an in-process
// simulator.
package testkit

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	"gocascade/adapters/cascade"
	"gocascade/internal/simulator"
)

// LocalCluster is a cascade client connected to an in-process simulator
type LocalCluster struct {
	Client *cascade.Client
	server *httptest.Server
}

// NewLocalCluster starts a simulator and connects a client to it
func NewLocalCluster(ctx context.Context) (*LocalCluster, error) {
	server := httptest.NewServer(simulator.New().Handler())

	opts := cascade.DefaultOptions(server.URL)
	opts.ConnectBackoff = 10 * time.Millisecond
	client := cascade.NewClient(opts)
	if _, err := client.Connect(ctx); err != nil {
		server.Close()
		return nil, fmt.Errorf("connect to local simulator: %w", err)
	}

	return &LocalCluster{Client: client, server: server}, nil
}

// Close shuts the simulator down
func (lc *LocalCluster) Close() {
	lc.server.Close()
}

// Locate finds a file or directory by walking up from the working directory,
// so suites can reach testdata regardless of which package invokes them.
func Locate(name string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found walking up from working directory", name)
		}
		dir = parent
	}
}
