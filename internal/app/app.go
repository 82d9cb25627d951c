// Package app wires the scanner, venue clients, executor, storage and
// control plane together and owns their lifecycle.
package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/dpereira/kalshi-poly-arb/internal/execution"
	"github.com/dpereira/kalshi-poly-arb/internal/scanner"
	"github.com/dpereira/kalshi-poly-arb/internal/storage"
	"github.com/dpereira/kalshi-poly-arb/pkg/config"
	"github.com/dpereira/kalshi-poly-arb/pkg/healthprobe"
	"github.com/dpereira/kalshi-poly-arb/pkg/httpserver"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	scanner       *scanner.Scanner
	executor      *execution.Executor
	storage       storage.Storage
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}
