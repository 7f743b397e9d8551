// ABOUTME: Admin web server subcommand
// ABOUTME: Serves the dashboard, JSON API, OAuth callback and metrics until interrupted
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/resell/sync"
	"github.com/harperreed/resell/web"
	"go.uber.org/zap"
)

// WebCommand starts the admin server. addr and token are the configured defaults.
func WebCommand(mgr *sync.Manager, logger *zap.Logger, addr, token string, args []string) error {
	fs := flag.NewFlagSet("web", flag.ExitOnError)
	listen := fs.String("addr", addr, "Listen address")
	adminToken := fs.String("token", token, "Bearer token for the admin API (empty disables auth)")
	_ = fs.Parse(args)

	server, err := web.NewServer(mgr, logger, *adminToken)
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}

	if *adminToken == "" {
		fmt.Println("Warning: no admin token set, the API is open to anyone who can reach it")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Admin dashboard at http://%s/\n", *listen)
	return server.Start(ctx, *listen)
}
