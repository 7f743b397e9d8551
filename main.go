// ABOUTME: Entry point for the resell purchase tracker
// ABOUTME: Routes to the marketplace CLI, MCP server, admin web server, or TUI
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/harperreed/resell/cli"
	"github.com/harperreed/resell/config"
	"github.com/harperreed/resell/db"
	"github.com/harperreed/resell/ebay"
	"github.com/harperreed/resell/logger"
	"github.com/harperreed/resell/metrics"
	"github.com/harperreed/resell/sync"
	"go.uber.org/zap"
)

const version = "0.1.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/resell/resell.db)")
	initOnly := flag.Bool("init", false, "Initialize database and exit")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("resell version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 && !*initOnly {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.SyncInterval != "" {
		cli.DefaultSyncInterval = cfg.SyncInterval
	}

	zlog, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	metrics.RegisterDefault()

	finalDBPath := getDatabasePath(*dbPath, cfg)
	database, err := db.OpenDatabase(finalDBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if *initOnly {
		log.Printf("Database initialized at %s", finalDBPath)
		return
	}

	mgr := newManager(database, cfg, zlog)

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "mcp":
		if err := cli.MCPCommand(mgr, version); err != nil {
			log.Fatalf("MCP server failed: %v", err)
		}

	case "web":
		if err := cli.WebCommand(mgr, zlog, cfg.AdminAddr, cfg.AdminToken, commandArgs); err != nil {
			log.Fatalf("Web server failed: %v", err)
		}

	case "tui":
		if err := cli.TUICommand(mgr); err != nil {
			log.Fatalf("TUI failed: %v", err)
		}

	case "market":
		if len(commandArgs) == 0 {
			fmt.Println("Error: market requires a subcommand")
			printUsage()
			os.Exit(1)
		}
		if err := runMarketCommand(mgr, commandArgs[0], commandArgs[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runMarketCommand(mgr *sync.Manager, command string, args []string) error {
	switch command {
	// Account commands
	case "auth-url":
		return cli.AuthURLCommand(mgr, args)
	case "connect":
		return cli.ConnectCommand(mgr, args)
	case "manual-token":
		return cli.ManualTokenCommand(mgr, args)
	case "status":
		return cli.StatusCommand(mgr, args)
	case "disconnect":
		return cli.DisconnectCommand(mgr, args)

	// Sync commands
	case "sync":
		return cli.SyncCommand(mgr, args)
	case "sync-log":
		return cli.SyncLogCommand(mgr, args)

	// Purchase commands
	case "purchases":
		return cli.ListPurchasesCommand(mgr, args)
	case "update-purchase":
		return cli.UpdatePurchaseCommand(mgr, args)
	case "stats":
		return cli.StatsCommand(mgr, args)

	// Seller commands
	case "sellers":
		return cli.ListContactsCommand(mgr, args)
	case "update-seller":
		return cli.UpdateContactCommand(mgr, args)

	default:
		fmt.Printf("Unknown market command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
	return nil
}

// newManager builds the sync manager. Without eBay app credentials the marketplace
// is left unset so local commands still work.
func newManager(database *sql.DB, cfg *config.Config, zlog *zap.Logger) *sync.Manager {
	var market sync.Marketplace
	if err := cfg.Validate(); err != nil {
		if !errors.Is(err, config.ErrNotConfigured) {
			log.Fatalf("Invalid config: %v", err)
		}
		zlog.Debug("marketplace client disabled", zap.Error(err))
	} else {
		client, err := ebay.NewClient(cfg.EbayConfig())
		if err != nil {
			log.Fatalf("Failed to create eBay client: %v", err)
		}
		market = client
	}

	return sync.NewManager(database, market, zlog)
}

func getDatabasePath(dbPath string, cfg *config.Config) string {
	if dbPath != "" {
		return dbPath
	}
	if cfg.DBPath != "" {
		return cfg.DBPath
	}
	return config.DefaultDBPath()
}

func printUsage() {
	fmt.Printf(`resell v%s - Marketplace purchase tracker

USAGE:
  resell [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/resell/resell.db)
  --init                 Initialize database and exit

COMMANDS:
  market                 Marketplace account, sync, purchase and seller commands
  mcp                    Start MCP server over stdio
  web                    Start the admin dashboard and API
  tui                    Open the interactive terminal UI

CONFIGURATION:
  Settings are read from ~/.local/share/resell/config.json, then .env, then the
  environment. eBay app credentials come from EBAY_APP_ID, EBAY_CERT_ID and
  EBAY_RU_NAME. Without them only local commands are available.

ACCOUNT COMMANDS:
  resell market auth-url         Print the eBay consent URL
    --state <value>               OAuth state parameter
    --open                        Open the URL in a browser

  resell market connect          Link an account
    --code <code>                 Authorization code (prompted for when omitted)

  resell market manual-token     Link an account from pasted tokens
    --access-token <token>        Access token (prompted for when omitted)
    --refresh-token <token>       Refresh token

  resell market status           Show the linked account and token state
  resell market disconnect       Deactivate the linked account

SYNC COMMANDS:
  resell market sync             Import purchases
    --account <id>                Account ID (default: active account)
    --from <YYYY-MM-DD>           Window start (default: 30 days ago)
    --to <YYYY-MM-DD>             Window end (default: now)
    --daemon                      Keep syncing on an interval
    --interval <duration>         Daemon interval (default: 1h, minimum 5m)

  resell market sync-log         Show recent sync runs
    --limit <n>                   Max runs (default: 20)

PURCHASE COMMANDS:
  resell market purchases        List purchases
    --seller <username>           Filter by seller
    --status <status>             Filter by status (Active/Shipped/Delivered/Cancelled)
    --query <text>                Search title, order, tracking or seller
    --from/--to <YYYY-MM-DD>      Order date window
    --limit <n>                   Max results (default: 50)

  resell market update-purchase [flags] <id>
    --notes <text>                Notes
    --status <status>             Order status
    --tracking <number>           Tracking number (carrier is detected)
    --carrier <name>              Shipping carrier
    Note: flags must come before the purchase ID

  resell market stats            Spending summary
    --since <YYYY-MM-DD>          Only count orders on or after this date

SELLER COMMANDS:
  resell market sellers          List sellers
    --relationship <tier>         Filter by tier (new/active/vip/inactive)
    --query <text>                Search username, name or email
    --mailing-list                Only sellers on the mailing list
    --limit <n>                   Max results (default: 50)

  resell market update-seller [flags] <id>
    --name <name>                 Display name
    --email <email>               Email address
    --phone <phone>               Phone number
    --notes <text>                Notes
    --relationship <tier>         Relationship tier
    --mailing-list                Add to mailing list (--mailing-list=false removes)
    Note: flags must come before the seller ID

WEB SERVER:
  resell web
    --addr <host:port>            Listen address (default from config: 127.0.0.1:8088)
    --token <token>               Admin bearer token (default from RESELL_ADMIN_TOKEN)

EXAMPLES:
  # Link an account and import the last 30 days of purchases
  resell market connect
  resell market sync

  # Sync every two hours
  resell market sync --daemon --interval 2h

  # Add tracking to a purchase
  resell market update-purchase --tracking 1Z999AA10123456784 <id>

`, version)
}
