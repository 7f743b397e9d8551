// ABOUTME: Purchase CLI commands
// ABOUTME: Lists, edits, and summarizes imported purchases
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/harperreed/resell/db"
	"github.com/harperreed/resell/sync"
	"github.com/shopspring/decimal"
)

// ListPurchasesCommand lists purchases, newest first.
func ListPurchasesCommand(mgr *sync.Manager, args []string) error {
	fs := flag.NewFlagSet("purchases", flag.ExitOnError)
	status := fs.String("status", "", "Filter by status (Active, Shipped, Delivered, Cancelled)")
	seller := fs.String("seller", "", "Filter by seller username")
	query := fs.String("query", "", "Search title, order ID, tracking number, or seller")
	from := fs.String("from", "", "Earliest order date (YYYY-MM-DD)")
	to := fs.String("to", "", "Latest order date (YYYY-MM-DD)")
	limit := fs.Int("limit", 50, "Maximum results")
	offset := fs.Int("offset", 0, "Results to skip")
	_ = fs.Parse(args)

	fromDate, err := sync.ParseDate(*from)
	if err != nil {
		return err
	}
	toDate, err := sync.ParseDate(*to)
	if err != nil {
		return err
	}

	list, err := mgr.ListPurchases(context.Background(), db.PurchaseFilter{
		Status: *status,
		Seller: *seller,
		Search: *query,
		From:   fromDate,
		To:     toDate,
		Limit:  *limit,
		Offset: *offset,
	})
	if err != nil {
		return fmt.Errorf("failed to list purchases: %w", err)
	}

	if len(list.Purchases) == 0 {
		fmt.Println("No purchases found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATE\tTITLE\tSELLER\tTOTAL\tSTATUS\tTRACKING\tID")
	_, _ = fmt.Fprintln(w, "----\t-----\t------\t-----\t------\t--------\t--")

	for _, p := range list.Purchases {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.OrderDate.Local().Format("2006-01-02"),
			truncate(p.Title, 40),
			orDash(p.SellerUsername),
			money(p.TotalCost),
			p.OrderStatus,
			orDash(p.TrackingNumber),
			p.ID,
		)
	}
	_ = w.Flush()

	fmt.Printf("\nShowing %d of %d (all purchases: %d, spent %s, awaiting delivery %d, sellers %d)\n",
		len(list.Purchases), list.Total,
		list.Stats.TotalPurchases, money(list.Stats.TotalSpent),
		list.Stats.AwaitingDelivery, list.Stats.UniqueSellers)

	return nil
}

// UpdatePurchaseCommand edits operator fields on a purchase.
// Only flags present on the command line are applied.
func UpdatePurchaseCommand(mgr *sync.Manager, args []string) error {
	fs := flag.NewFlagSet("update-purchase", flag.ExitOnError)
	notes := fs.String("notes", "", "Operator notes")
	status := fs.String("status", "", "Active, Shipped, Delivered, or Cancelled")
	trackingNumber := fs.String("tracking", "", "Tracking number")
	carrier := fs.String("carrier", "", "UPS, USPS, FedEx, or DHL")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: update-purchase [flags] <id>")
	}
	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid purchase ID: %w", err)
	}

	set := setFlags(fs)
	patch := sync.PurchasePatch{
		Notes:           stringIfSet(set, "notes", notes),
		OrderStatus:     stringIfSet(set, "status", status),
		TrackingNumber:  stringIfSet(set, "tracking", trackingNumber),
		ShippingCarrier: stringIfSet(set, "carrier", carrier),
	}
	if len(set) == 0 {
		return fmt.Errorf("nothing to update: pass at least one of --notes, --status, --tracking, --carrier")
	}

	p, err := mgr.UpdatePurchase(context.Background(), id, patch)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Purchase updated: %s\n", p.Title)
	fmt.Printf("  Status: %s\n", p.OrderStatus)
	if p.TrackingNumber != "" {
		fmt.Printf("  Tracking: %s %s\n", p.ShippingCarrier, p.TrackingNumber)
	}
	if p.TrackingURL != "" {
		fmt.Printf("  %s\n", p.TrackingURL)
	}
	return nil
}

// StatsCommand prints spend by status and seller
func StatsCommand(mgr *sync.Manager, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	since := fs.String("since", "", "Only include purchases on or after this date (YYYY-MM-DD)")
	_ = fs.Parse(args)

	sinceDate, err := sync.ParseDate(*since)
	if err != nil {
		return err
	}

	stats, err := mgr.PurchaseStats(context.Background(), sinceDate)
	if err != nil {
		return fmt.Errorf("failed to compute purchase stats: %w", err)
	}

	fmt.Printf("Purchases: %d\n", stats.Purchases)
	fmt.Printf("Spent:     %s\n\n", money(stats.TotalSpent))

	statuses := make([]string, 0, len(stats.ByStatus))
	for s := range stats.ByStatus {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STATUS\tCOUNT")
	for _, s := range statuses {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", s, stats.ByStatus[s])
	}
	_ = w.Flush()

	if len(stats.BySeller) > 0 {
		fmt.Println()
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "SELLER\tPURCHASES\tSPENT")
		for _, s := range stats.BySeller {
			_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", s.SellerUsername, s.Purchases, money(s.TotalSpent))
		}
		_ = w.Flush()
	}

	return nil
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// setFlags returns the names of flags explicitly passed on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

func stringIfSet(set map[string]bool, name string, value *string) *string {
	if !set[name] {
		return nil
	}
	return value
}

func boolIfSet(set map[string]bool, name string, value *bool) *bool {
	if !set[name] {
		return nil
	}
	return value
}
