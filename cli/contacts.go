// ABOUTME: Seller contact CLI commands
// ABOUTME: Lists harvested sellers and edits their operator profile fields
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/harperreed/resell/db"
	"github.com/harperreed/resell/sync"
)

// ListContactsCommand lists sellers ranked by spend.
func ListContactsCommand(mgr *sync.Manager, args []string) error {
	fs := flag.NewFlagSet("sellers", flag.ExitOnError)
	relationship := fs.String("relationship", "", "Filter by tier (new, active, vip, inactive)")
	query := fs.String("query", "", "Search username, display name, or email")
	mailing := fs.Bool("mailing-list", false, "Only sellers on the mailing list")
	limit := fs.Int("limit", 50, "Maximum results")
	offset := fs.Int("offset", 0, "Results to skip")
	_ = fs.Parse(args)

	list, err := mgr.ListContacts(context.Background(), db.ContactFilter{
		Relationship:    *relationship,
		Search:          *query,
		MailingListOnly: *mailing,
		Limit:           *limit,
		Offset:          *offset,
	})
	if err != nil {
		return fmt.Errorf("failed to list sellers: %w", err)
	}

	if len(list.Contacts) == 0 {
		fmt.Println("No sellers found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SELLER\tTIER\tPURCHASES\tSPENT\tAVG\tLAST PURCHASE\tID")
	_, _ = fmt.Fprintln(w, "------\t----\t---------\t-----\t---\t-------------\t--")

	for _, c := range list.Contacts {
		last := "-"
		if c.LastPurchaseAt != nil {
			last = c.LastPurchaseAt.Local().Format("2006-01-02")
		}
		name := c.VendorUsername
		if c.DisplayName != "" {
			name = fmt.Sprintf("%s (%s)", c.VendorUsername, c.DisplayName)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			name, c.Relationship, c.TotalPurchases, money(c.TotalSpent), money(c.AvgDealSize), last, c.ID)
	}
	_ = w.Flush()

	fmt.Printf("\nShowing %d of %d (all sellers: %d, mailing list %d, vip %d)\n",
		len(list.Contacts), list.Total,
		list.Stats.TotalContacts, list.Stats.OnMailingList, list.Stats.VIPSellers)

	return nil
}

// UpdateContactCommand edits a seller's profile. Only flags present on the
// command line are applied.
func UpdateContactCommand(mgr *sync.Manager, args []string) error {
	fs := flag.NewFlagSet("update-seller", flag.ExitOnError)
	displayName := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	notes := fs.String("notes", "", "Notes about the seller")
	mailing := fs.Bool("mailing-list", false, "Whether the seller is on the mailing list")
	relationship := fs.String("relationship", "", "new, active, vip, or inactive")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: update-seller [flags] <id>")
	}
	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid seller ID: %w", err)
	}

	set := setFlags(fs)
	if len(set) == 0 {
		return fmt.Errorf("nothing to update: pass at least one of --name, --email, --phone, --notes, --mailing-list, --relationship")
	}

	c, err := mgr.UpdateContact(context.Background(), id, sync.ContactPatch{
		DisplayName:  stringIfSet(set, "name", displayName),
		Email:        stringIfSet(set, "email", email),
		Phone:        stringIfSet(set, "phone", phone),
		Notes:        stringIfSet(set, "notes", notes),
		MailingList:  boolIfSet(set, "mailing-list", mailing),
		Relationship: stringIfSet(set, "relationship", relationship),
	})
	if err != nil {
		return err
	}

	fmt.Printf("✓ Seller updated: %s\n", c.VendorUsername)
	fmt.Printf("  Tier: %s\n", c.Relationship)
	if c.Email != "" {
		fmt.Printf("  Email: %s\n", c.Email)
	}
	if c.MailingList {
		fmt.Println("  On mailing list")
	}
	return nil
}
