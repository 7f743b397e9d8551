// ABOUTME: Converts Trading API orders into local Purchase records
// ABOUTME: Derives prices, seller, tracking and status; never fails on missing fields
package ebay

import (
	"regexp"
	"strings"
	"time"

	"github.com/harperreed/resell/models"
	"github.com/harperreed/resell/tracking"
	"github.com/shopspring/decimal"
)

const unknownItemTitle = "Unknown Item"

var (
	deliveredPattern = regexp.MustCompile(`(?i)complete|fulfilled`)
	shippedPattern   = regexp.MustCompile(`(?i)shipped|in.transit`)
	cancelledPattern = regexp.MustCompile(`(?i)cancel`)
)

// MapOrderStatus maps eBay's free-text order status onto the local status set. The
// second result is false when the text matched nothing and Active was assumed.
func MapOrderStatus(status string) (string, bool) {
	switch {
	case deliveredPattern.MatchString(status):
		return models.OrderStatusDelivered, true
	case shippedPattern.MatchString(status):
		return models.OrderStatusShipped, true
	case cancelledPattern.MatchString(status):
		return models.OrderStatusCancelled, true
	case strings.EqualFold(strings.TrimSpace(status), models.OrderStatusActive):
		return models.OrderStatusActive, true
	}
	return models.OrderStatusActive, false
}

// Normalize converts one order into a Purchase. IDs and timestamps are left for the
// store to assign.
func Normalize(order Order) models.Purchase {
	p := models.Purchase{
		VendorOrderID:  strings.TrimSpace(order.OrderID),
		Title:          unknownItemTitle,
		SellerUsername: strings.TrimSpace(order.SellerUserID),
		VendorStatus:   order.OrderStatus,
		RawPayload:     "<Order>" + order.Raw + "</Order>",
	}

	var firstTx *Transaction
	if len(order.TransactionArray.Transactions) > 0 {
		firstTx = &order.TransactionArray.Transactions[0]
		p.VendorItemID = strings.TrimSpace(firstTx.Item.ItemID)
		if title := strings.TrimSpace(firstTx.Item.Title); title != "" {
			p.Title = title
		}
		if p.SellerUsername == "" {
			p.SellerUsername = strings.TrimSpace(firstTx.Item.Seller.UserID)
		}
	}

	paid := order.AmountPaid
	if strings.TrimSpace(paid.Value) == "" {
		paid = order.Total
	}
	p.TotalCost = parseAmount(paid.Value)
	p.ShippingCost = parseAmount(order.ShippingServiceSelected.ShippingServiceCost.Value)
	p.ItemPrice = p.TotalCost.Sub(p.ShippingCost)
	p.Currency = paid.Currency

	if detail, ok := firstTracking(order, firstTx); ok {
		p.TrackingNumber = strings.TrimSpace(detail.ShipmentTrackingNumber)
		p.ShippingCarrier = strings.TrimSpace(detail.ShippingCarrierUsed)
	}
	p.TrackingURL = tracking.ResolveURL(p.ShippingCarrier, p.TrackingNumber)

	p.OrderStatus, _ = MapOrderStatus(order.OrderStatus)

	if created, err := time.Parse(time.RFC3339, strings.TrimSpace(order.CreatedTime)); err == nil {
		p.OrderDate = created.UTC()
	}

	return p
}

func firstTracking(order Order, tx *Transaction) (TrackingDetail, bool) {
	for _, d := range order.ShippingDetails.ShipmentTrackingDetails {
		if d.ShipmentTrackingNumber != "" {
			return d, true
		}
	}
	if tx != nil {
		for _, d := range tx.ShippingDetails.ShipmentTrackingDetails {
			if d.ShipmentTrackingNumber != "" {
				return d, true
			}
		}
	}
	return TrackingDetail{}, false
}

func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
