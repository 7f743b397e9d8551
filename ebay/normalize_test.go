// ABOUTME: Tests for order normalization and status mapping
// ABOUTME: Exercises price math, seller/tracking fallbacks and empty-field defaults
package ebay

import (
	"encoding/xml"
	"testing"
	"time"

	"github.com/harperreed/resell/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeOrder(t *testing.T, raw string) Order {
	t.Helper()
	var o Order
	require.NoError(t, xml.Unmarshal([]byte(raw), &o))
	return o
}

func TestMapOrderStatus(t *testing.T) {
	tests := []struct {
		vendor     string
		expected   string
		recognized bool
	}{
		{"Completed", models.OrderStatusDelivered, true},
		{"FULFILLED", models.OrderStatusDelivered, true},
		{"Shipped", models.OrderStatusShipped, true},
		{"In Transit", models.OrderStatusShipped, true},
		{"in_transit", models.OrderStatusShipped, true},
		{"Cancelled", models.OrderStatusCancelled, true},
		{"CancelPending", models.OrderStatusCancelled, true},
		{"Active", models.OrderStatusActive, true},
		{"InProcess", models.OrderStatusActive, false},
		{"", models.OrderStatusActive, false},
	}

	for _, tt := range tests {
		t.Run(tt.vendor, func(t *testing.T) {
			got, ok := MapOrderStatus(tt.vendor)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.recognized, ok)
		})
	}
}

func TestNormalizeFullOrder(t *testing.T) {
	order := decodeOrder(t, `<Order>
  <OrderID>12-34567-89012</OrderID>
  <OrderStatus>Shipped</OrderStatus>
  <AmountPaid currencyID="USD">27.50</AmountPaid>
  <CreatedTime>2024-03-01T12:00:00.000Z</CreatedTime>
  <ShippingServiceSelected>
    <ShippingServiceCost currencyID="USD">5.25</ShippingServiceCost>
  </ShippingServiceSelected>
  <TransactionArray>
    <Transaction>
      <Item>
        <ItemID>110012345678</ItemID>
        <Title>Pyrex Butterprint Bowl</Title>
        <Seller><UserID>vintage_finds</UserID></Seller>
      </Item>
      <ShippingDetails>
        <ShipmentTrackingDetails>
          <ShippingCarrierUsed>UPS</ShippingCarrierUsed>
          <ShipmentTrackingNumber>1Z999AA10123456784</ShipmentTrackingNumber>
        </ShipmentTrackingDetails>
      </ShippingDetails>
    </Transaction>
  </TransactionArray>
</Order>`)

	p := Normalize(order)

	assert.Equal(t, "12-34567-89012", p.VendorOrderID)
	assert.Equal(t, "110012345678", p.VendorItemID)
	assert.Equal(t, "Pyrex Butterprint Bowl", p.Title)
	assert.Equal(t, "vintage_finds", p.SellerUsername, "falls back to the transaction seller")
	assert.True(t, decimal.RequireFromString("27.50").Equal(p.TotalCost))
	assert.True(t, decimal.RequireFromString("5.25").Equal(p.ShippingCost))
	assert.True(t, decimal.RequireFromString("22.25").Equal(p.ItemPrice))
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, "UPS", p.ShippingCarrier)
	assert.Equal(t, "1Z999AA10123456784", p.TrackingNumber)
	assert.Equal(t, "https://www.ups.com/track?tracknum=1Z999AA10123456784", p.TrackingURL)
	assert.Equal(t, models.OrderStatusShipped, p.OrderStatus)
	assert.Equal(t, "Shipped", p.VendorStatus)
	assert.True(t, p.OrderDate.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.Contains(t, p.RawPayload, "<Order>")
	assert.Contains(t, p.RawPayload, "<ItemID>110012345678</ItemID>")
}

func TestNormalizeOrderLevelSellerAndTrackingWin(t *testing.T) {
	order := decodeOrder(t, `<Order>
  <OrderID>1</OrderID>
  <SellerUserID>order_seller</SellerUserID>
  <Total currencyID="GBP">12.00</Total>
  <ShippingDetails>
    <ShipmentTrackingDetails>
      <ShippingCarrierUsed></ShippingCarrierUsed>
      <ShipmentTrackingNumber>1234567890</ShipmentTrackingNumber>
    </ShipmentTrackingDetails>
  </ShippingDetails>
  <TransactionArray>
    <Transaction>
      <Item><Seller><UserID>tx_seller</UserID></Seller></Item>
      <ShippingDetails>
        <ShipmentTrackingDetails>
          <ShippingCarrierUsed>UPS</ShippingCarrierUsed>
          <ShipmentTrackingNumber>1Z999AA10123456784</ShipmentTrackingNumber>
        </ShipmentTrackingDetails>
      </ShippingDetails>
    </Transaction>
  </TransactionArray>
</Order>`)

	p := Normalize(order)

	assert.Equal(t, "order_seller", p.SellerUsername)
	assert.Equal(t, "1234567890", p.TrackingNumber)
	assert.Contains(t, p.TrackingURL, "dhl.com", "carrier detected from the number shape")
	assert.True(t, decimal.RequireFromString("12").Equal(p.TotalCost), "Total used when AmountPaid is absent")
	assert.Equal(t, "GBP", p.Currency)
	assert.Equal(t, unknownItemTitle, p.Title)
}

func TestNormalizeEmptyOrder(t *testing.T) {
	assert.NotPanics(t, func() {
		p := Normalize(Order{})
		assert.Equal(t, unknownItemTitle, p.Title)
		assert.True(t, p.TotalCost.IsZero())
		assert.True(t, p.ItemPrice.IsZero())
		assert.True(t, p.OrderDate.IsZero())
		assert.Empty(t, p.TrackingURL)
		assert.Equal(t, models.OrderStatusActive, p.OrderStatus)
		assert.Equal(t, "<Order></Order>", p.RawPayload)
	})
}

func TestNormalizeMalformedValues(t *testing.T) {
	order := Order{
		OrderID:     "bad",
		AmountPaid:  Amount{Value: "twelve"},
		CreatedTime: "yesterday",
	}

	p := Normalize(order)
	assert.True(t, p.TotalCost.IsZero())
	assert.True(t, p.OrderDate.IsZero())
}

func TestNormalizeDeterministic(t *testing.T) {
	order := Order{
		OrderID:     "same",
		OrderStatus: "Completed",
		AmountPaid:  Amount{Value: "9.99", Currency: "USD"},
		CreatedTime: "2024-01-01T00:00:00Z",
		Raw:         "<OrderID>same</OrderID>",
	}

	assert.Equal(t, Normalize(order), Normalize(order))
}
