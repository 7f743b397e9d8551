// ABOUTME: Trading API request and response shapes for GetOrders and GetUser
// ABOUTME: XML bindings plus the APIError raised when eBay acknowledges a call as failed
package ebay

import (
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	tradingNamespace   = "urn:ebay:apis:eBLBaseComponents"
	compatibilityLevel = "1193"
)

// Ack values returned by the Trading API.
const (
	AckSuccess = "Success"
	AckWarning = "Warning"
	AckFailure = "Failure"
)

// ErrorDetail is one entry of the Errors list in a Trading API response.
type ErrorDetail struct {
	ShortMessage string `xml:"ShortMessage"`
	LongMessage  string `xml:"LongMessage"`
	ErrorCode    string `xml:"ErrorCode"`
	SeverityCode string `xml:"SeverityCode"`
}

// APIError is returned when a call comes back with Ack=Failure.
type APIError struct {
	Call   string
	Errors []ErrorDetail
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("ebay: %s failed", e.Call)
	}

	msgs := make([]string, 0, len(e.Errors))
	for _, d := range e.Errors {
		msg := d.LongMessage
		if msg == "" {
			msg = d.ShortMessage
		}
		if d.ErrorCode != "" {
			msg = fmt.Sprintf("%s (code %s)", msg, d.ErrorCode)
		}
		msgs = append(msgs, msg)
	}
	return fmt.Sprintf("ebay: %s failed: %s", e.Call, strings.Join(msgs, "; "))
}

type baseResponse struct {
	Ack    string        `xml:"Ack"`
	Errors []ErrorDetail `xml:"Errors"`
}

func (r *baseResponse) ackError(call string) error {
	if r.Ack == AckFailure {
		return &APIError{Call: call, Errors: r.Errors}
	}
	return nil
}

type pagination struct {
	EntriesPerPage int `xml:"EntriesPerPage"`
	PageNumber     int `xml:"PageNumber"`
}

type getOrdersRequest struct {
	XMLName        xml.Name   `xml:"urn:ebay:apis:eBLBaseComponents GetOrdersRequest"`
	OrderRole      string     `xml:"OrderRole"`
	OrderStatus    string     `xml:"OrderStatus"`
	CreateTimeFrom string     `xml:"CreateTimeFrom"`
	CreateTimeTo   string     `xml:"CreateTimeTo"`
	DetailLevel    string     `xml:"DetailLevel"`
	Pagination     pagination `xml:"Pagination"`
}

type getOrdersResponse struct {
	XMLName xml.Name `xml:"GetOrdersResponse"`
	baseResponse
	HasMoreOrders    bool `xml:"HasMoreOrders"`
	PaginationResult struct {
		TotalNumberOfPages   int `xml:"TotalNumberOfPages"`
		TotalNumberOfEntries int `xml:"TotalNumberOfEntries"`
	} `xml:"PaginationResult"`
	OrderArray struct {
		Orders []Order `xml:"Order"`
	} `xml:"OrderArray"`
}

type getUserRequest struct {
	XMLName xml.Name `xml:"urn:ebay:apis:eBLBaseComponents GetUserRequest"`
}

type getUserResponse struct {
	XMLName xml.Name `xml:"GetUserResponse"`
	baseResponse
	User struct {
		UserID string `xml:"UserID"`
	} `xml:"User"`
}

// Amount is a money value with its currency attribute.
type Amount struct {
	Value    string `xml:",chardata"`
	Currency string `xml:"currencyID,attr"`
}

// TrackingDetail is one shipment tracking entry.
type TrackingDetail struct {
	ShippingCarrierUsed    string `xml:"ShippingCarrierUsed"`
	ShipmentTrackingNumber string `xml:"ShipmentTrackingNumber"`
}

// ShippingDetails carries tracking entries at order or transaction level.
type ShippingDetails struct {
	ShipmentTrackingDetails []TrackingDetail `xml:"ShipmentTrackingDetails"`
}

// Transaction is one line item of an order.
type Transaction struct {
	Item struct {
		ItemID string `xml:"ItemID"`
		Title  string `xml:"Title"`
		Seller struct {
			UserID string `xml:"UserID"`
		} `xml:"Seller"`
	} `xml:"Item"`
	TransactionPrice Amount          `xml:"TransactionPrice"`
	ShippingDetails  ShippingDetails `xml:"ShippingDetails"`
}

// Order is a GetOrders order as returned to the buyer. Raw keeps the element's inner XML
// untouched for auditing.
type Order struct {
	OrderID                 string `xml:"OrderID"`
	OrderStatus             string `xml:"OrderStatus"`
	AmountPaid              Amount `xml:"AmountPaid"`
	Total                   Amount `xml:"Total"`
	CreatedTime             string `xml:"CreatedTime"`
	SellerUserID            string `xml:"SellerUserID"`
	ShippingServiceSelected struct {
		ShippingServiceCost Amount `xml:"ShippingServiceCost"`
	} `xml:"ShippingServiceSelected"`
	ShippingDetails  ShippingDetails `xml:"ShippingDetails"`
	TransactionArray struct {
		Transactions []Transaction `xml:"Transaction"`
	} `xml:"TransactionArray"`

	Raw string `xml:",innerxml"`
}
