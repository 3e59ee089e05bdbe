package square

import (
	"strconv"
	"strings"

	sq "github.com/square/square-go-sdk"
	sqcheckout "github.com/square/square-go-sdk/checkout"
)

// PaymentLinkLineItem is one priced row of a hosted payment link.
type PaymentLinkLineItem struct {
	Name           string
	UnitPriceCents int64
	Qty            int
	Currency       string
}

// PaymentLinkCreateParams contains the fields required to open a payment link.
// Metadata lands on the Square order and is readable back via the Orders API.
type PaymentLinkCreateParams struct {
	LineItems      []PaymentLinkLineItem
	RedirectURL    string
	PaymentNote    string
	ReferenceID    string
	Metadata       map[string]string
	IdempotencyKey string
}

func (p PaymentLinkCreateParams) toSquareRequest(locationID, idempotencyKey string) *sqcheckout.CreatePaymentLinkRequest {
	order := &sq.Order{
		LocationID: locationID,
	}
	if trimmed := strings.TrimSpace(p.ReferenceID); trimmed != "" {
		order.ReferenceID = ptrString(trimmed)
	}
	if len(p.Metadata) > 0 {
		order.Metadata = make(map[string]*string, len(p.Metadata))
		for k, v := range p.Metadata {
			order.Metadata[k] = &v
		}
	}
	for _, item := range p.LineItems {
		order.LineItems = append(order.LineItems, &sq.OrderLineItem{
			Name:           ptrString(item.Name),
			Quantity:       strconv.Itoa(item.Qty),
			BasePriceMoney: moneyPtr(item.UnitPriceCents, item.Currency),
		})
	}

	req := &sqcheckout.CreatePaymentLinkRequest{
		IdempotencyKey: ptrString(idempotencyKey),
		Order:          order,
	}
	if trimmed := strings.TrimSpace(p.RedirectURL); trimmed != "" {
		req.CheckoutOptions = &sq.CheckoutOptions{
			RedirectURL: ptrString(trimmed),
		}
	}
	if trimmed := strings.TrimSpace(p.PaymentNote); trimmed != "" {
		req.PaymentNote = ptrString(trimmed)
	}
	return req
}

func ptrString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}

func currencyPtr(code string) *sq.Currency {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		trimmed = "USD"
	}
	c := sq.Currency(trimmed)
	return &c
}

func moneyPtr(amount int64, currency string) *sq.Money {
	if amount == 0 {
		return nil
	}
	return &sq.Money{
		Amount:   int64Ptr(amount),
		Currency: currencyPtr(currency),
	}
}
