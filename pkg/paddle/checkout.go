package paddle

import (
	"context"
	"fmt"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
	"github.com/google/uuid"

	"github.com/dmitrymomot/subsync/pkg/reconcile"
)

// CheckoutParams describes a hosted checkout session for one subscription.
type CheckoutParams struct {
	SubscriptionID uuid.UUID // internal subscription the checkout will pay for
	PriceID        string    // Paddle price id
	Quantity       int       // defaults to 1
	Email          string    // optional billing email
	SuccessURL     string    // redirect after successful payment
}

// Checkout is a created hosted checkout session.
type Checkout struct {
	URL           string
	TransactionID string
	ExpiresAt     time.Time
}

// CreateCheckout creates a Paddle transaction whose hosted checkout pays for
// the given subscription. The internal subscription id is embedded as custom
// data so the subscription.created webhook can be correlated back before any
// identity mapping exists.
func (p *Provider) CreateCheckout(ctx context.Context, params CheckoutParams) (*Checkout, error) {
	if params.PriceID == "" {
		return nil, ErrMissingPriceID
	}
	if params.SubscriptionID == uuid.Nil {
		return nil, ErrMissingSubscriptionID
	}

	quantity := params.Quantity
	if quantity < 1 {
		quantity = 1
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  params.PriceID,
		Quantity: quantity,
	})

	req := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			reconcile.MetadataSubscriptionID: params.SubscriptionID.String(),
		},
	}
	if params.Email != "" {
		req.CustomData["email"] = params.Email
	}
	if params.SuccessURL != "" {
		req.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(params.SuccessURL),
		}
	}

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle transaction: %w", err)
	}

	if transaction.Checkout == nil || transaction.Checkout.URL == nil {
		return nil, ErrNoCheckoutURL
	}

	return &Checkout{
		URL:           *transaction.Checkout.URL,
		TransactionID: transaction.ID,
		// Paddle checkout links expire after 24 hours
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}
