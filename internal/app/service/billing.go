package service

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// BillingService creates Stripe checkout and billing-portal sessions.
// The caller is redirected to the returned URLs; webhook processing is
// out of scope, plan changes land via the provider dashboard flow.
type BillingService struct {
	api       *client.API
	priceID   string
	returnURL string
	storage   Storage
	logger    *zap.Logger
}

func NewBilling(apiKey, priceID, returnURL string, s Storage, logger *zap.Logger) *BillingService {
	api := &client.API{}
	api.Init(apiKey, nil)

	return &BillingService{
		api:       api,
		priceID:   priceID,
		returnURL: returnURL,
		storage:   s,
		logger:    logger,
	}
}

// customerFor returns the user's Stripe customer ID, creating and
// persisting one on first use.
func (s *BillingService) customerFor(ctx context.Context, userID string) (string, error) {
	user, err := s.storage.FindUserByID(ctx, userID)
	if err != nil {
		return "", err
	}

	if user.CustomerID != "" {
		return user.CustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Name:  stripe.String(user.Name),
	}
	params.Context = ctx

	customer, err := s.api.Customers.New(params)
	if err != nil {
		return "", err
	}

	if err := s.storage.SetUserCustomerID(ctx, userID, customer.ID); err != nil {
		return "", err
	}

	return customer.ID, nil
}

// CheckoutURL creates a subscription checkout session for the premium
// tier and returns the redirect URL.
func (s *BillingService) CheckoutURL(ctx context.Context, userID string) (string, error) {
	customerID, err := s.customerFor(ctx, userID)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(s.returnURL + "?checkout=success"),
		CancelURL:         stripe.String(s.returnURL + "?checkout=cancelled"),
		ClientReferenceID: stripe.String(userID),
	}
	params.Context = ctx

	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return "", err
	}

	s.logger.Info("checkout session created", zap.String("userID", userID))
	return session.URL, nil
}

// PortalURL creates a billing-portal session so the user can manage
// their subscription.
func (s *BillingService) PortalURL(ctx context.Context, userID string) (string, error) {
	customerID, err := s.customerFor(ctx, userID)
	if err != nil {
		return "", err
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(s.returnURL),
	}
	params.Context = ctx

	session, err := s.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", err
	}

	return session.URL, nil
}
