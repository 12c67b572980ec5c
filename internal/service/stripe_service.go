package service

import (
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/refund"
)

type StripeService struct {
	successURL string
	cancelURL  string
}

func NewStripeService(apiKey, successURL, cancelURL string) *StripeService {
	stripe.Key = apiKey
	return &StripeService{
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// CreateCheckoutSession opens a hosted payment page for the given amount and
// returns its URL and session ID.
func (s *StripeService) CreateCheckoutSession(amount int64, currency, description, customerEmail string) (string, string, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
					UnitAmount: stripe.Int64(amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
	}
	if customerEmail != "" {
		params.CustomerEmail = stripe.String(customerEmail)
	}

	sess, err := session.New(params)
	if err != nil {
		return "", "", err
	}
	return sess.URL, sess.ID, nil
}

// RefundPaymentIntent returns a captured payment to the customer.
func (s *StripeService) RefundPaymentIntent(paymentIntentID string) error {
	if paymentIntentID == "" {
		return fmt.Errorf("no payment intent to refund")
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	_, err := refund.New(params)
	return err
}

// RefundPaymentBySessionID resolves the session's payment intent and refunds it.
func (s *StripeService) RefundPaymentBySessionID(sessionID string) error {
	sess, err := session.Get(sessionID, nil)
	if err != nil {
		return err
	}
	if sess.PaymentIntent == nil || sess.PaymentIntent.ID == "" {
		return fmt.Errorf("no payment intent found for session %s", sessionID)
	}
	return s.RefundPaymentIntent(sess.PaymentIntent.ID)
}
