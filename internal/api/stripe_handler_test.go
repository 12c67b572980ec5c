package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const webhookTestSecret = "whsec_test"

func postSignedEvent(t *testing.T, h *StripeWebhookHandler, payload string) *httptest.ResponseRecorder {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(payload),
		Secret:  webhookTestSecret,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", bytes.NewReader(signed.Payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)
	return rec
}

func eventPayload(eventType, object string) string {
	return fmt.Sprintf(`{"id":"evt_1","object":"event","api_version":%q,"type":%q,"data":{"object":%s}}`,
		stripe.APIVersion, eventType, object)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h := NewStripeWebhookHandler(webhookTestSecret, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRejectsMalformedRefundEvent(t *testing.T) {
	h := NewStripeWebhookHandler(webhookTestSecret, nil, nil, nil)

	rec := postSignedEvent(t, h, eventPayload("charge.refunded", `{"amount":"not-a-number"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRejectsSessionWithoutID(t *testing.T) {
	h := NewStripeWebhookHandler(webhookTestSecret, nil, nil, nil)

	rec := postSignedEvent(t, h, eventPayload("checkout.session.completed", `{}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookAcksUnhandledEventType(t *testing.T) {
	h := NewStripeWebhookHandler(webhookTestSecret, nil, nil, nil)

	rec := postSignedEvent(t, h, eventPayload("invoice.paid", `{}`))

	assert.Equal(t, http.StatusOK, rec.Code)
}
