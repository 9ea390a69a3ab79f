package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/JakeFAU/empresasbrasil/internal/billing"
)

const testWebhookSecret = "whsec_handler_test"

type stripeStub struct {
	mu     sync.Mutex
	params []*stripe.CheckoutSessionParams
}

func (s *stripeStub) Call(_, _, _ string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := params.(*stripe.CheckoutSessionParams); ok {
		s.params = append(s.params, p)
	}
	return json.Unmarshal([]byte(`{"id":"cs_test_9","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_9"}`), v)
}

func (s *stripeStub) CallStreaming(string, string, string, stripe.ParamsContainer, stripe.StreamingLastResponseSetter) error {
	return nil
}

func (s *stripeStub) CallRaw(string, string, string, *form.Values, *stripe.Params, stripe.LastResponseSetter) error {
	return nil
}

func (s *stripeStub) CallMultipart(string, string, string, string, *bytes.Buffer, *stripe.Params, stripe.LastResponseSetter) error {
	return nil
}

func (s *stripeStub) SetMaxNetworkRetries(int64) {}

func newBillingHarness(t *testing.T) (*harness, *stripeStub) {
	t.Helper()
	stub := &stripeStub{}
	h := newHarness(t, func(d *Deps, _ *Options) {
		svc, err := billing.NewService(billing.Config{
			SecretKey:     "sk_test_handler",
			WebhookSecret: testWebhookSecret,
			PriceIDs:      map[string]string{"pro": "price_pro", "premium": "price_premium", "max": "price_max"},
			SuccessURL:    "http://localhost:5173/dashboard?payment=success",
			CancelURL:     "http://localhost:5173/planos",
		}, &stripe.Backends{API: stub, Connect: stub, Uploads: stub}, d.Auth.SetPlan, nil)
		require.NoError(t, err)
		d.Billing = svc
	})
	return h, stub
}

func signWebhook(payload []byte) string {
	now := time.Now()
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(webhook.ComputeSignature(now, payload, testWebhookSecret)))
}

func TestBilling_DisabledAnswersUnavailable(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	rec := h.do(http.MethodPost, "/api/stripe/create-checkout-session", map[string]string{"planType": "pro"}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/api/stripe/create-checkout-session", map[string]string{"planType": "pro"}, bearer(h.token(t, 1)))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = h.do(http.MethodPost, "/api/stripe/webhook", `{}`, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBilling_CreateCheckoutSession(t *testing.T) {
	t.Parallel()

	h, stub := newBillingHarness(t)
	rec := h.do(http.MethodPost, "/api/stripe/create-checkout-session",
		map[string]any{"planType": "premium", "affiliateCode": nil}, bearer(h.token(t, 1)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "cs_test_9", body["sessionId"])
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_9", body["url"])

	require.Len(t, stub.params, 1)
	p := stub.params[0]
	assert.Equal(t, "test@test.com", stripe.StringValue(p.CustomerEmail))
	assert.Equal(t, "1", stripe.StringValue(p.ClientReferenceID))
	assert.Equal(t, "price_premium", stripe.StringValue(p.LineItems[0].Price))
}

func TestBilling_CreateCheckoutRejectsUnknownPlan(t *testing.T) {
	t.Parallel()

	h, _ := newBillingHarness(t)
	rec := h.do(http.MethodPost, "/api/stripe/create-checkout-session",
		map[string]string{"planType": "gold"}, bearer(h.token(t, 1)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["error"])
}

func TestBilling_WebhookActivatesPlan(t *testing.T) {
	t.Parallel()

	h, _ := newBillingHarness(t)
	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed",` +
		`"data":{"object":{"id":"cs_test_9","object":"checkout.session","client_reference_id":"1",` +
		`"metadata":{"user_id":"1","plan":"max"}}}}`)

	rec := h.do(http.MethodPost, "/api/stripe/webhook", string(payload), http.Header{"Stripe-Signature": {signWebhook(payload)}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["received"])
	assert.Equal(t, true, body["processed"])

	u, err := h.users.ByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "max", u.Plan)
}

func TestBilling_WebhookRejectsBadSignature(t *testing.T) {
	t.Parallel()

	h, _ := newBillingHarness(t)
	rec := h.do(http.MethodPost, "/api/stripe/webhook", `{"id":"evt_2"}`, http.Header{"Stripe-Signature": {"t=1,v1=deadbeef"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
