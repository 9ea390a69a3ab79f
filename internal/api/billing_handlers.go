package api

import (
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/JakeFAU/empresasbrasil/internal/billing"
)

const maxWebhookBytes = 65536

type checkoutRequest struct {
	PlanType      string  `json:"planType" validate:"required"`
	AffiliateCode *string `json:"affiliateCode"`
}

type checkoutResponse struct {
	Success bool `json:"success"`
	billing.Checkout
}

func (s *Server) createCheckout(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Billing.Enabled() {
		s.fail(w, r, "Pagamentos indisponíveis", billing.ErrNotConfigured)
		return
	}
	var req checkoutRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "Plano inválido", err)
		return
	}
	c := claims(r)
	customer := billing.Customer{ID: c.UserID, Email: c.Email}
	if user, err := s.deps.Auth.Me(r.Context(), c.UserID); err == nil {
		customer.Email = user.Email
	}
	affiliate := ""
	if req.AffiliateCode != nil {
		affiliate = *req.AffiliateCode
	}
	checkout, err := s.deps.Billing.CreateCheckoutSession(r.Context(), customer, req.PlanType, affiliate)
	if err != nil {
		s.fail(w, r, "Erro ao criar sessão de pagamento", err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{Success: true, Checkout: checkout})
}

func (s *Server) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		s.fail(w, r, "Payload inválido", fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	res, err := s.deps.Billing.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		s.fail(w, r, "Webhook rejeitado", err)
		return
	}
	s.logger.Info("stripe webhook handled",
		zap.String("event_id", res.EventID),
		zap.String("event_type", res.EventType),
		zap.Bool("processed", res.Processed),
	)
	writeJSON(w, http.StatusOK, struct {
		Received bool `json:"received"`
		billing.WebhookResult
	}{Received: true, WebhookResult: res})
}
