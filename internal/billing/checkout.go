package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// PlanRecorder stores the plan bought by a user.
type PlanRecorder func(ctx context.Context, userID int64, plan string) error

// Customer identifies the buyer of a checkout.
type Customer struct {
	ID    int64
	Email string
}

// Checkout is a created checkout session.
type Checkout struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// WebhookResult reports what a webhook delivery did.
type WebhookResult struct {
	EventID   string `json:"eventId"`
	EventType string `json:"eventType"`
	Processed bool   `json:"processed"`
}

// Service creates checkout sessions and applies webhook events.
type Service struct {
	sc     *client.API
	cfg    Config
	record PlanRecorder
	logger *zap.Logger
}

// NewService validates cfg and builds a Stripe client. Nil backends use
// the live Stripe API.
func NewService(cfg Config, backends *stripe.Backends, record PlanRecorder, logger *zap.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	sc := &client.API{}
	sc.Init(cfg.SecretKey, backends)
	return &Service{sc: sc, cfg: cfg, record: record, logger: logger}, nil
}

// Enabled reports whether checkouts can be created.
func (s *Service) Enabled() bool { return s != nil && s.cfg.Enabled() }

// CreateCheckoutSession opens a subscription checkout for plan. A
// non-empty affiliate code applies the affiliate coupon.
func (s *Service) CreateCheckoutSession(ctx context.Context, c Customer, plan, affiliate string) (Checkout, error) {
	if !s.Enabled() {
		return Checkout{}, ErrNotConfigured
	}
	price, err := s.cfg.PriceID(plan)
	if err != nil {
		return Checkout{}, err
	}
	planID := strings.ToLower(strings.TrimSpace(plan))
	affiliate = strings.TrimSpace(affiliate)

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(price), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(s.cfg.SuccessURL),
		CancelURL:         stripe.String(s.cfg.CancelURL),
		ClientReferenceID: stripe.String(strconv.FormatInt(c.ID, 10)),
	}
	params.Context = ctx
	if c.Email != "" {
		params.CustomerEmail = stripe.String(c.Email)
	}
	params.AddMetadata("user_id", strconv.FormatInt(c.ID, 10))
	params.AddMetadata("plan", planID)
	if affiliate != "" {
		params.AddMetadata("affiliate", affiliate)
		if s.cfg.AffiliateCoupon != "" {
			params.Discounts = []*stripe.CheckoutSessionDiscountParams{
				{Coupon: stripe.String(s.cfg.AffiliateCoupon)},
			}
		}
	} else {
		params.AllowPromotionCodes = stripe.Bool(true)
	}

	sess, err := s.sc.CheckoutSessions.New(params)
	if err != nil {
		s.logger.Error("stripe checkout failed", zap.Int64("user_id", c.ID), zap.String("plan", planID), zap.Error(err))
		return Checkout{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	s.logger.Info("stripe checkout created",
		zap.Int64("user_id", c.ID),
		zap.String("plan", planID),
		zap.String("session_id", sess.ID))
	return Checkout{SessionID: sess.ID, URL: sess.URL}, nil
}

// HandleWebhook verifies payload against signature and applies it.
// Completed checkouts record the purchased plan; other events are
// acknowledged without action.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (WebhookResult, error) {
	if !s.Enabled() || s.cfg.WebhookSecret == "" {
		return WebhookResult{}, ErrNotConfigured
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		s.logger.Warn("stripe webhook rejected", zap.Error(err))
		return WebhookResult{}, errors.Join(ErrSignature, err)
	}
	res := WebhookResult{EventID: event.ID, EventType: string(event.Type)}
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		s.logger.Debug("stripe event ignored", zap.String("event_type", res.EventType))
		return res, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return res, fmt.Errorf("decode checkout session: %w", err)
	}
	ref := sess.ClientReferenceID
	if ref == "" {
		ref = sess.Metadata["user_id"]
	}
	userID, err := strconv.ParseInt(ref, 10, 64)
	if err != nil || userID <= 0 {
		s.logger.Warn("checkout without user reference", zap.String("session_id", sess.ID))
		return res, nil
	}
	plan := sess.Metadata["plan"]
	if _, ok := PlanByID(plan); !ok {
		s.logger.Warn("checkout with unknown plan", zap.String("session_id", sess.ID), zap.String("plan", plan))
		return res, nil
	}
	if s.record != nil {
		if err := s.record(ctx, userID, plan); err != nil {
			return res, fmt.Errorf("record plan for user %d: %w", userID, err)
		}
	}
	s.logger.Info("plan activated",
		zap.Int64("user_id", userID),
		zap.String("plan", plan),
		zap.String("affiliate", sess.Metadata["affiliate"]))
	res.Processed = true
	return res, nil
}
