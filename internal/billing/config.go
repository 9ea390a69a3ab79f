// Package billing sells subscription plans through Stripe Checkout.
package billing

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by the billing service.
var (
	ErrNotConfigured = errors.New("stripe not configured")
	ErrUnknownPlan   = errors.New("unknown plan")
	ErrSignature     = errors.New("invalid webhook signature")
)

// Plan is a sellable subscription tier.
type Plan struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	PriceBRL int64  `json:"price"`
}

var plans = []Plan{
	{ID: "pro", Name: "Pro", PriceBRL: 97},
	{ID: "premium", Name: "Premium", PriceBRL: 147},
	{ID: "max", Name: "Max", PriceBRL: 197},
}

// Plans lists the tiers in ascending price.
func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// PlanByID finds a tier by id, case-insensitively.
func PlanByID(id string) (Plan, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// Config holds Stripe credentials and checkout settings.
type Config struct {
	SecretKey     string            `mapstructure:"secret_key"`
	WebhookSecret string            `mapstructure:"webhook_secret"`
	PriceIDs      map[string]string `mapstructure:"price_ids"`
	// AffiliateCoupon is applied when a checkout carries an affiliate code.
	AffiliateCoupon string `mapstructure:"affiliate_coupon"`
	SuccessURL      string `mapstructure:"success_url"`
	CancelURL       string `mapstructure:"cancel_url"`
}

// Enabled reports whether a secret key is set.
func (c Config) Enabled() bool { return c.SecretKey != "" }

// Validate checks an enabled configuration. A disabled one is always valid.
func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if !strings.HasPrefix(c.SecretKey, "sk_") && !strings.HasPrefix(c.SecretKey, "rk_") {
		return fmt.Errorf("stripe: secret key must start with sk_ or rk_")
	}
	if c.SuccessURL == "" || c.CancelURL == "" {
		return fmt.Errorf("stripe: success and cancel urls are required")
	}
	for _, p := range plans {
		if c.PriceIDs[p.ID] == "" {
			return fmt.Errorf("stripe: no price id configured for plan %s", p.ID)
		}
	}
	return nil
}

// PriceID returns the configured Stripe price for plan.
func (c Config) PriceID(plan string) (string, error) {
	p, ok := PlanByID(plan)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
	}
	price := c.PriceIDs[p.ID]
	if price == "" {
		return "", fmt.Errorf("stripe: price id not set for plan %s", p.ID)
	}
	return price, nil
}
