package stripe

import (
	"github.com/atelierhq/atelier/internal/config"
	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/logger"
	"github.com/stripe/stripe-go/v82"
)

// Client handles Stripe API client setup and configuration
type Client struct {
	sc     *stripe.Client
	logger *logger.Logger
}

// NewClient creates a new Stripe client from the configured secret key
func NewClient(cfg *config.Configuration, logger *logger.Logger) (*Client, error) {
	if cfg.Stripe.SecretKey == "" {
		return nil, ierr.NewError("stripe secret key not configured").
			WithHint("Stripe is not configured for this environment").
			Mark(ierr.ErrValidation)
	}

	return &Client{
		sc:     stripe.NewClient(cfg.Stripe.SecretKey, nil),
		logger: logger,
	}, nil
}
