package main

import (
	"context"

	"elitetransport-backend/internal/notify"
	"elitetransport-backend/internal/services"
)

// paystackVerifierAdapter bridges notify.PaystackClient's VerifyResult to the
// narrower shape services.BookingFinalizer depends on, so the services
// package never needs to import notify directly.
type paystackVerifierAdapter struct {
	client *notify.PaystackClient
}

func (a *paystackVerifierAdapter) Verify(ctx context.Context, reference string) (*services.VerifyResult, error) {
	result, err := a.client.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}
	return &services.VerifyResult{Status: result.Status, AmountMinor: result.AmountMinor}, nil
}
