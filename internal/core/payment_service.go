package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gadgets-backend-go/internal/db"
	"gadgets-backend-go/internal/models"
	"gadgets-backend-go/internal/payment"
)

type paymentService struct {
	payments resourceGateway
	gateway  payment.Gateway
	currency string
	policy   Policy
	events   EventPublisher
	logger   *zap.Logger
}

// NewPaymentService creates a PaymentService charging in currency.
func NewPaymentService(store db.DocumentStore, gateway payment.Gateway, currency string, policy Policy, events EventPublisher, logger *zap.Logger) PaymentService {
	return &paymentService{
		payments: newResourceGateway(store, db.PaymentsCollection),
		gateway:  gateway,
		currency: currency,
		policy:   policy,
		events:   events,
		logger:   logger,
	}
}

// CreateIntent opens a card payment for price (major units) and returns the
// client secret the browser needs to confirm it.
func (s *paymentService) CreateIntent(ctx context.Context, who models.Identity, price float64) (string, error) {
	if err := s.policy.Authorize(ctx, who, ActionPaymentIntent, OwnedBy(who.UID)); err != nil {
		return "", err
	}
	amount, err := payment.ToMinorUnits(price)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	intent, err := s.gateway.CreateIntent(ctx, amount, s.currency)
	if err != nil {
		return "", fmt.Errorf("create payment intent for %s: %w", who.UID, err)
	}
	s.logger.Info("Payment intent created",
		zap.String("uid", who.UID),
		zap.String("intent", intent.ID),
		zap.Int64("amount", amount),
		zap.String("currency", s.currency),
	)
	return intent.ClientSecret, nil
}

// Record appends a payment to the ledger after the client confirmed it.
func (s *paymentService) Record(ctx context.Context, who models.Identity, p models.Document) (*models.InsertResult, error) {
	if err := s.policy.Authorize(ctx, who, ActionPaymentRecord, OwnedBy(p.String(models.FieldUID))); err != nil {
		return nil, err
	}
	result, err := s.payments.create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, Event{
		Type:       EventPaymentRecorded,
		Collection: db.PaymentsCollection,
		DocumentID: result.InsertedID,
		UID:        p.String(models.FieldUID),
	})
	return result, nil
}

// History lists payments for uid. A missing uid is forbidden.
func (s *paymentService) History(ctx context.Context, who models.Identity, uid string) ([]models.Document, error) {
	if uid == "" {
		return nil, ErrForbidden
	}
	if err := s.policy.Authorize(ctx, who, ActionPaymentHistory, OwnedBy(uid)); err != nil {
		return nil, err
	}
	return s.payments.list(ctx, db.Filter{models.FieldUID: uid}, db.FindOptions{})
}
