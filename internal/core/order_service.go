package core

import (
	"context"

	"gadgets-backend-go/internal/db"
	"gadgets-backend-go/internal/models"
)

type orderService struct {
	orders resourceGateway
	policy Policy
	events EventPublisher
}

// NewOrderService creates an OrderService.
func NewOrderService(store db.DocumentStore, policy Policy, events EventPublisher) OrderService {
	return &orderService{
		// uid and productInfo form the duplicate guard, so patches leave them alone.
		orders: newResourceGateway(store, db.OrdersCollection).withFixedFields(models.FieldUID, models.FieldProductInfo),
		policy: policy,
		events: events,
	}
}

func (s *orderService) ListOwn(ctx context.Context, who models.Identity, uid string) ([]models.Document, error) {
	if err := s.policy.Authorize(ctx, who, ActionOrderListOwn, OwnedBy(uid)); err != nil {
		return nil, err
	}
	return s.orders.list(ctx, db.Filter{models.FieldUID: uid}, db.FindOptions{})
}

func (s *orderService) ListAll(ctx context.Context, who models.Identity) ([]models.Document, error) {
	if err := s.policy.Authorize(ctx, who, ActionOrderListAll, nil); err != nil {
		return nil, err
	}
	return s.orders.list(ctx, nil, db.FindOptions{})
}

// Create inserts the order unless the same uid already ordered the same product.
func (s *orderService) Create(ctx context.Context, who models.Identity, order models.Document) (*CreateOutcome, error) {
	if err := s.policy.Authorize(ctx, who, ActionOrderCreate, OwnedBy(order.String(models.FieldUID))); err != nil {
		return nil, err
	}
	outcome, err := s.orders.createUnique(ctx, order, models.FieldUID, models.FieldProductID)
	if err != nil {
		return nil, err
	}
	if outcome.Created {
		s.events.Publish(ctx, Event{
			Type:       EventOrderCreated,
			Collection: db.OrdersCollection,
			DocumentID: outcome.Result.InsertedID,
			UID:        order.String(models.FieldUID),
		})
	}
	return outcome, nil
}

func (s *orderService) Delete(ctx context.Context, who models.Identity, id string) (*models.DeleteResult, error) {
	if err := s.policy.Authorize(ctx, who, ActionOrderDelete, s.orders.storedOwner(id)); err != nil {
		return nil, err
	}
	return s.orders.delete(ctx, id)
}

// MarkPaid records payment details on an order, creating it if absent.
func (s *orderService) MarkPaid(ctx context.Context, who models.Identity, id string, fields models.Document) (*models.UpdateResult, error) {
	if err := s.policy.Authorize(ctx, who, ActionOrderMarkPaid, s.orders.storedOwner(id)); err != nil {
		return nil, err
	}
	result, err := s.orders.patch(ctx, id, fields, true)
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, Event{Type: EventOrderPaid, Collection: db.OrdersCollection, DocumentID: id})
	return result, nil
}

// MarkShipped records shipment details on an existing order.
func (s *orderService) MarkShipped(ctx context.Context, who models.Identity, id string, fields models.Document) (*models.UpdateResult, error) {
	if err := s.policy.Authorize(ctx, who, ActionOrderMarkShipped, s.orders.storedOwner(id)); err != nil {
		return nil, err
	}
	result, err := s.orders.patch(ctx, id, fields, false)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount > 0 {
		s.events.Publish(ctx, Event{Type: EventOrderShipped, Collection: db.OrdersCollection, DocumentID: id})
	}
	return result, nil
}
