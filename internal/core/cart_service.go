package core

import (
	"context"

	"gadgets-backend-go/internal/db"
	"gadgets-backend-go/internal/models"
)

type cartService struct {
	carts  resourceGateway
	policy Policy
}

// NewCartService creates a CartService.
func NewCartService(store db.DocumentStore, policy Policy) CartService {
	return &cartService{carts: newResourceGateway(store, db.CartsCollection), policy: policy}
}

func (s *cartService) ListOwn(ctx context.Context, who models.Identity, uid string) ([]models.Document, error) {
	if err := s.policy.Authorize(ctx, who, ActionCartListOwn, OwnedBy(uid)); err != nil {
		return nil, err
	}
	return s.carts.list(ctx, db.Filter{models.FieldUID: uid}, db.FindOptions{})
}

// Add puts a product in the caller's cart once; adding it again returns the existing item.
func (s *cartService) Add(ctx context.Context, who models.Identity, item models.Document) (*CreateOutcome, error) {
	if err := s.policy.Authorize(ctx, who, ActionCartCreate, OwnedBy(item.String(models.FieldUID))); err != nil {
		return nil, err
	}
	return s.carts.createUnique(ctx, item, models.FieldUID, models.FieldProductID)
}

// Remove deletes a cart item. An unknown id acknowledges zero deletions.
func (s *cartService) Remove(ctx context.Context, who models.Identity, id string) (*models.DeleteResult, error) {
	if s.policy.RuleFor(ActionCartDelete) == RuleSelf {
		item, err := s.carts.get(ctx, id)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return &models.DeleteResult{Acknowledged: true}, nil
		}
	}
	if err := s.policy.Authorize(ctx, who, ActionCartDelete, s.carts.storedOwner(id)); err != nil {
		return nil, err
	}
	return s.carts.delete(ctx, id)
}
