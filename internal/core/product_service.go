package core

import (
	"context"
	"fmt"

	"gadgets-backend-go/internal/db"
	"gadgets-backend-go/internal/models"
)

type productService struct {
	products resourceGateway
	store    db.DocumentStore
	policy   Policy
}

// NewProductService creates a ProductService.
func NewProductService(store db.DocumentStore, policy Policy) ProductService {
	return &productService{
		products: newResourceGateway(store, db.ProductsCollection),
		store:    store,
		policy:   policy,
	}
}

func (s *productService) List(ctx context.Context, newestFirst bool) ([]models.Document, error) {
	return s.products.list(ctx, nil, db.FindOptions{NewestFirst: newestFirst})
}

func (s *productService) Search(ctx context.Context, term string) ([]models.Document, error) {
	return s.products.search(ctx, models.FieldProductName, term)
}

func (s *productService) Get(ctx context.Context, id string) (models.Document, error) {
	return s.products.get(ctx, id)
}

func (s *productService) Create(ctx context.Context, who models.Identity, product models.Document) (*models.InsertResult, error) {
	if err := s.policy.Authorize(ctx, who, ActionProductCreate, OwnedBy(product.OwnerUID())); err != nil {
		return nil, err
	}
	return s.products.create(ctx, product)
}

func (s *productService) Delete(ctx context.Context, who models.Identity, id string) (*models.DeleteResult, error) {
	if err := s.policy.Authorize(ctx, who, ActionProductDelete, s.products.storedOwner(id)); err != nil {
		return nil, err
	}
	return s.products.delete(ctx, id)
}

// UpdateStock patches stock fields, creating the product if it does not exist.
func (s *productService) UpdateStock(ctx context.Context, who models.Identity, id string, fields models.Document) (*models.UpdateResult, error) {
	if err := s.policy.Authorize(ctx, who, ActionProductUpdateStock, s.products.storedOwner(id)); err != nil {
		return nil, err
	}
	return s.products.patch(ctx, id, fields, true)
}

// UpdateQuantity patches quantity fields, creating the product if it does not exist.
func (s *productService) UpdateQuantity(ctx context.Context, who models.Identity, id string, fields models.Document) (*models.UpdateResult, error) {
	if err := s.policy.Authorize(ctx, who, ActionProductUpdateQty, s.products.storedOwner(id)); err != nil {
		return nil, err
	}
	return s.products.patch(ctx, id, fields, true)
}

// Replace applies fields to product id unless a different product already
// carries the same (email, title) pair, in which case that product is returned
// and nothing is written.
func (s *productService) Replace(ctx context.Context, who models.Identity, id string, fields models.Document) (*ReplaceOutcome, error) {
	if err := s.policy.Authorize(ctx, who, ActionProductReplace, s.products.storedOwner(id)); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}

	if fields.Has(models.FieldEmail) && fields.Has(models.FieldTitle) {
		matching, err := s.store.Find(ctx, db.ProductsCollection, db.Filter{
			models.FieldEmail: fields[models.FieldEmail],
			models.FieldTitle: fields[models.FieldTitle],
		}, db.FindOptions{})
		if err != nil {
			return nil, err
		}
		for _, existing := range matching {
			if existing.ID() != id {
				return &ReplaceOutcome{Applied: false, Existing: existing}, nil
			}
		}
	}

	result, err := s.products.patch(ctx, id, fields, false)
	if err != nil {
		return nil, err
	}
	return &ReplaceOutcome{Applied: true, Result: result}, nil
}
