package core

import (
	"context"

	"gadgets-backend-go/internal/db"
	"gadgets-backend-go/internal/models"
)

type reviewService struct {
	reviews resourceGateway
	policy  Policy
}

// NewReviewService creates a ReviewService.
func NewReviewService(store db.DocumentStore, policy Policy) ReviewService {
	return &reviewService{reviews: newResourceGateway(store, db.ReviewsCollection), policy: policy}
}

func (s *reviewService) List(ctx context.Context) ([]models.Document, error) {
	return s.reviews.list(ctx, nil, db.FindOptions{})
}

func (s *reviewService) Create(ctx context.Context, who models.Identity, review models.Document) (*models.InsertResult, error) {
	if err := s.policy.Authorize(ctx, who, ActionReviewCreate, OwnedBy(review.OwnerUID())); err != nil {
		return nil, err
	}
	return s.reviews.create(ctx, review)
}

// Delete removes a review. By default any authenticated caller may do so;
// the review.delete policy rule can restrict it to the author.
func (s *reviewService) Delete(ctx context.Context, who models.Identity, id string) (*models.DeleteResult, error) {
	if err := s.policy.Authorize(ctx, who, ActionReviewDelete, s.reviews.storedOwner(id)); err != nil {
		return nil, err
	}
	return s.reviews.delete(ctx, id)
}
