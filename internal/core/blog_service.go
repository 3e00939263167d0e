package core

import (
	"context"

	"gadgets-backend-go/internal/db"
	"gadgets-backend-go/internal/models"
)

type blogService struct {
	blogs  resourceGateway
	policy Policy
}

// NewBlogService creates a BlogService.
func NewBlogService(store db.DocumentStore, policy Policy) BlogService {
	return &blogService{blogs: newResourceGateway(store, db.BlogsCollection), policy: policy}
}

func (s *blogService) ListAll(ctx context.Context) ([]models.Document, error) {
	return s.blogs.list(ctx, nil, db.FindOptions{})
}

func (s *blogService) ListByAuthor(ctx context.Context, uid string) ([]models.Document, error) {
	return s.blogs.list(ctx, db.Filter{models.FieldAuthorUID: uid}, db.FindOptions{})
}

func (s *blogService) Search(ctx context.Context, term string) ([]models.Document, error) {
	return s.blogs.search(ctx, models.FieldTitle, term)
}

func (s *blogService) Get(ctx context.Context, id string) (models.Document, error) {
	return s.blogs.get(ctx, id)
}

func (s *blogService) Create(ctx context.Context, who models.Identity, post models.Document) (*models.InsertResult, error) {
	if err := s.policy.Authorize(ctx, who, ActionBlogCreate, OwnedBy(post.OwnerUID())); err != nil {
		return nil, err
	}
	return s.blogs.create(ctx, post)
}

// Update merges fields into post id on behalf of author uid, creating the post
// if it does not exist yet. The post stays authored by uid either way.
func (s *blogService) Update(ctx context.Context, who models.Identity, uid, id string, fields models.Document) (*models.UpdateResult, error) {
	if err := s.policy.Authorize(ctx, who, ActionBlogUpdate, s.authoredBy(uid, id)); err != nil {
		return nil, err
	}
	fields, seed := withAuthor(fields, uid)
	return s.blogs.patchSeeded(ctx, id, fields, seed, true)
}

// withAuthor pins author.uid to uid. A patch that replaces the author object
// gets the uid written into it. Otherwise the uid is seeded for upserts only.
func withAuthor(fields models.Document, uid string) (models.Document, models.Document) {
	author, ok := fields[models.FieldAuthor]
	if !ok {
		return fields, models.Document{models.FieldAuthorUID: uid}
	}
	pinned := map[string]interface{}{}
	if m, isMap := author.(map[string]interface{}); isMap {
		for k, v := range m {
			pinned[k] = v
		}
	}
	pinned["uid"] = uid
	fields = fields.Clone()
	fields[models.FieldAuthor] = pinned
	return fields, nil
}

func (s *blogService) Delete(ctx context.Context, who models.Identity, uid, id string) (*models.DeleteResult, error) {
	if err := s.policy.Authorize(ctx, who, ActionBlogDelete, s.authoredBy(uid, id)); err != nil {
		return nil, err
	}
	return s.blogs.delete(ctx, id)
}

// authoredBy resolves to uid when post id is absent or written by uid, and to
// no owner when the stored post belongs to someone else.
func (s *blogService) authoredBy(uid, id string) Owner {
	return func(ctx context.Context) (string, error) {
		post, err := s.blogs.get(ctx, id)
		if err != nil {
			return "", err
		}
		if post != nil && post.OwnerUID() != uid {
			return "", nil
		}
		return uid, nil
	}
}
