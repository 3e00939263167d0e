package core

import (
	"context"

	"gadgets-backend-go/internal/models"
)

// TokenService issues and verifies access tokens.
type TokenService interface {
	Issue(identity models.Identity) (string, error)
	Verify(token string) (*models.Identity, error)
}

// RoleResolver answers whether the user with an email holds the admin role.
// A missing user is not an admin and not an error.
type RoleResolver interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
	// Forget drops any cached answer for email after its role changed.
	Forget(ctx context.Context, email string)
}

// Policy decides whether an identity may perform an action.
type Policy interface {
	RuleFor(action Action) Rule
	Authorize(ctx context.Context, who models.Identity, action Action, owner Owner) error
}

// EventPublisher emits best-effort domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event)
}

// CreateOutcome is the result of a duplicate-guarded create. When Created is
// false, Existing holds the document that blocked the insert.
type CreateOutcome struct {
	Created  bool
	Result   *models.InsertResult
	Existing models.Document
}

// ReplaceOutcome is the result of PUT /products/:id. When Applied is false,
// Existing holds the product that already uses the same email and title.
type ReplaceOutcome struct {
	Applied  bool
	Result   *models.UpdateResult
	Existing models.Document
}

// SignInResult pairs the user upsert acknowledgment with a fresh access token.
type SignInResult struct {
	Result *models.UpdateResult `json:"result"`
	Token  string               `json:"token"`
}

// UserService covers users, sign-in and admin role management.
type UserService interface {
	FindByUID(ctx context.Context, uid string) ([]models.Document, error)
	ListAll(ctx context.Context, who models.Identity) ([]models.Document, error)
	UpdateProfile(ctx context.Context, who models.Identity, uid string, fields models.Document) (*models.UpdateResult, error)
	SignIn(ctx context.Context, profile models.Document) (*SignInResult, error)
	DeleteByEmail(ctx context.Context, who models.Identity, email string) (*models.DeleteResult, error)
	IsAdmin(ctx context.Context, email string) (bool, error)
	GrantAdmin(ctx context.Context, who models.Identity, email string) (*models.UpdateResult, error)
	RevokeAdmin(ctx context.Context, who models.Identity, email string) (*models.UpdateResult, error)
}

// ProductService covers the product catalog.
type ProductService interface {
	List(ctx context.Context, newestFirst bool) ([]models.Document, error)
	Search(ctx context.Context, term string) ([]models.Document, error)
	Get(ctx context.Context, id string) (models.Document, error)
	Create(ctx context.Context, who models.Identity, product models.Document) (*models.InsertResult, error)
	Delete(ctx context.Context, who models.Identity, id string) (*models.DeleteResult, error)
	UpdateStock(ctx context.Context, who models.Identity, id string, fields models.Document) (*models.UpdateResult, error)
	UpdateQuantity(ctx context.Context, who models.Identity, id string, fields models.Document) (*models.UpdateResult, error)
	Replace(ctx context.Context, who models.Identity, id string, fields models.Document) (*ReplaceOutcome, error)
}

// OrderService covers orders and their payment/shipment status.
type OrderService interface {
	ListOwn(ctx context.Context, who models.Identity, uid string) ([]models.Document, error)
	ListAll(ctx context.Context, who models.Identity) ([]models.Document, error)
	Create(ctx context.Context, who models.Identity, order models.Document) (*CreateOutcome, error)
	Delete(ctx context.Context, who models.Identity, id string) (*models.DeleteResult, error)
	MarkPaid(ctx context.Context, who models.Identity, id string, fields models.Document) (*models.UpdateResult, error)
	MarkShipped(ctx context.Context, who models.Identity, id string, fields models.Document) (*models.UpdateResult, error)
}

// CartService covers cart items.
type CartService interface {
	ListOwn(ctx context.Context, who models.Identity, uid string) ([]models.Document, error)
	Add(ctx context.Context, who models.Identity, item models.Document) (*CreateOutcome, error)
	Remove(ctx context.Context, who models.Identity, id string) (*models.DeleteResult, error)
}

// PaymentService covers payment intents and the payment ledger.
type PaymentService interface {
	CreateIntent(ctx context.Context, who models.Identity, price float64) (string, error)
	Record(ctx context.Context, who models.Identity, payment models.Document) (*models.InsertResult, error)
	History(ctx context.Context, who models.Identity, uid string) ([]models.Document, error)
}

// ReviewService covers product reviews.
type ReviewService interface {
	List(ctx context.Context) ([]models.Document, error)
	Create(ctx context.Context, who models.Identity, review models.Document) (*models.InsertResult, error)
	Delete(ctx context.Context, who models.Identity, id string) (*models.DeleteResult, error)
}

// TeamService covers teams and team members.
type TeamService interface {
	ListTeams(ctx context.Context) ([]models.Document, error)
	ListMembers(ctx context.Context) ([]models.Document, error)
	GetMember(ctx context.Context, id string) (models.Document, error)
	CreateMember(ctx context.Context, who models.Identity, member models.Document) (*models.InsertResult, error)
	DeleteMember(ctx context.Context, who models.Identity, id string) (*models.DeleteResult, error)
}

// BlogService covers blog posts.
type BlogService interface {
	ListAll(ctx context.Context) ([]models.Document, error)
	ListByAuthor(ctx context.Context, uid string) ([]models.Document, error)
	Search(ctx context.Context, term string) ([]models.Document, error)
	Get(ctx context.Context, id string) (models.Document, error)
	Create(ctx context.Context, who models.Identity, post models.Document) (*models.InsertResult, error)
	Update(ctx context.Context, who models.Identity, uid, id string, fields models.Document) (*models.UpdateResult, error)
	Delete(ctx context.Context, who models.Identity, uid, id string) (*models.DeleteResult, error)
}
