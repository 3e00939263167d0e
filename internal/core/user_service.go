package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gadgets-backend-go/internal/db"
	"gadgets-backend-go/internal/models"
)

// Fields a client may never write on its own user document.
var protectedUserFields = []string{models.IDField, models.FieldRole}

type userService struct {
	users  resourceGateway
	store  db.DocumentStore
	tokens TokenService
	policy Policy
	roles  RoleResolver
	events EventPublisher
	logger *zap.Logger
}

// NewUserService creates a UserService.
func NewUserService(store db.DocumentStore, tokens TokenService, policy Policy, roles RoleResolver, events EventPublisher, logger *zap.Logger) UserService {
	return &userService{
		users:  newResourceGateway(store, db.UsersCollection),
		store:  store,
		tokens: tokens,
		policy: policy,
		roles:  roles,
		events: events,
		logger: logger,
	}
}

// FindByUID lists user documents with uid. An empty uid is forbidden rather
// than treated as "list everyone".
func (s *userService) FindByUID(ctx context.Context, uid string) ([]models.Document, error) {
	if uid == "" {
		return nil, ErrForbidden
	}
	return s.users.list(ctx, db.Filter{models.FieldUID: uid}, db.FindOptions{})
}

func (s *userService) ListAll(ctx context.Context, who models.Identity) ([]models.Document, error) {
	if err := s.policy.Authorize(ctx, who, ActionUserListAll, nil); err != nil {
		return nil, err
	}
	return s.users.list(ctx, nil, db.FindOptions{})
}

// UpdateProfile merges fields into the caller's own user document. The role
// field is dropped: it only changes through GrantAdmin and RevokeAdmin.
func (s *userService) UpdateProfile(ctx context.Context, who models.Identity, uid string, fields models.Document) (*models.UpdateResult, error) {
	if err := s.policy.Authorize(ctx, who, ActionUserUpdateProfile, OwnedBy(uid)); err != nil {
		return nil, err
	}
	set := fields.Without(protectedUserFields...)
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: update body must not be empty", ErrInvalidInput)
	}
	return s.store.UpdateOne(ctx, db.UsersCollection, db.Filter{models.FieldUID: uid}, db.Update{Set: set}, false)
}

// SignIn upserts the user identified by (email, uid) and issues an access
// token for that identity. New users start with the "user" role.
func (s *userService) SignIn(ctx context.Context, profile models.Document) (*SignInResult, error) {
	identity := models.Identity{Email: profile.String(models.FieldEmail), UID: profile.String(models.FieldUID)}
	if identity.Email == "" || identity.UID == "" {
		return nil, fmt.Errorf("%w: email and uid are required", ErrInvalidInput)
	}

	update := db.Update{
		Set:         profile.Without(protectedUserFields...),
		SetOnInsert: models.Document{models.FieldRole: models.RoleUser},
	}
	filter := db.Filter{models.FieldEmail: identity.Email, models.FieldUID: identity.UID}
	result, err := s.store.UpdateOne(ctx, db.UsersCollection, filter, update, true)
	if err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", identity.UID, err)
	}

	token, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, err
	}
	return &SignInResult{Result: result, Token: token}, nil
}

func (s *userService) DeleteByEmail(ctx context.Context, who models.Identity, email string) (*models.DeleteResult, error) {
	if err := s.policy.Authorize(ctx, who, ActionUserDelete, nil); err != nil {
		return nil, err
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	result, err := s.store.DeleteOne(ctx, db.UsersCollection, db.Filter{models.FieldEmail: email})
	if err != nil {
		return nil, err
	}
	s.roles.Forget(ctx, email)
	if result.DeletedCount > 0 {
		s.logger.Info("User deleted", zap.String("email", email), zap.String("by", who.Email))
		s.events.Publish(ctx, Event{Type: EventUserDeleted, Collection: db.UsersCollection, Email: email})
	}
	return result, nil
}

// IsAdmin reports the stored role for email, for GET /admin/:email.
func (s *userService) IsAdmin(ctx context.Context, email string) (bool, error) {
	return s.roles.IsAdmin(ctx, email)
}

func (s *userService) GrantAdmin(ctx context.Context, who models.Identity, email string) (*models.UpdateResult, error) {
	return s.setRole(ctx, who, ActionAdminGrant, email, models.RoleAdmin)
}

func (s *userService) RevokeAdmin(ctx context.Context, who models.Identity, email string) (*models.UpdateResult, error) {
	return s.setRole(ctx, who, ActionAdminRevoke, email, models.RoleUser)
}

func (s *userService) setRole(ctx context.Context, who models.Identity, action Action, email, role string) (*models.UpdateResult, error) {
	if err := s.policy.Authorize(ctx, who, action, nil); err != nil {
		return nil, err
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	update := db.Update{Set: models.Document{models.FieldRole: role}}
	result, err := s.store.UpdateOne(ctx, db.UsersCollection, db.Filter{models.FieldEmail: email}, update, false)
	if err != nil {
		return nil, err
	}
	s.roles.Forget(ctx, email)
	s.logger.Info("User role changed",
		zap.String("email", email),
		zap.String("role", role),
		zap.String("by", who.Email),
	)
	s.events.Publish(ctx, Event{Type: EventUserRoleChanged, Collection: db.UsersCollection, Email: email})
	return result, nil
}
