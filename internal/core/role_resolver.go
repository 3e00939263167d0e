package core

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"gadgets-backend-go/internal/cache"
	"gadgets-backend-go/internal/db"
	"gadgets-backend-go/internal/models"
)

const roleCachePrefix = "role:admin:"

// roleResolver reads the role from the users collection and remembers the
// answer in a cache for ttl.
type roleResolver struct {
	store  db.DocumentStore
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewRoleResolver returns a RoleResolver. Pass cache.NewNopCache() to resolve
// from storage on every call.
func NewRoleResolver(store db.DocumentStore, c cache.Cache, ttl time.Duration, logger *zap.Logger) RoleResolver {
	return &roleResolver{store: store, cache: c, ttl: ttl, logger: logger}
}

func (r *roleResolver) IsAdmin(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	key := roleCachePrefix + email
	if cached, ok, err := r.cache.Get(ctx, key); err != nil {
		r.logger.Warn("Role cache read failed", zap.String("email", email), zap.Error(err))
	} else if ok {
		if isAdmin, perr := strconv.ParseBool(cached); perr == nil {
			return isAdmin, nil
		}
	}

	user, err := r.store.FindOne(ctx, db.UsersCollection, db.Filter{models.FieldEmail: email})
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	isAdmin := user.String(models.FieldRole) == models.RoleAdmin

	if err := r.cache.Set(ctx, key, strconv.FormatBool(isAdmin), r.ttl); err != nil {
		r.logger.Warn("Role cache write failed", zap.String("email", email), zap.Error(err))
	}
	return isAdmin, nil
}

func (r *roleResolver) Forget(ctx context.Context, email string) {
	if err := r.cache.Delete(ctx, roleCachePrefix+email); err != nil {
		r.logger.Warn("Role cache invalidation failed", zap.String("email", email), zap.Error(err))
	}
}
