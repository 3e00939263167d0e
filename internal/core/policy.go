package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"gadgets-backend-go/internal/models"
)

// Rule is how an action is authorized.
type Rule int

const (
	// RuleOpen allows every caller.
	RuleOpen Rule = iota
	// RuleSelf allows the caller whose uid equals the resource owner's uid.
	RuleSelf
	// RuleAdmin allows callers whose stored user document has role "admin".
	RuleAdmin
)

func (r Rule) String() string {
	switch r {
	case RuleSelf:
		return "self"
	case RuleAdmin:
		return "admin"
	default:
		return "open"
	}
}

// ParseRule parses "open", "self" or "admin".
func ParseRule(s string) (Rule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open":
		return RuleOpen, nil
	case "self":
		return RuleSelf, nil
	case "admin":
		return RuleAdmin, nil
	}
	return RuleOpen, fmt.Errorf("unknown policy rule %q", s)
}

// Action names an operation subject to authorization.
type Action string

const (
	ActionPaymentIntent  Action = "payment.intent"
	ActionPaymentRecord  Action = "payment.record"
	ActionPaymentHistory Action = "payment.history"

	ActionUserListAll       Action = "user.listAll"
	ActionUserUpdateProfile Action = "user.updateProfile"
	ActionUserDelete        Action = "user.delete"
	ActionAdminGrant        Action = "admin.grant"
	ActionAdminRevoke       Action = "admin.revoke"

	ActionOrderListOwn     Action = "order.listOwn"
	ActionOrderListAll     Action = "order.listAll"
	ActionOrderCreate      Action = "order.create"
	ActionOrderDelete      Action = "order.delete"
	ActionOrderMarkPaid    Action = "order.markPaid"
	ActionOrderMarkShipped Action = "order.markShipped"

	ActionProductCreate      Action = "product.create"
	ActionProductDelete      Action = "product.delete"
	ActionProductUpdateStock Action = "product.updateStock"
	ActionProductUpdateQty   Action = "product.updateQty"
	ActionProductReplace     Action = "product.replace"

	ActionCartListOwn Action = "cart.listOwn"
	ActionCartCreate  Action = "cart.create"
	ActionCartDelete  Action = "cart.delete"

	ActionReviewCreate Action = "review.create"
	ActionReviewDelete Action = "review.delete"

	ActionTeamMemberCreate Action = "teamMember.create"
	ActionTeamMemberDelete Action = "teamMember.delete"

	ActionBlogCreate Action = "blog.create"
	ActionBlogUpdate Action = "blog.update"
	ActionBlogDelete Action = "blog.delete"
)

// DefaultRules lists every non-open action. Anything absent is open.
func DefaultRules() map[Action]Rule {
	return map[Action]Rule{
		ActionUserListAll:       RuleAdmin,
		ActionUserDelete:        RuleAdmin,
		ActionAdminGrant:        RuleAdmin,
		ActionAdminRevoke:       RuleAdmin,
		ActionOrderListAll:      RuleAdmin,
		ActionUserUpdateProfile: RuleSelf,
		ActionOrderListOwn:      RuleSelf,
		ActionCartListOwn:       RuleSelf,
		ActionCartCreate:        RuleSelf,
		ActionCartDelete:        RuleSelf,
		ActionBlogUpdate:        RuleSelf,
		ActionBlogDelete:        RuleSelf,
	}
}

// ParseRuleOverrides reads "action=rule" pairs separated by commas, e.g.
// "review.delete=self,product.delete=admin".
func ParseRuleOverrides(raw string) (map[Action]Rule, error) {
	overrides := map[Action]Rule{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("malformed policy override %q", pair)
		}
		rule, err := ParseRule(value)
		if err != nil {
			return nil, err
		}
		overrides[Action(strings.TrimSpace(name))] = rule
	}
	return overrides, nil
}

// Owner resolves the uid owning the target of an action. It is only called
// when the action's rule is RuleSelf.
type Owner func(ctx context.Context) (string, error)

// OwnedBy is an Owner for an already known uid.
func OwnedBy(uid string) Owner {
	return func(context.Context) (string, error) { return uid, nil }
}

type policy struct {
	rules  map[Action]Rule
	roles  RoleResolver
	logger *zap.Logger
}

// NewPolicy builds a Policy from DefaultRules with overrides applied on top.
func NewPolicy(roles RoleResolver, overrides map[Action]Rule, logger *zap.Logger) Policy {
	rules := DefaultRules()
	for action, rule := range overrides {
		rules[action] = rule
	}
	return &policy{rules: rules, roles: roles, logger: logger}
}

func (p *policy) RuleFor(action Action) Rule {
	return p.rules[action]
}

func (p *policy) Authorize(ctx context.Context, who models.Identity, action Action, owner Owner) error {
	rule := p.RuleFor(action)
	if rule == RuleOpen {
		return nil
	}
	if who.IsZero() {
		return ErrUnauthenticated
	}

	switch rule {
	case RuleSelf:
		if owner == nil {
			return p.deny(who, action, "no owner")
		}
		ownerUID, err := owner(ctx)
		if err != nil {
			return fmt.Errorf("resolve owner for %s: %w", action, err)
		}
		if who.UID == "" || ownerUID != who.UID {
			return p.deny(who, action, "not owner")
		}
	case RuleAdmin:
		isAdmin, err := p.roles.IsAdmin(ctx, who.Email)
		if err != nil {
			return fmt.Errorf("resolve role for %s: %w", action, err)
		}
		if !isAdmin {
			return p.deny(who, action, "not admin")
		}
	}
	return nil
}

func (p *policy) deny(who models.Identity, action Action, reason string) error {
	p.logger.Warn("Authorization denied",
		zap.String("action", string(action)),
		zap.String("uid", who.UID),
		zap.String("reason", reason),
	)
	return ErrForbidden
}
