package core

import (
	"context"

	"gadgets-backend-go/internal/db"
	"gadgets-backend-go/internal/models"
)

type teamService struct {
	teams   resourceGateway
	members resourceGateway
	policy  Policy
}

// NewTeamService creates a TeamService.
func NewTeamService(store db.DocumentStore, policy Policy) TeamService {
	return &teamService{
		teams:   newResourceGateway(store, db.TeamsCollection),
		members: newResourceGateway(store, db.TeamMembersCollection),
		policy:  policy,
	}
}

func (s *teamService) ListTeams(ctx context.Context) ([]models.Document, error) {
	return s.teams.list(ctx, nil, db.FindOptions{})
}

func (s *teamService) ListMembers(ctx context.Context) ([]models.Document, error) {
	return s.members.list(ctx, nil, db.FindOptions{})
}

func (s *teamService) GetMember(ctx context.Context, id string) (models.Document, error) {
	return s.members.get(ctx, id)
}

func (s *teamService) CreateMember(ctx context.Context, who models.Identity, member models.Document) (*models.InsertResult, error) {
	if err := s.policy.Authorize(ctx, who, ActionTeamMemberCreate, OwnedBy(member.OwnerUID())); err != nil {
		return nil, err
	}
	return s.members.create(ctx, member)
}

func (s *teamService) DeleteMember(ctx context.Context, who models.Identity, id string) (*models.DeleteResult, error) {
	if err := s.policy.Authorize(ctx, who, ActionTeamMemberDelete, s.members.storedOwner(id)); err != nil {
		return nil, err
	}
	return s.members.delete(ctx, id)
}
