package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/tournament-standings/models"
	"github.com/Dosada05/tournament-standings/repositories"
)

type TeamService interface {
	CreateTeam(ctx context.Context, captainID int, input CreateTeamInput) (*models.Team, error)
	GetTeam(ctx context.Context, teamID int) (*models.Team, error)
	AddMember(ctx context.Context, actor Actor, teamID, userID int) (*models.Team, error)
}

type CreateTeamInput struct {
	Name string `json:"name"`
}

type AddMemberInput struct {
	UserID int `json:"user_id"`
}

type teamService struct {
	teamRepo repositories.TeamRepository
	userRepo repositories.UserRepository
}

func NewTeamService(teamRepo repositories.TeamRepository, userRepo repositories.UserRepository) TeamService {
	return &teamService{teamRepo: teamRepo, userRepo: userRepo}
}

var teamErrors = map[error]error{
	repositories.ErrTeamNotFound:       ErrTeamNotFound,
	repositories.ErrTeamNameConflict:   ErrTeamNameConflict,
	repositories.ErrTeamMemberConflict: ErrTeamMemberConflict,
	repositories.ErrTeamCaptainInvalid: ErrUserNotFound,
	repositories.ErrTeamMemberInvalid:  ErrUserNotFound,
}

func (s *teamService) CreateTeam(ctx context.Context, captainID int, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	team := &models.Team{Name: name, CaptainID: captainID}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, translateError(err, "failed to create team", teamErrors)
	}
	return s.GetTeam(ctx, team.ID)
}

func (s *teamService) GetTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to get team %d", teamID), teamErrors)
	}
	members, err := s.teamRepo.ListMembers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", teamID, err)
	}
	team.Members = members
	for i := range members {
		if members[i].ID == team.CaptainID {
			captain := members[i]
			team.Captain = &captain
			break
		}
	}
	return team, nil
}

func (s *teamService) AddMember(ctx context.Context, actor Actor, teamID, userID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to get team %d", teamID), teamErrors)
	}
	if team.CaptainID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrCaptainActionForbidden
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	if err := s.teamRepo.AddMember(ctx, teamID, userID); err != nil {
		return nil, translateError(err, "failed to add team member", teamErrors)
	}
	return s.GetTeam(ctx, teamID)
}
