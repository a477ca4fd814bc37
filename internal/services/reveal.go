package services

import (
	"context"

	"github.com/princeprakhar/roomies-backend/internal/apperrors"
	"github.com/princeprakhar/roomies-backend/internal/models"
	"github.com/princeprakhar/roomies-backend/internal/store"
	"github.com/princeprakhar/roomies-backend/pkg/logger"
)

// RevealService lets a user disclose sensitive profile fields to a match.
// Disclosures are per counterpart and cannot be withdrawn.
type RevealService struct {
	users   store.UserStore
	matches *MatchService
}

func NewRevealService(users store.UserStore, matches *MatchService) *RevealService {
	return &RevealService{users: users, matches: matches}
}

type RevealRequest struct {
	MatchedUsername string `json:"matchedUsername" binding:"required"`
	InfoType        string `json:"infoType" binding:"required"`
}

// RevealStatus shows the disclosures between two users in both directions.
type RevealStatus struct {
	Given    *models.RevealedInfo `json:"given"`
	Received *models.RevealedInfo `json:"received"`
}

func (s *RevealService) RevealInfo(ctx context.Context, actor string, req RevealRequest) (*models.RevealedInfo, error) {
	infoType := models.InfoType(req.InfoType)
	if !infoType.IsValid() {
		return nil, apperrors.Invalidf("infoType must be zones, budget or contact")
	}
	counterpart := req.MatchedUsername
	if actor == counterpart {
		return nil, apperrors.Forbiddenf("you cannot reveal information to yourself")
	}
	if _, err := s.users.FindUser(ctx, counterpart); err != nil {
		return nil, err
	}

	matched, err := s.matches.CheckMutualMatch(ctx, actor, counterpart)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, apperrors.Forbiddenf("you can only reveal information to a match")
	}

	revealed, err := s.users.RevealInfo(ctx, actor, counterpart, infoType)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{"actor": actor, "counterpart": counterpart, "info_type": infoType}).Info("info revealed")
	return revealed, nil
}

func (s *RevealService) GetRevealStatus(ctx context.Context, actor, counterpart string) (*RevealStatus, error) {
	me, err := s.users.FindUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	other, err := s.users.FindUser(ctx, counterpart)
	if err != nil {
		return nil, err
	}
	return &RevealStatus{
		Given:    me.RevealedTo(counterpart),
		Received: other.RevealedTo(actor),
	}, nil
}
