package services

import (
	"context"

	"github.com/princeprakhar/roomies-backend/internal/apperrors"
	"github.com/princeprakhar/roomies-backend/internal/models"
	"github.com/princeprakhar/roomies-backend/internal/store"
	"github.com/princeprakhar/roomies-backend/pkg/logger"
)

// MatchService owns the like/pass/block relationship sets.
//
// Each user document holds the swipes received: when A likes B, A goes into
// B.IsMatch. Symmetric operations (unmatch, block) are two single-document
// steps and are not rolled back if the second fails.
type MatchService struct {
	store store.UserStore
}

func NewMatchService(store store.UserStore) *MatchService {
	return &MatchService{store: store}
}

type SwipeRequest struct {
	TargetUsername string `json:"targetUsername" binding:"required"`
	Liked          *bool  `json:"liked" binding:"required"`
}

type SwipeResponse struct {
	OK     bool `json:"ok"`
	Mutual bool `json:"mutual"`
}

type BlockRequest struct {
	TargetUsername string `json:"targetUsername" binding:"required"`
}

type BlockResponse struct {
	OK           bool     `json:"ok"`
	BlockedUsers []string `json:"blockedUsers"`
}

type CandidateQuery struct {
	PageQuery
	HasPlace *bool `form:"has_place"`
}

type CandidatePage struct {
	Candidates []PublicProfile `json:"candidates"`
	Pagination Pagination      `json:"pagination"`
}

// RecordSwipe stores actor's like or pass on target.
func (s *MatchService) RecordSwipe(ctx context.Context, actor, target string, liked bool) (*SwipeResponse, error) {
	if actor == target {
		return nil, apperrors.Forbiddenf("you cannot swipe on yourself")
	}
	if _, err := s.store.FindUser(ctx, target); err != nil {
		return nil, err
	}

	add, pull := store.SetNotMatch, store.SetIsMatch
	if liked {
		add, pull = store.SetIsMatch, store.SetNotMatch
	}
	if err := s.store.AddToSet(ctx, target, add, actor); err != nil {
		return nil, err
	}
	// A new swipe replaces an earlier opposite one.
	if err := s.store.PullFromSet(ctx, target, pull, actor); err != nil {
		return nil, err
	}

	mutual := false
	if liked {
		me, err := s.store.FindUser(ctx, actor)
		if err != nil {
			return nil, err
		}
		mutual = me.HasLiked(target)
	}

	logger.WithFields(logger.Fields{"actor": actor, "target": target, "liked": liked, "mutual": mutual}).Debug("swipe recorded")
	return &SwipeResponse{OK: true, Mutual: mutual}, nil
}

// CheckMutualMatch reports whether b appears in a's IsMatch, i.e. b liked a.
// Only that one direction is checked.
func (s *MatchService) CheckMutualMatch(ctx context.Context, a, b string) (bool, error) {
	user, err := s.store.FindUser(ctx, a)
	if err != nil {
		return false, err
	}
	return user.HasLiked(b), nil
}

// IsMutual reports whether a and b liked each other.
func (s *MatchService) IsMutual(ctx context.Context, a, b string) (bool, error) {
	userA, err := s.store.FindUser(ctx, a)
	if err != nil {
		return false, err
	}
	userB, err := s.store.FindUser(ctx, b)
	if err != nil {
		return false, err
	}
	return userA.HasLiked(b) && userB.HasLiked(a), nil
}

// Unmatch clears every swipe between a and b, in both directions.
func (s *MatchService) Unmatch(ctx context.Context, a, b string) error {
	if a == b {
		return apperrors.Forbiddenf("you cannot unmatch yourself")
	}
	if _, err := s.store.FindUser(ctx, b); err != nil {
		return err
	}

	steps := []struct {
		owner, value string
		set          store.UserSet
	}{
		{a, b, store.SetIsMatch},
		{a, b, store.SetNotMatch},
		{b, a, store.SetIsMatch},
		{b, a, store.SetNotMatch},
	}
	for _, step := range steps {
		if err := s.store.PullFromSet(ctx, step.owner, step.set, step.value); err != nil {
			return err
		}
	}

	logger.WithFields(logger.Fields{"actor": a, "target": b}).Info("users unmatched")
	return nil
}

// Block records the block on actor and removes any like between the pair.
func (s *MatchService) Block(ctx context.Context, actor, target string) ([]string, error) {
	if actor == target {
		return nil, apperrors.Forbiddenf("you cannot block yourself")
	}
	if _, err := s.store.FindUser(ctx, target); err != nil {
		return nil, err
	}

	if err := s.store.AddToSet(ctx, actor, store.SetBlockedUsers, target); err != nil {
		return nil, err
	}
	if err := s.store.PullFromSet(ctx, actor, store.SetIsMatch, target); err != nil {
		return nil, err
	}
	if err := s.store.PullFromSet(ctx, target, store.SetIsMatch, actor); err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{"actor": actor, "target": target}).Info("user blocked")
	return s.blockedUsers(ctx, actor)
}

// Unblock lifts actor's block on target. Removed likes stay removed.
func (s *MatchService) Unblock(ctx context.Context, actor, target string) ([]string, error) {
	if err := s.store.PullFromSet(ctx, actor, store.SetBlockedUsers, target); err != nil {
		return nil, err
	}
	return s.blockedUsers(ctx, actor)
}

func (s *MatchService) blockedUsers(ctx context.Context, username string) ([]string, error) {
	user, err := s.store.FindUser(ctx, username)
	if err != nil {
		return nil, err
	}
	blocked := []string(user.BlockedUsers)
	if blocked == nil {
		blocked = []string{}
	}
	return blocked, nil
}

// Candidates lists active users actor has not swiped on and is not blocked from.
func (s *MatchService) Candidates(ctx context.Context, actor string, query CandidateQuery) (*CandidatePage, error) {
	page := query.PageQuery.normalized()
	filter := store.UserFilter{
		Status:   models.AccountActive,
		HasPlace: query.HasPlace,
		Viewer:   actor,
		Offset:   page.offset(),
		Limit:    page.Limit,
	}

	users, err := s.store.ListUsers(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountUsers(ctx, filter)
	if err != nil {
		return nil, err
	}

	candidates := make([]PublicProfile, 0, len(users))
	for i := range users {
		candidates = append(candidates, publicProfile(&users[i]))
	}
	return &CandidatePage{Candidates: candidates, Pagination: newPagination(page, total)}, nil
}

// ListMatches returns the users who share a mutual like with actor.
func (s *MatchService) ListMatches(ctx context.Context, actor string) ([]PublicProfile, error) {
	me, err := s.store.FindUser(ctx, actor)
	if err != nil {
		return nil, err
	}

	matches := []PublicProfile{}
	for _, username := range me.IsMatch {
		if me.HasBlocked(username) {
			continue
		}
		other, err := s.store.FindUser(ctx, username)
		if apperrors.Is(err, apperrors.NotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !other.HasLiked(actor) || other.HasBlocked(actor) {
			continue
		}
		matches = append(matches, profileFor(actor, other))
	}
	return matches, nil
}
