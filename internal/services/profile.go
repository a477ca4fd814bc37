package services

import (
	"context"
	"mime/multipart"
	"slices"

	"github.com/princeprakhar/roomies-backend/internal/apperrors"
	"github.com/princeprakhar/roomies-backend/internal/models"
	"github.com/princeprakhar/roomies-backend/internal/store"
	"github.com/princeprakhar/roomies-backend/internal/utils"
	"github.com/princeprakhar/roomies-backend/pkg/logger"
)

const (
	maxPhotos     = 6
	maxBioLength  = 500
	maxNameLength = 100
	maxZones      = 10
	maxZoneLength = 50
)

type ProfileService struct {
	users  store.UserStore
	photos PhotoStorage
}

func NewProfileService(users store.UserStore, photos PhotoStorage) *ProfileService {
	return &ProfileService{users: users, photos: photos}
}

// UpdateProfileRequest leaves nil fields unchanged.
type UpdateProfileRequest struct {
	Name        *string             `json:"name"`
	Bio         *string             `json:"bio"`
	Age         *int                `json:"age"`
	HasPlace    *bool               `json:"has_place"`
	Zones       *[]string           `json:"zones"`
	Budget      *int                `json:"budget"`
	Contact     *string             `json:"contact"`
	Preferences *models.Preferences `json:"preferences"`
}

type SetPremiumRequest struct {
	IsPremium *bool `json:"isPremium" binding:"required"`
}

type DeletePhotoRequest struct {
	URL string `json:"url" binding:"required"`
}

func (s *ProfileService) GetMe(ctx context.Context, username string) (*models.User, error) {
	return s.users.FindUser(ctx, username)
}

// GetProfile returns target as viewer may see it. A block in either
// direction, or a target that is no longer active, hides the profile.
func (s *ProfileService) GetProfile(ctx context.Context, viewer, target string) (*PublicProfile, error) {
	user, err := s.users.FindUser(ctx, target)
	if err != nil {
		return nil, err
	}
	if viewer != target {
		if user.HasBlocked(viewer) || user.AccountStatus == models.AccountBanned {
			return nil, apperrors.NotFoundf("user %s not found", target)
		}
		me, err := s.users.FindUser(ctx, viewer)
		if err != nil {
			return nil, err
		}
		if me.HasBlocked(target) {
			return nil, apperrors.NotFoundf("user %s not found", target)
		}
	}
	profile := profileFor(viewer, user)
	return &profile, nil
}

func validateProfile(req *UpdateProfileRequest) (store.Updates, error) {
	updates := store.Updates{}
	if req.Name != nil {
		name := utils.SanitizeString(*req.Name)
		if len([]rune(name)) > maxNameLength {
			return nil, apperrors.Invalidf("name must be at most %d characters", maxNameLength)
		}
		updates[store.FieldName] = name
	}
	if req.Bio != nil {
		bio := utils.SanitizeString(*req.Bio)
		if len([]rune(bio)) > maxBioLength {
			return nil, apperrors.Invalidf("bio must be at most %d characters", maxBioLength)
		}
		updates[store.FieldBio] = bio
	}
	if req.Age != nil {
		if *req.Age < 18 || *req.Age > 99 {
			return nil, apperrors.Invalidf("age must be between 18 and 99")
		}
		updates[store.FieldAge] = *req.Age
	}
	if req.HasPlace != nil {
		updates[store.FieldHasPlace] = *req.HasPlace
	}
	if req.Zones != nil {
		zones := make([]string, 0, len(*req.Zones))
		for _, zone := range *req.Zones {
			zone = utils.SanitizeString(zone)
			if zone == "" || len([]rune(zone)) > maxZoneLength {
				return nil, apperrors.Invalidf("zones must be 1 to %d characters", maxZoneLength)
			}
			if !slices.Contains(zones, zone) {
				zones = append(zones, zone)
			}
		}
		if len(zones) > maxZones {
			return nil, apperrors.Invalidf("at most %d zones are allowed", maxZones)
		}
		updates[store.FieldZones] = zones
	}
	if req.Budget != nil {
		if *req.Budget < 0 {
			return nil, apperrors.Invalidf("budget cannot be negative")
		}
		updates[store.FieldBudget] = *req.Budget
	}
	if req.Contact != nil {
		updates[store.FieldContact] = utils.SanitizeString(*req.Contact)
	}
	if req.Preferences != nil {
		if err := req.Preferences.Validate(); err != nil {
			return nil, apperrors.Wrap(err, apperrors.InvalidInput, err.Error())
		}
		updates[store.FieldPreferences] = req.Preferences.Normalized()
	}
	return updates, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, username string, req UpdateProfileRequest) (*models.User, error) {
	updates, err := validateProfile(&req)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.users.UpdateUser(ctx, username, updates); err != nil {
			return nil, err
		}
	}
	return s.users.FindUser(ctx, username)
}

func (s *ProfileService) SetPremium(ctx context.Context, admin, username string, premium bool) (*models.User, error) {
	if err := s.users.UpdateUser(ctx, username, store.Updates{store.FieldIsPremium: premium}); err != nil {
		return nil, err
	}
	logger.WithFields(logger.Fields{"admin": admin, "user": username, "is_premium": premium}).Info("premium flag updated")
	return s.users.FindUser(ctx, username)
}

// UploadPhoto stores a new profile photo, up to maxPhotos per user.
func (s *ProfileService) UploadPhoto(ctx context.Context, username string, file multipart.File, header *multipart.FileHeader) ([]string, error) {
	user, err := s.users.FindUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if len(user.Photos) >= maxPhotos {
		return nil, apperrors.Invalidf("a profile can have at most %d photos", maxPhotos)
	}
	if s.photos == nil {
		return nil, apperrors.New(apperrors.Internal, "photo storage is not configured")
	}

	result, err := s.photos.UploadImage(file, header, username)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, err.Error())
	}
	if err := s.users.AddToSet(ctx, username, store.SetPhotos, result.URL); err != nil {
		if delErr := s.photos.DeleteImage(result.URL); delErr != nil {
			logger.WithFields(logger.Fields{"user": username, "url": result.URL}).WithError(delErr).Warn("failed to clean up photo")
		}
		return nil, err
	}
	return s.photoList(ctx, username)
}

func (s *ProfileService) DeletePhoto(ctx context.Context, username, url string) ([]string, error) {
	user, err := s.users.FindUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(user.Photos, url) {
		return nil, apperrors.NotFoundf("photo not found")
	}
	if err := s.users.PullFromSet(ctx, username, store.SetPhotos, url); err != nil {
		return nil, err
	}
	if s.photos != nil {
		if err := s.photos.DeleteImage(url); err != nil {
			logger.WithFields(logger.Fields{"user": username, "url": url}).WithError(err).Warn("failed to delete photo object")
		}
	}
	return s.photoList(ctx, username)
}

func (s *ProfileService) photoList(ctx context.Context, username string) ([]string, error) {
	user, err := s.users.FindUser(ctx, username)
	if err != nil {
		return nil, err
	}
	photos := []string(user.Photos)
	if photos == nil {
		photos = []string{}
	}
	return photos, nil
}
