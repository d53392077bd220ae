package service

import (
	"context"

	"github.com/kereva-dev/duet/internal/blob"
	"github.com/kereva-dev/duet/internal/entity"
	"github.com/kereva-dev/duet/internal/repository"
	"github.com/kereva-dev/duet/pkg/constant"
	"github.com/kereva-dev/duet/pkg/errcode"
	"github.com/kereva-dev/duet/pkg/validate"
	"github.com/mbeoliero/kit/log"
)

// activityPageSize bounds the activity listing
const activityPageSize = 50

// UserService handles profile, preferences and directory logic
type UserService struct {
	repos    *repository.Repositories
	blobs    *blob.Store
	notifier SnapshotNotifier
}

// NewUserService creates a new UserService
func NewUserService(repos *repository.Repositories, blobs *blob.Store) *UserService {
	return &UserService{repos: repos, blobs: blobs}
}

// SetNotifier wires the live-push notifier. Called once at startup.
func (s *UserService) SetNotifier(n SnapshotNotifier) {
	s.notifier = n
}

// UpdateProfileRequest carries the editable profile fields
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	Location    *string `json:"location,omitempty"`
	Website     *string `json:"website,omitempty"`
}

// GetProfile returns the viewer's own profile.
// Returns nil without error when the account no longer exists.
func (s *UserService) GetProfile(ctx context.Context, userId string) (*entity.UserInfo, error) {
	user, err := s.repos.User.GetById(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "get user failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if user == nil {
		return nil, nil
	}
	return user.ToUserInfo(), nil
}

// GetUser returns another user's profile filtered through their privacy
// switches.
func (s *UserService) GetUser(ctx context.Context, viewerId, targetId string) (*entity.UserInfo, error) {
	user, err := s.repos.User.GetById(ctx, targetId)
	if err != nil {
		log.CtxError(ctx, "get user failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if user == nil {
		return nil, errcode.ErrUserNotFound
	}
	if viewerId == targetId {
		return user.ToUserInfo(), nil
	}
	return user.ToDirectoryInfo(), nil
}

// UpdateProfile applies a partial profile edit
func (s *UserService) UpdateProfile(ctx context.Context, userId string, req *UpdateProfileRequest) (*entity.UserInfo, error) {
	updates := map[string]interface{}{}

	if req.DisplayName != nil {
		if err := validate.Name(*req.DisplayName); err != nil {
			return nil, err
		}
		updates["display_name"] = *req.DisplayName
	}
	if req.Phone != nil {
		if *req.Phone != "" {
			if err := validate.Phone(*req.Phone); err != nil {
				return nil, err
			}
		}
		updates["phone"] = *req.Phone
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Website != nil {
		updates["website"] = *req.Website
	}

	if len(updates) == 0 {
		return nil, errcode.ErrInvalidParam
	}

	if err := s.repos.User.Update(ctx, userId, updates); err != nil {
		log.CtxError(ctx, "update profile failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	s.recordActivity(ctx, userId, constant.ActivityProfileUpdated)
	s.notifyDirectory()

	return s.GetProfile(ctx, userId)
}

// UpdatePreferences replaces the user's client preferences
func (s *UserService) UpdatePreferences(ctx context.Context, userId string, prefs *entity.Preferences) (*entity.UserInfo, error) {
	if prefs.Language == "" || prefs.Timezone == "" || prefs.Theme == "" {
		return nil, errcode.ErrInvalidParam
	}

	if err := s.repos.User.Update(ctx, userId, map[string]interface{}{
		"pref_language":              prefs.Language,
		"pref_timezone":              prefs.Timezone,
		"pref_theme":                 prefs.Theme,
		"pref_notifications_enabled": prefs.Notifications,
		"pref_email_notifications":   prefs.EmailNotifications,
	}); err != nil {
		log.CtxError(ctx, "update preferences failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	s.recordActivity(ctx, userId, constant.ActivitySettingsUpdated)
	return s.GetProfile(ctx, userId)
}

// GetPreferences returns the user's preferences
func (s *UserService) GetPreferences(ctx context.Context, userId string) (*entity.Preferences, error) {
	user, err := s.repos.User.GetById(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "get user failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if user == nil {
		return nil, errcode.ErrUserNotFound
	}
	return &user.Preferences, nil
}

// UpdatePrivacy replaces the user's privacy switches
func (s *UserService) UpdatePrivacy(ctx context.Context, userId string, privacy *entity.Privacy) (*entity.UserInfo, error) {
	if err := s.repos.User.Update(ctx, userId, map[string]interface{}{
		"priv_profile_public": privacy.ProfilePublic,
		"priv_show_email":     privacy.ShowEmail,
		"priv_show_last_seen": privacy.ShowLastSeen,
	}); err != nil {
		log.CtxError(ctx, "update privacy failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	s.recordActivity(ctx, userId, constant.ActivityPrivacyUpdated)
	// Privacy edits change what the directory shows about this user
	s.notifyDirectory()
	return s.GetProfile(ctx, userId)
}

// GetPrivacy returns the user's privacy switches
func (s *UserService) GetPrivacy(ctx context.Context, userId string) (*entity.Privacy, error) {
	user, err := s.repos.User.GetById(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "get user failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if user == nil {
		return nil, errcode.ErrUserNotFound
	}
	return &user.Privacy, nil
}

// ListUsers returns the chat directory for a viewer: every active account
// except their own, ordered by display name, privacy applied.
func (s *UserService) ListUsers(ctx context.Context, viewerId string) ([]*entity.UserInfo, error) {
	users, err := s.repos.User.List(ctx, viewerId)
	if err != nil {
		log.CtxError(ctx, "list users failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	infos := make([]*entity.UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, u.ToDirectoryInfo())
	}
	return infos, nil
}

// Activity returns the viewer's recent audit entries
func (s *UserService) Activity(ctx context.Context, userId string) ([]*entity.Activity, error) {
	acts, err := s.repos.Activity.ListByUser(ctx, userId, activityPageSize)
	if err != nil {
		log.CtxError(ctx, "list activity failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	return acts, nil
}

// SetAvatar stores avatar bytes and points the profile at the blob ref
func (s *UserService) SetAvatar(ctx context.Context, userId string, data []byte) (string, error) {
	ref, err := s.blobs.Put(data)
	if err != nil {
		return "", err
	}

	if err := s.repos.User.Update(ctx, userId, map[string]interface{}{
		"avatar_ref": ref,
	}); err != nil {
		log.CtxError(ctx, "update avatar failed: %v", err)
		return "", errcode.ErrInternalServer
	}

	s.recordActivity(ctx, userId, constant.ActivityAvatarUploaded)
	s.notifyDirectory()
	return ref, nil
}

// RemoveAvatar clears the profile's avatar ref. The blob itself stays,
// other messages may still reference the same content.
func (s *UserService) RemoveAvatar(ctx context.Context, userId string) error {
	if err := s.repos.User.Update(ctx, userId, map[string]interface{}{
		"avatar_ref": "",
	}); err != nil {
		log.CtxError(ctx, "remove avatar failed: %v", err)
		return errcode.ErrInternalServer
	}

	s.recordActivity(ctx, userId, constant.ActivityAvatarRemoved)
	s.notifyDirectory()
	return nil
}

func (s *UserService) recordActivity(ctx context.Context, userId, activityType string) {
	if err := s.repos.Activity.Record(ctx, userId, activityType, ""); err != nil {
		log.CtxWarn(ctx, "record activity failed: type=%s, error=%v", activityType, err)
	}
}

func (s *UserService) notifyDirectory() {
	if s.notifier != nil {
		s.notifier.DirectoryChanged()
	}
}
