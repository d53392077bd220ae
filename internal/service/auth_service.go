package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kereva-dev/duet/internal/config"
	"github.com/kereva-dev/duet/internal/email"
	"github.com/kereva-dev/duet/internal/entity"
	"github.com/kereva-dev/duet/internal/repository"
	"github.com/kereva-dev/duet/pkg/constant"
	"github.com/kereva-dev/duet/pkg/errcode"
	"github.com/kereva-dev/duet/pkg/idgen"
	"github.com/kereva-dev/duet/pkg/jwt"
	"github.com/kereva-dev/duet/pkg/validate"
	"github.com/mbeoliero/kit/log"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// resetTokenTTL is how long a password reset link stays usable
const resetTokenTTL = 30 * time.Minute

// AuthService handles authentication logic
type AuthService struct {
	repos      *repository.Repositories
	cfg        *config.Config
	tokenStore *jwt.TokenStore
	mailer     *email.Sender
	tokenGen   *idgen.UUIDGenerator
	notifier   SnapshotNotifier
}

// NewAuthService creates a new AuthService
func NewAuthService(repos *repository.Repositories, cfg *config.Config, mailer *email.Sender) *AuthService {
	return &AuthService{
		repos:      repos,
		cfg:        cfg,
		tokenStore: jwt.NewTokenStore(repos.Redis, cfg.JWT.ExpireHours),
		mailer:     mailer,
		tokenGen:   idgen.NewUUIDGenerator(),
	}
}

// SetNotifier wires the live-push notifier. Called once at startup.
func (s *AuthService) SetNotifier(n SnapshotNotifier) {
	s.notifier = n
}

// RegisterRequest represents user registration request
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	DisplayName     string `json:"display_name"`
	Phone           string `json:"phone,omitempty"`
}

// LoginRequest represents user login request
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	PlatformId int    `json:"platform_id"`
}

// LoginResponse represents user login response
type LoginResponse struct {
	Token    string           `json:"token"`
	UserInfo *entity.UserInfo `json:"user_info"`
}

// Register registers a new account. Validation runs entirely locally
// before any storage is touched.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*entity.UserInfo, error) {
	if err := validate.Email(req.Email); err != nil {
		return nil, err
	}
	if err := validate.Password(req.Password); err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, errcode.ErrPasswordMismatch
	}
	if err := validate.Name(req.DisplayName); err != nil {
		return nil, err
	}
	if req.Phone != "" {
		if err := validate.Phone(req.Phone); err != nil {
			return nil, err
		}
	}

	taken, err := s.repos.User.EmailTaken(ctx, req.Email)
	if err != nil {
		log.CtxError(ctx, "check email taken failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if taken {
		return nil, errcode.ErrEmailTaken
	}

	// Hash password with bcrypt
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.CtxError(ctx, "hash password failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	userId, err := idgen.NextID()
	if err != nil {
		log.CtxError(ctx, "generate user id failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	user := &entity.User{
		Id:          userId,
		Email:       req.Email,
		Password:    string(hashedPassword),
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Role:        constant.RoleUser,
		Status:      constant.StatusActive,
		Preferences: entity.DefaultPreferences(),
		Privacy:     entity.DefaultPrivacy(),
	}

	if err := s.repos.User.Create(ctx, user); err != nil {
		log.CtxError(ctx, "create user failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	s.recordActivity(ctx, user.Id, constant.ActivityAccountCreated, "")
	s.notifyDirectory()

	log.CtxInfo(ctx, "user registered: user_id=%s", user.Id)
	return user.ToUserInfo(), nil
}

// Login authenticates a user and returns a token
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.repos.User.GetByEmail(ctx, req.Email)
	if err != nil {
		log.CtxError(ctx, "get user by email failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if user == nil {
		return nil, errcode.ErrUserNotFound
	}
	if user.Status != constant.StatusActive {
		return nil, errcode.ErrNoPermission
	}

	// Verify password with bcrypt
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errcode.ErrPasswordWrong
	}

	return s.issueSession(ctx, user, req.PlatformId, constant.ActivityLogin)
}

// ExternalLogin signs a user in with a token minted by a trusted external
// identity provider, creating the local account on first sight.
func (s *AuthService) ExternalLogin(ctx context.Context, externalToken string) (*LoginResponse, error) {
	if !s.cfg.ExternalJWT.Enabled {
		return nil, errcode.ErrExternalAuthOff
	}

	claims, err := jwt.ParseExternalToken(externalToken, s.cfg.ExternalJWT.Secret, s.cfg.ExternalJWT.Issuer)
	if err != nil {
		log.CtxDebug(ctx, "external token rejected: %v", err)
		return nil, errcode.ErrTokenInvalid
	}

	user, err := s.repos.User.GetByEmail(ctx, claims.Email)
	if err != nil {
		log.CtxError(ctx, "get user by email failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	if user == nil {
		name := claims.DisplayName
		if name == "" {
			name = claims.Email
		}
		userId, err := idgen.NextID()
		if err != nil {
			log.CtxError(ctx, "generate user id failed: %v", err)
			return nil, errcode.ErrInternalServer
		}
		user = &entity.User{
			Id:          userId,
			Email:       claims.Email,
			DisplayName: name,
			AvatarRef:   claims.Avatar,
			Role:        constant.RoleUser,
			Status:      constant.StatusActive,
			External:    true,
			Preferences: entity.DefaultPreferences(),
			Privacy:     entity.DefaultPrivacy(),
		}
		if err := s.repos.User.Create(ctx, user); err != nil {
			log.CtxError(ctx, "create external user failed: %v", err)
			return nil, errcode.ErrInternalServer
		}
		s.recordActivity(ctx, user.Id, constant.ActivityAccountCreated, "external")
		s.notifyDirectory()
	}

	return s.issueSession(ctx, user, s.cfg.ExternalJWT.DefaultPlatformId, constant.ActivityLoginExternal)
}

// issueSession mints a token, stores it, kicks same-platform siblings and
// stamps the login on the user row.
func (s *AuthService) issueSession(ctx context.Context, user *entity.User, platformId int, activity string) (*LoginResponse, error) {
	token, err := jwt.GenerateToken(user.Id, platformId, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		log.CtxError(ctx, "generate token failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	if err := s.tokenStore.StoreToken(ctx, user.Id, platformId, token); err != nil {
		log.CtxError(ctx, "store token failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	// Kick other tokens on the same platform (single device per platform policy)
	kickedTokens, err := s.tokenStore.KickOtherTokens(ctx, user.Id, platformId, token)
	if err != nil {
		log.CtxWarn(ctx, "kick other tokens failed: %v", err)
		// Don't fail login for this
	} else if len(kickedTokens) > 0 {
		log.CtxInfo(ctx, "kicked %d tokens for user_id=%s, platform_id=%d", len(kickedTokens), user.Id, platformId)
	}

	now := entity.NowUnixMilli()
	if err := s.repos.User.TouchLogin(ctx, user.Id, now); err != nil {
		log.CtxWarn(ctx, "touch login failed: %v", err)
	}
	user.LoginCount++
	user.LastLoginAt = now

	s.recordActivity(ctx, user.Id, activity, fmt.Sprintf("platform_id=%d", platformId))

	log.CtxInfo(ctx, "user logged in: user_id=%s, platform_id=%d", user.Id, platformId)
	return &LoginResponse{
		Token:    token,
		UserInfo: user.ToUserInfo(),
	}, nil
}

// RequestPasswordReset creates a one-time reset token and mails it to the
// account's address. Unknown addresses succeed silently so the endpoint
// does not leak which emails are registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	if err := validate.Email(emailAddr); err != nil {
		return err
	}

	user, err := s.repos.User.GetByEmail(ctx, emailAddr)
	if err != nil {
		log.CtxError(ctx, "get user by email failed: %v", err)
		return errcode.ErrInternalServer
	}
	if user == nil || user.External {
		log.CtxInfo(ctx, "reset requested for unmatched email")
		return nil
	}

	// Reset tokens must be unguessable, never sequential
	token, err := s.tokenGen.NextID()
	if err != nil {
		log.CtxError(ctx, "generate reset token failed: %v", err)
		return errcode.ErrInternalServer
	}
	key := fmt.Sprintf(constant.RedisKeyResetToken(), token)
	if err := s.repos.Redis.Set(ctx, key, user.Id, resetTokenTTL).Err(); err != nil {
		log.CtxError(ctx, "store reset token failed: %v", err)
		return errcode.ErrInternalServer
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		log.CtxError(ctx, "send reset mail failed: %v", err)
		return errcode.ErrInternalServer
	}

	return nil
}

// ResetPassword redeems a reset token and installs a new password.
// All sessions of the user are dropped afterwards.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validate.Password(newPassword); err != nil {
		return err
	}

	key := fmt.Sprintf(constant.RedisKeyResetToken(), token)
	userId, err := s.repos.Redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return errcode.ErrResetTokenInvalid
	}
	if err != nil {
		log.CtxError(ctx, "get reset token failed: %v", err)
		return errcode.ErrInternalServer
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		log.CtxError(ctx, "hash password failed: %v", err)
		return errcode.ErrInternalServer
	}

	if err := s.repos.User.Update(ctx, userId, map[string]interface{}{
		"password": string(hashedPassword),
	}); err != nil {
		log.CtxError(ctx, "update password failed: %v", err)
		return errcode.ErrInternalServer
	}

	// Token is one-shot
	if err := s.repos.Redis.Del(ctx, key).Err(); err != nil {
		log.CtxWarn(ctx, "delete reset token failed: %v", err)
	}

	if err := s.tokenStore.ForceLogoutUser(ctx, userId); err != nil {
		log.CtxWarn(ctx, "force logout after reset failed: %v", err)
	}

	s.recordActivity(ctx, userId, constant.ActivityPasswordReset, "")
	log.CtxInfo(ctx, "password reset completed: user_id=%s", userId)
	return nil
}

// ValidateToken validates a token and returns claims
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := jwt.ParseToken(token, s.cfg.JWT.Secret)
	if err != nil {
		return nil, err
	}

	// Check token status in Redis
	valid, err := s.tokenStore.IsTokenValid(ctx, claims.UserId, claims.PlatformId, token)
	if err != nil {
		log.CtxWarn(ctx, "check token status failed: %v", err)
		// Fall back to JWT validation only if Redis check fails
		return claims, nil
	}
	if !valid {
		return nil, errcode.ErrTokenInvalid
	}

	return claims, nil
}

// Logout invalidates a user's token
func (s *AuthService) Logout(ctx context.Context, userId string, platformId int, token string) error {
	if err := s.tokenStore.InvalidateToken(ctx, userId, platformId, token); err != nil {
		log.CtxError(ctx, "invalidate token failed: %v", err)
		return errcode.ErrInternalServer
	}
	s.recordActivity(ctx, userId, constant.ActivityLogout, "")
	log.CtxInfo(ctx, "user logged out: user_id=%s, platform_id=%d", userId, platformId)
	return nil
}

// DeleteAccount removes an account after re-verifying the password.
// External accounts have no local password and pass an empty string.
func (s *AuthService) DeleteAccount(ctx context.Context, userId, password string) error {
	user, err := s.repos.User.GetById(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "get user failed: %v", err)
		return errcode.ErrInternalServer
	}
	if user == nil {
		return errcode.ErrUserNotFound
	}

	if !user.External {
		if password == "" {
			return errcode.ErrReauthRequired
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
			return errcode.ErrPasswordWrong
		}
	}

	if err := s.repos.User.Delete(ctx, userId); err != nil {
		log.CtxError(ctx, "delete user failed: %v", err)
		return errcode.ErrInternalServer
	}

	if err := s.repos.Activity.DeleteByUser(ctx, userId); err != nil {
		log.CtxWarn(ctx, "delete activities failed: %v", err)
	}

	if err := s.tokenStore.ForceLogoutUser(ctx, userId); err != nil {
		log.CtxWarn(ctx, "force logout after delete failed: %v", err)
	}

	s.notifyDirectory()
	log.CtxInfo(ctx, "account deleted: user_id=%s", userId)
	return nil
}

// recordActivity appends an audit entry, logging failures without
// propagating them.
func (s *AuthService) recordActivity(ctx context.Context, userId, activityType, detail string) {
	if err := s.repos.Activity.Record(ctx, userId, activityType, detail); err != nil {
		log.CtxWarn(ctx, "record activity failed: type=%s, error=%v", activityType, err)
	}
}

func (s *AuthService) notifyDirectory() {
	if s.notifier != nil {
		s.notifier.DirectoryChanged()
	}
}
