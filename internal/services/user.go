package services

import (
	"context"
	"errors"
	"strings"

	"anniversary-backend/internal/apperr"
	"anniversary-backend/internal/media"
	"anniversary-backend/internal/metrics"
	"anniversary-backend/internal/models"
	"anniversary-backend/internal/push"
	"anniversary-backend/internal/repository"
	"anniversary-backend/internal/token"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// CaptchaVerifier gates login and registration
type CaptchaVerifier interface {
	Verify(ctx context.Context, token string) bool
}

// UserService handles accounts, sessions and the partner link
type UserService struct {
	users    UserStore
	codec    *token.Codec
	captcha  CaptchaVerifier
	uploads  uploader
	notifier Notifier
	cost     int
}

// NewUserService creates a new user service
func NewUserService(
	users UserStore,
	codec *token.Codec,
	captcha CaptchaVerifier,
	files FileStore,
	processor *media.Processor,
	notifier Notifier,
) *UserService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &UserService{
		users:    users,
		codec:    codec,
		captcha:  captcha,
		uploads:  uploader{files: files, media: processor},
		notifier: notifier,
		cost:     bcrypt.DefaultCost,
	}
}

// LoginRequest is the body of a login call. Username may also be an email.
type LoginRequest struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	RecaptchaToken string `json:"recaptcha_token"`
}

// RegisterRequest is the body of a registration call
type RegisterRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	DisplayName    string `json:"display_name"`
	RecaptchaToken string `json:"recaptcha_token"`
}

// Session is returned after a successful login or registration
type Session struct {
	User    *models.User           `json:"user"`
	Partner *models.PartnerProfile `json:"partner,omitempty"`
	Token   string                 `json:"token"`
}

// LoginSession always carries the partner key, null when unlinked
type LoginSession struct {
	User    *models.User           `json:"user"`
	Partner *models.PartnerProfile `json:"partner"`
	Token   string                 `json:"token"`
}

// Login authenticates by username or email
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*LoginSession, error) {
	if req.Username == "" || req.Password == "" {
		return nil, apperr.Validation("Username and password are required")
	}
	if !s.captcha.Verify(ctx, req.RecaptchaToken) {
		metrics.RecordAuthAttempt("login", false)
		return nil, apperr.Forbidden("Recaptcha verification failed")
	}

	user, err := s.users.GetByLogin(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordAuthAttempt("login", false)
			return nil, apperr.Unauthorized("Invalid credentials")
		}
		return nil, apperr.Internal("failed to load user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		metrics.RecordAuthAttempt("login", false)
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	raw, err := s.codec.Issue(user.ID, user.Username)
	if err != nil {
		return nil, apperr.Internal("failed to issue token", err)
	}

	session := &LoginSession{User: user, Token: raw}
	if user.PartnerID != nil {
		partner, err := s.users.GetByID(ctx, *user.PartnerID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Internal("failed to load partner", err)
		}
		if partner != nil {
			session.Partner = partner.Profile()
		}
	}

	metrics.RecordAuthAttempt("login", true)
	log.Info().Int64("user_id", user.ID).Msg("User logged in")
	return session, nil
}

// Register creates an account and signs the caller in
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	required := []struct{ name, value string }{
		{"username", req.Username},
		{"email", req.Email},
		{"password", req.Password},
		{"display_name", req.DisplayName},
	}
	for _, field := range required {
		if field.value == "" {
			return nil, apperr.Validation(field.name + " is required")
		}
	}
	if !s.captcha.Verify(ctx, req.RecaptchaToken) {
		metrics.RecordAuthAttempt("register", false)
		return nil, apperr.Forbidden("Recaptcha verification failed")
	}

	exists, err := s.users.Exists(ctx, req.Username, req.Email)
	if err != nil {
		return nil, apperr.Internal("failed to check user existence", err)
	}
	if exists {
		metrics.RecordAuthAttempt("register", false)
		return nil, apperr.Validation("Username or email already exists")
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperr.Validation("Password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Validation("Username or email already exists")
		}
		return nil, apperr.Internal("failed to create user", err)
	}

	raw, err := s.codec.Issue(user.ID, user.Username)
	if err != nil {
		return nil, apperr.Internal("failed to issue token", err)
	}

	metrics.RecordAuthAttempt("register", true)
	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	return &Session{User: user, Token: raw}, nil
}

// Me returns the caller's account
func (s *UserService) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal("failed to load user", err)
	}
	return user, nil
}

// Partner returns the caller's partner, nil when unlinked
func (s *UserService) Partner(ctx context.Context, scope *Scope) (*models.PartnerProfile, error) {
	if !scope.HasPartner() {
		return nil, nil
	}
	partner, err := s.users.GetByID(ctx, *scope.PartnerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, apperr.Internal("failed to load partner", err)
	}
	return partner.Profile(), nil
}

// UpdateProfile applies the allow-listed, non-empty fields of patch
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, patch models.ProfilePatch) (*models.User, error) {
	patch.DisplayName = nonEmpty(patch.DisplayName)
	patch.Email = nonEmpty(patch.Email)
	patch.Avatar = nonEmpty(patch.Avatar)

	if patch.Email != nil {
		taken, err := s.users.EmailTaken(ctx, *patch.Email, userID)
		if err != nil {
			return nil, apperr.Internal("failed to check email", err)
		}
		if taken {
			return nil, apperr.Validation("Email already in use")
		}
	}
	if patch.Empty() {
		return nil, apperr.Validation("No fields to update")
	}

	if err := s.users.UpdateProfile(ctx, userID, patch); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperr.Validation("Email already in use")
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal("failed to update profile", err)
	}
	return s.Me(ctx, userID)
}

// PasswordChange is the body of a password update
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword replaces the caller's password after checking the current one
func (s *UserService) ChangePassword(ctx context.Context, userID int64, req PasswordChange) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperr.Validation("Current password and new password are required")
	}

	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return apperr.Validation("Current password is incorrect")
	}
	if len(req.NewPassword) < minPasswordLength {
		return apperr.Validation("New password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cost)
	if err != nil {
		return apperr.Internal("failed to hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return apperr.Internal("failed to update password", err)
	}

	log.Info().Int64("user_id", userID).Msg("Password updated")
	return nil
}

// LinkPartner links the caller and the user named partnerUsername to each other
func (s *UserService) LinkPartner(ctx context.Context, caller int64, partnerUsername string) (*models.PartnerProfile, error) {
	partnerUsername = strings.TrimSpace(partnerUsername)
	if partnerUsername == "" {
		return nil, apperr.Validation("Partner username is required")
	}

	partner, err := s.users.GetByUsername(ctx, partnerUsername)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Validation("Partner not found")
		}
		return nil, apperr.Internal("failed to find partner", err)
	}
	if partner.ID == caller {
		return nil, apperr.Validation("You cannot link yourself as a partner")
	}

	if err := s.users.LinkPartners(ctx, caller, partner.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("Unauthorized")
		}
		return nil, apperr.Internal("failed to link partners", err)
	}

	log.Info().Int64("user_id", caller).Int64("partner_id", partner.ID).Msg("Partners linked")

	var from *models.PartnerProfile
	if me, err := s.users.GetByID(ctx, caller); err == nil {
		from = me.Profile()
	}
	s.notifier.Notify(ctx, partner.ID,
		WSMessage{Type: EventPartnerLinked, Data: from},
		push.Alert{Title: "You're linked! 💚", Body: "Your partner linked your accounts"},
	)
	return partner.Profile(), nil
}

// UploadAvatar stores an image under avatars/ and sets it as the caller's avatar
func (s *UserService) UploadAvatar(ctx context.Context, userID int64, up Upload) (*models.User, error) {
	stored, err := s.uploads.store(ctx, "avatars", up, true)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateProfile(ctx, userID, models.ProfilePatch{Avatar: &stored.Key}); err != nil {
		s.uploads.remove(ctx, stored.Key, deref(stored.ThumbnailKey))
		return nil, apperr.Internal("failed to update avatar", err)
	}
	metrics.RecordUpload(stored.Asset.MediaType, up.Size)
	return s.Me(ctx, userID)
}

// SetPushToken registers or clears the caller's APNs device token
func (s *UserService) SetPushToken(ctx context.Context, userID int64, deviceToken string) error {
	var value *string
	if deviceToken = strings.TrimSpace(deviceToken); deviceToken != "" {
		value = &deviceToken
	}
	if err := s.users.UpdatePushToken(ctx, userID, value); err != nil {
		return apperr.Internal("failed to update push token", err)
	}
	return nil
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
