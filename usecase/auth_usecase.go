package usecase

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"pego/domain/dto"
	"pego/domain/model"
	"pego/domain/repository"
	"pego/infrastructure/cache"
	"pego/infrastructure/logger"
	"pego/infrastructure/utils"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type IAuthUsecase interface {
	// LoginWithGoogle exchanges the authorization code, provisioning a user
	// on first login.
	LoginWithGoogle(ctx context.Context, req dto.GoogleLoginRequest) (*dto.AuthResponse, error)
	// SendOTP issues a one-time phone code.
	SendOTP(ctx context.Context, req dto.OTPSendRequest) error
	// VerifyOTP consumes the code, provisioning a user on first login.
	VerifyOTP(ctx context.Context, req dto.OTPVerifyRequest) (*dto.AuthResponse, error)
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID, displayName, bio string, avatarURL *string) (*model.User, error)
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type authUsecase struct {
	userRepo  repository.IUser
	otpStore  *cache.OTPStore
	oauthConf *oauth2.Config
	secretKey string
}

func NewAuthUsecase(userRepo repository.IUser, otpStore *cache.OTPStore, oauthConf *oauth2.Config, secretKey string) IAuthUsecase {
	return &authUsecase{userRepo: userRepo, otpStore: otpStore, oauthConf: oauthConf, secretKey: secretKey}
}

func (u *authUsecase) LoginWithGoogle(ctx context.Context, req dto.GoogleLoginRequest) (*dto.AuthResponse, error) {
	if u.oauthConf == nil {
		return nil, fmt.Errorf("%w: google login not configured", model.ErrUnauthorized)
	}
	if req.Code == "" {
		return nil, fmt.Errorf("%w: code is required", model.ErrValidation)
	}

	token, err := u.oauthConf.Exchange(ctx, req.Code)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("google code exchange failed")
		return nil, model.ErrUnauthorized
	}
	info, err := u.fetchGoogleUser(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.GetByGoogleID(ctx, info.ID)
	if errors.Is(err, model.ErrNotFound) {
		user, err = u.provisionGoogleUser(ctx, info)
	}
	if err != nil {
		return nil, err
	}
	return u.issue(ctx, user)
}

func (u *authUsecase) fetchGoogleUser(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := u.oauthConf.Client(ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("google userinfo status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, err
	}
	if info.ID == "" {
		return nil, model.ErrUnauthorized
	}
	return &info, nil
}

func (u *authUsecase) provisionGoogleUser(ctx context.Context, info *googleUserInfo) (*model.User, error) {
	displayName := info.Name
	if displayName == "" {
		displayName = "Pego user"
	}
	base := usernameBase(info.Email, displayName)
	username, err := u.uniqueUsername(ctx, base)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:          uuid.NewString(),
		Username:    username,
		DisplayName: displayName,
		GoogleID:    &info.ID,
		IsVerified:  true,
		IsActive:    true,
		CreatedAt:   now,
	}
	if info.Email != "" {
		user.Email = &info.Email
	}
	if info.Picture != "" {
		user.AvatarURL = &info.Picture
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *authUsecase) SendOTP(ctx context.Context, req dto.OTPSendRequest) error {
	phone := normalizePhone(req.Phone)
	if phone == "" {
		return fmt.Errorf("%w: phone is required", model.ErrValidation)
	}
	code, err := randomDigits(6)
	if err != nil {
		return err
	}
	if err := u.otpStore.Put(ctx, phone, code); err != nil {
		return err
	}
	// No SMS gateway wired yet; delivery is via server logs for now.
	// TODO: plug an SMS provider behind an interface once one is chosen.
	logger.GetLogger().WithField("phone", phone).WithField("code", code).Info("otp issued")
	return nil
}

func (u *authUsecase) VerifyOTP(ctx context.Context, req dto.OTPVerifyRequest) (*dto.AuthResponse, error) {
	phone := normalizePhone(req.Phone)
	if phone == "" || req.Code == "" {
		return nil, fmt.Errorf("%w: phone and code are required", model.ErrValidation)
	}
	ok, err := u.otpStore.Verify(ctx, phone, req.Code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrOTPInvalid
	}

	user, err := u.userRepo.GetByPhone(ctx, phone)
	if errors.Is(err, model.ErrNotFound) {
		user, err = u.provisionPhoneUser(ctx, phone)
	}
	if err != nil {
		return nil, err
	}
	return u.issue(ctx, user)
}

func (u *authUsecase) provisionPhoneUser(ctx context.Context, phone string) (*model.User, error) {
	username, err := u.uniqueUsername(ctx, "user")
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &model.User{
		ID:          uuid.NewString(),
		Username:    username,
		DisplayName: username,
		Phone:       &phone,
		IsVerified:  true,
		IsActive:    true,
		CreatedAt:   now,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *authUsecase) issue(ctx context.Context, user *model.User) (*dto.AuthResponse, error) {
	if !user.IsActive || user.BannedAt != nil {
		return nil, model.ErrUserBanned
	}
	if err := u.userRepo.TouchLastActive(ctx, user.ID); err != nil {
		logger.GetLogger().WithField("error", err).Warn("touch last active failed")
	}
	token, err := utils.GenerateToken(user, u.secretKey)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{Token: token, User: user}, nil
}

func (u *authUsecase) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	return u.userRepo.GetByID(ctx, userID)
}

func (u *authUsecase) UpdateProfile(ctx context.Context, userID, displayName, bio string, avatarURL *string) (*model.User, error) {
	if displayName == "" {
		return nil, fmt.Errorf("%w: display_name is required", model.ErrValidation)
	}
	if err := u.userRepo.UpdateProfile(ctx, userID, displayName, bio, avatarURL); err != nil {
		return nil, err
	}
	return u.userRepo.GetByID(ctx, userID)
}

// uniqueUsername appends a random suffix until the name is free. Collisions
// are rare; five attempts is plenty.
func (u *authUsecase) uniqueUsername(ctx context.Context, base string) (string, error) {
	for i := 0; i < 5; i++ {
		suffix, err := randomDigits(6)
		if err != nil {
			return "", err
		}
		candidate := base + "_" + suffix
		_, err = u.userRepo.GetByUsername(ctx, candidate)
		if errors.Is(err, model.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
	return base + "_" + uuid.NewString()[:8], nil
}

func usernameBase(email, displayName string) string {
	if email != "" {
		if at := strings.IndexByte(email, '@'); at > 0 {
			return sanitizeUsername(email[:at])
		}
	}
	return sanitizeUsername(displayName)
}

func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	out := b.String()
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func randomDigits(n int) (string, error) {
	var b strings.Builder
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteString(d.String())
	}
	return b.String(), nil
}
