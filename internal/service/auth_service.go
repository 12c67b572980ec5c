package service

import (
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	verify "github.com/twilio/twilio-go/rest/verify/v2"

	"petcare/internal/auth"
	"petcare/internal/config"
	"petcare/internal/db"
	"petcare/internal/entities"
	"petcare/internal/repository"
)

var ErrOTPRejected = errors.New("verification code rejected")

// AuthService runs the phone-OTP login against Twilio Verify and turns a
// passed check into a stored user plus a signed session token. The role on
// the user row travels inside the token and is re-read per request.
type AuthService struct {
	cfg    config.Config
	users  *repository.UserRepository
	twilio *twilio.RestClient
}

func NewAuthService(cfg config.Config, users *repository.UserRepository) *AuthService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return &AuthService{cfg: cfg, users: users, twilio: client}
}

// StartOTP asks Twilio Verify to challenge the phone number. Rate limiting
// and code expiry are enforced by Twilio.
func (s *AuthService) StartOTP(phone string) error {
	params := &verify.CreateVerificationParams{}
	params.SetTo(phone)
	params.SetChannel("sms")

	_, err := s.twilio.VerifyV2.CreateVerification(s.cfg.TwilioVerifySID, params)
	if err != nil {
		return fmt.Errorf("start verification: %w", err)
	}
	return nil
}

// CheckOTP verifies the code, upserts the user keyed by phone, and issues a
// session token carrying the stored role.
func (s *AuthService) CheckOTP(phone, code string) (*entities.AuthResponse, error) {
	params := &verify.CreateVerificationCheckParams{}
	params.SetTo(phone)
	params.SetCode(code)

	check, err := s.twilio.VerifyV2.CreateVerificationCheck(s.cfg.TwilioVerifySID, params)
	if err != nil {
		return nil, fmt.Errorf("check verification: %w", err)
	}
	if check.Status == nil || *check.Status != "approved" {
		return nil, ErrOTPRejected
	}

	user, err := s.users.UpsertByPhone(phone)
	if err != nil {
		return nil, err
	}

	token, err := auth.IssueUserToken(s.cfg.JWTSecret, user, s.cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	return &entities.AuthResponse{
		Token: token,
		User:  toUserResponse(user),
	}, nil
}

func (s *AuthService) GetProfile(userID int) (*entities.UserResponse, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *AuthService) UpdateProfile(userID int, req entities.UpdateProfileRequest) error {
	return s.users.UpdateProfile(userID, req.Name, req.Email)
}

func toUserResponse(user *db.User) entities.UserResponse {
	return entities.UserResponse{
		ID:    user.ID,
		Phone: user.Phone,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}
