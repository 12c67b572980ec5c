package service

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"petcare/internal/auth"
	"petcare/internal/repository"
)

type AdminAuthService interface {
	Login(email, password string) (string, error)
	CreateAdmin(email, password string) error
}

type adminAuthService struct {
	repo       repository.AdminAuthRepository
	jwtSecret  string
	sessionTTL time.Duration
}

func NewAdminAuthService(repo repository.AdminAuthRepository, jwtSecret string, sessionTTL time.Duration) AdminAuthService {
	return &adminAuthService{repo: repo, jwtSecret: jwtSecret, sessionTTL: sessionTTL}
}

func (s *adminAuthService) Login(email, password string) (string, error) {
	admin, err := s.repo.GetByEmail(email)
	if err != nil {
		return "", err
	}
	if admin == nil {
		return "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	return auth.IssueAdminToken(s.jwtSecret, admin.ID, admin.Email, s.sessionTTL)
}

func (s *adminAuthService) CreateAdmin(email, password string) error {
	if email == "" || password == "" {
		return errors.New("email and password cannot be empty")
	}
	return s.repo.CreateAdmin(email, password)
}
