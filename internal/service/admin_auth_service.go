package service

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"fieldservice/internal/repository"
)

type DispatcherAuthService interface {
	Login(email, password string) (string, error)
	CreateDispatcher(companyID, email, password string) error
}

type dispatcherAuthService struct {
	repo repository.DispatcherAuthRepository
}

func NewDispatcherAuthService(repo repository.DispatcherAuthRepository) DispatcherAuthService {
	return &dispatcherAuthService{repo: repo}
}

func (s *dispatcherAuthService) Login(email, password string) (string, error) {
	dispatcher, err := s.repo.GetByEmail(email)
	if err != nil {
		return "", err
	}
	if dispatcher == nil {
		return "", errors.New("invalid credentials")
	}

	err = bcrypt.CompareHashAndPassword([]byte(dispatcher.PasswordHash), []byte(password))
	if err != nil {
		return "", errors.New("invalid credentials")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", errors.New("JWT_SECRET not set")
	}

	claims := jwt.MapClaims{
		"dispatcher_id": dispatcher.ID,
		"company_id":    dispatcher.CompanyID,
		"email":         dispatcher.Email,
		"exp":           time.Now().Add(time.Hour * 8).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func (s *dispatcherAuthService) CreateDispatcher(companyID, email, password string) error {
	if companyID == "" || email == "" || password == "" {
		return errors.New("company, email and password cannot be empty")
	}

	return s.repo.CreateDispatcher(companyID, email, password)
}
