package service

import (
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend/internal/models"
	"backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
)

var ( // Define custom errors
	ErrUserAlreadyExists  = errors.New("username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type AuthService interface {
	Signup(username, password string) (*models.User, string, time.Time, error)
	Login(username, password string) (string, time.Time, error)
}

type authService struct {
	repo      repository.AuthRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func NewAuthService(repo repository.AuthRepository, jwtSecret []byte, tokenTTL time.Duration, logger *zap.Logger) AuthService {
	return &authService{
		repo:      repo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// Signup creates a user and returns it together with a fresh token.
func (s *authService) Signup(username, password string) (*models.User, string, time.Time, error) {
	exists, err := s.repo.UsernameExists(username)
	if err != nil {
		s.logger.Error("Failed to check existing username", zap.Error(err))
		return nil, "", time.Time{}, fmt.Errorf("failed to check existing users: %w", err)
	}
	if exists {
		return nil, "", time.Time{}, ErrUserAlreadyExists
	}

	passwordHash, err := s.hashPassword(password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, "", time.Time{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: passwordHash,
	}
	if err := s.repo.CreateUser(user); err != nil {
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, "", time.Time{}, fmt.Errorf("failed to create user: %w", err)
	}

	token, expiresAt, err := s.issueToken(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	s.logger.Info("User registered successfully.", zap.String("username", user.Username))
	return user, token, expiresAt, nil
}

func (s *authService) Login(username, password string) (string, time.Time, error) {
	user, err := s.repo.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, ErrUserNotFound
		}
		s.logger.Error("Failed to get user by username", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if !s.verifyPassword(user.PasswordHash, password) {
		return "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.issueToken(user)
	if err != nil {
		return "", time.Time{}, err
	}

	s.logger.Info("User logged in successfully.", zap.String("username", user.Username))
	return token, expiresAt, nil
}

func (s *authService) issueToken(user *models.User) (string, time.Time, error) {
	expirationTime := time.Now().Add(s.tokenTTL)
	claims := &models.Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		s.logger.Error("Failed to generate JWT token", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, expirationTime, nil
}

// hashPassword uses Argon2id to hash the password.
// Format: $argon2id$v=19$m=65536,t=1,p=4$BASE64_SALT$BASE64_HASH
func (s *authService) hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)

	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedHash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s", argon2.Version, 64*1024, 1, 4, encodedSalt, encodedHash), nil
}

// verifyPassword compares a plaintext password with a stored hash.
func (s *authService) verifyPassword(hashedPassword, password string) bool {
	sections := strings.Split(strings.TrimPrefix(hashedPassword, "$"), "$")
	// Expected: ["argon2id", "v=19", "m=65536,t=1,p=4", "salt", "hash"]
	if len(sections) != 5 || sections[0] != "argon2id" {
		s.logger.Error("Invalid hash format", zap.Int("sections", len(sections)))
		return false
	}

	var m, t uint32
	var p uint8
	if _, err := fmt.Sscanf(sections[2], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		s.logger.Error("Failed to parse hash parameters", zap.Error(err))
		return false
	}

	decodedSalt, err := base64.RawStdEncoding.DecodeString(sections[3])
	if err != nil {
		s.logger.Error("Failed to decode salt", zap.Error(err))
		return false
	}
	decodedHash, err := base64.RawStdEncoding.DecodeString(sections[4])
	if err != nil {
		s.logger.Error("Failed to decode hash", zap.Error(err))
		return false
	}

	comparisonHash := argon2.IDKey([]byte(password), decodedSalt, t, m, p, uint32(len(decodedHash)))

	return subtle.ConstantTimeCompare(comparisonHash, decodedHash) == 1
}
