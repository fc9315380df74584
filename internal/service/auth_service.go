package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/openmusic-api/internal/apperror"
	"github.com/iliyamo/openmusic-api/internal/model"
	"github.com/iliyamo/openmusic-api/internal/repository"
	"github.com/iliyamo/openmusic-api/internal/utils"
)

// AuthConfig carries the token and hashing settings.
type AuthConfig struct {
	AccessSecret   string
	RefreshSecret  string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

// TokenPair is returned by Login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthService registers users and issues, refreshes and revokes tokens.
type AuthService struct {
	users  UserStore
	tokens TokenStore
	cfg    AuthConfig
}

func NewAuthService(users UserStore, tokens TokenStore, cfg AuthConfig) *AuthService {
	return &AuthService{users: users, tokens: tokens, cfg: cfg}
}

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
}

// Register creates a user and returns its id.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	if err := firstErr(
		required("username", in.Username),
		required("password", in.Password),
		required("fullname", in.Fullname),
		lengthBetween("username", in.Username, 3, 30),
		lengthBetween("password", in.Password, 6, 0),
		lengthBetween("fullname", in.Fullname, 3, 50),
	); err != nil {
		return "", err
	}

	taken, err := s.users.UsernameExists(ctx, in.Username)
	if err != nil {
		return "", apperror.Server("check username", err)
	}
	if taken {
		return "", apperror.Conflict(fmt.Sprintf("Username %s already exists", in.Username))
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return "", apperror.Server("hash password", err)
	}
	u := &model.User{Username: in.Username, PasswordHash: hash, Fullname: in.Fullname}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return "", apperror.Conflict(fmt.Sprintf("Username %s already exists", in.Username))
		}
		return "", apperror.Server("create user", err)
	}
	return u.ID, nil
}

// Login checks the credentials and returns a fresh token pair.  Unknown
// usernames and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, username, password string) (TokenPair, error) {
	if err := firstErr(required("username", username), required("password", password)); err != nil {
		return TokenPair{}, err
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return TokenPair{}, apperror.Unauthorized("Invalid username or password")
		}
		return TokenPair{}, apperror.Server("load user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return TokenPair{}, apperror.Unauthorized("Invalid username or password")
	}

	at, err := utils.NewAccessToken(s.cfg.AccessSecret, u.ID, u.Username, s.cfg.AccessTTLMin)
	if err != nil {
		return TokenPair{}, apperror.Server("sign access token", err)
	}
	rt, err := utils.NewRefreshToken(s.cfg.RefreshSecret, u.ID, u.Username, s.cfg.RefreshTTLDays)
	if err != nil {
		return TokenPair{}, apperror.Server("sign refresh token", err)
	}
	if err := s.tokens.Store(ctx, u.ID, utils.HashRefreshRaw(rt.Raw)); err != nil {
		return TokenPair{}, apperror.Server("store refresh token", err)
	}
	return TokenPair{AccessToken: at.Token, RefreshToken: rt.Raw}, nil
}

// Refresh returns a new access token for a live refresh token.  Unknown or
// malformed tokens are a BadRequest; an expired one is removed and reported
// as Unauthorized.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if err := required("refreshToken", refreshToken); err != nil {
		return "", err
	}
	hash := utils.HashRefreshRaw(refreshToken)
	ok, err := s.tokens.Exists(ctx, hash)
	if err != nil {
		return "", apperror.Server("check refresh token", err)
	}
	if !ok {
		return "", apperror.BadRequest("Invalid refresh token")
	}

	claims, err := utils.ParseToken(s.cfg.RefreshSecret, refreshToken)
	if err != nil {
		if expired(s.cfg.RefreshSecret, refreshToken) {
			_ = s.tokens.Delete(ctx, hash)
			return "", apperror.Unauthorized("Refresh token expired")
		}
		return "", apperror.BadRequest("Invalid refresh token")
	}

	at, err := utils.NewAccessToken(s.cfg.AccessSecret, claims.Subject, claims.Username, s.cfg.AccessTTLMin)
	if err != nil {
		return "", apperror.Server("sign access token", err)
	}
	return at.Token, nil
}

// Logout revokes a refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := required("refreshToken", refreshToken); err != nil {
		return err
	}
	if err := s.tokens.Delete(ctx, utils.HashRefreshRaw(refreshToken)); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return apperror.BadRequest("Invalid refresh token")
		}
		return apperror.Server("delete refresh token", err)
	}
	return nil
}

// VerifyAccess validates an access token and returns its claims.
func (s *AuthService) VerifyAccess(token string) (*utils.Claims, error) {
	claims, err := utils.ParseToken(s.cfg.AccessSecret, token)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid access token")
	}
	return claims, nil
}

// expired reports whether raw carries a valid signature but is past its expiry.
func expired(secret, raw string) bool {
	_, err := jwt.ParseWithClaims(raw, &utils.Claims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return errors.Is(err, jwt.ErrTokenExpired)
}
