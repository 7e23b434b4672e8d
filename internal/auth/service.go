// Service layer of the internal package authentication.

package auth

import (
	"Saffron/internal/entity"
	"Saffron/internal/errors"
	"Saffron/internal/user"
	"Saffron/pkg/log"
	"context"
	goerrors "errors"
	"fmt"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidToken is returned for a token which is malformed, expired or signed with another key.
	ErrInvalidToken = goerrors.New("auth: invalid token")
	// ErrNotPrivileged is returned for a valid token which doesn't carry the admin role.
	ErrNotPrivileged = goerrors.New("auth: token is not privileged")
	// ErrRevoked is returned for a token which was logged out.
	ErrRevoked = goerrors.New("auth: token revoked")
)

// Claims carried by every Saffron access token.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier checks access tokens presented by admin clients.
type Verifier interface {
	// VerifyPrivilegedToken returns the claims of token if it is valid, unrevoked and carries the admin role.
	VerifyPrivilegedToken(ctx context.Context, token string) (*Claims, error)
}

// Service layer of internal package auth which encapsulates authentication logic of Saffron.
type Service interface {
	Verifier
	// Logs an admin in, returning a fresh access token
	login(context.Context, entity.UserLogin) (Token, error)
	// Revokes the access token described by claims
	logout(context.Context, *Claims) error
}

// Token is a signed access token with its expiry.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Object of this will be passed around from main to routers to API.
// Helps to access the service layer interface and call methods.
// Also helps to pass objects to be used from outer layer.
type service struct {
	accSigningKey string
	accTokenTTL   time.Duration
	userrepo      user.Repository
	authrepo      Repository
	logger        log.Logger
}

// Helps to access the service layer interface and call methods. Service object is passed from main.
func NewService(accSigningKey string, accTokenTTL time.Duration, userrepo user.Repository, authrepo Repository, logger log.Logger) Service {
	if accTokenTTL <= 0 {
		accTokenTTL = 12 * time.Hour
	}
	return service{accSigningKey, accTokenTTL, userrepo, authrepo, logger}
}

func (s service) login(ctx context.Context, ul entity.UserLogin) (Token, error) {
	if _, valerr := govalidator.ValidateStruct(ul); valerr != nil {
		if errs, ok := valerr.(govalidator.Errors); ok {
			return Token{}, errors.GenerateValidationErrorResponse(errs.Errors())
		}
		return Token{}, errors.BadRequest("")
	}
	ue, dberr := s.userrepo.GetUser(ctx, s.logger, ul.Username)
	if dberr != nil {
		if resp, ok := dberr.(errors.ErrorResponse); ok && resp.Status == 404 {
			// Don't leak which usernames exist
			return Token{}, errors.Unauthorized("Invalid username or password")
		}
		return Token{}, dberr
	}
	if !s.verifyPwDHash(ul.Password, ue.Password) {
		return Token{}, errors.Unauthorized("Invalid username or password")
	}
	role := ue.Role
	if role == "" {
		role = entity.RoleAdmin
	}
	token, jwterr := s.createToken(ctx, ue.Username, role)
	if jwterr != nil {
		return Token{}, errors.InternalServerError("")
	}
	s.logger.WithCtx(ctx).Info().Str("username", ue.Username).Msg("Admin logged in")
	return token, nil
}

func (s service) logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return errors.Unauthorized("")
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	return s.authrepo.RevokeToken(ctx, s.logger, claims.ID, ttl)
}

func (s service) VerifyPrivilegedToken(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, err
	}
	if claims.Role != entity.RoleAdmin {
		return nil, ErrNotPrivileged
	}
	revoked, dberr := s.authrepo.IsRevoked(ctx, s.logger, claims.ID)
	if dberr != nil {
		return nil, dberr
	} else if revoked {
		return nil, ErrRevoked
	}
	return claims, nil
}

// Helper to parse token and check its signing method.
func (s service) parseToken(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		// Check the signing method
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method found: %v", t.Header["alg"])
		}
		return []byte(s.accSigningKey), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Helper to verify incoming password with the actual hash of user's set password.
// Helpful during login verification of an admin in Saffron.
func (s service) verifyPwDHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Helper to create and sign an access token for username.
func (s service) createToken(ctx context.Context, username, role string) (Token, error) {
	now := time.Now()
	expiresAt := now.Add(s.accTokenTTL)
	claims := Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, jwterr := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.accSigningKey))
	if jwterr != nil {
		s.logger.WithCtx(ctx).Error().Err(jwterr).Msg("Error occured during JWT generation")
		return Token{}, jwterr
	}
	return Token{AccessToken: signed, ExpiresAt: expiresAt}, nil
}
