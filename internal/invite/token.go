// Package invite issues and verifies the signed tokens that let a recipient
// join a family and let a browser read a family's dashboard.
package invite

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const Issuer = "babycare"

const (
	AudienceInvite    = "invite"
	AudienceDashboard = "dashboard"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims are the verified contents of a token.
type Claims struct {
	FamilyID  int64
	Audience  string
	JWTID     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	jwt.RegisteredClaims
	FamilyID int64 `json:"family_id"`
}

type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner creates an HS256 signer. now may be nil.
func NewSigner(secret string, now func() time.Time) *Signer {
	if now == nil {
		now = time.Now
	}
	return &Signer{secret: []byte(secret), now: now}
}

// Issue signs a token for familyID valid for ttl.
func (s *Signer) Issue(audience string, familyID int64, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("token signer is not configured")
	}
	now := s.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{audience},
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		FamilyID: familyID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", audience, err)
	}
	return token, nil
}

func (s *Signer) IssueInvite(familyID int64, ttl time.Duration) (string, error) {
	return s.Issue(AudienceInvite, familyID, ttl)
}

func (s *Signer) IssueDashboard(familyID int64, ttl time.Duration) (string, error) {
	return s.Issue(AudienceDashboard, familyID, ttl)
}

// Parse verifies signature, issuer, audience and expiry.
func (s *Signer) Parse(token, audience string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, fmt.Errorf("%w: empty", ErrInvalidToken)
	}

	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if parsed.FamilyID <= 0 {
		return Claims{}, fmt.Errorf("%w: missing family", ErrInvalidToken)
	}

	c := Claims{
		FamilyID:  parsed.FamilyID,
		Audience:  audience,
		JWTID:     parsed.ID,
		ExpiresAt: parsed.ExpiresAt.Time,
	}
	if parsed.IssuedAt != nil {
		c.IssuedAt = parsed.IssuedAt.Time
	}
	return c, nil
}

func (s *Signer) ParseInvite(token string) (Claims, error) {
	return s.Parse(token, AudienceInvite)
}

func (s *Signer) ParseDashboard(token string) (Claims, error) {
	return s.Parse(token, AudienceDashboard)
}
