package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Nicksoucy/talentsecure-sub001/internal/model"
)

type Claims struct {
	ClientID string `json:"client_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

// Parse validates an access token and extracts the caller principal.
func (p *Parser) Parse(token string) (model.Principal, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return model.Principal{}, err
	}
	if !parsed.Valid {
		return model.Principal{}, fmt.Errorf("invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Principal{}, fmt.Errorf("invalid subject: %w", err)
	}

	principal := model.Principal{
		UserID: userID,
		Role:   model.Role(claims.Role),
	}
	if claims.ClientID != "" {
		clientID, err := uuid.Parse(claims.ClientID)
		if err != nil {
			return model.Principal{}, fmt.Errorf("invalid client_id: %w", err)
		}
		principal.ClientID = clientID
	}

	switch principal.Role {
	case model.RoleClient, model.RoleStaff:
	default:
		return model.Principal{}, fmt.Errorf("unknown role %q", claims.Role)
	}
	return principal, nil
}
