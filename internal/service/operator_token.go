package service

import (
	"strings"
	"time"

	"github.com/storefront-next/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// OperatorClaims 运营接口 JWT 声明
type OperatorClaims struct {
	Operator string `json:"operator"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IssueOperatorToken 签发运营令牌
func IssueOperatorToken(cfg config.JWTConfig, operator, role string, now time.Time) (string, time.Time, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return "", time.Time{}, ErrJWTSecretMissing
	}
	operator = strings.TrimSpace(operator)
	role = strings.TrimSpace(role)
	if operator == "" || role == "" {
		return "", time.Time{}, ErrOperatorTokenInvalid
	}
	hours := cfg.ExpireHours
	if hours <= 0 {
		hours = 12
	}
	expiresAt := now.Add(time.Duration(hours) * time.Hour)
	claims := OperatorClaims{
		Operator: operator,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   operator,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseOperatorToken 校验运营令牌，issuer 非空时要求一致
func ParseOperatorToken(cfg config.JWTConfig, tokenString string) (*OperatorClaims, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, ErrJWTSecretMissing
	}
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer := strings.TrimSpace(cfg.Issuer); issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}
	claims := &OperatorClaims{}
	token, err := jwt.NewParser(options...).ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrOperatorTokenInvalid
	}
	if strings.TrimSpace(claims.Operator) == "" || strings.TrimSpace(claims.Role) == "" {
		return nil, ErrOperatorTokenInvalid
	}
	return claims, nil
}
