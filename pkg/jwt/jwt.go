package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptySecret el secreto de firma no está configurado.
var ErrEmptySecret = errors.New("jwt: secret vacío")

// Claims claims estándar más los campos que necesita el servicio de stock.
// Role permite autorizar sin consultar la DB: admin, manager, technician o cashier.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
}

// Generate firma un token HS256. En producción los tokens los emite el servicio de
// identidad; aquí se usa en tests y herramientas locales.
func Generate(secret, userID, companyID, role, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:    userID,
		CompanyID: companyID,
		Role:      role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseOption ajusta la validación de Parse.
type ParseOption func(*[]jwt.ParserOption)

// WithIssuer exige que el claim iss coincida.
func WithIssuer(issuer string) ParseOption {
	return func(o *[]jwt.ParserOption) {
		if issuer != "" {
			*o = append(*o, jwt.WithIssuer(issuer))
		}
	}
}

// WithLeeway tolera desfase de reloj al validar exp/iat.
func WithLeeway(d time.Duration) ParseOption {
	return func(o *[]jwt.ParserOption) { *o = append(*o, jwt.WithLeeway(d)) }
}

// Parse valida firma (solo HS256), expiración y las opciones dadas, y devuelve userID, companyID y role.
func Parse(secret, tokenString string, opts ...ParseOption) (userID, companyID, role string, err error) {
	if secret == "" {
		return "", "", "", ErrEmptySecret
	}
	parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	for _, opt := range opts {
		opt(&parserOpts)
	}
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, parserOpts...)
	if err != nil {
		return "", "", "", fmt.Errorf("jwt: %w", err)
	}
	if !token.Valid {
		return "", "", "", fmt.Errorf("jwt: claims inválidos")
	}
	return claims.UserID, claims.CompanyID, claims.Role, nil
}
