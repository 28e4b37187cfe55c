package utils

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// WalletTokenTTL is how long an access token issued by /access_wallet
// stays valid.
const WalletTokenTTL = 72 * time.Hour

// IssueWalletToken signs a bearer token scoped to one wallet address.
func IssueWalletToken(address string, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"address": address,
		"exp":     time.Now().Add(WalletTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "sign wallet token")
	}
	return signed, nil
}

// WalletAddressFromToken pulls the wallet address from the JWT in the
// Authorization header.
func WalletAddressFromToken(c echo.Context, secret []byte) (string, error) {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return "", errors.New("missing authorization header")
	}

	tokenStr := strings.TrimPrefix(header, "Bearer ")
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		if address, ok := claims["address"].(string); ok {
			return address, nil
		}
	}

	return "", errors.New("invalid token claims")
}
