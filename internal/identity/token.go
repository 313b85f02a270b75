package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IDトークンはプロバイダー側で署名検証済みのものを受け取るため、
// ここでは署名検証を行わずクレームの読み取りのみ行う。

// tokenParser は共有のJWTパーサー。
var tokenParser = jwt.NewParser()

// TokenSubject はIDトークンのsubクレーム（アカウントUID）を返す。
func TokenSubject(idToken string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := tokenParser.ParseUnverified(idToken, claims); err != nil {
		return "", fmt.Errorf("failed to parse id token: %w", err)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("id token has no subject claim")
	}
	return sub, nil
}

// TokenExpiresAt はIDトークンのexpクレームを返す。
// expが無い場合はゼロ値を返す。
func TokenExpiresAt(idToken string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := tokenParser.ParseUnverified(idToken, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse id token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}
