// Package token はステートレスなセッショントークンの発行と検証を提供する。
//
// トークンはHMAC-SHA256で署名されたJWTであり、サーバー側には保存しない。
// 有効性は署名と有効期限のみで判定する。
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/taskman/internal/model"
)

// Claims はトークンに埋め込むクレームを表す。
// ユーザーIDと発行・失効時刻のみを持つ。
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Issuer はセッショントークンを発行・検証する。
// 署名鍵以外の状態を持たない。
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer はIssuerを生成する。
// secretが空の場合はエラーを返す（起動時の致命的条件）。
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("署名鍵が設定されていません")
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
	}, nil
}

// Issue は指定ユーザーIDの署名付きトークンを発行する。
func (i *Issuer) Issue(userID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗しました: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証し、埋め込まれたユーザーIDを返す。
// 署名不正・形式不正・期限切れはすべて未認証エラーに集約される。
// 副作用はない。
func (i *Issuer) Verify(tokenStr string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// HMAC以外の署名方式（alg none等）を拒否する
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return "", model.NewUnauthenticatedError()
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return "", model.NewUnauthenticatedError()
	}

	return claims.UserID, nil
}
