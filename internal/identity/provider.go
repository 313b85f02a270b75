// Package identity は外部IDプロバイダーとの連携を提供する。
// アカウント作成・認証・プロフィール更新・パスワード再設定メール送信と、
// ドキュメントストアにミラーリングされたプロフィールのマージを含む。
package identity

import (
	"context"
	"fmt"
	"time"
)

// Account はIDプロバイダーが保持するアカウント情報を表す。
type Account struct {
	UID         string
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

// Credentials はIDプロバイダーが発行するセッショントークンを表す。
type Credentials struct {
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// AuthResult はサインアップ・サインイン成功時の結果を表す。
type AuthResult struct {
	Account     Account
	Credentials Credentials
}

// Provider はIDプロバイダーのREST APIインターフェース。
// 将来的に別プロバイダーに差し替え可能にするための抽象化。
// 各メソッドはAPIがエラーコードを返した場合*FaultErrorを返す。
type Provider interface {
	// SignUp はメールアドレスとパスワードで新規アカウントを作成する。
	SignUp(ctx context.Context, email, password string) (*AuthResult, error)

	// SignInWithPassword はメールアドレスとパスワードで認証する。
	SignInWithPassword(ctx context.Context, email, password string) (*AuthResult, error)

	// UpdateAccount は認証済みアカウントの表示名を更新する。
	UpdateAccount(ctx context.Context, idToken, displayName string) error

	// Lookup はIDトークンに対応するアカウント情報を取得する。
	Lookup(ctx context.Context, idToken string) (*Account, error)

	// SendPasswordResetEmail はパスワード再設定メールの送信を要求する。
	SendPasswordResetEmail(ctx context.Context, email string) error

	// RefreshIDToken はリフレッシュトークンで新しいIDトークンを取得する。
	RefreshIDToken(ctx context.Context, refreshToken string) (*Credentials, error)
}

// FaultError はIDプロバイダーAPIが返したエラーコードを保持する。
// コードからエラー分類への変換はfaults.goのマッピングテーブルで行う。
type FaultError struct {
	Code       string // 正規化済みエラーコード（例: EMAIL_EXISTS）
	StatusCode int    // HTTPステータスコード
}

// Error はerrorインターフェースを実装する。
func (e *FaultError) Error() string {
	return fmt.Sprintf("identity provider fault %s (http %d)", e.Code, e.StatusCode)
}
