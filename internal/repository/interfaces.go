// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/jmvillanueva/grandline/internal/model"
)

// ProfileRepository はミラーリングされたプロフィールレコードの永続化インターフェース。
// identity.GatewayのProfileStoreとして使用される。
type ProfileRepository interface {
	// Save はプロフィールレコードを作成または更新する（UPSERT）。
	Save(ctx context.Context, profile *model.Profile) error

	// Find は指定UIDのプロフィールを取得する。見つからない場合はnilを返す。
	Find(ctx context.Context, uid string) (*model.Profile, error)
}

// SessionRepository はログインセッションの永続化インターフェース。
// IDプロバイダーのトークンを保持し、リクエストごとのセッション再構築に使用する。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。期限切れの場合もnilではなく返す。
	// トークンの期限切れはゲートウェイ側がリフレッシュで解決するため、
	// ここでは絶対期限（作成から30日）を超えたものだけを除外する。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// UpdateTokens はトークンリフレッシュ後のセッションを更新する。
	UpdateTokens(ctx context.Context, session *model.Session) error

	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error

	// DeleteByUID は指定アカウントの全セッションを削除する。
	DeleteByUID(ctx context.Context, uid string) error
}
