// Package model はドメインモデルを定義する。
package model

import "time"

// User は認証済みユーザーを表す。
// IDプロバイダーのアカウント情報とミラーリングされたプロフィール
// ドキュメントをマージした結果であり、所有権はidentityゲートウェイにある。
type User struct {
	ID          string // IDプロバイダーが発行する不変のサブジェクトID
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

// Profile はドキュメントストアにミラーリングされるプロフィールレコードを表す。
// アカウントIDをキーとして登録時に作成され、表示名の変更時に更新される。
// マージ時にはプロバイダー側のプロフィールフィールドよりこちらが優先される。
type Profile struct {
	UID         string
	Email       string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session はAPIサーバーが発行するログインセッションを表す。
// IDプロバイダーのトークンを保持し、リクエストごとのゲートウェイ再構築に使用する。
type Session struct {
	ID           string
	UID          string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}
