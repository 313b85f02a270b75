package identity

import (
	"github.com/jmvillanueva/grandline/internal/model"
)

// MergeProfile はプロバイダーのアカウント情報とミラーリングされた
// プロフィールレコードを統合してUserを組み立てる。
// プロフィールレコードが存在する場合、その表示名と作成日時を優先し、
// 空のフィールドのみプロバイダー側の値で補完する。
// レコードが無い場合（nil）はプロバイダー側の値をそのまま使う。
func MergeProfile(account *Account, profile *model.Profile) *model.User {
	user := &model.User{
		ID:          account.UID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		CreatedAt:   account.CreatedAt,
	}
	if profile == nil {
		return user
	}

	if profile.DisplayName != "" {
		user.DisplayName = profile.DisplayName
	}
	if !profile.CreatedAt.IsZero() {
		user.CreatedAt = profile.CreatedAt
	}
	if user.Email == "" {
		user.Email = profile.Email
	}
	return user
}
