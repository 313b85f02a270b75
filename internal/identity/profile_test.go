package identity

import (
	"testing"
	"time"

	"github.com/jmvillanueva/grandline/internal/model"
)

func TestMergeProfile(t *testing.T) {
	providerCreated := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	storeCreated := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

	account := &Account{
		UID:         "uid-1",
		Email:       "luffy@example.com",
		DisplayName: "Provider Name",
		CreatedAt:   providerCreated,
	}

	tests := []struct {
		name            string
		account         *Account
		profile         *model.Profile
		wantDisplayName string
		wantCreatedAt   time.Time
	}{
		{
			name:            "レコード有り: ストア側を優先",
			account:         account,
			profile:         &model.Profile{UID: "uid-1", DisplayName: "Store Name", CreatedAt: storeCreated},
			wantDisplayName: "Store Name",
			wantCreatedAt:   storeCreated,
		},
		{
			name:            "レコード無し: プロバイダー側にフォールバック",
			account:         account,
			profile:         nil,
			wantDisplayName: "Provider Name",
			wantCreatedAt:   providerCreated,
		},
		{
			name:            "レコード有りだがフィールドが空: 空フィールドのみ補完",
			account:         account,
			profile:         &model.Profile{UID: "uid-1"},
			wantDisplayName: "Provider Name",
			wantCreatedAt:   providerCreated,
		},
		{
			name:            "両方空: 空のまま",
			account:         &Account{UID: "uid-1", Email: "luffy@example.com"},
			profile:         &model.Profile{UID: "uid-1"},
			wantDisplayName: "",
			wantCreatedAt:   time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := MergeProfile(tt.account, tt.profile)

			if user.ID != "uid-1" {
				t.Errorf("ID = %q, want %q", user.ID, "uid-1")
			}
			if user.Email != "luffy@example.com" {
				t.Errorf("Email = %q, want %q", user.Email, "luffy@example.com")
			}
			if user.DisplayName != tt.wantDisplayName {
				t.Errorf("DisplayName = %q, want %q", user.DisplayName, tt.wantDisplayName)
			}
			if !user.CreatedAt.Equal(tt.wantCreatedAt) {
				t.Errorf("CreatedAt = %v, want %v", user.CreatedAt, tt.wantCreatedAt)
			}
		})
	}
}

func TestMergeProfile_EmailFallback(t *testing.T) {
	account := &Account{UID: "uid-2"}
	profile := &model.Profile{UID: "uid-2", Email: "zoro@example.com"}

	user := MergeProfile(account, profile)
	if user.Email != "zoro@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "zoro@example.com")
	}
}
