package repository

import (
	"testing"
	"time"

	"github.com/jmvillanueva/grandline/internal/model"
)

// 各実装がインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ ProfileRepository = (*PostgresProfileRepo)(nil)
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
}

func TestNewPostgresProfileRepo_Initializes(t *testing.T) {
	repo := NewPostgresProfileRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

func TestNewPostgresSessionRepo_Initializes(t *testing.T) {
	repo := NewPostgresSessionRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// Profileモデルのフィールドが正しく構築されることを検証
func TestProfileModel_Fields(t *testing.T) {
	now := time.Now()
	profile := &model.Profile{
		UID:         "uid-1",
		Email:       "luffy@example.com",
		DisplayName: "Luffy",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if profile.UID != "uid-1" {
		t.Errorf("profile.UID = %q, want %q", profile.UID, "uid-1")
	}
	if profile.DisplayName != "Luffy" {
		t.Errorf("profile.DisplayName = %q, want %q", profile.DisplayName, "Luffy")
	}
}

// Sessionモデルがトークン一式を保持することを検証
func TestSessionModel_Fields(t *testing.T) {
	now := time.Now()
	session := &model.Session{
		ID:           "session-1",
		UID:          "uid-1",
		IDToken:      "id-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    now.Add(time.Hour),
		CreatedAt:    now,
	}

	if session.IDToken != "id-token" {
		t.Errorf("session.IDToken = %q, want %q", session.IDToken, "id-token")
	}
	if session.RefreshToken != "refresh-token" {
		t.Errorf("session.RefreshToken = %q, want %q", session.RefreshToken, "refresh-token")
	}
	if !session.ExpiresAt.After(now) {
		t.Error("session.ExpiresAt must be in the future")
	}
}
