package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmvillanueva/grandline/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// Save はプロフィールレコードを作成または更新する。
// 登録時の作成と表示名変更時の更新の両方で使用するためUPSERTにする。
// created_atは初回作成時の値を保持する。
func (r *PostgresProfileRepo) Save(ctx context.Context, profile *model.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (uid, email, display_name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (uid) DO UPDATE
		 SET email = EXCLUDED.email,
		     display_name = EXCLUDED.display_name,
		     updated_at = EXCLUDED.updated_at`,
		profile.UID, profile.Email, profile.DisplayName, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// Find は指定UIDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) Find(ctx context.Context, uid string) (*model.Profile, error) {
	profile := &model.Profile{}
	err := r.db.QueryRowContext(ctx,
		`SELECT uid, email, display_name, created_at, updated_at
		 FROM profiles
		 WHERE uid = $1`,
		uid,
	).Scan(&profile.UID, &profile.Email, &profile.DisplayName, &profile.CreatedAt, &profile.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	return profile, nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
