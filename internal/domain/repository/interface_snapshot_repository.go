package repository

import (
	"context"

	"SpotMap-App/internal/domain/model"
)

// SnapshotRepository 最終フェッチ結果の永続スナップショットを管理する
type SnapshotRepository interface {
	// Save スナップショット全体を書き込み時刻付きで丸ごと上書きする
	Save(ctx context.Context, snapshot *model.CachedSnapshot) error

	// Load 保存済みスナップショットを取得する
	// 未保存の場合は (nil, nil) を返す（キャッシュミス）
	Load(ctx context.Context) (*model.CachedSnapshot, error)

	// Clear サインアウト時にスナップショットを削除する
	Clear(ctx context.Context) error
}
