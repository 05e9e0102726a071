package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"SpotMap-App/internal/domain/model"
	"SpotMap-App/internal/domain/repository"
	"SpotMap-App/internal/infrastructure/database"
)

// snapshotDocumentName スナップショットの固定ドキュメント名
const snapshotDocumentName = "feed_snapshot"

// SQLiteSnapshotRepository ローカルストアに永続スナップショットを保存する実装
type SQLiteSnapshotRepository struct {
	store *database.LocalStore
}

// NewSQLiteSnapshotRepository SQLiteSnapshotRepositoryの新しいインスタンスを作成
func NewSQLiteSnapshotRepository(store *database.LocalStore) repository.SnapshotRepository {
	return &SQLiteSnapshotRepository{
		store: store,
	}
}

// Save スナップショット全体を書き込み時刻付きで丸ごと上書きする
func (r *SQLiteSnapshotRepository) Save(ctx context.Context, snapshot *model.CachedSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("スナップショットがnilです")
	}
	now := time.Now()
	snapshot.StoredAt = now

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("スナップショットのJSONマーシャル失敗: %w", err)
	}

	if err := r.store.PutDocument(ctx, snapshotDocumentName, string(payload), now); err != nil {
		return fmt.Errorf("スナップショットの保存失敗: %w", err)
	}

	return nil
}

// Load 保存済みスナップショットを取得する
// 未保存の場合は (nil, nil) を返す（キャッシュミス）
func (r *SQLiteSnapshotRepository) Load(ctx context.Context) (*model.CachedSnapshot, error) {
	payload, _, err := r.store.GetDocument(ctx, snapshotDocumentName)
	if err != nil {
		if errors.Is(err, database.ErrDocumentNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("スナップショットの読み込み失敗: %w", err)
	}

	var snapshot model.CachedSnapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return nil, fmt.Errorf("スナップショットのJSONアンマーシャル失敗: %w", err)
	}

	return &snapshot, nil
}

// Clear サインアウト時にスナップショットを削除する
// 別アカウントへのデータ漏れを防ぐ
func (r *SQLiteSnapshotRepository) Clear(ctx context.Context) error {
	if err := r.store.DeleteDocument(ctx, snapshotDocumentName); err != nil {
		return fmt.Errorf("スナップショットの削除失敗: %w", err)
	}
	return nil
}
