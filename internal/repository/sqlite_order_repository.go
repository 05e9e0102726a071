package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"SpotMap-App/internal/domain/repository"
	"SpotMap-App/internal/infrastructure/database"
)

// orderDocumentPrefix 並び順ドキュメント名の接頭辞
const orderDocumentPrefix = "order:"

// SQLiteOrderRepository 手動並び順をスコープ別にローカルストアへ保存する実装
type SQLiteOrderRepository struct {
	store *database.LocalStore
}

// NewSQLiteOrderRepository SQLiteOrderRepositoryの新しいインスタンスを作成
func NewSQLiteOrderRepository(store *database.LocalStore) repository.OrderRepository {
	return &SQLiteOrderRepository{
		store: store,
	}
}

// legacyOrderDocument 旧形式の並び順ドキュメント
// 以前はリストを richer なオブジェクトの中に入れて保存していた
type legacyOrderDocument struct {
	UnfiledLocations []int64 `json:"unfiledLocations"`
}

// SaveOrder 並び順をスコープ単位で丸ごと上書きする
func (r *SQLiteOrderRepository) SaveOrder(ctx context.Context, scope string, spotIDs []int64) error {
	if spotIDs == nil {
		spotIDs = []int64{}
	}
	payload, err := json.Marshal(spotIDs)
	if err != nil {
		return fmt.Errorf("並び順のJSONマーシャル失敗: %w", err)
	}

	if err := r.store.PutDocument(ctx, orderDocumentPrefix+scope, string(payload), time.Now()); err != nil {
		return fmt.Errorf("並び順（%s）の保存失敗: %w", scope, err)
	}

	return nil
}

// LoadOrder スコープの並び順を取得する
// 裸のリストと旧形式のラップされたオブジェクトの両方を等価な入力として扱う
func (r *SQLiteOrderRepository) LoadOrder(ctx context.Context, scope string) ([]int64, error) {
	payload, _, err := r.store.GetDocument(ctx, orderDocumentPrefix+scope)
	if err != nil {
		if errors.Is(err, database.ErrDocumentNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("並び順（%s）の読み込み失敗: %w", scope, err)
	}

	var ids []int64
	if err := json.Unmarshal([]byte(payload), &ids); err == nil {
		return ids, nil
	}

	// 旧形式の検出と透過的なアンラップ
	var legacy legacyOrderDocument
	if err := json.Unmarshal([]byte(payload), &legacy); err != nil {
		return nil, fmt.Errorf("並び順（%s）のJSONアンマーシャル失敗: %w", scope, err)
	}

	return legacy.UnfiledLocations, nil
}

// ClearOrder スコープの並び順を削除する
func (r *SQLiteOrderRepository) ClearOrder(ctx context.Context, scope string) error {
	if err := r.store.DeleteDocument(ctx, orderDocumentPrefix+scope); err != nil {
		return fmt.Errorf("並び順（%s）の削除失敗: %w", scope, err)
	}
	return nil
}

// ClearAll 全スコープの並び順を削除する（サインアウト時）
func (r *SQLiteOrderRepository) ClearAll(ctx context.Context) error {
	if err := r.store.DeleteByPrefix(ctx, orderDocumentPrefix); err != nil {
		return fmt.Errorf("並び順の一括削除失敗: %w", err)
	}
	return nil
}
