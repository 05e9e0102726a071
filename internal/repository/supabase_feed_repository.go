package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"SpotMap-App/internal/domain/model"
	"SpotMap-App/internal/domain/repository"
	"SpotMap-App/internal/infrastructure/database"
)

// SupabaseFeedRepository Supabase経由でバックエンドの4コレクションを取得する実装
type SupabaseFeedRepository struct {
	client *database.SupabaseClient
}

// NewSupabaseFeedRepository SupabaseFeedRepositoryの新しいインスタンスを作成
func NewSupabaseFeedRepository(client *database.SupabaseClient) repository.FeedRepository {
	return &SupabaseFeedRepository{
		client: client,
	}
}

// FetchSavedSpots 保存済みスポットのフラットリストを取得
func (r *SupabaseFeedRepository) FetchSavedSpots(ctx context.Context, auth *model.AuthContext) ([]model.Spot, error) {
	if auth != nil && auth.Guest {
		// ゲストには保存済みコレクションが存在しない
		return nil, nil
	}

	var spots []model.Spot
	data, count, err := r.client.GetClient().From("saved_spots").Select("*", "exact", false).Execute()
	if err != nil {
		return nil, fmt.Errorf("保存済みスポットの取得失敗: %w", err)
	}
	_ = count

	if err := json.Unmarshal([]byte(data), &spots); err != nil {
		return nil, fmt.Errorf("保存済みスポットのJSONアンマーシャル失敗: %w", err)
	}

	return spots, nil
}

// FetchRecommendedSpots おすすめスポットのフラットリストを取得（ゲストでも取得可能）
func (r *SupabaseFeedRepository) FetchRecommendedSpots(ctx context.Context, auth *model.AuthContext) ([]model.Spot, error) {
	var spots []model.Spot
	data, count, err := r.client.GetClient().From("recommended_spots").Select("*", "exact", false).Execute()
	if err != nil {
		return nil, fmt.Errorf("おすすめスポットの取得失敗: %w", err)
	}
	_ = count

	if err := json.Unmarshal([]byte(data), &spots); err != nil {
		return nil, fmt.Errorf("おすすめスポットのJSONアンマーシャル失敗: %w", err)
	}

	return spots, nil
}

// FetchFolders 所有フォルダとフォロー中フォルダのメタデータを取得
// 片方のコレクションが失敗しても、もう片方が取れていれば部分結果を返す
func (r *SupabaseFeedRepository) FetchFolders(ctx context.Context, auth *model.AuthContext) ([]model.Folder, error) {
	owned, ownedErr := r.fetchFolderCollection("owned_folders")
	followed, followedErr := r.fetchFolderCollection("followed_folders")

	if ownedErr != nil && followedErr != nil {
		return nil, fmt.Errorf("フォルダメタデータの取得失敗: %w", ownedErr)
	}
	if ownedErr != nil {
		log.Printf("⚠️ 所有フォルダの取得に失敗、フォロー中のみで続行: %v", ownedErr)
	}
	if followedErr != nil {
		log.Printf("⚠️ フォロー中フォルダの取得に失敗、所有のみで続行: %v", followedErr)
	}

	for i := range followed {
		if followed[i].Provenance == "" {
			followed[i].Provenance = model.ProvenanceFollowed
		}
	}

	return append(owned, followed...), nil
}

func (r *SupabaseFeedRepository) fetchFolderCollection(table string) ([]model.Folder, error) {
	var folders []model.Folder
	data, count, err := r.client.GetClient().From(table).Select("*", "exact", false).Execute()
	if err != nil {
		return nil, fmt.Errorf("%s の取得失敗: %w", table, err)
	}
	_ = count

	if err := json.Unmarshal([]byte(data), &folders); err != nil {
		return nil, fmt.Errorf("%s のJSONアンマーシャル失敗: %w", table, err)
	}

	return folders, nil
}

// FetchFolderSections personal/shared/followed の3セクションに分かれた
// フォルダ別スポットコレクションを取得
func (r *SupabaseFeedRepository) FetchFolderSections(ctx context.Context, auth *model.AuthContext) (*model.FolderSections, error) {
	var rows []model.FolderSections
	data, count, err := r.client.GetClient().From("feed_sections").Select("*", "exact", false).Execute()
	if err != nil {
		return nil, fmt.Errorf("フォルダ別セクションの取得失敗: %w", err)
	}
	_ = count

	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		return nil, fmt.Errorf("フォルダ別セクションのJSONアンマーシャル失敗: %w", err)
	}

	if len(rows) == 0 {
		return &model.FolderSections{}, nil
	}

	return &rows[0], nil
}

// SaveSpot スポットを保存済みコレクションに追加する
func (r *SupabaseFeedRepository) SaveSpot(ctx context.Context, auth *model.AuthContext, spot *model.Spot) error {
	data, err := json.Marshal(spot)
	if err != nil {
		return fmt.Errorf("スポットのJSONマーシャル失敗: %w", err)
	}

	_, _, err = r.client.GetClient().From("saved_spots").Insert(string(data), false, "", "", "").Execute()
	if err != nil {
		if isLikelyDuplicateError(err) {
			return model.ErrAlreadySaved
		}
		return fmt.Errorf("スポットの保存失敗: %w", err)
	}

	return nil
}

// isLikelyDuplicateError 保存の重複をエラー本文から推定する
// バックエンドは重複保存時にも500を返すことがあるため、文字列で判定している
// TODO: バックエンドに専用のエラーコード(409相当)を追加してもらい、この推定を外す
func isLikelyDuplicateError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "23505") ||
		strings.Contains(msg, "500")
}
