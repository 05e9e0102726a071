package repository

import (
	"context"

	"SpotMap-App/internal/domain/model"
)

// FeedRepository バックエンドの4コレクションへのアクセスを抽象化する
type FeedRepository interface {
	// FetchSavedSpots 保存済みスポットのフラットリストを取得
	FetchSavedSpots(ctx context.Context, auth *model.AuthContext) ([]model.Spot, error)

	// FetchRecommendedSpots おすすめスポットのフラットリストを取得（ゲストでも取得可能）
	FetchRecommendedSpots(ctx context.Context, auth *model.AuthContext) ([]model.Spot, error)

	// FetchFolders 所有フォルダとフォロー中フォルダのメタデータを取得
	FetchFolders(ctx context.Context, auth *model.AuthContext) ([]model.Folder, error)

	// FetchFolderSections personal/shared/followed の3セクションに分かれた
	// フォルダ別スポットコレクションを取得
	FetchFolderSections(ctx context.Context, auth *model.AuthContext) (*model.FolderSections, error)

	// SaveSpot スポットを保存済みコレクションに追加する
	// 既に保存済みの場合は model.ErrAlreadySaved を返す
	SaveSpot(ctx context.Context, auth *model.AuthContext, spot *model.Spot) error
}
