package model

import (
	"errors"
	"fmt"
	"time"
)

// ProvenanceConstants フォルダの出所を表す定数
const (
	ProvenancePersonal = "personal"
	ProvenanceShared   = "shared"
	ProvenanceFollowed = "followed"
)

// ScopeConstants 手動並び順のスコープ定数
const (
	// フォルダ未所属スポットの並び順スコープ
	ScopeUnfiled = "unfiled"
)

// FolderScope フォルダIDから並び順スコープ名を生成する
func FolderScope(folderID int64) string {
	return fmt.Sprintf("folder:%d", folderID)
}

// ProvenanceNameMap は出所IDから日本語名へのマッピング
var ProvenanceNameMap = map[string]string{
	ProvenancePersonal: "自分のフォルダ",
	ProvenanceShared:   "共有フォルダ",
	ProvenanceFollowed: "フォロー中フォルダ",
}

// GetProvenanceJapaneseName は出所IDから日本語名を取得する
func GetProvenanceJapaneseName(provenance string) string {
	if name, ok := ProvenanceNameMap[provenance]; ok {
		return name
	}
	return provenance // デフォルトはそのまま返す
}

// GetAllProvenances は全出所の一覧を取得する
func GetAllProvenances() []string {
	return []string{
		ProvenancePersonal,
		ProvenanceShared,
		ProvenanceFollowed,
	}
}

// ErrAlreadySaved スポットが既に保存済みであることを表すエラー
// バックエンドが重複保存時に5xxを返す暫定仕様への対応で使用する
var ErrAlreadySaved = errors.New("スポットは既に保存済みです")

// FallbackSpots ネットワーク完全失敗時に表示する組み込みサンプルスポット
// 地図が空にならないことを保証するための最小データセット
func FallbackSpots() []Spot {
	created := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	return []Spot{
		{
			ID:          -1,
			Title:       "鴨川デルタ",
			Description: "川辺でひと休みできる定番スポット",
			Emoji:       "🏞️",
			Coordinate:  &Coordinate{Latitude: 35.0300, Longitude: 135.7719},
			Valid:       true,
			CreatedAt:   created,
		},
		{
			ID:          -2,
			Title:       "錦市場",
			Description: "食べ歩きの動画が多い商店街",
			Emoji:       "🍡",
			Coordinate:  &Coordinate{Latitude: 35.0050, Longitude: 135.7649},
			Valid:       true,
			CreatedAt:   created,
		},
		{
			ID:          -3,
			Title:       "伏見稲荷大社",
			Description: "千本鳥居の撮影スポット",
			Emoji:       "⛩️",
			Coordinate:  &Coordinate{Latitude: 34.9671, Longitude: 135.7727},
			Valid:       true,
			CreatedAt:   created,
		},
	}
}

// FallbackPayload サンプルスポットをフェッチ結果と同じ形に包む
func FallbackPayload() *RawFeedPayload {
	return &RawFeedPayload{
		Recommended: FallbackSpots(),
		Sections:    &FolderSections{},
	}
}
