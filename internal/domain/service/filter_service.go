package service

import (
	"strconv"

	"SpotMap-App/internal/domain/model"
)

// FilterOptions フィード表示に適用するフィルタ条件
type FilterOptions struct {
	BlockList   map[int64]bool    // 非表示にするスポットIDの集合
	FolderScope *int64            // 指定時はこのフォルダの所属スポットのみ残す
	Memberships map[int64][]int64 // フォルダ所属（FolderScope指定時に参照）
	SavedOnly   bool              // 保存済みスポットのみ残す
	Saved       []model.Spot      // 保存済み集合（SavedOnly時に参照）
}

// FilterService 正準集合への読み取り時フィルタを提供するサービス
// 入力を一切変更しない純粋な問い合わせレイヤー
type FilterService interface {
	// Apply ブロックリスト → フォルダスコープ → 保存済みのみ の順で絞り込む
	// 各段は前段の結果を狭めるだけで、入力スライスには書き込まない
	Apply(spots []model.Spot, opts FilterOptions) []model.Spot
}

type filterServiceImpl struct{}

// NewFilterService FilterServiceの新しいインスタンスを作成
func NewFilterService() FilterService {
	return &filterServiceImpl{}
}

// Apply フィルタを適用した新しいスライスを返す
func (s *filterServiceImpl) Apply(spots []model.Spot, opts FilterOptions) []model.Spot {
	result := make([]model.Spot, 0, len(spots))
	result = append(result, spots...)

	if len(opts.BlockList) > 0 {
		result = filterSpots(result, func(spot model.Spot) bool {
			return !opts.BlockList[spot.ID]
		})
	}

	if opts.FolderScope != nil {
		member := make(map[int64]bool)
		for _, id := range opts.Memberships[*opts.FolderScope] {
			member[id] = true
		}
		result = filterSpots(result, func(spot model.Spot) bool {
			return member[spot.ID]
		})
	}

	if opts.SavedOnly {
		// 取得元によってIDが数値と文字列で揺れるため、文字列化して照合する
		saved := make(map[string]bool, len(opts.Saved))
		for _, spot := range opts.Saved {
			saved[strconv.FormatInt(spot.ID, 10)] = true
		}
		result = filterSpots(result, func(spot model.Spot) bool {
			return saved[strconv.FormatInt(spot.ID, 10)]
		})
	}

	return result
}

func filterSpots(spots []model.Spot, keep func(model.Spot) bool) []model.Spot {
	result := make([]model.Spot, 0, len(spots))
	for _, spot := range spots {
		if keep(spot) {
			result = append(result, spot)
		}
	}
	return result
}
