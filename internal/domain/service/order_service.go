package service

import "SpotMap-App/internal/domain/model"

// OrderService 保存済みの手動並び順と現在の集合をマージするサービス
type OrderService interface {
	// ApplyOrder 保存済み並び順を現在の集合に適用する
	// 既知のスポットはユーザーの並び順を維持し、並び順にない新規スポットは
	// 末尾に元の順序のまま追加する。集合に存在しないIDは黙って捨てる
	ApplyOrder(current []model.Spot, savedOrder []int64) []model.Spot
}

type orderServiceImpl struct{}

// NewOrderService OrderServiceの新しいインスタンスを作成
func NewOrderService() OrderService {
	return &orderServiceImpl{}
}

// ApplyOrder 保存済み並び順を現在の集合に適用する
func (s *orderServiceImpl) ApplyOrder(current []model.Spot, savedOrder []int64) []model.Spot {
	if len(savedOrder) == 0 {
		return current
	}

	byID := make(map[int64]model.Spot, len(current))
	for _, spot := range current {
		byID[spot.ID] = spot
	}

	result := make([]model.Spot, 0, len(current))
	processed := make(map[int64]bool, len(savedOrder))
	for _, id := range savedOrder {
		spot, ok := byID[id]
		if !ok {
			// 既に削除されたスポットのIDが並び順に残っていても無視する
			continue
		}
		if processed[id] {
			continue
		}
		processed[id] = true
		result = append(result, spot)
	}

	// 並び順に現れなかったスポット（新規保存分）は元の順序のまま末尾へ
	for _, spot := range current {
		if !processed[spot.ID] {
			result = append(result, spot)
		}
	}

	return result
}
