package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"SpotMap-App/internal/domain/model"
)

func TestOrderService_ApplyOrder(t *testing.T) {
	svc := NewOrderService()

	current := []model.Spot{makeSpot(1, "a"), makeSpot(2, "b"), makeSpot(3, "c")}

	t.Run("全IDが集合にあれば保存順がそのまま使われる", func(t *testing.T) {
		result := svc.ApplyOrder(current, []int64{2, 3, 1})
		assert.Equal(t, []int64{2, 3, 1}, spotIDs(result))
	})

	t.Run("空の並び順なら集合が変わらない", func(t *testing.T) {
		result := svc.ApplyOrder(current, nil)
		assert.Equal(t, []int64{1, 2, 3}, spotIDs(result))
	})

	t.Run("並び順にない新規スポットは末尾に追加される", func(t *testing.T) {
		// 保存順 [3,1] に対して正準集合 {1,2,3} → 表示順 [3,1,2]
		result := svc.ApplyOrder(current, []int64{3, 1})
		assert.Equal(t, []int64{3, 1, 2}, spotIDs(result))
	})

	t.Run("集合に存在しないIDは黙って捨てられる", func(t *testing.T) {
		result := svc.ApplyOrder(current, []int64{99, 2, 100, 1})
		assert.Equal(t, []int64{2, 1, 3}, spotIDs(result))
	})

	t.Run("並び順内の重複IDは1回だけ反映される", func(t *testing.T) {
		result := svc.ApplyOrder(current, []int64{2, 2, 1})
		assert.Equal(t, []int64{2, 1, 3}, spotIDs(result))
	})

	t.Run("空の集合には何も適用されない", func(t *testing.T) {
		result := svc.ApplyOrder(nil, []int64{1, 2})
		assert.Empty(t, result)
	})
}
