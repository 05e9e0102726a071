package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"SpotMap-App/internal/domain/model"
)

func TestFilterService_Apply(t *testing.T) {
	svc := NewFilterService()

	spots := []model.Spot{
		makeSpot(1, "a"), makeSpot(2, "b"), makeSpot(3, "c"), makeSpot(4, "d"),
	}
	memberships := map[int64][]int64{
		10: {2, 3},
	}

	t.Run("ブロックリストのスポットが除外される", func(t *testing.T) {
		result := svc.Apply(spots, FilterOptions{BlockList: map[int64]bool{2: true}})
		assert.Equal(t, []int64{1, 3, 4}, spotIDs(result))
	})

	t.Run("フォルダスコープで所属スポットだけが残る", func(t *testing.T) {
		folderID := int64(10)
		result := svc.Apply(spots, FilterOptions{FolderScope: &folderID, Memberships: memberships})
		assert.Equal(t, []int64{2, 3}, spotIDs(result))
	})

	t.Run("保存済みのみフィルタは文字列化したIDで照合する", func(t *testing.T) {
		result := svc.Apply(spots, FilterOptions{
			SavedOnly: true,
			Saved:     []model.Spot{makeSpot(1, "a"), makeSpot(4, "d")},
		})
		assert.Equal(t, []int64{1, 4}, spotIDs(result))
	})

	t.Run("各段は結果を狭めるだけで増やさない", func(t *testing.T) {
		folderID := int64(10)
		opts := FilterOptions{
			BlockList:   map[int64]bool{3: true},
			FolderScope: &folderID,
			Memberships: memberships,
			SavedOnly:   true,
			Saved:       []model.Spot{makeSpot(2, "b")},
		}
		result := svc.Apply(spots, opts)
		assert.LessOrEqual(t, len(result), len(spots))
		assert.Equal(t, []int64{2}, spotIDs(result))
	})

	t.Run("入力スライスは変更されない", func(t *testing.T) {
		before := spotIDs(spots)
		_ = svc.Apply(spots, FilterOptions{BlockList: map[int64]bool{1: true, 2: true}})
		assert.Equal(t, before, spotIDs(spots))
	})

	t.Run("フィルタを外せば元の集合がそのまま返る", func(t *testing.T) {
		filtered := svc.Apply(spots, FilterOptions{BlockList: map[int64]bool{1: true}})
		assert.Len(t, filtered, 3)

		restored := svc.Apply(spots, FilterOptions{})
		assert.Equal(t, spotIDs(spots), spotIDs(restored))
	})
}
