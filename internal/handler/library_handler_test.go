package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SpotMap-App/internal/domain/model"
)

func setupLibraryRouter(stub *stubFeedSyncUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewLibraryHandler(stub)
	router.PUT("/order/unfiled", h.PutUnfiledOrder)
	router.PUT("/folders/:id/order", h.PutFolderOrder)
	router.POST("/spots/:id/hide", h.PostHideSpot)
	router.POST("/spots/:id/save", h.PostSaveSpot)
	return router
}

func TestLibraryHandler_SaveOrder(t *testing.T) {
	t.Run("未所属スポットの並び順保存", func(t *testing.T) {
		stub := &stubFeedSyncUseCase{}
		router := setupLibraryRouter(stub)

		w := doJSON(t, router, http.MethodPut, "/order/unfiled", gin.H{
			"spot_ids": []int64{3, 1, 2},
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, model.ScopeUnfiled, stub.lastScope)
		assert.Equal(t, []int64{3, 1, 2}, stub.lastOrder)
	})

	t.Run("フォルダ内の並び順はフォルダごとのスコープに保存される", func(t *testing.T) {
		stub := &stubFeedSyncUseCase{}
		router := setupLibraryRouter(stub)

		w := doJSON(t, router, http.MethodPut, "/folders/10/order", gin.H{
			"spot_ids": []int64{2, 3},
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, model.FolderScope(10), stub.lastScope)
		assert.Equal(t, []int64{2, 3}, stub.lastOrder)
	})

	t.Run("不正なフォルダIDは400", func(t *testing.T) {
		router := setupLibraryRouter(&stubFeedSyncUseCase{})

		w := doJSON(t, router, http.MethodPut, "/folders/abc/order", gin.H{
			"spot_ids": []int64{1},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLibraryHandler_PostHideSpot(t *testing.T) {
	t.Run("スポットを非表示にする", func(t *testing.T) {
		stub := &stubFeedSyncUseCase{}
		router := setupLibraryRouter(stub)

		w := doJSON(t, router, http.MethodPost, "/spots/42/hide", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []int64{42}, stub.hiddenIDs)
	})

	t.Run("不正なスポットIDは400", func(t *testing.T) {
		stub := &stubFeedSyncUseCase{}
		router := setupLibraryRouter(stub)

		w := doJSON(t, router, http.MethodPost, "/spots/abc/hide", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, stub.hiddenIDs)
	})
}

func TestLibraryHandler_PostSaveSpot(t *testing.T) {
	t.Run("パスのIDがボディより優先される", func(t *testing.T) {
		stub := &stubFeedSyncUseCase{}
		router := setupLibraryRouter(stub)

		w := doJSON(t, router, http.MethodPost, "/spots/7/save", gin.H{
			"id":    999,
			"title": "新しいカフェ",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		require.NotNil(t, stub.lastSavedSpot)
		assert.Equal(t, int64(7), stub.lastSavedSpot.ID)
		assert.Equal(t, "新しいカフェ", stub.lastSavedSpot.Title)
	})

	t.Run("保存失敗は500", func(t *testing.T) {
		stub := &stubFeedSyncUseCase{saveSpotErr: errors.New("接続失敗")}
		router := setupLibraryRouter(stub)

		w := doJSON(t, router, http.MethodPost, "/spots/7/save", gin.H{
			"title": "カフェ",
		})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
