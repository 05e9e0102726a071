package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"SpotMap-App/internal/domain/model"
	"SpotMap-App/internal/usecase"
)

// LibraryHandler 並び順・ブロックリスト・スポット保存APIのハンドラー
type LibraryHandler struct {
	feedUseCase usecase.FeedSyncUseCase
}

// NewLibraryHandler LibraryHandlerの新しいインスタンスを作成
func NewLibraryHandler(feedUseCase usecase.FeedSyncUseCase) *LibraryHandler {
	return &LibraryHandler{
		feedUseCase: feedUseCase,
	}
}

// OrderRequest 手動並び順の保存要求
type OrderRequest struct {
	SpotIDs []int64 `json:"spot_ids"`
}

// PutUnfiledOrder PUT /order/unfiled - フォルダ未所属スポットの並び順保存
func (h *LibraryHandler) PutUnfiledOrder(c *gin.Context) {
	h.saveOrder(c, model.ScopeUnfiled)
}

// PutFolderOrder PUT /folders/:id/order - フォルダ内スポットの並び順保存
// フォルダ内の並び替えは未所属の並び順に影響しない（スコープが独立）
func (h *LibraryHandler) PutFolderOrder(c *gin.Context) {
	folderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "フォルダIDは整数で指定してください",
		})
		return
	}
	h.saveOrder(c, model.FolderScope(folderID))
}

func (h *LibraryHandler) saveOrder(c *gin.Context, scope string) {
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format: " + err.Error(),
		})
		return
	}

	if err := h.feedUseCase.SaveManualOrder(c.Request.Context(), scope, req.SpotIDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "並び順の保存に失敗しました: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"scope": scope, "count": len(req.SpotIDs)})
}

// PostHideSpot POST /spots/:id/hide - スポットをセッション内で非表示にする
func (h *LibraryHandler) PostHideSpot(c *gin.Context) {
	spotID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "スポットIDは整数で指定してください",
		})
		return
	}

	h.feedUseCase.HideSpot(spotID)
	c.JSON(http.StatusOK, gin.H{"hidden": spotID})
}

// PostSaveSpot POST /spots/:id/save - スポットを保存済みコレクションへ追加
func (h *LibraryHandler) PostSaveSpot(c *gin.Context) {
	spotID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "スポットIDは整数で指定してください",
		})
		return
	}

	var spot model.Spot
	if err := c.ShouldBindJSON(&spot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format: " + err.Error(),
		})
		return
	}
	spot.ID = spotID

	if err := h.feedUseCase.SaveSpot(c.Request.Context(), &spot); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "スポットの保存に失敗しました: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"saved": spotID})
}
