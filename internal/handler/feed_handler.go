package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"

	"SpotMap-App/internal/domain/model"
	"SpotMap-App/internal/repository"
	"SpotMap-App/internal/usecase"
)

// FeedHandler フィード取得・リフレッシュAPIのハンドラー
type FeedHandler struct {
	feedUseCase usecase.FeedSyncUseCase
}

// NewFeedHandler FeedHandlerの新しいインスタンスを作成
func NewFeedHandler(feedUseCase usecase.FeedSyncUseCase) *FeedHandler {
	return &FeedHandler{
		feedUseCase: feedUseCase,
	}
}

// RefreshRequest リフレッシュ要求のボディ
type RefreshRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Force     bool     `json:"force"`
}

// GetFeed GET /feed - フィルタ・並び順適用済みフィードの取得
// クエリ: folder_id, unfiled_only, saved_only
func (h *FeedHandler) GetFeed(c *gin.Context) {
	var query usecase.FeedQuery

	if raw := c.Query("folder_id"); raw != "" {
		folderID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "folder_idは整数で指定してください",
			})
			return
		}
		query.FolderID = &folderID
	}
	query.UnfiledOnly = c.Query("unfiled_only") == "true"
	query.SavedOnly = c.Query("saved_only") == "true"

	result, err := h.feedUseCase.Feed(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "フィードの取得に失敗しました: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetDisplayPoints GET /feed/points - 地図表示用ポイントの取得
// クエリ: min_lng, min_lat, max_lng, max_lat（4つ揃ったときだけ範囲を絞る）
func (h *FeedHandler) GetDisplayPoints(c *gin.Context) {
	bound, err := parseViewport(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	points, err := h.feedUseCase.DisplayPoints(c.Request.Context(), bound)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "表示ポイントの取得に失敗しました: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"points": points})
}

// PostRefresh POST /feed/refresh - 手動リフレッシュ
func (h *FeedHandler) PostRefresh(c *gin.Context) {
	h.refresh(c, false)
}

// PostFocus POST /feed/focus - 画面フォーカス・フォアグラウンド復帰トリガー
// 最小間隔ガードを迂回して即時リフレッシュする
func (h *FeedHandler) PostFocus(c *gin.Context) {
	h.refresh(c, true)
}

func (h *FeedHandler) refresh(c *gin.Context, focus bool) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format: " + err.Error(),
		})
		return
	}

	coordinate, err := coordinateFromRequest(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	var result *usecase.RefreshResult
	if focus {
		result, err = h.feedUseCase.RequestRefresh(c.Request.Context(), coordinate, "focus")
	} else {
		result, err = h.feedUseCase.Refresh(c.Request.Context(), coordinate, req.Force)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "リフレッシュに失敗しました: " + err.Error(),
		})
		return
	}

	if result == nil {
		// 座標なし等でリフレッシュが行われなかった場合
		c.JSON(http.StatusOK, gin.H{"refreshed": false})
		return
	}

	c.JSON(http.StatusOK, result)
}

// PostSignOut POST /session/signout - サインアウトによるローカルデータ消去
func (h *FeedHandler) PostSignOut(c *gin.Context) {
	if err := h.feedUseCase.SignOut(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "サインアウト処理に失敗しました: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signed_out": true})
}

// coordinateFromRequest リクエストから座標を取り出して範囲チェックする
// 緯度経度が両方なければ nil（座標なし）を返す
func coordinateFromRequest(req *RefreshRequest) (*model.Coordinate, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return nil, nil
	}
	if *req.Latitude < -90 || *req.Latitude > 90 {
		return nil, &ValidationError{Field: "latitude", Message: "緯度は-90から90の範囲で指定してください"}
	}
	if *req.Longitude < -180 || *req.Longitude > 180 {
		return nil, &ValidationError{Field: "longitude", Message: "経度は-180から180の範囲で指定してください"}
	}
	return &model.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}, nil
}

// parseViewport ビューポートの4クエリパラメータを境界ボックスに変換する
func parseViewport(c *gin.Context) (*orb.Bound, error) {
	raws := []string{c.Query("min_lng"), c.Query("min_lat"), c.Query("max_lng"), c.Query("max_lat")}
	present := 0
	for _, raw := range raws {
		if raw != "" {
			present++
		}
	}
	if present == 0 {
		return nil, nil
	}
	if present != 4 {
		return nil, &ValidationError{Field: "viewport", Message: "min_lng, min_lat, max_lng, max_latは4つ揃えて指定してください"}
	}

	values := make([]float64, 4)
	for i, raw := range raws {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &ValidationError{Field: "viewport", Message: "ビューポートの値は数値で指定してください"}
		}
		values[i] = value
	}

	bound := repository.ViewportBound(values[0], values[1], values[2], values[3])
	return &bound, nil
}

// ValidationError バリデーションエラーを表す
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
