package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"SpotMap-App/internal/domain/model"
	"SpotMap-App/internal/domain/repository"
	"SpotMap-App/internal/domain/service"
	"SpotMap-App/internal/infrastructure/cache"
	repoImpl "SpotMap-App/internal/repository"
)

// feedCacheKey フィードフェッチのキャッシュキー
const feedCacheKey = "feed"

// Config フェッチオーケストレーションの調整パラメータ
// テストでは短い値を注入する
type Config struct {
	MinRefreshInterval time.Duration // 連続リフレッシュの最小間隔
	AttemptTimeout     time.Duration // 1試行あたりのタイムアウト
	MaxAttempts        int           // 最大試行回数
	BackoffBase        time.Duration // バックオフの初期待機
	BackoffCap         time.Duration // バックオフの上限
	CacheTTL           time.Duration // フィードキャッシュのTTL
}

// DefaultConfig 本番用の既定パラメータ
// CacheTTLはMinRefreshIntervalより長いが、前者はバックグラウンドポーリング、
// 後者は明示的なリフレッシュ操作を律速するもので、独立に調整できる
func DefaultConfig() *Config {
	return &Config{
		MinRefreshInterval: 10 * time.Second,
		AttemptTimeout:     15 * time.Second,
		MaxAttempts:        3,
		BackoffBase:        1 * time.Second,
		BackoffCap:         5 * time.Second,
		CacheTTL:           30 * time.Second,
	}
}

// FeedQuery フィード取得の絞り込み条件
type FeedQuery struct {
	FolderID    *int64 // 指定時はこのフォルダの所属スポットのみ
	UnfiledOnly bool   // フォルダ未所属スポットのみ
	SavedOnly   bool   // 保存済みスポットのみ
}

// FeedResult フィルタ・並び順適用済みのフィード
type FeedResult struct {
	Spots     []model.Spot `json:"spots"`
	Degraded  bool         `json:"degraded"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// RefreshResult 1回のリフレッシュ操作の結果
type RefreshResult struct {
	RefreshID string    `json:"refresh_id"`
	Degraded  bool      `json:"degraded"`
	FetchedAt time.Time `json:"fetched_at"`
	SpotCount int       `json:"spot_count"`
}

// FeedSyncUseCase フィード同期エンジンの公開窓口
// どの操作もUIにエラーを投げず、データまたは劣化データを返す
type FeedSyncUseCase interface {
	// Refresh フィードをネットワークから更新する
	// 座標がない場合は何もせず前回結果を返す。最小間隔内の呼び出しもno-op
	// forceで最小間隔ガードを意図的に迂回できる（画面フォーカス時など）
	Refresh(ctx context.Context, coordinate *model.Coordinate, force bool) (*RefreshResult, error)

	// RequestRefresh 購読者へ通知した上で強制リフレッシュを行う
	// （フォーカス・フォアグラウンド復帰トリガーの入口）
	RequestRefresh(ctx context.Context, coordinate *model.Coordinate, reason string) (*RefreshResult, error)

	// OnRefreshRequested リフレッシュ要求の購読を登録し、解除関数を返す
	OnRefreshRequested(handler func(reason string)) func()

	// Feed フィルタと手動並び順を適用したフィードを返す
	Feed(ctx context.Context, query FeedQuery) (*FeedResult, error)

	// DisplayPoints 地図表示用ポイントを返す（boundで範囲を絞れる）
	DisplayPoints(ctx context.Context, bound *orb.Bound) ([]model.DisplayPoint, error)

	// SaveSpot スポットを保存済みコレクションへ追加する
	SaveSpot(ctx context.Context, spot *model.Spot) error

	// HideSpot スポットをセッション内ブロックリストに追加する
	HideSpot(spotID int64)

	// SaveManualOrder 手動並び順をスコープ単位で永続化する
	SaveManualOrder(ctx context.Context, scope string, spotIDs []int64) error

	// SignOut ローカル状態と永続データをすべて消去する
	SignOut(ctx context.Context) error
}

// feedSyncUseCaseImpl FeedSyncUseCaseの実装
// 正準集合はこの構造体だけが書き込み、読み取り側には常にコピーを渡す
type feedSyncUseCaseImpl struct {
	feedRepo         repository.FeedRepository
	snapshotRepo     repository.SnapshotRepository
	orderRepo        repository.OrderRepository
	feedCache        *cache.FeedCache
	aggregateService service.FeedAggregateService
	orderService     service.OrderService
	filterService    service.FilterService
	auth             *model.AuthContext
	cfg              Config

	mu          sync.Mutex
	canonical   *model.CanonicalSet
	points      []model.DisplayPoint
	savedSpots  []model.Spot
	blockList   map[int64]bool
	degraded    bool
	lastRefresh time.Time
	lastFetched time.Time
	lastResult  *RefreshResult

	subMu       sync.Mutex
	nextSubID   int64
	subscribers map[int64]func(reason string)
}

// NewFeedSyncUseCase 新しいFeedSyncUseCaseインスタンスを作成
// 最初のネットワークアクセスより前に永続スナップショットから同期的に復元する
func NewFeedSyncUseCase(
	feedRepo repository.FeedRepository,
	snapshotRepo repository.SnapshotRepository,
	orderRepo repository.OrderRepository,
	feedCache *cache.FeedCache,
	aggregateService service.FeedAggregateService,
	orderService service.OrderService,
	filterService service.FilterService,
	auth *model.AuthContext,
	cfg *Config,
) FeedSyncUseCase {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	u := &feedSyncUseCaseImpl{
		feedRepo:         feedRepo,
		snapshotRepo:     snapshotRepo,
		orderRepo:        orderRepo,
		feedCache:        feedCache,
		aggregateService: aggregateService,
		orderService:     orderService,
		filterService:    filterService,
		auth:             auth,
		cfg:              *cfg,
		blockList:        make(map[int64]bool),
		subscribers:      make(map[int64]func(string)),
	}
	u.hydrateFromSnapshot()
	return u
}

// hydrateFromSnapshot コールドスタート時にスナップショットから状態を復元する
// 読み込み失敗は「キャッシュなし」として扱い、エラーにはしない
func (u *feedSyncUseCaseImpl) hydrateFromSnapshot() {
	ctx := context.Background()
	snapshot, err := u.snapshotRepo.Load(ctx)
	if err != nil {
		log.Printf("⚠️ スナップショットの読み込みに失敗、キャッシュなしで開始: %v", err)
		return
	}
	if snapshot == nil {
		log.Printf("📖 スナップショットなし（初回起動）")
		return
	}

	set := u.aggregateService.Aggregate(&model.RawFeedPayload{
		Saved:       snapshot.Saved,
		Recommended: snapshot.Recommended,
		Sections:    &model.FolderSections{},
	})

	u.mu.Lock()
	u.canonical = set
	u.points = snapshot.Points
	u.savedSpots = snapshot.Saved
	u.lastFetched = snapshot.StoredAt
	u.mu.Unlock()

	log.Printf("📖 スナップショットから復元 (%d件, %s時点)", len(set.Spots), snapshot.StoredAt.Format(time.RFC3339))
}

// Refresh フィードをネットワークから更新する
func (u *feedSyncUseCaseImpl) Refresh(ctx context.Context, coordinate *model.Coordinate, force bool) (*RefreshResult, error) {
	// 現在位置がなければフェッチ自体を行わない
	if coordinate == nil {
		u.mu.Lock()
		defer u.mu.Unlock()
		return u.lastResult, nil
	}

	u.mu.Lock()
	if !force && !u.lastRefresh.IsZero() && time.Since(u.lastRefresh) < u.cfg.MinRefreshInterval {
		// UIフォーカスイベント連打によるリフレッシュストームを防ぐ
		last := u.lastResult
		u.mu.Unlock()
		return last, nil
	}
	u.lastRefresh = time.Now()
	u.mu.Unlock()

	if force {
		u.feedCache.Invalidate(feedCacheKey)
	}

	refreshID := uuid.New().String()[:8]
	log.Printf("🚀 フィード更新開始 (refresh=%s, lat=%.4f, lng=%.4f)", refreshID, coordinate.Latitude, coordinate.Longitude)

	payload, err := u.feedCache.GetOrFetch(ctx, feedCacheKey, u.cfg.CacheTTL, func() (*model.RawFeedPayload, error) {
		return u.fetchWithRetry(ctx, refreshID)
	})
	if err != nil {
		return u.handleFetchFailure(refreshID, err), nil
	}

	return u.applyPayload(ctx, refreshID, payload, false), nil
}

// RequestRefresh 購読者へ通知した上で強制リフレッシュを行う
func (u *feedSyncUseCaseImpl) RequestRefresh(ctx context.Context, coordinate *model.Coordinate, reason string) (*RefreshResult, error) {
	u.subMu.Lock()
	handlers := make([]func(string), 0, len(u.subscribers))
	for _, handler := range u.subscribers {
		handlers = append(handlers, handler)
	}
	u.subMu.Unlock()

	for _, handler := range handlers {
		handler(reason)
	}

	return u.Refresh(ctx, coordinate, true)
}

// OnRefreshRequested リフレッシュ要求の購読を登録し、解除関数を返す
func (u *feedSyncUseCaseImpl) OnRefreshRequested(handler func(reason string)) func() {
	u.subMu.Lock()
	defer u.subMu.Unlock()
	u.nextSubID++
	id := u.nextSubID
	u.subscribers[id] = handler
	return func() {
		u.subMu.Lock()
		defer u.subMu.Unlock()
		delete(u.subscribers, id)
	}
}

// fetchWithRetry 指数バックオフ付きで最大MaxAttempts回フェッチを試みる
// 全試行が失敗した場合のみエラーを返す
func (u *feedSyncUseCaseImpl) fetchWithRetry(ctx context.Context, refreshID string) (*model.RawFeedPayload, error) {
	var lastErr error
	for attempt := 1; attempt <= u.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			wait := backoffDelay(attempt, u.cfg.BackoffBase, u.cfg.BackoffCap)
			log.Printf("⏳ リトライ待機 %v (refresh=%s, attempt=%d)", wait, refreshID, attempt)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		payload, err := u.fetchOnceWithTimeout(ctx)
		if err == nil {
			return payload, nil
		}
		lastErr = err
		log.Printf("⚠️ フェッチ試行 %d/%d 失敗 (refresh=%s): %v", attempt, u.cfg.MaxAttempts, refreshID, err)
	}
	return nil, fmt.Errorf("全%d回のフェッチ試行が失敗: %w", u.cfg.MaxAttempts, lastErr)
}

// backoffDelay 試行k(k>=2)の前の待機時間 min(BackoffBase * 2^(k-2), BackoffCap)
func backoffDelay(attempt int, base, cap time.Duration) time.Duration {
	delay := base << uint(attempt-2)
	if delay <= 0 || delay > cap {
		return cap
	}
	return delay
}

// fetchOnceWithTimeout 1回のフェッチをタイムアウトと競争させる
// タイムアウト時は待つのをやめるだけで、遅れて届いた結果は捨てる
func (u *feedSyncUseCaseImpl) fetchOnceWithTimeout(ctx context.Context) (*model.RawFeedPayload, error) {
	type fetchOutcome struct {
		payload *model.RawFeedPayload
		err     error
	}

	resultChan := make(chan fetchOutcome, 1)
	go func() {
		payload, err := u.fetchOnce(ctx)
		resultChan <- fetchOutcome{payload: payload, err: err}
	}()

	select {
	case outcome := <-resultChan:
		return outcome.payload, outcome.err
	case <-time.After(u.cfg.AttemptTimeout):
		return nil, fmt.Errorf("フェッチ試行が%vでタイムアウト", u.cfg.AttemptTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fetchOnce 4コレクションを並行取得して1つの生データにまとめる
// 個別コレクションの失敗は空の寄与として続行し、全滅した場合のみエラー
func (u *feedSyncUseCaseImpl) fetchOnce(ctx context.Context) (*model.RawFeedPayload, error) {
	payload := &model.RawFeedPayload{Sections: &model.FolderSections{}}

	type subResult struct {
		name string
		err  error
	}

	resultChan := make(chan subResult, 4)
	var wg sync.WaitGroup
	var payloadMu sync.Mutex

	run := func(name string, fetch func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resultChan <- subResult{name: name, err: fetch()}
		}()
	}

	run("saved", func() error {
		spots, err := u.feedRepo.FetchSavedSpots(ctx, u.auth)
		if err != nil {
			return err
		}
		payloadMu.Lock()
		payload.Saved = spots
		payloadMu.Unlock()
		return nil
	})
	run("recommended", func() error {
		spots, err := u.feedRepo.FetchRecommendedSpots(ctx, u.auth)
		if err != nil {
			return err
		}
		payloadMu.Lock()
		payload.Recommended = spots
		payloadMu.Unlock()
		return nil
	})
	run("folders", func() error {
		folders, err := u.feedRepo.FetchFolders(ctx, u.auth)
		if err != nil {
			return err
		}
		payloadMu.Lock()
		payload.Folders = folders
		payloadMu.Unlock()
		return nil
	})
	run("sections", func() error {
		sections, err := u.feedRepo.FetchFolderSections(ctx, u.auth)
		if err != nil {
			return err
		}
		payloadMu.Lock()
		payload.Sections = sections
		payloadMu.Unlock()
		return nil
	})

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	failures := 0
	var firstErr error
	for result := range resultChan {
		if result.err != nil {
			failures++
			if firstErr == nil {
				firstErr = result.err
			}
			log.Printf("⚠️ %s コレクションの取得に失敗、空として続行: %v", result.name, result.err)
		}
	}

	if failures == 4 {
		return nil, fmt.Errorf("全コレクションの取得に失敗: %w", firstErr)
	}

	return payload, nil
}

// handleFetchFailure 全試行失敗時の処理
// 既存の状態があればそのまま維持し、何もなければ組み込みサンプルを出す
// どちらの場合も劣化フラグを立て、UIには決してエラーを投げない
func (u *feedSyncUseCaseImpl) handleFetchFailure(refreshID string, fetchErr error) *RefreshResult {
	log.Printf("⚠️ フィード更新失敗 (refresh=%s): %v", refreshID, fetchErr)

	u.mu.Lock()
	if u.canonical != nil && len(u.canonical.Spots) > 0 {
		u.degraded = true
		result := &RefreshResult{
			RefreshID: refreshID,
			Degraded:  true,
			FetchedAt: u.lastFetched,
			SpotCount: len(u.canonical.Spots),
		}
		u.lastResult = result
		u.mu.Unlock()
		log.Printf("⚠️ 既存データを維持して劣化モードへ (refresh=%s, %d件)", refreshID, result.SpotCount)
		return result
	}
	u.mu.Unlock()

	log.Printf("⚠️ 表示可能なデータがないため組み込みサンプルを使用 (refresh=%s)", refreshID)
	return u.applyPayload(context.Background(), refreshID, model.FallbackPayload(), true)
}

// applyPayload 生データを集約して状態を置き換え、成功時はスナップショットも更新する
func (u *feedSyncUseCaseImpl) applyPayload(ctx context.Context, refreshID string, payload *model.RawFeedPayload, degraded bool) *RefreshResult {
	set := u.aggregateService.Aggregate(payload)
	points := u.aggregateService.BuildDisplayPoints(set)
	now := time.Now()

	result := &RefreshResult{
		RefreshID: refreshID,
		Degraded:  degraded,
		FetchedAt: now,
		SpotCount: len(set.Spots),
	}

	u.mu.Lock()
	u.canonical = set
	u.points = points
	u.savedSpots = payload.Saved
	u.degraded = degraded
	u.lastFetched = now
	u.lastResult = result
	u.mu.Unlock()

	if !degraded {
		snapshot := &model.CachedSnapshot{
			Saved:       payload.Saved,
			Recommended: payload.Recommended,
			Points:      points,
		}
		if err := u.snapshotRepo.Save(ctx, snapshot); err != nil {
			log.Printf("⚠️ スナップショット保存に失敗（続行）: %v", err)
		} else {
			log.Printf("💾 スナップショット保存完了 (%d件)", len(set.Spots))
		}
	}

	log.Printf("✅ フィード更新完了 (refresh=%s, %d件, degraded=%v)", refreshID, result.SpotCount, degraded)
	return result
}

// Feed フィルタと手動並び順を適用したフィードを返す
func (u *feedSyncUseCaseImpl) Feed(ctx context.Context, query FeedQuery) (*FeedResult, error) {
	u.mu.Lock()
	set := u.canonical
	degraded := u.degraded
	fetchedAt := u.lastFetched
	saved := make([]model.Spot, len(u.savedSpots))
	copy(saved, u.savedSpots)
	blockList := make(map[int64]bool, len(u.blockList))
	for id := range u.blockList {
		blockList[id] = true
	}
	u.mu.Unlock()

	if set == nil {
		return &FeedResult{Spots: []model.Spot{}, Degraded: degraded, FetchedAt: fetchedAt}, nil
	}

	var base []model.Spot
	var scope string
	switch {
	case query.FolderID != nil:
		base = set.Spots
		scope = model.FolderScope(*query.FolderID)
	case query.UnfiledOnly:
		base = u.aggregateService.Unfiled(set)
		scope = model.ScopeUnfiled
	default:
		base = set.Spots
		scope = model.ScopeUnfiled
	}

	opts := service.FilterOptions{
		BlockList:   blockList,
		FolderScope: query.FolderID,
		Memberships: set.Memberships,
		SavedOnly:   query.SavedOnly,
		Saved:       saved,
	}
	filtered := u.filterService.Apply(base, opts)

	savedOrder, err := u.orderRepo.LoadOrder(ctx, scope)
	if err != nil {
		// 並び順が読めなくてもサーバー順で表示を続ける
		log.Printf("⚠️ 並び順（%s）の読み込みに失敗、サーバー順で表示: %v", scope, err)
		savedOrder = nil
	}
	ordered := u.orderService.ApplyOrder(filtered, savedOrder)

	return &FeedResult{Spots: ordered, Degraded: degraded, FetchedAt: fetchedAt}, nil
}

// DisplayPoints 地図表示用ポイントを返す
func (u *feedSyncUseCaseImpl) DisplayPoints(ctx context.Context, bound *orb.Bound) ([]model.DisplayPoint, error) {
	u.mu.Lock()
	points := make([]model.DisplayPoint, len(u.points))
	copy(points, u.points)
	blockList := make(map[int64]bool, len(u.blockList))
	for id := range u.blockList {
		blockList[id] = true
	}
	u.mu.Unlock()

	if len(blockList) > 0 {
		visible := make([]model.DisplayPoint, 0, len(points))
		for _, point := range points {
			if !blockList[point.SpotID] {
				visible = append(visible, point)
			}
		}
		points = visible
	}

	if bound != nil {
		points = repoImpl.ClipPoints(points, *bound)
	}

	return points, nil
}

// SaveSpot スポットを保存済みコレクションへ追加する
// バックエンドが重複時に5xxを返す暫定仕様のため、既保存は成功として扱う
func (u *feedSyncUseCaseImpl) SaveSpot(ctx context.Context, spot *model.Spot) error {
	err := u.feedRepo.SaveSpot(ctx, u.auth, spot)
	if errors.Is(err, model.ErrAlreadySaved) {
		log.Printf("⚠️ スポット %d は既に保存済みとして扱う", spot.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("スポットの保存に失敗: %w", err)
	}
	log.Printf("✅ スポット %d を保存", spot.ID)
	return nil
}

// HideSpot スポットをセッション内ブロックリストに追加する
// 元データは削除せず、表示時のフィルタでのみ使う
func (u *feedSyncUseCaseImpl) HideSpot(spotID int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.blockList[spotID] = true
}

// SaveManualOrder 手動並び順をスコープ単位で永続化する
func (u *feedSyncUseCaseImpl) SaveManualOrder(ctx context.Context, scope string, spotIDs []int64) error {
	if err := u.orderRepo.SaveOrder(ctx, scope, spotIDs); err != nil {
		return fmt.Errorf("並び順の保存に失敗: %w", err)
	}
	log.Printf("💾 並び順を保存 (scope=%s, %d件)", scope, len(spotIDs))
	return nil
}

// SignOut ローカル状態と永続データをすべて消去する
// 別アカウントへのデータ漏れを防ぐ。永続層のエラーはログに留める
func (u *feedSyncUseCaseImpl) SignOut(ctx context.Context) error {
	log.Printf("🔒 サインアウト: ローカルデータを消去")

	u.feedCache.Invalidate(feedCacheKey)

	if err := u.snapshotRepo.Clear(ctx); err != nil {
		log.Printf("⚠️ スナップショットの消去に失敗: %v", err)
	}
	if err := u.orderRepo.ClearAll(ctx); err != nil {
		log.Printf("⚠️ 並び順の消去に失敗: %v", err)
	}

	u.mu.Lock()
	u.canonical = nil
	u.points = nil
	u.savedSpots = nil
	u.blockList = make(map[int64]bool)
	u.degraded = false
	u.lastRefresh = time.Time{}
	u.lastFetched = time.Time{}
	u.lastResult = nil
	u.mu.Unlock()

	return nil
}
