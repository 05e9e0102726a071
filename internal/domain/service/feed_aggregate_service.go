package service

import (
	"sort"

	"SpotMap-App/internal/domain/model"
)

// FeedAggregateService 複数コレクションの生データを正準スポット集合へ集約するサービス
// 集約・重複排除・フォルダ所属の再構築はすべて同期的な純粋処理
type FeedAggregateService interface {
	// Aggregate 生データを平坦化し、ID重複を排除した正準集合を構築する
	// 同じ入力に対しては常に同じ出力を返す（冪等）
	Aggregate(payload *model.RawFeedPayload) *model.CanonicalSet

	// Unfiled どのフォルダにも属さないスポットを正準集合から導出する
	Unfiled(set *model.CanonicalSet) []model.Spot

	// BuildDisplayPoints 位置確定済みスポットを地図表示用ポイントへ変換する
	BuildDisplayPoints(set *model.CanonicalSet) []model.DisplayPoint
}

type feedAggregateServiceImpl struct{}

// NewFeedAggregateService FeedAggregateServiceの新しいインスタンスを作成
func NewFeedAggregateService() FeedAggregateService {
	return &feedAggregateServiceImpl{}
}

// Aggregate 生データを平坦化し、ID重複を排除した正準集合を構築する
func (s *feedAggregateServiceImpl) Aggregate(payload *model.RawFeedPayload) *model.CanonicalSet {
	if payload == nil {
		return &model.CanonicalSet{Memberships: map[int64][]int64{}}
	}

	// 挿入順: saved → recommended → personal → shared → followed
	// 最初に出現したレコードが勝ち、以降の同一IDは単純に捨てる
	combined := make([]model.Spot, 0, len(payload.Saved)+len(payload.Recommended))
	combined = append(combined, payload.Saved...)
	combined = append(combined, payload.Recommended...)

	links := normalizeSections(payload.Sections)
	sectionSpots := flattenSections(payload.Sections)
	combined = append(combined, sectionSpots...)

	seen := make(map[int64]bool, len(combined))
	spots := make([]model.Spot, 0, len(combined))
	for _, spot := range combined {
		if seen[spot.ID] {
			continue
		}
		seen[spot.ID] = true
		spots = append(spots, spot)
	}

	// フォルダ所属の再構築は全体の重複排除とは独立
	// 1つのスポットが複数フォルダに属するのは正当
	memberships := make(map[int64][]int64)
	memberSeen := make(map[int64]map[int64]bool)
	for _, link := range links {
		if memberSeen[link.FolderID] == nil {
			memberSeen[link.FolderID] = make(map[int64]bool)
		}
		if memberSeen[link.FolderID][link.SpotID] {
			continue
		}
		memberSeen[link.FolderID][link.SpotID] = true
		memberships[link.FolderID] = append(memberships[link.FolderID], link.SpotID)
	}

	return &model.CanonicalSet{
		Spots:       spots,
		Memberships: memberships,
		Folders:     payload.Folders,
	}
}

// Unfiled どのフォルダにも属さないスポットを導出する
// 保存フラグではなく所属の差集合として毎回計算するので、別状態の同期は不要
func (s *feedAggregateServiceImpl) Unfiled(set *model.CanonicalSet) []model.Spot {
	if set == nil {
		return nil
	}
	filed := make(map[int64]bool)
	for _, ids := range set.Memberships {
		for _, id := range ids {
			filed[id] = true
		}
	}
	unfiled := make([]model.Spot, 0, len(set.Spots))
	for _, spot := range set.Spots {
		if !filed[spot.ID] {
			unfiled = append(unfiled, spot)
		}
	}
	return unfiled
}

// BuildDisplayPoints 位置確定済みスポットを地図表示用ポイントへ変換する
// 座標未確定のスポットは地図に出せないためスキップ
func (s *feedAggregateServiceImpl) BuildDisplayPoints(set *model.CanonicalSet) []model.DisplayPoint {
	if set == nil {
		return nil
	}
	points := make([]model.DisplayPoint, 0, len(set.Spots))
	for _, spot := range set.Spots {
		if !spot.HasCoordinate() {
			continue
		}
		point := model.DisplayPoint{
			SpotID:    spot.ID,
			Title:     spot.Title,
			Emoji:     spot.Emoji,
			Latitude:  spot.Coordinate.Latitude,
			Longitude: spot.Coordinate.Longitude,
		}
		if spot.TopPost != nil {
			point.TopPostURL = spot.TopPost.URL
		}
		points = append(points, point)
	}
	return points
}

// normalizeSections 3セクションを (フォルダID, スポットID, 出所) の関係に正規化する
// セクションごとに形を見てスキャンするより壊れにくい
func normalizeSections(sections *model.FolderSections) []model.FolderLink {
	if sections == nil {
		return nil
	}
	var links []model.FolderLink
	links = appendSectionLinks(links, sections.Personal, model.ProvenancePersonal)
	links = appendSectionLinks(links, sections.Shared, model.ProvenanceShared)
	links = appendSectionLinks(links, sections.Followed, model.ProvenanceFollowed)
	return links
}

func appendSectionLinks(links []model.FolderLink, section map[int64][]model.Spot, provenance string) []model.FolderLink {
	for _, folderID := range sortedFolderIDs(section) {
		for _, spot := range section[folderID] {
			links = append(links, model.FolderLink{
				FolderID:   folderID,
				SpotID:     spot.ID,
				Provenance: provenance,
			})
		}
	}
	return links
}

// flattenSections セクション内の全スポットを personal → shared → followed の順で平坦化する
func flattenSections(sections *model.FolderSections) []model.Spot {
	if sections == nil {
		return nil
	}
	var spots []model.Spot
	for _, section := range []map[int64][]model.Spot{sections.Personal, sections.Shared, sections.Followed} {
		for _, folderID := range sortedFolderIDs(section) {
			spots = append(spots, section[folderID]...)
		}
	}
	return spots
}

// sortedFolderIDs mapの反復順は不定なので、冪等性のためフォルダIDでソートして走査する
func sortedFolderIDs(section map[int64][]model.Spot) []int64 {
	ids := make([]int64, 0, len(section))
	for id := range section {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
