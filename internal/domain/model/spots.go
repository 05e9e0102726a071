package model

import "time"

// Coordinate 緯度経度を表す基本的な型（地図表示・フィード取得で使用）
type Coordinate struct {
	Latitude  float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

// TopPost スポットに紐づく代表動画の参照情報
type TopPost struct {
	PostID   int64     `json:"post_id"`
	URL      string    `json:"url"`
	PosterID int64     `json:"poster_id"`
	PostedAt time.Time `json:"posted_at"`
}

// Spot 動画に紐づく物理的な場所を表すモデル
// IDはサーバー採番で、重複排除の唯一のキーとなる
type Spot struct {
	ID          int64       `json:"id" db:"id"`                             // ユニークなスポットID
	Title       string      `json:"title" db:"title"`                       // スポット名
	Description string      `json:"description" db:"description"`           // 説明文
	Emoji       string      `json:"emoji" db:"emoji"`                       // 地図ピンの絵文字
	Coordinate  *Coordinate `json:"coordinate,omitempty" db:"coordinate"`   // 位置情報（未確定の場合はnil）
	Valid       bool        `json:"valid" db:"valid"`                       // 位置確定フラグ
	Website     *string     `json:"website,omitempty" db:"website"`         // ウェブサイト（NULLABLE）
	Phone       *string     `json:"phone,omitempty" db:"phone"`             // 電話番号（NULLABLE）
	Address     *string     `json:"address,omitempty" db:"address"`         // 住所（NULLABLE）
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`             // 作成日時
	TopPost     *TopPost    `json:"top_post,omitempty" db:"top_post"`       // 代表動画
}

// HasCoordinate 位置情報が確定しているかチェック
func (s *Spot) HasCoordinate() bool {
	return s.Coordinate != nil
}

// GetWebsite ウェブサイトが存在する場合は値を、存在しない場合は空文字列を返す
func (s *Spot) GetWebsite() string {
	if s.Website != nil {
		return *s.Website
	}
	return ""
}

// SetWebsite ウェブサイトを設定する（空文字列の場合はnilのまま保持）
func (s *Spot) SetWebsite(url string) {
	if url != "" {
		s.Website = &url
	}
}

// Folder スポットをまとめるフォルダを表すモデル
type Folder struct {
	ID         int64   `json:"id" db:"id"`                   // フォルダID
	Name       string  `json:"name" db:"name"`               // 表示名
	Color      string  `json:"color" db:"color"`             // 表示色
	SpotIDs    []int64 `json:"spot_ids" db:"spot_ids"`       // 所属スポットIDの順序付きリスト
	Provenance string  `json:"provenance" db:"provenance"`   // owned / shared / followed
}

// CanWrite フォルダへの書き込み権限があるかチェック
// followedフォルダは読み取り専用
func (f *Folder) CanWrite() bool {
	return f.Provenance == ProvenancePersonal || f.Provenance == ProvenanceShared
}

// FolderSections フォルダ別スポットコレクションの3セクション
// バックエンドの複合エンドポイントが返す形をそのまま写した型
type FolderSections struct {
	Personal map[int64][]Spot `json:"personal"`
	Shared   map[int64][]Spot `json:"shared"`
	Followed map[int64][]Spot `json:"followed"`
}

// FolderLink フォルダ所属を正規化した関係 (フォルダID, スポットID, 出所)
type FolderLink struct {
	FolderID   int64
	SpotID     int64
	Provenance string
}

// RawFeedPayload 1回のフェッチで得られる4コレクションの生データ
type RawFeedPayload struct {
	Saved       []Spot          `json:"saved"`
	Recommended []Spot          `json:"recommended"`
	Folders     []Folder        `json:"folders"`
	Sections    *FolderSections `json:"sections"`
}

// CanonicalSet 重複排除済みのセッション内正準スポット集合
// Aggregatorだけが書き込み、他のコンポーネントは派生コピーを読む
type CanonicalSet struct {
	Spots       []Spot            // 正準スポットリスト（挿入順、ID重複なし）
	Memberships map[int64][]int64 // フォルダID → 所属スポットIDの順序付きリスト
	Folders     []Folder          // フォルダメタデータ
}

// SpotByID 正準集合からIDでスポットを引く
func (c *CanonicalSet) SpotByID(id int64) (*Spot, bool) {
	for i := range c.Spots {
		if c.Spots[i].ID == id {
			return &c.Spots[i], true
		}
	}
	return nil, false
}

// DisplayPoint 地図表示用に変換済みのポイント
type DisplayPoint struct {
	SpotID     int64   `json:"spot_id"`
	Title      string  `json:"title"`
	Emoji      string  `json:"emoji"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	TopPostURL string  `json:"top_post_url,omitempty"`
}

// CachedSnapshot 最後に成功したフェッチの永続スナップショット
// 常に全体を丸ごと上書きし、部分更新はしない
type CachedSnapshot struct {
	Saved       []Spot         `json:"saved"`
	Recommended []Spot         `json:"recommended"`
	Points      []DisplayPoint `json:"points"`
	StoredAt    time.Time      `json:"stored_at"`
}

// AuthContext バックエンド呼び出しに添える認証情報
// ゲストの場合はAccessTokenが空でrecommendedコレクションのみ取得可能
type AuthContext struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
	Guest       bool   `json:"guest"`
}
