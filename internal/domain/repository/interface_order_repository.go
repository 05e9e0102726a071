package repository

import "context"

// OrderRepository ユーザーの手動並び順をスコープ別に永続化する
// スコープは model.ScopeUnfiled または model.FolderScope(id)
type OrderRepository interface {
	// SaveOrder 並び順をスコープ単位で丸ごと上書きする
	SaveOrder(ctx context.Context, scope string, spotIDs []int64) error

	// LoadOrder スコープの並び順を取得する
	// 未保存の場合は (nil, nil) を返す
	// 旧形式（unfiledLocationsでラップされたオブジェクト）も透過的に読み取る
	LoadOrder(ctx context.Context, scope string) ([]int64, error)

	// ClearOrder スコープの並び順を削除する
	ClearOrder(ctx context.Context, scope string) error

	// ClearAll 全スコープの並び順を削除する（サインアウト時）
	ClearAll(ctx context.Context) error
}
