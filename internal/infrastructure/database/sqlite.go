package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrDocumentNotFound ドキュメントが存在しないことを表すエラー
var ErrDocumentNotFound = errors.New("ドキュメントが見つかりません")

// LocalStore 端末ローカルのドキュメントストア
// スナップショットと手動並び順をJSONドキュメント丸ごとで読み書きする
type LocalStore struct {
	db *sql.DB
}

// NewLocalStore 指定パスのSQLiteデータベースを開く（なければ作成）
func NewLocalStore(path string) (*LocalStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ローカルストアのオープンに失敗: %w", err)
	}
	// WALモードで読み書きの競合を抑える
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("WALモードの設定に失敗: %w", err)
	}
	store := &LocalStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("マイグレーションに失敗: %w", err)
	}
	return store, nil
}

// Close データベース接続を閉じる
func (s *LocalStore) Close() error {
	return s.db.Close()
}

func (s *LocalStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		name TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		stored_at TEXT NOT NULL
	);`
	_, err := s.db.Exec(schema)
	return err
}

// PutDocument ドキュメントを名前付きで丸ごと上書きする（部分更新はしない）
func (s *LocalStore) PutDocument(ctx context.Context, name, payload string, storedAt time.Time) error {
	query := `
	INSERT INTO documents (name, payload, stored_at) VALUES (?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, stored_at = excluded.stored_at`
	_, err := s.db.ExecContext(ctx, query, name, payload, storedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("ドキュメント %s の書き込みに失敗: %w", name, err)
	}
	return nil
}

// GetDocument ドキュメントを名前で取得する
// 存在しない場合は ErrDocumentNotFound を返す
func (s *LocalStore) GetDocument(ctx context.Context, name string) (string, time.Time, error) {
	var payload, storedAtStr string
	row := s.db.QueryRowContext(ctx, `SELECT payload, stored_at FROM documents WHERE name = ?`, name)
	if err := row.Scan(&payload, &storedAtStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, ErrDocumentNotFound
		}
		return "", time.Time{}, fmt.Errorf("ドキュメント %s の取得に失敗: %w", name, err)
	}
	storedAt, err := time.Parse(time.RFC3339Nano, storedAtStr)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("ドキュメント %s の時刻解析に失敗: %w", name, err)
	}
	return payload, storedAt, nil
}

// DeleteDocument ドキュメントを名前で削除する
func (s *LocalStore) DeleteDocument(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("ドキュメント %s の削除に失敗: %w", name, err)
	}
	return nil
}

// DeleteByPrefix 名前が前方一致するドキュメントをまとめて削除する
func (s *LocalStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE name LIKE ? || '%'`, prefix)
	if err != nil {
		return fmt.Errorf("ドキュメント（接頭辞 %s）の削除に失敗: %w", prefix, err)
	}
	return nil
}

// EnsureDeviceID 匿名端末IDを取得する（初回はUUIDを採番して保存）
func (s *LocalStore) EnsureDeviceID(ctx context.Context) (string, error) {
	const name = "device_id"
	payload, _, err := s.GetDocument(ctx, name)
	if err == nil {
		return payload, nil
	}
	if !errors.Is(err, ErrDocumentNotFound) {
		return "", err
	}
	deviceID := uuid.New().String()
	if err := s.PutDocument(ctx, name, deviceID, time.Now()); err != nil {
		return "", err
	}
	return deviceID, nil
}
