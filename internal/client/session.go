// Package client はタスクAPIのクライアント側同期レイヤーを提供する。
// セッション管理・リクエストゲートウェイ・ローカルタスクストア・表示フィルタからなる。
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// Credentials はクライアントが永続化する認証情報。
// 登録・ログイン成功レスポンスのフラットな形をそのまま保持する。
type Credentials struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// CredentialStore は認証情報の永続化インターフェース。
type CredentialStore interface {
	// Load は保存済みの認証情報を返す。未保存の場合は(nil, nil)を返す。
	Load() (*Credentials, error)
	Save(creds *Credentials) error
	Clear() error
}

// FileCredentialStore はJSONファイルに認証情報を保存するCredentialStore実装。
type FileCredentialStore struct {
	path string
}

var _ CredentialStore = (*FileCredentialStore)(nil)

// NewFileCredentialStore はFileCredentialStoreを生成する。
func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

// Load はファイルから認証情報を読み込む。ファイルが存在しない場合は(nil, nil)を返す。
func (s *FileCredentialStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("認証情報の読み込みに失敗しました: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("認証情報の解析に失敗しました: %w", err)
	}
	return &creds, nil
}

// Save は認証情報をファイルへ書き込む。所有者のみ読み書き可能なパーミッションで保存する。
func (s *FileCredentialStore) Save(creds *Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("認証情報のシリアライズに失敗しました: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("認証情報の保存に失敗しました: %w", err)
	}
	return nil
}

// Clear は保存済みの認証情報を削除する。未保存の場合もエラーにしない。
func (s *FileCredentialStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("認証情報の削除に失敗しました: %w", err)
	}
	return nil
}

// Session は現在の認証状態を保持する。
// グローバル変数を使わず、明示的に受け渡す。
type Session struct {
	mu          sync.Mutex
	store       CredentialStore
	current     *Credentials
	subscribers []func()
}

// NewSession はSessionを生成する。
func NewSession(store CredentialStore) *Session {
	return &Session{store: store}
}

// Load はストアから認証情報を読み込み、メモリ上の状態を更新する。
// 未保存の場合は(nil, nil)を返す。
func (s *Session) Load() (*Credentials, error) {
	creds, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = creds
	s.mu.Unlock()

	return creds, nil
}

// Save は認証情報を永続化し、メモリ上の状態を更新する。
func (s *Session) Save(creds *Credentials) error {
	if err := s.store.Save(creds); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = creds
	s.mu.Unlock()

	return nil
}

// Clear は認証情報を破棄し、購読者へ通知する。
// 通知はログイン画面への強制遷移などに使う。
func (s *Session) Clear() error {
	err := s.store.Clear()

	s.mu.Lock()
	s.current = nil
	subs := make([]func(), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}

	return err
}

// Subscribe はセッション破棄時に呼ばれるコールバックを登録する。
func (s *Session) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Current は現在の認証情報を返す。未ログインの場合はnilを返す。
func (s *Session) Current() *Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Token は現在のセッショントークンを返す。未ログインの場合は空文字列を返す。
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}
