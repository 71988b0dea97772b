package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/taskman/internal/model"
)

// Task はサーバーから受け取るタスクのクライアント側表現。
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	DueDate     time.Time `json:"dueDate"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TaskInput はタスク作成リクエストの入力。
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Status      string `json:"status,omitempty"`
}

// TaskPatchInput はタスク部分更新リクエストの入力。
// nilフィールドはリクエストボディから省略される。
type TaskPatchInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// taskListBody はタスク一覧レスポンスのボディ。
type taskListBody struct {
	Tasks []Task `json:"tasks"`
	Count int    `json:"count"`
}

// Gateway はAPIサーバーへの全リクエストを仲介する。
// トークンが存在すればベアラーヘッダを付与し、401応答を受けたら
// どのリクエストでも一様にセッションを破棄する。
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	session    *Session

	// OnUnauthenticated は401受信時にセッション破棄の直後に呼ばれる。
	// ログイン画面への強制遷移に使う。nilなら何もしない。
	OnUnauthenticated func()
}

// NewGateway はGatewayを生成する。httpClientがnilの場合はタイムアウト付きの既定クライアントを使う。
func NewGateway(baseURL string, httpClient *http.Client, session *Session) *Gateway {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Gateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		session:    session,
	}
}

// do はリクエストを送信し、成功レスポンスをoutへデコードする。
// 401を受信した場合はセッションを破棄してからエラーを返す。
func (g *Gateway) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストボディのシリアライズに失敗しました: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if token := g.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("リクエストの送信に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// セッション失効は後続の全リクエストを無効にするため、即座に破棄する
		g.session.Clear()
		if g.OnUnauthenticated != nil {
			g.OnUnauthenticated()
		}
		return decodeAPIError(resp)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("レスポンスの解析に失敗しました: %w", err)
		}
	}
	return nil
}

// decodeAPIError はエラーレスポンスボディをAPIErrorへデコードする。
// 解析できない場合は内部エラーとして扱う。
func decodeAPIError(resp *http.Response) error {
	var apiErr model.APIError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Code == "" {
		return model.NewInternalError()
	}
	return &apiErr
}

// Register は新規ユーザーを登録し、認証情報を永続化する。
func (g *Gateway) Register(ctx context.Context, name, email, password string) (*Credentials, error) {
	var creds Credentials
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := g.do(ctx, http.MethodPost, "/auth/register", body, &creds); err != nil {
		return nil, err
	}
	if err := g.session.Save(&creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Login はログインし、認証情報を永続化する。
func (g *Gateway) Login(ctx context.Context, email, password string) (*Credentials, error) {
	var creds Credentials
	body := map[string]string{"email": email, "password": password}
	if err := g.do(ctx, http.MethodPost, "/auth/login", body, &creds); err != nil {
		return nil, err
	}
	if err := g.session.Save(&creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Logout はローカルの認証情報を破棄する。サーバー側の状態は持たない。
func (g *Gateway) Logout() error {
	return g.session.Clear()
}

// FetchTasks はタスク一覧を取得する。status/searchが空の場合は絞り込みなし。
func (g *Gateway) FetchTasks(ctx context.Context, status, search string) ([]Task, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	if search != "" {
		query.Set("search", search)
	}

	path := "/tasks"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var body taskListBody
	if err := g.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}
	return body.Tasks, nil
}

// CreateTask はタスクを作成する。
func (g *Gateway) CreateTask(ctx context.Context, in TaskInput) (*Task, error) {
	var created Task
	if err := g.do(ctx, http.MethodPost, "/tasks", in, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTask はタスクを部分更新する。
func (g *Gateway) UpdateTask(ctx context.Context, taskID string, in TaskPatchInput) (*Task, error) {
	var updated Task
	if err := g.do(ctx, http.MethodPut, "/tasks/"+taskID, in, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTask はタスクを削除する。
func (g *Gateway) DeleteTask(ctx context.Context, taskID string) error {
	return g.do(ctx, http.MethodDelete, "/tasks/"+taskID, nil, nil)
}
