// Package auth はユーザー登録・ログインとセッショントークン発行を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
)

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 6

// TokenIssuer はセッショントークンの発行に必要なインターフェース。
// token.Issuerの部分集合として定義する。
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// Result は登録・ログイン成功時の結果を表す。
// クライアントはこの内容を永続化し、以降のリクエストでトークンを提示する。
type Result struct {
	User  *model.User
	Token string
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	BcryptCost int // bcryptハッシュのコストパラメータ
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	issuer   TokenIssuer
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, issuer TokenIssuer, config ServiceConfig) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo: userRepo,
		issuer:   issuer,
		config:   config,
	}
}

// Register は新規ユーザーを登録し、セッショントークンを発行する。
// メールアドレスが登録済みの場合は重複エラーを返す。
func (s *Service) Register(ctx context.Context, name, email, password string) (*Result, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if apiErr := validateRegistration(name, email, password); apiErr != nil {
		return nil, apiErr
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("登録済みユーザーの確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	tok, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("トークンの発行に失敗しました: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return &Result{User: user, Token: tok}, nil
}

// Login はメールアドレスとパスワードを検証し、セッショントークンを発行する。
// メールアドレス不明とパスワード不一致は区別せず同一のエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	email = normalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	tok, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("トークンの発行に失敗しました: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return &Result{User: user, Token: tok}, nil
}

// Profile は認証済みユーザーのプロフィールを取得する。
// トークンは有効だがユーザーが削除済みの場合は未認証エラーを返す。
func (s *Service) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthenticatedError()
	}
	return user, nil
}

// validateRegistration は登録入力を検証し、違反があればバリデーションエラーを返す。
func validateRegistration(name, email, password string) *model.APIError {
	fields := map[string]string{}

	if name == "" {
		fields["name"] = "名前は必須です。"
	}
	if email == "" {
		fields["email"] = "メールアドレスは必須です。"
	} else if _, err := mail.ParseAddress(email); err != nil {
		fields["email"] = "メールアドレスの形式が正しくありません。"
	}
	if len(password) < minPasswordLength {
		fields["password"] = fmt.Sprintf("パスワードは%d文字以上で入力してください。", minPasswordLength)
	}

	if len(fields) > 0 {
		return model.NewValidationError(fields)
	}
	return nil
}

// normalizeEmail はメールアドレスを小文字化し前後の空白を除去する。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
