// Package auth はOAuth認証フローとセッション管理を提供する。
//
// 認証そのものは外部IdP（Google）に委譲し、本パッケージはコールバックで
// 得たemailをメンタープロフィールに解決してセッションを発行するまでを担う。
// プロフィールが存在しないアイデンティティにはセッションを発行しない。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/mentordesk/internal/model"
	"github.com/hitoshi/mentordesk/internal/repository"
)

// Identity はOAuthプロバイダーから取得した認証済みアイデンティティを表す。
type Identity struct {
	Email string
	Name  string
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、アイデンティティを取得する。
	ExchangeCode(ctx context.Context, code string) (*Identity, error)
}

// MentorResolver は認証済みアイデンティティをメンタープロフィールに解決するインターフェース。
type MentorResolver interface {
	// ResolveByEmail はemailに対応するプロフィールを解決する。
	// 対応するプロフィールが存在しない場合はmodel.APIError(MENTOR_NOT_FOUND)を返す。
	ResolveByEmail(ctx context.Context, email string) (*model.MentorProfile, error)
	// Profile は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
	Profile(ctx context.Context, mentorID string) (*model.MentorProfile, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth       OAuthProvider
	resolver    MentorResolver
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	resolver MentorResolver,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		oauth:       oauth,
		resolver:    resolver,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// HandleCallback はOAuthコールバックを処理し、セッションを発行する。
// 取得したemailをメンタープロフィールに解決できた場合のみセッションを作成する。
// プロフィールが存在しない場合はmodel.APIError(MENTOR_NOT_FOUND)を返し、
// セッションは発行しない（認証済みのままダッシュボードは初期化されない）。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	identity, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	mentor, err := s.resolver.ResolveByEmail(ctx, identity.Email)
	if err != nil {
		return nil, err
	}

	session, err := s.createSession(ctx, mentor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("mentor logged in",
		slog.String("mentor_id", mentor.ID),
		slog.String("email", mentor.Email),
	)

	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("mentor logged out", slog.String("session_id", sessionID))
	return nil
}

// CurrentMentor はセッションから現在のメンタープロフィールを取得する。
func (s *Service) CurrentMentor(ctx context.Context, sessionID string) (*model.MentorProfile, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session not found or expired")
	}

	mentor, err := s.resolver.Profile(ctx, session.MentorID)
	if err != nil {
		return nil, fmt.Errorf("failed to find mentor: %w", err)
	}
	if mentor == nil {
		return nil, fmt.Errorf("mentor not found")
	}

	return mentor, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, mentorID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		MentorID:  mentorID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
