package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var contactTracer = otel.Tracer("service/contact")

// ContactService handles "Fale conosco" messages.
type ContactService struct {
	store  port.ContactStore
	logger *zap.Logger
}

func NewContactService(store port.ContactStore, logger *zap.Logger) *ContactService {
	return &ContactService{store: store, logger: logger}
}

var messageTypes = map[string]bool{
	"sugestao":   true,
	"reclamacao": true,
	"duvida":     true,
	"elogio":     true,
	"outro":      true,
}

func (s *ContactService) Send(ctx context.Context, viewer domain.Viewer, req *domain.SendMessageRequest) (*domain.ContactMessage, error) {
	ctx, span := contactTracer.Start(ctx, "ContactService.Send")
	defer span.End()

	if !messageTypes[req.Type] {
		return nil, &domain.ErrValidation{Field: "type", Message: "tipo deve ser sugestao, reclamacao, duvida, elogio ou outro"}
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Message) == "" {
		return nil, &domain.ErrValidation{Field: "message", Message: "assunto e mensagem são obrigatórios"}
	}

	created, err := s.store.CreateMessage(ctx, &domain.ContactMessage{
		UserID:  viewer.UserID,
		Type:    req.Type,
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	})
	if err != nil {
		return nil, &domain.ErrOperation{Message: "Erro ao enviar mensagem", Err: err}
	}
	s.logger.Info("contact message sent", zap.String("message_id", created.ID), zap.String("user_id", viewer.UserID), zap.String("type", req.Type))
	return created, nil
}

func (s *ContactService) ListMine(ctx context.Context, viewer domain.Viewer) ([]domain.ContactMessage, error) {
	ctx, span := contactTracer.Start(ctx, "ContactService.ListMine")
	defer span.End()

	return s.store.ListMessagesByUser(ctx, viewer.UserID)
}

func (s *ContactService) ListAll(ctx context.Context) ([]domain.ContactMessage, error) {
	ctx, span := contactTracer.Start(ctx, "ContactService.ListAll")
	defer span.End()

	return s.store.ListMessages(ctx)
}

func (s *ContactService) Delete(ctx context.Context, id string) error {
	ctx, span := contactTracer.Start(ctx, "ContactService.Delete")
	defer span.End()

	if err := s.store.DeleteMessage(ctx, id); err != nil {
		return &domain.ErrOperation{Message: "Erro ao excluir mensagem", Err: err}
	}
	s.logger.Info("contact message deleted", zap.String("message_id", id))
	return nil
}

// ============================================================
// Finance
// ============================================================

// FinanceService keeps the URL of the embedded finance dashboard.
type FinanceService struct {
	settings port.SettingStore
	logger   *zap.Logger
}

func NewFinanceService(settings port.SettingStore, logger *zap.Logger) *FinanceService {
	return &FinanceService{settings: settings, logger: logger}
}

// GetEmbedURL returns the dashboard URL, empty when none was configured.
func (s *FinanceService) GetEmbedURL(ctx context.Context) (*domain.FinanceEmbed, error) {
	ctx, span := contactTracer.Start(ctx, "FinanceService.GetEmbedURL")
	defer span.End()

	setting, err := s.settings.GetSetting(ctx, domain.SettingLookerStudioURL)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return &domain.FinanceEmbed{}, nil
	}
	return &domain.FinanceEmbed{URL: setting.Value}, nil
}

// SetEmbedURL stores the embeddable form of a report sharing link.
func (s *FinanceService) SetEmbedURL(ctx context.Context, raw string) (*domain.FinanceEmbed, error) {
	ctx, span := contactTracer.Start(ctx, "FinanceService.SetEmbedURL")
	defer span.End()

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, &domain.ErrValidation{Field: "url", Message: "URL inválida"}
	}

	embed := domain.EmbeddableReportURL(raw)
	if err := s.settings.UpsertSetting(ctx, domain.SettingLookerStudioURL, embed); err != nil {
		return nil, &domain.ErrOperation{Message: "Erro ao salvar configuração", Err: err}
	}
	s.logger.Info("finance dashboard updated", zap.String("url", embed))
	return &domain.FinanceEmbed{URL: embed}, nil
}
