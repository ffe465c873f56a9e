// settings.go — «сообщение дня» учреждения в Markdown.
package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/bigkaa/brigadas/internal/domain/model"
	"github.com/bigkaa/brigadas/internal/repository"
)

// maxMessageLen — ограничение длины сообщения дня.
const maxMessageLen = 4000

// MessageOfDay — сообщение дня: исходный Markdown и HTML.
type MessageOfDay struct {
	Markdown  string `json:"markdown"`
	HTML      string `json:"html"`
	UpdatedBy *int64 `json:"updated_by,omitempty"`
}

// SettingsService — настройки учреждения.
type SettingsService struct {
	settings repository.SettingRepository
	logger   *slog.Logger
}

// NewSettingsService создаёт сервис настроек.
func NewSettingsService(settings repository.SettingRepository, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		settings: settings,
		logger:   logger.With(slog.String("component", "settings_service")),
	}
}

// MessageOfDay возвращает сообщение дня; отсутствие — пустое сообщение.
func (s *SettingsService) MessageOfDay(ctx context.Context, viewer *model.Session) (*MessageOfDay, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	setting, err := s.settings.Get(ctx, viewer.InstitutionID, model.SettingMessageOfDay)
	if err != nil {
		err = storeError(err, "получение сообщения дня")
		if isNotFound(err) {
			return &MessageOfDay{}, nil
		}
		return nil, err
	}

	html, err := renderMarkdown(setting.Value)
	if err != nil {
		return nil, err
	}
	return &MessageOfDay{Markdown: setting.Value, HTML: html, UpdatedBy: setting.UpdatedBy}, nil
}

// SetMessageOfDay сохраняет сообщение дня (только admin).
func (s *SettingsService) SetMessageOfDay(ctx context.Context, viewer *model.Session, text string) (*MessageOfDay, error) {
	if err := requireAdmin(viewer); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if len(text) > maxMessageLen {
		return nil, invalid("message_too_long")
	}
	html, err := renderMarkdown(text)
	if err != nil {
		return nil, err
	}

	updatedBy := viewer.UserID
	setting := &model.Setting{
		InstitutionID: viewer.InstitutionID,
		Key:           model.SettingMessageOfDay,
		Value:         text,
		UpdatedBy:     &updatedBy,
	}
	if err := s.settings.Upsert(ctx, setting); err != nil {
		return nil, storeError(err, "сохранение сообщения дня")
	}
	s.logger.Info("Сообщение дня обновлено",
		slog.Int64("institution_id", viewer.InstitutionID),
		slog.Int64("updated_by", updatedBy),
	)
	return &MessageOfDay{Markdown: text, HTML: html, UpdatedBy: &updatedBy}, nil
}

// renderMarkdown преобразует Markdown в HTML. Сырой HTML во входе
// goldmark по умолчанию не пропускает.
func renderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("ошибка преобразования Markdown: %w", err)
	}
	return buf.String(), nil
}
