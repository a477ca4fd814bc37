package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/princeprakhar/roomies-backend/internal/apperrors"
	"github.com/princeprakhar/roomies-backend/internal/models"
	"github.com/princeprakhar/roomies-backend/internal/moderation"
	"github.com/princeprakhar/roomies-backend/internal/store"
	"github.com/princeprakhar/roomies-backend/internal/utils"
	"github.com/princeprakhar/roomies-backend/pkg/logger"
)

const maxMessageLength = 2000

// Moderation modes for chat text.
const (
	ModerationBlock  = "block"
	ModerationCensor = "censor"
)

// ContentModerator classifies and censors user text. *moderation.Moderator
// is the production implementation.
type ContentModerator interface {
	CheckMessage(text string) moderation.Result
	CensorMessage(text string) string
	SeverityLevel(detected []string) moderation.Severity
}

type ChatService struct {
	store     store.Store
	matches   *MatchService
	moderator ContentModerator
	broker    ChatBroker
	mode      string
	now       func() time.Time
}

func NewChatService(store store.Store, matches *MatchService, moderator ContentModerator, broker ChatBroker, mode string) *ChatService {
	if mode != ModerationCensor {
		mode = ModerationBlock
	}
	return &ChatService{
		store:     store,
		matches:   matches,
		moderator: moderator,
		broker:    broker,
		mode:      mode,
		now:       time.Now,
	}
}

type SendMessageRequest struct {
	RecipientUsername string             `json:"recipientUsername" binding:"required"`
	Content           string             `json:"content" binding:"required"`
	Type              models.MessageType `json:"type"`
}

type SendMessageResponse struct {
	ChatID         string         `json:"chatId"`
	Message        models.Message `json:"message"`
	Censored       bool           `json:"censored"`
	PrivacyWarning bool           `json:"privacyWarning,omitempty"`
}

type ChatSummary struct {
	ID          string    `json:"id"`
	Counterpart string    `json:"counterpart"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// moderate decides what part of content may be stored. A non-nil error
// means nothing may be stored.
func (s *ChatService) moderate(sender, content string) (string, bool, bool, error) {
	result := s.moderator.CheckMessage(content)
	log := logger.WithFields(logger.Fields{"sender": sender})
	if result.PrivacyWarning {
		log.Warn("message looks like it shares a phone number")
	}
	if result.IsClean {
		return content, false, result.PrivacyWarning, nil
	}

	// Spam heuristics detect no words and are never censorable.
	if len(result.DetectedWords) == 0 {
		log.WithField("reason", result.Reason).Warn("message rejected")
		return "", false, result.PrivacyWarning, apperrors.New(apperrors.Forbidden, "message rejected: "+result.Reason)
	}

	severity := s.moderator.SeverityLevel(result.DetectedWords)
	log = log.WithFields(logger.Fields{"severity": severity, "detected": result.DetectedWords})
	if s.mode == ModerationCensor && severity.Rank() <= moderation.SeverityMedium.Rank() {
		log.Info("message censored")
		return s.moderator.CensorMessage(content), true, result.PrivacyWarning, nil
	}

	log.Warn("message rejected")
	return "", false, result.PrivacyWarning, apperrors.New(apperrors.Forbidden,
		fmt.Sprintf("message rejected: %s (severity %s)", result.Reason, severity))
}

// SendMessage stores a message from sender to recipient and publishes it to
// live streams. The pair must not be blocked either way, and recipient must
// have liked sender.
func (s *ChatService) SendMessage(ctx context.Context, sender string, req SendMessageRequest) (*SendMessageResponse, error) {
	recipient := req.RecipientUsername
	if sender == recipient {
		return nil, apperrors.Forbiddenf("you cannot message yourself")
	}
	if req.Type == "" {
		req.Type = models.MessageText
	}
	if !req.Type.IsValid() {
		return nil, apperrors.Invalidf("invalid message type %q", req.Type)
	}
	content := utils.SanitizeString(req.Content)
	if content == "" {
		return nil, apperrors.Invalidf("content is required")
	}
	if len([]rune(content)) > maxMessageLength {
		return nil, apperrors.Invalidf("content must be at most %d characters", maxMessageLength)
	}
	if req.Type == models.MessageImage && !strings.HasPrefix(content, "https://") {
		return nil, apperrors.Invalidf("image messages must carry an https URL")
	}

	from, err := s.store.FindUser(ctx, sender)
	if err != nil {
		return nil, err
	}
	to, err := s.store.FindUser(ctx, recipient)
	if err != nil {
		return nil, err
	}
	if from.HasBlocked(recipient) || to.HasBlocked(sender) {
		return nil, apperrors.Forbiddenf("you cannot message this user")
	}
	matched, err := s.matches.CheckMutualMatch(ctx, sender, recipient)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, apperrors.Forbiddenf("you can only message users you matched with")
	}

	var censored, privacyWarning bool
	if req.Type == models.MessageText {
		content, censored, privacyWarning, err = s.moderate(sender, content)
		if err != nil {
			return nil, err
		}
	}

	chat, err := s.store.FindOrCreateChat(ctx, sender, recipient)
	if err != nil {
		return nil, err
	}
	msg := &models.Message{
		Sender:    sender,
		Content:   content,
		Type:      req.Type,
		Timestamp: s.now(),
	}
	if err := s.store.AppendMessage(ctx, chat.ID, msg); err != nil {
		return nil, err
	}

	if s.broker != nil {
		if err := s.broker.Publish(ctx, chat.ID, *msg); err != nil {
			logger.WithFields(logger.Fields{"chat_id": chat.ID, "message_id": msg.ID}).WithError(err).Warn("failed to publish message")
		}
	}

	return &SendMessageResponse{
		ChatID:         chat.ID,
		Message:        *msg,
		Censored:       censored,
		PrivacyWarning: privacyWarning,
	}, nil
}

func (s *ChatService) ListChats(ctx context.Context, username string) ([]ChatSummary, error) {
	chats, err := s.store.ListChats(ctx, username)
	if err != nil {
		return nil, err
	}
	summaries := make([]ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summaries = append(summaries, ChatSummary{
			ID:          chat.ID,
			Counterpart: chat.Counterpart(username),
			CreatedAt:   chat.CreatedAt,
			UpdatedAt:   chat.UpdatedAt,
		})
	}
	return summaries, nil
}

// GetChat loads a chat with its messages. Only participants may read it.
func (s *ChatService) GetChat(ctx context.Context, username, chatID string) (*models.Chat, error) {
	chat, err := s.store.FindChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(username) {
		return nil, apperrors.Forbiddenf("you are not a participant of this chat")
	}
	if chat.Messages == nil {
		chat.Messages = []models.Message{}
	}
	return chat, nil
}

// MarkRead marks the messages username received in the chat as read.
func (s *ChatService) MarkRead(ctx context.Context, username, chatID string) (int64, error) {
	if _, err := s.GetChat(ctx, username, chatID); err != nil {
		return 0, err
	}
	return s.store.MarkRead(ctx, chatID, username)
}

// Subscribe streams new messages of a chat username participates in.
func (s *ChatService) Subscribe(ctx context.Context, username, chatID string) (<-chan models.Message, func(), error) {
	if _, err := s.GetChat(ctx, username, chatID); err != nil {
		return nil, nil, err
	}
	if s.broker == nil {
		return nil, nil, apperrors.New(apperrors.Internal, "live chat is not available")
	}
	ch, cancel := s.broker.Subscribe(ctx, chatID)
	return ch, cancel, nil
}
