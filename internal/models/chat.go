package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
)

func (t MessageType) IsValid() bool {
	return t == MessageText || t == MessageImage
}

// Chat is the conversation between two users. ParticipantA sorts before ParticipantB.
type Chat struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid" bson:"_id"`
	ParticipantA string    `json:"participant_a" gorm:"not null;uniqueIndex:idx_chat_pair" bson:"participantA"`
	ParticipantB string    `json:"participant_b" gorm:"not null;uniqueIndex:idx_chat_pair" bson:"participantB"`
	Messages     []Message `json:"messages,omitempty" gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" bson:"messages"`
	CreatedAt    time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updatedAt"`
}

// ChatPair orders two usernames the way Chat stores them.
func ChatPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

func (c *Chat) EnsureID() {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
}

func (c *Chat) BeforeCreate(tx *gorm.DB) error {
	c.EnsureID()
	return nil
}

func (c *Chat) HasParticipant(username string) bool {
	return c.ParticipantA == username || c.ParticipantB == username
}

// Counterpart returns the other participant.
func (c *Chat) Counterpart(username string) string {
	if c.ParticipantA == username {
		return c.ParticipantB
	}
	return c.ParticipantA
}

type Message struct {
	ID        string      `json:"id" gorm:"primaryKey;type:uuid" bson:"id"`
	ChatID    string      `json:"chat_id" gorm:"not null;index" bson:"-"`
	Sender    string      `json:"sender" gorm:"not null" bson:"sender"`
	Content   string      `json:"content" gorm:"not null" bson:"content"`
	Type      MessageType `json:"type" gorm:"not null;default:text" bson:"type"`
	Timestamp time.Time   `json:"timestamp" gorm:"index" bson:"timestamp"`
	Read      bool        `json:"read" gorm:"default:false" bson:"read"`
}

func (m *Message) EnsureID() {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	m.EnsureID()
	return nil
}
