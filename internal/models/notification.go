package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationLike    NotificationType = "Like"
	NotificationComment NotificationType = "Comment"
)

// Notification aggregates every like or comment event on one post. There is
// at most one per (Post, Type).
type Notification struct {
	ID        primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Type      NotificationType     `json:"notification_type" bson:"notification_type"`
	Post      primitive.ObjectID   `json:"post" bson:"post"`
	Sender    primitive.ObjectID   `json:"-" bson:"sender"`
	Receivers []primitive.ObjectID `json:"-" bson:"receiver"`
	Message   string               `json:"message" bson:"message"`
	IsRead    bool                 `json:"is_read" bson:"is_read"`
	CreatedAt time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time            `json:"updated_at" bson:"updated_at"`
}

// NotificationPayload is what is pushed to online receivers.
type NotificationPayload struct {
	ID        primitive.ObjectID `json:"_id"`
	Type      NotificationType   `json:"notificationType"`
	Post      primitive.ObjectID `json:"post"`
	IsRead    bool               `json:"isRead"`
	Message   string             `json:"message"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func (n *Notification) Payload() NotificationPayload {
	return NotificationPayload{
		ID:        n.ID,
		Type:      n.Type,
		Post:      n.Post,
		IsRead:    n.IsRead,
		Message:   n.Message,
		UpdatedAt: n.UpdatedAt,
	}
}

// HasReceiver reports whether userID is subscribed.
func (n *Notification) HasReceiver(userID primitive.ObjectID) bool {
	for _, r := range n.Receivers {
		if r == userID {
			return true
		}
	}
	return false
}
