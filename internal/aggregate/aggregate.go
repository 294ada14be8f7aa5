// Package aggregate folds like and comment events on a post into the single
// rolling notification kept for each (post, type) pair.
package aggregate

import (
	"fmt"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Kind int

const (
	LikeAdded Kind = iota
	LikeRemoved
	CommentAdded
	CommentRemoved
)

func (k Kind) String() string {
	switch k {
	case LikeAdded:
		return "like-add"
	case LikeRemoved:
		return "like-remove"
	case CommentAdded:
		return "comment-add"
	case CommentRemoved:
		return "comment-remove"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Actor is a user as named in a message.
type Actor struct {
	ID       primitive.ObjectID
	Username string
}

// Latest is the most recent remaining actor after a removal, with the comment
// text when the notification is a comment one.
type Latest struct {
	Actor Actor
	Text  string
}

// State is the mutable part of a stored notification.
type State struct {
	Sender    primitive.ObjectID
	Receivers []primitive.ObjectID
	Message   string
}

// Event describes one change to a post's likes or comments.
type Event struct {
	Kind  Kind
	Owner primitive.ObjectID // post owner
	Actor Actor
	// Count is the number of likes or comments on the post after the event.
	Count int
	// Text is the comment body on CommentAdded.
	Text string
	// StillSubscribed is set on CommentRemoved when the actor keeps at least
	// one comment on the post.
	StillSubscribed bool
	// Latest is required on LikeRemoved with Count > 0 and optional on
	// CommentRemoved, where it moves the sender off the removed actor.
	Latest *Latest
}

// Outcome is what the notification should become. When Delete is set the
// record must be removed and State is meaningless.
type Outcome struct {
	State  State
	Delete bool
}

// Apply computes the notification after ev. current is nil when no record
// exists yet. It does not modify current.
//
// The post owner stays a Comment receiver on CommentRemoved even after
// deleting their last comment; see "Post owner subscription" in DESIGN.md.
func Apply(current *State, ev Event) (Outcome, error) {
	switch ev.Kind {
	case LikeAdded:
		if ev.Count < 1 {
			return Outcome{}, fmt.Errorf("%s: count %d", ev.Kind, ev.Count)
		}
		next := State{
			Sender:  ev.Actor.ID,
			Message: LikeMessage(ev.Actor, ev.Owner, ev.Count),
		}
		if current == nil {
			next.Receivers = []primitive.ObjectID{ev.Owner}
		} else {
			next.Receivers = clone(current.Receivers)
		}
		return Outcome{State: next}, nil

	case LikeRemoved:
		if ev.Count <= 0 {
			return Outcome{Delete: true}, nil
		}
		if ev.Latest == nil {
			return Outcome{}, fmt.Errorf("%s: no remaining liker for count %d", ev.Kind, ev.Count)
		}
		next := State{
			Sender:  ev.Latest.Actor.ID,
			Message: LikeMessage(ev.Latest.Actor, ev.Owner, ev.Count),
		}
		if current == nil {
			next.Receivers = []primitive.ObjectID{ev.Owner}
		} else {
			next.Receivers = clone(current.Receivers)
		}
		return Outcome{State: next}, nil

	case CommentAdded:
		next := State{
			Sender:  ev.Actor.ID,
			Message: CommentMessage(ev.Actor, ev.Owner, ev.Text),
		}
		if current == nil {
			next.Receivers = addReceiver([]primitive.ObjectID{ev.Owner}, ev.Actor.ID)
		} else {
			next.Receivers = addReceiver(clone(current.Receivers), ev.Actor.ID)
		}
		return Outcome{State: next}, nil

	case CommentRemoved:
		if ev.Count <= 0 {
			return Outcome{Delete: true}, nil
		}
		if current == nil {
			if ev.Latest == nil {
				return Outcome{}, fmt.Errorf("%s: no notification and no remaining comment", ev.Kind)
			}
			return Outcome{State: State{
				Sender:    ev.Latest.Actor.ID,
				Receivers: addReceiver([]primitive.ObjectID{ev.Owner}, ev.Latest.Actor.ID),
				Message:   CommentMessage(ev.Latest.Actor, ev.Owner, ev.Latest.Text),
			}}, nil
		}
		next := State{
			Sender:    current.Sender,
			Receivers: clone(current.Receivers),
			Message:   current.Message,
		}
		if !ev.StillSubscribed && ev.Actor.ID != ev.Owner {
			next.Receivers = removeReceiver(next.Receivers, ev.Actor.ID)
		}
		if current.Sender == ev.Actor.ID && ev.Latest != nil {
			next.Sender = ev.Latest.Actor.ID
			next.Message = CommentMessage(ev.Latest.Actor, ev.Owner, ev.Latest.Text)
		}
		return Outcome{State: next}, nil
	}
	return Outcome{}, fmt.Errorf("unknown event kind %v", ev.Kind)
}

// LikeMessage names actor, "You" for the owner, and the others when count > 1.
func LikeMessage(actor Actor, owner primitive.ObjectID, count int) string {
	if count > 1 {
		return fmt.Sprintf("%s and %d others liked your post", displayName(actor, owner), count-1)
	}
	if actor.ID == owner {
		return "You liked your own post"
	}
	return actor.Username + " liked your post"
}

// CommentMessage quotes a preview of text of at most 50 characters.
func CommentMessage(actor Actor, owner primitive.ObjectID, text string) string {
	return fmt.Sprintf("%s commented \"%s\" on subscribed post.", displayName(actor, owner), Truncate(text, 50))
}

// Truncate shortens s to limit characters, ending it with "..." when cut.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}

func displayName(actor Actor, owner primitive.ObjectID) string {
	if actor.ID == owner {
		return "You"
	}
	return actor.Username
}

func clone(ids []primitive.ObjectID) []primitive.ObjectID {
	return append([]primitive.ObjectID(nil), ids...)
}

func addReceiver(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	for _, r := range ids {
		if r == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeReceiver(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, r := range ids {
		if r != id {
			out = append(out, r)
		}
	}
	return out
}
