package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account stored in MongoDB. The reference lists are newest first.
type User struct {
	ID         primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Username   string               `json:"username" bson:"username"`
	Email      string               `json:"-" bson:"email"`
	Password   string               `json:"-" bson:"password"` // bcrypt hash
	Visibility bool                 `json:"visibility" bson:"visibility"`
	State      Lifecycle            `json:"state" bson:"state"`
	Posts      []primitive.ObjectID `json:"posts" bson:"posts"`
	Likes      []primitive.ObjectID `json:"likes" bson:"likes"`
	Comments   []primitive.ObjectID `json:"-" bson:"comments"`
	Activities []primitive.ObjectID `json:"-" bson:"activities"`
	CreatedAt  time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at" bson:"updated_at"`
}

// UserCompact is the public projection of a user.
type UserCompact struct {
	ID       primitive.ObjectID `json:"id"`
	Username string             `json:"username"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Username: u.Username}
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=4,max=16,alphanum"`
	Email    string `json:"email" validate:"required,email,min=4,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type SignInRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateVisibilityRequest struct {
	Visibility *bool `json:"visibility" validate:"required"`
}

type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
