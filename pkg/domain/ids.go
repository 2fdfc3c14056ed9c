// Package domain holds identifier types shared across modules.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "pokevault/pkg/domain-errors"
)

type (
	UserID     uuid.UUID
	SessionID  uuid.UUID
	FavoriteID uuid.UUID
)

func NewUserID() UserID         { return UserID(uuid.New()) }
func NewSessionID() SessionID   { return SessionID(uuid.New()) }
func NewFavoriteID() FavoriteID { return FavoriteID(uuid.New()) }

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id SessionID) String() string  { return uuid.UUID(id).String() }
func (id FavoriteID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id FavoriteID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user ID")
	return UserID(u), err
}

func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session ID")
	return SessionID(u), err
}

func ParseFavoriteID(s string) (FavoriteID, error) {
	u, err := parseUUID(s, "favorite ID")
	return FavoriteID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
