// Package models holds the plain data types shared by the service packages.
package models

import (
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// User is the identity carried in a player token.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// Player is a connected participant in a game.
type Player struct {
	ID        uuid.UUID       `json:"id"`
	User      *User           `json:"user"`
	Connected bool            `json:"connected"`
	Conn      *websocket.Conn `json:"-"`
}

// Card is a card as the client sees it.
type Card struct {
	ID    uuid.UUID `json:"id"`
	Rank  string    `json:"rank"`
	Suit  string    `json:"suit"`
	Value int       `json:"value"`
}

// GameAction is a client request received over the game websocket.
type GameAction struct {
	ActionType string                 `json:"type"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// GameActionRecord is one entry of a game's action log.
type GameActionRecord struct {
	GameID        uuid.UUID              `json:"gameId"`
	ActionIndex   int                    `json:"actionIndex"`
	ActorUserID   uuid.UUID              `json:"actorUserId"`
	ActionType    string                 `json:"actionType"`
	ActionPayload map[string]interface{} `json:"actionPayload"`
	Timestamp     int64                  `json:"timestamp"`
}
