package models

import "github.com/google/uuid"

// ActionRecord is one entry of a game's action log. The engine publishes
// these to the historian queue after every committed command.
type ActionRecord struct {
	GameID        uuid.UUID              `json:"game_id"`
	ActionIndex   int64                  `json:"action_index"`
	ActorUserID   uuid.UUID              `json:"actor_user_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}
