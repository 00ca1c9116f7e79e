// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the snapshot stream.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError   = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError = 3001 // Provided auth token was missing, invalid or expired.
	InvalidGameIDError    = 3003 // Target game in the WS URL does not exist.
	GameFinishedClose     = 3004 // The game finished; no more snapshots will follow.
)
