// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the realtime handler. These give
// clients a more specific reason for closure than the standard codes.
const (
	BadSubprotocolError     = 3000 // Client connected with an unsupported subprotocol.
	RoomClosedError         = 3001 // The room the client was in has been deleted.
	CredentialsInvalidError = 3002 // Stored identity no longer matches any player; client should clear it.
)
