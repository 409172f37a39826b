// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the campaign subscription handler.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError    websocket.StatusCode = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError  websocket.StatusCode = 3001 // Access token expired while the connection was open.
	InvalidPlayerIDError   websocket.StatusCode = 3002 // Player named by the token is not part of the campaign.
	InvalidCampaignIDError websocket.StatusCode = 3003 // Campaign in the WS URL does not exist.
)
