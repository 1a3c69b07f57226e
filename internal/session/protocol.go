package session

import (
	"encoding/json"

	"github.com/jacob1911/pencil-app/internal/document"
	"github.com/jacob1911/pencil-app/internal/geometry"
)

// Message is the envelope for everything sent over a trace session socket.
// Server broadcasts carry a per-room sequence number so clients can discard
// stale repaints that arrive out of order.
type Message struct {
	Type     string          `json:"type"`
	TraceID  string          `json:"traceId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

const (
	// Connection lifecycle
	TypeWelcome   = "welcome"
	TypePeerJoin  = "peer.join"
	TypePeerLeave = "peer.leave"
	TypeError     = "error"

	// Pointer gestures (client → server)
	TypeImageSet     = "image.set"
	TypeStrokeBegin  = "stroke.begin"
	TypeStrokeSample = "stroke.sample"
	TypeStrokeEnd    = "stroke.end"
	TypeStrokeCancel = "stroke.cancel"
	TypeDragBegin    = "drag.begin"
	TypeDragMove     = "drag.move"
	TypeDragEnd      = "drag.end"

	// Path commands (client → server)
	TypePathUndo     = "path.undo"
	TypePathClear    = "path.clear"
	TypeConfigUpdate = "config.update"
	TypeDocSave      = "doc.save"

	// State broadcasts (server → clients)
	TypePathState    = "path.state"
	TypePreviewState = "preview.state"
	TypeConfigState  = "config.state"
	TypeDocSaved     = "doc.saved"
)

// WelcomePayload hands a joining client its identity and the room's current
// document.
type WelcomePayload struct {
	ClientID    string                  `json:"clientId"`
	UserID      string                  `json:"userId"`
	DisplayName string                  `json:"displayName,omitempty"`
	Doc         *document.TraceDocument `json:"doc"`
}

type PeerJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
}

type PeerLeavePayload struct {
	UserID string `json:"userId"`
}

// PointPayload carries one pointer position in image-pixel coordinates. Used
// by stroke.begin, stroke.sample and drag.move.
type PointPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ImageSetPayload struct {
	ImageID string `json:"image_id"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

type DragBeginPayload struct {
	Index int `json:"index"`
}

// PathStatePayload is the committed centerline after a mutation.
type PathStatePayload struct {
	Points []geometry.Point `json:"points"`
}

// PreviewStatePayload is the smoothed in-progress stroke; empty points clear
// the preview.
type PreviewStatePayload struct {
	Points []geometry.Point `json:"points"`
}

type ConfigStatePayload struct {
	Params document.Params `json:"params"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
