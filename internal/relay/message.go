package relay

import (
	"encoding/json"

	jsoniter "github.com/json-iterator/go"

	"github.com/tangytongues/WatchTogether/internal/entity"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Wire-level event kinds. Every frame is {"type": ..., "payload": ...}.
const (
	TypeJoinRoom          = "JOIN_ROOM"
	TypeLeaveRoom         = "LEAVE_ROOM"
	TypeChatMessage       = "CHAT_MESSAGE"
	TypeMediaStateUpdate  = "MEDIA_STATE_UPDATE"
	TypeParticipantUpdate = "PARTICIPANT_UPDATE"
	TypeWebRTCOffer       = "WEBRTC_OFFER"
	TypeWebRTCAnswer      = "WEBRTC_ANSWER"
	TypeWebRTCICE         = "WEBRTC_ICE_CANDIDATE"
	TypeFileShared        = "FILE_SHARED"
	TypeMediaShared       = "MEDIA_SHARED"
	TypeAnnotationAdded   = "ANNOTATION_ADDED"
	TypeAnnotationCleared = "ANNOTATION_CLEARED"
	TypePointerMoved      = "POINTER_MOVED"
)

type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type JoinRoomPayload struct {
	RoomID   string `json:"roomId" validate:"required,max=64"`
	Username string `json:"username" validate:"required,min=1,max=50"`
	RoomName string `json:"roomName" validate:"omitempty,max=100"`
}

type ChatMessagePayload struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

// JoinedPayload is the full snapshot unicast to a joiner: its identity, the
// room, the current roster and the room's chat history.
type JoinedPayload struct {
	ParticipantID string               `json:"participantId"`
	Room          *entity.Room         `json:"room"`
	Participants  []entity.Participant `json:"participants"`
	Messages      []entity.ChatMessage `json:"messages"`
}

type RosterPayload struct {
	Participants []entity.Participant `json:"participants"`
}

// marshalFrame builds the outbound wire bytes for one event.
func marshalFrame(typ string, payload any) ([]byte, error) {
	raw, err := codec.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return codec.Marshal(Envelope{Type: typ, Payload: raw})
}
