package relay

import (
	"context"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/tangytongues/WatchTogether/internal/entity"
	"github.com/tangytongues/WatchTogether/internal/metrics"
	"github.com/tangytongues/WatchTogether/internal/repo"
)

// Router is the session protocol state machine. Every inbound frame runs to
// completion under one process-wide mutex, storage calls included, so room
// mutations never interleave: two first-joins to the same room cannot both
// observe an empty roster.
//
// Malformed frames and frames invalid for the connection's state are
// dropped without an error frame back to the sender.
type Router struct {
	mu       sync.Mutex
	store    repo.SessionStore
	reg      *Registry
	validate *validator.Validate
}

func NewRouter(store repo.SessionStore, reg *Registry) *Router {
	return &Router{
		store:    store,
		reg:      reg,
		validate: validator.New(),
	}
}

// HandleFrame dispatches one inbound frame from a connection.
func (rt *Router) HandleFrame(ctx context.Context, c *Client, data []byte) {
	var env Envelope
	if err := codec.Unmarshal(data, &env); err != nil {
		log.Debug().Err(err).Msg("relay: dropping unparseable frame")
		return
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	switch env.Type {
	case TypeJoinRoom:
		rt.handleJoin(ctx, c, env.Payload)
	case TypeLeaveRoom:
		rt.handleLeave(ctx, c)
	case TypeChatMessage:
		rt.handleChat(ctx, c, env.Payload)
	case TypeParticipantUpdate:
		rt.handlePresence(ctx, c, env.Payload)
	case TypeMediaStateUpdate:
		rt.relayToRoom(c, env, true)
	case TypeWebRTCOffer, TypeWebRTCAnswer, TypeWebRTCICE:
		rt.handleSignaling(c, env)
	case TypeFileShared, TypeMediaShared:
		rt.relayToRoom(c, env, false)
	case TypeAnnotationAdded:
		rt.relayToRoom(c, env, true)
	case TypeAnnotationCleared:
		rt.relayToRoom(c, env, false)
	case TypePointerMoved:
		rt.handlePointer(c, env)
	default:
		log.Debug().Str("type", env.Type).Msg("relay: dropping frame of unknown type")
	}
	metrics.FramesHandled.WithLabelValues(env.Type).Inc()
}

// HandleDisconnect runs the departure path for a closed connection. Safe to
// call more than once; only the first call after a join has any effect.
func (rt *Router) HandleDisconnect(ctx context.Context, c *Client) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.departed(ctx, c)
}

func (rt *Router) handleJoin(ctx context.Context, c *Client, payload []byte) {
	if c.State() != StateUnjoined {
		log.Debug().Str("participantId", c.ParticipantID()).Msg("relay: join ignored, connection already joined")
		return
	}

	var req JoinRoomPayload
	if err := codec.Unmarshal(payload, &req); err != nil {
		log.Debug().Err(err).Msg("relay: dropping malformed join payload")
		return
	}
	if err := rt.validate.Struct(&req); err != nil {
		log.Debug().Err(err).Msg("relay: dropping invalid join payload")
		return
	}

	existing, err := rt.store.ListRoomParticipants(ctx, req.RoomID)
	if err != nil {
		log.Error().Err(err).Str("roomId", req.RoomID).Msg("relay: join failed listing roster")
		return
	}

	room, err := rt.store.GetRoom(ctx, req.RoomID)
	if errors.Is(err, repo.ErrNotFound) {
		name := req.RoomName
		if name == "" {
			name = "Room " + req.RoomID
		}
		room, err = rt.store.CreateRoom(ctx, &entity.Room{
			ID:     req.RoomID,
			Name:   name,
			HostID: req.RoomID,
			Theme:  "default",
			Layout: "grid",
		})
	}
	if err != nil {
		log.Error().Err(err).Str("roomId", req.RoomID).Msg("relay: join failed resolving room")
		return
	}

	// First joiner observed an empty roster and becomes host. The flag is
	// never reassigned, even if the host departs later.
	participant, err := rt.store.AddParticipant(ctx, &entity.Participant{
		RoomID:   req.RoomID,
		Username: req.Username,
		IsHost:   len(existing) == 0,
	})
	if err != nil {
		log.Error().Err(err).Str("roomId", req.RoomID).Msg("relay: join failed adding participant")
		return
	}

	c.bind(participant.ID, req.RoomID)
	rt.reg.Bind(req.RoomID, participant.ID, c)

	roster, err := rt.store.ListRoomParticipants(ctx, req.RoomID)
	if err != nil {
		log.Error().Err(err).Str("roomId", req.RoomID).Msg("relay: join failed reloading roster")
		return
	}
	history, err := rt.store.ListRoomMessages(ctx, req.RoomID)
	if err != nil {
		log.Error().Err(err).Str("roomId", req.RoomID).Msg("relay: join failed loading chat history")
		return
	}

	rt.unicast(participant.ID, TypeJoinRoom, JoinedPayload{
		ParticipantID: participant.ID,
		Room:          room,
		Participants:  roster,
		Messages:      history,
	})
	rt.broadcast(req.RoomID, TypeParticipantUpdate, RosterPayload{Participants: roster}, participant.ID)

	log.Info().
		Str("roomId", req.RoomID).
		Str("participantId", participant.ID).
		Str("username", req.Username).
		Bool("isHost", participant.IsHost).
		Int("roomSize", len(roster)).
		Msg("relay: participant joined")
}

func (rt *Router) handleLeave(ctx context.Context, c *Client) {
	rt.departed(ctx, c)
}

// departed is the single cleanup path shared by explicit leaves, transport
// closes and liveness eviction.
func (rt *Router) departed(ctx context.Context, c *Client) {
	participantID, roomID, wasJoined := c.leave()
	if !wasJoined {
		return
	}

	rt.reg.Unbind(roomID, participantID)
	if err := rt.store.RemoveParticipant(ctx, participantID); err != nil {
		log.Error().Err(err).Str("participantId", participantID).Msg("relay: failed removing participant")
	}

	roster, err := rt.store.ListRoomParticipants(ctx, roomID)
	if err != nil {
		log.Error().Err(err).Str("roomId", roomID).Msg("relay: failed reloading roster after departure")
		return
	}

	// A room lives exactly as long as it has participants.
	if len(roster) == 0 {
		if err := rt.store.DeleteRoom(ctx, roomID); err != nil {
			log.Error().Err(err).Str("roomId", roomID).Msg("relay: failed deleting empty room")
		}
		log.Info().Str("roomId", roomID).Str("participantId", participantID).Msg("relay: last participant left, room deleted")
		return
	}

	rt.broadcast(roomID, TypeParticipantUpdate, RosterPayload{Participants: roster}, "")
	log.Info().Str("roomId", roomID).Str("participantId", participantID).Int("roomSize", len(roster)).Msg("relay: participant left")
}

func (rt *Router) handleChat(ctx context.Context, c *Client, payload []byte) {
	if c.State() != StateJoined {
		return
	}
	var req ChatMessagePayload
	if err := codec.Unmarshal(payload, &req); err != nil {
		log.Debug().Err(err).Msg("relay: dropping malformed chat payload")
		return
	}
	if err := rt.validate.Struct(&req); err != nil {
		log.Debug().Err(err).Msg("relay: dropping invalid chat payload")
		return
	}

	sender, err := rt.store.GetParticipant(ctx, c.ParticipantID())
	if err != nil {
		log.Warn().Err(err).Str("participantId", c.ParticipantID()).Msg("relay: chat from unknown participant")
		return
	}

	msg, err := rt.store.AddMessage(ctx, &entity.ChatMessage{
		RoomID:         c.RoomID(),
		SenderID:       sender.ID,
		SenderUsername: sender.Username,
		Content:        req.Content,
	})
	if err != nil {
		log.Error().Err(err).Str("roomId", c.RoomID()).Msg("relay: failed persisting chat message")
		return
	}

	// Chat echoes back to the sender so delivery doubles as confirmation.
	rt.broadcast(c.RoomID(), TypeChatMessage, msg, "")
	metrics.ChatMessages.Inc()
}

func (rt *Router) handlePresence(ctx context.Context, c *Client, payload []byte) {
	if c.State() != StateJoined {
		return
	}
	var upd repo.ParticipantUpdate
	if err := codec.Unmarshal(payload, &upd); err != nil {
		log.Debug().Err(err).Msg("relay: dropping malformed presence payload")
		return
	}

	if _, err := rt.store.UpdateParticipant(ctx, c.ParticipantID(), upd); err != nil {
		// Skip the broadcast rather than announce state that did not stick.
		log.Error().Err(err).Str("participantId", c.ParticipantID()).Msg("relay: presence update failed, broadcast skipped")
		return
	}

	roster, err := rt.store.ListRoomParticipants(ctx, c.RoomID())
	if err != nil {
		log.Error().Err(err).Str("roomId", c.RoomID()).Msg("relay: failed reloading roster after presence update")
		return
	}
	rt.broadcast(c.RoomID(), TypeParticipantUpdate, RosterPayload{Participants: roster}, "")
}

// relayToRoom forwards an opaque payload to the sender's room. Events the
// sender has already applied locally (media scrubbing, strokes) exclude it
// to avoid echo loops; announcements echo to everyone.
func (rt *Router) relayToRoom(c *Client, env Envelope, excludeSender bool) {
	if c.State() != StateJoined {
		return
	}
	frame, err := codec.Marshal(env)
	if err != nil {
		return
	}
	exclude := ""
	if excludeSender {
		exclude = c.ParticipantID()
	}
	rt.reg.Broadcast(c.RoomID(), frame, exclude)
}

// handleSignaling forwards a peer-negotiation payload to its named target
// only, stamped with the sender's id. The relay never inspects the body.
func (rt *Router) handleSignaling(c *Client, env Envelope) {
	if c.State() != StateJoined {
		return
	}
	var body map[string]any
	if err := codec.Unmarshal(env.Payload, &body); err != nil {
		log.Debug().Err(err).Msg("relay: dropping malformed signaling payload")
		return
	}
	target, _ := body["targetParticipantId"].(string)
	if target == "" {
		log.Debug().Str("type", env.Type).Msg("relay: dropping signaling frame without target")
		return
	}
	delete(body, "targetParticipantId")
	body["fromParticipantId"] = c.ParticipantID()

	rt.unicast(target, env.Type, body)
}

func (rt *Router) handlePointer(c *Client, env Envelope) {
	if c.State() != StateJoined {
		return
	}
	var body map[string]any
	if err := codec.Unmarshal(env.Payload, &body); err != nil {
		log.Debug().Err(err).Msg("relay: dropping malformed pointer payload")
		return
	}
	body["participantId"] = c.ParticipantID()

	frame, err := marshalFrame(TypePointerMoved, body)
	if err != nil {
		return
	}
	rt.reg.Broadcast(c.RoomID(), frame, c.ParticipantID())
}

func (rt *Router) unicast(participantID, typ string, payload any) {
	frame, err := marshalFrame(typ, payload)
	if err != nil {
		log.Error().Err(err).Str("type", typ).Msg("relay: failed encoding unicast frame")
		return
	}
	rt.reg.Deliver(participantID, frame)
}

func (rt *Router) broadcast(roomID, typ string, payload any, excludeID string) {
	frame, err := marshalFrame(typ, payload)
	if err != nil {
		log.Error().Err(err).Str("type", typ).Msg("relay: failed encoding broadcast frame")
		return
	}
	rt.reg.Broadcast(roomID, frame, excludeID)
}
