package relay

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: pin allowed origins once the web client's deploy host is fixed
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler owns the /ws endpoint. A connection carries no identity at accept
// time; everything is established by the join frame.
type Handler struct {
	router *Router
	reg    *Registry
}

func NewHandler(router *Router, reg *Registry) *Handler {
	return &Handler{router: router, reg: reg}
}

func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("relay: upgrade failed")
		return
	}

	c := newClient(conn)
	h.reg.Add(c)
	go c.writePump()

	// Runs until the connection drops; keeps the request context alive for
	// the router's storage calls.
	c.readPump(r.Context(), h.router, h.reg)
}
