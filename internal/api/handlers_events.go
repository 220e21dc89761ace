package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"reelcast/internal/events"
	"reelcast/internal/logging"
)

const (
	eventBatch   = 100
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origins are enforced by the CORS and bearer token middleware.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleEvents streams a project's events over a websocket. The first frame
// is the current project snapshot; the stream ends after a terminal status
// unless ?follow=1 is given.
func (s *Server) handleEvents(c *gin.Context) {
	p, err := s.loadProject(c, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	since, _ := strconv.ParseUint(c.Query("since"), 10, 64)
	follow, _ := strconv.ParseBool(c.Query("follow"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		// Reading is required to observe close frames.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	logger := logging.WithContext(c.Request.Context(), s.logger).With(logging.String(logging.FieldProjectID, p.ID))
	if since == 0 {
		snapshot := FromProject(p)
		if err := s.writeFrame(conn, EventMessage{ProjectID: p.ID, Kind: string(events.KindStatus), Time: snapshot.UpdatedAt, Project: &snapshot}); err != nil {
			return
		}
		if (p.Status.IsTerminal() && !follow) || s.deps.Events == nil {
			s.closeStream(conn)
			return
		}
	}

	if s.deps.Events == nil {
		s.closeStream(conn)
		return
	}
	for {
		batch, cursor, err := s.deps.Events.Fetch(ctx, p.ID, since, eventBatch, true)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Debug("event stream ended", logging.Error(err))
			}
			return
		}
		since = cursor
		for _, evt := range batch {
			if err := s.writeFrame(conn, FromEvent(evt)); err != nil {
				return
			}
			if !follow && evt.Kind == events.KindStatus && evt.Project != nil && evt.Project.Status.IsTerminal() {
				s.closeStream(conn)
				return
			}
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, msg EventMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(msg)
}

func (s *Server) closeStream(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(time.Second))
}
