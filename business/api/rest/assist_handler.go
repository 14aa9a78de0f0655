package rest

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const errNoQuery = "No query provided"

// handleAssist streams the answer as server-sent events. Every stream ends
// with a done event.
func (s *Server) handleAssist(c *gin.Context) {
	var req AssistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Query.Prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errNoQuery})
		return
	}

	queryID := queryIDOrNew(req.Query.ID)
	ctx := c.Request.Context()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	write := func(ev Event) error {
		data, err := encodeEvent(ev)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	}

	if err := s.relay(ctx, req.Query.Prompt, queryID, write); err != nil {
		s.logger.Warn(ctx, "assist stream aborted", "query_id", queryID, "error", err)
		return
	}
	if err := write(DoneEvent()); err != nil {
		s.logger.Warn(ctx, "assist done event not delivered", "query_id", queryID, "error", err)
	}
}

// handleAssistWS serves one query per connection: the client sends an
// AssistRequest, receives the events and the server closes normally.
func (s *Server) handleAssistWS(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, s.acceptOptions())
	if err != nil {
		s.logger.Warn(c.Request.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := c.Request.Context()

	var req AssistRequest
	if err := wsjson.Read(ctx, conn, &req); err != nil {
		s.logger.Warn(ctx, "websocket request unreadable", "error", err)
		conn.Close(websocket.StatusUnsupportedData, "invalid request body")
		return
	}
	if req.Query.Prompt == "" {
		wsjson.Write(ctx, conn, ErrorEvent(errNoQuery))
		conn.Close(websocket.StatusPolicyViolation, errNoQuery)
		return
	}

	queryID := queryIDOrNew(req.Query.ID)

	// Cancels the stream when the peer goes away.
	ctx = conn.CloseRead(ctx)

	write := func(ev Event) error {
		return wsjson.Write(ctx, conn, ev)
	}

	if err := s.relay(ctx, req.Query.Prompt, queryID, write); err != nil {
		s.logger.Warn(ctx, "websocket stream aborted", "query_id", queryID, "error", err)
		return
	}
	if err := write(DoneEvent()); err != nil {
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

// relay forwards assistant fragments to write. A panic while producing the
// stream is reported as an error event.
func (s *Server) relay(ctx context.Context, prompt, queryID string, write func(Event) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "assist stream panicked", "query_id", queryID, "panic", r)
			err = write(ErrorEvent(fmt.Sprint(r)))
		}
	}()

	for frag := range s.assistant.Assist(ctx, prompt, queryID) {
		if err := write(MessageEvent(frag.Content)); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (s *Server) acceptOptions() *websocket.AcceptOptions {
	if allowsAll(s.config.AllowedOrigins) {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}

	patterns := make([]string, 0, len(s.config.AllowedOrigins))
	for _, o := range s.config.AllowedOrigins {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		patterns = append(patterns, o)
	}
	return &websocket.AcceptOptions{OriginPatterns: patterns}
}

func queryIDOrNew(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
