package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ashisharjun12/devfinder-final/internal/metrics"
	"github.com/Ashisharjun12/devfinder-final/internal/project"
)

const sseHeartbeat = 25 * time.Second

// GetConnection godoc
// @Summary Caller's connection status on a project
// @Tags connect
// @Security SessionAuth
// @Produce json
// @Param id path string true "project id"
// @Success 200 {object} map[string]string "NOT_REQUESTED | PENDING | ACCEPTED | REJECTED | MEMBER"
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /projects/{id}/connect [get]
func (h *Handler) GetConnection(c *gin.Context) {
	id, err := project.ParseID(c.Param("id"), "project")
	if err != nil {
		writeError(c, err)
		return
	}
	st, err := h.Projects.Status(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": st})
}

type connectReq struct {
	Message *string `json:"message"`
}

// RequestConnection godoc
// @Summary Ask to join a project
// @Tags connect
// @Security SessionAuth
// @Accept json
// @Produce json
// @Param id path string true "project id"
// @Param payload body connectReq false "optional message"
// @Success 200 {object} project.Outcome
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /projects/{id}/connect [post]
func (h *Handler) RequestConnection(c *gin.Context) {
	id, err := project.ParseID(c.Param("id"), "project")
	if err != nil {
		writeError(c, err)
		return
	}
	var in connectReq
	if err := bindBody(c, connectSchema, &in, true); err != nil {
		writeError(c, err)
		return
	}
	out, err := h.Projects.Request(c.Request.Context(), principal(c), id, deref(in.Message))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type resolveReq struct {
	RequestID string `json:"requestId"`
	Action    string `json:"action"`
}

// ResolveConnection godoc
// @Summary Accept or reject a pending request (owner only)
// @Tags connect
// @Security SessionAuth
// @Accept json
// @Produce json
// @Param id path string true "project id"
// @Param payload body resolveReq true "request id and ACCEPT or REJECT"
// @Success 200 {object} project.Outcome
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /projects/{id}/connect [put]
func (h *Handler) ResolveConnection(c *gin.Context) {
	id, err := project.ParseID(c.Param("id"), "project")
	if err != nil {
		writeError(c, err)
		return
	}
	var in resolveReq
	if err := bindBody(c, resolveSchema, &in, false); err != nil {
		writeError(c, err)
		return
	}
	action, err := project.ParseAction(in.Action)
	if err != nil {
		writeError(c, err)
		return
	}
	rid, err := project.ParseID(in.RequestID, "request")
	if err != nil {
		writeError(c, err)
		return
	}
	out, err := h.Projects.Resolve(c.Request.Context(), principal(c), id, rid, action)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ProjectEvents godoc
// @Summary Server-sent stream of a project's events (owner and members)
// @Tags connect
// @Security SessionAuth
// @Produce text/event-stream
// @Param id path string true "project id"
// @Success 200
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /projects/{id}/events [get]
func (h *Handler) ProjectEvents(c *gin.Context) {
	id, err := project.ParseID(c.Param("id"), "project")
	if err != nil {
		writeError(c, err)
		return
	}
	ctx := c.Request.Context()
	if err := h.Projects.CanStream(ctx, principal(c), id); err != nil {
		writeError(c, err)
		return
	}

	room := id.Hex()
	sub, ch := h.Hub.Subscribe(room)
	defer h.Hub.Unsubscribe(room, sub)
	metrics.SSESubscribers.Inc()
	defer metrics.SSESubscribers.Dec()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	hb := time.NewTicker(sseHeartbeat)
	defer hb.Stop()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			c.SSEvent(string(ev.Type), ev)
			c.Writer.Flush()
		case <-hb.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			c.Writer.Flush()
		case <-ctx.Done():
			return
		}
	}
}
