package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/campuskit/beacon/internal/app"
	"github.com/campuskit/beacon/internal/core"
	"github.com/campuskit/beacon/internal/domain"
)

var errBadPublish = errors.New("publish request does not match its kind")

type Handlers struct {
	Hub *app.Hub
}

// PublishRequest is the wire form business services use after they have
// persisted their own domain state. Kind maps onto the dispatcher's
// closed event set.
type PublishRequest struct {
	Kind    string      `json:"kind" binding:"required,oneof=notify-identity message-identity broadcast-channel broadcast-role broadcast-all"`
	Target  string      `json:"target"`
	From    string      `json:"from"`
	Channel string      `json:"channel"`
	Role    string      `json:"role"`
	Body    domain.Body `json:"body"`
}

func (r PublishRequest) toEvent() (domain.Event, error) {
	switch r.Kind {
	case "notify-identity":
		if r.Target == "" {
			return nil, errBadPublish
		}
		return domain.NewNotify(domain.UserID(r.Target), r.Body), nil
	case "message-identity":
		if r.Target == "" {
			return nil, errBadPublish
		}
		return domain.NewMessage(domain.UserID(r.From), domain.UserID(r.Target), r.Body), nil
	case "broadcast-channel":
		// Only course channels have explicit rosters. A reserved name
		// here ("all", "role:…", "notify:…") means the caller wanted a
		// different kind; reject instead of fanning out to nothing.
		name := domain.ChannelName(r.Channel)
		if name.Validate() != nil || name.Kind() != domain.ChannelCourse {
			return nil, errBadPublish
		}
		return domain.NewBroadcast(name, r.Body), nil
	case "broadcast-role":
		role, err := domain.ParseRole(r.Role)
		if err != nil {
			return nil, errBadPublish
		}
		return domain.NewRoleBroadcast(role, r.Body), nil
	case "broadcast-all":
		return domain.NewGlobalBroadcast(r.Body), nil
	}
	return nil, errBadPublish
}

// Publish accepts one event and fans it out. Zero recipients is still
// 202: fire-and-forget is the contract with producers.
func (h *Handlers) Publish(c *gin.Context) {
	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	evt, err := req.toEvent()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	delivered, err := h.Hub.Publish(evt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"delivered": delivered})
}

// Kick closes every live session of a user — the path for "account
// deactivated mid-session".
func (h *Handlers) Kick(c *gin.Context) {
	var req struct {
		User string `json:"user" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	closed := h.Hub.Kick(domain.UserID(req.User))
	c.JSON(http.StatusOK, gin.H{"closed": closed})
}

func (h *Handlers) Channels(c *gin.Context) {
	infos := h.Hub.CourseChannels()
	c.JSON(http.StatusOK, gin.H{
		"channels": lo.Map(infos, func(ci core.ChannelInfo, _ int) gin.H {
			return gin.H{"name": ci.Name, "members": ci.Members}
		}),
	})
}

func (h *Handlers) Presence(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"online": h.Hub.OnlineCount()})
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": h.Hub.Conns.Len()})
}
