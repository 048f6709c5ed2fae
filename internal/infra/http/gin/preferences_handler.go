package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/app/dto"
	domainuser "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/user"
)

// PreferencesHTTP exposes the notification opt-in flags.
type PreferencesHTTP interface {
	Get(c *gin.Context)
	Update(c *gin.Context)
}

type PreferencesHandler struct {
	Preferences domainuser.PreferencesRepository
	Logger      *slog.Logger
}

func (h PreferencesHandler) Get(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	prefs, err := h.Preferences.ByUserID(c.Request.Context(), p.ID)
	if err != nil {
		h.fail(c, err, "load preferences", p.ID)
		return
	}
	c.JSON(http.StatusOK, dto.NotificationPreferences{
		PushChatMessages: prefs.PushChatMessages,
		PushCartUpdates:  prefs.PushCartUpdates,
	})
}

func (h PreferencesHandler) Update(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req dto.NotificationPreferences
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	prefs := domainuser.NotificationPreferences{
		UserID:           p.ID,
		PushChatMessages: req.PushChatMessages,
		PushCartUpdates:  req.PushCartUpdates,
	}
	if err := h.Preferences.Save(c.Request.Context(), prefs); err != nil {
		h.fail(c, err, "save preferences", p.ID)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h PreferencesHandler) fail(c *gin.Context, err error, action, userID string) {
	if h.Logger != nil {
		h.Logger.Error("preferences call failed", "action", action, "user_id", userID, "error", err)
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "preferences unavailable"})
}

var _ PreferencesHTTP = (*PreferencesHandler)(nil)
