package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/MohammedGhazal09/portfolio/internal/apperr"
	"github.com/MohammedGhazal09/portfolio/internal/contact"
	"github.com/MohammedGhazal09/portfolio/internal/media"
	"github.com/MohammedGhazal09/portfolio/internal/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"img":   func(src, alt string) media.Props { return media.Image(src, alt) },
		"lower": strings.ToLower,
		"year":  func() int { return time.Now().Year() },
	}).ParseFS(templateFS, "templates/*.html")
}

// formView is what the contact form templates render.
type formView struct {
	Submission contact.Submission
	Status     string
	Sending    bool
	Success    bool
	Error      string
	Toasts     []contact.Notification
}

func newFormView(form *session.Form) formView {
	status := form.Controller.Status()
	return formView{
		Submission: form.Controller.Submission(),
		Status:     status.String(),
		Sending:    status == contact.Sending,
		Success:    status == contact.Success,
	}
}

// withToasts drains the form's queued notifications into the view and the
// HX-Trigger header so the page can raise them as toasts.
func withToasts(c *gin.Context, form *session.Form, v formView) formView {
	v.Toasts = form.Toasts.Drain()
	if len(v.Toasts) == 0 {
		return v
	}
	payload, err := json.Marshal(map[string][]contact.Notification{"toast": v.Toasts})
	if err == nil {
		c.Header("HX-Trigger", string(payload))
	}
	return v
}

func isAPIRequest(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/scene") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// fail renders err for the visitor. AppErrors keep their status and message;
// anything else becomes a generic 500.
func (s *Server) fail(c *gin.Context, err error) {
	appErr := apperr.From(err)
	if appErr.Code >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}

	if isAPIRequest(c) {
		c.AbortWithStatusJSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}
	c.HTML(appErr.Code, "error.html", gin.H{
		"Code":  appErr.Code,
		"Error": appErr.Message,
	})
	c.Abort()
}
