package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MohammedGhazal09/portfolio/internal/apperr"
	"github.com/MohammedGhazal09/portfolio/internal/contact"
	"github.com/MohammedGhazal09/portfolio/internal/media"
	"github.com/MohammedGhazal09/portfolio/internal/scene"
	"github.com/MohammedGhazal09/portfolio/internal/session"
	"github.com/MohammedGhazal09/portfolio/internal/theme"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	formKey        = "form"
	themeCookieAge = 365 * 24 * 60 * 60
	imageCacheAge  = "public, max-age=86400"
	hintHeader     = "Sec-CH-Prefers-Color-Scheme"
	incompleteText = "Please fill in every field with a valid email address."
)

type contactRequest struct {
	Name     string `form:"name" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Subject  string `form:"subject" binding:"required"`
	Message  string `form:"message" binding:"required"`
	Honeypot string `form:"honeypot"`
}

func (r contactRequest) submission() contact.Submission {
	return contact.Submission{
		Name:     r.Name,
		Email:    r.Email,
		Subject:  r.Subject,
		Message:  r.Message,
		Honeypot: r.Honeypot,
	}
}

func postedSubmission(c *gin.Context) contact.Submission {
	return contact.Submission{
		Name:     c.PostForm(contact.FieldName),
		Email:    c.PostForm(contact.FieldEmail),
		Subject:  c.PostForm(contact.FieldSubject),
		Message:  c.PostForm(contact.FieldMessage),
		Honeypot: c.PostForm(contact.FieldHoneypot),
	}
}

// formSession attaches the visitor's contact form, issuing a session cookie
// on first contact.
func (s *Server) formSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(session.CookieName)
		form, created := s.sessions.Acquire(id)
		if created {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(session.CookieName, form.ID, 0, "/", "", s.secureCookies, true)
		}
		c.Set(formKey, form)
		c.Next()
	}
}

func currentForm(c *gin.Context) *session.Form {
	return c.MustGet(formKey).(*session.Form)
}

func (s *Server) visitorTheme(c *gin.Context) theme.Theme {
	cookie, _ := c.Cookie(theme.CookieName)
	return theme.Resolve(cookie, strings.Trim(c.GetHeader(hintHeader), `"`))
}

func (s *Server) handleIndex(c *gin.Context) {
	form := currentForm(c)
	data := gin.H{
		"content": s.content,
		"theme":   s.visitorTheme(c),
		"form":    withToasts(c, form, newFormView(form)),
	}
	if photo := s.content.Profile.Photo; photo != "" {
		data["avatar"] = media.Image(photo, s.content.Profile.FullName(),
			media.WithClass("avatar"), media.WithLoading(media.Eager), media.WithSizes("(max-width: 768px) 60vw, 320px"))
	}
	c.HTML(http.StatusOK, "index.html", data)
}

func (s *Server) handlePrivacy(c *gin.Context) {
	c.HTML(http.StatusOK, "privacy.html", gin.H{
		"content": s.content,
		"theme":   s.visitorTheme(c),
	})
}

// HTMX: returns just the form fragment.
func (s *Server) handleContactForm(c *gin.Context) {
	form := currentForm(c)
	c.HTML(http.StatusOK, "contact-form.html", withToasts(c, form, newFormView(form)))
}

// HTMX: polled while a success message is showing. Polling never starts a
// session; an unknown or expired one reads as an idle form.
func (s *Server) handleContactStatus(c *gin.Context) {
	id, _ := c.Cookie(session.CookieName)
	form, ok := s.sessions.Get(id)
	if !ok {
		c.HTML(http.StatusOK, "contact-status.html", formView{Status: contact.Idle.String()})
		return
	}
	c.HTML(http.StatusOK, "contact-status.html", withToasts(c, form, newFormView(form)))
}

// handleUpdateField stores one field as the visitor types. The field name
// arrives as "field" and its value under the field's own name, which is
// what an input posting itself sends.
func (s *Server) handleUpdateField(c *gin.Context) {
	form := currentForm(c)
	field := c.PostForm("field")
	err := form.Controller.UpdateField(field, c.PostForm(field))
	switch {
	case errors.Is(err, contact.ErrUnknownField):
		s.fail(c, apperr.BadRequest("Unknown form field.", err))
	case errors.Is(err, contact.ErrBusy):
		s.fail(c, apperr.Conflict("Your message is being sent.", err))
	case err != nil:
		s.fail(c, apperr.Internal("Something went wrong. Please try again later.", err))
	default:
		c.Status(http.StatusNoContent)
	}
}

// HTMX: submits the form and returns it re-rendered with any toasts.
func (s *Server) handleSubmit(c *gin.Context) {
	form := currentForm(c)
	// The relay result must land even if the visitor navigates away.
	ctx := context.WithoutCancel(c.Request.Context())

	// Bots post without browser validation. A filled honeypot gets the
	// disguised success whatever the other fields hold.
	if c.PostForm(contact.FieldHoneypot) != "" {
		outcome := form.Controller.SubmitForm(ctx, postedSubmission(c))
		s.logger.Debug("contact submit", zap.String("session", form.ID), zap.Stringer("outcome", outcome))
		c.HTML(http.StatusOK, "contact-form.html", withToasts(c, form, newFormView(form)))
		return
	}

	var req contactRequest
	if err := c.ShouldBind(&req); err != nil {
		// Keep what the visitor typed so the form is not wiped.
		for _, field := range []string{contact.FieldName, contact.FieldEmail, contact.FieldSubject, contact.FieldMessage} {
			_ = form.Controller.UpdateField(field, c.PostForm(field))
		}
		s.logger.Debug("contact form rejected", zap.Error(err))
		s.renderIncomplete(c, form)
		return
	}

	outcome := form.Controller.SubmitForm(ctx, req.submission())
	s.logger.Debug("contact submit", zap.String("session", form.ID), zap.Stringer("outcome", outcome))

	if outcome == contact.OutcomeIncomplete {
		s.renderIncomplete(c, form)
		return
	}
	c.HTML(http.StatusOK, "contact-form.html", withToasts(c, form, newFormView(form)))
}

func (s *Server) renderIncomplete(c *gin.Context, form *session.Form) {
	v := withToasts(c, form, newFormView(form))
	v.Error = incompleteText
	c.HTML(http.StatusBadRequest, "contact-form.html", v)
}

// handleTheme flips the visitor's theme and remembers it in a cookie.
func (s *Server) handleTheme(c *gin.Context) {
	next := s.visitorTheme(c).Opposite()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(theme.CookieName, next.String(), themeCookieAge, "/", "", s.secureCookies, false)
	c.JSON(http.StatusOK, gin.H{"theme": next})
}

// handleScene returns the hero scene for ?theme= or the visitor's theme.
// Requests for the site default get the prebuilt scene.
func (s *Server) handleScene(c *gin.Context) {
	t, ok := theme.Parse(c.Query("theme"))
	if !ok {
		t = s.visitorTheme(c)
	}
	if prebuilt := s.defaultScene.Load(); prebuilt != nil && prebuilt.Theme == t {
		c.JSON(http.StatusOK, prebuilt)
		return
	}
	c.JSON(http.StatusOK, scene.Build(t, s.sceneSeed))
}

func (s *Server) handleImage(c *gin.Context) {
	name := c.Param("name")

	w := c.Query("w")
	if w == "" {
		path, err := s.images.Path(name)
		if err != nil {
			s.fail(c, imageError(err))
			return
		}
		c.Header("Cache-Control", imageCacheAge)
		c.File(path)
		return
	}

	width, err := strconv.ParseUint(w, 10, 32)
	if err != nil {
		s.fail(c, apperr.BadRequest("Invalid image width.", err))
		return
	}
	r, err := s.images.Render(name, uint(width))
	if err != nil {
		s.fail(c, imageError(err))
		return
	}
	c.Header("Cache-Control", imageCacheAge)
	c.Data(http.StatusOK, r.ContentType, r.Data)
}

func imageError(err error) error {
	switch {
	case errors.Is(err, media.ErrNotFound):
		return apperr.NotFound("Image not found.", err)
	case errors.Is(err, media.ErrBadName), errors.Is(err, media.ErrUnsupportedWidth):
		return apperr.BadRequest("Invalid image request.", err)
	default:
		return apperr.Internal("Could not load image.", err)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"time":     time.Now().UTC().Format(time.RFC3339),
		"sessions": s.sessions.Len(),
	})
}
