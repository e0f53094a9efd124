package server

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"beatbox/internal/middleware"
	"beatbox/internal/models"
	"beatbox/internal/permission"
	"beatbox/internal/serializer"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// sessionCookie carries the JWT for the server-rendered pages.
const sessionCookie = "beatbox_token"

//go:embed templates/*.html
var templateFS embed.FS

func parsePages() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

type homeData struct {
	Email string
	Error string
}

type basicData struct {
	Items []*serializer.Representation
	Next  string
}

func (s *Server) render(c *fiber.Ctx, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}

// HomePage handles GET /home
func (s *Server) HomePage(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "home", homeData{})
}

// HomeLogin handles POST /home: checks the form credentials, stores the token
// in a cookie and redirects to the suggestion list.
func (s *Server) HomeLogin(c *fiber.Ctx) error {
	email := c.FormValue("email")
	password := c.FormValue("password")

	user, err := s.userRepo.GetByEmail(c.UserContext(), email)
	if err != nil {
		return respondError(c, err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return s.render(c, fiber.StatusUnauthorized, "home", homeData{Email: email, Error: "Invalid credentials"})
	}

	token, claims, err := middleware.IssueToken(s.config.JWTSecret, user.ID, time.Now())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  claims.ExpiresAt,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect("/basic/", fiber.StatusSeeOther)
}

// PageAuthRequired authenticates page requests from the session cookie and
// sends anonymous visitors to the sign-in page.
func (s *Server) PageAuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(sessionCookie)
		if token == "" {
			if bearer, err := middleware.BearerToken(c); err == nil {
				token = bearer
			}
		}
		if token == "" {
			return c.Redirect("/home/", fiber.StatusSeeOther)
		}

		claims, err := s.authenticate(c.UserContext(), token)
		if err != nil {
			if models.StatusFor(err) != fiber.StatusUnauthorized {
				return respondError(c, err)
			}
			c.ClearCookie(sessionCookie)
			return c.Redirect("/home/", fiber.StatusSeeOther)
		}
		c.Locals("userID", claims.UserID)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), claims.UserID))
		return c.Next()
	}
}

// BasicPage handles GET /basic: the newest page of suggestions as HTML.
func (s *Server) BasicPage(c *fiber.Ctx) error {
	page, err := s.suggestions.List(c.UserContext(), currentUserID(c), c.Query("cursor"))
	if err != nil {
		return respondError(c, err)
	}
	return s.render(c, fiber.StatusOK, "basic", basicData{
		Items: serializer.EncodeAll(serializer.ViewFor(permission.OpList), page.Items, s.serializerContext(c)),
		Next:  page.Next,
	})
}
