package http

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jotlabs/jot-server/auth"
	"github.com/jotlabs/jot-server/domain"
	"github.com/jotlabs/jot-server/notes"
)

type Server struct {
	svc  *notes.Service
	auth *auth.Authenticator
	log  zerolog.Logger
}

func NewServer(svc *notes.Service, authn *auth.Authenticator, log zerolog.Logger) *Server {
	return &Server{svc: svc, auth: authn, log: log}
}

// NewApp builds the fiber app with CORS, request logging and all routes.
func (s *Server) NewApp(allowedOrigin string) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  allowedOrigin,
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:  "Authorization, Content-Type",
		ExposeHeaders: "X-Pagination, Location",
	}))
	app.Use(requestLogger(s.log))

	api := app.Group("/api")
	api.Post("/users/login", s.handleLogin)

	n := api.Group("/notes", s.requireAuth)
	n.Get("/", s.handleList)
	n.Post("/", s.handleCreate)
	n.Get("/:id", s.handleGet)
	n.Put("/:id", s.handleUpdate)
	n.Patch("/:id/archive", s.handleArchive)
	n.Patch("/:id", s.handlePatch)
	n.Delete("/:id", s.handleDelete)

	return app
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	token, user, err := s.auth.Login(c.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return fail(c, fiber.StatusUnauthorized, "User not found")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return fail(c, fiber.StatusUnauthorized, "Incorrect Password")
	case err != nil:
		return s.internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

func (s *Server) handleList(c *fiber.Ctx) error {
	archived := c.QueryBool("archived", false)
	tags := c.Query("tags")
	pageNumber := c.QueryInt("pageNumber", 1)
	pageSize := c.QueryInt("pageSize", 10)

	items, total, err := s.svc.List(c.Context(), ownerID(c), archived, tags, pageNumber, pageSize)
	if err != nil {
		return s.internalError(c, err)
	}

	pagination, err := json.Marshal(domain.Pagination{
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalCount: total,
	})
	if err != nil {
		return s.internalError(c, err)
	}
	c.Set("X-Pagination", string(pagination))

	return respond(c, fiber.StatusOK, items)
}

func (s *Server) handleGet(c *fiber.Ctx) error {
	id, err := parseNoteID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid note id")
	}

	note, err := s.svc.Get(c.Context(), id, ownerID(c))
	if err != nil {
		return s.noteError(c, err)
	}
	return respond(c, fiber.StatusOK, note)
}

func (s *Server) handleCreate(c *fiber.Ctx) error {
	var in notes.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	note, err := s.svc.Create(c.Context(), in, ownerID(c))
	if err != nil {
		return s.internalError(c, err)
	}

	c.Set(fiber.HeaderLocation, "/api/notes/"+note.ID.String())
	return respond(c, fiber.StatusCreated, note)
}

func (s *Server) handleUpdate(c *fiber.Ctx) error {
	id, err := parseNoteID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid note id")
	}

	var in notes.UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	// The id in the path must match the id in the body.
	if in.ID != id {
		return fail(c, fiber.StatusBadRequest, "note id mismatch")
	}

	note, err := s.svc.Update(c.Context(), id, in, ownerID(c))
	if err != nil {
		return s.noteError(c, err)
	}
	return respond(c, fiber.StatusOK, note)
}

func (s *Server) handlePatch(c *fiber.Ctx) error {
	id, err := parseNoteID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid note id")
	}

	var ops []domain.PatchOp
	if err := json.Unmarshal(c.Body(), &ops); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid patch document")
	}

	note, err := s.svc.Patch(c.Context(), id, ops, ownerID(c))
	if err != nil {
		return s.noteError(c, err)
	}
	return respond(c, fiber.StatusOK, note)
}

func (s *Server) handleArchive(c *fiber.Ctx) error {
	id, err := parseNoteID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid note id")
	}

	// Body is a bare boolean literal.
	var archived bool
	if err := json.Unmarshal(c.Body(), &archived); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	note, err := s.svc.Archive(c.Context(), id, archived, ownerID(c))
	if err != nil {
		return s.noteError(c, err)
	}
	return respond(c, fiber.StatusOK, note)
}

func (s *Server) handleDelete(c *fiber.Ctx) error {
	id, err := parseNoteID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid note id")
	}

	deleted, err := s.svc.Delete(c.Context(), id, ownerID(c))
	if err != nil {
		return s.internalError(c, err)
	}
	if !deleted {
		return fail(c, fiber.StatusNotFound, "Note not found.")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseNoteID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, err
	}
	if id == uuid.Nil {
		return uuid.Nil, errors.New("empty note id")
	}
	return id, nil
}

// noteError maps service errors for the single-note handlers. Patch errors
// come back 400 with their own message, deliberately distinct from 404.
func (s *Server) noteError(c *fiber.Ctx, err error) error {
	var patchErr *domain.PatchError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "Note not found.")
	case errors.As(err, &patchErr):
		return fail(c, fiber.StatusBadRequest, patchErr.Error())
	default:
		return s.internalError(c, err)
	}
}

// internalError logs the cause and returns a generic message; store errors
// never reach the response body.
func (s *Server) internalError(c *fiber.Ctx, err error) error {
	s.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return fail(c, fiber.StatusInternalServerError, "internal server error")
}
