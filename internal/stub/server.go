package stub

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ticketbooth/internal/convert"
	"ticketbooth/internal/limiter"
	"ticketbooth/internal/model"
)

// Server exposes a Store over the reservation REST API. Errors travel as
// {"message": ...} bodies, matching what the client expects to surface.
type Server struct {
	store     *Store
	log       *zap.Logger
	jwtSecret []byte
	accessTTL time.Duration
	logins    limiter.Limiter
}

// NewServer wires a Store to handlers. A nil logins limiter disables login
// throttling.
func NewServer(store *Store, log *zap.Logger, jwtSecret []byte, accessTTL time.Duration, logins limiter.Limiter) *Server {
	if logins == nil {
		logins = limiter.NewMemory(0, 0)
	}
	return &Server{store: store, log: log, jwtSecret: jwtSecret, accessTTL: accessTTL, logins: logins}
}

// Handler builds a ready-to-serve echo instance. Suitable both for a real
// listener and for httptest.
func (s *Server) Handler() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	s.Routes(e)
	return e
}

// Routes registers every endpoint of the REST interface.
func (s *Server) Routes(e *echo.Echo) {
	e.POST("/user/auth/login", s.login)
	e.POST("/user/auth/register", s.register)
	e.GET("/user/auth/me", s.withUser(s.me))

	e.GET("/concerts/list", s.withUser(s.listConcerts))
	e.POST("/concerts/create", s.withAdmin(s.createConcert))
	e.PATCH("/concerts/:id/cancel", s.withAdmin(s.cancelConcert))

	e.POST("/reserve/:userId/:concertId", s.withUser(s.reserve))
	e.DELETE("/reserve/:userId/:concertId", s.withUser(s.cancelReservation))
	e.GET("/reserve/dashboard", s.withAdmin(s.dashboard))

	e.GET("/transactions/list", s.withUser(s.listTransactions))
}

func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"message": msg})
}

// ---- auth ----

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(u *User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// authenticate resolves the bearer token to a stored user.
func (s *Server) authenticate(c echo.Context) (*User, error) {
	header := c.Request().Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil, errors.New("missing bearer token")
	}
	var claims tokenClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	return s.store.UserByID(claims.Subject)
}

func (s *Server) withUser(h func(echo.Context, *User) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, err := s.authenticate(c)
		if err != nil {
			return fail(c, http.StatusUnauthorized, "Unauthorized")
		}
		return h(c, u)
	}
}

func (s *Server) withAdmin(h func(echo.Context, *User) error) echo.HandlerFunc {
	return s.withUser(func(c echo.Context, u *User) error {
		if u.Role != model.RoleAdmin {
			return fail(c, http.StatusForbidden, "Forbidden")
		}
		return h(c, u)
	})
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ID          string `json:"_id"`
}

func (s *Server) login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "Email and password are required")
	}

	if ok, _ := s.logins.Allow(req.Email); !ok {
		return fail(c, http.StatusTooManyRequests, "Too many login attempts, try again later")
	}

	u, err := s.store.Authenticate(req.Email, req.Password)
	if err != nil {
		s.logins.Failure(req.Email)
		return fail(c, http.StatusUnauthorized, "Invalid credentials")
	}
	s.logins.Success(req.Email)

	tok, err := s.issueToken(u)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to issue token")
	}
	s.log.Info("login", zap.String("user", u.ID), zap.String("role", string(u.Role)))
	return c.JSON(http.StatusOK, authResponse{AccessToken: tok, Role: string(u.Role), ID: u.ID})
}

func (s *Server) register(c echo.Context) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "Name, email and password are required")
	}
	role := model.Role(req.Role)
	if role != model.RoleAdmin {
		role = model.RoleUser
	}

	u, err := s.store.CreateUser(req.Name, req.Email, req.Password, role)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return fail(c, http.StatusConflict, "Email already registered")
		}
		return fail(c, http.StatusInternalServerError, "Failed to create user")
	}
	tok, err := s.issueToken(u)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to issue token")
	}
	s.log.Info("register", zap.String("user", u.ID), zap.String("role", string(u.Role)))
	return c.JSON(http.StatusCreated, authResponse{AccessToken: tok, Role: string(u.Role), ID: u.ID})
}

func (s *Server) me(c echo.Context, u *User) error {
	return c.JSON(http.StatusOK, convert.UserFromModel(model.User{
		ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role,
	}))
}

// ---- concerts ----

func pageParams(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 5
	}
	return page, limit
}

func (s *Server) listConcerts(c echo.Context, _ *User) error {
	page, limit := pageParams(c)
	p := s.store.ListConcerts(c.QueryParam("userId"), page, limit)

	docs := make([]convert.ConcertDoc, 0, len(p.Concerts))
	for _, mc := range p.Concerts {
		docs = append(docs, convert.ConcertFromModel(mc))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": docs,
		"meta": convert.MetaFromModel(p.Meta),
	})
}

func (s *Server) createConcert(c echo.Context, _ *User) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		MaxSeats    int    `json:"maxSeats"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid body")
	}
	if strings.TrimSpace(req.Name) == "" || req.MaxSeats <= 0 {
		return fail(c, http.StatusBadRequest, "Name and a positive seat count are required")
	}
	mc := s.store.CreateConcert(req.Name, req.Description, req.MaxSeats)
	s.log.Info("concert created", zap.String("concert", mc.ID), zap.Int("maxSeats", req.MaxSeats))
	return c.JSON(http.StatusCreated, convert.ConcertFromModel(mc))
}

func (s *Server) cancelConcert(c echo.Context, _ *User) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || req.Status != "cancelled" {
		return fail(c, http.StatusBadRequest, `Body must set status to "cancelled"`)
	}
	mc, err := s.store.CancelConcert(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusNotFound, "Concert not found")
	}
	s.log.Info("concert cancelled", zap.String("concert", mc.ID))
	return c.JSON(http.StatusOK, convert.ConcertFromModel(mc))
}

// ---- reservations ----

// sameUserOrAdmin guards the /reserve/:userId/* routes: users act only on
// their own reservations.
func sameUserOrAdmin(c echo.Context, u *User) (string, bool) {
	target := c.Param("userId")
	if target == u.ID || u.Role == model.RoleAdmin {
		return target, true
	}
	return "", false
}

func (s *Server) reserve(c echo.Context, u *User) error {
	userID, ok := sameUserOrAdmin(c, u)
	if !ok {
		return fail(c, http.StatusForbidden, "Forbidden")
	}
	resID, err := s.store.Reserve(userID, c.Param("concertId"))
	switch {
	case errors.Is(err, ErrConcertNotFound):
		return fail(c, http.StatusNotFound, "Concert not found")
	case errors.Is(err, ErrConcertCancelled):
		return fail(c, http.StatusBadRequest, "Concert is cancelled")
	case errors.Is(err, ErrAlreadyReserved):
		return fail(c, http.StatusBadRequest, "Already reserved")
	case errors.Is(err, ErrSoldOut):
		return fail(c, http.StatusBadRequest, "Concert is sold out")
	case err != nil:
		return fail(c, http.StatusInternalServerError, "Failed to reserve")
	}
	s.log.Info("reserved", zap.String("user", userID), zap.String("reservation", resID))
	return c.JSON(http.StatusCreated, echo.Map{
		"_id":       resID,
		"userId":    userID,
		"concertId": c.Param("concertId"),
		"status":    string(model.StatusConfirmed),
	})
}

func (s *Server) cancelReservation(c echo.Context, u *User) error {
	userID, ok := sameUserOrAdmin(c, u)
	if !ok {
		return fail(c, http.StatusForbidden, "Forbidden")
	}
	err := s.store.CancelReservation(userID, c.Param("concertId"))
	switch {
	case errors.Is(err, ErrConcertNotFound):
		return fail(c, http.StatusNotFound, "Concert not found")
	case errors.Is(err, ErrReservationNotFound):
		return fail(c, http.StatusNotFound, "Reservation not found")
	case err != nil:
		return fail(c, http.StatusInternalServerError, "Failed to cancel")
	}
	s.log.Info("reservation cancelled", zap.String("user", userID), zap.String("concert", c.Param("concertId")))
	return c.JSON(http.StatusOK, echo.Map{"message": "Reservation cancelled"})
}

func (s *Server) dashboard(c echo.Context, _ *User) error {
	return c.JSON(http.StatusOK, convert.StatsFromModel(s.store.Stats()))
}

// ---- transactions ----

func (s *Server) listTransactions(c echo.Context, u *User) error {
	page, limit := pageParams(c)

	var scope string // empty = global history
	switch {
	case c.QueryParam("admin") == "true":
		if u.Role != model.RoleAdmin {
			return fail(c, http.StatusForbidden, "Forbidden")
		}
	case c.QueryParam("userId") != "":
		scope = c.QueryParam("userId")
		if scope != u.ID && u.Role != model.RoleAdmin {
			return fail(c, http.StatusForbidden, "Forbidden")
		}
	default:
		scope = u.ID
	}

	p := s.store.ListTransactions(scope, page, limit)
	docs := make([]convert.TransactionDoc, 0, len(p.Transactions))
	for _, t := range p.Transactions {
		docs = append(docs, convert.TransactionFromModel(t))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": docs,
		"meta": convert.MetaFromModel(p.Meta),
	})
}
