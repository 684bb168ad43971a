package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/fieldtrack/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
	wrap "github.com/Temutjin2k/fieldtrack/pkg/logger/wrapper"
	"github.com/Temutjin2k/fieldtrack/pkg/validator"

	"github.com/google/uuid"
)

type AuthService interface {
	Register(ctx context.Context, in models.Registration) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.AccessToken, *models.User, error)
	RoleCheck(ctx context.Context, token string) (*models.User, error)
	SavePushToken(ctx context.Context, userID uuid.UUID, token string) error
}

type Auth struct {
	auth AuthService
	l    logger.Logger
}

func NewAuth(service AuthService, l logger.Logger) *Auth {
	return &Auth{
		auth: service,
		l:    l,
	}
}

// Register godoc
// @Summary      Register a worker
// @Description  Creates an engineer or inspector account
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      dto.RegisterRequest  true  "New account"
// @Success      201      {object}  map[string]any
// @Failure      409      {object}  map[string]string
// @Failure      422      {object}  map[string]any
// @Router       /auth/register [post]
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "register_user")

	req := &dto.RegisterRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	user, err := h.auth.Register(ctx, req.ToModel())
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to register user", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, envelope{"user": user}, nil); err != nil {
		h.l.Error(ctx, "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Login godoc
// @Summary      Log in
// @Description  Exchanges email and password for an access token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      dto.LoginRequest  true  "Credentials"
// @Success      200      {object}  dto.LoginResponse
// @Failure      401      {object}  map[string]string
// @Failure      422      {object}  map[string]any
// @Router       /auth/login [post]
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "login_user")

	req := &dto.LoginRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	token, user, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to login user", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	response := dto.LoginResponse{
		AccessToken: token.Token,
		ExpiresAt:   token.ExpiresAt,
		User:        user,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Profile godoc
// @Summary      Current user
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *Auth) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_profile")

	user := models.UserFromContext(ctx)
	if user.IsAnonymous() {
		errorResponse(w, http.StatusUnauthorized, "authorization required")
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"user": user}, nil); err != nil {
		h.l.Error(ctx, "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// SavePushToken godoc
// @Summary      Register push token
// @Description  Stores the Expo push token used for reminders
// @Tags         Auth
// @Accept       json
// @Security     BearerAuth
// @Param        request  body  dto.PushTokenRequest  true  "Expo token"
// @Success      204
// @Failure      422  {object}  map[string]any
// @Router       /users/me/push-token [put]
func (h *Auth) SavePushToken(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "save_push_token")
	user := models.UserFromContext(ctx)

	req := &dto.PushTokenRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	if err := h.auth.SavePushToken(ctx, user.ID, req.Token); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to save push token", err)
		serviceErrorResponse(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
