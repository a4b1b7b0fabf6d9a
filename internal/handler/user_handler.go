package handler

import (
	"net/http"

	"coffee-on/internal/middleware"
	"coffee-on/internal/model"
	"coffee-on/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CreateUserResponse is returned after an account is created.
type CreateUserResponse struct {
	ID      uuid.UUID `json:"id"`
	Message string    `json:"message"`
}

// UserHandler handles account HTTP requests.
type UserHandler struct {
	accounts service.AccountService
	logger   zerolog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(accounts service.AccountService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		accounts: accounts,
		logger:   logger.With().Str("handler", "user").Logger(),
	}
}

// Create handles POST /api/usuarios. Anonymous callers may sign up.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "", h.logger)
		return
	}

	id, err := h.accounts.Register(r.Context(), middleware.ActorFrom(r.Context()), &req)
	if err != nil {
		writeError(w, err, "Erro ao criar usuário", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, CreateUserResponse{ID: id, Message: "Usuário criado com sucesso"})
}

// List handles GET /api/usuarios.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.List(r.Context(), middleware.ActorFrom(r.Context()))
	if err != nil {
		writeError(w, err, "Erro ao listar usuários", h.logger)
		return
	}

	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// GetByID handles GET /api/usuarios/{id}.
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, model.ErrUserNotFound, "", h.logger)
		return
	}

	user, err := h.accounts.Get(r.Context(), middleware.ActorFrom(r.Context()), id)
	if err != nil {
		writeError(w, err, "Erro ao buscar usuário", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Update handles PUT /api/usuarios/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, model.ErrUserNotFound, "", h.logger)
		return
	}

	var patch model.UserPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err, "", h.logger)
		return
	}

	if err := h.accounts.Update(r.Context(), middleware.ActorFrom(r.Context()), id, patch); err != nil {
		writeError(w, err, "Erro ao atualizar usuário", h.logger)
		return
	}

	writeMessage(w, http.StatusOK, "Usuário atualizado com sucesso")
}

// Delete handles DELETE /api/usuarios/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, model.ErrUserNotFound, "", h.logger)
		return
	}

	if err := h.accounts.Delete(r.Context(), middleware.ActorFrom(r.Context()), id); err != nil {
		writeError(w, err, "Erro ao remover usuário", h.logger)
		return
	}

	writeMessage(w, http.StatusOK, "Usuário removido com sucesso")
}

// Recover handles POST /api/usuarios/recover.
func (h *UserHandler) Recover(w http.ResponseWriter, r *http.Request) {
	var req model.PasswordRecoveryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "", h.logger)
		return
	}

	if err := h.accounts.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, err, "Erro ao gerar código de recuperação.", h.logger)
		return
	}

	writeMessage(w, http.StatusOK, "Código de recuperação enviado para o e-mail.")
}

// Reset handles POST /api/usuarios/reset.
func (h *UserHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req model.PasswordResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "", h.logger)
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), req); err != nil {
		writeError(w, err, "Erro ao redefinir senha.", h.logger)
		return
	}

	writeMessage(w, http.StatusOK, "Senha redefinida com sucesso.")
}
