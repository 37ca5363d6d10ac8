package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"shopfront/app/models"
	"shopfront/pkg/auth"
	"shopfront/pkg/logger"
	"shopfront/pkg/middleware"
	"shopfront/pkg/response"
)

// credentials is the login/register response payload.
type credentials struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	if body.Name == "" || body.Email == "" || len(body.Password) < 8 {
		response.Error(w, http.StatusUnprocessableEntity, "name, email and a password of at least 8 characters are required")
		return
	}

	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not hash password")
		return
	}

	account := Account{Name: body.Name, Email: body.Email, Password: hash, Role: models.RoleCustomer}
	if err := s.db.Create(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE") {
			response.Error(w, http.StatusConflict, "email already registered")
			return
		}
		logger.WithCtx(r.Context()).Error("register failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "could not create account")
		return
	}

	s.respondWithToken(w, account, response.Created)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var account Account
	err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(body.Email))).First(&account).Error
	if err != nil || !auth.CheckPassword(account.Password, body.Password) {
		// Same response for unknown email and wrong password.
		response.Unauthorized(w)
		return
	}

	s.respondWithToken(w, account, response.Success)
}

func (s *Server) respondWithToken(w http.ResponseWriter, account Account, send func(http.ResponseWriter, interface{})) {
	user := account.toUser()
	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	send(w, credentials{User: user, Token: token})
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	account, ok := s.accountFromCtx(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	response.Success(w, account.toUser())
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	account, ok := s.accountFromCtx(r)
	if !ok {
		response.Unauthorized(w)
		return
	}

	lines := []models.CartLine{}
	if account.CartJSON != "" {
		if err := json.Unmarshal([]byte(account.CartJSON), &lines); err != nil {
			lines = nil
		}
	}
	response.Success(w, lines)
}

func (s *Server) putCart(w http.ResponseWriter, r *http.Request) {
	account, ok := s.accountFromCtx(r)
	if !ok {
		response.Unauthorized(w)
		return
	}

	var lines []models.CartLine
	if err := json.NewDecoder(r.Body).Decode(&lines); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid cart payload")
		return
	}

	raw, err := json.Marshal(lines)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid cart payload")
		return
	}

	if err := s.db.Model(&account).Update("cart_json", string(raw)).Error; err != nil {
		logger.WithCtx(r.Context()).Error("cart mirror write failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "could not store cart")
		return
	}
	response.NoContent(w)
}

// accountFromCtx resolves the account behind the validated bearer claims.
// A token whose account no longer exists is treated as rejected.
func (s *Server) accountFromCtx(r *http.Request) (Account, bool) {
	claims, ok := middleware.ClaimsFromCtx(r.Context())
	if !ok {
		return Account{}, false
	}

	var account Account
	if err := s.db.First(&account, "id = ?", claims.UserID).Error; err != nil {
		return Account{}, false
	}
	return account, true
}
