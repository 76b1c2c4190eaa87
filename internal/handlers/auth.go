package handlers

import (
	"net/http"

	"funilzap/internal/services"

	"github.com/gin-gonic/gin"
)

// AuthHandler gerencia login e sessão
type AuthHandler struct {
	auth     *services.AuthService
	usuarios *services.UserService
}

func NewAuthHandler(auth *services.AuthService, usuarios *services.UserService) *AuthHandler {
	return &AuthHandler{auth: auth, usuarios: usuarios}
}

type loginRequest struct {
	Email string `json:"email" binding:"required,email"`
	Senha string `json:"senha" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"erro": "Dados inválidos: " + err.Error()})
		return
	}

	token, usuario, err := h.auth.Login(req.Email, req.Senha)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"erro": "Credenciais inválidas"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"usuario": usuario,
	})
}

// Me devolve o usuário autenticado pelo token da requisição
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString("user_id")
	usuario, err := h.usuarios.BuscarPorID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"erro": "Usuário não encontrado"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"usuario": usuario})
}
