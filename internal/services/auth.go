package services

import (
	"errors"
	"fmt"
	"time"

	"funilzap/internal/config"
	"funilzap/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService gerencia autenticação e emissão de tokens
type AuthService struct {
	db     *gorm.DB
	config *config.Config
}

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{db: db, config: cfg}
}

func (s *AuthService) Login(email, senha string) (string, *models.Usuario, error) {
	var usuario models.Usuario
	if err := s.db.Where("email = ? AND ativo = ?", email, true).First(&usuario).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, fmt.Errorf("credenciais inválidas")
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usuario.Senha), []byte(senha)); err != nil {
		return "", nil, fmt.Errorf("credenciais inválidas")
	}

	token, err := s.GenerateToken(&usuario)
	if err != nil {
		return "", nil, err
	}

	return token, &usuario, nil
}

func (s *AuthService) GenerateToken(usuario *models.Usuario) (string, error) {
	claims := Claims{
		UserID: usuario.ID,
		Email:  usuario.Email,
		Role:   string(usuario.Tipo),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de assinatura inesperado: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("token inválido")
	}

	return claims, nil
}

// UserService gerencia operações de usuários
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) BuscarPorID(id string) (*models.Usuario, error) {
	var usuario models.Usuario
	if err := s.db.First(&usuario, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &usuario, nil
}

// BuscarPorEmail retorna (nil, nil) quando não há usuário com o email dado
func (s *UserService) BuscarPorEmail(email string) (*models.Usuario, error) {
	var usuario models.Usuario
	err := s.db.Where("email = ? AND ativo = ?", email, true).First(&usuario).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &usuario, nil
}

func (s *UserService) Criar(usuario *models.Usuario) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(usuario.Senha), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	usuario.Senha = string(hash)
	return s.db.Create(usuario).Error
}
