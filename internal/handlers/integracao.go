package handlers

import (
	"net/http"

	"funilzap/internal/chatwoot"
	"funilzap/internal/models"
	"funilzap/internal/services"

	"github.com/gin-gonic/gin"
)

// IntegracaoHandler administra o registro de integração com o Chatwoot
type IntegracaoHandler struct {
	integracao *services.IntegracaoService
	chatwoot   *chatwoot.Client
	syncLogs   *services.SyncLogService
}

func NewIntegracaoHandler(integracao *services.IntegracaoService, client *chatwoot.Client, syncLogs *services.SyncLogService) *IntegracaoHandler {
	return &IntegracaoHandler{integracao: integracao, chatwoot: client, syncLogs: syncLogs}
}

func (h *IntegracaoHandler) Buscar(c *gin.Context) {
	cfg, err := h.integracao.ConfigAtiva()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao carregar integração"})
		return
	}
	if cfg == nil {
		c.JSON(http.StatusNotFound, gin.H{"erro": "Integração não configurada"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"integracao": cfg})
}

type integracaoRequest struct {
	URL          string `json:"url" binding:"required"`
	AccountID    string `json:"accountId" binding:"required"`
	Token        string `json:"token"`
	BidirEnabled *bool  `json:"bidirEnabled"`
}

// Atualizar grava o registro de integração. A troca do gate bidirecional
// invalida o cache e passa a valer no próximo webhook.
func (h *IntegracaoHandler) Atualizar(c *gin.Context) {
	var req integracaoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"erro": "Dados inválidos: " + err.Error()})
		return
	}

	cfg, err := h.integracao.ConfigAtiva()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao carregar integração"})
		return
	}
	if cfg == nil {
		cfg = &models.ChatwootConfig{Ativo: true, BidirEnabled: true}
	}

	cfg.URL = req.URL
	cfg.AccountID = req.AccountID
	if req.Token != "" {
		cfg.Token = req.Token
	}
	if req.BidirEnabled != nil {
		cfg.BidirEnabled = *req.BidirEnabled
	}

	if err := h.integracao.Atualizar(cfg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao salvar integração"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"integracao": cfg})
}

// GarantirAtributos cria no Chatwoot as definições de atributo usadas
// pela sincronização
func (h *IntegracaoHandler) GarantirAtributos(c *gin.Context) {
	if err := h.integracao.GarantirAtributos(h.chatwoot); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"erro": "Erro ao garantir atributos no Chatwoot: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mensagem": "Atributos garantidos"})
}

// ListarLogs devolve as entradas mais recentes da trilha de auditoria
func (h *IntegracaoHandler) ListarLogs(c *gin.Context) {
	logs, err := h.syncLogs.ListarRecentes(200)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao listar logs de sincronização"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
