package handlers

import (
	"net/http"

	"funilzap/internal/models"
	"funilzap/internal/services"

	"github.com/gin-gonic/gin"
)

// AutomacaoHandler expõe o CRUD das regras de automação
type AutomacaoHandler struct {
	automacoes *services.AutomacaoService
}

func NewAutomacaoHandler(automacoes *services.AutomacaoService) *AutomacaoHandler {
	return &AutomacaoHandler{automacoes: automacoes}
}

func (h *AutomacaoHandler) Listar(c *gin.Context) {
	regras, err := h.automacoes.Listar()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao listar automações"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"automacoes": regras})
}

type automacaoRequest struct {
	Nome    string         `json:"nome" binding:"required"`
	Gatilho models.Gatilho `json:"gatilho" binding:"required"`
	Acao    models.Acao    `json:"acao" binding:"required"`
	Ativo   *bool          `json:"ativo"`
}

func validarAutomacao(req *automacaoRequest) string {
	switch req.Gatilho.Evento {
	case models.EventoEtapaChange, models.EventoCardCriado, models.EventoCardGanho, models.EventoCardPerdido:
	default:
		return "Evento de gatilho desconhecido: " + req.Gatilho.Evento
	}

	switch req.Acao.Tipo {
	case models.AcaoMoverFunil:
		if req.Acao.FunilDestinoID == "" || req.Acao.EtapaDestinoID == "" {
			return "Ação mover_funil exige funil_destino_id e etapa_destino_id"
		}
	case models.AcaoCriarTarefa, models.AcaoRecalcularScore:
	default:
		return "Tipo de ação desconhecido: " + req.Acao.Tipo
	}
	return ""
}

func (h *AutomacaoHandler) Criar(c *gin.Context) {
	var req automacaoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"erro": "Dados inválidos: " + err.Error()})
		return
	}
	if msg := validarAutomacao(&req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"erro": msg})
		return
	}

	ativo := true
	if req.Ativo != nil {
		ativo = *req.Ativo
	}

	regra := &models.AutomacaoConfig{
		Nome:    req.Nome,
		Gatilho: req.Gatilho,
		Acao:    req.Acao,
		Ativo:   ativo,
	}
	if err := h.automacoes.Criar(regra); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao criar automação"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"automacao": regra})
}

func (h *AutomacaoHandler) Atualizar(c *gin.Context) {
	var req automacaoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"erro": "Dados inválidos: " + err.Error()})
		return
	}
	if msg := validarAutomacao(&req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"erro": msg})
		return
	}

	regra := &models.AutomacaoConfig{
		Nome:    req.Nome,
		Gatilho: req.Gatilho,
		Acao:    req.Acao,
	}
	regra.ID = c.Param("id")
	if req.Ativo != nil {
		regra.Ativo = *req.Ativo
	}

	if err := h.automacoes.Atualizar(regra); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao atualizar automação"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"automacao": regra})
}

func (h *AutomacaoHandler) Excluir(c *gin.Context) {
	if err := h.automacoes.Excluir(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"erro": "Automação não encontrada"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mensagem": "Automação excluída"})
}
