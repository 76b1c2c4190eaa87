package handlers

import (
	"log"
	"net/http"
	"time"

	"funilzap/internal/models"
	"funilzap/internal/services"

	"github.com/gin-gonic/gin"
)

// AtividadeHandler expõe a trilha de atividades de um card
type AtividadeHandler struct {
	cards *services.CardService
	notas *services.NotaService
}

func NewAtividadeHandler(cards *services.CardService, notas *services.NotaService) *AtividadeHandler {
	return &AtividadeHandler{cards: cards, notas: notas}
}

func (h *AtividadeHandler) Listar(c *gin.Context) {
	card, err := h.cards.BuscarPorID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"erro": "Card não encontrado"})
		return
	}

	atividades, err := h.cards.ListarAtividades(card.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao listar atividades"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"atividades": atividades})
}

type criarAtividadeRequest struct {
	Tipo         string `json:"tipo" binding:"required"`
	Descricao    string `json:"descricao" binding:"required"`
	DataPrevista string `json:"data_prevista"`
	Privado      bool   `json:"privado"`
}

// Criar registra uma atividade manual no card. Follow-ups em cards
// vinculados são publicados como nota privada na conversa, para que o
// atendente veja o combinado dentro do próprio Chatwoot.
func (h *AtividadeHandler) Criar(c *gin.Context) {
	card, err := h.cards.BuscarPorID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"erro": "Card não encontrado"})
		return
	}

	var req criarAtividadeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"erro": "Dados inválidos: " + err.Error()})
		return
	}

	if req.Tipo == models.TipoAtividadeFollowUp && card.ChatwootConversaID != nil {
		if err := h.notas.EnviarFollowUp(card, req.Descricao); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"erro": "Erro ao publicar follow-up na conversa: " + err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"mensagem": "Follow-up publicado na conversa"})
		return
	}

	atividade := &models.AtividadeCard{
		CardID:    card.ID,
		Tipo:      req.Tipo,
		Descricao: req.Descricao,
		Privado:   req.Privado,
		Status:    models.StatusAtividadePendente,
	}

	if req.DataPrevista != "" {
		data, err := parseDataRetorno(req.DataPrevista)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"erro": "data_prevista inválida, use o formato AAAA-MM-DD"})
			return
		}
		atividade.DataPrevista = &data
	} else {
		atividade.Status = models.StatusAtividadeConcluida
	}

	if err := h.cards.InserirAtividade(atividade); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao criar atividade"})
		return
	}

	// Atividade com prazo atualiza a data de retorno do card
	if atividade.DataPrevista != nil {
		if err := h.cards.Atualizar(card.ID, map[string]interface{}{"data_retorno": *atividade.DataPrevista}); err != nil {
			log.Printf("[ATIVIDADE] Erro ao atualizar data de retorno do card %s: %v", card.ID, err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{"atividade": atividade})
}

func (h *AtividadeHandler) Concluir(c *gin.Context) {
	if err := h.cards.ConcluirAtividade(c.Param("atividadeId")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"erro": "Atividade não encontrada"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mensagem": "Atividade concluída"})
}

// RessincronizarNotas reimporta as notas privadas da conversa vinculada.
// Com forcar=true a deduplicação é ignorada e tudo é espelhado de novo.
func (h *AtividadeHandler) RessincronizarNotas(c *gin.Context) {
	card, err := h.cards.BuscarPorID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"erro": "Card não encontrado"})
		return
	}

	var req struct {
		Forcar bool `json:"forcar"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"erro": "Dados inválidos"})
		return
	}

	if err := h.notas.RessincronizarNotas(card, req.Forcar); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"erro": "Erro ao buscar mensagens da conversa: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mensagem": "Notas ressincronizadas"})
}

func parseDataRetorno(valor string) (time.Time, error) {
	return time.Parse("2006-01-02", valor)
}
