package handlers

import (
	"fmt"
	"log"
	"net/http"

	"funilzap/internal/models"
	"funilzap/internal/services"

	"github.com/gin-gonic/gin"
)

// KanbanHandler expõe o quadro: funis, etapas e cards
type KanbanHandler struct {
	funis         *services.FunilService
	cards         *services.CardService
	sincronizacao *services.SincronizacaoService
	automacoes    *services.AutomacaoService
	hub           *WebSocketHub
}

func NewKanbanHandler(funis *services.FunilService, cards *services.CardService, sincronizacao *services.SincronizacaoService, automacoes *services.AutomacaoService, hub *WebSocketHub) *KanbanHandler {
	return &KanbanHandler{
		funis:         funis,
		cards:         cards,
		sincronizacao: sincronizacao,
		automacoes:    automacoes,
		hub:           hub,
	}
}

func (h *KanbanHandler) ListarFunis(c *gin.Context) {
	funis, err := h.funis.Listar()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao listar funis"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"funis": funis})
}

type criarFunilRequest struct {
	Nome      string `json:"nome" binding:"required"`
	Descricao string `json:"descricao"`
	Cor       string `json:"cor"`
	Etapas    []struct {
		Nome string `json:"nome" binding:"required"`
		Cor  string `json:"cor"`
	} `json:"etapas"`
}

func (h *KanbanHandler) CriarFunil(c *gin.Context) {
	var req criarFunilRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"erro": "Dados inválidos: " + err.Error()})
		return
	}

	funil := &models.Funil{
		Nome:  req.Nome,
		Ativo: true,
	}
	if req.Descricao != "" {
		funil.Descricao = &req.Descricao
	}
	if req.Cor != "" {
		funil.Cor = req.Cor
	}
	for i, e := range req.Etapas {
		etapa := models.Etapa{
			Nome:  e.Nome,
			Ordem: i + 1,
		}
		if e.Cor != "" {
			cor := e.Cor
			etapa.Cor = &cor
		}
		funil.Etapas = append(funil.Etapas, etapa)
	}

	if err := h.funis.Criar(funil); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao criar funil"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"funil": funil})
}

func (h *KanbanHandler) AtualizarFunil(c *gin.Context) {
	funil, err := h.funis.BuscarPorID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"erro": "Funil não encontrado"})
		return
	}

	var req struct {
		Nome      *string `json:"nome"`
		Descricao *string `json:"descricao"`
		Cor       *string `json:"cor"`
		Ativo     *bool   `json:"ativo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"erro": "Dados inválidos"})
		return
	}

	if req.Nome != nil {
		funil.Nome = *req.Nome
	}
	if req.Descricao != nil {
		funil.Descricao = req.Descricao
	}
	if req.Cor != nil {
		funil.Cor = *req.Cor
	}
	if req.Ativo != nil {
		funil.Ativo = *req.Ativo
	}

	if err := h.funis.Atualizar(funil); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao atualizar funil"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"funil": funil})
}

// ExcluirFunil devolve 400 com a mensagem da trava quando ainda existem
// negociações abertas no funil
func (h *KanbanHandler) ExcluirFunil(c *gin.Context) {
	if err := h.funis.Excluir(c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"erro": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mensagem": "Funil excluído com sucesso"})
}

func (h *KanbanHandler) CriarEtapa(c *gin.Context) {
	funil, err := h.funis.BuscarPorID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"erro": "Funil não encontrado"})
		return
	}

	var req struct {
		Nome  string `json:"nome" binding:"required"`
		Cor   string `json:"cor"`
		Ordem int    `json:"ordem"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"erro": "Dados inválidos: " + err.Error()})
		return
	}

	ordem := req.Ordem
	if ordem == 0 {
		ordem = len(funil.Etapas) + 1
	}

	etapa := &models.Etapa{
		FunilID: funil.ID,
		Nome:    req.Nome,
		Ordem:   ordem,
	}
	if req.Cor != "" {
		cor := req.Cor
		etapa.Cor = &cor
	}
	if err := h.funis.CriarEtapa(etapa); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao criar etapa"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"etapa": etapa})
}

func (h *KanbanHandler) ListarCards(c *gin.Context) {
	arquivado := c.Query("arquivado") == "true"
	cards, err := h.cards.Listar(c.Query("funil_id"), c.Query("etapa_id"), arquivado)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao listar cards"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

type criarCardRequest struct {
	Nome               string  `json:"nome" binding:"required"`
	ContatoNome        *string `json:"contatoNome"`
	ContatoFone        *string `json:"contatoFone"`
	Descricao          *string `json:"descricao"`
	FunilID            string  `json:"funil_id" binding:"required"`
	EtapaID            string  `json:"etapa_id"`
	Prioridade         string  `json:"prioridade"`
	ChatwootConversaID *int    `json:"chatwoot_conversa_id"`
}

func (h *KanbanHandler) CriarCard(c *gin.Context) {
	var req criarCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"erro": "Dados inválidos: " + err.Error()})
		return
	}

	funil, err := h.funis.BuscarPorID(req.FunilID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"erro": "Funil não encontrado"})
		return
	}

	var etapa *models.Etapa
	if req.EtapaID != "" {
		etapa, err = h.funis.BuscarEtapaPorID(req.EtapaID)
	} else {
		etapa, err = h.funis.PrimeiraEtapa(funil.ID)
	}
	if err != nil || etapa == nil {
		c.JSON(http.StatusBadRequest, gin.H{"erro": "Etapa não encontrada"})
		return
	}

	if req.ChatwootConversaID != nil {
		existente, err := h.cards.BuscarPorConversaID(*req.ChatwootConversaID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao verificar conversa"})
			return
		}
		if existente != nil {
			c.JSON(http.StatusConflict, gin.H{"erro": "Já existe um card para essa conversa", "card": existente})
			return
		}
	}

	prioridade := req.Prioridade
	if prioridade == "" {
		prioridade = "media"
	}
	if !models.PrioridadeValida(prioridade) {
		c.JSON(http.StatusBadRequest, gin.H{"erro": fmt.Sprintf("Prioridade inválida: %s", req.Prioridade)})
		return
	}

	card := &models.CardConversa{
		Nome:               req.Nome,
		ContatoNome:        req.ContatoNome,
		ContatoFone:        req.ContatoFone,
		Descricao:          req.Descricao,
		ChatwootConversaID: req.ChatwootConversaID,
		FunilID:            &funil.ID,
		FunilNome:          &funil.Nome,
		EtapaID:            &etapa.ID,
		FunilEtapa:         &etapa.Nome,
		Status:             models.StatusCardAberto,
		Prioridade:         prioridade,
	}
	if err := h.cards.Criar(card); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao criar card"})
		return
	}

	if err := h.cards.InserirAtividade(&models.AtividadeCard{
		CardID:    card.ID,
		Tipo:      models.TipoAtividadeCriacao,
		Descricao: fmt.Sprintf("Card criado manualmente no funil %q, etapa %q", funil.Nome, etapa.Nome),
		Status:    models.StatusAtividadeConcluida,
	}); err != nil {
		log.Printf("[KANBAN] Erro ao registrar atividade de criação do card %s: %v", card.ID, err)
	}

	h.automacoes.DispararEvento(&services.EventoAutomacao{
		Evento:           models.EventoCardCriado,
		Card:             card,
		EtapaDestinoNome: etapa.Nome,
	})

	aviso := h.espelharSaida(card)
	h.hub.Broadcast("card_criado", card)
	h.responderComAviso(c, http.StatusCreated, gin.H{"card": card}, aviso)
}

func (h *KanbanHandler) AtualizarCard(c *gin.Context) {
	card, err := h.cards.BuscarPorID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"erro": "Card não encontrado"})
		return
	}

	var req struct {
		Nome          *string `json:"nome"`
		ContatoNome   *string `json:"contatoNome"`
		ContatoFone   *string `json:"contatoFone"`
		Descricao     *string `json:"descricao"`
		Prioridade    *string `json:"prioridade"`
		Pausado       *bool   `json:"pausado"`
		DataRetorno   *string `json:"data_retorno"`
		ResponsavelID *string `json:"responsavel_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"erro": "Dados inválidos"})
		return
	}

	campos := make(map[string]interface{})
	if req.Nome != nil {
		campos["nome"] = *req.Nome
	}
	if req.ContatoNome != nil {
		campos["contato_nome"] = *req.ContatoNome
	}
	if req.ContatoFone != nil {
		campos["contato_fone"] = *req.ContatoFone
	}
	if req.Descricao != nil {
		campos["descricao"] = *req.Descricao
	}
	if req.Prioridade != nil {
		if !models.PrioridadeValida(*req.Prioridade) {
			c.JSON(http.StatusBadRequest, gin.H{"erro": fmt.Sprintf("Prioridade inválida: %s", *req.Prioridade)})
			return
		}
		campos["prioridade"] = *req.Prioridade
	}
	if req.Pausado != nil {
		campos["pausado"] = *req.Pausado
	}
	if req.DataRetorno != nil {
		data, err := parseDataRetorno(*req.DataRetorno)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"erro": "data_retorno inválida, use o formato AAAA-MM-DD"})
			return
		}
		campos["data_retorno"] = data
	}
	if req.ResponsavelID != nil {
		campos["responsavel_id"] = *req.ResponsavelID
	}

	if len(campos) > 0 {
		if err := h.cards.Atualizar(card.ID, campos); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao atualizar card"})
			return
		}
	}

	atual, err := h.cards.BuscarPorID(card.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao recarregar card"})
		return
	}

	var aviso string
	if _, mudouRetorno := campos["data_retorno"]; mudouRetorno {
		aviso = h.espelharSaida(atual)
	}
	h.hub.Broadcast("card_atualizado", atual)
	h.responderComAviso(c, http.StatusOK, gin.H{"card": atual}, aviso)
}

// MoverCard muda o card de etapa (e de funil, quando a etapa pertence a
// outro). A mutação local sempre é mantida; falha no espelhamento de
// saída vira só um aviso na resposta.
func (h *KanbanHandler) MoverCard(c *gin.Context) {
	card, err := h.cards.BuscarPorID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"erro": "Card não encontrado"})
		return
	}

	var req struct {
		EtapaID string `json:"etapa_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"erro": "Dados inválidos: " + err.Error()})
		return
	}

	etapa, err := h.funis.BuscarEtapaPorID(req.EtapaID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"erro": "Etapa não encontrada"})
		return
	}
	funil, err := h.funis.BuscarPorID(etapa.FunilID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao carregar funil da etapa"})
		return
	}

	etapaAnterior := "nenhuma"
	if card.FunilEtapa != nil {
		etapaAnterior = *card.FunilEtapa
	}
	var funilOrigemID string
	if card.FunilID != nil {
		funilOrigemID = *card.FunilID
	}

	if err := h.cards.Atualizar(card.ID, map[string]interface{}{
		"funil_id":    funil.ID,
		"funil_nome":  funil.Nome,
		"etapa_id":    etapa.ID,
		"funil_etapa": etapa.Nome,
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao mover card"})
		return
	}

	if err := h.cards.InserirAtividade(&models.AtividadeCard{
		CardID:    card.ID,
		Tipo:      models.TipoAtividadeMudancaEtapa,
		Descricao: fmt.Sprintf("Card movido de %q para %q (%s)", etapaAnterior, etapa.Nome, funil.Nome),
		Status:    models.StatusAtividadeConcluida,
	}); err != nil {
		log.Printf("[KANBAN] Erro ao registrar mudança de etapa do card %s: %v", card.ID, err)
	}

	atual, err := h.cards.BuscarPorID(card.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao recarregar card"})
		return
	}

	h.automacoes.DispararEvento(&services.EventoAutomacao{
		Evento:           models.EventoEtapaChange,
		Card:             atual,
		FunilOrigemID:    funilOrigemID,
		EtapaDestinoNome: etapa.Nome,
	})

	aviso := h.espelharSaida(atual)
	h.hub.Broadcast("card_movido", atual)
	h.responderComAviso(c, http.StatusOK, gin.H{"card": atual}, aviso)
}

// AlterarStatus fecha a negociação como GANHO ou PERDIDO
func (h *KanbanHandler) AlterarStatus(c *gin.Context) {
	card, err := h.cards.BuscarPorID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"erro": "Card não encontrado"})
		return
	}

	var req struct {
		Status models.StatusCard `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"erro": "Dados inválidos: " + err.Error()})
		return
	}

	var eventoAutomacao string
	switch req.Status {
	case models.StatusCardGanho:
		eventoAutomacao = models.EventoCardGanho
	case models.StatusCardPerdido:
		eventoAutomacao = models.EventoCardPerdido
	case models.StatusCardAberto, models.StatusCardEmAndamento:
		eventoAutomacao = ""
	default:
		c.JSON(http.StatusBadRequest, gin.H{"erro": fmt.Sprintf("Status inválido: %s", req.Status)})
		return
	}

	if err := h.cards.Atualizar(card.ID, map[string]interface{}{"status": req.Status}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao alterar status"})
		return
	}

	if err := h.cards.InserirAtividade(&models.AtividadeCard{
		CardID:    card.ID,
		Tipo:      models.TipoAtividadeSyncBidir,
		Descricao: fmt.Sprintf("Status alterado de %s para %s", card.Status, req.Status),
		Status:    models.StatusAtividadeConcluida,
	}); err != nil {
		log.Printf("[KANBAN] Erro ao registrar alteração de status do card %s: %v", card.ID, err)
	}

	atual, err := h.cards.BuscarPorID(card.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao recarregar card"})
		return
	}

	if eventoAutomacao != "" {
		var funilOrigemID string
		if atual.FunilID != nil {
			funilOrigemID = *atual.FunilID
		}
		h.automacoes.DispararEvento(&services.EventoAutomacao{
			Evento:        eventoAutomacao,
			Card:          atual,
			FunilOrigemID: funilOrigemID,
		})
	}

	aviso := h.espelharSaida(atual)
	h.hub.Broadcast("card_status", atual)
	h.responderComAviso(c, http.StatusOK, gin.H{"card": atual}, aviso)
}

func (h *KanbanHandler) ArquivarCard(c *gin.Context) {
	card, err := h.cards.BuscarPorID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"erro": "Card não encontrado"})
		return
	}

	var req struct {
		Arquivado *bool `json:"arquivado"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"erro": "Dados inválidos"})
		return
	}
	arquivado := true
	if req.Arquivado != nil {
		arquivado = *req.Arquivado
	}

	if err := h.cards.Atualizar(card.ID, map[string]interface{}{"arquivado": arquivado}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao arquivar card"})
		return
	}

	descricao := "Card arquivado"
	if !arquivado {
		descricao = "Card desarquivado"
	}
	if err := h.cards.InserirAtividade(&models.AtividadeCard{
		CardID:    card.ID,
		Tipo:      models.TipoAtividadeSyncBidir,
		Descricao: descricao,
		Status:    models.StatusAtividadeConcluida,
	}); err != nil {
		log.Printf("[KANBAN] Erro ao registrar arquivamento do card %s: %v", card.ID, err)
	}

	atual, _ := h.cards.BuscarPorID(card.ID)
	h.hub.Broadcast("card_arquivado", atual)
	c.JSON(http.StatusOK, gin.H{"card": atual})
}

// espelharSaida propaga o card para o Chatwoot e devolve o texto do
// aviso quando falhou. A mutação local nunca é revertida.
func (h *KanbanHandler) espelharSaida(card *models.CardConversa) string {
	if err := h.sincronizacao.SincronizarSaida(card); err != nil {
		return "Alteração salva, mas a sincronização com o Chatwoot falhou: " + err.Error()
	}
	return ""
}

func (h *KanbanHandler) responderComAviso(c *gin.Context, status int, corpo gin.H, aviso string) {
	if aviso != "" {
		corpo["aviso"] = aviso
	}
	c.JSON(status, corpo)
}
