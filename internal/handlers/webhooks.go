package handlers

import (
	"log"
	"net/http"
	"time"

	"funilzap/internal/chatwoot"
	"funilzap/internal/services"

	"github.com/gin-gonic/gin"
)

// OrigemWebhook descreve uma origem lógica de webhook: o funil padrão dos
// cards criados por ela e se a chave etapa_comercial é honrada. Novas
// origens entram como novas linhas da tabela, não como branches.
type OrigemWebhook struct {
	FunilPadrao       string
	UsaEtapaComercial bool
}

var origensWebhook = map[string]OrigemWebhook{
	"principal": {FunilPadrao: "", UsaEtapaComercial: false},
	"comercial": {FunilPadrao: "Comercial", UsaEtapaComercial: true},
	"suporte":   {FunilPadrao: "Suporte", UsaEtapaComercial: false},
}

type conversaWebhook struct {
	ID                int                    `json:"id"`
	CustomAttributes  map[string]interface{} `json:"custom_attributes"`
	ChangedAttributes map[string]interface{} `json:"changed_attributes"`
}

type envelopeWebhook struct {
	Event        string           `json:"event"`
	ID           int              `json:"id"`
	Content      string           `json:"content"`
	Private      bool             `json:"private"`
	Conversation *conversaWebhook `json:"conversation"`
}

// WebhookHandler é o ponto de entrada único dos eventos do Chatwoot
type WebhookHandler struct {
	integracao    *services.IntegracaoService
	sincronizacao *services.SincronizacaoService
	comandos      *services.ComandoService
	notas         *services.NotaService
	cards         *services.CardService
	chatwoot      *chatwoot.Client
}

func NewWebhookHandler(integracao *services.IntegracaoService, sincronizacao *services.SincronizacaoService, comandos *services.ComandoService, notas *services.NotaService, cards *services.CardService, client *chatwoot.Client) *WebhookHandler {
	return &WebhookHandler{
		integracao:    integracao,
		sincronizacao: sincronizacao,
		comandos:      comandos,
		notas:         notas,
		cards:         cards,
		chatwoot:      client,
	}
}

// ProcessarWebhook roteia um evento recebido. Depois que a origem é
// resolvida, a resposta é sempre 2xx, inclusive em falha interna, para
// não provocar tempestade de retries no remetente.
func (h *WebhookHandler) ProcessarWebhook(c *gin.Context) {
	origemNome := c.Param("origem")
	origem, ok := origensWebhook[origemNome]
	if !ok {
		log.Printf("[WEBHOOK] Origem desconhecida: %s", origemNome)
		c.JSON(http.StatusNotFound, gin.H{"erro": "origem de webhook desconhecida"})
		return
	}

	var payload envelopeWebhook
	if err := c.ShouldBindJSON(&payload); err != nil {
		// Payload estruturalmente inválido depois do roteamento: reconhecer
		// e pular, disponibilidade acima de rigidez
		log.Printf("[WEBHOOK] Payload inválido na origem %s: %v", origemNome, err)
		c.JSON(http.StatusOK, gin.H{"status": "ignorado"})
		return
	}

	log.Printf("[WEBHOOK] Evento recebido - origem: %s, event: %s", origemNome, payload.Event)

	if payload.Conversation == nil || payload.Conversation.ID == 0 || !eventoReconhecido(payload.Event) {
		c.JSON(http.StatusOK, gin.H{"status": "ignorado"})
		return
	}

	if !h.integracao.BidirAtivo() {
		log.Printf("[WEBHOOK] Sincronização bidirecional desativada, ignorando evento %s", payload.Event)
		c.JSON(http.StatusOK, gin.H{"status": "sync_desativado"})
		return
	}

	switch payload.Event {
	case services.EventoMensagemCriada:
		h.processarMensagem(origem, &payload)
	default:
		evento := montarEventoConversa(origem, &payload)
		if err := h.sincronizacao.ReconciliarEvento(evento); err != nil {
			log.Printf("[WEBHOOK] Erro na reconciliação da conversa %d: %v", payload.Conversation.ID, err)
			c.JSON(http.StatusOK, gin.H{"status": "erro_interno"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "processado"})
}

func (h *WebhookHandler) processarMensagem(origem OrigemWebhook, payload *envelopeWebhook) {
	card, err := h.cards.BuscarPorConversaID(payload.Conversation.ID)
	if err != nil {
		log.Printf("[WEBHOOK] Erro ao buscar card da conversa %d: %v", payload.Conversation.ID, err)
		return
	}
	if card == nil {
		log.Printf("[WEBHOOK] Mensagem em conversa %d sem card, ignorando", payload.Conversation.ID)
		return
	}

	if payload.Private {
		mensagem := chatwoot.Message{
			ID:             payload.ID,
			Content:        payload.Content,
			Private:        true,
			ConversationID: payload.Conversation.ID,
		}
		if err := h.notas.ProcessarMensagemPrivada(card, mensagem, false); err != nil {
			log.Printf("[WEBHOOK] Erro ao espelhar nota privada %d: %v", payload.ID, err)
		}
		return
	}

	if services.EhComando(payload.Content) {
		resultado, err := h.comandos.Processar(card, payload.Content)
		if err != nil {
			log.Printf("[WEBHOOK] Erro ao processar comando no card %s: %v", card.ID, err)
		}
		if resultado != "" {
			// Resposta do comando volta como nota privada, melhor esforço
			if _, err := h.chatwoot.PostMessage(payload.Conversation.ID, resultado, true); err != nil {
				log.Printf("[WEBHOOK] Erro ao responder comando na conversa %d: %v", payload.Conversation.ID, err)
			}
		}
	}
}

func eventoReconhecido(evento string) bool {
	switch evento {
	case services.EventoConversaCriada, services.EventoConversaAtualizada, services.EventoMensagemCriada:
		return true
	}
	return false
}

// montarEventoConversa extrai do envelope os atributos de interesse,
// preferindo o delta changed_attributes quando presente, pois ele é mais
// fiel sobre o que de fato mudou
func montarEventoConversa(origem OrigemWebhook, payload *envelopeWebhook) *services.EventoConversa {
	bag := payload.Conversation.ChangedAttributes
	if len(bag) == 0 {
		bag = payload.Conversation.CustomAttributes
	}

	evento := &services.EventoConversa{
		Evento:      payload.Event,
		ConversaID:  payload.Conversation.ID,
		FunilNome:   valorAtributo(bag, services.AtributoNomeFunil),
		FunilPadrao: origem.FunilPadrao,
	}

	if origem.UsaEtapaComercial {
		evento.EtapaNome = valorAtributo(bag, services.AtributoEtapaComercial)
	}
	if evento.EtapaNome == "" {
		evento.EtapaNome = valorAtributo(bag, services.AtributoFunilEtapa)
	}

	if data := valorAtributo(bag, services.AtributoDataRetorno); data != "" {
		if t, err := time.Parse("2006-01-02", data); err == nil {
			evento.DataRetorno = &t
		} else {
			log.Printf("[WEBHOOK] data_retorno inválida %q, ignorando campo", data)
		}
	}

	return evento
}

// valorAtributo aceita tanto o formato plano {chave: valor} quanto o
// formato de delta {chave: {current_value, previous_value}}
func valorAtributo(bag map[string]interface{}, chave string) string {
	v, ok := bag[chave]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case map[string]interface{}:
		if atual, ok := t["current_value"].(string); ok {
			return atual
		}
	}
	return ""
}
