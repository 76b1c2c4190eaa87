package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"funilzap/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func novoRouterWebhook() *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := &WebhookHandler{}
	r := gin.New()
	r.POST("/webhooks/chatwoot/:origem", handler.ProcessarWebhook)
	return r
}

func TestProcessarWebhookOrigemDesconhecida(t *testing.T) {
	r := novoRouterWebhook()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/chatwoot/inexistente", strings.NewReader(`{}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProcessarWebhookEventoNaoReconhecido(t *testing.T) {
	r := novoRouterWebhook()

	corpo := `{"event":"conversation_resolved","conversation":{"id":42}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/chatwoot/principal", strings.NewReader(corpo))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignorado")
}

func TestProcessarWebhookSemConversa(t *testing.T) {
	r := novoRouterWebhook()

	corpo := `{"event":"conversation_updated"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/chatwoot/principal", strings.NewReader(corpo))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignorado")
}

func TestProcessarWebhookPayloadInvalido(t *testing.T) {
	r := novoRouterWebhook()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/chatwoot/principal", strings.NewReader(`{nao-e-json`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignorado")
}

func TestOrigensWebhookConhecidas(t *testing.T) {
	assert.Contains(t, origensWebhook, "principal")
	assert.Contains(t, origensWebhook, "comercial")
	assert.Contains(t, origensWebhook, "suporte")

	assert.True(t, origensWebhook["comercial"].UsaEtapaComercial)
	assert.False(t, origensWebhook["suporte"].UsaEtapaComercial)
}

func TestEventoReconhecido(t *testing.T) {
	assert.True(t, eventoReconhecido(services.EventoConversaCriada))
	assert.True(t, eventoReconhecido(services.EventoConversaAtualizada))
	assert.True(t, eventoReconhecido(services.EventoMensagemCriada))

	assert.False(t, eventoReconhecido("conversation_resolved"))
	assert.False(t, eventoReconhecido(""))
}

func TestValorAtributoFormatoPlano(t *testing.T) {
	bag := map[string]interface{}{"nome_do_funil": "Comercial"}

	assert.Equal(t, "Comercial", valorAtributo(bag, "nome_do_funil"))
	assert.Equal(t, "", valorAtributo(bag, "funil_etapa"))
}

func TestValorAtributoFormatoDelta(t *testing.T) {
	bag := map[string]interface{}{
		"funil_etapa": map[string]interface{}{
			"current_value":  "Proposta",
			"previous_value": "Novo lead",
		},
	}

	assert.Equal(t, "Proposta", valorAtributo(bag, "funil_etapa"))
}

func TestMontarEventoConversaPreferenciaDelta(t *testing.T) {
	payload := &envelopeWebhook{
		Event: services.EventoConversaAtualizada,
		Conversation: &conversaWebhook{
			ID: 42,
			CustomAttributes: map[string]interface{}{
				"nome_do_funil": "Antigo",
			},
			ChangedAttributes: map[string]interface{}{
				"nome_do_funil": map[string]interface{}{"current_value": "Comercial"},
			},
		},
	}

	evento := montarEventoConversa(origensWebhook["principal"], payload)

	assert.Equal(t, 42, evento.ConversaID)
	assert.Equal(t, "Comercial", evento.FunilNome)
}

func TestMontarEventoConversaEtapaComercial(t *testing.T) {
	payload := &envelopeWebhook{
		Event: services.EventoConversaAtualizada,
		Conversation: &conversaWebhook{
			ID: 42,
			CustomAttributes: map[string]interface{}{
				"etapa_comercial": "Negociação",
				"funil_etapa":     "Triagem",
			},
		},
	}

	// Origem comercial honra etapa_comercial
	evento := montarEventoConversa(origensWebhook["comercial"], payload)
	assert.Equal(t, "Negociação", evento.EtapaNome)

	// As demais usam funil_etapa
	evento = montarEventoConversa(origensWebhook["suporte"], payload)
	assert.Equal(t, "Triagem", evento.EtapaNome)
}

func TestMontarEventoConversaDataRetorno(t *testing.T) {
	payload := &envelopeWebhook{
		Event: services.EventoConversaAtualizada,
		Conversation: &conversaWebhook{
			ID: 42,
			CustomAttributes: map[string]interface{}{
				"data_retorno": "2025-03-10",
			},
		},
	}

	evento := montarEventoConversa(origensWebhook["principal"], payload)
	require.NotNil(t, evento.DataRetorno)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), *evento.DataRetorno)
}

func TestMontarEventoConversaDataRetornoInvalida(t *testing.T) {
	payload := &envelopeWebhook{
		Event: services.EventoConversaAtualizada,
		Conversation: &conversaWebhook{
			ID: 42,
			CustomAttributes: map[string]interface{}{
				"data_retorno": "10/03/2025",
			},
		},
	}

	evento := montarEventoConversa(origensWebhook["principal"], payload)
	assert.Nil(t, evento.DataRetorno)
}

func TestMontarEventoConversaFunilPadraoDaOrigem(t *testing.T) {
	payload := &envelopeWebhook{
		Event: services.EventoConversaCriada,
		Conversation: &conversaWebhook{
			ID:               42,
			CustomAttributes: map[string]interface{}{},
		},
	}

	evento := montarEventoConversa(origensWebhook["suporte"], payload)
	assert.Equal(t, "", evento.FunilNome)
	assert.Equal(t, "Suporte", evento.FunilPadrao)
}
