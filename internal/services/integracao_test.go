package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"funilzap/internal/chatwoot"
	"funilzap/internal/config"
	"funilzap/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtualizarPropagaCredenciaisParaOCliente(t *testing.T) {
	var token, caminho string
	antigo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("credenciais antigas ainda em uso")
	}))
	defer antigo.Close()
	novo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = r.Header.Get("api_access_token")
		caminho = r.URL.Path
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 1})
	}))
	defer novo.Close()

	db := novoBancoTeste(t)
	client := chatwoot.NewClient(antigo.URL, "1", "token-antigo")
	s := NewIntegracaoService(db, nil, &config.Config{})
	s.SetClient(client)

	require.NoError(t, s.Atualizar(&models.ChatwootConfig{
		URL:          novo.URL,
		AccountID:    "9",
		Token:        "token-novo",
		BidirEnabled: true,
		Ativo:        true,
	}))

	_, err := client.GetConversation(1)
	require.NoError(t, err)
	assert.Equal(t, "token-novo", token)
	assert.Equal(t, "/api/v1/accounts/9/conversations/1", caminho)
}

func TestBidirAtivoSegueRegistroDeIntegracao(t *testing.T) {
	db := novoBancoTeste(t)
	s := NewIntegracaoService(db, nil, &config.Config{})

	// Sem registro e sem env: gate fechado
	assert.False(t, s.BidirAtivo())

	cfg := &models.ChatwootConfig{URL: "http://chatwoot.local", AccountID: "1", Token: "t", BidirEnabled: true, Ativo: true}
	require.NoError(t, s.Atualizar(cfg))
	assert.True(t, s.BidirAtivo())

	require.NoError(t, db.Model(cfg).Update("bidir_enabled", false).Error)
	assert.False(t, s.BidirAtivo())
}
