package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"funilzap/internal/chatwoot"
	"funilzap/internal/config"
	"funilzap/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func novoServicoSync(t *testing.T, db *gorm.DB, client *chatwoot.Client) *SincronizacaoService {
	t.Helper()

	cards := NewCardService(db)
	funis := NewFunilService(db)
	scoring := NewScoringService(&config.Config{}, cards)
	automacoes := NewAutomacaoService(db, cards, funis, scoring)
	return NewSincronizacaoService(cards, funis, NewAtributoMapper("Comercial"), client, NewSyncLogService(db), automacoes)
}

// Cliente apontando para um endereço que nunca responde: a reconciliação
// de entrada não faz chamadas de saída
func clienteInalcancavel() *chatwoot.Client {
	return chatwoot.NewClient("http://127.0.0.1:1", "1", "token")
}

func TestReconciliarEventoCriaCardNaPrimeiraEtapa(t *testing.T) {
	db := novoBancoTeste(t)
	semearFunil(t, db, "Comercial", "Novo lead", "Proposta")
	s := novoServicoSync(t, db, clienteInalcancavel())

	err := s.ReconciliarEvento(&EventoConversa{
		Evento:     EventoConversaCriada,
		ConversaID: 42,
	})
	require.NoError(t, err)

	card, err := NewCardService(db).BuscarPorConversaID(42)
	require.NoError(t, err)
	require.NotNil(t, card)

	assert.Equal(t, "Comercial", *card.FunilNome)
	assert.Equal(t, "Novo lead", *card.FunilEtapa)
	assert.Equal(t, models.StatusCardAberto, card.Status)
	require.NotNil(t, card.DataRetorno)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), *card.DataRetorno, time.Minute)

	assert.EqualValues(t, 1, contarAtividades(t, db, card.ID, models.TipoAtividadeCriacao))

	var logs int64
	require.NoError(t, db.Model(&models.WebhookSyncLog{}).
		Where("tipo_sync = ? AND status = ?", "reconciliacao", "sucesso").
		Count(&logs).Error)
	assert.EqualValues(t, 1, logs)
}

func TestReconciliarEventoAtualizacaoSemCardNaoCria(t *testing.T) {
	db := novoBancoTeste(t)
	semearFunil(t, db, "Comercial", "Novo lead")
	s := novoServicoSync(t, db, clienteInalcancavel())

	err := s.ReconciliarEvento(&EventoConversa{
		Evento:     EventoConversaAtualizada,
		ConversaID: 99,
	})
	require.NoError(t, err)

	var total int64
	require.NoError(t, db.Model(&models.CardConversa{}).Count(&total).Error)
	assert.EqualValues(t, 0, total)
}

func TestReconciliarEventoNaoDuplicaCard(t *testing.T) {
	db := novoBancoTeste(t)
	semearFunil(t, db, "Comercial", "Novo lead")
	s := novoServicoSync(t, db, clienteInalcancavel())

	evento := &EventoConversa{Evento: EventoConversaCriada, ConversaID: 42}
	require.NoError(t, s.ReconciliarEvento(evento))
	require.NoError(t, s.ReconciliarEvento(evento))

	var total int64
	require.NoError(t, db.Model(&models.CardConversa{}).
		Where("chatwoot_conversa_id = ?", 42).
		Count(&total).Error)
	assert.EqualValues(t, 1, total)

	// O replay cai na atualização e deixa rastro na trilha
	card, err := NewCardService(db).BuscarPorConversaID(42)
	require.NoError(t, err)
	assert.EqualValues(t, 1, contarAtividades(t, db, card.ID, models.TipoAtividadeSyncBidir))
}

func TestReconciliarEventoMudancaDeEtapa(t *testing.T) {
	db := novoBancoTeste(t)
	semearFunil(t, db, "Comercial", "Novo lead", "Proposta")
	s := novoServicoSync(t, db, clienteInalcancavel())

	require.NoError(t, s.ReconciliarEvento(&EventoConversa{Evento: EventoConversaCriada, ConversaID: 42}))
	require.NoError(t, s.ReconciliarEvento(&EventoConversa{
		Evento:     EventoConversaAtualizada,
		ConversaID: 42,
		EtapaNome:  "Proposta",
	}))

	card, err := NewCardService(db).BuscarPorConversaID(42)
	require.NoError(t, err)
	assert.Equal(t, "Proposta", *card.FunilEtapa)
	assert.EqualValues(t, 1, contarAtividades(t, db, card.ID, models.TipoAtividadeMudancaEtapa))
}

func TestReconciliarEventoEtapaDesconhecidaMantemAtual(t *testing.T) {
	db := novoBancoTeste(t)
	semearFunil(t, db, "Comercial", "Novo lead")
	s := novoServicoSync(t, db, clienteInalcancavel())

	require.NoError(t, s.ReconciliarEvento(&EventoConversa{Evento: EventoConversaCriada, ConversaID: 42}))
	require.NoError(t, s.ReconciliarEvento(&EventoConversa{
		Evento:     EventoConversaAtualizada,
		ConversaID: 42,
		EtapaNome:  "Etapa Fantasma",
	}))

	card, err := NewCardService(db).BuscarPorConversaID(42)
	require.NoError(t, err)
	assert.Equal(t, "Novo lead", *card.FunilEtapa)
}

func TestSincronizarSaidaEspelhaAtributos(t *testing.T) {
	var caminho string
	var corpo map[string]map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caminho = r.URL.Path
		json.NewDecoder(r.Body).Decode(&corpo)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	db := novoBancoTeste(t)
	funil := semearFunil(t, db, "Comercial", "Novo lead", "Proposta")
	conversaID := 42
	card := semearCard(t, db, funil, &conversaID)
	etapa := "Proposta"
	card.FunilEtapa = &etapa
	retorno := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	card.DataRetorno = &retorno

	s := novoServicoSync(t, db, chatwoot.NewClient(server.URL, "7", "tok"))
	require.NoError(t, s.SincronizarSaida(card))

	assert.Equal(t, "/api/v1/accounts/7/conversations/42/custom_attributes", caminho)
	assert.Equal(t, "Comercial", corpo["custom_attributes"]["nome_do_funil"])
	assert.Equal(t, "Proposta", corpo["custom_attributes"]["etapa_comercial"])
	assert.Equal(t, "2025-03-10", corpo["custom_attributes"]["data_retorno"])
}

func TestSincronizarSaidaSemVinculoEhNoOp(t *testing.T) {
	chamadas := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chamadas++
	}))
	defer server.Close()

	db := novoBancoTeste(t)
	funil := semearFunil(t, db, "Comercial", "Novo lead")
	card := semearCard(t, db, funil, nil)

	s := novoServicoSync(t, db, chatwoot.NewClient(server.URL, "7", "tok"))
	require.NoError(t, s.SincronizarSaida(card))
	assert.Equal(t, 0, chamadas)
}
