package services

import (
	"testing"
	"time"

	"funilzap/internal/config"
	"funilzap/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func novoServicoAutomacao(t *testing.T, db *gorm.DB) *AutomacaoService {
	t.Helper()

	cards := NewCardService(db)
	funis := NewFunilService(db)
	return NewAutomacaoService(db, cards, funis, NewScoringService(&config.Config{}, cards))
}

func TestRegraCorrespondeEventoDiferente(t *testing.T) {
	gatilho := models.Gatilho{Evento: models.EventoCardGanho}
	evento := &EventoAutomacao{Evento: models.EventoCardCriado}

	assert.False(t, RegraCorresponde(gatilho, evento))
}

func TestRegraCorrespondeSemRestricoes(t *testing.T) {
	gatilho := models.Gatilho{Evento: models.EventoEtapaChange}
	evento := &EventoAutomacao{
		Evento:           models.EventoEtapaChange,
		FunilOrigemID:    "funil-1",
		EtapaDestinoNome: "Proposta",
	}

	assert.True(t, RegraCorresponde(gatilho, evento))
}

func TestRegraCorrespondeFunilOrigem(t *testing.T) {
	gatilho := models.Gatilho{
		Evento:        models.EventoEtapaChange,
		FunilOrigemID: "funil-1",
	}

	assert.True(t, RegraCorresponde(gatilho, &EventoAutomacao{
		Evento:        models.EventoEtapaChange,
		FunilOrigemID: "funil-1",
	}))
	assert.False(t, RegraCorresponde(gatilho, &EventoAutomacao{
		Evento:        models.EventoEtapaChange,
		FunilOrigemID: "funil-2",
	}))
}

func TestRegraCorrespondeEtapaDestino(t *testing.T) {
	gatilho := models.Gatilho{
		Evento:       models.EventoEtapaChange,
		EtapaDestino: "Fechamento",
	}

	assert.True(t, RegraCorresponde(gatilho, &EventoAutomacao{
		Evento:           models.EventoEtapaChange,
		EtapaDestinoNome: "Fechamento",
	}))
	assert.False(t, RegraCorresponde(gatilho, &EventoAutomacao{
		Evento:           models.EventoEtapaChange,
		EtapaDestinoNome: "Proposta",
	}))
}

func TestRegraCorrespondeTodasAsRestricoes(t *testing.T) {
	gatilho := models.Gatilho{
		Evento:        models.EventoEtapaChange,
		FunilOrigemID: "funil-1",
		EtapaDestino:  "Fechamento",
	}
	evento := &EventoAutomacao{
		Evento:           models.EventoEtapaChange,
		FunilOrigemID:    "funil-1",
		EtapaDestinoNome: "Fechamento",
	}

	assert.True(t, RegraCorresponde(gatilho, evento))

	evento.FunilOrigemID = "funil-2"
	assert.False(t, RegraCorresponde(gatilho, evento))
}

func TestDispararEventoCriarTarefaComPrazo(t *testing.T) {
	db := novoBancoTeste(t)
	funil := semearFunil(t, db, "Comercial", "Novo lead")
	card := semearCard(t, db, funil, nil)
	s := novoServicoAutomacao(t, db)

	require.NoError(t, s.Criar(&models.AutomacaoConfig{
		Nome:    "Ligar em dois dias",
		Gatilho: models.Gatilho{Evento: models.EventoEtapaChange},
		Acao:    models.Acao{Tipo: models.AcaoCriarTarefa, DiasPrazo: 2, TipoTarefa: "Ligar"},
		Ativo:   true,
	}))

	s.DispararEvento(&EventoAutomacao{Evento: models.EventoEtapaChange, Card: card})

	var tarefa models.AtividadeCard
	require.NoError(t, db.Where("card_id = ? AND tipo = ?", card.ID, "Ligar").First(&tarefa).Error)
	assert.Equal(t, models.StatusAtividadePendente, tarefa.Status)
	require.NotNil(t, tarefa.DataPrevista)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 2), *tarefa.DataPrevista, time.Minute)

	// O prazo da tarefa vira a nova data de retorno do card
	atual, err := NewCardService(db).BuscarPorID(card.ID)
	require.NoError(t, err)
	require.NotNil(t, atual.DataRetorno)
	assert.WithinDuration(t, *tarefa.DataPrevista, *atual.DataRetorno, time.Second)
}

func TestDispararEventoMoverFunil(t *testing.T) {
	db := novoBancoTeste(t)
	origem := semearFunil(t, db, "Comercial", "Novo lead")
	destino := semearFunil(t, db, "Pós-venda", "Onboarding")
	card := semearCard(t, db, origem, nil)
	s := novoServicoAutomacao(t, db)

	require.NoError(t, s.Criar(&models.AutomacaoConfig{
		Nome:    "Ganhou vai para pós-venda",
		Gatilho: models.Gatilho{Evento: models.EventoCardGanho},
		Acao: models.Acao{
			Tipo:           models.AcaoMoverFunil,
			FunilDestinoID: destino.ID,
			EtapaDestinoID: destino.Etapas[0].ID,
		},
		Ativo: true,
	}))

	s.DispararEvento(&EventoAutomacao{Evento: models.EventoCardGanho, Card: card})

	atual, err := NewCardService(db).BuscarPorID(card.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pós-venda", *atual.FunilNome)
	assert.Equal(t, "Onboarding", *atual.FunilEtapa)
	assert.EqualValues(t, 1, contarAtividades(t, db, card.ID, models.TipoAtividadeMudancaEtapa))
}

func TestDispararEventoIsolaFalhaDeRegra(t *testing.T) {
	db := novoBancoTeste(t)
	funil := semearFunil(t, db, "Comercial", "Novo lead")
	card := semearCard(t, db, funil, nil)
	s := novoServicoAutomacao(t, db)

	// Regra quebrada primeiro na ordem de inserção
	require.NoError(t, s.Criar(&models.AutomacaoConfig{
		Nome:    "Mover sem destino",
		Gatilho: models.Gatilho{Evento: models.EventoCardCriado},
		Acao:    models.Acao{Tipo: models.AcaoMoverFunil},
		Ativo:   true,
	}))
	require.NoError(t, s.Criar(&models.AutomacaoConfig{
		Nome:    "Tarefa de boas-vindas",
		Gatilho: models.Gatilho{Evento: models.EventoCardCriado},
		Acao:    models.Acao{Tipo: models.AcaoCriarTarefa, TipoTarefa: "Boas-vindas"},
		Ativo:   true,
	}))

	s.DispararEvento(&EventoAutomacao{Evento: models.EventoCardCriado, Card: card})

	assert.EqualValues(t, 1, contarAtividades(t, db, card.ID, "Boas-vindas"))
}

func TestDispararEventoIgnoraRegraInativa(t *testing.T) {
	db := novoBancoTeste(t)
	funil := semearFunil(t, db, "Comercial", "Novo lead")
	card := semearCard(t, db, funil, nil)
	s := novoServicoAutomacao(t, db)

	regra := &models.AutomacaoConfig{
		Nome:    "Desligada",
		Gatilho: models.Gatilho{Evento: models.EventoCardCriado},
		Acao:    models.Acao{Tipo: models.AcaoCriarTarefa, TipoTarefa: "Nunca"},
		Ativo:   true,
	}
	require.NoError(t, s.Criar(regra))
	require.NoError(t, db.Model(regra).Update("ativo", false).Error)

	s.DispararEvento(&EventoAutomacao{Evento: models.EventoCardCriado, Card: card})

	assert.EqualValues(t, 0, contarAtividades(t, db, card.ID, "Nunca"))
}
