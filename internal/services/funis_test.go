package services

import (
	"testing"

	"funilzap/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExcluirFunilBloqueadoComNegociacoesAbertas(t *testing.T) {
	db := novoBancoTeste(t)
	funil := semearFunil(t, db, "Comercial", "Novo lead", "Proposta")
	semearCard(t, db, funil, nil)
	s := NewFunilService(db)

	err := s.Excluir(funil.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negociações ainda em aberto")

	// Funil e etapas permanecem intactos
	restante, err := s.BuscarPorID(funil.ID)
	require.NoError(t, err)
	assert.Len(t, restante.Etapas, 2)
}

func TestExcluirFunilComCardsTerminais(t *testing.T) {
	db := novoBancoTeste(t)
	funil := semearFunil(t, db, "Comercial", "Novo lead")
	card := semearCard(t, db, funil, nil)
	s := NewFunilService(db)

	require.NoError(t, db.Model(&models.CardConversa{}).
		Where("id = ?", card.ID).
		Update("status", models.StatusCardGanho).Error)

	require.NoError(t, s.Excluir(funil.ID))

	var funis, etapas int64
	require.NoError(t, db.Model(&models.Funil{}).Count(&funis).Error)
	require.NoError(t, db.Model(&models.Etapa{}).Count(&etapas).Error)
	assert.EqualValues(t, 0, funis)
	assert.EqualValues(t, 0, etapas)
}

func TestExcluirFunilInexistente(t *testing.T) {
	db := novoBancoTeste(t)
	s := NewFunilService(db)

	err := s.Excluir("id-inexistente")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "funil não encontrado")
}
