package services

import (
	"testing"

	"funilzap/internal/database"
	"funilzap/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// novoBancoTeste abre um banco sqlite em memória com o schema migrado.
// Uma única conexão, para o :memory: não se fragmentar por conexão do pool.
func novoBancoTeste(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func semearFunil(t *testing.T, db *gorm.DB, nome string, etapas ...string) *models.Funil {
	t.Helper()

	funil := &models.Funil{Nome: nome, Ativo: true}
	for i, etapa := range etapas {
		funil.Etapas = append(funil.Etapas, models.Etapa{Nome: etapa, Ordem: i + 1})
	}
	require.NoError(t, db.Create(funil).Error)
	return funil
}

func semearCard(t *testing.T, db *gorm.DB, funil *models.Funil, conversaID *int) *models.CardConversa {
	t.Helper()

	etapa := funil.Etapas[0]
	card := &models.CardConversa{
		Nome:               "Negociação de teste",
		ChatwootConversaID: conversaID,
		FunilID:            &funil.ID,
		FunilNome:          &funil.Nome,
		EtapaID:            &etapa.ID,
		FunilEtapa:         &etapa.Nome,
		Status:             models.StatusCardAberto,
	}
	require.NoError(t, db.Create(card).Error)
	return card
}

func contarAtividades(t *testing.T, db *gorm.DB, cardID, tipo string) int64 {
	t.Helper()

	var total int64
	require.NoError(t, db.Model(&models.AtividadeCard{}).
		Where("card_id = ? AND tipo = ?", cardID, tipo).
		Count(&total).Error)
	return total
}
