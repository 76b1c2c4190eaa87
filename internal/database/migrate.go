package database

import (
	"log"

	"funilzap/internal/models"

	"gorm.io/gorm"
)

// Migrate executa as migrações do banco de dados
func Migrate(db *gorm.DB) error {
	log.Printf("[MIGRATION] Running AutoMigrate...")

	err := db.AutoMigrate(
		// Usuários e autenticação
		&models.Usuario{},

		// Pipeline
		&models.Funil{},
		&models.Etapa{},
		&models.CardConversa{},
		&models.AtividadeCard{},

		// Automações
		&models.AutomacaoConfig{},

		// Integração Chatwoot
		&models.ChatwootConfig{},
		&models.WebhookSyncLog{},
	)
	if err != nil {
		log.Printf("[MIGRATION] AutoMigrate error: %v", err)
		return err
	}

	// Índice parcial: unicidade do vínculo externo só vale quando presente
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_cards_conversas_chatwoot ON cards_conversas(chatwoot_conversa_id) WHERE chatwoot_conversa_id IS NOT NULL")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_atividades_cards_mensagem ON atividades_cards(card_id, chatwoot_message_id)")

	log.Printf("[MIGRATION] Migration completed successfully")
	return nil
}
