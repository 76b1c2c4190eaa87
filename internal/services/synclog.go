package services

import (
	"log"

	"funilzap/internal/models"

	"gorm.io/gorm"
)

// SyncLogService grava a trilha de auditoria append-only das operações de
// sincronização. Falha de gravação nunca aborta a operação principal.
type SyncLogService struct {
	db *gorm.DB
}

func NewSyncLogService(db *gorm.DB) *SyncLogService {
	return &SyncLogService{db: db}
}

func (s *SyncLogService) Registrar(tipoSync, status string, latenciaMs int64, conversaID *int, cardID *string, erro error) {
	entrada := models.WebhookSyncLog{
		TipoSync:   tipoSync,
		Status:     status,
		LatenciaMs: latenciaMs,
		ConversaID: conversaID,
		CardID:     cardID,
	}
	if erro != nil {
		msg := erro.Error()
		entrada.Erro = &msg
	}

	if err := s.db.Create(&entrada).Error; err != nil {
		log.Printf("[SYNC_LOG] Erro ao gravar auditoria (%s/%s): %v", tipoSync, status, err)
	}
}

// ListarRecentes devolve as últimas entradas da trilha, mais novas primeiro
func (s *SyncLogService) ListarRecentes(limite int) ([]models.WebhookSyncLog, error) {
	var logs []models.WebhookSyncLog
	if err := s.db.Order("criado_em DESC").Limit(limite).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// AuditFunc adapta o serviço para o hook de auditoria do cliente Chatwoot
func (s *SyncLogService) AuditFunc() func(tipoSync, status string, latenciaMs int64, conversaID *int, erro error) {
	return func(tipoSync, status string, latenciaMs int64, conversaID *int, erro error) {
		s.Registrar(tipoSync, status, latenciaMs, conversaID, nil, erro)
	}
}
