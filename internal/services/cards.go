package services

import (
	"errors"

	"funilzap/internal/models"

	"gorm.io/gorm"
)

// CardService gerencia cards_conversas e suas atividades
type CardService struct {
	db *gorm.DB
}

func NewCardService(db *gorm.DB) *CardService {
	return &CardService{db: db}
}

// BuscarPorConversaID retorna no máximo um card (o id externo é único);
// (nil, nil) quando a conversa ainda não tem card
func (s *CardService) BuscarPorConversaID(conversaID int) (*models.CardConversa, error) {
	var card models.CardConversa
	err := s.db.Where("chatwoot_conversa_id = ?", conversaID).First(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (s *CardService) BuscarPorID(id string) (*models.CardConversa, error) {
	var card models.CardConversa
	if err := s.db.First(&card, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// Criar deve ser chamado apenas quando não existe card para a conversa;
// a verificação de existência é responsabilidade do chamador
func (s *CardService) Criar(card *models.CardConversa) error {
	return s.db.Create(card).Error
}

// Atualizar aplica uma atualização parcial com valores absolutos
func (s *CardService) Atualizar(cardID string, campos map[string]interface{}) error {
	return s.db.Model(&models.CardConversa{}).Where("id = ?", cardID).Updates(campos).Error
}

func (s *CardService) InserirAtividade(atividade *models.AtividadeCard) error {
	return s.db.Create(atividade).Error
}

// AtividadeComMensagemExiste verifica a chave de deduplicação
// (card, chatwoot_message_id) de mensagens espelhadas
func (s *CardService) AtividadeComMensagemExiste(cardID string, mensagemID int) (bool, error) {
	var total int64
	err := s.db.Model(&models.AtividadeCard{}).
		Where("card_id = ? AND chatwoot_message_id = ?", cardID, mensagemID).
		Count(&total).Error
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

func (s *CardService) Listar(funilID, etapaID string, arquivado bool) ([]models.CardConversa, error) {
	query := s.db.Where("arquivado = ?", arquivado)
	if funilID != "" {
		query = query.Where("funil_id = ?", funilID)
	}
	if etapaID != "" {
		query = query.Where("etapa_id = ?", etapaID)
	}

	var cards []models.CardConversa
	if err := query.Order("atualizado_em DESC").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

func (s *CardService) ListarAtividades(cardID string) ([]models.AtividadeCard, error) {
	var atividades []models.AtividadeCard
	if err := s.db.Where("card_id = ?", cardID).Order("criado_em DESC").Find(&atividades).Error; err != nil {
		return nil, err
	}
	return atividades, nil
}

func (s *CardService) ConcluirAtividade(atividadeID string) error {
	result := s.db.Model(&models.AtividadeCard{}).
		Where("id = ?", atividadeID).
		Update("status", models.StatusAtividadeConcluida)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
