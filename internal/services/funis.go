package services

import (
	"errors"
	"fmt"
	"log"

	"funilzap/internal/models"

	"gorm.io/gorm"
)

// FunilService gerencia funis e etapas (dados de referência do pipeline)
type FunilService struct {
	db *gorm.DB
}

func NewFunilService(db *gorm.DB) *FunilService {
	return &FunilService{db: db}
}

func (s *FunilService) Listar() ([]models.Funil, error) {
	var funis []models.Funil
	if err := s.db.Preload("Etapas", func(db *gorm.DB) *gorm.DB {
		return db.Order("ordem ASC")
	}).Where("ativo = ?", true).Order("criado_em ASC").Find(&funis).Error; err != nil {
		return nil, err
	}
	return funis, nil
}

func (s *FunilService) Criar(funil *models.Funil) error {
	return s.db.Create(funil).Error
}

func (s *FunilService) Atualizar(funil *models.Funil) error {
	return s.db.Save(funil).Error
}

func (s *FunilService) BuscarPorID(id string) (*models.Funil, error) {
	var funil models.Funil
	if err := s.db.Preload("Etapas", func(db *gorm.DB) *gorm.DB {
		return db.Order("ordem ASC")
	}).First(&funil, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &funil, nil
}

// BuscarPorNome retorna (nil, nil) quando não há funil com o nome dado
func (s *FunilService) BuscarPorNome(nome string) (*models.Funil, error) {
	var funil models.Funil
	err := s.db.Where("nome = ? AND ativo = ?", nome, true).First(&funil).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &funil, nil
}

// FunilMaisAntigo é o funil padrão quando o evento não resolve nenhum nome
func (s *FunilService) FunilMaisAntigo() (*models.Funil, error) {
	var funil models.Funil
	err := s.db.Where("ativo = ?", true).Order("criado_em ASC").First(&funil).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &funil, nil
}

// PrimeiraEtapa retorna a etapa de menor ordem do funil (posicionamento
// padrão de cards criados sem etapa explícita)
func (s *FunilService) PrimeiraEtapa(funilID string) (*models.Etapa, error) {
	var etapa models.Etapa
	err := s.db.Where("funil_id = ?", funilID).Order("ordem ASC").First(&etapa).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &etapa, nil
}

// BuscarEtapaPorNome resolve uma etapa pelo nome dentro de um funil;
// retorna (nil, nil) quando não encontrada
func (s *FunilService) BuscarEtapaPorNome(funilID, nome string) (*models.Etapa, error) {
	var etapa models.Etapa
	err := s.db.Where("funil_id = ? AND nome = ?", funilID, nome).First(&etapa).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &etapa, nil
}

func (s *FunilService) BuscarEtapaPorID(id string) (*models.Etapa, error) {
	var etapa models.Etapa
	if err := s.db.First(&etapa, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &etapa, nil
}

func (s *FunilService) CriarEtapa(etapa *models.Etapa) error {
	return s.db.Create(etapa).Error
}

// Excluir remove um funil e suas etapas. Bloqueado enquanto existir
// qualquer card do funil fora de status terminal (GANHO/PERDIDO).
func (s *FunilService) Excluir(funilID string) error {
	var ativos int64
	if err := s.db.Model(&models.CardConversa{}).
		Where("funil_id = ? AND status NOT IN ?", funilID, []models.StatusCard{models.StatusCardGanho, models.StatusCardPerdido}).
		Count(&ativos).Error; err != nil {
		return err
	}
	if ativos > 0 {
		return fmt.Errorf("não é possível excluir o funil: %d negociações ainda em aberto", ativos)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("funil_id = ?", funilID).Delete(&models.Etapa{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Funil{}, "id = ?", funilID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("funil não encontrado")
		}
		log.Printf("[FUNIL] Funil %s excluído", funilID)
		return nil
	})
}
