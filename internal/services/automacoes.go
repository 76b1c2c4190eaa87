package services

import (
	"fmt"
	"log"
	"time"

	"funilzap/internal/models"

	"gorm.io/gorm"
)

// EventoAutomacao é o gatilho de domínio avaliado contra as regras
type EventoAutomacao struct {
	Evento           string
	Card             *models.CardConversa
	FunilOrigemID    string
	EtapaDestinoNome string
}

// AutomacaoService avalia as regras configuradas a cada evento e executa
// as ações correspondentes. Regras são avaliadas na ordem de inserção;
// não existe campo de prioridade, então em conflito a última vence.
type AutomacaoService struct {
	db      *gorm.DB
	cards   *CardService
	funis   *FunilService
	scoring *ScoringService
}

func NewAutomacaoService(db *gorm.DB, cards *CardService, funis *FunilService, scoring *ScoringService) *AutomacaoService {
	return &AutomacaoService{db: db, cards: cards, funis: funis, scoring: scoring}
}

func (s *AutomacaoService) Listar() ([]models.AutomacaoConfig, error) {
	var regras []models.AutomacaoConfig
	if err := s.db.Order("criado_em ASC").Find(&regras).Error; err != nil {
		return nil, err
	}
	return regras, nil
}

func (s *AutomacaoService) Criar(regra *models.AutomacaoConfig) error {
	return s.db.Create(regra).Error
}

func (s *AutomacaoService) Atualizar(regra *models.AutomacaoConfig) error {
	return s.db.Save(regra).Error
}

func (s *AutomacaoService) Excluir(id string) error {
	result := s.db.Delete(&models.AutomacaoConfig{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DispararEvento avalia todas as regras ativas contra o evento. A falha de
// uma regra é registrada e não impede a avaliação das seguintes.
func (s *AutomacaoService) DispararEvento(ev *EventoAutomacao) {
	var regras []models.AutomacaoConfig
	if err := s.db.Where("ativo = ?", true).Order("criado_em ASC").Find(&regras).Error; err != nil {
		log.Printf("[AUTOMACAO] Erro ao carregar regras para evento %s: %v", ev.Evento, err)
		return
	}

	for _, regra := range regras {
		if !RegraCorresponde(regra.Gatilho, ev) {
			continue
		}

		log.Printf("[AUTOMACAO] Regra %q disparada pelo evento %s (card %s)", regra.Nome, ev.Evento, ev.Card.ID)
		if err := s.executarAcao(regra, ev); err != nil {
			log.Printf("[AUTOMACAO] Erro ao executar regra %q: %v", regra.Nome, err)
		}
	}
}

// RegraCorresponde decide se o gatilho casa com o evento. Campos opcionais
// vazios no gatilho não restringem.
func RegraCorresponde(g models.Gatilho, ev *EventoAutomacao) bool {
	if g.Evento != ev.Evento {
		return false
	}
	if g.FunilOrigemID != "" && g.FunilOrigemID != ev.FunilOrigemID {
		return false
	}
	if g.EtapaDestino != "" && g.EtapaDestino != ev.EtapaDestinoNome {
		return false
	}
	return true
}

func (s *AutomacaoService) executarAcao(regra models.AutomacaoConfig, ev *EventoAutomacao) error {
	switch regra.Acao.Tipo {
	case models.AcaoMoverFunil:
		return s.executarMoverFunil(regra.Acao, ev.Card)
	case models.AcaoCriarTarefa:
		return s.executarCriarTarefa(regra.Acao, ev.Card)
	case models.AcaoRecalcularScore:
		// Disparo sem garantia de entrega: falha é só registrada
		if err := s.scoring.Recalcular(ev.Card); err != nil {
			log.Printf("[AUTOMACAO] Recalculo de score falhou para card %s: %v", ev.Card.ID, err)
		}
		return nil
	default:
		log.Printf("[AUTOMACAO] Tipo de ação desconhecido %q na regra %q, pulando", regra.Acao.Tipo, regra.Nome)
		return nil
	}
}

func (s *AutomacaoService) executarMoverFunil(acao models.Acao, card *models.CardConversa) error {
	if acao.FunilDestinoID == "" || acao.EtapaDestinoID == "" {
		return fmt.Errorf("ação mover_funil sem funil/etapa de destino")
	}

	funil, err := s.funis.BuscarPorID(acao.FunilDestinoID)
	if err != nil {
		return fmt.Errorf("funil de destino não encontrado: %w", err)
	}
	etapa, err := s.funis.BuscarEtapaPorID(acao.EtapaDestinoID)
	if err != nil {
		return fmt.Errorf("etapa de destino não encontrada: %w", err)
	}

	etapaAnterior := "nenhuma"
	if card.EtapaID != nil {
		etapaAnterior = *card.EtapaID
	}

	if err := s.cards.Atualizar(card.ID, map[string]interface{}{
		"funil_id":    funil.ID,
		"funil_nome":  funil.Nome,
		"etapa_id":    etapa.ID,
		"funil_etapa": etapa.Nome,
	}); err != nil {
		return err
	}

	return s.cards.InserirAtividade(&models.AtividadeCard{
		CardID:    card.ID,
		Tipo:      models.TipoAtividadeMudancaEtapa,
		Descricao: fmt.Sprintf("Automação moveu o card para %q / %q (etapa anterior: %s)", funil.Nome, etapa.Nome, etapaAnterior),
		Status:    models.StatusAtividadeConcluida,
	})
}

func (s *AutomacaoService) executarCriarTarefa(acao models.Acao, card *models.CardConversa) error {
	dias := acao.DiasPrazo
	if dias <= 0 {
		dias = 1
	}
	tipoTarefa := acao.TipoTarefa
	if tipoTarefa == "" {
		tipoTarefa = "Tarefa"
	}

	prazo := time.Now().AddDate(0, 0, dias)

	if err := s.cards.InserirAtividade(&models.AtividadeCard{
		CardID:       card.ID,
		Tipo:         tipoTarefa,
		Descricao:    fmt.Sprintf("Tarefa criada por automação (prazo de %d dias)", dias),
		DataPrevista: &prazo,
		Status:       models.StatusAtividadePendente,
	}); err != nil {
		return err
	}

	return s.cards.Atualizar(card.ID, map[string]interface{}{
		"data_retorno": prazo,
	})
}
