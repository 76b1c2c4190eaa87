package services

import (
	"fmt"
	"log"
	"time"

	"funilzap/internal/chatwoot"
	"funilzap/internal/models"
)

// NotaService espelha notas privadas/internas nas duas direções sem
// duplicar mensagens já retransmitidas.
type NotaService struct {
	cards              *CardService
	client             *chatwoot.Client
	funilComercialNome string
}

func NewNotaService(cards *CardService, client *chatwoot.Client, funilComercialNome string) *NotaService {
	return &NotaService{cards: cards, client: client, funilComercialNome: funilComercialNome}
}

// ProcessarMensagemPrivada espelha uma nota privada recebida do Chatwoot
// como atividade local. Card sem funil é pulado inteiro: ainda não foi
// adotado no CRM. A deduplicação usa o chatwoot_message_id, a menos que
// forcarResync esteja ligado.
func (s *NotaService) ProcessarMensagemPrivada(card *models.CardConversa, mensagem chatwoot.Message, forcarResync bool) error {
	if card.FunilNome == nil || *card.FunilNome == "" {
		log.Printf("[NOTAS] Card %s sem funil, ignorando nota %d", card.ID, mensagem.ID)
		return nil
	}

	if !forcarResync {
		existe, err := s.cards.AtividadeComMensagemExiste(card.ID, mensagem.ID)
		if err != nil {
			return err
		}
		if existe {
			log.Printf("[NOTAS] Nota %d já espelhada no card %s, ignorando", mensagem.ID, card.ID)
			return nil
		}
	}

	mensagemID := mensagem.ID
	atividade := &models.AtividadeCard{
		CardID:            card.ID,
		Descricao:         mensagem.Content,
		ChatwootMessageID: &mensagemID,
	}

	if *card.FunilNome == s.funilComercialNome {
		// Funil comercial: vira follow-up visível com prazo em dias úteis
		prazo := AdicionarDiasUteis(time.Now(), 3)
		atividade.Tipo = models.TipoAtividadeFollowUp
		atividade.Status = models.StatusAtividadePendente
		atividade.DataPrevista = &prazo
	} else {
		atividade.Tipo = models.TipoAtividadeNotaAdmin
		atividade.Status = models.StatusAtividadeConcluida
		atividade.Privado = true
	}

	if err := s.cards.InserirAtividade(atividade); err != nil {
		return err
	}

	log.Printf("[NOTAS] Nota %d espelhada no card %s como %s", mensagem.ID, card.ID, atividade.Tipo)
	return nil
}

// RessincronizarNotas busca o histórico da conversa e espelha todas as
// notas privadas ainda ausentes (ou todas, com forcarResync)
func (s *NotaService) RessincronizarNotas(card *models.CardConversa, forcarResync bool) error {
	if card.ChatwootConversaID == nil {
		return nil
	}

	mensagens, err := s.client.GetMessages(*card.ChatwootConversaID)
	if err != nil {
		return err
	}

	for _, mensagem := range mensagens {
		if !mensagem.Private {
			continue
		}
		if err := s.ProcessarMensagemPrivada(card, mensagem, forcarResync); err != nil {
			log.Printf("[NOTAS] Erro ao espelhar nota %d do card %s: %v", mensagem.ID, card.ID, err)
		}
	}
	return nil
}

// EnviarFollowUp publica um follow-up local como mensagem privada na
// conversa, gravando o id retornado para não reimportar a própria nota
func (s *NotaService) EnviarFollowUp(card *models.CardConversa, texto string) error {
	if card.ChatwootConversaID == nil {
		return fmt.Errorf("card %s não está vinculado a uma conversa", card.ID)
	}

	mensagem, err := s.client.PostMessage(*card.ChatwootConversaID, texto, true)
	if err != nil {
		return err
	}

	mensagemID := mensagem.ID
	return s.cards.InserirAtividade(&models.AtividadeCard{
		CardID:            card.ID,
		Tipo:              models.TipoAtividadeFollowUp,
		Descricao:         texto,
		Status:            models.StatusAtividadeConcluida,
		Privado:           true,
		ChatwootMessageID: &mensagemID,
	})
}

// AdicionarDiasUteis avança n dias úteis a partir de t, pulando sábados
// e domingos
func AdicionarDiasUteis(t time.Time, n int) time.Time {
	resultado := t
	for n > 0 {
		resultado = resultado.AddDate(0, 0, 1)
		if dia := resultado.Weekday(); dia != time.Saturday && dia != time.Sunday {
			n--
		}
	}
	return resultado
}
