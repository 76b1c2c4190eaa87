package services

import (
	"fmt"
	"log"
	"time"

	"funilzap/internal/chatwoot"
	"funilzap/internal/models"
)

// Eventos de webhook reconhecidos pelo motor de sincronização
const (
	EventoConversaCriada     = "conversation_created"
	EventoConversaAtualizada = "conversation_updated"
	EventoMensagemCriada     = "message_created"
)

// EventoConversa é o snapshot de um evento do Chatwoot já roteado,
// com os atributos de interesse extraídos do envelope.
type EventoConversa struct {
	Evento      string
	ConversaID  int
	FunilNome   string
	EtapaNome   string
	DataRetorno *time.Time

	// Funil padrão da origem do webhook, usado quando o evento
	// não carrega nome de funil
	FunilPadrao string
}

// SincronizacaoService implementa as duas pernas da sincronização
// bidirecional: reconciliação de eventos de entrada e o espelhamento de
// mutações locais de volta para o Chatwoot.
type SincronizacaoService struct {
	cards      *CardService
	funis      *FunilService
	mapper     *AtributoMapper
	client     *chatwoot.Client
	syncLog    *SyncLogService
	automacoes *AutomacaoService
}

func NewSincronizacaoService(cards *CardService, funis *FunilService, mapper *AtributoMapper, client *chatwoot.Client, syncLog *SyncLogService, automacoes *AutomacaoService) *SincronizacaoService {
	return &SincronizacaoService{
		cards:      cards,
		funis:      funis,
		mapper:     mapper,
		client:     client,
		syncLog:    syncLog,
		automacoes: automacoes,
	}
}

// ReconciliarEvento mescla um evento de entrada no modelo local de
// Card + Atividade. Atualizações são sempre valores absolutos
// (last-write-wins), nunca deltas.
func (s *SincronizacaoService) ReconciliarEvento(ev *EventoConversa) error {
	inicio := time.Now()

	card, err := s.cards.BuscarPorConversaID(ev.ConversaID)
	if err != nil {
		s.syncLog.Registrar("reconciliacao", "erro", time.Since(inicio).Milliseconds(), &ev.ConversaID, nil, err)
		return err
	}

	if card != nil {
		err = s.atualizarCardExistente(card, ev)
	} else if ev.Evento == EventoConversaCriada {
		err = s.criarCardDeEvento(ev)
	} else {
		// Atualização sem card existente: evento obsoleto/irrelevante.
		// Só eventos de criação criam cards.
		log.Printf("[SYNC] Ignorando %s para conversa %d sem card", ev.Evento, ev.ConversaID)
		return nil
	}

	if err != nil {
		s.syncLog.Registrar("reconciliacao", "erro", time.Since(inicio).Milliseconds(), &ev.ConversaID, nil, err)
		return err
	}

	s.syncLog.Registrar("reconciliacao", "sucesso", time.Since(inicio).Milliseconds(), &ev.ConversaID, nil, nil)
	return nil
}

func (s *SincronizacaoService) atualizarCardExistente(card *models.CardConversa, ev *EventoConversa) error {
	campos := make(map[string]interface{})

	funilID := card.FunilID
	if ev.FunilNome != "" {
		funil, err := s.funis.BuscarPorNome(ev.FunilNome)
		if err != nil {
			return err
		}
		if funil != nil {
			funilID = &funil.ID
			campos["funil_id"] = funil.ID
			campos["funil_nome"] = funil.Nome
		} else {
			log.Printf("[SYNC] Funil %q do evento não existe, mantendo funil atual do card %s", ev.FunilNome, card.ID)
		}
	}

	etapaMudou := false
	if ev.EtapaNome != "" && funilID != nil {
		etapa, err := s.funis.BuscarEtapaPorNome(*funilID, ev.EtapaNome)
		if err != nil {
			return err
		}
		if etapa != nil {
			if card.EtapaID == nil || *card.EtapaID != etapa.ID {
				etapaMudou = true
			}
			campos["etapa_id"] = etapa.ID
			campos["funil_etapa"] = etapa.Nome
		} else {
			log.Printf("[SYNC] Etapa %q não existe no funil, mantendo etapa atual do card %s", ev.EtapaNome, card.ID)
		}
	}

	if ev.DataRetorno != nil {
		campos["data_retorno"] = *ev.DataRetorno
	}

	if len(campos) > 0 {
		if err := s.cards.Atualizar(card.ID, campos); err != nil {
			return err
		}
	}

	tipo := models.TipoAtividadeSyncBidir
	descricao := fmt.Sprintf("Sincronização bidirecional: conversa %d", ev.ConversaID)
	if etapaMudou {
		tipo = models.TipoAtividadeMudancaEtapa
		descricao = fmt.Sprintf("Etapa alterada via Chatwoot para %q", ev.EtapaNome)
	}

	// Atividades de sync genéricas não são deduplicadas; replays geram
	// linhas repetidas na trilha, por tolerância deliberada
	if err := s.cards.InserirAtividade(&models.AtividadeCard{
		CardID:    card.ID,
		Tipo:      tipo,
		Descricao: descricao,
		Status:    models.StatusAtividadeConcluida,
	}); err != nil {
		return err
	}

	if etapaMudou {
		var funilOrigemID string
		if card.FunilID != nil {
			funilOrigemID = *card.FunilID
		}
		atual, err := s.cards.BuscarPorID(card.ID)
		if err != nil {
			return err
		}
		s.automacoes.DispararEvento(&EventoAutomacao{
			Evento:           models.EventoEtapaChange,
			Card:             atual,
			FunilOrigemID:    funilOrigemID,
			EtapaDestinoNome: ev.EtapaNome,
		})
	}

	return nil
}

func (s *SincronizacaoService) criarCardDeEvento(ev *EventoConversa) error {
	funil, err := s.resolverFunil(ev)
	if err != nil {
		return err
	}
	if funil == nil {
		return fmt.Errorf("nenhum funil cadastrado para receber a conversa %d", ev.ConversaID)
	}

	etapa, err := s.resolverEtapa(funil.ID, ev.EtapaNome)
	if err != nil {
		return err
	}
	if etapa == nil {
		return fmt.Errorf("funil %q não possui etapas", funil.Nome)
	}

	dataRetorno := ev.DataRetorno
	if dataRetorno == nil {
		padrao := time.Now().AddDate(0, 0, 7)
		dataRetorno = &padrao
	}

	conversaID := ev.ConversaID
	card := &models.CardConversa{
		Nome:               fmt.Sprintf("Conversa #%d", ev.ConversaID),
		ChatwootConversaID: &conversaID,
		FunilID:            &funil.ID,
		FunilNome:          &funil.Nome,
		EtapaID:            &etapa.ID,
		FunilEtapa:         &etapa.Nome,
		DataRetorno:        dataRetorno,
		Status:             models.StatusCardAberto,
	}

	if err := s.cards.Criar(card); err != nil {
		return err
	}

	if err := s.cards.InserirAtividade(&models.AtividadeCard{
		CardID:    card.ID,
		Tipo:      models.TipoAtividadeCriacao,
		Descricao: fmt.Sprintf("Card criado a partir da conversa %d no funil %q, etapa %q", ev.ConversaID, funil.Nome, etapa.Nome),
		Status:    models.StatusAtividadeConcluida,
	}); err != nil {
		return err
	}

	log.Printf("[SYNC] Card %s criado para conversa %d (%s / %s)", card.ID, ev.ConversaID, funil.Nome, etapa.Nome)

	s.automacoes.DispararEvento(&EventoAutomacao{
		Evento:           models.EventoCardCriado,
		Card:             card,
		EtapaDestinoNome: etapa.Nome,
	})

	return nil
}

// resolverFunil tenta, nesta ordem: nome vindo do evento, funil padrão da
// origem do webhook, funil mais antigo cadastrado
func (s *SincronizacaoService) resolverFunil(ev *EventoConversa) (*models.Funil, error) {
	if ev.FunilNome != "" {
		funil, err := s.funis.BuscarPorNome(ev.FunilNome)
		if err != nil {
			return nil, err
		}
		if funil != nil {
			return funil, nil
		}
	}
	if ev.FunilPadrao != "" {
		funil, err := s.funis.BuscarPorNome(ev.FunilPadrao)
		if err != nil {
			return nil, err
		}
		if funil != nil {
			return funil, nil
		}
	}
	return s.funis.FunilMaisAntigo()
}

// resolverEtapa cai para a primeira etapa (por ordem) quando o nome está
// ausente ou não resolve
func (s *SincronizacaoService) resolverEtapa(funilID, etapaNome string) (*models.Etapa, error) {
	if etapaNome != "" {
		etapa, err := s.funis.BuscarEtapaPorNome(funilID, etapaNome)
		if err != nil {
			return nil, err
		}
		if etapa != nil {
			return etapa, nil
		}
	}
	return s.funis.PrimeiraEtapa(funilID)
}

// SincronizarSaida espelha o posicionamento local do card nos atributos
// customizados da conversa. Card sem vínculo externo é no-op, não erro.
// Falhas aqui nunca revertem a mutação local que as originou.
func (s *SincronizacaoService) SincronizarSaida(card *models.CardConversa) error {
	if card.ChatwootConversaID == nil {
		return nil
	}

	var funilNome, etapaNome string
	if card.FunilNome != nil {
		funilNome = *card.FunilNome
	}
	if card.FunilEtapa != nil {
		etapaNome = *card.FunilEtapa
	}

	atributos := s.mapper.MapearAtributosExternos(funilNome, etapaNome, card.DataRetorno)
	if len(atributos) == 0 {
		return nil
	}

	if err := s.client.UpdateConversationAttributes(*card.ChatwootConversaID, atributos); err != nil {
		log.Printf("[SYNC] Falha ao espelhar card %s na conversa %d: %v", card.ID, *card.ChatwootConversaID, err)
		return err
	}

	log.Printf("[SYNC] Card %s espelhado na conversa %d", card.ID, *card.ChatwootConversaID)
	return nil
}
