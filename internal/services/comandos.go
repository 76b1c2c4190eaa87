package services

import (
	"fmt"
	"log"
	"strings"

	"funilzap/internal/models"
)

const textoAjuda = "Comandos disponíveis: /pausar, /retomar, /prioridade <baixa|media|alta|urgente>, /transferir <email>, /info, /ajuda"

// ComandoService interpreta mensagens administrativas prefixadas com "/"
// recebidas pela conversa vinculada a um card. Todo desfecho, sucesso ou
// rejeição, vira uma atividade não-privada no card.
type ComandoService struct {
	cards    *CardService
	usuarios *UserService
}

func NewComandoService(cards *CardService, usuarios *UserService) *ComandoService {
	return &ComandoService{cards: cards, usuarios: usuarios}
}

// EhComando indica se o conteúdo deve ser tratado como comando
func EhComando(conteudo string) bool {
	return strings.HasPrefix(strings.TrimSpace(conteudo), "/")
}

// Processar executa o comando contido em conteudo contra o card e retorna
// a mensagem de resultado. Comando desconhecido nunca é erro duro.
func (s *ComandoService) Processar(card *models.CardConversa, conteudo string) (string, error) {
	partes := strings.Fields(strings.TrimSpace(conteudo))
	if len(partes) == 0 {
		return "", fmt.Errorf("conteúdo vazio")
	}

	nome := strings.ToLower(strings.TrimPrefix(partes[0], "/"))
	args := partes[1:]

	resultado := s.executar(card, nome, args)

	if err := s.cards.InserirAtividade(&models.AtividadeCard{
		CardID:    card.ID,
		Tipo:      models.TipoAtividadeComando,
		Descricao: fmt.Sprintf("%s → %s", conteudo, resultado),
		Status:    models.StatusAtividadeConcluida,
	}); err != nil {
		return resultado, err
	}

	log.Printf("[COMANDO] Card %s: %s → %s", card.ID, conteudo, resultado)
	return resultado, nil
}

func (s *ComandoService) executar(card *models.CardConversa, nome string, args []string) string {
	switch nome {
	case "pausar":
		if err := s.cards.Atualizar(card.ID, map[string]interface{}{"pausado": true}); err != nil {
			return fmt.Sprintf("❌ Erro ao pausar: %v", err)
		}
		return "✅ Negociação pausada"

	case "retomar":
		if err := s.cards.Atualizar(card.ID, map[string]interface{}{"pausado": false}); err != nil {
			return fmt.Sprintf("❌ Erro ao retomar: %v", err)
		}
		return "▶️ Negociação retomada"

	case "prioridade":
		if len(args) == 0 {
			return fmt.Sprintf("❌ Informe a prioridade. Valores permitidos: %s", strings.Join(models.PrioridadesValidas, ", "))
		}
		valor := strings.ToLower(args[0])
		if !models.PrioridadeValida(valor) {
			return fmt.Sprintf("❌ Prioridade inválida: %q. Valores permitidos: %s", args[0], strings.Join(models.PrioridadesValidas, ", "))
		}
		if err := s.cards.Atualizar(card.ID, map[string]interface{}{"prioridade": valor}); err != nil {
			return fmt.Sprintf("❌ Erro ao definir prioridade: %v", err)
		}
		return fmt.Sprintf("✅ Prioridade definida como %s", valor)

	case "transferir":
		if len(args) == 0 {
			return "❌ Informe o email do novo responsável"
		}
		usuario, err := s.usuarios.BuscarPorEmail(args[0])
		if err != nil {
			return fmt.Sprintf("❌ Erro ao buscar usuário: %v", err)
		}
		if usuario == nil {
			return fmt.Sprintf("❌ Usuário não encontrado: %s", args[0])
		}
		if err := s.cards.Atualizar(card.ID, map[string]interface{}{"responsavel_id": usuario.ID}); err != nil {
			return fmt.Sprintf("❌ Erro ao transferir: %v", err)
		}
		return fmt.Sprintf("✅ Negociação transferida para %s", usuario.Nome)

	case "info":
		return s.resumo(card)

	case "ajuda":
		return textoAjuda

	default:
		return fmt.Sprintf("❓ Comando /%s não reconhecido. Use /ajuda para ver os comandos disponíveis", nome)
	}
}

func (s *ComandoService) resumo(card *models.CardConversa) string {
	funil := "sem funil"
	if card.FunilNome != nil {
		funil = *card.FunilNome
	}
	etapa := "sem etapa"
	if card.FunilEtapa != nil {
		etapa = *card.FunilEtapa
	}
	retorno := "não definido"
	if card.DataRetorno != nil {
		retorno = card.DataRetorno.Format("02/01/2006")
	}

	estado := "ativa"
	if card.Pausado {
		estado = "pausada"
	}

	return fmt.Sprintf("📋 %s | %s / %s | status: %s (%s) | prioridade: %s | retorno: %s",
		card.Nome, funil, etapa, card.Status, estado, card.Prioridade, retorno)
}
