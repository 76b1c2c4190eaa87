package services

import (
	"context"
	"errors"
	"log"
	"time"

	"funilzap/internal/chatwoot"
	"funilzap/internal/config"
	"funilzap/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const cacheBidirKey = "funilzap:bidir_enabled"
const cacheBidirTTL = 30 * time.Second

// IntegracaoService gerencia o registro de integração ativa com o Chatwoot
// e o gate bidirecional consultado pelo roteador de webhooks.
type IntegracaoService struct {
	db     *gorm.DB
	redis  *redis.Client
	config *config.Config
	client *chatwoot.Client
}

func NewIntegracaoService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *IntegracaoService {
	return &IntegracaoService{db: db, redis: redisClient, config: cfg}
}

// SetClient registra o cliente compartilhado que recebe as credenciais
// novas quando o registro de integração muda
func (s *IntegracaoService) SetClient(client *chatwoot.Client) {
	s.client = client
}

// ConfigAtiva retorna o registro de integração ativo; quando não existe,
// sintetiza um a partir das variáveis de ambiente (bootstrap)
func (s *IntegracaoService) ConfigAtiva() (*models.ChatwootConfig, error) {
	var cfg models.ChatwootConfig
	err := s.db.Where("ativo = ?", true).Order("criado_em ASC").First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if s.config.ChatwootURL == "" {
			return nil, nil
		}
		return &models.ChatwootConfig{
			URL:          s.config.ChatwootURL,
			AccountID:    s.config.ChatwootAccountID,
			Token:        s.config.ChatwootToken,
			BidirEnabled: true,
			Ativo:        true,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// BidirAtivo consulta o gate de sincronização bidirecional. O valor é
// cacheado no Redis com TTL curto para manter o roteador barato por request.
func (s *IntegracaoService) BidirAtivo() bool {
	ctx := context.Background()

	if s.redis != nil {
		if valor, err := s.redis.Get(ctx, cacheBidirKey).Result(); err == nil {
			return valor == "1"
		}
	}

	cfg, err := s.ConfigAtiva()
	if err != nil {
		log.Printf("[INTEGRACAO] Erro ao consultar config ativa: %v", err)
		return false
	}

	ativo := cfg != nil && cfg.BidirEnabled
	if s.redis != nil {
		valor := "0"
		if ativo {
			valor = "1"
		}
		if err := s.redis.Set(ctx, cacheBidirKey, valor, cacheBidirTTL).Err(); err != nil {
			log.Printf("[INTEGRACAO] Erro ao gravar cache do gate bidir: %v", err)
		}
	}

	return ativo
}

func (s *IntegracaoService) Atualizar(cfg *models.ChatwootConfig) error {
	if err := s.db.Save(cfg).Error; err != nil {
		return err
	}
	if s.redis != nil {
		if err := s.redis.Del(context.Background(), cacheBidirKey).Err(); err != nil {
			log.Printf("[INTEGRACAO] Erro ao invalidar cache do gate bidir: %v", err)
		}
	}
	// As credenciais novas passam a valer imediatamente para as chamadas
	// de saída, sem reinício do processo
	if s.client != nil {
		s.client.AtualizarCredenciais(cfg.URL, cfg.AccountID, cfg.Token)
		log.Printf("[INTEGRACAO] Credenciais do cliente Chatwoot atualizadas")
	}
	return nil
}

// GarantirAtributos cria no Chatwoot as definições de atributo customizado
// usadas pela sincronização, quando ainda não existem
func (s *IntegracaoService) GarantirAtributos(client *chatwoot.Client) error {
	definicoes := []struct {
		chave   string
		tipo    string
		valores []string
	}{
		{AtributoNomeFunil, "text", nil},
		{AtributoFunilEtapa, "text", nil},
		{AtributoEtapaComercial, "text", nil},
		{AtributoDataRetorno, "date", nil},
	}

	for _, def := range definicoes {
		if _, err := client.GetOrCreateCustomAttributeDefinition(def.chave, def.tipo, def.valores); err != nil {
			return err
		}
		log.Printf("[INTEGRACAO] Definição de atributo garantida: %s", def.chave)
	}
	return nil
}
