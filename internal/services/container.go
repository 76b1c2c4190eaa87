package services

import (
	"log"

	"funilzap/internal/chatwoot"
	"funilzap/internal/config"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Container contém todos os serviços da aplicação
type Container struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Config   *config.Config
	Chatwoot *chatwoot.Client

	// Serviços
	AuthService          *AuthService
	UserService          *UserService
	FunilService         *FunilService
	CardService          *CardService
	SyncLogService       *SyncLogService
	IntegracaoService    *IntegracaoService
	ScoringService       *ScoringService
	AutomacaoService     *AutomacaoService
	SincronizacaoService *SincronizacaoService
	ComandoService       *ComandoService
	NotaService          *NotaService
	AtributoMapper       *AtributoMapper
}

// NewContainer cria uma nova instância do container de serviços
func NewContainer(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Container {
	container := &Container{
		DB:     db,
		Redis:  redisClient,
		Config: cfg,
	}

	container.SyncLogService = NewSyncLogService(db)
	container.IntegracaoService = NewIntegracaoService(db, redisClient, cfg)

	// O cliente Chatwoot usa o registro de integração ativo; sem registro
	// e sem env, as chamadas de saída falham de forma controlada
	integracao, err := container.IntegracaoService.ConfigAtiva()
	if err != nil {
		log.Printf("[CONTAINER] Erro ao carregar integração ativa: %v", err)
	}
	if integracao != nil {
		container.Chatwoot = chatwoot.NewClient(integracao.URL, integracao.AccountID, integracao.Token)
	} else {
		log.Printf("[CONTAINER] Integração Chatwoot não configurada")
		container.Chatwoot = chatwoot.NewClient(cfg.ChatwootURL, cfg.ChatwootAccountID, cfg.ChatwootToken)
	}
	container.Chatwoot.SetAudit(container.SyncLogService.AuditFunc())
	container.IntegracaoService.SetClient(container.Chatwoot)

	container.AuthService = NewAuthService(db, cfg)
	container.UserService = NewUserService(db)
	container.FunilService = NewFunilService(db)
	container.CardService = NewCardService(db)
	container.AtributoMapper = NewAtributoMapper(cfg.FunilComercialNome)

	container.ScoringService = NewScoringService(cfg, container.CardService)
	container.AutomacaoService = NewAutomacaoService(db, container.CardService, container.FunilService, container.ScoringService)
	container.SincronizacaoService = NewSincronizacaoService(
		container.CardService,
		container.FunilService,
		container.AtributoMapper,
		container.Chatwoot,
		container.SyncLogService,
		container.AutomacaoService,
	)
	container.ComandoService = NewComandoService(container.CardService, container.UserService)
	container.NotaService = NewNotaService(container.CardService, container.Chatwoot, cfg.FunilComercialNome)

	return container
}
