package router

import (
	"net/http"
	"time"

	"funilzap/internal/handlers"
	"funilzap/internal/middleware"
	"funilzap/internal/models"
	"funilzap/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Setup monta o roteador completo a partir do container de serviços
func Setup(container *services.Container) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	hub := handlers.NewWebSocketHub()

	authHandler := handlers.NewAuthHandler(container.AuthService, container.UserService)
	webhookHandler := handlers.NewWebhookHandler(
		container.IntegracaoService,
		container.SincronizacaoService,
		container.ComandoService,
		container.NotaService,
		container.CardService,
		container.Chatwoot,
	)
	kanbanHandler := handlers.NewKanbanHandler(
		container.FunilService,
		container.CardService,
		container.SincronizacaoService,
		container.AutomacaoService,
		hub,
	)
	atividadeHandler := handlers.NewAtividadeHandler(container.CardService, container.NotaService)
	automacaoHandler := handlers.NewAutomacaoHandler(container.AutomacaoService)
	integracaoHandler := handlers.NewIntegracaoHandler(container.IntegracaoService, container.Chatwoot, container.SyncLogService)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Webhooks não levam JWT: o Chatwoot não autentica chamadas de saída
	r.POST("/webhooks/chatwoot/:origem", webhookHandler.ProcessarWebhook)

	api := r.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)

		protegido := api.Group("")
		protegido.Use(middleware.AuthMiddleware(container.AuthService))
		{
			protegido.GET("/auth/me", authHandler.Me)

			protegido.GET("/funis", kanbanHandler.ListarFunis)
			protegido.POST("/funis", kanbanHandler.CriarFunil)
			protegido.PUT("/funis/:id", kanbanHandler.AtualizarFunil)
			protegido.DELETE("/funis/:id", kanbanHandler.ExcluirFunil)
			protegido.POST("/funis/:id/etapas", kanbanHandler.CriarEtapa)

			protegido.GET("/cards", kanbanHandler.ListarCards)
			protegido.POST("/cards", kanbanHandler.CriarCard)
			protegido.PUT("/cards/:id", kanbanHandler.AtualizarCard)
			protegido.POST("/cards/:id/mover", kanbanHandler.MoverCard)
			protegido.POST("/cards/:id/status", kanbanHandler.AlterarStatus)
			protegido.POST("/cards/:id/arquivar", kanbanHandler.ArquivarCard)

			protegido.GET("/cards/:id/atividades", atividadeHandler.Listar)
			protegido.POST("/cards/:id/atividades", atividadeHandler.Criar)
			protegido.POST("/cards/:id/resync-notas", atividadeHandler.RessincronizarNotas)
			protegido.PUT("/atividades/:atividadeId/concluir", atividadeHandler.Concluir)

			admin := protegido.Group("")
			admin.Use(middleware.RequireRole(string(models.TipoUsuarioAdmin), string(models.TipoUsuarioGestor)))
			{
				admin.GET("/automacoes", automacaoHandler.Listar)
				admin.POST("/automacoes", automacaoHandler.Criar)
				admin.PUT("/automacoes/:id", automacaoHandler.Atualizar)
				admin.DELETE("/automacoes/:id", automacaoHandler.Excluir)

				admin.GET("/integracao", integracaoHandler.Buscar)
				admin.PUT("/integracao", integracaoHandler.Atualizar)
				admin.POST("/integracao/atributos", integracaoHandler.GarantirAtributos)
				admin.GET("/integracao/logs", integracaoHandler.ListarLogs)
			}
		}

		api.GET("/ws", hub.HandleConnection)
	}

	return r
}
