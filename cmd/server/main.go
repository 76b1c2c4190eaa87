package main

import (
	"log"

	"funilzap/internal/config"
	"funilzap/internal/database"
	"funilzap/internal/router"
	"funilzap/internal/services"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Arquivo .env não encontrado, usando variáveis de ambiente")
	}

	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Erro ao conectar no banco: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Erro ao executar migrações: %v", err)
	}

	redisClient := database.ConnectRedis(cfg.RedisURL)

	container := services.NewContainer(db, redisClient, cfg)

	r := router.Setup(container)

	log.Printf("Servidor iniciado na porta %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Erro ao iniciar servidor: %v", err)
	}
}
