package main

import (
	"log"

	"funilzap/internal/config"
	"funilzap/internal/database"
	"funilzap/internal/models"
	"funilzap/internal/services"

	"github.com/joho/godotenv"
)

// Seed inicial: usuário admin e os funis padrão com suas etapas
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

	usuarios := services.NewUserService(db)
	admin, err := usuarios.BuscarPorEmail("admin@funilzap.com")
	if err != nil {
		log.Fatalf("Erro ao verificar usuário admin: %v", err)
	}
	if admin == nil {
		if err := usuarios.Criar(&models.Usuario{
			Email: "admin@funilzap.com",
			Nome:  "Administrador",
			Tipo:  models.TipoUsuarioAdmin,
			Ativo: true,
			Senha: "admin123",
		}); err != nil {
			log.Fatalf("Erro ao criar usuário admin: %v", err)
		}
		log.Println("Usuário admin criado: admin@funilzap.com / admin123")
	}

	funis := services.NewFunilService(db)
	padroes := []struct {
		nome   string
		etapas []string
	}{
		{cfg.FunilComercialNome, []string{"Novo lead", "Qualificação", "Proposta", "Negociação", "Fechamento"}},
		{"Suporte", []string{"Triagem", "Em atendimento", "Aguardando cliente", "Resolvido"}},
	}

	for _, p := range padroes {
		existente, err := funis.BuscarPorNome(p.nome)
		if err != nil {
			log.Fatalf("Erro ao verificar funil %q: %v", p.nome, err)
		}
		if existente != nil {
			continue
		}

		funil := &models.Funil{Nome: p.nome, Ativo: true}
		for i, nome := range p.etapas {
			funil.Etapas = append(funil.Etapas, models.Etapa{Nome: nome, Ordem: i + 1})
		}
		if err := funis.Criar(funil); err != nil {
			log.Fatalf("Erro ao criar funil %q: %v", p.nome, err)
		}
		log.Printf("Funil %q criado com %d etapas", p.nome, len(p.etapas))
	}

	log.Println("Seed concluído")
}
