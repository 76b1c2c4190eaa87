package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model com campos comuns
type BaseModel struct {
	ID           string    `gorm:"type:uuid;primary_key" json:"id"`
	CriadoEm     time.Time `gorm:"autoCreateTime" json:"criadoEm"`
	AtualizadoEm time.Time `gorm:"autoUpdateTime" json:"atualizadoEm"`
}

// BeforeCreate hook para gerar UUID
func (base *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	return nil
}

// Enums
type TipoUsuario string

const (
	TipoUsuarioAdmin     TipoUsuario = "ADMIN"
	TipoUsuarioGestor    TipoUsuario = "GESTOR"
	TipoUsuarioAtendente TipoUsuario = "ATENDENTE"
)

type StatusCard string

const (
	StatusCardAberto      StatusCard = "ABERTO"
	StatusCardEmAndamento StatusCard = "EM_ANDAMENTO"
	StatusCardGanho       StatusCard = "GANHO"
	StatusCardPerdido     StatusCard = "PERDIDO"
)

type StatusAtividade string

const (
	StatusAtividadePendente  StatusAtividade = "PENDENTE"
	StatusAtividadeConcluida StatusAtividade = "CONCLUIDA"
)

// Tipos de atividade registrados pelo motor de sincronização
const (
	TipoAtividadeCriacao      = "CRIACAO"
	TipoAtividadeSyncBidir    = "SYNC_BIDIR"
	TipoAtividadeMudancaEtapa = "MUDANCA_ETAPA"
	TipoAtividadeFollowUp     = "FOLLOW_UP"
	TipoAtividadeNotaAdmin    = "NOTA_ADMIN"
	TipoAtividadeComando      = "comando"
)

// Prioridades aceitas pelo comando /prioridade
var PrioridadesValidas = []string{"baixa", "media", "alta", "urgente"}

func PrioridadeValida(p string) bool {
	for _, v := range PrioridadesValidas {
		if v == p {
			return true
		}
	}
	return false
}

type Usuario struct {
	BaseModel
	Email    string      `gorm:"uniqueIndex;not null" json:"email"`
	Nome     string      `gorm:"not null" json:"nome"`
	Telefone *string     `json:"telefone"`
	Tipo     TipoUsuario `gorm:"not null" json:"tipo"`
	Ativo    bool        `gorm:"default:true" json:"ativo"`
	Senha    string      `gorm:"not null" json:"-"` // Não retornar na API

	// Relacionamentos
	Cards []CardConversa `gorm:"foreignKey:ResponsavelID" json:"cards,omitempty"`
}

func (Usuario) TableName() string {
	return "usuarios"
}
