package models

import "time"

type Funil struct {
	BaseModel
	Nome      string  `gorm:"uniqueIndex;not null" json:"nome"`
	Descricao *string `gorm:"type:text" json:"descricao"`
	Cor       string  `gorm:"not null;default:'#3b82f6'" json:"cor"`
	Ativo     bool    `gorm:"default:true" json:"ativo"`

	// Relacionamentos
	Etapas []Etapa        `gorm:"foreignKey:FunilID" json:"etapas,omitempty"`
	Cards  []CardConversa `gorm:"foreignKey:FunilID" json:"cards,omitempty"`
}

func (Funil) TableName() string {
	return "funis"
}

type Etapa struct {
	BaseModel
	Nome    string  `gorm:"not null" json:"nome"`
	Ordem   int     `gorm:"not null" json:"ordem"`
	Cor     *string `json:"cor"`
	FunilID string  `gorm:"not null" json:"funilId"`

	// Relacionamentos
	Funil Funil          `gorm:"foreignKey:FunilID" json:"funil,omitempty"`
	Cards []CardConversa `gorm:"foreignKey:EtapaID" json:"cards,omitempty"`
}

func (Etapa) TableName() string {
	return "etapas"
}

// CardConversa é a unidade de negociação do CRM, opcionalmente espelhada
// em uma conversa do Chatwoot via ChatwootConversaID.
type CardConversa struct {
	BaseModel
	Nome         string  `gorm:"not null" json:"nome"`
	ContatoNome  *string `json:"contatoNome"`
	ContatoFone  *string `json:"contatoFone"`
	Descricao    *string `gorm:"type:text" json:"descricao"`

	// Vínculo externo: no máximo um card por conversa do Chatwoot
	ChatwootConversaID *int `gorm:"uniqueIndex" json:"chatwootConversaId"`

	// Posicionamento no funil. Os nomes são cache denormalizado dos ids,
	// porque o Chatwoot só armazena texto livre nos atributos customizados.
	FunilID    *string `json:"funilId"`
	FunilNome  *string `json:"funilNome"`
	EtapaID    *string `json:"etapaId"`
	FunilEtapa *string `json:"funilEtapa"`

	DataRetorno *time.Time `json:"dataRetorno"`

	Status        StatusCard `gorm:"default:'ABERTO'" json:"status"`
	Pausado       bool       `gorm:"default:false" json:"pausado"`
	Arquivado     bool       `gorm:"default:false" json:"arquivado"`
	Prioridade    string     `gorm:"default:'media'" json:"prioridade"`
	ResponsavelID *string    `json:"responsavelId"`

	// Preenchidos pela chamada externa de scoring; o motor de sync só lê
	LeadScore          *int    `json:"leadScore"`
	LeadScoreCategoria *string `json:"leadScoreCategoria"`

	// Relacionamentos
	Funil       *Funil          `gorm:"foreignKey:FunilID" json:"funil,omitempty"`
	Etapa       *Etapa          `gorm:"foreignKey:EtapaID" json:"etapa,omitempty"`
	Responsavel *Usuario        `gorm:"foreignKey:ResponsavelID" json:"responsavel,omitempty"`
	Atividades  []AtividadeCard `gorm:"foreignKey:CardID" json:"atividades,omitempty"`
}

func (CardConversa) TableName() string {
	return "cards_conversas"
}

// AtividadeCard é o registro de log/tarefa de um card. Imutável após criado;
// o motor de sync nunca apaga atividades.
type AtividadeCard struct {
	BaseModel
	CardID       string          `gorm:"not null" json:"cardId"`
	Tipo         string          `gorm:"not null" json:"tipo"`
	Descricao    string          `gorm:"type:text;not null" json:"descricao"`
	DataPrevista *time.Time      `json:"dataPrevista"`
	Status       StatusAtividade `gorm:"default:'PENDENTE'" json:"status"`
	Privado      bool            `gorm:"default:false" json:"privado"`

	// Chave de deduplicação para mensagens espelhadas do Chatwoot
	ChatwootMessageID *int `gorm:"index" json:"chatwootMessageId"`

	// Relacionamentos
	Card CardConversa `gorm:"foreignKey:CardID" json:"card,omitempty"`
}

func (AtividadeCard) TableName() string {
	return "atividades_cards"
}
