package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONB type para campos JSON no PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONB)
		return nil
	}
	dados, err := jsonBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(dados, j)
}

// jsonBytes normaliza o valor cru do driver: postgres devolve []byte,
// outros drivers devolvem string
func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("tipo inesperado para coluna JSON")
	}
}

// Eventos de gatilho conhecidos
const (
	EventoEtapaChange  = "etapa_change"
	EventoCardCriado   = "card_criado"
	EventoCardGanho    = "card_ganho"
	EventoCardPerdido  = "card_perdido"
)

// Tipos de ação conhecidos
const (
	AcaoMoverFunil      = "mover_funil"
	AcaoCriarTarefa     = "criar_tarefa"
	AcaoRecalcularScore = "recalcular_score"
)

// Gatilho descreve quando uma automação dispara. Campos opcionais vazios
// não restringem a correspondência.
type Gatilho struct {
	Evento        string `json:"evento"`
	FunilOrigemID string `json:"funil_origem_id,omitempty"`
	EtapaDestino  string `json:"etapa_destino,omitempty"`
}

func (g Gatilho) Value() (driver.Value, error) {
	return json.Marshal(g)
}

func (g *Gatilho) Scan(value interface{}) error {
	dados, err := jsonBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(dados, g)
}

// Acao descreve o que uma automação executa ao disparar.
type Acao struct {
	Tipo           string `json:"tipo"`
	FunilDestinoID string `json:"funil_destino_id,omitempty"`
	EtapaDestinoID string `json:"etapa_destino_id,omitempty"`
	DiasPrazo      int    `json:"dias_prazo,omitempty"`
	TipoTarefa     string `json:"tipo_tarefa,omitempty"`
}

func (a Acao) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *Acao) Scan(value interface{}) error {
	dados, err := jsonBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(dados, a)
}

type AutomacaoConfig struct {
	BaseModel
	Nome    string  `gorm:"not null" json:"nome"`
	Gatilho Gatilho `gorm:"type:jsonb;not null" json:"gatilho"`
	Acao    Acao    `gorm:"type:jsonb;not null" json:"acao"`
	Ativo   bool    `gorm:"default:true" json:"ativo"`
}

func (AutomacaoConfig) TableName() string {
	return "automacoes_config"
}
