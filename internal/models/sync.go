package models

// ChatwootConfig é o registro único de integração ativa com o Chatwoot.
// O gate BidirEnabled é consultado pelo roteador de webhooks antes de
// qualquer reconciliação.
type ChatwootConfig struct {
	BaseModel
	URL          string `gorm:"not null" json:"url"`
	AccountID    string `gorm:"not null" json:"accountId"`
	Token        string `gorm:"not null" json:"-"`
	BidirEnabled bool   `gorm:"default:true" json:"bidirEnabled"`
	Ativo        bool   `gorm:"default:true" json:"ativo"`
}

func (ChatwootConfig) TableName() string {
	return "chatwoot_configs"
}

// WebhookSyncLog é a trilha de auditoria append-only de todas as chamadas
// de sincronização. Falha ao gravar aqui nunca aborta a operação principal.
type WebhookSyncLog struct {
	BaseModel
	TipoSync   string  `gorm:"not null" json:"tipoSync"`
	Status     string  `gorm:"not null" json:"status"`
	LatenciaMs int64   `json:"latenciaMs"`
	Erro       *string `gorm:"type:text" json:"erro"`
	ConversaID *int    `json:"conversaId"`
	CardID     *string `json:"cardId"`
}

func (WebhookSyncLog) TableName() string {
	return "webhook_sync_logs"
}
