package chatwoot

// Conversation representa uma conversa no Chatwoot
type Conversation struct {
	ID               int                    `json:"id"`
	InboxID          int                    `json:"inbox_id"`
	Status           string                 `json:"status"`
	CustomAttributes map[string]interface{} `json:"custom_attributes"`
	Labels           []string               `json:"labels"`
}

// Message representa uma mensagem no Chatwoot
type Message struct {
	ID             int    `json:"id"`
	Content        string `json:"content"`
	MessageType    int    `json:"message_type"` // 0=incoming, 1=outgoing
	Private        bool   `json:"private"`
	ConversationID int    `json:"conversation_id"`
	SenderID       int    `json:"sender_id,omitempty"`
	SourceID       string `json:"source_id,omitempty"`
}

// CustomAttributeDefinition representa a definição de um atributo
// customizado da conta
type CustomAttributeDefinition struct {
	ID             int      `json:"id"`
	DisplayName    string   `json:"attribute_display_name"`
	DisplayType    string   `json:"attribute_display_type"`
	Key            string   `json:"attribute_key"`
	Values         []string `json:"attribute_values,omitempty"`
	AttributeModel string   `json:"attribute_model,omitempty"`
}
