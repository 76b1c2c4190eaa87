package chatwoot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sync"
	"time"
)

// Classificação de falhas da API (ver taxonomia de erros do serviço)
var (
	ErrAutenticacao  = errors.New("chatwoot: falha de autenticação")
	ErrNaoEncontrado = errors.New("chatwoot: recurso não encontrado")
	ErrIndisponivel  = errors.New("chatwoot: serviço indisponível")
)

// AuditFunc recebe o resultado de cada chamada para a trilha de auditoria.
// A implementação nunca deve retornar erro para o cliente.
type AuditFunc func(tipoSync, status string, latenciaMs int64, conversaID *int, erro error)

// Client é o cliente HTTP da API do Chatwoot. As credenciais podem ser
// trocadas em tempo de execução quando o registro de integração muda.
type Client struct {
	UserAgent  string
	httpClient *http.Client
	audit      AuditFunc

	mu        sync.RWMutex
	baseURL   string
	accountID string
	token     string
}

// NewClient cria uma nova instância do cliente Chatwoot
func NewClient(baseURL, accountID, token string) *Client {
	return &Client{
		baseURL:   baseURL,
		accountID: accountID,
		token:     token,
		UserAgent: "funilzap/1.0",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// AtualizarCredenciais troca as credenciais do cliente compartilhado.
// Chamadas em andamento terminam com as credenciais antigas; as próximas
// já usam as novas.
func (c *Client) AtualizarCredenciais(baseURL, accountID, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = baseURL
	c.accountID = accountID
	c.token = token
}

func (c *Client) conta() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accountID
}

// SetAudit registra o destino da trilha de auditoria das chamadas
func (c *Client) SetAudit(fn AuditFunc) {
	c.audit = fn
}

func (c *Client) registrarAuditoria(tipoSync string, inicio time.Time, conversaID *int, err error) {
	if c.audit == nil {
		return
	}
	status := "sucesso"
	if err != nil {
		status = "erro"
	}
	c.audit(tipoSync, status, time.Since(inicio).Milliseconds(), conversaID, err)
}

// makeRequest executa uma requisição HTTP para a API do Chatwoot
func (c *Client) makeRequest(method, endpoint string, body interface{}) (*http.Response, error) {
	c.mu.RLock()
	base := c.baseURL
	token := c.token
	c.mu.RUnlock()

	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	baseURL.Path = path.Join(baseURL.Path, endpoint)
	requestURL := baseURL.String()

	var requestBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error marshaling request body: %w", err)
		}
		requestBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, requestURL, requestBody)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("api_access_token", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Falha de rede/timeout é tratada como transitória
		return nil, fmt.Errorf("%w: %v", ErrIndisponivel, err)
	}

	return resp, nil
}

// handleError classifica respostas não-2xx da API Chatwoot
func (c *Client) handleError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)

	mensagem := string(body)
	var errorResponse map[string]interface{}
	if err := json.Unmarshal(body, &errorResponse); err == nil {
		if m, ok := errorResponse["message"]; ok {
			mensagem = fmt.Sprintf("%v", m)
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d: %s", ErrAutenticacao, resp.StatusCode, mensagem)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: HTTP %d: %s", ErrNaoEncontrado, resp.StatusCode, mensagem)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: HTTP %d: %s", ErrIndisponivel, resp.StatusCode, mensagem)
	default:
		return fmt.Errorf("chatwoot: HTTP %d: %s", resp.StatusCode, mensagem)
	}
}

// GetConversation busca uma conversa pelo id
func (c *Client) GetConversation(conversationID int) (*Conversation, error) {
	inicio := time.Now()
	endpoint := fmt.Sprintf("/api/v1/accounts/%s/conversations/%d", c.conta(), conversationID)

	resp, err := c.makeRequest("GET", endpoint, nil)
	if err != nil {
		c.registrarAuditoria("get_conversation", inicio, &conversationID, err)
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.handleError(resp); err != nil {
		c.registrarAuditoria("get_conversation", inicio, &conversationID, err)
		return nil, err
	}

	var result Conversation
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		err = fmt.Errorf("error decoding conversation response: %w", err)
		c.registrarAuditoria("get_conversation", inicio, &conversationID, err)
		return nil, err
	}

	c.registrarAuditoria("get_conversation", inicio, &conversationID, nil)
	return &result, nil
}

// UpdateConversationAttributes atualiza os atributos customizados de uma
// conversa (leg de saída da sincronização bidirecional)
func (c *Client) UpdateConversationAttributes(conversationID int, attributes map[string]string) error {
	inicio := time.Now()
	endpoint := fmt.Sprintf("/api/v1/accounts/%s/conversations/%d/custom_attributes", c.conta(), conversationID)

	payload := map[string]interface{}{
		"custom_attributes": attributes,
	}

	resp, err := c.makeRequest("POST", endpoint, payload)
	if err != nil {
		c.registrarAuditoria("update_attributes", inicio, &conversationID, err)
		return err
	}
	defer resp.Body.Close()

	if err := c.handleError(resp); err != nil {
		c.registrarAuditoria("update_attributes", inicio, &conversationID, err)
		return err
	}

	c.registrarAuditoria("update_attributes", inicio, &conversationID, nil)
	return nil
}

// PostMessage envia uma mensagem para uma conversa
func (c *Client) PostMessage(conversationID int, content string, private bool) (*Message, error) {
	inicio := time.Now()
	endpoint := fmt.Sprintf("/api/v1/accounts/%s/conversations/%d/messages", c.conta(), conversationID)

	payload := map[string]interface{}{
		"content":      content,
		"message_type": "outgoing",
		"private":      private,
	}

	resp, err := c.makeRequest("POST", endpoint, payload)
	if err != nil {
		c.registrarAuditoria("post_message", inicio, &conversationID, err)
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.handleError(resp); err != nil {
		c.registrarAuditoria("post_message", inicio, &conversationID, err)
		return nil, err
	}

	var result Message
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		err = fmt.Errorf("error decoding message response: %w", err)
		c.registrarAuditoria("post_message", inicio, &conversationID, err)
		return nil, err
	}

	c.registrarAuditoria("post_message", inicio, &conversationID, nil)
	return &result, nil
}

// GetMessages lista as mensagens de uma conversa
func (c *Client) GetMessages(conversationID int) ([]Message, error) {
	inicio := time.Now()
	endpoint := fmt.Sprintf("/api/v1/accounts/%s/conversations/%d/messages", c.conta(), conversationID)

	resp, err := c.makeRequest("GET", endpoint, nil)
	if err != nil {
		c.registrarAuditoria("get_messages", inicio, &conversationID, err)
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.handleError(resp); err != nil {
		c.registrarAuditoria("get_messages", inicio, &conversationID, err)
		return nil, err
	}

	var result struct {
		Payload []Message `json:"payload"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		err = fmt.Errorf("error decoding messages response: %w", err)
		c.registrarAuditoria("get_messages", inicio, &conversationID, err)
		return nil, err
	}

	c.registrarAuditoria("get_messages", inicio, &conversationID, nil)
	return result.Payload, nil
}

// GetOrCreateCustomAttributeDefinition garante que a definição de atributo
// exista na conta, criando-a quando necessário
func (c *Client) GetOrCreateCustomAttributeDefinition(key, displayType string, allowedValues []string) (*CustomAttributeDefinition, error) {
	inicio := time.Now()
	endpoint := fmt.Sprintf("/api/v1/accounts/%s/custom_attribute_definitions", c.conta())

	resp, err := c.makeRequest("GET", endpoint, nil)
	if err != nil {
		c.registrarAuditoria("attribute_definition", inicio, nil, err)
		return nil, err
	}

	if err := c.handleError(resp); err != nil {
		resp.Body.Close()
		c.registrarAuditoria("attribute_definition", inicio, nil, err)
		return nil, err
	}

	var existentes []CustomAttributeDefinition
	if err := json.NewDecoder(resp.Body).Decode(&existentes); err != nil {
		resp.Body.Close()
		err = fmt.Errorf("error decoding definitions response: %w", err)
		c.registrarAuditoria("attribute_definition", inicio, nil, err)
		return nil, err
	}
	resp.Body.Close()

	for i := range existentes {
		if existentes[i].Key == key {
			c.registrarAuditoria("attribute_definition", inicio, nil, nil)
			return &existentes[i], nil
		}
	}

	payload := map[string]interface{}{
		"attribute_display_name": key,
		"attribute_display_type": displayType,
		"attribute_key":          key,
		"attribute_model":        "conversation_attribute",
	}
	if len(allowedValues) > 0 {
		payload["attribute_values"] = allowedValues
	}

	resp, err = c.makeRequest("POST", endpoint, payload)
	if err != nil {
		c.registrarAuditoria("attribute_definition", inicio, nil, err)
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.handleError(resp); err != nil {
		c.registrarAuditoria("attribute_definition", inicio, nil, err)
		return nil, err
	}

	var criado CustomAttributeDefinition
	if err := json.NewDecoder(resp.Body).Decode(&criado); err != nil {
		err = fmt.Errorf("error decoding definition response: %w", err)
		c.registrarAuditoria("attribute_definition", inicio, nil, err)
		return nil, err
	}

	c.registrarAuditoria("attribute_definition", inicio, nil, nil)
	return &criado, nil
}
