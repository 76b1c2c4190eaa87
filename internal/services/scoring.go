package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"funilzap/internal/config"
	"funilzap/internal/models"
)

// ScoringService invoca a API externa de lead scoring e grava o resultado
// no card. O motor de sync só lê os campos de score.
type ScoringService struct {
	config *config.Config
	cards  *CardService
	client *http.Client
}

func NewScoringService(cfg *config.Config, cards *CardService) *ScoringService {
	return &ScoringService{
		config: cfg,
		cards:  cards,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *ScoringService) Recalcular(card *models.CardConversa) error {
	if s.config.ScoringAPIURL == "" {
		log.Printf("[SCORING] SCORING_API_URL não configurada, pulando recálculo do card %s", card.ID)
		return nil
	}

	payload := map[string]interface{}{
		"card_id":    card.ID,
		"prioridade": card.Prioridade,
		"status":     card.Status,
		"pausado":    card.Pausado,
	}
	if card.DataRetorno != nil {
		payload["data_retorno"] = card.DataRetorno.Format("2006-01-02")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := s.client.Post(s.config.ScoringAPIURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("erro ao chamar API de scoring: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API de scoring retornou status %d", resp.StatusCode)
	}

	var resultado struct {
		Score     int    `json:"score"`
		Categoria string `json:"categoria"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&resultado); err != nil {
		return fmt.Errorf("erro ao decodificar resposta de scoring: %w", err)
	}

	if err := s.cards.Atualizar(card.ID, map[string]interface{}{
		"lead_score":           resultado.Score,
		"lead_score_categoria": resultado.Categoria,
	}); err != nil {
		return err
	}

	log.Printf("[SCORING] Card %s recalculado: score=%d categoria=%s", card.ID, resultado.Score, resultado.Categoria)
	return nil
}
