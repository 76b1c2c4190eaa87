package services

import (
	"testing"

	"funilzap/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEhComando(t *testing.T) {
	assert.True(t, EhComando("/pausar"))
	assert.True(t, EhComando("  /prioridade alta"))
	assert.True(t, EhComando("/ajuda"))

	assert.False(t, EhComando("olá, tudo bem?"))
	assert.False(t, EhComando(""))
	assert.False(t, EhComando("pausar"))
}

func TestExecutarPrioridadeInvalida(t *testing.T) {
	s := &ComandoService{}
	card := &models.CardConversa{}

	resultado := s.executar(card, "prioridade", []string{"banana"})

	assert.Contains(t, resultado, "❌ Prioridade inválida")
	assert.Contains(t, resultado, "banana")
	assert.Contains(t, resultado, "baixa, media, alta, urgente")
}

func TestExecutarPrioridadeSemArgumento(t *testing.T) {
	s := &ComandoService{}

	resultado := s.executar(&models.CardConversa{}, "prioridade", nil)
	assert.Contains(t, resultado, "❌ Informe a prioridade")
}

func TestExecutarComandoDesconhecido(t *testing.T) {
	s := &ComandoService{}

	resultado := s.executar(&models.CardConversa{}, "foo", nil)
	assert.Contains(t, resultado, "❓ Comando /foo não reconhecido")
	assert.Contains(t, resultado, "/ajuda")
}

func TestExecutarAjuda(t *testing.T) {
	s := &ComandoService{}

	resultado := s.executar(&models.CardConversa{}, "ajuda", nil)
	assert.Equal(t, textoAjuda, resultado)
}

func TestProcessarPausarPersisteERegistraAtividade(t *testing.T) {
	db := novoBancoTeste(t)
	funil := semearFunil(t, db, "Comercial", "Novo lead")
	card := semearCard(t, db, funil, nil)
	s := NewComandoService(NewCardService(db), NewUserService(db))

	resultado, err := s.Processar(card, "/pausar")
	require.NoError(t, err)
	assert.Equal(t, "✅ Negociação pausada", resultado)

	atual, err := NewCardService(db).BuscarPorID(card.ID)
	require.NoError(t, err)
	assert.True(t, atual.Pausado)

	var atividade models.AtividadeCard
	require.NoError(t, db.Where("card_id = ? AND tipo = ?", card.ID, models.TipoAtividadeComando).First(&atividade).Error)
	assert.Equal(t, "/pausar → ✅ Negociação pausada", atividade.Descricao)
	assert.False(t, atividade.Privado)
}

func TestProcessarPrioridadePersiste(t *testing.T) {
	db := novoBancoTeste(t)
	funil := semearFunil(t, db, "Comercial", "Novo lead")
	card := semearCard(t, db, funil, nil)
	s := NewComandoService(NewCardService(db), NewUserService(db))

	resultado, err := s.Processar(card, "/prioridade alta")
	require.NoError(t, err)
	assert.Equal(t, "✅ Prioridade definida como alta", resultado)

	atual, err := NewCardService(db).BuscarPorID(card.ID)
	require.NoError(t, err)
	assert.Equal(t, "alta", atual.Prioridade)
}

func TestProcessarPrioridadeInvalidaNaoAltera(t *testing.T) {
	db := novoBancoTeste(t)
	funil := semearFunil(t, db, "Comercial", "Novo lead")
	card := semearCard(t, db, funil, nil)
	s := NewComandoService(NewCardService(db), NewUserService(db))

	resultado, err := s.Processar(card, "/prioridade banana")
	require.NoError(t, err)
	assert.Contains(t, resultado, "❌ Prioridade inválida")

	// A rejeição também fica na trilha
	assert.EqualValues(t, 1, contarAtividades(t, db, card.ID, models.TipoAtividadeComando))

	atual, err := NewCardService(db).BuscarPorID(card.ID)
	require.NoError(t, err)
	assert.Equal(t, "media", atual.Prioridade)
}

func TestProcessarTransferir(t *testing.T) {
	db := novoBancoTeste(t)
	funil := semearFunil(t, db, "Comercial", "Novo lead")
	card := semearCard(t, db, funil, nil)
	usuarios := NewUserService(db)
	require.NoError(t, usuarios.Criar(&models.Usuario{
		Email: "vendas@funilzap.com",
		Nome:  "Equipe de Vendas",
		Tipo:  models.TipoUsuarioAtendente,
		Ativo: true,
		Senha: "segredo",
	}))
	s := NewComandoService(NewCardService(db), usuarios)

	resultado, err := s.Processar(card, "/transferir vendas@funilzap.com")
	require.NoError(t, err)
	assert.Equal(t, "✅ Negociação transferida para Equipe de Vendas", resultado)

	atual, err := NewCardService(db).BuscarPorID(card.ID)
	require.NoError(t, err)
	require.NotNil(t, atual.ResponsavelID)
}

func TestExecutarInfo(t *testing.T) {
	s := &ComandoService{}
	funil := "Comercial"
	etapa := "Proposta"
	card := &models.CardConversa{
		Nome:       "Conversa #42",
		FunilNome:  &funil,
		FunilEtapa: &etapa,
		Status:     models.StatusCardAberto,
		Prioridade: "alta",
		Pausado:    true,
	}

	resultado := s.executar(card, "info", nil)

	assert.Contains(t, resultado, "Conversa #42")
	assert.Contains(t, resultado, "Comercial / Proposta")
	assert.Contains(t, resultado, "pausada")
	assert.Contains(t, resultado, "alta")
	assert.Contains(t, resultado, "retorno: não definido")
}
