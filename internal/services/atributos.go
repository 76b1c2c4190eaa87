package services

import "time"

// Chaves de atributo customizado usadas no Chatwoot
const (
	AtributoNomeFunil      = "nome_do_funil"
	AtributoFunilEtapa     = "funil_etapa"
	AtributoEtapaComercial = "etapa_comercial"
	AtributoDataRetorno    = "data_retorno"
)

// AtributoMapper traduz o vocabulário interno de funil/etapa para o
// vocabulário de atributos customizados do Chatwoot. Sem estado, sem I/O.
type AtributoMapper struct {
	FunilComercialNome string
}

func NewAtributoMapper(funilComercialNome string) *AtributoMapper {
	return &AtributoMapper{FunilComercialNome: funilComercialNome}
}

// ChaveEtapa escolhe a chave de etapa conforme a identidade do funil:
// o funil comercial usa etapa_comercial, todos os demais usam funil_etapa.
func (m *AtributoMapper) ChaveEtapa(funilNome string) string {
	if funilNome != "" && funilNome == m.FunilComercialNome {
		return AtributoEtapaComercial
	}
	return AtributoFunilEtapa
}

// MapearAtributosExternos monta o mapa de atributos a enviar ao Chatwoot.
// Entradas ausentes simplesmente omitem a chave correspondente.
func (m *AtributoMapper) MapearAtributosExternos(funilNome, etapaNome string, dataRetorno *time.Time) map[string]string {
	atributos := make(map[string]string)

	if funilNome != "" {
		atributos[AtributoNomeFunil] = funilNome
	}
	if etapaNome != "" {
		atributos[m.ChaveEtapa(funilNome)] = etapaNome
	}
	if dataRetorno != nil {
		atributos[AtributoDataRetorno] = dataRetorno.Format("2006-01-02")
	}

	return atributos
}
