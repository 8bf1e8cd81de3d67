package audit

import (
	"fmt"
	"strings"
)

// Procedure describes one report sheet. The full listing has Filtered
// false; every other procedure selects exactly one flag.
type Procedure struct {
	Key       string // stable identifier, used by profiles and APIs
	Sheet     string // worksheet name
	Display   string // statistics label
	Flag      Flag
	Filtered  bool
	Objective string
	Method    string
}

// Procedure keys.
const (
	KeyFull        = "full"
	KeyOutlier     = "outlier"
	KeyTolerance   = "tolerance"
	KeyRound       = "round"
	KeyDescription = "description"
	KeyWeekend     = "weekend"
	KeyKeyword     = "keyword"
)

// DefaultProcedures returns the standard catalogue. Method texts quote the
// thresholds in p so the report documents the run that produced it.
func DefaultProcedures(p Params) []Procedure {
	return []Procedure{
		{
			Key:       KeyFull,
			Sheet:     "Geral",
			Objective: "Apresenta a listagem completa de todos os lançamentos processados no período.",
			Method:    "Apenas listagem completa com todos procedimentos aplicados.",
		},
		{
			Key:       KeyOutlier,
			Sheet:     "10xMedia",
			Display:   "10x Média",
			Flag:      FlagOutlier,
			Filtered:  true,
			Objective: "Identificar outliers (valores muito acima do padrão da conta específica).",
			Method: fmt.Sprintf(
				"Verifica se o valor bruto de cada lançamento é maior que %s vezes a média dos lançamentos da mesma conta (%s).",
				p.OutlierMultiplier.String(), meanPolicyText(p.MeanPolicy)),
		},
		{
			Key:       KeyTolerance,
			Sheet:     "ExcedeET",
			Display:   "Excede ET",
			Flag:      FlagExceedsTolerance,
			Filtered:  true,
			Objective: "Filtrar lançamentos que possuem relevância financeira, acima da materialidade (Erro Tolerável) definida.",
			Method: fmt.Sprintf(
				"Compara o Valor_Bruto com o Erro Tolerável informado (%s). Se Valor_Bruto > ET, o lançamento é marcado.",
				p.Tolerance.String()),
		},
		{
			Key:       KeyRound,
			Sheet:     "Redondo",
			Display:   "Vlr Redondo",
			Flag:      FlagRoundAmount,
			Filtered:  true,
			Objective: "Identificar lançamentos com valores redondos (possíveis estimativas).",
			Method: fmt.Sprintf(
				"Verifica se o valor é maior que zero e se o resto da divisão por %s é igual a zero.",
				p.RoundUnit.String()),
		},
		{
			Key:       KeyDescription,
			Sheet:     "Sem Historico",
			Display:   "Sem Histórico",
			Flag:      FlagMissingDescription,
			Filtered:  true,
			Objective: "Detectar lançamentos com descrições ausentes ou curtas.",
			Method: fmt.Sprintf(
				"Marca lançamentos em que o campo Histórico está ausente ou tem menos de %d caracteres.",
				p.MinDescriptionLength),
		},
		{
			Key:       KeyWeekend,
			Sheet:     "Final De Semana",
			Display:   "Fim de Semana",
			Flag:      FlagWeekend,
			Filtered:  true,
			Objective: "Filtrar lançamentos realizados em sábados ou domingos, o que pode sugerir lançamentos retroativos ou falta de controle de acesso ao sistema.",
			Method:    "Converte a coluna Data para data e verifica o dia da semana. Sábados e domingos são marcados; datas inválidas não são.",
		},
		{
			Key:       KeyKeyword,
			Sheet:     "Palavras Chave",
			Display:   "Palavras-Chave",
			Flag:      FlagKeyword,
			Filtered:  true,
			Objective: "Buscar termos sensíveis (ajuste, estorno, erro, etc) no histórico.",
			Method: fmt.Sprintf(
				"Varre a coluna Histórico, sem diferenciar maiúsculas de minúsculas, procurando por: %s.",
				quoteList(p.Keywords)),
		},
	}
}

// FindProcedure returns the procedure with the given key.
func FindProcedure(procs []Procedure, key string) (Procedure, bool) {
	for _, p := range procs {
		if p.Key == key {
			return p, true
		}
	}
	return Procedure{}, false
}

func meanPolicyText(p MeanPolicy) string {
	if p == ExcludeSelf {
		return "média calculada sem o próprio lançamento"
	}
	return "média calculada com todos os lançamentos da conta"
}

func quoteList(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, "'"+w+"'")
	}
	return strings.Join(quoted, ", ")
}
