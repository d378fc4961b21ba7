package service

import (
	"regexp"
	"strconv"
	"strings"
)

// Extractors reúne as heurísticas puras de extração de campos usadas como
// primeiro passe (antes do classificador) e como fallback quando ele está
// indisponível. Os registros de estabelecimentos conhecidos e palavras
// bloqueadas são injetados via configuração, nunca constantes compiladas.
type Extractors struct {
	KnownMerchants []string
	BlockedWords   []string
}

// Padrões de valor monetário, aplicados em ordem sobre o texto minúsculo.
// O primeiro que casar vence; ausência de match significa "sem valor",
// nunca zero.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`r\$\s*(\d+)(?:[.,](\d{1,2}))?`),
	regexp.MustCompile(`(\d+)(?:[.,](\d{1,2}))?\s*reais`),
	regexp.MustCompile(`valor\s+de\s+(\d+)(?:[.,](\d{1,2}))?`),
	regexp.MustCompile(`cobran[çc]a\s+de\s+(\d+)(?:[.,](\d{1,2}))?`),
}

// hasAmountPattern detecta presença de valor sem extraí-lo.
var hasAmountPattern = regexp.MustCompile(`r\$\s*\d+[,.]?\d*|\d+\s*(reais|r\$|pila)`)

// monetaryHint é o padrão usado pela heurística de reclamação: um valor em
// reais no meio da frase é um forte indício de reclamação de cobrança.
var monetaryHint = regexp.MustCompile(`r\$\s*\d+|\d+\s*reais|\d+,\d{2}\s*reais|rs\s*\d+`)

// ExtractMerchant resolve o estabelecimento por substring case-insensitive
// contra o registro de conhecidos. Devolve "" quando nenhum casa.
func (e Extractors) ExtractMerchant(text string) string {
	lowered := strings.ToLower(text)
	for _, m := range e.KnownMerchants {
		if strings.Contains(lowered, strings.ToLower(m)) {
			return m
		}
	}
	return ""
}

// ExtractAmountCents extrai o valor em centavos do texto, ou nil quando
// nenhum padrão casa. Parte inteira e fracionária combinam em centavos
// ("150,00" → 15000, "39.9" → 3990).
func (e Extractors) ExtractAmountCents(text string) *int {
	lowered := strings.ToLower(text)
	for _, p := range amountPatterns {
		m := p.FindStringSubmatch(lowered)
		if m == nil {
			continue
		}
		whole, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		cents := whole * 100
		if m[2] != "" {
			frac, err := strconv.Atoi(m[2])
			if err != nil {
				continue
			}
			if len(m[2]) == 1 {
				frac *= 10
			}
			cents += frac
		}
		return &cents
	}
	return nil
}

// HasAmount verifica se o texto menciona algum valor monetário.
func (e Extractors) HasAmount(text string) bool {
	return hasAmountPattern.MatchString(strings.ToLower(text))
}

// ContainsBlocked aplica o filtro de conteúdo sobre texto livre fornecido
// pelo usuário (ex.: nome de estabelecimento).
func (e Extractors) ContainsBlocked(text string) bool {
	lowered := strings.ToLower(text)
	for _, w := range e.BlockedWords {
		if w == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

// complaintKeywords são os indícios de reclamação/fraude/cobrança.
var complaintKeywords = []string{
	"reclam", "cobran", "fraud", "fraude", "não reconhec", "nao reconhec",
	"estorno", "charg", "cobrado", "cobrança", "cobranca",
	"não paguei", "nao paguei", "cobrança indevida", "cobranca indevida",
	"erro na cobrança", "contest",
	"não reconheço", "nao reconheco", "cobrança não", "cobranca nao",
}

// shortResponses são respostas curtas de cortesia que nunca são reclamação.
var shortResponses = []string{
	"ok", "obrigado", "brigado", "valeu", "thanks", "thanks!", "ok!", "entendi",
}

// IsLikelyComplaint decide, por heurística, se a entrada provavelmente é
// uma reclamação de cobrança. Conservadora: na dúvida, responde false e o
// fluxo pede mais detalhes em vez de criar disputa automaticamente.
func (e Extractors) IsLikelyComplaint(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	lowered := strings.ToLower(text)

	for _, s := range shortResponses {
		if lowered == s {
			return false
		}
	}
	for _, kw := range complaintKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return monetaryHint.MatchString(lowered)
}

// invoiceKeywords sinalizam consulta de boleto (verificação direta, antes
// de qualquer chamada ao classificador).
var invoiceKeywords = []string{
	"boleto", "boletos", "cobrança", "cobrancas", "compra no", "pagamento",
	"fatura", "verifiquei", "encontrei", "vi uma", "identifiquei",
	"qual empresa", "quem emitiu", "origem da", "desse valor", "desta cobrança",
}

// ContainsInvoiceKeywords detecta consultas de boleto por palavra-chave.
func (e Extractors) ContainsInvoiceKeywords(text string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range invoiceKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// ============================================================
// Detecção de intenção na etapa de confirmação
// ============================================================

// ConfirmationDecision é o resultado da detecção consulta × reclamação.
type ConfirmationDecision int

const (
	DecisionUnknown ConfirmationDecision = iota
	DecisionConsult
	DecisionComplaint
)

var consultKeywords = []string{
	"consult", "consultar", "ver", "verificar", "saber", "boletos",
	"cobrancas", "detalhes", "ver boletos", "ver cobranças",
}

var confirmComplaintKeywords = []string{
	"reclam", "reclamar", "problema", "indevida", "indevido", "errada",
	"abrir", "reclamação", "reclamacao", "cobrança indevida", "cobranca indevida",
}

// DetectConfirmationIntent classifica a resposta em texto natural à
// pergunta de duas opções. Consulta tem precedência sobre reclamação
// quando as duas aparecem, espelhando a ordem de varredura das listas.
func (e Extractors) DetectConfirmationIntent(text string) ConfirmationDecision {
	if strings.TrimSpace(text) == "" {
		return DecisionUnknown
	}
	lowered := strings.ToLower(text)

	for _, kw := range consultKeywords {
		if strings.Contains(lowered, kw) {
			return DecisionConsult
		}
	}
	for _, kw := range confirmComplaintKeywords {
		if strings.Contains(lowered, kw) {
			return DecisionComplaint
		}
	}
	return DecisionUnknown
}
