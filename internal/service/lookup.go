package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/IgorSimim/zoopia-go/internal/domain"
	"github.com/IgorSimim/zoopia-go/internal/infra/observability"
	"github.com/IgorSimim/zoopia-go/internal/port"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const invoiceCacheKey = "boletos"

// InvoiceData agrupa empresas e boletos carregados do store.
type InvoiceData struct {
	Companies []domain.Company
	Invoices  []domain.Invoice
}

// LookupService consulta boletos por CPF ou nome do cliente e lista as
// empresas emissoras. Os dados são carregados concorrentemente do store e
// mantidos em cache com TTL; a consulta nunca escreve.
type LookupService struct {
	store   port.InvoiceStore
	cache   port.Cache[InvoiceData]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewLookupService cria o serviço de consulta de boletos.
func NewLookupService(
	store port.InvoiceStore,
	cache port.Cache[InvoiceData],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *LookupService {
	return &LookupService{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

func (l *LookupService) loadData(ctx context.Context) (InvoiceData, error) {
	if data, ok := l.cache.Get(invoiceCacheKey); ok {
		l.metrics.IncrCacheHit("boletos")
		return data, nil
	}
	l.metrics.IncrCacheMiss("boletos")

	var data InvoiceData
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		companies, err := l.store.LoadCompanies(gCtx)
		if err != nil {
			return fmt.Errorf("load companies: %w", err)
		}
		data.Companies = companies
		return nil
	})
	g.Go(func() error {
		invoices, err := l.store.LoadInvoices(gCtx)
		if err != nil {
			return fmt.Errorf("load invoices: %w", err)
		}
		data.Invoices = invoices
		return nil
	})
	if err := g.Wait(); err != nil {
		return InvoiceData{}, err
	}

	l.cache.Set(invoiceCacheKey, data)
	return data, nil
}

// SearchByCPF busca boletos cujo documento pagável bate com o CPF
// (comparação somente por dígitos).
func (l *LookupService) SearchByCPF(ctx context.Context, cpf string) (string, error) {
	ctx, span := tracer.Start(ctx, "LookupService.SearchByCPF")
	defer span.End()

	data, err := l.loadData(ctx)
	if err != nil {
		return "", err
	}

	wanted := onlyDigits(cpf)
	var matches []domain.Invoice
	for _, b := range data.Invoices {
		if onlyDigits(b.PayableDoc) == wanted {
			matches = append(matches, b)
		}
	}

	if len(matches) == 0 {
		return "❌ Nenhum boleto encontrado para o CPF informado.", nil
	}
	return formatInvoices(data.Companies, matches, "CPF informado"), nil
}

// SearchByName busca boletos por nome do cliente: primeiro exige todas as
// partes do nome, depois relaxa para pelo menos duas partes coincidentes.
// A comparação ignora acentos e caixa.
func (l *LookupService) SearchByName(ctx context.Context, name string) (string, error) {
	ctx, span := tracer.Start(ctx, "LookupService.SearchByName")
	defer span.End()

	data, err := l.loadData(ctx)
	if err != nil {
		return "", err
	}

	var matches []domain.Invoice
	for _, b := range data.Invoices {
		if containsName(b.PayableTo, name) {
			matches = append(matches, b)
		}
	}
	if len(matches) == 0 {
		for _, b := range data.Invoices {
			if containsFlexibleName(b.PayableTo, name) {
				matches = append(matches, b)
			}
		}
	}

	if len(matches) == 0 {
		return fmt.Sprintf("❌ Nenhum boleto encontrado para '%s'.", name), nil
	}
	return formatInvoices(data.Companies, matches, name), nil
}

// ListCompanies lista as empresas emissoras cadastradas.
func (l *LookupService) ListCompanies(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "LookupService.ListCompanies")
	defer span.End()

	data, err := l.loadData(ctx)
	if err != nil {
		return "", err
	}
	if len(data.Companies) == 0 {
		return "❌ Nenhuma empresa cadastrada", nil
	}

	entries := make([]string, 0, len(data.Companies))
	for i, e := range data.Companies {
		entries = append(entries, fmt.Sprintf("%d. %s (%s)\n   📧 %s | 📞 %s",
			i+1, e.TradeName, e.LegalName, e.ContactEmail, e.Phone))
	}
	return "🏢 Empresas cadastradas:\n\n" + strings.Join(entries, "\n\n"), nil
}

func formatInvoices(companies []domain.Company, matches []domain.Invoice, who string) string {
	byID := make(map[string]domain.Company, len(companies))
	for _, c := range companies {
		byID[c.ID] = c
	}

	results := make([]string, 0, len(matches))
	for _, b := range matches {
		companyName := "Empresa não encontrada"
		contact := "Contato não disponível"
		if c, ok := byID[b.IssuerID]; ok {
			companyName = c.TradeName
			contact = c.ContactEmail
		}

		description := ""
		if b.Description != "" {
			description = fmt.Sprintf("\n   📝 Descrição: %s", b.Description)
		}

		// A Zoop é plataforma de pagamentos: quando ela aparece como
		// emissora, o estabelecimento real está na descrição.
		hint := ""
		if strings.Contains(companyName, "Zoop") && len(b.Description) > 10 {
			hint = "\n   💡 A Zoop é a plataforma de pagamentos. O estabelecimento real é mencionado na descrição acima."
		}

		results = append(results, fmt.Sprintf(
			"📄 Boleto %s - R$ %.2f (vencimento %s)\n   Emitido por: %s\n   Contato: %s\n   Status: %s%s%s",
			b.InvoiceID, b.Amount, b.DueDate, companyName, contact, b.Status, description, hint))
	}

	return fmt.Sprintf("✅ Encontramos %d boleto(s) para '%s':\n\n%s",
		len(matches), who, strings.Join(results, "\n\n"))
}

// ============================================================
// Comparação de nomes
// ============================================================

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func removeAccents(text string) string {
	out, _, err := transform.String(accentStripper, text)
	if err != nil {
		return text
	}
	return out
}

func nameParts(text string) []string {
	return strings.Fields(strings.ToLower(removeAccents(text)))
}

// containsName exige que todas as partes do nome buscado apareçam no alvo.
func containsName(target, search string) bool {
	targetParts := nameParts(target)
	searchParts := nameParts(search)
	if len(targetParts) == 0 || len(searchParts) == 0 {
		return false
	}
	return countNameMatches(targetParts, searchParts) == len(searchParts)
}

// containsFlexibleName relaxa a busca: com três ou mais partes, duas
// coincidências bastam.
func containsFlexibleName(target, search string) bool {
	targetParts := nameParts(target)
	searchParts := nameParts(search)
	if len(targetParts) == 0 || len(searchParts) == 0 {
		return false
	}
	minMatches := len(searchParts)
	if len(searchParts) >= 3 {
		minMatches = 2
	}
	return countNameMatches(targetParts, searchParts) >= minMatches
}

func countNameMatches(targetParts, searchParts []string) int {
	matches := 0
	for _, sp := range searchParts {
		for _, tp := range targetParts {
			if strings.Contains(tp, sp) {
				matches++
				break
			}
		}
	}
	return matches
}

func onlyDigits(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
