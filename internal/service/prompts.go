package service

import "fmt"

// Prompts em português enviados ao classificador. Cada prompt tem um
// contrato fixo de saída (rótulo de um enum ou JSON), e cada call site
// tem um fallback heurístico próprio para quando o modelo falha.

func extractionPrompt(customerText string) string {
	return fmt.Sprintf(`Você é um especialista em extrair informações de reclamações financeiras.

ANALISE esta reclamação e extraia:
- Nome do estabelecimento/comerciante
- Valor da transação (converta para centavos)
- Se é uma disputa legítima

RECLAMAÇÃO: %q

REGRAS:
1. Para merchant: extraia o nome do negócio, loja ou serviço
2. Para amount_cents: converta valores como "R$ 35,90" → 3590
3. Para isDispute: true para reclamações de cobrança indevida
4. Para confidence: estime a confiança da extração (0.0-1.0)

RESPOSTA EM JSON (use double quotes):
{
    "merchant": "string ou null",
    "amount_cents": "number ou null",
    "isDispute": "boolean",
    "confidence": "number"
}

Exemplos:
- "Não reconheço R$ 35,90 da Netflix" → {"merchant": "Netflix", "amount_cents": 3590, "isDispute": true, "confidence": 0.95}
- "Cobrança de 150 reais na loja" → {"merchant": "loja", "amount_cents": 15000, "isDispute": true, "confidence": 0.8}
- "Problema com assinatura" → {"merchant": null, "amount_cents": null, "isDispute": true, "confidence": 0.6}`, customerText)
}

func correctionIntentPrompt(original, correction string) string {
	return fmt.Sprintf(`ANALISE a intenção do usuário ao corrigir uma reclamação:

TEXTO ORIGINAL: %q
TEXTO DE CORREÇÃO: %q

OPÇÕES DE INTENÇÃO:
- ADD_VALUE: Usuário quer ADICIONAR informação de valor que faltava (quando o original não menciona valor)
- UPDATE_VALUE: Usuário quer ATUALIZAR/CORRIGIR valor mencionado (quando o original já tem valor)
- UPDATE_MERCHANT: Usuário quer corrigir o estabelecimento/merchant
- COMPLEMENT_INFO: Usuário quer COMPLEMENTAR com informações adicionais
- FULL_REPLACE: Usuário quer SUBSTITUIR completamente o texto

ANÁLISE CONTEXTUAL:
- Se a correção fala sobre valores mas o original não tem valor → ADD_VALUE
- Se a correção corrige um valor que já existe no original → UPDATE_VALUE
- Se a correção menciona novo estabelecimento → UPDATE_MERCHANT
- Se a correção adiciona informações sem alterar o contexto principal → COMPLEMENT_INFO
- Se a correção é completamente diferente do contexto original → FULL_REPLACE

RESPONDA APENAS COM UMA DESTAS PALAVRAS: ADD_VALUE, UPDATE_VALUE, UPDATE_MERCHANT, COMPLEMENT_INFO, FULL_REPLACE

Intenção:`, original, correction)
}

func contextualRewritePrompt(original, correction string) string {
	return fmt.Sprintf(`Dado o contexto original e a correção do usuário, gere um texto atualizado que preserve o contexto mas incorpore a correção:

TEXTO ORIGINAL: %q
CORREÇÃO DO USUÁRIO: %q

REGRAS:
- Preserve a intenção principal do texto original
- Incorpore as novas informações da correção
- Mantenha a clareza e contexto
- Se a correção for sobre valores, atualize ou acrescente
- Se for informação complementar, acrescente com "-"

TEXTO ATUALIZADO:`, original, correction)
}

func complementExtractionPrompt(correction string) string {
	return fmt.Sprintf(`Extraia apenas a informação COMPLEMENTAR deste texto, removendo referências a edição:

TEXTO: %q

Remova:
- Referências a IDs ou edições
- Palavras sobre o processo de correção
- Expressões como "esqueci de mencionar", "preciso acrescentar", "complementando"

Mantenha apenas a informação nova que deve ser adicionada ao contexto original.

INFORMAÇÃO COMPLEMENTAR:`, correction)
}

func intentRoutingPrompt(input string) string {
	return fmt.Sprintf(`Analise a entrada do usuário e determine qual operação deve ser chamada:

Entrada do usuário: %s

Opções disponíveis:
- 'Disputes':
  • AddDispute(complaint) - Para RECLAMAÇÕES sobre cobranças indevidas, fraudes, problemas com compras
  • ListDisputes() - Listar todas as disputas
  • DeleteDispute(id) - Excluir disputa (parâmetro: id)
  • ShowDispute(id) - Mostrar detalhes (parâmetro: id)

- 'BoletoLookup':
  • SearchByCustomerName(nomeCliente) - Para CONSULTAS de boletos, verificar origem de cobranças, identificar empresas

REGRAS DE DECISÃO:
- Use 'BoletoLookup' quando o usuário quer SABER a origem de uma cobrança, verificar um boleto, identificar qual empresa emitiu
- Use 'Disputes' quando o usuário quer RECLAMAR sobre uma cobrança indevida

Exemplos:
- 'verifiquei uma compra de 150 reais no boleto' → BoletoLookup
- 'não reconheço essa cobrança no meu extrato' → BoletoLookup
- 'quem emitiu esse boleto?' → BoletoLookup
- 'quero reclamar de uma cobrança indevida' → Disputes
- 'fraude na minha fatura' → Disputes

Responda SOMENTE com JSON:

{
  "plugin": "Disputes ou BoletoLookup",
  "function": "NomeDaOperacao",
  "parameters": { "id": "id da reclamação, quando a frase mencionar um" }
}

Omita "parameters" quando a operação não precisar de nenhum.`, input)
}
