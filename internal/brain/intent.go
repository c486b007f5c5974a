package brain

import (
	"context"
	"fmt"
	"strings"
)

// Intent is the classified purpose of an inbound free-text message.
type Intent string

const (
	IntentTasks    Intent = "tasks"
	IntentBills    Intent = "bills"
	IntentGreeting Intent = "greeting"
	IntentHelp     Intent = "help"
	IntentUnknown  Intent = "unknown"
)

// Keyword tables for intent classification. Matching is substring-based on
// the lowercased message, tuned for precision over recall: a miss falls
// through to the help fallback rather than guessing.
var (
	taskKeywords = []string{
		"tarefa", "tarefas", "task", "pendente", "pendencia", "pendência", "afazeres",
	}
	billKeywords = []string{
		"conta", "contas", "boleto", "pagar", "pagamento", "fatura",
		"vencimento", "vencer", "devo", "dívida", "divida",
	}
	helpKeywords = []string{
		"ajuda", "help", "comando", "comandos", "o que você faz", "o que voce faz",
	}
	// Greetings match the whole message only, so "oi" inside another word
	// never triggers them.
	greetings = []string{
		"oi", "olá", "ola", "hey", "hello", "hi",
		"bom dia", "boa tarde", "boa noite", "e aí", "e ai",
	}
)

// Classify maps a free-text message to an intent.
func Classify(text string) Intent {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.Trim(normalized, "!?.,;: ")
	if normalized == "" {
		return IntentUnknown
	}

	for _, g := range greetings {
		if normalized == g {
			return IntentGreeting
		}
	}
	for _, kw := range taskKeywords {
		if strings.Contains(normalized, kw) {
			return IntentTasks
		}
	}
	for _, kw := range billKeywords {
		if strings.Contains(normalized, kw) {
			return IntentBills
		}
	}
	for _, kw := range helpKeywords {
		if strings.Contains(normalized, kw) {
			return IntentHelp
		}
	}

	return IntentUnknown
}

// ProcessMessage is the free-text entry point used by the webhook path. It
// classifies the message and dispatches to the matching check. Unmatched
// input always yields a reply; silence is never an outcome.
func (b *Brain) ProcessMessage(ctx context.Context, text string) (CheckResult, error) {
	switch Classify(text) {
	case IntentTasks:
		return b.CheckPendingTasks(ctx)
	case IntentBills:
		return b.NotifyUpcomingBills(ctx)
	case IntentGreeting:
		return CheckResult{Text: b.greetingText(), Actionable: false}, nil
	case IntentHelp:
		return CheckResult{Text: helpText, Actionable: false}, nil
	default:
		return CheckResult{Text: fallbackText, Actionable: false}, nil
	}
}

const helpText = "Eu sou o Falcon, seu assistente! 🦅 Você pode me perguntar:\n" +
	"• \"quais minhas tarefas?\" — tarefas de hoje e atrasadas\n" +
	"• \"quanto devo?\" — contas vencidas e a vencer\n" +
	"É só mandar uma mensagem."

const fallbackText = "Desculpe, não entendi. 🤔 Digite \"ajuda\" para ver o que eu sei fazer."

func (b *Brain) greetingText() string {
	if b.account.Name != "" {
		return fmt.Sprintf("Olá, %s! 🦅 Em que posso ajudar? Digite \"ajuda\" para ver os comandos.", b.account.Name)
	}
	return "Olá! 🦅 Em que posso ajudar? Digite \"ajuda\" para ver os comandos."
}
