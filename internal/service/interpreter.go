package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/neusearch/product-assistant/internal/domain"
	"github.com/neusearch/product-assistant/internal/port"
)

const (
	maxRecommended    = 4
	maxQuestions      = 2
	descriptionLimit  = 150
	defaultTopPicks   = 3
	defaultChatWindow = 30 * time.Second
)

const interpreterSystemPrompt = `You are a helpful furniture and home decor shopping assistant. Your job is to:
1. Understand abstract and nuanced user queries about furniture needs
2. Match products from the available inventory to user requirements
3. Provide thoughtful explanations for recommendations
4. Ask clarifying questions when needed

Guidelines:
- Be conversational and helpful
- Explain why you recommend specific products
- Consider user's lifestyle, space, and usage patterns
- If query is too vague, ask 1-2 specific questions to clarify
- Focus on matching functional needs over just keywords
- Suggest 2-4 relevant products maximum
- Include price information in recommendations`

// Interpreter turns a query plus a candidate set into a recommendation or a
// clarification. The primary path asks the chat model for a structured
// reply; any model failure switches that single call to a deterministic
// keyword fallback, so Interpret never fails.
type Interpreter struct {
	model   port.ChatModel // nil when no chat backend is configured
	timeout time.Duration
}

// NewInterpreter creates an interpreter. A nil model pins it to the
// deterministic fallback path.
func NewInterpreter(model port.ChatModel, timeout time.Duration) *Interpreter {
	if timeout <= 0 {
		timeout = defaultChatWindow
	}
	return &Interpreter{model: model, timeout: timeout}
}

// Interpret decides whether to recommend or ask for clarification.
// Candidates must be non-empty; the orchestrator handles the empty case.
func (it *Interpreter) Interpret(ctx context.Context, query string, candidates []domain.Product) domain.Response {
	if it.model == nil {
		return it.keywordRecommendation(query, candidates)
	}

	chatCtx, cancel := context.WithTimeout(ctx, it.timeout)
	defer cancel()

	reply, err := it.model.Chat(chatCtx, interpreterSystemPrompt, buildUserPrompt(query, candidates))
	if err != nil {
		slog.Warn("chat model failed, using keyword fallback", "error", err)
		return it.keywordRecommendation(query, candidates)
	}

	return it.processReply(reply, candidates)
}

// buildUserPrompt formats the query and candidates into a bounded context
// block plus the structured-output instruction.
func buildUserPrompt(query string, candidates []domain.Product) string {
	var b strings.Builder

	fmt.Fprintf(&b, "User Query: %q\n\nAvailable Products:\n", query)
	for i, p := range candidates {
		features := "No features listed"
		if len(p.Features) > 0 {
			features = strings.Join(p.Features, ", ")
		}
		fmt.Fprintf(&b, "\n%d. %s\n   Price: ₹%.0f\n   Category: %s\n   Description: %s\n   Features: %s\n",
			i+1, p.Title, p.Price, p.Category, truncate(p.Description, descriptionLimit), features)
	}

	b.WriteString(`
Please provide a helpful response that either:
1. Recommends specific products with explanations, OR
2. Asks clarifying questions if the query is too vague

Format your response as JSON with this structure:
{
    "response_type": "recommendation" or "clarification",
    "message": "Your conversational response to the user",
    "recommended_products": [list of product titles if recommending],
    "clarifying_questions": [list of questions if seeking clarification]
}`)

	return b.String()
}

// modelReply is the structured payload expected from the chat model.
type modelReply struct {
	ResponseType        string   `json:"response_type"`
	Message             string   `json:"message"`
	RecommendedProducts []string `json:"recommended_products"`
	ClarifyingQuestions []string `json:"clarifying_questions"`
}

// processReply validates the model output. Unparseable or invalid replies
// degrade within the primary path: the raw message plus the top candidates,
// never an error.
func (it *Interpreter) processReply(reply string, candidates []domain.Product) domain.Response {
	var parsed modelReply
	if err := json.Unmarshal([]byte(extractJSON(reply)), &parsed); err != nil {
		slog.Warn("malformed model output, recommending top candidates", "error", err)
		return domain.Recommendation(strings.TrimSpace(reply), topCandidates(candidates, defaultTopPicks))
	}

	if parsed.ResponseType == string(domain.ResponseClarification) {
		questions := dedupeQuestions(parsed.ClarifyingQuestions)
		if len(questions) == 0 {
			// The model claimed clarification without asking anything;
			// treat it like malformed output.
			return domain.Recommendation(parsed.Message, topCandidates(candidates, defaultTopPicks))
		}
		if len(questions) > maxQuestions {
			questions = questions[:maxQuestions]
		}
		return domain.Clarification(parsed.Message, questions)
	}

	return domain.Recommendation(parsed.Message, matchByTitle(parsed.RecommendedProducts, candidates))
}

// matchByTitle resolves model-selected titles against the candidate set:
// case-insensitive substring containment, first match wins per title,
// duplicates suppressed. Zero matches substitutes the top candidates.
func matchByTitle(titles []string, candidates []domain.Product) []domain.Product {
	var matched []domain.Product
	seen := make(map[int]bool)

	for _, title := range titles {
		needle := strings.ToLower(strings.TrimSpace(title))
		if needle == "" {
			continue
		}
		for i, p := range candidates {
			if strings.Contains(strings.ToLower(p.Title), needle) {
				if !seen[i] {
					seen[i] = true
					matched = append(matched, p)
				}
				break
			}
		}
	}

	if len(matched) == 0 {
		matched = topCandidates(candidates, defaultTopPicks)
	}
	if len(matched) > maxRecommended {
		matched = matched[:maxRecommended]
	}
	return matched
}

// keywordRule maps query keywords to a candidate filter and message.
type keywordRule struct {
	keywords []string
	message  string
	match    func(p domain.Product) bool
}

// keywordRules is the fixed, ordered fallback rule set; the first rule
// whose keyword appears in the query wins.
var keywordRules = []keywordRule{
	{
		keywords: []string{"bedroom", "bed", "sleep"},
		message:  "I found some bedroom furniture that might work for you. These pieces are popular for creating comfortable sleeping spaces.",
		match: func(p domain.Product) bool {
			return containsFold(p.Category, "bedroom") || containsFold(p.Title, "bed")
		},
	},
	{
		keywords: []string{"living", "sofa", "couch", "seating"},
		message:  "Here are some living room options that would be great for relaxation and entertaining guests.",
		match: func(p domain.Product) bool {
			return containsFold(p.Category, "living") || containsFold(p.Title, "sofa")
		},
	},
	{
		keywords: []string{"dining", "eat", "table", "chair"},
		message:  "I found some dining furniture perfect for meals and family time.",
		match: func(p domain.Product) bool {
			return containsFold(p.Category, "dining") || containsFold(p.Title, "table")
		},
	},
	{
		keywords: []string{"study", "work", "office", "desk"},
		message:  "Here are some study/work furniture options to help you be productive.",
		match: func(p domain.Product) bool {
			return containsFold(p.Category, "study") ||
				containsFold(p.Title, "study") || containsFold(p.Title, "desk") || containsFold(p.Title, "table")
		},
	},
	{
		keywords: []string{"storage", "organize", "wardrobe"},
		message:  "These storage solutions can help you organize your space efficiently.",
		match: func(p domain.Product) bool {
			return containsFold(p.Title, "storage") || containsFold(p.Title, "wardrobe") || containsFold(p.Title, "cabinet")
		},
	},
}

// keywordRecommendation is the deterministic fallback. It always returns a
// recommendation: asking a useful clarifying question needs language
// understanding this path does not have.
func (it *Interpreter) keywordRecommendation(query string, candidates []domain.Product) domain.Response {
	queryLower := strings.ToLower(query)

	for _, rule := range keywordRules {
		if !containsAny(queryLower, rule.keywords) {
			continue
		}
		var filtered []domain.Product
		for _, p := range candidates {
			if rule.match(p) {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) > maxRecommended {
			filtered = filtered[:maxRecommended]
		}
		return domain.Recommendation(rule.message, filtered)
	}

	message := fmt.Sprintf("Based on your query '%s', here are some furniture options that might interest you.", query)
	return domain.Recommendation(message, topCandidates(candidates, defaultTopPicks))
}

// extractJSON strips a fenced code block wrapper if the model added one.
func extractJSON(reply string) string {
	s := strings.TrimSpace(reply)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	return s
}

func dedupeQuestions(questions []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, q := range questions {
		q = strings.TrimSpace(q)
		key := strings.ToLower(q)
		if q == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}

func topCandidates(candidates []domain.Product, n int) []domain.Product {
	if n > len(candidates) {
		n = len(candidates)
	}
	out := make([]domain.Product, n)
	copy(out, candidates[:n])
	return out
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
