package domain

// ResponseType discriminates the discovery response variants.
type ResponseType string

const (
	ResponseRecommendation ResponseType = "recommendation"
	ResponseClarification  ResponseType = "clarification"
	ResponseNoResults      ResponseType = "no_results"
)

// Response is the contract returned to the discovery caller. Exactly one
// variant is populated; use the constructors below instead of building it
// by hand so the invariant holds at every call site.
type Response struct {
	Type                ResponseType `json:"response_type"`
	Message             string       `json:"message"`
	Products            []Product    `json:"products"`
	ClarifyingQuestions []string     `json:"clarifying_questions"`
}

// Recommendation builds a recommendation response with a ranked product list.
func Recommendation(message string, products []Product) Response {
	if products == nil {
		products = []Product{}
	}
	return Response{
		Type:                ResponseRecommendation,
		Message:             message,
		Products:            products,
		ClarifyingQuestions: []string{},
	}
}

// Clarification builds a clarification response carrying 1-2 questions.
func Clarification(message string, questions []string) Response {
	return Response{
		Type:                ResponseClarification,
		Message:             message,
		Products:            []Product{},
		ClarifyingQuestions: questions,
	}
}

// NoResults builds the empty-candidates response with generic questions.
func NoResults(message string, questions []string) Response {
	return Response{
		Type:                ResponseNoResults,
		Message:             message,
		Products:            []Product{},
		ClarifyingQuestions: questions,
	}
}
