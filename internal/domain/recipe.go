package domain

// Recipe is the structured result of the recipe extraction operations.
type Recipe struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Servings    string   `json:"servings,omitempty"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
}

// ArticleSection is one heading/body pair inside a structured article.
type ArticleSection struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Article is the structured result of the article generation operation.
type Article struct {
	Title    string           `json:"title"`
	Summary  string           `json:"summary,omitempty"`
	Sections []ArticleSection `json:"sections"`
	Tags     []string         `json:"tags,omitempty"`
}
