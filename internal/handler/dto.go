package handler

type ArticleResponse struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	URL            string   `json:"url"`
	Source         string   `json:"source"`
	PublishedAt    string   `json:"published_at"`
	Category       string   `json:"category"`
	Brands         []string `json:"brands"`
	Regions        []string `json:"regions"`
	MentionCount   int      `json:"mention_count"`
	RelevanceScore float64  `json:"relevance_score"`
}

type ArticlesResponse struct {
	Articles   []ArticleResponse `json:"articles"`
	LastUpdate string            `json:"last_update,omitempty"`
	Total      int               `json:"total"`
}

type BrandsResponse struct {
	Brands map[string]int `json:"brands"`
}

type FetchResponse struct {
	OK    bool `json:"ok"`
	Count int  `json:"count"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}
