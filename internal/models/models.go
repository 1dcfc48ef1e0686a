// Package models defines the request and result types of the enrichment
// pipeline. The wire format (JSON field names) matches the public API.
package models

import (
	"strings"
	"time"

	"product-enricher/internal/common/validation"
)

// ProductInput is the product to be enriched. The caller provides only a name
// and an optional free-form description taken from a price list or procurement
// document; structured attributes are extracted by the LLM.
type ProductInput struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	CountryOrigin string `json:"country_origin,omitempty"`
}

// Validate checks the field constraints on the input
func (p *ProductInput) Validate() error {
	v := validation.NewValidatorWithPrefix("product")
	v.RequireString(p.Name, "name")
	v.LenBetween(p.Name, 1, 1000, "name")
	v.MaxLen(p.Description, 10000, "description")
	if p.CountryOrigin != "" {
		v.LenBetween(p.CountryOrigin, 2, 3, "country_origin")
	}
	return v.Err()
}

// PromptContext renders the product as context lines for an LLM prompt
func (p *ProductInput) PromptContext() string {
	var b strings.Builder
	b.WriteString("Product Name (from price list): ")
	b.WriteString(p.Name)
	if p.Description != "" {
		b.WriteString("\nAdditional Description: ")
		b.WriteString(p.Description)
	}
	return b.String()
}

// Search recency windows accepted by the web search tool
const (
	RecencyDay   = "day"
	RecencyWeek  = "week"
	RecencyMonth = "month"
	RecencyYear  = "year"
)

// EnrichmentOptions controls which fields are generated and how. Together with
// the product name it fully determines the cache key.
type EnrichmentOptions struct {
	IncludeWebSearch bool     `json:"include_web_search"`
	Language         string   `json:"language"`
	Fields           []string `json:"fields"`
	SearchRecency    string   `json:"search_recency"`
	MaxFeatures      int      `json:"max_features"`
	MaxKeywords      int      `json:"max_keywords"`
}

// DefaultFields is the field set used when the caller does not select one
func DefaultFields() []string {
	return []string{
		"manufacturer",
		"trademark",
		"category",
		"model_name",
		"description",
		"features",
		"specifications",
		"seo_keywords",
	}
}

// DefaultEnrichmentOptions returns options with documented defaults applied
func DefaultEnrichmentOptions() EnrichmentOptions {
	return EnrichmentOptions{
		IncludeWebSearch: true,
		Language:         "ru",
		Fields:           DefaultFields(),
		SearchRecency:    RecencyMonth,
		MaxFeatures:      10,
		MaxKeywords:      15,
	}
}

// Normalize fills zero values with defaults so partially specified options
// behave predictably.
func (o *EnrichmentOptions) Normalize() {
	if o.Language == "" {
		o.Language = "ru"
	}
	if len(o.Fields) == 0 {
		o.Fields = DefaultFields()
	}
	if o.SearchRecency == "" {
		o.SearchRecency = RecencyMonth
	}
	if o.MaxFeatures == 0 {
		o.MaxFeatures = 10
	}
	if o.MaxKeywords == 0 {
		o.MaxKeywords = 15
	}
}

// Validate checks the option constraints
func (o *EnrichmentOptions) Validate() error {
	v := validation.NewValidatorWithPrefix("enrichment_options")
	v.LenBetween(o.Language, 2, 5, "language")
	v.RequireOneOf(o.SearchRecency, []string{RecencyDay, RecencyWeek, RecencyMonth, RecencyYear}, "search_recency")
	v.IntBetween(o.MaxFeatures, 1, 50, "max_features")
	v.IntBetween(o.MaxKeywords, 1, 50, "max_keywords")
	v.Check(len(o.Fields) > 0, "fields must not be empty")
	return v.Err()
}

// HasField reports whether the given field was requested
func (o *EnrichmentOptions) HasField(name string) bool {
	for _, f := range o.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// EnrichedProduct holds the structured data extracted and generated by the
// model. Only fields present in EnrichmentOptions.Fields are populated; the
// rest stay at their empty defaults.
type EnrichedProduct struct {
	Manufacturer string `json:"manufacturer,omitempty"`
	Trademark    string `json:"trademark,omitempty"`
	Category     string `json:"category,omitempty"`
	ModelName    string `json:"model_name,omitempty"`

	Description    string                 `json:"description,omitempty"`
	Features       []string               `json:"features"`
	Specifications map[string]interface{} `json:"specifications"`
	SEOKeywords    []string               `json:"seo_keywords"`
	MarketingCopy  string                 `json:"marketing_copy,omitempty"`
	Pros           []string               `json:"pros"`
	Cons           []string               `json:"cons"`
}

// NewEnrichedProduct returns an EnrichedProduct with empty (non-nil)
// collections so JSON output is stable.
func NewEnrichedProduct() EnrichedProduct {
	return EnrichedProduct{
		Features:       []string{},
		Specifications: map[string]interface{}{},
		SEOKeywords:    []string{},
		Pros:           []string{},
		Cons:           []string{},
	}
}

// Source is a web search source backing enriched facts. Empty for providers
// without web search support.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Date  string `json:"date,omitempty"`
}

// EnrichmentMetadata describes how a result was produced
type EnrichmentMetadata struct {
	ModelUsed        string    `json:"model_used"`
	LLMProvider      string    `json:"llm_provider"`
	TokensUsed       int       `json:"tokens_used"`
	ProcessingTimeMS int64     `json:"processing_time_ms"`
	WebSearchUsed    bool      `json:"web_search_used"`
	Cached           bool      `json:"cached"`
	Timestamp        time.Time `json:"timestamp"`
}

// EnrichmentResult is the aggregate outcome of a single enrichment
type EnrichmentResult struct {
	Product  ProductInput       `json:"product"`
	Enriched EnrichedProduct    `json:"enriched"`
	Sources  []Source           `json:"sources"`
	Metadata EnrichmentMetadata `json:"metadata"`
}

// EnrichmentOptionsPatch is the wire form of enrichment options. Omitted
// fields keep their defaults, which requires a pointer for the boolean since
// JSON cannot distinguish false from absent.
type EnrichmentOptionsPatch struct {
	IncludeWebSearch *bool    `json:"include_web_search,omitempty"`
	Language         string   `json:"language,omitempty"`
	Fields           []string `json:"fields,omitempty"`
	SearchRecency    string   `json:"search_recency,omitempty"`
	MaxFeatures      int      `json:"max_features,omitempty"`
	MaxKeywords      int      `json:"max_keywords,omitempty"`
}

// Apply overlays the patch onto base options
func (p *EnrichmentOptionsPatch) Apply(base EnrichmentOptions) EnrichmentOptions {
	if p == nil {
		return base
	}
	if p.IncludeWebSearch != nil {
		base.IncludeWebSearch = *p.IncludeWebSearch
	}
	if p.Language != "" {
		base.Language = p.Language
	}
	if len(p.Fields) > 0 {
		base.Fields = p.Fields
	}
	if p.SearchRecency != "" {
		base.SearchRecency = p.SearchRecency
	}
	if p.MaxFeatures > 0 {
		base.MaxFeatures = p.MaxFeatures
	}
	if p.MaxKeywords > 0 {
		base.MaxKeywords = p.MaxKeywords
	}
	return base
}

// EnrichmentRequest is the API request body for single product enrichment.
// Profile optionally names a configured field profile; explicit
// enrichment_options fields take precedence over profile values.
type EnrichmentRequest struct {
	Product           ProductInput            `json:"product"`
	EnrichmentOptions *EnrichmentOptionsPatch `json:"enrichment_options,omitempty"`
	Profile           string                  `json:"profile,omitempty"`
}

// Batch fail strategies
const (
	FailStrategyContinue = "continue"
	FailStrategyStop     = "stop"
)

// BatchOptions controls batch processing behavior
type BatchOptions struct {
	MaxConcurrent     int    `json:"max_concurrent"`
	FailStrategy      string `json:"fail_strategy"`
	TimeoutPerProduct int    `json:"timeout_per_product"`
}

// DefaultBatchOptions returns batch options with documented defaults
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		MaxConcurrent:     5,
		FailStrategy:      FailStrategyContinue,
		TimeoutPerProduct: 60,
	}
}

// Normalize fills zero values with defaults
func (b *BatchOptions) Normalize() {
	if b.MaxConcurrent == 0 {
		b.MaxConcurrent = 5
	}
	if b.FailStrategy == "" {
		b.FailStrategy = FailStrategyContinue
	}
	if b.TimeoutPerProduct == 0 {
		b.TimeoutPerProduct = 60
	}
}

// BatchOptionsPatch is the wire form of batch options. Pointer fields keep
// omitted values distinguishable from explicit zeros, so `"max_concurrent": 0`
// fails validation instead of silently becoming the default.
type BatchOptionsPatch struct {
	MaxConcurrent     *int   `json:"max_concurrent,omitempty"`
	FailStrategy      string `json:"fail_strategy,omitempty"`
	TimeoutPerProduct *int   `json:"timeout_per_product,omitempty"`
}

// Apply overlays the patch onto base options
func (p *BatchOptionsPatch) Apply(base BatchOptions) BatchOptions {
	if p == nil {
		return base
	}
	if p.MaxConcurrent != nil {
		base.MaxConcurrent = *p.MaxConcurrent
	}
	if p.FailStrategy != "" {
		base.FailStrategy = p.FailStrategy
	}
	if p.TimeoutPerProduct != nil {
		base.TimeoutPerProduct = *p.TimeoutPerProduct
	}
	return base
}

// Validate checks the batch option constraints
func (b *BatchOptions) Validate() error {
	v := validation.NewValidatorWithPrefix("batch_options")
	v.IntBetween(b.MaxConcurrent, 1, 20, "max_concurrent")
	v.RequireOneOf(b.FailStrategy, []string{FailStrategyContinue, FailStrategyStop}, "fail_strategy")
	v.IntBetween(b.TimeoutPerProduct, 10, 300, "timeout_per_product")
	return v.Err()
}

// BatchEnrichmentRequest is the API request body for batch enrichment
type BatchEnrichmentRequest struct {
	Products          []ProductInput          `json:"products"`
	EnrichmentOptions *EnrichmentOptionsPatch `json:"enrichment_options,omitempty"`
	BatchOptions      *BatchOptionsPatch      `json:"batch_options,omitempty"`
	Profile           string                  `json:"profile,omitempty"`
}

// Validate checks batch size limits and every product in the batch
func (r *BatchEnrichmentRequest) Validate(maxProducts int) error {
	v := validation.NewValidatorWithPrefix("batch")
	v.Check(len(r.Products) >= 1, "products must contain at least 1 item")
	v.Check(len(r.Products) <= maxProducts, "products must contain at most %d items", maxProducts)
	if err := v.Err(); err != nil {
		return err
	}
	for i := range r.Products {
		if err := r.Products[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// BatchResultItem is the outcome of one product in a batch, tagged with its
// position in the original request.
type BatchResultItem struct {
	Index   int               `json:"index"`
	Success bool              `json:"success"`
	Result  *EnrichmentResult `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// BatchSummary aggregates a completed batch run
type BatchSummary struct {
	Total       int   `json:"total"`
	Succeeded   int   `json:"succeeded"`
	Failed      int   `json:"failed"`
	TotalTokens int   `json:"total_tokens"`
	TotalTimeMS int64 `json:"total_time_ms"`
}

// BatchEnrichmentResult bundles per-item results with the run summary
type BatchEnrichmentResult struct {
	Results []BatchResultItem `json:"results"`
	Summary BatchSummary      `json:"summary"`
}
