package provider

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"product-enricher/internal/common/logging"
	"product-enricher/internal/fields"
	"product-enricher/internal/models"
)

// jsonSpan greedily matches the outermost brace-delimited span, covering
// responses where the model wrapped the JSON in prose.
var jsonSpan = regexp.MustCompile(`\{[\s\S]*\}`)

// Parser turns raw model output into an EnrichedProduct. Models do not always
// return clean JSON (markdown fences, leading prose, truncated output), so
// parsing degrades through three stages: strict parse, brace-span parse, and
// per-field regex recovery. A parse failure never becomes an error; the
// caller gets whatever fields could be salvaged.
type Parser struct {
	registry *fields.Registry
	logger   logging.Logger
}

// NewParser creates a parser using the given field registry for projection
// and repair.
func NewParser(registry *fields.Registry, logger logging.Logger) *Parser {
	return &Parser{registry: registry, logger: logger}
}

// Parse extracts the requested fields from raw model output. Fields that were
// not requested are left at their zero values even if the model returned them.
func (p *Parser) Parse(content string, options models.EnrichmentOptions) models.EnrichedProduct {
	data := p.extract(content, options)
	return p.project(data, options)
}

func (p *Parser) extract(content string, options models.EnrichmentOptions) map[string]interface{} {
	cleaned := stripFences(content)

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &data); err == nil {
		return data
	}

	if span := jsonSpan.FindString(content); span != "" {
		if err := json.Unmarshal([]byte(span), &data); err == nil {
			return data
		}
	}

	// Truncated or malformed JSON. Recover requested fields one by one.
	p.logger.Warn("repairing malformed JSON response",
		logging.Field{Key: "content_length", Value: len(content)},
		logging.Field{Key: "content_preview", Value: preview(content)},
	)
	return p.recover(content, options)
}

// stripFences removes a surrounding markdown code block if present
func stripFences(content string) string {
	cleaned := strings.TrimSpace(content)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[7:]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[3:]
	}
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

// quotedString tolerates escaped quotes inside the value
const quotedString = `"([^"\\]*(?:\\.[^"\\]*)*)"`

var quotedStringRe = regexp.MustCompile(quotedString)

// recover pulls individual field values out of broken JSON using per-kind
// regular expressions keyed on the field name.
func (p *Parser) recover(content string, options models.EnrichmentOptions) map[string]interface{} {
	data := make(map[string]interface{})

	for _, name := range options.Fields {
		quoted := regexp.QuoteMeta(name)
		switch p.registry.KindOf(name) {
		case fields.KindString:
			re := regexp.MustCompile(fmt.Sprintf(`"%s"\s*:\s*%s`, quoted, quotedString))
			if m := re.FindStringSubmatch(content); m != nil {
				data[name] = unescape(m[1])
			}
		case fields.KindArray:
			// The closing bracket may be missing when the completion
			// was truncated at the token budget.
			re := regexp.MustCompile(fmt.Sprintf(`(?s)"%s"\s*:\s*\[(.*?)(?:\]|\z)`, quoted))
			if m := re.FindStringSubmatch(content); m != nil {
				var items []interface{}
				for _, sm := range quotedStringRe.FindAllStringSubmatch(m[1], -1) {
					items = append(items, unescape(sm[1]))
				}
				data[name] = items
			}
		case fields.KindObject:
			re := regexp.MustCompile(fmt.Sprintf(`(?s)"%s"\s*:\s*\{([^}]*)(?:\}|\z)`, quoted))
			if m := re.FindStringSubmatch(content); m != nil {
				pairRe := regexp.MustCompile(`"([^"]+)"\s*:\s*"([^"]*)"`)
				obj := make(map[string]interface{})
				for _, pm := range pairRe.FindAllStringSubmatch(m[1], -1) {
					obj[pm[1]] = pm[2]
				}
				data[name] = obj
			}
		}
	}

	if len(data) > 0 {
		recovered := make([]string, 0, len(data))
		for name := range data {
			recovered = append(recovered, name)
		}
		p.logger.Info("recovered fields from malformed response", logging.Strings("fields", recovered))
	}
	return data
}

// project builds an EnrichedProduct from parsed data, populating only the
// requested fields.
func (p *Parser) project(data map[string]interface{}, options models.EnrichmentOptions) models.EnrichedProduct {
	out := models.NewEnrichedProduct()
	for _, name := range options.Fields {
		v, ok := data[name]
		if !ok {
			continue
		}
		switch name {
		case "manufacturer":
			out.Manufacturer = asString(v)
		case "trademark":
			out.Trademark = asString(v)
		case "category":
			out.Category = asString(v)
		case "model_name":
			out.ModelName = asString(v)
		case "description":
			out.Description = asString(v)
		case "marketing_copy":
			out.MarketingCopy = asString(v)
		case "features":
			out.Features = asStringSlice(v)
		case "seo_keywords":
			out.SEOKeywords = asStringSlice(v)
		case "pros":
			out.Pros = asStringSlice(v)
		case "cons":
			out.Cons = asStringSlice(v)
		case "specifications":
			out.Specifications = asObject(v)
		}
	}
	return out
}

func unescape(s string) string {
	return strings.ReplaceAll(s, `\"`, `"`)
}

func preview(s string) string {
	if len(s) > 200 {
		return s[:200]
	}
	return s
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asStringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asObject(v interface{}) map[string]interface{} {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return obj
}
