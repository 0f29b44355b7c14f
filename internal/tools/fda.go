package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/vntrieu/moodscreen/internal/cache"
	"github.com/vntrieu/moodscreen/internal/llm"
)

// openFDA search types.
const (
	SearchGeneral       = "general"
	SearchLabel         = "label"
	SearchAdverseEvents = "adverse_events"
)

const (
	// DefaultFDABaseURL is the openFDA drug API root.
	DefaultFDABaseURL = "https://api.fda.gov/drug"
	// FDAToolName is the name the drug lookup is declared under.
	FDAToolName = "fda_drug_lookup"

	fdaCacheTTL     = 24 * time.Hour
	maxNames        = 3
	maxTextRunes    = 1000
	maxTableBytes   = 5000
	tableRemovedMsg = "[Table content removed due to size]"
)

// ErrDrugNameRequired is returned for a lookup without a drug name.
var ErrDrugNameRequired = errors.New("drug name is required")

// DrugLookup is the normalized answer of an openFDA query.
type DrugLookup struct {
	Status       string `json:"status"`
	DrugName     string `json:"drug_name"`
	SearchType   string `json:"search_type"`
	Results      any    `json:"results"`
	TotalResults int    `json:"total_results"`
}

// GeneralInfo is extracted from the NDC directory.
type GeneralInfo struct {
	GenericName     string   `json:"generic_name"`
	BrandName       string   `json:"brand_name"`
	Manufacturer    string   `json:"manufacturer"`
	ProductType     string   `json:"product_type"`
	Route           []string `json:"route"`
	MarketingStatus string   `json:"marketing_status"`
}

// LabelInfo is extracted from a drug label.
type LabelInfo struct {
	BrandNames        []string `json:"brand_names,omitempty"`
	GenericNames      []string `json:"generic_names,omitempty"`
	Manufacturer      []string `json:"manufacturer,omitempty"`
	Indications       []string `json:"indications"`
	Dosage            []string `json:"dosage"`
	Warnings          []string `json:"warnings"`
	Contraindications []string `json:"contraindications"`
	AdverseReactions  []string `json:"adverse_reactions"`
	DrugInteractions  []string `json:"drug_interactions"`
	Pregnancy         []string `json:"pregnancy"`
}

// AdverseEventInfo is the adverse-reaction view of a drug label.
type AdverseEventInfo struct {
	BrandNames       []string `json:"brand_names,omitempty"`
	GenericNames     []string `json:"generic_names,omitempty"`
	AdverseReactions []string `json:"adverse_reactions"`
	Warnings         []string `json:"warnings"`
	BoxedWarning     []string `json:"boxed_warning"`
}

type fdaMeta struct {
	Results struct {
		Total int `json:"total"`
	} `json:"results"`
}

type ndcResponse struct {
	Meta    fdaMeta `json:"meta"`
	Results []struct {
		GenericName     string   `json:"generic_name"`
		BrandName       string   `json:"brand_name"`
		LabelerName     string   `json:"labeler_name"`
		ProductType     string   `json:"product_type"`
		Route           []string `json:"route"`
		MarketingStatus string   `json:"marketing_status"`
	} `json:"results"`
}

type labelRecord struct {
	OpenFDA *struct {
		BrandName        []string `json:"brand_name"`
		GenericName      []string `json:"generic_name"`
		ManufacturerName []string `json:"manufacturer_name"`
	} `json:"openfda"`
	IndicationsAndUsage     []string `json:"indications_and_usage"`
	DosageAndAdministration []string `json:"dosage_and_administration"`
	WarningsAndCautions     []string `json:"warnings_and_cautions"`
	Contraindications       []string `json:"contraindications"`
	AdverseReactions        []string `json:"adverse_reactions"`
	DrugInteractions        []string `json:"drug_interactions"`
	Pregnancy               []string `json:"pregnancy"`
	BoxedWarning            []string `json:"boxed_warning"`
}

type labelResponse struct {
	Meta    fdaMeta       `json:"meta"`
	Results []labelRecord `json:"results"`
}

// FDAClient queries the openFDA drug endpoints and caches the answers.
type FDAClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cache   cache.Cache
	logger  *zap.Logger
}

// NewFDAClient creates a client. A nil cache disables caching.
func NewFDAClient(baseURL, apiKey string, client *http.Client, c cache.Cache, logger *zap.Logger) *FDAClient {
	if baseURL == "" {
		baseURL = DefaultFDABaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FDAClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		cache:   c,
		logger:  logger,
	}
}

// NormalizeSearchType lowercases t and falls back to SearchGeneral for
// anything unknown.
func NormalizeSearchType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	switch t {
	case SearchLabel, SearchAdverseEvents, SearchGeneral:
		return t
	default:
		return SearchGeneral
	}
}

// Lookup searches openFDA for drugName. A query without matches is a
// successful lookup with zero results.
func (c *FDAClient) Lookup(ctx context.Context, drugName, searchType string) (*DrugLookup, error) {
	drugName = strings.TrimSpace(drugName)
	if drugName == "" {
		return nil, ErrDrugNameRequired
	}
	searchType = NormalizeSearchType(searchType)
	key := cache.Key("fda_drug", searchType, strings.ToLower(drugName))

	if cached, ok := c.fromCache(ctx, key); ok {
		c.logger.Debug("fda cache hit", zap.String("drug", drugName), zap.String("search_type", searchType))
		return cached, nil
	}

	c.logger.Info("fetching fda drug information", zap.String("drug", drugName), zap.String("search_type", searchType))
	endpoint, query := c.baseURL+"/ndc.json", fmt.Sprintf("generic_name:%s OR brand_name:%s", drugName, drugName)
	if searchType != SearchGeneral {
		endpoint, query = c.baseURL+"/label.json", fmt.Sprintf("openfda.generic_name:%s OR openfda.brand_name:%s", drugName, drugName)
	}
	body, err := c.get(ctx, endpoint, query)
	if err != nil {
		return nil, fmt.Errorf("fetch drug information: %w", err)
	}

	out := &DrugLookup{Status: "success", DrugName: drugName, SearchType: searchType, Results: map[string]any{}}
	if body != nil {
		if err := extract(body, searchType, out); err != nil {
			return nil, fmt.Errorf("fetch drug information: %w", err)
		}
	}

	if c.cache != nil {
		if data, err := json.Marshal(out); err == nil {
			if err := c.cache.Set(ctx, key, data, fdaCacheTTL); err != nil {
				c.logger.Warn("fda cache set", zap.Error(err))
			}
		}
	}
	return out, nil
}

func (c *FDAClient) fromCache(ctx context.Context, key string) (*DrugLookup, bool) {
	if c.cache == nil {
		return nil, false
	}
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("fda cache get", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var out DrugLookup
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return &out, true
}

// get returns the response body, or nil when openFDA reports no matches.
func (c *FDAClient) get(ctx context.Context, endpoint, search string) ([]byte, error) {
	q := url.Values{}
	q.Set("search", search)
	q.Set("limit", "1")
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openFDA returned %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}

func extract(body []byte, searchType string, out *DrugLookup) error {
	if searchType == SearchGeneral {
		var resp ndcResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("decode ndc response: %w", err)
		}
		out.TotalResults = resp.Meta.Results.Total
		if len(resp.Results) > 0 {
			r := resp.Results[0]
			route := r.Route
			if route == nil {
				route = []string{}
			}
			out.Results = GeneralInfo{
				GenericName:     r.GenericName,
				BrandName:       r.BrandName,
				Manufacturer:    r.LabelerName,
				ProductType:     r.ProductType,
				Route:           route,
				MarketingStatus: r.MarketingStatus,
			}
		}
		return nil
	}

	var resp labelResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode label response: %w", err)
	}
	out.TotalResults = resp.Meta.Results.Total
	if len(resp.Results) == 0 {
		return nil
	}
	r := resp.Results[0]

	if searchType == SearchAdverseEvents {
		info := AdverseEventInfo{
			AdverseReactions: SanitizeText(r.AdverseReactions),
			Warnings:         SanitizeText(r.WarningsAndCautions),
			BoxedWarning:     SanitizeText(r.BoxedWarning),
		}
		if r.OpenFDA != nil {
			info.BrandNames = head(r.OpenFDA.BrandName, maxNames)
			info.GenericNames = head(r.OpenFDA.GenericName, maxNames)
		}
		out.Results = info
		return nil
	}

	info := LabelInfo{
		Indications:       SanitizeText(r.IndicationsAndUsage),
		Dosage:            SanitizeText(r.DosageAndAdministration),
		Warnings:          SanitizeText(r.WarningsAndCautions),
		Contraindications: SanitizeText(r.Contraindications),
		AdverseReactions:  SanitizeText(r.AdverseReactions),
		DrugInteractions:  SanitizeText(r.DrugInteractions),
		Pregnancy:         SanitizeText(r.Pregnancy),
	}
	if r.OpenFDA != nil {
		info.BrandNames = head(r.OpenFDA.BrandName, maxNames)
		info.GenericNames = head(r.OpenFDA.GenericName, maxNames)
		info.Manufacturer = head(r.OpenFDA.ManufacturerName, 1)
	}
	out.Results = info
	return nil
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// SanitizeText strips HTML from label sections, collapses whitespace and
// bounds each entry to maxTextRunes. Oversized HTML tables are replaced by a
// placeholder.
func SanitizeText(in []string) []string {
	out := make([]string, 0, len(in))
	for _, text := range in {
		if text == "" {
			continue
		}
		lower := strings.ToLower(text)
		if len(text) > maxTableBytes && (strings.Contains(lower, "<table") || strings.Contains(lower, "<td")) {
			out = append(out, tableRemovedMsg)
			continue
		}
		clean := strings.Join(strings.Fields(stripTags(text)), " ")
		if utf8.RuneCountInString(clean) > maxTextRunes {
			clean = string([]rune(clean)[:maxTextRunes-3]) + "..."
		}
		out = append(out, clean)
	}
	return out
}

// stripTags keeps text tokens and turns every other token into a space.
func stripTags(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		default:
			b.WriteByte(' ')
		}
	}
}

// FDATool exposes FDAClient.Lookup to the model.
type FDATool struct {
	client *FDAClient
}

// NewFDATool wraps client as a Tool.
func NewFDATool(client *FDAClient) *FDATool {
	return &FDATool{client: client}
}

func (t *FDATool) Spec() llm.ToolSpec {
	params := llm.ObjectParameters()
	params.Properties["drug_name"] = llm.Property{
		Type:        "string",
		Description: "Name of the drug in English (generic or brand)",
	}
	params.Properties["search_type"] = llm.Property{
		Type:        "string",
		Description: "general: product data, label: full label, adverse_events: side effects and warnings",
		Enum:        []string{SearchGeneral, SearchLabel, SearchAdverseEvents},
	}
	params.Required = append(params.Required, "drug_name")
	return llm.ToolSpec{
		Name:        FDAToolName,
		Description: "Look up drug information in the FDA database",
		Parameters:  params,
	}
}

func (t *FDATool) Call(ctx context.Context, args map[string]any) (any, error) {
	name, _ := args["drug_name"].(string)
	searchType, _ := args["search_type"].(string)
	return t.client.Lookup(ctx, name, searchType)
}
