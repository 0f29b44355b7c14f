package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/vntrieu/moodscreen/internal/llm"
)

// maxResponseBytes bounds documents and tool responses read from the network.
const maxResponseBytes = 4 << 20

var invalidNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// OpenAPISource discovers HTTP tools from an OpenAPI 3 or Swagger 2 document.
type OpenAPISource struct {
	docURL  string
	baseURL string
	client  *http.Client
}

// NewOpenAPISource creates a source for the document at docURL. Discovered
// operations are called relative to baseURL.
func NewOpenAPISource(docURL, baseURL string, client *http.Client) *OpenAPISource {
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenAPISource{docURL: docURL, baseURL: baseURL, client: client}
}

func (s *OpenAPISource) Name() string { return s.docURL }

// Load fetches and parses the document.
func (s *OpenAPISource) Load(ctx context.Context) ([]Tool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.docURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch openapi document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch openapi document: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read openapi document: %w", err)
	}
	return ParseOpenAPI(data, s.baseURL, s.client)
}

// ParseOpenAPI turns every GET operation of the document into an HTTPTool.
// Only query parameters become tool arguments.
func ParseOpenAPI(data []byte, baseURL string, client *http.Client) ([]Tool, error) {
	doc, err := loadDocument(data)
	if err != nil {
		return nil, err
	}
	if doc.Paths == nil {
		return nil, nil
	}

	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for p := range paths {
		keys = append(keys, p)
	}
	sort.Strings(keys)

	var out []Tool
	for _, path := range keys {
		item := paths[path]
		if item == nil || item.Get == nil {
			continue
		}
		out = append(out, &HTTPTool{
			spec:    operationSpec(path, item.Get),
			baseURL: strings.TrimRight(baseURL, "/"),
			path:    path,
			client:  client,
		})
	}
	return out, nil
}

func loadDocument(data []byte) (*openapi3.T, error) {
	var probe struct {
		Swagger string `yaml:"swagger"`
		OpenAPI string `yaml:"openapi"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}

	if probe.Swagger != "" {
		jsonData, err := toJSON(data)
		if err != nil {
			return nil, err
		}
		var v2 openapi2.T
		if err := json.Unmarshal(jsonData, &v2); err != nil {
			return nil, fmt.Errorf("parse swagger document: %w", err)
		}
		doc, err := openapi2conv.ToV3(&v2)
		if err != nil {
			return nil, fmt.Errorf("convert swagger document: %w", err)
		}
		return doc, nil
	}
	if probe.OpenAPI == "" {
		return nil, fmt.Errorf("parse openapi document: missing openapi or swagger version")
	}

	doc, err := openapi3.NewLoader().LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	return doc, nil
}

// toJSON converts a YAML document to JSON; JSON input is returned unchanged.
func toJSON(data []byte) ([]byte, error) {
	if json.Valid(data) {
		return data, nil
	}
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse yaml document: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("convert yaml document: %w", err)
	}
	return out, nil
}

func operationSpec(path string, op *openapi3.Operation) llm.ToolSpec {
	params := llm.ObjectParameters()
	for _, ref := range op.Parameters {
		if ref == nil || ref.Value == nil || ref.Value.In != openapi3.ParameterInQuery {
			continue
		}
		p := ref.Value
		params.Properties[p.Name] = llm.Property{Type: parameterType(p), Description: p.Description}
		if p.Required {
			params.Required = append(params.Required, p.Name)
		}
	}

	name := op.OperationID
	if name == "" {
		name = strings.ReplaceAll(strings.Trim(path, "/"), "/", "_")
	}
	description := op.Description
	if description == "" {
		description = op.Summary
	}
	return llm.ToolSpec{
		Name:        invalidNameChars.ReplaceAllString(name, "_"),
		Description: description,
		Parameters:  params,
	}
}

// parameterType maps a schema type to integer, number, boolean or string.
func parameterType(p *openapi3.Parameter) string {
	if p.Schema == nil || p.Schema.Value == nil || p.Schema.Value.Type == nil {
		return "string"
	}
	for _, t := range p.Schema.Value.Type.Slice() {
		switch t {
		case openapi3.TypeInteger, openapi3.TypeNumber, openapi3.TypeBoolean:
			return t
		}
	}
	return "string"
}

// HTTPTool calls one GET operation with its arguments as query parameters.
type HTTPTool struct {
	spec    llm.ToolSpec
	baseURL string
	path    string
	client  *http.Client
}

func (t *HTTPTool) Spec() llm.ToolSpec { return t.spec }

// Path returns the operation path relative to the base URL.
func (t *HTTPTool) Path() string { return t.path }

func (t *HTTPTool) Call(ctx context.Context, args map[string]any) (any, error) {
	q := url.Values{}
	for k, v := range args {
		switch vv := v.(type) {
		case []any:
			for _, item := range vv {
				q.Add(k, queryValue(item))
			}
		case nil:
		default:
			q.Set(k, queryValue(vv))
		}
	}
	u := t.baseURL + t.path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", t.spec.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", t.spec.Name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s returned %s", t.path, resp.Status)
	}

	var out any
	if err := json.Unmarshal(body, &out); err != nil {
		return string(body), nil
	}
	return out, nil
}

func queryValue(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case float64:
		if vv == float64(int64(vv)) {
			return strconv.FormatInt(int64(vv), 10)
		}
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(vv)
	default:
		return fmt.Sprint(vv)
	}
}
