package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 30 * time.Second

const userProjectsQuery = `query UserProjects($projectSearch: ProjectSearchInput){
  user {
    id
    email
    permissions
  }
  projects(projectSearch: $projectSearch){
    count
    entries {
      id
      name
      slug
      environments {
        id
        name
        color
      }
    }
  }
}`

const allProjectsQuery = `query AllProjects($projectSearch: ProjectSearchInput){
  projects(projectSearch: $projectSearch){
    count
    entries {
      id
      name
      slug
      environments {
        id
        name
        color
      }
    }
  }
}`

const createProjectMutation = `mutation CreateProject($project: ProjectInput!){
  createProject(project: $project){
    id
    name
    slug
    environments {
      id
      name
      color
    }
  }
}`

// GraphQLError is returned when the server answered with an errors array.
// Data decoded from the same response is still returned to the caller.
type GraphQLError struct {
	// Code is errors[0].extensions.code, when the server sets one.
	Code     string
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "graphql error: " + strings.Join(e.Messages, "; ")
}

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("network error: %s", http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("network error: %s: %s", http.StatusText(e.StatusCode), e.Body)
}

// Tokens supplies the access token sent with each request.
type Tokens interface {
	Load() (string, error)
}

// Client talks GraphQL over HTTP to the codeflow API.
type Client struct {
	endpoint string
	http     *http.Client
	tokens   Tokens
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the GraphQL endpoint.
func NewClient(endpoint string, tokens Tokens, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: defaultTimeout},
		tokens:   tokens,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Endpoint returns the GraphQL URL.
func (c *Client) Endpoint() string { return c.endpoint }

// UserProjects runs the session query. Partial data is returned together with
// a *GraphQLError; transport failures return nil data.
func (c *Client) UserProjects(ctx context.Context, search ProjectSearch) (*UserProjects, error) {
	var data UserProjects
	err := c.do(ctx, "UserProjects", userProjectsQuery, map[string]any{"projectSearch": search}, &data)
	if err != nil && !isGraphQLError(err) {
		return nil, err
	}
	return &data, err
}

// AllProjects lists every project visible to the user.
func (c *Client) AllProjects(ctx context.Context) (*ProjectList, error) {
	var data struct {
		Projects *ProjectList `json:"projects"`
	}
	search := ProjectSearch{Repository: "", Bookmarked: false}
	if err := c.do(ctx, "AllProjects", allProjectsQuery, map[string]any{"projectSearch": search}, &data); err != nil {
		return nil, err
	}
	if data.Projects == nil {
		return &ProjectList{}, nil
	}
	return data.Projects, nil
}

// CreateProject runs the createProject mutation.
func (c *Client) CreateProject(ctx context.Context, in CreateProjectInput) (*Project, error) {
	if in.GitProtocol == "" {
		in.GitProtocol = GitProtocol(in.GitURL)
	}
	var data struct {
		CreateProject *Project `json:"createProject"`
	}
	if err := c.do(ctx, "CreateProject", createProjectMutation, map[string]any{"project": in}, &data); err != nil {
		return nil, err
	}
	if data.CreateProject == nil {
		return nil, fmt.Errorf("create project: empty response")
	}
	return data.CreateProject, nil
}

// --- internal ---

type gqlRequest struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message    string `json:"message"`
		Extensions struct {
			Code string `json:"code"`
		} `json:"extensions"`
	} `json:"errors"`
}

func (c *Client) do(ctx context.Context, op, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(gqlRequest{OperationName: op, Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("encode %s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("X-Request-ID", reqID)
	if c.tokens != nil {
		if tok, err := c.tokens.Load(); err == nil && tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("graphql request failed", "op", op, "request_id", reqID, "error", err)
		return fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("network error: read %s response: %w", op, err)
	}
	c.logger.Debug("graphql request", "op", op, "request_id", reqID, "status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var gr gqlResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	if len(gr.Data) > 0 && string(gr.Data) != "null" {
		if err := json.Unmarshal(gr.Data, out); err != nil {
			return fmt.Errorf("decode %s data: %w", op, err)
		}
	}
	if len(gr.Errors) > 0 {
		gerr := &GraphQLError{Code: gr.Errors[0].Extensions.Code}
		for _, e := range gr.Errors {
			gerr.Messages = append(gerr.Messages, e.Message)
		}
		return gerr
	}
	return nil
}

func isGraphQLError(err error) bool {
	var gerr *GraphQLError
	return errors.As(err, &gerr)
}
