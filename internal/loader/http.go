package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/loftdrive/loft-nav/internal/config"
	"github.com/loftdrive/loft-nav/internal/logging"
)

// retryLogger implements the retryablehttp.LeveledLogger interface and routes
// retry noise through the structured logger.
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Msgf("retry: %s %v", msg, keysAndValues)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Msgf("retry: %s %v", msg, keysAndValues)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// Only errors and warnings are worth surfacing
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	// Only errors and warnings are worth surfacing
}

// HTTPLoader is the NodeLoader implementation against the Loftdrive REST API.
type HTTPLoader struct {
	httpClient *nethttp.Client
	baseURL    string
	apiKey     string
	logger     *logging.Logger
}

// NewHTTPLoader creates a loader from the given configuration.
func NewHTTPLoader(cfg *config.APIConfig) (*HTTPLoader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NewLogger("loader")

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &nethttp.Client{
		Timeout: time.Duration(cfg.Browser.RequestTimeoutSeconds) * time.Second,
	}
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = &retryLogger{logger: logger}

	return &HTTPLoader{
		httpClient: retryClient.StandardClient(),
		baseURL:    strings.TrimSuffix(cfg.PlatformURL, "/"),
		apiKey:     cfg.APIKey,
		logger:     logger,
	}, nil
}

// doRequest performs an authenticated GET and returns the raw response body.
func (l *HTTPLoader) doRequest(ctx context.Context, path string) ([]byte, error) {
	requestID := uuid.NewString()

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, l.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Token "+l.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		l.logger.Error().Err(err).Str("path", path).Str("request_id", requestID).Msg("API call failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != nethttp.StatusOK {
		l.logger.Warn().
			Int("status", resp.StatusCode).
			Str("path", path).
			Str("request_id", requestID).
			Msg("API request rejected")
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// wire shapes for the Loftdrive API (snake_case, DRF-style)

type wireProject struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	FilesCount   int    `json:"files_count"`
	FoldersCount int    `json:"folders_count"`
}

type wireFolder struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	FilesCount      int    `json:"files_count"`
	SubfoldersCount int    `json:"subfolders_count"`
}

type wireFile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

type wireAncestor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"` // "project" on the first entry, absent otherwise
}

// decodeListOrEnvelope decodes a body that is either a bare JSON array or a
// DRF pagination envelope {count, next, results}. Returns the decoded items,
// the total count (len(items) for bare arrays), and whether a next page
// exists.
func decodeListOrEnvelope[T any](body []byte) ([]T, int, bool, error) {
	trimmed := strings.TrimLeft(string(body), " \t\r\n")
	if strings.HasPrefix(trimmed, "[") {
		var items []T
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, 0, false, fmt.Errorf("failed to decode response: %w", err)
		}
		return items, len(items), false, nil
	}

	var envelope struct {
		Count   int     `json:"count"`
		Next    *string `json:"next"`
		Results []T     `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, 0, false, fmt.Errorf("failed to decode response: %w", err)
	}
	return envelope.Results, envelope.Count, envelope.Next != nil, nil
}

// ListProjects returns the projects visible to the caller.
func (l *HTTPLoader) ListProjects(ctx context.Context) ([]ProjectInfo, error) {
	body, err := l.doRequest(ctx, "/api/v1/projects/")
	if err != nil {
		return nil, err
	}

	items, _, _, err := decodeListOrEnvelope[wireProject](body)
	if err != nil {
		return nil, err
	}

	projects := make([]ProjectInfo, 0, len(items))
	for _, p := range items {
		projects = append(projects, ProjectInfo{
			ID:          p.ID,
			Name:        p.Name,
			FileCount:   p.FilesCount,
			FolderCount: p.FoldersCount,
		})
	}
	return projects, nil
}

// ListChildFolders returns one page of child folders. An empty folderID lists
// the project's top-level folders.
func (l *HTTPLoader) ListChildFolders(ctx context.Context, projectID, folderID string, page int) (*FolderPage, error) {
	if page < 1 {
		page = 1
	}

	q := url.Values{}
	if folderID != "" {
		q.Set("parent_id", folderID)
	}
	q.Set("page", fmt.Sprintf("%d", page))

	path := fmt.Sprintf("/api/v1/projects/%s/folders/?%s", url.PathEscape(projectID), q.Encode())
	body, err := l.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	items, _, hasMore, err := decodeListOrEnvelope[wireFolder](body)
	if err != nil {
		return nil, err
	}

	result := &FolderPage{
		Folders: make([]FolderInfo, 0, len(items)),
		HasMore: hasMore,
	}
	for _, f := range items {
		result.Folders = append(result.Folders, FolderInfo{
			ID:             f.ID,
			Name:           f.Name,
			FileCount:      f.FilesCount,
			SubfolderCount: f.SubfoldersCount,
		})
	}
	return result, nil
}

// ListFiles returns one page of files in a folder. An empty folderID lists
// the project's root-level files.
func (l *HTTPLoader) ListFiles(ctx context.Context, projectID, folderID string, page, pageSize int) (*FilePage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 25
	}

	q := url.Values{}
	if folderID != "" {
		q.Set("folder_id", folderID)
	}
	q.Set("page", fmt.Sprintf("%d", page))
	q.Set("page_size", fmt.Sprintf("%d", pageSize))

	path := fmt.Sprintf("/api/v1/projects/%s/files/?%s", url.PathEscape(projectID), q.Encode())
	body, err := l.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	items, count, _, err := decodeListOrEnvelope[wireFile](body)
	if err != nil {
		return nil, err
	}

	totalPages := (count + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	result := &FilePage{
		Files:      make([]FileInfo, 0, len(items)),
		Page:       page,
		TotalPages: totalPages,
		TotalCount: count,
	}
	for _, f := range items {
		result.Files = append(result.Files, FileInfo{
			ID:          f.ID,
			Name:        f.Name,
			Size:        f.Size,
			ContentType: f.ContentType,
		})
	}
	return result, nil
}

// GetAncestorChain returns the ordered ancestor chain for a folder. The
// server prepends the owning project, tagged with type "project".
func (l *HTTPLoader) GetAncestorChain(ctx context.Context, folderID string) ([]Ancestor, error) {
	path := fmt.Sprintf("/api/v1/folders/%s/breadcrumb/", url.PathEscape(folderID))
	body, err := l.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	items, _, _, err := decodeListOrEnvelope[wireAncestor](body)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("empty ancestor chain for folder %s", folderID)
	}

	chain := make([]Ancestor, 0, len(items))
	for i, a := range items {
		chain = append(chain, Ancestor{
			ID:        a.ID,
			Name:      a.Name,
			IsProject: a.Type == "project" || (a.Type == "" && i == 0),
		})
	}
	return chain, nil
}
