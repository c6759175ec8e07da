package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultQueryTimeout = 10 * time.Second
	execPath            = "/exec"
	maxErrorBodyBytes   = 4096
)

var errMissingBaseURL = errors.New("storage: questdb http url is required")

// HTTPExecutorConfig configures the QuestDB /exec executor.
type HTTPExecutorConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *zap.Logger
}

// HTTPExecutor submits statements to the QuestDB REST endpoint. The endpoint
// has no bind variables, so arguments are inlined as literals.
type HTTPExecutor struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

type execResponse struct {
	Columns []Field `json:"columns"`
	Dataset [][]any `json:"dataset"`
	Count   int     `json:"count"`
	Error   string  `json:"error"`
}

// NewHTTPExecutor validates cfg and builds an executor.
func NewHTTPExecutor(cfg HTTPExecutorConfig) (*HTTPExecutor, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errMissingBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("storage: invalid questdb http url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPExecutor{
		endpoint:   baseURL + execPath,
		httpClient: httpClient,
		timeout:    timeout,
		logger:     logger,
	}, nil
}

// Execute runs statement and decodes the dataset.
func (e *HTTPExecutor) Execute(ctx context.Context, statement Statement) (Result, error) {
	text, err := statement.Inline()
	if err != nil {
		return Result{}, &QueryError{Message: err.Error(), Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, e.endpoint+"?query="+url.QueryEscape(text), http.NoBody)
	if err != nil {
		return Result{}, asQueryError(err, e.timeout)
	}

	response, err := e.httpClient.Do(request)
	if err != nil {
		e.logger.Warn("questdb request failed", zap.Error(err))
		return Result{}, asQueryError(err, e.timeout)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return Result{}, asQueryError(err, e.timeout)
	}

	var payload execResponse
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	decodeErr := decoder.Decode(&payload)

	if decodeErr == nil && payload.Error != "" {
		return Result{}, &QueryError{Status: response.StatusCode, Message: payload.Error}
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return Result{}, &QueryError{Status: response.StatusCode, Message: truncate(string(body))}
	}
	if decodeErr != nil {
		return Result{}, &QueryError{Status: response.StatusCode, Message: "malformed response: " + decodeErr.Error(), Err: decodeErr}
	}

	rows := make([][]any, 0, len(payload.Dataset))
	for _, raw := range payload.Dataset {
		row := make([]any, len(raw))
		for i, cell := range raw {
			row[i] = NormalizeCell(cell)
		}
		rows = append(rows, row)
	}

	count := payload.Count
	if count == 0 {
		count = len(rows)
	}

	return Result{Fields: payload.Columns, Rows: rows, RowCount: count}, nil
}

func truncate(body string) string {
	body = strings.TrimSpace(body)
	if len(body) > maxErrorBodyBytes {
		return body[:maxErrorBodyBytes]
	}
	if body == "" {
		return "empty response"
	}
	return body
}
