package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Tool names exposed by the Vincent tool-execution service. The service holds
// the wallet's signing capability; this executor never touches keys.
const (
	toolERC20Approval = "erc20-approval"
	toolUniswapSwap   = "uniswap-swap"
)

// ToolParams is the invocation payload shared by the approval and swap tools.
type ToolParams struct {
	AmountIn      string `json:"amountIn"`
	ChainID       string `json:"chainId"`
	PKPEthAddress string `json:"pkpEthAddress"`
	RPCURL        string `json:"rpcUrl"`
	TokenIn       string `json:"tokenIn"`
	TokenOut      string `json:"tokenOut,omitempty"`
}

// ToolResult is the parsed outcome of one tool execution. RawResponse keeps
// the tool's inner response verbatim for failure diagnosis.
type ToolResult struct {
	Status         string
	ApprovalTxHash string
	SwapTxHash     string
	RawResponse    string
	Logs           string
}

// Success reports whether the tool itself considered the execution successful.
func (r *ToolResult) Success() bool {
	return r.Status == "success"
}

// ToolService invokes the remote tool-execution capability that signs and
// submits approval and swap transactions on behalf of the wallet.
type ToolService interface {
	ExecuteApproval(ctx context.Context, params ToolParams) (*ToolResult, error)
	ExecuteSwap(ctx context.Context, params ToolParams) (*ToolResult, error)
}

type toolService struct {
	client     *http.Client
	baseURL    string
	appVersion int
}

// NewToolService creates a ToolService against the given Vincent endpoint
func NewToolService(baseURL string, appVersion int) ToolService {
	return NewToolServiceWithClient(baseURL, appVersion, &http.Client{Timeout: 2 * time.Minute})
}

// NewToolServiceWithClient is NewToolService with an injectable HTTP client
func NewToolServiceWithClient(baseURL string, appVersion int, client *http.Client) ToolService {
	return &toolService{client: client, baseURL: baseURL, appVersion: appVersion}
}

func (s *toolService) ExecuteApproval(ctx context.Context, params ToolParams) (*ToolResult, error) {
	return s.execute(ctx, toolERC20Approval, params)
}

func (s *toolService) ExecuteSwap(ctx context.Context, params ToolParams) (*ToolResult, error) {
	return s.execute(ctx, toolUniswapSwap, params)
}

type toolExecuteRequest struct {
	AppVersion int        `json:"appVersion"`
	Params     ToolParams `json:"params"`
}

// toolExecuteResponse is the tool envelope: the actual execution outcome is a
// JSON document serialized into the response field.
type toolExecuteResponse struct {
	Response string `json:"response"`
	Logs     string `json:"logs"`
}

type toolInnerResponse struct {
	Status         string `json:"status"`
	ApprovalTxHash string `json:"approvalTxHash"`
	SwapTxHash     string `json:"swapTxHash"`
}

func (s *toolService) execute(ctx context.Context, tool string, params ToolParams) (*ToolResult, error) {
	payload, err := json.Marshal(toolExecuteRequest{AppVersion: s.appVersion, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", tool, err)
	}

	url := fmt.Sprintf("%s/tools/%s/execute", s.baseURL, tool)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", tool, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s tool request failed: %w", tool, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s tool returned status %d", tool, resp.StatusCode)
	}

	var envelope toolExecuteResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode %s tool envelope: %w", tool, err)
	}

	slog.Debug("tool execution completed", "tool", tool, "logs", envelope.Logs)

	var inner toolInnerResponse
	if err := json.Unmarshal([]byte(envelope.Response), &inner); err != nil {
		return nil, fmt.Errorf("failed to parse %s tool response %q: %w", tool, envelope.Response, err)
	}

	return &ToolResult{
		Status:         inner.Status,
		ApprovalTxHash: inner.ApprovalTxHash,
		SwapTxHash:     inner.SwapTxHash,
		RawResponse:    envelope.Response,
		Logs:           envelope.Logs,
	}, nil
}
