// CLAUDE:SUMMARY MCP tool surface (resolve_product, identify_product, lookup_code, check_cmr, dataset_info) over the shared endpoints.
package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/hazyhaar/phyto-registry/pkg/kit"
	"github.com/hazyhaar/phyto-registry/pkg/phyto"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers the registry MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, cfg Config) {
	ep := newEndpoints(cfg.withDefaults())

	kit.RegisterMCPTool(srv, mcp.NewTool("resolve_product",
		mcp.WithDescription("Resolve a free-text plant-protection product name to ranked registry candidates (exact, partial, fuzzy)."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Trade name as read or typed, e.g. \"Roundup Innov\"")),
	), ep.resolve, decodeResolve)

	kit.RegisterMCPTool(srv, mcp.NewTool("identify_product",
		mcp.WithDescription("Identify one product from a scanned code or free text, or from the fields read on a label."),
		mcp.WithString("token", mcp.Description("Scanned registration code or free text")),
		mcp.WithString("product_name", mcp.Description("Trade name read on the label")),
		mcp.WithString("second_name", mcp.Description("Secondary trade name read on the label")),
		mcp.WithString("amm", mcp.Description("Registration (AMM) number read on the label, OCR noise allowed")),
	), identifyDispatch(ep), decodeIdentify)

	kit.RegisterMCPTool(srv, mcp.NewTool("lookup_code",
		mcp.WithDescription("Fetch the registry record for a 7-digit registration (AMM) code."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Registration code, e.g. 2150918")),
	), ep.lookupCode, decodeCode)

	kit.RegisterMCPTool(srv, mcp.NewTool("check_cmr",
		mcp.WithDescription("Check whether a registration code is classified CMR (carcinogenic, mutagenic, reprotoxic)."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Registration code")),
	), ep.checkCMR, decodeCode)

	kit.RegisterMCPTool(srv, mcp.NewTool("dataset_info",
		mcp.WithDescription("Report the loaded registry version, counts and whether a dataset update is available."),
	), ep.info, func(mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}

// argString returns a trimmed string argument, "" when absent or not a string.
func argString(req mcp.CallToolRequest, key string) string {
	v, _ := req.GetArguments()[key].(string)
	return strings.TrimSpace(v)
}

func decodeResolve(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	q := argString(req, "query")
	if q == "" {
		return nil, fmt.Errorf("query is required")
	}
	return &kit.MCPDecodeResult{Request: &resolveReq{Query: q}}, nil
}

func decodeCode(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	code := argString(req, "code")
	if code == "" {
		return nil, fmt.Errorf("code is required")
	}
	return &kit.MCPDecodeResult{Request: &codeReq{Code: code}}, nil
}

func decodeIdentify(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	if token := argString(req, "token"); token != "" {
		return &kit.MCPDecodeResult{Request: &identifyReq{Token: token}}, nil
	}
	label := &phyto.LabelFields{
		ProductName: argString(req, "product_name"),
		SecondName:  argString(req, "second_name"),
		Code:        argString(req, "amm"),
	}
	if label.ProductName+label.SecondName+label.Code == "" {
		return nil, fmt.Errorf("token or at least one label field is required")
	}
	return &kit.MCPDecodeResult{Request: label}, nil
}

// identifyDispatch routes a decoded identify request to the token or label endpoint.
func identifyDispatch(ep *endpoints) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		if _, ok := request.(*phyto.LabelFields); ok {
			return ep.identifyLabel(ctx, request)
		}
		return ep.identify(ctx, request)
	}
}
