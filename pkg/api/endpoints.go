// CLAUDE:SUMMARY Transport-agnostic endpoints (resolve, identify, lookup, CMR check, dataset info, reload) shared by HTTP and MCP.
package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hazyhaar/phyto-registry/pkg/importer"
	"github.com/hazyhaar/phyto-registry/pkg/kit"
	"github.com/hazyhaar/phyto-registry/pkg/phyto"
)

// errBadRequest marks endpoint errors caused by the request itself.
var errBadRequest = errors.New("bad request")

// Shared request/response types used by both HTTP and MCP transports.

type resolveReq struct {
	Query string
}

type resolveResponse struct {
	Query      string               `json:"query"`
	Normalized string               `json:"normalized"`
	Results    []phyto.SearchResult `json:"results"`
}

type codeReq struct {
	Code string
}

type identifyReq struct {
	Token string
}

type labelResponse struct {
	Product      *phyto.Product  `json:"product"`
	MatchedField string          `json:"matched_field"`
	MatchType    phyto.MatchType `json:"matchType"`
	MatchedName  string          `json:"matchedName,omitempty"`
}

type cmrResponse struct {
	Code       string   `json:"code"`
	CMR        bool     `json:"cmr"`
	Statements []string `json:"statements"`
	Name       string   `json:"name,omitempty"`
}

type infoResponse struct {
	phyto.Info
	LastImport      *time.Time `json:"last_import,omitempty"`
	UpdateAvailable bool       `json:"update_available"`
}

// ImportTracker reports when a dataset adapter last completed an import.
// *importer.SourceDB satisfies it.
type ImportTracker interface {
	LastImport(adapterID string) (time.Time, error)
}

// endpoints are built once per Config and shared by every transport.
type endpoints struct {
	resolve       kit.Endpoint
	lookupCode    kit.Endpoint
	identify      kit.Endpoint
	identifyLabel kit.Endpoint
	checkCMR      kit.Endpoint
	info          kit.Endpoint
	reload        kit.Endpoint
}

func newEndpoints(cfg Config) *endpoints {
	wrap := func(name string, e kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.Logging(cfg.Logger, name), cfg.Metrics.Instrument(name))(e)
	}
	return &endpoints{
		resolve:       wrap("resolve", resolveEndpoint(cfg.Registry, cfg.Metrics)),
		lookupCode:    wrap("lookup_code", lookupCodeEndpoint(cfg.Registry)),
		identify:      wrap("identify", identifyEndpoint(cfg.Registry)),
		identifyLabel: wrap("identify_label", identifyLabelEndpoint(cfg.Registry)),
		checkCMR:      wrap("check_cmr", checkCMREndpoint(cfg.Registry)),
		info:          wrap("info", infoEndpoint(cfg)),
		reload:        wrap("reload", reloadEndpoint(cfg.Registry)),
	}
}

func resolveEndpoint(reg *phyto.Registry, m *Metrics) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*resolveReq)
		s, err := reg.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		results := s.Resolve(req.Query)
		m.ObserveResults(results)
		return resolveResponse{
			Query:      req.Query,
			Normalized: phyto.NormalizeName(req.Query),
			Results:    results,
		}, nil
	}
}

func lookupCodeEndpoint(reg *phyto.Registry) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*codeReq)
		p, err := reg.ProductByCode(ctx, req.Code)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("product %s: %w", req.Code, kit.ErrNotFound)
		}
		return p, nil
	}
}

func identifyEndpoint(reg *phyto.Registry) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*identifyReq)
		p, err := reg.ProductByIdentifier(ctx, req.Token)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("no product matches %q: %w", req.Token, kit.ErrNotFound)
		}
		return p, nil
	}
}

func identifyLabelEndpoint(reg *phyto.Registry) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*phyto.LabelFields)
		if strings.TrimSpace(req.ProductName+req.SecondName+req.Code) == "" {
			return nil, fmt.Errorf("%w: label has no productName, secondName or amm", errBadRequest)
		}
		s, err := reg.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		m, ok := s.IdentifyLabel(*req)
		if !ok {
			return nil, fmt.Errorf("no product matches label: %w", kit.ErrNotFound)
		}
		return labelResponse{
			Product:      m.Product,
			MatchedField: m.Field,
			MatchType:    m.MatchType,
			MatchedName:  m.MatchedName,
		}, nil
	}
}

func checkCMREndpoint(reg *phyto.Registry) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*codeReq)
		s, err := reg.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		code := strings.TrimSpace(req.Code)
		resp := cmrResponse{
			Code:       code,
			CMR:        s.Hazards().IsHazardous(code),
			Statements: s.Hazards().Statements(code),
		}
		if resp.Statements == nil {
			resp.Statements = []string{}
		}
		if p, ok := s.ProductByCode(code); ok {
			resp.Name = p.Name
		}
		return resp, nil
	}
}

func infoEndpoint(cfg Config) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		info, err := cfg.Registry.Info(ctx)
		if err != nil {
			return nil, err
		}
		resp := infoResponse{Info: info, UpdateAvailable: true}
		if cfg.Imports == nil {
			return resp, nil
		}
		last, err := cfg.Imports.LastImport(cfg.ProductsAdapter)
		if err != nil {
			cfg.Logger.Warn("last import lookup failed", "adapter", cfg.ProductsAdapter, "error", err)
			return resp, nil
		}
		if !last.IsZero() {
			resp.LastImport = &last
		}
		resp.UpdateAvailable = importer.UpdateAvailable(last, time.Now())
		return resp, nil
	}
}

func reloadEndpoint(reg *phyto.Registry) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		if err := reg.Reload(ctx); err != nil {
			return nil, fmt.Errorf("reload: %w", err)
		}
		info, err := reg.Info(ctx)
		if err != nil {
			return nil, err
		}
		return info, nil
	}
}
