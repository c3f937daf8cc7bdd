// CLAUDE:SUMMARY Registry service: lazy single-flight dataset load, atomic snapshot swap, and the query surface (resolve, identify, lookup).
package phyto

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Snapshot is one loaded, immutable registry state. Every query runs against
// a single snapshot, so readers never observe a half-swapped registry.
type Snapshot struct {
	index    *Index
	aliases  *AliasTable
	hazards  *HazardSet
	resolver *Resolver
	loadedAt time.Time
	degraded bool
}

// NewSnapshot builds the index, alias table and hazard set for b.
func NewSnapshot(b *Bundle, cfg MatchConfig) *Snapshot {
	if b == nil {
		b = &Bundle{}
	}
	index := NewIndex(b.Dataset)
	aliases := NewAliasTable(b.Aliases, GetNormalizer(aliasMode(b.AliasNormalize)))
	return &Snapshot{
		index:    index,
		aliases:  aliases,
		hazards:  NewHazardSet(b.Hazards),
		resolver: NewResolver(index, aliases, cfg),
		loadedAt: time.Now(),
	}
}

func aliasMode(mode string) string {
	if mode == "" {
		return "lowercase_trim"
	}
	return mode
}

func emptySnapshot(cfg MatchConfig) *Snapshot {
	s := NewSnapshot(nil, cfg)
	s.degraded = true
	return s
}

// Index returns the registry index.
func (s *Snapshot) Index() *Index { return s.index }

// Aliases returns the secondary-name table.
func (s *Snapshot) Aliases() *AliasTable { return s.aliases }

// Hazards returns the CMR hazard set.
func (s *Snapshot) Hazards() *HazardSet { return s.hazards }

// LoadedAt is when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Degraded reports whether this is the empty fallback installed after a failed load.
func (s *Snapshot) Degraded() bool { return s.degraded }

// Resolve runs the match pipeline.
func (s *Snapshot) Resolve(query string) []SearchResult {
	return s.resolver.Resolve(query)
}

// ProductByCode looks a product up by registration code.
func (s *Snapshot) ProductByCode(code string) (*Product, bool) {
	return s.index.LookupByCode(strings.TrimSpace(code))
}

// ProductByIdentifier is the shared entry point for scanned codes and free
// text: a direct code lookup first, then the top resolved match.
func (s *Snapshot) ProductByIdentifier(token string) (*Product, bool) {
	token = strings.TrimSpace(token)
	if p, ok := s.index.LookupByCode(token); ok {
		return p, true
	}
	results := s.Resolve(token)
	if len(results) == 0 {
		return nil, false
	}
	return results[0].Product, true
}

// LabelFields are the fields a label reader extracts from a product photo.
type LabelFields struct {
	ProductName string `json:"productName"`
	SecondName  string `json:"secondName,omitempty"`
	Code        string `json:"amm,omitempty"`
}

// Label field names reported in LabelMatch.Field.
const (
	FieldCode        = "amm"
	FieldProductName = "productName"
	FieldSecondName  = "secondName"
)

// LabelMatch is the product identified from a label and how it was found.
type LabelMatch struct {
	Product     *Product  `json:"product"`
	Field       string    `json:"field"`
	MatchType   MatchType `json:"matchType"`
	MatchedName string    `json:"matchedName,omitempty"`
}

// IdentifyLabel picks the product behind extracted label fields: the
// registration code when it is readable and known, then the trade name, then
// the second trade name, each looked up like ProductByIdentifier.
func (s *Snapshot) IdentifyLabel(f LabelFields) (LabelMatch, bool) {
	if code, ok := ExtractCode(f.Code); ok {
		if p, ok := s.index.LookupByCode(code); ok {
			return LabelMatch{Product: p, Field: FieldCode, MatchType: MatchExact, MatchedName: code}, true
		}
	}
	for _, c := range []struct{ field, value string }{
		{FieldProductName, f.ProductName},
		{FieldSecondName, f.SecondName},
	} {
		value := strings.TrimSpace(c.value)
		if value == "" {
			continue
		}
		// Same path as ProductByIdentifier: a code read into a name field still hits.
		if p, ok := s.index.LookupByCode(value); ok {
			return LabelMatch{Product: p, Field: c.field, MatchType: MatchExact, MatchedName: value}, true
		}
		results := s.Resolve(value)
		if len(results) == 0 {
			continue
		}
		top := results[0]
		return LabelMatch{Product: top.Product, Field: c.field, MatchType: top.MatchType, MatchedName: top.MatchedName}, true
	}
	return LabelMatch{}, false
}

// Info summarizes a snapshot.
type Info struct {
	Version  string    `json:"version"`
	Total    int       `json:"total"`
	Names    int       `json:"names"`
	Aliases  int       `json:"aliases"`
	CMR      int       `json:"cmr"`
	LoadedAt time.Time `json:"loaded_at"`
	Degraded bool      `json:"degraded"`
}

// Info returns counts and version for the snapshot.
func (s *Snapshot) Info() Info {
	return Info{
		Version:  s.index.Version(),
		Total:    s.index.Total(),
		Names:    s.index.Names(),
		Aliases:  s.aliases.Len(),
		CMR:      s.hazards.Count(),
		LoadedAt: s.loadedAt,
		Degraded: s.degraded,
	}
}

// LoadObserver is notified after every load attempt.
type LoadObserver func(s *Snapshot, elapsed time.Duration, err error)

// Registry owns the current snapshot. It is constructed once and shared;
// the first query loads the dataset, concurrent first queries wait on that
// same load, and later reloads swap a complete new snapshot in atomically.
type Registry struct {
	source   Source
	cfg      MatchConfig
	logger   *slog.Logger
	observer LoadObserver

	group   singleflight.Group
	current atomic.Pointer[Snapshot]

	// swapMu orders installs; gen counts them so a load started before a
	// Replace does not overwrite it.
	swapMu sync.Mutex
	gen    uint64
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithMatchConfig overrides the resolver configuration.
func WithMatchConfig(cfg MatchConfig) Option {
	return func(r *Registry) { r.cfg = cfg }
}

// WithLoadObserver registers a callback run after every load attempt.
func WithLoadObserver(o LoadObserver) Option {
	return func(r *Registry) { r.observer = o }
}

// NewRegistry creates a registry over source. Nothing is loaded until first use.
func NewRegistry(source Source, opts ...Option) *Registry {
	r := &Registry{
		source: source,
		cfg:    DefaultMatchConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

const loadKey = "load"

// Snapshot returns the current snapshot, loading it on first use. A failed
// first load installs an empty registry rather than failing the caller; the
// only error is ctx ending before the load completes.
func (r *Registry) Snapshot(ctx context.Context) (*Snapshot, error) {
	if s := r.current.Load(); s != nil {
		return s, nil
	}
	ch := r.group.DoChan(loadKey, func() (any, error) {
		return r.load(context.WithoutCancel(ctx))
	})
	select {
	case <-ch:
		return r.current.Load(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Reload rebuilds the snapshot from the source. On failure the previous
// snapshot stays in place and the error is returned. A reload issued while
// another load is in flight joins it.
func (r *Registry) Reload(ctx context.Context) error {
	ch := r.group.DoChan(loadKey, func() (any, error) {
		return r.load(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Replace swaps in a bundle produced elsewhere, e.g. by an updater. A load
// already in flight when Replace is called is discarded when it completes.
func (r *Registry) Replace(b *Bundle) *Snapshot {
	s := NewSnapshot(b, r.cfg)
	r.swapMu.Lock()
	r.gen++
	r.current.Store(s)
	r.swapMu.Unlock()
	r.logger.Info("dataset replaced", "version", s.index.Version(), "products", s.index.Total())
	r.notify(s, 0, nil)
	return s
}

func (r *Registry) generation() uint64 {
	r.swapMu.Lock()
	defer r.swapMu.Unlock()
	return r.gen
}

func (r *Registry) load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	gen := r.generation()
	b, err := r.source.Load(ctx)
	if err != nil {
		if r.current.Load() == nil {
			r.logger.Error("dataset unavailable, serving empty registry", "error", err)
			r.current.CompareAndSwap(nil, emptySnapshot(r.cfg))
		} else {
			r.logger.Error("dataset reload failed, keeping previous", "error", err)
		}
		r.notify(r.current.Load(), time.Since(start), err)
		return nil, err
	}

	s := NewSnapshot(b, r.cfg)
	r.swapMu.Lock()
	if r.gen != gen {
		r.swapMu.Unlock()
		r.logger.Info("dataset load superseded by replace, discarding", "version", s.index.Version())
		return r.current.Load(), nil
	}
	r.gen++
	r.current.Store(s)
	r.swapMu.Unlock()
	r.logger.Info("dataset loaded",
		"version", s.index.Version(),
		"products", s.index.Total(),
		"names", s.index.Names(),
		"aliases", s.aliases.Len(),
		"cmr", s.hazards.Count(),
		"elapsed", time.Since(start),
	)
	r.notify(s, time.Since(start), nil)
	return s, nil
}

func (r *Registry) notify(s *Snapshot, elapsed time.Duration, err error) {
	if r.observer != nil {
		r.observer(s, elapsed, err)
	}
}

// Resolve resolves query against the current snapshot.
func (r *Registry) Resolve(ctx context.Context, query string) ([]SearchResult, error) {
	s, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.Resolve(query), nil
}

// ProductByIdentifier looks up a scanned code or free text; nil when nothing matches.
func (r *Registry) ProductByIdentifier(ctx context.Context, token string) (*Product, error) {
	s, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	p, _ := s.ProductByIdentifier(token)
	return p, nil
}

// ProductByCode looks up a registration code; nil when unknown.
func (r *Registry) ProductByCode(ctx context.Context, code string) (*Product, error) {
	s, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	p, _ := s.ProductByCode(code)
	return p, nil
}

// Info describes the current snapshot.
func (r *Registry) Info(ctx context.Context) (Info, error) {
	s, err := r.Snapshot(ctx)
	if err != nil {
		return Info{}, err
	}
	return s.Info(), nil
}
