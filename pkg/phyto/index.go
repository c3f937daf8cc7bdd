// CLAUDE:SUMMARY Immutable registry index: code -> product and normalized name -> ordered product buckets.
package phyto

import (
	"log/slog"
	"sort"
)

// NameEntry is one name bucket of the index. Key is the normalized name;
// Name is the first raw name that produced it and is reported as matchedName.
type NameEntry struct {
	Key      string
	Name     string
	Products []*Product
}

// Index is built once from a Dataset and never mutated afterwards, so it is
// safe for unbounded concurrent reads.
type Index struct {
	version string
	total   int
	byCode  map[string]*Product
	entries []NameEntry
	byKey   map[string]int

	skipped    int
	duplicates int
}

// EmptyIndex is the degraded registry used when the dataset cannot be loaded.
func EmptyIndex() *Index {
	return &Index{
		version: "0.0.0",
		byCode:  make(map[string]*Product),
		byKey:   make(map[string]int),
	}
}

// NewIndex builds the lookup structures. Rows without a code or a name are
// skipped; a repeated code keeps its first occurrence.
func NewIndex(ds *Dataset) *Index {
	idx := EmptyIndex()
	if ds == nil {
		return idx
	}
	if ds.Version != "" {
		idx.version = ds.Version
	}

	products := ds.Products
	if len(products) == 0 && len(ds.Index.ByAMM) > 0 {
		products = make([]*Product, 0, len(ds.Index.ByAMM))
		for _, p := range ds.Index.ByAMM {
			products = append(products, p)
		}
		sort.Slice(products, func(i, j int) bool { return products[i].Code < products[j].Code })
	}

	for _, p := range products {
		if !p.valid() {
			idx.skipped++
			continue
		}
		if _, exists := idx.byCode[p.Code]; exists {
			idx.duplicates++
			continue
		}
		p = sanitize(p)
		idx.byCode[p.Code] = p
		idx.add(p.Name, p)
		for _, alt := range p.SecondaryNames {
			idx.add(alt, p)
		}
	}

	// Fold in the payload's own name index; it may carry names that are not
	// on the product record. Sorted for a deterministic bucket order.
	if len(ds.Index.ByName) > 0 {
		names := make([]string, 0, len(ds.Index.ByName))
		for name := range ds.Index.ByName {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, p := range ds.Index.ByName[name] {
				if p == nil {
					continue
				}
				if indexed, ok := idx.byCode[p.Code]; ok {
					idx.add(name, indexed)
				}
			}
		}
	}

	idx.total = len(idx.byCode)
	if idx.skipped > 0 || idx.duplicates > 0 {
		slog.Warn("registry rows ignored", "version", idx.version, "malformed", idx.skipped, "duplicate_codes", idx.duplicates)
	}
	return idx
}

// add appends p to the bucket of name, once per bucket.
func (idx *Index) add(name string, p *Product) {
	key := NormalizeName(name)
	if key == "" {
		return
	}
	i, ok := idx.byKey[key]
	if !ok {
		idx.byKey[key] = len(idx.entries)
		idx.entries = append(idx.entries, NameEntry{Key: key, Name: name, Products: []*Product{p}})
		return
	}
	for _, existing := range idx.entries[i].Products {
		if existing.Code == p.Code {
			return
		}
	}
	idx.entries[i].Products = append(idx.entries[i].Products, p)
}

// sanitize enforces that authorized products carry no withdrawal date.
func sanitize(p *Product) *Product {
	if p.Status == "" {
		cp := *p
		cp.Status = StatusUnknown
		p = &cp
	}
	if p.Status == StatusAuthorized && p.WithdrawalDate != nil {
		cp := *p
		cp.WithdrawalDate = nil
		return &cp
	}
	return p
}

// LookupByCode returns the product registered under code.
func (idx *Index) LookupByCode(code string) (*Product, bool) {
	p, ok := idx.byCode[code]
	return p, ok
}

// LookupByName returns the bucket whose key equals the normalized name.
func (idx *Index) LookupByName(name string) (NameEntry, bool) {
	i, ok := idx.byKey[NormalizeName(name)]
	if !ok {
		return NameEntry{}, false
	}
	return idx.entries[i], true
}

// Entries returns every name bucket in insertion order. Callers must not modify it.
func (idx *Index) Entries() []NameEntry {
	return idx.entries
}

// Products returns every indexed product sorted by code.
func (idx *Index) Products() []*Product {
	out := make([]*Product, 0, len(idx.byCode))
	for _, p := range idx.byCode {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Version is the dataset version tag.
func (idx *Index) Version() string { return idx.version }

// Total is the number of indexed products.
func (idx *Index) Total() int { return idx.total }

// Names is the number of distinct normalized names.
func (idx *Index) Names() int { return len(idx.entries) }

// Skipped is the number of malformed rows dropped at build time.
func (idx *Index) Skipped() int { return idx.skipped }
