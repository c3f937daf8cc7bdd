// CLAUDE:SUMMARY Import adapter for the ANSES E-Phy product catalogue (data.gouv.fr ZIP, Windows-1252 CSV) into the products bundle.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/phyto-registry/pkg/phyto"
)

// EphyURL is the stable data.gouv.fr resource for the E-Phy catalogue ZIP.
const EphyURL = "https://www.data.gouv.fr/api/1/datasets/r/98f7cac6-6b29-4859-8739-51b825196959"

const ephyLicense = "Licence Ouverte v2.0"

func init() {
	Register(&ephyProductsAdapter{})
}

type ephyProductsAdapter struct{}

func (a *ephyProductsAdapter) ID() string          { return "ephy-produits" }
func (a *ephyProductsAdapter) DatasetID() string   { return "ephy" }
func (a *ephyProductsAdapter) Description() string { return "ANSES E-Phy catalogue des produits phytopharmaceutiques" }
func (a *ephyProductsAdapter) DefaultURL() string  { return EphyURL }
func (a *ephyProductsAdapter) License() string     { return ephyLicense }

func (a *ephyProductsAdapter) Import(ctx context.Context, sourceURL, outputDir string) error {
	dlDir, files, err := fetchArchive(ctx, sourceURL, outputDir, a.DatasetID())
	if dlDir != "" {
		defer os.RemoveAll(dlDir)
	}
	if err != nil {
		return err
	}

	csvPath := findCSV(files, []string{"produits_"}, []string{"usage", "condition", "danger", "risque", "phrase"})
	if csvPath == "" {
		return fmt.Errorf("no products CSV found in ZIP")
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	version := time.Now().Format("2006-01-02")
	ds, aliases, err := parseEphyProducts(f, csvCharset(csvPath))
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	ds.Version = version

	dir := filepath.Join(outputDir, a.DatasetID())
	if err := ensureDir(dir); err != nil {
		return err
	}
	if err := phyto.SaveDataset(ds, filepath.Join(dir, "products.json.gz")); err != nil {
		return fmt.Errorf("save dataset: %w", err)
	}
	if err := phyto.SaveGob(aliases, filepath.Join(dir, "aliases.gob")); err != nil {
		return fmt.Errorf("save aliases: %w", err)
	}

	fmt.Printf("  %d produits, %d noms secondaires\n", ds.Total, len(aliases))
	return writeManifest(dir, &phyto.Manifest{
		ID:          a.ID(),
		Kind:        phyto.KindProducts,
		Version:     version,
		Source:      "ANSES E-Phy",
		SourceURL:   sourceURL,
		License:     ephyLicense,
		DataFile:    "products.json.gz",
		AliasFile:   "aliases.gob",
		GeneratedAt: time.Now().Unix(),
		Format:      phyto.FormatSpec{Compression: "gzip", AliasNormalize: "lowercase_trim"},
	})
}

// csvCharset guesses the encoding from the E-Phy file naming convention
// ("produits_Windows-1252.csv" vs "produits_utf8.csv").
func csvCharset(path string) string {
	if strings.Contains(strings.ToLower(filepath.Base(path)), "utf8") {
		return "utf-8"
	}
	return "windows-1252"
}

var ephyProductColumns = map[string]string{
	"code":        "numero amm",
	"name":        "nom produit",
	"secondary":   "seconds noms commerciaux",
	"status":      "etat d autorisation",
	"withdrawal":  "date de retrait",
	"substances":  "substances actives",
	"function":    "fonctions",
	"formulation": "formulations",
	"holder":      "titulaire",
}

// parseEphyProducts reads the E-Phy products CSV (semicolon-delimited). A code
// appearing on several rows keeps its first row. The alias table maps every
// secondary trade name, lowercased and trimmed, to its code.
func parseEphyProducts(r io.Reader, charset string) (*phyto.Dataset, map[string]string, error) {
	cr, err := newCSVReader(r, charset)
	if err != nil {
		return nil, nil, err
	}

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols := columnIndex(header, ephyProductColumns)
	for _, required := range []string{"code", "name"} {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("column %q not found in header %v", ephyProductColumns[required], header)
		}
	}

	ds := &phyto.Dataset{}
	aliases := make(map[string]string)
	seen := make(map[string]bool)
	var skipped int
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		code := field(record, cols, "code")
		name := field(record, cols, "name")
		if code == "" || name == "" {
			skipped++
			continue
		}
		if seen[code] {
			continue
		}
		seen[code] = true

		p := &phyto.Product{
			Code:        code,
			Name:        name,
			Status:      phyto.ParseStatus(field(record, cols, "status")),
			Substances:  field(record, cols, "substances"),
			Function:    field(record, cols, "function"),
			Formulation: field(record, cols, "formulation"),
			Holder:      field(record, cols, "holder"),
		}
		if d := field(record, cols, "withdrawal"); d != "" {
			if p.Status == phyto.StatusUnknown {
				p.Status = phyto.StatusRetired
			}
			if p.Status == phyto.StatusRetired {
				p.WithdrawalDate = &d
			}
		}
		for _, alt := range strings.Split(field(record, cols, "secondary"), "|") {
			alt = strings.TrimSpace(alt)
			if alt == "" {
				continue
			}
			p.SecondaryNames = append(p.SecondaryNames, alt)
			key := phyto.NormalizeLowercaseTrim(alt)
			if _, exists := aliases[key]; !exists {
				aliases[key] = code
			}
		}
		ds.Products = append(ds.Products, p)
	}

	ds.Total = len(ds.Products)
	if skipped > 0 {
		fmt.Printf("  %d lignes ignorees\n", skipped)
	}
	return ds, aliases, nil
}
