//go:build ignore

package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"coffee-on/internal/catalog"

	"github.com/shopspring/decimal"
)

// generateSampleCatalog writes a gzipped JSON-lines catalog for local seeding.
// The last two lines are rejected by the importer: one is not JSON and one
// has a negative price.
func main() {
	dataDir := "data"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	entries := []catalog.Entry{
		{Name: "Café Especial Mogiana 250g", Description: "Notas de chocolate e caramelo", Price: decimal.RequireFromString("42.90"), Stock: 120, Category: "cafe"},
		{Name: "Café Especial Cerrado 500g", Description: "Corpo alto, acidez média", Price: decimal.RequireFromString("74.50"), Stock: 80, Category: "cafe"},
		{Name: "Café Descafeinado 250g", Price: decimal.RequireFromString("39.00"), Stock: 40, Category: "cafe"},
		{Name: "Moedor Manual Cerâmico", Price: decimal.RequireFromString("189.00"), Stock: 15, Category: "acessorio"},
		{Name: "Filtro de Papel 102 (100un)", Price: decimal.RequireFromString("18.90"), Stock: 300, Category: "acessorio"},
		{Name: "Assinatura Mensal", Description: "Um pacote de 500g por mês", Price: decimal.RequireFromString("89.90"), Stock: 1000, Category: "assinatura", Slug: "assinatura-mensal"},
	}

	filePath := filepath.Join(dataDir, "catalog.jsonl.gz")
	if err := createCatalogFile(filePath, entries); err != nil {
		log.Fatalf("Failed to create %s: %v", filePath, err)
	}

	fmt.Printf("Created %s with %d products (+2 rejected lines)\n", filePath, len(entries))
	fmt.Println("\nImport it with:")
	fmt.Println("  CATALOG_SEED_ENABLED=true CATALOG_DIR=data CATALOG_FILES=catalog.jsonl.gz go run ./cmd/api")
}

func createCatalogFile(filePath string, entries []catalog.Entry) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	encoder := json.NewEncoder(gzipWriter)
	for _, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			return fmt.Errorf("failed to write entry: %w", err)
		}
	}

	if _, err := fmt.Fprintln(gzipWriter, `{"nome": "Linha quebrada"`); err != nil {
		return fmt.Errorf("failed to write malformed line: %w", err)
	}
	if _, err := fmt.Fprintln(gzipWriter, `{"nome":"Preço negativo","preco":-1}`); err != nil {
		return fmt.Errorf("failed to write invalid entry: %w", err)
	}

	return nil
}
