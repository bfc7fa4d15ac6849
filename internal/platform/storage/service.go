package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"stockroom/internal/database"
)

const exportPrefix = "exports"

var exportHeader = []string{
	"id", "code", "name", "uom", "price", "stock", "restock_level",
	"stock_location", "supplied_by", "notes", "created_at", "updated_at",
}

// ExportService writes product snapshots to object storage.
type ExportService struct {
	storage fiber.Storage
}

func NewExportService(storage fiber.Storage) *ExportService {
	return &ExportService{storage: storage}
}

// GenerateKeyName returns a unique object key for an export taken at now.
func (s *ExportService) GenerateKeyName(now time.Time) string {
	return fmt.Sprintf("%s/products-%s-%s.csv", exportPrefix, now.UTC().Format("20060102T150405Z"), uuid.NewString())
}

// ExportProducts stores products as CSV and returns the object key.
func (s *ExportService) ExportProducts(products []database.Product, now time.Time) (string, error) {
	data, err := EncodeProducts(products)
	if err != nil {
		return "", err
	}

	key := s.GenerateKeyName(now)
	if err := s.storage.Set(key, data, 0); err != nil {
		return "", fmt.Errorf("failed to store export: %w", err)
	}
	return key, nil
}

func EncodeProducts(products []database.Product) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, p := range products {
		record := []string{
			strconv.Itoa(p.ID),
			p.Code,
			p.Name,
			p.UOM,
			strconv.FormatFloat(p.Price, 'f', -1, 64),
			strconv.Itoa(p.Stock),
			strconv.Itoa(p.RestockLevel),
			deref(p.StockLocation),
			deref(p.SuppliedBy),
			deref(p.Notes),
			p.CreatedAt.UTC().Format(time.RFC3339),
			p.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
