package catalog

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

const cancelCheckInterval = 1000

// decode parses a gzipped JSON-lines stream. Malformed lines are skipped and
// counted instead of failing the whole file.
func decode(ctx context.Context, r io.Reader, source string, logger zerolog.Logger) (*Batch, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", source, err)
	}
	defer gzipReader.Close()

	batch := &Batch{Source: source}

	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				logger.Warn().Str("source", source).Msg("catalog loading cancelled")
				return nil, err
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			logger.Debug().Err(err).Str("source", source).Int("line", lineNo).Msg("skipping malformed catalog line")
			batch.Skipped++
			continue
		}
		if strings.TrimSpace(entry.Name) == "" || entry.Price.IsNegative() || entry.Stock < 0 {
			logger.Debug().Str("source", source).Int("line", lineNo).Msg("skipping invalid catalog entry")
			batch.Skipped++
			continue
		}

		batch.Entries = append(batch.Entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading catalog %s: %w", source, err)
	}

	return batch, nil
}
