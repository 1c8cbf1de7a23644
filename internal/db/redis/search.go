package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/legalmind/lexrag/internal/db"
)

// SearchText runs a BM25 full-text search via FT.SEARCH. scope, when set,
// narrows the search with a TAG filter on the scope field.
func (s *Store) SearchText(ctx context.Context, index, query, scope string, topK int) ([]db.Doc, error) {
	if index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive")
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(textSearchArgs(index, query, scope, topK)...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseTextResult(raw)
}

// SearchKNN runs a KNN vector similarity search via FT.SEARCH.
func (s *Store) SearchKNN(ctx context.Context, index string, vector []float32, scope string, topK int) ([]db.Doc, error) {
	if index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive")
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(knnSearchArgs(index, vector, scope, topK)...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseKNNResult(raw)
}

func textSearchArgs(index, query, scope string, topK int) []string {
	queryStr := fmt.Sprintf("@text:(%s)", escapeQuery(query))
	if scope != "" {
		queryStr = fmt.Sprintf("@scope:{%s} %s", escapeQuery(scope), queryStr)
	}
	return []string{index, queryStr,
		"WITHSCORES",
		"LIMIT", "0", strconv.Itoa(topK),
		"DIALECT", "2",
	}
}

// knnSearchArgs carries an explicit LIMIT alongside the KNN clause: without
// it Redis applies its default LIMIT 0 10 and caps the result set at ten
// rows no matter how many neighbors the KNN clause requested.
func knnSearchArgs(index string, vector []float32, scope string, topK int) []string {
	knnPart := fmt.Sprintf("[KNN %d @vector $BLOB]", topK)
	queryStr := fmt.Sprintf("*=>%s", knnPart)
	if scope != "" {
		queryStr = fmt.Sprintf("(@scope:{%s})=>%s", escapeQuery(scope), knnPart)
	}
	return []string{index, queryStr,
		"PARAMS", "2", "BLOB", vectorToBytes(vector),
		"LIMIT", "0", strconv.Itoa(topK),
		"DIALECT", "2",
	}
}

func parseTextResult(raw []rueidis.RedisMessage) ([]db.Doc, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	docs := make([]db.Doc, 0, total)
	// 3-stride: [total, key1, score1, fields1, key2, score2, fields2, ...]
	for i := 1; i+2 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}

		fields, err := raw[i+2].ToArray()
		if err != nil {
			continue
		}

		docs = append(docs, db.Doc{
			ID:     key,
			Score:  score,
			Fields: parseFieldPairs(fields),
		})
	}

	return docs, nil
}

func parseKNNResult(raw []rueidis.RedisMessage) ([]db.Doc, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	docs := make([]db.Doc, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		doc := db.Doc{
			ID:     key,
			Fields: parseFieldPairs(fields),
		}

		if scoreStr, ok := doc.Fields["__vector_score"]; ok {
			if v, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				doc.Score = max(0, 1.0-v) // cosine distance → similarity, clamped to [0,1]
			}
			delete(doc.Fields, "__vector_score")
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`[`, `\[`,
	`]`, `\]`,
	`|`, `\|`,
	`-`, `\-`,
	`:`, `\:`,
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
