package progress

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// Encode serializes a record in the stored format.
func Encode(record models.ProgressRecord) ([]byte, error) {
	if record.Answers == nil {
		record.Answers = map[models.ID][]models.ID{}
	}
	if record.Scored == nil {
		record.Scored = []models.ID{}
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode progress record: %w", err)
	}
	return data, nil
}

// Decode reads a stored record field by field. Fields with the wrong shape fall back to their
// defaults; only input that is not a JSON object is rejected.
func Decode(data []byte) (models.ProgressRecord, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return models.ProgressRecord{}, false
	}

	record := models.ProgressRecord{Answers: map[models.ID][]models.ID{}}

	if n, ok := number(fields["i"]); ok {
		record.Position = position(n)
	}
	if n, ok := number(fields["score"]); ok && n > 0 {
		record.Score = n
	}
	if raw, ok := fields["finished"]; ok {
		var finished bool
		if err := json.Unmarshal(raw, &finished); err == nil {
			record.Finished = finished
		}
	}
	if raw, ok := fields["answers"]; ok {
		record.Answers = answers(raw)
	}
	if raw, ok := fields["scored"]; ok {
		if ids, ok := idList(raw); ok {
			record.Scored = ids
			record.HasScored = true
		}
	}

	return record, true
}

// number accepts JSON numbers and numeric strings, truncated toward zero for positions.
func number(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return finite(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return finite(n)
}

// position saturates n into [0, MaxInt32] before truncating, so oversized values stay large.
func position(n float64) int {
	if n <= 0 {
		return 0
	}
	if n >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

func finite(n float64) (float64, bool) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func answers(raw json.RawMessage) map[models.ID][]models.ID {
	out := map[models.ID][]models.ID{}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return out
	}
	for qid, value := range entries {
		ids, ok := idList(value)
		if !ok || len(ids) == 0 {
			continue
		}
		out[models.NewID(qid)] = ids
	}
	return out
}

// idList decodes an array of ids, skipping elements that are not ids.
func idList(raw json.RawMessage) ([]models.ID, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	ids := make([]models.ID, 0, len(items))
	for _, item := range items {
		var id models.ID
		if err := json.Unmarshal(item, &id); err != nil || id == "" {
			continue
		}
		ids = append(ids, id)
	}
	return ids, true
}
