package runtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/clipcasthq/clipcast-backend/internal/types"
	"github.com/google/uuid"
)

// DecodePayload parses the job's payload JSON into a map. Never returns
// nil; a missing or malformed payload yields an empty map and handlers
// fail on their own required-field checks.
func DecodePayload(job *types.Job) map[string]any {
	if job == nil || len(job.Payload) == 0 {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(job.Payload, &m); err != nil {
		return map[string]any{}
	}
	return m
}

// PayloadUUID reads a payload field and parses it as a UUID. Keeps UUID
// validation out of the pipelines.
func PayloadUUID(payload map[string]any, key string) (uuid.UUID, bool) {
	v, ok := payload[key]
	if !ok || v == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(fmt.Sprint(v))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// PayloadString reads a payload field as a trimmed non-empty string.
func PayloadString(payload map[string]any, key string) (string, bool) {
	v, ok := payload[key]
	if !ok || v == nil {
		return "", false
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return "", false
	}
	return s, true
}

// PayloadStrings reads a payload field as a list of non-empty strings.
// JSON arrays decode as []any, so each element goes through fmt.Sprint.
func PayloadStrings(payload map[string]any, key string) []string {
	v, ok := payload[key]
	if !ok || v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s := strings.TrimSpace(fmt.Sprint(item))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// PayloadTime reads a payload field as an RFC3339 timestamp.
func PayloadTime(payload map[string]any, key string) (time.Time, bool) {
	s, ok := PayloadString(payload, key)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
