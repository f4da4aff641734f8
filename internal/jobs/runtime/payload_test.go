package runtime

import (
	"testing"
	"time"

	"github.com/clipcasthq/clipcast-backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

func TestDecodePayloadNeverNil(t *testing.T) {
	if m := DecodePayload(nil); m == nil || len(m) != 0 {
		t.Fatalf("nil job: want empty map, got %v", m)
	}
	if m := DecodePayload(&types.Job{}); m == nil || len(m) != 0 {
		t.Fatalf("empty payload: want empty map, got %v", m)
	}
	broken := &types.Job{Payload: datatypes.JSON([]byte("{not json"))}
	if m := DecodePayload(broken); m == nil || len(m) != 0 {
		t.Fatalf("malformed payload: want empty map, got %v", m)
	}

	good := &types.Job{Payload: datatypes.JSON([]byte(`{"platform":"tiktok"}`))}
	if got, ok := PayloadString(DecodePayload(good), "platform"); !ok || got != "tiktok" {
		t.Fatalf("platform: want=tiktok got=%q ok=%v", got, ok)
	}
}

func TestPayloadUUID(t *testing.T) {
	id := uuid.New()
	payload := map[string]any{"clip_id": id.String(), "bad": "not-a-uuid"}

	got, ok := PayloadUUID(payload, "clip_id")
	if !ok || got != id {
		t.Fatalf("clip_id: want=%s got=%s ok=%v", id, got, ok)
	}
	if _, ok := PayloadUUID(payload, "bad"); ok {
		t.Fatalf("garbage value must not parse as a UUID")
	}
	if _, ok := PayloadUUID(payload, "missing"); ok {
		t.Fatalf("missing key must report a miss")
	}
}

func TestPayloadString(t *testing.T) {
	payload := map[string]any{"origin": "  manual  ", "blank": "   "}
	if got, ok := PayloadString(payload, "origin"); !ok || got != "manual" {
		t.Fatalf("origin: want=manual got=%q ok=%v", got, ok)
	}
	if _, ok := PayloadString(payload, "blank"); ok {
		t.Fatalf("whitespace-only value must report a miss")
	}
	if _, ok := PayloadString(payload, "missing"); ok {
		t.Fatalf("missing key must report a miss")
	}
}

func TestPayloadStrings(t *testing.T) {
	payload := map[string]any{
		"platforms": []any{"tiktok", "", "  ", "youtube"},
		"scalar":    "tiktok",
	}
	got := PayloadStrings(payload, "platforms")
	if len(got) != 2 || got[0] != "tiktok" || got[1] != "youtube" {
		t.Fatalf("platforms: want=[tiktok youtube] got=%v", got)
	}
	if got := PayloadStrings(payload, "scalar"); got != nil {
		t.Fatalf("non-list value: want nil, got %v", got)
	}
}

func TestPayloadTime(t *testing.T) {
	slot := time.Date(2026, 9, 14, 20, 0, 0, 0, time.UTC)
	payload := map[string]any{"force_slot": slot.Format(time.RFC3339), "bad": "yesterday"}

	got, ok := PayloadTime(payload, "force_slot")
	if !ok || !got.Equal(slot) {
		t.Fatalf("force_slot: want=%v got=%v ok=%v", slot, got, ok)
	}
	if _, ok := PayloadTime(payload, "bad"); ok {
		t.Fatalf("unparseable timestamp must report a miss")
	}
}
