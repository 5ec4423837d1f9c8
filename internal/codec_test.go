package internal

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/acni-chat/testutil"
)

func TestEncodeConversations_Empty(t *testing.T) {
	got, err := EncodeConversations(nil)
	if err != nil {
		t.Fatalf("EncodeConversations() error = %v", err)
	}
	if got != "[]" {
		t.Errorf("EncodeConversations(nil) = %q, want []", got)
	}
}

func TestConversationsRoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 1, 8, 0, 0, 123456789, time.UTC)
	convs := []Conversation{
		*CreateTestConversation("b"),
		{
			ID:        "a",
			Title:     DefaultTitle,
			Messages:  []Message{},
			CreatedAt: created,
			UpdatedAt: created,
		},
	}

	encoded, err := EncodeConversations(convs)
	if err != nil {
		t.Fatalf("EncodeConversations() error = %v", err)
	}
	for _, key := range []string{`"createdAt"`, `"updatedAt"`, `"role":"user"`} {
		if !strings.Contains(encoded, key) {
			t.Errorf("encoded document should contain %s, got %s", key, encoded)
		}
	}

	decoded, err := DecodeConversations(StorageKey, encoded)
	if err != nil {
		t.Fatalf("DecodeConversations() error = %v", err)
	}
	if len(decoded) != len(convs) {
		t.Fatalf("len(decoded) = %d, want %d", len(decoded), len(convs))
	}

	for i := range convs {
		want, got := convs[i], decoded[i]
		if got.ID != want.ID || got.Title != want.Title {
			t.Errorf("conversation %d = (%s, %s), want (%s, %s)", i, got.ID, got.Title, want.ID, want.Title)
		}
		if !got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
			t.Errorf("conversation %d timestamps changed: %v/%v vs %v/%v", i, got.CreatedAt, got.UpdatedAt, want.CreatedAt, want.UpdatedAt)
		}
		if len(got.Messages) != len(want.Messages) {
			t.Fatalf("conversation %d has %d messages, want %d", i, len(got.Messages), len(want.Messages))
		}
		for j := range want.Messages {
			gm, wm := got.Messages[j], want.Messages[j]
			if gm.ID != wm.ID || gm.Role != wm.Role || gm.Content != wm.Content || !gm.Timestamp.Equal(wm.Timestamp) {
				t.Errorf("message %d/%d = %+v, want %+v", i, j, gm, wm)
			}
		}
	}
}

func TestDecodeConversations_Fixture(t *testing.T) {
	convs, err := DecodeConversations(StorageKey, testutil.SampleConversationsJSON)
	if err != nil {
		t.Fatalf("DecodeConversations() error = %v", err)
	}
	if len(convs) != 2 || convs[0].ID != "conv-2" || convs[1].ID != "conv-1" {
		t.Fatalf("DecodeConversations() = %v, want [conv-2 conv-1]", convs)
	}
	want := time.Date(2024, 5, 2, 10, 0, 2, 0, time.UTC)
	if !convs[0].Messages[1].Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", convs[0].Messages[1].Timestamp, want)
	}
}

func TestDecodeConversations_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "not json", value: "{not json"},
		{name: "wrong shape", value: `{"id":"a"}`},
		{name: "missing id", value: `[{"title":"x","messages":[]}]`},
		{name: "duplicate id", value: `[{"id":"a","messages":[]},{"id":"a","messages":[]}]`},
		{name: "unknown role", value: `[{"id":"a","messages":[{"id":"m","role":"system","content":"x"}]}]`},
		{name: "bad timestamp", value: `[{"id":"a","createdAt":"yesterday","messages":[]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeConversations(StorageKey, tt.value)
			if err == nil {
				t.Fatal("DecodeConversations() should fail")
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Errorf("error = %T, want *ParseError", err)
			}
		})
	}
}

func TestDecodeConversations_NilMessages(t *testing.T) {
	convs, err := DecodeConversations(StorageKey, `[{"id":"a","title":"New Chat","messages":null}]`)
	if err != nil {
		t.Fatalf("DecodeConversations() error = %v", err)
	}
	if convs[0].Messages == nil {
		t.Error("Messages should be an empty slice, not nil")
	}
}
