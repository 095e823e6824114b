package conversation

import (
	"context"
	"errors"
	"testing"

	"kiosk-assistant/internal/audio"
	"kiosk-assistant/internal/cart"
	"kiosk-assistant/internal/kioskapi"
)

type fakeUploader struct {
	env    kioskapi.Envelope
	err    error
	got    kioskapi.Upload
	during func()
}

func (f *fakeUploader) UploadUtterance(ctx context.Context, up kioskapi.Upload) (kioskapi.Envelope, error) {
	f.got = up
	if f.during != nil {
		f.during()
	}
	return f.env, f.err
}

func mustEnvelope(t *testing.T, body string) kioskapi.Envelope {
	t.Helper()
	env, err := kioskapi.DecodeEnvelope([]byte(body))
	if err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return env
}

func TestSubmitBurgerScenario(t *testing.T) {
	up := &fakeUploader{env: mustEnvelope(t, `{"promptMessage":"I want a burger","data":{"prompt_response":"Sure, which one?","action":{"add_item_id":"b2"}}}`)}
	e := NewEngine(up, true, nil)

	var busyDuring bool
	up.during = func() { busyDuring = e.Busy() }

	d, err := e.Submit(context.Background(), "S1", audio.NewClip([]byte("pcm")))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !busyDuring || e.Busy() {
		t.Fatalf("busy indicator wrong: during=%v after=%v", busyDuring, e.Busy())
	}
	if up.got.SessionID != "S1" || !up.got.StartConversation || up.got.FileName != audio.DefaultName {
		t.Fatalf("unexpected upload: %+v", up.got)
	}
	if len(d.Turns) != 2 {
		t.Fatalf("want 2 turns, got %+v", d.Turns)
	}
	if d.Turns[0].Role != RoleUser || d.Turns[0].Text != "I want a burger" {
		t.Fatalf("first turn: %+v", d.Turns[0])
	}
	if d.Turns[1].Role != RoleAssistant || d.Turns[1].Text != "Sure, which one?" {
		t.Fatalf("second turn: %+v", d.Turns[1])
	}
	if id, ok := d.Action.ItemID(); !ok || id != "b2" || d.Action.Finalizes() {
		t.Fatalf("action: %v", d.Action.Kind())
	}
}

func TestSubmitFailureClearsBusy(t *testing.T) {
	up := &fakeUploader{err: kioskapi.ErrMalformedResponse}
	e := NewEngine(up, true, nil)
	d, err := e.Submit(context.Background(), "S1", audio.NewClip([]byte("pcm")))
	if !errors.Is(err, kioskapi.ErrMalformedResponse) {
		t.Fatalf("want malformed error, got %v", err)
	}
	if !d.Empty() {
		t.Fatalf("failed submit must not yield turns: %+v", d)
	}
	if e.Busy() {
		t.Fatalf("busy indicator not cleared after failure")
	}
}

func TestSubmitRejectsEmptyClip(t *testing.T) {
	up := &fakeUploader{}
	e := NewEngine(up, true, nil)
	if _, err := e.Submit(context.Background(), "S1", audio.Clip{}); !errors.Is(err, audio.ErrEmptyClip) {
		t.Fatalf("want ErrEmptyClip, got %v", err)
	}
	if up.got.SessionID != "" {
		t.Fatalf("empty clip was uploaded")
	}
}

func TestDecode(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		turns []Role
		kind  cart.ActionKind
	}{
		{"empty", `{}`, nil, cart.NoAction},
		{"assistant only", `{"data":{"prompt_response":"Hello"}}`, []Role{RoleAssistant}, cart.NoAction},
		{"user only", `{"promptMessage":"hi"}`, []Role{RoleUser}, cart.NoAction},
		{"reply before prompt on the wire", `{"data":{"prompt_response":"B"},"promptMessage":"A"}`, []Role{RoleUser, RoleAssistant}, cart.NoAction},
		{"empty strings", `{"promptMessage":"","data":{"prompt_response":""}}`, nil, cart.NoAction},
		{"finalize", `{"data":{"action":{"finalize_order":1}}}`, nil, cart.Finalize},
		{"finalize zero", `{"data":{"action":{"finalize_order":0}}}`, nil, cart.NoAction},
		{"finalize two", `{"data":{"action":{"finalize_order":2}}}`, nil, cart.NoAction},
		{"both", `{"data":{"action":{"add_item_id":"p1","finalize_order":1}}}`, nil, cart.AddItemAndFinalize},
		{"empty action", `{"data":{"action":{}}}`, nil, cart.NoAction},
		{"finalize true", `{"promptMessage":"done","data":{"prompt_response":"ok","action":{"finalize_order":true}}}`, []Role{RoleUser, RoleAssistant}, cart.NoAction},
		{"finalize string one", `{"data":{"prompt_response":"ok","action":{"finalize_order":"1"}}}`, []Role{RoleAssistant}, cart.NoAction},
		{"finalize unknown string", `{"promptMessage":"done","data":{"prompt_response":"ok","action":{"add_item_id":"b1","finalize_order":"yes"}}}`, []Role{RoleUser, RoleAssistant}, cart.AddItem},
		{"finalize float one", `{"data":{"action":{"finalize_order":1.0}}}`, nil, cart.Finalize},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Decode(mustEnvelope(t, tc.body))
			if len(d.Turns) != len(tc.turns) {
				t.Fatalf("turns: %+v", d.Turns)
			}
			for i, r := range tc.turns {
				if d.Turns[i].Role != r {
					t.Fatalf("turn %d role %s, want %s", i, d.Turns[i].Role, r)
				}
			}
			if d.Action.Kind() != tc.kind {
				t.Fatalf("action %v, want %v", d.Action.Kind(), tc.kind)
			}
		})
	}
}
