package handlers

import (
	"net/http"
	"testing"
)

func newGameID(t *testing.T, base string) string {
	t.Helper()
	resp, body := postJSON(t, base+"/new", `{}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("missing game id in %v", body)
	}
	return id
}

// Test that a valid move by the player succeeds.
func TestHandleMoveSuccess(t *testing.T) {
	srv := newTestServer(t)
	id := newGameID(t, srv.URL)

	_, body := postJSON(t, srv.URL+"/move/"+id, `{"from":"e2","to":"e4"}`)
	if !body["ok"].(bool) {
		t.Fatalf("expected move to succeed: %v", body)
	}
	state := body["state"].(map[string]any)
	if state["turn"] != "b" || state["botPending"] != true {
		t.Fatalf("expected bot to be on move, got %v", state)
	}
}

// Test that an illegal move is rejected with the invalid move message.
func TestHandleMoveIllegal(t *testing.T) {
	srv := newTestServer(t)
	id := newGameID(t, srv.URL)

	_, body := postJSON(t, srv.URL+"/move/"+id, `{"uci":"e2e5"}`)
	if body["ok"].(bool) {
		t.Fatalf("expected move to be rejected")
	}
	if body["error"] != "Invalid move" {
		t.Fatalf("unexpected error %v", body["error"])
	}
	if msg := body["state"].(map[string]any)["message"]; msg != "Invalid move" {
		t.Fatalf("expected state message, got %v", msg)
	}
}

// Test that a move is rejected while the bot is to move.
func TestHandleMoveNotYourTurn(t *testing.T) {
	srv := newTestServer(t)
	id := newGameID(t, srv.URL)

	_, _ = postJSON(t, srv.URL+"/move/"+id, `{"uci":"e2e4"}`)
	_, body := postJSON(t, srv.URL+"/move/"+id, `{"uci":"d2d4"}`)
	if body["ok"].(bool) || body["error"] != "not your turn" {
		t.Fatalf("expected not your turn, got %v", body)
	}
}

func TestHandleMoveUnknownGame(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := postJSON(t, srv.URL+"/move/missing", `{"uci":"e2e4"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandleReset(t *testing.T) {
	srv := newTestServer(t)
	id := newGameID(t, srv.URL)
	_, _ = postJSON(t, srv.URL+"/move/"+id, `{"uci":"e2e4"}`)

	_, body := postJSON(t, srv.URL+"/reset/"+id, `{}`)
	state := body["state"].(map[string]any)
	if state["fen"] != startFEN || state["botPending"] != false {
		t.Fatalf("expected fresh game, got %v", state)
	}

	_, body = getJSON(t, srv.URL+"/games/"+id)
	if body["state"].(map[string]any)["fen"] != startFEN {
		t.Fatalf("reset not visible through game endpoint")
	}
}
