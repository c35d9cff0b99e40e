package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/coop-arena/internal/config"
	"github.com/vovakirdan/coop-arena/internal/multiplayer"
	"github.com/vovakirdan/coop-arena/internal/world"
)

type testEnv struct {
	srv   *httptest.Server
	coord *multiplayer.Coordinator
	gw    *Gateway
	auth  *HMACValidator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	wc := config.DefaultWorldConfig()
	cfg := multiplayer.DefaultCoordinatorConfig()
	cfg.Seed = 1
	coord := multiplayer.NewCoordinator(cfg, &wc, nil)
	t.Cleanup(coord.Stop)

	auth := NewHMACValidator([]byte("test-secret"))
	gw := New(coord, auth, DefaultConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go gw.Run(ctx)

	srv := httptest.NewServer(gw.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, coord: coord, gw: gw, auth: auth}
}

func (e *testEnv) token(t *testing.T, playerID string) string {
	t.Helper()
	tok, err := e.auth.Issue(playerID, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s failed: %v", data, err)
	}
	return v
}

func (e *testEnv) joined(t *testing.T, players ...string) string {
	t.Helper()
	sid, err := e.coord.CreateSession()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range players {
		if _, err := e.coord.JoinSession(sid, p, p); err != nil {
			t.Fatal(err)
		}
	}
	return sid
}

func TestHTTPStatusCodes(t *testing.T) {
	e := newTestEnv(t)
	sid := e.joined(t, "p1")
	p1 := e.token(t, "p1")
	p2 := e.token(t, "p2")
	p9 := e.token(t, "p9")
	damage := "/api/sessions/" + sid + "/damage"

	tests := []struct {
		name   string
		path   string
		token  string
		body   any
		status int
		flag   string // result flag the body must carry
		ok     bool
	}{
		{"missing token", damage, "", damageRequest{PlayerID: "p1", Amount: 1}, http.StatusUnauthorized, "accepted", false},
		{"bad token", damage, "nope", damageRequest{PlayerID: "p1", Amount: 1}, http.StatusUnauthorized, "accepted", false},
		{"subject mismatch", damage, p2, damageRequest{PlayerID: "p1", Amount: 1}, http.StatusUnauthorized, "accepted", false},
		{"malformed body", damage, p1, "{not json", http.StatusBadRequest, "accepted", false},
		{"missing player", damage, p1, damageRequest{Amount: 1}, http.StatusBadRequest, "accepted", false},
		{"negative amount", damage, p1, damageRequest{PlayerID: "p1", Amount: -5}, http.StatusBadRequest, "accepted", false},
		{"unknown session", "/api/sessions/missing/damage", p1, damageRequest{PlayerID: "p1", Amount: 1}, http.StatusNotFound, "accepted", false},
		{"unknown enemy", "/api/sessions/" + sid + "/enemy-damage", p1, enemyDamageRequest{PlayerID: "p1", EnemyID: "x", Amount: 1}, http.StatusNotFound, "accepted", false},
		{"unknown player respawn", "/api/sessions/" + sid + "/respawn", p9, playerRequest{PlayerID: "p9"}, http.StatusNotFound, "accepted", false},
		{"kill in unknown session", "/api/sessions/missing/kill", p1, killRequest{PlayerID: "p1", EnemyTypeID: "slime"}, http.StatusNotFound, "granted", false},
		{"buff in unknown session", "/api/sessions/missing/buff", p1, buffRequest{PlayerID: "p1", ItemID: "rage-potion"}, http.StatusNotFound, "accepted", false},
		{"upgrade for another player", "/api/players/p1/skills/power/upgrade", p2, nil, http.StatusUnauthorized, "success", false},
		{"ok", damage, p1, damageRequest{PlayerID: "p1", Amount: 1}, http.StatusOK, "accepted", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := e.do(t, http.MethodPost, tt.path, tt.token, tt.body)
			if status != tt.status {
				t.Errorf("status = %d, expected %d (body %s)", status, tt.status, body)
			}
			got := decode[map[string]any](t, body)
			flag, present := got[tt.flag].(bool)
			if !present || flag != tt.ok {
				t.Errorf("%s = %v (present %v), expected %v in %s", tt.flag, flag, present, tt.ok, body)
			}
			if !tt.ok && got["code"] == "" {
				t.Errorf("missing error code in %s", body)
			}
		})
	}
}

func TestHTTPReadErrorsHaveNoResultFlag(t *testing.T) {
	e := newTestEnv(t)
	status, body := e.do(t, http.MethodGet, "/api/sessions/missing/snapshot", e.token(t, "p1"), nil)
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, expected 404", status)
	}
	got := decode[map[string]any](t, body)
	if _, ok := got["accepted"]; ok {
		t.Errorf("snapshot error carries accepted: %s", body)
	}
	if got["code"] != CodeNotFound {
		t.Errorf("code = %v, expected %s", got["code"], CodeNotFound)
	}
}

func TestHTTPDamageThenRespawn(t *testing.T) {
	e := newTestEnv(t)
	tok := e.token(t, "p1")

	status, body := e.do(t, http.MethodPost, "/api/sessions", tok, nil)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	sid := decode[map[string]string](t, body)["sessionId"]
	if _, err := e.coord.JoinSession(sid, "p1", "alice"); err != nil {
		t.Fatal(err)
	}

	status, body = e.do(t, http.MethodPost, "/api/sessions/"+sid+"/damage", tok, damageRequest{PlayerID: "p1", Amount: 1000})
	if status != http.StatusOK {
		t.Fatalf("damage status = %d", status)
	}
	dmg := decode[multiplayer.DamageResult](t, body)
	if !dmg.Accepted || dmg.CurrentHP != 0 {
		t.Errorf("damage = %+v", dmg)
	}

	_, body = e.do(t, http.MethodPost, "/api/sessions/"+sid+"/respawn", tok, playerRequest{PlayerID: "p1"})
	rs := decode[multiplayer.RespawnResult](t, body)
	if !rs.Accepted || rs.CurrentHP != rs.MaxHP || rs.MaxHP == 0 {
		t.Errorf("respawn = %+v", rs)
	}

	_, body = e.do(t, http.MethodPost, "/api/sessions/"+sid+"/kill", tok, killRequest{PlayerID: "p1", EnemyTypeID: "slime"})
	if kill := decode[multiplayer.KillResult](t, body); kill.Granted {
		t.Errorf("kill without credit granted: %+v", kill)
	}

	_, body = e.do(t, http.MethodPost, "/api/sessions/"+sid+"/buff", tok, buffRequest{PlayerID: "p1", ItemID: "rage-potion"})
	if buff := decode[multiplayer.BuffResult](t, body); !buff.Accepted || buff.Stat != "bonus_damage" {
		t.Errorf("buff = %+v", buff)
	}
}

func TestHTTPEnemyDamage(t *testing.T) {
	e := newTestEnv(t)
	sid := e.joined(t, "p1")
	tok := e.token(t, "p1")

	snap, err := e.coord.GetSessionSnapshot(sid)
	if err != nil {
		t.Fatal(err)
	}
	target := snap.Enemies[0]

	_, body := e.do(t, http.MethodPost, "/api/sessions/"+sid+"/enemy-damage", tok,
		enemyDamageRequest{PlayerID: "p1", EnemyID: target.ID, Amount: float64(target.MaxHP) + 10})
	res := decode[multiplayer.EnemyDamageResult](t, body)
	if !res.Accepted || !res.IsDead || res.CurrentHP != 0 {
		t.Errorf("enemy damage = %+v", res)
	}
}

func TestHTTPSkills(t *testing.T) {
	e := newTestEnv(t)
	e.joined(t, "p1")
	tok := e.token(t, "p1")

	status, body := e.do(t, http.MethodGet, "/api/players/p1/skills", tok, nil)
	if status != http.StatusOK {
		t.Fatalf("skills status = %d", status)
	}
	skills := decode[multiplayer.SkillsResult](t, body)
	if len(skills.Skills) != 3 {
		t.Errorf("skills = %+v", skills)
	}

	_, body = e.do(t, http.MethodPost, "/api/players/p1/skills/power/upgrade", tok, nil)
	up := decode[multiplayer.SkillUpgradeResult](t, body)
	if up.Success || up.Message == "" {
		t.Errorf("upgrade without gold = %+v", up)
	}

	if status, _ := e.do(t, http.MethodGet, "/api/players/p2/skills", tok, nil); status != http.StatusUnauthorized {
		t.Errorf("foreign skills status = %d", status)
	}
	p9 := e.token(t, "p9")
	if status, _ := e.do(t, http.MethodGet, "/api/players/p9/skills", p9, nil); status != http.StatusNotFound {
		t.Errorf("unknown player skills status = %d", status)
	}
}

func TestHTTPSnapshotAndHealth(t *testing.T) {
	e := newTestEnv(t)
	sid := e.joined(t, "p1")
	tok := e.token(t, "p1")

	status, body := e.do(t, http.MethodGet, "/api/sessions/"+sid+"/snapshot", tok, nil)
	if status != http.StatusOK {
		t.Fatalf("snapshot status = %d", status)
	}
	snap := decode[world.Snapshot](t, body)
	if snap.SessionID != sid || len(snap.Players) != 1 || snap.Status != "in_progress" {
		t.Errorf("snapshot = %+v", snap)
	}

	status, body = e.do(t, http.MethodGet, "/healthz", "", nil)
	if status != http.StatusOK {
		t.Fatalf("health status = %d", status)
	}
	if h := decode[map[string]any](t, body); h["status"] != "ok" || h["sessions"] != float64(1) {
		t.Errorf("health = %v", h)
	}
}

// websocket helpers

func (e *testEnv) dial(t *testing.T, token, encoding string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws?token=" + token
	if encoding != "" {
		url += "&encoding=" + encoding
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, codec Codec, msg ClientMessage) {
	t.Helper()
	data, err := codec.Encode(msg)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(codec.MessageType(), data); err != nil {
		t.Fatalf("write %s failed: %v", msg.Type, err)
	}
}

func waitFor(t *testing.T, conn *websocket.Conn, codec Codec, pred func(ServerMessage) bool) ServerMessage {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline) //nolint:errcheck // test deadline
		kind, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if kind != codec.MessageType() {
			t.Fatalf("frame type = %d, expected %d", kind, codec.MessageType())
		}
		var msg ServerMessage
		if err := codec.Decode(data, &msg); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if pred(msg) {
			return msg
		}
	}
	t.Fatal("timed out waiting for message")
	return ServerMessage{}
}

func hasPlayer(id string) func(ServerMessage) bool {
	return func(m ServerMessage) bool {
		if m.Type != MsgState || m.Snapshot == nil {
			return false
		}
		_, ok := m.Snapshot.Player(id)
		return ok
	}
}

func TestWebSocketJoinInputState(t *testing.T) {
	e := newTestEnv(t)
	e.coord.Start()
	codec := jsonCodec{}
	conn := e.dial(t, e.token(t, "p1"), "")

	send(t, conn, codec, ClientMessage{Type: MsgJoin, Name: "alice"})
	joined := waitFor(t, conn, codec, hasPlayer("p1"))
	sid := joined.Snapshot.SessionID
	start, _ := joined.Snapshot.Player("p1")
	if start.Name != "alice" {
		t.Errorf("name = %q, expected alice", start.Name)
	}

	send(t, conn, codec, ClientMessage{Type: MsgInput, Seq: 1, MoveX: 1})
	moved := waitFor(t, conn, codec, func(m ServerMessage) bool {
		return m.Type == MsgState && m.Snapshot != nil && m.Snapshot.ConfirmedInputSequence == 1
	})
	p, _ := moved.Snapshot.Player("p1")
	if p.X <= start.X || moved.Snapshot.SessionID != sid {
		t.Errorf("player x %v -> %v in session %s", start.X, p.X, moved.Snapshot.SessionID)
	}

	send(t, conn, codec, ClientMessage{Type: MsgState})
	waitFor(t, conn, codec, hasPlayer("p1"))
}

func TestWebSocketSessionGroup(t *testing.T) {
	e := newTestEnv(t)
	e.coord.Start()
	codec := jsonCodec{}
	sid := e.joined(t)

	a := e.dial(t, e.token(t, "p1"), "")
	send(t, a, codec, ClientMessage{Type: MsgJoin, SessionID: sid})
	waitFor(t, a, codec, hasPlayer("p1"))

	b := e.dial(t, e.token(t, "p2"), "")
	send(t, b, codec, ClientMessage{Type: MsgJoin, SessionID: sid})
	waitFor(t, b, codec, hasPlayer("p1"))

	waitFor(t, a, codec, func(m ServerMessage) bool {
		return m.Type == MsgPlayerJoined && m.PlayerID == "p2"
	})

	b.Close()
	left := waitFor(t, a, codec, func(m ServerMessage) bool {
		return m.Type == MsgPlayerLeft && m.PlayerID == "p2"
	})
	if !left.Disconnected {
		t.Error("expected disconnect, got leave")
	}

	snap, err := e.coord.GetSessionSnapshot(sid)
	if err != nil {
		t.Fatal(err)
	}
	p2, ok := snap.Player("p2")
	if !ok || p2.Connected {
		t.Errorf("p2 after disconnect: present=%v connected=%v", ok, p2.Connected)
	}
}

func TestWebSocketReconnectReplacesOldSocket(t *testing.T) {
	e := newTestEnv(t)
	e.coord.Start()
	codec := jsonCodec{}
	sid := e.joined(t)
	tok := e.token(t, "p1")

	a := e.dial(t, tok, "")
	send(t, a, codec, ClientMessage{Type: MsgJoin, SessionID: sid})
	waitFor(t, a, codec, hasPlayer("p1"))

	b := e.dial(t, tok, "")
	send(t, b, codec, ClientMessage{Type: MsgJoin, SessionID: sid})
	waitFor(t, b, codec, hasPlayer("p1"))

	// The old socket is closed by the server.
	_ = a.SetReadDeadline(time.Now().Add(3 * time.Second)) //nolint:errcheck // test deadline
	for {
		_, _, err := a.ReadMessage()
		if err == nil {
			continue
		}
		if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			t.Errorf("old socket read error = %v, expected normal close", err)
		}
		break
	}
	a.Close()

	deadline := time.Now().Add(3 * time.Second)
	for e.gw.Clients().Count() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := e.gw.Clients().Count(); n != 1 {
		t.Fatalf("clients = %d, expected 1", n)
	}

	snap, err := e.coord.GetSessionSnapshot(sid)
	if err != nil {
		t.Fatal(err)
	}
	p1, ok := snap.Player("p1")
	if !ok || !p1.Connected {
		t.Errorf("p1 after old socket closed: present=%v connected=%v", ok, p1.Connected)
	}

	send(t, b, codec, ClientMessage{Type: MsgState})
	msg := waitFor(t, b, codec, hasPlayer("p1"))
	if p, _ := msg.Snapshot.Player("p1"); !p.Connected {
		t.Error("new socket sees p1 disconnected")
	}
}

func TestWebSocketMsgpack(t *testing.T) {
	e := newTestEnv(t)
	e.coord.Start()
	codec := msgpackCodec{}
	conn := e.dial(t, e.token(t, "p1"), "msgpack")

	send(t, conn, codec, ClientMessage{Type: MsgJoin})
	msg := waitFor(t, conn, codec, hasPlayer("p1"))
	if msg.Snapshot.SectionID != "meadow" || len(msg.Snapshot.Enemies) == 0 {
		t.Errorf("snapshot = %+v", msg.Snapshot)
	}
}

func TestWebSocketErrors(t *testing.T) {
	e := newTestEnv(t)
	codec := jsonCodec{}
	conn := e.dial(t, e.token(t, "p1"), "")

	send(t, conn, codec, ClientMessage{Type: MsgInput, Seq: 1})
	msg := waitFor(t, conn, codec, func(m ServerMessage) bool { return m.Type == MsgError })
	if msg.Code != CodeNotFound {
		t.Errorf("input before join code = %q", msg.Code)
	}

	send(t, conn, codec, ClientMessage{Type: MsgJoin, PlayerID: "someone-else"})
	msg = waitFor(t, conn, codec, func(m ServerMessage) bool { return m.Type == MsgError })
	if msg.Code != CodeUnauthorized {
		t.Errorf("foreign join code = %q", msg.Code)
	}

	send(t, conn, codec, ClientMessage{Type: MsgJoin, SessionID: "missing"})
	msg = waitFor(t, conn, codec, func(m ServerMessage) bool { return m.Type == MsgError })
	if msg.Code != CodeNotFound {
		t.Errorf("unknown session code = %q", msg.Code)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{")); err != nil {
		t.Fatal(err)
	}
	msg = waitFor(t, conn, codec, func(m ServerMessage) bool { return m.Type == MsgError })
	if msg.Code != CodeBadRequest {
		t.Errorf("malformed code = %q", msg.Code)
	}
}

func TestWebSocketHandshakeRejected(t *testing.T) {
	e := newTestEnv(t)
	base := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(base+"?token=bad", nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad token: err=%v resp=%v", err, resp)
	}

	_, resp, err = websocket.DefaultDialer.Dial(base+"?encoding=xml&token="+e.token(t, "p1"), nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad encoding: err=%v resp=%v", err, resp)
	}
}
