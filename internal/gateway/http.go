package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type damageRequest struct {
	PlayerID string  `json:"playerId"`
	Amount   float64 `json:"amount"`
}

type enemyDamageRequest struct {
	PlayerID string  `json:"playerId"`
	EnemyID  string  `json:"enemyId"`
	Amount   float64 `json:"amount"`
}

type killRequest struct {
	PlayerID    string `json:"playerId"`
	EnemyTypeID string `json:"enemyTypeId"`
}

type playerRequest struct {
	PlayerID string `json:"playerId"`
}

type buffRequest struct {
	PlayerID string `json:"playerId"`
	ItemID   string `json:"itemId"`
}

// outcome names the flag a transactional result reports success with.
// Failures of those endpoints carry the flag set to false so callers read
// them as the ordinary rejected result.
type outcome int

const (
	outcomeNone outcome = iota
	outcomeAccepted
	outcomeGranted
	outcomeSuccess
)

type errorBody struct {
	Accepted *bool  `json:"accepted,omitempty"`
	Granted  *bool  `json:"granted,omitempty"`
	Success  *bool  `json:"success,omitempty"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

type sessionBody struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	SectionID string `json:"sectionId"`
	Players   int    `json:"players"`
	Connected int    `json:"connected"`
	Enemies   int    `json:"enemies"`
	Version   uint64 `json:"version"`
	Tick      uint64 `json:"tick"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}

func writeError(w http.ResponseWriter, o outcome, status int, code, message string) {
	body := errorBody{Code: code, Message: message}
	rejected := false
	switch o {
	case outcomeAccepted:
		body.Accepted = &rejected
	case outcomeGranted:
		body.Granted = &rejected
	case outcomeSuccess:
		body.Success = &rejected
	}
	writeJSON(w, status, body)
}

// writeErr maps coordinator errors to HTTP statuses.
func writeErr(w http.ResponseWriter, o outcome, err error) {
	status := http.StatusInternalServerError
	switch errorCode(err) {
	case CodeNotFound:
		status = http.StatusNotFound
	case CodeUnauthorized:
		status = http.StatusUnauthorized
	case CodeInvalidInput, CodeStale:
		status = http.StatusBadRequest
	case CodeEnded:
		status = http.StatusConflict
	}
	writeError(w, o, status, errorCode(err), err.Error())
}

// authenticate validates the bearer token and returns its subject.
func (g *Gateway) authenticate(w http.ResponseWriter, r *http.Request, o outcome) (string, bool) {
	subject, err := g.auth.Validate(bearerToken(r))
	if err != nil {
		writeError(w, o, http.StatusUnauthorized, CodeUnauthorized, "invalid token")
		return "", false
	}
	return subject, true
}

// authorize checks that the token was issued for playerID.
func authorize(w http.ResponseWriter, o outcome, subject, playerID string) bool {
	if playerID == "" {
		writeError(w, o, http.StatusBadRequest, CodeBadRequest, "missing playerId")
		return false
	}
	if subject != playerID {
		writeError(w, o, http.StatusUnauthorized, CodeUnauthorized, fmt.Sprintf("token is not valid for player %s", playerID))
		return false
	}
	return true
}

// decodeRequest authenticates, decodes the JSON body into v and authorizes
// the player id it names.
func (g *Gateway) decodeRequest(w http.ResponseWriter, r *http.Request, o outcome, v any, playerID func() string) bool {
	subject, ok := g.authenticate(w, r, o)
	if !ok {
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, g.cfg.MaxMessageSize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, o, http.StatusBadRequest, CodeBadRequest, "malformed body")
		return false
	}
	return authorize(w, o, subject, playerID())
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": g.coord.SessionCount(),
		"clients":  g.clients.Count(),
	})
}

func (g *Gateway) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if _, ok := g.authenticate(w, r, outcomeNone); !ok {
		return
	}
	list := g.coord.Sessions()
	out := make([]sessionBody, 0, len(list))
	for _, s := range list {
		out = append(out, sessionBody{
			ID:        s.ID,
			Status:    s.Status,
			SectionID: s.SectionID,
			Players:   s.Players,
			Connected: s.Connected,
			Enemies:   s.Enemies,
			Version:   s.Version,
			Tick:      s.Tick,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (g *Gateway) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := g.authenticate(w, r, outcomeNone); !ok {
		return
	}
	id, err := g.coord.CreateSession()
	if err != nil {
		g.logger.Error("create session failed", "error", err)
		writeErr(w, outcomeNone, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"sessionId": id})
}

func (g *Gateway) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	subject, ok := g.authenticate(w, r, outcomeNone)
	if !ok {
		return
	}
	snap, err := g.coord.GetSessionSnapshot(r.PathValue("id"))
	if err != nil {
		writeErr(w, outcomeNone, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.ForPlayer(subject))
}

func (g *Gateway) handleDamage(w http.ResponseWriter, r *http.Request) {
	var req damageRequest
	if !g.decodeRequest(w, r, outcomeAccepted, &req, func() string { return req.PlayerID }) {
		return
	}
	res, err := g.coord.ReportDamage(r.PathValue("id"), req.PlayerID, req.Amount)
	if err != nil {
		writeErr(w, outcomeAccepted, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (g *Gateway) handleEnemyDamage(w http.ResponseWriter, r *http.Request) {
	var req enemyDamageRequest
	if !g.decodeRequest(w, r, outcomeAccepted, &req, func() string { return req.PlayerID }) {
		return
	}
	res, err := g.coord.ReportEnemyDamage(r.PathValue("id"), req.PlayerID, req.EnemyID, req.Amount)
	if err != nil {
		writeErr(w, outcomeAccepted, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (g *Gateway) handleKill(w http.ResponseWriter, r *http.Request) {
	var req killRequest
	if !g.decodeRequest(w, r, outcomeGranted, &req, func() string { return req.PlayerID }) {
		return
	}
	res, err := g.coord.ReportKill(r.PathValue("id"), req.PlayerID, req.EnemyTypeID)
	if err != nil {
		writeErr(w, outcomeGranted, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (g *Gateway) handleRespawn(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !g.decodeRequest(w, r, outcomeAccepted, &req, func() string { return req.PlayerID }) {
		return
	}
	res, err := g.coord.Respawn(r.PathValue("id"), req.PlayerID)
	if err != nil {
		writeErr(w, outcomeAccepted, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (g *Gateway) handleBuff(w http.ResponseWriter, r *http.Request) {
	var req buffRequest
	if !g.decodeRequest(w, r, outcomeAccepted, &req, func() string { return req.PlayerID }) {
		return
	}
	res, err := g.coord.UseItemBuff(r.PathValue("id"), req.PlayerID, req.ItemID)
	if err != nil {
		writeErr(w, outcomeAccepted, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (g *Gateway) handleSkills(w http.ResponseWriter, r *http.Request) {
	subject, ok := g.authenticate(w, r, outcomeNone)
	if !ok {
		return
	}
	playerID := r.PathValue("id")
	if !authorize(w, outcomeNone, subject, playerID) {
		return
	}
	res, err := g.coord.GetSkills(playerID)
	if err != nil {
		writeErr(w, outcomeNone, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (g *Gateway) handleUpgradeSkill(w http.ResponseWriter, r *http.Request) {
	subject, ok := g.authenticate(w, r, outcomeSuccess)
	if !ok {
		return
	}
	playerID := r.PathValue("id")
	if !authorize(w, outcomeSuccess, subject, playerID) {
		return
	}
	res, err := g.coord.UpgradeSkill(playerID, r.PathValue("skill"))
	if err != nil {
		writeErr(w, outcomeSuccess, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
