package game

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/paircade/couples-tournament/internal/models"
)

// Sentinel errors surfaced to clients as the generic error event. Handlers
// branch on ErrPlayerNotFound to tell the client to drop its stored
// credentials.
var (
	ErrNotHost        = errors.New("only the host can do that")
	ErrNameTaken      = errors.New("that name is already taken")
	ErrPlayerNotFound = errors.New("player not found")
	ErrGameStarted    = errors.New("game already started")
	ErrGameEnded      = errors.New("game has ended")
	ErrBadPhase       = errors.New("action not allowed in the current phase")
	ErrAlreadyPaired  = errors.New("player is already on a team")
	ErrNotPaired      = errors.New("player is not on a team")
	ErrNoAnswer       = errors.New("no answer submitted for that player")
	ErrNoTeams        = errors.New("at least one team is required to start")
	ErrUnpairedPlayer = errors.New("all players must be paired before starting")
	ErrBadPoints      = errors.New("points must be zero or positive")
)

// EmptyRoomTTL is how long a room with no connected players survives before
// the OnEmpty callback reaps it.
const EmptyRoomTTL = 5 * time.Minute

// OnEndFunc receives the final leaderboard when a game ends, for result
// persistence and room cleanup.
type OnEndFunc func(g *Game, reason string, leaderboard []map[string]interface{})

// LogActionFunc receives every state-changing action for the history queue.
type LogActionFunc func(gameID uuid.UUID, roomCode string, actionIndex int, actor, actionType string, payload map[string]interface{})

// RoundSpec is the host's description of the next round. Empty Question
// means "draw one from the question bank" (the handler fills it in before
// calling StartRound).
type RoundSpec struct {
	Question      string
	Variant       models.Variant
	Options       []string
	AnswerForBoth bool
}

// Game holds the entire authoritative state for one room: lobby membership,
// team pairings, the current round, answers and scores. All exported methods
// acquire the mutex; unexported helpers assume it is held.
type Game struct {
	ID       uuid.UUID
	RoomCode string
	Phase    Phase
	HostID   uuid.UUID

	// PasscodeHash is an argon2id hash when the host protected the room,
	// empty otherwise. Verification happens in the handler layer.
	PasscodeHash string

	Players map[uuid.UUID]*models.Player
	Teams   map[uuid.UUID]*models.Team

	// pairRequests maps requester -> desired partner. A team forms the
	// moment two requests are mutual.
	pairRequests map[uuid.UUID]uuid.UUID

	RoundNumber  int
	CurrentRound *models.Round
	pastRounds   []*models.Round

	// AnswerTimeLimit force-closes the answering phase when positive.
	AnswerTimeLimit time.Duration
	answerTimer     clockwork.Timer
	answerTimerGen  int
	roundStartedAt  time.Time

	reapTimer clockwork.Timer
	reapGen   int

	Clock clockwork.Clock

	Started  bool
	GameOver bool

	// BroadcastFn sends an event to every connected player. If nil, no
	// broadcast is done.
	BroadcastFn func(msg map[string]interface{})

	// BroadcastToPlayerFn sends an event to a single player.
	BroadcastToPlayerFn func(playerID uuid.UUID, msg map[string]interface{})

	// OnEmpty is called when the room has had no connected players for
	// EmptyRoomTTL, typically wired to the store's Delete.
	OnEmpty func(roomCode string)

	OnEnd       OnEndFunc
	LogActionFn LogActionFunc
	actionIndex int

	Mu sync.Mutex
}

// NewGame builds an empty room in the lobby phase. The room code is assigned
// by the store when the game is registered.
func NewGame(clock clockwork.Clock) *Game {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	id, _ := uuid.NewRandom()
	return &Game{
		ID:           id,
		Phase:        PhaseLobby,
		Players:      make(map[uuid.UUID]*models.Player),
		Teams:        make(map[uuid.UUID]*models.Team),
		pairRequests: make(map[uuid.UUID]uuid.UUID),
		Clock:        clock,
	}
}

// AddHost creates the hosting player. Must be called exactly once, before
// any Join.
func (g *Game) AddHost(name, avatar string) (*models.Player, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.HostID != uuid.Nil {
		return nil, fmt.Errorf("room %s already has a host", g.RoomCode)
	}
	id, _ := uuid.NewRandom()
	host := &models.Player{
		ID:        id,
		Name:      name,
		Avatar:    avatar,
		IsHost:    true,
		Connected: true,
	}
	g.Players[id] = host
	g.HostID = id
	g.logAction(name, "game_create", nil)
	return host, nil
}

// Join adds a new player to the lobby, or reclaims a disconnected identity
// with a matching name. The second return value reports whether this was a
// rejoin. Joining a started game with an unknown name fails with
// ErrPlayerNotFound so the client can invalidate its stored credentials.
func (g *Game) Join(name, avatar string) (*models.Player, bool, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.GameOver {
		return nil, false, ErrGameEnded
	}

	if p := g.playerByName(name); p != nil {
		if p.Connected {
			return nil, false, ErrNameTaken
		}
		// Rejoin: the name is the durable identity.
		p.Connected = true
		if avatar != "" {
			p.Avatar = avatar
		}
		g.cancelReap()
		g.logAction(name, "player_rejoin", nil)
		g.broadcastLobbyUpdate()
		return p, true, nil
	}

	if g.Phase != PhaseLobby {
		return nil, false, ErrPlayerNotFound
	}

	id, _ := uuid.NewRandom()
	p := &models.Player{
		ID:        id,
		Name:      name,
		Avatar:    avatar,
		Connected: true,
	}
	g.Players[id] = p
	g.cancelReap()
	g.logAction(name, "player_join", nil)
	g.broadcastLobbyUpdate()
	return p, false, nil
}

// HandleDisconnect marks a player disconnected but keeps them around so the
// same name can rejoin. The room is reaped if nobody comes back.
func (g *Game) HandleDisconnect(playerID uuid.UUID) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p, ok := g.Players[playerID]
	if !ok || !p.Connected {
		return
	}
	p.Connected = false
	delete(g.pairRequests, playerID)
	log.Printf("room %s: player %s disconnected", g.RoomCode, p.Name)
	g.logAction(p.Name, "player_disconnect", nil)

	g.broadcastLobbyUpdate()

	// A shrinking roster can complete the answering phase.
	if g.Phase == PhaseAnswering && g.allAnswersIn() {
		g.completeAnswering(false)
	}

	if g.countConnected() == 0 {
		g.scheduleReap()
	}
}

// Leave removes a player for good. A leaving host ends the game.
func (g *Game) Leave(playerID uuid.UUID) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p, ok := g.Players[playerID]
	if !ok {
		return
	}
	if p.IsHost {
		log.Printf("room %s: host %s left, ending game", g.RoomCode, p.Name)
		g.endGame("host left the game")
		return
	}

	g.dissolveTeamOf(playerID)
	delete(g.pairRequests, playerID)
	delete(g.Players, playerID)
	g.logAction(p.Name, "player_leave", nil)
	g.broadcastLobbyUpdate()

	if g.Phase == PhaseAnswering && g.allAnswersIn() {
		g.completeAnswering(false)
	}
	if g.countConnected() == 0 {
		g.scheduleReap()
	}
}

// RequestPair registers a pairing intent. When the target has already
// requested the requester, the team forms.
func (g *Game) RequestPair(requesterID, targetID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Phase != PhaseLobby {
		return ErrBadPhase
	}
	requester, ok := g.Players[requesterID]
	if !ok {
		return ErrPlayerNotFound
	}
	target, ok := g.Players[targetID]
	if !ok || !target.Connected {
		return ErrPlayerNotFound
	}
	if requesterID == targetID {
		return fmt.Errorf("cannot pair with yourself")
	}
	if requester.IsHost || target.IsHost {
		return fmt.Errorf("the host does not play on a team")
	}
	if requester.TeamID != uuid.Nil || target.TeamID != uuid.Nil {
		return ErrAlreadyPaired
	}

	g.pairRequests[requesterID] = targetID
	g.logAction(requester.Name, "pair_request", map[string]interface{}{"target": target.Name})

	if g.pairRequests[targetID] == requesterID {
		team := models.NewTeam(requesterID, targetID)
		g.Teams[team.ID] = team
		requester.TeamID = team.ID
		requester.PartnerID = targetID
		target.TeamID = team.ID
		target.PartnerID = requesterID
		delete(g.pairRequests, requesterID)
		delete(g.pairRequests, targetID)
		log.Printf("room %s: team formed: %s + %s", g.RoomCode, requester.Name, target.Name)
		g.logAction(requester.Name, "team_formed", map[string]interface{}{"partner": target.Name})
	}
	g.broadcastLobbyUpdate()
	return nil
}

// Unpair dissolves the caller's team, or withdraws a pending pair request.
func (g *Game) Unpair(playerID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Phase != PhaseLobby {
		return ErrBadPhase
	}
	p, ok := g.Players[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	delete(g.pairRequests, playerID)
	if p.TeamID == uuid.Nil {
		g.broadcastLobbyUpdate()
		return nil
	}
	g.dissolveTeamOf(playerID)
	g.logAction(p.Name, "unpair", nil)
	g.broadcastLobbyUpdate()
	return nil
}

// StartGame moves the room out of the lobby. Requires at least one team and
// that every connected non-host player is paired.
func (g *Game) StartGame(byID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if err := g.requireHost(byID); err != nil {
		return err
	}
	if g.Phase != PhaseLobby {
		return ErrBadPhase
	}
	if len(g.Teams) == 0 {
		return ErrNoTeams
	}
	for _, p := range g.Players {
		if !p.IsHost && p.Connected && p.TeamID == uuid.Nil {
			return ErrUnpairedPlayer
		}
	}

	g.Phase = PhaseRoundSetup
	g.Started = true
	g.logAction(g.Players[byID].Name, "game_start", map[string]interface{}{"teams": len(g.Teams)})
	g.fireEvent(map[string]interface{}{
		"type":   models.EvGameStarted,
		"gameId": g.ID.String(),
		"teams":  g.teamList(),
	})
	return nil
}

// StartRound opens a new question for answering.
func (g *Game) StartRound(byID uuid.UUID, spec RoundSpec) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if err := g.requireHost(byID); err != nil {
		return err
	}
	// Reopening an existing round goes through BackToAnswering, not here.
	if g.Phase != PhaseRoundSetup {
		return ErrBadPhase
	}
	if spec.Question == "" {
		return fmt.Errorf("round needs a question")
	}
	if !models.ValidVariant(spec.Variant) {
		return fmt.Errorf("unknown round variant %q", spec.Variant)
	}

	options := spec.Options
	switch spec.Variant {
	case models.VariantMultipleChoice:
		if len(options) < 2 {
			return fmt.Errorf("multiple_choice rounds need at least two options")
		}
	case models.VariantBinary:
		if len(options) == 0 {
			options = []string{"Yes", "No"}
		}
	case models.VariantPoolSelection:
		if len(options) == 0 {
			options = g.playerNamePool()
		}
	}

	g.RoundNumber++
	round := models.NewRound(g.RoundNumber, spec.Question, spec.Variant, options, spec.AnswerForBoth)
	g.CurrentRound = round
	g.Phase = PhaseAnswering
	g.roundStartedAt = g.Clock.Now()
	g.scheduleAnswerTimer()

	g.logAction(g.Players[byID].Name, "round_start", map[string]interface{}{
		"round":   round.RoundNumber,
		"variant": string(round.Variant),
	})
	ev := map[string]interface{}{
		"type":  models.EvRoundStarted,
		"round": round.Public(),
	}
	if g.AnswerTimeLimit > 0 {
		ev["timeLimitSec"] = int(g.AnswerTimeLimit / time.Second)
	}
	g.fireEvent(ev)
	return nil
}

// SubmitAnswer records a player's answer for the current round. Resubmitting
// before the phase closes replaces the earlier answer.
func (g *Game) SubmitAnswer(playerID uuid.UUID, text string, responseTimeMs int64) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Phase != PhaseAnswering || g.CurrentRound == nil {
		return ErrBadPhase
	}
	p, ok := g.Players[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	if p.IsHost {
		return fmt.Errorf("the host does not answer questions")
	}
	team := g.teamOf(playerID)
	if team == nil {
		return ErrNotPaired
	}

	round := g.CurrentRound
	ans := &models.Answer{Text: text, ResponseTime: responseTimeMs}
	if responseTimeMs <= 0 {
		ans.ResponseTime = g.Clock.Now().Sub(g.roundStartedAt).Milliseconds()
	}

	if round.AnswerForBoth {
		subjects, err := ans.DecodeForBoth()
		if err != nil {
			return err
		}
		partner := g.Players[team.PartnerOf(playerID)]
		for _, name := range []string{p.Name, partner.Name} {
			if _, ok := subjects[name]; !ok {
				return fmt.Errorf("answer must cover both %q and %q", p.Name, partner.Name)
			}
		}
	}

	round.Answers[playerID] = ans
	round.Submitted[playerID] = true
	g.logAction(p.Name, "answer_submit", map[string]interface{}{"round": round.RoundNumber})

	// Everyone sees that (not what) the player answered; the host privately
	// gets the text so the reveal screen can be prepared.
	g.fireEvent(map[string]interface{}{
		"type":     models.EvAnswerSubmitted,
		"playerId": p.ID.String(),
		"name":     p.Name,
		"teamId":   team.ID.String(),
	})
	g.fireEventToPlayer(g.HostID, map[string]interface{}{
		"type":     "hostAnswerPreview",
		"playerId": p.ID.String(),
		"name":     p.Name,
		"teamId":   team.ID.String(),
		"answer":   map[string]interface{}{"text": ans.Text, "responseTime": ans.ResponseTime},
	})

	if g.allAnswersIn() {
		g.completeAnswering(false)
	}
	return nil
}

// RevealAnswer broadcasts a player's submitted answer to the whole room. The
// first reveal moves the game into scoring.
func (g *Game) RevealAnswer(byID, targetPlayerID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if err := g.requireHost(byID); err != nil {
		return err
	}
	if g.Phase != PhaseAllAnswersIn && g.Phase != PhaseScoring {
		return ErrBadPhase
	}
	target, ok := g.Players[targetPlayerID]
	if !ok {
		return ErrPlayerNotFound
	}
	round := g.CurrentRound
	ans, ok := round.Answers[targetPlayerID]
	if !ok {
		return ErrNoAnswer
	}

	if g.Phase == PhaseAllAnswersIn {
		g.Phase = PhaseScoring
	}
	round.Revealed[targetPlayerID] = true
	g.logAction(g.Players[byID].Name, "answer_reveal", map[string]interface{}{"player": target.Name})
	g.fireEvent(map[string]interface{}{
		"type":     models.EvAnswerRevealed,
		"playerId": target.ID.String(),
		"name":     target.Name,
		"teamId":   target.TeamID.String(),
		"answer":   map[string]interface{}{"text": ans.Text, "responseTime": ans.ResponseTime},
	})
	return nil
}

// AwardPoints grants points to a team for the current round. Awarding the
// same team again for the same round replaces the earlier award; that is the
// only way a score decreases.
func (g *Game) AwardPoints(byID, teamID uuid.UUID, points int) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if err := g.requireHost(byID); err != nil {
		return err
	}
	if g.Phase != PhaseScoring && g.Phase != PhaseAllAnswersIn {
		return ErrBadPhase
	}
	if points < 0 {
		return ErrBadPoints
	}
	team, ok := g.Teams[teamID]
	if !ok {
		return fmt.Errorf("unknown team")
	}

	if g.Phase == PhaseAllAnswersIn {
		g.Phase = PhaseScoring
	}
	team.Award(g.RoundNumber, points)
	g.logAction(g.Players[byID].Name, "points_award", map[string]interface{}{
		"team":   team.ID.String(),
		"points": points,
		"round":  g.RoundNumber,
	})
	g.fireEvent(map[string]interface{}{
		"type":        models.EvScoreUpdated,
		"teamId":      team.ID.String(),
		"points":      points,
		"roundNumber": g.RoundNumber,
		"leaderboard": g.leaderboard(),
	})
	return nil
}

// BackToAnswering reopens the current round. Submissions from the closed
// phase survive as recorded answers, but everyone must (re)submit, and any
// points already awarded for this round are revoked.
func (g *Game) BackToAnswering(byID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if err := g.requireHost(byID); err != nil {
		return err
	}
	if !g.Phase.CanTransitionTo(PhaseAnswering) || g.CurrentRound == nil {
		return ErrBadPhase
	}

	revoked := false
	for _, t := range g.Teams {
		if _, ok := t.Awards[g.RoundNumber]; ok {
			t.RevokeRound(g.RoundNumber)
			revoked = true
		}
	}

	g.CurrentRound.Reopen()
	g.Phase = PhaseAnswering
	g.roundStartedAt = g.Clock.Now()
	g.scheduleAnswerTimer()

	g.logAction(g.Players[byID].Name, "round_reopen", map[string]interface{}{"round": g.RoundNumber})
	g.fireEvent(map[string]interface{}{
		"type":  models.EvReturnedToAnswering,
		"round": g.CurrentRound.Public(),
	})
	if revoked {
		g.fireEvent(map[string]interface{}{
			"type":        models.EvScoreUpdated,
			"roundNumber": g.RoundNumber,
			"leaderboard": g.leaderboard(),
		})
	}
	return nil
}

// NextRound archives the current round and returns to round setup.
func (g *Game) NextRound(byID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if err := g.requireHost(byID); err != nil {
		return err
	}
	if !g.Phase.CanTransitionTo(PhaseRoundSetup) {
		return ErrBadPhase
	}

	g.cancelAnswerTimer()
	if g.CurrentRound != nil {
		g.pastRounds = append(g.pastRounds, g.CurrentRound)
		g.CurrentRound = nil
	}
	g.Phase = PhaseRoundSetup
	g.logAction(g.Players[byID].Name, "round_next", map[string]interface{}{"nextRound": g.RoundNumber + 1})
	g.fireEvent(map[string]interface{}{
		"type":            models.EvReadyForNextRound,
		"nextRoundNumber": g.RoundNumber + 1,
		"leaderboard":     g.leaderboard(),
	})
	return nil
}

// EndGame terminates the room explicitly (host action or teardown).
func (g *Game) EndGame(reason string) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.endGame(reason)
}

// endGame is the locked implementation shared by EndGame, Leave and reaping.
func (g *Game) endGame(reason string) {
	if g.GameOver {
		return
	}
	g.GameOver = true
	g.cancelAnswerTimer()
	g.cancelReap()
	if g.CurrentRound != nil {
		g.pastRounds = append(g.pastRounds, g.CurrentRound)
		g.CurrentRound = nil
	}
	g.Phase = PhaseEnded

	board := g.leaderboard()
	g.logAction("", "game_end", map[string]interface{}{"reason": reason})
	ev := map[string]interface{}{
		"type":        models.EvGameEnded,
		"reason":      reason,
		"leaderboard": board,
	}
	if len(board) > 0 {
		ev["winner"] = board[0]["teamId"]
	}
	g.fireEvent(ev)

	if g.OnEnd != nil {
		// Persistence and store cleanup happen outside the lock.
		go g.OnEnd(g, reason, board)
	}
}

// --- queries ---

// DisconnectedPlayers lists identities available for the rejoin picker.
func (g *Game) DisconnectedPlayers() []map[string]interface{} {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	out := []map[string]interface{}{}
	for _, p := range g.sortedPlayers() {
		if !p.Connected {
			out = append(out, p.Public())
		}
	}
	return out
}

// Snapshot builds the full game state payload pushed on join and rejoin.
// The host additionally sees all answers submitted for the current round.
func (g *Game) Snapshot(forPlayerID uuid.UUID) map[string]interface{} {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	players := []map[string]interface{}{}
	for _, p := range g.sortedPlayers() {
		players = append(players, p.Public())
	}

	snap := map[string]interface{}{
		"roomCode":    g.RoomCode,
		"gameId":      g.ID.String(),
		"status":      g.Phase.GameStatus(),
		"phase":       g.Phase.String(),
		"hostId":      g.HostID.String(),
		"players":     players,
		"teams":       g.teamList(),
		"leaderboard": g.leaderboard(),
		"roundNumber": g.RoundNumber,
	}
	if g.CurrentRound != nil {
		round := g.CurrentRound.Public()
		round["submittedCount"] = len(g.CurrentRound.Submitted)
		snap["currentRound"] = round

		if forPlayerID == g.HostID {
			answers := map[string]interface{}{}
			for pid, a := range g.CurrentRound.Answers {
				if p, ok := g.Players[pid]; ok {
					answers[p.Name] = map[string]interface{}{"text": a.Text, "responseTime": a.ResponseTime}
				}
			}
			snap["answers"] = answers
		}
	}
	return snap
}

// ResultsSnapshot copies out what result persistence needs: rounds played,
// the final teams and a player id -> name map.
func (g *Game) ResultsSnapshot() (int, []*models.Team, map[uuid.UUID]string) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	teams := make([]*models.Team, 0, len(g.Teams))
	for _, t := range g.sortedTeams() {
		copied := *t
		teams = append(teams, &copied)
	}
	names := make(map[uuid.UUID]string, len(g.Players))
	for id, p := range g.Players {
		names[id] = p.Name
	}
	return g.RoundNumber, teams, names
}

// --- internals (lock held) ---

func (g *Game) requireHost(id uuid.UUID) error {
	if g.GameOver {
		return ErrGameEnded
	}
	if id != g.HostID {
		return ErrNotHost
	}
	return nil
}

func (g *Game) playerByName(name string) *models.Player {
	for _, p := range g.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (g *Game) teamOf(playerID uuid.UUID) *models.Team {
	p, ok := g.Players[playerID]
	if !ok || p.TeamID == uuid.Nil {
		return nil
	}
	return g.Teams[p.TeamID]
}

func (g *Game) dissolveTeamOf(playerID uuid.UUID) {
	team := g.teamOf(playerID)
	if team == nil {
		return
	}
	for _, id := range []uuid.UUID{team.Player1ID, team.Player2ID} {
		if p, ok := g.Players[id]; ok {
			p.TeamID = uuid.Nil
			p.PartnerID = uuid.Nil
		}
	}
	delete(g.Teams, team.ID)
}

func (g *Game) countConnected() int {
	n := 0
	for _, p := range g.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

func (g *Game) playerNamePool() []string {
	pool := []string{}
	for _, p := range g.sortedPlayers() {
		if !p.IsHost {
			pool = append(pool, p.Name)
		}
	}
	return pool
}

// sortedPlayers returns players in a stable order (host first, then by name)
// so broadcast payloads do not shuffle between events.
func (g *Game) sortedPlayers() []*models.Player {
	out := make([]*models.Player, 0, len(g.Players))
	for _, p := range g.Players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsHost != out[j].IsHost {
			return out[i].IsHost
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (g *Game) teamList() []map[string]interface{} {
	out := []map[string]interface{}{}
	for _, t := range g.sortedTeams() {
		out = append(out, t.Public())
	}
	return out
}

func (g *Game) sortedTeams() []*models.Team {
	out := make([]*models.Team, 0, len(g.Teams))
	for _, t := range g.Teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (g *Game) leaderboard() []map[string]interface{} {
	board := []map[string]interface{}{}
	for _, t := range g.sortedTeams() {
		entry := t.Public()
		names := []string{}
		for _, id := range []uuid.UUID{t.Player1ID, t.Player2ID} {
			if p, ok := g.Players[id]; ok {
				names = append(names, p.Name)
			}
		}
		entry["players"] = names
		board = append(board, entry)
	}
	return board
}

// allAnswersIn reports whether every expected submission for the current
// answering phase has arrived. Disconnected players are excused. When the
// round is answer-for-both, one submission per team suffices.
func (g *Game) allAnswersIn() bool {
	round := g.CurrentRound
	if round == nil || len(g.Teams) == 0 {
		return false
	}
	for _, t := range g.Teams {
		members := []uuid.UUID{t.Player1ID, t.Player2ID}

		anyConnected := false
		for _, id := range members {
			if p, ok := g.Players[id]; ok && p.Connected {
				anyConnected = true
			}
		}
		if !anyConnected {
			continue
		}

		if round.AnswerForBoth {
			submitted := false
			for _, id := range members {
				if round.Submitted[id] {
					submitted = true
				}
			}
			if !submitted {
				return false
			}
			continue
		}
		for _, id := range members {
			p, ok := g.Players[id]
			if ok && p.Connected && !round.Submitted[id] {
				return false
			}
		}
	}
	return true
}

// completeAnswering transitions answering -> allAnswersIn and broadcasts it.
func (g *Game) completeAnswering(timedOut bool) {
	if g.Phase != PhaseAnswering || g.CurrentRound == nil {
		return
	}
	g.cancelAnswerTimer()
	g.Phase = PhaseAllAnswersIn
	g.CurrentRound.Status = models.RoundComplete
	g.logAction("", "all_answers_in", map[string]interface{}{
		"round":    g.CurrentRound.RoundNumber,
		"timedOut": timedOut,
	})
	g.fireEvent(map[string]interface{}{
		"type":        models.EvAllAnswersIn,
		"roundNumber": g.CurrentRound.RoundNumber,
		"answerCount": len(g.CurrentRound.Submitted),
		"timedOut":    timedOut,
	})
}

// scheduleAnswerTimer arms the force-close countdown for the answering
// phase. The generation counter guards against stale callbacks, the same way
// stale turn timers are ignored in a turn-based game.
func (g *Game) scheduleAnswerTimer() {
	g.cancelAnswerTimer()
	if g.AnswerTimeLimit <= 0 {
		return
	}
	g.answerTimerGen++
	gen := g.answerTimerGen
	g.answerTimer = g.Clock.AfterFunc(g.AnswerTimeLimit, func() {
		g.Mu.Lock()
		defer g.Mu.Unlock()
		if g.answerTimerGen != gen || g.Phase != PhaseAnswering {
			return
		}
		log.Printf("room %s: answer timer expired for round %d", g.RoomCode, g.RoundNumber)
		g.completeAnswering(true)
	})
}

func (g *Game) cancelAnswerTimer() {
	g.answerTimerGen++
	if g.answerTimer != nil {
		g.answerTimer.Stop()
		g.answerTimer = nil
	}
}

// scheduleReap arms the empty-room teardown.
func (g *Game) scheduleReap() {
	g.cancelReap()
	g.reapGen++
	gen := g.reapGen
	code := g.RoomCode
	g.reapTimer = g.Clock.AfterFunc(EmptyRoomTTL, func() {
		g.Mu.Lock()
		if g.reapGen != gen || g.countConnected() > 0 || g.GameOver {
			g.Mu.Unlock()
			return
		}
		log.Printf("room %s: empty for %s, reaping", code, EmptyRoomTTL)
		g.endGame("room abandoned")
		onEmpty := g.OnEmpty
		g.Mu.Unlock()
		if onEmpty != nil {
			onEmpty(code)
		}
	})
}

func (g *Game) cancelReap() {
	g.reapGen++
	if g.reapTimer != nil {
		g.reapTimer.Stop()
		g.reapTimer = nil
	}
}

func (g *Game) fireEvent(msg map[string]interface{}) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(msg)
	}
}

func (g *Game) fireEventToPlayer(playerID uuid.UUID, msg map[string]interface{}) {
	if g.BroadcastToPlayerFn == nil {
		return
	}
	if p, ok := g.Players[playerID]; ok && p.Connected {
		g.BroadcastToPlayerFn(playerID, msg)
	}
}

// broadcastLobbyUpdate pushes the current roster and pairings to everyone.
func (g *Game) broadcastLobbyUpdate() {
	players := []map[string]interface{}{}
	for _, p := range g.sortedPlayers() {
		players = append(players, p.Public())
	}
	g.fireEvent(map[string]interface{}{
		"type":    models.EvLobbyUpdate,
		"players": players,
		"teams":   g.teamList(),
		"status":  g.Phase.GameStatus(),
	})
}

func (g *Game) logAction(actor, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if g.LogActionFn != nil {
		g.LogActionFn(g.ID, g.RoomCode, g.actionIndex, actor, actionType, payload)
	}
}
