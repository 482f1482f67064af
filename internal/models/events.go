package models

// Client -> server message types. These mirror the vocabulary the browser
// client emits on its realtime channel.
const (
	MsgCreateGame             = "createGame"
	MsgJoinGame               = "joinGame"
	MsgCheckRoomStatus        = "checkRoomStatus"
	MsgGetDisconnectedPlayers = "getDisconnectedPlayers"
	MsgRequestPair            = "requestPair"
	MsgUnpair                 = "unpair"
	MsgStartGame              = "startGame"
	MsgStartRound             = "startRound"
	MsgSubmitAnswer           = "submitAnswer"
	MsgRevealAnswer           = "revealAnswer"
	MsgAwardPoints            = "awardPoints"
	MsgNextRound              = "nextRound"
	MsgBackToAnswering        = "backToAnswering"
	MsgLeaveGame              = "leaveGame"
)

// Server -> client event types.
const (
	EvGameCreated          = "gameCreated"
	EvRoomStatus           = "roomStatus"
	EvDisconnectedPlayers  = "disconnectedPlayers"
	EvJoinSuccess          = "joinSuccess"
	EvLobbyUpdate          = "lobbyUpdate"
	EvGameStarted          = "gameStarted"
	EvRoundStarted         = "roundStarted"
	EvAnswerSubmitted      = "answerSubmitted"
	EvAllAnswersIn         = "allAnswersIn"
	EvAnswerRevealed       = "answerRevealed"
	EvScoreUpdated         = "scoreUpdated"
	EvReadyForNextRound    = "readyForNextRound"
	EvReturnedToAnswering  = "returnedToAnswering"
	EvGameEnded            = "gameEnded"
	EvError                = "error"
)
