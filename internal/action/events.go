package action

// Event is an outbound socket event name.
type Event string

const (
	EventError              Event = "error"
	EventJoinAck            Event = "game:joined"
	EventPlayerJoined       Event = "player:joined"
	EventPlayerLeft         Event = "player:left"
	EventPlayerKicked       Event = "player:kicked"
	EventPlayerReady        Event = "player:ready"
	EventPlayerUnready      Event = "player:unready"
	EventPlayerScoreChanged Event = "player:score_changed"
	EventPlayerSlotChanged  Event = "player:slot_changed"
	EventTurnPlayerChanged  Event = "turn:changed"
	EventGameStarted        Event = "game:started"
	EventGamePaused         Event = "game:paused"
	EventGameUnpaused       Event = "game:unpaused"
	EventGameFinished       Event = "game:finished"
	EventRoundStarted       Event = "round:started"
	EventQuestionData       Event = "question:data"
	EventQuestionFinished   Event = "question:finished"
	EventChoosing           Event = "question:choosing"
	EventAnswerRequested    Event = "answer:requested"
	EventAnswerSubmitted    Event = "answer:submitted"
	EventAnswerResult       Event = "answer:result"
	EventQuestionSkipped    Event = "question:skipped"
	EventStakePicked        Event = "stake:picked"
	EventStakeBid           Event = "stake:bid"
	EventStakeWinner        Event = "stake:winner"
	EventSecretPicked       Event = "secret:picked"
	EventSecretTransferred  Event = "secret:transferred"
	EventFinalThemeRemoved  Event = "final:theme_eliminated"
	EventFinalPhaseChanged  Event = "final:phase_changed"
	EventFinalBidSubmitted  Event = "final:bid_submitted"
	EventFinalAnswerSubmit  Event = "final:answer_submitted"
	EventFinalAnswerReview  Event = "final:answer_reviewed"
)
