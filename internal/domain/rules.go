package domain

import "time"

// Rules are the timing and scoring knobs shared by every game on a server.
type Rules struct {
	ScoreBound           int64
	QuestionTime         time.Duration
	AnswerTime           time.Duration
	ShowAnswerTime       time.Duration
	BiddingTime          time.Duration
	SecretTransferTime   time.Duration
	FinalEliminationTime time.Duration
	FinalBidTime         time.Duration
	FinalAnswerTime      time.Duration
	MinFinalBid          int64
}

// DefaultRules mirrors the config defaults.
func DefaultRules() Rules {
	return Rules{
		ScoreBound:           DefaultScoreBound,
		QuestionTime:         60 * time.Second,
		AnswerTime:           20 * time.Second,
		ShowAnswerTime:       5 * time.Second,
		BiddingTime:          30 * time.Second,
		SecretTransferTime:   30 * time.Second,
		FinalEliminationTime: 30 * time.Second,
		FinalBidTime:         45 * time.Second,
		FinalAnswerTime:      75 * time.Second,
		MinFinalBid:          1,
	}
}

// QuestionTimeFor returns the countdown for a question.
func (r Rules) QuestionTimeFor(q *PackageQuestion) time.Duration {
	if q != nil && q.TimeSeconds > 0 {
		return time.Duration(q.TimeSeconds) * time.Second
	}
	return r.QuestionTime
}
