package domain

// StakeBidType is the kind of a stake auction bid.
type StakeBidType string

const (
	StakeBidNormal StakeBidType = "normal"
	StakeBidAllIn  StakeBidType = "all_in"
	StakeBidPass   StakeBidType = "pass"
)

// StakeBid is a validated bid. Build it with NewStakeBid.
type StakeBid struct {
	playerID int64
	bidType  StakeBidType
	amount   int64
}

// NewStakeBid validates a bid against the bidder's score and the current
// highest bid. minBid is the opening minimum used while nobody has bid yet.
func NewStakeBid(playerID int64, bidType StakeBidType, amount int64, score PlayerScore, highest *int64, minBid int64) (StakeBid, error) {
	switch bidType {
	case StakeBidPass:
		return StakeBid{playerID: playerID, bidType: StakeBidPass}, nil
	case StakeBidAllIn:
		amount = score.Value()
		if amount <= 0 {
			return StakeBid{}, ErrInsufficientScore
		}
	case StakeBidNormal:
		if amount <= 0 {
			return StakeBid{}, ErrInvalidBid
		}
		if !score.CanAfford(amount) {
			return StakeBid{}, ErrInsufficientScore
		}
		if highest == nil && amount < minBid {
			return StakeBid{}, ErrBidTooLow
		}
	default:
		return StakeBid{}, ErrInvalidBid
	}

	if highest != nil && amount <= *highest {
		return StakeBid{}, ErrBidTooLow
	}
	return StakeBid{playerID: playerID, bidType: bidType, amount: amount}, nil
}

func (b StakeBid) PlayerID() int64 { return b.playerID }

func (b StakeBid) Type() StakeBidType { return b.bidType }

func (b StakeBid) Amount() int64 { return b.amount }

func (b StakeBid) IsPass() bool { return b.bidType == StakeBidPass }
