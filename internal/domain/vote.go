package domain

// Vote is an approve/reject ballot on a proposed team
type Vote string

const (
	VoteApprove Vote = "APPROVE"
	VoteReject  Vote = "REJECT"
)

// Valid returns true for the two recognized vote values
func (v Vote) Valid() bool {
	return v == VoteApprove || v == VoteReject
}

// Ballot is a success/fail card played by a mission team member
type Ballot string

const (
	BallotSuccess Ballot = "SUCCESS"
	BallotFail    Ballot = "FAIL"
)

// Valid returns true for the two recognized ballot values
func (b Ballot) Valid() bool {
	return b == BallotSuccess || b == BallotFail
}

// TeamVoteResult is the public tally of a resolved proposal vote.
// Individual votes are never exposed, only the counts.
type TeamVoteResult struct {
	Round      int  `json:"round"`
	Approvals  int  `json:"approvals"`
	Rejections int  `json:"rejections"`
	Approved   bool `json:"approved"`
	VoteTrack  int  `json:"voteTrack"` // consecutive rejections after this vote
}
