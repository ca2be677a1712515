package models

import (
	"time"

	"github.com/google/uuid"
)

type VoteType string

const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

func (v VoteType) Valid() bool {
	return v == Upvote || v == Downvote
}

// VoteAction is what a cast did to the voter's existing vote.
type VoteAction string

const (
	VoteAdded     VoteAction = "added"
	VoteChanged   VoteAction = "changed"
	VoteRetracted VoteAction = "retracted"
)

// Votes holds at most one row per (report, voter).
type Votes struct {
	Model
	ReportID uuid.UUID `json:"report_id" gorm:"type:uuid;not null;uniqueIndex:idx_votes_report_voter"`
	VoterID  uuid.UUID `json:"voter_id" gorm:"type:uuid;not null;uniqueIndex:idx_votes_report_voter"`
	VoteType VoteType  `json:"vote_type" gorm:"type:varchar(16);not null"`
}

// VoteTally is the per-report counter row. Every vote mutation locks it.
type VoteTally struct {
	ReportID  uuid.UUID `json:"report_id" gorm:"type:uuid;primaryKey"`
	Upvotes   int       `json:"upvotes" gorm:"not null;default:0"`
	Downvotes int       `json:"downvotes" gorm:"not null;default:0"`
	UpdatedAt time.Time `json:"updated_at"`
}

type VoteCounts struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// ReachesConsensus is the community verification predicate.
func (c VoteCounts) ReachesConsensus(minUpvotes int) bool {
	return c.Upvotes >= minUpvotes && c.Downvotes == 0
}

type VoteRequest struct {
	ReportID uuid.UUID `json:"-"`
	VoterID  uuid.UUID `json:"-"`
	VoteType VoteType  `json:"voteType" binding:"required" conform:"trim,lower"`
}

type VoteResponse struct {
	Vote      VoteType     `json:"vote"`
	Action    VoteAction   `json:"action"`
	Upvotes   int          `json:"upvotes"`
	Downvotes int          `json:"downvotes"`
	Status    ReportStatus `json:"status"`
}

// VoteResult is what the repository reports back after a cast.
type VoteResult struct {
	Action  VoteAction
	Current VoteType
	Counts  VoteCounts
}

type TallyView struct {
	VoteCounts
	MyVote VoteType `json:"my_vote"`
}

// Apply folds a cast of requested by a voter whose current vote is existing
// ("" for none) into the counts. It returns the new counts, what happened to
// the voter's vote and the vote the voter holds afterwards.
func (c VoteCounts) Apply(existing, requested VoteType) (VoteCounts, VoteAction, VoteType) {
	switch existing {
	case "":
		c.add(requested, 1)
		return c, VoteAdded, requested
	case requested:
		c.add(requested, -1)
		return c, VoteRetracted, ""
	default:
		c.add(existing, -1)
		c.add(requested, 1)
		return c, VoteChanged, requested
	}
}

func (c *VoteCounts) add(v VoteType, n int) {
	switch v {
	case Upvote:
		c.Upvotes = max0(c.Upvotes + n)
	case Downvote:
		c.Downvotes = max0(c.Downvotes + n)
	}
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
