package model

// Candidate statuses as recorded by the candidate directory. DELIVERED is set
// by fulfillment when a candidate has been handed to a client; the directory
// stops counting them as supply from that point on.
type CandidateStatus string

const (
	CandidateStatusActive    CandidateStatus = "ACTIVE"
	CandidateStatusArchived  CandidateStatus = "ARCHIVED"
	CandidateStatusDelivered CandidateStatus = "DELIVERED"
)
