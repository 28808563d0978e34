package domain

// PartnershipState describes where a user stands in the partnership
// workflow. Transitions are one-way: NotApplied -> Applied -> Partner.
type PartnershipState string

const (
	StateNotApplied PartnershipState = "NOT_APPLIED"
	StateApplied    PartnershipState = "APPLIED"
	StatePartner    PartnershipState = "PARTNER"
)
