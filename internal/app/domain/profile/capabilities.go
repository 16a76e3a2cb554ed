package profile

// Capability names one action the service layer gates on role.
type Capability int

const (
	// CapViewApproved: browse the published catalog.
	CapViewApproved Capability = iota
	// CapViewUnpublished: see pending and rejected entries.
	CapViewUnpublished
	// CapManageEntries: create, edit, and delete catalog entries.
	CapManageEntries
	// CapSetEntryStatus: move an entry between moderation states.
	CapSetEntryStatus
	// CapSubmitReview: submit or replace one's own review.
	CapSubmitReview
	// CapManageProfiles: list profiles and change any profile's role.
	CapManageProfiles
	// CapDeleteAccounts: delete another user's account.
	CapDeleteAccounts
)

// capabilities is the single declarative table consulted by the service
// layer. Client-side routing may mirror it for UX but is never trusted.
var capabilities = map[Role]map[Capability]bool{
	RoleVisitor: {
		CapViewApproved: true,
	},
	RoleUser: {
		CapViewApproved: true,
		CapSubmitReview: true,
	},
	RoleDev: {
		CapViewApproved:    true,
		CapViewUnpublished: true,
		CapManageEntries:   true,
		CapSubmitReview:    true,
	},
	RoleAdmin: {
		CapViewApproved:    true,
		CapViewUnpublished: true,
		CapManageEntries:   true,
		CapSetEntryStatus:  true,
		CapSubmitReview:    true,
		CapManageProfiles:  true,
		CapDeleteAccounts:  true,
	},
}

// Allows reports whether role grants cap. Unknown roles get the visitor set.
func Allows(role Role, cap Capability) bool {
	set, ok := capabilities[role]
	if !ok {
		set = capabilities[RoleVisitor]
	}
	return set[cap]
}

// Can reports whether the identity's role grants cap.
func (i Identity) Can(cap Capability) bool {
	if i.IsVisitor() {
		return Allows(RoleVisitor, cap)
	}
	return Allows(i.Role, cap)
}
