package bulk

import "github.com/iliyamo/hospital-admin/internal/model"

// Rule partitions a selection before an action runs.  Protected items are
// never touched and are reported as skipped.  Items that are not Eligible
// are left alone silently (activating an already active user).
type Rule[T any] struct {
	Protected func(T) bool
	Eligible  func(T) bool

	ProtectedNoun    string // "admin" in "1 admin skipped"
	ProtectedMessage string // error when only protected items remain
	NoneEligible     string // warning when nothing else is eligible
}

func (r Rule[T]) protected(v T) bool { return r.Protected != nil && r.Protected(v) }
func (r Rule[T]) eligible(v T) bool  { return r.Eligible == nil || r.Eligible(v) }

// AdminDeactivateMessage is the refusal shown for admin accounts.
const AdminDeactivateMessage = "admin accounts cannot be deactivated"

// UserRules: deactivation targets active non-admin accounts and skips
// admins; activation targets inactive accounts.
func UserRules() map[Kind]Rule[model.User] {
	return map[Kind]Rule[model.User]{
		Deactivate: {
			Protected:        model.User.IsAdmin,
			Eligible:         func(u model.User) bool { return u.IsActive },
			ProtectedNoun:    "admin",
			ProtectedMessage: AdminDeactivateMessage,
			NoneEligible:     "no active users selected",
		},
		Activate: {
			Eligible:     func(u model.User) bool { return !u.IsActive },
			NoneEligible: "no inactive users selected",
		},
	}
}
