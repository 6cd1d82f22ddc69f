package domain

// Roles carried in the token "role" claim.
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// Principal is the authenticated caller, resolved once per request.
// It is either an AdminPrincipal or a StudentPrincipal.
type Principal interface {
	Role() string
	principal()
}

// AdminPrincipal is an operator logged in with a username/password.
type AdminPrincipal struct {
	AdminID  int64
	Username string
}

func (AdminPrincipal) Role() string { return RoleAdmin }
func (AdminPrincipal) principal()   {}

// StudentPrincipal holds the ids embedded in a QR-issued student token.
type StudentPrincipal struct {
	StudentID  int64
	ActivityID int64
}

func (StudentPrincipal) Role() string { return RoleStudent }
func (StudentPrincipal) principal()   {}

// CanActAs reports whether p may act for the given student in the given activity.
// Admins may act for anyone.
func CanActAs(p Principal, activityID, studentID int64) bool {
	switch v := p.(type) {
	case AdminPrincipal:
		return true
	case StudentPrincipal:
		return v.StudentID == studentID && v.ActivityID == activityID
	}
	return false
}
