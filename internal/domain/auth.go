package domain

// Identity is the resolved caller handed to policy decisions.
type Identity struct {
	UserID   int64
	Role     Role
	IsActive bool
}
