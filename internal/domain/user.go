package domain

// User is a pre-provisioned account. The core treats user rows as read-only;
// provisioning happens outside it. Role is kept raw here and validated against
// the closed set at login time.
type User struct {
	ID           int64
	Username     string
	Role         string
	PasswordHash string
}
