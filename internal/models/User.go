package models

import "time"

type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
)

// AdminLevel is the jurisdiction an admin is allowed to see:
// L1 is a ward, L2 a zone, L3 the whole city.
type AdminLevel string

const (
	AdminLevelWard AdminLevel = "L1"
	AdminLevelZone AdminLevel = "L2"
	AdminLevelCity AdminLevel = "L3"
)

func (l AdminLevel) Valid() bool {
	switch l {
	case AdminLevelWard, AdminLevelZone, AdminLevelCity:
		return true
	}
	return false
}

type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name      string    `json:"name"`
	Email     string    `json:"email" gorm:"uniqueIndex"`
	Password  string    `json:"password"` // bcrypt hash, never returned by the API
	Role      Role      `json:"role" gorm:"type:varchar(16);index"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`

	// Admin-only jurisdiction metadata.
	AdminLevel   AdminLevel `json:"adminLevel,omitempty" gorm:"type:varchar(4)"`
	AssignedArea string     `json:"assignedArea,omitempty"`
	AssignedZone string     `json:"assignedZone,omitempty"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
