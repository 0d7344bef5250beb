package model

import "time"

// Roles an annotator account may hold.  The value is carried in the
// access token's "role" claim and checked by RequireRole.
const (
    RoleAnnotator = "annotator"
    RoleAdmin     = "admin"
)

// Annotator represents a registered account as stored in the `users`
// table.  The numeric ID is drawn at registration by the identity
// generator (3 digits) and is never reused.  Deleting an annotator
// leaves their annotation records in place.
//
// Fields:
//  ID           – users.annotator_id, unique 3-digit identifier.
//  Name         – unique display name.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hash; never serialized.
//  Role         – annotator or admin.
//  CreatedAt    – timestamp of registration.
//  UpdatedAt    – timestamp of the last role or credential change.
type Annotator struct {
    ID           int64     `db:"annotator_id" json:"Annotator_ID"`
    Name         string    `db:"name" json:"name"`
    Email        string    `db:"email" json:"email"`
    PasswordHash string    `db:"password_hash" json:"-"`
    Role         string    `db:"role" json:"userType"`
    CreatedAt    time.Time `db:"created_at" json:"createdAt"`
    UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// IsAdmin reports whether the account carries the admin role.
func (a Annotator) IsAdmin() bool { return a.Role == RoleAdmin }
