package models

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// ProfessionalCredential is the licensing record a doctor registers with.
type ProfessionalCredential struct {
	Board       string `bson:"board" json:"board"`
	BoardNumber string `bson:"boardNumber" json:"boardNumber"`
	Profession  string `bson:"profession" json:"profession"`
}

type GeoPoint struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// Account is a user record in the users collection. The id is assigned by the
// credential store and is the only stable identity.
type Account struct {
	ID            string                  `bson:"_id" json:"id"`
	Email         string                  `bson:"email" json:"email"`
	Name          string                  `bson:"name" json:"name"`
	LastName      string                  `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Role          Role                    `bson:"role" json:"role"`
	Phone         string                  `bson:"phone,omitempty" json:"phone,omitempty"`
	Address       string                  `bson:"address,omitempty" json:"address,omitempty"`
	ClinicAddress string                  `bson:"clinicAddress,omitempty" json:"clinicAddress,omitempty"`
	Location      *GeoPoint               `bson:"location,omitempty" json:"location,omitempty"`
	CSSP          *ProfessionalCredential `bson:"cssp,omitempty" json:"cssp,omitempty"`
	Verified      bool                    `bson:"verified" json:"verified"`
	Rejected      bool                    `bson:"rejected,omitempty" json:"rejected,omitempty"`
	ReviewStatus  string                  `bson:"reviewStatus,omitempty" json:"reviewStatus,omitempty"`
	CreatedAt     time.Time               `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// IsDoctor reports whether the account takes part in the verification workflow.
func (a *Account) IsDoctor() bool { return a.Role == RoleDoctor }

// IsAdmin reports whether the account may use the dashboard.
func (a *Account) IsAdmin() bool { return a.Role == RoleAdmin }

// Verification derives the workflow state from the stored flags.
func (a *Account) Verification() VerificationState {
	return StateFromFlags(a.Verified, a.Rejected)
}

// Fields is a partial update keyed by stored field name.
type Fields map[string]any

// ProfileUpdate carries the editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Name          *string `json:"name" binding:"omitempty,min=1,max=120"`
	LastName      *string `json:"lastName" binding:"omitempty,max=120"`
	Phone         *string `json:"phone" binding:"omitempty,max=40"`
	Address       *string `json:"address" binding:"omitempty,max=300"`
	ClinicAddress *string `json:"clinicAddress" binding:"omitempty,max=300"`
	ReviewStatus  *string `json:"reviewStatus" binding:"omitempty,max=300"`
}

// Fields converts the update into stored field names, skipping nil values.
func (p ProfileUpdate) Fields() Fields {
	out := Fields{}
	set := func(key string, v *string) {
		if v != nil {
			out[key] = *v
		}
	}
	set("name", p.Name)
	set("lastName", p.LastName)
	set("phone", p.Phone)
	set("address", p.Address)
	set("clinicAddress", p.ClinicAddress)
	set("reviewStatus", p.ReviewStatus)
	return out
}

// Identity is an authenticated credential as seen by the dashboard.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}
