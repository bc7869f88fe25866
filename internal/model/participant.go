package model

// Participant is a registered end user. Handle is the stable numeric identity
// assigned by the front-end (e.g. a messenger user id).
//
// swagger:model Participant
type Participant struct {
	BaseModel
	Handle   int64   `gorm:"uniqueIndex;not null" json:"handle"`
	Username string  `gorm:"size:100" json:"username"`
	FullName string  `gorm:"size:200;not null" json:"fullName"`
	Region   *string `gorm:"size:100" json:"region,omitempty"`
}

func (Participant) TableName() string {
	return "participants"
}

func (p *Participant) DisplayUsername() string {
	if p.Username == "" {
		return "N/A"
	}
	return "@" + p.Username
}
