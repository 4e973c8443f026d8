package models

import "time"

// User represents a person using the app. Every user belongs to exactly one squad.
type User struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Email         string    `json:"email" gorm:"uniqueIndex;not null"`
	EmailVerified bool      `json:"email_verified" gorm:"not null;default:false"`
	DisplayName   string    `json:"display_name" gorm:"not null"`
	DateOfBirth   time.Time `json:"date_of_birth"`
	Gender        string    `json:"gender"`
	Bio           string    `json:"bio"`
	Genres        []Genre   `json:"genres" gorm:"many2many:user_genres;"`
	SquadID       *uint     `json:"squad_id" gorm:"index"`
	PushToken     *string   `json:"-"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u User) String() string {
	return u.Email
}

// Genre is a music genre a user can list as a favourite
type Genre struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`
}

// Squad is the unit that swipes and matches. Interested and Going are
// mutually exclusive per concert and are loaded from their join tables.
type Squad struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Members    []User    `json:"members" gorm:"foreignKey:SquadID"`
	Interested []uint    `json:"interested" gorm:"-"`
	Going      []uint    `json:"going" gorm:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// SquadInterest marks a concert as "interested" for a squad
type SquadInterest struct {
	SquadID   uint `gorm:"primaryKey;autoIncrement:false"`
	ConcertID uint `gorm:"primaryKey;autoIncrement:false;index"`
}

func (SquadInterest) TableName() string {
	return "squad_interested"
}

// SquadGoing marks a concert as "going" for a squad
type SquadGoing struct {
	SquadID   uint `gorm:"primaryKey;autoIncrement:false"`
	ConcertID uint `gorm:"primaryKey;autoIncrement:false;index"`
}

func (SquadGoing) TableName() string {
	return "squad_going"
}

// Borough codes used by the concert catalogue
const (
	BoroughBrooklyn     = "BK"
	BoroughManhattan    = "MN"
	BoroughBronx        = "BX"
	BoroughQueens       = "QN"
	BoroughStatenIsland = "SI"
)

// Concert is an event from the external catalogue. The core only reads it.
type Concert struct {
	ID                uint      `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Datetime          time.Time `json:"datetime" gorm:"index"`
	VenueName         string    `json:"venue_name"`
	Borough           string    `json:"borough" gorm:"size:2"`
	PerformerNames    string    `json:"performer_names"`
	Genres            string    `json:"genres"`
	EventURL          string    `json:"event_url"`
	PerformerImageURL *string   `json:"performer_image_url,omitempty"`
}

func (c Concert) String() string {
	return c.PerformerNames + " at " + c.VenueName + " on " + c.Datetime.Format("2006-01-02") + " in " + c.Borough
}

// Swipe is one squad's decision on another squad for a concert.
// Direction true means right.
type Swipe struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SwiperID  uint      `json:"swiper_id" gorm:"not null;uniqueIndex:idx_swipe_key"`
	SwipeeID  uint      `json:"swipee_id" gorm:"not null;uniqueIndex:idx_swipe_key;index"`
	ConcertID uint      `json:"concert_id" gorm:"not null;uniqueIndex:idx_swipe_key"`
	Direction bool      `json:"direction" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// JoinRequest asks the requestee squad to merge with the requester squad
type JoinRequest struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RequesterID uint      `json:"requester_id" gorm:"not null;uniqueIndex:idx_join_pair"`
	RequesteeID uint      `json:"requestee_id" gorm:"not null;uniqueIndex:idx_join_pair;index"`
	CreatedAt   time.Time `json:"created_at"`
}

// Match is derived from two reciprocal right swipes; it is never stored
type Match struct {
	SquadID   uint `json:"squad_id"`
	ConcertID uint `json:"concert_id"`
}

// Attendance is a squad's mark on a concert
type Attendance string

const (
	AttendanceNone       Attendance = "none"
	AttendanceInterested Attendance = "interested"
	AttendanceGoing      Attendance = "going"
)
