package entity

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const UserEntity = "user"

// User is a profile bound to an authenticated principal.
type User struct {
	bun.BaseModel `bun:"table:users,alias:us" json:"-" msgpack:"-"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	Principal string    `bun:"principal,notnull,unique" json:"principal" msgpack:"principal"`
	Name      string    `bun:"name,notnull" json:"name" msgpack:"name"`
	Email     string    `bun:"email" json:"email,omitempty" msgpack:"email"`
	Avatar    string    `bun:"avatar" json:"avatar,omitempty" msgpack:"avatar"`
	Country   string    `bun:"country" json:"country,omitempty" msgpack:"country"`
	Active    bool      `bun:"active,notnull" json:"active" msgpack:"active"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at" msgpack:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at" msgpack:"updated_at"`
}

func (User) EntityName() string     { return UserEntity }
func (u *User) GetID() uuid.UUID    { return u.ID }
func (u *User) SetID(id uuid.UUID)  { u.ID = id }
func (u *User) Touch(now time.Time) { touch(&u.CreatedAt, &u.UpdatedAt, now) }

func (u *User) Validate() error {
	return validationError(validation.ValidateStruct(u,
		validation.Field(&u.Principal, validation.Required, validation.Length(1, 128)),
		validation.Field(&u.Name, validation.Required, validation.Length(2, 64)),
		validation.Field(&u.Email, is.EmailFormat),
		validation.Field(&u.Avatar, is.URL),
		validation.Field(&u.Country, is.CountryCode2),
	), UserEntity)
}
