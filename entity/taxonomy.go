package entity

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	CategoryEntity = "category"
	PlaceEntity    = "place"
	RegionEntity   = "region"
	TagEntity      = "tag"
)

// Place kinds.
const (
	PlaceCity    = "city"
	PlaceState   = "state"
	PlaceCountry = "country"
)

type Category struct {
	bun.BaseModel `bun:"table:categories,alias:ct" json:"-" msgpack:"-"`

	ID          uuid.UUID `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	Name        string    `bun:"name,notnull,unique" json:"name" msgpack:"name"`
	Description string    `bun:"description" json:"description,omitempty" msgpack:"description"`
	Color       string    `bun:"color" json:"color,omitempty" msgpack:"color"`
	Active      bool      `bun:"active,notnull" json:"active" msgpack:"active"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at" msgpack:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,notnull" json:"updated_at" msgpack:"updated_at"`
}

func (Category) EntityName() string     { return CategoryEntity }
func (c *Category) GetID() uuid.UUID    { return c.ID }
func (c *Category) SetID(id uuid.UUID)  { c.ID = id }
func (c *Category) Touch(now time.Time) { touch(&c.CreatedAt, &c.UpdatedAt, now) }

func (c *Category) Validate() error {
	return validationError(validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required, validation.Length(2, 64)),
		validation.Field(&c.Description, validation.Length(0, 512)),
		validation.Field(&c.Color, is.HexColor),
	), CategoryEntity)
}

type Tag struct {
	bun.BaseModel `bun:"table:tags,alias:tg" json:"-" msgpack:"-"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	Name      string    `bun:"name,notnull,unique" json:"name" msgpack:"name"`
	Color     string    `bun:"color" json:"color,omitempty" msgpack:"color"`
	Active    bool      `bun:"active,notnull" json:"active" msgpack:"active"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at" msgpack:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at" msgpack:"updated_at"`
}

func (Tag) EntityName() string     { return TagEntity }
func (t *Tag) GetID() uuid.UUID    { return t.ID }
func (t *Tag) SetID(id uuid.UUID)  { t.ID = id }
func (t *Tag) Touch(now time.Time) { touch(&t.CreatedAt, &t.UpdatedAt, now) }

func (t *Tag) Validate() error {
	return validationError(validation.ValidateStruct(t,
		validation.Field(&t.Name, validation.Required, validation.Length(1, 32)),
		validation.Field(&t.Color, is.HexColor),
	), TagEntity)
}

// Place is a city, state or country a campaign can be located in.
type Place struct {
	bun.BaseModel `bun:"table:places,alias:pl" json:"-" msgpack:"-"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	Name      string    `bun:"name,notnull" json:"name" msgpack:"name"`
	Kind      string    `bun:"kind,notnull" json:"kind" msgpack:"kind"`
	RegionID  uuid.UUID `bun:"region_id,type:uuid" json:"region_id" msgpack:"region_id"`
	Active    bool      `bun:"active,notnull" json:"active" msgpack:"active"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at" msgpack:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at" msgpack:"updated_at"`
}

func (Place) EntityName() string     { return PlaceEntity }
func (p *Place) GetID() uuid.UUID    { return p.ID }
func (p *Place) SetID(id uuid.UUID)  { p.ID = id }
func (p *Place) Touch(now time.Time) { touch(&p.CreatedAt, &p.UpdatedAt, now) }

func (p *Place) Validate() error {
	return validationError(validation.ValidateStruct(p,
		validation.Field(&p.Name, validation.Required, validation.Length(2, 128)),
		validation.Field(&p.Kind, validation.Required, validation.In(PlaceCity, PlaceState, PlaceCountry)),
	), PlaceEntity)
}

// Region groups places. Regions nest through ParentID.
type Region struct {
	bun.BaseModel `bun:"table:regions,alias:rg" json:"-" msgpack:"-"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	Name      string    `bun:"name,notnull" json:"name" msgpack:"name"`
	Code      string    `bun:"code,notnull,unique" json:"code" msgpack:"code"`
	ParentID  uuid.UUID `bun:"parent_id,type:uuid" json:"parent_id" msgpack:"parent_id"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at" msgpack:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at" msgpack:"updated_at"`
}

func (Region) EntityName() string     { return RegionEntity }
func (r *Region) GetID() uuid.UUID    { return r.ID }
func (r *Region) SetID(id uuid.UUID)  { r.ID = id }
func (r *Region) Touch(now time.Time) { touch(&r.CreatedAt, &r.UpdatedAt, now) }

func (r *Region) Validate() error {
	return validationError(validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 128)),
		validation.Field(&r.Code, validation.Required, validation.Length(2, 8), is.UpperCase),
		validation.Field(&r.ParentID, validation.By(func(any) error {
			if r.ParentID != uuid.Nil && r.ParentID == r.ID {
				return validation.NewError("validation_self_parent", "cannot be the region itself")
			}
			return nil
		})),
	), RegionEntity)
}
