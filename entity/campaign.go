package entity

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	CampaignEntity = "campaign"
	PetitionEntity = "petition"
	UpdateEntity   = "update"
)

// Campaign states.
const (
	StateDraft     = "draft"
	StatePublished = "published"
	StateClosed    = "closed"
	StateFinished  = "finished"
)

// Campaign is the root record every other activity hangs off.
type Campaign struct {
	bun.BaseModel `bun:"table:campaigns,alias:cp" json:"-" msgpack:"-"`

	ID         uuid.UUID `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	Title      string    `bun:"title,notnull" json:"title" msgpack:"title"`
	Slug       string    `bun:"slug,notnull,unique" json:"slug" msgpack:"slug"`
	Body       string    `bun:"body" json:"body" msgpack:"body"`
	Cover      string    `bun:"cover" json:"cover,omitempty" msgpack:"cover"`
	Goal       int64     `bun:"goal,notnull" json:"goal" msgpack:"goal"`
	Total      int64     `bun:"total,notnull" json:"total" msgpack:"total"`
	State      string    `bun:"state,notnull" json:"state" msgpack:"state"`
	CategoryID uuid.UUID `bun:"category_id,type:uuid" json:"category_id" msgpack:"category_id"`
	PlaceID    uuid.UUID `bun:"place_id,type:uuid" json:"place_id" msgpack:"place_id"`
	UserID     uuid.UUID `bun:"user_id,type:uuid,notnull" json:"user_id" msgpack:"user_id"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at" msgpack:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,notnull" json:"updated_at" msgpack:"updated_at"`
}

func (Campaign) EntityName() string     { return CampaignEntity }
func (c *Campaign) GetID() uuid.UUID    { return c.ID }
func (c *Campaign) SetID(id uuid.UUID)  { c.ID = id }
func (c *Campaign) Touch(now time.Time) { touch(&c.CreatedAt, &c.UpdatedAt, now) }

func (c *Campaign) Validate() error {
	return validationError(validation.ValidateStruct(c,
		validation.Field(&c.Title, validation.Required, validation.Length(3, 128)),
		validation.Field(&c.Slug, validation.Required, validation.Length(3, 128), is.LowerCase),
		validation.Field(&c.Goal, validation.Min(int64(0))),
		validation.Field(&c.Total, validation.Min(int64(0))),
		validation.Field(&c.State, validation.Required, validation.In(StateDraft, StatePublished, StateClosed, StateFinished)),
		validation.Field(&c.Cover, is.URL),
		validation.Field(&c.UserID, requiredID),
	), CampaignEntity)
}

// Petition is the petition side of a campaign: who it targets and how many
// signatures it needs.
type Petition struct {
	bun.BaseModel `bun:"table:petitions,alias:pt" json:"-" msgpack:"-"`

	ID         uuid.UUID  `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	CampaignID uuid.UUID  `bun:"campaign_id,type:uuid,notnull" json:"campaign_id" msgpack:"campaign_id"`
	Target     string     `bun:"target,notnull" json:"target" msgpack:"target"`
	Goal       int64      `bun:"goal,notnull" json:"goal" msgpack:"goal"`
	Signatures int64      `bun:"signatures,notnull" json:"signatures" msgpack:"signatures"`
	State      string     `bun:"state,notnull" json:"state" msgpack:"state"`
	Deadline   *time.Time `bun:"deadline" json:"deadline,omitempty" msgpack:"deadline"`
	CreatedAt  time.Time  `bun:"created_at,notnull" json:"created_at" msgpack:"created_at"`
	UpdatedAt  time.Time  `bun:"updated_at,notnull" json:"updated_at" msgpack:"updated_at"`
}

func (Petition) EntityName() string     { return PetitionEntity }
func (p *Petition) GetID() uuid.UUID    { return p.ID }
func (p *Petition) SetID(id uuid.UUID)  { p.ID = id }
func (p *Petition) Touch(now time.Time) { touch(&p.CreatedAt, &p.UpdatedAt, now) }

func (p *Petition) Validate() error {
	return validationError(validation.ValidateStruct(p,
		validation.Field(&p.CampaignID, requiredID),
		validation.Field(&p.Target, validation.Required, validation.Length(2, 256)),
		validation.Field(&p.Goal, validation.Min(int64(1))),
		validation.Field(&p.Signatures, validation.Min(int64(0))),
		validation.Field(&p.State, validation.Required, validation.In(StateDraft, StatePublished, StateClosed, StateFinished)),
	), PetitionEntity)
}

// Update is a progress post on a campaign.
type Update struct {
	bun.BaseModel `bun:"table:updates,alias:up" json:"-" msgpack:"-"`

	ID         uuid.UUID `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	CampaignID uuid.UUID `bun:"campaign_id,type:uuid,notnull" json:"campaign_id" msgpack:"campaign_id"`
	UserID     uuid.UUID `bun:"user_id,type:uuid,notnull" json:"user_id" msgpack:"user_id"`
	Title      string    `bun:"title,notnull" json:"title" msgpack:"title"`
	Body       string    `bun:"body,notnull" json:"body" msgpack:"body"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at" msgpack:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,notnull" json:"updated_at" msgpack:"updated_at"`
}

func (Update) EntityName() string     { return UpdateEntity }
func (u *Update) GetID() uuid.UUID    { return u.ID }
func (u *Update) SetID(id uuid.UUID)  { u.ID = id }
func (u *Update) Touch(now time.Time) { touch(&u.CreatedAt, &u.UpdatedAt, now) }

func (u *Update) Validate() error {
	return validationError(validation.ValidateStruct(u,
		validation.Field(&u.CampaignID, requiredID),
		validation.Field(&u.UserID, requiredID),
		validation.Field(&u.Title, validation.Required, validation.Length(3, 128)),
		validation.Field(&u.Body, validation.Required, validation.Length(1, 4096)),
	), UpdateEntity)
}
