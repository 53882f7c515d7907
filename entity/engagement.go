package entity

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	CommentEntity   = "comment"
	DonationEntity  = "donation"
	ReportEntity    = "report"
	SignatureEntity = "signature"
	VoteEntity      = "vote"
)

// Report states.
const (
	ReportOpen     = "open"
	ReportResolved = "resolved"
	ReportRejected = "rejected"
)

type Comment struct {
	bun.BaseModel `bun:"table:comments,alias:cm" json:"-" msgpack:"-"`

	ID         uuid.UUID `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	CampaignID uuid.UUID `bun:"campaign_id,type:uuid,notnull" json:"campaign_id" msgpack:"campaign_id"`
	UserID     uuid.UUID `bun:"user_id,type:uuid,notnull" json:"user_id" msgpack:"user_id"`
	Body       string    `bun:"body,notnull" json:"body" msgpack:"body"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at" msgpack:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,notnull" json:"updated_at" msgpack:"updated_at"`
}

func (Comment) EntityName() string     { return CommentEntity }
func (c *Comment) GetID() uuid.UUID    { return c.ID }
func (c *Comment) SetID(id uuid.UUID)  { c.ID = id }
func (c *Comment) Touch(now time.Time) { touch(&c.CreatedAt, &c.UpdatedAt, now) }

func (c *Comment) Validate() error {
	return validationError(validation.ValidateStruct(c,
		validation.Field(&c.CampaignID, requiredID),
		validation.Field(&c.UserID, requiredID),
		validation.Field(&c.Body, validation.Required, validation.Length(1, 2048)),
	), CommentEntity)
}

// Donation amounts are in the smallest currency unit.
type Donation struct {
	bun.BaseModel `bun:"table:donations,alias:dn" json:"-" msgpack:"-"`

	ID         uuid.UUID `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	CampaignID uuid.UUID `bun:"campaign_id,type:uuid,notnull" json:"campaign_id" msgpack:"campaign_id"`
	UserID     uuid.UUID `bun:"user_id,type:uuid,notnull" json:"user_id" msgpack:"user_id"`
	Amount     int64     `bun:"amount,notnull" json:"amount" msgpack:"amount"`
	Currency   string    `bun:"currency,notnull" json:"currency" msgpack:"currency"`
	Message    string    `bun:"message" json:"message,omitempty" msgpack:"message"`
	Anonymous  bool      `bun:"anonymous,notnull" json:"anonymous" msgpack:"anonymous"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at" msgpack:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,notnull" json:"updated_at" msgpack:"updated_at"`
}

func (Donation) EntityName() string     { return DonationEntity }
func (d *Donation) GetID() uuid.UUID    { return d.ID }
func (d *Donation) SetID(id uuid.UUID)  { d.ID = id }
func (d *Donation) Touch(now time.Time) { touch(&d.CreatedAt, &d.UpdatedAt, now) }

func (d *Donation) Validate() error {
	return validationError(validation.ValidateStruct(d,
		validation.Field(&d.CampaignID, requiredID),
		validation.Field(&d.UserID, requiredID),
		validation.Field(&d.Amount, validation.Required, validation.Min(int64(1))),
		validation.Field(&d.Currency, validation.Required, validation.Length(3, 3)),
		validation.Field(&d.Message, validation.Length(0, 512)),
	), DonationEntity)
}

// Report flags another record for moderation. EntityType names the flagged
// entity.
type Report struct {
	bun.BaseModel `bun:"table:reports,alias:rp" json:"-" msgpack:"-"`

	ID         uuid.UUID `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	EntityType string    `bun:"entity_type,notnull" json:"entity_type" msgpack:"entity_type"`
	EntityID   uuid.UUID `bun:"entity_id,type:uuid,notnull" json:"entity_id" msgpack:"entity_id"`
	UserID     uuid.UUID `bun:"user_id,type:uuid,notnull" json:"user_id" msgpack:"user_id"`
	Reason     string    `bun:"reason,notnull" json:"reason" msgpack:"reason"`
	State      string    `bun:"state,notnull" json:"state" msgpack:"state"`
	Resolution string    `bun:"resolution" json:"resolution,omitempty" msgpack:"resolution"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at" msgpack:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,notnull" json:"updated_at" msgpack:"updated_at"`
}

func (Report) EntityName() string     { return ReportEntity }
func (r *Report) GetID() uuid.UUID    { return r.ID }
func (r *Report) SetID(id uuid.UUID)  { r.ID = id }
func (r *Report) Touch(now time.Time) { touch(&r.CreatedAt, &r.UpdatedAt, now) }

func (r *Report) Validate() error {
	return validationError(validation.ValidateStruct(r,
		validation.Field(&r.EntityType, validation.Required, validation.By(knownEntity)),
		validation.Field(&r.EntityID, requiredID),
		validation.Field(&r.UserID, requiredID),
		validation.Field(&r.Reason, validation.Required, validation.Length(3, 1024)),
		validation.Field(&r.State, validation.Required, validation.In(ReportOpen, ReportResolved, ReportRejected)),
		validation.Field(&r.Resolution, validation.When(r.State != ReportOpen, validation.Required)),
	), ReportEntity)
}

type Signature struct {
	bun.BaseModel `bun:"table:signatures,alias:sg" json:"-" msgpack:"-"`

	ID         uuid.UUID `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	CampaignID uuid.UUID `bun:"campaign_id,type:uuid,notnull" json:"campaign_id" msgpack:"campaign_id"`
	UserID     uuid.UUID `bun:"user_id,type:uuid,notnull" json:"user_id" msgpack:"user_id"`
	Body       string    `bun:"body" json:"body,omitempty" msgpack:"body"`
	Anonymous  bool      `bun:"anonymous,notnull" json:"anonymous" msgpack:"anonymous"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at" msgpack:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,notnull" json:"updated_at" msgpack:"updated_at"`
}

func (Signature) EntityName() string     { return SignatureEntity }
func (s *Signature) GetID() uuid.UUID    { return s.ID }
func (s *Signature) SetID(id uuid.UUID)  { s.ID = id }
func (s *Signature) Touch(now time.Time) { touch(&s.CreatedAt, &s.UpdatedAt, now) }

func (s *Signature) Validate() error {
	return validationError(validation.ValidateStruct(s,
		validation.Field(&s.CampaignID, requiredID),
		validation.Field(&s.UserID, requiredID),
		validation.Field(&s.Body, validation.Length(0, 1024)),
	), SignatureEntity)
}

// Vote is a single pro or con on a campaign.
type Vote struct {
	bun.BaseModel `bun:"table:votes,alias:vt" json:"-" msgpack:"-"`

	ID         uuid.UUID `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	CampaignID uuid.UUID `bun:"campaign_id,type:uuid,notnull" json:"campaign_id" msgpack:"campaign_id"`
	UserID     uuid.UUID `bun:"user_id,type:uuid,notnull" json:"user_id" msgpack:"user_id"`
	Pro        bool      `bun:"pro,notnull" json:"pro" msgpack:"pro"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at" msgpack:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,notnull" json:"updated_at" msgpack:"updated_at"`
}

func (Vote) EntityName() string     { return VoteEntity }
func (v *Vote) GetID() uuid.UUID    { return v.ID }
func (v *Vote) SetID(id uuid.UUID)  { v.ID = id }
func (v *Vote) Touch(now time.Time) { touch(&v.CreatedAt, &v.UpdatedAt, now) }

func (v *Vote) Validate() error {
	return validationError(validation.ValidateStruct(v,
		validation.Field(&v.CampaignID, requiredID),
		validation.Field(&v.UserID, requiredID),
	), VoteEntity)
}

func knownEntity(value any) error {
	name, _ := value.(string)
	if _, ok := Lookup(name); !ok {
		return validation.NewError("validation_unknown_entity", "must name a known entity")
	}
	return nil
}
