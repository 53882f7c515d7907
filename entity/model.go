package entity

import (
	"errors"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-campaign-client/query"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/jinzhu/inflection"
)

// Model is implemented by pointers to every entity.
type Model interface {
	GetID() uuid.UUID
	SetID(id uuid.UUID)
	// Touch stamps the record before it is written.
	Touch(now time.Time)
	Validate() error
}

// Named is implemented by every entity value.
type Named interface {
	EntityName() string
}

// Descriptor carries the per-entity facts shared by the gateway, the cached
// collections and the backend.
type Descriptor struct {
	Name   string
	Plural string
	// Policy holds entity specific query defaults, such as a default page.
	Policy query.Policy
	// Lookups are the fields FindBy accepts.
	Lookups []string
}

// CanLookup reports whether FindBy may use field.
func (d Descriptor) CanLookup(field string) bool {
	for _, l := range d.Lookups {
		if l == field {
			return true
		}
	}
	return false
}

// DefaultPage is the page applied to feed like lists when the caller sets no
// limit.
var DefaultPage = query.Limit{Offset: 0, Size: 20}

var registry = map[string]Descriptor{}

func register(name string, paged bool, lookups ...string) {
	d := Descriptor{
		Name:    name,
		Plural:  inflection.Plural(name),
		Lookups: append([]string{"id"}, lookups...),
	}
	if paged {
		page := DefaultPage
		d.Policy.DefaultLimit = &page
	}
	registry[name] = d
}

func init() {
	register(CampaignEntity, false, "slug", "state", "category_id", "place_id", "user_id")
	register(CategoryEntity, false, "name")
	register(CommentEntity, true, "campaign_id", "user_id")
	register(DonationEntity, true, "campaign_id", "user_id")
	register(PetitionEntity, false, "campaign_id", "state")
	register(PlaceEntity, false, "name", "region_id")
	register(RegionEntity, false, "code", "parent_id")
	register(ReportEntity, false, "entity_id", "user_id", "state")
	register(SignatureEntity, true, "campaign_id", "user_id")
	register(TagEntity, false, "name")
	register(UpdateEntity, true, "campaign_id")
	register(UserEntity, false, "principal", "email")
	register(VoteEntity, true, "campaign_id", "user_id")
}

// Lookup finds a descriptor by singular or plural name, case insensitive.
func Lookup(name string) (Descriptor, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if d, ok := registry[name]; ok {
		return d, true
	}
	if d, ok := registry[inflection.Singular(name)]; ok && d.Plural == name {
		return d, true
	}
	return Descriptor{}, false
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(name string) Descriptor {
	d, ok := Lookup(name)
	if !ok {
		panic("entity: unknown entity " + name)
	}
	return d
}

// All returns every descriptor sorted by name.
func All() []Descriptor {
	out := make([]Descriptor, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns every entity name sorted.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, d := range all {
		names[i] = d.Name
	}
	return names
}

// DescriptorOf returns the descriptor of entity type T.
func DescriptorOf[T Named]() Descriptor {
	var zero T
	return MustLookup(zero.EntityName())
}

func touch(created, updated *time.Time, now time.Time) {
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// requiredID rejects the nil UUID; validation.Required treats the array as
// always present.
var requiredID = validation.By(func(value any) error {
	id, ok := value.(uuid.UUID)
	if !ok {
		return errors.New("must be a UUID")
	}
	if id == uuid.Nil {
		return errors.New("cannot be blank")
	}
	return nil
})

// validationError bridges ozzo errors into the go-errors taxonomy.
func validationError(err error, name string) error {
	if err == nil {
		return nil
	}
	return goerrors.FromOzzoValidation(err, "invalid "+name).
		WithTextCode("INVALID_" + strings.ToUpper(name))
}
