package eventform

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/harunnryd/eventcorner/internal/backend"
	ecerrors "github.com/harunnryd/eventcorner/internal/errors"

	"github.com/oklog/ulid/v2"
)

const (
	DefaultVisibility = "public"
	DefaultVenueType  = "physical"
)

// Timeslot is one schedule row. ID only identifies the row on the client.
type Timeslot struct {
	ID          string
	Title       string
	Start       string
	End         string
	Color       string
	Description string
}

// InfoEntry is one additional-info row.
type InfoEntry struct {
	ID    string
	Key   string
	Value string
}

// Draft is the editable copy of an event record.
type Draft struct {
	Title        string
	Description  string
	Category     string
	ContactEmail string
	ContactPhone string
	Website      string
	Visibility   string
	VenueType    string
	VenueName    string
	VenueAddress string
	VenueCity    string
	VenueState   string
	VenueCountry string
	VenueLat     *float64
	VenueLng     *float64
	VenuePlaceID string
	Timezone     string
	Requirements string
	BannerURL    string
	ThumbnailURL string

	Tags           []string
	Timeslots      []Timeslot
	AdditionalInfo []InfoEntry
}

// ScalarFields lists the field names accepted by Set and Get, in display order.
var ScalarFields = []string{
	"title", "description", "category",
	"contact_email", "contact_phone", "website", "visibility",
	"venue_type", "venue_name", "venue_address", "venue_city", "venue_state", "venue_country",
	"venue_lat", "venue_lng", "venue_place_id",
	"timezone", "requirements", "banner_url", "thumbnail_url",
}

func (d *Draft) text(field string) (*string, bool) {
	switch field {
	case "title":
		return &d.Title, true
	case "description":
		return &d.Description, true
	case "category":
		return &d.Category, true
	case "contact_email":
		return &d.ContactEmail, true
	case "contact_phone":
		return &d.ContactPhone, true
	case "website":
		return &d.Website, true
	case "visibility":
		return &d.Visibility, true
	case "venue_type":
		return &d.VenueType, true
	case "venue_name":
		return &d.VenueName, true
	case "venue_address":
		return &d.VenueAddress, true
	case "venue_city":
		return &d.VenueCity, true
	case "venue_state":
		return &d.VenueState, true
	case "venue_country":
		return &d.VenueCountry, true
	case "venue_place_id":
		return &d.VenuePlaceID, true
	case "timezone":
		return &d.Timezone, true
	case "requirements":
		return &d.Requirements, true
	case "banner_url":
		return &d.BannerURL, true
	case "thumbnail_url":
		return &d.ThumbnailURL, true
	}
	return nil, false
}

func (d *Draft) coordinate(field string) (**float64, bool) {
	switch field {
	case "venue_lat":
		return &d.VenueLat, true
	case "venue_lng":
		return &d.VenueLng, true
	}
	return nil, false
}

// Get returns the display value of a scalar field.
func (d *Draft) Get(field string) (string, error) {
	if p, ok := d.text(field); ok {
		return *p, nil
	}
	if p, ok := d.coordinate(field); ok {
		if *p == nil {
			return "", nil
		}
		return strconv.FormatFloat(**p, 'f', -1, 64), nil
	}
	return "", ecerrors.InvalidInput(fmt.Sprintf("unknown field %q", field))
}

func (d *Draft) set(field, value string) error {
	if p, ok := d.text(field); ok {
		*p = value
		return nil
	}
	if p, ok := d.coordinate(field); ok {
		value = strings.TrimSpace(value)
		if value == "" {
			*p = nil
			return nil
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return ecerrors.InvalidInput(fmt.Sprintf("%s must be a number", field))
		}
		*p = &f
		return nil
	}
	return ecerrors.InvalidInput(fmt.Sprintf("unknown field %q", field))
}

// TimezoneOffset is derived from Timezone on every call.
func (d *Draft) TimezoneOffset() string {
	return TimezoneOffset(d.Timezone)
}

// Validate checks the fields required before submit.
func (d *Draft) Validate() error {
	var missing []string
	if strings.TrimSpace(d.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(d.Category) == "" {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return ecerrors.Validation(fmt.Sprintf("required fields missing: %s", strings.Join(missing, ", ")))
	}
	return nil
}

// Payload projects the draft to the update body. Info rows with a blank key
// or value are dropped; the rest are sent exactly as entered. Timeslot client
// ids are stripped.
func (d *Draft) Payload() backend.UpdatePayload {
	info := make(map[string]string, len(d.AdditionalInfo))
	for _, entry := range d.AdditionalInfo {
		if strings.TrimSpace(entry.Key) == "" || strings.TrimSpace(entry.Value) == "" {
			continue
		}
		info[entry.Key] = entry.Value
	}

	slots := make([]backend.Timeslot, 0, len(d.Timeslots))
	for _, ts := range d.Timeslots {
		slots = append(slots, backend.Timeslot{
			Title:       ts.Title,
			Start:       ts.Start,
			End:         ts.End,
			Color:       ts.Color,
			Description: ts.Description,
		})
	}

	tags := make([]string, len(d.Tags))
	copy(tags, d.Tags)

	return backend.UpdatePayload{
		Title:          d.Title,
		Description:    d.Description,
		Category:       d.Category,
		ContactEmail:   d.ContactEmail,
		ContactPhone:   d.ContactPhone,
		Website:        d.Website,
		Visibility:     d.Visibility,
		VenueType:      d.VenueType,
		VenueName:      d.VenueName,
		VenueAddress:   d.VenueAddress,
		VenueCity:      d.VenueCity,
		VenueState:     d.VenueState,
		VenueCountry:   d.VenueCountry,
		VenueLat:       copyFloat(d.VenueLat),
		VenueLng:       copyFloat(d.VenueLng),
		VenuePlaceID:   d.VenuePlaceID,
		Timezone:       d.Timezone,
		TimezoneOffset: d.TimezoneOffset(),
		Requirements:   d.Requirements,
		BannerURL:      d.BannerURL,
		ThumbnailURL:   d.ThumbnailURL,
		Tags:           tags,
		Timeslots:      slots,
		AdditionalInfo: info,
	}
}

func (d Draft) Clone() Draft {
	out := d
	out.VenueLat = copyFloat(d.VenueLat)
	out.VenueLng = copyFloat(d.VenueLng)
	out.Tags = slices.Clone(d.Tags)
	out.Timeslots = slices.Clone(d.Timeslots)
	out.AdditionalInfo = slices.Clone(d.AdditionalInfo)
	return out
}

// draftFromRecord flattens a fetched record, filling absent fields with
// fallbacks and assigning fresh client ids to list rows.
func draftFromRecord(rec *backend.EventRecord, defaultTimezone string) Draft {
	d := Draft{
		Title:        rec.Title,
		Description:  rec.Description,
		Category:     rec.Category,
		ContactEmail: rec.ContactEmail,
		ContactPhone: rec.ContactPhone,
		Website:      rec.Website,
		Visibility:   orDefault(rec.Visibility, DefaultVisibility),
		VenueType:    orDefault(rec.VenueType, DefaultVenueType),
		VenueName:    rec.VenueName,
		VenueAddress: rec.VenueAddress,
		VenueCity:    rec.VenueCity,
		VenueState:   rec.VenueState,
		VenueCountry: rec.VenueCountry,
		VenueLat:     copyFloat(rec.VenueLat),
		VenueLng:     copyFloat(rec.VenueLng),
		VenuePlaceID: rec.VenuePlaceID,
		Timezone:     orDefault(rec.Timezone, defaultTimezone),
		Requirements: rec.Requirements,
		BannerURL:    rec.BannerURL,
		ThumbnailURL: rec.ThumbnailURL,
		Tags:         append([]string{}, rec.Tags...),
	}

	for _, ts := range rec.Timeslots {
		d.Timeslots = append(d.Timeslots, Timeslot{
			ID:          newClientID(),
			Title:       ts.Title,
			Start:       ts.Start,
			End:         ts.End,
			Color:       ts.Color,
			Description: ts.Description,
		})
	}

	keys := make([]string, 0, len(rec.AdditionalInfo))
	for key := range rec.AdditionalInfo {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		d.AdditionalInfo = append(d.AdditionalInfo, InfoEntry{ID: newClientID(), Key: key, Value: rec.AdditionalInfo[key]})
	}
	return d
}

func newClientID() string {
	return ulid.Make().String()
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
