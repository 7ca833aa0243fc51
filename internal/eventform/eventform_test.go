package eventform

import (
	"context"
	"testing"

	"github.com/harunnryd/eventcorner/internal/auth"
	"github.com/harunnryd/eventcorner/internal/backend"
	ecerrors "github.com/harunnryd/eventcorner/internal/errors"
	"github.com/harunnryd/eventcorner/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	record    *backend.EventRecord
	getErr    error
	updateErr error

	gets     int
	updates  []backend.UpdatePayload
	updateID string
}

func (f *fakeStore) GetEvent(_ context.Context, id string) (*backend.EventRecord, error) {
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.record, nil
}

func (f *fakeStore) UpdateEvent(_ context.Context, id string, payload backend.UpdatePayload) error {
	f.updateID = id
	f.updates = append(f.updates, payload)
	return f.updateErr
}

type harness struct {
	store   *fakeStore
	notices []notify.Notice
	routes  []string
	session *Session
}

var owner = auth.Context{UserID: "user-1", Token: "tok"}

func floatPtr(f float64) *float64 { return &f }

func fullRecord() *backend.EventRecord {
	return &backend.EventRecord{
		ID:           "ev1",
		Title:        "React Workshop",
		Description:  "Hands-on hooks",
		Category:     "workshop",
		ContactEmail: "host@example.com",
		ContactPhone: "+8801700000000",
		Website:      "https://example.com",
		Visibility:   "private",
		VenueType:    "online",
		VenueName:    "Zoom",
		VenueAddress: "n/a",
		VenueCity:    "Dhaka",
		VenueState:   "Dhaka",
		VenueCountry: "Bangladesh",
		VenueLat:     floatPtr(23.8103),
		VenueLng:     floatPtr(90.4125),
		VenuePlaceID: "place-1",
		Timezone:     "Asia/Kolkata",
		Requirements: "Laptop",
		BannerURL:    "https://cdn.example.com/banner.png",
		ThumbnailURL: "https://cdn.example.com/thumb.png",
		Tags:         []string{"react", "frontend"},
		Timeslots: []backend.Timeslot{
			{Title: "Main", Start: "2026-01-15T14:00:00+06:00", End: "2026-01-15T16:00:00+06:00", Color: "#fff"},
			{Title: "Q&A", Start: "2026-01-15T16:00:00+06:00", End: "2026-01-15T16:30:00+06:00", Description: "open floor"},
		},
		AdditionalInfo: map[string]string{"dress_code": "casual", "parking": "none"},
		CreatedBy:      "user-1",
	}
}

func newHarness(t *testing.T, store *fakeStore, ac auth.Context) *harness {
	t.Helper()
	h := &harness{store: store}
	s, err := NewSession(Options{
		Store:    store,
		Auth:     ac,
		EventID:  "ev1",
		Notifier: notify.Func(func(_ context.Context, n notify.Notice) { h.notices = append(h.notices, n) }),
		Navigator: NavigatorFunc(func(_ context.Context, route string) {
			h.routes = append(h.routes, route)
		}),
	})
	require.NoError(t, err)
	h.session = s
	return h
}

func loaded(t *testing.T, rec *backend.EventRecord) *harness {
	t.Helper()
	h := newHarness(t, &fakeStore{record: rec}, owner)
	require.NoError(t, h.session.Load(context.Background()))
	require.Equal(t, PhaseEditing, h.session.Phase())
	return h
}

func TestNewSessionRequiresStoreAndID(t *testing.T) {
	_, err := NewSession(Options{EventID: "ev1"})
	assert.ErrorIs(t, err, ecerrors.ErrInvalidInput)
	_, err = NewSession(Options{Store: &fakeStore{}, EventID: " "})
	assert.ErrorIs(t, err, ecerrors.ErrInvalidInput)
}

func TestLoadFlattensRecord(t *testing.T) {
	h := loaded(t, fullRecord())

	snap := h.session.Snapshot()
	assert.Equal(t, "ev1", snap.EventID)
	assert.Equal(t, "React Workshop", snap.Draft.Title)
	assert.Equal(t, "+05:30", snap.TimezoneOffset)
	require.Len(t, snap.Draft.Timeslots, 2)
	assert.NotEmpty(t, snap.Draft.Timeslots[0].ID)
	assert.NotEqual(t, snap.Draft.Timeslots[0].ID, snap.Draft.Timeslots[1].ID)
	require.Len(t, snap.Draft.AdditionalInfo, 2)
	assert.Equal(t, "dress_code", snap.Draft.AdditionalInfo[0].Key)
	assert.False(t, h.session.Dirty())
	assert.Empty(t, h.routes)
}

func TestLoadAppliesFallbacks(t *testing.T) {
	h := loaded(t, &backend.EventRecord{Title: "T", Category: "meetup", CreatedBy: "user-1"})

	d := h.session.Snapshot().Draft
	assert.Equal(t, DefaultVisibility, d.Visibility)
	assert.Equal(t, DefaultVenueType, d.VenueType)
	assert.Equal(t, "Asia/Dhaka", d.Timezone)
	assert.Equal(t, DefaultTimezoneOffset, d.TimezoneOffset())
	assert.Empty(t, d.Tags)
	assert.Nil(t, d.VenueLat)
}

func TestLoadOwnerMismatchAborts(t *testing.T) {
	rec := fullRecord()
	rec.CreatedBy = "someone-else"
	h := newHarness(t, &fakeStore{record: rec}, owner)

	err := h.session.Load(context.Background())
	assert.ErrorIs(t, err, ecerrors.ErrAuthorization)
	assert.Equal(t, PhaseAborted, h.session.Phase())
	assert.Equal(t, []string{"/organizer/dashboard"}, h.routes)
	require.Len(t, h.notices, 1)
	assert.Equal(t, notify.LevelWarning, h.notices[0].Level)
	assert.ErrorIs(t, h.session.Set("title", "x"), ecerrors.ErrInvalidInput)
}

func TestLoadFetchFailureAborts(t *testing.T) {
	h := newHarness(t, &fakeStore{getErr: ecerrors.Transport("connection refused")}, owner)

	err := h.session.Load(context.Background())
	assert.ErrorIs(t, err, ecerrors.ErrTransport)
	assert.Equal(t, PhaseAborted, h.session.Phase())
	assert.Equal(t, []string{"/organizer/dashboard"}, h.routes)
	require.Len(t, h.notices, 1)
	assert.Equal(t, notify.LevelError, h.notices[0].Level)
}

func TestLoadAnonymousAbortsWithoutFetching(t *testing.T) {
	h := newHarness(t, &fakeStore{record: fullRecord()}, auth.Anonymous)

	err := h.session.Load(context.Background())
	assert.ErrorIs(t, err, ecerrors.ErrAuthorization)
	assert.Zero(t, h.store.gets)
	assert.Len(t, h.routes, 1)
}

func TestLoadTwiceIsRejected(t *testing.T) {
	h := loaded(t, fullRecord())
	assert.ErrorIs(t, h.session.Load(context.Background()), ecerrors.ErrInvalidInput)
	assert.Equal(t, 1, h.store.gets)
}

func TestRoundTripWithoutEdits(t *testing.T) {
	rec := fullRecord()
	h := loaded(t, rec)

	require.NoError(t, h.session.Submit(context.Background()))
	require.Len(t, h.store.updates, 1)
	assert.Equal(t, "ev1", h.store.updateID)

	p := h.store.updates[0]
	assert.Equal(t, rec.Title, p.Title)
	assert.Equal(t, rec.Description, p.Description)
	assert.Equal(t, rec.Category, p.Category)
	assert.Equal(t, rec.ContactEmail, p.ContactEmail)
	assert.Equal(t, rec.ContactPhone, p.ContactPhone)
	assert.Equal(t, rec.Website, p.Website)
	assert.Equal(t, rec.Visibility, p.Visibility)
	assert.Equal(t, rec.VenueType, p.VenueType)
	assert.Equal(t, rec.VenueName, p.VenueName)
	assert.Equal(t, rec.VenueAddress, p.VenueAddress)
	assert.Equal(t, rec.VenueCity, p.VenueCity)
	assert.Equal(t, rec.VenueState, p.VenueState)
	assert.Equal(t, rec.VenueCountry, p.VenueCountry)
	assert.Equal(t, rec.VenueLat, p.VenueLat)
	assert.Equal(t, rec.VenueLng, p.VenueLng)
	assert.Equal(t, rec.VenuePlaceID, p.VenuePlaceID)
	assert.Equal(t, rec.Timezone, p.Timezone)
	assert.Equal(t, "+05:30", p.TimezoneOffset)
	assert.Equal(t, rec.Requirements, p.Requirements)
	assert.Equal(t, rec.BannerURL, p.BannerURL)
	assert.Equal(t, rec.ThumbnailURL, p.ThumbnailURL)
	assert.Equal(t, rec.Tags, p.Tags)
	assert.Equal(t, rec.Timeslots, p.Timeslots)
	assert.Equal(t, rec.AdditionalInfo, p.AdditionalInfo)

	assert.Equal(t, PhaseDone, h.session.Phase())
	assert.Equal(t, []string{"/events/ev1"}, h.routes)
	require.Len(t, h.notices, 1)
	assert.Equal(t, notify.LevelSuccess, h.notices[0].Level)
}

func TestPayloadKeepsInfoTextAsEntered(t *testing.T) {
	rec := fullRecord()
	rec.AdditionalInfo = map[string]string{"Dress code": " Smart casual ", "parking": "none"}
	h := loaded(t, rec)

	_, err := h.session.AddInfo(" Room ", "A1\n")
	require.NoError(t, err)
	_, err = h.session.AddInfo("   ", "dropped")
	require.NoError(t, err)

	snap := h.session.Snapshot()
	p := snap.Draft.Payload()
	assert.Equal(t, map[string]string{
		"Dress code": " Smart casual ",
		"parking":    "none",
		" Room ":     "A1\n",
	}, p.AdditionalInfo)
}

func TestSubmitValidationBlocksNetwork(t *testing.T) {
	for _, field := range []string{"title", "category"} {
		t.Run(field, func(t *testing.T) {
			h := loaded(t, fullRecord())
			require.NoError(t, h.session.Set("venue_city", "Chittagong"))
			require.NoError(t, h.session.Set(field, "  "))
			before := h.session.Snapshot().Draft

			err := h.session.Submit(context.Background())
			assert.ErrorIs(t, err, ecerrors.ErrValidation)
			assert.Empty(t, h.store.updates)
			assert.Equal(t, PhaseEditing, h.session.Phase())
			assert.Equal(t, before, h.session.Snapshot().Draft)
			require.Len(t, h.notices, 1)
			assert.Equal(t, notify.LevelWarning, h.notices[0].Level)
		})
	}
}

func TestSubmitFailureKeepsEdits(t *testing.T) {
	h := loaded(t, fullRecord())
	h.store.updateErr = ecerrors.NewDefaultErrorMapper().MapStatus(500, "database down")

	require.NoError(t, h.session.Set("title", "Renamed"))
	err := h.session.Submit(context.Background())
	assert.ErrorIs(t, err, ecerrors.ErrApplication)
	assert.Equal(t, PhaseEditing, h.session.Phase())
	assert.Equal(t, "Renamed", h.session.Snapshot().Draft.Title)
	assert.True(t, h.session.Dirty())
	assert.Empty(t, h.routes)
	require.Len(t, h.notices, 1)
	assert.Equal(t, notify.LevelError, h.notices[0].Level)

	h.store.updateErr = nil
	require.NoError(t, h.session.Submit(context.Background()))
	assert.Len(t, h.store.updates, 2)
	assert.Equal(t, "Renamed", h.store.updates[1].Title)
}

func TestSubmitOutsideEditing(t *testing.T) {
	h := newHarness(t, &fakeStore{record: fullRecord()}, owner)
	assert.ErrorIs(t, h.session.Submit(context.Background()), ecerrors.ErrInvalidInput)

	h = loaded(t, fullRecord())
	var phases []Phase
	h.session.Subscribe(func(snap Snapshot) { phases = append(phases, snap.Phase) })
	require.NoError(t, h.session.Submit(context.Background()))
	assert.Equal(t, []Phase{PhaseSubmitting, PhaseDone}, phases)
	assert.ErrorIs(t, h.session.Submit(context.Background()), ecerrors.ErrInvalidInput)
}

func TestSetFields(t *testing.T) {
	h := loaded(t, fullRecord())

	require.NoError(t, h.session.Set("timezone", "America/New_York"))
	require.NoError(t, h.session.Set("venue_lat", "1.5"))
	require.NoError(t, h.session.Set("venue_lng", ""))
	assert.ErrorIs(t, h.session.Set("venue_lat", "north"), ecerrors.ErrInvalidInput)
	assert.ErrorIs(t, h.session.Set("nope", "x"), ecerrors.ErrInvalidInput)

	snap := h.session.Snapshot()
	assert.Equal(t, "-05:00", snap.TimezoneOffset)
	assert.Equal(t, 1.5, *snap.Draft.VenueLat)
	assert.Nil(t, snap.Draft.VenueLng)
	assert.Equal(t, []string{"timezone", "venue_lat", "venue_lng"}, snap.DirtyFields)

	lat, err := snap.Draft.Get("venue_lat")
	require.NoError(t, err)
	assert.Equal(t, "1.5", lat)
}

func TestTags(t *testing.T) {
	h := loaded(t, fullRecord())

	require.NoError(t, h.session.AddTag("React"))
	require.NoError(t, h.session.AddTag("react"))
	require.NoError(t, h.session.AddTag("  "))
	assert.Equal(t, []string{"react", "frontend", "React"}, h.session.Snapshot().Draft.Tags)

	require.NoError(t, h.session.RemoveTag("frontend"))
	assert.ErrorIs(t, h.session.RemoveTag("frontend"), ecerrors.ErrNotFound)
	assert.Equal(t, []string{"react", "React"}, h.session.Snapshot().Draft.Tags)
}

func TestDuplicateTagDoesNotMarkDirty(t *testing.T) {
	h := loaded(t, fullRecord())
	require.NoError(t, h.session.AddTag("react"))
	assert.False(t, h.session.Dirty())
}

func TestTimeslotsAndInfo(t *testing.T) {
	h := loaded(t, fullRecord())

	id, err := h.session.AddTimeslot(Timeslot{Title: "Closing", Start: "s", End: "e"})
	require.NoError(t, err)
	require.NoError(t, h.session.UpdateTimeslot(Timeslot{ID: id, Title: "Wrap-up", Start: "s", End: "e"}))
	first := h.session.Snapshot().Draft.Timeslots[0].ID
	require.NoError(t, h.session.RemoveTimeslot(first))
	assert.ErrorIs(t, h.session.RemoveTimeslot(first), ecerrors.ErrNotFound)

	infoID, err := h.session.AddInfo("age_limit", "18+")
	require.NoError(t, err)
	_, err = h.session.AddInfo("blank_value", " ")
	require.NoError(t, err)
	_, err = h.session.AddInfo("", "orphan")
	require.NoError(t, err)
	require.NoError(t, h.session.UpdateInfo(InfoEntry{ID: infoID, Key: "age_limit", Value: "21+"}))
	parking := h.session.Snapshot().Draft.AdditionalInfo[1].ID
	require.NoError(t, h.session.RemoveInfo(parking))

	snap := h.session.Snapshot()
	p := snap.Draft.Payload()
	require.Len(t, p.Timeslots, 2)
	assert.Equal(t, "Q&A", p.Timeslots[0].Title)
	assert.Equal(t, "Wrap-up", p.Timeslots[1].Title)
	assert.Equal(t, map[string]string{"dress_code": "casual", "age_limit": "21+"}, p.AdditionalInfo)
	assert.Equal(t, []string{"additional_info", "timeslots"}, h.session.Snapshot().DirtyFields)
}

func TestSnapshotIsIsolated(t *testing.T) {
	h := loaded(t, fullRecord())

	snap := h.session.Snapshot()
	snap.Draft.Tags[0] = "mutated"
	snap.Draft.Timeslots[0].Title = "mutated"
	*snap.Draft.VenueLat = 0

	fresh := h.session.Snapshot().Draft
	assert.Equal(t, "react", fresh.Tags[0])
	assert.Equal(t, "Main", fresh.Timeslots[0].Title)
	assert.Equal(t, 23.8103, *fresh.VenueLat)
}

func TestDetailRouteWithoutVerb(t *testing.T) {
	s, err := NewSession(Options{Store: &fakeStore{}, EventID: "ev9", DetailRoute: "/manage/events/"})
	require.NoError(t, err)
	assert.Equal(t, "/manage/events/ev9", s.DetailRoute())
}

func TestTimezoneOffset(t *testing.T) {
	assert.Equal(t, "+06:00", TimezoneOffset("Asia/Dhaka"))
	assert.Equal(t, "+05:45", TimezoneOffset(" Asia/Kathmandu "))
	assert.Equal(t, DefaultTimezoneOffset, TimezoneOffset(""))
	assert.Equal(t, DefaultTimezoneOffset, TimezoneOffset("Mars/Olympus"))
	assert.True(t, KnownTimezone("UTC"))
	assert.False(t, KnownTimezone("Mars/Olympus"))
}
