package backend

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/harunnryd/eventcorner/internal/eventdata"
	"github.com/harunnryd/eventcorner/internal/transcript"
)

// ExtractRequest is the conversation-extraction call. ConversationHistory never
// contains Message itself.
type ExtractRequest struct {
	Message             string                    `json:"message"`
	ConversationHistory []transcript.HistoryEntry `json:"conversation_history"`
}

// ExtractionResult is either a clarification (NeedsClarification) or a
// completion carrying EventData.
type ExtractionResult struct {
	NeedsClarification bool              `json:"needs_clarification"`
	Question           string            `json:"question,omitempty"`
	ExtractedSoFar     *eventdata.Object `json:"extracted_so_far,omitempty"`
	MissingFields      []string          `json:"missing_fields,omitempty"`
	Message            string            `json:"message,omitempty"`
	EventData          *eventdata.Object `json:"event_data,omitempty"`
	Confidence         *float64          `json:"confidence,omitempty"`
}

type ExtractResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
	Result  *ExtractionResult `json:"result,omitempty"`
}

type ChatRequest struct {
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
}

type ChatResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Response string `json:"response,omitempty"`
}

// Timeslot is the backend-facing shape of one schedule entry.
type Timeslot struct {
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

// EventRecord is the flat event record returned by the fetch endpoint.
type EventRecord struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Category       string            `json:"category"`
	ContactEmail   string            `json:"contact_email"`
	ContactPhone   string            `json:"contact_phone"`
	Website        string            `json:"website"`
	Visibility     string            `json:"visibility"`
	VenueType      string            `json:"venue_type"`
	VenueName      string            `json:"venue_name"`
	VenueAddress   string            `json:"venue_address"`
	VenueCity      string            `json:"venue_city"`
	VenueState     string            `json:"venue_state"`
	VenueCountry   string            `json:"venue_country"`
	VenueLat       *float64          `json:"venue_lat"`
	VenueLng       *float64          `json:"venue_lng"`
	VenuePlaceID   string            `json:"venue_place_id"`
	Timezone       string            `json:"timezone"`
	Requirements   string            `json:"requirements"`
	BannerURL      string            `json:"banner_url"`
	ThumbnailURL   string            `json:"thumbnail_url"`
	Tags           []string          `json:"tags"`
	Timeslots      []Timeslot        `json:"timeslots"`
	AdditionalInfo map[string]string `json:"additional_info"`
	CreatedBy      Identity          `json:"created_by"`
}

type GetEventResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Event   *EventRecord `json:"event,omitempty"`
}

// UpdatePayload is the body of the update call: the flattened draft plus the
// derived additional_info mapping and timeslots array.
type UpdatePayload struct {
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Category       string            `json:"category"`
	ContactEmail   string            `json:"contact_email"`
	ContactPhone   string            `json:"contact_phone"`
	Website        string            `json:"website"`
	Visibility     string            `json:"visibility"`
	VenueType      string            `json:"venue_type"`
	VenueName      string            `json:"venue_name"`
	VenueAddress   string            `json:"venue_address"`
	VenueCity      string            `json:"venue_city"`
	VenueState     string            `json:"venue_state"`
	VenueCountry   string            `json:"venue_country"`
	VenueLat       *float64          `json:"venue_lat"`
	VenueLng       *float64          `json:"venue_lng"`
	VenuePlaceID   string            `json:"venue_place_id"`
	Timezone       string            `json:"timezone"`
	TimezoneOffset string            `json:"timezone_offset"`
	Requirements   string            `json:"requirements"`
	BannerURL      string            `json:"banner_url"`
	ThumbnailURL   string            `json:"thumbnail_url"`
	Tags           []string          `json:"tags"`
	Timeslots      []Timeslot        `json:"timeslots"`
	AdditionalInfo map[string]string `json:"additional_info"`
}

type UpdateEventResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Model       string `json:"model,omitempty"`
}

// Identity is a record owner reference. The backend sends either a bare id
// string or a populated user object.
type Identity string

func (i *Identity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*i = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = Identity(s)
		return nil
	}

	var obj struct {
		ID    string `json:"id"`
		Mongo string `json:"_id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode created_by: %w", err)
	}
	if obj.ID != "" {
		*i = Identity(obj.ID)
	} else {
		*i = Identity(obj.Mongo)
	}
	return nil
}
