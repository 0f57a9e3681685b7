package dto

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/noah-isme/eeeflix-contacts/internal/models"
)

// UpdateContactsRequest is the body accepted by the update endpoint. It carries
// either a single-record patch or a whole-list replacement.
type UpdateContactsRequest struct {
	StudentID int `json:"studentId,omitempty"`
	// StudentRef is a truthy studentId that is not an integral number. No
	// record carries such an id, so the patch matches nothing.
	StudentRef  string           `json:"-"`
	ContactNo   string           `json:"contactNo,omitempty"`
	FBLink      string           `json:"fbLink,omitempty"`
	UpdateAll   bool             `json:"updateAll,omitempty"`
	AllStudents []models.Contact `json:"allStudents"`
}

// UnmarshalJSON applies the endpoint's loose typing: studentId and updateAll
// count when truthy, and an allStudents member that is not an array is ignored
// so the request falls through to the single-record rules.
func (r *UpdateContactsRequest) UnmarshalJSON(data []byte) error {
	var aux struct {
		StudentID   json.RawMessage `json:"studentId"`
		ContactNo   *string         `json:"contactNo"`
		FBLink      *string         `json:"fbLink"`
		UpdateAll   json.RawMessage `json:"updateAll"`
		AllStudents json.RawMessage `json:"allStudents"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	out := UpdateContactsRequest{UpdateAll: truthy(aux.UpdateAll)}
	if truthy(aux.StudentID) {
		out.StudentID, out.StudentRef = studentKey(aux.StudentID)
	}
	if aux.ContactNo != nil {
		out.ContactNo = *aux.ContactNo
	}
	if aux.FBLink != nil {
		out.FBLink = *aux.FBLink
	}
	if trimmed := bytes.TrimSpace(aux.AllStudents); len(trimmed) > 0 && trimmed[0] == '[' {
		contacts, err := models.UnmarshalContacts(trimmed)
		if err != nil {
			return err
		}
		out.AllStudents = contacts
	}
	*r = out
	return nil
}

// IsBulk reports whether the request replaces the whole store.
func (r UpdateContactsRequest) IsBulk() bool {
	return r.UpdateAll && r.AllStudents != nil
}

// IsSingle reports whether the request patches one record.
func (r UpdateContactsRequest) IsSingle() bool {
	return !r.IsBulk() && (r.StudentID != 0 || r.StudentRef != "")
}

// Student returns the studentId as the success message prints it.
func (r UpdateContactsRequest) Student() string {
	if r.StudentRef != "" {
		return r.StudentRef
	}
	return strconv.Itoa(r.StudentID)
}

// truthy reports whether a JSON value is neither absent, null, false, zero
// nor the empty string.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch string(raw) {
	case "null", "false", `""`:
		return false
	}
	if raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9') {
		n, err := strconv.ParseFloat(string(raw), 64)
		return err != nil || n != 0
	}
	return true
}

// studentKey maps a truthy studentId onto a record id when it is an integral
// number, or onto the text it is echoed as otherwise.
func studentKey(raw json.RawMessage) (int, string) {
	raw = bytes.TrimSpace(raw)
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == math.Trunc(n) && math.Abs(n) <= math.MaxInt32 {
			return int(n), ""
		}
		return 0, strconv.FormatFloat(n, 'f', -1, 64)
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return 0, text
	}
	return 0, string(raw)
}

// ExportResponse describes a generated contact export.
type ExportResponse struct {
	URL       string    `json:"url"`
	Format    string    `json:"format"`
	Records   int       `json:"records"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BackupResponse lists one stored backup.
type BackupResponse struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}
