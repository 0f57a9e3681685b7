// Package manager implements the terminal Contact Manager and the Profile
// Edit Modal. Both read the raw store file and write through the update
// endpoint of a running API.
package manager

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/eeeflix-contacts/internal/client"
	"github.com/noah-isme/eeeflix-contacts/internal/models"
)

// Banner and modal timings.
const (
	BannerTTL       = 3 * time.Second
	ModalCloseDelay = 1500 * time.Millisecond
)

// User-visible texts.
const (
	textLoading       = "Loading student data..."
	textLoadFailed    = "Failed to load student data: "
	textSaving        = "Saving changes..."
	textSavingAll     = "Saving all changes..."
	textSaveFailed    = "Failed to save changes: "
	textSavedOne      = "Successfully updated student %d"
	textSavedAll      = "All changes saved successfully!"
	textProfileSaved  = "Contact information updated successfully!"
	textProfileSaving = "Saving..."
)

// ContactsAPI is what both UIs need from the contacts API.
type ContactsAPI interface {
	FetchContacts(ctx context.Context) ([]models.Contact, string, error)
	UpdateContact(ctx context.Context, studentID int, contactNo, fbLink string) (string, error)
	UpdateAll(ctx context.Context, contacts []models.Contact) (string, error)
}

// contactsLoadedMsg carries the result of the initial store fetch.
type contactsLoadedMsg struct {
	contacts []models.Contact
	err      error
}

// contactSavedMsg carries the result of a single-record update.
type contactSavedMsg struct {
	studentID int
	contactNo string
	fbLink    string
	message   string
	err       error
}

// allSavedMsg carries the result of a Save All.
type allSavedMsg struct {
	message string
	err     error
}

// clearBannerMsg clears the banner if it is still the one identified by seq.
type clearBannerMsg struct {
	seq int
}

// closeModalMsg closes the profile modal after a successful save.
type closeModalMsg struct{}

// reason extracts the text shown to the user for a failed call.
func reason(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return apiErr.Err
	}
	return err.Error()
}
