package manager

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/noah-isme/eeeflix-contacts/internal/models"
)

type updateCall struct {
	studentID int
	contactNo string
	fbLink    string
}

// fakeAPI records calls and answers from canned values.
type fakeAPI struct {
	mu        sync.Mutex
	contacts  []models.Contact
	fetchErr  error
	updateErr error
	allMsg    string
	updates   []updateCall
	bulk      [][]models.Contact
}

func (f *fakeAPI) FetchContacts(ctx context.Context) ([]models.Contact, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, "", f.fetchErr
	}
	return append([]models.Contact(nil), f.contacts...), `"rev"`, nil
}

func (f *fakeAPI) UpdateContact(ctx context.Context, studentID int, contactNo, fbLink string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{studentID, contactNo, fbLink})
	if f.updateErr != nil {
		return "", f.updateErr
	}
	return fmt.Sprintf("Student %d updated successfully", studentID), nil
}

func (f *fakeAPI) UpdateAll(ctx context.Context, contacts []models.Contact) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulk = append(f.bulk, contacts)
	if f.updateErr != nil {
		return "", f.updateErr
	}
	return f.allMsg, nil
}

func (f *fakeAPI) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

// sixtyContacts mirrors the pre-seeded store.
func sixtyContacts() []models.Contact {
	out := make([]models.Contact, 0, 60)
	for i := 1; i <= 60; i++ {
		no := 2301000 + i
		out = append(out, models.Contact{
			No:        no,
			ContactNo: fmt.Sprintf("+880 015-%04d-%03d", i, i),
			FBLink:    fmt.Sprintf("https://facebook.com/eeeruet%d", no%10000),
		})
	}
	return out
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func keyOf(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

// send feeds msg to the manager and returns the new model and command.
func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return out, cmd
}

// loaded returns a manager that has already received the store.
func loaded(t *testing.T, api *fakeAPI) Model {
	t.Helper()
	m := New(api, nil)
	msg := m.Init()()
	m, _ = send(t, m, msg)
	return m
}

// stripANSI removes ANSI escape sequences from a string.
func stripANSI(s string) string {
	var out []byte
	i := 0
	for i < len(s) {
		if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 'A' || s[j] > 'Z') && (s[j] < 'a' || s[j] > 'z') {
				j++
			}
			if j < len(s) {
				j++
			}
			i = j
		} else {
			out = append(out, s[i])
			i++
		}
	}
	return string(out)
}

func containsPlainText(s, sub string) bool {
	return strings.Contains(stripANSI(s), sub)
}
