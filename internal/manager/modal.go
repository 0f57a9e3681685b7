package manager

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/noah-isme/eeeflix-contacts/internal/models"
)

type modalState int

const (
	modalLoading modalState = iota
	modalEditing
	modalSaving
	modalSaved
	modalClosed
)

// Modal is the Profile Edit Modal for one student. It prefills from its own
// fetch of the store, saves through the single-record update and closes
// shortly after a successful save.
type Modal struct {
	api       ContactsAPI
	logger    *zap.Logger
	keys      formKeys
	help      help.Model
	studentID int

	fields [2]textinput.Model
	focus  int
	state  modalState
	errMsg string

	// unloaded is set when the prefill failed; an empty form is then not saved.
	unloaded bool
}

// NewModal creates the modal for studentID.
func NewModal(api ContactsAPI, studentID int, logger *zap.Logger) Modal {
	if logger == nil {
		logger = zap.NewNop()
	}
	phone := textinput.New()
	phone.Prompt = "Phone:    "
	phone.Placeholder = "+880 01X-XXXX-XXXX"
	phone.Width = colLinkWidth

	link := textinput.New()
	link.Prompt = "Facebook: "
	link.Placeholder = "https://facebook.com/..."
	link.Width = colLinkWidth

	return Modal{
		api:       api,
		logger:    logger,
		keys:      defaultFormKeys(),
		help:      help.New(),
		studentID: studentID,
		fields:    [2]textinput.Model{phone, link},
	}
}

// Init fetches the current values of the student.
func (m Modal) Init() tea.Cmd {
	return loadContacts(m.api)
}

// Closed reports whether the modal has been dismissed.
func (m Modal) Closed() bool {
	return m.state == modalClosed
}

// Values returns the current contents of the phone and link fields.
func (m Modal) Values() (string, string) {
	return m.fields[0].Value(), m.fields[1].Value()
}

// Update handles incoming messages.
func (m Modal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case contactsLoadedMsg:
		m.state = modalEditing
		if msg.err != nil {
			m.errMsg = textLoadFailed + reason(msg.err)
			m.unloaded = true
			m.logger.Error("contact prefill failed", zap.Int("student_id", m.studentID), zap.Error(msg.err))
		} else if idx := models.IndexOf(msg.contacts, m.studentID); idx >= 0 {
			m.fields[0].SetValue(msg.contacts[idx].ContactNo)
			m.fields[1].SetValue(msg.contacts[idx].FBLink)
		}
		m.focus = 0
		cmd := m.fields[0].Focus()
		return m, cmd

	case contactSavedMsg:
		if msg.err != nil {
			m.state = modalEditing
			m.errMsg = textSaveFailed + reason(msg.err)
			m.logger.Error("contact save failed", zap.Int("student_id", m.studentID), zap.Error(msg.err))
			return m, nil
		}
		m.state = modalSaved
		m.errMsg = ""
		return m, tea.Tick(ModalCloseDelay, func(time.Time) tea.Msg { return closeModalMsg{} })

	case closeModalMsg:
		m.state = modalClosed
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.state = modalClosed
			return m, tea.Quit
		}
		if m.state != modalEditing {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.state = modalClosed
			return m, tea.Quit
		case key.Matches(msg, m.keys.Submit):
			phone, link := m.Values()
			if m.unloaded && phone == "" && link == "" {
				return m, nil
			}
			m.state = modalSaving
			return m, saveOne(m.api, m.studentID, phone, link)
		case key.Matches(msg, m.keys.Next):
			cmd := m.moveFocus(1)
			return m, cmd
		case key.Matches(msg, m.keys.Prev):
			cmd := m.moveFocus(-1)
			return m, cmd
		}
		var cmd tea.Cmd
		m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Modal) moveFocus(delta int) tea.Cmd {
	m.fields[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.fields)) % len(m.fields)
	return m.fields[m.focus].Focus()
}

// View renders the modal box.
func (m Modal) View() string {
	if m.state == modalClosed {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Edit Contact Information · %d", m.studentID)))
	b.WriteString("\n\n")

	if m.state == modalLoading {
		b.WriteString(textLoading)
		return modalStyle.Render(b.String())
	}

	b.WriteString(m.fields[0].View())
	b.WriteString("\n")
	b.WriteString(m.fields[1].View())
	b.WriteString("\n\n")

	switch {
	case m.state == modalSaved:
		b.WriteString(successStyle.Render(textProfileSaved))
	case m.state == modalSaving:
		b.WriteString(infoStyle.Render(textProfileSaving))
	case m.errMsg != "":
		b.WriteString(errorStyle.Render(m.errMsg))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return modalStyle.Render(b.String())
}
