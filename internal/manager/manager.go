package manager

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/noah-isme/eeeflix-contacts/internal/models"
)

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeEdit
)

// editBuffer holds the in-progress values of the row being edited.
type editBuffer struct {
	studentID int
	fields    [2]textinput.Model
	focus     int
}

func newEditBuffer(c models.Contact) editBuffer {
	phone := textinput.New()
	phone.Prompt = ""
	phone.Placeholder = "Contact No"
	phone.SetValue(c.ContactNo)
	phone.Width = colPhoneWidth - 2

	link := textinput.New()
	link.Prompt = ""
	link.Placeholder = "FB ID Link"
	link.SetValue(c.FBLink)
	link.Width = colLinkWidth - 2

	buf := editBuffer{studentID: c.No, fields: [2]textinput.Model{phone, link}}
	buf.fields[0].Focus()
	return buf
}

func (e *editBuffer) move(delta int) {
	e.fields[e.focus].Blur()
	e.focus = (e.focus + delta + len(e.fields)) % len(e.fields)
	e.fields[e.focus].Focus()
}

func (e editBuffer) contactNo() string { return e.fields[0].Value() }
func (e editBuffer) fbLink() string    { return e.fields[1].Value() }

// Model is the Contact Manager: a searchable, paginated and editable table
// over the whole contact store.
type Model struct {
	api    ContactsAPI
	logger *zap.Logger
	keys   tableKeys
	form   formKeys
	help   help.Model

	contacts []models.Contact
	filtered []models.Contact
	search   textinput.Model
	page     int
	pageSize int
	cursor   int

	mode    mode
	edit    editBuffer
	banner  banner
	loading bool
	saving  bool
	width   int
}

// New creates a Contact Manager that loads the store on Init.
func New(api ContactsAPI, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "student id, phone or link"

	return Model{
		api:      api,
		logger:   logger,
		keys:     defaultTableKeys(),
		form:     defaultFormKeys(),
		help:     help.New(),
		search:   search,
		page:     1,
		pageSize: models.DefaultPageSize,
		loading:  true,
	}
}

// Init fetches the store once.
func (m Model) Init() tea.Cmd {
	return loadContacts(m.api)
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case contactsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.logger.Error("contact store fetch failed", zap.Error(msg.err))
			m.banner.set(bannerError, textLoadFailed+reason(msg.err))
			return m, nil
		}
		m.contacts = msg.contacts
		m.refilter()
		return m, nil

	case contactSavedMsg:
		m.saving = false
		if msg.err != nil {
			m.logger.Error("contact save failed", zap.Int("student_id", msg.studentID), zap.Error(msg.err))
			m.banner.set(bannerError, textSaveFailed+reason(msg.err))
			return m, nil
		}
		for i := range m.contacts {
			if m.contacts[i].No == msg.studentID {
				m.contacts[i].SetContactInfo(msg.contactNo, msg.fbLink)
			}
		}
		m.refilter()
		m.mode = modeBrowse
		m.edit = editBuffer{}
		cmd := m.banner.success(fmt.Sprintf(textSavedOne, msg.studentID))
		return m, cmd

	case allSavedMsg:
		m.saving = false
		if msg.err != nil {
			m.logger.Error("contact save all failed", zap.Error(msg.err))
			m.banner.set(bannerError, textSaveFailed+reason(msg.err))
			return m, nil
		}
		text := msg.message
		if text == "" {
			text = textSavedAll
		}
		cmd := m.banner.success(text)
		return m, cmd

	case clearBannerMsg:
		m.banner.clear(msg.seq)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.loading || m.saving {
			return m, nil
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeEdit:
			return m.updateEdit(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.pageRows()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.PrevPage):
		if m.page > 1 {
			m.page--
			m.cursor = 0
		}
	case key.Matches(msg, m.keys.NextPage):
		if m.page < m.pagination().TotalPages {
			m.page++
			m.cursor = 0
		}
	case key.Matches(msg, m.keys.PageSize):
		m.pageSize = nextPageSize(m.pageSize)
		m.page = 1
		m.cursor = 0
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		cmd := m.search.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Edit):
		if len(rows) == 0 {
			return m, nil
		}
		m.mode = modeEdit
		m.edit = newEditBuffer(rows[m.cursor])
		return m, textinput.Blink
	case key.Matches(msg, m.keys.SaveAll):
		m.saving = true
		m.banner.set(bannerInfo, textSavingAll)
		return m, saveAll(m.api, m.contacts)
	case key.Matches(msg, m.keys.Reload):
		m.loading = true
		return m, loadContacts(m.api)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.mode = modeBrowse
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.search.Blur()
		m.search.SetValue("")
		m.refilter()
		return m, nil
	}
	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.refilter()
	}
	return m, cmd
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.form.Cancel):
		m.mode = modeBrowse
		m.edit = editBuffer{}
		return m, nil
	case key.Matches(msg, m.form.Submit):
		m.saving = true
		m.banner.set(bannerInfo, textSaving)
		return m, saveOne(m.api, m.edit.studentID, m.edit.contactNo(), m.edit.fbLink())
	case key.Matches(msg, m.form.Next):
		m.edit.move(1)
		return m, nil
	case key.Matches(msg, m.form.Prev):
		m.edit.move(-1)
		return m, nil
	}
	var cmd tea.Cmd
	m.edit.fields[m.edit.focus], cmd = m.edit.fields[m.edit.focus].Update(msg)
	return m, cmd
}

// refilter recomputes the visible rows and returns to the first page.
func (m *Model) refilter() {
	m.filtered = models.FilterContacts(m.contacts, m.search.Value())
	m.page = 1
	m.cursor = 0
}

func (m Model) pagination() models.Pagination {
	_, p := models.Paginate(m.filtered, m.page, m.pageSize)
	return p
}

func (m Model) pageRows() []models.Contact {
	rows, _ := models.Paginate(m.filtered, m.page, m.pageSize)
	return rows
}

// View renders the table, banner and help bar.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("EEEFLIX · Student Contacts"))
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(textLoading + "\n")
		return b.String()
	}

	b.WriteString(m.search.View())
	b.WriteString("\n")
	b.WriteString(m.banner.View())
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render(cell("No", colNoWidth) + cell("Contact No", colPhoneWidth) + cell("FB ID Link", colLinkWidth)))
	b.WriteString("\n")
	rows := m.pageRows()
	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("No students found"))
		b.WriteString("\n")
	}
	for i, c := range rows {
		if m.mode == modeEdit && c.No == m.edit.studentID {
			b.WriteString(cell(strconv.Itoa(c.No), colNoWidth) +
				cell(m.edit.fields[0].View(), colPhoneWidth) +
				cell(m.edit.fields[1].View(), colLinkWidth))
			b.WriteString("\n")
			continue
		}
		line := cell(strconv.Itoa(c.No), colNoWidth) + cell(c.ContactNo, colPhoneWidth) + cell(c.FBLink, colLinkWidth)
		if i == m.cursor && m.mode == modeBrowse {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	p := m.pagination()
	fmt.Fprintf(&b, "\nPage %d of %d · %d students · %d per page\n", p.Page, p.TotalPages, p.TotalCount, p.PageSize)

	if m.mode == modeBrowse {
		b.WriteString(m.help.View(m.keys))
	} else {
		b.WriteString(m.help.View(m.form))
	}
	return b.String()
}

func nextPageSize(current int) int {
	for i, size := range models.PageSizes {
		if size == current {
			return models.PageSizes[(i+1)%len(models.PageSizes)]
		}
	}
	return models.DefaultPageSize
}

func loadContacts(api ContactsAPI) tea.Cmd {
	return func() tea.Msg {
		contacts, _, err := api.FetchContacts(context.Background())
		return contactsLoadedMsg{contacts: contacts, err: err}
	}
}

func saveOne(api ContactsAPI, studentID int, contactNo, fbLink string) tea.Cmd {
	return func() tea.Msg {
		message, err := api.UpdateContact(context.Background(), studentID, contactNo, fbLink)
		return contactSavedMsg{studentID: studentID, contactNo: contactNo, fbLink: fbLink, message: message, err: err}
	}
}

func saveAll(api ContactsAPI, contacts []models.Contact) tea.Cmd {
	snapshot := append([]models.Contact(nil), contacts...)
	return func() tea.Msg {
		message, err := api.UpdateAll(context.Background(), snapshot)
		return allSavedMsg{message: message, err: err}
	}
}
