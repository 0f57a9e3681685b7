package manager

import (
	"errors"
	"net/http"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eeeflix-contacts/internal/client"
	"github.com/noah-isme/eeeflix-contacts/internal/models"
)

func TestManagerLoadsStoreOnInit(t *testing.T) {
	api := &fakeAPI{contacts: sixtyContacts()}
	m := New(api, nil)
	assert.True(t, containsPlainText(m.View(), "Loading student data..."))

	m = loaded(t, api)
	assert.False(t, m.loading)
	assert.Len(t, m.contacts, 60)
	assert.Len(t, m.pageRows(), 10)

	p := m.pagination()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 6, p.TotalPages)
	assert.True(t, containsPlainText(m.View(), "2301001"))
}

func TestManagerLoadFailureShowsErrorBanner(t *testing.T) {
	api := &fakeAPI{fetchErr: &client.APIError{Status: http.StatusNotFound, Err: "Not Found"}}
	m := loaded(t, api)

	assert.Equal(t, bannerError, m.banner.kind)
	assert.Equal(t, "Failed to load student data: Not Found", m.banner.text)
	assert.Empty(t, m.contacts)
}

func TestManagerSearchFiltersOnEveryKeystroke(t *testing.T) {
	m := loaded(t, &fakeAPI{contacts: sixtyContacts()})
	m, _ = send(t, m, keyOf(tea.KeyRight))
	require.Equal(t, 2, m.page)

	m, _ = send(t, m, keyRunes("/"))
	require.Equal(t, modeSearch, m.mode)

	m, _ = send(t, m, keyRunes("230100"))
	assert.Len(t, m.filtered, 9)
	assert.Equal(t, 1, m.page)

	m, _ = send(t, m, keyRunes("2"))
	require.Len(t, m.filtered, 1)
	assert.Equal(t, 2301002, m.filtered[0].No)
	assert.Equal(t, 1, m.pagination().Page)

	// Typing q into the search box must not quit.
	typed, _ := send(t, m, keyRunes("q"))
	assert.Equal(t, modeSearch, typed.mode)
	assert.Empty(t, typed.filtered)

	m, _ = send(t, m, keyOf(tea.KeyEsc))
	assert.Equal(t, modeBrowse, m.mode)
	assert.Len(t, m.filtered, 60)
}

func TestManagerSearchIsCaseInsensitive(t *testing.T) {
	m := loaded(t, &fakeAPI{contacts: sixtyContacts()})
	m, _ = send(t, m, keyRunes("/"))
	m, _ = send(t, m, keyRunes("EEERUET1060"))
	require.Len(t, m.filtered, 1)
	assert.Equal(t, 2301060, m.filtered[0].No)
}

func TestManagerPagination(t *testing.T) {
	m := loaded(t, &fakeAPI{contacts: sixtyContacts()})

	for i := 0; i < 10; i++ {
		m, _ = send(t, m, keyOf(tea.KeyRight))
	}
	assert.Equal(t, 6, m.page)
	assert.Equal(t, 2301051, m.pageRows()[0].No)

	m, _ = send(t, m, keyOf(tea.KeyLeft))
	assert.Equal(t, 5, m.page)

	var sizes []int
	for i := 0; i < 4; i++ {
		m, _ = send(t, m, keyRunes("z"))
		sizes = append(sizes, m.pageSize)
		assert.Equal(t, 1, m.page)
	}
	assert.Equal(t, []int{20, 50, 5, 10}, sizes)
}

func TestManagerRowEditSave(t *testing.T) {
	api := &fakeAPI{contacts: sixtyContacts()}
	m := loaded(t, api)

	m, _ = send(t, m, keyOf(tea.KeyDown))
	m, _ = send(t, m, keyOf(tea.KeyEnter))
	require.Equal(t, modeEdit, m.mode)
	require.Equal(t, 2301002, m.edit.studentID)
	assert.Equal(t, "+880 015-0002-002", m.edit.contactNo())

	m.edit.fields[0].SetValue("+880999")
	m.edit.fields[1].SetValue("http://fb.com/b")

	m, cmd := send(t, m, keyOf(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.True(t, m.saving)
	assert.Equal(t, "Saving changes...", m.banner.text)

	// Keys are ignored while the request is in flight.
	m, _ = send(t, m, keyOf(tea.KeyEsc))
	assert.Equal(t, modeEdit, m.mode)

	m, cmd = send(t, m, cmd())
	require.NotNil(t, cmd, "success schedules the banner auto-clear")
	assert.False(t, m.saving)
	assert.Equal(t, modeBrowse, m.mode)
	assert.Equal(t, bannerSuccess, m.banner.kind)
	assert.Equal(t, "Successfully updated student 2301002", m.banner.text)

	assert.Equal(t, []updateCall{{2301002, "+880999", "http://fb.com/b"}}, api.updates)
	assert.Equal(t, models.Contact{No: 2301002, ContactNo: "+880999", FBLink: "http://fb.com/b"}, m.contacts[1])
	assert.Equal(t, sixtyContacts()[0], m.contacts[0])
}

func TestManagerRowEditCancelMakesNoCall(t *testing.T) {
	api := &fakeAPI{contacts: sixtyContacts()}
	m := loaded(t, api)

	m, _ = send(t, m, keyRunes("e"))
	m, _ = send(t, m, keyRunes("123"))
	m, cmd := send(t, m, keyOf(tea.KeyEsc))

	assert.Nil(t, cmd)
	assert.Equal(t, modeBrowse, m.mode)
	assert.Zero(t, api.updateCount())
	assert.Equal(t, sixtyContacts()[0], m.contacts[0])
}

func TestManagerRowEditFailureKeepsState(t *testing.T) {
	api := &fakeAPI{
		contacts:  sixtyContacts(),
		updateErr: &client.APIError{Status: http.StatusInternalServerError, Err: "Failed to update contacts", Message: "disk full"},
	}
	m := loaded(t, api)

	m, _ = send(t, m, keyOf(tea.KeyEnter))
	m.edit.fields[0].SetValue("+880999")
	m, cmd := send(t, m, keyOf(tea.KeyEnter))
	m, cmd = send(t, m, cmd())

	assert.Nil(t, cmd)
	assert.Equal(t, bannerError, m.banner.kind)
	assert.Equal(t, "Failed to save changes: disk full", m.banner.text)
	assert.Equal(t, modeEdit, m.mode)
	assert.Equal(t, sixtyContacts()[0], m.contacts[0])

	// Error banners are not removed by a stale auto-clear.
	m, _ = send(t, m, clearBannerMsg{seq: m.banner.seq})
	assert.Equal(t, bannerError, m.banner.kind)
}

func TestManagerSaveAll(t *testing.T) {
	api := &fakeAPI{contacts: sixtyContacts(), allMsg: "All students updated successfully"}
	m := loaded(t, api)

	m, cmd := send(t, m, keyRunes("S"))
	require.NotNil(t, cmd)
	assert.Equal(t, "Saving all changes...", m.banner.text)
	assert.Equal(t, bannerInfo, m.banner.kind)

	m, _ = send(t, m, cmd())
	require.Len(t, api.bulk, 1)
	assert.Equal(t, sixtyContacts(), api.bulk[0])
	assert.Equal(t, "All students updated successfully", m.banner.text)
	assert.Equal(t, bannerSuccess, m.banner.kind)
}

func TestManagerSaveAllFallbackAndFailure(t *testing.T) {
	api := &fakeAPI{contacts: sixtyContacts()}
	m := loaded(t, api)

	m, cmd := send(t, m, keyOf(tea.KeyCtrlS))
	m, _ = send(t, m, cmd())
	assert.Equal(t, "All changes saved successfully!", m.banner.text)

	api.updateErr = errors.New("context deadline exceeded")
	m, cmd = send(t, m, keyRunes("S"))
	m, _ = send(t, m, cmd())
	assert.Equal(t, bannerError, m.banner.kind)
	assert.Equal(t, "Failed to save changes: context deadline exceeded", m.banner.text)
}

func TestManagerSuccessBannerAutoClears(t *testing.T) {
	m := loaded(t, &fakeAPI{contacts: sixtyContacts()})
	m, cmd := send(t, m, keyRunes("S"))
	m, _ = send(t, m, cmd())
	first := m.banner.seq

	m, cmd = send(t, m, keyRunes("S"))
	m, _ = send(t, m, cmd())

	// The first timer fires after a newer banner replaced it.
	m, _ = send(t, m, clearBannerMsg{seq: first})
	assert.Equal(t, bannerSuccess, m.banner.kind)

	m, _ = send(t, m, clearBannerMsg{seq: m.banner.seq})
	assert.Equal(t, bannerNone, m.banner.kind)
	assert.Empty(t, m.banner.text)
}

func TestManagerTeatestSearchFlow(t *testing.T) {
	api := &fakeAPI{contacts: sixtyContacts()}
	tm := teatest.NewTestModel(t, New(api, nil), teatest.WithInitialTermSize(120, 40))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return containsPlainText(string(bts), "Page 1 of 6")
	}, teatest.WithDuration(2*time.Second))

	tm.Send(keyRunes("/"))
	tm.Type("2301002")
	tm.Send(keyOf(tea.KeyEnter))
	tm.Send(keyRunes("q"))

	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
	final := tm.FinalModel(t).(Model)
	require.Len(t, final.filtered, 1)
	assert.Equal(t, 2301002, final.filtered[0].No)
	assert.Equal(t, 1, final.pagination().Page)
}
