package manager

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sendModal(t *testing.T, m Modal, msg tea.Msg) (Modal, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Modal)
	if !ok {
		t.Fatalf("Update returned %T, want Modal", next)
	}
	return out, cmd
}

func openModal(t *testing.T, api *fakeAPI, studentID int, logger *zap.Logger) Modal {
	t.Helper()
	m := NewModal(api, studentID, logger)
	m, _ = sendModal(t, m, m.Init()())
	return m
}

func TestModalPrefillsFromStore(t *testing.T) {
	m := openModal(t, &fakeAPI{contacts: sixtyContacts()}, 2301042, nil)

	phone, link := m.Values()
	assert.Equal(t, "+880 015-0042-042", phone)
	assert.Equal(t, "https://facebook.com/eeeruet1042", link)
	assert.Equal(t, modalEditing, m.state)
	assert.True(t, containsPlainText(m.View(), "Edit Contact Information · 2301042"))
}

func TestModalUnknownStudentStartsEmpty(t *testing.T) {
	m := openModal(t, &fakeAPI{contacts: sixtyContacts()}, 9999999, nil)
	phone, link := m.Values()
	assert.Empty(t, phone)
	assert.Empty(t, link)
}

func TestModalSaveSuccessClosesAfterDelay(t *testing.T) {
	api := &fakeAPI{contacts: sixtyContacts()}
	m := openModal(t, api, 2301001, nil)
	m.fields[0].SetValue("+880999")

	m, cmd := sendModal(t, m, keyOf(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.Equal(t, modalSaving, m.state)
	assert.True(t, containsPlainText(m.View(), "Saving..."))

	m, cmd = sendModal(t, m, cmd())
	require.NotNil(t, cmd, "success schedules the close")
	assert.True(t, containsPlainText(m.View(), "Contact information updated successfully!"))
	assert.False(t, m.Closed())
	assert.Equal(t, []updateCall{{2301001, "+880999", "https://facebook.com/eeeruet1001"}}, api.updates)

	m, cmd = sendModal(t, m, closeModalMsg{})
	assert.True(t, m.Closed())
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModalSaveFailureIsShownAndLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	api := &fakeAPI{contacts: sixtyContacts(), updateErr: errors.New("connection refused")}
	m := openModal(t, api, 2301001, zap.New(core))

	m, cmd := sendModal(t, m, keyOf(tea.KeyEnter))
	m, cmd = sendModal(t, m, cmd())

	assert.Nil(t, cmd)
	assert.False(t, m.Closed())
	assert.Equal(t, modalEditing, m.state)
	assert.True(t, containsPlainText(m.View(), "Failed to save changes: connection refused"))

	entries := logs.FilterMessage("contact save failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2301001), entries[0].ContextMap()["student_id"])

	// The user can retry from the same form.
	api.updateErr = nil
	m, cmd = sendModal(t, m, keyOf(tea.KeyEnter))
	m, _ = sendModal(t, m, cmd())
	assert.Equal(t, modalSaved, m.state)
	assert.Equal(t, 2, api.updateCount())
}

func TestModalPrefillFailureIsShownAndBlocksEmptySave(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	api := &fakeAPI{fetchErr: errors.New("boom")}
	m := openModal(t, api, 2301001, zap.New(core))

	assert.Equal(t, modalEditing, m.state)
	assert.Equal(t, 1, logs.FilterMessage("contact prefill failed").Len())
	assert.True(t, containsPlainText(m.View(), "Failed to load student data: boom"))

	m, cmd := sendModal(t, m, keyOf(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Equal(t, modalEditing, m.state)
	assert.Zero(t, api.updateCount())

	m, _ = sendModal(t, m, keyRunes("+880777"))
	m, cmd = sendModal(t, m, keyOf(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.Equal(t, modalSaving, m.state)
	m, _ = sendModal(t, m, cmd())
	assert.Equal(t, modalSaved, m.state)
	assert.Equal(t, []updateCall{{2301001, "+880777", ""}}, api.updates)
}

func TestModalEscClosesWithoutSaving(t *testing.T) {
	api := &fakeAPI{contacts: sixtyContacts()}
	m := openModal(t, api, 2301001, nil)

	m, cmd := sendModal(t, m, keyOf(tea.KeyEsc))
	assert.True(t, m.Closed())
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Zero(t, api.updateCount())
	assert.Empty(t, m.View())
}

func TestModalTabMovesFocus(t *testing.T) {
	m := openModal(t, &fakeAPI{contacts: sixtyContacts()}, 2301001, nil)
	m, _ = sendModal(t, m, keyOf(tea.KeyTab))
	assert.Equal(t, 1, m.focus)
	m, _ = sendModal(t, m, keyOf(tea.KeyShiftTab))
	assert.Equal(t, 0, m.focus)
}

func TestModalTeatestSaveAndClose(t *testing.T) {
	api := &fakeAPI{contacts: sixtyContacts()}
	tm := teatest.NewTestModel(t, NewModal(api, 2301007, nil), teatest.WithInitialTermSize(100, 30))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return containsPlainText(string(bts), "eeeruet1007")
	}, teatest.WithDuration(2*time.Second))

	tm.Send(keyOf(tea.KeyEnter))

	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))
	final := tm.FinalModel(t).(Modal)
	assert.True(t, final.Closed())
	assert.Equal(t, 1, api.updateCount())
}
