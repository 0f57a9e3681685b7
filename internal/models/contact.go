package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// JSON member names used by the contact store file.
const (
	ContactFieldNo     = "No"
	ContactFieldPhone  = "Contact No"
	ContactFieldFBLink = "FB ID Link"
)

// Contact is one student's entry in the contact store.
type Contact struct {
	No        int    `db:"no" json:"No" validate:"gt=0"`
	ContactNo string `db:"contact_no" json:"Contact No"`
	FBLink    string `db:"fb_link" json:"FB ID Link"`

	// Extra keeps members the store carries beyond the three known ones so they survive a rewrite.
	Extra map[string]json.RawMessage `db:"-" json:"-" validate:"-"`

	// members is the member order read from the store, nil for the default order.
	members []string
	// raw holds phone or link values exactly as read when they are not plain strings.
	raw map[string]json.RawMessage
}

// ContactRow is the SQL projection of a contact. Document holds the record as
// written to the store file so member order and extras survive the table.
type ContactRow struct {
	No        int       `db:"no"`
	ContactNo string    `db:"contact_no"`
	FBLink    string    `db:"fb_link"`
	Document  string    `db:"document"`
	Position  int       `db:"position"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ContactQuery filters and paginates contacts.
type ContactQuery struct {
	Search   string
	Page     int
	PageSize int
}

// PageSizes lists the page sizes offered by the contact manager.
var PageSizes = []int{5, 10, 20, 50}

// DefaultPageSize is used when no valid page size is requested.
const DefaultPageSize = 10

// NormalizePageSize returns size when it is one of PageSizes, DefaultPageSize otherwise.
func NormalizePageSize(size int) int {
	for _, allowed := range PageSizes {
		if size == allowed {
			return size
		}
	}
	return DefaultPageSize
}

// Matches reports whether the contact matches a case-insensitive substring search
// over its id, phone and facebook link. An empty term matches everything.
func (c Contact) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strconv.Itoa(c.No), term) {
		return true
	}
	if strings.Contains(strings.ToLower(c.ContactNo), term) {
		return true
	}
	return strings.Contains(strings.ToLower(c.FBLink), term)
}

// MarshalJSON writes the record's members in the order they were read. Records
// built in code use No, Contact No, FB ID Link, then extras by key.
func (c Contact) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, name := range c.layout() {
		if err := writeMember(buf, name, c.memberValue(name), i == 0); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the known members and keeps everything else in Extra.
// Member order and non-string phone or link values are remembered so an
// untouched record is written back byte for byte.
func (c *Contact) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("contact must be a JSON object")
	}
	var out Contact
	var names []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("contact member name %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decode %q: %w", name, err)
		}
		if err := out.setMember(name, value); err != nil {
			return err
		}
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	if !slices.Equal(names, out.defaultLayout()) {
		out.members = names
	}
	*c = out
	return nil
}

// SetContactInfo assigns the phone number and facebook link. Either member is
// appended to the record when it did not carry it.
func (c *Contact) SetContactInfo(phone, link string) {
	c.ContactNo = phone
	c.FBLink = link
	if c.raw != nil {
		kept := make(map[string]json.RawMessage, len(c.raw))
		for name, value := range c.raw {
			if name != ContactFieldPhone && name != ContactFieldFBLink {
				kept[name] = value
			}
		}
		c.raw = nil
		if len(kept) > 0 {
			c.raw = kept
		}
	}
	if c.members == nil {
		return
	}
	members := slices.Clone(c.members)
	for _, name := range []string{ContactFieldPhone, ContactFieldFBLink} {
		if !slices.Contains(members, name) {
			members = append(members, name)
		}
	}
	c.members = members
}

func (c *Contact) setMember(name string, value json.RawMessage) error {
	switch name {
	case ContactFieldNo:
		if err := json.Unmarshal(value, &c.No); err != nil {
			return fmt.Errorf("decode %q: %w", name, err)
		}
	case ContactFieldPhone:
		c.ContactNo = c.decodeText(name, value)
	case ContactFieldFBLink:
		c.FBLink = c.decodeText(name, value)
	default:
		if c.Extra == nil {
			c.Extra = make(map[string]json.RawMessage)
		}
		c.Extra[name] = value
	}
	return nil
}

// decodeText returns the string held by value. Any other JSON value (null,
// numbers, objects) is kept raw so it is written back unchanged.
func (c *Contact) decodeText(name string, value json.RawMessage) string {
	delete(c.raw, name)
	var text string
	if !bytes.Equal(value, []byte("null")) && json.Unmarshal(value, &text) == nil {
		return text
	}
	if c.raw == nil {
		c.raw = make(map[string]json.RawMessage)
	}
	c.raw[name] = value
	return ""
}

// defaultLayout is the member order of a record built in code.
func (c Contact) defaultLayout() []string {
	names := []string{ContactFieldNo, ContactFieldPhone, ContactFieldFBLink}
	extras := make([]string, 0, len(c.Extra))
	for name := range c.Extra {
		extras = append(extras, name)
	}
	sort.Strings(extras)
	return append(names, extras...)
}

func (c Contact) layout() []string {
	if c.members == nil {
		return c.defaultLayout()
	}
	names := make([]string, 0, len(c.members)+len(c.Extra))
	for _, name := range c.members {
		if c.hasMember(name) {
			names = append(names, name)
		}
	}
	// Members assigned in code after the record was read go last.
	for _, name := range c.defaultLayout() {
		if slices.Contains(names, name) {
			continue
		}
		switch {
		case name == ContactFieldNo && c.No == 0,
			name == ContactFieldPhone && c.ContactNo == "",
			name == ContactFieldFBLink && c.FBLink == "":
			continue
		}
		names = append(names, name)
	}
	return names
}

func (c Contact) hasMember(name string) bool {
	switch name {
	case ContactFieldNo, ContactFieldPhone, ContactFieldFBLink:
		return true
	}
	_, ok := c.Extra[name]
	return ok
}

func (c Contact) memberValue(name string) interface{} {
	switch name {
	case ContactFieldNo:
		return c.No
	case ContactFieldPhone:
		return c.textValue(name, c.ContactNo)
	case ContactFieldFBLink:
		return c.textValue(name, c.FBLink)
	}
	return c.Extra[name]
}

// textValue returns the raw value read for name until a string is assigned.
func (c Contact) textValue(name, current string) interface{} {
	if raw, ok := c.raw[name]; ok && current == "" {
		return raw
	}
	return current
}

func writeMember(buf *bytes.Buffer, key string, value interface{}, first bool) error {
	if !first {
		buf.WriteByte(',')
	}
	encodedKey, err := encodeNoEscape(key)
	if err != nil {
		return err
	}
	buf.Write(encodedKey)
	buf.WriteByte(':')
	if raw, ok := value.(json.RawMessage); ok {
		buf.Write(raw)
		return nil
	}
	encoded, err := encodeNoEscape(value)
	if err != nil {
		return err
	}
	buf.Write(encoded)
	return nil
}

func encodeNoEscape(value interface{}) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalContacts renders contacts the way the store file is written:
// a JSON array indented with four spaces, HTML characters left unescaped.
func MarshalContacts(contacts []Contact) ([]byte, error) {
	if contacts == nil {
		contacts = []Contact{}
	}
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(contacts); err != nil {
		return nil, fmt.Errorf("encode contacts: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalContacts parses a contact store document.
func UnmarshalContacts(data []byte) ([]Contact, error) {
	var contacts []Contact
	if err := json.Unmarshal(data, &contacts); err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}
	if contacts == nil {
		contacts = []Contact{}
	}
	return contacts, nil
}

// FilterContacts returns the contacts matching term, keeping store order.
func FilterContacts(contacts []Contact, term string) []Contact {
	out := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.Matches(term) {
			out = append(out, c)
		}
	}
	return out
}

// Paginate slices contacts for a 1-based page. Out of range pages are clamped
// to the nearest valid page.
func Paginate(contacts []Contact, page, pageSize int) ([]Contact, Pagination) {
	pageSize = NormalizePageSize(pageSize)
	total := len(contacts)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	return contacts[start:end], Pagination{Page: page, PageSize: pageSize, TotalCount: total, TotalPages: totalPages}
}

// IndexOf returns the position of the contact with the given id, or -1.
func IndexOf(contacts []Contact, no int) int {
	for i, c := range contacts {
		if c.No == no {
			return i
		}
	}
	return -1
}
