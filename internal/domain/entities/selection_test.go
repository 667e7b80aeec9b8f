package entities

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelection_States(t *testing.T) {
	var zero Selection
	assert.True(t, zero.IsZero())
	assert.Equal(t, SelectionNone, zero.State())
	assert.Equal(t, "none", zero.String())

	existing := Existing(12, 3, "Gasman")
	assert.True(t, existing.IsExisting())
	assert.Equal(t, int64(12), existing.NickID())
	assert.Equal(t, int64(3), existing.ReleaserID())
	assert.Equal(t, `existing(12, "Gasman")`, existing.String())

	pending := Pending("  Foo ", KindGroup)
	assert.True(t, pending.IsPending())
	assert.Equal(t, "Foo", pending.Name())
	assert.Equal(t, KindGroup, pending.Kind())
	assert.Zero(t, pending.NickID())
	assert.Equal(t, `pending("Foo", group)`, pending.String())
}

func TestSelection_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b Selection
		want bool
	}{
		{name: "none equals none", want: true},
		{name: "same nick", a: Existing(1, 1, "A"), b: Existing(1, 1, "B"), want: true},
		{name: "different nick", a: Existing(1, 1, "A"), b: Existing(2, 1, "A"), want: false},
		{name: "same pending", a: Pending("Foo", KindPerson), b: Pending("Foo ", KindPerson), want: true},
		{name: "pending kind differs", a: Pending("Foo", KindPerson), b: Pending("Foo", KindGroup), want: false},
		{name: "pending name differs", a: Pending("Foo", KindPerson), b: Pending("foo", KindPerson), want: false},
		{name: "existing vs pending", a: Existing(1, 1, "Foo"), b: Pending("Foo", KindPerson), want: false},
		{name: "existing vs none", a: Existing(1, 1, "Foo"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

func TestSelection_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Existing(5, 2, "Gasman"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"existing","nick_id":5,"releaser_id":2,"name":"Gasman"}`, string(data))

	data, err = json.Marshal(Pending("Foo", KindPerson))
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"pending","name":"Foo","kind":"person"}`, string(data))

	data, err = json.Marshal(Selection{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"none"}`, string(data))
}

func TestErrors_Unwrap(t *testing.T) {
	var err error = &ResolutionError{NickID: 4, Name: "Gasman"}
	assert.True(t, errors.Is(err, ErrResolution))
	assert.Equal(t, `"Gasman" (nick 4) no longer exists, please search again`, err.Error())
	assert.Equal(t, "nick 4 no longer exists, please search again", (&ResolutionError{NickID: 4}).Error())

	err = &StaleSelectionError{Field: "author 1", Key: "99"}
	assert.True(t, errors.Is(err, ErrStaleSelection))
}
