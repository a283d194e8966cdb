package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceAcceptsStringAndNumericIDs(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"data":[
		{"id":"a1b2","attributes":{"name":"Acme"}},
		{"id":42,"attributes":{"name":"Blue Ridge"}}
	]}`), &env))

	rows, err := env.Resources()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a1b2", rows[0].ID)
	assert.Equal(t, "42", rows[1].ID)
	assert.Equal(t, "Acme", rows[0].Attr("name"))
}

func TestAttrRendersNumbersWithoutFraction(t *testing.T) {
	res := Resource{Attributes: map[string]any{
		"quantity": float64(10),
		"price":    3.5,
		"missing":  nil,
	}}
	assert.Equal(t, "10", res.Attr("quantity"))
	assert.Equal(t, "3.5", res.Attr("price"))
	assert.Equal(t, "", res.Attr("missing"))
	assert.Equal(t, "", res.Attr("absent"))
}

func TestEnvelopeMessageString(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"message":"Deleted."}`), &env))
	assert.Equal(t, "Deleted.", env.Message())
	assert.Nil(t, env.FieldErrors())
}

func TestEnvelopeMessageValidationMap(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"message":{"name":["The name field is required."]}}`), &env))
	assert.Empty(t, env.Message())
	errs := env.FieldErrors()
	require.NotNil(t, errs)
	assert.Equal(t, []string{"The name field is required."}, errs["name"])
}

func TestEnvelopeMetaLinks(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"data":[],"meta":{
		"from":11,"to":20,"total":35,"current_page":2,"last_page":4,"per_page":10,
		"links":[
			{"url":"http://api.test/products?page=1","label":"&laquo; Previous","active":false},
			{"url":"http://api.test/products?page=2","label":"2","active":true},
			{"url":null,"label":"Next &raquo;","active":false}
		]}}`), &env))

	require.NotNil(t, env.Meta)
	assert.Equal(t, 35, env.Meta.Total)
	require.Len(t, env.Meta.Links, 3)
	require.NotNil(t, env.Meta.Links[0].URL)
	assert.True(t, env.Meta.Links[1].Active)
	assert.Nil(t, env.Meta.Links[2].URL, "a null url marks a disabled link")
}
