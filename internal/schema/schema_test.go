package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
#Item: {
	name:  string & !=""
	count: int & >=0
	tags?: [...string]
}
`

type item struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags,omitempty"`
}

func TestValidateDecodesConcreteDocument(t *testing.T) {
	v := MustNew("test.cue", testSchema)

	var got item
	err := v.Validate("#Item", []byte(`{"name":"widget","count":3,"tags":["a"]}`), &got)
	require.NoError(t, err)
	assert.Equal(t, item{Name: "widget", Count: 3, Tags: []string{"a"}}, got)
}

func TestValidateReportsFieldPaths(t *testing.T) {
	v := MustNew("test.cue", testSchema)

	var got item
	err := v.Validate("#Item", []byte(`{"name":"","count":-1}`), &got)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "#Item", ve.Definition)

	paths := map[string]bool{}
	for _, fe := range ve.Errors {
		paths[fe.Path] = true
	}
	assert.True(t, paths["name"], "errors: %v", ve.Errors)
	assert.True(t, paths["count"], "errors: %v", ve.Errors)
	assert.Equal(t, item{}, got, "nothing is decoded on failure")
}

func TestValidateRejectsUnknownFields(t *testing.T) {
	v := MustNew("test.cue", testSchema)

	var got item
	err := v.Validate("#Item", []byte(`{"name":"widget","count":1,"colour":"red"}`), &got)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestValidateRejectsMalformedJSON(t *testing.T) {
	v := MustNew("test.cue", testSchema)

	var got item
	err := v.Validate("#Item", []byte(`{"name":`), &got)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "$", ve.Errors[0].Path)
}

func TestValidateUnknownDefinition(t *testing.T) {
	v := MustNew("test.cue", testSchema)

	err := v.Validate("#Missing", []byte(`{}`), &item{})
	require.Error(t, err)
	var ve *ValidationError
	assert.False(t, errors.As(err, &ve))
}

func TestNewRejectsInvalidSource(t *testing.T) {
	_, err := New("bad.cue", `#Item: {`)
	assert.Error(t, err)
}
