package blog

import (
	"encoding/json"
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostInputAuthorIDCoercion(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *int64
	}{
		{"number", `{"AuthorId":7}`, ptr(7)},
		{"numeric string", `{"AuthorId":"7"}`, ptr(7)},
		{"padded string", `{"AuthorId":" 7 "}`, ptr(7)},
		{"leading zero is decimal", `{"AuthorId":"010"}`, ptr(10)},
		{"zero fraction", `{"AuthorId":7.0}`, ptr(7)},
		{"negative", `{"AuthorId":"-3"}`, ptr(-3)},
		{"large", `{"AuthorId":9223372036854775807}`, ptr(math.MaxInt64)},
		{"null", `{"AuthorId":null}`, nil},
		{"empty string", `{"AuthorId":""}`, nil},
		{"absent", `{"title":"t"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in PostInput
			require.NoError(t, json.Unmarshal([]byte(tt.body), &in))
			assert.Equal(t, tt.want, in.AuthorID)
		})
	}
}

func TestPostInputRejectsNonIntegerAuthorID(t *testing.T) {
	for _, body := range []string{
		`{"AuthorId":"abc"}`,
		`{"AuthorId":"0x10"}`,
		`{"AuthorId":1.5}`,
		`{"AuthorId":true}`,
		`{"AuthorId":"9223372036854775808"}`,
	} {
		var in PostInput
		err := json.Unmarshal([]byte(body), &in)

		var cerr *CoercionError
		require.ErrorAs(t, err, &cerr, body)
		assert.Equal(t, "AuthorId", cerr.Field)
	}
}

func TestPostInputKeepsOtherFieldsStrict(t *testing.T) {
	var in PostInput
	err := json.Unmarshal([]byte(`{"title":42}`), &in)

	var typeErr *json.UnmarshalTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "title", typeErr.Field)
}

func TestDecodeForm(t *testing.T) {
	var author AuthorInput
	require.NoError(t, author.DecodeForm(url.Values{"firstName": {"Seb"}, "lastName": {"Ceb"}}))
	assert.Equal(t, AuthorInput{FirstName: "Seb", LastName: "Ceb"}, author)

	var post PostInput
	require.NoError(t, post.DecodeForm(url.Values{"title": {"Hello"}, "content": {"World"}, "AuthorId": {"1"}}))
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, "World", post.Content)
	assert.Equal(t, ptr(1), post.AuthorID)

	post = PostInput{}
	require.NoError(t, post.DecodeForm(url.Values{"title": {"Orphan"}, "AuthorId": {""}}))
	assert.Nil(t, post.AuthorID)

	var cerr *CoercionError
	assert.ErrorAs(t, post.DecodeForm(url.Values{"AuthorId": {"one"}}), &cerr)
}

func TestCoercedNegativeAuthorIDFailsValidation(t *testing.T) {
	var in PostInput
	require.NoError(t, json.Unmarshal([]byte(`{"title":"t","AuthorId":"-1"}`), &in))

	err := Validate(&in)
	assert.True(t, IsValidation(err))
}

func ptr(v int64) *int64 {
	return &v
}
