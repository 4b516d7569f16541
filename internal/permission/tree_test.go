package permission

import (
	"errors"
	"testing"

	"github.com/Kyz7/reviewhub/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	cases := []struct {
		in   string
		want ModulePath
		ok   bool
	}{
		{in: "commonPermissions.company", want: Common(ModuleCompany), ok: true},
		{in: "specific.review", want: Specific(ModuleReview), ok: true},
		{in: "blog", want: Common(ModuleBlog), ok: true},
		{in: "specific.unknown", ok: false},
		{in: "elsewhere.company", ok: false},
		{in: "commonPermissions.company.extra", ok: false},
		{in: "", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParsePath(tc.in)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestDecodeTree(t *testing.T) {
	t.Run("Success - Accepts both capability shapes", func(t *testing.T) {
		tree, err := DecodeTree([]byte(`{
			"commonPermissions": {
				"company": {"read": true, "update": {"value": true}, "delete": {"value": false}},
				"blog": true,
				"review": false
			}
		}`))
		require.NoError(t, err)

		assert.Equal(t, Capabilities{Read: true, Update: true}, tree[Common(ModuleCompany)])
		assert.Equal(t, Full(), tree[Common(ModuleBlog)])
		assert.Equal(t, Capabilities{}, tree[Common(ModuleReview)])
	})

	t.Run("Success - Unknown paths and shapes grant nothing", func(t *testing.T) {
		tree, err := DecodeTree([]byte(`{
			"commonPermissions": {"company": {"read": "yes", "fly": true}, "spaceship": true},
			"legacy": {"company": true}
		}`))
		require.NoError(t, err)

		assert.Len(t, tree, 1)
		assert.Equal(t, Capabilities{}, tree[Common(ModuleCompany)])
	})

	t.Run("Error - Malformed JSON", func(t *testing.T) {
		_, err := DecodeTree([]byte(`{"commonPermissions":`))
		assert.Error(t, err)
	})

	t.Run("Success - Round trip through canonical form", func(t *testing.T) {
		in := Tree{Specific(ModuleCompany): {Read: true}, Common(ModuleBlog): Full()}
		raw, err := EncodeTree(in)
		require.NoError(t, err)

		out, err := DecodeTree(raw)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})
}

func TestValidateDocument(t *testing.T) {
	t.Run("Success - Valid document", func(t *testing.T) {
		tree, err := ValidateDocument([]byte(`{"specific": {"company": {"read": {"value": true}}}}`))
		require.NoError(t, err)
		assert.True(t, tree[Specific(ModuleCompany)].Read)
	})

	t.Run("Error - Unknown module and bad capability", func(t *testing.T) {
		_, err := ValidateDocument([]byte(`{"commonPermissions": {"rocket": true, "company": {"read": "yes"}}}`))
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrValidation))

		var e *apperr.Error
		require.True(t, errors.As(err, &e))
		problems := e.Details.(map[string]string)
		assert.Contains(t, problems, "commonPermissions.rocket")
		assert.Contains(t, problems, "commonPermissions.company")
	})
}
