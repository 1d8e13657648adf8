package dto

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type safeIDProbe struct {
	Hash string `binding:"required,safe_id"`
}

func TestSafeIDValidator(t *testing.T) {
	cases := []struct {
		name  string
		value string
		valid bool
	}{
		{"alphanumeric", "TXN123abc", true},
		{"with separators", "txn_2024-01.15", true},
		{"spaces rejected", "txn 123", false},
		{"sql chars rejected", "txn';--", false},
		{"html rejected", "<script>", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&safeIDProbe{Hash: tc.value})
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSanitizeStruct(t *testing.T) {
	ref := "  <b>ref</b>  "
	req := struct {
		Hash      string
		Reference *string
		Amount    int64
	}{
		Hash:      "  txn_123  ",
		Reference: &ref,
		Amount:    5000,
	}

	SanitizeStruct(&req)

	assert.Equal(t, "txn_123", req.Hash)
	require.NotNil(t, req.Reference)
	assert.Equal(t, "&lt;b&gt;ref&lt;/b&gt;", *req.Reference)
	assert.Equal(t, int64(5000), req.Amount)
}

func TestSanitizeStruct_NonPointerNoOp(t *testing.T) {
	// Must not panic on values it cannot address.
	SanitizeStruct("not a struct")
	SanitizeStruct(nil)
}
