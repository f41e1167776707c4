package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/uxaudit/internal/domain/model"
	apperrors "github.com/target/uxaudit/internal/errors"
)

func TestStruct_StartAuditRequest(t *testing.T) {
	err := Struct(&model.StartAuditRequest{PageTitle: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "imageData", apperrors.GetField(err))
	assert.Equal(t, "imageData is required", err.Error())

	assert.NoError(t, Struct(&model.StartAuditRequest{ImageData: "data:image/png;base64,AA"}))
}

func TestMessages(t *testing.T) {
	type form struct {
		Name  string `json:"name" validate:"required,max=3"`
		Kind  string `json:"kind" validate:"oneof=html pdf"`
		Notes string `json:"-"`
	}

	msgs := Messages(&form{Name: "toolong", Kind: "doc"})
	assert.Equal(t, map[string]string{
		"name": "name must be no longer than 3 characters",
		"kind": "kind must be one of: html pdf",
	}, msgs)

	err := Struct(&form{Name: "toolong", Kind: "doc"})
	assert.Equal(t, "kind", apperrors.GetField(err))
	assert.Equal(t, "kind must be one of: html pdf; name must be no longer than 3 characters", err.Error())

	assert.Empty(t, Messages(&form{Name: "ok", Kind: "pdf"}))
}
